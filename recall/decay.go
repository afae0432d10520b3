package recall

import "math"

// DecayParams tunes the time decay curve r = a/sqrt(x) + b*exp(-c*x) - d,
// where x is days since purchase.
type DecayParams struct {
	A float64
	B float64
	C float64
	D float64
}

// DefaultDecayParams is the curve used by the recent-purchase rules.
// At x=1 it yields ~2.90, at x=7 ~0.87.
var DefaultDecayParams = DecayParams{A: 1.0, B: 1.0, C: 0.1, D: 0.0}

// TimeDecayScore scores a purchase by its age in days. Non-positive ages are
// clamped to 0.01 to avoid division by zero, and the result is clamped to be
// non-negative.
func TimeDecayScore(days float64, p DecayParams) float64 {
	if days <= 0 {
		days = 0.01
	}
	score := p.A/math.Sqrt(days) + p.B*math.Exp(-p.C*days) - p.D
	return math.Max(0.0, score)
}

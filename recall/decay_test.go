package recall

import (
	"math"
	"testing"
)

func TestTimeDecayScore(t *testing.T) {
	tests := []struct {
		name string
		days float64
		want float64
	}{
		{name: "one day", days: 1, want: 1.0 + math.Exp(-0.1)},
		{name: "seven days", days: 7, want: 1.0/math.Sqrt(7) + math.Exp(-0.7)},
		{name: "zero clamps to 0.01", days: 0, want: 1.0/math.Sqrt(0.01) + math.Exp(-0.001)},
		{name: "negative clamps to 0.01", days: -3, want: 1.0/math.Sqrt(0.01) + math.Exp(-0.001)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TimeDecayScore(tt.days, DefaultDecayParams)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("TimeDecayScore(%v) = %v, want %v", tt.days, got, tt.want)
			}
		})
	}
}

func TestTimeDecayScoreMonotone(t *testing.T) {
	prev := math.Inf(1)
	for days := 1.0; days <= 30; days++ {
		got := TimeDecayScore(days, DefaultDecayParams)
		if got >= prev {
			t.Fatalf("score at %v days (%v) not below score at %v days (%v)", days, got, days-1, prev)
		}
		prev = got
	}
}

func TestTimeDecayScoreNonNegative(t *testing.T) {
	p := DecayParams{A: 0.1, B: 0.1, C: 0.5, D: 2.0}
	if got := TimeDecayScore(10, p); got != 0 {
		t.Errorf("large offset should clamp to zero, got %v", got)
	}
}

package model

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/wearlane/recsys/feature"
)

// Params are the boosting hyperparameters.
type Params struct {
	LearningRate    float64 `json:"learning_rate"`
	NumLeaves       int     `json:"num_leaves"`
	MaxDepth        int     `json:"max_depth"`
	MinChildSamples int     `json:"min_child_samples"`
	Subsample       float64 `json:"subsample"`
	ColsampleByTree float64 `json:"colsample_bytree"`
	Lambda          float64 `json:"reg_lambda"`
}

// DefaultParams is the configuration the ranker ships with.
var DefaultParams = Params{
	LearningRate:    0.03,
	NumLeaves:       128,
	MaxDepth:        8,
	MinChildSamples: 20,
	Subsample:       0.8,
	ColsampleByTree: 0.7,
	Lambda:          0.0,
}

// GBDT is a gradient-boosted decision tree classifier with logistic loss.
// Categorical features are handled natively with equality splits on an
// integer encoding; no one-hot expansion.
type GBDT struct {
	// Features is the column order the trees were built against. Prediction
	// inputs are encoded into this order.
	Features []string `json:"features"`
	// CatFeatures lists which of Features are categorical.
	CatFeatures []string `json:"cat_features"`
	// Vocab maps each categorical feature's values to integer codes. Unseen
	// values encode to -1 and fall to the right branch of every split.
	Vocab map[string]map[string]int `json:"vocab"`

	Trees         []tree  `json:"trees"`
	BaseScore     float64 `json:"base_score"`
	LearningRate  float64 `json:"learning_rate"`
	BestIteration int     `json:"best_iteration"`
	Params        Params  `json:"params"`

	catSet map[string]bool
}

var _ RankModel = (*GBDT)(nil)

func (m *GBDT) Name() string { return "gbdt" }

// Predict returns the positive-class probability for one feature row.
func (m *GBDT) Predict(values map[string]float64, cats map[string]string) (float64, error) {
	if len(m.Trees) == 0 {
		return 0, ErrModelUnavailable
	}
	x := make([]float64, len(m.Features))
	for i, name := range m.Features {
		if m.isCat(name) {
			x[i] = m.encodeCat(name, cats[name])
			continue
		}
		x[i] = values[name]
	}
	return sigmoid(m.rawScore(x)), nil
}

func (m *GBDT) rawScore(x []float64) float64 {
	n := m.BestIteration
	if n <= 0 || n > len(m.Trees) {
		n = len(m.Trees)
	}
	score := m.BaseScore
	for i := 0; i < n; i++ {
		score += m.Trees[i].predict(x)
	}
	return score
}

func (m *GBDT) isCat(name string) bool {
	if m.catSet == nil {
		m.catSet = make(map[string]bool, len(m.CatFeatures))
		for _, c := range m.CatFeatures {
			m.catSet[c] = true
		}
	}
	return m.catSet[name]
}

func (m *GBDT) encodeCat(name, value string) float64 {
	if codes, ok := m.Vocab[name]; ok {
		if code, ok := codes[value]; ok {
			return float64(code)
		}
	}
	return -1
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// TrainResult reports what the boosting loop did.
type TrainResult struct {
	Rounds        int                `json:"rounds"`
	BestIteration int                `json:"best_iteration"`
	BestValAUC    float64            `json:"best_val_auc"`
	TrainAUC      float64            `json:"train_auc"`
	Importance    map[string]float64 `json:"feature_importance"`
}

// Train fits a GBDT on the train table with AUC early stopping on the
// validation table. Training stops when the validation AUC has not improved
// for earlyStop consecutive rounds; BestIteration records the best round and
// prediction uses only trees up to it.
func Train(train, val *feature.Table, p Params, rounds, earlyStop int, rng *rand.Rand) (*GBDT, *TrainResult, error) {
	if len(train.Rows) == 0 {
		return nil, nil, fmt.Errorf("train: empty training table")
	}
	if rounds <= 0 {
		return nil, nil, fmt.Errorf("train: rounds must be positive, got %d", rounds)
	}

	m := &GBDT{
		LearningRate: p.LearningRate,
		Params:       p,
		Vocab:        make(map[string]map[string]int),
	}
	for _, f := range train.Schema {
		m.Features = append(m.Features, f.Name)
		if f.Kind == feature.Categorical {
			m.CatFeatures = append(m.CatFeatures, f.Name)
		}
	}
	m.buildVocab(train)

	X, y := m.encodeTable(train)
	XVal, yVal := m.encodeTable(val)

	// Base score is the log-odds of the training positive rate.
	var posRate float64
	for _, v := range y {
		posRate += v
	}
	posRate /= float64(len(y))
	posRate = math.Min(math.Max(posRate, 1e-6), 1-1e-6)
	m.BaseScore = math.Log(posRate / (1 - posRate))

	raw := make([]float64, len(y))
	rawVal := make([]float64, len(yVal))
	for i := range raw {
		raw[i] = m.BaseScore
	}
	for i := range rawVal {
		rawVal[i] = m.BaseScore
	}

	importance := make(map[string]float64)
	bestAUC := math.Inf(-1)
	bestIter := 0
	sinceBest := 0

	grads := make([]float64, len(y))
	hess := make([]float64, len(y))

	var round int
	for round = 0; round < rounds; round++ {
		for i := range y {
			pi := sigmoid(raw[i])
			grads[i] = pi - y[i]
			hess[i] = pi * (1 - pi)
		}

		rows := sampleRows(len(y), p.Subsample, rng)
		cols := sampleCols(len(m.Features), p.ColsampleByTree, rng)

		t := buildTree(X, grads, hess, rows, cols, m, p, importance)
		m.Trees = append(m.Trees, t)

		for i := range raw {
			raw[i] += t.predict(X[i])
		}
		for i := range rawVal {
			rawVal[i] += t.predict(XVal[i])
		}

		if len(yVal) > 0 {
			auc := AUC(yVal, rawVal)
			if auc > bestAUC {
				bestAUC = auc
				bestIter = round + 1
				sinceBest = 0
			} else {
				sinceBest++
				if earlyStop > 0 && sinceBest >= earlyStop {
					round++
					break
				}
			}
		} else {
			bestIter = round + 1
		}
	}

	m.BestIteration = bestIter

	res := &TrainResult{
		Rounds:        round,
		BestIteration: bestIter,
		Importance:    importance,
	}
	if len(yVal) > 0 {
		res.BestValAUC = bestAUC
	}
	res.TrainAUC = AUC(y, m.rawScores(X))
	return m, res, nil
}

func (m *GBDT) rawScores(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = m.rawScore(x)
	}
	return out
}

func (m *GBDT) buildVocab(table *feature.Table) {
	for _, f := range table.Schema {
		if f.Kind != feature.Categorical {
			continue
		}
		codes := make(map[string]int)
		for _, r := range table.Rows {
			v := r.Cat(f)
			if _, ok := codes[v]; !ok {
				codes[v] = len(codes)
			}
		}
		m.Vocab[f.Name] = codes
	}
}

func (m *GBDT) encodeTable(table *feature.Table) ([][]float64, []float64) {
	if table == nil {
		return nil, nil
	}
	X := make([][]float64, len(table.Rows))
	y := make([]float64, len(table.Rows))
	for i := range table.Rows {
		r := &table.Rows[i]
		x := make([]float64, len(m.Features))
		for j, name := range m.Features {
			f, _ := table.Schema.Field(name)
			if m.isCat(name) {
				x[j] = m.encodeCat(name, r.Cat(f))
			} else {
				x[j] = r.Value(f)
			}
		}
		X[i] = x
		y[i] = float64(r.Label)
	}
	return X, y
}

func sampleRows(n int, fraction float64, rng *rand.Rand) []int {
	if fraction >= 1.0 {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	out := make([]int, 0, int(float64(n)*fraction)+1)
	for i := 0; i < n; i++ {
		if rng.Float64() < fraction {
			out = append(out, i)
		}
	}
	if len(out) == 0 {
		out = append(out, rng.Intn(n))
	}
	return out
}

func sampleCols(n int, fraction float64, rng *rand.Rand) []int {
	k := int(math.Ceil(float64(n) * fraction))
	if k < 1 {
		k = 1
	}
	if k >= n {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	perm := rng.Perm(n)[:k]
	sort.Ints(perm)
	return perm
}

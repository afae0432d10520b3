package core

// Item is the unit that flows through the recommendation pipeline: a candidate
// article for one user, carrying its blended score, the per-rule score
// breakdown, the feature vector built for ranking, and display metadata.
//
// Score holds whichever score is currently authoritative: the blended
// retrieval score after candidate generation, the model score after ranking.
// RuleScores keeps the normalized per-rule contributions so downstream stages
// (feature building, debugging) can see each signal separately.
type Item struct {
	ID         string
	Score      float64
	Reason     string
	RuleScores map[string]float64
	Features   map[string]float64
	Meta       map[string]any
}

func NewItem(id string) *Item {
	return &Item{
		ID:         id,
		RuleScores: make(map[string]float64),
		Features:   make(map[string]float64),
		Meta:       make(map[string]any),
	}
}

// PutRuleScore records a rule's normalized score, keeping the maximum when
// the same rule reports an article more than once.
func (it *Item) PutRuleScore(rule string, score float64) {
	if it.RuleScores == nil {
		it.RuleScores = make(map[string]float64)
	}
	if old, ok := it.RuleScores[rule]; ok && old >= score {
		return
	}
	it.RuleScores[rule] = score
}

// Clone returns a deep copy. Blender output may be cached and shared between
// requests, so stages that mutate items work on copies.
func (it *Item) Clone() *Item {
	cp := &Item{
		ID:     it.ID,
		Score:  it.Score,
		Reason: it.Reason,
	}
	if it.RuleScores != nil {
		cp.RuleScores = make(map[string]float64, len(it.RuleScores))
		for k, v := range it.RuleScores {
			cp.RuleScores[k] = v
		}
	}
	if it.Features != nil {
		cp.Features = make(map[string]float64, len(it.Features))
		for k, v := range it.Features {
			cp.Features[k] = v
		}
	}
	if it.Meta != nil {
		cp.Meta = make(map[string]any, len(it.Meta))
		for k, v := range it.Meta {
			cp.Meta[k] = v
		}
	}
	return cp
}

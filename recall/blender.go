package recall

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wearlane/recsys/core"
	"github.com/wearlane/recsys/pipeline"
)

// rulePriority fixes the reason tie-break: when an article's best raw score
// is shared by several rules, the more specific personal signal wins.
var rulePriority = []string{
	RuleRecentShort,
	RuleRecentLong,
	RuleBoughtTogether,
	RulePopularAge,
}

// DefaultRuleWeights is the blend used when no weights are configured. The
// long recency window gets half the short window's weight.
var DefaultRuleWeights = map[string]float64{
	RuleRecentShort:    0.4,
	RuleRecentLong:     0.2,
	RuleBoughtTogether: 0.3,
	RulePopularAge:     0.3,
}

// Blender fans out to the retrieval sources, pivots their outputs into one
// row per article, quantile-normalizes each rule's scores and combines them
// into a weighted blend. Output is sorted by blended score, truncated to
// TopN, with Reason set to the rule with the highest raw score.
type Blender struct {
	Sources []Source
	Weights map[string]float64
	TopN    int
	// SourceTimeout bounds each source's Retrieve call. A source that times
	// out contributes nothing; the blend proceeds with the rest.
	SourceTimeout time.Duration
}

var _ pipeline.Node = (*Blender)(nil)

func NewBlender(sources ...Source) *Blender {
	return &Blender{
		Sources:       sources,
		Weights:       DefaultRuleWeights,
		TopN:          500,
		SourceTimeout: 800 * time.Millisecond,
	}
}

func (b *Blender) Name() string { return "recall.blend" }

func (b *Blender) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process implements pipeline.Node. Incoming items are ignored; recall is the
// head of the chain.
func (b *Blender) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return b.GetCandidates(ctx, rctx)
}

// GetCandidates runs all sources and blends their results for one user. A
// user unknown to every source yields an empty list, not an error.
func (b *Blender) GetCandidates(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	type ruleResult struct {
		rule  string
		items []*core.Item
	}

	var mu sync.Mutex
	var results []ruleResult

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range b.Sources {
		src := src
		g.Go(func() error {
			sctx := gctx
			if b.SourceTimeout > 0 {
				var cancel context.CancelFunc
				sctx, cancel = context.WithTimeout(gctx, b.SourceTimeout)
				defer cancel()
			}
			items, err := src.Retrieve(sctx, rctx)
			if err != nil {
				// A slow or failed source degrades the blend, it does not
				// fail the request.
				if sctx.Err() != nil && gctx.Err() == nil {
					return nil
				}
				return err
			}
			if len(items) == 0 {
				return nil
			}
			mu.Lock()
			results = append(results, ruleResult{rule: src.Rule(), items: items})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	// Pivot: one row per article, max raw score per rule.
	pivot := make(map[string]map[string]float64)
	activeRules := make(map[string]struct{})
	for _, r := range results {
		activeRules[r.rule] = struct{}{}
		for _, it := range r.items {
			row, ok := pivot[it.ID]
			if !ok {
				row = make(map[string]float64, len(b.Sources))
				pivot[it.ID] = row
			}
			if s, ok := it.RuleScores[r.rule]; ok && s > row[r.rule] {
				row[r.rule] = s
			}
		}
	}

	articleIDs := make([]string, 0, len(pivot))
	for id := range pivot {
		articleIDs = append(articleIDs, id)
	}
	sort.Strings(articleIDs)

	// Normalize each active rule's column and renormalize the weights over
	// the rules that actually fired.
	normalized := make(map[string][]float64, len(activeRules))
	var totalWeight float64
	for _, rule := range rulePriority {
		if _, ok := activeRules[rule]; !ok {
			continue
		}
		col := make([]float64, len(articleIDs))
		for i, id := range articleIDs {
			col[i] = pivot[id][rule]
		}
		normalized[rule] = QuantileNormalize(col)
		totalWeight += b.weight(rule)
	}
	if totalWeight == 0 {
		totalWeight = 1
	}

	items := make([]*core.Item, 0, len(articleIDs))
	for i, id := range articleIDs {
		it := core.NewItem(id)
		raw := pivot[id]
		var blended float64
		for _, rule := range rulePriority {
			norm, ok := normalized[rule]
			if !ok {
				continue
			}
			blended += (b.weight(rule) / totalWeight) * norm[i]
			it.RuleScores[rule] = raw[rule]
		}
		it.Score = blended
		it.Reason = primaryReason(raw)
		items = append(items, it)
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
	if b.TopN > 0 && len(items) > b.TopN {
		items = items[:b.TopN]
	}
	return items, nil
}

func (b *Blender) weight(rule string) float64 {
	if w, ok := b.Weights[rule]; ok {
		return w
	}
	return DefaultRuleWeights[rule]
}

// primaryReason picks the rule with the highest raw score; ties resolve by
// rulePriority order.
func primaryReason(raw map[string]float64) string {
	best := ""
	bestScore := -1.0
	for _, rule := range rulePriority {
		s, ok := raw[rule]
		if !ok {
			continue
		}
		if s > bestScore {
			bestScore = s
			best = rule
		}
	}
	return best
}

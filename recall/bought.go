package recall

import (
	"context"
	"sort"
	"time"

	"github.com/wearlane/recsys/core"
)

// BoughtTogetherSource retrieves articles co-purchased with the user's recent
// purchases. For each of up to MaxSeeds recent articles it counts how often
// other articles appear in the baskets of that article's buyers, keeps the
// top K, and max-normalizes the counts. The same article surfaced by several
// seeds keeps its best score.
type BoughtTogetherSource struct {
	Data *core.Dataset
	// SeedDays is the lookback window for choosing seed articles.
	SeedDays int
	// MaxSeeds caps the number of seed articles expanded, to bound fanout.
	MaxSeeds int
	K        int
}

var _ Source = (*BoughtTogetherSource)(nil)

func NewBoughtTogetherSource(data *core.Dataset) *BoughtTogetherSource {
	return &BoughtTogetherSource{
		Data:     data,
		SeedDays: 7,
		MaxSeeds: 10,
		K:        50,
	}
}

func (s *BoughtTogetherSource) Name() string { return "bought_together" }

func (s *BoughtTogetherSource) Rule() string { return RuleBoughtTogether }

func (s *BoughtTogetherSource) Retrieve(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	seeds := s.recentSeeds(rctx.UserID)
	if len(seeds) == 0 {
		return nil, nil
	}

	byArticle := make(map[string]float64)
	for _, seed := range seeds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, e := range s.coPurchased(seed) {
			if old, ok := byArticle[e.ArticleID]; !ok || e.Score > old {
				byArticle[e.ArticleID] = e.Score
			}
		}
	}

	items := make([]*core.Item, 0, len(byArticle))
	for id, score := range byArticle {
		it := core.NewItem(id)
		it.Score = score
		it.Reason = RuleBoughtTogether
		it.PutRuleScore(RuleBoughtTogether, score)
		items = append(items, it)
	}
	return items, nil
}

// recentSeeds returns distinct articles the user bought within SeedDays of
// the snapshot date, capped at MaxSeeds.
func (s *BoughtTogetherSource) recentSeeds(userID string) []string {
	cutoff := s.Data.MaxDate().Add(-time.Duration(s.SeedDays) * 24 * time.Hour)
	seen := make(map[string]struct{})
	var seeds []string
	for _, t := range s.Data.UserTransactions(userID) {
		if t.Date.Before(cutoff) {
			continue
		}
		if _, ok := seen[t.ArticleID]; ok {
			continue
		}
		seen[t.ArticleID] = struct{}{}
		seeds = append(seeds, t.ArticleID)
		if len(seeds) == s.MaxSeeds {
			break
		}
	}
	return seeds
}

func (s *BoughtTogetherSource) coPurchased(seed string) []popularEntry {
	buyers := s.Data.ArticleBuyers(seed)
	if len(buyers) == 0 {
		return nil
	}

	counts := make(map[string]int)
	for buyer := range buyers {
		for _, t := range s.Data.UserTransactions(buyer) {
			if t.ArticleID == seed {
				continue
			}
			counts[t.ArticleID]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	entries := make([]popularEntry, 0, len(counts))
	for id, c := range counts {
		entries = append(entries, popularEntry{ArticleID: id, Score: float64(c)})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].ArticleID < entries[j].ArticleID
	})
	if len(entries) > s.K {
		entries = entries[:s.K]
	}

	maxCount := entries[0].Score
	for i := range entries {
		entries[i].Score /= maxCount
	}
	return entries
}

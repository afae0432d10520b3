package recall

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/wearlane/recsys/core"
)

// PopularByAgeSource retrieves the most purchased articles within the user's
// age cohort over a recent window, max-normalized to [0, 1]. Cohort
// popularity is identical for every user in the bin, so the ranked list is
// cached on the Store under a key that pins the bin, the window and the
// snapshot date.
type PopularByAgeSource struct {
	Data       *core.Dataset
	Store      core.Store
	K          int
	WindowDays int
	// CacheTTL in seconds; zero disables expiry.
	CacheTTL int
}

var _ Source = (*PopularByAgeSource)(nil)

type popularEntry struct {
	ArticleID string  `json:"article_id"`
	Score     float64 `json:"score"`
}

func NewPopularByAgeSource(data *core.Dataset, store core.Store) *PopularByAgeSource {
	return &PopularByAgeSource{
		Data:       data,
		Store:      store,
		K:          200,
		WindowDays: 7,
		CacheTTL:   6 * 3600,
	}
}

func (s *PopularByAgeSource) Name() string { return "popular_by_age" }

func (s *PopularByAgeSource) Rule() string { return RulePopularAge }

func (s *PopularByAgeSource) cacheKey(ageBin string) string {
	return fmt.Sprintf("popular_age:%s:%dd:%s",
		ageBin, s.WindowDays, s.Data.MaxDate().Format("2006-01-02"))
}

func (s *PopularByAgeSource) Retrieve(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	cust, ok := s.Data.Customer(rctx.UserID)
	if !ok || cust.AgeBin == "" {
		return nil, nil
	}

	entries, err := s.popularInBin(ctx, cust.AgeBin)
	if err != nil {
		return nil, err
	}

	items := make([]*core.Item, 0, len(entries))
	for _, e := range entries {
		it := core.NewItem(e.ArticleID)
		it.Score = e.Score
		it.Reason = RulePopularAge
		it.PutRuleScore(RulePopularAge, e.Score)
		items = append(items, it)
	}
	return items, nil
}

func (s *PopularByAgeSource) popularInBin(ctx context.Context, ageBin string) ([]popularEntry, error) {
	key := s.cacheKey(ageBin)
	if s.Store != nil {
		if raw, err := s.Store.Get(ctx, key); err == nil {
			var cached []popularEntry
			if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
				return cached, nil
			}
			// Corrupt cache entry; recompute and overwrite.
		}
	}

	entries := s.compute(ageBin)

	if s.Store != nil && len(entries) > 0 {
		if data, err := json.Marshal(entries); err == nil {
			// Cache write failure is not fatal; the computed list still serves.
			_ = s.Store.Set(ctx, key, data, s.CacheTTL)
		}
	}
	return entries, nil
}

func (s *PopularByAgeSource) compute(ageBin string) []popularEntry {
	users := s.Data.UsersInAgeBin(ageBin)
	if len(users) == 0 {
		return nil
	}
	inBin := make(map[string]struct{}, len(users))
	for _, u := range users {
		inBin[u] = struct{}{}
	}

	cutoff := s.Data.MaxDate().Add(-time.Duration(s.WindowDays) * 24 * time.Hour)
	counts := make(map[string]int)
	for i := 0; i < s.Data.Len(); i++ {
		t := s.Data.At(i)
		if t.Date.Before(cutoff) {
			continue
		}
		if _, ok := inBin[t.UserID]; !ok {
			continue
		}
		counts[t.ArticleID]++
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

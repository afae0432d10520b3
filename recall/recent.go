package recall

import (
	"context"
	"fmt"

	"github.com/wearlane/recsys/core"
)

// RecentSource retrieves a user's own purchases inside a lookback window,
// scored with time decay so yesterday's purchase outweighs last week's. The
// same article bought twice keeps the higher (more recent) score.
//
// Configured twice in the default blend: a 3-day window under rule
// "recent_short" and a 7-day window under rule "recent_long".
type RecentSource struct {
	Data  *core.Dataset
	Days  int
	Decay DecayParams

	rule string
}

var _ Source = (*RecentSource)(nil)

func NewRecentSource(data *core.Dataset, days int, rule string) *RecentSource {
	return &RecentSource{
		Data:  data,
		Days:  days,
		Decay: DefaultDecayParams,
		rule:  rule,
	}
}

func (s *RecentSource) Name() string { return fmt.Sprintf("recent_%dd", s.Days) }

func (s *RecentSource) Rule() string { return s.rule }

func (s *RecentSource) Retrieve(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	txns := s.Data.UserTransactions(rctx.UserID)
	if len(txns) == 0 {
		return nil, nil
	}

	maxDate := s.Data.MaxDate()
	byArticle := make(map[string]float64)
	for _, t := range txns {
		days := maxDate.Sub(t.Date).Hours() / 24
		if days > float64(s.Days) {
			continue
		}
		score := TimeDecayScore(days, s.Decay)
		if old, ok := byArticle[t.ArticleID]; !ok || score > old {
			byArticle[t.ArticleID] = score
		}
	}

	items := make([]*core.Item, 0, len(byArticle))
	for id, score := range byArticle {
		it := core.NewItem(id)
		it.Score = score
		it.Reason = s.rule
		it.PutRuleScore(s.rule, score)
		items = append(items, it)
	}
	return items, nil
}

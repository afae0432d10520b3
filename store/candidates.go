package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wearlane/recsys/core"
)

// CandidateRow is the persisted form of one blended candidate. The per-rule
// scores survive the cache round-trip so the feature builder downstream can
// read them without re-running retrieval.
type CandidateRow struct {
	ArticleID  string             `json:"article_id"`
	Score      float64            `json:"score"`
	Reason     string             `json:"reason"`
	RuleScores map[string]float64 `json:"rule_scores,omitempty"`
}

// CandidateCache persists per-user blended candidates on a Store so batch
// retrieval runs once and feature building and serving reuse the result.
type CandidateCache struct {
	Store core.Store
	// TTL in seconds; zero means no expiry.
	TTL int
}

func candidateKey(userID string) string {
	return fmt.Sprintf("candidates:%s", userID)
}

// Put stores the candidate list for a user.
func (c *CandidateCache) Put(ctx context.Context, userID string, items []*core.Item) error {
	rows := make([]CandidateRow, len(items))
	for i, it := range items {
		rows[i] = CandidateRow{
			ArticleID:  it.ID,
			Score:      it.Score,
			Reason:     it.Reason,
			RuleScores: it.RuleScores,
		}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal candidates: %w", err)
	}
	return c.Store.Set(ctx, candidateKey(userID), data, c.TTL)
}

// Get loads the candidate list for a user. A missing entry yields
// core.ErrStoreNotFound.
func (c *CandidateCache) Get(ctx context.Context, userID string) ([]*core.Item, error) {
	data, err := c.Store.Get(ctx, candidateKey(userID))
	if err != nil {
		return nil, err
	}
	var rows []CandidateRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal candidates: %w", err)
	}
	items := make([]*core.Item, len(rows))
	for i, r := range rows {
		it := core.NewItem(r.ArticleID)
		it.Score = r.Score
		it.Reason = r.Reason
		if r.RuleScores != nil {
			it.RuleScores = r.RuleScores
		}
		items[i] = it
	}
	return items, nil
}

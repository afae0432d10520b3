// Package recall implements the candidate generation stage: per-rule
// retrieval sources and the blender that combines them into one ranked
// candidate list per user.
package recall

import (
	"context"

	"github.com/wearlane/recsys/core"
)

// Rule names as they appear in Item.RuleScores and Item.Reason.
const (
	RuleRecentShort    = "recent_short"
	RuleRecentLong     = "recent_long"
	RuleBoughtTogether = "bought_together"
	RulePopularAge     = "popular_age"
)

// Source is one retrieval rule. Retrieve returns scored items for the user;
// an empty result is normal (for example a user with no recent purchases)
// and must not be reported as an error.
type Source interface {
	Name() string
	Rule() string
	Retrieve(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

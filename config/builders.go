package config

import (
	"fmt"
	"time"

	"github.com/wearlane/recsys/filter"
	"github.com/wearlane/recsys/pipeline"
	"github.com/wearlane/recsys/pkg/conv"
	"github.com/wearlane/recsys/rank"
	"github.com/wearlane/recsys/recall"
	"github.com/wearlane/recsys/rerank"
)

func init() {
	Register("recall.blend", buildBlendNode)
	Register("filter.expr", buildExprNode)
	Register("rank.model", buildModelNode)
	Register("rerank.topn", buildTopNNode)
}

// buildBlendNode assembles the full retrieval blend: both recency windows,
// age-cohort popularity and bought-together, with config overrides for the
// windows, weights, fanout size and source timeout.
func buildBlendNode(deps Deps, cfg map[string]any) (pipeline.Node, error) {
	if deps.Data == nil {
		return nil, fmt.Errorf("recall.blend: dataset dependency missing")
	}

	shortDays := intOr(cfg, "recent_days_short", 3)
	longDays := intOr(cfg, "recent_days_long", 7)

	popular := recall.NewPopularByAgeSource(deps.Data, deps.Store)
	if k, ok := conv.ToInt(cfg["popular_k"]); ok {
		popular.K = k
	}
	if w, ok := conv.ToInt(cfg["popular_window"]); ok {
		popular.WindowDays = w
	}

	bought := recall.NewBoughtTogetherSource(deps.Data)
	if k, ok := conv.ToInt(cfg["bought_together_k"]); ok {
		bought.K = k
	}

	b := recall.NewBlender(
		recall.NewRecentSource(deps.Data, shortDays, recall.RuleRecentShort),
		recall.NewRecentSource(deps.Data, longDays, recall.RuleRecentLong),
		popular,
		bought,
	)
	if n, ok := conv.ToInt(cfg["top_n"]); ok {
		b.TopN = n
	}
	if ms, ok := conv.ToInt(cfg["source_timeout_ms"]); ok {
		b.SourceTimeout = time.Duration(ms) * time.Millisecond
	}
	if weights, ok := cfg["weights"].(map[string]any); ok {
		merged := make(map[string]float64, len(recall.DefaultRuleWeights))
		for rule, w := range recall.DefaultRuleWeights {
			merged[rule] = w
		}
		for rule, v := range weights {
			if w, ok := conv.ToFloat64(v); ok {
				merged[rule] = w
			}
		}
		b.Weights = merged
	}
	return b, nil
}

func buildExprNode(_ Deps, cfg map[string]any) (pipeline.Node, error) {
	expr, ok := conv.ToString(cfg["expr"])
	if !ok || expr == "" {
		return nil, fmt.Errorf("filter.expr: missing expr")
	}
	return filter.NewExprNode(expr)
}

func buildModelNode(deps Deps, cfg map[string]any) (pipeline.Node, error) {
	if deps.Models == nil {
		return nil, fmt.Errorf("rank.model: model ref dependency missing")
	}
	if deps.Features == nil {
		return nil, fmt.Errorf("rank.model: feature builder dependency missing")
	}
	return rank.NewModelNode(deps.Models, deps.Features, deps.Log), nil
}

func buildTopNNode(_ Deps, cfg map[string]any) (pipeline.Node, error) {
	n, _ := conv.ToInt(cfg["n"])
	return rerank.NewTopNNode(n), nil
}

func intOr(cfg map[string]any, key string, fallback int) int {
	if v, ok := conv.ToInt(cfg[key]); ok {
		return v
	}
	return fallback
}

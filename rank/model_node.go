package rank

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/wearlane/recsys/core"
	"github.com/wearlane/recsys/feature"
	"github.com/wearlane/recsys/pipeline"
)

// ModelNode scores candidates with the deployed ranking model and re-sorts
// them by model score. When no model is available, or the request disables
// model ranking, candidates pass through in retrieval order.
type ModelNode struct {
	Ref      *ModelRef
	Features *feature.Builder
	Log      *zap.Logger
}

var _ pipeline.Node = (*ModelNode)(nil)

func NewModelNode(ref *ModelRef, features *feature.Builder, log *zap.Logger) *ModelNode {
	if log == nil {
		log = zap.NewNop()
	}
	return &ModelNode{Ref: ref, Features: features, Log: log}
}

func (n *ModelNode) Name() string { return "rank.model" }

func (n *ModelNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *ModelNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	if rctx.DisableModel {
		return items, nil
	}

	m, err := n.Ref.Get()
	if err != nil {
		if core.IsModelUnavailable(err) {
			n.Log.Warn("ranking model unavailable, serving retrieval order",
				zap.String("user_id", rctx.UserID))
			return items, nil
		}
		return nil, err
	}

	table, err := n.Features.Build(ctx, rctx.UserID, items)
	if err != nil {
		return nil, err
	}

	byArticle := make(map[string]*core.Item, len(items))
	for _, it := range items {
		byArticle[it.ID] = it
	}
	for i := range table.Rows {
		row := &table.Rows[i]
		score, err := m.Predict(row.Values, row.Cats)
		if err != nil {
			return nil, err
		}
		it := byArticle[row.ArticleID]
		it.Score = score
		it.Features = row.Values
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

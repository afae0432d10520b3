// Package rerank holds the post-rank adjustment nodes.
package rerank

import (
	"context"

	"github.com/wearlane/recsys/core"
	"github.com/wearlane/recsys/pipeline"
)

// TopNNode truncates the ranked list. N defaults to the request's K when the
// node's own N is zero.
type TopNNode struct {
	N int
}

var _ pipeline.Node = (*TopNNode)(nil)

func NewTopNNode(n int) *TopNNode { return &TopNNode{N: n} }

func (n *TopNNode) Name() string { return "rerank.topn" }

func (n *TopNNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *TopNNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.N
	if limit <= 0 {
		limit = rctx.K
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

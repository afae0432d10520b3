package pipeline

import (
	"context"

	"github.com/wearlane/recsys/core"
)

// Pipeline chains Nodes into one recommendation flow: recall, filter, rank,
// rerank, postprocess.
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

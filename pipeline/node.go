package pipeline

import (
	"context"

	"github.com/wearlane/recsys/core"
)

// Kind tags a Node with its pipeline stage, for observability and assembly
// validation.
type Kind string

const (
	KindRecall      Kind = "recall"      // candidate generation
	KindFilter      Kind = "filter"      // constraint filtering
	KindRank        Kind = "rank"        // model scoring and sorting
	KindReRank      Kind = "rerank"      // post-rank truncation/adjustment
	KindPostProcess Kind = "postprocess" // final enrichment
)

// Node is the smallest composable unit of the pipeline. Every stage takes the
// current item list and returns the next one, so recall nodes generate,
// filter nodes drop, and rank nodes reorder through the same shape.
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}

// Package serve composes retrieval, ranking and logging into the
// request-facing recommender.
package serve

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wearlane/recsys/catalog"
	"github.com/wearlane/recsys/core"
	"github.com/wearlane/recsys/rank"
	"github.com/wearlane/recsys/recall"
	"github.com/wearlane/recsys/store"
)

// ImpressionRecorder logs which articles were shown and at what score.
// *catalog.Repository implements it.
type ImpressionRecorder interface {
	RecordImpressions(ctx context.Context, userID string, imps []catalog.Impression) error
}

// ProductReader fetches catalog metadata for display enrichment.
// *catalog.Repository implements it.
type ProductReader interface {
	ProductsByIDs(ctx context.Context, articleIDs []string) ([]catalog.Product, error)
}

// Result is one serving response.
type Result struct {
	UserID    string        `json:"user_id"`
	Items     []*core.Item  `json:"items"`
	ModelUsed bool          `json:"model_used"`
	Mode      string        `json:"mode"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Health is the liveness snapshot.
type Health struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
}

// Recommender serves ranked recommendations. Failures degrade rather than
// error: a retrieval failure yields an empty list, a missing model yields
// retrieval-ordered results, and impression logging never blocks the
// response.
type Recommender struct {
	Blender *recall.Blender
	Ranker  *rank.ModelNode
	Models  *rank.ModelRef

	// Candidates is an optional read-through cache for blended candidates.
	Candidates *store.CandidateCache
	// Products is optional; when set, returned items carry catalog metadata.
	Products ProductReader
	// Impressions is optional; nil disables impression logging.
	Impressions ImpressionRecorder

	Log      *zap.Logger
	DefaultK int
}

func NewRecommender(blender *recall.Blender, ranker *rank.ModelNode, models *rank.ModelRef, log *zap.Logger) *Recommender {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recommender{
		Blender:  blender,
		Ranker:   ranker,
		Models:   models,
		Log:      log,
		DefaultK: 30,
	}
}

// Recommend serves the top-K recommendations for one user.
func (r *Recommender) Recommend(ctx context.Context, rctx *core.RecommendContext) (*Result, error) {
	start := time.Now()
	if rctx.K <= 0 {
		rctx.K = r.DefaultK
	}

	items, err := r.candidates(ctx, rctx)
	if err != nil {
		// Retrieval failure degrades to an empty list; the storefront shows
		// its default shelf instead.
		r.Log.Error("candidate generation failed",
			zap.String("user_id", rctx.UserID), zap.Error(err))
		return &Result{
			UserID:  rctx.UserID,
			Items:   []*core.Item{},
			Mode:    r.Models.Mode(),
			Elapsed: time.Since(start),
		}, nil
	}
	if len(items) == 0 {
		return &Result{
			UserID:  rctx.UserID,
			Items:   []*core.Item{},
			Mode:    r.Models.Mode(),
			Elapsed: time.Since(start),
		}, nil
	}

	modelUsed := false
	ranked, err := r.Ranker.Process(ctx, rctx, items)
	if err != nil {
		// Feature or prediction failure falls back to retrieval order.
		r.Log.Error("ranking failed, serving retrieval order",
			zap.String("user_id", rctx.UserID), zap.Error(err))
		ranked = items
	} else if !rctx.DisableModel && r.Models.Mode() == "model" {
		modelUsed = true
	}

	if len(ranked) > rctx.K {
		ranked = ranked[:rctx.K]
	}

	r.enrich(ctx, rctx.UserID, ranked)

	if rctx.RecordImpressions && r.Impressions != nil {
		imps := make([]catalog.Impression, len(ranked))
		for i, it := range ranked {
			imps[i] = catalog.Impression{ArticleID: it.ID, Score: it.Score}
		}
		if err := r.Impressions.RecordImpressions(ctx, rctx.UserID, imps); err != nil {
			r.Log.Warn("impression logging failed",
				zap.String("user_id", rctx.UserID), zap.Error(err))
		}
	}

	return &Result{
		UserID:    rctx.UserID,
		Items:     ranked,
		ModelUsed: modelUsed,
		Mode:      r.Models.Mode(),
		Elapsed:   time.Since(start),
	}, nil
}

// enrich joins the served items against the catalog and fills the display
// metadata. Best effort: a catalog failure leaves Meta empty and the response
// still goes out.
func (r *Recommender) enrich(ctx context.Context, userID string, items []*core.Item) {
	if r.Products == nil || len(items) == 0 {
		return
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	products, err := r.Products.ProductsByIDs(ctx, ids)
	if err != nil {
		r.Log.Warn("catalog enrichment failed",
			zap.String("user_id", userID), zap.Error(err))
		return
	}
	byID := make(map[string]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ArticleID] = &products[i]
	}
	for _, it := range items {
		p, ok := byID[it.ID]
		if !ok {
			continue
		}
		if it.Meta == nil {
			it.Meta = make(map[string]any, 4)
		}
		it.Meta["name"] = p.Name
		it.Meta["price"] = p.Price
		it.Meta["image_path"] = p.ImagePath
		it.Meta["product_group_name"] = p.ProductGroupName
	}
}

// candidates loads blended candidates from the cache when present, otherwise
// runs retrieval and backfills the cache best-effort. Cached items are cloned
// because ranking mutates scores in place.
func (r *Recommender) candidates(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if r.Candidates != nil {
		cached, err := r.Candidates.Get(ctx, rctx.UserID)
		if err == nil {
			out := make([]*core.Item, len(cached))
			for i, it := range cached {
				out[i] = it.Clone()
			}
			return out, nil
		}
		if !core.IsStoreNotFound(err) {
			r.Log.Warn("candidate cache read failed",
				zap.String("user_id", rctx.UserID), zap.Error(err))
		}
	}

	items, err := r.Blender.GetCandidates(ctx, rctx)
	if err != nil {
		return nil, err
	}
	if r.Candidates != nil && len(items) > 0 {
		if err := r.Candidates.Put(ctx, rctx.UserID, items); err != nil {
			r.Log.Warn("candidate cache write failed",
				zap.String("user_id", rctx.UserID), zap.Error(err))
		}
	}
	return items, nil
}

// ReloadModel swaps in a freshly trained artifact without restarting.
func (r *Recommender) ReloadModel() error {
	return r.Models.Reload()
}

// CheckHealth reports the serving mode; the service is healthy even without
// a model, it just serves retrieval order.
func (r *Recommender) CheckHealth() Health {
	return Health{Status: "ok", Mode: r.Models.Mode()}
}

package personalize

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"github.com/wearlane/recsys/catalog"
)

// Store is the catalog access the personalizer needs. *catalog.Repository
// implements it.
type Store interface {
	ActivityArticleIDs(ctx context.Context, userID string) ([]string, error)
	ProductsByIDs(ctx context.Context, articleIDs []string) ([]catalog.Product, error)
	PreferredCategories(ctx context.Context, userID string) ([]string, error)
	SimilarCandidates(ctx context.Context, q catalog.SimilarQuery) ([]catalog.Product, error)
	ProductsInCategories(ctx context.Context, categories []string, limit int) ([]catalog.Product, error)
}

// Recommendation is one "For You" entry.
type Recommendation struct {
	Product catalog.Product `json:"product"`
	Score   float64         `json:"score"`
	Reason  string          `json:"reason"`
	// SourceArticleID is the activity product that surfaced this item; empty
	// for cold-start results.
	SourceArticleID string `json:"source_article_id,omitempty"`
}

// Personalizer builds recommendations from a user's cart, wishlist and order
// history. Users with no activity fall back to their signup category
// preferences.
type Personalizer struct {
	Store Store
	Log   *zap.Logger

	// PerAnchor is how many recommendations each activity product contributes.
	PerAnchor int
	// ColdStartLimit caps the category-based fallback list.
	ColdStartLimit int
	// PrefilterLimit caps the candidate pool fetched per anchor.
	PrefilterLimit int
}

func New(store Store, log *zap.Logger) *Personalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Personalizer{
		Store:          store,
		Log:            log,
		PerAnchor:      3,
		ColdStartLimit: 20,
		PrefilterLimit: 50,
	}
}

// Recommend produces the "For You" list. The rng drives all shuffling, so a
// seeded source makes the output reproducible.
func (p *Personalizer) Recommend(ctx context.Context, userID string, rng *rand.Rand) ([]Recommendation, error) {
	activity, err := p.Store.ActivityArticleIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load activity: %w", err)
	}
	if len(activity) == 0 {
		p.Log.Info("no activity, using category cold start", zap.String("user_id", userID))
		return p.coldStart(ctx, userID, rng)
	}

	anchors, err := p.Store.ProductsByIDs(ctx, activity)
	if err != nil {
		return nil, fmt.Errorf("load activity products: %w", err)
	}
	rng.Shuffle(len(anchors), func(i, j int) { anchors[i], anchors[j] = anchors[j], anchors[i] })

	excluded := make(map[string]struct{}, len(activity))
	for _, id := range activity {
		excluded[id] = struct{}{}
	}

	var recs []Recommendation
	for i := range anchors {
		anchor := &anchors[i]
		scored, err := p.similarTo(ctx, anchor, excluded)
		if err != nil {
			return nil, err
		}
		// Over-fetch, shuffle, then cut: keeps results fresh across calls
		// while staying among the best matches.
		if len(scored) > p.PerAnchor*2 {
			scored = scored[:p.PerAnchor*2]
		}
		rng.Shuffle(len(scored), func(i, j int) { scored[i], scored[j] = scored[j], scored[i] })
		if len(scored) > p.PerAnchor {
			scored = scored[:p.PerAnchor]
		}
		for _, rec := range scored {
			excluded[rec.Product.ArticleID] = struct{}{}
			recs = append(recs, rec)
		}
	}

	rng.Shuffle(len(recs), func(i, j int) { recs[i], recs[j] = recs[j], recs[i] })
	p.Log.Info("personalized recommendations generated",
		zap.String("user_id", userID),
		zap.Int("anchors", len(anchors)),
		zap.Int("recommendations", len(recs)))
	return recs, nil
}

// similarTo fetches and scores candidates around one anchor product. The
// prefilter asks for same category, same primary color and a price band of
// 50% to 150%; when that returns too few, the color constraint is relaxed
// while the category holds.
func (p *Personalizer) similarTo(ctx context.Context, anchor *catalog.Product, excluded map[string]struct{}) ([]Recommendation, error) {
	excludeIDs := make([]string, 0, len(excluded))
	for id := range excluded {
		excludeIDs = append(excludeIDs, id)
	}
	sort.Strings(excludeIDs)

	minPrice, maxPrice := 0.0, 999999.0
	if anchor.Price > 0 {
		minPrice = anchor.Price * 0.5
		maxPrice = anchor.Price * 1.5
	}

	q := catalog.SimilarQuery{
		ExcludeIDs:   excludeIDs,
		Category:     anchor.ProductGroupName,
		PrimaryColor: anchor.PrimaryColor,
		MinPrice:     minPrice,
		MaxPrice:     maxPrice,
		Limit:        p.PrefilterLimit,
	}
	candidates, err := p.Store.SimilarCandidates(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("prefilter candidates: %w", err)
	}

	if len(candidates) < p.PerAnchor*2 && anchor.ProductGroupName != "" && anchor.PrimaryColor != "" {
		q.PrimaryColor = ""
		q.Limit = 30
		relaxed, err := p.Store.SimilarCandidates(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("relaxed prefilter: %w", err)
		}
		seen := make(map[string]struct{}, len(candidates))
		for _, c := range candidates {
			seen[c.ArticleID] = struct{}{}
		}
		for _, c := range relaxed {
			if _, ok := seen[c.ArticleID]; ok {
				continue
			}
			candidates = append(candidates, c)
			if len(candidates) >= p.PrefilterLimit {
				break
			}
		}
	}

	var recs []Recommendation
	for i := range candidates {
		cand := &candidates[i]
		if cand.ArticleID == anchor.ArticleID {
			continue
		}
		recs = append(recs, Recommendation{
			Product:         *cand,
			Score:           similarityScore(anchor, cand),
			Reason:          fmt.Sprintf("Similar to %s", truncate(anchor.Name, 30)),
			SourceArticleID: anchor.ArticleID,
		})
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].Product.ArticleID < recs[j].Product.ArticleID
	})
	return recs, nil
}

// coldStart recommends from the user's preferred signup categories with a
// flat score. No preferences means an empty list, not an error.
func (p *Personalizer) coldStart(ctx context.Context, userID string, rng *rand.Rand) ([]Recommendation, error) {
	categories, err := p.Store.PreferredCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load preferred categories: %w", err)
	}
	if len(categories) == 0 {
		return nil, nil
	}

	// Over-fetch so the shuffle has something to vary.
	products, err := p.Store.ProductsInCategories(ctx, categories, p.ColdStartLimit*2)
	if err != nil {
		return nil, fmt.Errorf("load category products: %w", err)
	}
	if len(products) == 0 {
		return nil, nil
	}
	rng.Shuffle(len(products), func(i, j int) { products[i], products[j] = products[j], products[i] })
	if len(products) > p.ColdStartLimit {
		products = products[:p.ColdStartLimit]
	}

	recs := make([]Recommendation, len(products))
	for i, prod := range products {
		recs[i] = Recommendation{
			Product: prod,
			Score:   5.0,
			Reason:  fmt.Sprintf("Based on your interest in %s", prod.ProductGroupName),
		}
	}
	return recs, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package feature

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/wearlane/recsys/core"
	"github.com/wearlane/recsys/recall"
)

// Row is one (user, candidate) example. Values and Cats together cover every
// schema column; Label is set by the training pipeline and stays -1 at
// serving time.
type Row struct {
	UserID    string             `json:"user_id"`
	ArticleID string             `json:"article_id"`
	Score     float64            `json:"retrieval_score"`
	Reason    string             `json:"reason"`
	Label     int                `json:"label"`
	Values    map[string]float64 `json:"values"`
	Cats      map[string]string  `json:"cats"`
}

// Value returns the numeric value for a schema column, falling back to the
// column's fill.
func (r *Row) Value(f Field) float64 {
	if v, ok := r.Values[f.Name]; ok {
		return v
	}
	return f.Fill
}

// Cat returns the categorical value for a schema column.
func (r *Row) Cat(f Field) string {
	if v, ok := r.Cats[f.Name]; ok && v != "" {
		return v
	}
	return f.FillCat
}

// Table is a feature table with its schema, one row per candidate.
type Table struct {
	Schema Schema `json:"schema_names"`
	Rows   []Row  `json:"rows"`
}

// itemAggregate holds the per-article popularity and price aggregates shared
// by every user's feature build. Computed once per snapshot and cached.
type itemAggregate struct {
	Pop7d    int     `json:"pop_7d"`
	Pop30d   int     `json:"pop_30d"`
	Price30d float64 `json:"price_30d"`
}

// Builder joins user, item, interaction and retrieval features into one table
// per user. Every candidate produces exactly one row; missing joins take the
// schema fill values, never a dropped row.
type Builder struct {
	Data   *core.Dataset
	Schema Schema

	// Store caches the item aggregates across builds; nil disables caching.
	Store core.Store
	// CacheTTL in seconds for the aggregate cache entry.
	CacheTTL int

	aggregates map[string]itemAggregate
}

func NewBuilder(data *core.Dataset, store core.Store) *Builder {
	return &Builder{
		Data:     data,
		Schema:   DefaultSchema,
		Store:    store,
		CacheTTL: 6 * 3600,
	}
}

// Build produces one feature row per candidate for the given user. Candidates
// carry the retrieval scores in their RuleScores; everything else is joined
// from the dataset snapshot.
func (b *Builder) Build(ctx context.Context, userID string, candidates []*core.Item) (*Table, error) {
	if len(candidates) == 0 {
		return &Table{Schema: b.Schema}, nil
	}
	aggs, err := b.itemAggregates(ctx)
	if err != nil {
		return nil, err
	}

	maxDate := b.Data.MaxDate()
	userTxns := b.Data.UserTransactions(userID)

	// User features are constant across the candidate set.
	totalPurchases := float64(len(userTxns))
	recencyDays := 9999.0
	if len(userTxns) > 0 {
		last := userTxns[len(userTxns)-1].Date
		recencyDays = float64(int(maxDate.Sub(last).Hours() / 24))
	}
	ageBin := "unknown"
	if cust, ok := b.Data.Customer(userID); ok && cust.AgeBin != "" {
		ageBin = cust.AgeBin
	}

	recentSet := b.recentArticles(userTxns, maxDate, 7)
	coCounts := b.coPurchaseWithLast3(userTxns, candidates)

	rows := make([]Row, 0, len(candidates))
	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := Row{
			UserID:    userID,
			ArticleID: cand.ID,
			Score:     cand.Score,
			Reason:    cand.Reason,
			Label:     -1,
			Values:    make(map[string]float64, len(b.Schema)),
			Cats:      map[string]string{"user_age_bin": ageBin},
		}
		row.Values["user_total_purchases"] = totalPurchases
		row.Values["user_recency_days"] = recencyDays

		agg := aggs[cand.ID]
		row.Values["item_popularity_7d"] = float64(agg.Pop7d)
		row.Values["item_popularity_30d"] = float64(agg.Pop30d)
		row.Values["item_price_mean_30d"] = agg.Price30d

		if art, ok := b.Data.Article(cand.ID); ok {
			row.Values["item_department_no"] = float64(art.DepartmentNo)
			row.Values["item_gender_tag"] = float64(art.GenderTag)
		} else {
			row.Values["item_department_no"] = -1
			row.Values["item_gender_tag"] = 0
		}

		if _, ok := recentSet[cand.ID]; ok {
			row.Values["recent_interaction_flag_7d"] = 1
		} else {
			row.Values["recent_interaction_flag_7d"] = 0
		}
		row.Values["co_purchase_count_with_last3"] = float64(coCounts[cand.ID])

		// Retrieval scores: the two recency windows fold into one column.
		row.Values["retrieval_recent_score"] = cand.RuleScores[recall.RuleRecentShort] +
			cand.RuleScores[recall.RuleRecentLong]
		row.Values["retrieval_bought_together_score"] = cand.RuleScores[recall.RuleBoughtTogether]
		row.Values["retrieval_popular_age_score"] = cand.RuleScores[recall.RulePopularAge]

		rows = append(rows, row)
	}
	return &Table{Schema: b.Schema, Rows: rows}, nil
}

func (b *Builder) recentArticles(userTxns []core.Transaction, maxDate time.Time, days int) map[string]struct{} {
	cutoff := maxDate.Add(-time.Duration(days) * 24 * time.Hour)
	out := make(map[string]struct{})
	for _, t := range userTxns {
		if !t.Date.Before(cutoff) {
			out[t.ArticleID] = struct{}{}
		}
	}
	return out
}

// coPurchaseWithLast3 counts, per candidate, how many purchases of the
// candidate were made by buyers of the user's last three distinct articles.
// A buyer shared with two of the three seeds counts twice.
func (b *Builder) coPurchaseWithLast3(userTxns []core.Transaction, candidates []*core.Item) map[string]int {
	counts := make(map[string]int, len(candidates))
	if len(userTxns) == 0 {
		return counts
	}

	seen := make(map[string]struct{}, 3)
	var last3 []string
	for i := len(userTxns) - 1; i >= 0 && len(last3) < 3; i-- {
		id := userTxns[i].ArticleID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		last3 = append(last3, id)
	}

	for _, seed := range last3 {
		buyers := b.Data.ArticleBuyers(seed)
		for _, cand := range candidates {
			for _, t := range b.Data.ArticleTransactions(cand.ID) {
				if _, ok := buyers[t.UserID]; ok {
					counts[cand.ID]++
				}
			}
		}
	}
	return counts
}

func (b *Builder) aggregateCacheKey() string {
	return fmt.Sprintf("item_agg:%s", b.Data.MaxDate().Format("2006-01-02"))
}

// itemAggregates computes (or loads from cache) the 7-day and 30-day
// popularity counts and the 30-day mean price for every article with recent
// transactions.
func (b *Builder) itemAggregates(ctx context.Context) (map[string]itemAggregate, error) {
	if b.aggregates != nil {
		return b.aggregates, nil
	}
	key := b.aggregateCacheKey()
	if b.Store != nil {
		if raw, err := b.Store.Get(ctx, key); err == nil {
			var cached map[string]itemAggregate
			if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
				b.aggregates = cached
				return cached, nil
			}
		}
	}

	maxDate := b.Data.MaxDate()
	cutoff7 := maxDate.Add(-7 * 24 * time.Hour)
	cutoff30 := maxDate.Add(-30 * 24 * time.Hour)

	type priceAcc struct {
		sum float64
		n   int
	}
	aggs := make(map[string]itemAggregate)
	prices := make(map[string]priceAcc)
	for i := 0; i < b.Data.Len(); i++ {
		t := b.Data.At(i)
		if t.Date.Before(cutoff30) {
			continue
		}
		a := aggs[t.ArticleID]
		a.Pop30d++
		if !t.Date.Before(cutoff7) {
			a.Pop7d++
		}
		aggs[t.ArticleID] = a
		p := prices[t.ArticleID]
		p.sum += t.Price
		p.n++
		prices[t.ArticleID] = p
	}
	for id, p := range prices {
		a := aggs[id]
		a.Price30d = p.sum / float64(p.n)
		aggs[id] = a
	}

	if b.Store != nil && len(aggs) > 0 {
		if data, err := json.Marshal(aggs); err == nil {
			_ = b.Store.Set(ctx, key, data, b.CacheTTL)
		}
	}
	b.aggregates = aggs
	return aggs, nil
}

// SortRows orders rows by retrieval score descending with article ID as the
// tie-break, for stable table output.
func SortRows(rows []Row) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].ArticleID < rows[j].ArticleID
	})
}

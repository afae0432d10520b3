package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wearlane/recsys/core"
	"github.com/wearlane/recsys/pkg/config"
)

// Repository wraps the storefront database.
type Repository struct {
	db *gorm.DB
}

// Open connects to Postgres and runs the schema migration.
func Open(cfg config.DatabaseConfig) (*Repository, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := db.AutoMigrate(
		&Product{}, &User{}, &CartItem{}, &WishlistItem{},
		&Order{}, &OrderItem{}, &UserInteraction{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &Repository{db: db}, nil
}

// NewRepository wraps an existing gorm handle, mainly for tests against
// alternative drivers.
func NewRepository(db *gorm.DB) *Repository { return &Repository{db: db} }

// Product fetches one product by article ID.
func (r *Repository) Product(ctx context.Context, articleID string) (*Product, error) {
	var p Product
	err := r.db.WithContext(ctx).First(&p, "article_id = ?", articleID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotFound,
				fmt.Sprintf("product %s not found", articleID))
		}
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

// ProductsByIDs fetches products for a set of article IDs. Missing IDs are
// simply absent from the result.
func (r *Repository) ProductsByIDs(ctx context.Context, articleIDs []string) ([]Product, error) {
	if len(articleIDs) == 0 {
		return nil, nil
	}
	var products []Product
	err := r.db.WithContext(ctx).Where("article_id IN ?", articleIDs).Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	return products, nil
}

// ActivityArticleIDs returns the distinct article IDs across the user's cart,
// wishlist and order history.
func (r *Repository) ActivityArticleIDs(ctx context.Context, userID string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(ids []string) {
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}

	var cartIDs []string
	if err := r.db.WithContext(ctx).Model(&CartItem{}).
		Where("user_id = ?", userID).
		Pluck("article_id", &cartIDs).Error; err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	add(cartIDs)

	var wishIDs []string
	if err := r.db.WithContext(ctx).Model(&WishlistItem{}).
		Where("user_id = ?", userID).
		Pluck("article_id", &wishIDs).Error; err != nil {
		return nil, fmt.Errorf("query wishlist items: %w", err)
	}
	add(wishIDs)

	var orderIDs []string
	if err := r.db.WithContext(ctx).Model(&OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ?", userID).
		Pluck("order_items.article_id", &orderIDs).Error; err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	add(orderIDs)

	return out, nil
}

// PreferredCategories returns the user's signup category preferences, split
// and trimmed. Unknown users and empty preferences both yield nil.
func (r *Repository) PreferredCategories(ctx context.Context, userID string) ([]string, error) {
	var u User
	err := r.db.WithContext(ctx).First(&u, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	var out []string
	for _, c := range strings.Split(u.PreferredCategories, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

// SimilarQuery selects candidate products around a source product. Every
// candidate must have an image; the price band and the category filter come
// from the source product.
type SimilarQuery struct {
	ExcludeIDs []string
	Category   string
	// PrimaryColor narrows to the same color; empty skips the color filter.
	PrimaryColor string
	MinPrice     float64
	MaxPrice     float64
	Limit        int
}

// SimilarCandidates runs one prefilter query for the personalizer.
func (r *Repository) SimilarCandidates(ctx context.Context, q SimilarQuery) ([]Product, error) {
	tx := r.db.WithContext(ctx).
		Where("image_path IS NOT NULL AND image_path <> ''").
		Where("price >= ? AND price <= ?", q.MinPrice, q.MaxPrice)
	if len(q.ExcludeIDs) > 0 {
		tx = tx.Where("article_id NOT IN ?", q.ExcludeIDs)
	}
	if q.Category != "" {
		tx = tx.Where("product_group_name = ?", q.Category)
	}
	if q.PrimaryColor != "" {
		tx = tx.Where("primary_color = ?", q.PrimaryColor)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	var products []Product
	if err := tx.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("query similar candidates: %w", err)
	}
	return products, nil
}

// ProductsInCategories returns products with images in any of the given
// categories, for cold-start recommendations.
func (r *Repository) ProductsInCategories(ctx context.Context, categories []string, limit int) ([]Product, error) {
	if len(categories) == 0 {
		return nil, nil
	}
	var products []Product
	tx := r.db.WithContext(ctx).
		Where("product_group_name IN ?", categories).
		Where("image_path IS NOT NULL AND image_path <> ''")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("query category products: %w", err)
	}
	return products, nil
}

// Impression is one served recommendation: the article and the score it was
// served at.
type Impression struct {
	ArticleID string
	Score     float64
}

// RecordImpressions logs one impression event per served article, keeping the
// serving score as the event value.
func (r *Repository) RecordImpressions(ctx context.Context, userID string, imps []Impression) error {
	if len(imps) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]UserInteraction, len(imps))
	for i, imp := range imps {
		rows[i] = UserInteraction{
			ID:        uuid.NewString(),
			UserID:    userID,
			ArticleID: imp.ArticleID,
			EventType: "impression",
			Value:     imp.Score,
			CreatedAt: now,
		}
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("insert impressions: %w", err)
	}
	return nil
}

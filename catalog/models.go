// Package catalog is the storefront data layer: products, user activity
// (cart, wishlist, orders) and impression logging, backed by Postgres.
package catalog

import "time"

// Product is the storefront catalog row. Colors is a comma-separated list;
// PrimaryColor is the dominant one.
type Product struct {
	ArticleID        string  `gorm:"primaryKey;column:article_id"`
	Name             string  `gorm:"column:name"`
	Price            float64 `gorm:"column:price"`
	ImagePath        string  `gorm:"column:image_path"`
	ProductGroupName string  `gorm:"column:product_group_name;index"`
	PrimaryColor     string  `gorm:"column:primary_color;index"`
	ColorDescription string  `gorm:"column:color_description"`
	Colors           string  `gorm:"column:colors"`
}

func (Product) TableName() string { return "products" }

// User holds the storefront account fields the recommender needs.
// PreferredCategories is comma-separated, set at signup.
type User struct {
	ID                  string `gorm:"primaryKey;column:id"`
	PreferredCategories string `gorm:"column:preferred_categories"`
}

func (User) TableName() string { return "users" }

type CartItem struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	UserID    string    `gorm:"column:user_id;index"`
	ArticleID string    `gorm:"column:article_id"`
	Quantity  int       `gorm:"column:quantity"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (CartItem) TableName() string { return "cart_items" }

type WishlistItem struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	UserID    string    `gorm:"column:user_id;index"`
	ArticleID string    `gorm:"column:article_id"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (WishlistItem) TableName() string { return "wishlist_items" }

type Order struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	UserID    string    `gorm:"column:user_id;index"`
	Total     float64   `gorm:"column:total"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"`
	OrderID   uint    `gorm:"column:order_id;index"`
	ArticleID string  `gorm:"column:article_id"`
	Quantity  int     `gorm:"column:quantity"`
	Price     float64 `gorm:"column:price"`
}

func (OrderItem) TableName() string { return "order_items" }

// UserInteraction records served recommendations and user reactions, the raw
// material for future training windows.
type UserInteraction struct {
	ID        string    `gorm:"primaryKey;column:id"`
	UserID    string    `gorm:"column:user_id;index"`
	ArticleID string    `gorm:"column:article_id"`
	EventType string    `gorm:"column:event_type"` // impression, click, purchase
	Value     float64   `gorm:"column:value"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
}

func (UserInteraction) TableName() string { return "user_interactions" }

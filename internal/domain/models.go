// Package domain defines the persistence models for products, subscriptions,
// and click events, plus the derived entitlement view consumed by the badge
// pipeline. Persistence types are mapped with GORM and form the slice of the
// product-directory schema this service reads and writes.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Tier is a subscription tier derived from the owning user's active plan.
type Tier string

const (
	// TierFree is the default tier when no active subscription row exists.
	TierFree Tier = "free"
	// TierPro unlocks the standard badge.
	TierPro Tier = "pro"
	// TierProPlus additionally unlocks the pro-plus badge variant.
	TierProPlus Tier = "pro_plus"
)

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierPro, TierProPlus:
		return true
	}
	return false
}

// Product represents a directory listing. The badge pipeline reads products
// by slug and never mutates them.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Name: display name rendered inside the badge.
//   - Slug: URL-safe unique identifier ([A-Za-z0-9-], max 100).
//   - UpvotesCount: denormalized vote counter maintained by the directory app.
//   - IsPublished: unpublished products never render a badge.
//   - OwnerUserID: the user whose subscription tier gates the badge.
type Product struct {
	ID           string         `json:"id"            gorm:"type:char(36);primaryKey"`
	Name         string         `json:"name"          gorm:"type:varchar(255);not null"`
	Slug         string         `json:"slug"          gorm:"type:varchar(100);not null;uniqueIndex:ux_products_slug"`
	UpvotesCount int            `json:"upvotes_count" gorm:"not null;default:0;check:upvotes_count >= 0"`
	IsPublished  bool           `json:"is_published"  gorm:"not null;default:false;index"`
	OwnerUserID  string         `json:"owner_user_id" gorm:"type:varchar(64);not null;index:idx_products_owner"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"             gorm:"index"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }

// SubscriptionStatusActive is the only status that counts toward entitlement.
const SubscriptionStatusActive = "active"

// Subscription is a user's paid plan row, written by the billing subsystem
// and only ever read here. A subscription gates badges while its status is
// "active" and the current period has not ended.
type Subscription struct {
	ID               string         `json:"id"                 gorm:"type:char(36);primaryKey"`
	UserID           string         `json:"user_id"            gorm:"type:varchar(64);not null;index:idx_subs_user"`
	Plan             Tier           `json:"plan"               gorm:"type:varchar(16);not null;check:plan IN ('pro','pro_plus')"`
	Status           string         `json:"status"             gorm:"type:varchar(16);not null;default:'active';index"`
	CurrentPeriodEnd time.Time      `json:"current_period_end" gorm:"not null"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"-"                  gorm:"index"`
}

// TableName returns the database table name for Subscription.
func (Subscription) TableName() string { return "subscriptions" }

// ClickEvent is an append-only analytics record for a badge click. Events are
// never read back by the serving path; they feed offline reporting.
//
// Referrer is capped at 500 characters at write time.
type ClickEvent struct {
	ID        string    `json:"id"                  gorm:"type:char(36);primaryKey"`
	ProductID string    `json:"product_id"          gorm:"type:char(36);not null;index:idx_clicks_product,priority:1"`
	Referrer  string    `json:"referrer,omitempty"  gorm:"type:varchar(500)"`
	CreatedAt time.Time `json:"created_at"          gorm:"index:idx_clicks_product,priority:2"`
}

// TableName returns the database table name for ClickEvent.
func (ClickEvent) TableName() string { return "click_events" }

// Entitlement is the derived, per-request view of a product and its owner's
// tier. It is computed fresh on every resolver call and never persisted.
type Entitlement struct {
	ProductID    string `json:"productId"`
	ProductName  string `json:"productName"`
	ProductSlug  string `json:"productSlug"`
	UpvotesCount int    `json:"upvotesCount"`
	UserTier     Tier   `json:"userTier"`
	IsPublished  bool   `json:"isPublished"`
	// IsOwner is kept for preview-tooling response compatibility. The badge
	// service itself is unauthenticated, so it is always false here.
	IsOwner bool `json:"isOwner"`
}

package inventory

import (
	"time"

	"github.com/lib/pq"
)

const (
	StatusPendingReview = "pending_review"
	StatusAvailable     = "available"
	StatusArchived      = "archived"
	StatusSold          = "sold"
)

// Item is a sellable unit. Nothing is ever physically deleted: "deletion"
// is the archived status, so order rows keep a valid item link forever.
type Item struct {
	ID string `gorm:"primaryKey;type:text"`

	// SourceID is the marketplace listing id for pipeline-sourced items and
	// a synthetic value for stable ones. Unique so re-syncs upsert.
	SourceID  string `gorm:"uniqueIndex;type:text;not null"`
	SourceURL string `gorm:"type:text"`

	Title    string `gorm:"type:text;not null"`
	Brand    string `gorm:"type:text;index"`
	Category string `gorm:"type:text"`

	ListingPrice    float64 `gorm:"not null;default:0"`
	MemberPrice     *float64
	SourcePrice     float64 `gorm:"not null;default:0"`
	PotentialProfit float64 `gorm:"not null;default:0"`

	StockLevel int    `gorm:"not null;default:1"`
	Status     string `gorm:"type:text;not null;default:'pending_review';index"`

	// IsStable marks the curated, manually-managed subset as opposed to
	// pipeline-sourced items.
	IsStable bool `gorm:"not null;default:false;index"`

	Images pq.StringArray `gorm:"type:text[];not null;default:'{}'"`

	LastSeenAt *time.Time
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (Item) TableName() string { return "pulse_inventory" }

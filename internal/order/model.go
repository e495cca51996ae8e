package order

import "time"

// Order is a customer purchase. It links to at most one inventory item;
// an item sold is sold, so the link never moves between orders.
type Order struct {
	ID     string `gorm:"primaryKey;type:text"`
	Status Status `gorm:"type:text;not null;default:'pending_secure';index"`

	// ItemID references pulse_inventory. Nullable: legacy static-catalog
	// orders carry no item row.
	ItemID *string `gorm:"type:text;index"`

	CustomerEmail string  `gorm:"type:text;not null"`
	Amount        float64 `gorm:"not null;default:0"`

	// PaymentRef is the provider's checkout-session reference, needed for
	// refunds.
	PaymentRef *string `gorm:"type:text"`

	// TrackingNumber is set only by the dispatch operation.
	TrackingNumber *string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Order) TableName() string { return "orders" }

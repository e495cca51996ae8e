package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"pulse/internal/auth"
)

var (
	ErrNotFound      = errors.New("item not found")
	ErrInvalidStatus = errors.New("invalid item status")
	ErrInvalidInput  = errors.New("invalid item input")
)

// Statuses the admin surface is permitted to set directly. Prevents
// arbitrary strings from being forced into the store.
var allowedStatuses = map[string]struct{}{
	StatusPendingReview: {},
	StatusAvailable:     {},
	StatusArchived:      {},
	StatusSold:          {},
}

type Service struct {
	DB *gorm.DB
}

// UpdateStatus validates the target against the closed allow-list, then
// applies it in one atomic write.
func (s *Service) UpdateStatus(ctx context.Context, admin auth.AdminIdentity, id, status string) error {
	if _, ok := allowedStatuses[status]; !ok {
		return ErrInvalidStatus
	}
	res := s.DB.WithContext(ctx).Model(&Item{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// BulkApprove promotes every pending_review item to available in a single
// statement and reports how many moved.
func (s *Service) BulkApprove(ctx context.Context, admin auth.AdminIdentity) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&Item{}).
		Where("status = ?", StatusPendingReview).
		Update("status", StatusAvailable)
	return res.RowsAffected, res.Error
}

// MarkSold takes an item off the shelf when an order secures it. Guarded on
// the item still being available: an item sold is sold.
func (s *Service) MarkSold(ctx context.Context, id string) error {
	res := s.DB.WithContext(ctx).Model(&Item{}).
		Where("id = ? AND status = ?", id, StatusAvailable).
		Update("status", StatusSold)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Archive is the soft delete used by the admin console and the prune task.
func (s *Service) Archive(ctx context.Context, admin auth.AdminIdentity, id string) error {
	return s.UpdateStatus(ctx, admin, id, StatusArchived)
}

type CreateInput struct {
	Title        string
	Brand        string
	Category     string
	ListingPrice float64
	MemberPrice  *float64
	SourcePrice  float64
	StockLevel   int
	Images       []string
}

// Create adds a curated stable item.
func (s *Service) Create(ctx context.Context, admin auth.AdminIdentity, in CreateInput) (*Item, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || in.ListingPrice < 0 {
		return nil, ErrInvalidInput
	}
	if in.StockLevel <= 0 {
		in.StockLevel = 1
	}
	now := time.Now().UTC()
	it := Item{
		ID:              uuid.NewString(),
		SourceID:        "stable_" + uuid.NewString(),
		Title:           in.Title,
		Brand:           strings.TrimSpace(in.Brand),
		Category:        strings.TrimSpace(in.Category),
		ListingPrice:    in.ListingPrice,
		MemberPrice:     in.MemberPrice,
		SourcePrice:     in.SourcePrice,
		PotentialProfit: in.ListingPrice - in.SourcePrice,
		StockLevel:      in.StockLevel,
		Status:          StatusAvailable,
		IsStable:        true,
		Images:          pq.StringArray(in.Images),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.DB.WithContext(ctx).Create(&it).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

// UpdateInput is the explicit field set the admin update may touch. Nil
// means "leave alone". Status is deliberately absent: it has its own
// allow-listed path.
type UpdateInput struct {
	Title        *string
	Brand        *string
	Category     *string
	ListingPrice *float64
	MemberPrice  *float64
	SourcePrice  *float64
	StockLevel   *int
	Images       []string
}

func (s *Service) Update(ctx context.Context, admin auth.AdminIdentity, id string, in UpdateInput) (*Item, error) {
	updates := map[string]any{}
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return nil, ErrInvalidInput
		}
		updates["title"] = t
	}
	if in.Brand != nil {
		updates["brand"] = strings.TrimSpace(*in.Brand)
	}
	if in.Category != nil {
		updates["category"] = strings.TrimSpace(*in.Category)
	}
	if in.ListingPrice != nil {
		if *in.ListingPrice < 0 {
			return nil, ErrInvalidInput
		}
		updates["listing_price"] = *in.ListingPrice
	}
	if in.MemberPrice != nil {
		updates["member_price"] = *in.MemberPrice
	}
	if in.SourcePrice != nil {
		updates["source_price"] = *in.SourcePrice
	}
	if in.StockLevel != nil {
		if *in.StockLevel < 0 {
			return nil, ErrInvalidInput
		}
		updates["stock_level"] = *in.StockLevel
	}
	if in.Images != nil {
		updates["images"] = pq.StringArray(in.Images)
	}
	if len(updates) == 0 {
		return nil, ErrInvalidInput
	}
	updates["updated_at"] = time.Now().UTC()

	res := s.DB.WithContext(ctx).Model(&Item{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	if in.ListingPrice != nil || in.SourcePrice != nil {
		// keep the derived margin in step with the prices
		if err := s.DB.WithContext(ctx).Exec(
			`update pulse_inventory set potential_profit = listing_price - source_price where id = ?`, id,
		).Error; err != nil {
			return nil, err
		}
	}

	var it Item
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&it).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

type ListFilter struct {
	Status string
	Stable *bool
	Limit  int
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Item, error) {
	q := s.DB.WithContext(ctx).Model(&Item{})
	if f.Status != "" {
		if _, ok := allowedStatuses[f.Status]; !ok {
			return nil, ErrInvalidStatus
		}
		q = q.Where("status = ?", f.Status)
	}
	if f.Stable != nil {
		q = q.Where("is_stable = ?", *f.Stable)
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []Item
	err := q.Order("created_at desc").Limit(limit).Find(&out).Error
	return out, err
}

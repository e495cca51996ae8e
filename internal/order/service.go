package order

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"pulse/internal/auth"
	"pulse/internal/inventory"
	"pulse/internal/notify"
	"pulse/internal/payment"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrMissingTracking   = errors.New("tracking number required")
	ErrNoPaymentRef      = errors.New("payment reference missing")
)

type Service struct {
	DB       *gorm.DB
	Mailer   notify.Mailer
	Payments payment.Provider
}

// UpdateStatus is the generic admin path. Dispatched and refunded are
// rejected here outright: they have dedicated operations that do the extra
// work. The write is conditioned on the current status being a legal
// source for the target, so a stale read cannot slip an illegal move in.
func (s *Service) UpdateStatus(ctx context.Context, admin auth.AdminIdentity, id string, target Status) error {
	if !GenericTarget(target) {
		return ErrInvalidStatus
	}
	res := s.DB.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND status IN ?", id, sources(target)).
		Updates(map[string]any{"status": target, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.missingOrConflict(ctx, id)
	}
	return nil
}

// DispatchResult reports the outcome of a dispatch. NotifyErr is non-nil
// when the status committed but the customer email did not go out; that is
// a partial success, never a rollback.
type DispatchResult struct {
	Order     Order
	NotifyErr error
}

// Dispatch moves an order to dispatched and stores its tracking number,
// then and only then attempts the customer notification. A failed store
// write returns an error with zero notification calls; a failed email
// leaves the committed status in place.
func (s *Service) Dispatch(ctx context.Context, admin auth.AdminIdentity, id, trackingNumber string) (*DispatchResult, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return nil, ErrMissingTracking
	}

	var o Order
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	res := s.DB.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND status IN ?", id, sources(StatusDispatched)).
		Updates(map[string]any{
			"status":          StatusDispatched,
			"tracking_number": trackingNumber,
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrIllegalTransition
	}
	o.Status = StatusDispatched
	o.TrackingNumber = &trackingNumber

	// The write is committed; from here on nothing may undo it.
	out := &DispatchResult{Order: o}
	if err := s.Mailer.SendDispatch(ctx, o.CustomerEmail, notify.DispatchEmail{
		ProductName:    s.productName(ctx, o.ItemID),
		TrackingNumber: trackingNumber,
	}); err != nil {
		log.Printf("order %s: dispatch email failed: %v", o.ID, err)
		out.NotifyErr = err
	}
	return out, nil
}

// RefundResult mirrors DispatchResult: RefundErr set means the status
// committed but the provider call failed and needs a manual retry.
type RefundResult struct {
	Order     Order
	RefundErr error
}

// Refund commits the refunded status (and archives the linked item so it
// cannot be resold) before the money moves. The provider call is the side
// effect and follows the same guard as the dispatch email.
func (s *Service) Refund(ctx context.Context, admin auth.AdminIdentity, id string) (*RefundResult, error) {
	var o Order
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if o.PaymentRef == nil || *o.PaymentRef == "" {
		return nil, ErrNoPaymentRef
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Order{}).
			Where("id = ? AND status IN ?", id, sources(StatusRefunded)).
			Updates(map[string]any{"status": StatusRefunded, "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrIllegalTransition
		}
		if o.ItemID != nil {
			if err := tx.Model(&inventory.Item{}).
				Where("id = ?", *o.ItemID).
				Update("status", inventory.StatusArchived).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	o.Status = StatusRefunded

	out := &RefundResult{Order: o}
	if err := s.Payments.Refund(ctx, *o.PaymentRef); err != nil {
		log.Printf("order %s: provider refund failed: %v", o.ID, err)
		out.RefundErr = err
	}
	return out, nil
}

// SecureResult reports the webhook-driven securing of an order.
type SecureResult struct {
	Order     Order
	NotifyErr error
}

// Secure is the payment-webhook path: the order moves pending_secure ->
// secured and its item comes off the shelf in one transaction, then the
// confirmation email runs under the usual commit-then-notify guard.
func (s *Service) Secure(ctx context.Context, id string) (*SecureResult, error) {
	var o Order
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Order{}).
			Where("id = ? AND status = ?", id, StatusPendingSecure).
			Updates(map[string]any{"status": StatusSecured, "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrIllegalTransition
		}
		if o.ItemID != nil {
			// best effort: a stable item with stock stays available
			if err := tx.Model(&inventory.Item{}).
				Where("id = ? AND status = ? AND is_stable = false", *o.ItemID, inventory.StatusAvailable).
				Update("status", inventory.StatusSold).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	o.Status = StatusSecured

	out := &SecureResult{Order: o}
	if err := s.Mailer.SendOrderConfirmation(ctx, o.CustomerEmail, notify.OrderEmail{
		ProductName: s.productName(ctx, o.ItemID),
		Amount:      o.Amount,
	}); err != nil {
		log.Printf("order %s: confirmation email failed: %v", o.ID, err)
		out.NotifyErr = err
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	var o Order
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (s *Service) List(ctx context.Context, limit int) ([]Order, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []Order
	err := s.DB.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&out).Error
	return out, err
}

func (s *Service) productName(ctx context.Context, itemID *string) string {
	if itemID == nil {
		return "Archive Piece"
	}
	var it inventory.Item
	if err := s.DB.WithContext(ctx).Select("title").Where("id = ?", *itemID).First(&it).Error; err != nil {
		return "Archive Piece"
	}
	return it.Title
}

func (s *Service) missingOrConflict(ctx context.Context, id string) error {
	var n int64
	if err := s.DB.WithContext(ctx).Model(&Order{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrIllegalTransition
}

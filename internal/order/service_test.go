package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pulse/internal/auth"
	"pulse/internal/inventory"
	"pulse/internal/notify"
)

type fakeMailer struct {
	dispatches []notify.DispatchEmail
	confirms   []notify.OrderEmail
	fail       bool
}

func (m *fakeMailer) SendDispatch(ctx context.Context, to string, e notify.DispatchEmail) error {
	if m.fail {
		return errors.New("smtp down")
	}
	m.dispatches = append(m.dispatches, e)
	return nil
}

func (m *fakeMailer) SendOrderConfirmation(ctx context.Context, to string, e notify.OrderEmail) error {
	if m.fail {
		return errors.New("smtp down")
	}
	m.confirms = append(m.confirms, e)
	return nil
}

type fakePayments struct {
	refunds []string
	fail    bool
}

func (p *fakePayments) Refund(ctx context.Context, ref string) error {
	if p.fail {
		return errors.New("provider 502")
	}
	p.refunds = append(p.refunds, ref)
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(&Order{}, &inventory.Item{}))
	return gdb
}

func newTestService(t *testing.T) (*Service, *fakeMailer, *fakePayments) {
	t.Helper()
	m := &fakeMailer{}
	p := &fakePayments{}
	return &Service{DB: newTestDB(t), Mailer: m, Payments: p}, m, p
}

func seedOrder(t *testing.T, gdb *gorm.DB, status Status, mutate ...func(*Order)) *Order {
	t.Helper()
	o := &Order{
		ID:            uuid.NewString(),
		Status:        status,
		CustomerEmail: "buyer@example.com",
		Amount:        120,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	for _, f := range mutate {
		f(o)
	}
	require.NoError(t, gdb.Create(o).Error)
	return o
}

func seedItem(t *testing.T, gdb *gorm.DB, status string, stable bool) *inventory.Item {
	t.Helper()
	it := &inventory.Item{
		ID:        uuid.NewString(),
		SourceID:  uuid.NewString(),
		Title:     "Stone Island field jacket",
		Brand:     "Stone Island",
		Status:    status,
		IsStable:  stable,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, gdb.Create(it).Error)
	return it
}

var admin = auth.AdminIdentity{Subject: "admin", Via: auth.ViaSession}

func TestUpdateStatusRejectsDispatchedAndRefunded(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()
	o := seedOrder(t, s.DB, StatusSecured)

	for _, target := range []Status{StatusDispatched, StatusRefunded} {
		err := s.UpdateStatus(ctx, admin, o.ID, target)
		require.ErrorIs(t, err, ErrInvalidStatus, "target %s must be rejected on the generic path", target)
	}

	got, err := s.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSecured, got.Status)
}

func TestUpdateStatusLegalMove(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()
	o := seedOrder(t, s.DB, StatusSecured)

	require.NoError(t, s.UpdateStatus(ctx, admin, o.ID, StatusAwaitingAllocation))

	got, err := s.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, StatusAwaitingAllocation, got.Status)
}

func TestUpdateStatusFromTerminalStateConflicts(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()
	o := seedOrder(t, s.DB, StatusDispatched)

	err := s.UpdateStatus(ctx, admin, o.ID, StatusSecured)
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestUpdateStatusNotFound(t *testing.T) {
	s, _, _ := newTestService(t)
	err := s.UpdateStatus(context.Background(), admin, uuid.NewString(), StatusSecured)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDispatchHappyPath(t *testing.T) {
	s, m, _ := newTestService(t)
	ctx := context.Background()
	it := seedItem(t, s.DB, inventory.StatusSold, false)
	o := seedOrder(t, s.DB, StatusAwaitingAllocation, func(o *Order) { o.ItemID = &it.ID })

	res, err := s.Dispatch(ctx, admin, o.ID, "ABC123")
	require.NoError(t, err)
	require.Nil(t, res.NotifyErr)

	got, err := s.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDispatched, got.Status)
	require.NotNil(t, got.TrackingNumber)
	require.Equal(t, "ABC123", *got.TrackingNumber)

	require.Len(t, m.dispatches, 1)
	require.Equal(t, "ABC123", m.dispatches[0].TrackingNumber)
	require.Equal(t, "Stone Island field jacket", m.dispatches[0].ProductName)
}

func TestDispatchWriteFailureSendsNothing(t *testing.T) {
	s, m, _ := newTestService(t)
	ctx := context.Background()

	// missing order
	_, err := s.Dispatch(ctx, admin, uuid.NewString(), "ABC123")
	require.ErrorIs(t, err, ErrNotFound)

	// wrong source state: the conditional write refuses
	o := seedOrder(t, s.DB, StatusPendingSecure)
	_, err = s.Dispatch(ctx, admin, o.ID, "ABC123")
	require.ErrorIs(t, err, ErrIllegalTransition)

	got, err := s.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPendingSecure, got.Status)
	require.Nil(t, got.TrackingNumber)

	require.Empty(t, m.dispatches, "no notification without a committed write")
}

func TestDispatchRejectsEmptyTracking(t *testing.T) {
	s, m, _ := newTestService(t)
	o := seedOrder(t, s.DB, StatusAwaitingAllocation)

	_, err := s.Dispatch(context.Background(), admin, o.ID, "   ")
	require.ErrorIs(t, err, ErrMissingTracking)
	require.Empty(t, m.dispatches)
}

func TestDispatchNotifyFailureIsPartialSuccess(t *testing.T) {
	s, m, _ := newTestService(t)
	ctx := context.Background()
	m.fail = true
	o := seedOrder(t, s.DB, StatusAwaitingAllocation)

	res, err := s.Dispatch(ctx, admin, o.ID, "ABC123")
	require.NoError(t, err, "a failed email must not read as an overall failure")
	require.NotNil(t, res.NotifyErr)

	got, err := s.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDispatched, got.Status)
	require.Equal(t, "ABC123", *got.TrackingNumber)
}

func TestRefundCommitsBeforeProviderCall(t *testing.T) {
	s, _, p := newTestService(t)
	ctx := context.Background()
	it := seedItem(t, s.DB, inventory.StatusSold, false)
	ref := "cs_test_123"
	o := seedOrder(t, s.DB, StatusSecured, func(o *Order) {
		o.ItemID = &it.ID
		o.PaymentRef = &ref
	})

	res, err := s.Refund(ctx, admin, o.ID)
	require.NoError(t, err)
	require.Nil(t, res.RefundErr)
	require.Equal(t, []string{ref}, p.refunds)

	got, err := s.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRefunded, got.Status)

	var gotItem inventory.Item
	require.NoError(t, s.DB.Where("id = ?", it.ID).First(&gotItem).Error)
	require.Equal(t, inventory.StatusArchived, gotItem.Status)
}

func TestRefundProviderFailureIsPartialSuccess(t *testing.T) {
	s, _, p := newTestService(t)
	ctx := context.Background()
	p.fail = true
	ref := "cs_test_456"
	o := seedOrder(t, s.DB, StatusPendingSecure, func(o *Order) { o.PaymentRef = &ref })

	res, err := s.Refund(ctx, admin, o.ID)
	require.NoError(t, err)
	require.NotNil(t, res.RefundErr)

	got, err := s.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRefunded, got.Status)
}

func TestRefundRequiresPaymentRef(t *testing.T) {
	s, _, p := newTestService(t)
	o := seedOrder(t, s.DB, StatusSecured)

	_, err := s.Refund(context.Background(), admin, o.ID)
	require.ErrorIs(t, err, ErrNoPaymentRef)
	require.Empty(t, p.refunds)
}

func TestRefundFromDispatchedConflicts(t *testing.T) {
	s, _, p := newTestService(t)
	ref := "cs_test_789"
	o := seedOrder(t, s.DB, StatusDispatched, func(o *Order) { o.PaymentRef = &ref })

	_, err := s.Refund(context.Background(), admin, o.ID)
	require.ErrorIs(t, err, ErrIllegalTransition)
	require.Empty(t, p.refunds, "no money moves without a committed status")
}

func TestSecureMarksItemSold(t *testing.T) {
	s, m, _ := newTestService(t)
	ctx := context.Background()
	it := seedItem(t, s.DB, inventory.StatusAvailable, false)
	o := seedOrder(t, s.DB, StatusPendingSecure, func(o *Order) { o.ItemID = &it.ID })

	res, err := s.Secure(ctx, o.ID)
	require.NoError(t, err)
	require.Nil(t, res.NotifyErr)

	got, err := s.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSecured, got.Status)

	var gotItem inventory.Item
	require.NoError(t, s.DB.Where("id = ?", it.ID).First(&gotItem).Error)
	require.Equal(t, inventory.StatusSold, gotItem.Status)

	require.Len(t, m.confirms, 1)
}

func TestSecureReplayConflicts(t *testing.T) {
	s, m, _ := newTestService(t)
	ctx := context.Background()
	o := seedOrder(t, s.DB, StatusSecured)

	_, err := s.Secure(ctx, o.ID)
	require.ErrorIs(t, err, ErrIllegalTransition)
	require.Empty(t, m.confirms)
}

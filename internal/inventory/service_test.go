package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pulse/internal/auth"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(&Item{}))
	return gdb
}

func seedItem(t *testing.T, gdb *gorm.DB, status string) *Item {
	t.Helper()
	it := &Item{
		ID:           uuid.NewString(),
		SourceID:     uuid.NewString(),
		Title:        "CP Company goggle jacket",
		Brand:        "CP Company",
		ListingPrice: 240,
		SourcePrice:  90,
		StockLevel:   1,
		Status:       status,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	require.NoError(t, gdb.Create(it).Error)
	return it
}

var admin = auth.AdminIdentity{Subject: "admin", Via: auth.ViaSession}

func TestBulkApprove(t *testing.T) {
	s := &Service{DB: newTestDB(t)}
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		seedItem(t, s.DB, StatusPendingReview)
	}
	for i := 0; i < 2; i++ {
		seedItem(t, s.DB, StatusAvailable)
	}

	n, err := s.BulkApprove(ctx, admin)
	require.NoError(t, err)
	require.EqualValues(t, 5, n)

	var available int64
	require.NoError(t, s.DB.Model(&Item{}).Where("status = ?", StatusAvailable).Count(&available).Error)
	require.EqualValues(t, 7, available)
}

func TestUpdateStatusAllowList(t *testing.T) {
	s := &Service{DB: newTestDB(t)}
	ctx := context.Background()
	it := seedItem(t, s.DB, StatusPendingReview)

	err := s.UpdateStatus(ctx, admin, it.ID, "destroyed")
	require.ErrorIs(t, err, ErrInvalidStatus)

	require.NoError(t, s.UpdateStatus(ctx, admin, it.ID, StatusAvailable))

	var got Item
	require.NoError(t, s.DB.Where("id = ?", it.ID).First(&got).Error)
	require.Equal(t, StatusAvailable, got.Status)
}

func TestUpdateStatusNotFound(t *testing.T) {
	s := &Service{DB: newTestDB(t)}
	err := s.UpdateStatus(context.Background(), admin, uuid.NewString(), StatusArchived)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMarkSoldOnlyFromAvailable(t *testing.T) {
	s := &Service{DB: newTestDB(t)}
	ctx := context.Background()

	it := seedItem(t, s.DB, StatusAvailable)
	require.NoError(t, s.MarkSold(ctx, it.ID))

	// an item sold is sold
	err := s.MarkSold(ctx, it.ID)
	require.ErrorIs(t, err, ErrNotFound)

	pending := seedItem(t, s.DB, StatusPendingReview)
	err = s.MarkSold(ctx, pending.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestArchiveIsSoftDelete(t *testing.T) {
	s := &Service{DB: newTestDB(t)}
	ctx := context.Background()
	it := seedItem(t, s.DB, StatusAvailable)

	require.NoError(t, s.Archive(ctx, admin, it.ID))

	// row is still there for audit and order links
	var got Item
	require.NoError(t, s.DB.Where("id = ?", it.ID).First(&got).Error)
	require.Equal(t, StatusArchived, got.Status)
}

func TestCreateStableItem(t *testing.T) {
	s := &Service{DB: newTestDB(t)}

	it, err := s.Create(context.Background(), admin, CreateInput{
		Title:        "Moncler Maya",
		Brand:        "Moncler",
		ListingPrice: 650,
		SourcePrice:  300,
	})
	require.NoError(t, err)
	require.True(t, it.IsStable)
	require.Equal(t, StatusAvailable, it.Status)
	require.Equal(t, 1, it.StockLevel)
	require.InDelta(t, 350, it.PotentialProfit, 0.01)

	_, err = s.Create(context.Background(), admin, CreateInput{Title: "   "})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateTouchesOnlyProvidedFields(t *testing.T) {
	s := &Service{DB: newTestDB(t)}
	ctx := context.Background()
	it := seedItem(t, s.DB, StatusAvailable)

	price := 300.0
	got, err := s.Update(ctx, admin, it.ID, UpdateInput{ListingPrice: &price})
	require.NoError(t, err)

	require.Equal(t, "CP Company goggle jacket", got.Title, "absent fields stay untouched")
	require.InDelta(t, 300, got.ListingPrice, 0.01)
	require.InDelta(t, 210, got.PotentialProfit, 0.01, "margin follows the price change")
	require.Equal(t, StatusAvailable, got.Status)
}

func TestUpdateRejectsEmptyInput(t *testing.T) {
	s := &Service{DB: newTestDB(t)}
	it := seedItem(t, s.DB, StatusAvailable)

	_, err := s.Update(context.Background(), admin, it.ID, UpdateInput{})
	require.ErrorIs(t, err, ErrInvalidInput)
}

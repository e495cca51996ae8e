package content

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pulse/internal/inventory"
)

// Creative is a daily marketing entry generated from the live inventory.
type Creative struct {
	ID     string `gorm:"primaryKey;type:text"`
	ItemID string `gorm:"type:text;index;not null"`

	Caption  string `gorm:"type:text;not null"`
	MediaURL string `gorm:"type:text"`

	Impressions int64 `gorm:"not null;default:0"`
	Clicks      int64 `gorm:"not null;default:0"`

	Score float64 `gorm:"not null;default:0"`
	Rank  int     `gorm:"not null;default:0;index"`

	CreatedAt time.Time `gorm:"not null;index"`
}

func (Creative) TableName() string { return "creatives" }

type Service struct {
	DB *gorm.DB
}

// GenerateDaily builds creatives for the freshest available items that do
// not already have one. Returns how many were created. Idempotent: a rerun
// after a crash skips items already covered.
func (s *Service) GenerateDaily(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 12
	}
	var items []inventory.Item
	err := s.DB.WithContext(ctx).
		Where("status = ?", inventory.StatusAvailable).
		Where("id NOT IN (?)", s.DB.Model(&Creative{}).Select("item_id")).
		Order("created_at desc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return 0, err
	}

	created := 0
	for _, it := range items {
		c := Creative{
			ID:        uuid.NewString(),
			ItemID:    it.ID,
			Caption:   it.Brand + " — " + it.Title,
			CreatedAt: time.Now().UTC(),
		}
		if len(it.Images) > 0 {
			c.MediaURL = it.Images[0]
		}
		if err := s.DB.WithContext(ctx).Create(&c).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// RecalculateRankings recomputes scores from engagement counters and
// assigns dense ranks by score in one transaction.
func (s *Service) RecalculateRankings(ctx context.Context) (int, error) {
	var n int
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Creative{}).
			Where("1 = 1").
			Update("score", gorm.Expr("clicks * 5 + impressions")).Error; err != nil {
			return err
		}

		var ids []string
		if err := tx.Model(&Creative{}).
			Order("score desc, created_at desc").
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		for i, id := range ids {
			if err := tx.Model(&Creative{}).Where("id = ?", id).Update("rank", i+1).Error; err != nil {
				return err
			}
		}
		n = len(ids)
		return nil
	})
	return n, err
}

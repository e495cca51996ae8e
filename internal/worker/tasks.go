package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"pulse/internal/content"
	"pulse/internal/inventory"
)

// Tasks holds the concrete handlers behind the command kinds. All of them
// are safe to re-run: upserts are keyed on source ids, status flips are
// conditional, content generation skips covered items.
type Tasks struct {
	DB      *gorm.DB
	Content *content.Service

	Client   *http.Client
	FeedURL  string
	Brands   []string
	Throttle time.Duration

	// PruneBatch bounds one prune pass; small batches keep the sweep
	// gentle on the marketplaces being checked.
	PruneBatch int
}

func NewTasks(gdb *gorm.DB, feedURL string, brands []string) *Tasks {
	return &Tasks{
		DB:         gdb,
		Content:    &content.Service{DB: gdb},
		Client:     &http.Client{Timeout: 5 * time.Second},
		FeedURL:    feedURL,
		Brands:     brands,
		Throttle:   5 * time.Second,
		PruneBatch: 50,
	}
}

// Prune HEAD-checks the source listings of available pipeline items and
// marks gone ones sold: the upstream listing disappearing means the piece
// was bought elsewhere.
func (t *Tasks) Prune(ctx context.Context) (string, error) {
	var items []inventory.Item
	err := t.DB.WithContext(ctx).
		Select("id", "source_url").
		Where("status = ? AND is_stable = false AND source_url <> ''", inventory.StatusAvailable).
		Order("last_seen_at asc").
		Limit(t.PruneBatch).
		Find(&items).Error
	if err != nil {
		return "", err
	}

	pruned := 0
	for _, it := range items {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !t.listingGone(ctx, it.SourceURL) {
			continue
		}
		res := t.DB.WithContext(ctx).Model(&inventory.Item{}).
			Where("id = ? AND status = ?", it.ID, inventory.StatusAvailable).
			Update("status", inventory.StatusSold)
		if res.Error != nil {
			return "", res.Error
		}
		pruned += int(res.RowsAffected)
	}
	return fmt.Sprintf("checked %d, pruned %d", len(items), pruned), nil
}

func (t *Tasks) listingGone(ctx context.Context, rawURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}
	resp, err := t.Client.Do(req)
	if err != nil {
		// timeouts and transport errors are skipped, not treated as gone
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusNotFound
}

type feedItem struct {
	SourceID    string   `json:"source_id"`
	Title       string   `json:"title"`
	Brand       string   `json:"brand"`
	Category    string   `json:"category"`
	Price       float64  `json:"price"`
	SourcePrice float64  `json:"source_price"`
	URL         string   `json:"url"`
	Images      []string `json:"images"`
}

// Sync pulls the ingestion feed once. New listings land as pending_review;
// known ones only get last_seen_at refreshed.
func (t *Tasks) Sync(ctx context.Context) (string, error) {
	return t.sync(ctx, false)
}

// SyncForce additionally overwrites price and images of known listings.
func (t *Tasks) SyncForce(ctx context.Context) (string, error) {
	return t.sync(ctx, true)
}

func (t *Tasks) sync(ctx context.Context, force bool) (string, error) {
	if t.FeedURL == "" {
		return "", errors.New("no feed url configured")
	}
	items, err := t.fetchFeed(ctx, t.FeedURL)
	if err != nil {
		return "", err
	}
	inserted, updated, err := t.saveFeed(ctx, items, force)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("feed %d items: %d new, %d refreshed", len(items), inserted, updated), nil
}

// Pulse is the full ingestion cycle: one feed pull per configured brand,
// throttled between brands to stay under marketplace rate limits.
func (t *Tasks) Pulse(ctx context.Context) (string, error) {
	if t.FeedURL == "" {
		return "", errors.New("no feed url configured")
	}
	totalNew := 0
	for i, brand := range t.Brands {
		if i > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(t.Throttle):
			}
		}
		items, err := t.fetchFeed(ctx, t.FeedURL+"?brand="+url.QueryEscape(brand))
		if err != nil {
			// one bad brand must not sink the whole cycle
			continue
		}
		n, _, err := t.saveFeed(ctx, items, false)
		if err != nil {
			return "", err
		}
		totalNew += n
	}
	return fmt.Sprintf("pulse cycle: %d brands, %d new items", len(t.Brands), totalNew), nil
}

func (t *Tasks) fetchFeed(ctx context.Context, feedURL string) ([]feedItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed: status %d", resp.StatusCode)
	}
	var items []feedItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("feed: decode: %w", err)
	}
	return items, nil
}

func (t *Tasks) saveFeed(ctx context.Context, items []feedItem, force bool) (inserted, updated int, err error) {
	now := time.Now().UTC()
	for _, fi := range items {
		if fi.SourceID == "" || fi.Title == "" {
			continue
		}

		var existing inventory.Item
		ferr := t.DB.WithContext(ctx).Select("id").Where("source_id = ?", fi.SourceID).First(&existing).Error
		if errors.Is(ferr, gorm.ErrRecordNotFound) {
			it := inventory.Item{
				ID:              uuid.NewString(),
				SourceID:        fi.SourceID,
				SourceURL:       fi.URL,
				Title:           fi.Title,
				Brand:           fi.Brand,
				Category:        fi.Category,
				ListingPrice:    fi.Price,
				SourcePrice:     fi.SourcePrice,
				PotentialProfit: fi.Price - fi.SourcePrice,
				Status:          inventory.StatusPendingReview,
				Images:          pq.StringArray(fi.Images),
				LastSeenAt:      &now,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if cerr := t.DB.WithContext(ctx).Create(&it).Error; cerr != nil {
				return inserted, updated, cerr
			}
			inserted++
			continue
		}
		if ferr != nil {
			return inserted, updated, ferr
		}

		upd := map[string]any{"last_seen_at": now, "updated_at": now}
		if force {
			upd["listing_price"] = fi.Price
			upd["source_price"] = fi.SourcePrice
			upd["potential_profit"] = fi.Price - fi.SourcePrice
			if len(fi.Images) > 0 {
				upd["images"] = pq.StringArray(fi.Images)
			}
		}
		if uerr := t.DB.WithContext(ctx).Model(&inventory.Item{}).
			Where("id = ?", existing.ID).Updates(upd).Error; uerr != nil {
			return inserted, updated, uerr
		}
		updated++
	}
	return inserted, updated, nil
}

// GenerateContent backs the content command.
func (t *Tasks) GenerateContent(ctx context.Context) (string, error) {
	n, err := t.Content.GenerateDaily(ctx, 12)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("generated %d creatives", n), nil
}

// RecalculateRankings backs the recalculate-rankings command.
func (t *Tasks) RecalculateRankings(ctx context.Context) (string, error) {
	n, err := t.Content.RecalculateRankings(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ranked %d creatives", n), nil
}

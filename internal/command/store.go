package command

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrInvalidKind = errors.New("invalid command kind")

// Store is the durable queue. Every mutation is a single conditional
// UPDATE; the database is the only arbiter between concurrent consumers.
type Store struct {
	DB *gorm.DB
}

// Enqueue validates the kind and inserts a pending row. Fire-and-forget:
// the caller gets an id, never execution feedback.
func (s *Store) Enqueue(ctx context.Context, kind Kind) (*Command, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	c := Command{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.DB.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ClaimNext takes ownership of the oldest pending command, or nil when the
// queue is empty. The claim itself is an UPDATE guarded on the row still
// being pending, so two consumers racing for the same row resolve to
// exactly one winner; the loser moves on to the next candidate.
func (s *Store) ClaimNext(ctx context.Context) (*Command, error) {
	// Every retry means another consumer just claimed a row, so the loop
	// terminates: the pending set only shrinks between attempts.
	for {
		var c Command
		err := s.DB.WithContext(ctx).
			Where("status = ?", StatusPending).
			Order("created_at asc").
			First(&c).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		token := uuid.NewString()
		now := time.Now().UTC()
		res := s.DB.WithContext(ctx).Model(&Command{}).
			Where("id = ? AND status = ?", c.ID, StatusPending).
			Updates(map[string]any{
				"status":      StatusClaimed,
				"claim_token": token,
				"claimed_at":  now,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			// lost the race, try the next candidate
			continue
		}

		c.Status = StatusClaimed
		c.ClaimToken = &token
		c.ClaimedAt = &now
		return &c, nil
	}
}

// Complete finishes a claimed command. Keyed on the claim token: if the row
// was reclaimed and claimed by someone else in the meantime the write is a
// silent no-op and the caller's result is discarded.
func (s *Store) Complete(ctx context.Context, id, token, result string) error {
	return s.finish(ctx, id, token, StatusCompleted, map[string]any{"result": result})
}

// Fail records a terminal failure, same token guard as Complete.
func (s *Store) Fail(ctx context.Context, id, token, errMsg string) error {
	return s.finish(ctx, id, token, StatusFailed, map[string]any{"error": errMsg})
}

func (s *Store) finish(ctx context.Context, id, token, status string, payload map[string]any) error {
	payload["status"] = status
	payload["finished_at"] = time.Now().UTC()
	return s.DB.WithContext(ctx).Model(&Command{}).
		Where("id = ? AND claim_token = ? AND status = ?", id, token, StatusClaimed).
		Updates(payload).Error
}

// ReclaimStale returns claimed rows older than staleAfter to pending and
// reports how many were swept. Single statement: a row re-claimed since the
// sweep began carries a fresh claimed_at and is not matched, so a live
// claim is never clobbered.
func (s *Store) ReclaimStale(ctx context.Context, staleAfter time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-staleAfter)
	res := s.DB.WithContext(ctx).Model(&Command{}).
		Where("status = ? AND claimed_at IS NOT NULL AND claimed_at < ?", StatusClaimed, cutoff).
		Updates(map[string]any{
			"status":      StatusPending,
			"claim_token": nil,
			"claimed_at":  nil,
		})
	return res.RowsAffected, res.Error
}

func (s *Store) Get(ctx context.Context, id string) (*Command, error) {
	var c Command
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListRecent feeds the admin console's queue view.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Command, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []Command
	err := s.DB.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

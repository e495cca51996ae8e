package command

import "time"

// Kind names a recognized background task. The set is closed: the producer
// rejects anything else before a row is written.
type Kind string

const (
	KindPulse          Kind = "pulse"
	KindSync           Kind = "sync"
	KindSyncForce      Kind = "sync-force"
	KindPrune          Kind = "prune"
	KindContent        Kind = "content"
	KindRecalcRankings Kind = "recalculate-rankings"
)

var kinds = map[Kind]struct{}{
	KindPulse:          {},
	KindSync:           {},
	KindSyncForce:      {},
	KindPrune:          {},
	KindContent:        {},
	KindRecalcRankings: {},
}

func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

const (
	StatusPending   = "pending"
	StatusClaimed   = "claimed"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Command is one requested unit of background work. Status only moves
// forward (pending -> claimed -> completed/failed); the reclaimer may move
// claimed back to pending after the staleness threshold.
type Command struct {
	ID   string `gorm:"primaryKey;type:text"`
	Kind Kind   `gorm:"type:text;not null;index"`

	Status string `gorm:"type:text;not null;default:'pending';index"`

	// ClaimToken is rewritten on every claim. Terminal writes are keyed on
	// it so a late complete/fail from a reclaimed worker no-ops.
	ClaimToken *string `gorm:"type:text"`

	CreatedAt  time.Time `gorm:"not null;index"`
	ClaimedAt  *time.Time
	FinishedAt *time.Time

	Result *string `gorm:"type:text"`
	Error  *string `gorm:"type:text"`
}

func (Command) TableName() string { return "commands" }

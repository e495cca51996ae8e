package worker

import (
	"context"
	"log"
	"time"

	"pulse/internal/command"
)

// Reclaimer sweeps claimed commands whose consumer died without calling
// Complete or Fail, bounding a crash's damage to one staleness interval.
// The cost is possible duplicate execution, which handlers absorb by being
// idempotent.
type Reclaimer struct {
	Store      *command.Store
	Interval   time.Duration
	StaleAfter time.Duration
}

func (r *Reclaimer) Run(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.Store.ReclaimStale(ctx, r.StaleAfter)
			if err != nil {
				log.Printf("reclaimer: sweep error: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("reclaimer: returned %d stale command(s) to pending", n)
			}
		}
	}
}

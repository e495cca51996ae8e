package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"pulse/internal/command"
)

// Handler executes one command kind. Handlers must be idempotent: the
// reclaimer can replay work whose prior attempt died mid-execution.
type Handler func(ctx context.Context) (string, error)

// Worker is the consumer side of the queue protocol: poll, claim one
// command at a time, dispatch by kind, acknowledge with Complete or Fail.
type Worker struct {
	ID       string
	Store    *command.Store
	Interval time.Duration

	handlers map[command.Kind]Handler
}

func New(id string, store *command.Store, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Worker{
		ID:       id,
		Store:    store,
		Interval: interval,
		handlers: map[command.Kind]Handler{},
	}
}

func (w *Worker) Register(kind command.Kind, h Handler) {
	w.handlers[kind] = h
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	log.Printf("worker %s: started", w.ID)
	for {
		select {
		case <-ctx.Done():
			log.Printf("worker %s: stopping", w.ID)
			return
		case <-ticker.C:
			cmd, err := w.Store.ClaimNext(ctx)
			if err != nil {
				log.Printf("worker %s: claim error: %v", w.ID, err)
				continue
			}
			if cmd == nil {
				continue
			}
			w.handle(ctx, cmd)
		}
	}
}

// handle resolves a claimed command to a terminal status. An unrecognized
// kind fails immediately rather than crashing: a crash would leave the row
// claimed and blocked until the reclaim timeout.
func (w *Worker) handle(ctx context.Context, cmd *command.Command) {
	token := ""
	if cmd.ClaimToken != nil {
		token = *cmd.ClaimToken
	}

	h, ok := w.handlers[cmd.Kind]
	if !ok {
		if err := w.Store.Fail(ctx, cmd.ID, token, fmt.Sprintf("no handler registered for kind %q", cmd.Kind)); err != nil {
			log.Printf("worker %s: fail write error: %v", w.ID, err)
		}
		return
	}

	result, err := w.run(ctx, h)
	if err != nil {
		log.Printf("worker %s: command %s (%s) failed: %v", w.ID, cmd.ID, cmd.Kind, err)
		if werr := w.Store.Fail(ctx, cmd.ID, token, err.Error()); werr != nil {
			log.Printf("worker %s: fail write error: %v", w.ID, werr)
		}
		return
	}

	if werr := w.Store.Complete(ctx, cmd.ID, token, result); werr != nil {
		log.Printf("worker %s: complete write error: %v", w.ID, werr)
	}
}

// run converts a handler panic into an error so the row is failed instead
// of stranded.
func (w *Worker) run(ctx context.Context, h Handler) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx)
}

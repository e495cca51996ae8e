package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"pulse/internal/command"
	"pulse/internal/config"
	"pulse/internal/db"
	"pulse/internal/worker"
)

func main() {
	cfg, _ := config.Load()

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		log.Fatal(err)
	}

	store := &command.Store{DB: gdb}
	tasks := worker.NewTasks(gdb, cfg.FeedURL, cfg.Brands)

	w := worker.New("worker-1", store, cfg.WorkerPollInterval)
	w.Register(command.KindPulse, tasks.Pulse)
	w.Register(command.KindSync, tasks.Sync)
	w.Register(command.KindSyncForce, tasks.SyncForce)
	w.Register(command.KindPrune, tasks.Prune)
	w.Register(command.KindContent, tasks.GenerateContent)
	w.Register(command.KindRecalcRankings, tasks.RecalculateRankings)

	rec := &worker.Reclaimer{
		Store:      store,
		Interval:   cfg.ReclaimInterval,
		StaleAfter: cfg.ClaimStaleAfter,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go rec.Run(ctx)
	go w.Run(ctx)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	cancel()
	log.Println("worker shut down")
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pulse/internal/auth"
	"pulse/internal/config"
	"pulse/internal/db"
	httpx "pulse/internal/http"
	"pulse/internal/notify"
	"pulse/internal/payment"
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

	jwtSvc := auth.NewJWT(cfg.JWTSecret)

	var mailer notify.Mailer = notify.LogMailer{}
	if cfg.MailAPIKey != "" {
		mailer = notify.NewHTTPMailer(cfg.MailAPIURL, cfg.MailAPIKey, "orders@pulse.archive")
	}
	var payments payment.Provider = payment.LogProvider{}
	if cfg.PaymentAPIURL != "" {
		payments = payment.NewHTTPProvider(cfg.PaymentAPIURL, cfg.PaymentAPIKey)
	}

	r := httpx.NewRouter(cfg, gdb, jwtSvc, mailer, payments)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on %s\n", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}

package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr             string
	DatabaseURL          string
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	JWTSecret         string
	AdminPasswordHash string
	// CronSecret authorizes scheduler-triggered calls (prune etc.) that
	// carry no admin session.
	CronSecret    string
	WebhookSecret string

	WorkerPollInterval time.Duration
	ReclaimInterval    time.Duration
	ClaimStaleAfter    time.Duration

	MailAPIURL    string
	MailAPIKey    string
	PaymentAPIURL string
	PaymentAPIKey string

	FeedURL string
	Brands  []string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:          mustGetenv("DATABASE_URL"),
		CORSAllowCredentials: getenv("CORS_ALLOW_CREDENTIALS", "false") == "true",

		JWTSecret:         mustGetenv("JWT_SECRET"),
		AdminPasswordHash: mustGetenv("ADMIN_PASSWORD_HASH"),
		CronSecret:        mustGetenv("CRON_SECRET"),
		WebhookSecret:     getenv("WEBHOOK_SECRET", ""),

		WorkerPollInterval: getdur("WORKER_POLL_INTERVAL", time.Second),
		ReclaimInterval:    getdur("RECLAIM_INTERVAL", 30*time.Second),
		// Must exceed the slowest handler (a full pulse cycle with
		// per-brand throttling) or in-progress work gets duplicated.
		ClaimStaleAfter: getdur("CLAIM_STALE_AFTER", 10*time.Minute),

		MailAPIURL:    getenv("MAIL_API_URL", "https://api.resend.com/emails"),
		MailAPIKey:    getenv("MAIL_API_KEY", ""),
		PaymentAPIURL: getenv("PAYMENT_API_URL", ""),
		PaymentAPIKey: getenv("PAYMENT_API_KEY", ""),

		FeedURL: getenv("FEED_URL", ""),
	}

	for _, o := range strings.Split(getenv("CORS_ALLOWED_ORIGINS", ""), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	for _, b := range strings.Split(getenv("FEED_BRANDS", ""), ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			cfg.Brands = append(cfg.Brands, b)
		}
	}

	return cfg, nil
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func mustGetenv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		panic("missing env: " + key)
	}
	return v
}

func getdur(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic("invalid duration in env " + key + ": " + v)
	}
	return d
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds service configuration.
type Config struct {
	DatabaseURL         string
	ServerAddr          string
	SessionTTL          time.Duration
	SessionCookieName   string
	SessionCookieSecure bool

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	StaleTradeTTL      time.Duration
	StaleSweepInterval time.Duration

	// TrackingWebhookToken guards the carrier tracking endpoint when the
	// service runs without an authenticating gateway. Empty disables the check.
	TrackingWebhookToken string
}

// Load reads configuration from the environment. A local .env file, when
// present, is loaded first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		user := getenv("POSTGRES_USER", "barterhub")
		pass := getenv("POSTGRES_PASSWORD", "barterhub_pass")
		db := getenv("POSTGRES_DB", "barterhub")
		host := getenv("POSTGRES_HOST", "localhost")
		port := getenv("POSTGRES_PORT", "5432")
		sslmode := getenv("DATABASE_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
	}
	addr := getenv("SERVER_ADDR", "0.0.0.0:8080")
	ttl := parseDuration(getenv("SESSION_TTL", "24h"), 24*time.Hour)
	cookieName := getenv("SESSION_COOKIE_NAME", "barterhub_session")
	cookieSecure := parseBool(getenv("SESSION_COOKIE_SECURE", "false"), false)

	return &Config{
		DatabaseURL:          dsn,
		ServerAddr:           addr,
		SessionTTL:           ttl,
		SessionCookieName:    cookieName,
		SessionCookieSecure:  cookieSecure,
		SMTPHost:             os.Getenv("SMTP_HOST"),
		SMTPPort:             parseInt(getenv("SMTP_PORT", "587"), 587),
		SMTPUsername:         os.Getenv("SMTP_USERNAME"),
		SMTPPassword:         os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:             getenv("SMTP_FROM", "noreply@barterhub.local"),
		StaleTradeTTL:        parseDuration(getenv("STALE_TRADE_TTL", "720h"), 720*time.Hour),
		StaleSweepInterval:   parseDuration(getenv("STALE_SWEEP_INTERVAL", "1h"), time.Hour),
		TrackingWebhookToken: os.Getenv("TRACKING_WEBHOOK_TOKEN"),
	}, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return i
}

func parseBool(val string, def bool) bool {
	if val == "" {
		return def
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return b
}

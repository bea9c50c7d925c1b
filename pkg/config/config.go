package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"shootops/internal/policy"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MigrationsPath string

	// DATABASE_URL: runtime connection (often a pooler)
	// DIRECT_URL: direct connection for migrations
	DatabaseURL string
	DirectURL   string

	DB DBConfig

	// SessionSecret signs/verifies HS256 session tokens for staff and clients.
	SessionSecret string

	// WebhookSecret verifies payment-provider webhook signatures.
	WebhookSecret string

	Paylink PaylinkConfig

	// Policy carries the cancellation-fee constants. Overridable via
	// CANCELLATION_FEE and CANCELLATION_FEE_WINDOW_HOURS.
	Policy policy.Policy

	// AllowedOrigins is a comma-separated allowlist of origins for the
	// browser front end.
	AllowedOrigins []string
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

type PaylinkConfig struct {
	// BaseURL of the hosted checkout provider's API.
	BaseURL string
	APIKey  string
	// Currency used for all checkouts (single-currency platform).
	Currency string
}

func Load() Config {
	// Convenience for local dev: load variables from .env if present.
	// In production, rely on real environment variables.
	_ = godotenv.Load()

	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			httpAddr = ":" + port
		} else {
			httpAddr = ":8081"
		}
	}

	return Config{
		AppEnv:         env("APP_ENV", "dev"),
		HTTPAddr:       httpAddr,
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DirectURL:      os.Getenv("DIRECT_URL"),
		DB: DBConfig{
			Host:     env("DB_HOST", "localhost"),
			Port:     env("DB_PORT", "5432"),
			Name:     env("DB_NAME", "shootops"),
			User:     env("DB_USER", "shootops"),
			Password: env("DB_PASSWORD", "shootops"),
			SSLMode:  env("DB_SSLMODE", "disable"),
		},
		SessionSecret: os.Getenv("SESSION_SECRET"),
		WebhookSecret: os.Getenv("WEBHOOK_SECRET"),
		Paylink: PaylinkConfig{
			BaseURL:  os.Getenv("PAYLINK_BASE_URL"),
			APIKey:   os.Getenv("PAYLINK_API_KEY"),
			Currency: env("PAYLINK_CURRENCY", "USD"),
		},
		Policy:         loadPolicy(),
		AllowedOrigins: envList("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:4173"),
	}
}

func loadPolicy() policy.Policy {
	p := policy.Default()
	if v := strings.TrimSpace(os.Getenv("CANCELLATION_FEE")); v != "" {
		if fee, err := decimal.NewFromString(v); err == nil && !fee.IsNegative() {
			p.CancellationFee = fee
		}
	}
	if v := strings.TrimSpace(os.Getenv("CANCELLATION_FEE_WINDOW_HOURS")); v != "" {
		if hours, err := strconv.Atoi(v); err == nil && hours > 0 {
			p.FeeWindow = time.Duration(hours) * time.Hour
		}
	}
	if v := strings.TrimSpace(os.Getenv("SCHEDULE_TIMEZONE")); v != "" {
		if loc, err := time.LoadLocation(v); err == nil {
			p.Location = loc
		}
	}
	return p
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envList(key, fallbackCSV string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallbackCSV
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

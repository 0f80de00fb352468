package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"
)

type Config struct {
	Port              int
	DatabaseURL       string
	AdminPassword     string
	CancelTokenSecret string
	LotteryMode       string // "draw" or "phased"
	BaseURL           string // public URL used in email links
	ResendAPIKey      string // empty disables outbound email
	EmailFrom         string
	StripeSecretKey   string // empty disables ticket sales
	StripeWebhookKey  string
}

// ParseFlags validates flags and sets port number
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("openmic", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.LotteryMode, "mode", "", "Lineup ordering mode: draw or phased")
	fs.StringVar(&cfg.BaseURL, "base-url", "", "Public base URL for email links")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminPassword, "admin-password", "", "Admin password (prefer env)")
	fs.StringVar(&cfg.CancelTokenSecret, "cancel-secret", "", "Cancellation token secret (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3440 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.LotteryMode == "" {
		cfg.LotteryMode = os.Getenv("LOTTERY_MODE")
		if cfg.LotteryMode == "" {
			cfg.LotteryMode = "draw"
		}
	}
	if cfg.LotteryMode != "draw" && cfg.LotteryMode != "phased" {
		return Config{}, errors.New("LOTTERY_MODE must be draw or phased")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("BASE_URL")
		if cfg.BaseURL == "" {
			cfg.BaseURL = "http://localhost:3440"
		}
	}

	// Secrets - MUST be provided
	if cfg.AdminPassword == "" {
		cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	}
	if cfg.AdminPassword == "" {
		return Config{}, errors.New("ADMIN_PASSWORD required")
	}

	if cfg.CancelTokenSecret == "" {
		cfg.CancelTokenSecret = os.Getenv("CANCEL_TOKEN_SECRET")
	}
	if cfg.CancelTokenSecret == "" {
		return Config{}, errors.New("CANCEL_TOKEN_SECRET required")
	}

	// Optional provider credentials; features degrade gracefully
	cfg.ResendAPIKey = os.Getenv("RESEND_API_KEY")
	cfg.EmailFrom = os.Getenv("EMAIL_FROM")
	if cfg.EmailFrom == "" {
		cfg.EmailFrom = "Open Mic <mic@example.com>"
	}
	cfg.StripeSecretKey = os.Getenv("STRIPE_SECRET_KEY")
	cfg.StripeWebhookKey = os.Getenv("STRIPE_WEBHOOK_SECRET")

	return cfg, nil
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3440)
  - DatabaseURL: PostgreSQL connection string (required)
  - AdminPassword: Password for host-only endpoints (required)
  - CancelTokenSecret: Secret for cancellation link HMAC (required)
  - LotteryMode: "draw" or "phased" (default: draw)
  - BaseURL: Public URL used in email links
  - ResendAPIKey, EmailFrom: Outgoing email settings
  - StripeSecretKey, StripeWebhookKey: Ticket sale settings

# CLI Flags

	-p              Server port
	-d              Database URL
	-mode           Lottery mode
	-base-url       Public base URL
	-admin-password Admin password
	-cancel-secret  Cancellation token secret

# Environment Variables

Flags fall back to environment variables:

	PORT                  → -p
	DATABASE_URL          → -d
	LOTTERY_MODE          → -mode
	BASE_URL              → -base-url
	ADMIN_PASSWORD        → -admin-password
	CANCEL_TOKEN_SECRET   → -cancel-secret
	RESEND_API_KEY
	EMAIL_FROM
	STRIPE_SECRET_KEY
	STRIPE_WEBHOOK_SECRET

CLI flags take precedence over environment variables. The email and
Stripe settings are env-only; leaving them unset disables the feature
rather than failing startup.

# Validation

ParseFlags returns an error if required values are missing or the
lottery mode is not "draw" or "phased".
*/
package cliparse

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the open mic API server.

The server runs signups, check-ins, and the performance-order lottery
for a recurring comedy open mic, plus ticket sales for special shows.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=postgres://... go run main.go

Or with flags:

	go run main.go -p 3440 -d "postgres://..."

# Configuration

Required settings:

  - DATABASE_URL (-d): PostgreSQL connection string
  - ADMIN_PASSWORD (-admin-password): Password for host-only endpoints
  - CANCEL_TOKEN_SECRET (-cancel-secret): Secret for cancellation link HMAC

Optional settings:

  - PORT (-p): Server port (default: 3440)
  - LOTTERY_MODE (-mode): "draw" for host-triggered batches of four,
    "phased" for the automatic phase machine (default: draw)
  - BASE_URL (-base-url): Public URL used in email links
  - RESEND_API_KEY: Enables outgoing email (logged locally otherwise)
  - STRIPE_SECRET_KEY / STRIPE_WEBHOOK_SECRET: Enables ticket sales

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (signup, lineup, admin, tickets)
  - lineup: The ordering engine (ticket weighting, draws, phases, reorder)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers, admin auth
  - models: Request/response types
  - auth: IDs, admin password check, cancellation tokens
  - db: Schema creation and lineup persistence
  - email: Outgoing mail via Resend
  - payments: Stripe checkout and webhooks
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main

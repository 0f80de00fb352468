// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the open mic API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - SignupHandler: Signups, email cancellation links, slot counts
  - LineupHandler: The public running-order view
  - AdminHandler: Check-ins, lottery draws, reorders, walk-ins, reminders
  - TicketsHandler: Paid ticket checkout and payment webhooks

Handlers are created via constructor functions that accept *sql.DB and
Config, plus the email sender, payment provider, or rng they depend on:

	signupHandler := handlers.NewSignupHandler(db, cfg, sender, rng)
	adminHandler := handlers.NewAdminHandler(db, cfg, sender, rng)

# Signup Flow

	POST /api/signup         → Signup (comedian or audience; waitlists when full)
	POST /api/validate-email → ValidateEmail (prefill for returning visitors)
	GET  /api/cancel         → Cancel (HMAC token from the confirmation email)
	GET  /api/slots          → Slots (remaining comedian slots)

# Lineup Flow

The host checks comedians in as they arrive, then the ordering engine
assigns positions. In draw mode the host triggers batches:

	POST /api/admin/checkin → CheckIn
	POST /api/admin/lottery → RunLottery (batch of four, weighted)

In phased mode the machine runs itself off check-in counts and the
event start time; RunLottery is refused.

Once assigned, positions only change through the reorder endpoint:

	POST /api/admin/reorder → Reorder (move, or remove with null order)

Admin operations require the X-Admin-Password header.

# Tickets

Special shows sell tickets through Stripe Checkout:

	POST /api/tickets/checkout-session → CheckoutSession
	POST /api/stripe-webhook           → StripeWebhook (marks tickets paid)
*/
package handlers

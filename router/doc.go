// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the open mic API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

# Endpoints

Health:

	GET /health

Public signup and lineup:

	POST /api/signup         - Sign up as comedian or audience
	POST /api/validate-email - Look up a returning visitor for prefill
	GET  /api/cancel         - Cancel via emailed link
	GET  /api/slots          - Remaining comedian slots
	GET  /api/lineup         - Current running order

Tickets (public, webhook verified by signature):

	POST /api/tickets/checkout-session - Start a purchase
	POST /api/stripe-webhook           - Payment confirmation

Host operations (require X-Admin-Password):

	GET  /api/admin/comedians      - Full signup list
	POST /api/admin/checkin        - Record arrival status
	POST /api/admin/lottery        - Draw the next batch (draw mode)
	POST /api/admin/reorder        - Move or remove a lineup member
	POST /api/admin/walkin         - Add a walk-in comedian
	POST /api/admin/plusone        - Adjust party size
	POST /api/admin/send-reminders - Day-of reminder emails
*/
package router

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - SignupRequest: email, type, full_name, number_of_people, first_mic_ever
  - ValidateEmailRequest: email, type
  - CheckInRequest: signup_id, status
  - ReorderRequest: signup_id, new_order (null removes from the lineup)
  - WalkInRequest: name, email (optional)
  - PlusOneRequest: signup_id, delta
  - CheckoutSessionRequest: show_id, email, full_name, quantity

# Response Types

Types for JSON responses:

  - SignupResponse: signup_id, waitlisted, message
  - ValidateEmailResponse: exists, full_name, number_of_people, already_signed_up, is_waitlist
  - LotteryResponse: selected_ids
  - SlotsResponse: total_slots, slots_remaining, signup_open
  - LineupResponse: event_date, lineup, waiting
  - CheckoutSessionResponse: session_id, checkout_url
  - RemindersResponse: sent
  - ErrorResponse: error, message

# Domain Types

Internal data structures:

  - Person: one row per email address
  - Event: an open mic date with comedian slot count
  - Signup: a comedian or audience signup
  - LineupEntry: the public view of one lineup slot
  - Show / Ticket: paid special shows

Email addresses are tagged json:"-" on domain types; only the admin
endpoints expose them, through their own view types.

# Constants

Signup types:

	TypeComedian = "comedian"
	TypeAudience = "audience"

Signup sources:

	SourceSignup = "signup"
	SourceWalkIn = "walkin"

Check-in statuses:

	CheckInEarly     = "early"
	CheckInOnTime    = "on_time"
	CheckInLate      = "late"
	CheckInNotComing = "not_coming"
	CheckInUncheck   = "uncheck"

Lottery modes:

	ModeDraw   = "draw"
	ModePhased = "phased"

Ticket statuses:

	TicketPending   = "pending"
	TicketPaid      = "paid"
	TicketCancelled = "cancelled"
	TicketRefunded  = "refunded"
*/
package models

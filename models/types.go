// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Signup type constants
const (
	TypeComedian = "comedian"
	TypeAudience = "audience"
)

// Signup source constants
const (
	SourceSignup = "signup"
	SourceWalkIn = "walkin"
)

// Check-in status constants
const (
	CheckInEarly     = "early"
	CheckInOnTime    = "on_time"
	CheckInLate      = "late"
	CheckInNotComing = "not_coming"
	CheckInUncheck   = "uncheck" // admin action only, clears the status
)

// Lottery mode constants
const (
	ModeDraw   = "draw"
	ModePhased = "phased"
)

// Ticket status constants
const (
	TicketPending   = "pending"
	TicketPaid      = "paid"
	TicketCancelled = "cancelled"
	TicketRefunded  = "refunded"
)

// Request types

type SignupRequest struct {
	Email          string `json:"email"`
	Type           string `json:"type"`
	FullName       string `json:"full_name"`
	NumberOfPeople int    `json:"number_of_people"`
	FirstMicEver   bool   `json:"first_mic_ever"`
}

type ValidateEmailRequest struct {
	Email string `json:"email"`
	Type  string `json:"type"`
}

type CheckInRequest struct {
	SignupID string `json:"signup_id"`
	Status   string `json:"status"`
}

type ReorderRequest struct {
	SignupID string `json:"signup_id"`
	NewOrder *int   `json:"new_order"` // null removes the member from the lineup
}

type WalkInRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type PlusOneRequest struct {
	SignupID string `json:"signup_id"`
	Delta    int    `json:"delta"`
}

type CheckoutSessionRequest struct {
	ShowID   string `json:"show_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Quantity int    `json:"quantity"`
}

// Response types

type SignupResponse struct {
	SignupID   string `json:"signup_id"`
	Waitlisted bool   `json:"waitlisted"`
	Message    string `json:"message"`
}

type LotteryResponse struct {
	SelectedIDs []string `json:"selected_ids"`
}

type SlotsResponse struct {
	TotalSlots     int  `json:"total_slots"`
	SlotsRemaining int  `json:"slots_remaining"`
	SignupOpen     bool `json:"signup_open"`
}

// ValidateEmailResponse prefills the signup form for a returning
// visitor. Pointer fields stay null when the email is unknown.
type ValidateEmailResponse struct {
	Exists          bool    `json:"exists"`
	FullName        *string `json:"full_name"`
	NumberOfPeople  *int    `json:"number_of_people"`
	AlreadySignedUp bool    `json:"already_signed_up"`
	IsWaitlist      bool    `json:"is_waitlist"`
}

type CheckoutSessionResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

type RemindersResponse struct {
	Sent int `json:"sent"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

// Domain types

type Person struct {
	ID        string    `json:"id"`
	Email     string    `json:"-"` // Never expose in JSON
	FullName  *string   `json:"full_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Event struct {
	ID            string    `json:"id"`
	Date          string    `json:"date"` // YYYY-MM-DD
	StartTime     time.Time `json:"start_time"`
	IsActive      bool      `json:"is_active"`
	ComedianSlots int       `json:"comedian_slots"`
	CreatedAt     time.Time `json:"created_at"`
}

type Signup struct {
	ID             string     `json:"id"`
	PersonID       string     `json:"person_id"`
	EventID        string     `json:"event_id"`
	Name           string     `json:"name"`
	Email          string     `json:"-"` // Never expose in JSON
	Type           string     `json:"type"`
	Source         string     `json:"source"`
	NumberOfPeople int        `json:"number_of_people"`
	FirstMicEver   bool       `json:"first_mic_ever"`
	CheckInStatus  *string    `json:"check_in_status,omitempty"`
	CheckedInAt    *time.Time `json:"checked_in_at,omitempty"`
	LotteryOrder   *int       `json:"lottery_order,omitempty"`
	Phase          *string    `json:"phase,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// LineupEntry is the public view of one lineup slot: order and name
// only. Members who are checked in but unordered show up as waiting,
// with no relative position.
type LineupEntry struct {
	Order   int    `json:"order,omitempty"`
	Name    string `json:"name"`
	Waiting bool   `json:"waiting,omitempty"`
}

type LineupResponse struct {
	EventDate string        `json:"event_date"`
	Lineup    []LineupEntry `json:"lineup"`
	Waiting   []LineupEntry `json:"waiting"`
}

type Show struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Date         string    `json:"date"`
	VenueName    *string   `json:"venue_name,omitempty"`
	PriceCents   int       `json:"price_cents"`
	TotalTickets int       `json:"total_tickets"`
	TicketsSold  int       `json:"tickets_sold"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

type Ticket struct {
	ID               string    `json:"id"`
	ShowID           string    `json:"show_id"`
	PersonID         string    `json:"person_id"`
	Quantity         int       `json:"quantity"`
	TotalAmountCents int       `json:"total_amount_cents"`
	StripeSessionID  *string   `json:"-"` // Never expose in JSON
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

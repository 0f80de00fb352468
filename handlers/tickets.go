// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/tavinathanson/openmic/auth"
	"github.com/tavinathanson/openmic/cliparse"
	"github.com/tavinathanson/openmic/middleware"
	"github.com/tavinathanson/openmic/models"
	"github.com/tavinathanson/openmic/payments"
)

// TicketsHandler sells tickets for ticketed shows through an external
// payment provider. Signups for the regular mic stay free; this path
// only exists for special shows with a price.
type TicketsHandler struct {
	db       *sql.DB
	cfg      cliparse.Config
	provider payments.Provider
}

func NewTicketsHandler(database *sql.DB, cfg cliparse.Config, provider payments.Provider) *TicketsHandler {
	return &TicketsHandler{db: database, cfg: cfg, provider: provider}
}

// CheckoutSession handles POST /api/tickets/checkout-session
func (h *TicketsHandler) CheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutSessionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.ShowID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "show_id is required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid email")
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}
	if req.Quantity > 10 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "quantity too large")
		return
	}

	var show models.Show
	err := h.db.QueryRow(`
		SELECT id, name, date, price_cents, total_tickets, tickets_sold
		FROM show WHERE id = $1 AND is_active = TRUE
	`, req.ShowID).Scan(&show.ID, &show.Name, &show.Date, &show.PriceCents,
		&show.TotalTickets, &show.TicketsSold)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Show not found")
		return
	}
	if err != nil {
		slog.Error("failed to load show", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if show.TicketsSold+req.Quantity > show.TotalTickets {
		middleware.ErrorResponse(w, http.StatusConflict, "Not enough tickets left")
		return
	}

	personID, err := ensurePerson(h.db, req.Email, req.FullName)
	if err != nil {
		slog.Error("failed to upsert buyer", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to start checkout")
		return
	}

	ticketID := auth.NewID()
	total := show.PriceCents * req.Quantity
	_, err = h.db.Exec(`
		INSERT INTO ticket (id, show_id, person_id, quantity, total_amount_cents, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, ticketID, show.ID, personID, req.Quantity, total, models.TicketPending, time.Now())
	if err != nil {
		slog.Error("failed to insert ticket", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to start checkout")
		return
	}

	base := strings.TrimRight(h.cfg.BaseURL, "/")
	session, err := h.provider.CreateCheckout(payments.CheckoutRequest{
		ShowName:   show.Name + " (" + show.Date + ")",
		PriceCents: show.PriceCents,
		Quantity:   req.Quantity,
		Email:      req.Email,
		TicketID:   ticketID,
		SuccessURL: base + "/tickets/success",
		CancelURL:  base + "/tickets/cancelled",
	})
	if errors.Is(err, payments.ErrDisabled) {
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Ticket sales are not available")
		return
	}
	if err != nil {
		slog.Error("failed to create checkout session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to start checkout")
		return
	}

	_, err = h.db.Exec(`
		UPDATE ticket SET stripe_session_id = $1 WHERE id = $2
	`, session.ID, ticketID)
	if err != nil {
		slog.Error("failed to store session id", "error", err, "ticket_id", ticketID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to start checkout")
		return
	}

	slog.Info("checkout session created", "ticket_id", ticketID, "show_id", show.ID)
	middleware.JSONResponse(w, http.StatusOK, models.CheckoutSessionResponse{
		SessionID:   session.ID,
		CheckoutURL: session.URL,
	})
}

// StripeWebhook handles POST /api/stripe-webhook
func (h *TicketsHandler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	event, err := h.provider.VerifyWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		slog.Warn("webhook verification failed", "error", err, "ip", middleware.GetClientIP(r))
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid webhook")
		return
	}

	if event.Type != payments.EventCheckoutCompleted {
		// Not a type we act on; acknowledge so Stripe stops retrying.
		middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{Success: true})
		return
	}

	if err := h.markPaid(event.TicketID, event.SessionID); err != nil {
		slog.Error("failed to record payment", "error", err, "ticket_id", event.TicketID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record payment")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// markPaid flips a pending ticket to paid and bumps the show's sold
// count in one transaction. Stripe retries webhooks, so a ticket that
// is already paid is left alone.
func (h *TicketsHandler) markPaid(ticketID, sessionID string) error {
	tx, err := h.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var showID string
	var quantity int
	err = tx.QueryRow(`
		SELECT show_id, quantity FROM ticket
		WHERE id = $1 AND stripe_session_id = $2 AND status = $3
		FOR UPDATE
	`, ticketID, sessionID, models.TicketPending).Scan(&showID, &quantity)
	if err == sql.ErrNoRows {
		return nil // already processed, or unknown ticket
	}
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`
		UPDATE ticket SET status = $1, updated_at = NOW() WHERE id = $2
	`, models.TicketPaid, ticketID); err != nil {
		return err
	}
	if _, err := tx.Exec(`
		UPDATE show SET tickets_sold = tickets_sold + $1 WHERE id = $2
	`, quantity, showID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("ticket paid", "ticket_id", ticketID, "quantity", quantity)
	return nil
}

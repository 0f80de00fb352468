// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/tavinathanson/openmic/auth"
	"github.com/tavinathanson/openmic/cliparse"
	"github.com/tavinathanson/openmic/db"
	"github.com/tavinathanson/openmic/email"
	"github.com/tavinathanson/openmic/lineup"
	"github.com/tavinathanson/openmic/middleware"
	"github.com/tavinathanson/openmic/models"
)

// SignupWindowDays is how far ahead of the event comedian signups
// open. Audience signups have no window.
const SignupWindowDays = 14

type SignupHandler struct {
	db     *sql.DB
	cfg    cliparse.Config
	sender email.Sender
	rng    *rand.Rand
}

func NewSignupHandler(database *sql.DB, cfg cliparse.Config, sender email.Sender, rng *rand.Rand) *SignupHandler {
	return &SignupHandler{db: database, cfg: cfg, sender: sender, rng: rng}
}

// Signup handles POST /api/signup
func (h *SignupHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate input
	if _, err := mail.ParseAddress(req.Email); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "valid email is required")
		return
	}
	if req.Type != models.TypeComedian && req.Type != models.TypeAudience {
		middleware.ErrorResponse(w, http.StatusBadRequest, "type must be comedian or audience")
		return
	}
	if req.NumberOfPeople < 1 {
		req.NumberOfPeople = 1
	}

	event, err := db.ActiveEvent(h.db)
	if err == db.ErrNoActiveEvent {
		middleware.ErrorResponse(w, http.StatusBadRequest, "No active open mic date")
		return
	}
	if err != nil {
		slog.Error("failed to load active event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	waitlisted := false
	if req.Type == models.TypeComedian {
		if !signupWindowOpen(event, time.Now()) {
			middleware.ErrorResponse(w, http.StatusBadRequest,
				fmt.Sprintf("Comedian signups open %d days before the show", SignupWindowDays))
			return
		}

		count, err := h.comedianCount(event.ID)
		if err != nil {
			slog.Error("failed to count comedians", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		waitlisted = count >= event.ComedianSlots
	}

	personID, err := ensurePerson(h.db, req.Email, req.FullName)
	if err != nil {
		slog.Error("failed to upsert person", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to sign up")
		return
	}

	signupID := auth.NewID()
	_, err = h.db.Exec(`
		INSERT INTO signup (id, person_id, event_id, signup_type, source, number_of_people, first_mic_ever, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, signupID, personID, event.ID, req.Type, models.SourceSignup, req.NumberOfPeople, req.FirstMicEver, time.Now())
	if err != nil {
		if db.IsUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusBadRequest, "You are already signed up for this date")
			return
		}
		slog.Error("failed to insert signup", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to sign up")
		return
	}

	// Confirmation email; delivery failure never fails the signup.
	var msg email.Message
	if waitlisted {
		msg = email.Waitlist(req.FullName, event.Date)
	} else {
		msg = email.Confirmation(req.FullName, event.Date, h.cancelURL(signupID), req.Type == models.TypeComedian)
	}
	if err := h.sender.Send(req.Email, msg.Subject, msg.HTML); err != nil {
		slog.Error("failed to send signup email", "error", err, "signup_id", signupID)
	}

	slog.Info("signup created", "signup_id", signupID, "type", req.Type, "waitlisted", waitlisted)

	message := "See you at the show!"
	if waitlisted {
		message = "Comedian slots are full; you're on the waitlist."
	}
	middleware.JSONResponse(w, http.StatusCreated, models.SignupResponse{
		SignupID:   signupID,
		Waitlisted: waitlisted,
		Message:    message,
	})
}

// Cancel handles GET /api/cancel?id=...&token=...
// The token comes from the confirmation email, so cancellation works
// without an account. Cancelling an already-ordered member renumbers
// the lineup to keep it dense.
func (h *SignupHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	signupID := r.URL.Query().Get("id")
	token := r.URL.Query().Get("token")
	if signupID == "" || token == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "id and token are required")
		return
	}

	if err := auth.ValidateCancelToken(signupID, token, h.cfg.CancelTokenSecret); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid cancellation link")
		return
	}

	var eventID string
	err := h.db.QueryRow(`
		SELECT event_id FROM signup WHERE id = $1
	`, signupID).Scan(&eventID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Signup not found")
		return
	}
	if err != nil {
		slog.Error("failed to load signup", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Delete and renumber in one transaction; CancelSignup locks the
	// event's rows so a concurrent draw can't slip a number in between.
	if err := db.CancelSignup(h.db, eventID, signupID); err != nil {
		if errors.Is(err, db.ErrConflict) {
			middleware.ErrorResponse(w, http.StatusConflict, "Lineup changed, please retry")
			return
		}
		slog.Error("failed to cancel signup", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to cancel")
		return
	}

	// A cancellation can free a slot mid-show; let the phased machine
	// react. The cancel itself already committed, so failure here only
	// delays the next batch until another trigger fires.
	if h.cfg.LotteryMode == models.ModePhased {
		if err := reconcilePhased(h.db, h.sender, h.rng, eventID, lineup.Change{Kind: lineup.ChangeCancel, MemberID: signupID}); err != nil {
			slog.Error("phased reconciliation failed after cancel", "error", err)
		}
	}

	slog.Info("signup cancelled", "signup_id", signupID)
	middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// ValidateEmail handles POST /api/validate-email
// The signup form calls this as the visitor types their email so it
// can prefill the name and party size from a previous visit.
func (h *SignupHandler) ValidateEmail(w http.ResponseWriter, r *http.Request) {
	var req models.ValidateEmailRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Email == "" || req.Type == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "email and type are required")
		return
	}
	if req.Type != models.TypeComedian && req.Type != models.TypeAudience {
		middleware.ErrorResponse(w, http.StatusBadRequest, "type must be comedian or audience")
		return
	}

	event, err := db.ActiveEvent(h.db)
	if err == db.ErrNoActiveEvent {
		middleware.ErrorResponse(w, http.StatusBadRequest, "No active open mic date")
		return
	}
	if err != nil {
		slog.Error("failed to load active event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	normalized := strings.ToLower(strings.TrimSpace(req.Email))
	var personID string
	var fullName sql.NullString
	err = h.db.QueryRow(`
		SELECT id, full_name FROM person WHERE LOWER(email) = $1
	`, normalized).Scan(&personID, &fullName)
	if err == sql.ErrNoRows {
		middleware.JSONResponse(w, http.StatusOK, models.ValidateEmailResponse{})
		return
	}
	if err != nil {
		slog.Error("failed to look up person", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	resp := models.ValidateEmailResponse{Exists: true}
	if fullName.Valid {
		resp.FullName = &fullName.String
	}

	var people int
	var createdAt time.Time
	err = h.db.QueryRow(`
		SELECT number_of_people, created_at FROM signup
		WHERE person_id = $1 AND event_id = $2 AND signup_type = $3
	`, personID, event.ID, req.Type).Scan(&people, &createdAt)
	switch {
	case err == sql.ErrNoRows:
		one := 1
		resp.NumberOfPeople = &one
	case err != nil:
		slog.Error("failed to look up signup", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	default:
		resp.AlreadySignedUp = true
		resp.NumberOfPeople = &people
		if req.Type == models.TypeComedian {
			// Waitlist status is positional: everyone past the slot
			// count in signup order is waiting.
			var earlier int
			if err := h.db.QueryRow(`
				SELECT COUNT(*) FROM signup
				WHERE event_id = $1 AND signup_type = 'comedian' AND created_at < $2
			`, event.ID, createdAt).Scan(&earlier); err != nil {
				slog.Error("failed to count earlier signups", "error", err)
				middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
				return
			}
			resp.IsWaitlist = earlier >= event.ComedianSlots
		}
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// Slots handles GET /api/slots
func (h *SignupHandler) Slots(w http.ResponseWriter, r *http.Request) {
	event, err := db.ActiveEvent(h.db)
	if err == db.ErrNoActiveEvent {
		middleware.ErrorResponse(w, http.StatusNotFound, "No active open mic date")
		return
	}
	if err != nil {
		slog.Error("failed to load active event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	count, err := h.comedianCount(event.ID)
	if err != nil {
		slog.Error("failed to count comedians", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	remaining := event.ComedianSlots - count
	if remaining < 0 {
		remaining = 0
	}
	middleware.JSONResponse(w, http.StatusOK, models.SlotsResponse{
		TotalSlots:     event.ComedianSlots,
		SlotsRemaining: remaining,
		SignupOpen:     signupWindowOpen(event, time.Now()),
	})
}

func (h *SignupHandler) comedianCount(eventID string) (int, error) {
	var count int
	err := h.db.QueryRow(`
		SELECT COUNT(*) FROM signup
		WHERE event_id = $1 AND signup_type = 'comedian'
	`, eventID).Scan(&count)
	return count, err
}

// ensurePerson finds or creates the person row for an email address.
// Shared with the walk-in and checkout paths.
func ensurePerson(database *sql.DB, emailAddr, fullName string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(emailAddr))

	var personID string
	err := database.QueryRow(`
		SELECT id FROM person WHERE LOWER(email) = $1
	`, normalized).Scan(&personID)
	if err == nil {
		if fullName != "" {
			// Keep the name fresh; people fix typos on re-signup.
			_, _ = database.Exec(`UPDATE person SET full_name = $1 WHERE id = $2`, fullName, personID)
		}
		return personID, nil
	}
	if err != sql.ErrNoRows {
		return "", err
	}

	personID = auth.NewID()
	var name *string
	if fullName != "" {
		name = &fullName
	}
	_, err = database.Exec(`
		INSERT INTO person (id, email, full_name, created_at)
		VALUES ($1, $2, $3, $4)
	`, personID, normalized, name, time.Now())
	return personID, err
}

func (h *SignupHandler) cancelURL(signupID string) string {
	token := auth.GenerateCancelToken(signupID, h.cfg.CancelTokenSecret)
	return fmt.Sprintf("%s/api/cancel?id=%s&token=%s", h.cfg.BaseURL, signupID, token)
}

// signupWindowOpen reports whether comedian signups are open: within
// SignupWindowDays of the event date.
func signupWindowOpen(event models.Event, now time.Time) bool {
	eventDay, err := time.Parse("2006-01-02", event.Date)
	if err != nil {
		return true // malformed date should not block signups
	}
	return eventDay.Sub(now).Hours()/24 <= SignupWindowDays
}

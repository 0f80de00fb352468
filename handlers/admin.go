// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"net/mail"
	"time"

	"github.com/tavinathanson/openmic/auth"
	"github.com/tavinathanson/openmic/cliparse"
	"github.com/tavinathanson/openmic/db"
	"github.com/tavinathanson/openmic/email"
	"github.com/tavinathanson/openmic/lineup"
	"github.com/tavinathanson/openmic/middleware"
	"github.com/tavinathanson/openmic/models"
)

// AdminHandler implements the operator actions: check-in, lottery,
// reorder, walk-ins, party-size edits, and reminders. Every route is
// gated by middleware.RequireAdmin; operator actions are serialized by
// the admin UI, so a single rng needs no locking here.
type AdminHandler struct {
	db     *sql.DB
	cfg    cliparse.Config
	sender email.Sender
	rng    *rand.Rand
}

func NewAdminHandler(database *sql.DB, cfg cliparse.Config, sender email.Sender, rng *rand.Rand) *AdminHandler {
	return &AdminHandler{db: database, cfg: cfg, sender: sender, rng: rng}
}

// ListComedians handles GET /api/admin/comedians
func (h *AdminHandler) ListComedians(w http.ResponseWriter, r *http.Request) {
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

	// Admin polling is what advances the phased clock: the follow-up
	// transition at start time (or +5 minutes after the initial batch)
	// fires here even when nobody checks in.
	if h.cfg.LotteryMode == models.ModePhased {
		if err := reconcilePhased(h.db, h.sender, h.rng, event.ID, lineup.Change{Kind: lineup.ChangeTick}); err != nil {
			slog.Error("phased tick reconciliation failed", "error", err)
		}
	}

	rows, err := h.db.Query(`
		SELECT s.id, s.person_id, s.event_id, COALESCE(p.full_name, ''), p.email,
		       s.signup_type, s.source, s.number_of_people, s.first_mic_ever,
		       s.check_in_status, s.checked_in_at, s.lottery_order, s.phase, s.created_at
		FROM signup s
		JOIN person p ON s.person_id = p.id
		WHERE s.event_id = $1 AND s.signup_type = 'comedian'
		ORDER BY s.created_at ASC
	`, event.ID)
	if err != nil {
		slog.Error("failed to list comedians", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	var signups []adminSignup
	for rows.Next() {
		var s adminSignup
		if err := rows.Scan(&s.ID, &s.PersonID, &s.EventID, &s.Name, &s.Email,
			&s.Type, &s.Source, &s.NumberOfPeople, &s.FirstMicEver,
			&s.CheckInStatus, &s.CheckedInAt, &s.LotteryOrder, &s.Phase, &s.CreatedAt); err != nil {
			slog.Error("failed to scan signup row", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		signups = append(signups, s)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read signup rows", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, signups)
}

// adminSignup is the operator view of a signup; unlike the public
// models it includes the email address.
type adminSignup struct {
	ID             string     `json:"id"`
	PersonID       string     `json:"person_id"`
	EventID        string     `json:"event_id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Type           string     `json:"type"`
	Source         string     `json:"source"`
	NumberOfPeople int        `json:"number_of_people"`
	FirstMicEver   bool       `json:"first_mic_ever"`
	CheckInStatus  *string    `json:"check_in_status"`
	CheckedInAt    *time.Time `json:"checked_in_at"`
	LotteryOrder   *int       `json:"lottery_order"`
	Phase          *string    `json:"phase"`
	CreatedAt      time.Time  `json:"created_at"`
}

// CheckIn handles POST /api/admin/checkin
func (h *AdminHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req models.CheckInRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.SignupID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "signup_id is required")
		return
	}

	valid := map[string]bool{
		models.CheckInEarly:     true,
		models.CheckInOnTime:    true,
		models.CheckInLate:      true,
		models.CheckInNotComing: true,
		models.CheckInUncheck:   true,
	}
	if !valid[req.Status] {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid check-in status")
		return
	}

	var eventID string
	var order sql.NullInt64
	err := h.db.QueryRow(`
		SELECT event_id, lottery_order FROM signup WHERE id = $1
	`, req.SignupID).Scan(&eventID, &order)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Signup not found")
		return
	}
	if err != nil {
		slog.Error("failed to load signup", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Once a member holds a position, only "not coming" is allowed:
	// it keeps the already-assigned number (history stays intact) but
	// excludes them from every future pool. Anything else would let a
	// status edit rewrite lottery history.
	if order.Valid && req.Status != models.CheckInNotComing {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Cannot modify a member who is already in the lineup")
		return
	}

	if req.Status == models.CheckInUncheck {
		_, err = h.db.Exec(`
			UPDATE signup SET check_in_status = NULL, checked_in_at = NULL WHERE id = $1
		`, req.SignupID)
	} else {
		_, err = h.db.Exec(`
			UPDATE signup SET check_in_status = $1, checked_in_at = $2 WHERE id = $3
		`, req.Status, time.Now(), req.SignupID)
	}
	if err != nil {
		slog.Error("failed to update check-in", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to check in")
		return
	}

	slog.Info("check-in updated", "signup_id", req.SignupID, "status", req.Status)

	// In phased mode every check-in change re-evaluates the machine.
	if h.cfg.LotteryMode == models.ModePhased {
		if err := reconcilePhased(h.db, h.sender, h.rng, eventID, lineup.Change{Kind: lineup.ChangeCheckIn, MemberID: req.SignupID}); err != nil {
			slog.Error("phased reconciliation failed", "error", err)
			middleware.ErrorResponse(w, http.StatusConflict, "Lineup changed, please retry")
			return
		}
	}

	middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// RunLottery handles POST /api/admin/lottery
func (h *AdminHandler) RunLottery(w http.ResponseWriter, r *http.Request) {
	if h.cfg.LotteryMode != models.ModeDraw {
		middleware.ErrorResponse(w, http.StatusConflict, "Manual draws are disabled in phased mode")
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

	members, err := db.LoadComedians(h.db, event.ID)
	if err != nil {
		slog.Error("failed to load comedians", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	assignments := lineup.RunDraw(members, lineup.DefaultTicketPolicy, lineup.DefaultBatchSize, h.rng)

	if err := db.ApplyAssignments(h.db, event.ID, assignments); err != nil {
		if errors.Is(err, db.ErrConflict) {
			middleware.ErrorResponse(w, http.StatusConflict, "Lineup changed, please retry")
			return
		}
		slog.Error("failed to persist draw", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to run lottery")
		return
	}

	selectedIDs := make([]string, 0, len(assignments))
	for _, a := range assignments {
		selectedIDs = append(selectedIDs, a.MemberID)
		notifyLineupSpot(h.db, h.sender, a.MemberID, a.Order)
	}

	slog.Info("lottery drawn", "event_id", event.ID, "selected", len(selectedIDs))
	middleware.JSONResponse(w, http.StatusOK, models.LotteryResponse{SelectedIDs: selectedIDs})
}

// Reorder handles POST /api/admin/reorder
func (h *AdminHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req models.ReorderRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.SignupID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "signup_id is required")
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

	// The renumber computation runs inside RenumberLineup's transaction
	// so it always sees the rows it is about to rewrite, even against a
	// concurrent draw.
	err = db.RenumberLineup(h.db, event.ID, func(ordered []lineup.Member) ([]lineup.Member, error) {
		if req.NewOrder == nil {
			return lineup.Remove(ordered, req.SignupID), nil
		}
		return lineup.Reorder(ordered, req.SignupID, *req.NewOrder)
	})
	if err != nil {
		if errors.Is(err, lineup.ErrNotInLineup) {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Member is not in the lineup")
			return
		}
		if errors.Is(err, lineup.ErrLockedPosition) {
			middleware.ErrorResponse(w, http.StatusBadRequest, "That position is locked")
			return
		}
		if errors.Is(err, db.ErrConflict) {
			middleware.ErrorResponse(w, http.StatusConflict, "Lineup changed, please retry")
			return
		}
		slog.Error("failed to persist reorder", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to reorder")
		return
	}

	slog.Info("lineup reordered", "signup_id", req.SignupID)
	middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// WalkIn handles POST /api/admin/walkin
func (h *AdminHandler) WalkIn(w http.ResponseWriter, r *http.Request) {
	var req models.WalkInRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	// Email is optional for walk-ins; synthesize a placeholder so the
	// person row still has a unique key.
	if req.Email == "" {
		req.Email = "walkin-" + auth.NewID() + "@walkin.invalid"
	} else if _, err := mail.ParseAddress(req.Email); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid email")
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

	personID, err := ensurePerson(h.db, req.Email, req.Name)
	if err != nil {
		slog.Error("failed to upsert walk-in person", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add walk-in")
		return
	}

	signupID := auth.NewID()
	_, err = h.db.Exec(`
		INSERT INTO signup (id, person_id, event_id, signup_type, source, number_of_people, created_at)
		VALUES ($1, $2, $3, $4, $5, 1, $6)
	`, signupID, personID, event.ID, models.TypeComedian, models.SourceWalkIn, time.Now())
	if err != nil {
		if db.IsUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Already signed up for this date")
			return
		}
		slog.Error("failed to insert walk-in", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add walk-in")
		return
	}

	slog.Info("walk-in added", "signup_id", signupID, "name", req.Name)
	middleware.JSONResponse(w, http.StatusCreated, models.SignupResponse{SignupID: signupID, Message: "Walk-in added"})
}

// PlusOne handles POST /api/admin/plusone
func (h *AdminHandler) PlusOne(w http.ResponseWriter, r *http.Request) {
	var req models.PlusOneRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.SignupID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "signup_id is required")
		return
	}
	if req.Delta == 0 {
		req.Delta = 1
	}

	res, err := h.db.Exec(`
		UPDATE signup
		SET number_of_people = GREATEST(1, number_of_people + $1)
		WHERE id = $2
	`, req.Delta, req.SignupID)
	if err != nil {
		slog.Error("failed to update party size", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Signup not found")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// SendReminders handles POST /api/admin/send-reminders
func (h *AdminHandler) SendReminders(w http.ResponseWriter, r *http.Request) {
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

	rows, err := h.db.Query(`
		SELECT p.email, COALESCE(p.full_name, '')
		FROM signup s
		JOIN person p ON s.person_id = p.id
		WHERE s.event_id = $1 AND s.source = 'signup'
		  AND (s.check_in_status IS NULL OR s.check_in_status != 'not_coming')
	`, event.ID)
	if err != nil {
		slog.Error("failed to load reminder recipients", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	now := time.Now()
	sent := 0
	for rows.Next() {
		var addr, name string
		if err := rows.Scan(&addr, &name); err != nil {
			slog.Error("failed to scan recipient", "error", err)
			continue
		}
		msg := email.Reminder(name, event.Date, event.StartTime, now)
		if err := h.sender.Send(addr, msg.Subject, msg.HTML); err != nil {
			slog.Error("failed to send reminder", "error", err, "to", addr)
			continue
		}
		sent++
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read recipients", "error", err)
	}

	slog.Info("reminders sent", "event_id", event.ID, "count", sent)
	middleware.JSONResponse(w, http.StatusOK, models.RemindersResponse{Sent: sent})
}

// reconcilePhased re-runs the phased ordering machine for an event and
// persists whatever it produced, all-or-nothing. Shared by every route
// that can move the machine: check-ins, cancellations, and the clock
// tick from admin polling.
func reconcilePhased(database *sql.DB, sender email.Sender, rng *rand.Rand, eventID string, change lineup.Change) error {
	var event models.Event
	err := database.QueryRow(`
		SELECT id, date, start_time, is_active, comedian_slots, created_at
		FROM event WHERE id = $1
	`, eventID).Scan(&event.ID, &event.Date, &event.StartTime, &event.IsActive,
		&event.ComedianSlots, &event.CreatedAt)
	if err != nil {
		return err
	}

	members, err := db.LoadComedians(database, eventID)
	if err != nil {
		return err
	}
	state, err := db.LoadPhaseState(database, eventID, event.StartTime)
	if err != nil {
		return err
	}

	plan := lineup.Reconcile(members, state, change, time.Now(), rng)

	if err := db.ApplyAssignments(database, eventID, plan.Assignments); err != nil {
		return err
	}
	if plan.State != state {
		if err := db.SavePhaseState(database, eventID, plan.State); err != nil {
			return err
		}
	}

	for _, a := range plan.Assignments {
		notifyLineupSpot(database, sender, a.MemberID, a.Order)
	}
	return nil
}

// notifyLineupSpot emails a member their drawn position. Best effort.
func notifyLineupSpot(database *sql.DB, sender email.Sender, signupID string, position int) {
	var addr, name string
	err := database.QueryRow(`
		SELECT p.email, COALESCE(p.full_name, '')
		FROM signup s JOIN person p ON s.person_id = p.id
		WHERE s.id = $1 AND s.source = 'signup'
	`, signupID).Scan(&addr, &name)
	if err != nil {
		return // walk-ins have no real address
	}

	msg := email.LineupSpot(name, position)
	if err := sender.Send(addr, msg.Subject, msg.HTML); err != nil {
		slog.Error("failed to send lineup email", "error", err, "signup_id", signupID)
	}
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"sort"

	"github.com/tavinathanson/openmic/cliparse"
	"github.com/tavinathanson/openmic/db"
	"github.com/tavinathanson/openmic/middleware"
	"github.com/tavinathanson/openmic/models"
)

// LineupHandler serves the public lineup view. No auth: the whole
// point is the green-room TV showing who's up. Names only, never
// emails, and members without a position appear as an alphabetical
// waiting list with no hint of their queue standing.
type LineupHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewLineupHandler(database *sql.DB, cfg cliparse.Config) *LineupHandler {
	return &LineupHandler{db: database, cfg: cfg}
}

// Lineup handles GET /api/lineup
func (h *LineupHandler) Lineup(w http.ResponseWriter, r *http.Request) {
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

	rows, err := h.db.Query(`
		SELECT COALESCE(p.full_name, ''), s.lottery_order, s.check_in_status
		FROM signup s
		JOIN person p ON s.person_id = p.id
		WHERE s.event_id = $1 AND s.signup_type = 'comedian'
	`, event.ID)
	if err != nil {
		slog.Error("failed to load lineup", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	resp := models.LineupResponse{
		EventDate: event.Date,
		Lineup:    []models.LineupEntry{},
		Waiting:   []models.LineupEntry{},
	}
	for rows.Next() {
		var name string
		var order sql.NullInt64
		var status sql.NullString
		if err := rows.Scan(&name, &order, &status); err != nil {
			slog.Error("failed to scan lineup row", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if status.Valid && status.String == models.CheckInNotComing && !order.Valid {
			continue
		}
		if order.Valid {
			resp.Lineup = append(resp.Lineup, models.LineupEntry{
				Order: int(order.Int64),
				Name:  name,
			})
		} else if status.Valid {
			// Checked in but not drawn yet. Alphabetical on purpose:
			// arrival order would leak queue position.
			resp.Waiting = append(resp.Waiting, models.LineupEntry{Name: name, Waiting: true})
		}
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read lineup rows", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	sort.Slice(resp.Lineup, func(i, j int) bool { return resp.Lineup[i].Order < resp.Lineup[j].Order })
	sort.Slice(resp.Waiting, func(i, j int) bool { return resp.Waiting[i].Name < resp.Waiting[j].Name })

	middleware.JSONResponse(w, http.StatusOK, resp)
}

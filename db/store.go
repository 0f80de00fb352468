// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/tavinathanson/openmic/lineup"
	"github.com/tavinathanson/openmic/models"
)

var (
	// ErrNoActiveEvent means no event row is marked active.
	ErrNoActiveEvent = errors.New("no active event")

	// ErrConflict means a concurrent writer took an order number we
	// tried to write. The caller should re-fetch and retry the whole
	// operation.
	ErrConflict = errors.New("conflicting lineup write")
)

// ActiveEvent returns the single currently-active event.
func ActiveEvent(db *sql.DB) (models.Event, error) {
	var ev models.Event
	err := db.QueryRow(`
		SELECT id, date, start_time, is_active, comedian_slots, created_at
		FROM event WHERE is_active = TRUE
		ORDER BY date ASC LIMIT 1
	`).Scan(&ev.ID, &ev.Date, &ev.StartTime, &ev.IsActive, &ev.ComedianSlots, &ev.CreatedAt)
	if err == sql.ErrNoRows {
		return models.Event{}, ErrNoActiveEvent
	}
	if err != nil {
		return models.Event{}, fmt.Errorf("failed to load active event: %w", err)
	}
	return ev, nil
}

// querier lets the member loader run on a bare connection or inside a
// transaction.
type querier interface {
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

// LoadComedians returns the comedian members for one event as engine
// values, ordered by signup time.
func LoadComedians(db *sql.DB, eventID string) ([]lineup.Member, error) {
	return loadComedians(db, eventID, false)
}

func loadComedians(q querier, eventID string, lock bool) ([]lineup.Member, error) {
	query := `
		SELECT s.id, COALESCE(p.full_name, ''), s.source, s.created_at,
		       s.check_in_status, s.checked_in_at, s.lottery_order,
		       s.random_seed, s.phase, s.needs_rescore
		FROM signup s
		JOIN person p ON s.person_id = p.id
		WHERE s.event_id = $1 AND s.signup_type = 'comedian'
		ORDER BY s.created_at ASC
	`
	if lock {
		query += ` FOR UPDATE OF s`
	}
	rows, err := q.Query(query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load comedians: %w", err)
	}
	defer rows.Close()

	var members []lineup.Member
	for rows.Next() {
		var (
			m           lineup.Member
			source      string
			createdAt   time.Time
			status      sql.NullString
			checkedInAt sql.NullTime
			order       sql.NullInt64
			seed        sql.NullFloat64
			phase       sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.Name, &source, &createdAt, &status,
			&checkedInAt, &order, &seed, &phase, &m.NeedsRescore); err != nil {
			return nil, fmt.Errorf("failed to scan comedian row: %w", err)
		}

		// Walk-ins have no registration timestamp as far as the
		// engine is concerned; their created_at is just row creation.
		if source == models.SourceSignup {
			m.SignedUpAt = createdAt
		}
		if status.Valid {
			m.CheckInStatus = lineup.CheckInStatus(status.String)
		}
		if checkedInAt.Valid {
			m.CheckedInAt = checkedInAt.Time
		}
		if order.Valid {
			m.Order = int(order.Int64)
		}
		if seed.Valid {
			s := seed.Float64
			m.Seed = &s
		}
		if phase.Valid {
			m.Phase = lineup.Phase(phase.String)
		}

		members = append(members, m)
	}

	return members, rows.Err()
}

// ApplyAssignments persists new order numbers from a draw or phased
// generation in a single transaction. Assignments are append-only:
// they never touch members already holding an order number, so a
// partial failure rolls back to exactly the pre-draw state.
func ApplyAssignments(db *sql.DB, eventID string, assignments []lineup.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, a := range assignments {
		var phase sql.NullString
		if a.Phase != lineup.PhaseNone {
			phase = sql.NullString{String: string(a.Phase), Valid: true}
		}
		var seed sql.NullFloat64
		if a.Seed != nil {
			seed = sql.NullFloat64{Float64: *a.Seed, Valid: true}
		}

		res, err := tx.Exec(`
			UPDATE signup
			SET lottery_order = $1,
			    phase = COALESCE($2, phase),
			    random_seed = COALESCE($3, random_seed)
			WHERE id = $4 AND event_id = $5 AND lottery_order IS NULL
		`, a.Order, phase, seed, a.MemberID, eventID)
		if err != nil {
			if IsUniqueViolation(err) || isLockConflict(err) {
				return ErrConflict
			}
			return fmt.Errorf("failed to assign order %d: %w", a.Order, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// A concurrent writer already gave this member a number;
			// writing the rest of the batch would leave a gap.
			return ErrConflict
		}
	}

	if err := tx.Commit(); err != nil {
		if IsUniqueViolation(err) || isLockConflict(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to commit assignments: %w", err)
	}
	return nil
}

// RenumberLineup rewrites the full ordered sequence for an event in a
// single transaction. The current members are read under FOR UPDATE
// inside that same transaction, so a draw or another renumber that
// committed after the caller's earlier reads is seen here rather than
// overwritten. mutate receives the ordered lineup (ascending by order
// number) and returns the replacement sequence; any error from it
// rolls the transaction back untouched.
//
// Every order number is cleared before the rewrite so the new
// positions never collide with the old ones under the uniqueness
// constraint.
func RenumberLineup(db *sql.DB, eventID string, mutate func(ordered []lineup.Member) ([]lineup.Member, error)) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	members, err := loadComedians(tx, eventID, true)
	if err != nil {
		if isLockConflict(err) {
			return ErrConflict
		}
		return err
	}

	renumbered, err := mutate(lineup.Ordered(members))
	if err != nil {
		return err
	}

	if err := rewriteOrders(tx, eventID, renumbered); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit renumbering: %w", err)
	}
	return nil
}

// rewriteOrders clears every order number for the event and writes the
// renumbered sequence. Clearing first keeps the new positions from
// colliding with the old ones under the uniqueness constraint.
func rewriteOrders(tx *sql.Tx, eventID string, renumbered []lineup.Member) error {
	_, err := tx.Exec(`
		UPDATE signup SET lottery_order = NULL
		WHERE event_id = $1 AND lottery_order IS NOT NULL
	`, eventID)
	if err != nil {
		return fmt.Errorf("failed to clear order numbers: %w", err)
	}

	for _, m := range renumbered {
		res, err := tx.Exec(`
			UPDATE signup SET lottery_order = $1, needs_rescore = $2
			WHERE id = $3 AND event_id = $4
		`, m.Order, m.NeedsRescore, m.ID, eventID)
		if err != nil {
			if IsUniqueViolation(err) || isLockConflict(err) {
				return ErrConflict
			}
			return fmt.Errorf("failed to renumber member %s: %w", m.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// A concurrent cancellation removed a row mid-rewrite;
			// roll everything back rather than leave a gap.
			return ErrConflict
		}
	}
	return nil
}

// CancelSignup deletes one signup and, if it held a lineup position,
// closes the gap. Delete and renumber share one transaction with the
// lineup read locked FOR UPDATE, so a concurrent draw cannot slip an
// assignment in between them.
func CancelSignup(db *sql.DB, eventID, signupID string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	members, err := loadComedians(tx, eventID, true)
	if err != nil {
		if isLockConflict(err) {
			return ErrConflict
		}
		return err
	}
	renumbered := lineup.Remove(lineup.Ordered(members), signupID)

	if _, err := tx.Exec(`DELETE FROM signup WHERE id = $1`, signupID); err != nil {
		return fmt.Errorf("failed to delete signup: %w", err)
	}

	if err := rewriteOrders(tx, eventID, renumbered); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cancellation: %w", err)
	}
	return nil
}

// LoadPhaseState reads the phased-mode machine state for an event,
// defaulting to the waiting state when no row exists yet.
func LoadPhaseState(db *sql.DB, eventID string, eventStart time.Time) (lineup.PhaseState, error) {
	state := lineup.PhaseState{EventStart: eventStart}
	err := db.QueryRow(`
		SELECT initial_generated, follow_up_generated
		FROM lineup_state WHERE event_id = $1
	`, eventID).Scan(&state.InitialGenerated, &state.FollowUpGenerated)
	if err == sql.ErrNoRows {
		return state, nil
	}
	if err != nil {
		return state, fmt.Errorf("failed to load phase state: %w", err)
	}
	return state, nil
}

// SavePhaseState upserts the phased-mode machine state for an event.
func SavePhaseState(db *sql.DB, eventID string, state lineup.PhaseState) error {
	_, err := db.Exec(`
		INSERT INTO lineup_state (event_id, initial_generated, follow_up_generated, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (event_id) DO UPDATE
		SET initial_generated = $2, follow_up_generated = $3, updated_at = NOW()
	`, eventID, state.InitialGenerated, state.FollowUpGenerated)
	if err != nil {
		return fmt.Errorf("failed to save phase state: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// rejection, the conflict signal for concurrent lineup writers.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// isLockConflict reports a deadlock or lock-not-available rejection.
// Like a unique violation it means a concurrent writer won; the caller
// should retry the whole operation.
func isLockConflict(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40P01" || pqErr.Code == "55P03"
	}
	return false
}

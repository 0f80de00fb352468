// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/tavinathanson/openmic/db"
	"github.com/tavinathanson/openmic/email"
	"github.com/tavinathanson/openmic/lineup"
	"github.com/tavinathanson/openmic/models"
	"github.com/tavinathanson/openmic/testutil"
)

// assertDenseLineup checks the core ordering invariant: the assigned
// numbers for an event are exactly 1..N with no gaps or duplicates.
func assertDenseLineup(t *testing.T, conn *sql.DB, eventID string) {
	t.Helper()

	var count, distinct int
	var minOrder, maxOrder int
	err := conn.QueryRow(`
		SELECT COUNT(*), COUNT(DISTINCT lottery_order),
		       COALESCE(MIN(lottery_order), 0), COALESCE(MAX(lottery_order), 0)
		FROM signup
		WHERE event_id = $1 AND lottery_order IS NOT NULL
	`, eventID).Scan(&count, &distinct, &minOrder, &maxOrder)
	if err != nil {
		t.Fatalf("Failed to inspect lineup orders: %v", err)
	}

	if count == 0 {
		return
	}
	if distinct != count || minOrder != 1 || maxOrder != count {
		t.Errorf("Lineup not dense: %d members, %d distinct orders, range [%d, %d]",
			count, distinct, minOrder, maxOrder)
	}
}

// TestConcurrentDrawAndReorder runs a lottery draw and a reorder at the
// same time. Whichever transaction loses must surface a conflict, and
// a draw that reported success must still hold its assignment
// afterwards; it must never be silently erased by the reorder's
// rewrite.
func TestConcurrentDrawAndReorder(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()

	cfg := testutil.GetTestConfig()
	handler := NewAdminHandler(conn, cfg, email.NewSender("", ""), rand.New(rand.NewSource(3)))
	eventID := testutil.CreateTestEvent(t, conn, 20)

	names := []string{"Alice", "Bob", "Carol"}
	ids := make([]string, len(names))
	for i, name := range names {
		ids[i] = testutil.CreateTestSignup(t, conn, eventID, name, time.Hour)
		testutil.CheckInSignup(t, conn, ids[i], "on_time")
		if _, err := conn.Exec(`UPDATE signup SET lottery_order = $1 WHERE id = $2`, i+1, ids[i]); err != nil {
			t.Fatalf("Failed to seed lineup: %v", err)
		}
	}
	// One checked-in member without a number: the draw's whole pool.
	pending := testutil.CreateTestSignup(t, conn, eventID, "Dave", time.Hour)
	testutil.CheckInSignup(t, conn, pending, "on_time")

	var wg sync.WaitGroup
	var reorderCode int
	drawW := httptest.NewRecorder()

	wg.Add(2)
	go func() {
		defer wg.Done()
		req := testutil.MakeRequest("POST", "/api/admin/lottery", nil, nil)
		handler.RunLottery(drawW, req)
	}()
	go func() {
		defer wg.Done()
		newOrder := 1
		req := testutil.MakeRequest("POST", "/api/admin/reorder",
			models.ReorderRequest{SignupID: ids[2], NewOrder: &newOrder}, nil)
		w := httptest.NewRecorder()
		handler.Reorder(w, req)
		reorderCode = w.Code
	}()
	wg.Wait()

	okOrConflict := func(name string, code int) {
		if code != http.StatusOK && code != http.StatusConflict {
			t.Errorf("%s returned %d, want 200 or 409", name, code)
		}
	}
	okOrConflict("RunLottery", drawW.Code)
	okOrConflict("Reorder", reorderCode)

	// A draw that reported success keeps its assignment no matter how
	// the reorder interleaved.
	if drawW.Code == http.StatusOK {
		var drawResp models.LotteryResponse
		testutil.AssertJSON(t, drawW, &drawResp)
		for _, id := range drawResp.SelectedIDs {
			var order *int
			if err := conn.QueryRow(`SELECT lottery_order FROM signup WHERE id = $1`, id).Scan(&order); err != nil {
				t.Fatalf("Failed to load drawn member: %v", err)
			}
			if order == nil {
				t.Errorf("Drawn member %s lost its order number", id)
			}
		}
	}

	assertDenseLineup(t, conn, eventID)
}

// TestConcurrentReorders issues two overlapping reorders, a move and a
// removal. Both may succeed serialized or one may conflict, but the
// final sequence stays dense either way.
func TestConcurrentReorders(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()

	cfg := testutil.GetTestConfig()
	handler := NewAdminHandler(conn, cfg, email.NewSender("", ""), rand.New(rand.NewSource(3)))
	eventID := testutil.CreateTestEvent(t, conn, 20)

	names := []string{"Alice", "Bob", "Carol", "Dave"}
	ids := make([]string, len(names))
	for i, name := range names {
		ids[i] = testutil.CreateTestSignup(t, conn, eventID, name, time.Hour)
		testutil.CheckInSignup(t, conn, ids[i], "on_time")
		if _, err := conn.Exec(`UPDATE signup SET lottery_order = $1 WHERE id = $2`, i+1, ids[i]); err != nil {
			t.Fatalf("Failed to seed lineup: %v", err)
		}
	}

	requests := []models.ReorderRequest{
		{SignupID: ids[3], NewOrder: intPtr(1)}, // move Dave to the top
		{SignupID: ids[1]},                      // drop Bob from the lineup
	}

	var wg sync.WaitGroup
	codes := make([]int, len(requests))
	for i, req := range requests {
		wg.Add(1)
		go func(i int, body models.ReorderRequest) {
			defer wg.Done()
			r := testutil.MakeRequest("POST", "/api/admin/reorder", body, nil)
			w := httptest.NewRecorder()
			handler.Reorder(w, r)
			codes[i] = w.Code
		}(i, req)
	}
	wg.Wait()

	for i, code := range codes {
		if code != http.StatusOK && code != http.StatusConflict {
			t.Errorf("Reorder %d returned %d, want 200 or 409", i, code)
		}
	}

	assertDenseLineup(t, conn, eventID)
}

// TestAssignmentConflictSurfaces pins down the conflict signal without
// goroutines: writing an order number that another member already
// holds must come back as db.ErrConflict, never as a silent success.
func TestAssignmentConflictSurfaces(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()

	eventID := testutil.CreateTestEvent(t, conn, 20)

	holder := testutil.CreateTestSignup(t, conn, eventID, "Alice", time.Hour)
	testutil.CheckInSignup(t, conn, holder, "on_time")
	if _, err := conn.Exec(`UPDATE signup SET lottery_order = 1 WHERE id = $1`, holder); err != nil {
		t.Fatalf("Failed to seed lineup: %v", err)
	}

	challenger := testutil.CreateTestSignup(t, conn, eventID, "Bob", time.Hour)
	testutil.CheckInSignup(t, conn, challenger, "on_time")

	err := db.ApplyAssignments(conn, eventID, []lineup.Assignment{
		{MemberID: challenger, Order: 1},
	})
	if !errors.Is(err, db.ErrConflict) {
		t.Errorf("Expected ErrConflict for a taken order number, got %v", err)
	}

	// The challenger stays unordered after the rejected write.
	var order *int
	if err := conn.QueryRow(`SELECT lottery_order FROM signup WHERE id = $1`, challenger).Scan(&order); err != nil {
		t.Fatalf("Failed to load challenger: %v", err)
	}
	if order != nil {
		t.Errorf("Expected no order after conflict, got %d", *order)
	}
}

func intPtr(n int) *int { return &n }

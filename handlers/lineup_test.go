// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"

	"github.com/tavinathanson/openmic/email"
	"github.com/tavinathanson/openmic/models"
	"github.com/tavinathanson/openmic/testutil"
)

func TestLineupView(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewLineupHandler(db, cfg)
	eventID := testutil.CreateTestEvent(t, db, 20)

	// Two ordered, two waiting (checked in, no order), one not coming,
	// one not yet checked in.
	zoe := testutil.CreateTestSignup(t, db, eventID, "Zoe", time.Hour)
	adam := testutil.CreateTestSignup(t, db, eventID, "Adam", time.Hour)
	walt := testutil.CreateTestSignup(t, db, eventID, "Walt", time.Hour)
	bea := testutil.CreateTestSignup(t, db, eventID, "Bea", time.Hour)
	gone := testutil.CreateTestSignup(t, db, eventID, "Gone", time.Hour)
	testutil.CreateTestSignup(t, db, eventID, "Quiet", time.Hour)

	for id, status := range map[string]string{
		zoe: "early", adam: "on_time", walt: "on_time", bea: "late", gone: "not_coming",
	} {
		testutil.CheckInSignup(t, db, id, status)
	}
	if _, err := db.Exec("UPDATE signup SET lottery_order = 1 WHERE id = $1", zoe); err != nil {
		t.Fatalf("Failed to seed order: %v", err)
	}
	if _, err := db.Exec("UPDATE signup SET lottery_order = 2 WHERE id = $1", adam); err != nil {
		t.Fatalf("Failed to seed order: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/lineup", nil)
	w := httptest.NewRecorder()
	handler.Lineup(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.LineupResponse
	testutil.AssertJSON(t, w, &resp)

	if len(resp.Lineup) != 2 {
		t.Fatalf("Expected 2 ordered entries, got %d", len(resp.Lineup))
	}
	if resp.Lineup[0].Name != "Zoe" || resp.Lineup[0].Order != 1 {
		t.Errorf("Expected Zoe first, got %+v", resp.Lineup[0])
	}
	if resp.Lineup[1].Name != "Adam" || resp.Lineup[1].Order != 2 {
		t.Errorf("Expected Adam second, got %+v", resp.Lineup[1])
	}

	// Waiting list is alphabetical regardless of arrival order
	if len(resp.Waiting) != 2 {
		t.Fatalf("Expected 2 waiting entries, got %d", len(resp.Waiting))
	}
	if resp.Waiting[0].Name != "Bea" || resp.Waiting[1].Name != "Walt" {
		t.Errorf("Expected alphabetical waiting list, got %+v", resp.Waiting)
	}

	// The public view never leaks addresses
	if strings.Contains(w.Body.String(), "@example.com") {
		t.Error("Public lineup response contains an email address")
	}
}

func TestLineupNoActiveEvent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	handler := NewLineupHandler(db, testutil.GetTestConfig())

	req := httptest.NewRequest("GET", "/api/lineup", nil)
	w := httptest.NewRecorder()
	handler.Lineup(w, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestListComedians(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewAdminHandler(db, cfg, email.NewSender("", ""), rand.New(rand.NewSource(1)))
	eventID := testutil.CreateTestEvent(t, db, 20)
	testutil.CreateTestSignup(t, db, eventID, "Alice", 2*time.Hour)
	testutil.CreateTestSignup(t, db, eventID, "Bob", time.Hour)

	req := testutil.MakeRequest("GET", "/api/admin/comedians", nil, nil)
	w := httptest.NewRecorder()
	handler.ListComedians(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var signups []map[string]interface{}
	testutil.AssertJSON(t, w, &signups)
	if len(signups) != 2 {
		t.Fatalf("Expected 2 comedians, got %d", len(signups))
	}
	// Signup order, oldest first
	if signups[0]["name"] != "Alice" {
		t.Errorf("Expected Alice first by signup time, got %v", signups[0]["name"])
	}
	// Admin view includes the address
	if !strings.Contains(signups[1]["email"].(string), "@example.com") {
		t.Error("Admin view should include email addresses")
	}
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"math/rand"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	_ "github.com/lib/pq"

	"github.com/tavinathanson/openmic/auth"
	"github.com/tavinathanson/openmic/email"
	"github.com/tavinathanson/openmic/models"
	"github.com/tavinathanson/openmic/testutil"
)

func TestSignup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewSignupHandler(db, cfg, email.NewSender("", ""), rand.New(rand.NewSource(1)))
	testutil.CreateTestEvent(t, db, 20)

	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
	}{
		{
			name: "valid comedian signup",
			requestBody: models.SignupRequest{
				Email:    "alice@example.com",
				Type:     "comedian",
				FullName: "Alice",
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "valid audience signup",
			requestBody: models.SignupRequest{
				Email:          "bob@example.com",
				Type:           "audience",
				FullName:       "Bob",
				NumberOfPeople: 3,
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "missing email",
			requestBody: models.SignupRequest{
				Type:     "comedian",
				FullName: "NoEmail",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "invalid type",
			requestBody: models.SignupRequest{
				Email: "carol@example.com",
				Type:  "juggler",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "duplicate signup same email",
			requestBody: models.SignupRequest{
				Email:    "Alice@Example.com", // case-insensitive match
				Type:     "comedian",
				FullName: "Alice",
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/api/signup", tt.requestBody, nil)
			w := httptest.NewRecorder()

			handler.Signup(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}
}

func TestSignupWaitlist(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewSignupHandler(db, cfg, email.NewSender("", ""), rand.New(rand.NewSource(1)))
	testutil.CreateTestEvent(t, db, 1)

	first := testutil.MakeRequest("POST", "/api/signup", models.SignupRequest{
		Email: "first@example.com", Type: "comedian", FullName: "First",
	}, nil)
	w := httptest.NewRecorder()
	handler.Signup(w, first)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.SignupResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Waitlisted {
		t.Error("First signup should not be waitlisted")
	}

	second := testutil.MakeRequest("POST", "/api/signup", models.SignupRequest{
		Email: "second@example.com", Type: "comedian", FullName: "Second",
	}, nil)
	w = httptest.NewRecorder()
	handler.Signup(w, second)
	testutil.AssertStatus(t, w, http.StatusCreated)

	testutil.AssertJSON(t, w, &resp)
	if !resp.Waitlisted {
		t.Error("Second signup should be waitlisted when slots are full")
	}

	// Waitlisted signups are still stored
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM signup").Scan(&count); err != nil {
		t.Fatalf("Failed to count signups: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 stored signups, got %d", count)
	}
}

func TestCancel(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewSignupHandler(db, cfg, email.NewSender("", ""), rand.New(rand.NewSource(1)))
	eventID := testutil.CreateTestEvent(t, db, 20)
	signupID := testutil.CreateTestSignup(t, db, eventID, "Alice", time.Hour)

	token := auth.GenerateCancelToken(signupID, cfg.CancelTokenSecret)
	path := "/api/cancel?id=" + url.QueryEscape(signupID) + "&token=" + url.QueryEscape(token)

	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	handler.Cancel(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM signup WHERE id = $1", signupID).Scan(&count); err != nil {
		t.Fatalf("Failed to count signups: %v", err)
	}
	if count != 0 {
		t.Error("Signup should be deleted after cancellation")
	}
}

func TestCancelInvalidToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewSignupHandler(db, cfg, email.NewSender("", ""), rand.New(rand.NewSource(1)))
	eventID := testutil.CreateTestEvent(t, db, 20)
	signupID := testutil.CreateTestSignup(t, db, eventID, "Alice", time.Hour)

	req := httptest.NewRequest("GET", "/api/cancel?id="+signupID+"&token=forged", nil)
	w := httptest.NewRecorder()
	handler.Cancel(w, req)
	testutil.AssertStatus(t, w, http.StatusUnauthorized)

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM signup WHERE id = $1", signupID).Scan(&count); err != nil {
		t.Fatalf("Failed to count signups: %v", err)
	}
	if count != 1 {
		t.Error("Signup should survive a forged cancellation token")
	}
}

// Cancelling an ordered member closes the gap in the lineup.
func TestCancelRenumbersLineup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewSignupHandler(db, cfg, email.NewSender("", ""), rand.New(rand.NewSource(1)))
	eventID := testutil.CreateTestEvent(t, db, 20)

	ids := make([]string, 3)
	names := []string{"Alice", "Bob", "Carol"}
	for i, name := range names {
		ids[i] = testutil.CreateTestSignup(t, db, eventID, name, time.Hour)
		_, err := db.Exec(`UPDATE signup SET lottery_order = $1, check_in_status = 'on_time' WHERE id = $2`, i+1, ids[i])
		if err != nil {
			t.Fatalf("Failed to seed lineup: %v", err)
		}
	}

	token := auth.GenerateCancelToken(ids[1], cfg.CancelTokenSecret)
	req := httptest.NewRequest("GET", "/api/cancel?id="+ids[1]+"&token="+url.QueryEscape(token), nil)
	w := httptest.NewRecorder()
	handler.Cancel(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	checkOrder := func(signupID string, want int) {
		t.Helper()
		var got int
		if err := db.QueryRow("SELECT lottery_order FROM signup WHERE id = $1", signupID).Scan(&got); err != nil {
			t.Fatalf("Failed to load order: %v", err)
		}
		if got != want {
			t.Errorf("Expected order %d, got %d", want, got)
		}
	}
	checkOrder(ids[0], 1)
	checkOrder(ids[2], 2)
}

// In phased mode a cancellation re-evaluates the machine, so the
// fifth check-in's batch still appears even when the triggering change
// is someone dropping out.
func TestCancelPhasedGeneratesBatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	cfg.LotteryMode = "phased"
	handler := NewSignupHandler(db, cfg, email.NewSender("", ""), rand.New(rand.NewSource(1)))
	eventID := testutil.CreateTestEvent(t, db, 20)

	names := []string{"Alice", "Bob", "Carol", "Dave", "Eve"}
	for _, name := range names {
		id := testutil.CreateTestSignup(t, db, eventID, name, time.Hour)
		testutil.CheckInSignup(t, db, id, "on_time")
	}
	quitter := testutil.CreateTestSignup(t, db, eventID, "Frank", time.Hour)

	token := auth.GenerateCancelToken(quitter, cfg.CancelTokenSecret)
	req := httptest.NewRequest("GET", "/api/cancel?id="+quitter+"&token="+url.QueryEscape(token), nil)
	w := httptest.NewRecorder()
	handler.Cancel(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var ordered int
	if err := db.QueryRow(`
		SELECT COUNT(*) FROM signup WHERE event_id = $1 AND lottery_order IS NOT NULL
	`, eventID).Scan(&ordered); err != nil {
		t.Fatalf("Failed to count ordered members: %v", err)
	}
	if ordered != 5 {
		t.Errorf("Expected initial batch of 5 after cancel, got %d ordered", ordered)
	}

	var initial bool
	if err := db.QueryRow(`
		SELECT initial_generated FROM lineup_state WHERE event_id = $1
	`, eventID).Scan(&initial); err != nil {
		t.Fatalf("Failed to load lineup state: %v", err)
	}
	if !initial {
		t.Error("Initial batch flag should be set after cancel-triggered evaluation")
	}
}

func TestValidateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewSignupHandler(db, cfg, email.NewSender("", ""), rand.New(rand.NewSource(1)))
	testutil.CreateTestEvent(t, db, 1)

	// Seed one comedian signup through the real path so the person row
	// exists with a name.
	signupReq := testutil.MakeRequest("POST", "/api/signup", models.SignupRequest{
		Email: "alice@example.com", Type: "comedian", FullName: "Alice",
	}, nil)
	w := httptest.NewRecorder()
	handler.Signup(w, signupReq)
	testutil.AssertStatus(t, w, http.StatusCreated)

	t.Run("unknown email", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/api/validate-email", models.ValidateEmailRequest{
			Email: "stranger@example.com", Type: "comedian",
		}, nil)
		w := httptest.NewRecorder()
		handler.ValidateEmail(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.ValidateEmailResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Exists || resp.AlreadySignedUp || resp.FullName != nil {
			t.Errorf("Expected empty result for unknown email, got %+v", resp)
		}
	})

	t.Run("returning comedian", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/api/validate-email", models.ValidateEmailRequest{
			Email: "Alice@Example.com", Type: "comedian",
		}, nil)
		w := httptest.NewRecorder()
		handler.ValidateEmail(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.ValidateEmailResponse
		testutil.AssertJSON(t, w, &resp)
		if !resp.Exists || !resp.AlreadySignedUp {
			t.Errorf("Expected existing signup, got %+v", resp)
		}
		if resp.FullName == nil || *resp.FullName != "Alice" {
			t.Errorf("Expected name Alice, got %v", resp.FullName)
		}
		if resp.IsWaitlist {
			t.Error("First comedian should not be waitlisted")
		}
	})

	t.Run("known person without signup of that type", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/api/validate-email", models.ValidateEmailRequest{
			Email: "alice@example.com", Type: "audience",
		}, nil)
		w := httptest.NewRecorder()
		handler.ValidateEmail(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.ValidateEmailResponse
		testutil.AssertJSON(t, w, &resp)
		if !resp.Exists || resp.AlreadySignedUp {
			t.Errorf("Expected person without audience signup, got %+v", resp)
		}
		if resp.NumberOfPeople == nil || *resp.NumberOfPeople != 1 {
			t.Errorf("Expected default party size 1, got %v", resp.NumberOfPeople)
		}
	})

	t.Run("waitlisted comedian", func(t *testing.T) {
		// Slots are full (1 slot, Alice holds it), so Bob lands on the
		// waitlist.
		signupReq := testutil.MakeRequest("POST", "/api/signup", models.SignupRequest{
			Email: "bob@example.com", Type: "comedian", FullName: "Bob",
		}, nil)
		w := httptest.NewRecorder()
		handler.Signup(w, signupReq)
		testutil.AssertStatus(t, w, http.StatusCreated)

		req := testutil.MakeRequest("POST", "/api/validate-email", models.ValidateEmailRequest{
			Email: "bob@example.com", Type: "comedian",
		}, nil)
		w = httptest.NewRecorder()
		handler.ValidateEmail(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.ValidateEmailResponse
		testutil.AssertJSON(t, w, &resp)
		if !resp.IsWaitlist {
			t.Error("Second comedian for one slot should show as waitlisted")
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/api/validate-email", models.ValidateEmailRequest{
			Email: "alice@example.com",
		}, nil)
		w := httptest.NewRecorder()
		handler.ValidateEmail(w, req)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("invalid type", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/api/validate-email", models.ValidateEmailRequest{
			Email: "alice@example.com", Type: "juggler",
		}, nil)
		w := httptest.NewRecorder()
		handler.ValidateEmail(w, req)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestSlots(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewSignupHandler(db, cfg, email.NewSender("", ""), rand.New(rand.NewSource(1)))
	eventID := testutil.CreateTestEvent(t, db, 10)
	testutil.CreateTestSignup(t, db, eventID, "Alice", time.Hour)
	testutil.CreateTestSignup(t, db, eventID, "Bob", time.Hour)

	req := httptest.NewRequest("GET", "/api/slots", nil)
	w := httptest.NewRecorder()
	handler.Slots(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.SlotsResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.TotalSlots != 10 {
		t.Errorf("Expected 10 total slots, got %d", resp.TotalSlots)
	}
	if resp.SlotsRemaining != 8 {
		t.Errorf("Expected 8 slots remaining, got %d", resp.SlotsRemaining)
	}
}

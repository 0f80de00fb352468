// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lineup

import (
	"testing"
	"time"
)

var testBase = time.Date(2025, 6, 10, 19, 0, 0, 0, time.UTC)

// member builds a test member. signedUpDaysAgo < 0 means a walk-in
// with no signup timestamp.
func member(id string, status CheckInStatus, signedUpDaysAgo int, checkedInOffset time.Duration) Member {
	m := Member{
		ID:            id,
		Name:          "Member " + id,
		CheckInStatus: status,
	}
	if signedUpDaysAgo >= 0 {
		m.SignedUpAt = testBase.Add(-time.Duration(signedUpDaysAgo) * 24 * time.Hour)
	}
	if status != "" && status != StatusNotComing {
		m.CheckedInAt = testBase.Add(checkedInOffset)
	}
	return m
}

func TestTickets(t *testing.T) {
	tests := []struct {
		name      string
		policy    TicketPolicy
		status    CheckInStatus
		earlyBird bool
		want      int
	}{
		{"baseline on-time", DefaultTicketPolicy, StatusOnTime, false, 1},
		{"early bird only", DefaultTicketPolicy, StatusOnTime, true, 3},
		{"early check-in only", DefaultTicketPolicy, StatusEarly, false, 3},
		{"both bonuses", DefaultTicketPolicy, StatusEarly, true, 5},
		{"legacy baseline", LegacyTicketPolicy, StatusOnTime, false, 1},
		{"legacy both bonuses", LegacyTicketPolicy, StatusEarly, true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := member("a", tt.status, 3, 0)
			got := tt.policy.Tickets(m, tt.earlyBird)
			if got != tt.want {
				t.Errorf("Tickets() = %d, want %d", got, tt.want)
			}
		})
	}
}

// Ticket-weight monotonicity: with everything else equal, an early
// bird never holds fewer tickets than a non-early-bird.
func TestTicketMonotonicity(t *testing.T) {
	for _, policy := range []TicketPolicy{DefaultTicketPolicy, LegacyTicketPolicy} {
		for _, status := range []CheckInStatus{StatusEarly, StatusOnTime} {
			a := member("a", status, 2, 0)
			b := member("b", status, 2, 0)
			if policy.Tickets(a, true) < policy.Tickets(b, false) {
				t.Errorf("early bird has fewer tickets than baseline for status %q", status)
			}
		}
	}
}

func TestEarlyBirds(t *testing.T) {
	members := []Member{
		member("a", StatusOnTime, 10, 0),
		member("b", StatusOnTime, 9, 0),
		member("c", StatusOnTime, 8, 0),
		member("d", StatusOnTime, 7, 0),
		member("e", StatusOnTime, 6, 0),
		member("f", StatusOnTime, 5, 0),
		member("walkin", StatusOnTime, -1, 0), // no signup timestamp
	}

	birds := EarlyBirds(members, 5)

	if len(birds) != 5 {
		t.Fatalf("Expected 5 early birds, got %d", len(birds))
	}
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		if !birds[id] {
			t.Errorf("Expected %s to be an early bird", id)
		}
	}
	if birds["f"] {
		t.Error("Sixth signup should not be an early bird")
	}
	if birds["walkin"] {
		t.Error("Walk-in should never be an early bird")
	}
}

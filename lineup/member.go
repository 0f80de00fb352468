// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lineup

import (
	"sort"
	"time"
)

// CheckInStatus describes how (and whether) a member arrived.
// An empty status means the member has not checked in.
type CheckInStatus string

const (
	StatusEarly     CheckInStatus = "early"
	StatusOnTime    CheckInStatus = "on_time"
	StatusLate      CheckInStatus = "late"
	StatusNotComing CheckInStatus = "not_coming"
)

// Phase tags a member with the batch that ordered them (phased mode only).
type Phase string

const (
	PhaseNone     Phase = ""
	PhaseInitial  Phase = "initial"
	PhaseFollowUp Phase = "follow_up"
	PhaseLate     Phase = "late"
)

// Member is one performer candidate for a single event date.
// Order is 1-based; 0 means no position has been assigned.
// Seed is nil until the scoring engine assigns one; once assigned it is
// never regenerated, so repeated score computations are stable.
type Member struct {
	ID            string
	Name          string
	SignedUpAt    time.Time // zero for walk-ins
	CheckInStatus CheckInStatus
	CheckedInAt   time.Time
	Order         int
	Seed          *float64
	Phase         Phase
	NeedsRescore  bool
}

// CheckedIn reports whether the member has arrived and is still coming.
func (m Member) CheckedIn() bool {
	return m.CheckInStatus != "" && m.CheckInStatus != StatusNotComing
}

// EligiblePool returns members who can still receive an order number:
// checked in, not marked not-coming, and not yet ordered.
func EligiblePool(members []Member) []Member {
	var pool []Member
	for _, m := range members {
		if m.CheckedIn() && m.Order == 0 {
			pool = append(pool, m)
		}
	}
	return pool
}

// MaxOrder returns the highest order number currently assigned.
func MaxOrder(members []Member) int {
	max := 0
	for _, m := range members {
		if m.Order > max {
			max = m.Order
		}
	}
	return max
}

// Ordered returns the members holding an order number, ascending.
func Ordered(members []Member) []Member {
	var out []Member
	for _, m := range members {
		if m.Order > 0 {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// EarlyBirds returns the ids of the first count members to register,
// by signup timestamp. Walk-ins have no signup timestamp and are never
// early birds.
func EarlyBirds(members []Member, count int) map[string]bool {
	var registered []Member
	for _, m := range members {
		if !m.SignedUpAt.IsZero() {
			registered = append(registered, m)
		}
	}
	sort.Slice(registered, func(i, j int) bool {
		if registered[i].SignedUpAt.Equal(registered[j].SignedUpAt) {
			return registered[i].ID < registered[j].ID
		}
		return registered[i].SignedUpAt.Before(registered[j].SignedUpAt)
	})

	birds := make(map[string]bool)
	for i := 0; i < len(registered) && i < count; i++ {
		birds[registered[i].ID] = true
	}
	return birds
}

// CheckDense verifies the dense-sequence invariant: the non-zero order
// numbers among members are exactly {1..N} with no gaps or duplicates.
func CheckDense(members []Member) bool {
	seen := make(map[int]bool)
	count := 0
	for _, m := range members {
		if m.Order == 0 {
			continue
		}
		if seen[m.Order] {
			return false
		}
		seen[m.Order] = true
		count++
	}
	for i := 1; i <= count; i++ {
		if !seen[i] {
			return false
		}
	}
	return true
}

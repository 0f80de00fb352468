// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lineup

import (
	"math/rand"
	"sort"
)

// DefaultBatchSize is how many performers one lottery draw selects.
const DefaultBatchSize = 4

// Assignment is one new order-number grant produced by a draw or by
// phased generation. Seed and Phase are nil/empty when the operation
// does not touch them (Design-A draws never do).
type Assignment struct {
	MemberID string
	Order    int
	Phase    Phase
	Seed     *float64
}

// weightedEntry is one member in the draw pool with its cumulative
// ticket weight, so a uniform pick in [0, total) maps to a member via
// binary search. Removal subtracts the entry's weight from every
// later cumulative value, which keeps picks without replacement.
type weightedEntry struct {
	memberID   string
	weight     int
	cumulative int
}

func buildWeighted(pool []Member, policy TicketPolicy, earlyBirds map[string]bool) []weightedEntry {
	entries := make([]weightedEntry, 0, len(pool))
	total := 0
	for _, m := range pool {
		w := policy.Tickets(m, earlyBirds[m.ID])
		if w <= 0 {
			continue
		}
		total += w
		entries = append(entries, weightedEntry{memberID: m.ID, weight: w, cumulative: total})
	}
	return entries
}

// drawOne picks one entry at ticket-weighted random and removes it
// from the pool. The pool must be non-empty.
func drawOne(entries []weightedEntry, rng *rand.Rand) (string, []weightedEntry) {
	total := entries[len(entries)-1].cumulative
	pick := rng.Intn(total)

	// First entry whose cumulative weight exceeds the pick.
	idx := sort.Search(len(entries), func(i int) bool {
		return entries[i].cumulative > pick
	})

	chosen := entries[idx]
	entries = append(entries[:idx], entries[idx+1:]...)
	for i := idx; i < len(entries); i++ {
		entries[i].cumulative -= chosen.weight
	}

	return chosen.memberID, entries
}

// RunDraw runs one weighted lottery draw over the given event members.
//
// The eligible pool is every checked-in member without an order number.
// On-time and early arrivals enter a ticket-weighted draw; late
// arrivals are excluded from the weighted pool and instead fill any
// slots left over, in order of arrival. Order numbers continue from
// the highest already assigned, so repeated draws never renumber
// earlier selections, and a draw with an empty pool returns nil.
//
// All randomness comes from rng so tests can fix outcomes.
func RunDraw(members []Member, policy TicketPolicy, batchSize int, rng *rand.Rand) []Assignment {
	pool := EligiblePool(members)
	if len(pool) == 0 {
		return nil
	}

	var lotteryEligible, late []Member
	for _, m := range pool {
		if m.CheckInStatus == StatusLate {
			late = append(late, m)
		} else {
			lotteryEligible = append(lotteryEligible, m)
		}
	}
	sort.Slice(late, func(i, j int) bool {
		return late[i].CheckedInAt.Before(late[j].CheckedInAt)
	})

	numToSelect := batchSize
	if len(pool) < numToSelect {
		numToSelect = len(pool)
	}

	earlyBirds := EarlyBirds(members, policy.EarlyBirdCount)
	entries := buildWeighted(lotteryEligible, policy, earlyBirds)

	var selected []string
	for len(selected) < numToSelect && len(entries) > 0 {
		var id string
		id, entries = drawOne(entries, rng)
		selected = append(selected, id)
	}

	// Fill remaining slots with late arrivals, earliest first.
	for _, m := range late {
		if len(selected) >= numToSelect {
			break
		}
		selected = append(selected, m.ID)
	}

	nextOrder := MaxOrder(members) + 1
	assignments := make([]Assignment, len(selected))
	for i, id := range selected {
		assignments[i] = Assignment{MemberID: id, Order: nextOrder + i}
	}
	return assignments
}

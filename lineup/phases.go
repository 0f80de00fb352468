// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lineup

import (
	"math/rand"
	"sort"
	"time"
)

// InitialBatchSize is how many performers the initial phased batch
// locks in, and how many check-ins it takes to trigger it.
const InitialBatchSize = 5

// FollowUpThreshold is how many check-ins beyond the initial batch
// trigger follow-up generation (the event start time passing triggers
// it too, whichever comes first).
const FollowUpThreshold = 5

// PhaseState is the per-event state of the phased ordering machine.
// The generated flags are the idempotency guards: evaluation is
// level-triggered and may run on every underlying data change, so a
// satisfied condition must not re-fire a batch that already exists.
//
// The machine only moves forward: waiting -> initial_generated ->
// follow_up_generated. After follow-up, late arrivals still append
// but the state itself is terminal.
type PhaseState struct {
	InitialGenerated  bool
	FollowUpGenerated bool
	EventStart        time.Time
}

// PhasePlan is the outcome of one evaluation: the order numbers to
// assign (with phase tags and any newly assigned seeds) and the
// resulting machine state. An empty Assignments with unchanged state
// means the evaluation was a no-op.
type PhasePlan struct {
	Assignments []Assignment
	State       PhaseState
}

// EvaluatePhases runs the phased ordering machine against the current
// member set. It is safe to call on every change notification:
// already-generated batches are skipped via the state flags, and
// members holding an order number are never touched.
//
// Within one call the machine advances as far as conditions allow, so
// a burst of check-ins arriving after the event start can produce the
// initial batch, the follow-up batch, and late appends together.
func EvaluatePhases(members []Member, state PhaseState, now time.Time, rng *rand.Rand) PhasePlan {
	plan := PhasePlan{State: state}

	// Work on a copy so seed/order assignment within this evaluation
	// is visible to the later stages without mutating the caller's
	// slice.
	working := make([]Member, len(members))
	copy(working, members)

	checkedIn := checkedInByArrival(working)

	if !plan.State.InitialGenerated && len(checkedIn) >= InitialBatchSize {
		batch := checkedIn[:InitialBatchSize]
		assignments := scoreAndOrder(batch, PhaseInitial, 1, now, rng)
		applyAssignments(working, assignments)
		plan.Assignments = append(plan.Assignments, assignments...)
		plan.State.InitialGenerated = true
	}

	if plan.State.InitialGenerated && !plan.State.FollowUpGenerated {
		unphased := unphasedCheckedIn(working)
		startPassed := !plan.State.EventStart.IsZero() && !now.Before(plan.State.EventStart)
		if len(unphased) >= FollowUpThreshold || startPassed {
			assignments := scoreAndOrder(unphased, PhaseFollowUp, MaxOrder(working)+1, now, rng)
			applyAssignments(working, assignments)
			plan.Assignments = append(plan.Assignments, assignments...)
			plan.State.FollowUpGenerated = true
		}
	}

	if plan.State.FollowUpGenerated {
		// Anyone checking in after follow-up is appended in arrival
		// order, unscored.
		next := MaxOrder(working) + 1
		for _, m := range unphasedCheckedIn(working) {
			a := Assignment{MemberID: m.ID, Order: next, Phase: PhaseLate}
			applyAssignments(working, []Assignment{a})
			plan.Assignments = append(plan.Assignments, a)
			next++
		}
	}

	return plan
}

// checkedInByArrival returns checked-in members sorted by check-in
// time, earliest first.
func checkedInByArrival(members []Member) []Member {
	var out []Member
	for _, m := range members {
		if m.CheckedIn() {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CheckedInAt.Equal(out[j].CheckedInAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CheckedInAt.Before(out[j].CheckedInAt)
	})
	return out
}

// unphasedCheckedIn returns checked-in members with no phase tag and
// no order number, in arrival order.
func unphasedCheckedIn(members []Member) []Member {
	var out []Member
	for _, m := range checkedInByArrival(members) {
		if m.Phase == PhaseNone && m.Order == 0 {
			out = append(out, m)
		}
	}
	return out
}

// scoreAndOrder assigns seeds where missing, scores the batch, sorts
// descending by score, and hands out order numbers from firstOrder.
// Ties break on member id so equal scores order deterministically.
func scoreAndOrder(batch []Member, phase Phase, firstOrder int, now time.Time, rng *rand.Rand) []Assignment {
	scored := make([]Member, len(batch))
	copy(scored, batch)

	for i := range scored {
		if scored[i].Seed == nil {
			seed := rng.Float64()
			scored[i].Seed = &seed
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		si, sj := Score(scored[i], now), Score(scored[j], now)
		if si == sj {
			return scored[i].ID < scored[j].ID
		}
		return si > sj
	})

	assignments := make([]Assignment, len(scored))
	for i, m := range scored {
		assignments[i] = Assignment{
			MemberID: m.ID,
			Order:    firstOrder + i,
			Phase:    phase,
			Seed:     m.Seed,
		}
	}
	return assignments
}

func applyAssignments(members []Member, assignments []Assignment) {
	byID := make(map[string]int, len(members))
	for i, m := range members {
		byID[m.ID] = i
	}
	for _, a := range assignments {
		i, ok := byID[a.MemberID]
		if !ok {
			continue
		}
		members[i].Order = a.Order
		members[i].Phase = a.Phase
		if a.Seed != nil {
			members[i].Seed = a.Seed
		}
	}
}

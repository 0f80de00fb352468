// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lineup

import (
	"math/rand"
	"time"
)

// ChangeKind classifies an underlying data change for reconciliation.
type ChangeKind string

const (
	ChangeCheckIn ChangeKind = "check_in"
	ChangeCancel  ChangeKind = "cancel"
	ChangeTick    ChangeKind = "tick" // wall-clock poll, no row changed
)

// Change is one notification from whatever transport watches the
// member table: a push subscription, a webhook, or a poll loop. The
// reconciler only cares that something changed, not what; the payload
// exists for logging.
type Change struct {
	Kind     ChangeKind
	MemberID string
}

// Reconcile re-evaluates the phased ordering machine after a change.
// It is transport-agnostic and idempotent: callers re-fetch the full
// member set and hand it in, and an evaluation whose conditions are
// already satisfied produces no assignments. The change itself does
// not influence the outcome, it only triggers the evaluation, which
// keeps redelivered or stale notifications harmless.
func Reconcile(members []Member, state PhaseState, _ Change, now time.Time, rng *rand.Rand) PhasePlan {
	return EvaluatePhases(members, state, now, rng)
}

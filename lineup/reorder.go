// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lineup

import "errors"

var (
	// ErrNotInLineup is returned when a reorder targets a member who
	// holds no order number.
	ErrNotInLineup = errors.New("member is not in the lineup")

	// ErrLockedPosition is returned when a reorder would move a locked
	// (initial-phase) member or drop someone onto a locked position.
	ErrLockedPosition = errors.New("position is locked")
)

// Reorder moves one member to position newPos (1-indexed, clamped to
// the sequence bounds) and renumbers the entire sequence to 1..N.
// Every member is renumbered, not just the affected range, so the
// dense-sequence invariant holds after arbitrary moves. Lineups are
// small, so rewriting every position is fine.
//
// ordered must be the full current lineup sorted by order number.
// The returned slice is a renumbered copy; the input is not mutated.
// Moving a member who is not in the lineup is a validation error.
func Reorder(ordered []Member, memberID string, newPos int) ([]Member, error) {
	idx := -1
	for i, m := range ordered {
		if m.ID == memberID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, ErrNotInLineup
	}
	if ordered[idx].Phase == PhaseInitial {
		return nil, ErrLockedPosition
	}

	locked := 0
	for _, m := range ordered {
		if m.Phase == PhaseInitial {
			locked++
		}
	}

	moved := ordered[idx]
	rest := make([]Member, 0, len(ordered)-1)
	rest = append(rest, ordered[:idx]...)
	rest = append(rest, ordered[idx+1:]...)

	if newPos < 1 {
		newPos = 1
	}
	if newPos > len(rest)+1 {
		newPos = len(rest) + 1
	}
	if newPos <= locked {
		return nil, ErrLockedPosition
	}

	// Splice back in at the target position. The manual move marks
	// the member for rescoring so downstream score displays refresh.
	moved.NeedsRescore = true
	result := make([]Member, 0, len(ordered))
	result = append(result, rest[:newPos-1]...)
	result = append(result, moved)
	result = append(result, rest[newPos-1:]...)

	return renumber(result), nil
}

// Remove takes one member out of the lineup (order number becomes
// null) and renumbers the remainder. Removing a member who is not in
// the lineup is a no-op.
func Remove(ordered []Member, memberID string) []Member {
	idx := -1
	for i, m := range ordered {
		if m.ID == memberID {
			idx = i
			break
		}
	}
	if idx == -1 {
		out := make([]Member, len(ordered))
		copy(out, ordered)
		return out
	}

	rest := make([]Member, 0, len(ordered)-1)
	rest = append(rest, ordered[:idx]...)
	rest = append(rest, ordered[idx+1:]...)
	return renumber(rest)
}

func renumber(seq []Member) []Member {
	out := make([]Member, len(seq))
	copy(out, seq)
	for i := range out {
		out[i].Order = i + 1
	}
	return out
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lineup

import "time"

// Score weights. Each component contributes a fixed share of a
// 100-point scale: randomness 33, signup recency 33, arrival 34.
const (
	randomWeight = 33.0
	signupWeight = 33.0

	arrivalEarly  = 34.0
	arrivalOnTime = 20.0
	arrivalLate   = 5.0

	// Signup recency saturates at a week before the event.
	signupSaturationDays = 7.0
)

// Score computes the phased-mode fairness score for one member.
// Higher scores perform earlier. The member's seed must already be
// assigned; the seed is persisted and never regenerated, so the score
// is stable across recomputations at the same instant.
//
//	score = seed*33 + min(days_since_signup/7, 1)*33 + arrival points
func Score(m Member, now time.Time) float64 {
	var random float64
	if m.Seed != nil {
		random = *m.Seed * randomWeight
	}

	var signup float64
	if !m.SignedUpAt.IsZero() {
		days := now.Sub(m.SignedUpAt).Hours() / 24
		frac := days / signupSaturationDays
		if frac > 1 {
			frac = 1
		}
		if frac < 0 {
			frac = 0
		}
		signup = frac * signupWeight
	}

	var arrival float64
	switch m.CheckInStatus {
	case StatusEarly:
		arrival = arrivalEarly
	case StatusOnTime:
		arrival = arrivalOnTime
	case StatusLate:
		arrival = arrivalLate
	}

	return random + signup + arrival
}

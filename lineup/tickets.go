// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lineup

// TicketPolicy configures how lottery tickets are awarded. The bonus
// values have changed over the life of the event (an older deployment
// ran +1/+1), so they are configuration, not constants. The active
// policy for a deployment is DefaultTicketPolicy.
type TicketPolicy struct {
	Base              int // tickets for any checked-in eligible member
	EarlyBirdBonus    int // extra tickets for registering early
	EarlyCheckInBonus int // extra tickets for arriving early
	EarlyBirdCount    int // how many of the earliest signups count as early birds
}

// DefaultTicketPolicy is the current house policy: 1 base ticket,
// +2 for being among the first 5 signups, +2 for checking in early.
// Maximum 5 tickets by construction.
var DefaultTicketPolicy = TicketPolicy{
	Base:              1,
	EarlyBirdBonus:    2,
	EarlyCheckInBonus: 2,
	EarlyBirdCount:    5,
}

// LegacyTicketPolicy is the original +1/+1 policy, kept for reference
// and for tests that exercise policy configurability.
var LegacyTicketPolicy = TicketPolicy{
	Base:              1,
	EarlyBirdBonus:    1,
	EarlyCheckInBonus: 1,
	EarlyBirdCount:    5,
}

// Tickets computes the lottery tickets for one member. earlyBird is
// whether the member was among the first EarlyBirdCount signups for
// the event (see EarlyBirds). Late arrivals never enter the weighted
// pool, so their ticket count is not meaningful; callers partition
// them out before drawing.
func (p TicketPolicy) Tickets(m Member, earlyBird bool) int {
	tickets := p.Base

	if earlyBird {
		tickets += p.EarlyBirdBonus
	}

	if m.CheckInStatus == StatusEarly {
		tickets += p.EarlyCheckInBonus
	}

	return tickets
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package lineup decides who performs and in what order at an open mic.

The package is pure: it reads a snapshot of Member values, all
randomness comes from an injected *rand.Rand, and results come back as
Assignment values for the caller to persist. Nothing here touches the
database.

# Two ordering modes

Draw mode (the default) is an on-demand weighted lottery:

	assignments := lineup.RunDraw(members, lineup.DefaultTicketPolicy, lineup.DefaultBatchSize, rng)

Each checked-in member without an order number gets lottery tickets
(base 1, +2 early-bird signup, +2 early check-in), late arrivals are
set aside, and up to 4 members are drawn without replacement, weighted
by tickets. Late arrivals fill leftover slots in arrival order. Order
numbers continue from the current maximum, so draws are append-only
and re-running with an empty pool is a no-op.

Phased mode is an automatic scored lineup:

	plan := lineup.EvaluatePhases(members, state, time.Now(), rng)

Once 5 members are checked in, the first 5 arrivals are scored
(random seed + signup recency + arrival quality on a 100-point scale),
sorted, and locked as positions 1-5. A second batch locks when 5 more
check in or the show starts. Everyone after that appends FIFO.
Evaluation is level-triggered and guarded by generated flags, so it
can run on every change notification (see Reconcile).

# Manual reordering

Reorder moves one member and renumbers the whole sequence to 1..N,
keeping order numbers dense. Locked initial-phase positions reject
moves. Remove drops a member from the lineup entirely.
*/
package lineup

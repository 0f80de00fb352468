// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles schema creation and lineup persistence.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

The schema includes:

  - person: One row per email address, shared across events
  - event: Open mic dates; one active at a time
  - signup: Comedian and audience signups, including walk-ins
  - lineup_state: Per-event state of the phased ordering machine
  - show: Ticketed special shows
  - ticket: Ticket purchases

# Relationships

	person 1──* signup
	event  1──* signup
	event  1──1 lineup_state
	show   1──* ticket
	person 1──* ticket

All foreign keys use ON DELETE CASCADE.

# Lineup Persistence

The ordering engine in package lineup is pure; this package moves its
results in and out of Postgres:

	members, err := db.LoadComedians(conn, eventID)
	err = db.ApplyAssignments(conn, eventID, assignments)
	err = db.RenumberLineup(conn, eventID, mutate)
	err = db.CancelSignup(conn, eventID, signupID)

Every writer runs in a single transaction. RenumberLineup and
CancelSignup reload the lineup under SELECT ... FOR UPDATE before
rewriting it, so the rows they renumber are the rows they saw;
concurrent writers surface as ErrConflict rather than a torn lineup,
with the UNIQUE (event_id, lottery_order) constraint as the backstop.
*/
package db

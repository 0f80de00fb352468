// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- People (one row per email address, shared across events)
CREATE TABLE IF NOT EXISTS person (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    full_name TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_person_email ON person(LOWER(email));

-- Open mic event dates. Exactly one should be active at a time.
CREATE TABLE IF NOT EXISTS event (
    id TEXT PRIMARY KEY,
    date TEXT NOT NULL,
    start_time TIMESTAMP NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT FALSE,
    comedian_slots INTEGER NOT NULL DEFAULT 20,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_event_active ON event(is_active);

-- Signups (pre-registered and walk-ins)
CREATE TABLE IF NOT EXISTS signup (
    id TEXT PRIMARY KEY,
    person_id TEXT NOT NULL REFERENCES person(id) ON DELETE CASCADE,
    event_id TEXT NOT NULL REFERENCES event(id) ON DELETE CASCADE,
    signup_type TEXT NOT NULL CHECK (signup_type IN ('comedian', 'audience')),
    source TEXT NOT NULL DEFAULT 'signup' CHECK (source IN ('signup', 'walkin')),
    number_of_people INTEGER NOT NULL DEFAULT 1,
    first_mic_ever BOOLEAN NOT NULL DEFAULT FALSE,
    check_in_status TEXT CHECK (check_in_status IN ('early', 'on_time', 'late', 'not_coming')),
    checked_in_at TIMESTAMP,
    lottery_order INTEGER,
    random_seed DOUBLE PRECISION,
    phase TEXT CHECK (phase IN ('initial', 'follow_up', 'late')),
    needs_rescore BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    UNIQUE (person_id, event_id),
    UNIQUE (event_id, lottery_order)
);

CREATE INDEX IF NOT EXISTS idx_signup_event ON signup(event_id);
CREATE INDEX IF NOT EXISTS idx_signup_order ON signup(event_id, lottery_order);

-- Per-event state of the phased ordering machine
CREATE TABLE IF NOT EXISTS lineup_state (
    event_id TEXT PRIMARY KEY REFERENCES event(id) ON DELETE CASCADE,
    initial_generated BOOLEAN NOT NULL DEFAULT FALSE,
    follow_up_generated BOOLEAN NOT NULL DEFAULT FALSE,
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);

-- Ticketed shows
CREATE TABLE IF NOT EXISTS show (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    date TEXT NOT NULL,
    venue_name TEXT,
    price_cents INTEGER NOT NULL,
    total_tickets INTEGER NOT NULL,
    tickets_sold INTEGER NOT NULL DEFAULT 0,
    stripe_price_id TEXT,
    is_active BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

-- Ticket purchases
CREATE TABLE IF NOT EXISTS ticket (
    id TEXT PRIMARY KEY,
    show_id TEXT NOT NULL REFERENCES show(id) ON DELETE CASCADE,
    person_id TEXT NOT NULL REFERENCES person(id) ON DELETE CASCADE,
    quantity INTEGER NOT NULL,
    total_amount_cents INTEGER NOT NULL,
    stripe_session_id TEXT UNIQUE,
    status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'paid', 'cancelled', 'refunded')),
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_ticket_show ON ticket(show_id);
CREATE INDEX IF NOT EXISTS idx_ticket_session ON ticket(stripe_session_id);
`

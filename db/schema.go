// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The DDL is portable between PostgreSQL and SQLite.
func CreateSchema(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// One statement per entry; lib/pq accepts batches but not every driver does.
var schema = []string{
	// Personnel
	`CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    rank TEXT NOT NULL,
    full_name TEXT NOT NULL,
    afpsn TEXT NOT NULL,
    bos TEXT NOT NULL,
    face_map TEXT,
    qr_val TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE INDEX IF NOT EXISTS idx_users_afpsn ON users(afpsn)`,

	// Events
	`CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    activity TEXT NOT NULL,
    committee TEXT,
    description TEXT,
    start_date TIMESTAMP NOT NULL,
    end_date TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    CHECK (end_date > start_date)
)`,
	`CREATE INDEX IF NOT EXISTS idx_events_start_date ON events(start_date)`,

	// Attendance: one check-in per user per event
	`CREATE TABLE IF NOT EXISTS attendance (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    method TEXT NOT NULL CHECK (method IN ('qr', 'face')),
    ip_hash TEXT,
    user_agent TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (event_id, user_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_event_id ON attendance(event_id)`,

	// Sports fest scoreboard, one row per game
	`CREATE TABLE IF NOT EXISTS scores (
    id TEXT PRIMARY KEY,
    game TEXT NOT NULL UNIQUE,
    white INTEGER NOT NULL DEFAULT 0 CHECK (white >= 0),
    blue INTEGER NOT NULL DEFAULT 0 CHECK (blue >= 0),
    gold INTEGER NOT NULL DEFAULT 0 CHECK (gold >= 0),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Drivers

Open picks the driver from DATABASE_TYPE:

  - postgres: github.com/lib/pq
  - sqlite: modernc.org/sqlite (pure Go, used for local runs and tests)

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

SQLite connections run with foreign keys enabled and a single open
connection.

# Schema Creation

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
Queries throughout the module use $N placeholders, which both drivers accept.

# Tables

  - users: personnel records, optional face map (JSON array) and QR value
  - events: scheduled activities with a start and end time
  - attendance: one check-in per (event, user), with method and scanner context
  - scores: sports fest points per game for the white, blue and gold teams

# Relationships

	events 1──* attendance *──1 users

Attendance rows cascade on delete of either side.
*/
package db

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the checkpoint API server.

checkpoint is an attendance service: personnel register once, receive an
encrypted QR code, and are checked in to events by scanning that code or
their face. It also serves a sports fest scoreboard.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=checkpoint.db ADMIN_KEY=... QR_SECRET=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -admin-key ... -qr-secret ...

A .env file in the working directory is read when present (-env-file).

# Configuration

Required settings:

  - DATABASE_URL (-d): Connection string, or the SQLite file path
  - ADMIN_KEY (-admin-key): Shared key for admin endpoints
  - QR_SECRET (-qr-secret): QR encryption secret, at least 16 bytes

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - IP_HASH_SALT (-ip-salt): Salt for hashed scanner IPs (default: ADMIN_KEY)
  - FACE_MATCH_THRESHOLD (-face-threshold): Maximum descriptor distance (default: 0.6)
  - FACE_MATCH_MARGIN (-face-margin): Required lead over the runner-up (default: 0.1)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (users, check-in, events, scores)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, admin guard, JSON helpers
  - models: Request/response types
  - auth: IDs, admin key check, IP hashing
  - qrcodec: Authenticated QR payload encryption
  - facegate: Face alignment gate and descriptor capture
  - db: Connection and schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main

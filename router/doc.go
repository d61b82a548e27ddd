// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the checkpoint API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg, codec)

# Endpoints

Health:

	GET /health

Registration (public):

	POST  /users   - Register, or return the user a face map already matches
	PATCH /users   - Update fields (including qr_val)
	POST  /encrypt - Build a QR payload

Check-in (admin, requires X-Admin-Key):

	POST /decrypt     - Resolve a scanned QR code, check in with eventId
	POST /users/scan  - Check in by face descriptor
	GET  /users/{id}  - User record

Events (admin):

	GET   /events                 - Paged, searchable list
	POST  /events                 - Create
	GET   /events/{id}            - Single event or null
	PATCH /events/{id}            - Partial update
	GET   /events/{id}/attendance - Checked-in users

Scoreboard:

	GET /scores       - Public, ETag/If-None-Match polling
	POST /scores/set  - Admin
	PUT /scores/reset - Admin

# Handler Initialization

The router creates handler instances with dependency injection:

	userHandler := handlers.NewUserHandler(db, cfg)
	checkInHandler := handlers.NewCheckInHandler(db, cfg, codec)

All handlers receive the database connection and configuration; the
check-in handler also gets the QR codec built from the configured secret.
*/
package router

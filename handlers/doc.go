// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the checkpoint API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - UserHandler: Registration, profile updates, lookup
  - CheckInHandler: QR encrypt/decrypt and face scan check-in
  - EventHandler: Event listing and scheduling
  - AttendanceHandler: Per-event attendance list
  - ScoreHandler: Sports fest scoreboard

Handlers are created via constructor functions that accept *sql.DB and Config:

	userHandler := handlers.NewUserHandler(db, cfg)

CheckInHandler additionally takes the *qrcodec.Codec used for QR payloads.

# Registration

	POST  /users   → CreateUser (201 {id}, or 200 {id, qr_val} on a face match)
	POST  /encrypt → Encrypt
	PATCH /users   → PatchUser (stores qr_val)

A registration that carries a face_map is matched against every stored
face map first (see FindUserByFaceMap), so the same person registering
twice gets their existing QR code back.

# Check-in

	POST /decrypt    → Decrypt (QR), records attendance when eventId is set
	POST /users/scan → Scan (face), records attendance on a match

Both paths go through RecordAttendance. A user is checked in to an event
at most once; later scans return the first record.

# Face Matching

Stored descriptors are compared by Euclidean distance. The nearest user
is accepted when it is within FaceThreshold and at least FaceMargin
closer than the runner-up.

# Scoreboard

	GET  /scores       → GetScores (ETag is last_updated in ms)
	POST /scores/set   → SetScore
	PUT  /scores/reset → ResetScores

Admin operations require the X-Admin-Key header; see middleware.RequireAdmin.

Ids in paths and bodies must be UUIDs (auth.ParseID). A malformed id is
400; a well-formed id with no row is 404, or {"data": null} for GET /events/{id}.
*/
package handlers

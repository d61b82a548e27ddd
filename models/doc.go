// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

  - CreateUserRequest: rank, full_name, afpsn, bos, optional face_map
  - PatchUserRequest: id plus any fields to change
  - DecryptRequest: encrypted QR payload and optional eventId
  - ScanRequest: face_map and eventId
  - CreateEventRequest, PatchEventRequest: event fields, RFC 3339 dates
  - SetScoreRequest: game, team, value

# Response Types

Successful responses wrap their payload in DataResponse:

	{"data": ...}

Errors use ErrorResponse:

	{"error": "Bad Request", "message": "..."}

# Domain Types

  - User: personnel record (face map never serialized)
  - Event: scheduled activity
  - Attendance: one check-in; IP hash and user agent stay server side
  - Attendee: attendance joined with its user
  - Scoreboard: per-game team scores, totals and leaderboard

# Constants

Check-in methods:

	MethodQR   = "qr"
	MethodFace = "face"

Teams:

	TeamWhite, TeamBlue, TeamGold

Event filters:

	FilterAll, FilterRecent, FilterToday, FilterUpcoming
*/
package models

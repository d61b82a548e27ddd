// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/checkpoint/auth"
	"github.com/danielhkuo/checkpoint/cliparse"
	"github.com/danielhkuo/checkpoint/middleware"
	"github.com/danielhkuo/checkpoint/models"
)

var ErrEventNotFound = errors.New("event not found")

// RecordAttendance checks a user in to an event. Repeating the call for the
// same (event, user) returns the original record unchanged.
func RecordAttendance(ctx context.Context, db *sql.DB, eventID, userID string, cc models.CheckInContext) (*models.Attendance, error) {
	id, err := auth.NewID()
	if err != nil {
		return nil, err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO attendance (id, event_id, user_id, method, ip_hash, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (event_id, user_id) DO NOTHING
	`, id, eventID, userID, cc.Method, nullIfEmpty(cc.IPHash), nullIfEmpty(cc.UserAgent), time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to insert attendance: %w", err)
	}

	var a models.Attendance
	err = db.QueryRowContext(ctx, `
		SELECT id, event_id, user_id, method, ip_hash, user_agent, created_at
		FROM attendance
		WHERE event_id = $1 AND user_id = $2
	`, eventID, userID).Scan(&a.ID, &a.EventID, &a.UserID, &a.Method, &a.IPHash, &a.UserAgent, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance: %w", err)
	}

	if a.ID == id {
		slog.Info("attendance recorded", "event_id", eventID, "user_id", userID, "method", cc.Method)
	}
	return &a, nil
}

// lookupEvent reports whether the event exists
func lookupEvent(ctx context.Context, db *sql.DB, eventID string) error {
	var exists int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM events WHERE id = $1`, eventID).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrEventNotFound
	}
	return err
}

// checkInContext captures who scanned and from where
func checkInContext(r *http.Request, cfg cliparse.Config, method string) models.CheckInContext {
	return models.CheckInContext{
		Method:    method,
		IPHash:    auth.HashIP(middleware.GetClientIP(r), cfg.IPHashSalt),
		UserAgent: r.UserAgent(),
	}
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type AttendanceHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewAttendanceHandler(db *sql.DB, cfg cliparse.Config) *AttendanceHandler {
	return &AttendanceHandler{db: db, cfg: cfg}
}

// ListAttendance handles GET /events/{id}/attendance
func (h *AttendanceHandler) ListAttendance(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "event")
	if !ok {
		return
	}

	if err := lookupEvent(r.Context(), h.db, eventID); err != nil {
		if errors.Is(err, ErrEventNotFound) {
			middleware.ErrorResponse(w, http.StatusNotFound, "Event not found")
			return
		}
		slog.Error("failed to query event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT a.id, u.id, u.rank, u.full_name, u.afpsn, u.bos, a.method, a.created_at
		FROM attendance a
		JOIN users u ON u.id = a.user_id
		WHERE a.event_id = $1
		ORDER BY a.created_at ASC, a.id ASC
	`, eventID)
	if err != nil {
		slog.Error("failed to query attendance", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	attendees := []models.Attendee{}
	for rows.Next() {
		var a models.Attendee
		if err := rows.Scan(&a.AttendanceID, &a.UserID, &a.Rank, &a.FullName, &a.AFPSN, &a.BOS, &a.Method, &a.CheckedInAt); err != nil {
			slog.Error("failed to scan attendee", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		attendees = append(attendees, a)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read attendance", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.DataResponse(w, http.StatusOK, attendees)
}

// pathID reads the {id} path value and writes 400 unless it is a UUID.
func pathID(w http.ResponseWriter, r *http.Request, kind string) (string, bool) {
	id, err := auth.ParseID(r.PathValue("id"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid "+kind+" id")
		return "", false
	}
	return id, true
}

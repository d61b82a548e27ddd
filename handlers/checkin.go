// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/checkpoint/auth"
	"github.com/danielhkuo/checkpoint/cliparse"
	"github.com/danielhkuo/checkpoint/facegate"
	"github.com/danielhkuo/checkpoint/middleware"
	"github.com/danielhkuo/checkpoint/models"
	"github.com/danielhkuo/checkpoint/qrcodec"
)

type CheckInHandler struct {
	db    *sql.DB
	cfg   cliparse.Config
	codec *qrcodec.Codec
}

func NewCheckInHandler(db *sql.DB, cfg cliparse.Config, codec *qrcodec.Codec) *CheckInHandler {
	return &CheckInHandler{db: db, cfg: cfg, codec: codec}
}

// Encrypt handles POST /encrypt
// Turns an identity record into the string rendered as the user's QR code
func (h *CheckInHandler) Encrypt(w http.ResponseWriter, r *http.Request) {
	var payload qrcodec.Payload
	if err := middleware.ParseJSONBody(r, &payload); err != nil || payload == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if h.codec.ID(payload) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "id is required")
		return
	}

	encrypted, err := h.codec.Encode(payload)
	if err != nil {
		slog.Error("failed to encode QR payload", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to encrypt")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.EncryptResponse{Encrypted: encrypted})
}

// Decrypt handles POST /decrypt
// Resolves a scanned QR code to a user and, with an eventId, checks them in
func (h *CheckInHandler) Decrypt(w http.ResponseWriter, r *http.Request) {
	var req models.DecryptRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Encrypted == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "encrypted is required")
		return
	}

	payload, err := h.codec.Decode(req.Encrypted)
	if err != nil {
		var de *qrcodec.DecodeError
		if errors.As(err, &de) {
			slog.Info("rejected QR payload", "reason", de.Reason)
		}
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid QR code")
		return
	}

	userID, err := auth.ParseID(h.codec.ID(payload))
	if err != nil {
		slog.Info("rejected QR payload", "reason", "malformed user id")
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid QR code")
		return
	}

	// The payload only names the user; the users table is the authority
	user, err := loadUser(r.Context(), h.db, userID)
	if errors.Is(err, ErrUserNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	resp := models.CheckInResponse{
		ID:       user.ID,
		Rank:     user.Rank,
		FullName: user.FullName,
		AFPSN:    user.AFPSN,
		BOS:      user.BOS,
	}

	if req.EventID == "" {
		middleware.DataResponse(w, http.StatusOK, resp)
		return
	}
	if req.EventID, err = auth.ParseID(req.EventID); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid event id")
		return
	}

	if err := lookupEvent(r.Context(), h.db, req.EventID); err != nil {
		if errors.Is(err, ErrEventNotFound) {
			middleware.ErrorResponse(w, http.StatusNotFound, "Event not found")
			return
		}
		slog.Error("failed to query event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	attendance, err := RecordAttendance(r.Context(), h.db, req.EventID, user.ID, checkInContext(r, h.cfg, models.MethodQR))
	if err != nil {
		slog.Error("failed to record attendance", "error", err, "event_id", req.EventID, "user_id", user.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to process attendance")
		return
	}
	resp.Attendance = attendance

	middleware.DataResponse(w, http.StatusOK, resp)
}

// Scan handles POST /users/scan
// Checks in the user whose stored face map matches the captured descriptor
func (h *CheckInHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req models.ScanRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.FaceMap) == 0 || req.EventID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "face_map and eventId are required")
		return
	}
	if msg := validateFaceMap(req.FaceMap); msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}
	eventID, err := auth.ParseID(req.EventID)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid event id")
		return
	}
	req.EventID = eventID

	if err := lookupEvent(r.Context(), h.db, req.EventID); err != nil {
		if errors.Is(err, ErrEventNotFound) {
			middleware.ErrorResponse(w, http.StatusNotFound, "Event not found")
			return
		}
		slog.Error("failed to query event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	match, err := FindUserByFaceMap(r.Context(), h.db, facegate.Normalize(req.FaceMap), h.cfg.FaceThreshold, h.cfg.FaceMargin)
	if err != nil {
		slog.Error("failed to match face map", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to process attendance")
		return
	}
	if match == nil {
		middleware.DataResponse(w, http.StatusOK, nil)
		return
	}

	attendance, err := RecordAttendance(r.Context(), h.db, req.EventID, match.UserID, checkInContext(r, h.cfg, models.MethodFace))
	if err != nil {
		slog.Error("failed to record attendance", "error", err, "event_id", req.EventID, "user_id", match.UserID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to process attendance")
		return
	}

	slog.Info("face check-in", "event_id", req.EventID, "user_id", match.UserID, "distance", match.Distance)

	middleware.DataResponse(w, http.StatusCreated, attendance)
}

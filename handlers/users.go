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
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/danielhkuo/checkpoint/auth"
	"github.com/danielhkuo/checkpoint/cliparse"
	"github.com/danielhkuo/checkpoint/facegate"
	"github.com/danielhkuo/checkpoint/middleware"
	"github.com/danielhkuo/checkpoint/models"
)

var ErrUserNotFound = errors.New("user not found")

type UserHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewUserHandler(db *sql.DB, cfg cliparse.Config) *UserHandler {
	return &UserHandler{db: db, cfg: cfg}
}

// CreateUser handles POST /users
// A face map that matches an existing user returns that user instead of a duplicate
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Rank = strings.TrimSpace(req.Rank)
	req.FullName = strings.TrimSpace(req.FullName)
	req.AFPSN = strings.TrimSpace(req.AFPSN)
	req.BOS = strings.TrimSpace(req.BOS)

	if msg := validateUserFields(req.Rank, req.FullName, req.AFPSN, req.BOS); msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}
	if msg := validateFaceMap(req.FaceMap); msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	var faceMap facegate.Descriptor
	if len(req.FaceMap) > 0 {
		faceMap = facegate.Normalize(req.FaceMap)

		match, err := FindUserByFaceMap(r.Context(), h.db, faceMap, h.cfg.FaceThreshold, h.cfg.FaceMargin)
		if err != nil {
			slog.Error("failed to match face map", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create user")
			return
		}
		if match != nil {
			slog.Info("registration matched existing user", "user_id", match.UserID, "distance", match.Distance)
			middleware.DataResponse(w, http.StatusOK, models.ExistingUserResponse{
				ID:    match.UserID,
				QRVal: match.QRVal,
			})
			return
		}
	}

	encoded, err := encodeFaceMap(faceMap)
	if err != nil {
		slog.Error("failed to encode face map", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	userID, err := auth.NewID()
	if err != nil {
		slog.Error("failed to generate user ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	now := time.Now().UTC()
	_, err = h.db.Exec(`
		INSERT INTO users (id, rank, full_name, afpsn, bos, face_map, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, userID, req.Rank, req.FullName, req.AFPSN, req.BOS, encoded, now, now)
	if err != nil {
		slog.Error("failed to insert user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	slog.Info("user created", "user_id", userID, "has_face_map", encoded != nil)

	middleware.DataResponse(w, http.StatusCreated, models.IDResponse{ID: userID})
}

// PatchUser handles PATCH /users
// Only fields present in the body are changed
func (h *UserHandler) PatchUser(w http.ResponseWriter, r *http.Request) {
	var req models.PatchUserRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.ID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "id is required")
		return
	}
	id, err := auth.ParseID(req.ID)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	req.ID = id

	var sets []string
	var args []interface{}
	set := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}

	for _, f := range []struct {
		col string
		val *string
		min int
	}{
		{"rank", req.Rank, 1},
		{"full_name", req.FullName, 2},
		{"afpsn", req.AFPSN, 1},
		{"bos", req.BOS, 1},
	} {
		if f.val == nil {
			continue
		}
		v := strings.TrimSpace(*f.val)
		if utf8.RuneCountInString(v) < f.min {
			middleware.ErrorResponse(w, http.StatusBadRequest, f.col+" is too short")
			return
		}
		set(f.col, v)
	}
	if req.QRVal != nil {
		set("qr_val", nullIfEmpty(*req.QRVal))
	}
	if req.FaceMap != nil {
		if msg := validateFaceMap(req.FaceMap); msg != "" {
			middleware.ErrorResponse(w, http.StatusBadRequest, msg)
			return
		}
		encoded, err := encodeFaceMap(facegate.Normalize(req.FaceMap))
		if err != nil {
			slog.Error("failed to encode face map", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update user")
			return
		}
		set("face_map", encoded)
	}

	if len(sets) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "no fields to update")
		return
	}
	set("updated_at", time.Now().UTC())

	args = append(args, req.ID)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	result, err := h.db.Exec(query, args...)
	if err != nil {
		slog.Error("failed to update user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update user")
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}

	slog.Info("user updated", "user_id", req.ID, "fields", len(sets)-1)

	middleware.DataResponse(w, http.StatusOK, models.IDResponse{ID: req.ID})
}

// GetUser handles GET /users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "user")
	if !ok {
		return
	}

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

	middleware.DataResponse(w, http.StatusOK, user)
}

func loadUser(ctx context.Context, db *sql.DB, userID string) (*models.User, error) {
	var u models.User
	err := db.QueryRowContext(ctx, `
		SELECT id, rank, full_name, afpsn, bos, qr_val,
		       face_map IS NOT NULL AND face_map <> '', created_at, updated_at
		FROM users
		WHERE id = $1
	`, userID).Scan(&u.ID, &u.Rank, &u.FullName, &u.AFPSN, &u.BOS, &u.QRVal, &u.HasFaceMap, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// validateUserFields returns a message for the first invalid field, or ""
func validateUserFields(rank, fullName, afpsn, bos string) string {
	switch {
	case rank == "":
		return "rank is required"
	case utf8.RuneCountInString(fullName) < 2:
		return "full_name must be at least 2 characters"
	case afpsn == "":
		return "afpsn is required"
	case bos == "":
		return "bos is required"
	}
	return ""
}

func validateFaceMap(faceMap []float64) string {
	if len(faceMap) != 0 && len(faceMap) != facegate.DescriptorSize {
		return fmt.Sprintf("face_map must have %d values", facegate.DescriptorSize)
	}
	return ""
}

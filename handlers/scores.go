// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/danielhkuo/checkpoint/auth"
	"github.com/danielhkuo/checkpoint/cliparse"
	"github.com/danielhkuo/checkpoint/middleware"
	"github.com/danielhkuo/checkpoint/models"
)

type ScoreHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewScoreHandler(db *sql.DB, cfg cliparse.Config) *ScoreHandler {
	return &ScoreHandler{db: db, cfg: cfg}
}

// GetScores handles GET /scores
// Clients poll with If-None-Match; the ETag is the newest updated_at in ms
func (h *ScoreHandler) GetScores(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`
		SELECT game, white, blue, gold, updated_at
		FROM scores
		ORDER BY game ASC
	`)
	if err != nil {
		slog.Error("failed to query scores", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to fetch scores")
		return
	}
	defer rows.Close()

	board := models.Scoreboard{Scores: map[string]models.TeamScores{}}
	for rows.Next() {
		var game string
		var s models.TeamScores
		var updatedAt time.Time
		if err := rows.Scan(&game, &s.White, &s.Blue, &s.Gold, &updatedAt); err != nil {
			slog.Error("failed to scan score", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to fetch scores")
			return
		}
		board.Scores[game] = s
		board.Totals.White += s.White
		board.Totals.Blue += s.Blue
		board.Totals.Gold += s.Gold
		if ms := updatedAt.UnixMilli(); ms > board.LastUpdated {
			board.LastUpdated = ms
		}
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read scores", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to fetch scores")
		return
	}
	board.Leaderboard = rankTeams(board.Totals)

	etag := fmt.Sprintf(`"%d"`, board.LastUpdated)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("ETag", etag)

	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	middleware.DataResponse(w, http.StatusOK, board)
}

// SetScore handles POST /scores/set
// Sets one team's points for a game, creating the game row if needed
func (h *ScoreHandler) SetScore(w http.ResponseWriter, r *http.Request) {
	var req models.SetScoreRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Game = strings.TrimSpace(req.Game)
	if req.Game == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "game is required")
		return
	}
	if !isValidTeam(req.Team) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "team must be one of: white, blue, gold")
		return
	}
	if req.Value == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "value is required")
		return
	}
	if *req.Value < 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "value must not be negative")
		return
	}

	rowID, err := auth.NewID()
	if err != nil {
		slog.Error("failed to generate score ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to set score")
		return
	}

	// req.Team is one of the column names checked above
	now := time.Now().UTC()
	_, err = h.db.Exec(fmt.Sprintf(`
		INSERT INTO scores (id, game, %[1]s, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (game) DO UPDATE SET %[1]s = excluded.%[1]s, updated_at = excluded.updated_at
	`, req.Team), rowID, req.Game, *req.Value, now, now)
	if err != nil {
		slog.Error("failed to upsert score", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to set score")
		return
	}

	var id string
	if err := h.db.QueryRow(`SELECT id FROM scores WHERE game = $1`, req.Game).Scan(&id); err != nil {
		slog.Error("failed to load score", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to set score")
		return
	}

	slog.Info("score set", "game", req.Game, "team", req.Team, "value", *req.Value)

	middleware.DataResponse(w, http.StatusCreated, models.IDResponse{ID: id})
}

// ResetScores handles PUT /scores/reset
func (h *ScoreHandler) ResetScores(w http.ResponseWriter, r *http.Request) {
	_, err := h.db.Exec(`
		UPDATE scores SET white = 0, blue = 0, gold = 0, updated_at = $1
	`, time.Now().UTC())
	if err != nil {
		slog.Error("failed to reset scores", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to reset scores")
		return
	}

	rows, err := h.db.Query(`SELECT id FROM scores ORDER BY game ASC`)
	if err != nil {
		slog.Error("failed to query scores", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to reset scores")
		return
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			slog.Error("failed to scan score id", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to reset scores")
			return
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read scores", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to reset scores")
		return
	}

	slog.Info("scores reset", "games", len(ids))

	middleware.DataResponse(w, http.StatusCreated, models.IDsResponse{IDs: ids})
}

// rankTeams orders teams by total points. Ties share a rank (1, 1, 3) and
// keep the fixed team order.
func rankTeams(t models.TeamScores) []models.TeamStanding {
	points := map[string]int{
		models.TeamWhite: t.White,
		models.TeamBlue:  t.Blue,
		models.TeamGold:  t.Gold,
	}

	standings := make([]models.TeamStanding, 0, len(models.Teams))
	for _, team := range models.Teams {
		standings = append(standings, models.TeamStanding{Team: team, Points: points[team]})
	}
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Points > standings[j].Points
	})

	for i := range standings {
		if i > 0 && standings[i].Points == standings[i-1].Points {
			standings[i].Rank = standings[i-1].Rank
		} else {
			standings[i].Rank = i + 1
		}
	}
	return standings
}

func isValidTeam(team string) bool {
	for _, t := range models.Teams {
		if team == t {
			return true
		}
	}
	return false
}

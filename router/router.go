// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/checkpoint/cliparse"
	"github.com/danielhkuo/checkpoint/handlers"
	"github.com/danielhkuo/checkpoint/middleware"
	"github.com/danielhkuo/checkpoint/qrcodec"
)

func NewRouter(db *sql.DB, cfg cliparse.Config, codec *qrcodec.Codec) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	userHandler := handlers.NewUserHandler(db, cfg)
	checkInHandler := handlers.NewCheckInHandler(db, cfg, codec)
	eventHandler := handlers.NewEventHandler(db, cfg)
	attendanceHandler := handlers.NewAttendanceHandler(db, cfg)
	scoreHandler := handlers.NewScoreHandler(db, cfg)

	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAdmin(cfg.AdminKey, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Registration (public)
	mux.HandleFunc("POST /users", middleware.WithLogging(userHandler.CreateUser))
	mux.HandleFunc("PATCH /users", middleware.WithLogging(userHandler.PatchUser))
	mux.HandleFunc("POST /encrypt", middleware.WithLogging(checkInHandler.Encrypt))

	// Check-in (admin scanner)
	mux.HandleFunc("POST /decrypt", admin(checkInHandler.Decrypt))
	mux.HandleFunc("POST /users/scan", admin(checkInHandler.Scan))
	mux.HandleFunc("GET /users/{id}", admin(userHandler.GetUser))

	// Events (admin)
	mux.HandleFunc("GET /events", admin(eventHandler.ListEvents))
	mux.HandleFunc("POST /events", admin(eventHandler.CreateEvent))
	mux.HandleFunc("GET /events/{id}", admin(eventHandler.GetEvent))
	mux.HandleFunc("PATCH /events/{id}", admin(eventHandler.PatchEvent))
	mux.HandleFunc("GET /events/{id}/attendance", admin(attendanceHandler.ListAttendance))

	// Scoreboard (public read, admin write)
	mux.HandleFunc("GET /scores", middleware.WithLogging(scoreHandler.GetScores))
	mux.HandleFunc("POST /scores/set", admin(scoreHandler.SetScore))
	mux.HandleFunc("PUT /scores/reset", admin(scoreHandler.ResetScores))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("checkpoint API v1"))
	})

	return mux
}

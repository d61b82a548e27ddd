// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/danielhkuo/checkpoint/auth"
	"github.com/danielhkuo/checkpoint/cliparse"
	"github.com/danielhkuo/checkpoint/middleware"
	"github.com/danielhkuo/checkpoint/models"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
	recentWindow   = 7 * 24 * time.Hour
)

// Sortable columns; anything else is rejected before it reaches SQL
var eventSortColumns = map[string]string{
	"created_at": "created_at",
	"start_date": "start_date",
	"end_date":   "end_date",
	"name":       "name",
}

const eventColumns = `id, name, activity, committee, description, start_date, end_date, created_at, updated_at`

type EventHandler struct {
	db  *sql.DB
	cfg cliparse.Config
	now func() time.Time
}

func NewEventHandler(db *sql.DB, cfg cliparse.Config) *EventHandler {
	return &EventHandler{db: db, cfg: cfg, now: time.Now}
}

type eventQuery struct {
	page       int
	perPage    int
	searchTerm string
	filter     string
	sortBy     string
	ascending  bool
}

func parseEventQuery(q url.Values) (eventQuery, string) {
	eq := eventQuery{
		page:      1,
		perPage:   defaultPerPage,
		filter:    models.FilterAll,
		sortBy:    "created_at",
		ascending: true,
	}

	if s := q.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return eq, "page must be a positive integer"
		}
		eq.page = n
	}
	if s := q.Get("perPage"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxPerPage {
			return eq, fmt.Sprintf("perPage must be between 1 and %d", maxPerPage)
		}
		eq.perPage = n
	}
	eq.searchTerm = strings.TrimSpace(q.Get("searchTerm"))

	if s := q.Get("filter"); s != "" {
		switch s {
		case models.FilterAll, models.FilterRecent, models.FilterToday, models.FilterUpcoming:
			eq.filter = s
		default:
			return eq, "filter must be one of: all, recent, today, upcoming"
		}
	}
	if s := q.Get("sortBy"); s != "" {
		if _, ok := eventSortColumns[s]; !ok {
			return eq, "sortBy must be one of: created_at, start_date, end_date, name"
		}
		eq.sortBy = s
	}
	if s := q.Get("ascending"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return eq, "ascending must be true or false"
		}
		eq.ascending = b
	}

	return eq, ""
}

// ListEvents handles GET /events
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	eq, msg := parseEventQuery(r.URL.Query())
	if msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	var where []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if eq.searchTerm != "" {
		pattern := "%" + strings.ToLower(eq.searchTerm) + "%"
		where = append(where, fmt.Sprintf(
			"(LOWER(name) LIKE %s OR LOWER(activity) LIKE %s OR LOWER(COALESCE(description, '')) LIKE %s)",
			arg(pattern), arg(pattern), arg(pattern)))
	}

	now := h.now().UTC().Truncate(time.Second)
	switch eq.filter {
	case models.FilterRecent:
		where = append(where, fmt.Sprintf("end_date <= %s AND end_date >= %s", arg(now), arg(now.Add(-recentWindow))))
	case models.FilterToday:
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		dayEnd := dayStart.Add(24*time.Hour - time.Second)
		where = append(where, fmt.Sprintf("start_date <= %s AND end_date >= %s", arg(dayEnd), arg(dayStart)))
	case models.FilterUpcoming:
		where = append(where, fmt.Sprintf("start_date > %s", arg(now)))
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := h.db.QueryRow("SELECT COUNT(*) FROM events "+whereSQL, args...).Scan(&total); err != nil {
		slog.Error("failed to count events", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to fetch events")
		return
	}

	page := models.EventPage{
		Docs:       []models.Event{},
		Total:      total,
		Page:       eq.page,
		PerPage:    eq.perPage,
		TotalPages: (total + eq.perPage - 1) / eq.perPage,
	}

	offset := (eq.page - 1) * eq.perPage
	if total == 0 || offset >= total {
		middleware.DataResponse(w, http.StatusOK, page)
		return
	}

	dir := "ASC"
	if !eq.ascending {
		dir = "DESC"
	}
	query := fmt.Sprintf("SELECT %s FROM events %s ORDER BY %s %s, id ASC LIMIT %s OFFSET %s",
		eventColumns, whereSQL, eventSortColumns[eq.sortBy], dir, arg(eq.perPage), arg(offset))

	rows, err := h.db.Query(query, args...)
	if err != nil {
		slog.Error("failed to query events", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to fetch events")
		return
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			slog.Error("failed to scan event", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to fetch events")
			return
		}
		page.Docs = append(page.Docs, e)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read events", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to fetch events")
		return
	}

	middleware.DataResponse(w, http.StatusOK, page)
}

// GetEvent handles GET /events/{id}
// A missing event is {"data": null}, not 404
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "event")
	if !ok {
		return
	}

	row := h.db.QueryRow("SELECT "+eventColumns+" FROM events WHERE id = $1", eventID)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		middleware.DataResponse(w, http.StatusOK, nil)
		return
	}
	if err != nil {
		slog.Error("failed to query event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.DataResponse(w, http.StatusOK, e)
}

// CreateEvent handles POST /events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEventRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Activity = strings.TrimSpace(req.Activity)
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Activity == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "activity is required")
		return
	}

	start, end, msg := h.parseEventDates(req.StartDate, req.EndDate, true)
	if msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	eventID, err := auth.NewID()
	if err != nil {
		slog.Error("failed to generate event ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create event")
		return
	}

	now := h.now().UTC()
	_, err = h.db.Exec(`
		INSERT INTO events (id, name, activity, committee, description, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, eventID, req.Name, req.Activity, req.Committee, req.Description, start, end, now, now)
	if err != nil {
		slog.Error("failed to insert event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create event")
		return
	}

	slog.Info("event created", "event_id", eventID, "name", req.Name)

	middleware.DataResponse(w, http.StatusCreated, models.IDResponse{ID: eventID})
}

// PatchEvent handles PATCH /events/{id}
func (h *EventHandler) PatchEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "event")
	if !ok {
		return
	}

	var req models.PatchEventRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	row := h.db.QueryRow("SELECT "+eventColumns+" FROM events WHERE id = $1", eventID)
	current, err := scanEvent(row)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		slog.Error("failed to query event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if req.Name != nil {
		if *req.Name = strings.TrimSpace(*req.Name); *req.Name == "" {
			middleware.ErrorResponse(w, http.StatusBadRequest, "name cannot be empty")
			return
		}
		current.Name = *req.Name
	}
	if req.Activity != nil {
		if *req.Activity = strings.TrimSpace(*req.Activity); *req.Activity == "" {
			middleware.ErrorResponse(w, http.StatusBadRequest, "activity cannot be empty")
			return
		}
		current.Activity = *req.Activity
	}
	if req.Committee != nil {
		current.Committee = nullIfEmpty(*req.Committee)
	}
	if req.Description != nil {
		current.Description = nullIfEmpty(*req.Description)
	}

	// Date rules only apply when a date changes
	if req.StartDate != nil || req.EndDate != nil {
		startStr := current.StartDate.Format(time.RFC3339)
		endStr := current.EndDate.Format(time.RFC3339)
		if req.StartDate != nil {
			startStr = *req.StartDate
		}
		if req.EndDate != nil {
			endStr = *req.EndDate
		}
		start, end, msg := h.parseEventDates(startStr, endStr, req.StartDate != nil)
		if msg != "" {
			middleware.ErrorResponse(w, http.StatusBadRequest, msg)
			return
		}
		current.StartDate, current.EndDate = start, end
	}

	_, err = h.db.Exec(`
		UPDATE events
		SET name = $1, activity = $2, committee = $3, description = $4,
		    start_date = $5, end_date = $6, updated_at = $7
		WHERE id = $8
	`, current.Name, current.Activity, current.Committee, current.Description,
		current.StartDate, current.EndDate, h.now().UTC(), eventID)
	if err != nil {
		slog.Error("failed to update event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update event")
		return
	}

	slog.Info("event updated", "event_id", eventID)

	middleware.DataResponse(w, http.StatusOK, models.IDResponse{ID: eventID})
}

// parseEventDates parses RFC 3339 start/end and applies the scheduling rules.
// A start in the past is only rejected when checkPast is set, so an event
// already under way can still have its end moved.
// Times are stored in UTC at second precision.
func (h *EventHandler) parseEventDates(startStr, endStr string, checkPast bool) (time.Time, time.Time, string) {
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, "start_date must be a valid RFC 3339 datetime"
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, "end_date must be a valid RFC 3339 datetime"
	}
	start = start.UTC().Truncate(time.Second)
	end = end.UTC().Truncate(time.Second)

	if !end.After(start) {
		return time.Time{}, time.Time{}, "end_date must be after start_date"
	}
	if checkPast && start.Before(h.now().UTC().Truncate(time.Second)) {
		return time.Time{}, time.Time{}, "start_date must not be in the past"
	}
	return start, end, ""
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.Name, &e.Activity, &e.Committee, &e.Description,
		&e.StartDate, &e.EndDate, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return models.Event{}, err
	}
	e.StartDate = e.StartDate.UTC()
	e.EndDate = e.EndDate.UTC()
	return e, nil
}

package models

import "time"

// Check-in method constants
const (
	MethodQR   = "qr"
	MethodFace = "face"
)

// Scoreboard teams, in display order
const (
	TeamWhite = "white"
	TeamBlue  = "blue"
	TeamGold  = "gold"
)

var Teams = []string{TeamWhite, TeamBlue, TeamGold}

// Event list filters
const (
	FilterAll      = "all"
	FilterRecent   = "recent"
	FilterToday    = "today"
	FilterUpcoming = "upcoming"
)

// Request types

type CreateUserRequest struct {
	Rank     string    `json:"rank"`
	FullName string    `json:"full_name"`
	AFPSN    string    `json:"afpsn"`
	BOS      string    `json:"bos"`
	FaceMap  []float64 `json:"face_map,omitempty"`
}

// Nil fields are left unchanged
type PatchUserRequest struct {
	ID       string    `json:"id"`
	Rank     *string   `json:"rank,omitempty"`
	FullName *string   `json:"full_name,omitempty"`
	AFPSN    *string   `json:"afpsn,omitempty"`
	BOS      *string   `json:"bos,omitempty"`
	QRVal    *string   `json:"qr_val,omitempty"`
	FaceMap  []float64 `json:"face_map,omitempty"`
}

type DecryptRequest struct {
	Encrypted string `json:"encrypted"`
	EventID   string `json:"eventId,omitempty"`
}

type ScanRequest struct {
	FaceMap []float64 `json:"face_map"`
	EventID string    `json:"eventId"`
}

// Dates are RFC 3339
type CreateEventRequest struct {
	Name        string  `json:"name"`
	Activity    string  `json:"activity"`
	Committee   *string `json:"committee,omitempty"`
	Description *string `json:"description,omitempty"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
}

type PatchEventRequest struct {
	Name        *string `json:"name,omitempty"`
	Activity    *string `json:"activity,omitempty"`
	Committee   *string `json:"committee,omitempty"`
	Description *string `json:"description,omitempty"`
	StartDate   *string `json:"start_date,omitempty"`
	EndDate     *string `json:"end_date,omitempty"`
}

type SetScoreRequest struct {
	Game  string `json:"game"`
	Team  string `json:"team"`
	Value *int   `json:"value"`
}

// Response types

// DataResponse is the success envelope: {"data": ...}
type DataResponse struct {
	Data interface{} `json:"data"`
}

type IDResponse struct {
	ID string `json:"id"`
}

type IDsResponse struct {
	IDs []string `json:"ids"`
}

type EncryptResponse struct {
	Encrypted string `json:"encrypted"`
}

// ExistingUserResponse is returned when a registration matches a known face
type ExistingUserResponse struct {
	ID    string  `json:"id"`
	QRVal *string `json:"qr_val"`
}

type CheckInResponse struct {
	ID         string      `json:"id"`
	Rank       string      `json:"rank"`
	FullName   string      `json:"full_name"`
	AFPSN      string      `json:"afpsn"`
	BOS        string      `json:"bos"`
	Attendance *Attendance `json:"attendance,omitempty"`
}

type EventPage struct {
	Docs       []Event `json:"docs"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	PerPage    int     `json:"perPage"`
	TotalPages int     `json:"totalPages"`
}

type TeamScores struct {
	White int `json:"white"`
	Blue  int `json:"blue"`
	Gold  int `json:"gold"`
}

type TeamStanding struct {
	Team   string `json:"team"`
	Points int    `json:"points"`
	Rank   int    `json:"rank"` // 1-indexed, ties share a rank
}

type Scoreboard struct {
	Scores      map[string]TeamScores `json:"scores"`
	Totals      TeamScores            `json:"totals"`
	Leaderboard []TeamStanding        `json:"leaderboard"`
	LastUpdated int64                 `json:"last_updated"` // unix ms
}

// Domain types

type User struct {
	ID         string    `json:"id"`
	Rank       string    `json:"rank"`
	FullName   string    `json:"full_name"`
	AFPSN      string    `json:"afpsn"`
	BOS        string    `json:"bos"`
	QRVal      *string   `json:"qr_val,omitempty"`
	HasFaceMap bool      `json:"has_face_map"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Event struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Activity    string    `json:"activity"`
	Committee   *string   `json:"committee,omitempty"`
	Description *string   `json:"description,omitempty"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Attendance struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	Method    string    `json:"method"`
	IPHash    *string   `json:"-"` // Never expose in JSON
	UserAgent *string   `json:"-"` // Never expose in JSON
	CreatedAt time.Time `json:"created_at"`
}

// CheckInContext describes how a check-in was made
type CheckInContext struct {
	Method    string
	IPHash    string
	UserAgent string
}

type Attendee struct {
	AttendanceID string    `json:"attendance_id"`
	UserID       string    `json:"user_id"`
	Rank         string    `json:"rank"`
	FullName     string    `json:"full_name"`
	AFPSN        string    `json:"afpsn"`
	BOS          string    `json:"bos"`
	Method       string    `json:"method"`
	CheckedInAt  time.Time `json:"checked_in_at"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

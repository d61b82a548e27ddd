// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/checkpoint/auth"
	"github.com/danielhkuo/checkpoint/cliparse"
	"github.com/danielhkuo/checkpoint/db"
	"github.com/danielhkuo/checkpoint/qrcodec"
)

// TestAdminKey is the admin key in GetTestConfig
const TestAdminKey = "test-admin-key"

// UnknownID is a well-formed UUID that no fixture uses.
const UnknownID = "00000000-0000-4000-8000-000000000000"

// SetupTestDB opens a private in-memory SQLite database with the full schema.
// The database is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          cliparse.DefaultPort,
		DatabaseURL:   ":memory:",
		DatabaseType:  db.TypeSQLite,
		AdminKey:      TestAdminKey,
		QRSecret:      "test-qr-secret-0123456789",
		IPHashSalt:    "test-ip-salt",
		FaceThreshold: cliparse.DefaultFaceThreshold,
		FaceMargin:    cliparse.DefaultFaceMargin,
	}
}

// NewTestCodec builds the QR codec for cfg
func NewTestCodec(t *testing.T, cfg cliparse.Config) *qrcodec.Codec {
	t.Helper()

	codec, err := qrcodec.New([]byte(cfg.QRSecret))
	if err != nil {
		t.Fatalf("Failed to create codec: %v", err)
	}
	return codec
}

// AdminHeaders returns the headers an admin client sends
func AdminHeaders() map[string]string {
	return map[string]string{"X-Admin-Key": TestAdminKey}
}

// FaceMap returns a unit-length descriptor that points mostly along axis.
// Distinct axes give descriptors about 1.4 apart.
func FaceMap(axis int) []float64 {
	d := make([]float64, 128)
	d[axis%len(d)] = 1
	return d
}

// CreateTestUser inserts a user and returns its ID. faceMap may be nil.
func CreateTestUser(t *testing.T, conn *sql.DB, fullName string, faceMap []float64) string {
	t.Helper()

	userID, err := auth.NewID()
	if err != nil {
		t.Fatalf("Failed to generate user ID: %v", err)
	}

	var encoded *string
	if len(faceMap) > 0 {
		b, _ := json.Marshal(faceMap)
		s := string(b)
		encoded = &s
	}

	now := time.Now().UTC()
	_, err = conn.Exec(`
		INSERT INTO users (id, rank, full_name, afpsn, bos, face_map, created_at, updated_at)
		VALUES ($1, 'Sgt', $2, 'AFP-0001', 'Infantry', $3, $4, $5)
	`, userID, fullName, encoded, now, now)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return userID
}

// CreateTestEvent inserts an event spanning start..end and returns its ID
func CreateTestEvent(t *testing.T, conn *sql.DB, name string, start, end time.Time) string {
	t.Helper()

	eventID, err := auth.NewID()
	if err != nil {
		t.Fatalf("Failed to generate event ID: %v", err)
	}

	now := time.Now().UTC()
	_, err = conn.Exec(`
		INSERT INTO events (id, name, activity, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, 'Drill', $3, $4, $5, $6)
	`, eventID, name, start.UTC(), end.UTC(), now, now)
	if err != nil {
		t.Fatalf("Failed to create test event: %v", err)
	}

	return eventID
}

// SetTestScore writes a full score row for game
func SetTestScore(t *testing.T, conn *sql.DB, game string, white, blue, gold int, updatedAt time.Time) string {
	t.Helper()

	scoreID, err := auth.NewID()
	if err != nil {
		t.Fatalf("Failed to generate score ID: %v", err)
	}

	_, err = conn.Exec(`
		INSERT INTO scores (id, game, white, blue, gold, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, scoreID, game, white, blue, gold, updatedAt.UTC(), updatedAt.UTC())
	if err != nil {
		t.Fatalf("Failed to create test score: %v", err)
	}

	return scoreID
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

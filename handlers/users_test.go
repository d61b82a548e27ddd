// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/checkpoint/models"
	"github.com/danielhkuo/checkpoint/testutil"
)

// decodeData unwraps the {"data": ...} envelope into v
func decodeData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	testutil.AssertJSON(t, w, &env)
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("Failed to decode data %s: %v", env.Data, err)
	}
}

func TestCreateUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewUserHandler(db, testutil.GetTestConfig())

	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
	}{
		{
			name: "valid user without face map",
			body: models.CreateUserRequest{
				Rank: "Sgt", FullName: "Juan Dela Cruz", AFPSN: "AFP-1234", BOS: "Infantry",
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "valid user with face map",
			body: models.CreateUserRequest{
				Rank: "Cpl", FullName: "Maria Clara", AFPSN: "AFP-5678", BOS: "Signal",
				FaceMap: testutil.FaceMap(3),
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing rank",
			body:           models.CreateUserRequest{FullName: "Juan Dela Cruz", AFPSN: "AFP-1", BOS: "Infantry"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "short name",
			body:           models.CreateUserRequest{Rank: "Sgt", FullName: "J", AFPSN: "AFP-1", BOS: "Infantry"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "whitespace afpsn",
			body:           models.CreateUserRequest{Rank: "Sgt", FullName: "Juan", AFPSN: "   ", BOS: "Infantry"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "wrong face map length",
			body: models.CreateUserRequest{
				Rank: "Sgt", FullName: "Juan", AFPSN: "AFP-1", BOS: "Infantry", FaceMap: []float64{0.1, 0.2},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			body:           "not json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/users", tt.body, nil)
			w := httptest.NewRecorder()

			h.CreateUser(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus == http.StatusCreated {
				var resp models.IDResponse
				decodeData(t, w, &resp)
				if resp.ID == "" {
					t.Error("Expected user ID in response")
				}
			}
		})
	}
}

func TestCreateUser_FaceMatchReturnsExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewUserHandler(db, testutil.GetTestConfig())

	existingID := testutil.CreateTestUser(t, db, "Juan Dela Cruz", testutil.FaceMap(7))
	qr := "qr-payload"
	if _, err := db.Exec(`UPDATE users SET qr_val = $1 WHERE id = $2`, qr, existingID); err != nil {
		t.Fatalf("Failed to set qr_val: %v", err)
	}

	// Same face, scaled: normalization makes it identical
	face := testutil.FaceMap(7)
	face[7] = 3
	req := testutil.MakeRequest("POST", "/users", models.CreateUserRequest{
		Rank: "Sgt", FullName: "Juan D. Cruz", AFPSN: "AFP-1234", BOS: "Infantry", FaceMap: face,
	}, nil)
	w := httptest.NewRecorder()

	h.CreateUser(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ExistingUserResponse
	decodeData(t, w, &resp)
	if resp.ID != existingID {
		t.Errorf("Expected existing user %s, got %s", existingID, resp.ID)
	}
	if resp.QRVal == nil || *resp.QRVal != qr {
		t.Errorf("Expected qr_val %q, got %v", qr, resp.QRVal)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	if count != 1 {
		t.Errorf("Expected 1 user, got %d", count)
	}
}

func TestCreateUser_DifferentFaceCreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewUserHandler(db, testutil.GetTestConfig())

	existingID := testutil.CreateTestUser(t, db, "Juan Dela Cruz", testutil.FaceMap(1))

	req := testutil.MakeRequest("POST", "/users", models.CreateUserRequest{
		Rank: "Pvt", FullName: "Jose Rizal", AFPSN: "AFP-9", BOS: "Medical", FaceMap: testutil.FaceMap(2),
	}, nil)
	w := httptest.NewRecorder()

	h.CreateUser(w, req)

	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.IDResponse
	decodeData(t, w, &resp)
	if resp.ID == existingID {
		t.Error("Expected a new user, got the existing one")
	}
}

func TestPatchUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewUserHandler(db, testutil.GetTestConfig())

	userID := testutil.CreateTestUser(t, db, "Juan Dela Cruz", nil)
	str := func(s string) *string { return &s }

	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
	}{
		{
			name:           "set qr_val",
			body:           models.PatchUserRequest{ID: userID, QRVal: str("encrypted-qr")},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "rename",
			body:           models.PatchUserRequest{ID: userID, FullName: str("Juan Luna")},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "add face map",
			body:           models.PatchUserRequest{ID: userID, FaceMap: testutil.FaceMap(9)},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing id",
			body:           models.PatchUserRequest{FullName: str("Juan Luna")},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "no fields",
			body:           models.PatchUserRequest{ID: userID},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "blank rank",
			body:           models.PatchUserRequest{ID: userID, Rank: str("  ")},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad face map",
			body:           models.PatchUserRequest{ID: userID, FaceMap: []float64{1, 2, 3}},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown user",
			body:           models.PatchUserRequest{ID: testutil.UnknownID, Rank: str("Maj")},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "malformed id",
			body:           models.PatchUserRequest{ID: "1 OR 1=1", Rank: str("Maj")},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("PATCH", "/users", tt.body, nil)
			w := httptest.NewRecorder()

			h.PatchUser(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}

	user, err := loadUser(t.Context(), db, userID)
	if err != nil {
		t.Fatalf("Failed to load user: %v", err)
	}
	if user.FullName != "Juan Luna" {
		t.Errorf("Expected full_name 'Juan Luna', got %q", user.FullName)
	}
	if user.QRVal == nil || *user.QRVal != "encrypted-qr" {
		t.Errorf("Expected qr_val to be set, got %v", user.QRVal)
	}
	if !user.HasFaceMap {
		t.Error("Expected user to have a face map")
	}
}

func TestGetUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewUserHandler(db, testutil.GetTestConfig())

	userID := testutil.CreateTestUser(t, db, "Juan Dela Cruz", testutil.FaceMap(0))

	t.Run("found", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/users/"+userID, nil, nil)
		req.SetPathValue("id", userID)
		w := httptest.NewRecorder()

		h.GetUser(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)

		var user models.User
		decodeData(t, w, &user)
		if user.ID != userID || user.FullName != "Juan Dela Cruz" {
			t.Errorf("Unexpected user: %+v", user)
		}
		if !user.HasFaceMap {
			t.Error("Expected has_face_map to be true")
		}
	})

	t.Run("uppercase id", func(t *testing.T) {
		upper := strings.ToUpper(userID)
		req := testutil.MakeRequest("GET", "/users/"+upper, nil, nil)
		req.SetPathValue("id", upper)
		w := httptest.NewRecorder()

		h.GetUser(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)
	})

	t.Run("not found", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/users/"+testutil.UnknownID, nil, nil)
		req.SetPathValue("id", testutil.UnknownID)
		w := httptest.NewRecorder()

		h.GetUser(w, req)

		testutil.AssertStatus(t, w, http.StatusNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/users/nope", nil, nil)
		req.SetPathValue("id", "nope")
		w := httptest.NewRecorder()

		h.GetUser(w, req)

		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

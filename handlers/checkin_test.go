// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/checkpoint/models"
	"github.com/danielhkuo/checkpoint/qrcodec"
	"github.com/danielhkuo/checkpoint/testutil"
)

func newCheckInHandler(t *testing.T) (*CheckInHandler, *qrcodec.Codec) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	codec := testutil.NewTestCodec(t, cfg)
	return NewCheckInHandler(db, cfg, codec), codec
}

func TestEncrypt(t *testing.T) {
	h, codec := newCheckInHandler(t)

	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
	}{
		{"valid payload", map[string]interface{}{"id": "user-1", "full_name": "Juan"}, http.StatusOK},
		{"missing id", map[string]interface{}{"full_name": "Juan"}, http.StatusBadRequest},
		{"null body", nil, http.StatusBadRequest},
		{"not an object", []int{1, 2}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/encrypt", tt.body, nil)
			w := httptest.NewRecorder()

			h.Encrypt(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var resp models.EncryptResponse
			testutil.AssertJSON(t, w, &resp)
			payload, err := codec.Decode(resp.Encrypted)
			if err != nil {
				t.Fatalf("Encrypted value does not decode: %v", err)
			}
			if codec.ID(payload) != "user-1" || payload.String("full_name") != "Juan" {
				t.Errorf("Unexpected payload: %v", payload)
			}
		})
	}
}

func TestDecrypt(t *testing.T) {
	h, codec := newCheckInHandler(t)

	now := time.Now().UTC()
	eventID := testutil.CreateTestEvent(t, h.db, "Formation", now.Add(-time.Hour), now.Add(time.Hour))
	userID := testutil.CreateTestUser(t, h.db, "Juan Dela Cruz", nil)

	valid, err := codec.Encode(qrcodec.Payload{"id": userID})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	unknown, _ := codec.Encode(qrcodec.Payload{"id": testutil.UnknownID})
	malformed, _ := codec.Encode(qrcodec.Payload{"id": "not-a-user"})
	noID, _ := codec.Encode(qrcodec.Payload{"full_name": "Juan"})

	tampered := []byte(valid)
	tampered[len(tampered)/2] ^= 'A' ^ 'B'

	tests := []struct {
		name           string
		body           models.DecryptRequest
		expectedStatus int
		checkedIn      bool
	}{
		{"lookup only", models.DecryptRequest{Encrypted: valid}, http.StatusOK, false},
		{"check in", models.DecryptRequest{Encrypted: valid, EventID: eventID}, http.StatusOK, true},
		{"repeat check in", models.DecryptRequest{Encrypted: valid, EventID: eventID}, http.StatusOK, true},
		{"empty", models.DecryptRequest{}, http.StatusBadRequest, false},
		{"garbage", models.DecryptRequest{Encrypted: "%%%not-base64"}, http.StatusBadRequest, false},
		{"tampered", models.DecryptRequest{Encrypted: string(tampered)}, http.StatusBadRequest, false},
		{"payload without id", models.DecryptRequest{Encrypted: noID}, http.StatusBadRequest, false},
		{"unknown user", models.DecryptRequest{Encrypted: unknown}, http.StatusNotFound, false},
		{"malformed user id", models.DecryptRequest{Encrypted: malformed}, http.StatusBadRequest, false},
		{"unknown event", models.DecryptRequest{Encrypted: valid, EventID: testutil.UnknownID}, http.StatusNotFound, false},
		{"malformed event id", models.DecryptRequest{Encrypted: valid, EventID: "missing"}, http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/decrypt", tt.body, nil)
			w := httptest.NewRecorder()

			h.Decrypt(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var resp models.CheckInResponse
			decodeData(t, w, &resp)
			if resp.ID != userID || resp.FullName != "Juan Dela Cruz" {
				t.Errorf("Unexpected user in response: %+v", resp)
			}
			if tt.checkedIn {
				if resp.Attendance == nil {
					t.Fatal("Expected attendance in response")
				}
				if resp.Attendance.EventID != eventID || resp.Attendance.Method != models.MethodQR {
					t.Errorf("Unexpected attendance: %+v", resp.Attendance)
				}
			} else if resp.Attendance != nil {
				t.Errorf("Expected no attendance, got %+v", resp.Attendance)
			}
		})
	}

	var count int
	h.db.QueryRow("SELECT COUNT(*) FROM attendance").Scan(&count)
	if count != 1 {
		t.Errorf("Expected 1 attendance row after repeated scans, got %d", count)
	}
}

func TestDecrypt_CustomIDField(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	codec, err := qrcodec.New([]byte(cfg.QRSecret), qrcodec.WithRequiredField("user_id"))
	if err != nil {
		t.Fatalf("Failed to create codec: %v", err)
	}
	h := NewCheckInHandler(db, cfg, codec)
	userID := testutil.CreateTestUser(t, db, "Juan Dela Cruz", nil)

	// "id" is ignored once the codec requires user_id
	encrypted, err := codec.Encode(qrcodec.Payload{"user_id": userID, "id": testutil.UnknownID})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	req := testutil.MakeRequest("POST", "/decrypt", models.DecryptRequest{Encrypted: encrypted}, nil)
	w := httptest.NewRecorder()

	h.Decrypt(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.CheckInResponse
	decodeData(t, w, &resp)
	if resp.ID != userID {
		t.Errorf("Expected user %s, got %s", userID, resp.ID)
	}

	t.Run("encrypt requires the same field", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/encrypt", map[string]string{"id": userID}, nil)
		w := httptest.NewRecorder()

		h.Encrypt(w, req)

		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestScan(t *testing.T) {
	h, _ := newCheckInHandler(t)

	now := time.Now().UTC()
	eventID := testutil.CreateTestEvent(t, h.db, "Formation", now.Add(-time.Hour), now.Add(time.Hour))
	userID := testutil.CreateTestUser(t, h.db, "Juan Dela Cruz", testutil.FaceMap(4))
	testutil.CreateTestUser(t, h.db, "Maria Clara", testutil.FaceMap(5))

	t.Run("match checks in", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/users/scan", models.ScanRequest{
			FaceMap: testutil.FaceMap(4), EventID: eventID,
		}, nil)
		w := httptest.NewRecorder()

		h.Scan(w, req)

		testutil.AssertStatus(t, w, http.StatusCreated)

		var a models.Attendance
		decodeData(t, w, &a)
		if a.UserID != userID || a.EventID != eventID || a.Method != models.MethodFace {
			t.Errorf("Unexpected attendance: %+v", a)
		}
	})

	t.Run("no match", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/users/scan", models.ScanRequest{
			FaceMap: testutil.FaceMap(60), EventID: eventID,
		}, nil)
		w := httptest.NewRecorder()

		h.Scan(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)
		if body := w.Body.String(); body != "{\"data\":null}\n" {
			t.Errorf("Expected null data, got %s", body)
		}
	})

	errorTests := []struct {
		name           string
		body           models.ScanRequest
		expectedStatus int
	}{
		{"missing event", models.ScanRequest{FaceMap: testutil.FaceMap(4)}, http.StatusBadRequest},
		{"missing face map", models.ScanRequest{EventID: eventID}, http.StatusBadRequest},
		{"short face map", models.ScanRequest{FaceMap: []float64{0.1}, EventID: eventID}, http.StatusBadRequest},
		{"unknown event", models.ScanRequest{FaceMap: testutil.FaceMap(4), EventID: testutil.UnknownID}, http.StatusNotFound},
		{"malformed event id", models.ScanRequest{FaceMap: testutil.FaceMap(4), EventID: "missing"}, http.StatusBadRequest},
	}

	for _, tt := range errorTests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/users/scan", tt.body, nil)
			w := httptest.NewRecorder()

			h.Scan(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}
}

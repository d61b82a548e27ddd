// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"testing"
)

func TestNewID(t *testing.T) {
	id, err := NewID()
	if err != nil {
		t.Fatalf("NewID() error = %v", err)
	}

	// Canonical UUID form: 8-4-4-4-12
	if len(id) != 36 {
		t.Errorf("NewID() length = %d, want 36", len(id))
	}
	for _, i := range []int{8, 13, 18, 23} {
		if id[i] != '-' {
			t.Errorf("NewID() = %q, expected '-' at %d", id, i)
		}
	}

	// Test randomness - two IDs should be different
	id2, _ := NewID()
	if id == id2 {
		t.Error("NewID() produced duplicate IDs (extremely unlikely)")
	}
}

func TestParseID(t *testing.T) {
	valid, _ := NewID()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"canonical", valid, false},
		{"uppercase", "6BA7B810-9DAD-11D1-80B4-00C04FD430C8", false},
		{"empty", "", true},
		{"garbage", "not-a-uuid", true},
		{"sql injection", "' OR 1=1 --", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err != ErrInvalidID {
				t.Errorf("ParseID() error = %v, want %v", err, ErrInvalidID)
			}
			if !tt.wantErr && len(got) != 36 {
				t.Errorf("ParseID() = %q, want canonical form", got)
			}
		})
	}

	if got, _ := ParseID("6BA7B810-9DAD-11D1-80B4-00C04FD430C8"); got != "6ba7b810-9dad-11d1-80b4-00c04fd430c8" {
		t.Errorf("ParseID() should lowercase, got %q", got)
	}
}

func TestValidateAdminKey(t *testing.T) {
	tests := []struct {
		name     string
		provided string
		expected string
		wantErr  bool
	}{
		{"valid key", "s3cret-admin", "s3cret-admin", false},
		{"wrong key", "wrong-key", "s3cret-admin", true},
		{"prefix only", "s3cret", "s3cret-admin", true},
		{"empty key", "", "s3cret-admin", true},
		{"nothing configured", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAdminKey(tt.provided, tt.expected)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAdminKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err != ErrInvalidAdminKey {
				t.Errorf("ValidateAdminKey() error = %v, want %v", err, ErrInvalidAdminKey)
			}
		})
	}
}

func TestHashIP(t *testing.T) {
	tests := []struct {
		name string
		ip   string
		salt string
	}{
		{"IPv4", "192.168.1.1", "ip-salt"},
		{"IPv6", "2001:0db8:85a3::8a2e:0370:7334", "ip-salt"},
		{"localhost", "127.0.0.1", "ip-salt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash := HashIP(tt.ip, tt.salt)

			// Should be 16 hex characters (8 bytes * 2)
			if len(hash) != 16 {
				t.Errorf("HashIP() length = %d, want 16", len(hash))
			}
			for _, c := range hash {
				if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
					t.Errorf("HashIP() contains invalid hex char: %c", c)
				}
			}

			if hash != HashIP(tt.ip, tt.salt) {
				t.Error("HashIP() is not deterministic")
			}
		})
	}

	if HashIP("192.168.1.1", "salt") == HashIP("192.168.1.2", "salt") {
		t.Error("HashIP() produced same hash for different IPs")
	}
	if HashIP("192.168.1.1", "salt1") == HashIP("192.168.1.1", "salt2") {
		t.Error("HashIP() produced same hash for different salts")
	}
}

func BenchmarkNewID(b *testing.B) {
	for i := 0; i < b.N; i++ {
		NewID()
	}
}

func BenchmarkValidateAdminKey(b *testing.B) {
	for i := 0; i < b.N; i++ {
		ValidateAdminKey("provided-key", "expected-key")
	}
}

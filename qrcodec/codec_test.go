// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package qrcodec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"reflect"
	"testing"
)

var testSecret = []byte("test-qr-secret-0123456789")

func newTestCodec(t *testing.T, opts ...Option) *Codec {
	t.Helper()
	c, err := New(testSecret, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestRoundTrip(t *testing.T) {
	c := newTestCodec(t)

	tests := []struct {
		name    string
		payload Payload
	}{
		{"id only", Payload{"id": "6f1c2e1a-0000-4000-8000-000000000001"}},
		{"full identity", Payload{
			"id":        "u-42",
			"rank":      "SSg",
			"full_name": "Juan Dela Cruz",
			"afpsn":     "123456",
			"bos":       "PAF",
		}},
		{"unicode", Payload{"id": "u-1", "full_name": "Niño Pañares"}},
		{"nested", Payload{"id": "u-2", "meta": map[string]any{"unit": "122nd"}}},
		{"json-native values", Payload{"id": "u-3", "age": 31.0, "active": true, "tags": []any{"a", 2.5}, "note": nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, err := c.Encode(tt.payload)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			got, err := c.Decode(ct)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.payload) {
				t.Errorf("Decode() = %v, want %v", got, tt.payload)
			}
		})
	}
}

func TestRoundTrip_NumbersDecodeAsFloat64(t *testing.T) {
	c := newTestCodec(t)

	ct, err := c.Encode(Payload{"id": "u-1", "serial": 42, "unit": int64(122)})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	got, err := c.Decode(ct)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	want := Payload{"id": "u-1", "serial": 42.0, "unit": 122.0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Decode() = %#v, want %#v", got, want)
	}
}

func TestEncode_FreshNonce(t *testing.T) {
	c := newTestCodec(t)
	p := Payload{"id": "u-1"}

	a, _ := c.Encode(p)
	b, _ := c.Encode(p)
	if a == b {
		t.Error("Encode() produced identical ciphertexts for two calls")
	}
}

func TestDecode_TamperRejected(t *testing.T) {
	c := newTestCodec(t)
	ct, err := c.Encode(Payload{"id": "u-1", "full_name": "Juan"})
	if err != nil {
		t.Fatal(err)
	}
	blob, _ := base64.StdEncoding.DecodeString(ct)

	for i := range blob {
		mut := bytes.Clone(blob)
		mut[i] ^= 0x01
		_, err := c.Decode(base64.StdEncoding.EncodeToString(mut))
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("byte %d flipped: Decode() error = %v, want *DecodeError", i, err)
		}
	}
}

func TestDecode_Errors(t *testing.T) {
	c := newTestCodec(t)

	emptyCT, _ := c.Encode(Payload{})
	blankIDCT, _ := c.Encode(Payload{"id": ""})
	numericIDCT, _ := c.Encode(Payload{"id": 42})

	other, _ := New([]byte("a-different-secret-entirely"))
	foreignCT, _ := other.Encode(Payload{"id": "u-1"})

	valid, _ := c.Encode(Payload{"id": "u-1"})
	raw, _ := base64.StdEncoding.DecodeString(valid)
	truncated := base64.StdEncoding.EncodeToString(raw[:len(raw)-5])

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty string", "", ErrMalformed},
		{"not base64", "%%%not-base64%%%", ErrMalformed},
		{"too short", base64.StdEncoding.EncodeToString([]byte{version, 1, 2}), ErrMalformed},
		{"truncated", truncated, ErrDecrypt},
		{"wrong key", foreignCT, ErrDecrypt},
		{"empty payload", emptyCT, ErrMissingID},
		{"blank id", blankIDCT, ErrMissingID},
		{"non-string id", numericIDCT, ErrMissingID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Decode(tt.input)
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecode_NonObjectPlaintext(t *testing.T) {
	c := newTestCodec(t)

	for _, plain := range []string{"not json", "[1,2,3]", "null", `"id"`} {
		nonce := make([]byte, c.aead.NonceSize())
		blob := append([]byte{version}, nonce...)
		blob = c.aead.Seal(blob, nonce, []byte(plain), []byte{version})

		_, err := c.Decode(base64.StdEncoding.EncodeToString(blob))
		if !errors.Is(err, ErrPayload) {
			t.Errorf("plaintext %q: Decode() error = %v, want ErrPayload", plain, err)
		}
	}
}

func TestDecode_TrimsWhitespace(t *testing.T) {
	c := newTestCodec(t)
	ct, _ := c.Encode(Payload{"id": "u-7"})

	got, err := c.Decode("  " + ct + "\n")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if id := c.ID(got); id != "u-7" {
		t.Errorf("ID() = %q, want u-7", id)
	}
}

func TestWithRequiredField(t *testing.T) {
	c := newTestCodec(t, WithRequiredField("afpsn"))

	ct, _ := c.Encode(Payload{"afpsn": "123456", "id": "u-1"})
	p, err := c.Decode(ct)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if id := c.ID(p); id != "123456" {
		t.Errorf("ID() = %q, want the afpsn field", id)
	}

	ct, _ = c.Encode(Payload{"id": "u-1"})
	if _, err := c.Decode(ct); !errors.Is(err, ErrMissingID) {
		t.Errorf("Decode() error = %v, want ErrMissingID", err)
	}
}

func TestWithRandom_Deterministic(t *testing.T) {
	a := newTestCodec(t, WithRandom(bytes.NewReader(make([]byte, 64))))
	b := newTestCodec(t, WithRandom(bytes.NewReader(make([]byte, 64))))

	ca, _ := a.Encode(Payload{"id": "u-1"})
	cb, _ := b.Encode(Payload{"id": "u-1"})
	if ca != cb {
		t.Error("same key and nonce should give the same ciphertext")
	}
}

func TestNew_WeakSecret(t *testing.T) {
	if _, err := New([]byte("short")); !errors.Is(err, ErrWeakSecret) {
		t.Errorf("New() error = %v, want ErrWeakSecret", err)
	}
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package qrcodec

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// Format version, also bound into the GCM additional data.
const version byte = 0x01

const (
	keyInfo        = "checkpoint qr payload v1"
	minSecretLen   = 16
	defaultIDField = "id"
)

var (
	ErrWeakSecret = errors.New("qr secret must be at least 16 bytes")
	ErrMalformed  = errors.New("malformed ciphertext")
	ErrDecrypt    = errors.New("ciphertext failed authentication")
	ErrPayload    = errors.New("payload is not a JSON object")
	ErrMissingID  = errors.New("payload missing identifier")
)

// DecodeError reports why a scanned QR string was rejected.
// Unwrap returns one of ErrMalformed, ErrDecrypt, ErrPayload or ErrMissingID.
type DecodeError struct {
	Reason error
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("qr decode: %v: %v", e.Reason, e.Err)
	}
	return "qr decode: " + e.Reason.Error()
}

func (e *DecodeError) Unwrap() error { return e.Reason }

// Payload is an identity record carried inside a QR code.
// Values travel as JSON, so they come back as JSON-native types: numbers
// decode as float64, nested objects as map[string]any.
type Payload map[string]any

// String returns field k when it holds a non-empty string.
func (p Payload) String(k string) string {
	s, _ := p[k].(string)
	return s
}

// Codec seals identity payloads with AES-256-GCM under one shared secret.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	aead    cipher.AEAD
	idField string
	rand    io.Reader
}

// Option configures a Codec.
type Option func(*Codec)

// WithRequiredField changes the identifier field Decode insists on.
func WithRequiredField(name string) Option {
	return func(c *Codec) { c.idField = name }
}

// ID returns the identifier field of p this codec requires, or "" if absent.
func (c *Codec) ID(p Payload) string {
	return p.String(c.idField)
}

// WithRandom replaces the nonce source. Tests only.
func WithRandom(r io.Reader) Option {
	return func(c *Codec) { c.rand = r }
}

// New derives the AES key from secret with HKDF-SHA256.
func New(secret []byte, opts ...Option) (*Codec, error) {
	if len(secret) < minSecretLen {
		return nil, ErrWeakSecret
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("deriving qr key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating gcm: %w", err)
	}

	c := &Codec{aead: aead, idField: defaultIDField, rand: rand.Reader}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Encode serializes p as JSON (map keys sorted) and seals it.
// The result is base64 text safe to render as QR data.
func (c *Codec) Encode(p Payload) (string, error) {
	if p == nil {
		p = Payload{}
	}
	plaintext, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshaling payload: %w", err)
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	blob := make([]byte, 0, 1+len(nonce)+len(plaintext)+c.aead.Overhead())
	blob = append(blob, version)
	blob = append(blob, nonce...)
	blob = c.aead.Seal(blob, nonce, plaintext, []byte{version})

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decode reverses Encode. Every failure is a *DecodeError.
func (c *Codec) Decode(ciphertext string) (Payload, error) {
	blob, err := base64.StdEncoding.DecodeString(strings.TrimSpace(ciphertext))
	if err != nil {
		return nil, &DecodeError{Reason: ErrMalformed, Err: err}
	}

	ns := c.aead.NonceSize()
	if len(blob) < 1+ns+c.aead.Overhead() {
		return nil, &DecodeError{Reason: ErrMalformed, Err: errors.New("ciphertext too short")}
	}
	if blob[0] != version {
		return nil, &DecodeError{Reason: ErrMalformed, Err: fmt.Errorf("unknown version %d", blob[0])}
	}

	nonce := blob[1 : 1+ns]
	plaintext, err := c.aead.Open(nil, nonce, blob[1+ns:], blob[:1])
	if err != nil {
		return nil, &DecodeError{Reason: ErrDecrypt}
	}

	dec := json.NewDecoder(bytes.NewReader(plaintext))
	var p Payload
	if err := dec.Decode(&p); err != nil {
		return nil, &DecodeError{Reason: ErrPayload, Err: err}
	}
	if p == nil {
		// JSON null
		return nil, &DecodeError{Reason: ErrPayload}
	}

	if c.ID(p) == "" {
		return nil, &DecodeError{Reason: ErrMissingID, Err: fmt.Errorf("field %q", c.idField)}
	}

	return p, nil
}

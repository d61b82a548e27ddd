// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package qrcodec turns identity records into opaque QR payloads and back.

# Usage

The codec is built once from the server's QR secret:

	codec, err := qrcodec.New([]byte(cfg.QRSecret))

	ct, err := codec.Encode(qrcodec.Payload{"id": userID})
	p, err := codec.Decode(scanned)

# Format

	base64( 0x01 | nonce(12) | AES-256-GCM(json) )

The key is HKDF-SHA256 of the secret. GCM authenticates the whole blob, so a
flipped byte fails Decode instead of yielding a different identity.

# Errors

Decode always fails with *DecodeError. Use errors.Is with ErrMalformed,
ErrDecrypt, ErrPayload or ErrMissingID to tell the cases apart. Callers
should reject the scan on any of them.

A decoded payload is a transport convenience only. Resolve the identifier
against the users table before recording attendance.
*/
package qrcodec

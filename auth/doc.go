// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides ID generation, admin key checks and IP hashing.

# Admin Key

Admin routes carry the configured key in the X-Admin-Key header:

	err := auth.ValidateAdminKey(r.Header.Get("X-Admin-Key"), cfg.AdminKey)

The comparison runs in constant time. An empty key never validates, even
when nothing is configured.

# ID Generation

Records use random UUIDs:

	id, err := auth.NewID()

ParseID rejects anything that is not a UUID before it reaches a query,
and returns the canonical lowercase form. Handlers answer 400 for ids that
fail it, whether they come from the path, the body or a decoded QR payload.

# IP Hashing

Scanner IPs are stored only as a salted hash:

	hash := auth.HashIP(ipAddress, cfg.IPHashSalt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth

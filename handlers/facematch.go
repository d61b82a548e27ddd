// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/checkpoint/facegate"
)

// FaceMatch is the user whose stored face map is nearest to a query
type FaceMatch struct {
	UserID   string
	QRVal    *string
	Distance float64
}

type faceCandidate struct {
	userID   string
	qrVal    *string
	distance float64
}

// FindUserByFaceMap scans every stored face map and returns the nearest user,
// or nil when nothing is close enough or the best match is ambiguous.
func FindUserByFaceMap(ctx context.Context, db *sql.DB, query facegate.Descriptor, threshold, margin float64) (*FaceMatch, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, qr_val, face_map
		FROM users
		WHERE face_map IS NOT NULL AND face_map <> ''
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query face maps: %w", err)
	}
	defer rows.Close()

	var candidates []faceCandidate
	for rows.Next() {
		var c faceCandidate
		var raw string
		if err := rows.Scan(&c.userID, &c.qrVal, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan face map: %w", err)
		}

		var stored facegate.Descriptor
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			slog.Warn("skipping unreadable face map", "user_id", c.userID, "error", err)
			continue
		}
		c.distance = facegate.Distance(query, stored)
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read face maps: %w", err)
	}

	best, ok := pickMatch(candidates, threshold, margin)
	if !ok {
		return nil, nil
	}
	return &FaceMatch{UserID: best.userID, QRVal: best.qrVal, Distance: best.distance}, nil
}

// pickMatch accepts the nearest candidate when it is within threshold and,
// if there is a runner-up, at least margin closer than it.
func pickMatch(candidates []faceCandidate, threshold, margin float64) (faceCandidate, bool) {
	if len(candidates) == 0 {
		return faceCandidate{}, false
	}

	bestIdx, secondIdx := -1, -1
	for i, c := range candidates {
		switch {
		case bestIdx < 0 || c.distance < candidates[bestIdx].distance:
			secondIdx = bestIdx
			bestIdx = i
		case secondIdx < 0 || c.distance < candidates[secondIdx].distance:
			secondIdx = i
		}
	}

	best := candidates[bestIdx]
	if best.distance > threshold {
		return faceCandidate{}, false
	}
	if secondIdx >= 0 && candidates[secondIdx].distance-best.distance < margin {
		return faceCandidate{}, false
	}
	return best, true
}

// encodeFaceMap stores a descriptor as a JSON array
func encodeFaceMap(d facegate.Descriptor) (*string, error) {
	if len(d) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

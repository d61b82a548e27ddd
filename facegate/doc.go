// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package facegate gates face descriptor capture on alignment.

A Session reads frames from a Camera at TargetFPS, runs each through a
Detector and decides whether the face sits inside the guide oval. Only after
StableFrames consecutive aligned frames does it take a short burst of
descriptors, average them and emit one unit-length vector.

# States

	Searching ── aligned ──▶ Holding ── StableFrames ──▶ Capturing ──▶ Done
	    ▲                       │                            │
	    └──── misaligned / no face ◀──── face lost ──────────┘

A single bad frame resets the counter. Frames that arrive during a burst are
dropped.

# Alignment

Evaluate checks three things on the mirrored preview:

  - center offset, normalized by the oval radii, within CenterTolerance
  - eye-line roll within RollToleranceDeg
  - box height between SizeMin and SizeMax times the oval's vertical radius

Evaluate and State.Next are pure and can be driven without a camera.

# Lifecycle

	s := facegate.NewSession(cam, det, facegate.DefaultOptions(), facegate.Callbacks{
		OnStatus:   func(st facegate.Status) { ... },
		OnCaptured: func(d facegate.Descriptor) { ... },
	})
	if err := s.Start(ctx); err != nil {
		// *DeviceError: camera denied or missing
	}
	defer s.Stop()

Stop is idempotent. It stops every track, waits at most StopTimeout for them
to end and then detaches the sink, so the device is free for the next Start.
*/
package facegate

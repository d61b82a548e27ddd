// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package facegate

// Phase is where a capture session stands.
type Phase int

const (
	Searching Phase = iota
	Holding
	Capturing
	Done
)

func (p Phase) String() string {
	switch p {
	case Searching:
		return "searching"
	case Holding:
		return "holding"
	case Capturing:
		return "capturing"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Status is the plain-language text shown under the preview.
type Status string

const (
	StatusInitializing      Status = "Initializing camera…"
	StatusCameraUnavailable Status = "Camera not available. Open this page over HTTPS."
	StatusReady             Status = "Align your face in the frame, look straight."
	StatusNoFace            Status = "No face detected. Center your face."
	StatusAlign             Status = "Align your face with the guides."
	StatusHold              Status = "Hold still…"
	StatusCapturing         Status = "Capturing…"
	StatusLost              Status = "Lost face, retrying…"
	StatusCaptured          Status = "Face captured!"
)

// State is the gate's per-session state. The zero value is Searching.
type State struct {
	Phase  Phase
	Stable int // consecutive aligned frames
}

// Next feeds one frame's detection (nil when nothing was found) through the gate.
// Frames arriving while Capturing or Done leave the state untouched and
// return an empty status.
func (s State) Next(det *Detection, size FrameSize, o Options) (State, Status) {
	if s.Phase == Capturing || s.Phase == Done {
		return s, ""
	}
	o = o.withDefaults()

	if det == nil || det.Score < o.Detector.ScoreThreshold {
		return State{Phase: Searching}, StatusNoFace
	}
	if !Evaluate(*det, size, o).Aligned() {
		return State{Phase: Searching}, StatusAlign
	}

	n := s.Stable + 1
	if n >= o.StableFrames {
		return State{Phase: Capturing, Stable: n}, StatusCapturing
	}
	return State{Phase: Holding, Stable: n}, StatusHold
}

// CaptureFailed returns to Searching after a face was lost mid-burst.
func (s State) CaptureFailed() (State, Status) {
	if s.Phase != Capturing {
		return s, ""
	}
	return State{Phase: Searching}, StatusLost
}

// Captured ends the session after a successful burst.
func (s State) Captured() (State, Status) {
	if s.Phase != Capturing {
		return s, ""
	}
	return State{Phase: Done, Stable: s.Stable}, StatusCaptured
}

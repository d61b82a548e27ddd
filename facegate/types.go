// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package facegate

import "time"

// Default video size when a frame reports no dimensions.
const (
	DefaultFrameWidth  = 640
	DefaultFrameHeight = 480
)

// DescriptorSize is the embedding length produced by the recognition model.
const DescriptorSize = 128

// Point is a pixel coordinate in the unmirrored frame.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Box is a face bounding box in pixels.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Descriptor is a face embedding vector.
type Descriptor []float64

// Detection is one detector result for a frame.
// Descriptor is only filled by Detector.Describe.
type Detection struct {
	Box        Box        `json:"box"`
	Score      float64    `json:"score"`
	LeftEye    []Point    `json:"left_eye"`
	RightEye   []Point    `json:"right_eye"`
	Descriptor Descriptor `json:"descriptor,omitempty"`
}

// FrameSize is the video's pixel dimensions.
type FrameSize struct {
	Width  float64
	Height float64
}

func (s FrameSize) orDefault() FrameSize {
	if s.Width <= 0 {
		s.Width = DefaultFrameWidth
	}
	if s.Height <= 0 {
		s.Height = DefaultFrameHeight
	}
	return s
}

// Oval is the on-screen guide, as fractions of the frame width and height.
type Oval struct {
	CX float64
	CY float64
	RX float64
	RY float64
}

// DefaultOval matches a 640x480 guide centered at (320,180) with radii (140,200).
var DefaultOval = Oval{
	CX: 0.5,
	CY: 180.0 / 480.0,
	RX: 140.0 / 640.0,
	RY: 200.0 / 480.0,
}

// DetectorOptions are passed through to the Detector on every call.
type DetectorOptions struct {
	InputSize      int
	ScoreThreshold float64
}

// Options tunes the gate and the capture session.
type Options struct {
	Oval Oval

	// Max normalized distance of the face center from the oval center.
	CenterTolerance float64
	// Max eye-line tilt, in degrees.
	RollToleranceDeg float64
	// Box height bounds, as multiples of the oval's vertical radius.
	SizeMin float64
	SizeMax float64

	// Consecutive aligned frames required before capture.
	StableFrames int
	// Descriptor extractions averaged per capture.
	CaptureAttempts int
	CaptureDelay    time.Duration

	TargetFPS   int
	StopTimeout time.Duration

	Detector DetectorOptions
}

// DefaultOptions returns the tuning used by the check-in kiosk.
func DefaultOptions() Options {
	return Options{
		Oval:             DefaultOval,
		CenterTolerance:  0.35,
		RollToleranceDeg: 10,
		SizeMin:          1.3,
		SizeMax:          2.6,
		StableFrames:     5,
		CaptureAttempts:  3,
		CaptureDelay:     80 * time.Millisecond,
		TargetFPS:        14,
		StopTimeout:      150 * time.Millisecond,
		Detector: DetectorOptions{
			InputSize:      160,
			ScoreThreshold: 0.5,
		},
	}
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Oval == (Oval{}) {
		o.Oval = d.Oval
	}
	if o.CenterTolerance <= 0 {
		o.CenterTolerance = d.CenterTolerance
	}
	if o.RollToleranceDeg <= 0 {
		o.RollToleranceDeg = d.RollToleranceDeg
	}
	if o.SizeMin <= 0 {
		o.SizeMin = d.SizeMin
	}
	if o.SizeMax <= 0 {
		o.SizeMax = d.SizeMax
	}
	if o.StableFrames <= 0 {
		o.StableFrames = d.StableFrames
	}
	if o.CaptureAttempts <= 0 {
		o.CaptureAttempts = d.CaptureAttempts
	}
	if o.CaptureDelay < 0 {
		o.CaptureDelay = 0
	}
	if o.TargetFPS <= 0 {
		o.TargetFPS = d.TargetFPS
	}
	if o.StopTimeout <= 0 {
		o.StopTimeout = d.StopTimeout
	}
	if o.Detector.InputSize <= 0 {
		o.Detector.InputSize = d.Detector.InputSize
	}
	if o.Detector.ScoreThreshold <= 0 {
		o.Detector.ScoreThreshold = d.Detector.ScoreThreshold
	}
	return o
}

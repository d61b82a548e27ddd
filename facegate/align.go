// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package facegate

import "math"

// Alignment is the outcome of the per-frame test.
type Alignment struct {
	Offset   float64 // normalized distance from the oval center
	RollDeg  float64 // absolute eye-line tilt
	Centered bool
	RollOK   bool
	SizeOK   bool
}

// Aligned reports whether all three checks passed.
func (a Alignment) Aligned() bool {
	return a.Centered && a.RollOK && a.SizeOK
}

// Evaluate runs the centering, roll and size checks on a detection.
// The preview is mirrored, so x coordinates are flipped before comparison.
// Missing eye landmarks fail the roll check. Zero option fields take defaults.
func Evaluate(det Detection, size FrameSize, o Options) Alignment {
	o = o.withDefaults()
	size = size.orDefault()
	w, h := size.Width, size.Height

	cx, cy := o.Oval.CX*w, o.Oval.CY*h
	rx, ry := o.Oval.RX*w, o.Oval.RY*h

	var a Alignment

	detCx := w - (det.Box.X + det.Box.Width/2)
	detCy := det.Box.Y + det.Box.Height/2
	dx := (detCx - cx) / rx
	dy := (detCy - cy) / ry
	a.Offset = math.Hypot(dx, dy)
	a.Centered = a.Offset <= o.CenterTolerance

	if len(det.LeftEye) > 0 && len(det.RightEye) > 0 {
		l := centroid(det.LeftEye)
		r := centroid(det.RightEye)
		lm := Point{X: w - l.X, Y: l.Y}
		rm := Point{X: w - r.X, Y: r.Y}
		a.RollDeg = math.Abs(math.Atan2(lm.Y-rm.Y, lm.X-rm.X) * 180 / math.Pi)
		a.RollOK = a.RollDeg <= o.RollToleranceDeg
	} else {
		a.RollDeg = math.NaN()
	}

	a.SizeOK = det.Box.Height >= ry*o.SizeMin && det.Box.Height <= ry*o.SizeMax

	return a
}

func centroid(pts []Point) Point {
	var s Point
	for _, p := range pts {
		s.X += p.X
		s.Y += p.Y
	}
	n := float64(len(pts))
	return Point{X: s.X / n, Y: s.Y / n}
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package facegate

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrNoDescriptors   = errors.New("no descriptors to average")
	ErrDescriptorShape = errors.New("descriptor length mismatch")
)

// Average takes the element-wise mean of ds and scales it to unit length.
func Average(ds []Descriptor) (Descriptor, error) {
	if len(ds) == 0 {
		return nil, ErrNoDescriptors
	}
	n := len(ds[0])
	if n == 0 {
		return nil, fmt.Errorf("%w: empty descriptor", ErrDescriptorShape)
	}

	avg := make(Descriptor, n)
	for i, d := range ds {
		if len(d) != n {
			return nil, fmt.Errorf("%w: frame %d has %d values, want %d", ErrDescriptorShape, i, len(d), n)
		}
		for j, v := range d {
			avg[j] += v
		}
	}
	for j := range avg {
		avg[j] /= float64(len(ds))
	}

	return Normalize(avg), nil
}

// Normalize returns d divided by its Euclidean norm.
// A zero vector is returned unchanged.
func Normalize(d Descriptor) Descriptor {
	norm := Norm(d)
	if norm == 0 {
		norm = 1
	}
	out := make(Descriptor, len(d))
	for i, v := range d {
		out[i] = v / norm
	}
	return out
}

// Norm is the Euclidean length of d.
func Norm(d Descriptor) float64 {
	var sum float64
	for _, v := range d {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Distance is the Euclidean distance between a and b.
// Vectors of different length are infinitely far apart.
func Distance(a, b Descriptor) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

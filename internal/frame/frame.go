// Package frame holds the per-clip transform timeline: Frame value objects,
// the ordered Service that maps playback time to frames, and the duration
// adjustment handler behind structural edits.
package frame

import (
	"fmt"
	"image"
)

// MinScale is the smallest scale a frame may carry. Updates below it clamp.
const MinScale = 0.1

// ArraySize is the length of the flat encoding produced by ToArray.
const ArraySize = 5

// NoSourceIndex marks a frame with no backing source frame.
const NoSourceIndex = -1

// Frame is one time-addressable slot in a clip: a spatial transform plus a
// reference to the decoded pixel data it displays. Data and SourceIndex stay
// pinned through interpolation; only the transform blends.
type Frame struct {
	X        float64
	Y        float64
	Scale    float64
	Rotation float64 // degrees
	Anchor   bool
	Data     image.Image
	SourceIndex int
}

// New returns a frame with an identity transform at the given position
func New(x, y float64) *Frame {
	return &Frame{
		X:           x,
		Y:           y,
		Scale:       1,
		SourceIndex: NoSourceIndex,
	}
}

// Clone returns an independent copy. Data is shared, not copied; decoded
// pixel buffers are treated as read-only.
func (f *Frame) Clone() *Frame {
	c := *f
	return &c
}

// SetScale applies the scale clamp
func (f *Frame) SetScale(scale float64) {
	if scale < MinScale {
		scale = MinScale
	}
	f.Scale = scale
}

// Interpolate blends the transform of f toward other by weight and returns a
// new frame. Weight is clamped to [0,1]. Anchor, Data and SourceIndex are
// carried from the receiver: the earlier frame stays the visual base.
func (f *Frame) Interpolate(other *Frame, weight float64) *Frame {
	if other == nil {
		return f.Clone()
	}
	if weight < 0 {
		weight = 0
	} else if weight > 1 {
		weight = 1
	}

	out := f.Clone()
	out.X = lerp(f.X, other.X, weight)
	out.Y = lerp(f.Y, other.Y, weight)
	out.Rotation = lerp(f.Rotation, other.Rotation, weight)
	out.SetScale(lerp(f.Scale, other.Scale, weight))
	return out
}

// ToArray encodes the transform-only state as [x, y, scale, rotation, anchor].
// Data and SourceIndex are transient and never serialized.
func (f *Frame) ToArray() []float64 {
	anchor := 0.0
	if f.Anchor {
		anchor = 1
	}
	return []float64{f.X, f.Y, f.Scale, f.Rotation, anchor}
}

// FromArray decodes a frame from the flat layout produced by ToArray
func FromArray(vals []float64) (*Frame, error) {
	if len(vals) < ArraySize {
		return nil, fmt.Errorf("frame array too short: got %d values, need %d", len(vals), ArraySize)
	}

	f := New(vals[0], vals[1])
	f.SetScale(vals[2])
	f.Rotation = vals[3]
	f.Anchor = vals[4] != 0
	return f, nil
}

func (f *Frame) String() string {
	return fmt.Sprintf("frame(x=%.2f y=%.2f scale=%.2f rot=%.2f anchor=%t)", f.X, f.Y, f.Scale, f.Rotation, f.Anchor)
}

func lerp(a, b, w float64) float64 {
	return a + (b-a)*w
}

// Package clip implements the timeline media items: one concrete type per
// media kind, composed from shared building blocks (frame service, render
// surface, speed controller) with capability interfaces so audio-only
// operations are never forced onto visual clips.
package clip

import (
	"context"

	"github.com/keagan/reelcore/internal/surface"
)

// Kind tags a clip's media type. It is fixed at construction and drives
// host-side dispatch (which track lane, which editor affordances).
type Kind int

const (
	KindVideo Kind = iota
	KindAudio
	KindImage
	KindText
	KindCaption
	KindShape
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	case KindImage:
		return "image"
	case KindText:
		return "text"
	case KindCaption:
		return "caption"
	case KindShape:
		return "shape"
	default:
		return "unknown"
	}
}

// Renderable is the contract every clip satisfies: timeline placement plus
// per-tick rendering into a target surface.
type Renderable interface {
	ID() string
	Name() string
	Kind() Kind
	StartTime() float64
	SetStartTime(ms float64)
	Duration() float64
	IsLayerVisible(t float64) bool
	Ready() bool

	// Init performs the first decode and marks the clip ready
	Init(ctx context.Context) error

	// Render draws the clip's frame at currentTime into out. Not-ready and
	// invisible clips are silently skipped.
	Render(ctx context.Context, out *surface.Surface, currentTime float64, playing bool) error

	// Disconnect releases source resources
	Disconnect()
}

// Splittable clips can be cut in two at a timeline instant
type Splittable interface {
	Split(splitTime float64) (Renderable, error)
}

// IntervalEditable clips support ripple-deleting a clip-local time range
type IntervalEditable interface {
	RemoveInterval(startSec, endSec float64) bool
}

// AudioCapable clips expose sample data for playback mixing
type AudioCapable interface {
	SampleRate() int
	Channels() int
	SampleWindow(currentTime, windowMs float64) []float64
}

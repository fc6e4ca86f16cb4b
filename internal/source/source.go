// Package source defines the decode-side collaborators the clip layer
// consumes: frame sources that hand out decoded pixel data by index, and
// audio sources that expose a PCM sample buffer. Demuxing and codec work
// live behind these interfaces, never in the timeline core.
package source

import (
	"context"
	"image"
)

// Metadata describes a decoded video source
type Metadata struct {
	Width           int
	Height          int
	TotalDurationMs float64
	FPS             float64
	// Timestamps holds real per-frame capture times in seconds when the
	// container provides them (variable frame rate material). Empty for
	// fixed-rate or synthetic sources.
	Timestamps []float64
}

// AudioMetadata describes a decoded audio source
type AudioMetadata struct {
	TotalDurationMs float64
	SampleRate      int
	Channels        int
}

// FrameSource supplies decoded pixel data by frame index. Obtaining a frame
// may require out-of-band decode work, so calls take a context and may
// block; a nil image with a nil error means the frame is not available yet.
type FrameSource interface {
	Metadata() Metadata

	// GetFrameAtIndex returns the decoded frame, decoding on demand.
	// prefetchHint tells the source how many following frames playback is
	// likely to want next.
	GetFrameAtIndex(ctx context.Context, index, prefetchHint int) (image.Image, error)

	Cleanup() error
}

// AudioFrameSource exposes a decoded PCM buffer
type AudioFrameSource interface {
	Metadata() AudioMetadata

	// Samples returns the effective playback buffer, interleaved by channel
	Samples() []float64

	Cleanup() error
}

// TimeStretchFunc re-derives a playback buffer for a speed ratio. A real
// implementation preserves pitch; the DSP itself is external to this engine.
type TimeStretchFunc func(samples []float64, ratio float64) []float64

// ResampleStretch is the fallback stretch: plain linear resampling. It keeps
// timing correct but shifts pitch, so hosts should inject a proper
// pitch-preserving implementation for audible playback.
func ResampleStretch(samples []float64, ratio float64) []float64 {
	if ratio <= 0 || len(samples) == 0 {
		return samples
	}

	outLen := int(float64(len(samples)) / ratio)
	if outLen < 1 {
		outLen = 1
	}

	out := make([]float64, outLen)
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(j)
		out[i] = samples[j]*(1-frac) + samples[j+1]*frac
	}
	return out
}

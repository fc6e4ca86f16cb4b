package source

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"
)

// StaticImageSource backs image, text, shape and caption clips: one decoded
// picture reused for every frame index.
type StaticImageSource struct {
	img  image.Image
	meta Metadata
}

// NewStaticImageSource wraps a single decoded image as a frame source
func NewStaticImageSource(img image.Image, durationMs, fps float64) *StaticImageSource {
	b := img.Bounds()
	return &StaticImageSource{
		img: img,
		meta: Metadata{
			Width:           b.Dx(),
			Height:          b.Dy(),
			TotalDurationMs: durationMs,
			FPS:             fps,
		},
	}
}

func (s *StaticImageSource) Metadata() Metadata {
	return s.meta
}

func (s *StaticImageSource) GetFrameAtIndex(ctx context.Context, index, prefetchHint int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if index < 0 {
		return nil, nil
	}
	return s.img, nil
}

func (s *StaticImageSource) Cleanup() error {
	return nil
}

// SyntheticSource fabricates solid-color frames on demand. It exists for
// tests and for placeholder layers before real media finishes decoding, and
// records which indices were requested.
type SyntheticSource struct {
	mu        sync.Mutex
	meta      Metadata
	fill      color.RGBA
	requested []int
}

// NewSyntheticSource builds a fixed-rate synthetic video source
func NewSyntheticSource(width, height int, durationMs, fps float64, fill color.RGBA) *SyntheticSource {
	return &SyntheticSource{
		meta: Metadata{
			Width:           width,
			Height:          height,
			TotalDurationMs: durationMs,
			FPS:             fps,
		},
		fill: fill,
	}
}

func (s *SyntheticSource) Metadata() Metadata {
	return s.meta
}

func (s *SyntheticSource) GetFrameAtIndex(ctx context.Context, index, prefetchHint int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	total := int(math.Round(s.meta.TotalDurationMs / 1000 * s.meta.FPS))
	if index < 0 || index >= total {
		return nil, nil
	}

	s.mu.Lock()
	s.requested = append(s.requested, index)
	s.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, s.meta.Width, s.meta.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(s.fill), image.Point{}, draw.Src)
	return img, nil
}

// Requested returns the frame indices fetched so far
func (s *SyntheticSource) Requested() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.requested...)
}

func (s *SyntheticSource) Cleanup() error {
	return nil
}

// MemoryAudioSource holds a PCM buffer supplied by the caller, mainly for
// tests and for hosts that decode audio themselves.
type MemoryAudioSource struct {
	meta    AudioMetadata
	samples []float64
}

// NewMemoryAudioSource wraps an interleaved PCM buffer
func NewMemoryAudioSource(samples []float64, sampleRate, channels int) *MemoryAudioSource {
	durMs := 0.0
	if sampleRate > 0 && channels > 0 {
		durMs = float64(len(samples)) / float64(sampleRate*channels) * 1000
	}
	return &MemoryAudioSource{
		meta: AudioMetadata{
			TotalDurationMs: durMs,
			SampleRate:      sampleRate,
			Channels:        channels,
		},
		samples: samples,
	}
}

func (s *MemoryAudioSource) Metadata() AudioMetadata {
	return s.meta
}

func (s *MemoryAudioSource) Samples() []float64 {
	return s.samples
}

func (s *MemoryAudioSource) Cleanup() error {
	s.samples = nil
	return nil
}

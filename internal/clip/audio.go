package clip

import (
	"context"
	"math"

	"github.com/keagan/reelcore/internal/frame"
	"github.com/keagan/reelcore/internal/source"
	"github.com/keagan/reelcore/internal/surface"
)

// AudioClip places a decoded PCM buffer on the timeline. It draws nothing;
// hosts pull mixable samples through SampleWindow. Speed changes re-derive
// the playback buffer through the injected time-stretch function so pitch
// handling stays external to the engine.
type AudioClip struct {
	Base
	src     source.AudioFrameSource
	stretch source.TimeStretchFunc

	// original is the clip's own copy of the decoded samples, spliced by
	// interval removals. buffer is original stretched to the current speed,
	// indexed in timeline-domain time.
	original []float64
	buffer   []float64
}

// NewAudioClip builds a clip over a decoded audio source
func NewAudioClip(src source.AudioFrameSource, opts Options) *AudioClip {
	meta := src.Metadata()

	svc := frame.NewService(frame.ServiceOptions{
		StartTime:  opts.StartTime,
		DurationMs: meta.TotalDurationMs,
		FPS:        opts.FPS,
		Logger:     opts.Logger,
	})

	return &AudioClip{
		Base: newBase(KindAudio, opts, 0, 0, svc),
		src:  src,
	}
}

// SetStretch injects the pitch-preserving time-stretch implementation.
// Without one, speed changes fall back to plain resampling.
func (c *AudioClip) SetStretch(fn source.TimeStretchFunc) {
	c.stretch = fn
}

// Init copies the decoded buffer and marks the clip ready
func (c *AudioClip) Init(ctx context.Context) error {
	if c.Ready() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.original = append([]float64(nil), c.src.Samples()...)
	c.buffer = c.original
	c.setReady(true)
	return nil
}

// SampleRate returns the source sample rate
func (c *AudioClip) SampleRate() int {
	return c.src.Metadata().SampleRate
}

// Channels returns the source channel count
func (c *AudioClip) Channels() int {
	return c.src.Metadata().Channels
}

// SetSpeed re-derives the playback buffer in addition to the numeric remap
func (c *AudioClip) SetSpeed(speed float64) {
	c.Base.SetSpeed(speed)
	c.rederiveBuffer()
}

// SampleWindow returns the samples covering [currentTime, currentTime+windowMs)
// of timeline time, interleaved by channel. Outside the clip it returns nil.
func (c *AudioClip) SampleWindow(currentTime, windowMs float64) []float64 {
	if !c.Ready() || !c.IsLayerVisible(currentTime) {
		return nil
	}

	meta := c.src.Metadata()
	stride := meta.Channels
	if stride <= 0 {
		stride = 1
	}

	localSec := (currentTime - c.StartTime()) / 1000
	start := int(localSec*float64(meta.SampleRate)) * stride
	count := int(windowMs/1000*float64(meta.SampleRate)) * stride

	if start < 0 || start >= len(c.buffer) || count <= 0 {
		return nil
	}
	if start+count > len(c.buffer) {
		count = len(c.buffer) - start
	}
	return append([]float64(nil), c.buffer[start:start+count]...)
}

// RemoveInterval ripple-deletes the range from both the frame service and
// the sample buffers.
func (c *AudioClip) RemoveInterval(startSec, endSec float64) bool {
	if !c.Base.RemoveInterval(startSec, endSec) {
		return false
	}

	meta := c.src.Metadata()
	stride := meta.Channels
	if stride <= 0 {
		stride = 1
	}

	s0 := int(math.Floor(startSec*float64(meta.SampleRate))) * stride
	s1 := int(math.Ceil(endSec*float64(meta.SampleRate))) * stride
	if s0 < 0 {
		s0 = 0
	}
	if s1 > len(c.original) {
		s1 = len(c.original)
	}
	if s0 < s1 {
		c.original = append(c.original[:s0], c.original[s1:]...)
	}
	c.rederiveBuffer()
	return true
}

// Split cuts the clip at splitTime, partitioning the sample buffers so the
// two halves stay frame-accurate.
func (c *AudioClip) Split(splitTime float64) (Renderable, error) {
	first, err := c.splitBase(splitTime)
	if err != nil {
		return nil, err
	}

	meta := c.src.Metadata()
	stride := meta.Channels
	if stride <= 0 {
		stride = 1
	}

	sourceSec := (splitTime - first.StartTime()) * c.Speed() / 1000
	cut := int(sourceSec*float64(meta.SampleRate)) * stride
	if cut < 0 {
		cut = 0
	}
	if cut > len(c.original) {
		cut = len(c.original)
	}

	firstClip := &AudioClip{
		Base:     first,
		src:      c.src,
		stretch:  c.stretch,
		original: append([]float64(nil), c.original[:cut]...),
	}
	firstClip.rederiveBuffer()

	c.original = append([]float64(nil), c.original[cut:]...)
	c.rederiveBuffer()

	return firstClip, nil
}

// Clone returns an independent copy sharing the decoded source
func (c *AudioClip) Clone() *AudioClip {
	out := &AudioClip{
		Base:     c.cloneBase(),
		src:      c.src,
		stretch:  c.stretch,
		original: append([]float64(nil), c.original...),
	}
	out.rederiveBuffer()
	return out
}

// Render is a no-op: audio contributes no pixels
func (c *AudioClip) Render(ctx context.Context, out *surface.Surface, currentTime float64, playing bool) error {
	return nil
}

// Disconnect releases the source's decoded data
func (c *AudioClip) Disconnect() {
	if err := c.src.Cleanup(); err != nil {
		c.log.Warn().Err(err).Msg("source cleanup failed")
	}
}

func (c *AudioClip) rederiveBuffer() {
	speed := c.Speed()
	if speed == 1 {
		c.buffer = c.original
		return
	}

	stretch := c.stretch
	if stretch == nil {
		stretch = source.ResampleStretch
	}
	c.buffer = stretch(c.original, speed)
}

package clip

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/keagan/reelcore/internal/surface"
)

// ComposedClip pairs a video clip with its audio track so structural edits
// land on both atomically. Edits are deduplicated by an idempotency guard:
// a double-dispatched gesture (say, an accidental double-click routed twice)
// applies once and reports success both times.
type ComposedClip struct {
	id      string
	name    string
	video   *VideoClip
	audio   *AudioClip
	applied map[string]struct{}
	log     zerolog.Logger
}

// NewComposedClip binds a video clip and an audio clip into one unit
func NewComposedClip(video *VideoClip, audio *AudioClip, logger zerolog.Logger) *ComposedClip {
	name := video.Name()
	return &ComposedClip{
		id:      uuid.NewString(),
		name:    name,
		video:   video,
		audio:   audio,
		applied: make(map[string]struct{}),
		log:     logger.With().Str("component", "clip").Str("kind", "composed").Str("name", name).Logger(),
	}
}

// ID returns the composed clip's identity
func (c *ComposedClip) ID() string {
	return c.id
}

// Name returns the display name
func (c *ComposedClip) Name() string {
	return c.name
}

// Kind reports the authoritative track's kind
func (c *ComposedClip) Kind() Kind {
	return KindVideo
}

// Video exposes the video half
func (c *ComposedClip) Video() *VideoClip {
	return c.video
}

// Audio exposes the audio half
func (c *ComposedClip) Audio() *AudioClip {
	return c.audio
}

// StartTime returns the timeline position, taken from the video half
func (c *ComposedClip) StartTime() float64 {
	return c.video.StartTime()
}

// SetStartTime moves both halves together
func (c *ComposedClip) SetStartTime(ms float64) {
	c.video.SetStartTime(ms)
	c.audio.SetStartTime(ms)
}

// Duration is the longer of the two halves
func (c *ComposedClip) Duration() float64 {
	v, a := c.video.Duration(), c.audio.Duration()
	if v >= a {
		return v
	}
	return a
}

// IsLayerVisible reports whether either half covers t
func (c *ComposedClip) IsLayerVisible(t float64) bool {
	start := c.StartTime()
	return start <= t && t < start+c.Duration()
}

// Ready reports whether both halves are ready
func (c *ComposedClip) Ready() bool {
	return c.video.Ready() && c.audio.Ready()
}

// Init initializes both halves
func (c *ComposedClip) Init(ctx context.Context) error {
	if err := c.video.Init(ctx); err != nil {
		return err
	}
	return c.audio.Init(ctx)
}

// Render forwards to both halves
func (c *ComposedClip) Render(ctx context.Context, out *surface.Surface, currentTime float64, playing bool) error {
	if err := c.video.Render(ctx, out, currentTime, playing); err != nil {
		return err
	}
	return c.audio.Render(ctx, out, currentTime, playing)
}

// Update forwards a transform change to both halves
func (c *ComposedClip) Update(change Change, referenceTime float64) bool {
	vOK := c.video.Update(change, referenceTime)
	aOK := c.audio.Update(change, referenceTime)
	return vOK && aOK
}

// SetSpeed changes playback speed on both halves
func (c *ComposedClip) SetSpeed(speed float64) {
	c.video.SetSpeed(speed)
	c.audio.SetSpeed(speed)
}

// SampleRate returns the audio half's sample rate
func (c *ComposedClip) SampleRate() int {
	return c.audio.SampleRate()
}

// Channels returns the audio half's channel count
func (c *ComposedClip) Channels() int {
	return c.audio.Channels()
}

// SampleWindow forwards to the audio half
func (c *ComposedClip) SampleWindow(currentTime, windowMs float64) []float64 {
	return c.audio.SampleWindow(currentTime, windowMs)
}

// RemoveInterval applies the cut to both halves behind the idempotency
// guard. The result is the AND of both halves so a partial failure (video
// cut, audio untouched) stays visible to the caller.
func (c *ComposedClip) RemoveInterval(startSec, endSec float64) bool {
	key := fmt.Sprintf("removeInterval:%g:%g", startSec, endSec)
	if _, seen := c.applied[key]; seen {
		c.log.Info().Str("op", key).Msg("duplicate edit ignored")
		return true
	}

	vOK := c.video.RemoveInterval(startSec, endSec)
	aOK := c.audio.RemoveInterval(startSec, endSec)
	ok := vOK && aOK
	if ok {
		c.applied[key] = struct{}{}
	} else {
		c.log.Warn().
			Str("op", key).
			Bool("video_ok", vOK).
			Bool("audio_ok", aOK).
			Msg("interval removal incomplete")
	}
	return ok
}

// Split cuts both halves at splitTime and re-derives the composed timing
// from the video half so the tracks cannot drift apart by rounding.
func (c *ComposedClip) Split(splitTime float64) (Renderable, error) {
	// Validate against both halves before mutating either.
	if splitTime <= c.StartTime() || splitTime >= c.StartTime()+c.video.Duration() {
		return nil, ErrInvalidSplitPoint
	}
	if splitTime >= c.audio.StartTime()+c.audio.Duration() {
		return nil, ErrInvalidSplitPoint
	}

	vFirst, err := c.video.Split(splitTime)
	if err != nil {
		return nil, err
	}
	aFirst, err := c.audio.Split(splitTime)
	if err != nil {
		return nil, err
	}

	firstVideo := vFirst.(*VideoClip)
	firstAudio := aFirst.(*AudioClip)

	// Video timing is authoritative on both sides of the cut.
	firstAudio.SetStartTime(firstVideo.StartTime())
	c.audio.SetStartTime(c.video.StartTime())

	first := NewComposedClip(firstVideo, firstAudio, c.log)
	return first, nil
}

// Disconnect releases both halves
func (c *ComposedClip) Disconnect() {
	c.video.Disconnect()
	c.audio.Disconnect()
}

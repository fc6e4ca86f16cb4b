package clip

import (
	"errors"
	"image"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/keagan/reelcore/internal/frame"
	"github.com/keagan/reelcore/internal/surface"
)

// ErrInvalidSplitPoint reports a split time outside the clip interior.
// Structural edits driven by the UI fail softly; this is the only error the
// split path produces.
var ErrInvalidSplitPoint = errors.New("split point outside clip interior")

// Change is a partial transform update. Nil fields are left untouched.
type Change struct {
	X        *float64
	Y        *float64
	Scale    *float64
	Rotation *float64
}

// Options configures clip construction
type Options struct {
	Name      string
	StartTime float64
	// FPS is used when the source reports no frame rate of its own
	FPS float64
	// PrefetchDepth is how many upcoming source frames to request ahead of
	// playback. Zero disables prefetch.
	PrefetchDepth int
	Logger        zerolog.Logger
}

// Base carries the state every clip kind composes: identity, timeline
// placement, the frame service, an offscreen render surface, the speed
// controller and the render cache. Variants embed it and add their
// media-specific source.
//
// Speed and ripple deletes compose in a fixed order: a timeline instant is
// first remapped through the speed controller into source-domain time, and
// only then resolved against the (already edited) frame service. Interval
// removal therefore always operates on source-domain seconds.
type Base struct {
	id        string
	name      string
	kind      Kind
	startTime float64
	totalMs   float64 // source-domain duration, before speed
	width     int
	height    int
	ready     bool

	frames *frame.Service
	canvas *surface.Surface
	speed  *SpeedController

	cache renderCache
	log   zerolog.Logger
}

// renderCache memoizes the last resolved frame so idle clips on long
// timelines cost nothing per tick.
type renderCache struct {
	valid bool
	index int
	frame *frame.Frame
}

func newBase(kind Kind, opts Options, width, height int, frames *frame.Service) Base {
	name := opts.Name
	if name == "" {
		name = kind.String()
	}
	return Base{
		id:        uuid.NewString(),
		name:      name,
		kind:      kind,
		startTime: opts.StartTime,
		totalMs:   frames.Duration(),
		width:     width,
		height:    height,
		frames:    frames,
		canvas:    surface.New(width, height),
		speed:     NewSpeedController(),
		log:       opts.Logger.With().Str("component", "clip").Str("kind", kind.String()).Logger(),
	}
}

// ID returns the clip's stable identity
func (c *Base) ID() string {
	return c.id
}

// Name returns the display name
func (c *Base) Name() string {
	return c.name
}

// Kind returns the media kind tag
func (c *Base) Kind() Kind {
	return c.kind
}

// StartTime returns the timeline position in milliseconds
func (c *Base) StartTime() float64 {
	return c.startTime
}

// SetStartTime moves the clip on the timeline
func (c *Base) SetStartTime(ms float64) {
	c.startTime = ms
	c.frames.SetStartTime(ms)
}

// Duration returns the timeline span in milliseconds, after speed
func (c *Base) Duration() float64 {
	return c.speed.EffectiveDuration(c.totalMs)
}

// SourceDuration returns the source-domain duration, before speed
func (c *Base) SourceDuration() float64 {
	return c.totalMs
}

// Size returns the clip's pixel dimensions
func (c *Base) Size() (int, int) {
	return c.width, c.height
}

// Ready reports whether the source has decoded enough to render
func (c *Base) Ready() bool {
	return c.ready
}

// Speed returns the current playback multiplier
func (c *Base) Speed() float64 {
	return c.speed.Speed()
}

// SetSpeed changes the playback multiplier and dirties the render cache
func (c *Base) SetSpeed(speed float64) {
	c.speed.Set(speed)
	c.invalidateCache()
}

// IsLayerVisible reports whether the clip covers timeline instant t
func (c *Base) IsLayerVisible(t float64) bool {
	return c.startTime <= t && t < c.startTime+c.Duration()
}

// ShouldReRender reports whether drawing at t would produce different output
// than the cached render. A true result records the new state, so the next
// call for an unchanged t reports false.
func (c *Base) ShouldReRender(t float64) bool {
	f, idx := c.resolveFrame(t)
	return c.shouldReRenderResolved(f, idx)
}

func (c *Base) shouldReRenderResolved(f *frame.Frame, idx int) bool {
	if f == nil {
		return false
	}

	if c.cache.valid && c.cache.index == idx && sameTransform(c.cache.frame, f) {
		return false
	}

	c.cache = renderCache{valid: true, index: idx, frame: f}
	return true
}

// Update merges a partial transform change into the frame at referenceTime.
// Scale clamps to the frame minimum. Out-of-range times are a no-op.
func (c *Base) Update(change Change, referenceTime float64) bool {
	ref := c.speed.MapReferenceTime(referenceTime, c.startTime)
	idx := c.frames.GetIndex(ref, c.startTime)
	cur := c.frames.At(idx)
	if cur == nil {
		return false
	}

	if change.X != nil {
		cur.X = *change.X
	}
	if change.Y != nil {
		cur.Y = *change.Y
	}
	if change.Scale != nil {
		cur.SetScale(*change.Scale)
	}
	if change.Rotation != nil {
		cur.Rotation = *change.Rotation
	}

	if !c.frames.Update(idx, cur) {
		return false
	}
	c.invalidateCache()
	return true
}

// RemoveInterval ripple-deletes [startSec, endSec) of source-domain time.
// Returns false without mutation on invalid or empty ranges.
func (c *Base) RemoveInterval(startSec, endSec float64) bool {
	if !c.frames.RemoveInterval(startSec, endSec) {
		return false
	}
	c.totalMs = c.frames.Duration()
	c.invalidateCache()
	c.log.Debug().
		Float64("start_sec", startSec).
		Float64("end_sec", endSec).
		Float64("duration_ms", c.totalMs).
		Msg("removed interval")
	return true
}

// AdjustTotalTime grows or shrinks the clip by diffMs of source time
func (c *Base) AdjustTotalTime(diffMs float64) {
	c.frames.AdjustTotalTime(diffMs)
	c.totalMs = c.frames.Duration()
	c.invalidateCache()
}

// splitBase partitions the frame service at splitTime. The receiver keeps
// the second half (startTime becomes splitTime); the returned Base holds the
// first half under a fresh id. Split points outside the open interval fail.
func (c *Base) splitBase(splitTime float64) (Base, error) {
	if splitTime <= c.startTime || splitTime >= c.startTime+c.Duration() {
		return Base{}, ErrInvalidSplitPoint
	}

	localSource := (splitTime - c.startTime) * c.speed.Speed()
	firstSvc, err := c.frames.SplitAt(localSource)
	if err != nil {
		return Base{}, ErrInvalidSplitPoint
	}

	first := Base{
		id:        uuid.NewString(),
		name:      c.name,
		kind:      c.kind,
		startTime: c.startTime,
		totalMs:   firstSvc.Duration(),
		width:     c.width,
		height:    c.height,
		ready:     c.ready,
		frames:    firstSvc,
		canvas:    surface.New(c.width, c.height),
		speed:     c.speed.Clone(),
		log:       c.log,
	}

	c.startTime = splitTime
	c.frames.SetStartTime(splitTime)
	c.totalMs = c.frames.Duration()
	c.invalidateCache()

	return first, nil
}

// cloneBase deep-copies transform and speed state under a fresh id. Source
// data stays shared; cloning never triggers a second decode.
func (c *Base) cloneBase() Base {
	out := *c
	out.id = uuid.NewString()
	out.frames = c.frames.Clone()
	out.canvas = surface.New(c.width, c.height)
	out.speed = c.speed.Clone()
	out.cache = renderCache{}
	return out
}

// resolveFrame maps a timeline instant through the speed remap and resolves
// the interpolated frame plus its index.
func (c *Base) resolveFrame(t float64) (*frame.Frame, int) {
	ref := c.speed.MapReferenceTime(t, c.startTime)
	idx := c.frames.GetIndex(ref, c.startTime)
	return c.frames.GetFrame(ref, c.startTime), idx
}

// renderStatic is the shared draw path for clips whose pixel content does
// not vary by frame index (image, text, caption, shape): resolve the
// transform frame, reuse the cached canvas when nothing changed, otherwise
// recomposite img through the transform.
func (c *Base) renderStatic(out *surface.Surface, t float64, img image.Image) error {
	if !c.ready || !c.IsLayerVisible(t) {
		return nil
	}

	c.syncCanvas(out)

	f, idx := c.resolveFrame(t)
	if f == nil {
		return nil
	}

	if !c.shouldReRenderResolved(f, idx) {
		out.Composite(c.canvas.Image())
		return nil
	}

	if img == nil {
		c.invalidateCache()
		return nil
	}

	c.canvas.Clear()
	c.canvas.DrawImage(img, surface.DrawOptions{
		X:        f.X,
		Y:        f.Y,
		Scale:    f.Scale,
		Rotation: f.Rotation,
	})
	out.Composite(c.canvas.Image())
	return nil
}

func (c *Base) invalidateCache() {
	c.cache = renderCache{}
}

// syncCanvas keeps the offscreen canvas in the output's coordinate space so
// transform positions mean the same thing on both. A resize discards the
// cached render.
func (c *Base) syncCanvas(out *surface.Surface) {
	ow, oh := out.Size()
	cw, ch := c.canvas.Size()
	if cw != ow || ch != oh {
		c.canvas.SetSize(ow, oh)
		c.invalidateCache()
	}
}

func (c *Base) setReady(ready bool) {
	c.ready = ready
}

func sameTransform(a, b *frame.Frame) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.X == b.X && a.Y == b.Y && a.Scale == b.Scale && a.Rotation == b.Rotation
}

package clip

import (
	"context"
	"fmt"

	"github.com/keagan/reelcore/internal/frame"
	"github.com/keagan/reelcore/internal/source"
	"github.com/keagan/reelcore/internal/surface"
)

// VideoClip renders decoded video frames through its transform timeline.
// When the source reports real capture timestamps the frame service uses
// them for addressing, which keeps variable-frame-rate material accurate.
type VideoClip struct {
	Base
	src      source.FrameSource
	prefetch int
}

// NewVideoClip builds a clip over a probed frame source. The clip starts
// not-ready; Init performs the first decode.
func NewVideoClip(src source.FrameSource, opts Options) *VideoClip {
	meta := src.Metadata()

	fps := meta.FPS
	if fps <= 0 {
		fps = opts.FPS
	}

	svc := frame.NewService(frame.ServiceOptions{
		StartTime:  opts.StartTime,
		DurationMs: meta.TotalDurationMs,
		FPS:        fps,
		Timestamps: meta.Timestamps,
		Logger:     opts.Logger,
	})

	return &VideoClip{
		Base:     newBase(KindVideo, opts, meta.Width, meta.Height, svc),
		src:      src,
		prefetch: opts.PrefetchDepth,
	}
}

// Init decodes the first frame to prove the source is usable, then marks
// the clip ready. A failed decode leaves the clip not-ready and skipped by
// Render until the host resolves or removes it.
func (c *VideoClip) Init(ctx context.Context) error {
	if c.Ready() {
		return nil
	}

	if _, err := c.src.GetFrameAtIndex(ctx, 0, c.prefetch); err != nil {
		return fmt.Errorf("init %s clip %s: %w", c.Kind(), c.Name(), err)
	}

	c.setReady(true)
	return nil
}

// Render resolves the frame at currentTime, fetches pixel data when the
// cached render is stale, and composites through the transform. Missing or
// still-decoding data skips the frame silently.
func (c *VideoClip) Render(ctx context.Context, out *surface.Surface, currentTime float64, playing bool) error {
	if !c.Ready() || !c.IsLayerVisible(currentTime) {
		return nil
	}

	c.syncCanvas(out)

	f, idx := c.resolveFrame(currentTime)
	if f == nil {
		return nil
	}

	if !c.shouldReRenderResolved(f, idx) {
		out.Composite(c.canvas.Image())
		return nil
	}

	srcIdx := f.SourceIndex
	if srcIdx < 0 {
		srcIdx = idx
	}

	hint := 0
	if playing {
		hint = c.prefetch
	}

	data, err := c.src.GetFrameAtIndex(ctx, srcIdx, hint)
	if err != nil {
		c.invalidateCache()
		c.log.Debug().Err(err).Int("index", srcIdx).Msg("frame fetch failed, skipping")
		return nil
	}

	// The fetch may have suspended; a clip that went not-ready or invisible
	// in the meantime discards the frame with no side effects.
	if !c.Ready() || !c.IsLayerVisible(currentTime) {
		c.invalidateCache()
		return nil
	}
	if data == nil {
		c.invalidateCache()
		return nil
	}

	c.canvas.Clear()
	c.canvas.DrawImage(data, surface.DrawOptions{
		X:        f.X,
		Y:        f.Y,
		Scale:    f.Scale,
		Rotation: f.Rotation,
	})
	out.Composite(c.canvas.Image())
	return nil
}

// GetFrame resolves the interpolated frame at t with its pixel data attached
func (c *VideoClip) GetFrame(ctx context.Context, t float64) (*frame.Frame, error) {
	f, idx := c.resolveFrame(t)
	if f == nil {
		return nil, nil
	}

	srcIdx := f.SourceIndex
	if srcIdx < 0 {
		srcIdx = idx
	}

	data, err := c.src.GetFrameAtIndex(ctx, srcIdx, 0)
	if err != nil {
		return nil, fmt.Errorf("get frame at %.1fms: %w", t, err)
	}
	f.Data = data
	return f, nil
}

// Split cuts the clip at splitTime. The receiver keeps the second half; the
// returned clip holds the first half and shares the source.
func (c *VideoClip) Split(splitTime float64) (Renderable, error) {
	first, err := c.splitBase(splitTime)
	if err != nil {
		return nil, err
	}
	return &VideoClip{Base: first, src: c.src, prefetch: c.prefetch}, nil
}

// Clone returns an independent copy sharing the decoded source
func (c *VideoClip) Clone() *VideoClip {
	return &VideoClip{Base: c.cloneBase(), src: c.src, prefetch: c.prefetch}
}

// Disconnect releases the source's decoded data
func (c *VideoClip) Disconnect() {
	if err := c.src.Cleanup(); err != nil {
		c.log.Warn().Err(err).Msg("source cleanup failed")
	}
}

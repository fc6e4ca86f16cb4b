package clip

import (
	"context"
	"fmt"
	"image"

	"github.com/keagan/reelcore/internal/frame"
	"github.com/keagan/reelcore/internal/source"
	"github.com/keagan/reelcore/internal/surface"
)

// ImageClip shows one still picture for its whole duration. The transform
// timeline still runs at the clip's frame rate, so stills can be keyframed
// like any other layer.
type ImageClip struct {
	Base
	src source.FrameSource
	img image.Image
}

// NewImageClip builds a clip over a static frame source
func NewImageClip(src source.FrameSource, opts Options) *ImageClip {
	meta := src.Metadata()

	svc := frame.NewService(frame.ServiceOptions{
		StartTime:  opts.StartTime,
		DurationMs: meta.TotalDurationMs,
		FPS:        pickFPS(meta.FPS, opts.FPS),
		Logger:     opts.Logger,
	})

	return &ImageClip{
		Base: newBase(KindImage, opts, meta.Width, meta.Height, svc),
		src:  src,
	}
}

// Init fetches the picture once and marks the clip ready
func (c *ImageClip) Init(ctx context.Context) error {
	if c.Ready() {
		return nil
	}

	img, err := c.src.GetFrameAtIndex(ctx, 0, 0)
	if err != nil {
		return fmt.Errorf("init %s clip %s: %w", c.Kind(), c.Name(), err)
	}
	if img == nil {
		return fmt.Errorf("init %s clip %s: no image data", c.Kind(), c.Name())
	}

	c.img = img
	c.setReady(true)
	return nil
}

// Render composites the still through the transform at currentTime
func (c *ImageClip) Render(ctx context.Context, out *surface.Surface, currentTime float64, playing bool) error {
	if err := ctx.Err(); err != nil {
		return nil
	}
	return c.renderStatic(out, currentTime, c.img)
}

// Split cuts the clip at splitTime
func (c *ImageClip) Split(splitTime float64) (Renderable, error) {
	first, err := c.splitBase(splitTime)
	if err != nil {
		return nil, err
	}
	return &ImageClip{Base: first, src: c.src, img: c.img}, nil
}

// Clone returns an independent copy sharing the decoded picture
func (c *ImageClip) Clone() *ImageClip {
	return &ImageClip{Base: c.cloneBase(), src: c.src, img: c.img}
}

// Disconnect releases the source
func (c *ImageClip) Disconnect() {
	if err := c.src.Cleanup(); err != nil {
		c.log.Warn().Err(err).Msg("source cleanup failed")
	}
}

func pickFPS(sourceFPS, optFPS float64) float64 {
	if sourceFPS > 0 {
		return sourceFPS
	}
	return optFPS
}

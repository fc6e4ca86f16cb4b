package clip

import (
	"context"
	"image"
	"image/color"
	"image/draw"

	"github.com/keagan/reelcore/internal/frame"
	"github.com/keagan/reelcore/internal/surface"
)

// ShapeKind selects the geometry a shape layer rasterizes
type ShapeKind int

const (
	ShapeRect ShapeKind = iota
	ShapeEllipse
)

// ShapeOptions configures a shape layer
type ShapeOptions struct {
	Options
	Width      int
	Height     int
	DurationMs float64
	Fill       color.RGBA
	Shape      ShapeKind
}

// ShapeClip is a solid vector-ish layer rasterized once at construction
type ShapeClip struct {
	Base
	shape ShapeKind
	fill  color.RGBA
	img   *image.RGBA
}

// NewShapeClip rasterizes a filled shape into a clip
func NewShapeClip(opts ShapeOptions) *ShapeClip {
	if opts.Width <= 0 {
		opts.Width = 100
	}
	if opts.Height <= 0 {
		opts.Height = 100
	}
	if opts.DurationMs <= 0 {
		opts.DurationMs = 3000
	}

	svc := frame.NewService(frame.ServiceOptions{
		StartTime:  opts.StartTime,
		DurationMs: opts.DurationMs,
		FPS:        opts.FPS,
		Logger:     opts.Logger,
	})

	return &ShapeClip{
		Base:  newBase(KindShape, opts.Options, opts.Width, opts.Height, svc),
		shape: opts.Shape,
		fill:  opts.Fill,
		img:   rasterizeShape(opts.Shape, opts.Width, opts.Height, opts.Fill),
	}
}

// Init marks the clip ready
func (c *ShapeClip) Init(ctx context.Context) error {
	c.setReady(true)
	return nil
}

// Render composites the shape through the transform
func (c *ShapeClip) Render(ctx context.Context, out *surface.Surface, currentTime float64, playing bool) error {
	if err := ctx.Err(); err != nil {
		return nil
	}
	return c.renderStatic(out, currentTime, c.img)
}

// Split cuts the clip at splitTime
func (c *ShapeClip) Split(splitTime float64) (Renderable, error) {
	first, err := c.splitBase(splitTime)
	if err != nil {
		return nil, err
	}
	return &ShapeClip{Base: first, shape: c.shape, fill: c.fill, img: c.img}, nil
}

// Clone returns an independent copy
func (c *ShapeClip) Clone() *ShapeClip {
	return &ShapeClip{Base: c.cloneBase(), shape: c.shape, fill: c.fill, img: c.img}
}

// Disconnect is a no-op: shape layers hold no external resources
func (c *ShapeClip) Disconnect() {}

func rasterizeShape(kind ShapeKind, width, height int, fill color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	switch kind {
	case ShapeEllipse:
		cx := float64(width) / 2
		cy := float64(height) / 2
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				dx := (float64(x) + 0.5 - cx) / cx
				dy := (float64(y) + 0.5 - cy) / cy
				if dx*dx+dy*dy <= 1 {
					img.SetRGBA(x, y, fill)
				}
			}
		}
	default:
		draw.Draw(img, img.Bounds(), image.NewUniform(fill), image.Point{}, draw.Src)
	}
	return img
}

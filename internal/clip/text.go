package clip

import (
	"context"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/keagan/reelcore/internal/frame"
	"github.com/keagan/reelcore/internal/surface"
)

// TextOptions configures a text layer
type TextOptions struct {
	Options
	DurationMs float64
	Color      color.Color
}

// TextClip is a synthetic layer: its pixels are rasterized from a string
// and its frame timeline is a flexible fixed-fps grid for keyframing.
type TextClip struct {
	Base
	text string
	fg   color.Color
	img  *image.RGBA
}

// NewTextClip rasterizes text into a clip
func NewTextClip(text string, opts TextOptions) *TextClip {
	if opts.DurationMs <= 0 {
		opts.DurationMs = 3000
	}
	if opts.Color == nil {
		opts.Color = color.White
	}

	img := renderText(text, opts.Color)
	b := img.Bounds()

	svc := frame.NewService(frame.ServiceOptions{
		StartTime:  opts.StartTime,
		DurationMs: opts.DurationMs,
		FPS:        opts.FPS,
		Logger:     opts.Logger,
	})

	return &TextClip{
		Base: newBase(KindText, opts.Options, b.Dx(), b.Dy(), svc),
		text: text,
		fg:   opts.Color,
		img:  img,
	}
}

// Text returns the current string
func (c *TextClip) Text() string {
	return c.text
}

// SetText re-rasterizes the layer with new content
func (c *TextClip) SetText(text string) {
	c.text = text
	c.img = renderText(text, c.fg)
	c.invalidateCache()
}

// Init marks the clip ready; rasterization already happened at construction
func (c *TextClip) Init(ctx context.Context) error {
	c.setReady(true)
	return nil
}

// Render composites the rasterized text through the transform
func (c *TextClip) Render(ctx context.Context, out *surface.Surface, currentTime float64, playing bool) error {
	if err := ctx.Err(); err != nil {
		return nil
	}
	return c.renderStatic(out, currentTime, c.img)
}

// Split cuts the clip at splitTime
func (c *TextClip) Split(splitTime float64) (Renderable, error) {
	first, err := c.splitBase(splitTime)
	if err != nil {
		return nil, err
	}
	return &TextClip{Base: first, text: c.text, fg: c.fg, img: c.img}, nil
}

// Clone returns an independent copy
func (c *TextClip) Clone() *TextClip {
	return &TextClip{Base: c.cloneBase(), text: c.text, fg: c.fg, img: c.img}
}

// Disconnect is a no-op: text layers hold no external resources
func (c *TextClip) Disconnect() {}

// renderText rasterizes a string with the built-in bitmap face. Hosts that
// need styled typography draw their own image and use an ImageClip.
func renderText(text string, fg color.Color) *image.RGBA {
	face := basicfont.Face7x13

	width := font.MeasureString(face, text).Ceil()
	if width < 1 {
		width = 1
	}
	metrics := face.Metrics()
	height := (metrics.Ascent + metrics.Descent).Ceil()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.Point26_6{X: 0, Y: metrics.Ascent},
	}
	d.DrawString(text)
	return img
}

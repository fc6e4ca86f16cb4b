// Package surface provides the 2D raster canvas clips composite into.
package surface

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Surface is an RGBA canvas with the small canvas-style operation set the
// clip renderers need: resize, clear, affine-composited draws and raw pixel
// access.
type Surface struct {
	img *image.RGBA
}

// DrawOptions positions a source image on the surface. X and Y give the
// center of the drawn image; Scale and Rotation apply around that center.
type DrawOptions struct {
	X        float64
	Y        float64
	Scale    float64
	Rotation float64 // degrees
}

// New creates a surface of the given size
func New(width, height int) *Surface {
	return &Surface{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// SetSize reallocates the backing pixels. Contents are discarded.
func (s *Surface) SetSize(width, height int) {
	s.img = image.NewRGBA(image.Rect(0, 0, width, height))
}

// Size returns the current width and height
func (s *Surface) Size() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// Clear resets the whole surface to transparent
func (s *Surface) Clear() {
	b := s.img.Bounds()
	s.ClearRect(b.Min.X, b.Min.Y, b.Dx(), b.Dy())
}

// ClearRect resets a region to transparent
func (s *Surface) ClearRect(x, y, width, height int) {
	r := image.Rect(x, y, x+width, y+height).Intersect(s.img.Bounds())
	draw.Draw(s.img, r, image.NewUniform(color.RGBA{}), image.Point{}, draw.Src)
}

// DrawImage composites src onto the surface through the transform in opts:
// src is centered on (X, Y), scaled, then rotated about its center.
func (s *Surface) DrawImage(src image.Image, opts DrawOptions) {
	if src == nil {
		return
	}

	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}

	b := src.Bounds()
	cx := float64(b.Min.X) + float64(b.Dx())/2
	cy := float64(b.Min.Y) + float64(b.Dy())/2

	rad := opts.Rotation * math.Pi / 180
	cos := math.Cos(rad) * scale
	sin := math.Sin(rad) * scale

	// dst = translate(X,Y) * rotate * scale * translate(-center)
	aff := f64.Aff3{
		cos, -sin, opts.X - cos*cx + sin*cy,
		sin, cos, opts.Y - sin*cx - cos*cy,
	}

	xdraw.BiLinear.Transform(s.img, aff, src, b, xdraw.Over, nil)
}

// Composite alpha-blends src onto the surface at the origin
func (s *Surface) Composite(src image.Image) {
	if src == nil {
		return
	}
	b := src.Bounds()
	r := image.Rect(0, 0, b.Dx(), b.Dy()).Intersect(s.img.Bounds())
	draw.Draw(s.img, r, src, b.Min, draw.Over)
}

// GetImageData returns a copy of the current pixels
func (s *Surface) GetImageData() *image.RGBA {
	out := image.NewRGBA(s.img.Bounds())
	copy(out.Pix, s.img.Pix)
	return out
}

// PutImageData writes raw pixels at (x, y) without blending
func (s *Surface) PutImageData(src image.Image, x, y int) {
	if src == nil {
		return
	}
	b := src.Bounds()
	r := image.Rect(x, y, x+b.Dx(), y+b.Dy())
	draw.Draw(s.img, r, src, b.Min, draw.Src)
}

// Image exposes the backing pixels read-only
func (s *Surface) Image() image.Image {
	return s.img
}

// EncodePNG writes the surface contents as PNG
func (s *Surface) EncodePNG(w io.Writer) error {
	return png.Encode(w, s.img)
}

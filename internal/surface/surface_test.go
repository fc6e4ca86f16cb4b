package surface

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func TestSetSizeDiscardsContents(t *testing.T) {
	s := New(10, 10)
	s.PutImageData(solid(10, 10, color.RGBA{R: 255, A: 255}), 0, 0)

	s.SetSize(20, 20)
	if w, h := s.Size(); w != 20 || h != 20 {
		t.Fatalf("size = %dx%d, want 20x20", w, h)
	}
	if px := s.GetImageData().RGBAAt(5, 5); px.A != 0 {
		t.Fatal("resize must discard old pixels")
	}
}

func TestDrawImageCentersOnXY(t *testing.T) {
	s := New(100, 100)
	s.DrawImage(solid(10, 10, color.RGBA{B: 255, A: 255}), DrawOptions{X: 50, Y: 50, Scale: 1})

	out := s.GetImageData()
	if px := out.RGBAAt(50, 50); px.B == 0 {
		t.Fatal("expected pixels at the draw center")
	}
	// The 10x10 square covers roughly [45,55); well outside must stay empty.
	if px := out.RGBAAt(70, 50); px.A != 0 {
		t.Fatal("pixels leaked outside the drawn extent")
	}
}

func TestDrawImageScales(t *testing.T) {
	s := New(100, 100)
	s.DrawImage(solid(10, 10, color.RGBA{G: 255, A: 255}), DrawOptions{X: 50, Y: 50, Scale: 4})

	out := s.GetImageData()
	// At 4x the square spans [30,70); a point past the unscaled extent but
	// inside the scaled one proves the scale applied.
	if px := out.RGBAAt(62, 50); px.G == 0 {
		t.Fatal("expected pixels inside the scaled extent")
	}
}

func TestDrawImageRotates(t *testing.T) {
	// A wide thin bar rotated 90 degrees becomes tall and thin.
	s := New(100, 100)
	s.DrawImage(solid(40, 4, color.RGBA{R: 255, A: 255}), DrawOptions{X: 50, Y: 50, Scale: 1, Rotation: 90})

	out := s.GetImageData()
	if px := out.RGBAAt(50, 65); px.R == 0 {
		t.Fatal("expected the bar along the vertical axis")
	}
	if px := out.RGBAAt(65, 50); px.A != 0 {
		t.Fatal("the bar must have left the horizontal axis")
	}
}

func TestClearRect(t *testing.T) {
	s := New(20, 20)
	s.PutImageData(solid(20, 20, color.RGBA{R: 255, A: 255}), 0, 0)

	s.ClearRect(5, 5, 5, 5)
	out := s.GetImageData()
	if px := out.RGBAAt(7, 7); px.A != 0 {
		t.Fatal("cleared region must be transparent")
	}
	if px := out.RGBAAt(2, 2); px.R != 255 {
		t.Fatal("pixels outside the cleared region must survive")
	}
}

func TestCompositeBlendsOver(t *testing.T) {
	s := New(10, 10)
	s.PutImageData(solid(10, 10, color.RGBA{R: 255, A: 255}), 0, 0)

	// An opaque layer replaces; the transparent part of a layer does not.
	overlay := image.NewRGBA(image.Rect(0, 0, 10, 10))
	draw.Draw(overlay, image.Rect(0, 0, 5, 10), image.NewUniform(color.RGBA{B: 255, A: 255}), image.Point{}, draw.Src)
	s.Composite(overlay)

	out := s.GetImageData()
	if px := out.RGBAAt(2, 5); px.B != 255 {
		t.Fatal("opaque overlay half must win")
	}
	if px := out.RGBAAt(8, 5); px.R != 255 {
		t.Fatal("transparent overlay half must show the layer below")
	}
}

func TestEncodePNGRoundTrip(t *testing.T) {
	s := New(8, 8)
	s.PutImageData(solid(8, 8, color.RGBA{G: 200, A: 255}), 0, 0)

	var buf bytes.Buffer
	if err := s.EncodePNG(&buf); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 8 {
		t.Fatalf("decoded bounds %v, want 8x8", b)
	}
	r, g, _, _ := img.At(4, 4).RGBA()
	if r != 0 || g == 0 {
		t.Fatal("decoded pixels do not match what was drawn")
	}
}

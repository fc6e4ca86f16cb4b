package clip

import (
	"context"
	"image/color"
	"testing"

	"github.com/rs/zerolog"

	"github.com/keagan/reelcore/internal/source"
)

func newTestComposedClip(t *testing.T, videoMs, audioMs float64) *ComposedClip {
	t.Helper()

	vsrc := source.NewSyntheticSource(10, 10, videoMs, 24, color.RGBA{G: 255, A: 255})
	video := NewVideoClip(vsrc, Options{Name: "test"})

	samples := make([]float64, int(audioMs))
	for i := range samples {
		samples[i] = float64(i)
	}
	asrc := source.NewMemoryAudioSource(samples, 1000, 1)
	audio := NewAudioClip(asrc, Options{Name: "test"})

	c := NewComposedClip(video, audio, zerolog.Nop())
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	return c
}

func TestComposedRemoveIntervalIdempotent(t *testing.T) {
	c := newTestComposedClip(t, 10000, 10000)

	if !c.RemoveInterval(1, 2) {
		t.Fatal("first removeInterval failed")
	}
	if !c.RemoveInterval(1, 2) {
		t.Fatal("duplicate removeInterval must still report success")
	}

	// The duplicate must not cut a second time.
	if !almostEqual(c.Video().Duration(), 9000) {
		t.Fatalf("video duration %v, want 9000", c.Video().Duration())
	}
	if !almostEqual(c.Audio().Duration(), 9000) {
		t.Fatalf("audio duration %v, want 9000", c.Audio().Duration())
	}

	// A different range is a new edit.
	if !c.RemoveInterval(0, 1) {
		t.Fatal("distinct removeInterval failed")
	}
	if !almostEqual(c.Video().Duration(), 8000) {
		t.Fatalf("video duration %v, want 8000", c.Video().Duration())
	}
}

func TestComposedRemoveIntervalPartialFailure(t *testing.T) {
	// Audio runs out at 2s, so a cut at 3s lands on video only.
	c := newTestComposedClip(t, 10000, 2000)

	if c.RemoveInterval(3, 4) {
		t.Fatal("cut past the audio end must report failure")
	}
	// The video half was still mutated; the caller sees the inconsistency
	// through the false return, not a rollback.
	if !almostEqual(c.Video().Duration(), 9000) {
		t.Fatalf("video duration %v, want 9000", c.Video().Duration())
	}
}

func TestComposedDurationIsLongerHalf(t *testing.T) {
	c := newTestComposedClip(t, 10000, 12000)

	if !almostEqual(c.Duration(), 12000) {
		t.Fatalf("duration %v, want the audio half's 12000", c.Duration())
	}
	if !c.IsLayerVisible(11000) {
		t.Fatal("composed clip must stay visible through the longer half")
	}
}

func TestComposedSplitKeepsHalvesAligned(t *testing.T) {
	c := newTestComposedClip(t, 10000, 10000)

	first, err := c.Split(4000)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	fc := first.(*ComposedClip)

	if fc.StartTime() != 0 || c.StartTime() != 4000 {
		t.Fatalf("halves start at %v and %v, want 0 and 4000", fc.StartTime(), c.StartTime())
	}
	if fc.Video().StartTime() != fc.Audio().StartTime() {
		t.Fatal("first half's tracks drifted apart")
	}
	if c.Video().StartTime() != c.Audio().StartTime() {
		t.Fatal("receiver's tracks drifted apart")
	}
	if fc.ID() == c.ID() {
		t.Fatal("first half needs its own identity")
	}
}

func TestComposedSplitOutsideInterior(t *testing.T) {
	c := newTestComposedClip(t, 10000, 10000)

	for _, ms := range []float64{0, 10000, -5, 15000} {
		if _, err := c.Split(ms); err != ErrInvalidSplitPoint {
			t.Fatalf("split at %vms: want ErrInvalidSplitPoint got %v", ms, err)
		}
	}
}

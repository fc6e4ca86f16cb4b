package frame

import (
	"image"
	"testing"
)

func TestAdjustTotalTimeGrow(t *testing.T) {
	s := newGridService(1000, 10)

	s.AdjustTotalTime(500)
	if s.Len() != 15 {
		t.Fatalf("expected 15 frames after grow, got %d", s.Len())
	}
	if !almostEqual(s.Duration(), 1500) {
		t.Fatalf("expected duration 1500ms, got %v", s.Duration())
	}
	// Fresh frames, not anchors.
	if s.IsAnchor(12) {
		t.Fatal("grown frames must not be anchors")
	}
}

func TestAdjustTotalTimeGrowDuplicatesDataFrame(t *testing.T) {
	s := newGridService(1000, 10)

	last := New(0, 0)
	last.X = 33
	last.Data = image.NewRGBA(image.Rect(0, 0, 2, 2))
	s.Update(9, last)

	s.AdjustTotalTime(300)
	if s.Len() != 13 {
		t.Fatalf("expected 13 frames, got %d", s.Len())
	}
	grown := s.At(12)
	if grown.Data == nil || grown.X != 33 {
		t.Fatal("growth past a data-bearing tail must duplicate it")
	}
}

func TestAdjustTotalTimeShrink(t *testing.T) {
	s := newGridService(1000, 10)

	s.AdjustTotalTime(-400)
	if s.Len() != 6 {
		t.Fatalf("expected 6 frames after shrink, got %d", s.Len())
	}
	if !almostEqual(s.Duration(), 600) {
		t.Fatalf("expected duration 600ms, got %v", s.Duration())
	}
}

func TestShrinkClampsToSingleFrame(t *testing.T) {
	s := newGridService(1000, 10)

	s.AdjustTotalTime(-1000)
	if s.Len() != 1 {
		t.Fatalf("degenerate shrink must keep exactly one frame, got %d", s.Len())
	}
	if !almostEqual(s.Duration(), 100) {
		t.Fatalf("duration must reset to one frame (100ms), got %v", s.Duration())
	}
	if !s.IsAnchor(0) {
		t.Fatal("surviving frame must be anchored")
	}
}

func TestRemoveInterval(t *testing.T) {
	s := newGridService(10000, 24)

	// Mark the frame that should land at 2.5s after the cut. 5.5s at 24fps
	// is frame 132.
	marker := New(0, 0)
	marker.X = 99
	s.Update(132, marker)

	if !s.RemoveInterval(2, 5) {
		t.Fatal("removeInterval failed")
	}

	if s.Len() != 168 {
		t.Fatalf("expected 240-72=168 frames, got %d", s.Len())
	}
	if !almostEqual(s.Duration(), 7000) {
		t.Fatalf("expected duration 7000ms, got %v", s.Duration())
	}

	got := s.GetFrame(2500, 0)
	if got == nil || got.X != 99 {
		t.Fatalf("frame at 2.5s should be what was at 5.5s, got %v", got)
	}
}

func TestRemoveIntervalInvalidRanges(t *testing.T) {
	s := newGridService(10000, 24)

	cases := []struct {
		name       string
		start, end float64
	}{
		{"negative start", -1, 2},
		{"inverted", 5, 2},
		{"empty", 3, 3},
		{"past end", 11, 12},
	}
	for _, tc := range cases {
		if s.RemoveInterval(tc.start, tc.end) {
			t.Fatalf("%s: interval (%v, %v) must be rejected", tc.name, tc.start, tc.end)
		}
	}
	if s.Len() != 240 {
		t.Fatal("rejected intervals must not mutate")
	}
}

func TestRemoveIntervalClampsEndToDuration(t *testing.T) {
	s := newGridService(10000, 24)

	if !s.RemoveInterval(8, 100) {
		t.Fatal("interval with over-long end should clamp and succeed")
	}
	if !almostEqual(s.Duration(), 8000) {
		t.Fatalf("expected duration 8000ms, got %v", s.Duration())
	}
}

func TestRemoveIntervalWholeClipClamps(t *testing.T) {
	s := newGridService(1000, 10)

	if !s.RemoveInterval(0, 10) {
		t.Fatal("whole-clip interval should clamp, not fail")
	}
	if s.Len() != 1 {
		t.Fatalf("expected single surviving frame, got %d", s.Len())
	}
	if !almostEqual(s.Duration(), 100) {
		t.Fatalf("expected one-frame duration 100ms, got %v", s.Duration())
	}
}

func TestRemoveIntervalTimestampMode(t *testing.T) {
	s := NewService(ServiceOptions{
		DurationMs: 4000,
		FPS:        24,
		Timestamps: []float64{0, 1, 2, 3},
	})

	if !s.RemoveInterval(1, 2) {
		t.Fatal("removeInterval failed")
	}
	if s.Len() != 3 {
		t.Fatalf("expected 3 frames, got %d", s.Len())
	}
	if !almostEqual(s.Duration(), 3000) {
		t.Fatalf("expected duration 3000ms, got %v", s.Duration())
	}
	// The 2s frame shifted to 1s.
	if got := s.GetIndex(1000, 0); got != 1 {
		t.Fatalf("expected shifted frame at index 1, got %d", got)
	}
}

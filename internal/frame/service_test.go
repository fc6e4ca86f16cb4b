package frame

import (
	"testing"
)

func newGridService(durationMs, fps float64) *Service {
	return NewService(ServiceOptions{DurationMs: durationMs, FPS: fps})
}

func TestNewServiceInvariants(t *testing.T) {
	s := newGridService(10000, 24)
	if s.Len() != 240 {
		t.Fatalf("expected 240 frames, got %d", s.Len())
	}
	if !s.IsAnchor(0) {
		t.Fatal("first frame must be an anchor on creation")
	}

	tiny := newGridService(1, 24)
	if tiny.Len() != 1 {
		t.Fatalf("service must never initialize empty, got %d frames", tiny.Len())
	}
}

func TestGetFrameInsideAndOutside(t *testing.T) {
	s := newGridService(10000, 24)

	for _, ms := range []float64{0, 1, 5000, 9999} {
		if s.GetFrame(ms, 0) == nil {
			t.Fatalf("expected frame at %vms", ms)
		}
	}
	for _, ms := range []float64{-1, -500, 10000, 20000} {
		if s.GetFrame(ms, 0) != nil {
			t.Fatalf("expected nil outside clip at %vms", ms)
		}
	}
}

func TestGetFrameRespectsStartTime(t *testing.T) {
	s := NewService(ServiceOptions{StartTime: 2000, DurationMs: 1000, FPS: 10})

	if s.GetFrame(1999, 2000) != nil {
		t.Fatal("expected nil before start")
	}
	if s.GetFrame(2500, 2000) == nil {
		t.Fatal("expected frame inside clip")
	}
}

func TestGetIndexTimestampMode(t *testing.T) {
	s := NewService(ServiceOptions{
		DurationMs: 3000,
		FPS:        24,
		Timestamps: []float64{0, 0.5, 2.0},
	})

	cases := []struct {
		timeMs float64
		want   int
	}{
		{-100, 0}, // below first: clamp to 0
		{0, 0},
		{499, 0},
		{500, 1},
		{700, 1},
		{2000, 2},
		{9999, 2}, // beyond last: clamp to last index
	}
	for _, tc := range cases {
		if got := s.GetIndex(tc.timeMs, 0); got != tc.want {
			t.Fatalf("GetIndex(%v) = %d, want %d", tc.timeMs, got, tc.want)
		}
	}
}

func TestGetFrameInterpolatesByTimeDistance(t *testing.T) {
	s := NewService(ServiceOptions{
		DurationMs: 2000,
		FPS:        24,
		Timestamps: []float64{0, 1.0, 1.5},
	})

	// Authored keyframes at uneven spacing.
	f0 := New(0, 0)
	f1 := New(100, 0)
	f2 := New(200, 0)
	s.Update(0, f0)
	s.Update(1, f1)
	s.Update(2, f2)

	// 0.5s is halfway between the 0s and 1.0s frames.
	got := s.GetFrame(500, 0)
	if !almostEqual(got.X, 50) {
		t.Fatalf("expected x=50 at 0.5s, got %v", got.X)
	}

	// 1.25s is halfway between the 1.0s and 1.5s frames, even though it is
	// only a quarter of the way through the array tail.
	got = s.GetFrame(1250, 0)
	if !almostEqual(got.X, 150) {
		t.Fatalf("expected x=150 at 1.25s, got %v", got.X)
	}
}

func TestUpdateOutOfRangeIsNoOp(t *testing.T) {
	s := newGridService(1000, 10)

	if s.Update(-1, New(0, 0)) {
		t.Fatal("negative index must be rejected")
	}
	if s.Update(100, New(0, 0)) {
		t.Fatal("past-end index must be rejected")
	}
	if s.Update(3, nil) {
		t.Fatal("nil frame must be rejected")
	}
}

func TestSliceRippleDelete(t *testing.T) {
	s := newGridService(1000, 10)

	marker := New(77, 0)
	s.Update(5, marker)

	if !s.Slice(2, 3) {
		t.Fatal("slice failed")
	}
	if s.Len() != 7 {
		t.Fatalf("expected 7 frames after slice, got %d", s.Len())
	}
	// Frame 5 shifted left by 3.
	if got := s.At(2); got.X != 77 {
		t.Fatalf("expected marker frame to shift to index 2, got x=%v", got.X)
	}
	if !almostEqual(s.Duration(), 700) {
		t.Fatalf("expected duration 700ms, got %v", s.Duration())
	}
}

func TestSliceRefusesToEmpty(t *testing.T) {
	s := newGridService(1000, 10)
	if s.Slice(0, 10) {
		t.Fatal("slice must refuse to remove every frame")
	}
	if s.Len() != 10 {
		t.Fatalf("failed slice must not mutate, got %d frames", s.Len())
	}
}

func TestSplitAt(t *testing.T) {
	s := newGridService(10000, 24)

	first, err := s.SplitAt(4000)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}

	if !almostEqual(first.Duration(), 4000) {
		t.Fatalf("first half duration: want 4000 got %v", first.Duration())
	}
	if !almostEqual(s.Duration(), 6000) {
		t.Fatalf("second half duration: want 6000 got %v", s.Duration())
	}
	if first.Len()+s.Len() != 240 {
		t.Fatalf("split lost frames: %d + %d != 240", first.Len(), s.Len())
	}
	if !first.IsAnchor(0) || !s.IsAnchor(0) {
		t.Fatal("both halves must start with an anchor frame")
	}
}

func TestSplitAtRejectsBoundary(t *testing.T) {
	s := newGridService(10000, 24)

	for _, ms := range []float64{0, -5, 10000, 15000} {
		if _, err := s.SplitAt(ms); err == nil {
			t.Fatalf("split at %vms should fail", ms)
		}
	}
	if s.Len() != 240 {
		t.Fatal("failed split must not mutate")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := newGridService(1000, 10)
	c := s.Clone()

	f := New(42, 0)
	s.Update(0, f)

	if c.At(0).X == 42 {
		t.Fatal("clone shares frame storage with original")
	}
	if c.Len() != s.Len() || !almostEqual(c.Duration(), s.Duration()) {
		t.Fatal("clone shape mismatch")
	}
}

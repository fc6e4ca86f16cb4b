package clip

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	const eps = 1e-9
	return math.Abs(a-b) <= eps
}

func TestEffectiveDuration(t *testing.T) {
	s := NewSpeedController()

	s.Set(2)
	if got := s.EffectiveDuration(10000); !almostEqual(got, 5000) {
		t.Fatalf("at 2x: want 5000 got %v", got)
	}

	s.Set(0.5)
	if got := s.EffectiveDuration(10000); !almostEqual(got, 20000) {
		t.Fatalf("at 0.5x: want 20000 got %v", got)
	}
}

func TestMapReferenceTime(t *testing.T) {
	s := NewSpeedController()
	s.Set(2)

	// One timeline second past the clip start consumes two source seconds.
	if got := s.MapReferenceTime(2000, 1000); !almostEqual(got, 3000) {
		t.Fatalf("want 3000 got %v", got)
	}

	s.Set(1)
	if got := s.MapReferenceTime(2000, 1000); !almostEqual(got, 2000) {
		t.Fatalf("identity speed must not remap, got %v", got)
	}
}

func TestSpeedClamp(t *testing.T) {
	s := NewSpeedController()

	s.Set(0)
	if s.Speed() != MinSpeed {
		t.Fatalf("speed should clamp up to %v, got %v", MinSpeed, s.Speed())
	}

	s.Set(-3)
	if s.Speed() != MinSpeed {
		t.Fatalf("negative speed should clamp to %v, got %v", MinSpeed, s.Speed())
	}

	s.Set(1000)
	if s.Speed() != MaxSpeed {
		t.Fatalf("speed should clamp down to %v, got %v", MaxSpeed, s.Speed())
	}
}

func TestSpeedCloneIsIndependent(t *testing.T) {
	s := NewSpeedController()
	s.Set(2)

	c := s.Clone()
	c.Set(4)

	if s.Speed() != 2 {
		t.Fatalf("clone mutation leaked into original: %v", s.Speed())
	}
}

package clip

// Speed bounds. Values outside clamp rather than fail: speed changes come
// straight from UI sliders.
const (
	MinSpeed = 0.1
	MaxSpeed = 10.0
)

// SpeedController owns the numeric side of variable playback speed: the
// effective timeline duration and the timeline-to-source time remap. Audio
// pitch preservation happens elsewhere; this is arithmetic only.
type SpeedController struct {
	speed float64
}

// NewSpeedController starts at normal speed
func NewSpeedController() *SpeedController {
	return &SpeedController{speed: 1}
}

// Set clamps and applies a new speed multiplier
func (s *SpeedController) Set(speed float64) {
	if speed < MinSpeed {
		speed = MinSpeed
	} else if speed > MaxSpeed {
		speed = MaxSpeed
	}
	s.speed = speed
}

// Speed returns the current multiplier
func (s *SpeedController) Speed() float64 {
	return s.speed
}

// EffectiveDuration maps a source duration to the timeline span it occupies:
// a clip at 2x covers half its source duration on the timeline.
func (s *SpeedController) EffectiveDuration(originalMs float64) float64 {
	return originalMs / s.speed
}

// MapReferenceTime converts a timeline instant into the source-domain time
// to sample, so a faster clip consumes source frames proportionally faster.
func (s *SpeedController) MapReferenceTime(t, startTime float64) float64 {
	return startTime + (t-startTime)*s.speed
}

// Clone returns an independent controller at the same speed
func (s *SpeedController) Clone() *SpeedController {
	return &SpeedController{speed: s.speed}
}

package frame

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Service owns the ordered frame collection of one clip and maps playback
// time to frame indices. Two addressing modes exist: a fixed-fps grid, and a
// binary search over real per-frame capture timestamps when the source
// supplies them (variable frame rate video). All structural mutations happen
// under one lock so a concurrent render never observes a mid-splice state.
type Service struct {
	mu         sync.Mutex
	frames     []*Frame
	startTime  float64 // timeline position, ms
	totalMs    float64
	fps        float64
	timestamps []float64 // per-frame capture times in seconds, local to the clip
	log        zerolog.Logger
}

// ServiceOptions configures a new Service
type ServiceOptions struct {
	StartTime  float64
	DurationMs float64
	FPS        float64
	// Timestamps switches the service to capture-time addressing when set.
	// Values are seconds relative to the clip start, ascending.
	Timestamps []float64
	Logger     zerolog.Logger
}

// NewService creates a service pre-filled with one identity frame per
// timeline slot. The first frame is always an anchor.
func NewService(opts ServiceOptions) *Service {
	fps := opts.FPS
	if fps <= 0 {
		fps = 24
	}

	s := &Service{
		startTime: opts.StartTime,
		totalMs:   opts.DurationMs,
		fps:       fps,
		log:       opts.Logger.With().Str("component", "frames").Logger(),
	}

	count := int(math.Round(opts.DurationMs / 1000 * fps))
	if len(opts.Timestamps) > 0 {
		s.timestamps = append([]float64(nil), opts.Timestamps...)
		count = len(s.timestamps)
	}
	if count < 1 {
		count = 1
	}

	s.frames = make([]*Frame, count)
	for i := range s.frames {
		f := New(0, 0)
		f.SourceIndex = i
		s.frames[i] = f
	}
	s.frames[0].Anchor = true

	return s
}

// Len returns the number of stored frames
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// Duration returns the clip-local duration in milliseconds
func (s *Service) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalMs
}

// FPS returns the frame rate used for grid addressing
func (s *Service) FPS() float64 {
	return s.fps
}

// StartTime returns the timeline position in milliseconds
func (s *Service) StartTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startTime
}

// SetStartTime moves the service on the timeline
func (s *Service) SetStartTime(ms float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startTime = ms
}

// HasTimestamps reports whether capture-time addressing is active
func (s *Service) HasTimestamps() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timestamps) > 0
}

// GetIndex maps an absolute time to a frame index. In grid mode the result
// may fall outside [0, Len) and the caller decides how to treat that; in
// timestamp mode the result is clamped to the stored range (0 below the
// first capture time, the last index at or beyond the final one).
func (s *Service) GetIndex(currentTime, startTime float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexAt(currentTime - startTime)
}

// GetFrame resolves the frame at referenceTime. Out-of-range queries return
// nil: scrubbing past either edge of a clip is routine, not an error. When a
// successor frame exists the result is interpolated toward it, weighted by
// the actual time distance between the two frames rather than a flat array
// position, so transforms play back smoothly between authored keyframes.
func (s *Service) GetFrame(referenceTime, startTime float64) *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	local := referenceTime - startTime
	idx := s.indexAt(local)
	if idx < 0 || idx >= len(s.frames) {
		return nil
	}

	cur := s.frames[idx].Clone()
	if idx+1 >= len(s.frames) {
		return cur
	}

	t0 := s.frameTimeMs(idx)
	t1 := s.frameTimeMs(idx + 1)
	if t1 <= t0 {
		return cur
	}

	weight := (local - t0) / (t1 - t0)
	return cur.Interpolate(s.frames[idx+1], weight)
}

// At returns a copy of the frame at index, or nil when out of range
func (s *Service) At(index int) *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.frames) {
		return nil
	}
	return s.frames[index].Clone()
}

// Push appends a frame
func (s *Service) Push(f *Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, f)
}

// PushRaw appends a frame decoded from its flat array form
func (s *Service) PushRaw(vals []float64) error {
	f, err := FromArray(vals)
	if err != nil {
		return fmt.Errorf("push raw frame: %w", err)
	}
	s.Push(f)
	return nil
}

// Update replaces the frame at index. Out-of-range indices are a no-op so
// that stale UI events racing a structural edit cannot corrupt state.
func (s *Service) Update(index int, f *Frame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.frames) || f == nil {
		return false
	}
	s.frames[index] = f
	return true
}

// UpdateRaw replaces the frame at index from its flat array form
func (s *Service) UpdateRaw(index int, vals []float64) bool {
	f, err := FromArray(vals)
	if err != nil {
		return false
	}
	return s.Update(index, f)
}

// Slice ripple-deletes count frames starting at start. Refuses edits that
// would empty the collection.
func (s *Service) Slice(start, count int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if start < 0 || start >= len(s.frames) || count <= 0 {
		return false
	}
	if start+count > len(s.frames) {
		count = len(s.frames) - start
	}
	if count >= len(s.frames) {
		return false
	}

	s.totalMs -= s.spliceLocked(start, count)
	return true
}

// SetAnchor marks the frame at index as a keyframe reference point
func (s *Service) SetAnchor(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.frames) {
		return false
	}
	s.frames[index].Anchor = true
	return true
}

// IsAnchor reports whether the frame at index is an anchor
func (s *Service) IsAnchor(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.frames) {
		return false
	}
	return s.frames[index].Anchor
}

// SplitAt partitions the service at a clip-local offset. The returned
// service holds the first half; the receiver keeps the second half with its
// frames and timestamps rebased to zero. Both halves keep an anchored first
// frame. Offsets outside the open interval (0, Duration) fail.
func (s *Service) SplitAt(localMs float64) (*Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if localMs <= 0 || localMs >= s.totalMs {
		return nil, fmt.Errorf("split offset %.1fms outside clip interior (0, %.1fms)", localMs, s.totalMs)
	}

	idx := s.indexAt(localMs)
	if idx < 1 {
		idx = 1
	}
	if idx > len(s.frames)-1 {
		idx = len(s.frames) - 1
	}

	first := &Service{
		startTime: s.startTime,
		totalMs:   localMs,
		fps:       s.fps,
		log:       s.log,
	}
	first.frames = append([]*Frame(nil), s.frames[:idx]...)

	rest := append([]*Frame(nil), s.frames[idx:]...)

	if len(s.timestamps) > 0 {
		first.timestamps = append([]float64(nil), s.timestamps[:idx]...)

		base := s.timestamps[idx]
		rebased := make([]float64, len(s.timestamps)-idx)
		for i, ts := range s.timestamps[idx:] {
			rebased[i] = ts - base
		}
		s.timestamps = rebased
	}

	s.frames = rest
	s.totalMs -= localMs
	s.frames[0].Anchor = true
	first.frames[0].Anchor = true

	return first, nil
}

// Clone returns a deep copy of the transform state. Frame data references
// are shared; decoded buffers are read-only.
func (s *Service) Clone() *Service {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &Service{
		startTime: s.startTime,
		totalMs:   s.totalMs,
		fps:       s.fps,
		log:       s.log,
	}
	c.frames = make([]*Frame, len(s.frames))
	for i, f := range s.frames {
		c.frames[i] = f.Clone()
	}
	if len(s.timestamps) > 0 {
		c.timestamps = append([]float64(nil), s.timestamps...)
	}
	return c
}

func (s *Service) indexAt(localMs float64) int {
	if len(s.timestamps) > 0 {
		sec := localMs / 1000
		i := sort.SearchFloat64s(s.timestamps, sec)
		if i < len(s.timestamps) && s.timestamps[i] == sec {
			return i
		}
		if i == 0 {
			return 0
		}
		if i > len(s.timestamps) {
			i = len(s.timestamps)
		}
		return i - 1
	}
	return int(math.Floor(localMs / 1000 * s.fps))
}

// frameTimeMs returns the clip-local time of frame i in milliseconds
func (s *Service) frameTimeMs(i int) float64 {
	if len(s.timestamps) > 0 {
		return s.timestamps[i] * 1000
	}
	return float64(i) * 1000 / s.fps
}

// spliceLocked removes count frames at start and reports the wall-clock
// milliseconds they covered. Timestamps after the gap shift left so the
// remaining frames stay continuous. Callers hold the lock and have already
// validated the range.
func (s *Service) spliceLocked(start, count int) float64 {
	var removedMs float64
	if len(s.timestamps) > 0 {
		if start+count < len(s.timestamps) {
			span := s.timestamps[start+count] - s.timestamps[start]
			removedMs = span * 1000
			rest := s.timestamps[start+count:]
			for i := range rest {
				rest[i] -= span
			}
		} else {
			removedMs = s.totalMs - s.timestamps[start]*1000
		}
		s.timestamps = append(s.timestamps[:start], s.timestamps[start+count:]...)
	} else {
		removedMs = float64(count) * 1000 / s.fps
	}

	s.frames = append(s.frames[:start], s.frames[start+count:]...)
	if len(s.frames) > 0 {
		s.frames[0].Anchor = true
	}
	return removedMs
}

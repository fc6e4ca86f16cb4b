package frame

import (
	"math"
	"sort"

	"github.com/keagan/reelcore/pkg/util"
)

// Duration edits. Growth extends the tail, shrinking clamps to a one-frame
// minimum: an empty clip is not a representable state, so an edit that would
// remove everything leaves exactly one frame covering one frame's duration.

// AdjustTotalTime resizes the service by diffMs milliseconds, growing or
// shrinking the frame collection to match the new duration.
func (s *Service) AdjustTotalTime(diffMs float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if diffMs == 0 {
		return
	}

	newTotal := s.totalMs + diffMs
	if diffMs > 0 {
		s.growLocked(newTotal)
		return
	}
	s.shrinkLocked(newTotal)
}

// RemoveInterval ripple-deletes the frames covering [startSec, endSec) of
// clip-local time and closes the gap. Invalid or empty ranges report false
// without mutating; an interval covering the whole clip falls back to the
// one-frame clamp. Re-sequencing downstream clips on the timeline is the
// caller's job.
func (s *Service) RemoveInterval(startSec, endSec float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if startSec < 0 || startSec >= endSec {
		s.log.Debug().Float64("start", startSec).Float64("end", endSec).Msg("rejecting malformed interval")
		return false
	}

	totalSec := s.totalMs / 1000
	if startSec > totalSec {
		startSec = totalSec
	}
	if endSec > totalSec {
		endSec = totalSec
	}

	startIdx, endIdx := s.intervalIndicesLocked(startSec, endSec)
	if startIdx < 0 {
		startIdx = 0
	}
	if endIdx > len(s.frames) {
		endIdx = len(s.frames)
	}

	count := endIdx - startIdx
	if count <= 0 {
		s.log.Debug().Float64("start", startSec).Float64("end", endSec).Msg("interval covers no frames")
		return false
	}

	if count >= len(s.frames) {
		s.clampToSingleFrameLocked()
		return true
	}

	s.totalMs -= s.spliceLocked(startIdx, count)
	return true
}

func (s *Service) intervalIndicesLocked(startSec, endSec float64) (int, int) {
	if len(s.timestamps) > 0 {
		start := sort.SearchFloat64s(s.timestamps, startSec)
		end := sort.SearchFloat64s(s.timestamps, endSec)
		return start, end
	}
	return int(math.Floor(startSec * s.fps)), int(math.Ceil(endSec * s.fps))
}

func (s *Service) growLocked(newTotalMs float64) {
	if len(s.timestamps) > 0 {
		// Real capture times: growth extends the tail at the nominal rate.
		step := 1 / s.fps
		last := s.timestamps[len(s.timestamps)-1]
		lastFrame := s.frames[len(s.frames)-1]
		for last+step < newTotalMs/1000 {
			last += step
			s.timestamps = append(s.timestamps, last)
			s.frames = append(s.frames, tailFrame(lastFrame))
		}
		s.totalMs = newTotalMs
		return
	}

	target := int(math.Round(newTotalMs / 1000 * s.fps))
	last := s.frames[len(s.frames)-1]
	for len(s.frames) < target {
		s.frames = append(s.frames, tailFrame(last))
	}
	s.totalMs = newTotalMs
}

func (s *Service) shrinkLocked(newTotalMs float64) {
	var target int
	if len(s.timestamps) > 0 {
		target = sort.SearchFloat64s(s.timestamps, newTotalMs/1000)
	} else {
		target = int(math.Round(newTotalMs / 1000 * s.fps))
	}

	if target <= 0 {
		s.clampToSingleFrameLocked()
		return
	}
	if target >= len(s.frames) {
		s.totalMs = newTotalMs
		return
	}

	s.frames = s.frames[:target]
	if len(s.timestamps) > 0 {
		s.timestamps = s.timestamps[:target]
	}
	s.totalMs = newTotalMs
}

// clampToSingleFrameLocked recovers a degenerate shrink: one frame survives
// and the duration resets to a single frame's length.
func (s *Service) clampToSingleFrameLocked() {
	s.frames = s.frames[:1]
	s.frames[0].Anchor = true
	if len(s.timestamps) > 0 {
		s.timestamps = s.timestamps[:1]
		s.timestamps[0] = 0
	}
	s.totalMs = util.FrameDurationMs(s.fps)
	s.log.Debug().Msg("shrink clamped to single frame")
}

// tailFrame derives a growth frame from the current tail. A frame that
// carries real pixel data is duplicated so the extension stays visually
// continuous; otherwise the extension gets a fresh default transform.
func tailFrame(last *Frame) *Frame {
	if last.Data != nil {
		dup := last.Clone()
		dup.Anchor = false
		return dup
	}
	f := New(0, 0)
	f.SourceIndex = last.SourceIndex
	return f
}

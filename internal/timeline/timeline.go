// Package timeline holds the session object driving a set of clips: the
// registry, the shared playback clock, per-tick rendering, and the
// cross-clip bookkeeping that structural edits leave to the caller (ripple
// re-sequencing after an interval removal, ordering after a split).
package timeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/keagan/reelcore/internal/clip"
	"github.com/keagan/reelcore/internal/surface"
)

// Session owns the clips of one timeline. The clock is the only shared
// mutable state across clips and only the session writes it; clips never
// touch each other except through explicit forwarding (ComposedClip).
type Session struct {
	mu          sync.Mutex
	clips       map[string]clip.Renderable
	order       []string
	currentTime float64
	log         zerolog.Logger
}

// NewSession creates an empty timeline
func NewSession(logger zerolog.Logger) *Session {
	return &Session{
		clips: make(map[string]clip.Renderable),
		log:   logger.With().Str("component", "timeline").Logger(),
	}
}

// Add registers a clip at the end of the render order and returns its id
func (s *Session) Add(c clip.Renderable) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.ID()
	if _, exists := s.clips[id]; !exists {
		s.order = append(s.order, id)
	}
	s.clips[id] = c

	s.log.Debug().
		Str("clip", id).
		Str("kind", c.Kind().String()).
		Float64("start_ms", c.StartTime()).
		Float64("duration_ms", c.Duration()).
		Msg("clip added")
	return id
}

// Remove disconnects and drops a clip
func (s *Session) Remove(id string) bool {
	s.mu.Lock()
	c, ok := s.clips[id]
	if ok {
		delete(s.clips, id)
		for i, oid := range s.order {
			if oid == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	c.Disconnect()
	return true
}

// Get returns a clip by id, or nil
func (s *Session) Get(id string) clip.Renderable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clips[id]
}

// Clips returns the clips in render order
func (s *Session) Clips() []clip.Renderable {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]clip.Renderable, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.clips[id])
	}
	return out
}

// Time returns the playback clock in milliseconds
func (s *Session) Time() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentTime
}

// Init initializes every clip that is not ready yet
func (s *Session) Init(ctx context.Context) error {
	for _, c := range s.Clips() {
		if c.Ready() {
			continue
		}
		if err := c.Init(ctx); err != nil {
			return fmt.Errorf("init clip %s: %w", c.Name(), err)
		}
	}
	return nil
}

// RenderAll advances the clock to t and renders every clip in order. Clips
// gate themselves on readiness and visibility, so idle layers cost little.
func (s *Session) RenderAll(ctx context.Context, out *surface.Surface, t float64, playing bool) error {
	s.mu.Lock()
	s.currentTime = t
	s.mu.Unlock()

	for _, c := range s.Clips() {
		if err := c.Render(ctx, out, t, playing); err != nil {
			return fmt.Errorf("render clip %s: %w", c.Name(), err)
		}
	}
	return nil
}

// RemoveInterval ripple-deletes a source-domain range from one clip and
// shifts every clip that started at or after the edited clip's old end left
// by the duration the edit removed, keeping the timeline gapless.
func (s *Session) RemoveInterval(id string, startSec, endSec float64) bool {
	c := s.Get(id)
	if c == nil {
		return false
	}
	editable, ok := c.(clip.IntervalEditable)
	if !ok {
		s.log.Warn().Str("clip", id).Msg("clip does not support interval edits")
		return false
	}

	oldEnd := c.StartTime() + c.Duration()
	if !editable.RemoveInterval(startSec, endSec) {
		return false
	}
	removed := oldEnd - (c.StartTime() + c.Duration())

	if removed > 0 {
		s.rippleShift(oldEnd, -removed, id)
	}
	return true
}

// SplitAt cuts a clip in two. The new first half is registered immediately
// before the receiver in render order and returned.
func (s *Session) SplitAt(id string, t float64) (clip.Renderable, error) {
	c := s.Get(id)
	if c == nil {
		return nil, fmt.Errorf("no clip %s", id)
	}
	splittable, ok := c.(clip.Splittable)
	if !ok {
		return nil, fmt.Errorf("clip %s (%s) cannot be split", c.Name(), c.Kind())
	}

	first, err := splittable.Split(t)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.clips[first.ID()] = first
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], append([]string{first.ID()}, s.order[i:]...)...)
			break
		}
	}
	s.mu.Unlock()

	s.log.Debug().
		Str("clip", id).
		Str("first_half", first.ID()).
		Float64("at_ms", t).
		Msg("clip split")
	return first, nil
}

// rippleShift moves every clip whose start lies at or after fromMs by
// deltaMs, excluding the clip that triggered the shift.
func (s *Session) rippleShift(fromMs, deltaMs float64, exclude string) {
	for _, c := range s.Clips() {
		if c.ID() == exclude {
			continue
		}
		if c.StartTime() >= fromMs {
			c.SetStartTime(c.StartTime() + deltaMs)
		}
	}
}

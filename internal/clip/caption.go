package clip

import (
	"context"
	"image"
	"image/color"

	"github.com/keagan/reelcore/internal/frame"
	"github.com/keagan/reelcore/internal/surface"
)

// Cue is one timed caption line, in clip-local source-domain milliseconds
type Cue struct {
	StartMs float64
	EndMs   float64
	Text    string
}

// CaptionOptions configures a caption layer
type CaptionOptions struct {
	Options
	DurationMs float64
	Color      color.Color
}

// CaptionClip shows timed text cues. Rasterized cue images are cached per
// cue; structural edits rewrite the cue list so captions stay aligned with
// the media they annotate.
type CaptionClip struct {
	Base
	cues     []Cue
	fg       color.Color
	rendered map[int]*image.RGBA
}

// NewCaptionClip builds a caption layer from a cue list
func NewCaptionClip(cues []Cue, opts CaptionOptions) *CaptionClip {
	if opts.DurationMs <= 0 {
		for _, cue := range cues {
			if cue.EndMs > opts.DurationMs {
				opts.DurationMs = cue.EndMs
			}
		}
		if opts.DurationMs <= 0 {
			opts.DurationMs = 3000
		}
	}
	if opts.Color == nil {
		opts.Color = color.White
	}

	svc := frame.NewService(frame.ServiceOptions{
		StartTime:  opts.StartTime,
		DurationMs: opts.DurationMs,
		FPS:        opts.FPS,
		Logger:     opts.Logger,
	})

	return &CaptionClip{
		Base:     newBase(KindCaption, opts.Options, 0, 0, svc),
		cues:     append([]Cue(nil), cues...),
		fg:       opts.Color,
		rendered: make(map[int]*image.RGBA),
	}
}

// Cues returns a copy of the current cue list
func (c *CaptionClip) Cues() []Cue {
	return append([]Cue(nil), c.cues...)
}

// Init marks the clip ready
func (c *CaptionClip) Init(ctx context.Context) error {
	c.setReady(true)
	return nil
}

// Render draws the cue active at currentTime, if any
func (c *CaptionClip) Render(ctx context.Context, out *surface.Surface, currentTime float64, playing bool) error {
	if err := ctx.Err(); err != nil {
		return nil
	}

	localMs := c.speed.MapReferenceTime(currentTime, c.StartTime()) - c.StartTime()
	idx := c.activeCue(localMs)
	if idx < 0 {
		return nil
	}

	img, ok := c.rendered[idx]
	if !ok {
		img = renderText(c.cues[idx].Text, c.fg)
		c.rendered[idx] = img
	}
	return c.renderStatic(out, currentTime, img)
}

// RemoveInterval ripple-deletes the range from the frames and rewrites the
// cue list: cues inside the cut vanish, overlapping cues are trimmed, and
// later cues shift left to close the gap.
func (c *CaptionClip) RemoveInterval(startSec, endSec float64) bool {
	if !c.Base.RemoveInterval(startSec, endSec) {
		return false
	}

	startMs := startSec * 1000
	endMs := endSec * 1000
	removed := endMs - startMs

	var kept []Cue
	for _, cue := range c.cues {
		switch {
		case cue.EndMs <= startMs:
			kept = append(kept, cue)
		case cue.StartMs >= endMs:
			cue.StartMs -= removed
			cue.EndMs -= removed
			kept = append(kept, cue)
		default:
			// Overlapping cues keep what survives on each side of the cut;
			// cues fully inside it drop out.
			switch {
			case cue.StartMs < startMs && cue.EndMs > endMs:
				cue.EndMs -= removed
				kept = append(kept, cue)
			case cue.StartMs < startMs:
				cue.EndMs = startMs
				kept = append(kept, cue)
			case cue.EndMs > endMs:
				cue.StartMs = startMs
				cue.EndMs -= removed
				kept = append(kept, cue)
			}
		}
	}

	c.cues = kept
	c.rendered = make(map[int]*image.RGBA)
	return true
}

// Split cuts the clip at splitTime, partitioning the cue list
func (c *CaptionClip) Split(splitTime float64) (Renderable, error) {
	first, err := c.splitBase(splitTime)
	if err != nil {
		return nil, err
	}

	cutMs := (splitTime - first.StartTime()) * c.Speed()

	var firstCues, restCues []Cue
	for _, cue := range c.cues {
		switch {
		case cue.EndMs <= cutMs:
			firstCues = append(firstCues, cue)
		case cue.StartMs >= cutMs:
			cue.StartMs -= cutMs
			cue.EndMs -= cutMs
			restCues = append(restCues, cue)
		default:
			head := cue
			head.EndMs = cutMs
			firstCues = append(firstCues, head)

			tail := cue
			tail.StartMs = 0
			tail.EndMs = cue.EndMs - cutMs
			restCues = append(restCues, tail)
		}
	}

	c.cues = restCues
	c.rendered = make(map[int]*image.RGBA)

	return &CaptionClip{
		Base:     first,
		cues:     firstCues,
		fg:       c.fg,
		rendered: make(map[int]*image.RGBA),
	}, nil
}

// Clone returns an independent copy
func (c *CaptionClip) Clone() *CaptionClip {
	return &CaptionClip{
		Base:     c.cloneBase(),
		cues:     append([]Cue(nil), c.cues...),
		fg:       c.fg,
		rendered: make(map[int]*image.RGBA),
	}
}

// Disconnect is a no-op: caption layers hold no external resources
func (c *CaptionClip) Disconnect() {}

// activeCue returns the index of the cue covering localMs, or -1
func (c *CaptionClip) activeCue(localMs float64) int {
	for i, cue := range c.cues {
		if cue.StartMs <= localMs && localMs < cue.EndMs {
			return i
		}
	}
	return -1
}

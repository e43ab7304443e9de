package scene

import (
	"math"
	"sort"
)

// DefaultFrameRate substitutes for a missing or malformed frame rate.
const DefaultFrameRate = 30

// Normalize repairs malformed binding data in place. Repairs are silent:
// playback degrades rather than fails.
func (s *Scene) Normalize() {
	for i := range s.Bindings {
		s.Bindings[i].Normalize()
	}
}

// Normalize repairs one binding: broken percentages fall back to 0,
// slides are ordered by threshold, inverted pause ranges are swapped,
// a missing frame rate defaults to 30 and a degenerate scroll range
// widens to [0, 1].
func (b *Binding) Normalize() {
	if b.FrameRate <= 0 || math.IsNaN(b.FrameRate) {
		b.FrameRate = DefaultFrameRate
	}
	if b.FrameLength < 0 {
		b.FrameLength = 0
	}
	if !validPercent(b.StartScroll) {
		b.StartScroll = 0
	}
	if !validPercent(b.EndScroll) {
		b.EndScroll = 0
	}
	if b.EndScroll <= b.StartScroll {
		b.StartScroll, b.EndScroll = 0, 1
	}

	for i := range b.Slides {
		if !validPercent(b.Slides[i].Percent) {
			b.Slides[i].Percent = 0
		}
	}
	sort.SliceStable(b.Slides, func(i, j int) bool {
		return b.Slides[i].Percent < b.Slides[j].Percent
	})

	for i := range b.Pauses {
		p := &b.Pauses[i]
		if !validPercent(p.Start) {
			p.Start = 0
		}
		if !validPercent(p.End) {
			p.End = 0
		}
		if p.End < p.Start {
			p.Start, p.End = p.End, p.Start
		}
	}
}

func validPercent(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

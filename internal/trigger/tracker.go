package trigger

import (
	"time"
)

// DefaultQuietPeriod is how long resizes must stay quiet before the
// tracker applies the new viewport and recomputes region geometry.
const DefaultQuietPeriod = 150 * time.Millisecond

// Tracker is a concrete Trigger fed by the host event loop. Scroll and
// Resize only record state; Tick delivers at most one progress event per
// registration, so a burst of scrolling collapses to one computation per
// rendered frame. All methods must be called from the same goroutine.
type Tracker struct {
	viewportW float64
	viewportH float64
	scrollY   float64

	regs   map[int]*registration
	nextID int

	quiet     time.Duration
	now       func() time.Time
	pending   *viewportSize
	pendingAt time.Time
}

type viewportSize struct {
	w, h float64
}

type registration struct {
	region  Region
	handler Handler
	last    *Event
}

// NewTracker builds a tracker for the given viewport size.
func NewTracker(viewportW, viewportH float64) *Tracker {
	return &Tracker{
		viewportW: viewportW,
		viewportH: viewportH,
		regs:      make(map[int]*registration),
		quiet:     DefaultQuietPeriod,
		now:       time.Now,
	}
}

// SetQuietPeriod overrides the resize debounce window.
func (t *Tracker) SetQuietPeriod(d time.Duration) {
	t.quiet = d
}

// SetClock overrides the clock used for resize debouncing.
func (t *Tracker) SetClock(now func() time.Time) {
	t.now = now
}

// Register adds a region; its handler starts receiving events on the next
// Tick.
func (t *Tracker) Register(r Region, h Handler) Subscription {
	id := t.nextID
	t.nextID++
	t.regs[id] = &registration{region: r, handler: h}
	return &subscription{tracker: t, id: id}
}

type subscription struct {
	tracker *Tracker
	id      int
}

func (s *subscription) Cancel() {
	delete(s.tracker.regs, s.id)
}

// Scroll records the current page scroll offset. No events are delivered
// until the next Tick.
func (t *Tracker) Scroll(offsetY float64) {
	t.scrollY = offsetY
}

// Resize records a new viewport size. The size is applied on a later Tick
// once no further resize has arrived for the quiet period, so a burst of
// resize events collapses to one recomputation.
func (t *Tracker) Resize(w, h float64) {
	t.pending = &viewportSize{w: w, h: h}
	t.pendingAt = t.now()
}

// Tick runs one scheduler frame: applies a settled resize, then delivers
// at most one progress event per registration, skipping registrations
// whose event is unchanged since the last delivery.
func (t *Tracker) Tick() {
	if t.pending != nil && t.now().Sub(t.pendingAt) >= t.quiet {
		t.viewportW = t.pending.w
		t.viewportH = t.pending.h
		t.pending = nil
		// Geometry changed; force redelivery for every registration.
		for _, reg := range t.regs {
			reg.last = nil
		}
	}

	for _, reg := range t.regs {
		ev := t.progressFor(reg.region)
		if reg.last != nil && *reg.last == ev {
			continue
		}
		prev := reg.last
		if prev == nil || prev.Phase != ev.Phase {
			if ev.Phase == During {
				reg.handler.OnEnter(During)
			} else if prev != nil && prev.Phase == During {
				reg.handler.OnLeave(ev.Phase)
			}
		}
		reg.handler.OnProgress(ev)
		reg.last = &ev
	}
}

// progressFor computes scroll progress for a region. The active scroll
// duration is the region height plus one viewport height, so the region
// midpoint crossing the viewport midpoint marks exactly 50%.
func (t *Tracker) progressFor(r Region) Event {
	duration := r.Height + t.viewportH
	if duration <= 0 {
		return Event{Progress: 0, Phase: Before}
	}
	raw := (t.scrollY + t.viewportH - r.Top) / duration

	switch {
	case raw < 0:
		return Event{Progress: 0, Phase: Before}
	case raw > 1:
		return Event{Progress: 1, Phase: After}
	default:
		return Event{Progress: raw, Phase: During}
	}
}

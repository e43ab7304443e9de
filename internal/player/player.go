package player

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/arminHadzicAPL/scrollmedia/internal/device"
	"github.com/arminHadzicAPL/scrollmedia/internal/log"
	"github.com/arminHadzicAPL/scrollmedia/internal/scene"
	"github.com/arminHadzicAPL/scrollmedia/internal/trigger"
)

// ReadyState mirrors the media element's readiness ladder.
type ReadyState int

const (
	HaveNothing ReadyState = iota
	HaveMetadata
	HaveCurrentData
	HaveFutureData
	HaveEnoughData
)

// TimeRange is one buffered span of the media timeline, in seconds.
type TimeRange struct {
	Start float64
	End   float64
}

// Surface is the managed video element. Implemented by the host.
type Surface interface {
	ReadyState() ReadyState
	Buffered() []TimeRange
	CurrentTime() float64
	SetCurrentTime(sec float64)
	SetSource(url string)
	Show()
	Hide()
	Visible() bool
}

// OverlayKind says which image, if any, the overlay is showing.
type OverlayKind int

const (
	OverlayNone OverlayKind = iota
	OverlayFallback
	OverlayStill
)

// Overlay is the still/fallback image surface layered over the video.
type Overlay interface {
	ShowImage(idx int)
	ShowStill(frame int)
	Hide()
	Visible() (OverlayKind, int)
}

// Loader reports fallback-image availability. Satisfied by preload.Loader.
type Loader interface {
	Loaded(idx int) bool
}

// DefaultGracePeriod bounds how long a surface may stay unplayable before
// the media degrades to its fallback imagery for good.
const DefaultGracePeriod = 5 * time.Second

// Deps are the collaborators one media binding drives. Surface and
// Overlay are required; the rest default sensibly.
type Deps struct {
	Surface Surface
	Overlay Overlay
	Loader  Loader
	Class   *device.Classifier
	Grace   time.Duration
	Log     *zerolog.Logger
	Now     func() time.Time
}

// Layer identifies the visible layer of a playback decision.
type Layer int

const (
	LayerNone Layer = iota
	LayerVideo
	LayerFallback
	LayerStill
)

func (l Layer) String() string {
	switch l {
	case LayerVideo:
		return "video"
	case LayerFallback:
		return "fallback"
	case LayerStill:
		return "still"
	}
	return "none"
}

// Decision is the externally observable outcome of one progress update.
type Decision struct {
	Percent    float64
	Frame      int
	Layer      Layer
	ImageIndex int
	Seek       bool // native seek instead of a still-frame overlay
}

// PlaybackState is the per-binding mutable playback state. Only the
// progress handler and buffering checks touch it.
type PlaybackState struct {
	Percent         float64
	TargetFrame     int
	AnimateToTarget bool
	Ready           bool
}

// Media is the handle returned by Bind. It implements trigger.Handler so
// it can be registered directly on a scroll trigger.
type Media struct {
	cfg  scene.Binding
	deps Deps
	px   int
	url  string

	state     PlaybackState
	playable  bool
	imageOnly bool
	deadline  time.Time

	applied *Decision
	logger  zerolog.Logger
}

// Bind wires one media binding to its collaborators. The binding is
// normalized, a rendition is selected for the classified device and the
// surface's source is set once; rendition selection is never revisited.
func Bind(cfg scene.Binding, deps Deps) (*Media, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("media binding without an id")
	}
	if deps.Surface == nil || deps.Overlay == nil {
		return nil, fmt.Errorf("media binding %s: surface and overlay are required", cfg.ID)
	}
	cfg.Normalize()

	if deps.Grace <= 0 {
		deps.Grace = DefaultGracePeriod
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	logger := log.WithComponent("player")
	if deps.Log != nil {
		logger = *deps.Log
	}

	m := &Media{
		cfg:    cfg,
		deps:   deps,
		logger: logger.With().Str("binding", cfg.ID).Logger(),
	}
	m.px = m.selectRendition()
	m.url = cfg.RenditionURL(m.px)
	m.deadline = deps.Now().Add(deps.Grace)
	deps.Surface.SetSource(m.url)

	m.logger.Debug().Str("url", m.url).Int("px", m.px).Msg("bound")
	return m, nil
}

// selectRendition picks the smallest declared pixel size adequate for the
// viewport width, falling back to the largest declared when none is. With
// no declared sizes the viewport width itself is used.
func (m *Media) selectRendition() int {
	var vw int
	var sizes []int
	if m.deps.Class != nil {
		vw = m.deps.Class.ViewportWidth()
		sizes = m.cfg.Sizes[m.deps.Class.Breakpoint()]
	}
	if len(sizes) == 0 {
		for _, declared := range m.cfg.Sizes {
			sizes = append(sizes, declared...)
		}
	}
	if len(sizes) == 0 {
		return vw
	}

	sorted := make([]int, len(sizes))
	copy(sorted, sizes)
	sort.Ints(sorted)
	for _, px := range sorted {
		if px >= vw {
			return px
		}
	}
	return sorted[len(sorted)-1]
}

// OnProgress implements trigger.Handler.
func (m *Media) OnProgress(ev trigger.Event) {
	m.Apply(ev.Progress)
}

// OnEnter implements trigger.Handler.
func (m *Media) OnEnter(p trigger.Phase) {
	m.logger.Debug().Stringer("phase", p).Msg("entered scroll range")
}

// OnLeave implements trigger.Handler.
func (m *Media) OnLeave(p trigger.Phase) {
	m.logger.Debug().Stringer("phase", p).Msg("left scroll range")
}

// Apply drives one progress update: computes the target frame, runs the
// buffering decision and applies the resulting visible state. Re-applying
// an identical decision changes nothing, so repeated deliveries of the
// same percentage cannot flicker.
func (m *Media) Apply(p float64) Decision {
	if math.IsNaN(p) {
		p = 0
	}
	p = clamp(p, 0, 1)
	m.state.Percent = p

	target := m.targetFrame(p)
	slot, ownFrom, ownTo := m.applicableSlot(p)

	d := Decision{Percent: p, Frame: target, ImageIndex: slot}
	if m.checkPlayable() && m.coverage(target, ownFrom, ownTo) {
		jump := target - m.state.TargetFrame
		if jump < 0 {
			jump = -jump
		}
		if jump <= m.stepInterval() {
			d.Layer = LayerStill
		} else {
			d.Layer = LayerVideo
			d.Seek = true
		}
	} else {
		d.Layer = LayerFallback
		d.ImageIndex = m.loadedSlot(slot)
	}

	if m.applied != nil && *m.applied == d {
		return d
	}
	m.perform(d)
	m.applied = &d
	return d
}

// perform applies a decision to the surfaces.
func (m *Media) perform(d Decision) {
	switch d.Layer {
	case LayerFallback:
		m.deps.Overlay.ShowImage(d.ImageIndex)
		m.deps.Surface.Hide()
	case LayerStill:
		m.deps.Surface.Show()
		m.deps.Surface.SetCurrentTime(m.cfg.TimeAt(d.Frame))
		m.deps.Overlay.ShowStill(d.Frame)
	case LayerVideo:
		m.deps.Surface.Show()
		m.deps.Surface.SetCurrentTime(m.cfg.TimeAt(d.Frame))
		m.deps.Overlay.Hide()
	}
	m.state.TargetFrame = d.Frame
	m.state.AnimateToTarget = d.Seek

	m.logger.Debug().
		Float64("percent", d.Percent).
		Int("frame", d.Frame).
		Stringer("layer", d.Layer).
		Bool("seek", d.Seek).
		Msg("applied")
}

// targetFrame maps a page-scroll percentage to a frame number. Pause
// regions hold the frame at their start; outside [StartScroll, EndScroll]
// the frame clamps to 0 or FrameLength.
func (m *Media) targetFrame(p float64) int {
	for _, pr := range m.cfg.Pauses {
		if p >= pr.Start && p <= pr.End {
			p = pr.Start
			break
		}
	}
	return m.frameAt(p)
}

// frameAt is the plain percentage-to-frame mapping, without pause regions.
func (m *Media) frameAt(p float64) int {
	span := m.cfg.EndScroll - m.cfg.StartScroll
	if span <= 0 {
		return 0
	}
	sub := clamp((p-m.cfg.StartScroll)/span, 0, 1)
	return int(math.Round(sub * float64(m.cfg.FrameLength)))
}

// applicableSlot returns the fallback slot owning percentage p: the slide
// with the greatest threshold not exceeding p (slot 0 below the first
// threshold), and the scroll range it owns, up to the next threshold or 1
// for the last slot. With no slides there is no owned range.
func (m *Media) applicableSlot(p float64) (idx int, from, to float64) {
	slides := m.cfg.Slides
	if len(slides) == 0 {
		return 0, 0, 0
	}
	for i := range slides {
		if slides[i].Percent > p {
			break
		}
		idx = i
	}
	from = slides[idx].Percent
	to = 1
	if idx+1 < len(slides) {
		to = slides[idx+1].Percent
	}
	return idx, from, to
}

// loadedSlot walks back from the applicable slot to the nearest one whose
// fallback image has finished loading, so degradation never swaps in a
// blank image. Without a loader the applicable slot is trusted.
func (m *Media) loadedSlot(idx int) int {
	if m.deps.Loader == nil {
		return idx
	}
	for i := idx; i > 0; i-- {
		if m.deps.Loader.Loaded(i) {
			return i
		}
	}
	return 0
}

// checkPlayable reports whether the surface can honor seeks. A surface
// that never becomes playable within the grace period degrades the media
// to its fallback imagery permanently.
func (m *Media) checkPlayable() bool {
	if m.imageOnly {
		return false
	}
	rs := m.deps.Surface.ReadyState()
	if rs >= HaveMetadata {
		m.state.Ready = true
	}
	if rs >= HaveFutureData {
		m.playable = true
		return true
	}
	if !m.playable && m.deps.Now().After(m.deadline) {
		m.imageOnly = true
		m.logger.Debug().Msg("surface never became playable, images only from here")
	}
	return false
}

// coverage checks that the buffered ranges contain both the target
// playback position and the video span owned by the applicable fallback
// slot. Probing waits for the ready flag so unset metadata never reads as
// buffered.
func (m *Media) coverage(target int, ownFrom, ownTo float64) bool {
	if !m.state.Ready {
		return false
	}
	ranges := m.deps.Surface.Buffered()
	if !coversPoint(ranges, m.cfg.TimeAt(target)) {
		return false
	}
	if ownTo <= ownFrom {
		return true
	}
	a := m.cfg.TimeAt(m.frameAt(ownFrom))
	b := m.cfg.TimeAt(m.frameAt(ownTo))
	return coversSpan(ranges, a, b)
}

// stepInterval is the frame distance between adjacent slide thresholds;
// jumps within it render smoother as a still overlay than as a native
// seek.
func (m *Media) stepInterval() int {
	n := len(m.cfg.Slides)
	if n == 0 {
		n = 1
	}
	return m.cfg.FrameLength / n
}

// State returns a copy of the playback state.
func (m *Media) State() PlaybackState {
	return m.state
}

// Applied returns the last applied decision, or the zero decision before
// any progress has been delivered.
func (m *Media) Applied() Decision {
	if m.applied == nil {
		return Decision{}
	}
	return *m.applied
}

// ID returns the binding identifier.
func (m *Media) ID() string {
	return m.cfg.ID
}

// URL returns the video URL selected at bind time.
func (m *Media) URL() string {
	return m.url
}

// Rendition returns the pixel size selected at bind time.
func (m *Media) Rendition() int {
	return m.px
}

// Binding returns a copy of the normalized binding.
func (m *Media) Binding() scene.Binding {
	return m.cfg
}

func coversPoint(ranges []TimeRange, t float64) bool {
	for _, r := range ranges {
		if t >= r.Start && t <= r.End {
			return true
		}
	}
	return false
}

func coversSpan(ranges []TimeRange, a, b float64) bool {
	for _, r := range ranges {
		if a >= r.Start && b <= r.End {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

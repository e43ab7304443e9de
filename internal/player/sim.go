package player

// SimSurface is an in-memory Surface for the simulator and tests.
type SimSurface struct {
	State  ReadyState
	Ranges []TimeRange

	src     string
	time    float64
	visible bool
	seeks   int
}

func (s *SimSurface) ReadyState() ReadyState { return s.State }
func (s *SimSurface) Buffered() []TimeRange  { return s.Ranges }
func (s *SimSurface) CurrentTime() float64   { return s.time }
func (s *SimSurface) SetSource(url string)   { s.src = url }
func (s *SimSurface) Show()                  { s.visible = true }
func (s *SimSurface) Hide()                  { s.visible = false }
func (s *SimSurface) Visible() bool          { return s.visible }

func (s *SimSurface) SetCurrentTime(sec float64) {
	s.time = sec
	s.seeks++
}

// Source returns the URL the player selected at bind time.
func (s *SimSurface) Source() string { return s.src }

// Seeks returns how many times the play position was set.
func (s *SimSurface) Seeks() int { return s.seeks }

// BufferTo marks the timeline fully buffered from zero up to sec.
func (s *SimSurface) BufferTo(sec float64) {
	s.State = HaveEnoughData
	s.Ranges = []TimeRange{{Start: 0, End: sec}}
}

// SimOverlay is an in-memory Overlay for the simulator and tests. It
// counts visible-state changes so tests can assert on flicker.
type SimOverlay struct {
	kind  OverlayKind
	idx   int
	swaps int
}

func (o *SimOverlay) ShowImage(idx int)   { o.set(OverlayFallback, idx) }
func (o *SimOverlay) ShowStill(frame int) { o.set(OverlayStill, frame) }
func (o *SimOverlay) Hide()               { o.set(OverlayNone, 0) }

func (o *SimOverlay) Visible() (OverlayKind, int) { return o.kind, o.idx }

// Swaps returns how many times the visible state actually changed.
func (o *SimOverlay) Swaps() int { return o.swaps }

func (o *SimOverlay) set(kind OverlayKind, idx int) {
	if o.kind == kind && o.idx == idx {
		return
	}
	o.kind, o.idx, o.swaps = kind, idx, o.swaps+1
}

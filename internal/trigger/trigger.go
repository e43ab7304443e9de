package trigger

// Phase describes where a region sits relative to its activation range.
type Phase int

const (
	Before Phase = iota
	During
	After
)

func (p Phase) String() string {
	switch p {
	case Before:
		return "before"
	case During:
		return "during"
	case After:
		return "after"
	}
	return "invalid"
}

// Event is one progress notification for a registered region. Progress is
// clamped to [0,1]; Phase says which side of the range the true value is on.
type Event struct {
	Progress float64
	Phase    Phase
}

// Region locates a bound element on the page, in page pixels.
type Region struct {
	Top    float64
	Height float64
}

// Handler receives progress and phase-transition notifications.
type Handler interface {
	OnProgress(Event)
	OnEnter(Phase)
	OnLeave(Phase)
}

// Subscription undoes a registration.
type Subscription interface {
	Cancel()
}

// Trigger registers regions for scroll-progress delivery.
type Trigger interface {
	Register(Region, Handler) Subscription
}

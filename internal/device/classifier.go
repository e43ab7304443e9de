package device

import (
	"strings"
	"sync"

	"github.com/mssola/useragent"
)

// Unknown is the sentinel for a classification miss. Misses are never
// errors; callers style for the unknown case like any other.
const Unknown = "unknown"

// Breakpoint names, used as keys into a binding's declared size variants.
const (
	BreakpointSmall  = "small"
	BreakpointMedium = "medium"
	BreakpointLarge  = "large"
)

// Viewport-width thresholds in CSS pixels.
const (
	smallMaxWidth  = 640
	mediumMaxWidth = 1024
)

// Viewport is a snapshot of the live viewport.
type Viewport struct {
	Width      int
	Height     int
	PixelRatio float64
}

// Classifier answers device and viewport questions for one session.
// Every fact is derived from a user-agent parse and a viewport snapshot,
// both taken once on first query and never invalidated: a viewport change
// after the first query is deliberately not observed.
type Classifier struct {
	raw string
	vp  func() Viewport

	parseOnce sync.Once
	ua        *useragent.UserAgent

	vpOnce sync.Once
	vpSnap Viewport
}

// New builds a classifier over the immutable user-agent string and a live
// viewport provider. The provider may be nil, classifying a zero viewport.
func New(rawUA string, vp func() Viewport) *Classifier {
	return &Classifier{raw: rawUA, vp: vp}
}

func (c *Classifier) agent() *useragent.UserAgent {
	c.parseOnce.Do(func() {
		c.ua = useragent.New(c.raw)
	})
	return c.ua
}

func (c *Classifier) viewport() Viewport {
	c.vpOnce.Do(func() {
		if c.vp != nil {
			c.vpSnap = c.vp()
		}
	})
	return c.vpSnap
}

// OSName returns the operating system name, or "unknown".
func (c *Classifier) OSName() string {
	if name := c.agent().OSInfo().Name; name != "" {
		return name
	}
	return Unknown
}

// OSVersion returns the operating system version, or "unknown".
func (c *Classifier) OSVersion() string {
	if v := c.agent().OSInfo().Version; v != "" {
		return v
	}
	return Unknown
}

// OS returns the full operating system description, or "unknown".
func (c *Classifier) OS() string {
	if full := c.agent().OSInfo().FullName; full != "" {
		return full
	}
	return Unknown
}

func (c *Classifier) IsMobile() bool {
	return c.agent().Mobile()
}

// IsTablet reports iPads, plus Android user agents without the phone
// marker token.
func (c *Classifier) IsTablet() bool {
	if c.agent().Platform() == "iPad" {
		return true
	}
	return strings.Contains(c.raw, "Android") && !strings.Contains(c.raw, "Mobile")
}

func (c *Classifier) IsDesktop() bool {
	return !c.IsMobile() && !c.IsTablet()
}

func (c *Classifier) IsIOS() bool {
	switch c.agent().Platform() {
	case "iPhone", "iPad", "iPod":
		return true
	}
	return false
}

func (c *Classifier) IsAndroid() bool {
	return strings.Contains(c.raw, "Android")
}

// IsRetina reports a device pixel ratio of at least 2.
func (c *Classifier) IsRetina() bool {
	return c.viewport().PixelRatio >= 2
}

// ViewportWidth returns the memoized viewport width in CSS pixels.
func (c *Classifier) ViewportWidth() int {
	return c.viewport().Width
}

// Breakpoint returns the named viewport-width threshold the session falls in.
func (c *Classifier) Breakpoint() string {
	w := c.viewport().Width
	switch {
	case w < smallMaxWidth:
		return BreakpointSmall
	case w < mediumMaxWidth:
		return BreakpointMedium
	default:
		return BreakpointLarge
	}
}

// StateClasses returns the CSS class list mirroring every boolean fact
// plus the breakpoint, for the host to apply to its document root. The
// classifier itself performs no document side effects.
func (c *Classifier) StateClasses() []string {
	classes := []string{"bp-" + c.Breakpoint()}
	facts := []struct {
		name string
		on   bool
	}{
		{"is-mobile", c.IsMobile()},
		{"is-tablet", c.IsTablet()},
		{"is-desktop", c.IsDesktop()},
		{"is-ios", c.IsIOS()},
		{"is-android", c.IsAndroid()},
		{"is-retina", c.IsRetina()},
	}
	for _, f := range facts {
		if f.on {
			classes = append(classes, f.name)
		}
	}
	return classes
}

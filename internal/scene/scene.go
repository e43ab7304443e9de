package scene

import (
	"fmt"
	"strings"
)

// Scene is the declarative description of every scroll-driven media binding on a page
type Scene struct {
	Version  string    `yaml:"version"`
	Bindings []Binding `yaml:"bindings"`
}

// Binding describes one scroll-driven video and its fallback slides
type Binding struct {
	ID            string           `yaml:"id"`
	FrameRate     float64          `yaml:"frameRate"`   // Frames per second of the encoded video
	FrameLength   int              `yaml:"frameLength"` // Total frame count
	StartScroll   float64          `yaml:"startScroll"` // Sub-range of scroll progress in which playback runs (0-1)
	EndScroll     float64          `yaml:"endScroll"`
	URL           string           `yaml:"url,omitempty"`           // Explicit video URL; wins over renditionBase
	RenditionBase string           `yaml:"renditionBase,omitempty"` // Video requested as <renditionBase>-<px>.mp4
	BasePath      string           `yaml:"basePath,omitempty"`      // Fallback images requested as <basePath>/<file>
	Sizes         map[string][]int `yaml:"sizes,omitempty"`         // Breakpoint name -> declared pixel widths
	Slides        []Slide          `yaml:"slides,omitempty"`
	Pauses        []PauseRange     `yaml:"pauses,omitempty"`
}

// Slide is a text/illustration keyed to a scroll percentage with its fallback image
type Slide struct {
	Percent        float64 `yaml:"percent"` // Threshold in [0,1]; display order = sequence order
	Text           string  `yaml:"text,omitempty"`
	Fallback       string  `yaml:"fallback"`
	FallbackMobile string  `yaml:"fallbackMobile,omitempty"`
}

// PauseRange is a scroll sub-range in which playback holds the frame at Start
type PauseRange struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
}

// RenditionURL returns the video asset URL for the chosen pixel size.
// An explicit URL takes precedence over the rendition template.
func (b *Binding) RenditionURL(px int) string {
	if b.URL != "" {
		return b.URL
	}
	return fmt.Sprintf("%s-%d.mp4", b.RenditionBase, px)
}

// FallbackURL returns the asset URL for a slide's fallback image file.
func (b *Binding) FallbackURL(file string) string {
	if b.BasePath == "" {
		return file
	}
	return strings.TrimSuffix(b.BasePath, "/") + "/" + file
}

// Duration returns the video duration in seconds.
func (b *Binding) Duration() float64 {
	if b.FrameRate <= 0 {
		return 0
	}
	return float64(b.FrameLength) / b.FrameRate
}

// TimeAt converts a frame number to a playback position in seconds.
func (b *Binding) TimeAt(frame int) float64 {
	if b.FrameRate <= 0 {
		return 0
	}
	return float64(frame) / b.FrameRate
}

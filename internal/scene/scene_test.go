package scene

import (
	"math"
	"path/filepath"
	"testing"
)

func TestReadWriteScene(t *testing.T) {
	sc := &Scene{
		Version: "1",
		Bindings: []Binding{
			{
				ID:            "intro",
				FrameRate:     30,
				FrameLength:   600,
				StartScroll:   0.1,
				EndScroll:     0.9,
				RenditionBase: "https://cdn.example.org/intro",
				BasePath:      "https://cdn.example.org/stills",
				Sizes:         map[string][]int{"large": {640, 800}},
				Slides: []Slide{
					{Percent: 0.0, Fallback: "still-0.jpg"},
					{Percent: 0.5, Fallback: "still-1.jpg", FallbackMobile: "still-1-m.jpg"},
				},
				Pauses: []PauseRange{{Start: 0.4, End: 0.6}},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "scene.yaml")
	if err := WriteScene(sc, path); err != nil {
		t.Fatalf("WriteScene failed: %v", err)
	}

	got, err := ReadScene(path)
	if err != nil {
		t.Fatalf("ReadScene failed: %v", err)
	}

	if len(got.Bindings) != 1 {
		t.Fatalf("Expected 1 binding, got %d", len(got.Bindings))
	}
	b := got.Bindings[0]
	if b.ID != "intro" || b.FrameLength != 600 || b.FrameRate != 30 {
		t.Errorf("Binding fields lost in round trip: %+v", b)
	}
	if len(b.Slides) != 2 || b.Slides[1].FallbackMobile != "still-1-m.jpg" {
		t.Errorf("Slides lost in round trip: %+v", b.Slides)
	}
	if len(b.Pauses) != 1 || b.Pauses[0].Start != 0.4 {
		t.Errorf("Pauses lost in round trip: %+v", b.Pauses)
	}
}

func TestRenditionURL(t *testing.T) {
	b := Binding{RenditionBase: "https://cdn.example.org/intro"}
	if got := b.RenditionURL(800); got != "https://cdn.example.org/intro-800.mp4" {
		t.Errorf("Unexpected rendition URL: %s", got)
	}

	b.URL = "https://cdn.example.org/fixed.mp4"
	if got := b.RenditionURL(800); got != "https://cdn.example.org/fixed.mp4" {
		t.Errorf("Explicit URL should win over the template, got %s", got)
	}
}

func TestFallbackURL(t *testing.T) {
	b := Binding{BasePath: "https://cdn.example.org/stills/"}
	if got := b.FallbackURL("a.jpg"); got != "https://cdn.example.org/stills/a.jpg" {
		t.Errorf("Unexpected fallback URL: %s", got)
	}

	b.BasePath = ""
	if got := b.FallbackURL("a.jpg"); got != "a.jpg" {
		t.Errorf("Empty base path should pass the file through, got %s", got)
	}
}

func TestNormalizeRepairs(t *testing.T) {
	b := Binding{
		ID:          "broken",
		FrameRate:   0,
		FrameLength: -5,
		StartScroll: 0.3,
		EndScroll:   0.1, // degenerate range
		Slides: []Slide{
			{Percent: 0.8, Fallback: "c.jpg"},
			{Percent: math.NaN(), Fallback: "a.jpg"},
			{Percent: 1.7, Fallback: "b.jpg"},
			{Percent: 0.4, Fallback: "d.jpg"},
		},
		Pauses: []PauseRange{{Start: 0.6, End: 0.2}},
	}

	b.Normalize()

	if b.FrameRate != DefaultFrameRate {
		t.Errorf("Expected default frame rate %d, got %f", DefaultFrameRate, b.FrameRate)
	}
	if b.FrameLength != 0 {
		t.Errorf("Negative frame length should clamp to 0, got %d", b.FrameLength)
	}
	if b.StartScroll != 0 || b.EndScroll != 1 {
		t.Errorf("Degenerate scroll range should widen to [0,1], got [%f,%f]", b.StartScroll, b.EndScroll)
	}

	// Malformed percentages fall back to 0, then slides sort by threshold.
	wantPercents := []float64{0, 0, 0.4, 0.8}
	wantFiles := []string{"a.jpg", "b.jpg", "d.jpg", "c.jpg"}
	for i, s := range b.Slides {
		if s.Percent != wantPercents[i] {
			t.Errorf("Slide %d: expected percent %f, got %f", i, wantPercents[i], s.Percent)
		}
		if s.Fallback != wantFiles[i] {
			t.Errorf("Slide %d: expected file %s, got %s", i, wantFiles[i], s.Fallback)
		}
	}

	if b.Pauses[0].Start != 0.2 || b.Pauses[0].End != 0.6 {
		t.Errorf("Inverted pause range should swap, got %+v", b.Pauses[0])
	}
}

func TestDurationAndTimeAt(t *testing.T) {
	b := Binding{FrameRate: 30, FrameLength: 600}
	if got := b.Duration(); got != 20 {
		t.Errorf("Expected duration 20s, got %f", got)
	}
	if got := b.TimeAt(300); got != 10 {
		t.Errorf("Expected frame 300 at 10s, got %f", got)
	}

	b.FrameRate = 0
	if b.Duration() != 0 || b.TimeAt(300) != 0 {
		t.Error("Zero frame rate should yield zero times")
	}
}

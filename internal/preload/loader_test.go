package preload

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/arminHadzicAPL/scrollmedia/internal/scene"
)

type scriptedFetcher struct {
	mu          sync.Mutex
	delays      map[string]time.Duration
	errs        map[string]error
	order       []string
	inFlight    int
	maxInFlight int
}

func (f *scriptedFetcher) Fetch(ctx context.Context, url string) (image.Image, error) {
	f.mu.Lock()
	f.order = append(f.order, url)
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	delay := f.delays[url]
	err := f.errs[url]
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if err != nil {
		return nil, err
	}
	return image.NewRGBA(image.Rect(0, 0, 10, 10)), nil
}

func testLoader(f Fetcher, opts Options) *Loader {
	b := &scene.Binding{
		ID:       "intro",
		BasePath: "https://cdn.example.org/stills",
		Slides: []scene.Slide{
			{Percent: 0, Fallback: "a.jpg", FallbackMobile: "a-m.jpg"},
			{Percent: 0.3, Fallback: "b.jpg"},
			{Percent: 0.7, Fallback: "c.jpg"},
		},
	}
	opts.Fetcher = f
	if opts.Delay == 0 {
		opts.Delay = time.Millisecond
	}
	if opts.Grace == 0 {
		opts.Grace = time.Second
	}
	return New(b, false, opts)
}

func TestSequentialOrdering(t *testing.T) {
	f := &scriptedFetcher{delays: map[string]time.Duration{
		"https://cdn.example.org/stills/a.jpg": 20 * time.Millisecond,
		"https://cdn.example.org/stills/b.jpg": 5 * time.Millisecond,
	}}
	l := testLoader(f, Options{})

	l.Start(context.Background())

	want := []string{
		"https://cdn.example.org/stills/a.jpg",
		"https://cdn.example.org/stills/b.jpg",
		"https://cdn.example.org/stills/c.jpg",
	}
	if len(f.order) != len(want) {
		t.Fatalf("Expected %d requests, got %d", len(want), len(f.order))
	}
	for i, url := range want {
		if f.order[i] != url {
			t.Errorf("Request %d: expected %s, got %s", i, url, f.order[i])
		}
	}
	if f.maxInFlight != 1 {
		t.Errorf("Expected at most one in-flight request, saw %d", f.maxInFlight)
	}
	for i := 0; i < l.Len(); i++ {
		if !l.Loaded(i) || l.Image(i) == nil {
			t.Errorf("Slot %d should be settled with pixels", i)
		}
	}
}

func TestTimeoutContinuesChain(t *testing.T) {
	f := &scriptedFetcher{delays: map[string]time.Duration{
		"https://cdn.example.org/stills/b.jpg": time.Second, // past the grace period
	}}
	l := testLoader(f, Options{Grace: 20 * time.Millisecond})

	l.Start(context.Background())

	if !l.Loaded(1) {
		t.Error("A timed-out slot should still settle")
	}
	if l.Image(1) != nil {
		t.Error("A timed-out slot should settle without pixels")
	}
	if !l.Loaded(2) || l.Image(2) == nil {
		t.Error("The chain should continue past a timeout")
	}
}

func TestFetchErrorContinuesChain(t *testing.T) {
	f := &scriptedFetcher{errs: map[string]error{
		"https://cdn.example.org/stills/a.jpg": errors.New("404 not found"),
	}}
	l := testLoader(f, Options{})

	l.Start(context.Background())

	if !l.Loaded(0) || l.Image(0) != nil {
		t.Error("A failed slot should settle without pixels")
	}
	if !l.Loaded(1) || !l.Loaded(2) {
		t.Error("The chain should continue past a fetch error")
	}
}

func TestCancellationStopsChain(t *testing.T) {
	f := &scriptedFetcher{delays: map[string]time.Duration{
		"https://cdn.example.org/stills/a.jpg": 50 * time.Millisecond,
	}}
	l := testLoader(f, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	l.Start(ctx)

	<-l.Done()
	if l.Loaded(2) {
		t.Error("Cancellation should stop the chain before the last slot")
	}
}

func TestBudgetDropsPixels(t *testing.T) {
	f := &scriptedFetcher{}
	// One 10x10 RGBA image is 400 bytes; a 500 byte budget fits one.
	l := testLoader(f, Options{Budget: 500})

	l.Start(context.Background())

	if l.Image(0) == nil {
		t.Error("First image should fit the budget")
	}
	for i := 1; i < l.Len(); i++ {
		if !l.Loaded(i) {
			t.Errorf("Slot %d should settle even over budget", i)
		}
		if l.Image(i) != nil {
			t.Errorf("Slot %d should drop pixels over budget", i)
		}
	}
}

func TestMobileVariantSelection(t *testing.T) {
	b := &scene.Binding{
		ID:       "intro",
		BasePath: "https://cdn.example.org/stills",
		Slides: []scene.Slide{
			{Percent: 0, Fallback: "a.jpg", FallbackMobile: "a-m.jpg"},
			{Percent: 0.5, Fallback: "b.jpg"},
		},
	}
	l := New(b, true, Options{Fetcher: &scriptedFetcher{}})

	if got := l.URL(0); got != "https://cdn.example.org/stills/a-m.jpg" {
		t.Errorf("Expected mobile variant, got %s", got)
	}
	// No mobile variant declared: the desktop file serves both.
	if got := l.URL(1); got != "https://cdn.example.org/stills/b.jpg" {
		t.Errorf("Expected desktop file, got %s", got)
	}
}

func TestWarmAll(t *testing.T) {
	f := &scriptedFetcher{delays: map[string]time.Duration{
		"https://cdn.example.org/stills/a.jpg": 5 * time.Millisecond,
		"https://cdn.example.org/stills/b.jpg": 5 * time.Millisecond,
		"https://cdn.example.org/stills/c.jpg": 5 * time.Millisecond,
	}}
	l := testLoader(f, Options{})

	if err := l.WarmAll(context.Background(), 2); err != nil {
		t.Fatalf("WarmAll failed: %v", err)
	}
	for i := 0; i < l.Len(); i++ {
		if l.Image(i) == nil {
			t.Errorf("Slot %d should be warm", i)
		}
	}
	if f.maxInFlight > 2 {
		t.Errorf("WarmAll should respect its limit, saw %d in flight", f.maxInFlight)
	}
}

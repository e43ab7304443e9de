package preload

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/arminHadzicAPL/scrollmedia/internal/log"
	"github.com/arminHadzicAPL/scrollmedia/internal/scene"
	"github.com/arminHadzicAPL/scrollmedia/internal/system"
)

// Defaults for the sequential load chain.
const (
	DefaultDelay = 250 * time.Millisecond
	DefaultGrace = 5 * time.Second
)

// Options tune one loader. Zero values pick the defaults.
type Options struct {
	Fetcher Fetcher
	Delay   time.Duration // pause between one load settling and the next starting
	Grace   time.Duration // per-image timeout; on expiry the slot counts as settled
	Budget  uint64        // pixel cache budget in bytes; 0 derives it from available memory
	Log     *zerolog.Logger
}

type slot struct {
	url    string
	loaded bool
	img    image.Image
}

// Loader fetches a binding's fallback images strictly in sequence: image
// i+1 is requested only after image i settles, keeping at most one
// request in flight. Failures and timeouts settle a slot without pixels
// rather than stalling the chain.
type Loader struct {
	fetch  Fetcher
	delay  time.Duration
	grace  time.Duration
	budget uint64
	logger zerolog.Logger

	mu    sync.Mutex
	slots []slot
	used  uint64

	done chan struct{}
}

// New builds a loader over the binding's slides, in slide order. Mobile
// selects the mobile fallback variant where a slide declares one.
func New(b *scene.Binding, mobile bool, opts Options) *Loader {
	if opts.Fetcher == nil {
		opts.Fetcher = &HTTPFetcher{}
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Grace <= 0 {
		opts.Grace = DefaultGrace
	}
	if opts.Budget == 0 {
		opts.Budget = system.AvailableMemory() / 4
	}
	logger := log.WithComponent("preload")
	if opts.Log != nil {
		logger = *opts.Log
	}

	l := &Loader{
		fetch:  opts.Fetcher,
		delay:  opts.Delay,
		grace:  opts.Grace,
		budget: opts.Budget,
		logger: logger.With().Str("binding", b.ID).Logger(),
		done:   make(chan struct{}),
	}
	for _, s := range b.Slides {
		file := s.Fallback
		if mobile && s.FallbackMobile != "" {
			file = s.FallbackMobile
		}
		l.slots = append(l.slots, slot{url: b.FallbackURL(file)})
	}
	return l
}

// Start runs the load chain until every slot settles or ctx is canceled.
// It blocks; run it on its own goroutine.
func (l *Loader) Start(ctx context.Context) {
	defer close(l.done)

	for i := range l.slots {
		if ctx.Err() != nil {
			return
		}
		l.load(ctx, i)
		if i == len(l.slots)-1 {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(l.delay):
		}
	}
}

// load settles one slot. Timeouts and fetch errors count the slot as
// settled without pixels; the host may still resolve the image from its
// own cache, and the chain never stalls.
func (l *Loader) load(ctx context.Context, i int) {
	loadCtx, cancel := context.WithTimeout(ctx, l.grace)
	defer cancel()

	img, err := l.fetch.Fetch(loadCtx, l.slots[i].url)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		if ctx.Err() != nil {
			return // canceled, leave the slot unsettled
		}
		l.slots[i].loaded = true
		l.logger.Debug().Str("url", l.slots[i].url).Err(err).Msg("fallback image settled without pixels")
		return
	}
	l.keep(i, img)
}

// keep caches a decoded image while the budget allows; over budget only
// the settled state is kept.
func (l *Loader) keep(i int, img image.Image) {
	l.slots[i].loaded = true
	size := pixelBytes(img)
	if l.used+size > l.budget {
		l.logger.Debug().Str("url", l.slots[i].url).Uint64("size", size).Msg("over cache budget, pixels dropped")
		return
	}
	l.used += size
	l.slots[i].img = img
}

// Loaded reports whether slot idx has settled.
func (l *Loader) Loaded(idx int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if idx < 0 || idx >= len(l.slots) {
		return false
	}
	return l.slots[idx].loaded
}

// Image returns the cached image for slot idx, or nil when the slot has
// not settled or its pixels were dropped.
func (l *Loader) Image(idx int) image.Image {
	l.mu.Lock()
	defer l.mu.Unlock()
	if idx < 0 || idx >= len(l.slots) {
		return nil
	}
	return l.slots[idx].img
}

// URL returns the asset URL for slot idx.
func (l *Loader) URL(idx int) string {
	if idx < 0 || idx >= len(l.slots) {
		return ""
	}
	return l.slots[idx].url
}

// Len returns the slot count.
func (l *Loader) Len() int {
	return len(l.slots)
}

// Done closes once the load chain has finished or been canceled.
func (l *Loader) Done() <-chan struct{} {
	return l.done
}

func pixelBytes(img image.Image) uint64 {
	b := img.Bounds()
	return uint64(b.Dx()) * uint64(b.Dy()) * 4
}

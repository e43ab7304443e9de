package main

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/arminHadzicAPL/scrollmedia/internal/device"
	"github.com/arminHadzicAPL/scrollmedia/internal/log"
	"github.com/arminHadzicAPL/scrollmedia/internal/player"
	"github.com/arminHadzicAPL/scrollmedia/internal/preload"
	"github.com/arminHadzicAPL/scrollmedia/internal/trigger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local preview tool
	},
}

// clientMessage is anything the browser sends over the socket.
type clientMessage struct {
	Type       string      `json:"type"` // hello, scroll, resize, media
	UA         string      `json:"ua,omitempty"`
	Width      int         `json:"width,omitempty"`
	Height     int         `json:"height,omitempty"`
	PixelRatio float64     `json:"pixelRatio,omitempty"`
	Y          float64     `json:"y,omitempty"`
	Binding    string      `json:"binding,omitempty"`
	ReadyState int         `json:"readyState,omitempty"`
	Buffered   []timeRange `json:"buffered,omitempty"`
}

type timeRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// boundMessage announces one binding after (re)binding.
type boundMessage struct {
	Type      string   `json:"type"`
	Binding   string   `json:"binding"`
	URL       string   `json:"url"`
	Rendition int      `json:"rendition"`
	Classes   []string `json:"classes"`
}

// decisionMessage is one playback decision for one binding.
type decisionMessage struct {
	Type    string  `json:"type"`
	Binding string  `json:"binding"`
	Layer   string  `json:"layer"`
	Frame   int     `json:"frame"`
	Image   int     `json:"image"`
	Percent float64 `json:"percent"`
	Seek    bool    `json:"seek"`
}

type sessionBinding struct {
	media   *player.Media
	surface *player.SimSurface
	sub     trigger.Subscription
	cancel  context.CancelFunc
}

// session owns one websocket connection. The read loop is the only
// goroutine touching the tracker and bindings, matching the single
// event-loop discipline of the player core.
type session struct {
	conn      *websocket.Conn
	store     *sceneStore
	logger    zerolog.Logger
	class     *device.Classifier
	tracker   *trigger.Tracker
	viewportH float64
	bounds    map[string]*sessionBinding
	version   int
}

func serveWS(ctx context.Context, store *sceneStore, w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponent("previewd").With().Str("remote", r.RemoteAddr).Logger()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	s := &session{
		conn:   conn,
		store:  store,
		logger: logger,
		bounds: make(map[string]*sessionBinding),
	}
	defer s.teardown()

	logger.Debug().Msg("client connected")
	s.readLoop(ctx)
	logger.Debug().Msg("client disconnected")
}

func (s *session) readLoop(ctx context.Context) {
	for {
		var msg clientMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "hello":
			s.hello(ctx, msg)
		case "scroll":
			if s.tracker == nil {
				continue
			}
			s.rebindIfStale(ctx)
			s.tracker.Scroll(msg.Y)
			s.tick()
		case "resize":
			if s.tracker == nil {
				continue
			}
			s.tracker.Resize(float64(msg.Width), float64(msg.Height))
			s.tick()
		case "media":
			s.updateMedia(msg)
			s.tick()
		default:
			s.logger.Debug().Str("type", msg.Type).Msg("unknown message type ignored")
		}
	}
}

// hello classifies the client and binds every scene binding for it.
func (s *session) hello(ctx context.Context, msg clientMessage) {
	vp := device.Viewport{Width: msg.Width, Height: msg.Height, PixelRatio: msg.PixelRatio}
	s.class = device.New(msg.UA, func() device.Viewport { return vp })
	s.tracker = trigger.NewTracker(float64(msg.Width), float64(msg.Height))
	s.viewportH = float64(msg.Height)
	s.bind(ctx)
}

// rebindIfStale rebinds when the scene file changed underneath us.
func (s *session) rebindIfStale(ctx context.Context) {
	if _, version := s.store.Load(); version != s.version {
		s.teardown()
		s.bind(ctx)
	}
}

func (s *session) bind(ctx context.Context) {
	sc, version := s.store.Load()
	s.version = version

	top := s.viewportH
	for i := range sc.Bindings {
		b := sc.Bindings[i]
		surface := &player.SimSurface{}
		overlay := &player.SimOverlay{}
		loader := preload.New(&b, s.class.IsMobile(), preload.Options{})

		m, err := player.Bind(b, player.Deps{
			Surface: surface,
			Overlay: overlay,
			Loader:  loader,
			Class:   s.class,
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("binding", b.ID).Msg("binding skipped")
			continue
		}

		loadCtx, cancel := context.WithCancel(ctx)
		go loader.Start(loadCtx)

		// Regions stack vertically, three viewport heights each, the
		// same layout the browser shim applies to the page.
		regionHeight := 3 * s.viewportH
		sub := s.tracker.Register(trigger.Region{Top: top, Height: regionHeight}, m)
		top += regionHeight

		s.bounds[b.ID] = &sessionBinding{media: m, surface: surface, sub: sub, cancel: cancel}
		s.send(boundMessage{
			Type:      "bound",
			Binding:   b.ID,
			URL:       m.URL(),
			Rendition: m.Rendition(),
			Classes:   s.class.StateClasses(),
		})
	}
}

// updateMedia applies the browser's reported element state so the
// buffering decision runs against real ranges instead of simulated ones.
func (s *session) updateMedia(msg clientMessage) {
	bd, ok := s.bounds[msg.Binding]
	if !ok {
		return
	}
	bd.surface.State = player.ReadyState(msg.ReadyState)
	ranges := make([]player.TimeRange, 0, len(msg.Buffered))
	for _, r := range msg.Buffered {
		ranges = append(ranges, player.TimeRange{Start: r.Start, End: r.End})
	}
	bd.surface.Ranges = ranges
}

func (s *session) tick() {
	if s.tracker == nil {
		return
	}
	s.tracker.Tick()
	for id, bd := range s.bounds {
		d := bd.media.Applied()
		s.send(decisionMessage{
			Type:    "decision",
			Binding: id,
			Layer:   d.Layer.String(),
			Frame:   d.Frame,
			Image:   d.ImageIndex,
			Percent: d.Percent,
			Seek:    d.Seek,
		})
	}
}

func (s *session) send(v any) {
	if err := s.conn.WriteJSON(v); err != nil {
		s.logger.Debug().Err(err).Msg("write failed")
	}
}

func (s *session) teardown() {
	for _, bd := range s.bounds {
		bd.sub.Cancel()
		bd.cancel()
	}
	s.bounds = make(map[string]*sessionBinding)
}

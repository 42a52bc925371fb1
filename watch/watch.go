// Package watch assembles one watch session: the server channel, the page,
// the playback backends and the embed bridge, run side by side until the
// session ends.
package watch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/plst4-cli/plst4/advance"
	"github.com/plst4-cli/plst4/bridge"
	"github.com/plst4-cli/plst4/constant"
	"github.com/plst4-cli/plst4/embed"
	"github.com/plst4-cli/plst4/log"
	"github.com/plst4-cli/plst4/metrics"
	"github.com/plst4-cli/plst4/page"
	"github.com/plst4-cli/plst4/playback"
	"github.com/plst4-cli/plst4/player"
	"github.com/plst4-cli/plst4/protocol"
	"github.com/plst4-cli/plst4/router"
	"github.com/plst4-cli/plst4/socket"
	"github.com/plst4-cli/plst4/tui"
	"golang.org/x/sync/errgroup"
)

// Config describes a session. Zero durations fall back to the package defaults.
type Config struct {
	Server  *url.URL
	Session string
	Client  *http.Client

	Backoff         socket.Backoff
	AdvanceInterval time.Duration
	SwapDelay       time.Duration
	SettleDelay     time.Duration

	// MpvPath is the mpv executable. Empty disables inline playback.
	MpvPath   string
	Video     bool
	Automated bool

	// Listen is the embed bridge address. Empty disables the embed backends.
	Listen string
	// OpenPage is called with the bridge page URL once it listens.
	OpenPage func(url string) error

	Metrics bool
}

// Session is an assembled, not yet running, watch session.
type Session struct {
	config Config

	stats     metrics.Collector
	page      *page.Page
	channel   *socket.Channel
	router    *router.Router
	registry  *playback.Registry
	guard     *playback.Guard
	requester *advance.Requester
	bridge    *bridge.Bridge

	inline  []*player.Inline
	engines []player.Engine
	embeds  []*embed.Player

	sinkMu sync.Mutex
	sink   tui.Sink

	pauseMu sync.Mutex
	paused  bool

	// ctx bounds background advance requests and Run; cancelled by Close
	// and when Run returns.
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
}

// New wires every component of the session. Nothing runs until Run.
func New(config Config) (*Session, error) {
	if config.Server == nil {
		return nil, errors.New("no server url")
	}
	if config.Session == "" {
		return nil, errors.New("no session id")
	}
	if config.Client == nil {
		config.Client = http.DefaultClient
	}
	config.Backoff = config.Backoff.Normalize()
	if config.AdvanceInterval <= 0 {
		config.AdvanceInterval = advance.DefaultMinInterval
	}

	s := &Session{
		config:   config,
		stats:    metrics.Nop{},
		page:     page.New(config.SwapDelay, config.SettleDelay),
		registry: playback.NewRegistry(),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	if config.Metrics {
		s.stats = metrics.NewPrometheusCollector()
	}

	wsURL, err := socket.URL(config.Server, config.Session)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("User-Agent", constant.UserAgent)
	s.channel = socket.New(wsURL,
		socket.WithBackoff(config.Backoff),
		socket.WithHeader(header),
		socket.WithCollector(s.stats),
		socket.WithStateHook(s.onSocketState),
	)

	s.requester = advance.New(config.Client, config.Server, config.Session, s.page,
		advance.WithMinInterval(config.AdvanceInterval),
		advance.WithClientID(s.page.ClientID),
		advance.WithCollector(s.stats),
		advance.WithContext(s.ctx),
	)

	s.guard = playback.NewGuard(s.registry)
	s.guard.SetCollector(s.stats)
	s.guard.OnApply(s.onApply)

	s.router = router.New(s.page, s.guard, router.WithCollector(s.stats))

	if err := s.registerBackends(); err != nil {
		return nil, err
	}

	s.page.OnClientID(func(id string) { s.withSink(func(k tui.Sink) { k.ClientID(id) }) })
	s.page.OnToast(func(t page.Toast) { s.withSink(func(k tui.Sink) { k.Toast(t) }) })
	s.page.Events.Subscribe(page.EventRefreshPlaylist, func(e string) {
		log.With("event", e).Info("playlist changed")
	})
	s.page.Events.Subscribe(page.EventRefreshManagers, func(e string) {
		log.With("event", e).Info("managers changed")
	})
	s.page.Events.SubscribeAll(func(e string) { s.withSink(func(k tui.Sink) { k.Event(e) }) })

	return s, nil
}

func (s *Session) advance() {
	s.requester.Trigger()
}

func (s *Session) registerBackends() error {
	if s.config.Listen != "" {
		var opts []bridge.Option
		if s.config.Metrics {
			opts = append(opts, bridge.WithMetrics(s.stats))
		}
		s.bridge = bridge.New(opts...)

		s.embeds = []*embed.Player{
			embed.NewNiconico(s.bridge, s.advance),
			embed.NewYouTube(s.bridge, s.advance),
			embed.NewSoundCloud(s.bridge, s.advance),
		}
		for _, p := range s.embeds {
			if err := s.registry.Register(p.Kind(), p); err != nil {
				return err
			}
		}
	}

	if s.config.MpvPath != "" {
		for _, target := range []struct {
			kind  protocol.Kind
			video bool
		}{
			{protocol.KindTestVideo, s.config.Video},
			{protocol.KindTestAudio, false},
		} {
			engine := player.NewMPV(s.config.MpvPath, string(target.kind), target.video)
			inline := player.NewInline(engine, target.kind, s.advance,
				player.WithBase(s.config.Server),
				player.WithAutomated(s.config.Automated),
			)
			if err := s.registry.Register(target.kind, inline); err != nil {
				return err
			}
			s.engines = append(s.engines, engine)
			s.inline = append(s.inline, inline)
		}
	}

	return nil
}

// Registry exposes the backends, in registration order.
func (s *Session) Registry() *playback.Registry {
	return s.registry
}

func (s *Session) withSink(f func(tui.Sink)) {
	s.sinkMu.Lock()
	sink := s.sink
	s.sinkMu.Unlock()
	if sink != nil {
		f(sink)
	}
}

func (s *Session) onSocketState(state socket.State) {
	retry := s.channel.Retry()
	s.withSink(func(k tui.Sink) { k.Connection(state, retry) })
}

func (s *Session) onApply(state protocol.MediaState) {
	s.pauseMu.Lock()
	s.paused = false
	s.pauseMu.Unlock()

	s.withSink(func(k tui.Sink) { k.Media(state) })
}

// TogglePause pauses or resumes the active backend.
func (s *Session) TogglePause() bool {
	_, backend, ok := s.guard.Active()
	if !ok {
		return false
	}

	s.pauseMu.Lock()
	defer s.pauseMu.Unlock()

	if s.paused {
		backend.Play()
	} else {
		backend.Pause()
	}
	s.paused = !s.paused
	return s.paused
}

// Advance asks the server for the next queue entry.
func (s *Session) Advance() {
	s.advance()
}

// Run runs the session until ctx ends, the server closes it for good or a
// component fails. Updates are reported to sink, which may be nil.
func (s *Session) Run(ctx context.Context, sink tui.Sink) error {
	s.sinkMu.Lock()
	s.sink = sink
	s.sinkMu.Unlock()

	defer s.cancel()

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	defer context.AfterFunc(s.ctx, stop)()

	g, ctx := errgroup.WithContext(ctx)

	if s.bridge != nil {
		ln, err := net.Listen("tcp", s.config.Listen)
		if err != nil {
			return fmt.Errorf("embed bridge listen: %w", err)
		}
		g.Go(func() error { return s.bridge.ServeListener(ctx, ln) })

		pageURL := "http://" + ln.Addr().String() + "/"
		log.With("url", pageURL).Info("embed page")
		if s.config.OpenPage != nil {
			if err := s.config.OpenPage(pageURL); err != nil {
				log.With("url", pageURL).Warn("open embed page: " + err.Error())
			}
		}
	}

	for i, engine := range s.engines {
		engine, inline := engine, s.inline[i]
		g.Go(func() error {
			if err := engine.Launch(ctx); err != nil {
				log.Warn("inline playback unavailable: " + err.Error())
				s.withSink(func(k tui.Sink) {
					k.Toast(page.Toast{Kind: "error", Title: "mpv unavailable", Description: err.Error()})
				})
				return nil
			}
			defer engine.Close()

			if err := inline.Watch(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error { return s.page.Run(ctx) })
	g.Go(func() error { return s.router.Run(ctx, s.channel.Messages()) })
	g.Go(func() error {
		err := s.channel.Run(ctx)
		if err == nil {
			// Closed deliberately; errgroup only cancels on errors.
			stop()
		}
		return err
	})

	err := g.Wait()
	if s.closed.Load() && errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close ends the session deliberately. A running Run then returns nil.
func (s *Session) Close() error {
	s.closed.Store(true)
	err := s.channel.Close()
	s.cancel()
	return err
}

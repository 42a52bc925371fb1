// Package bridge hosts third-party embed players in a local browser page.
//
// The page served at / keeps one container ("slot") per provider. It connects
// back over /ws, executes the ops it receives (mount, post, show, hide, clear)
// and reports iframe load events and cross-origin messages, each tagged with
// the frame id that produced it.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/plst4-cli/plst4/log"
	"github.com/plst4-cli/plst4/metrics"
)

// ErrNoPage is returned by ops issued while no host page is connected.
var ErrNoPage = errors.New("no embed page connected")

const writeWait = 5 * time.Second

// Op is a command for the host page.
type Op struct {
	Op     string          `json:"op"`
	Slot   string          `json:"slot"`
	Frame  string          `json:"frame,omitempty"`
	Src    string          `json:"src,omitempty"`
	Allow  string          `json:"allow,omitempty"`
	Aspect string          `json:"aspect,omitempty"`
	Origin string          `json:"origin,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Report is what the host page sends back.
type Report struct {
	Kind   string          `json:"kind"`
	Slot   string          `json:"slot"`
	Frame  string          `json:"frame"`
	Origin string          `json:"origin,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Handler receives the reports of one slot.
type Handler interface {
	// OnLoad is called when the iframe with the given frame id finished loading.
	OnLoad(frame string)
	// OnMessage is called for every message posted by the iframe to the host page.
	OnMessage(frame, origin string, data json.RawMessage)
	// OnPage is called whenever a host page connects. Slots are empty at that
	// point. first is set for the connection that made the bridge ready.
	OnPage(first bool)
}

type Bridge struct {
	router   chi.Router
	upgrader websocket.Upgrader
	stats    metrics.Collector
	expose   bool

	mu       sync.Mutex
	conn     *websocket.Conn
	handlers map[string]Handler

	ready     chan struct{}
	readyOnce sync.Once
}

type Option func(*Bridge)

// WithMetrics serves c at /metrics.
func WithMetrics(c metrics.Collector) Option {
	return func(b *Bridge) {
		b.stats = c
		b.expose = true
	}
}

func New(opts ...Option) *Bridge {
	b := &Bridge{
		router:   chi.NewRouter(),
		stats:    metrics.Nop{},
		handlers: make(map[string]Handler),
		ready:    make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: sameHost,
		},
	}
	for _, o := range opts {
		o(b)
	}
	b.router.Use(middleware.Recoverer)
	b.routes()
	return b
}

func (b *Bridge) routes() {
	b.router.Get("/", b.handleHost)
	b.router.Get("/ws", b.handleSocket)
	b.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if b.expose {
		b.router.Handle("/metrics", b.stats.Handler())
	}
}

func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.router.ServeHTTP(w, r)
}

// Serve listens on addr until ctx ends.
func (b *Bridge) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("embed bridge listen: %w", err)
	}
	return b.ServeListener(ctx, ln)
}

func (b *Bridge) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           b,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		b.drop()
	}()

	log.With("addr", ln.Addr().String()).Info("embed bridge listening")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("embed bridge: %w", err)
	}
	return nil
}

// Ready is closed when the first host page connects.
func (b *Bridge) Ready() <-chan struct{} {
	return b.ready
}

func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil
}

// Attach routes the reports of slot to h.
func (b *Bridge) Attach(slot string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[slot] = h
}

func (b *Bridge) handler(slot string) (Handler, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h, ok := b.handlers[slot]
	return h, ok
}

// sameHost accepts the host page only, which is served by this bridge.
func sameHost(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || origin == "http://"+r.Host
}

func (b *Bridge) handleHost(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(hostPage)
}

func (b *Bridge) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("embed page upgrade: " + err.Error())
		return
	}

	// The newest page wins; an older tab is told to stand down.
	b.mu.Lock()
	previous := b.conn
	b.conn = conn
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	if previous != nil {
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "replaced by a newer page")
		_ = previous.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = previous.Close()
	}

	log.With("remote", r.RemoteAddr).Info("embed page connected")
	var first bool
	b.readyOnce.Do(func() {
		close(b.ready)
		first = true
	})
	for _, h := range handlers {
		h.OnPage(first)
	}

	b.readLoop(conn)
}

func (b *Bridge) readLoop(conn *websocket.Conn) {
	defer func() {
		b.mu.Lock()
		if b.conn == conn {
			b.conn = nil
		}
		b.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		var report Report
		if err := conn.ReadJSON(&report); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				log.Debugf("embed page read: %v", err)
			}
			return
		}

		h, ok := b.handler(report.Slot)
		if !ok {
			log.With("slot", report.Slot).Debug("report for unknown slot")
			continue
		}

		switch report.Kind {
		case "load":
			h.OnLoad(report.Frame)
		case "message":
			h.OnMessage(report.Frame, report.Origin, report.Data)
		default:
			log.With("kind", report.Kind).Debug("unknown report")
		}
	}
}

func (b *Bridge) drop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil {
		_ = b.conn.Close()
		b.conn = nil
	}
}

func (b *Bridge) send(op Op) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn == nil {
		return ErrNoPage
	}
	_ = b.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := b.conn.WriteJSON(op); err != nil {
		return fmt.Errorf("embed op %s: %w", op.Op, err)
	}
	return nil
}

// Mount replaces the content of slot with a fresh iframe.
func (b *Bridge) Mount(slot, frame, src, allow, aspect string) error {
	return b.send(Op{Op: "mount", Slot: slot, Frame: frame, Src: src, Allow: allow, Aspect: aspect})
}

// Post delivers data to the iframe in slot, restricted to targetOrigin.
func (b *Bridge) Post(slot, targetOrigin string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	return b.send(Op{Op: "post", Slot: slot, Origin: targetOrigin, Data: raw})
}

func (b *Bridge) Show(slot string) error {
	return b.send(Op{Op: "show", Slot: slot})
}

func (b *Bridge) Hide(slot string) error {
	return b.send(Op{Op: "hide", Slot: slot})
}

// Clear removes the iframe of slot.
func (b *Bridge) Clear(slot string) error {
	return b.send(Op{Op: "clear", Slot: slot})
}

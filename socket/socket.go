// Package socket keeps the watch websocket to the plst4 server alive.
//
// A Channel reconnects after transient closures with a randomized exponential
// backoff, buffers outbound messages while no connection is open and flushes
// them in order as soon as one is. Inbound frames are delivered raw, in order,
// on Messages.
package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/plst4-cli/plst4/log"
	"github.com/plst4-cli/plst4/metrics"
)

// State of a Channel.
type State int

const (
	Connecting State = iota
	Open
	ClosedRetrying
	ClosedFinal
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case ClosedRetrying:
		return "reconnecting"
	case ClosedFinal:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrTerminalClose is wrapped by the error Run returns when the server closes
// the connection with a code that does not allow reconnecting.
var ErrTerminalClose = errors.New("connection closed permanently")

// TerminalError carries the close code that ended the channel.
type TerminalError struct {
	Code int
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("%s (code %d)", ErrTerminalClose, e.Code)
}

func (e *TerminalError) Unwrap() error {
	return ErrTerminalClose
}

const writeWait = 10 * time.Second

// Channel is a self-healing websocket connection.
type Channel struct {
	url     string
	header  http.Header
	dialer  *websocket.Dialer
	backoff Backoff
	random  func() float64
	stats   metrics.Collector
	onState func(State)

	mu    sync.Mutex
	conn  *websocket.Conn
	queue [][]byte
	state State
	retry int

	in        chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

type Option func(*Channel)

func WithBackoff(b Backoff) Option {
	return func(c *Channel) { c.backoff = b.Normalize() }
}

func WithHeader(h http.Header) Option {
	return func(c *Channel) { c.header = h }
}

func WithDialer(d *websocket.Dialer) Option {
	return func(c *Channel) { c.dialer = d }
}

// WithRandom replaces the uniform [0, 1) source used to scale reconnect delays.
func WithRandom(f func() float64) Option {
	return func(c *Channel) { c.random = f }
}

func WithCollector(m metrics.Collector) Option {
	return func(c *Channel) { c.stats = m }
}

// WithStateHook registers f to be called on every state transition.
// f runs on the channel's goroutine and must not block.
func WithStateHook(f func(State)) Option {
	return func(c *Channel) { c.onState = f }
}

// New creates a channel for url. Nothing is dialed until Run.
func New(url string, opts ...Option) *Channel {
	c := &Channel{
		url:     url,
		dialer:  websocket.DefaultDialer,
		backoff: DefaultBackoff,
		random:  rand.Float64,
		stats:   metrics.Nop{},
		onState: func(State) {},
		in:      make(chan []byte, 64),
		closed:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Messages delivers inbound frames in receipt order. It is closed when Run returns.
func (c *Channel) Messages() <-chan []byte {
	return c.in
}

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Retry is the number of consecutive transient closures since the last open.
func (c *Channel) Retry() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retry
}

// Queued is the number of messages waiting for an open connection.
func (c *Channel) Queued() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	c.onState(s)
}

// Close tears the channel down deliberately. Run then returns nil.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *Channel) closing() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// Run connects and keeps reconnecting until the context ends, Close is called,
// or the server closes with a non-transient code.
// It must be called at most once.
func (c *Channel) Run(ctx context.Context) error {
	defer close(c.in)

	for {
		c.setState(Connecting)
		code := c.session(ctx)

		if ctx.Err() != nil || c.closing() {
			c.setState(ClosedFinal)
			if c.closing() {
				return nil
			}
			return ctx.Err()
		}

		c.stats.SocketClosed(code)
		if !Transient(code) {
			c.setState(ClosedFinal)
			log.With("url", c.url, "code", code).Warn("websocket closed permanently")
			return &TerminalError{Code: code}
		}

		c.mu.Lock()
		delay := c.backoff.Delay(c.retry, c.random())
		c.retry++
		c.mu.Unlock()

		c.stats.ReconnectScheduled(delay)
		log.With("url", c.url, "code", code, "delay", delay.String()).Info("websocket closed, reconnecting")
		c.setState(ClosedRetrying)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			c.setState(ClosedFinal)
			return ctx.Err()
		case <-c.closed:
			timer.Stop()
			c.setState(ClosedFinal)
			return nil
		case <-timer.C:
		}
	}
}

// session runs one connection from dial to close and returns its close code.
func (c *Channel) session(ctx context.Context) int {
	conn, _, err := c.dialer.DialContext(ctx, c.url, c.header)
	if err != nil {
		log.With("url", c.url).Warn("websocket dial: " + err.Error())
		return websocket.CloseAbnormalClosure
	}

	c.open(conn)
	c.stats.SocketOpened()
	c.setState(Open)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-done:
			return
		case <-ctx.Done():
		case <-c.closed:
		}
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.conn = nil
			c.mu.Unlock()
			_ = conn.Close()

			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return closeErr.Code
			}
			log.With("url", c.url).Warn("websocket read: " + err.Error())
			return websocket.CloseAbnormalClosure
		}

		select {
		case c.in <- data:
		case <-ctx.Done():
		case <-c.closed:
		}
	}
}

// open flushes the queue onto conn and publishes it, all under the lock, so
// no Send can overtake a queued message.
func (c *Channel) open(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.retry = 0
	for len(c.queue) > 0 {
		if err := c.write(conn, c.queue[0]); err != nil {
			log.With("url", c.url, "queued", len(c.queue)).Warn("websocket flush: " + err.Error())
			break
		}
		c.queue = c.queue[1:]
	}
	if len(c.queue) == 0 {
		c.queue = nil
	}
	c.stats.QueueDepth(len(c.queue))
	c.conn = conn
}

func (c *Channel) write(conn *websocket.Conn, data []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Send writes msg as JSON, or queues it when no connection is open or the write fails.
// []byte and json.RawMessage are sent as is. Queued messages are never dropped.
func (c *Channel) Send(msg any) error {
	var data []byte
	switch m := msg.(type) {
	case []byte:
		data = m
	case json.RawMessage:
		data = m
	default:
		var err error
		if data, err = json.Marshal(msg); err != nil {
			return fmt.Errorf("encode outbound message: %w", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && len(c.queue) == 0 {
		err := c.write(c.conn, data)
		if err == nil {
			return nil
		}
		log.With("url", c.url).Warn("websocket write: " + err.Error())
	}

	c.queue = append(c.queue, data)
	c.stats.QueueDepth(len(c.queue))
	return nil
}

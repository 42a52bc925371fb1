package watch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/plst4-cli/plst4/page"
	"github.com/plst4-cli/plst4/protocol"
	"github.com/plst4-cli/plst4/socket"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu       sync.Mutex
	states   []socket.State
	clientID string
	media    []protocol.MediaState
	events   []string
	toasts   []page.Toast
}

func (r *recorder) Connection(state socket.State, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *recorder) ClientID(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clientID = id
}

func (r *recorder) Media(state protocol.MediaState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.media = append(r.media, state)
}

func (r *recorder) Event(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, name)
}

func (r *recorder) Toast(t page.Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, t)
}

func (r *recorder) complete() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clientID != "" && len(r.media) > 0 && len(r.events) > 0 && len(r.toasts) > 0
}

func frame(t *testing.T, typ protocol.Type, payload any) []byte {
	raw, err := protocol.Encode(typ, payload)
	require.NoError(t, err)
	return raw
}

func TestSession(t *testing.T) {
	var (
		upgrader  = websocket.Upgrader{}
		finish    = make(chan struct{})
		advanceID = make(chan string, 4)
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/abc", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for _, msg := range [][]byte{
			frame(t, protocol.TypeHandshake, "c1"),
			frame(t, protocol.TypeEvent, page.EventRefreshPlaylist),
			frame(t, protocol.TypeSwap, `<div id="toast-1" toast hx-swap-oob="true"><h1>Hello</h1><p>World</p></div>`),
			frame(t, protocol.TypeMediaChange, protocol.MediaState{Kind: protocol.KindNone, Version: 1}),
		} {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}

		<-finish
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	mux.HandleFunc("/watch/abc/queue/nextreq", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		advanceID <- r.FormValue("websocket-id")
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	base, err := url.Parse(srv.URL)
	require.NoError(t, err)

	pageURL := make(chan string, 1)
	s, err := New(Config{
		Server:      base,
		Session:     "abc",
		Client:      srv.Client(),
		SwapDelay:   time.Millisecond,
		SettleDelay: time.Millisecond,
		Listen:      "127.0.0.1:0",
		Metrics:     true,
		OpenPage: func(u string) error {
			pageURL <- u
			return nil
		},
	})
	require.NoError(t, err)
	require.Equal(t, []protocol.Kind{protocol.KindNiconico, protocol.KindYouTube, protocol.KindSoundCloud}, s.Registry().Kinds())

	sink := &recorder{}
	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background(), sink) }()

	var bridgeURL string
	select {
	case bridgeURL = <-pageURL:
	case <-time.After(3 * time.Second):
		t.Fatal("embed page was never opened")
	}

	resp, err := http.Get(bridgeURL + "healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, "ok", string(body))

	require.Eventually(t, sink.complete, 3*time.Second, 10*time.Millisecond)

	sink.mu.Lock()
	require.Equal(t, "c1", sink.clientID)
	require.Equal(t, protocol.KindNone, sink.media[0].Kind)
	require.Contains(t, sink.events, page.EventRefreshPlaylist)
	require.Equal(t, "Hello", sink.toasts[0].Title)
	require.Equal(t, "World", sink.toasts[0].Description)
	require.Contains(t, sink.states, socket.Open)
	sink.mu.Unlock()

	require.False(t, s.TogglePause(), "nothing is playing")

	s.Advance()
	select {
	case id := <-advanceID:
		require.Equal(t, "c1", id)
	case <-time.After(3 * time.Second):
		t.Fatal("advance request never arrived")
	}

	scrape := func() string {
		resp, err := http.Get(bridgeURL + "metrics")
		if err != nil {
			return ""
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return string(body)
	}
	require.Contains(t, scrape(), "plst4_socket_opens_total")
	require.Eventually(t, func() bool {
		return strings.Contains(scrape(), `plst4_advance_requests_total{result="ok"}`)
	}, 3*time.Second, 10*time.Millisecond)

	close(finish)
	select {
	case err := <-done:
		require.ErrorIs(t, err, socket.ErrTerminalClose)
	case <-time.After(3 * time.Second):
		t.Fatal("session did not end on a normal close")
	}
}

func (r *recorder) state(want socket.State) func() bool {
	return func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		for _, s := range r.states {
			if s == want {
				return true
			}
		}
		return false
	}
}

func TestCloseEndsRun(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	base, err := url.Parse(srv.URL)
	require.NoError(t, err)

	s, err := New(Config{
		Server:      base,
		Session:     "abc",
		Client:      srv.Client(),
		SwapDelay:   time.Millisecond,
		SettleDelay: time.Millisecond,
	})
	require.NoError(t, err)

	sink := &recorder{}
	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background(), sink) }()

	require.Eventually(t, sink.state(socket.Open), 3*time.Second, 5*time.Millisecond)
	require.NoError(t, s.Close())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run still running after Close")
	}
	require.True(t, sink.state(socket.ClosedFinal)())
}

func TestNewValidates(t *testing.T) {
	_, err := New(Config{Session: "abc"})
	require.Error(t, err)

	base, _ := url.Parse("http://localhost:6972")
	_, err = New(Config{Server: base})
	require.Error(t, err)

	_, err = New(Config{Server: &url.URL{Scheme: "ftp", Host: "x"}, Session: "abc"})
	require.Error(t, err)
}

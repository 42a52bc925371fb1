package tui

import (
	"fmt"
	"io"
	"sync"

	"github.com/plst4-cli/plst4/icon"
	"github.com/plst4-cli/plst4/page"
	"github.com/plst4-cli/plst4/protocol"
	"github.com/plst4-cli/plst4/socket"
)

// Printer writes one line per update. Used when stdout is not a terminal or
// with --no-tui.
type Printer struct {
	mu   sync.Mutex
	w    io.Writer
	last socket.State
	seen bool
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.w, format+"\n", args...)
}

// Connection prints state changes only.
func (p *Printer) Connection(state socket.State, retry int) {
	p.mu.Lock()
	changed := !p.seen || p.last != state
	p.last, p.seen = state, true
	p.mu.Unlock()

	if !changed {
		return
	}

	switch state {
	case socket.Open:
		p.printf("%s connected", icon.Get(icon.Connected))
	case socket.ClosedRetrying:
		p.printf("%s connection lost, reconnecting (retry %d)", icon.Get(icon.Reconnecting), retry)
	case socket.ClosedFinal:
		p.printf("%s disconnected", icon.Get(icon.Disconnected))
	}
}

func (p *Printer) ClientID(id string) {
	p.printf("client id %s", id)
}

func (p *Printer) Media(state protocol.MediaState) {
	if state.Kind == protocol.KindNone {
		p.printf("%s nothing playing", icon.Get(icon.Idle))
		return
	}
	p.printf("%s %s %s", icon.Get(icon.Playing), state.Kind, state.URL)
}

func (p *Printer) Event(name string) {
	p.printf("event %s", name)
}

func (p *Printer) Toast(t page.Toast) {
	i := icon.Toast
	if t.Kind == "error" {
		i = icon.Fail
	}
	if t.Description == "" {
		p.printf("%s %s", icon.Get(i), t.Title)
		return
	}
	p.printf("%s %s: %s", icon.Get(i), t.Title, t.Description)
}

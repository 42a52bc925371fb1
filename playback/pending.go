package playback

import (
	"sync"

	"github.com/plst4-cli/plst4/protocol"
)

// Pending defers starts until ready is closed. Only the newest start issued
// before readiness survives; it is flushed exactly once.
type Pending struct {
	mu      sync.Mutex
	ready   bool
	pending *protocol.MediaState
	start   func(protocol.MediaState)
}

// NewPending calls start directly once ready is closed, and buffers before that.
func NewPending(ready <-chan struct{}, start func(protocol.MediaState)) *Pending {
	p := &Pending{start: start}
	go func() {
		<-ready
		p.flush()
	}()
	return p
}

func (p *Pending) flush() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ready = true
	if p.pending != nil {
		state := *p.pending
		p.pending = nil
		p.start(state)
	}
}

// Start runs start now when ready, or remembers state for the flush.
func (p *Pending) Start(state protocol.MediaState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ready {
		p.start(state)
		return
	}
	p.pending = &state
}

// Cancel drops a buffered start. Used when the backend is stopped before it is ready.
func (p *Pending) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = nil
}

func (p *Pending) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ready
}

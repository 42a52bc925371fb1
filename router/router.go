// Package router dispatches decoded server frames to the page and the playback guard.
package router

import (
	"context"

	"github.com/plst4-cli/plst4/log"
	"github.com/plst4-cli/plst4/metrics"
	"github.com/plst4-cli/plst4/protocol"
)

// Page receives the page-level frames.
type Page interface {
	SetClientID(id string)
	Swap(fragment string)
	Trigger(event string)
}

// MediaApplier receives media states. playback.Guard implements it.
type MediaApplier interface {
	Apply(state protocol.MediaState) bool
}

type Router struct {
	page  Page
	media MediaApplier
	stats metrics.Collector
}

type Option func(*Router)

func WithCollector(m metrics.Collector) Option {
	return func(r *Router) { r.stats = m }
}

func New(page Page, media MediaApplier, opts ...Option) *Router {
	r := &Router{page: page, media: media, stats: metrics.Nop{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route handles one raw frame. The error is informational: a bad frame
// affects nothing else.
func (r *Router) Route(raw []byte) error {
	msg, err := protocol.Decode(raw)
	if err != nil {
		r.stats.MessageDropped("decode")
		log.With("frame", string(raw)).Warn("dropping frame: " + err.Error())
		return err
	}

	r.stats.MessageReceived(string(msg.Type()))

	switch m := msg.(type) {
	case protocol.Handshake:
		r.page.SetClientID(m.ClientID)
	case protocol.Swap:
		r.page.Swap(m.Fragment)
	case protocol.Event:
		r.page.Trigger(m.Name)
	case protocol.MediaChange:
		r.media.Apply(m.State)
	}
	return nil
}

// Run routes frames from in, one at a time in receipt order, until in is
// closed or ctx ends.
func (r *Router) Run(ctx context.Context, in <-chan []byte) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-in:
			if !ok {
				return nil
			}
			_ = r.Route(raw)
		}
	}
}

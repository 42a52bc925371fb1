package playback

import (
	"sync"

	"github.com/plst4-cli/plst4/log"
	"github.com/plst4-cli/plst4/metrics"
	"github.com/plst4-cli/plst4/protocol"
	"github.com/samber/mo"
)

// Guard applies media states to a registry, ignoring any state whose version
// is not strictly newer than the last one applied.
type Guard struct {
	reg   *Registry
	stats metrics.Collector

	mu     sync.Mutex
	last   mo.Option[int64]
	active protocol.Kind
	hooks  []func(protocol.MediaState)
}

func NewGuard(reg *Registry) *Guard {
	return &Guard{
		reg:    reg,
		stats:  metrics.Nop{},
		last:   mo.None[int64](),
		active: protocol.KindNone,
	}
}

// SetCollector records applied and rejected states on m.
func (g *Guard) SetCollector(m metrics.Collector) {
	g.stats = m
}

// OnApply registers f to be called after each applied state.
func (g *Guard) OnApply(f func(protocol.MediaState)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hooks = append(g.hooks, f)
}

// Apply dispatches state to the backends and reports whether it was applied.
// Every backend is stopped; the backend of state.Kind is shown and started and
// all others are hidden. Kind none leaves everything stopped and hidden.
func (g *Guard) Apply(state protocol.MediaState) bool {
	g.mu.Lock()
	if last, ok := g.last.Get(); ok && state.Version <= last {
		g.mu.Unlock()
		g.stats.StateRejected()
		log.With("version", state.Version, "last", last).Debug("ignoring stale media state")
		return false
	}
	g.last = mo.Some(state.Version)
	g.active = state.Kind

	g.reg.Each(func(_ protocol.Kind, b Backend) { b.Stop() })
	g.reg.Each(func(kind protocol.Kind, b Backend) {
		if kind == state.Kind {
			b.Show()
			b.Start(state)
		} else {
			b.Hide()
		}
	})
	hooks := g.hooks
	g.mu.Unlock()

	g.stats.StateApplied(string(state.Kind))
	log.With("kind", state.Kind, "version", state.Version).Info("media state applied")

	for _, f := range hooks {
		f(state)
	}
	return true
}

// Version is the last applied version, if any.
func (g *Guard) Version() mo.Option[int64] {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

// Active returns the backend of the last applied kind. ok is false for none
// and for kinds without a backend.
func (g *Guard) Active() (protocol.Kind, Backend, bool) {
	g.mu.Lock()
	kind := g.active
	g.mu.Unlock()

	b, ok := g.reg.Get(kind)
	return kind, b, ok
}

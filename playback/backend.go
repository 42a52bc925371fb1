// Package playback maps media kinds to the backends that render them and
// applies server-pushed media states to those backends in version order.
package playback

import (
	"errors"
	"fmt"

	"github.com/plst4-cli/plst4/protocol"
)

// Backend renders one media kind.
type Backend interface {
	// Start begins playing state.URL. It may be called before the backend is
	// ready, in which case the backend defers it.
	Start(state protocol.MediaState)
	Stop()
	Pause()
	Play()
	Show()
	Hide()
}

var (
	ErrDuplicateKind = errors.New("backend already registered for kind")
	ErrReservedKind  = errors.New("kind cannot have a backend")
)

type entry struct {
	kind    protocol.Kind
	backend Backend
}

// Registry is the fixed kind to backend mapping, iterated in registration order.
type Registry struct {
	entries []entry
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds b for kind. The none kind and repeated kinds are rejected.
func (r *Registry) Register(kind protocol.Kind, b Backend) error {
	if kind == protocol.KindNone {
		return fmt.Errorf("%w: %s", ErrReservedKind, kind)
	}
	if _, ok := r.Get(kind); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKind, kind)
	}
	r.entries = append(r.entries, entry{kind: kind, backend: b})
	return nil
}

func (r *Registry) Get(kind protocol.Kind) (Backend, bool) {
	for _, e := range r.entries {
		if e.kind == kind {
			return e.backend, true
		}
	}
	return nil, false
}

// Kinds lists registered kinds in registration order.
func (r *Registry) Kinds() []protocol.Kind {
	kinds := make([]protocol.Kind, len(r.entries))
	for i, e := range r.entries {
		kinds[i] = e.kind
	}
	return kinds
}

// Each calls f for every backend in registration order.
func (r *Registry) Each(f func(protocol.Kind, Backend)) {
	for _, e := range r.entries {
		f(e.kind, e.backend)
	}
}

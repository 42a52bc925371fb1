package page

import "sync"

// Events the server is known to trigger on the watch page.
const (
	EventRefreshPlaylist = "refresh-playlist"
	EventRefreshManagers = "refresh-managers"
)

// Bus is the page-wide event bus. Handlers run synchronously on the
// publishing goroutine, in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]func(string)
	any      []func(string)
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]func(string))}
}

// Subscribe registers f for events named name.
func (b *Bus) Subscribe(name string, f func(string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], f)
}

// SubscribeAll registers f for every event.
func (b *Bus) SubscribeAll(f func(string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.any = append(b.any, f)
}

// Publish delivers name to its subscribers and reports how many were called.
func (b *Bus) Publish(name string) int {
	b.mu.RLock()
	handlers := append(append([]func(string){}, b.handlers[name]...), b.any...)
	b.mu.RUnlock()

	for _, f := range handlers {
		f(name)
	}
	return len(handlers)
}

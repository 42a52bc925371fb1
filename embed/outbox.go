package embed

import "sync"

// Outbox holds commands for the current frame until it has loaded.
// Commands queued before the load are flushed exactly once, in order.
type Outbox struct {
	post func(msg any) error

	mu     sync.Mutex
	frame  string
	loaded bool
	queue  []any
}

func NewOutbox(post func(msg any) error) *Outbox {
	return &Outbox{post: post}
}

// Reset switches to a new frame and drops commands meant for the old one.
func (o *Outbox) Reset(frame string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.frame = frame
	o.loaded = false
	o.queue = nil
}

// Current is the frame commands are addressed to, "" before the first mount.
func (o *Outbox) Current() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.frame
}

// Send posts msg now if the frame has loaded, or queues it.
// Without a frame there is nothing to address and msg is dropped.
func (o *Outbox) Send(msg any) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case o.frame == "":
		return nil
	case o.loaded:
		return o.post(msg)
	default:
		o.queue = append(o.queue, msg)
		return nil
	}
}

// Loaded marks frame as loaded, posts greeting and then the queued commands.
// It reports false for stale frames and repeated loads, which post nothing.
func (o *Outbox) Loaded(frame string, greeting ...any) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if frame != o.frame || o.loaded {
		return false, nil
	}
	o.loaded = true

	queue := o.queue
	o.queue = nil

	var firstErr error
	for _, msg := range append(greeting, queue...) {
		if err := o.post(msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return true, firstErr
}

// Pending is the number of queued commands.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queue)
}

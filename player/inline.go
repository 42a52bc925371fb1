package player

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/plst4-cli/plst4/log"
	"github.com/plst4-cli/plst4/playback"
	"github.com/plst4-cli/plst4/protocol"
	"github.com/samber/lo"
)

// Load errors that only mean the source cannot be decoded here. Automated
// clients ignore them instead of advancing the queue for everyone.
var unsupportedFileErrors = []string{
	"unrecognized file format",
	"no audio or video data played",
}

func unsupported(fileError string) bool {
	fileError = strings.ToLower(fileError)
	return lo.SomeBy(unsupportedFileErrors, func(s string) bool {
		return strings.Contains(fileError, s)
	})
}

// Inline plays directly addressable audio or video through an Engine.
type Inline struct {
	engine    Engine
	kind      protocol.Kind
	base      *url.URL
	automated bool
	advance   func()
	pending   *playback.Pending

	mu      sync.Mutex
	src     string
	paused  bool
	visible bool
}

type InlineOption func(*Inline)

// WithBase resolves relative locators against the server URL.
func WithBase(base *url.URL) InlineOption {
	return func(i *Inline) { i.base = base }
}

// WithAutomated marks the client as automated.
func WithAutomated(automated bool) InlineOption {
	return func(i *Inline) { i.automated = automated }
}

// NewInline creates the backend for kind. advance is called when the current
// source ends or fails to load. Starts are held until the engine is ready.
func NewInline(engine Engine, kind protocol.Kind, advance func(), opts ...InlineOption) *Inline {
	i := &Inline{
		engine:  engine,
		kind:    kind,
		advance: advance,
		paused:  true,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.pending = playback.NewPending(engine.Ready(), i.start)
	return i
}

// Watch consumes engine events until ctx ends.
func (i *Inline) Watch(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-i.engine.Events():
			i.handle(ev)
		}
	}
}

func (i *Inline) handle(ev Event) {
	switch ev.Name {
	case "pause":
		i.mu.Lock()
		i.paused = ev.Paused
		i.mu.Unlock()
	case "end-file":
		switch ev.Reason {
		case "eof":
			log.With("kind", i.kind).Info("inline media ended")
			i.advance()
		case "error":
			if i.advanceOnError(ev.FileError) {
				log.With("kind", i.kind, "error", ev.FileError).Warn("inline media failed, advancing")
				i.advance()
			}
		}
	}
}

func (i *Inline) advanceOnError(fileError string) bool {
	i.mu.Lock()
	src := i.src
	i.mu.Unlock()

	if src == "" {
		return false
	}
	return !(i.automated && unsupported(fileError))
}

func (i *Inline) Start(state protocol.MediaState) {
	i.pending.Start(state)
}

func (i *Inline) start(state protocol.MediaState) {
	src := i.resolve(state.URL)

	i.mu.Lock()
	i.src = src
	visible := i.visible
	i.mu.Unlock()

	if err := i.engine.SetVisible(visible); err != nil {
		log.With("kind", i.kind).Debug("visibility: " + err.Error())
	}
	if err := i.engine.SetAspect(state.AspectRatio); err != nil {
		log.With("kind", i.kind).Debug("aspect: " + err.Error())
	}
	if err := i.engine.Load(src); err != nil {
		log.With("kind", i.kind, "src", src).Error("load: " + err.Error())
		return
	}
	i.Play()
}

func (i *Inline) resolve(locator string) string {
	if i.base == nil {
		return locator
	}
	ref, err := url.Parse(locator)
	if err != nil || ref.IsAbs() {
		return locator
	}
	return i.base.ResolveReference(ref).String()
}

// Stop pauses and rewinds. The source stays loaded.
func (i *Inline) Stop() {
	i.pending.Cancel()
	if !i.pending.Ready() {
		return
	}
	i.Pause()
	if err := i.engine.Seek(0); err != nil {
		log.With("kind", i.kind).Debug("rewind: " + err.Error())
	}
}

func (i *Inline) Pause() {
	if !i.pending.Ready() {
		return
	}
	if err := i.engine.SetPause(true); err != nil {
		log.With("kind", i.kind).Debug("pause: " + err.Error())
	}
}

func (i *Inline) Play() {
	if err := i.engine.SetPause(false); err != nil {
		log.With("kind", i.kind).Warn("play: " + err.Error())
	}
}

func (i *Inline) Show() { i.setVisible(true) }
func (i *Inline) Hide() { i.setVisible(false) }

// setVisible records the wanted visibility; it is applied now when the
// engine is ready, or on the next start otherwise.
func (i *Inline) setVisible(visible bool) {
	i.mu.Lock()
	i.visible = visible
	i.mu.Unlock()

	if !i.pending.Ready() {
		return
	}
	if err := i.engine.SetVisible(visible); err != nil {
		log.With("kind", i.kind, "visible", visible).Debug("visibility: " + err.Error())
	}
}

// Paused reports the engine's last known pause state.
func (i *Inline) Paused() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.paused
}

// Source is the locator most recently started.
func (i *Inline) Source() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.src
}

// Package embed implements playback backends for third-party iframe players
// (Niconico, YouTube, SoundCloud) hosted by the local embed bridge.
package embed

import (
	"encoding/json"
	"sync"

	"github.com/plst4-cli/plst4/bridge"
	"github.com/plst4-cli/plst4/log"
	"github.com/plst4-cli/plst4/playback"
	"github.com/plst4-cli/plst4/protocol"
	"github.com/rs/xid"
)

// Frame is the part of the embed bridge a player needs.
type Frame interface {
	Mount(slot, frame, src, allow, aspect string) error
	Post(slot, targetOrigin string, data any) error
	Show(slot string) error
	Hide(slot string) error
	Clear(slot string) error
	Attach(slot string, h bridge.Handler)
	Ready() <-chan struct{}
}

// provider holds everything that differs between embed services.
type provider interface {
	kind() protocol.Kind
	origin() string
	allow() string
	// source derives the iframe URL for state, tagged with frame.
	source(state protocol.MediaState, frame string) (string, error)
	// greeting is posted on load, before any deferred command.
	greeting(frame string) []any
	play(frame string) any
	pause(frame string) any
	stop(frame string) []any
	// inspect classifies a message from the current frame. ok is false for
	// messages that belong to another player instance.
	inspect(frame string, data json.RawMessage) (r reaction, ok bool)
	clearOnHide() bool
}

type reaction struct {
	advance bool
	replies []any
}

// Player drives one provider through the bridge.
type Player struct {
	p       provider
	bridge  Frame
	slot    string
	advance func()
	pending *playback.Pending
	outbox  *Outbox

	mu      sync.Mutex
	current *protocol.MediaState
	playing bool
	visible bool
}

func newPlayer(p provider, b Frame, advance func()) *Player {
	pl := &Player{
		p:       p,
		bridge:  b,
		slot:    string(p.kind()),
		advance: advance,
	}
	pl.outbox = NewOutbox(func(msg any) error {
		return b.Post(pl.slot, p.origin(), msg)
	})
	pl.pending = playback.NewPending(b.Ready(), pl.start)
	b.Attach(pl.slot, pl)
	return pl
}

func (pl *Player) Kind() protocol.Kind {
	return pl.p.kind()
}

// Start mounts a fresh embed for state once the bridge page is connected.
func (pl *Player) Start(state protocol.MediaState) {
	pl.pending.Start(state)
}

func (pl *Player) start(state protocol.MediaState) {
	frame := xid.New().String()

	src, err := pl.p.source(state, frame)
	if err != nil {
		log.With("kind", pl.p.kind(), "url", state.URL).Error("embed source: " + err.Error())
		return
	}

	pl.mu.Lock()
	pl.current = &state
	pl.playing = true
	pl.mu.Unlock()

	pl.outbox.Reset(frame)
	if err := pl.bridge.Mount(pl.slot, frame, src, pl.p.allow(), state.AspectRatio); err != nil {
		log.With("kind", pl.p.kind(), "frame", frame).Warn("embed mount: " + err.Error())
	}
	pl.send(pl.p.play(frame))
}

func (pl *Player) send(msgs ...any) {
	for _, msg := range msgs {
		if err := pl.outbox.Send(msg); err != nil {
			log.With("kind", pl.p.kind()).Debug("embed post: " + err.Error())
		}
	}
}

// Stop pauses and rewinds the current embed.
func (pl *Player) Stop() {
	pl.pending.Cancel()

	pl.mu.Lock()
	pl.playing = false
	pl.mu.Unlock()

	if frame := pl.outbox.Current(); frame != "" {
		pl.send(pl.p.stop(frame)...)
	}
}

func (pl *Player) Pause() {
	pl.send(pl.p.pause(pl.outbox.Current()))
}

func (pl *Player) Play() {
	pl.send(pl.p.play(pl.outbox.Current()))
}

func (pl *Player) Show() {
	pl.mu.Lock()
	pl.visible = true
	pl.mu.Unlock()

	if err := pl.bridge.Show(pl.slot); err != nil {
		log.With("kind", pl.p.kind()).Debug("embed show: " + err.Error())
	}
}

func (pl *Player) Hide() {
	pl.mu.Lock()
	pl.visible = false
	pl.mu.Unlock()

	if err := pl.bridge.Hide(pl.slot); err != nil {
		log.With("kind", pl.p.kind()).Debug("embed hide: " + err.Error())
	}

	if pl.p.clearOnHide() {
		pl.outbox.Reset("")
		pl.mu.Lock()
		pl.current = nil
		pl.mu.Unlock()
		if err := pl.bridge.Clear(pl.slot); err != nil {
			log.With("kind", pl.p.kind()).Debug("embed clear: " + err.Error())
		}
	}
}

// OnLoad flushes the commands deferred for frame.
func (pl *Player) OnLoad(frame string) {
	flushed, err := pl.outbox.Loaded(frame, pl.p.greeting(frame)...)
	if err != nil {
		log.With("kind", pl.p.kind(), "frame", frame).Warn("embed flush: " + err.Error())
	}
	if flushed {
		log.With("kind", pl.p.kind(), "frame", frame).Debug("embed loaded")
	}
}

// OnMessage reacts to status messages of the current frame from the provider origin.
func (pl *Player) OnMessage(frame, origin string, data json.RawMessage) {
	if origin != pl.p.origin() || frame == "" || frame != pl.outbox.Current() {
		return
	}

	r, ok := pl.p.inspect(frame, data)
	if !ok {
		return
	}
	pl.send(r.replies...)
	if r.advance {
		log.With("kind", pl.p.kind(), "frame", frame).Info("embed finished, advancing")
		pl.advance()
	}
}

// OnPage restores the slot after a host page connected. The first page only
// needs the visibility: a start waiting for it is mounted by the pending gate.
// A later page gets the playing embed mounted again.
func (pl *Player) OnPage(first bool) {
	pl.mu.Lock()
	current, playing, visible := pl.current, pl.playing, pl.visible
	pl.mu.Unlock()

	if visible {
		pl.Show()
	}
	if first || !pl.pending.Ready() {
		return
	}
	if current != nil && playing {
		pl.start(*current)
	}
}

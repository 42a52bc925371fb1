package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/plst4-cli/plst4/log"
)

// Event is an mpv notification relevant to playback.
type Event struct {
	// Name is the mpv event name, e.g. "end-file", or "pause" for pause changes.
	Name string
	// Reason of an end-file event: eof, stop, quit, error or redirect.
	Reason string
	// FileError describes why an end-file with reason error happened.
	FileError string
	Paused    bool
}

type rawEvent struct {
	Event     string `json:"event"`
	Reason    string `json:"reason"`
	FileError string `json:"file_error"`
	Name      string `json:"name"`
	Data      any    `json:"data"`
}

// EventListener reads mpv events from a dedicated socket connection.
type EventListener struct {
	socketPath string
	callback   func(Event)

	mu        sync.Mutex
	conn      net.Conn
	listening bool
}

func NewEventListener(socketPath string, callback func(Event)) *EventListener {
	return &EventListener{
		socketPath: socketPath,
		callback:   callback,
	}
}

// Start connects and observes the pause property. Events are delivered until Stop.
func (el *EventListener) Start() error {
	el.mu.Lock()
	defer el.mu.Unlock()

	if el.listening {
		return nil
	}

	conn, err := net.Dial("unix", el.socketPath)
	if err != nil {
		return fmt.Errorf("event listener connect: %w", err)
	}

	observe, _ := json.Marshal(ipcCommand{Command: []any{"observe_property", 1, "pause"}})
	if _, err := conn.Write(append(observe, '\n')); err != nil {
		conn.Close()
		return fmt.Errorf("observe pause: %w", err)
	}

	el.conn = conn
	el.listening = true
	go el.readLoop(conn)

	log.With("socket", el.socketPath).Info("mpv event listener started")
	return nil
}

func (el *EventListener) Stop() {
	el.mu.Lock()
	defer el.mu.Unlock()

	if !el.listening {
		return
	}
	el.listening = false
	el.conn.Close()
}

func (el *EventListener) readLoop(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 4096), 1<<20)

	for scanner.Scan() {
		if ev, ok := parseEvent(scanner.Bytes()); ok {
			el.callback(ev)
		}
	}

	el.mu.Lock()
	stopped := !el.listening
	el.listening = false
	el.mu.Unlock()

	if err := scanner.Err(); err != nil && !stopped {
		log.Warnf("mpv event listener: %v", err)
	}
}

// parseEvent keeps end-file events and pause changes; everything else is dropped.
func parseEvent(line []byte) (Event, bool) {
	var raw rawEvent
	if err := json.Unmarshal(line, &raw); err != nil {
		return Event{}, false
	}

	switch raw.Event {
	case "end-file":
		return Event{Name: raw.Event, Reason: raw.Reason, FileError: raw.FileError}, true
	case "property-change":
		if raw.Name != "pause" {
			return Event{}, false
		}
		paused, _ := raw.Data.(bool)
		return Event{Name: "pause", Paused: paused}, true
	default:
		return Event{}, false
	}
}

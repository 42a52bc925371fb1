// Package protocol defines the JSON frames exchanged with the plst4 server over the watch websocket.
//
// Every frame is an envelope {"type": ..., "payload": ...}. Inbound frames decode into
// one of Handshake, Swap, Event or MediaChange.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Type tags a frame envelope.
type Type string

const (
	TypeHandshake   Type = "handshake"
	TypeSwap        Type = "swap"
	TypeEvent       Type = "event"
	TypeMediaChange Type = "media-change"
)

// ErrUnknownType is returned for envelopes with a type outside the closed set.
var ErrUnknownType = errors.New("unknown message type")

// Envelope is the wire form of every frame.
type Envelope struct {
	Type    Type            `json:"type" jsonschema:"enum=handshake,enum=swap,enum=event,enum=media-change"`
	Payload json.RawMessage `json:"payload"`
}

// Inbound is a decoded server frame.
type Inbound interface {
	Type() Type
}

// Handshake delivers the id the server assigned to this connection.
type Handshake struct {
	ClientID string
}

// Swap carries a markup fragment to apply to the page.
type Swap struct {
	Fragment string
}

// Event names a signal for the page-wide event bus.
type Event struct {
	Name string
}

// MediaChange carries a new authoritative playback state.
type MediaChange struct {
	State MediaState
}

func (Handshake) Type() Type   { return TypeHandshake }
func (Swap) Type() Type        { return TypeSwap }
func (Event) Type() Type       { return TypeEvent }
func (MediaChange) Type() Type { return TypeMediaChange }

// Decode parses one inbound frame. Media states are validated before being returned.
func Decode(raw []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Type {
	case TypeHandshake, TypeSwap, TypeEvent:
		var s string
		if err := json.Unmarshal(env.Payload, &s); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", env.Type, err)
		}
		switch env.Type {
		case TypeHandshake:
			return Handshake{ClientID: s}, nil
		case TypeSwap:
			return Swap{Fragment: s}, nil
		default:
			return Event{Name: s}, nil
		}
	case TypeMediaChange:
		var state MediaState
		if err := json.Unmarshal(env.Payload, &state); err != nil {
			return nil, fmt.Errorf("decode media-change payload: %w", err)
		}
		if err := state.Validate(); err != nil {
			return nil, fmt.Errorf("invalid media-change payload: %w", err)
		}
		return MediaChange{State: state}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

// Encode wraps payload into an envelope of the given type.
func Encode(t Type, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", t, err)
	}
	return json.Marshal(Envelope{Type: t, Payload: raw})
}

package embed

import (
	"encoding/json"
	"net/url"

	"github.com/plst4-cli/plst4/protocol"
)

const soundcloudOrigin = "https://w.soundcloud.com"

type soundcloudMessage struct {
	Method string `json:"method"`
	Value  any    `json:"value,omitempty"`
}

type soundcloud struct{}

// NewSoundCloud creates the backend for SoundCloud tracks.
func NewSoundCloud(b Frame, advance func()) *Player {
	return newPlayer(soundcloud{}, b, advance)
}

func (soundcloud) kind() protocol.Kind { return protocol.KindSoundCloud }
func (soundcloud) origin() string      { return soundcloudOrigin }
func (soundcloud) allow() string       { return "autoplay" }
func (soundcloud) clearOnHide() bool   { return false }

func (soundcloud) source(state protocol.MediaState, _ string) (string, error) {
	q := url.Values{}
	q.Set("url", state.URL)
	q.Set("auto_play", "true")
	return soundcloudOrigin + "/player/?" + q.Encode(), nil
}

func (soundcloud) greeting(string) []any { return nil }

func (soundcloud) call(method string, value any) any {
	return encodeString(soundcloudMessage{Method: method, Value: value})
}

func (s soundcloud) play(string) any  { return s.call("play", nil) }
func (s soundcloud) pause(string) any { return s.call("pause", nil) }
func (s soundcloud) stop(string) []any {
	return []any{s.call("pause", nil), s.call("seekTo", 0)}
}

func (s soundcloud) inspect(_ string, data json.RawMessage) (reaction, bool) {
	var msg soundcloudMessage
	if err := decodeString(data, &msg); err != nil {
		return reaction{}, false
	}

	switch msg.Method {
	case "ready":
		return reaction{replies: []any{
			s.call("addEventListener", "finish"),
			s.call("addEventListener", "error"),
		}}, true
	case "finish", "error":
		return reaction{advance: true}, true
	}
	return reaction{}, true
}

package embed

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/plst4-cli/plst4/protocol"
)

const youtubeOrigin = "https://www.youtube.com"

// youtubeEnded is the player state of a finished video.
const youtubeEnded = 0

// youtubeMessage is the envelope of the iframe API, sent as a JSON string.
type youtubeMessage struct {
	Event   string          `json:"event"`
	Func    string          `json:"func,omitempty"`
	Args    []any           `json:"args,omitempty"`
	ID      string          `json:"id"`
	Channel string          `json:"channel"`
	Info    json.RawMessage `json:"info,omitempty"`
}

type youtube struct{}

// NewYouTube creates the backend for YouTube videos.
func NewYouTube(b Frame, advance func()) *Player {
	return newPlayer(youtube{}, b, advance)
}

func (youtube) kind() protocol.Kind { return protocol.KindYouTube }
func (youtube) origin() string      { return youtubeOrigin }
func (youtube) allow() string       { return "autoplay; encrypted-media; picture-in-picture; fullscreen" }
func (youtube) clearOnHide() bool   { return false }

// youtubeID accepts youtu.be short links and watch?v= links.
func youtubeID(locator string) (string, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", err
	}

	var id string
	switch strings.TrimPrefix(u.Hostname(), "www.") {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		id = u.Query().Get("v")
	}

	if id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("not a youtube video url: %q", locator)
	}
	return id, nil
}

func (youtube) source(state protocol.MediaState, _ string) (string, error) {
	id, err := youtubeID(state.URL)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("enablejsapi", "1")
	q.Set("autoplay", "1")
	q.Set("playsinline", "1")
	q.Set("cc_lang_pref", "en")
	return youtubeOrigin + "/embed/" + url.PathEscape(id) + "?" + q.Encode(), nil
}

func encodeString(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func (youtube) greeting(frame string) []any {
	return []any{encodeString(youtubeMessage{Event: "listening", ID: frame, Channel: "widget"})}
}

func (youtube) call(frame, fn string) any {
	return encodeString(youtubeMessage{Event: "command", Func: fn, Args: []any{}, ID: frame, Channel: "widget"})
}

func (y youtube) play(frame string) any  { return y.call(frame, "playVideo") }
func (y youtube) pause(frame string) any { return y.call(frame, "pauseVideo") }
func (y youtube) stop(frame string) []any {
	return []any{y.call(frame, "stopVideo")}
}

// decodeString unwraps a message that may arrive as a JSON string holding JSON.
func decodeString(data json.RawMessage, v any) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		data = json.RawMessage(s)
	}
	return json.Unmarshal(data, v)
}

func (youtube) inspect(_ string, data json.RawMessage) (reaction, bool) {
	var msg youtubeMessage
	if err := decodeString(data, &msg); err != nil {
		return reaction{}, false
	}

	switch msg.Event {
	case "infoDelivery":
		var info struct {
			PlayerState *int `json:"playerState"`
		}
		if err := json.Unmarshal(msg.Info, &info); err != nil || info.PlayerState == nil {
			return reaction{}, true
		}
		return reaction{advance: *info.PlayerState == youtubeEnded}, true
	case "onStateChange":
		var state int
		if err := json.Unmarshal(msg.Info, &state); err != nil {
			return reaction{}, true
		}
		return reaction{advance: state == youtubeEnded}, true
	case "onError":
		return reaction{advance: true}, true
	}
	return reaction{}, true
}

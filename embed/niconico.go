package embed

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/plst4-cli/plst4/protocol"
)

const (
	niconicoOrigin    = "https://embed.nicovideo.jp"
	niconicoWatchBase = "https://www.nicovideo.jp/watch/"

	// niconicoEnded is the playerStatus reported once playback finished.
	niconicoEnded = 4
)

type niconicoCommand struct {
	EventName           string `json:"eventName"`
	SourceConnectorType int    `json:"sourceConnectorType"`
	PlayerID            string `json:"playerId"`
	Data                any    `json:"data,omitempty"`
}

type niconicoMessage struct {
	EventName string `json:"eventName"`
	PlayerID  string `json:"playerId"`
	Data      struct {
		PlayerStatus int `json:"playerStatus"`
	} `json:"data"`
}

type niconico struct{}

// NewNiconico creates the backend for Niconico videos.
func NewNiconico(b Frame, advance func()) *Player {
	return newPlayer(niconico{}, b, advance)
}

func (niconico) kind() protocol.Kind { return protocol.KindNiconico }
func (niconico) origin() string      { return niconicoOrigin }
func (niconico) allow() string       { return "autoplay; fullscreen" }
func (niconico) clearOnHide() bool   { return true }

func niconicoID(locator string) (string, error) {
	id := strings.TrimPrefix(locator, niconicoWatchBase)
	id, _, _ = strings.Cut(id, "?")
	if id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("not a niconico watch url: %q", locator)
	}
	return id, nil
}

func (niconico) source(state protocol.MediaState, frame string) (string, error) {
	id, err := niconicoID(state.URL)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("jsapi", "1")
	q.Set("playerId", frame)
	q.Set("autoplay", "1")
	return niconicoOrigin + "/watch/" + url.PathEscape(id) + "?" + q.Encode(), nil
}

func (niconico) greeting(string) []any { return nil }

func (niconico) command(frame, event string, data any) niconicoCommand {
	return niconicoCommand{
		EventName:           event,
		SourceConnectorType: 1,
		PlayerID:            frame,
		Data:                data,
	}
}

func (n niconico) play(frame string) any  { return n.command(frame, "play", nil) }
func (n niconico) pause(frame string) any { return n.command(frame, "pause", nil) }

func (n niconico) stop(frame string) []any {
	return []any{
		n.command(frame, "pause", nil),
		n.command(frame, "seek", map[string]int{"time": 0}),
	}
}

func (niconico) inspect(frame string, data json.RawMessage) (reaction, bool) {
	var msg niconicoMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return reaction{}, false
	}
	if msg.PlayerID != frame {
		return reaction{}, false
	}

	switch msg.EventName {
	case "playerStatusChange":
		return reaction{advance: msg.Data.PlayerStatus == niconicoEnded}, true
	case "error":
		return reaction{advance: true}, true
	}
	return reaction{}, true
}

// Package icon renders status symbols in the variant chosen by icons.variant.
package icon

import (
	"github.com/plst4-cli/plst4/key"
	"github.com/spf13/viper"
)

const (
	emoji = "emoji"
	nerd  = "nerd"
	plain = "plain"
)

// AvailableVariants lists the accepted values of icons.variant.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain}
}

type Icon int

const (
	Connected Icon = iota
	Reconnecting
	Disconnected
	Playing
	Paused
	Idle
	Toast
	Success
	Fail
)

type glyphs struct {
	emoji, nerd, plain string
}

var icons = map[Icon]glyphs{
	Connected:    {"🟢", "", "[+]"},
	Reconnecting: {"🟡", "", "[~]"},
	Disconnected: {"🔴", "", "[x]"},
	Playing:      {"▶️", "", ">"},
	Paused:       {"⏸️", "", "||"},
	Idle:         {"💤", "", "-"},
	Toast:        {"🔔", "", "!"},
	Success:      {"✅", "", "ok"},
	Fail:         {"❌", "", "err"},
}

// Get returns the glyph for i in the configured variant, or "" for an unknown variant.
func Get(i Icon) string {
	g, ok := icons[i]
	if !ok {
		return ""
	}

	switch viper.GetString(key.IconsVariant) {
	case emoji:
		return g.emoji
	case nerd:
		return g.nerd
	case plain:
		return g.plain
	default:
		return ""
	}
}

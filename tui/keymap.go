package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/plst4-cli/plst4/color"
	"github.com/plst4-cli/plst4/style"
)

type keymap struct {
	quit, forceQuit,
	playPause, advance,
	showHelp key.Binding
}

func newKeymap() *keymap {
	return &keymap{
		quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		forceQuit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+d"),
			key.WithHelp("ctrl+c", "quit"),
		),
		playPause: key.NewBinding(
			key.WithKeys(" ", "p"),
			key.WithHelp("space", "pause/resume"),
		),
		advance: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp(style.Fg(color.Purple)("n"), style.Fg(color.Purple)("next")),
		),
		showHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

func (k *keymap) ShortHelp() []key.Binding {
	return []key.Binding{k.playPause, k.advance, k.quit, k.showHelp}
}

func (k *keymap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.playPause, k.advance},
		{k.quit, k.forceQuit, k.showHelp},
	}
}

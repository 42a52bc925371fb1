// Package color holds the terminal colors used by plst4 output.
package color

import "github.com/charmbracelet/lipgloss"

// New wraps an ANSI index or hex value.
func New(value string) lipgloss.Color {
	return lipgloss.Color(value)
}

// ANSI colors follow the user's terminal theme.
var (
	Red    = New("1")
	Green  = New("2")
	Yellow = New("3")
	Blue   = New("4")
	Purple = New("5")
	Cyan   = New("6")
)

// Accents used by the watch view.
var (
	Accent = New("#7d56f4")
	Muted  = New("#6c7086")
	Light  = New("230")
)

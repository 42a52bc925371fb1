// Package style renders strings with lipgloss. Every helper is a func(string) string
// so it can be passed into templates and cobra usage functions.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/plst4-cli/plst4/color"
)

func New() lipgloss.Style {
	return lipgloss.NewStyle()
}

// Fg returns a renderer with the given foreground.
func Fg(c lipgloss.Color) func(string) string {
	s := New().Foreground(c)
	return func(text string) string { return s.Render(text) }
}

var (
	Faint  = func(s string) string { return New().Faint(true).Render(s) }
	Bold   = func(s string) string { return New().Bold(true).Render(s) }
	Italic = func(s string) string { return New().Italic(true).Render(s) }
)

// Title renders a padded banner, used for headings in the watch view.
var Title = func(s string) string {
	return New().Foreground(color.Light).Background(color.Accent).Padding(0, 1).Render(s)
}

// ErrorTitle is Title on red.
var ErrorTitle = func(s string) string {
	return New().Foreground(color.Light).Background(color.Red).Padding(0, 1).Render(s)
}

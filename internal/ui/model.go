// Package ui keeps the stack of transient notifications shown under the watch view.
package ui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"
	"github.com/plst4-cli/plst4/color"
	"github.com/plst4-cli/plst4/icon"
	"github.com/plst4-cli/plst4/style"
)

// MaxVisible caps the notifications rendered at once; older ones are dropped.
const MaxVisible = 4

// Notification is one entry of the stack.
type Notification struct {
	ID    int
	Error bool
	Title string
	Body  string
}

// NotifyMsg adds a notification.
type NotifyMsg struct {
	Error bool
	Title string
	Body  string
}

// ClearNotificationMsg removes the notification with the given id.
type ClearNotificationMsg struct {
	ID int
}

// Notify returns a command that adds a notification.
func Notify(title, body string, isError bool) tea.Cmd {
	return func() tea.Msg {
		return NotifyMsg{Error: isError, Title: title, Body: body}
	}
}

// Model holds the live notifications, each removed after ttl.
type Model struct {
	ttl   time.Duration
	seq   int
	items []Notification
}

func New(ttl time.Duration) *Model {
	return &Model{ttl: ttl}
}

func (m *Model) clearAfter(id int) tea.Cmd {
	return tea.Tick(m.ttl, func(time.Time) tea.Msg {
		return ClearNotificationMsg{ID: id}
	})
}

// Update processes notification messages and ignores everything else.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case NotifyMsg:
		m.seq++
		m.items = append(m.items, Notification{
			ID:    m.seq,
			Error: msg.Error,
			Title: msg.Title,
			Body:  msg.Body,
		})
		if len(m.items) > MaxVisible {
			m.items = m.items[len(m.items)-MaxVisible:]
		}
		return m.clearAfter(m.seq)
	case ClearNotificationMsg:
		for i, n := range m.items {
			if n.ID == msg.ID {
				m.items = append(m.items[:i], m.items[i+1:]...)
				break
			}
		}
	}
	return nil
}

// Items returns the live notifications, oldest first.
func (m *Model) Items() []Notification {
	return m.items
}

// View renders the stack wrapped to width. Empty when there is nothing to show.
func (m *Model) View(width int) string {
	if len(m.items) == 0 {
		return ""
	}

	lines := make([]string, 0, len(m.items))
	for _, n := range m.items {
		title := style.Fg(color.Yellow)(n.Title)
		if n.Error {
			title = style.Fg(color.Red)(n.Title)
		}

		line := icon.Get(icon.Toast) + " " + title
		if n.Body != "" {
			line += " " + style.Faint(n.Body)
		}
		if width > 0 {
			line = wordwrap.String(line, width)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

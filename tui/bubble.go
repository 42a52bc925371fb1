package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/plst4-cli/plst4/color"
	"github.com/plst4-cli/plst4/icon"
	"github.com/plst4-cli/plst4/internal/ui"
	"github.com/plst4-cli/plst4/page"
	"github.com/plst4-cli/plst4/protocol"
	"github.com/plst4-cli/plst4/socket"
	"github.com/plst4-cli/plst4/style"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// maxEvents is how many recent page events are listed.
const maxEvents = 5

var paddingStyle = lipgloss.NewStyle().Padding(1, 2)

type bubble struct {
	options Options
	keymap  *keymap

	spinnerC spinner.Model
	helpC    help.Model
	notifier *ui.Model

	conn     socket.State
	retry    int
	clientID string
	media    mo.Option[protocol.MediaState]
	paused   bool
	events   []string

	width, height int
}

func newBubble(options Options) *bubble {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(color.Accent)

	return &bubble{
		options:  options,
		keymap:   newKeymap(),
		spinnerC: s,
		helpC:    help.New(),
		notifier: ui.New(page.ToastTTL),
		conn:     socket.Connecting,
	}
}

func (b *bubble) Init() tea.Cmd {
	return b.spinnerC.Tick
}

func (b *bubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if cmd := b.notifier.Update(msg); cmd != nil {
		return b, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width, b.height = msg.Width, msg.Height
		b.helpC.Width = msg.Width
	case tea.KeyMsg:
		return b, b.handleKey(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		b.spinnerC, cmd = b.spinnerC.Update(msg)
		return b, cmd
	case connectionMsg:
		b.conn, b.retry = msg.state, msg.retry
	case clientIDMsg:
		b.clientID = string(msg)
	case mediaMsg:
		b.media = mo.Some(protocol.MediaState(msg))
		b.paused = false
	case eventMsg:
		b.events = append(b.events, string(msg))
		if len(b.events) > maxEvents {
			b.events = b.events[len(b.events)-maxEvents:]
		}
	case toastMsg:
		return b, ui.Notify(msg.Title, msg.Description, msg.Kind == "error")
	}

	return b, nil
}

func (b *bubble) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case bubblesKey.Matches(msg, b.keymap.forceQuit), bubblesKey.Matches(msg, b.keymap.quit):
		return tea.Quit
	case bubblesKey.Matches(msg, b.keymap.showHelp):
		b.helpC.ShowAll = !b.helpC.ShowAll
	case bubblesKey.Matches(msg, b.keymap.playPause):
		if b.options.Controls != nil && b.playing() {
			b.paused = b.options.Controls.TogglePause()
		}
	case bubblesKey.Matches(msg, b.keymap.advance):
		if b.options.Controls != nil {
			b.options.Controls.Advance()
			return ui.Notify("Advance requested", "", false)
		}
	}
	return nil
}

func (b *bubble) playing() bool {
	state, ok := b.media.Get()
	return ok && state.Kind != protocol.KindNone
}

func (b *bubble) View() string {
	lines := []string{
		style.Title("plst4") + " " + style.Fg(color.Purple)(b.options.Session) + " " + style.Faint(b.options.Server),
		"",
		b.viewConnection(),
		b.viewMedia(),
	}

	if b.clientID != "" {
		lines = append(lines, style.Faint("client "+b.clientID))
	}

	if len(b.events) > 0 {
		lines = append(lines, "", style.Bold("Events"))
		lines = append(lines, lo.Map(b.events, func(e string, _ int) string {
			return "  " + style.Faint(e)
		})...)
	}

	if toasts := b.notifier.View(b.width); toasts != "" {
		lines = append(lines, "", toasts)
	}

	if b.width > 0 {
		lines = lo.Map(lines, func(l string, _ int) string {
			return truncate.StringWithTail(l, uint(b.width), "…")
		})
	}

	body := strings.Join(lines, "\n")
	if pad := b.height - len(lines) - 3; pad > 0 {
		body += strings.Repeat("\n", pad)
	}
	return paddingStyle.Render(body + "\n" + b.helpC.View(b.keymap))
}

func (b *bubble) viewConnection() string {
	switch b.conn {
	case socket.Open:
		return icon.Get(icon.Connected) + " " + style.Fg(color.Green)("connected")
	case socket.Connecting:
		return b.spinnerC.View() + " connecting"
	case socket.ClosedRetrying:
		return icon.Get(icon.Reconnecting) + " " + style.Fg(color.Yellow)(fmt.Sprintf("reconnecting (retry %d)", b.retry))
	default:
		return icon.Get(icon.Disconnected) + " " + style.Fg(color.Red)("disconnected")
	}
}

func (b *bubble) viewMedia() string {
	state, ok := b.media.Get()
	if !ok || state.Kind == protocol.KindNone {
		return icon.Get(icon.Idle) + " " + style.Faint("nothing playing")
	}

	i := icon.Playing
	if b.paused {
		i = icon.Paused
	}
	return fmt.Sprintf("%s %s %s", icon.Get(i), style.Fg(color.Cyan)(string(state.Kind)), state.URL)
}

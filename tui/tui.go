// Package tui renders the watch session: connection state, what is playing,
// page events and toasts. A plain line printer replaces it when stdout is not
// a terminal.
package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/plst4-cli/plst4/page"
	"github.com/plst4-cli/plst4/protocol"
	"github.com/plst4-cli/plst4/socket"
)

// Sink receives the session updates that are shown to the user.
// Implementations must be safe for concurrent use.
type Sink interface {
	Connection(state socket.State, retry int)
	ClientID(id string)
	Media(state protocol.MediaState)
	Event(name string)
	Toast(t page.Toast)
}

// Controls are the actions bound to keys.
type Controls interface {
	// TogglePause pauses or resumes the active backend and reports whether it is paused now.
	TogglePause() bool
	Advance()
}

type Options struct {
	Server   string
	Session  string
	Controls Controls
}

// Program is the interactive Sink.
type Program struct {
	program *tea.Program
}

// New prepares the interactive view. Nothing is drawn until Run.
func New(ctx context.Context, options Options) *Program {
	return &Program{
		program: tea.NewProgram(newBubble(options), tea.WithAltScreen(), tea.WithContext(ctx)),
	}
}

// Run draws until the user quits or ctx ends. Quitting returns ErrQuit so the
// rest of the session can stop with it.
func (p *Program) Run() error {
	_, err := p.program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return context.Canceled
	}
	if err != nil {
		return err
	}
	return ErrQuit
}

// ErrQuit is returned by Run when the user quit.
var ErrQuit = errors.New("quit")

func (p *Program) Connection(state socket.State, retry int) {
	p.program.Send(connectionMsg{state: state, retry: retry})
}

func (p *Program) ClientID(id string) {
	p.program.Send(clientIDMsg(id))
}

func (p *Program) Media(state protocol.MediaState) {
	p.program.Send(mediaMsg(state))
}

func (p *Program) Event(name string) {
	p.program.Send(eventMsg(name))
}

func (p *Program) Toast(t page.Toast) {
	p.program.Send(toastMsg(t))
}

type (
	connectionMsg struct {
		state socket.State
		retry int
	}
	clientIDMsg string
	mediaMsg    protocol.MediaState
	eventMsg    string
	toastMsg    page.Toast
)

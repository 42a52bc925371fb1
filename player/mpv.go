// Package player renders inline audio and video sources with mpv, driven over
// its JSON-IPC socket.
package player

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/plst4-cli/plst4/constant"
	"github.com/plst4-cli/plst4/log"
	"github.com/plst4-cli/plst4/where"
)

const (
	socketWaitRetries = 20
	socketWaitDelay   = 150 * time.Millisecond
)

var ErrNotLaunched = errors.New("mpv is not running")

// Engine is the media engine behind an inline backend.
type Engine interface {
	// Launch starts the engine. Ready is closed once it accepts commands.
	Launch(ctx context.Context) error
	Ready() <-chan struct{}
	Load(locator string) error
	SetPause(paused bool) error
	Seek(seconds float64) error
	SetAspect(ratio string) error
	SetVisible(visible bool) error
	// Events delivers end-file and pause events.
	Events() <-chan Event
	Close() error
}

// MPV is an idle mpv process controlled over a unix socket.
type MPV struct {
	path  string
	video bool
	name  string

	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{}
	ready      chan struct{}
	events     chan Event
	listener   *EventListener

	mu        sync.Mutex
	requestID int64
	closeOnce sync.Once
}

// NewMPV creates an engine running the mpv executable at path. Without video
// no window is ever opened.
func NewMPV(path string, name string, video bool) *MPV {
	return &MPV{
		path:   path,
		name:   name,
		video:  video,
		exited: make(chan struct{}),
		ready:  make(chan struct{}),
		events: make(chan Event, 16),
	}
}

func (m *MPV) Ready() <-chan struct{} {
	return m.ready
}

func (m *MPV) Events() <-chan Event {
	return m.events
}

// Launch starts mpv idle and waits for its IPC socket.
func (m *MPV) Launch(ctx context.Context) error {
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return fmt.Errorf("generate socket name: %w", err)
	}
	socketPath := filepath.Join(where.Temp(), fmt.Sprintf("%s-%s-%x.sock", constant.Plst4, m.name, randomBytes))

	args := []string{
		"--no-terminal",
		"--really-quiet",
		"--idle=yes",
		"--keep-open=no",
		"--pause=yes",
		"--input-ipc-server=" + socketPath,
		"--title=" + constant.Plst4 + " " + m.name,
		"--force-window=no",
	}
	if !m.video {
		args = append(args, "--no-video")
	}

	m.cmd = exec.CommandContext(ctx, m.path, args...)
	m.cmd.SysProcAttr = detached()
	m.cmd.Stdout = nil
	m.cmd.Stderr = nil
	m.cmd.Stdin = nil

	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	go func() {
		_ = m.cmd.Wait()
		close(m.exited)
	}()

	if err := m.waitForSocket(ctx, socketPath); err != nil {
		select {
		case <-m.exited:
		default:
			log.Warnf("killing mpv: socket never became ready")
			terminate(m.cmd, m.exited, time.Second)
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	m.mu.Lock()
	m.socketPath = socketPath
	m.mu.Unlock()

	m.listener = NewEventListener(socketPath, m.emit)
	if err := m.listener.Start(); err != nil {
		return err
	}

	close(m.ready)
	log.With("engine", m.name, "socket", socketPath).Info("mpv ready")
	return nil
}

func (m *MPV) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
		log.With("engine", m.name, "event", ev.Name).Warn("dropping mpv event, consumer is behind")
	}
}

// waitForSocket polls until the mpv IPC socket is accepting connections.
func (m *MPV) waitForSocket(ctx context.Context, socketPath string) error {
	for i := 0; i < socketWaitRetries; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.exited:
			return fmt.Errorf("mpv exited before socket was ready")
		case <-time.After(socketWaitDelay):
		}

		conn, err := net.Dial("unix", socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", socketPath, socketWaitRetries)
}

// Load replaces the current file with locator.
func (m *MPV) Load(locator string) error {
	target, err := sanitizeMediaTarget(locator)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}
	_, err = m.sendCommand("loadfile", target, "replace")
	return err
}

func (m *MPV) SetPause(paused bool) error {
	return m.set("pause", paused)
}

// Seek moves to an absolute position in seconds.
func (m *MPV) Seek(seconds float64) error {
	_, err := m.sendCommand("seek", seconds, "absolute")
	return err
}

// SetAspect overrides the video aspect ratio. CSS ratios such as "16/9" are accepted.
func (m *MPV) SetAspect(ratio string) error {
	if !m.video {
		return nil
	}
	if ratio == "" {
		return m.set("video-aspect-override", "-1")
	}
	return m.set("video-aspect-override", strings.ReplaceAll(strings.ReplaceAll(ratio, " ", ""), "/", ":"))
}

// SetVisible maps show and hide onto the video track and the window.
func (m *MPV) SetVisible(visible bool) error {
	if !m.video {
		return nil
	}
	if visible {
		if err := m.set("force-window", "yes"); err != nil {
			return err
		}
		return m.set("vid", "auto")
	}
	if err := m.set("vid", "no"); err != nil {
		return err
	}
	return m.set("force-window", "no")
}

func (m *MPV) set(property string, value any) error {
	_, err := m.sendCommand("set_property", property, value)
	return err
}

// Close quits mpv and removes its socket.
func (m *MPV) Close() error {
	m.closeOnce.Do(func() {
		if m.listener != nil {
			m.listener.Stop()
		}
		if m.cmd == nil || m.cmd.Process == nil {
			return
		}

		_, _ = m.sendCommand("quit")
		select {
		case <-m.exited:
		case <-time.After(3 * time.Second):
			terminate(m.cmd, m.exited, time.Second)
		}

		m.mu.Lock()
		if m.socketPath != "" {
			_ = os.Remove(m.socketPath)
		}
		m.socketPath = ""
		m.mu.Unlock()
	})
	return nil
}

// sanitizeMediaTarget validates that a locator is safe to pass to mpv.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in URL")
	}

	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("url must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https", "file":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	return filepath.Clean(l), nil
}

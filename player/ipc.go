package player

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"
)

// ipcCommand is one request on mpv's JSON-IPC socket.
type ipcCommand struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

// ipcReply is either a command reply or an asynchronous event; replies carry "error".
type ipcReply struct {
	Data      any     `json:"data"`
	Error     *string `json:"error"`
	RequestID int64   `json:"request_id"`
	Event     string  `json:"event"`
}

const (
	maxRetries   = 3
	retryDelay   = 100 * time.Millisecond
	readDeadline = 2 * time.Second
)

// sendCommand runs command on the mpv socket, retrying transient connection errors.
func (m *MPV) sendCommand(command ...any) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.socketPath == "" {
		return nil, ErrNotLaunched
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(retryDelay)
		}

		m.requestID++
		result, err := doSendCommand(m.socketPath, m.requestID, command)
		if err == nil {
			return result, nil
		}
		var mpvErr *mpvError
		if errors.As(err, &mpvErr) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("ipc command failed after %d attempts: %w", maxRetries, lastErr)
}

type mpvError struct {
	command string
	msg     string
}

func (e *mpvError) Error() string {
	return fmt.Sprintf("mpv %s: %s", e.command, e.msg)
}

// doSendCommand performs one request on a fresh connection. mpv may broadcast
// events on any connection, so lines are skipped until the matching reply.
func doSendCommand(socketPath string, id int64, command []any) (any, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	payload, err := json.Marshal(ipcCommand{Command: command, RequestID: id})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	if _, err = conn.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var reply ipcReply
		if err := json.Unmarshal(scanner.Bytes(), &reply); err != nil {
			continue
		}
		if reply.Error == nil || reply.RequestID != id {
			continue
		}
		if *reply.Error != "success" {
			return nil, &mpvError{command: fmt.Sprint(command[0]), msg: *reply.Error}
		}
		return reply.Data, nil
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return nil, fmt.Errorf("read: connection closed before reply")
}

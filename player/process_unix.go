//go:build !windows

package player

import (
	"os/exec"
	"syscall"
	"time"
)

// detached puts mpv in its own process group so a terminal Ctrl-C reaches
// plst4 only and mpv is shut down through IPC.
func detached() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// terminate asks the process group to exit and kills it after grace.
func terminate(cmd *exec.Cmd, exited <-chan struct{}, grace time.Duration) {
	if cmd == nil || cmd.Process == nil {
		return
	}

	pgid := -cmd.Process.Pid
	_ = syscall.Kill(pgid, syscall.SIGTERM)

	select {
	case <-exited:
	case <-time.After(grace):
		_ = syscall.Kill(pgid, syscall.SIGKILL)
	}
}

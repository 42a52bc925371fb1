// Package open launches URLs with the system handler or a chosen browser.
package open

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/plst4-cli/plst4/constant"
)

// Start opens input with app, or with the system default when app is empty.
// It does not wait for the handler to exit.
func Start(input, app string) error {
	cmd, err := Command(runtime.GOOS, input, app)
	if err != nil {
		return err
	}
	cmd.Stdout, cmd.Stderr = nil, nil
	return cmd.Start()
}

// Command builds the launcher invocation for goos.
func Command(goos, input, app string) (*exec.Cmd, error) {
	if app == "" {
		return systemCommand(goos, input)
	}

	switch goos {
	case constant.Windows:
		// cmd's start needs & escaped in URLs.
		escaped := strings.ReplaceAll(input, "&", "^&")
		return exec.Command("cmd", "/C", "start", "", app, escaped), nil
	case constant.Darwin:
		return exec.Command("open", "-a", app, input), nil
	case constant.Linux:
		return exec.Command(app, input), nil
	case constant.Android:
		return exec.Command("termux-open", "--choose", input), nil
	default:
		return nil, fmt.Errorf("unsupported OS: %s", goos)
	}
}

func systemCommand(goos, input string) (*exec.Cmd, error) {
	switch goos {
	case constant.Windows:
		rundll := filepath.Join(os.Getenv("SYSTEMROOT"), "System32", "rundll32.exe")
		return exec.Command(rundll, "url.dll,FileProtocolHandler", input), nil
	case constant.Darwin:
		return exec.Command("open", input), nil
	case constant.Linux:
		return exec.Command("xdg-open", input), nil
	case constant.Android:
		return exec.Command("termux-open", input), nil
	default:
		return nil, fmt.Errorf("unsupported OS: %s", goos)
	}
}

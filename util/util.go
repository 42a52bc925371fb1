// Package util holds small terminal and filesystem helpers shared by the commands.
package util

import (
	"fmt"
	"os"
	"strings"

	"github.com/plst4-cli/plst4/filesystem"
	"golang.org/x/term"
)

// Quantify returns "1 singular" or "n plural".
func Quantify(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}

// Capitalize upper-cases the first byte of s.
func Capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// IsTerminal reports whether stdout is an interactive terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// PrintErasable prints msg without a newline and returns a func that erases it.
func PrintErasable(msg string) (eraser func()) {
	if !IsTerminal() {
		return func() {}
	}

	fmt.Fprintf(os.Stdout, "\r%s", msg)
	return func() {
		fmt.Fprintf(os.Stdout, "\r%s\r", strings.Repeat(" ", len(msg)))
	}
}

// Ignore calls f and discards its error.
func Ignore(f func() error) {
	_ = f()
}

// Delete removes a file or a directory tree through the active filesystem.
func Delete(path string) error {
	fs := filesystem.API()
	stat, err := fs.Stat(path)
	if err != nil {
		return err
	}

	if stat.IsDir() {
		return fs.RemoveAll(path)
	}
	return fs.Remove(path)
}

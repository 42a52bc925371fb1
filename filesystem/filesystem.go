// Package filesystem routes every file access of the client through a swappable afero backend.
package filesystem

import "github.com/spf13/afero"

var backend = afero.Afero{Fs: afero.NewOsFs()}

// API returns the active backend.
func API() afero.Afero {
	return backend
}

// Use replaces the backend. Callers own any synchronization with readers.
func Use(fs afero.Fs) {
	backend = afero.Afero{Fs: fs}
}

// SetOsFs switches to the real operating system filesystem.
func SetOsFs() { Use(afero.NewOsFs()) }

// SetMemMapFs switches to a volatile in-memory filesystem, used by tests.
func SetMemMapFs() { Use(afero.NewMemMapFs()) }

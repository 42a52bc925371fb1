// Package where resolves the directories the client keeps its files in.
package where

import (
	"os"
	"path/filepath"

	"github.com/plst4-cli/plst4/constant"
	"github.com/plst4-cli/plst4/filesystem"
	"github.com/samber/lo"
)

// EnvConfigPath overrides the configuration directory.
const EnvConfigPath = "PLST4_CONFIG_PATH"

func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config is the directory holding plst4.toml, logs and session history.
// XDG_CONFIG_HOME (or the platform equivalent) unless PLST4_CONFIG_PATH is set.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base, err := os.UserConfigDir()
	if err != nil {
		base = filepath.Join(".", "config")
	}
	return ensureDir(filepath.Join(base, constant.Plst4))
}

// Cache is the persistent cache directory.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.Plst4))
}

// Logs is where daily log files are written when logs.write is enabled.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Sessions is the file remembering joined watch sessions.
func Sessions() string {
	return filepath.Join(Config(), "sessions.json")
}

// Temp holds transient artifacts such as mpv IPC sockets.
func Temp() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.Plst4))
}

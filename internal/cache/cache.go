// Package cache prunes files the client leaves behind: old daily logs and
// expired cache entries.
package cache

import (
	"io/fs"
	"time"

	"github.com/plst4-cli/plst4/filesystem"
	"github.com/plst4-cli/plst4/log"
	"github.com/plst4-cli/plst4/where"
)

// TTL is how long an untouched file survives.
const TTL = 7 * 24 * time.Hour

var now = time.Now

// Prune removes regular files under dir not modified within ttl and returns
// how many were removed. A missing dir is not an error.
func Prune(dir string, ttl time.Duration) (int, error) {
	var removed int
	cutoff := now().Add(-ttl)

	err := filesystem.API().Walk(dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() || !info.ModTime().Before(cutoff) {
			return nil
		}

		if err := filesystem.API().Remove(path); err != nil {
			return err
		}
		removed++
		return nil
	})

	return removed, err
}

// CollectGarbage prunes the log and cache directories.
func CollectGarbage() {
	for _, dir := range []string{where.Logs(), where.Cache()} {
		n, err := Prune(dir, TTL)
		if err != nil {
			log.With("dir", dir).Warn("pruning: " + err.Error())
			continue
		}
		if n > 0 {
			log.With("dir", dir, "files", n).Debug("pruned stale files")
		}
	}
}

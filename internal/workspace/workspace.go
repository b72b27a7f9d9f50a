// Package workspace prepares the bot's working directories (data, logs,
// backups) before any component touches disk.
package workspace

import (
	"fmt"
	"log/slog"
	"os"
)

// EnsureDirs creates every given directory if it does not already exist.
// Pre-existing directories are left untouched, so repeated calls are
// idempotent.
func EnsureDirs(dirs ...string) error {
	for _, dir := range dirs {
		if dir == "" {
			return fmt.Errorf("directory path cannot be empty")
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Working directory ready", "dir", dir)
	}
	return nil
}

package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"forwardbot/internal/config"
)

const backupPrefix = "forward_bot_"

// newBackupTask creates the scheduled task that snapshots the database into
// the backups directory and prunes old snapshots beyond the retention count.
func newBackupTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "backup")

	return func(ctx context.Context) error {
		dir := deps.Config.Workspace.BackupsDir
		name := fmt.Sprintf("%s%s.db", backupPrefix, time.Now().UTC().Format("20060102_150405"))
		path := filepath.Join(dir, name)

		startTime := time.Now()
		if err := deps.Store.BackupTo(ctx, path); err != nil {
			log.ErrorContext(ctx, "Backup task failed", "path", path, "error", err)
			return fmt.Errorf("backup failed: %w", err)
		}
		log.InfoContext(ctx, "Backup written", "path", path, "duration", time.Since(startTime))

		if err := pruneBackups(dir, config.BackupRetention); err != nil {
			log.WarnContext(ctx, "Failed to prune old backups", "dir", dir, "error", err)
		}
		return nil
	}
}

// pruneBackups removes the oldest backup files beyond keep. Backup filenames
// embed a sortable UTC timestamp, so lexical order is chronological order.
func pruneBackups(dir string, keep int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read backups directory: %w", err)
	}

	var backups []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, backupPrefix) && strings.HasSuffix(name, ".db") {
			backups = append(backups, name)
		}
	}
	if len(backups) <= keep {
		return nil
	}

	sort.Strings(backups)
	for _, name := range backups[:len(backups)-keep] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", name, err)
		}
	}
	return nil
}

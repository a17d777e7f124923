package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CleanupOldLogs removes files in dir matching pattern that are older than
// retentionDays. A retentionDays value of 0 disables pruning. The active log
// file can be excluded by name.
func CleanupOldLogs(logger *slog.Logger, dir, pattern string, retentionDays int, exclude ...string) {
	if retentionDays <= 0 || strings.TrimSpace(dir) == "" {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	excluded := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		excluded[name] = struct{}{}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if _, skip := excluded[name]; skip {
			continue
		}
		if pattern != "" {
			matched, err := filepath.Match(pattern, name)
			if err != nil || !matched {
				continue
			}
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil {
			if logger != nil {
				logger.Warn("log retention remove failed; file remains", "path", path, "error", err)
			}
			continue
		}
		if logger != nil {
			logger.Info("log pruned", "path", path)
		}
	}
}

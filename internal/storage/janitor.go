package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Janitor removes stale artifacts from the temporary directories
type Janitor struct {
	dirs   []string
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewJanitor creates a janitor that deletes regular files in dirs older than ttl
func NewJanitor(ttl time.Duration, logger *zap.Logger, dirs ...string) *Janitor {
	return &Janitor{
		dirs:   dirs,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.Named("janitor"),
	}
}

// Sweep deletes expired files and returns how many were removed.
// Subdirectories are left alone; missing directories are skipped.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	if j.ttl <= 0 {
		return 0, nil
	}

	cutoff := j.now().Add(-j.ttl)
	removed := 0
	var lastErr error

	for _, dir := range j.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			lastErr = fmt.Errorf("failed to read %s: %w", dir, err)
			j.logger.Warn("Failed to read directory", zap.String("dir", dir), zap.Error(err))
			continue
		}

		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return removed, err
			}
			if !entry.Type().IsRegular() {
				continue
			}
			info, err := entry.Info()
			if err != nil || !info.ModTime().Before(cutoff) {
				continue
			}

			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				lastErr = fmt.Errorf("failed to remove %s: %w", path, err)
				j.logger.Warn("Failed to remove expired file", zap.String("path", path), zap.Error(err))
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		j.logger.Info("Removed expired files",
			zap.Int("count", removed),
			zap.Duration("ttl", j.ttl))
	}

	return removed, lastErr
}

package media

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Sweeper deletes artifacts older than the retention window. It works purely
// on file modification times and ignores job state, so files from jobs whose
// client never called cleanup still get reclaimed.
type Sweeper struct {
	Dir       string
	Retention time.Duration
}

// Sweep removes every file in Dir whose mtime is older than the retention
// window, returning how many files were deleted.
func (s *Sweeper) Sweep(now time.Time) (int, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	cutoff := now.Add(-s.Retention)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.Dir, e.Name())); err != nil {
				slog.Warn("sweep: remove failed", "file", e.Name(), "error", err)
				continue
			}
			removed++
		}
	}
	return removed, nil
}

// Start runs one sweep immediately and then one per interval until ctx is
// cancelled.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	go func() {
		s.sweepOnce()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweepOnce()
			}
		}
	}()
}

func (s *Sweeper) sweepOnce() {
	removed, err := s.Sweep(time.Now())
	if err != nil {
		slog.Warn("sweep failed", "dir", s.Dir, "error", err)
		return
	}
	if removed > 0 {
		slog.Info("swept stale artifacts", "dir", s.Dir, "removed", removed)
	}
}

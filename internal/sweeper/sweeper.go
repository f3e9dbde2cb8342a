// Package sweeper reclaims disk space from the shared working directories
// by deleting files that have aged past their root's retention threshold.
// It runs independently of request-driven work: the only coordination with
// in-flight extractions is the conservative age threshold itself, which
// keeps any file younger than the longest plausible request well out of
// reach. Concurrent sweepers on the same storage (two processes sharing a
// volume) are serialised per root with an advisory lock file.
package sweeper

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"

	"github.com/figserve/figserve/internal/config"
)

// lockFileName is the advisory lock taken inside each root for the duration
// of a pass. It is never a deletion candidate.
const lockFileName = ".sweep.lock"

// SweepStats reports what one pass over one root removed.
type SweepStats struct {
	Removed int
	Bytes   int64
}

// Sweeper deletes aged files from its configured roots on each root's own
// interval.
type Sweeper struct {
	roots  []config.Retention
	logger *logrus.Logger
}

// New builds a Sweeper for the given roots.
func New(logger *logrus.Logger, roots ...config.Retention) *Sweeper {
	return &Sweeper{roots: roots, logger: logger}
}

// Run starts one sweep loop per root and blocks until ctx is cancelled. In
// normal operation the context lives as long as the process; the sweeper is
// started once at initialisation and never explicitly stopped.
func (s *Sweeper) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, root := range s.roots {
		wg.Add(1)
		go func(root config.Retention) {
			defer wg.Done()
			s.loop(ctx, root)
		}(root)
	}
	wg.Wait()
}

func (s *Sweeper) loop(ctx context.Context, root config.Retention) {
	s.logger.WithFields(logrus.Fields{
		"dir":      root.Dir,
		"max_age":  root.MaxAge,
		"interval": root.SweepInterval,
	}).Info("Sweep loop started")

	ticker := time.NewTicker(root.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepRoot(root)
		}
	}
}

// SweepRoot performs one pass over a single root: every direct child that is
// a regular file older than the retention threshold is deleted. A failed
// delete is logged and the pass continues with the remaining files. A
// missing root directory is a no-op.
func (s *Sweeper) SweepRoot(root config.Retention) SweepStats {
	log := s.logger.WithField("dir", root.Dir)

	if _, err := os.Stat(root.Dir); os.IsNotExist(err) {
		log.Warn("Sweep skipped, directory does not exist")
		return SweepStats{}
	}

	lock := flock.New(filepath.Join(root.Dir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		log.WithError(err).Warn("Sweep skipped, could not acquire lock")
		return SweepStats{}
	}
	if !locked {
		log.Debug("Sweep skipped, another pass holds the lock")
		return SweepStats{}
	}
	defer func() { _ = lock.Unlock() }()

	entries, err := os.ReadDir(root.Dir)
	if err != nil {
		log.WithError(err).Error("Sweep failed to list directory")
		return SweepStats{}
	}

	cutoff := time.Now().Add(-root.MaxAge)
	var stats SweepStats

	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == lockFileName {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			log.WithError(err).WithField("file", entry.Name()).Warn("Failed to stat file during sweep")
			continue
		}
		if !info.Mode().IsRegular() || !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(root.Dir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.WithError(err).WithField("file", entry.Name()).Error("Failed to delete aged file")
			continue
		}
		stats.Removed++
		stats.Bytes += info.Size()
		log.WithField("file", entry.Name()).Debug("Deleted aged file")
	}

	if stats.Removed > 0 {
		log.WithFields(logrus.Fields{
			"removed": stats.Removed,
			"mb":      float64(stats.Bytes) / (1024 * 1024),
		}).Info("Sweep pass completed")
	} else {
		log.Debug("Sweep pass completed, nothing to delete")
	}

	return stats
}

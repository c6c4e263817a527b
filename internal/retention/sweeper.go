// Package retention removes aged uploads and artifacts from the ephemeral stores.
package retention

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dss-visualizer/backend/internal/storage"
	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/labstack/gommon/log"
)

// LockFileName is created in the data directory while a sweep runs.
const LockFileName = ".sweep.lock"

// ErrSweepInProgress is returned when another process holds the sweep lock.
var ErrSweepInProgress = errors.New("another sweep is in progress")

// Report summarizes one sweep.
type Report struct {
	Scanned int
	Removed int
	Bytes   int64
	Errors  []error
}

// Sweeper deletes files older than MaxAge from a set of stores.
type Sweeper struct {
	stores []storage.Store
	maxAge time.Duration
	lock   *flock.Flock
	log    *log.Logger
}

// NewSweeper creates a sweeper whose lock file lives in lockDir.
func NewSweeper(lockDir string, maxAge time.Duration, logger *log.Logger, stores ...storage.Store) *Sweeper {
	return &Sweeper{
		stores: stores,
		maxAge: maxAge,
		lock:   flock.New(filepath.Join(lockDir, LockFileName)),
		log:    logger,
	}
}

// Sweep removes every file last modified before now-maxAge.
func (s *Sweeper) Sweep(now time.Time) (*Report, error) {
	if s.maxAge <= 0 {
		return nil, fmt.Errorf("invalid max age %v", s.maxAge)
	}

	locked, err := s.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring sweep lock: %w", err)
	}
	if !locked {
		return nil, ErrSweepInProgress
	}
	defer s.lock.Unlock()

	cutoff := now.Add(-s.maxAge)
	report := &Report{}
	for _, store := range s.stores {
		files, err := store.List()
		if err != nil {
			report.Errors = append(report.Errors, err)
			continue
		}
		for _, f := range files {
			report.Scanned++
			if !f.ModifiedAt.Before(cutoff) {
				continue
			}
			if err := store.Remove(f.Name); err != nil {
				if !errors.Is(err, storage.ErrNotFound) {
					report.Errors = append(report.Errors, err)
				}
				continue
			}
			report.Removed++
			report.Bytes += f.Size
		}
	}

	s.log.Infof("sweep removed %d of %d files (%s) older than %s",
		report.Removed, report.Scanned, humanize.IBytes(uint64(report.Bytes)), humanize.Time(cutoff))
	for _, err := range report.Errors {
		s.log.Warnf("sweep error: %v", err)
	}
	return report, nil
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := s.Sweep(now); err != nil {
				s.log.Warnf("sweep skipped: %v", err)
			}
		}
	}
}

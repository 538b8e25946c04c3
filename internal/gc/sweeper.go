// Package gc reclaims orphaned lock entries left behind by dead holders.
package gc

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/pmxlock-project/pmxlock/internal/history"
	"github.com/pmxlock-project/pmxlock/internal/locking"
	"github.com/pmxlock-project/pmxlock/pkg/config"
	"github.com/pmxlock-project/pmxlock/pkg/logging"
	"github.com/pmxlock-project/pmxlock/pkg/model"
)

// Sweeper performs the staleness sweep over every lock name known to this
// host. A name's advisory lock file survives its holder, so the local lock
// directory enumerates every lock ever used here.
type Sweeper struct {
	cfg  *config.Config
	log  *logging.Logger
	hist *history.Appender
}

// NewSweeper creates a sweeper. hist may be nil to skip history records.
func NewSweeper(cfg *config.Config, log *logging.Logger, hist *history.Appender) *Sweeper {
	return &Sweeper{cfg: cfg, log: log, hist: hist}
}

// Sweep attempts a non-blocking acquire of every known lock name and
// immediately releases the ones it wins, clearing orphaned shared-store
// entries. Locks held by a live local process fail the non-blocking acquire
// and are left untouched. The sweep is idempotent and stateless; per-name
// failures are recorded and the pass continues.
func (s *Sweeper) Sweep() (*model.SweepReport, error) {
	started := time.Now()
	report := &model.SweepReport{StartedAt: started.UTC()}

	entries, err := os.ReadDir(s.cfg.LocalLockDir)
	if errors.Is(err, fs.ErrNotExist) {
		// no lock has ever been used on this host
		report.Duration = time.Since(started)
		return report, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list local locks: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		report.Scanned++

		if err := s.sweepOne(name); err != nil {
			if errors.Is(err, errBusy) {
				report.Busy = append(report.Busy, name)
				continue
			}
			s.log.ErrorErr("sweep failed", err, map[string]any{"lock": name})
			report.Failed = append(report.Failed, model.SweepError{Name: name, Error: err.Error()})
			continue
		}

		report.Reclaimed = append(report.Reclaimed, name)
		s.log.Info("reclaimed lock entry", map[string]any{"lock": name})
		s.record(name)
	}

	report.Duration = time.Since(started)
	return report, nil
}

var errBusy = errors.New("lock busy")

func (s *Sweeper) sweepOne(name string) error {
	cl, err := locking.NewClusterLock(s.cfg, name)
	if err != nil {
		return err
	}
	ok, err := cl.Acquire(false, 0)
	if err != nil {
		return err
	}
	if !ok {
		return errBusy
	}
	return cl.Release()
}

func (s *Sweeper) record(name string) {
	if s.hist == nil {
		return
	}
	if err := s.hist.Append(model.EventSwept, name, "", nil); err != nil {
		s.log.Warn("history record failed", map[string]any{"lock": name, "error": err.Error()})
	}
}

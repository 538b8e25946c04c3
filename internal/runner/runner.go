// Package runner executes a child process while holding a cluster lock,
// refreshing the shared-store heartbeat for as long as the child runs.
package runner

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/pmxlock-project/pmxlock/internal/history"
	"github.com/pmxlock-project/pmxlock/internal/locking"
	"github.com/pmxlock-project/pmxlock/pkg/config"
	"github.com/pmxlock-project/pmxlock/pkg/errclass"
	"github.com/pmxlock-project/pmxlock/pkg/logging"
	"github.com/pmxlock-project/pmxlock/pkg/model"
	"github.com/pmxlock-project/pmxlock/pkg/uuidutil"
)

// ExitLockBusy is returned when the lock could not be acquired (EX_TEMPFAIL).
const ExitLockBusy = 75

// ExitFailure is returned when the run failed for any other reason.
const ExitFailure = 1

// Options control one run.
type Options struct {
	// Blocking selects between waiting for the lock and failing fast.
	Blocking bool
	// Timeout bounds a blocking acquisition; non-positive means no deadline.
	Timeout time.Duration
}

// Runner acquires a named cluster lock, runs a command under it, and keeps
// the heartbeat fresh until the command exits.
type Runner struct {
	cfg  *config.Config
	log  *logging.Logger
	hist *history.Appender
}

// New creates a runner. hist may be nil to skip history records.
func New(cfg *config.Config, log *logging.Logger, hist *history.Appender) *Runner {
	return &Runner{cfg: cfg, log: log, hist: hist}
}

// Run executes argv under the cluster lock for name and returns the child's
// exit code. The lock is released on every exit path. A refused acquisition
// returns ExitLockBusy with ErrLockBusy.
func (r *Runner) Run(name string, argv []string, opts Options) (int, error) {
	if len(argv) == 0 {
		return ExitFailure, fmt.Errorf("no command given")
	}

	cl, err := locking.NewClusterLock(r.cfg, name)
	if err != nil {
		return ExitFailure, err
	}

	runID := uuidutil.NewV4()
	log := r.log.WithFields(map[string]any{"lock": name, "run_id": runID})

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = locking.NoTimeout
	}
	if !opts.Blocking {
		timeout = 0
	}

	ok, err := cl.Acquire(opts.Blocking, timeout)
	if err != nil {
		return ExitFailure, err
	}
	if !ok {
		r.record(model.EventBusy, name, runID, nil)
		return ExitLockBusy, errclass.ErrLockBusy.WithMessagef("lock %s is held elsewhere", name)
	}
	log.Info("lock acquired")
	r.record(model.EventAcquired, name, runID, map[string]any{"command": argv[0]})

	code, runErr := r.supervise(cl, log, name, runID, argv)

	if rerr := cl.Release(); rerr != nil {
		log.ErrorErr("release failed", rerr)
		if runErr == nil {
			runErr = rerr
		}
	} else {
		log.Info("lock released")
	}
	r.record(model.EventReleased, name, runID, map[string]any{"exit_code": code})

	return code, runErr
}

// supervise runs the child and heartbeats until it exits. A failed heartbeat
// means this process can no longer assert it holds the lock, so the child is
// terminated and the failure propagates.
func (r *Runner) supervise(cl *locking.ClusterLock, log *logging.Logger, name, runID string, argv []string) (int, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return ExitFailure, fmt.Errorf("start command: %w", err)
	}
	log.Debug("command started", map[string]any{"pid": cmd.Process.Pid})

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	ticker := time.NewTicker(r.cfg.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case waitErr := <-done:
			return exitCode(cmd, waitErr)

		case <-ticker.C:
			if uerr := cl.Update(); uerr != nil {
				log.ErrorErr("heartbeat lost, terminating command", uerr)
				r.record(model.EventHeartbeatLost, name, runID, nil)
				cmd.Process.Signal(syscall.SIGTERM)
				<-done
				return ExitFailure, uerr
			}
			log.Debug("heartbeat refreshed")
		}
	}
}

// exitCode maps the child's wait outcome to an exit code. A non-zero exit is
// the child's business, not a runner failure.
func exitCode(cmd *exec.Cmd, waitErr error) (int, error) {
	if waitErr == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return cmd.ProcessState.ExitCode(), nil
	}
	return ExitFailure, fmt.Errorf("wait for command: %w", waitErr)
}

func (r *Runner) record(event model.HistoryEventType, name, runID string, details map[string]any) {
	if r.hist == nil {
		return
	}
	if err := r.hist.Append(event, name, runID, details); err != nil {
		r.log.Warn("history record failed", map[string]any{"lock": name, "error": err.Error()})
	}
}

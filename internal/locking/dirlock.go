package locking

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/pmxlock-project/pmxlock/pkg/errclass"
)

var epoch = time.Unix(0, 0)

// DirLock is a mutual-exclusion entry in the shared directory store.
// Existence of the directory means some process holds the lock. Its
// modification time doubles as a heartbeat (recent timestamp: actively held)
// and as a preemption signal (timestamp at the epoch origin: treat as
// abandoned). Directory creation is the only operation the store guarantees
// atomic, so it is the sole acquisition primitive.
type DirLock struct {
	path string
}

// NewDirLock creates a directory lock at path in the shared store.
func NewDirLock(path string) *DirLock {
	return &DirLock{path: path}
}

// Path returns the shared-store entry path.
func (d *DirLock) Path() string {
	return d.path
}

// RequestUnlock rewrites the entry's modification time to the epoch origin,
// asking the store's staleness handling (or a later contender) to treat the
// entry as abandoned. It is a cooperative hint, never a guarantee: the entry
// may legitimately not exist yet or belong to another principal, so missing
// entries and permission failures are ignored.
func (d *DirLock) RequestUnlock() error {
	err := os.Chtimes(d.path, epoch, epoch)
	if err == nil || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return nil
	}
	return fmt.Errorf("request unlock %s: %w", d.path, err)
}

// TryAcquire sends the preemption hint, then races on atomic directory
// creation. "Already exists" and "permission denied" both mean busy.
func (d *DirLock) TryAcquire() (bool, error) {
	if err := d.RequestUnlock(); err != nil {
		return false, err
	}
	err := os.Mkdir(d.path, 0755)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrExist) || errors.Is(err, fs.ErrPermission) {
		return false, nil
	}
	return false, fmt.Errorf("create lock dir %s: %w", d.path, err)
}

// Acquire acquires the directory lock per the Lock contract.
func (d *DirLock) Acquire(blocking bool, timeout time.Duration) (bool, error) {
	return acquire(d, blocking, timeout)
}

// Update refreshes the heartbeat timestamp to now. A failed refresh means
// the caller can no longer assert it still holds the lock, so the error
// always propagates.
func (d *DirLock) Update() error {
	now := time.Now()
	if err := os.Chtimes(d.path, now, now); err != nil {
		return errclass.ErrHeartbeatLost.Wrap(err)
	}
	return nil
}

// Release removes the directory entry. It fails loudly if the entry no
// longer exists.
func (d *DirLock) Release() error {
	if err := os.Remove(d.path); err != nil {
		return fmt.Errorf("remove lock dir %s: %w", d.path, err)
	}
	return nil
}

// Locked reports whether the entry is currently held.
func (d *DirLock) Locked() (bool, error) {
	return probe(d)
}

package locking

import (
	"errors"
	"io/fs"
	"time"
)

// RecoverableLock wraps a DirLock with a fast re-acquire path: a process that
// very recently held the same named lock and is re-entering quickly can skip
// the creation race if the entry still exists and is writable by it.
//
// The shortcut does not verify that this process is the entry's rightful
// owner, only that the heartbeat write succeeded under current permissions.
// It is safe only while distinct principals never share write permission to
// the same entry concurrently.
type RecoverableLock struct {
	dir *DirLock
}

// NewRecoverableLock wraps dir with the fast re-acquire path.
func NewRecoverableLock(dir *DirLock) *RecoverableLock {
	return &RecoverableLock{dir: dir}
}

// Acquire first tries a heartbeat refresh; success means the entry exists
// and is ours to write, so the lock is considered acquired immediately. Only
// a missing entry or a permission failure falls through to the full
// directory-lock protocol.
func (r *RecoverableLock) Acquire(blocking bool, timeout time.Duration) (bool, error) {
	err := r.dir.Update()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return r.dir.Acquire(blocking, timeout)
	}
	return false, err
}

// TryAcquire attempts immediate acquisition, fast path included.
func (r *RecoverableLock) TryAcquire() (bool, error) {
	return r.Acquire(false, 0)
}

// Update refreshes the heartbeat of the wrapped directory lock.
func (r *RecoverableLock) Update() error {
	return r.dir.Update()
}

// Release removes the wrapped directory entry.
func (r *RecoverableLock) Release() error {
	return r.dir.Release()
}

// Locked reports whether the entry is currently held.
func (r *RecoverableLock) Locked() (bool, error) {
	return probe(r)
}

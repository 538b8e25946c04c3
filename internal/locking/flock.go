package locking

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/pmxlock-project/pmxlock/pkg/errclass"
)

// FLock is a local advisory exclusive lock on a file. The lock is valid only
// as long as the descriptor that took it stays open in this process; closing
// it releases the lock as a side effect, including on process death.
type FLock struct {
	path string
	held *os.File
}

// NewFLock creates an advisory lock backed by the file at path. The file is
// created on first acquisition if absent.
func NewFLock(path string) *FLock {
	return &FLock{path: path}
}

// Path returns the backing file path.
func (l *FLock) Path() string {
	return l.path
}

func (l *FLock) open() (*os.File, error) {
	f, err := os.OpenFile(l.path, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", l.path, err)
	}
	return f, nil
}

// TryAcquire opens the backing file and attempts a non-blocking exclusive
// flock. The descriptor is kept only once the lock is obtained; on any other
// outcome it is closed before returning.
func (l *FLock) TryAcquire() (bool, error) {
	f, err := l.open()
	if err != nil {
		return false, err
	}
	ok, err := tryFlock(f)
	if !ok {
		f.Close()
		return false, err
	}
	l.held = f
	return true, nil
}

func tryFlock(f *os.File) (bool, error) {
	err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err == nil {
		return true, nil
	}
	// Older unices report EWOULDBLOCK distinctly from EAGAIN; treat both as
	// "held elsewhere".
	if errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, syscall.EAGAIN) {
		return false, nil
	}
	return false, fmt.Errorf("flock %s: %w", f.Name(), err)
}

// Acquire locks the file per the Lock contract. A blocking acquisition with
// no deadline uses a single blocking flock call instead of the polling loop.
func (l *FLock) Acquire(blocking bool, timeout time.Duration) (bool, error) {
	if timeout == 0 {
		blocking = false
	}
	if blocking && timeout <= 0 {
		f, err := l.open()
		if err != nil {
			return false, err
		}
		if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
			f.Close()
			return false, fmt.Errorf("flock %s: %w", l.path, err)
		}
		l.held = f
		return true, nil
	}
	return acquire(l, blocking, timeout)
}

// Release closes the held descriptor, which drops the OS lock. The lock file
// itself is left in place: its presence is what the staleness sweep
// enumerates.
func (l *FLock) Release() error {
	if l.held == nil {
		return errclass.ErrLockNotHeld.WithMessagef("flock %s is not held", l.path)
	}
	f := l.held
	l.held = nil
	if err := f.Close(); err != nil {
		return fmt.Errorf("close lock file %s: %w", l.path, err)
	}
	return nil
}

// Locked reports whether another holder currently has the file locked.
func (l *FLock) Locked() (bool, error) {
	return probe(l)
}

package locking

import (
	"time"
)

// NoTimeout disables the acquisition deadline.
const NoTimeout time.Duration = -1

// ExpiryThreshold is the staleness threshold the shared store is assumed to
// apply to lock entries. It is advisory: the core never enforces it.
const ExpiryThreshold = 120 * time.Second

// RefreshInterval is the recommended heartbeat cadence for holders of a
// long-lived lock: 80% of ExpiryThreshold.
const RefreshInterval = ExpiryThreshold / 10 * 8

// PollInterval is the retry cadence for blocking acquisitions. There is no
// jitter or backoff. Variable only so tests can compress time.
var PollInterval = time.Second

// Lock is the capability shared by every lock variant.
//
// Non-acquisition is reported as (false, nil); an error means the attempt
// itself failed and nothing was acquired.
type Lock interface {
	// TryAcquire attempts immediate acquisition and never blocks.
	TryAcquire() (bool, error)

	// Acquire attempts acquisition with the given mode. A timeout of zero
	// forces a single non-blocking attempt regardless of blocking; a
	// negative timeout (NoTimeout) means no deadline.
	Acquire(blocking bool, timeout time.Duration) (bool, error)

	// Release restores the resource to unheld state. Callers must not
	// invoke it without a matching successful acquisition.
	Release() error

	// Locked reports whether the lock is currently held elsewhere, without
	// changing its net held/unheld state.
	Locked() (bool, error)
}

// tryLocker is the single primitive the shared combinators drive.
type tryLocker interface {
	TryAcquire() (bool, error)
}

// acquireBlocking polls l until it succeeds, sleeping PollInterval between
// attempts. It only returns false alongside an error.
func acquireBlocking(l tryLocker) (bool, error) {
	for {
		ok, err := l.TryAcquire()
		if ok || err != nil {
			return ok, err
		}
		time.Sleep(PollInterval)
	}
}

// acquireTimeout polls like acquireBlocking but gives up once the wall-clock
// deadline, measured from loop entry, has passed. At least one attempt is
// always made.
func acquireTimeout(l tryLocker, timeout time.Duration) (bool, error) {
	start := time.Now()
	for {
		ok, err := l.TryAcquire()
		if ok || err != nil {
			return ok, err
		}
		if time.Since(start) > timeout {
			return false, nil
		}
		time.Sleep(PollInterval)
	}
}

// acquire is the shared acquisition combinator implementing the Acquire
// contract on top of a variant's TryAcquire.
func acquire(l tryLocker, blocking bool, timeout time.Duration) (bool, error) {
	if timeout == 0 {
		blocking = false
	}
	switch {
	case !blocking:
		return l.TryAcquire()
	case timeout > 0:
		return acquireTimeout(l, timeout)
	default:
		return acquireBlocking(l)
	}
}

// probe implements the side-effect-free Locked check shared by all variants:
// a successful non-blocking acquire is immediately undone.
func probe(l Lock) (bool, error) {
	ok, err := l.Acquire(false, 0)
	if err != nil {
		return false, err
	}
	if ok {
		if err := l.Release(); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// With acquires l with no deadline, runs fn while the lock is held, and
// releases on every exit path. A release failure surfaces only when fn
// itself succeeded.
func With(l Lock, fn func() error) (err error) {
	if _, err := l.Acquire(true, NoTimeout); err != nil {
		return err
	}
	defer func() {
		if rerr := l.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return fn()
}

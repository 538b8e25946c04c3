package locking

import (
	"errors"
	"time"
)

// Chain is an ordered composite of locks. Sub-locks are acquired strictly in
// declaration order and released strictly in reverse order; acquisition is
// all-or-nothing. A Chain is itself a Lock, so chains can nest.
type Chain struct {
	locks []Lock
}

// NewChain creates a chain over locks in acquisition order.
func NewChain(locks ...Lock) *Chain {
	return &Chain{locks: locks}
}

// remainingTimeout derives a sub-lock timeout from a single chain-level
// deadline. Non-positive timeouts pass through unchanged (no deadline
// shrinkage); positive timeouts shrink by the elapsed time and clamp at
// zero, which forces later stages non-blocking.
func remainingTimeout(start time.Time, timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return timeout
	}
	rem := timeout - time.Since(start)
	if rem < 0 {
		rem = 0
	}
	return rem
}

// releaseAll releases locks in reverse order. Every stage is attempted even
// if an earlier release fails; failures are joined.
func releaseAll(locks []Lock) error {
	var errs []error
	for i := len(locks) - 1; i >= 0; i-- {
		if err := locks[i].Release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Acquire acquires every sub-lock in order, handing each the time remaining
// from the single chain-level budget. If any stage reports busy or fails,
// all previously-acquired stages are rolled back in reverse order before the
// outcome is reported; no partial chain survives.
func (c *Chain) Acquire(blocking bool, timeout time.Duration) (bool, error) {
	start := time.Now()
	var acquired []Lock
	for _, l := range c.locks {
		ok, err := l.Acquire(blocking, remainingTimeout(start, timeout))
		if err != nil {
			if rerr := releaseAll(acquired); rerr != nil {
				return false, errors.Join(err, rerr)
			}
			return false, err
		}
		if !ok {
			if rerr := releaseAll(acquired); rerr != nil {
				return false, rerr
			}
			return false, nil
		}
		acquired = append(acquired, l)
	}
	return true, nil
}

// TryAcquire attempts a non-blocking acquisition of the whole chain.
func (c *Chain) TryAcquire() (bool, error) {
	return c.Acquire(false, 0)
}

// Release releases every sub-lock in reverse order unconditionally.
func (c *Chain) Release() error {
	return releaseAll(c.locks)
}

// Locked reports whether the composite is currently held.
func (c *Chain) Locked() (bool, error) {
	return probe(c)
}

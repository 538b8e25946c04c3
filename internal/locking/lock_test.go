package locking

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTry fails a fixed number of attempts before succeeding.
type fakeTry struct {
	failures int
	tries    int
	err      error
}

func (f *fakeTry) TryAcquire() (bool, error) {
	f.tries++
	if f.err != nil {
		return false, f.err
	}
	if f.tries <= f.failures {
		return false, nil
	}
	return true, nil
}

func shortPoll(t *testing.T) {
	t.Helper()
	old := PollInterval
	PollInterval = 5 * time.Millisecond
	t.Cleanup(func() { PollInterval = old })
}

func TestAcquire_ZeroTimeoutForcesNonblocking(t *testing.T) {
	f := &fakeTry{failures: 1000}

	ok, err := acquire(f, true, 0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, f.tries, "timeout 0 must make exactly one attempt")
}

func TestAcquire_NonblockingSingleAttempt(t *testing.T) {
	f := &fakeTry{failures: 1}
	ok, err := acquire(f, false, NoTimeout)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, f.tries)
}

func TestAcquire_BlockingRetriesUntilSuccess(t *testing.T) {
	shortPoll(t)
	f := &fakeTry{failures: 3}

	ok, err := acquire(f, true, NoTimeout)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, f.tries)
}

func TestAcquire_TimeoutExpires(t *testing.T) {
	shortPoll(t)
	f := &fakeTry{failures: 1000}

	start := time.Now()
	ok, err := acquire(f, true, 30*time.Millisecond)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, f.tries, 2, "should retry at least once before the deadline")
	// bounded by the timeout plus one polling interval of slack
	assert.Less(t, elapsed, 30*time.Millisecond+10*PollInterval)
}

func TestAcquire_TimeoutSucceedsBeforeDeadline(t *testing.T) {
	shortPoll(t)
	f := &fakeTry{failures: 2}

	ok, err := acquire(f, true, time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAcquire_ErrorPropagates(t *testing.T) {
	boom := errors.New("medium refused")
	f := &fakeTry{err: boom}

	_, err := acquire(f, true, NoTimeout)
	assert.ErrorIs(t, err, boom)
}

func TestRemainingTimeout_NonPositivePassesThrough(t *testing.T) {
	start := time.Now().Add(-time.Hour)
	assert.Equal(t, NoTimeout, remainingTimeout(start, NoTimeout))
	assert.Equal(t, time.Duration(0), remainingTimeout(start, 0))
}

func TestRemainingTimeout_ShrinksAndClamps(t *testing.T) {
	start := time.Now().Add(-60 * time.Millisecond)

	rem := remainingTimeout(start, 100*time.Millisecond)
	assert.Greater(t, rem, time.Duration(0))
	assert.Less(t, rem, 50*time.Millisecond)

	assert.Equal(t, time.Duration(0), remainingTimeout(start, 10*time.Millisecond))
}

func TestRefreshInterval_IsEightyPercentOfExpiry(t *testing.T) {
	assert.Equal(t, 96*time.Second, RefreshInterval)
}

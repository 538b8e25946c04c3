package locking_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pmxlock-project/pmxlock/internal/locking"
	"github.com/pmxlock-project/pmxlock/pkg/errclass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shortPoll(t *testing.T) {
	t.Helper()
	old := locking.PollInterval
	locking.PollInterval = 10 * time.Millisecond
	t.Cleanup(func() { locking.PollInterval = old })
}

func flockPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "alpha")
}

func TestFLock_TryAcquire_Exclusive(t *testing.T) {
	path := flockPath(t)
	a := locking.NewFLock(path)
	b := locking.NewFLock(path)

	ok, err := a.TryAcquire()
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = b.TryAcquire()
	require.NoError(t, err)
	assert.False(t, ok, "second holder must be refused immediately")

	require.NoError(t, a.Release())

	ok, err = b.TryAcquire()
	require.NoError(t, err)
	assert.True(t, ok, "lock must be acquirable after release")
	require.NoError(t, b.Release())
}

func TestFLock_CreatesBackingFile(t *testing.T) {
	path := flockPath(t)
	l := locking.NewFLock(path)

	ok, err := l.TryAcquire()
	require.NoError(t, err)
	require.True(t, ok)
	defer l.Release()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestFLock_Release_NotHeld(t *testing.T) {
	l := locking.NewFLock(flockPath(t))
	err := l.Release()
	assert.ErrorIs(t, err, errclass.ErrLockNotHeld)
}

func TestFLock_AcquireTimeout_Expires(t *testing.T) {
	shortPoll(t)
	path := flockPath(t)

	holder := locking.NewFLock(path)
	ok, err := holder.TryAcquire()
	require.NoError(t, err)
	require.True(t, ok)
	defer holder.Release()

	contender := locking.NewFLock(path)
	start := time.Now()
	ok, err = contender.Acquire(true, 50*time.Millisecond)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, time.Second)

	// holder is unaffected
	held, err := contender.Locked()
	require.NoError(t, err)
	assert.True(t, held)
}

func TestFLock_AcquireTimeout_WinsAfterRelease(t *testing.T) {
	shortPoll(t)
	path := flockPath(t)

	holder := locking.NewFLock(path)
	ok, err := holder.TryAcquire()
	require.NoError(t, err)
	require.True(t, ok)

	go func() {
		time.Sleep(40 * time.Millisecond)
		holder.Release()
	}()

	contender := locking.NewFLock(path)
	ok, err = contender.Acquire(true, time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, contender.Release())
}

func TestFLock_Locked_ProbeIsSideEffectFree(t *testing.T) {
	path := flockPath(t)
	l := locking.NewFLock(path)

	held, err := l.Locked()
	require.NoError(t, err)
	assert.False(t, held)

	// same answer twice in a row, and the lock is still acquirable
	held, err = l.Locked()
	require.NoError(t, err)
	assert.False(t, held)

	ok, err := l.TryAcquire()
	require.NoError(t, err)
	assert.True(t, ok)

	other := locking.NewFLock(path)
	held, err = other.Locked()
	require.NoError(t, err)
	assert.True(t, held)

	held, err = other.Locked()
	require.NoError(t, err)
	assert.True(t, held)

	require.NoError(t, l.Release())
}

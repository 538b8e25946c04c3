package locking

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pmxlock-project/pmxlock/pkg/config"
	"github.com/pmxlock-project/pmxlock/pkg/pathutil"
)

// Compile-time interface checks for every lock variant.
var (
	_ Lock = (*FLock)(nil)
	_ Lock = (*DirLock)(nil)
	_ Lock = (*RecoverableLock)(nil)
	_ Lock = (*Chain)(nil)
	_ Lock = (*ClusterLock)(nil)
)

// ClusterLock guards a named resource across the cluster. The local advisory
// lock is staged first because it is far cheaper than replicated I/O and
// filters out same-host contention instantly; only a process that wins
// locally pays the cost of contending on the shared store.
type ClusterLock struct {
	*Chain
	name   string
	local  *FLock
	shared *RecoverableLock
}

// NewClusterLock builds the two-stage lock for name, validating the name and
// ensuring the local lock directory exists. The shared lock directory is the
// external store's namespace and is never created here.
func NewClusterLock(cfg *config.Config, name string) (*ClusterLock, error) {
	if err := pathutil.ValidateLockName(name); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.LocalLockDir, 0755); err != nil {
		return nil, fmt.Errorf("create local lock dir: %w", err)
	}

	local := NewFLock(filepath.Join(cfg.LocalLockDir, name))
	shared := NewRecoverableLock(NewDirLock(filepath.Join(cfg.SharedLockDir, name)))

	return &ClusterLock{
		Chain:  NewChain(local, shared),
		name:   name,
		local:  local,
		shared: shared,
	}, nil
}

// Name returns the lock name.
func (c *ClusterLock) Name() string {
	return c.name
}

// Update refreshes the shared-store heartbeat. Holders of a long-lived lock
// must call this at an interval shorter than the store's staleness threshold
// (RefreshInterval is the recommended cadence).
func (c *ClusterLock) Update() error {
	return c.shared.Update()
}

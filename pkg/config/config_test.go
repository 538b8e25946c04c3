package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pmxlock-project/pmxlock/pkg/config"
	"github.com/pmxlock-project/pmxlock/pkg/errclass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, "/run/lock/pmxlock", cfg.LocalLockDir)
	assert.Equal(t, "/etc/pve/priv/lock", cfg.SharedLockDir)
	assert.Equal(t, 120*time.Second, cfg.Expiry())
	assert.Equal(t, 96*time.Second, cfg.RefreshInterval())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("shared_lock_dir: /mnt/cluster/lock\nexpiry_threshold: 60s\n"), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/mnt/cluster/lock", cfg.SharedLockDir)
	assert.Equal(t, 60*time.Second, cfg.Expiry())
	assert.Equal(t, 48*time.Second, cfg.RefreshInterval())
	// untouched fields keep defaults
	assert.Equal(t, "/run/lock/pmxlock", cfg.LocalLockDir)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0644))

	_, err := config.Load(path)
	assert.ErrorIs(t, err, errclass.ErrConfigInvalid)
}

func TestLoad_InvalidExpiry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("expiry_threshold: soon\n"), 0644))

	_, err := config.Load(path)
	assert.ErrorIs(t, err, errclass.ErrConfigInvalid)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := config.Default()
	cfg.SharedLockDir = "/mnt/pve/lock"
	cfg.Logging.Level = "debug"
	require.NoError(t, config.Save(path, cfg))

	got, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

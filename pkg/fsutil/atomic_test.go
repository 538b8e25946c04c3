package fsutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pmxlock-project/pmxlock/pkg/fsutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")

	require.NoError(t, fsutil.AtomicWrite(path, []byte("a: 1\n"), 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a: 1\n", string(data))
}

func TestAtomicWrite_Overwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")

	require.NoError(t, fsutil.AtomicWrite(path, []byte("old"), 0644))
	require.NoError(t, fsutil.AtomicWrite(path, []byte("new"), 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestAtomicWrite_NoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, fsutil.AtomicWrite(filepath.Join(dir, "out"), []byte("x"), 0644))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

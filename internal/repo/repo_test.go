package repo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x: y\n"), 0644))
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "accord.yaml"))
	touch(t, filepath.Join(dir, "groups", "engineers.yaml"))
	touch(t, filepath.Join(dir, "roles", "admin.yml"))
	touch(t, filepath.Join(dir, "README.md"))
	touch(t, filepath.Join(dir, ".git", "config.yaml"))
	touch(t, filepath.Join(dir, ".accord", "apply.lock"))

	paths, err := Discover(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "groups", "engineers.yaml"),
		filepath.Join(dir, "roles", "admin.yml"),
	}, paths)
}

func TestDiscover_MissingRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nosuch"))
	assert.Error(t, err)
}

func TestLock_AcquireAndRelease(t *testing.T) {
	dir := t.TempDir()

	l, err := Acquire(dir)
	require.NoError(t, err)

	// A second acquire fails while the lock is held.
	_, err = Acquire(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")

	require.NoError(t, l.Release())
	l2, err := Acquire(dir)
	require.NoError(t, err)
	require.NoError(t, l2.Release())

	// Releasing twice is harmless.
	assert.NoError(t, l2.Release())
}

func TestLock_StaleLockRemoved(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, ".accord", "apply.lock")
	touch(t, lockPath)
	old := time.Now().Add(-lockStaleAfter - time.Minute)
	require.NoError(t, os.Chtimes(lockPath, old, old))

	l, err := Acquire(dir)
	require.NoError(t, err)
	require.NoError(t, l.Release())
}

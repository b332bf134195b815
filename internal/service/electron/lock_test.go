package electron

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestStageLock excludes a second owner until release.
func TestStageLock(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "linux-x64-unpacked")
	alive := func(int) bool { return true }

	lock, err := AcquireStageLock(context.Background(), out, alive)
	require.NoError(t, err)
	require.Equal(t, out+lockSuffix, lock.Path())

	contents, err := os.ReadFile(lock.Path())
	require.NoError(t, err)
	require.Equal(t, strconv.Itoa(os.Getpid()), string(contents))

	_, err = AcquireStageLock(context.Background(), out, alive)
	require.ErrorIs(t, err, ErrStageBusy)

	require.NoError(t, lock.Release())
	require.NoError(t, lock.Release())

	lock, err = AcquireStageLock(context.Background(), out, alive)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
}

// TestStageLockReclaimsStale takes over locks whose owner is gone.
func TestStageLockReclaimsStale(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "out")
	writeFile(t, LockPath(out), "424242")

	lock, err := AcquireStageLock(context.Background(), out, func(pid int) bool { return pid != 424242 })
	require.NoError(t, err)
	require.NoError(t, lock.Release())

	// An unreadable lock is trusted while it is fresh.
	writeFile(t, LockPath(out), "garbage")

	_, err = AcquireStageLock(context.Background(), out, func(int) bool { return true })
	require.ErrorIs(t, err, ErrStageBusy)

	old := time.Now().Add(-2 * lockLifetime)
	require.NoError(t, os.Chtimes(LockPath(out), old, old))

	lock, err = AcquireStageLock(context.Background(), out, func(int) bool { return true })
	require.NoError(t, err)
	require.NoError(t, lock.Release())
}

// TestProcessAlive finds the test process in the process table.
func TestProcessAlive(t *testing.T) {
	t.Parallel()

	require.True(t, processAlive(os.Getpid()))
}

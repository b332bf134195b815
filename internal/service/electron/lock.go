package electron

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/electron-stager/internal/logger"
)

const (
	// lockSuffix is appended to appOutDir to name its lock file.
	lockSuffix = ".stage.lock"
	// lockLifetime is how long an unreadable lock is trusted before it counts as stale.
	lockLifetime = 30 * time.Second
	// lockAttempts bounds stale lock reclaiming.
	lockAttempts = 3
)

// ProcessAlive reports whether a process with pid is running.
type ProcessAlive func(pid int) bool

// processAlive looks pid up in the process table.
func processAlive(pid int) bool {
	process, err := ps.FindProcess(pid)
	if err != nil {
		// Assume the owner lives when the table cannot be read.
		return true
	}

	return process != nil
}

// StageLock gives one preparation exclusive ownership of an appOutDir.
type StageLock struct {
	path string
}

// LockPath returns the lock file guarding appOutDir.
func LockPath(appOutDir string) string {
	return filepath.Clean(appOutDir) + lockSuffix
}

// AcquireStageLock creates <appOutDir>.stage.lock holding the current PID.
// A lock owned by a live process fails with ErrStageBusy, a lock whose
// owner is gone is reclaimed. A nil alive uses the process table.
func AcquireStageLock(ctx context.Context, appOutDir string, alive ProcessAlive) (*StageLock, error) {
	if alive == nil {
		alive = processAlive
	}

	path := LockPath(appOutDir)
	if err := os.MkdirAll(filepath.Dir(path), defaultDirMode); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	for range lockAttempts {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			_, err = file.WriteString(strconv.Itoa(os.Getpid()))
			if closeErr := file.Close(); err == nil {
				err = closeErr
			}

			if err != nil {
				_ = os.Remove(path)
				return nil, fmt.Errorf("write lock %s: %w", path, err)
			}

			return &StageLock{path: path}, nil
		}

		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("create lock %s: %w", path, err)
		}

		if !isStale(ctx, path, alive) {
			return nil, fmt.Errorf("%w: %s", ErrStageBusy, path)
		}

		logger.InfoKV(ctx, "Reclaiming stale stage lock", "lock", path)

		if err = os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("remove stale lock %s: %w", path, err)
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrStageBusy, path)
}

// isStale reports whether the lock owner is gone. An unreadable or
// half-written lock is trusted for lockLifetime.
func isStale(ctx context.Context, path string, alive ProcessAlive) bool {
	contents, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, fs.ErrNotExist) {
		return true
	}

	if err == nil {
		pid, parseErr := strconv.Atoi(strings.TrimSpace(string(contents)))
		if parseErr == nil && pid > 0 {
			return !alive(pid)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return errors.Is(err, fs.ErrNotExist)
	}

	age := time.Since(info.ModTime())
	logger.DebugKV(ctx, "Stage lock has no readable owner", "lock", path, "age", age)

	return age > lockLifetime
}

// Path returns the lock file path.
func (l *StageLock) Path() string {
	return l.path
}

// Release removes the lock file.
func (l *StageLock) Release() error {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}

	return nil
}

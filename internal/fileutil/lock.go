package fileutil

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
)

// lockRetryInterval is the delay between attempts to take a busy lock.
const lockRetryInterval = 50 * time.Millisecond

// LockSuffix is appended to a path to form the name of its lock file.
const LockSuffix = ".lock"

// Lock takes an exclusive advisory lock on path+LockSuffix, retrying until
// it succeeds or ctx is done. Parent directories are created as needed.
func Lock(ctx context.Context, path string) (*flock.Flock, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	lockPath := path + LockSuffix
	if err := EnsureDirForFile(lockPath); err != nil {
		return nil, err
	}

	fl := flock.New(lockPath)
	locked, err := fl.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("acquire file lock %s: %w", lockPath, err)
	}
	if !locked {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("acquire file lock %s: %w", lockPath, ctx.Err())
		}
		return nil, fmt.Errorf("acquire file lock %s: lock not acquired", lockPath)
	}
	return fl, nil
}

// Unlock releases a lock taken with Lock. The lock file stays on disk so a
// concurrent holder's lock is never invalidated by its removal. Errors are
// logged at debug level only.
func Unlock(logger *slog.Logger, fl *flock.Flock) {
	if fl == nil {
		return
	}
	if err := fl.Close(); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Debug("failed to release file lock", "path", fl.Path(), "error", err)
	}
}

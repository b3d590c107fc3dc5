// Package locks keeps two weave processes from building the same workspace at once.
package locks

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/weavebuild/weave/internal/errors"
	"github.com/weavebuild/weave/pkg/log"
)

const (
	// LockFileName is created in the workspace directory.
	LockFileName = ".weave.lock"

	DefaultRetryDelay = 500 * time.Millisecond
)

// WorkspaceLock is an advisory lock file in a workspace directory.
type WorkspaceLock struct {
	*flock.Flock
	retryDelay time.Duration
}

func NewWorkspaceLock(dir string) *WorkspaceLock {
	return &WorkspaceLock{
		Flock:      flock.New(filepath.Join(dir, LockFileName)),
		retryDelay: DefaultRetryDelay,
	}
}

// Acquire takes the lock. If another process holds it, Acquire fails right away unless wait
// is set, in which case it retries until ctx is done.
func (lock *WorkspaceLock) Acquire(ctx context.Context, l log.Logger, wait bool) error {
	locked, err := lock.TryLock()
	if err != nil {
		return errors.New(err)
	}

	if locked {
		l.Tracef("Locked %s", lock.Path())
		return nil
	}

	if !wait {
		return errors.New(WorkspaceLockedError{Path: lock.Path()})
	}

	l.Infof("Waiting for another weave process to release %s", lock.Path())

	locked, err = lock.TryLockContext(ctx, lock.retryDelay)
	if err != nil {
		return errors.New(err)
	}

	if !locked {
		return errors.New(WorkspaceLockedError{Path: lock.Path()})
	}

	return nil
}

// Release unlocks the lock file. Failures are logged.
func (lock *WorkspaceLock) Release(l log.Logger) {
	if !lock.Locked() {
		return
	}

	if err := lock.Unlock(); err != nil {
		l.Warnf("Failed to release %s: %v", lock.Path(), err)
	}
}

// WithWorkspaceLock runs fn while holding the lock of the workspace in dir.
func WithWorkspaceLock(ctx context.Context, l log.Logger, dir string, wait bool, fn func() error) error {
	lock := NewWorkspaceLock(dir)

	if err := lock.Acquire(ctx, l, wait); err != nil {
		return err
	}

	defer lock.Release(l)

	return fn()
}

// WorkspaceLockedError is returned when another process holds the workspace lock.
type WorkspaceLockedError struct {
	Path string
}

func (err WorkspaceLockedError) Error() string {
	return fmt.Sprintf("workspace is locked by another weave process (remove %s if none is running)", err.Path)
}

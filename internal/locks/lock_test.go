package locks_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weavebuild/weave/internal/errors"
	"github.com/weavebuild/weave/internal/locks"
	"github.com/weavebuild/weave/test/helpers/logger"
)

func TestWithWorkspaceLock(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	l := logger.CreateLogger()

	called := false

	err := locks.WithWorkspaceLock(context.Background(), l, dir, false, func() error {
		called = true

		// a second lock on the same file does not get in
		other := locks.NewWorkspaceLock(dir)
		err := other.Acquire(context.Background(), l, false)

		var locked locks.WorkspaceLockedError
		assert.True(t, errors.As(err, &locked))

		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)

	lock := locks.NewWorkspaceLock(dir)
	require.NoError(t, lock.Acquire(context.Background(), l, false))
	lock.Release(l)
}

func TestWorkspaceLock_WaitHonoursContext(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	l := logger.CreateLogger()

	held := locks.NewWorkspaceLock(dir)
	require.NoError(t, held.Acquire(context.Background(), l, false))

	defer held.Release(l)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := locks.NewWorkspaceLock(dir).Acquire(ctx, l, true)
	require.Error(t, err)
}

func TestWithWorkspaceLock_ReturnsError(t *testing.T) {
	t.Parallel()

	err := locks.WithWorkspaceLock(context.Background(), logger.CreateLogger(), t.TempDir(), false, func() error {
		return errors.New("boom")
	})
	require.EqualError(t, err, "boom")
}

package worker_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/weavebuild/weave/internal/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weavebuild/weave/internal/errors"
)

func TestAllTasksCompleteWithoutErrors(t *testing.T) {
	t.Parallel()

	wp := worker.NewWorkerPool(5)
	defer wp.Stop()

	var counter int32

	for range 10 {
		wp.Submit(context.Background(), func(context.Context) error {
			atomic.AddInt32(&counter, 1)
			return nil
		})
	}

	require.NoError(t, wp.Wait())
	assert.Equal(t, int32(10), atomic.LoadInt32(&counter))
}

func TestSomeTasksReturnErrors(t *testing.T) {
	t.Parallel()

	wp := worker.NewWorkerPool(3)
	defer wp.Stop()

	var successCount int32

	for i := range 10 {
		wp.Submit(context.Background(), func(context.Context) error {
			if i%2 == 0 {
				return errors.New("mock error")
			}

			atomic.AddInt32(&successCount, 1)

			return nil
		})
	}

	err := wp.Wait()
	require.Error(t, err)

	var multiErr *errors.MultiError
	require.True(t, errors.As(err, &multiErr))
	assert.Equal(t, 5, multiErr.Len())
	assert.Equal(t, int32(5), atomic.LoadInt32(&successCount))
}

func TestConcurrencyIsBounded(t *testing.T) {
	t.Parallel()

	wp := worker.NewWorkerPool(2)

	var running, peak atomic.Int32

	for range 8 {
		wp.Submit(context.Background(), func(context.Context) error {
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}

			time.Sleep(5 * time.Millisecond)
			running.Add(-1)

			return nil
		})
	}

	require.NoError(t, wp.GracefulStop())
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestCancelledTasksDoNotRun(t *testing.T) {
	t.Parallel()

	wp := worker.NewWorkerPool(1)

	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})

	var ran atomic.Int32

	wp.Submit(ctx, func(context.Context) error {
		<-release
		return nil
	})

	// wait for the first task to hold the only slot
	require.Eventually(t, func() bool { return wp.Running() == 1 }, time.Second, time.Millisecond)

	wp.Submit(ctx, func(context.Context) error {
		ran.Add(1)
		return nil
	})

	cancel()
	close(release)

	err := wp.Wait()
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), ran.Load())
}

func TestStopRejectsNewTasks(t *testing.T) {
	t.Parallel()

	wp := worker.NewWorkerPool(2)
	wp.Stop()

	var counter int32

	wp.Submit(context.Background(), func(context.Context) error {
		atomic.AddInt32(&counter, 1)
		return nil
	})

	require.NoError(t, wp.Wait())
	assert.True(t, wp.IsStopping())
	assert.Equal(t, int32(0), atomic.LoadInt32(&counter))
}

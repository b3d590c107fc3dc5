// Package worker runs build tasks on a bounded number of goroutines.
//
// Every submitted task gets its own goroutine, but only MaxWorkers of them run at once.
// Errors returned by tasks are collected and handed back by Wait.
package worker

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/weavebuild/weave/internal/errors"
	"golang.org/x/sync/semaphore"
)

// Task is a unit of work. It receives the context the pool was submitted with.
type Task func(ctx context.Context) error

// Pool manages concurrent task execution with a configurable number of workers.
type Pool struct {
	semaphore   *semaphore.Weighted
	allErrors   *errors.MultiError
	wg          sync.WaitGroup
	maxWorkers  int
	allErrorsMu sync.Mutex
	running     atomic.Int64
	isStopping  atomic.Bool
}

// NewWorkerPool creates a pool running at most maxWorkers tasks at once.
func NewWorkerPool(maxWorkers int) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}

	return &Pool{
		maxWorkers: maxWorkers,
		semaphore:  semaphore.NewWeighted(int64(maxWorkers)),
		allErrors:  &errors.MultiError{},
	}
}

// MaxWorkers returns the pool size.
func (wp *Pool) MaxWorkers() int {
	return wp.maxWorkers
}

// Running returns the number of tasks currently holding a worker slot.
func (wp *Pool) Running() int {
	return int(wp.running.Load())
}

func (wp *Pool) appendError(err error) {
	if err == nil {
		return
	}

	wp.allErrorsMu.Lock()
	wp.allErrors = wp.allErrors.Append(err)
	wp.allErrorsMu.Unlock()
}

// Submit starts the task as soon as a worker slot is free. A task still waiting for a slot when
// ctx is done does not run; the context error is collected instead. Tasks submitted after Stop
// are dropped.
func (wp *Pool) Submit(ctx context.Context, task Task) {
	if wp.isStopping.Load() {
		return
	}

	wp.wg.Add(1)

	go func() {
		defer wp.wg.Done()

		if err := wp.semaphore.Acquire(ctx, 1); err != nil {
			wp.appendError(errors.New(err))
			return
		}

		wp.running.Add(1)

		defer func() {
			wp.running.Add(-1)
			wp.semaphore.Release(1)
		}()

		wp.appendError(task(ctx))
	}()
}

// Wait blocks until every submitted task is done and returns the collected errors.
func (wp *Pool) Wait() error {
	wp.wg.Wait()

	wp.allErrorsMu.Lock()
	defer wp.allErrorsMu.Unlock()

	return wp.allErrors.ErrorOrNil()
}

// Stop rejects new tasks. Tasks already submitted keep running.
func (wp *Pool) Stop() {
	wp.isStopping.Store(true)
}

// GracefulStop rejects new tasks and waits for the submitted ones.
func (wp *Pool) GracefulStop() error {
	wp.Stop()
	return wp.Wait()
}

// IsStopping returns whether the pool rejects new tasks.
func (wp *Pool) IsStopping() bool {
	return wp.isStopping.Load()
}

// Package tasks runs storage mutations in the background on a bounded pool.
//
// A submitted function runs detached from the caller's cancellation: the
// caller may go away, the work still completes. Each submission returns a
// Task handle whose Wait lets a caller (typically a test) await completion.
package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/logging"
	"golang.org/x/sync/errgroup"
)

// Runner is a bounded worker pool.
type Runner struct {
	mu     sync.RWMutex
	closed bool
	group  errgroup.Group
	logger logging.Logger
}

// NewRunner returns a runner executing at most workers functions at once.
func NewRunner(workers int, logger logging.Logger) *Runner {
	if workers <= 0 {
		workers = 1
	}
	r := &Runner{logger: logger}
	r.group.SetLimit(workers)
	return r
}

// Task is the handle of one submitted function.
type Task[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Done is closed when the function has returned.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the function returns or ctx ends. A cancelled ctx does
// not cancel the function.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.value, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Submit schedules fn on r and returns immediately unless every worker is
// busy, in which case it blocks until a slot frees up. fn receives a context
// carrying ctx's values but not its cancellation. On a closed runner the
// returned task has already failed with common.ErrClosed.
func Submit[T any](ctx context.Context, r *Runner, name string, fn func(ctx context.Context) (T, error)) *Task[T] {
	t := &Task[T]{done: make(chan struct{})}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		t.err = fmt.Errorf("task %s: %w", name, common.ErrClosed)
		close(t.done)
		return t
	}

	detached := context.WithoutCancel(ctx)
	r.group.Go(func() error {
		defer close(t.done)
		t.value, t.err = fn(detached)
		if t.err != nil {
			r.logger.Error(detached, "background task failed", "task", name, "error", t.err)
		}
		return nil
	})
	return t
}

// Close rejects further submissions and waits for running and queued tasks,
// or until ctx ends.
func (r *Runner) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = r.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for background tasks: %w", ctx.Err())
	}
}

package sequencer

import (
	"context"
	"errors"
)

// Executor is a per-key handle minted by a Factory. Submissions through any
// handle for the same key serialize with each other. Lifecycle operations on
// the shared pool are rejected; only Factory.Close stops execution.
type Executor struct {
	factory *Factory
	key     any
}

// Key returns the sequence key this handle submits under.
func (e *Executor) Key() any { return e.key }

// Execute submits a side-effecting task fire-and-forget. The returned error
// covers only submission; the task's result and failure are not returned to
// the caller.
func (e *Executor) Execute(ctx context.Context, task Task) error {
	_, err := e.factory.submit(ctx, e.key, task)
	return err
}

// Submit submits a result-bearing task and returns its future.
func (e *Executor) Submit(ctx context.Context, task Task) (*Future, error) {
	return e.factory.submit(ctx, e.key, task)
}

// InvokeAll submits every task under this handle's key and waits for all of
// them to complete. Tasks run in submission order, one at a time, like any
// other work in the lane. On ctx expiry the futures are returned alongside
// the context error; the tasks keep running.
func (e *Executor) InvokeAll(ctx context.Context, tasks []Task) ([]*Future, error) {
	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}
	futures := make([]*Future, 0, len(tasks))
	for _, task := range tasks {
		fut, err := e.factory.submit(ctx, e.key, task)
		if err != nil {
			return futures, err
		}
		futures = append(futures, fut)
	}
	// The lane is FIFO, so waiting on the last future suffices; waiting on
	// each keeps ctx expiry prompt.
	for _, fut := range futures {
		if _, err := fut.Wait(ctx); err != nil && errors.Is(err, ctx.Err()) {
			return futures, err
		}
	}
	return futures, nil
}

// InvokeAny submits every task under this handle's key and returns the
// result of the first one that completes successfully. If every task fails,
// the joined failures are returned.
func (e *Executor) InvokeAny(ctx context.Context, tasks []Task) (any, error) {
	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}
	futures := make([]*Future, 0, len(tasks))
	for _, task := range tasks {
		fut, err := e.factory.submit(ctx, e.key, task)
		if err != nil {
			return nil, err
		}
		futures = append(futures, fut)
	}

	// Completion order equals submission order within a lane, so scanning in
	// order observes the earliest success first.
	failures := make([]error, 0, len(futures))
	for _, fut := range futures {
		value, err := fut.Wait(ctx)
		if err == nil {
			return value, nil
		}
		if errors.Is(err, ctx.Err()) && ctx.Err() != nil {
			return nil, err
		}
		failures = append(failures, err)
	}
	return nil, errors.Join(failures...)
}

// Shutdown is rejected: the underlying pool may be running tasks for
// unrelated keys.
func (e *Executor) Shutdown() error { return ErrShutdownUnsupported }

// ShutdownNow is rejected for the same reason as Shutdown.
func (e *Executor) ShutdownNow() error { return ErrShutdownUnsupported }

// IsShutdown reports the owning factory's shutdown state.
func (e *Executor) IsShutdown() bool { return e.factory.IsShutdown() }

// IsTerminated reports the owning factory's terminated state.
func (e *Executor) IsTerminated() bool { return e.factory.IsTerminated() }

// AwaitTermination blocks until the owning factory terminates or ctx expires.
func (e *Executor) AwaitTermination(ctx context.Context) error {
	return e.factory.AwaitTermination(ctx)
}

package sequencer

import (
	"context"
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Task represents an asynchronous operation to be executed under a sequence
// key. The context passed to the task is the one supplied at submission time.
type Task func(ctx context.Context) (any, error)

// Future is the caller-visible handle for a submitted task. It resolves
// exactly once, either with the task's result or with its failure.
type Future struct {
	id    string
	done  chan struct{}
	value any
	err   error
	once  sync.Once
}

func newFuture() *Future {
	id, err := gonanoid.New(10)
	if err != nil {
		id = fmt.Sprintf("task-%d", time.Now().UnixNano())
	}
	return &Future{id: id, done: make(chan struct{})}
}

// ID returns the task identifier assigned at submission.
func (f *Future) ID() string { return f.id }

// Done returns a channel that is closed when the task has completed.
func (f *Future) Done() <-chan struct{} { return f.done }

// Completed reports whether the task has finished, successfully or not.
func (f *Future) Completed() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the task completes or ctx expires. A ctx expiry does not
// cancel the task; it keeps running and still gates its lane's successors.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the outcome of a completed future. It must only be called
// after Done is closed.
func (f *Future) Result() (any, error) { return f.value, f.err }

// complete resolves the future. It reports whether this call resolved it;
// later calls are no-ops and return false.
func (f *Future) complete(value any, err error) bool {
	resolved := false
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
		resolved = true
	})
	return resolved
}

// envelope pairs a submitted task with its future and submission context.
type envelope struct {
	ctx    context.Context
	task   Task
	fut    *Future
	onDone func(err error, elapsed time.Duration)
}

// invoke runs the task, converting a panic into an error so that one
// misbehaving task cannot take down a shared worker.
func (e *envelope) invoke() (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sequencer: task %s panicked: %v", e.fut.id, r)
		}
	}()
	ctx := e.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return e.task(ctx)
}

// finish resolves the future and fires the completion hook exactly once.
func (e *envelope) finish(value any, err error, elapsed time.Duration) {
	if e.fut.complete(value, err) && e.onDone != nil {
		e.onDone(err, elapsed)
	}
}

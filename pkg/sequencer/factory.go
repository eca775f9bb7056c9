package sequencer

import (
	"context"
	"hash/maphash"
	"sync"
	"sync/atomic"
	"time"

	"github.com/harun/sequent/internal/observability"
	"github.com/rs/zerolog/log"
)

// Strategy selects how lanes order their tasks.
type Strategy int

const (
	// StrategyStaging chains each task behind its predecessor's completion
	// stage; all execution runs on a shared bounded dispatcher.
	StrategyStaging Strategy = iota
	// StrategyPooled gives each active lane a single-goroutine worker
	// borrowed from a shared pool.
	StrategyPooled
)

const (
	strategyStagingName = "staging"
	strategyPooledName  = "pooled"
)

// String returns the strategy's metrics label.
func (s Strategy) String() string {
	if s == StrategyPooled {
		return strategyPooledName
	}
	return strategyStagingName
}

// laneStrategy is the contract shared by the two lane implementations and
// the serialized-submission wrapper.
type laneStrategy interface {
	submit(key any, env *envelope) error
	laneCount() int
	close()
}

// Option configures a Factory.
type Option func(*options)

type options struct {
	strategy       Strategy
	maxConcurrency int
	poolSize       int
	serialized     bool
	fair           bool
}

// WithStrategy selects the lane implementation. Default is StrategyStaging.
func WithStrategy(s Strategy) Option {
	return func(o *options) { o.strategy = s }
}

// WithMaxConcurrency caps the number of simultaneously active lanes to n by
// hashing sequence keys onto n buckets. Keys that land in the same bucket
// share a lane and serialize with each other. n must be positive; the
// default is unbounded.
func WithMaxConcurrency(n int) Option {
	return func(o *options) { o.maxConcurrency = n }
}

// WithPoolSize overrides the dispatcher pool size used by the staging
// strategy. Default is the hardware parallelism, or the max concurrency
// when one is set.
func WithPoolSize(n int) Option {
	return func(o *options) { o.poolSize = n }
}

// WithSerializedSubmission serializes entry into the submission bookkeeping
// under a single lock, giving a global linearization of submission order.
// The lock is never held across task execution. fair wakes blocked
// submitters in arrival order.
func WithSerializedSubmission(fair bool) Option {
	return func(o *options) {
		o.serialized = true
		o.fair = fair
	}
}

// Factory mints per-key executor handles that share one lane registry and
// one execution pool. The registry is scoped to the factory instance.
type Factory struct {
	opts       options
	core       laneStrategy
	seed       maphash.Seed
	mu         sync.RWMutex
	wg         sync.WaitGroup
	shutdown   atomic.Bool
	terminated chan struct{}
	closeOnce  sync.Once
}

// New constructs a factory. With no options every distinct key gets its own
// lane and cross-key parallelism is bounded only by the dispatcher pool.
func New(opts ...Option) *Factory {
	observability.EnsureRegistered()

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxConcurrency < 0 {
		o.maxConcurrency = 0
	}
	if o.poolSize == 0 && o.maxConcurrency > 0 {
		o.poolSize = o.maxConcurrency
	}

	var core laneStrategy
	switch o.strategy {
	case StrategyPooled:
		core = newPooledLanes(newWorkerPool())
	default:
		core = newStagingLanes(newDispatcher(o.poolSize))
	}
	if o.serialized {
		core = newSerializedLanes(core, o.fair)
	}

	f := &Factory{
		opts:       o,
		core:       core,
		seed:       maphash.MakeSeed(),
		terminated: make(chan struct{}),
	}
	log.Debug().
		Str("strategy", o.strategy.String()).
		Int("maxConcurrency", o.maxConcurrency).
		Msg("Sequencer factory constructed")
	return f
}

// Executor returns a per-key handle. Handles for equal keys may be distinct
// values; what holds is that their submissions serialize with each other.
func (f *Factory) Executor(key any) *Executor {
	return &Executor{factory: f, key: key}
}

// ActiveLanes returns the number of keys currently holding unfinished work.
func (f *Factory) ActiveLanes() int { return f.core.laneCount() }

// Close rejects new submissions, waits for every accepted task to finish,
// and releases the execution pool. Previously handed-out handles report
// shutdown immediately and terminated once the drain completes.
func (f *Factory) Close() {
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.shutdown.Store(true)
		f.mu.Unlock()

		f.wg.Wait()
		f.core.close()
		close(f.terminated)
		log.Debug().Msg("Sequencer factory closed")
	})
}

// IsShutdown reports whether Close has been called.
func (f *Factory) IsShutdown() bool { return f.shutdown.Load() }

// IsTerminated reports whether Close has completed its drain.
func (f *Factory) IsTerminated() bool {
	select {
	case <-f.terminated:
		return true
	default:
		return false
	}
}

// AwaitTermination blocks until the factory has terminated or ctx expires.
func (f *Factory) AwaitTermination(ctx context.Context) error {
	select {
	case <-f.terminated:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// submit validates the submission, accounts it for the close drain, and
// hands it to the lane strategy under the effective key.
func (f *Factory) submit(ctx context.Context, key any, task Task) (*Future, error) {
	if key == nil {
		return nil, ErrNilKey
	}
	if task == nil {
		return nil, ErrNilTask
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.shutdown.Load() {
		return nil, ErrFactoryClosed
	}

	fut := newFuture()
	strategy := f.opts.strategy.String()
	f.wg.Add(1)
	env := &envelope{
		ctx:  ctx,
		task: task,
		fut:  fut,
		onDone: func(err error, elapsed time.Duration) {
			observability.RecordCompletion(strategy, elapsed, err == nil)
			f.wg.Done()
		},
	}

	if err := f.core.submit(f.effectiveKey(key), env); err != nil {
		f.wg.Done()
		return nil, err
	}
	observability.RecordSubmit(strategy)
	return fut, nil
}

// effectiveKey folds the caller's key onto one of maxConcurrency buckets
// when the factory is bounded. Bucketing is stable for equal keys within a
// factory instance, so colliding keys consistently share a lane.
func (f *Factory) effectiveKey(key any) any {
	if f.opts.maxConcurrency <= 0 {
		return key
	}
	return maphash.Comparable(f.seed, key) % uint64(f.opts.maxConcurrency)
}

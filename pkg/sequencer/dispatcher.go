package sequencer

import (
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// dispatcher is the shared execution pool carrying all staging-strategy task
// runs. Lanes impose ordering; the dispatcher bounds how many tasks run at
// once across all keys, so millions of lanes can share a fixed pool.
type dispatcher struct {
	mu     sync.RWMutex
	pool   *pool.Pool
	closed bool
}

func newDispatcher(size int) *dispatcher {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	return &dispatcher{pool: pool.New().WithMaxGoroutines(size)}
}

// submit hands fn to the pool. It fails only after close.
func (d *dispatcher) submit(fn func()) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrFactoryClosed
	}
	d.pool.Go(fn)
	return nil
}

// close rejects further submissions and waits for in-flight work to finish.
func (d *dispatcher) close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	d.pool.Wait()
}

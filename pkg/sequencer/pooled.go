package sequencer

import (
	"time"

	"github.com/harun/sequent/internal/observability"
	"github.com/rs/zerolog/log"
)

// pooledLanes implements the pooled-worker strategy. Each active lane owns a
// single-goroutine worker borrowed from a shared pool; the registry stores
// the worker. After every task the completion listener re-checks the lane
// under the registry lock and returns the worker once its pending count
// drops to zero.
type pooledLanes struct {
	lanes *laneRegistry[*worker]
	pool  *workerPool
}

func newPooledLanes(pool *workerPool) *pooledLanes {
	return &pooledLanes{lanes: newLaneRegistry[*worker](), pool: pool}
}

func (p *pooledLanes) submit(key any, env *envelope) error {
	p.lanes.compute(key, func(cur *worker, ok bool) (*worker, bool) {
		w := cur
		if !ok {
			w = p.pool.borrow()
		}
		w.pending.Add(1)
		w.enqueue(func() { p.run(key, w, env) })
		return w, true
	})
	observability.SetActiveLanes(strategyPooledName, p.lanes.size())
	observability.SetIdleWorkers(p.pool.idleCount())
	return nil
}

// run executes one task on the lane's worker goroutine, then performs the
// sweep check. The pending count is decremented before the sweep so that a
// drained lane observes zero.
func (p *pooledLanes) run(key any, w *worker, env *envelope) {
	start := time.Now()
	value, err := env.invoke()
	env.finish(value, err, time.Since(start))

	if err != nil {
		log.Warn().
			Str("taskId", env.fut.id).
			Err(err).
			Msg("Task failed; lane continues with next task")
	}

	w.pending.Add(-1)
	p.sweep(key)
}

// sweep returns the worker to the pool and removes the lane iff no task is
// pending. The pending read is exact because it is serialized with appends
// by the registry lock.
func (p *pooledLanes) sweep(key any) {
	swept := false
	p.lanes.compute(key, func(cur *worker, ok bool) (*worker, bool) {
		if !ok {
			return nil, false
		}
		if cur.pendingTasks() != 0 {
			return cur, true
		}
		if err := p.pool.giveBack(cur); err != nil {
			log.Warn().Err(err).Msg("Failed to return worker to pool; abandoning worker")
			cur.stop()
		}
		swept = true
		return nil, false
	})
	observability.RecordSweep(strategyPooledName, swept)
	observability.SetActiveLanes(strategyPooledName, p.lanes.size())
	observability.SetIdleWorkers(p.pool.idleCount())
}

func (p *pooledLanes) laneCount() int { return p.lanes.size() }

func (p *pooledLanes) close() { p.pool.close() }

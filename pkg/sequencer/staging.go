package sequencer

import (
	"time"

	"github.com/harun/sequent/internal/observability"
	"github.com/rs/zerolog/log"
)

// stage is one link of a lane's completion chain. The registry stores only
// the tail stage for each key; every new submission chains behind it.
type stage struct {
	fut *Future
}

// stagingLanes implements the chained-stage strategy. A lane is the chain of
// completion stages for one key: each appended task becomes the new tail and
// starts only after its predecessor resolves. Execution itself runs on the
// shared dispatcher, so the number of live lanes is independent of the number
// of goroutines actually running tasks.
type stagingLanes struct {
	lanes *laneRegistry[*stage]
	disp  *dispatcher
}

func newStagingLanes(disp *dispatcher) *stagingLanes {
	return &stagingLanes{lanes: newLaneRegistry[*stage](), disp: disp}
}

func (s *stagingLanes) submit(key any, env *envelope) error {
	s.lanes.compute(key, func(cur *stage, ok bool) (*stage, bool) {
		var prev *Future
		if ok {
			prev = cur.fut
		}
		// The hand-off to the dispatcher can block on a saturated pool, so it
		// happens outside the registry lock.
		go func() {
			if prev != nil {
				<-prev.Done()
			}
			if err := s.disp.submit(func() { s.run(key, env, prev) }); err != nil {
				// Factory.Close drains all accepted tasks before the
				// dispatcher closes, so a chained stage never arrives late.
				env.finish(nil, err, 0)
			}
		}()
		return &stage{fut: env.fut}, true
	})
	observability.SetActiveLanes(strategyStagingName, s.lanes.size())
	return nil
}

// run executes one stage on the dispatcher, resolves its future, and arms
// the sweep. A failed predecessor is logged and never cancels the successor.
func (s *stagingLanes) run(key any, env *envelope, prev *Future) {
	if prev != nil {
		if _, err := prev.Result(); err != nil {
			log.Warn().
				Str("taskId", env.fut.id).
				Str("failedPredecessor", prev.id).
				Err(err).
				Msg("Predecessor task failed; running next task in lane")
		}
	}

	start := time.Now()
	value, err := env.invoke()
	env.finish(value, err, time.Since(start))

	s.sweep(key)
}

// sweep removes the lane iff the currently stored tail has completed. It runs
// inside the same atomic registry update as appends, so it can never remove a
// lane that a concurrent submission just extended.
func (s *stagingLanes) sweep(key any) {
	swept := false
	s.lanes.compute(key, func(cur *stage, ok bool) (*stage, bool) {
		if !ok {
			return nil, false
		}
		if cur.fut.Completed() {
			log.Trace().Str("taskId", cur.fut.id).Msg("Sweeping drained lane")
			swept = true
			return nil, false
		}
		return cur, true
	})
	observability.RecordSweep(strategyStagingName, swept)
	observability.SetActiveLanes(strategyStagingName, s.lanes.size())
}

func (s *stagingLanes) laneCount() int { return s.lanes.size() }

func (s *stagingLanes) close() { s.disp.close() }

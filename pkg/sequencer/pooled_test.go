package sequencer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPooledLanes_LaneStaysWhilePending(t *testing.T) {
	factory := New(WithStrategy(StrategyPooled))
	defer factory.Close()

	release := make(chan struct{})
	exec := factory.Executor("key")
	blocked, err := exec.Submit(context.Background(), func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	})
	require.NoError(t, err)

	queued, err := exec.Submit(context.Background(), func(ctx context.Context) (any, error) {
		return nil, nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, factory.ActiveLanes(), "lane with pending work must stay registered")

	close(release)
	_, err = blocked.Wait(context.Background())
	require.NoError(t, err)
	_, err = queued.Wait(context.Background())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return factory.ActiveLanes() == 0
	}, 5*time.Second, 5*time.Millisecond, "drained lane was not swept")
}

func TestPooledLanes_WorkerReturnsToPoolAfterDrain(t *testing.T) {
	pool := newWorkerPool()
	lanes := newPooledLanes(pool)
	defer lanes.close()

	env := &envelope{
		ctx:  context.Background(),
		fut:  newFuture(),
		task: func(ctx context.Context) (any, error) { return nil, nil },
	}
	require.NoError(t, lanes.submit("key", env))

	_, err := env.fut.Wait(context.Background())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return lanes.laneCount() == 0 && pool.idleCount() == 1
	}, 5*time.Second, 5*time.Millisecond, "worker not returned after lane drained")
}

func TestPooledLanes_ReusesOneWorkerAcrossKeys(t *testing.T) {
	pool := newWorkerPool()
	lanes := newPooledLanes(pool)
	defer lanes.close()

	// Sequential single-key bursts drain fully between submissions, so the
	// same pooled worker serves every key in turn.
	for i := 0; i < 10; i++ {
		env := &envelope{
			ctx:  context.Background(),
			fut:  newFuture(),
			task: func(ctx context.Context) (any, error) { return nil, nil },
		}
		require.NoError(t, lanes.submit(i, env))
		_, err := env.fut.Wait(context.Background())
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return lanes.laneCount() == 0
		}, 5*time.Second, time.Millisecond)
	}

	assert.LessOrEqual(t, pool.idleCount(), 1, "sequential workload should not grow the pool")
}

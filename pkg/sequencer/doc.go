// Package sequencer provides per-key sequential task execution with FIFO
// ordering per sequence key and parallelism across keys.
//
// Invariants:
// - Tasks submitted under the same key execute one at a time, in FIFO order.
// - Tasks submitted under different keys may execute concurrently.
// - A failing task never blocks later tasks under the same key.
// - Once all tasks under a key finish, the key's lane is removed.
//
// Usage:
//
//	factory := sequencer.New()
//	defer factory.Close()
//	exec := factory.Executor("session:abc")
//	fut, err := exec.Submit(ctx, func(ctx context.Context) (any, error) {
//		return "ok", nil
//	})
package sequencer

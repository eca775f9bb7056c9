package sequencer

import "errors"

var (
	// ErrShutdownUnsupported is returned by Shutdown and ShutdownNow on a
	// per-key executor. The shared pool may be running tasks for unrelated
	// keys; shutting it down through one handle would cancel all of them.
	ErrShutdownUnsupported = errors.New("sequencer: shutdown not supported on a per-key executor; close the factory instead")

	// ErrFactoryClosed is returned when a task is submitted after Close.
	ErrFactoryClosed = errors.New("sequencer: factory is closed")

	// ErrNilTask is returned when a nil task is submitted.
	ErrNilTask = errors.New("sequencer: task must not be nil")

	// ErrNilKey is returned when a submission carries a nil sequence key.
	ErrNilKey = errors.New("sequencer: sequence key must not be nil")

	// ErrNoTasks is returned by InvokeAll and InvokeAny on an empty task list.
	ErrNoTasks = errors.New("sequencer: task list must not be empty")
)

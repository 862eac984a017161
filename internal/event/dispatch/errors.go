package dispatch

import "errors"

// Sentinel errors for the dispatch package.
var (
	// ErrAlreadyRunning is returned when Start is called on a running loop.
	ErrAlreadyRunning = errors.New("loop is already running")

	// ErrNotRunning is returned when operations are attempted on a stopped loop.
	ErrNotRunning = errors.New("loop is not running")

	// ErrQueueFull is returned when the queue is at capacity.
	ErrQueueFull = errors.New("task queue is full")

	// ErrNilTask is returned when a nil task is posted.
	ErrNilTask = errors.New("task cannot be nil")
)

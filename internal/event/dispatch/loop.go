package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Loop runs posted tasks one at a time, in posting order, on a single
// worker goroutine.
type Loop struct {
	queueSize int
	timeout   time.Duration

	mu      sync.Mutex // guards queue creation and closing
	queue   chan job
	running atomic.Bool
	wg      sync.WaitGroup

	executor     *Executor
	errorHandler ErrorHandler

	posted      atomic.Uint64
	processed   atomic.Uint64
	succeeded   atomic.Uint64
	failed      atomic.Uint64
	panicked    atomic.Uint64
	dropped     atomic.Uint64
	totalTimeNs atomic.Int64
}

type job struct {
	ctx  context.Context
	name string
	task Task
}

// Option configures a Loop.
type Option func(*Loop)

// WithQueueSize sets the queue capacity.
func WithQueueSize(size int) Option {
	return func(l *Loop) {
		if size > 0 {
			l.queueSize = size
		}
	}
}

// WithTaskTimeout sets a per-task deadline. Zero disables it.
func WithTaskTimeout(d time.Duration) Option {
	return func(l *Loop) {
		if d >= 0 {
			l.timeout = d
		}
	}
}

// WithPanicHandler sets the handler for panicking tasks.
func WithPanicHandler(h PanicHandler) Option {
	return func(l *Loop) {
		l.executor = NewExecutor(WithExecutorPanicHandler(h))
	}
}

// WithErrorHandler sets the handler for failing tasks.
func WithErrorHandler(h ErrorHandler) Option {
	return func(l *Loop) {
		l.errorHandler = h
	}
}

// NewLoop creates a stopped loop.
func NewLoop(opts ...Option) *Loop {
	l := &Loop{
		queueSize: 1024,
		executor:  NewExecutor(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start launches the worker.
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running.Load() {
		return ErrAlreadyRunning
	}

	l.queue = make(chan job, l.queueSize)
	l.running.Store(true)
	l.wg.Add(1)
	go l.worker(l.queue)

	return nil
}

// Stop closes the queue and waits until every posted task has run or ctx
// is done.
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.running.Load() {
		l.mu.Unlock()
		return ErrNotRunning
	}
	l.running.Store(false)
	close(l.queue)
	l.mu.Unlock()

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Post queues task. It never blocks: a full queue returns ErrQueueFull.
func (l *Loop) Post(ctx context.Context, name string, task Task) error {
	if task == nil {
		return ErrNilTask
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running.Load() {
		return ErrNotRunning
	}

	select {
	case l.queue <- job{ctx: ctx, name: name, task: task}:
		l.posted.Add(1)
		return nil
	default:
		l.dropped.Add(1)
		return ErrQueueFull
	}
}

// IsRunning reports whether the loop accepts tasks.
func (l *Loop) IsRunning() bool {
	return l.running.Load()
}

func (l *Loop) worker(queue <-chan job) {
	defer l.wg.Done()
	for j := range queue {
		l.run(j)
	}
}

func (l *Loop) run(j job) {
	l.processed.Add(1)

	result := l.executor.ExecuteWithTimeout(j.ctx, j.name, j.task, l.timeout)
	l.totalTimeNs.Add(result.Duration.Nanoseconds())

	switch {
	case result.Panicked:
		l.panicked.Add(1)
	case result.Error != nil:
		l.failed.Add(1)
		if l.errorHandler != nil {
			l.errorHandler(j.name, result.Error)
		}
	default:
		l.succeeded.Add(1)
	}
}

// Stats is a snapshot of loop counters.
type Stats struct {
	// Posted is the number of tasks accepted.
	Posted uint64

	// Processed is the number of tasks taken off the queue.
	Processed uint64

	// Succeeded is the number of tasks that returned nil.
	Succeeded uint64

	// Failed is the number of tasks that returned an error or were skipped.
	Failed uint64

	// Panicked is the number of tasks that panicked.
	Panicked uint64

	// Dropped is the number of tasks refused because the queue was full.
	Dropped uint64

	// QueueDepth is the number of tasks waiting.
	QueueDepth int

	// AvgDuration is the mean task run time.
	AvgDuration time.Duration
}

// Stats returns the loop's counters.
func (l *Loop) Stats() Stats {
	processed := l.processed.Load()
	var avg time.Duration
	if processed > 0 {
		avg = time.Duration(l.totalTimeNs.Load() / int64(processed))
	}

	l.mu.Lock()
	depth := 0
	if l.running.Load() {
		depth = len(l.queue)
	}
	l.mu.Unlock()

	return Stats{
		Posted:      l.posted.Load(),
		Processed:   processed,
		Succeeded:   l.succeeded.Load(),
		Failed:      l.failed.Load(),
		Panicked:    l.panicked.Load(),
		Dropped:     l.dropped.Load(),
		QueueDepth:  depth,
		AvgDuration: avg,
	}
}

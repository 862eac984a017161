package dispatch

import (
	"context"
	"runtime/debug"
	"time"
)

// Task is a unit of deferred work.
type Task func(ctx context.Context) error

// Result is the outcome of one task execution.
type Result struct {
	// Success is true if the task returned nil without panicking.
	Success bool

	// Error is the task's error, or the context error for skipped tasks.
	Error error

	// Panicked is true if the task panicked.
	Panicked bool

	// PanicValue is the value passed to panic().
	PanicValue any

	// PanicStack is the stack trace at the point of panic.
	PanicStack []byte

	// Duration is how long the task ran.
	Duration time.Duration

	// Skipped is true if the context was done before the task started.
	Skipped bool
}

// PanicHandler is called when a task panics.
type PanicHandler func(name string, panicValue any, stack []byte)

// ErrorHandler is called when a task returns an error.
type ErrorHandler func(name string, err error)

// Executor runs tasks with panic recovery and timing.
type Executor struct {
	panicHandler PanicHandler
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithExecutorPanicHandler sets the panic handler.
func WithExecutorPanicHandler(h PanicHandler) ExecutorOption {
	return func(e *Executor) {
		e.panicHandler = h
	}
}

// NewExecutor creates an executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs task. A context that is already done skips the task.
func (e *Executor) Execute(ctx context.Context, name string, task Task) (result Result) {
	if err := ctx.Err(); err != nil {
		return Result{Error: err, Skipped: true}
	}

	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)

		r := recover()
		if r == nil {
			return
		}
		stack := debug.Stack()
		result.Success = false
		result.Panicked = true
		result.PanicValue = r
		result.PanicStack = stack

		if e.panicHandler != nil {
			func() {
				defer func() { _ = recover() }()
				e.panicHandler(name, r, stack)
			}()
		}
	}()

	if err := task(ctx); err != nil {
		result.Error = err
		return result
	}
	result.Success = true
	return result
}

// ExecuteWithTimeout runs task with a deadline. The task must honour ctx
// for the deadline to have any effect.
func (e *Executor) ExecuteWithTimeout(ctx context.Context, name string, task Task, timeout time.Duration) Result {
	if timeout <= 0 {
		return e.Execute(ctx, name, task)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return e.Execute(ctx, name, task)
}

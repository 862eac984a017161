package app

import (
	"time"

	"github.com/dshills/eventsignal/internal/event"
)

// Invocation records one handler run.
type Invocation struct {
	// Target is the event path, or the pattern for observers.
	Target string

	// Connection is the connection name.
	Connection string

	// Priority is the connection priority.
	Priority event.Priority

	// Caller is the path the dispatch originated from.
	Caller string

	// Args are the dispatch arguments.
	Args []any

	// Duration is how long the handler ran.
	Duration time.Duration

	// Err is the handler's error, if any.
	Err error
}

// traced wraps h so that every run is reported to sink.
func traced(target, name string, p event.Priority, h event.Handler, sink func(Invocation)) event.Handler {
	if sink == nil {
		return h
	}
	return event.HandlerFunc(func(caller *event.Node, args ...any) error {
		timer := StartTimer()
		err := h.Handle(caller, args...)

		inv := Invocation{
			Target:     target,
			Connection: name,
			Priority:   p,
			Args:       args,
			Duration:   timer.Elapsed(),
			Err:        err,
		}
		if caller != nil {
			inv.Caller = caller.Name()
		}
		sink(inv)
		return err
	})
}

package event

import "errors"

// Sentinel errors for event nodes.
var (
	// ErrInvalidPriority is returned when a priority is neither an integer
	// nor a recognised level name, or is one of the reserved sentinels.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrMissingConnectionData is returned when a connection is requested
	// without a usable handler.
	ErrMissingConnectionData = errors.New("missing connection data")

	// ErrUnknownPriority is returned when a targeted disconnect names a
	// priority that has no registered group.
	ErrUnknownPriority = errors.New("unknown priority")

	// ErrEventTimeout is returned by a Waiter whose deadline passed before
	// the node dispatched.
	ErrEventTimeout = errors.New("event wait timed out")

	// ErrWaitCancelled is returned by a Waiter removed with Cancel.
	ErrWaitCancelled = errors.New("event wait cancelled")

	// ErrInvalidPath is returned when a tree path is empty or malformed.
	ErrInvalidPath = errors.New("invalid event path")

	// ErrNodeNotFound is returned when a tree path has no node.
	ErrNodeNotFound = errors.New("event node not found")
)

// HandlerError wraps an error returned by a connection's handler.
// The dispatch that produced it stopped at that connection.
type HandlerError struct {
	// Node is the node whose connection failed.
	Node string

	// Connection is the name of the failed connection, possibly empty.
	Connection string

	// Priority is the group the connection belonged to.
	Priority Priority

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	name := e.Connection
	if name == "" {
		name = "<anonymous>"
	}
	node := e.Node
	if node == "" {
		node = "<unnamed>"
	}
	return "handler " + name + " at priority " + e.Priority.String() + " on " + node + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

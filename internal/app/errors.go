package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrQuit signals that the command loop should exit normally.
	ErrQuit = errors.New("quit requested")

	// ErrAlreadyRunning indicates the application is already running.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrNotRunning indicates the application is not running.
	ErrNotRunning = errors.New("application not running")

	// ErrUnknownCommand indicates a command name the interpreter doesn't know.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrUsage indicates a command was given the wrong arguments.
	ErrUsage = errors.New("usage")
)

// OperationError represents an error that occurred during a specific operation.
type OperationError struct {
	Op     string // Operation name (e.g., "fire", "pause", "reload")
	Target string // Target of the operation, usually an event path
	Err    error  // Underlying error
}

// NewOperationError creates a new OperationError.
func NewOperationError(op, target string, err error) *OperationError {
	return &OperationError{
		Op:     op,
		Target: target,
		Err:    err,
	}
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}

	msg := e.Op
	if e.Target != "" {
		msg = fmt.Sprintf("%s %s", e.Op, e.Target)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ComponentError represents an error from building one part of the tree.
type ComponentError struct {
	Component string // Component name (e.g., "connection", "observer")
	Target    string // Event path or observer pattern
	Err       error  // Underlying error
}

func (e *ComponentError) Error() string {
	if e == nil {
		return ""
	}
	if e.Target != "" {
		return fmt.Sprintf("%s %s: %v", e.Component, e.Target, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Component, e.Err)
}

func (e *ComponentError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ErrorList collects multiple errors.
// ErrorList is not safe for concurrent use.
type ErrorList struct {
	errors []error
}

// Add adds an error to the list. Nil errors are ignored.
func (e *ErrorList) Add(err error) {
	if err != nil {
		e.errors = append(e.errors, err)
	}
}

// Len returns the number of errors.
func (e *ErrorList) Len() int {
	return len(e.errors)
}

// Errors returns a copy of the error slice.
func (e *ErrorList) Errors() []error {
	if e == nil || len(e.errors) == 0 {
		return nil
	}
	out := make([]error, len(e.errors))
	copy(out, e.errors)
	return out
}

// Error returns a combined error message.
func (e *ErrorList) Error() string {
	if e == nil || len(e.errors) == 0 {
		return ""
	}
	if len(e.errors) == 1 {
		return e.errors[0].Error()
	}
	return fmt.Sprintf("%d errors: first: %v", len(e.errors), e.errors[0])
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *ErrorList) Unwrap() []error {
	return e.Errors()
}

// AsError returns nil if there are no errors, otherwise returns the ErrorList.
func (e *ErrorList) AsError() error {
	if e.Len() == 0 {
		return nil
	}
	return e
}

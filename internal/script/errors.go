package script

import "errors"

// Errors returned by scripts.
var (
	// ErrScriptClosed is returned when running a closed script.
	ErrScriptClosed = errors.New("script is closed")

	// ErrTimeout is returned when a run exceeds the script timeout.
	ErrTimeout = errors.New("script execution timeout")

	// ErrEmptySource is returned when compiling empty source.
	ErrEmptySource = errors.New("script source is empty")
)

package config

import (
	"errors"
	"fmt"
)

// Errors returned by configuration operations.
var (
	// ErrFileNotFound indicates the configuration file doesn't exist.
	ErrFileNotFound = errors.New("config file not found")

	// ErrUnsupportedFormat indicates a file extension with no parser.
	ErrUnsupportedFormat = errors.New("unsupported config format")

	// ErrValidationFailed indicates the merged configuration is invalid.
	ErrValidationFailed = errors.New("validation failed")
)

// ParseError represents an error while parsing a configuration file.
type ParseError struct {
	// Path is the file path that failed to parse.
	Path string
	// Line is the line number where the error occurred (if available).
	Line int
	// Column is the column number where the error occurred (if available).
	Column int
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %v", e.Path, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("parse error in %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// FieldError describes one invalid configuration value.
type FieldError struct {
	// Field is the dotted location of the value, e.g. events[2].connections[0].priority.
	Field string
	// Message describes the problem.
	Message string
}

// ValidationError collects every invalid value found in one pass.
type ValidationError struct {
	Errors []FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("%v: %s: %s", ErrValidationFailed, e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("%v: %d errors, first: %s: %s", ErrValidationFailed, len(e.Errors), e.Errors[0].Field, e.Errors[0].Message)
}

// Is reports whether target is ErrValidationFailed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

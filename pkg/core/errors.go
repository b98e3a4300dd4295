// Package core provides the assistant client and chat-turn orchestration.
package core

import (
	"errors"
	"fmt"
)

// Predefined errors for common failure scenarios.
var (
	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidInput indicates that the provided input is invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// AssistantError wraps errors with operation context.
//
// Example:
//
//	err := &AssistantError{
//	    Op:  "Send",
//	    Err: ErrInvalidInput,
//	}
//	// Error() returns: "tabzero: Send: invalid input"
type AssistantError struct {
	// Op is the name of the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error returns a formatted error message.
//
// The format is: "tabzero: <Op>: <Err>"
func (e *AssistantError) Error() string {
	return fmt.Sprintf("tabzero: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
//
// This allows using errors.Is() and errors.As() with AssistantError.
func (e *AssistantError) Unwrap() error {
	return e.Err
}

// NewAssistantError creates a new AssistantError wrapping the given error.
//
// If err is nil, returns nil. This allows safe error wrapping:
//
//	if err != nil {
//	    return NewAssistantError("Send", err)
//	}
func NewAssistantError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &AssistantError{
		Op:  op,
		Err: err,
	}
}

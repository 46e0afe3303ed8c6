// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrFlowNotFound indicates a flow was not found by the given identifier.
	ErrFlowNotFound = errors.New("flow not found")

	// ErrChannelNotFound indicates a channel was not found by the given identifier.
	ErrChannelNotFound = errors.New("channel not found")

	// ErrExecutionStateNotFound indicates no execution exists for a conversation.
	ErrExecutionStateNotFound = errors.New("execution state not found")

	// ErrVersionConflict indicates the stored execution moved since it was read.
	ErrVersionConflict = errors.New("execution state version conflict")

	// ErrInvalidID indicates an identifier unsafe for the backing store.
	ErrInvalidID = errors.New("invalid identifier")

	// ErrCorruptState indicates a stored execution state that cannot be decoded.
	ErrCorruptState = errors.New("corrupt execution state")
)

// Error wraps a persistence failure with the operation and target.
type Error struct {
	Op     string // Operation being performed (e.g., "FlowByID", "Save")
	Target string // Identifier of the record if applicable
	Err    error
}

func (e *Error) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error comparison for persistence errors.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func NewError(op, target string, err error) *Error {
	return &Error{Op: op, Target: target, Err: err}
}

func IsFlowNotFound(err error) bool {
	return errors.Is(err, ErrFlowNotFound)
}

func IsChannelNotFound(err error) bool {
	return errors.Is(err, ErrChannelNotFound)
}

func IsExecutionStateNotFound(err error) bool {
	return errors.Is(err, ErrExecutionStateNotFound)
}

func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

func IsCorruptState(err error) bool {
	return errors.Is(err, ErrCorruptState)
}

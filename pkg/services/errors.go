// Package services provides flow publishing, validation and import for the
// admin tooling.
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence"
)

var (
	// ErrFlowNotFound is returned when a flow is not found.
	ErrFlowNotFound = persistence.ErrFlowNotFound

	// Validation errors.
	ErrInvalidRequest        = errors.New("invalid request")
	ErrFlowNil               = errors.New("flow cannot be nil")
	ErrNodesRequired         = errors.New("flow must have at least one node")
	ErrTriggerNodeRequired   = errors.New("flow must have a trigger node")
	ErrDuplicateNodeID       = errors.New("duplicate node id")
	ErrDanglingEdge          = errors.New("edge references a missing node")
	ErrUnknownNodeType       = errors.New("unknown node type")
	ErrInvalidNodeConfig     = errors.New("node config does not match its schema")
	ErrConditionDefaultEdge  = errors.New("condition node has no default edge")
	ErrDuplicateBranch       = errors.New("condition node has duplicate branch labels")
	ErrUnsupportedFileFormat = errors.New("unsupported file format")
)

// ValidationError collects every problem found in one flow.
type ValidationError struct {
	FlowID   string
	Problems []error
}

func (e *ValidationError) Error() string {
	messages := make([]string, 0, len(e.Problems))
	for _, problem := range e.Problems {
		messages = append(messages, problem.Error())
	}

	return fmt.Sprintf("flow %s is invalid: %s", e.FlowID, strings.Join(messages, "; "))
}

func (e *ValidationError) Unwrap() []error {
	return e.Problems
}

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is a client-side validation failure.
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return true
	}

	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrFlowNil) ||
		errors.Is(err, ErrUnsupportedFileFormat)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrFlowNotFound) || errors.Is(err, persistence.ErrChannelNotFound)
}

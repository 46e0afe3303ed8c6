package workflow

import (
	"errors"
	"fmt"
)

// Reserved branch labels.
const (
	BranchError   = "error"
	BranchTimeout = "timeout"
)

var (
	// ErrConcurrencyConflict means another pass holds the conversation lease.
	ErrConcurrencyConflict = errors.New("conversation is being processed by another pass")
	ErrStepBudgetExceeded  = errors.New("step budget exceeded")
	ErrNoScheduler         = errors.New("delay requires a scheduler")
	ErrNoEntry             = errors.New("flow has no trigger node")
	ErrUnknownNode         = errors.New("unknown node")
	ErrNoWait              = errors.New("waiting execution has no wait descriptor")
)

// ExecutionFault is an unrecoverable failure of one stepping pass. The
// execution it belongs to is finalized as errored.
type ExecutionFault struct {
	ExecutionID string
	NodeID      string
	Err         error
}

func (f *ExecutionFault) Error() string {
	if f.NodeID == "" {
		return fmt.Sprintf("execution %s: %v", f.ExecutionID, f.Err)
	}

	return fmt.Sprintf("execution %s at node %s: %v", f.ExecutionID, f.NodeID, f.Err)
}

func (f *ExecutionFault) Unwrap() error {
	return f.Err
}

func IsExecutionFault(err error) bool {
	var fault *ExecutionFault

	return errors.As(err, &fault)
}

package protocol

import (
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
)

// TransitionKind is the outcome class of a node.
type TransitionKind string

const (
	TransitionAdvance   TransitionKind = "advance"
	TransitionWait      TransitionKind = "wait"
	TransitionSleep     TransitionKind = "sleep"
	TransitionTerminate TransitionKind = "terminate"
)

// Transition tells the engine how to continue after a node ran.
type Transition struct {
	Kind         TransitionKind
	Branch       string
	VariableName string
	ExpectedType models.ExpectedType
	Timeout      time.Duration
	Delay        time.Duration
	Status       models.ExecutionStatus
	Message      string
}

// Advance follows the outgoing edge labeled branch.
func Advance(branch string) Transition {
	if branch == "" {
		branch = models.DefaultBranch
	}

	return Transition{Kind: TransitionAdvance, Branch: branch}
}

// Wait suspends until the counterparty replies.
func Wait(variableName string, expectedType models.ExpectedType, timeout time.Duration) Transition {
	if expectedType == "" {
		expectedType = models.ExpectedAny
	}

	return Transition{
		Kind:         TransitionWait,
		VariableName: variableName,
		ExpectedType: expectedType,
		Timeout:      timeout,
	}
}

// Sleep suspends until the scheduler re-delivers the execution.
func Sleep(delay time.Duration) Transition {
	return Transition{Kind: TransitionSleep, Delay: delay}
}

// Terminate finalizes the execution with status.
func Terminate(status models.ExecutionStatus, message string) Transition {
	return Transition{Kind: TransitionTerminate, Status: status, Message: message}
}

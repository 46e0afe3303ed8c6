package protocol

import (
	"errors"
	"fmt"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
)

// RuntimeNodeError is a node failure the engine may route to the node's
// error branch instead of failing the execution.
type RuntimeNodeError struct {
	NodeID   string
	NodeType models.NodeType
	Err      error
}

func (e *RuntimeNodeError) Error() string {
	return fmt.Sprintf("%s node %s failed: %v", e.NodeType, e.NodeID, e.Err)
}

func (e *RuntimeNodeError) Unwrap() error {
	return e.Err
}

func NewRuntimeNodeError(node *models.FlowNode, err error) *RuntimeNodeError {
	return &RuntimeNodeError{NodeID: node.ID, NodeType: node.Type, Err: err}
}

// IsRuntimeNodeError reports whether err carries a RuntimeNodeError.
func IsRuntimeNodeError(err error) bool {
	var nodeErr *RuntimeNodeError

	return errors.As(err, &nodeErr)
}

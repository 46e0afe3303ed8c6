// Package protocol defines the contracts between the execution engine,
// pluggable node handlers and the engine's external collaborators.
package protocol

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
)

// NodeHandler executes one node type and provides metadata about it.
type NodeHandler interface {
	// Type returns the node type tag this handler serves
	Type() models.NodeType

	// Name returns the human-readable name for this node type
	Name() string

	// Description returns a description of what this node does
	Description() string

	// Schema returns the JSON schema for configuring this node
	Schema() map[string]any

	// Handle runs the node against the conversation scope and reports where
	// execution goes next. Scope mutations are visible to later nodes.
	Handle(ctx context.Context, node *models.FlowNode, scope map[string]any, env *Env) (Transition, error)
}

// Env is what a handler may touch besides the scope.
type Env struct {
	ExecutionID string
	FlowID      string
	Channel     *models.Channel
	Recipient   string
	Gateway     MessagingGateway
	HTTPClient  *http.Client
	// Counters holds per loop node iteration counts; owned by the running pass.
	Counters map[string]int
	Logger   *slog.Logger
}

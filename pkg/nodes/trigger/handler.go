// Package trigger provides the flow entry node. Execution begins at the
// trigger's outgoing edge, so Handle is only reached if a graph routes back into it.
package trigger

import (
	"context"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/protocol"
)

type Handler struct{}

func NewHandler() protocol.NodeHandler {
	return &Handler{}
}

func (h *Handler) Type() models.NodeType {
	return models.NodeTypeTrigger
}

func (h *Handler) Name() string {
	return "Trigger"
}

func (h *Handler) Description() string {
	return "Marks the entry of a flow. Keywords decide which inbound messages start it."
}

func (h *Handler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"keywords": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Exact message texts that start the flow",
			},
			"caseSensitive": map[string]any{
				"type":    "boolean",
				"default": false,
			},
		},
	}
}

func (h *Handler) Handle(_ context.Context, _ *models.FlowNode, _ map[string]any, _ *protocol.Env) (protocol.Transition, error) {
	return protocol.Advance(models.DefaultBranch), nil
}

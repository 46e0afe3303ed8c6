// Package end terminates a flow.
package end

import (
	"context"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/protocol"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/variables"
)

type Handler struct{}

func NewHandler() protocol.NodeHandler {
	return &Handler{}
}

func (h *Handler) Type() models.NodeType {
	return models.NodeTypeEnd
}

func (h *Handler) Name() string {
	return "End"
}

func (h *Handler) Description() string {
	return "Finishes the conversation flow, optionally sending a closing message."
}

func (h *Handler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"endType": map[string]any{"type": "string", "enum": []string{"complete", "error"}},
			"message": map[string]any{"type": "string"},
		},
	}
}

func (h *Handler) Handle(ctx context.Context, node *models.FlowNode, scope map[string]any, env *protocol.Env) (protocol.Transition, error) {
	var cfg models.EndConfig
	if err := node.DecodeConfig(&cfg); err != nil {
		return protocol.Transition{}, err
	}

	status := models.ExecutionStatusCompleted
	reason := ""

	if cfg.EndType == models.EndTypeError {
		status = models.ExecutionStatusErrored
		reason = "flow ended at error node " + node.ID
	}

	if cfg.Message != "" && env != nil && env.Gateway != nil {
		text := variables.Interpolate(cfg.Message, scope)

		if _, err := env.Gateway.SendText(ctx, env.Channel, env.Recipient, text); err != nil && env.Logger != nil {
			env.Logger.WarnContext(ctx, "Failed to send closing message", "node_id", node.ID, "error", err)
		}
	}

	return protocol.Terminate(status, reason), nil
}

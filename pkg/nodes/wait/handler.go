// Package wait provides the waitForReply node, which suspends the
// conversation until the counterparty answers.
package wait

import (
	"context"
	"errors"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/protocol"
)

// OutputPortTimeout is followed when the reply does not arrive in time.
const OutputPortTimeout = "timeout"

var ErrVariableNameRequired = errors.New("waitForReply requires variableName")

type Handler struct{}

func NewHandler() protocol.NodeHandler {
	return &Handler{}
}

func (h *Handler) Type() models.NodeType {
	return models.NodeTypeWaitForReply
}

func (h *Handler) Name() string {
	return "Wait For Reply"
}

func (h *Handler) Description() string {
	return "Pauses the flow until the contact replies and stores the reply in a variable."
}

func (h *Handler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"variableName": map[string]any{"type": "string", "minLength": 1},
			"expectedType": map[string]any{
				"type": "string",
				"enum": []string{"text", "button", "list", "image", "any"},
			},
			"timeoutSeconds": map[string]any{"type": "integer", "minimum": 0},
		},
		"required": []string{"variableName"},
	}
}

func (h *Handler) Handle(_ context.Context, node *models.FlowNode, _ map[string]any, _ *protocol.Env) (protocol.Transition, error) {
	var cfg models.WaitForReplyConfig
	if err := node.DecodeConfig(&cfg); err != nil {
		return protocol.Transition{}, err
	}

	if cfg.VariableName == "" {
		return protocol.Transition{}, ErrVariableNameRequired
	}

	return protocol.Wait(cfg.VariableName, cfg.ExpectedType, time.Duration(cfg.TimeoutSeconds)*time.Second), nil
}

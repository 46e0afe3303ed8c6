package message

import (
	"context"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/protocol"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/variables"
)

type TextHandler struct{}

func NewTextHandler() protocol.NodeHandler {
	return &TextHandler{}
}

func (h *TextHandler) Type() models.NodeType {
	return models.NodeTypeSendText
}

func (h *TextHandler) Name() string {
	return "Send Text"
}

func (h *TextHandler) Description() string {
	return "Sends a plain text message. Supports {{variable}} placeholders."
}

func (h *TextHandler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":      "string",
				"minLength": 1,
				"examples":  []string{"Hi {{customer_name}}, how can we help?"},
			},
		},
		"required": []string{"message"},
	}
}

func (h *TextHandler) Handle(ctx context.Context, node *models.FlowNode, scope map[string]any, env *protocol.Env) (protocol.Transition, error) {
	var cfg models.SendTextConfig
	if err := node.DecodeConfig(&cfg); err != nil {
		return protocol.Transition{}, err
	}

	text := variables.Interpolate(cfg.Message, scope)

	return deliver(ctx, node, scope, env, func(gateway protocol.MessagingGateway) (protocol.DeliveryResult, error) {
		return gateway.SendText(ctx, env.Channel, env.Recipient, text)
	})
}

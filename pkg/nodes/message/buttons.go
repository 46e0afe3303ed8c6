package message

import (
	"context"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/protocol"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/variables"
)

type ButtonsHandler struct{}

func NewButtonsHandler() protocol.NodeHandler {
	return &ButtonsHandler{}
}

func (h *ButtonsHandler) Type() models.NodeType {
	return models.NodeTypeSendButtons
}

func (h *ButtonsHandler) Name() string {
	return "Send Buttons"
}

func (h *ButtonsHandler) Description() string {
	return "Sends up to three quick reply buttons. Titles longer than 20 characters are truncated."
}

func (h *ButtonsHandler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"bodyText":   map[string]any{"type": "string", "minLength": 1},
			"headerText": map[string]any{"type": "string"},
			"footerText": map[string]any{"type": "string"},
			"buttons": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":    map[string]any{"type": "string", "minLength": 1},
						"title": map[string]any{"type": "string", "minLength": 1},
					},
					"required": []string{"id", "title"},
				},
			},
		},
		"required": []string{"bodyText", "buttons"},
	}
}

func (h *ButtonsHandler) Handle(ctx context.Context, node *models.FlowNode, scope map[string]any, env *protocol.Env) (protocol.Transition, error) {
	var cfg models.SendButtonsConfig
	if err := node.DecodeConfig(&cfg); err != nil {
		return protocol.Transition{}, err
	}

	message := models.SendButtonsConfig{
		BodyText:   variables.Interpolate(cfg.BodyText, scope),
		HeaderText: variables.Interpolate(cfg.HeaderText, scope),
		FooterText: variables.Interpolate(cfg.FooterText, scope),
		Buttons:    make([]models.Button, 0, len(cfg.Buttons)),
	}

	for _, button := range cfg.Buttons {
		message.Buttons = append(message.Buttons, models.Button{
			ID:    button.ID,
			Title: variables.Interpolate(button.Title, scope),
		})
	}

	return deliver(ctx, node, scope, env, func(gateway protocol.MessagingGateway) (protocol.DeliveryResult, error) {
		return gateway.SendButtons(ctx, env.Channel, env.Recipient, message)
	})
}

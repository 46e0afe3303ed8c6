package message

import (
	"context"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/protocol"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/variables"
)

type ImageHandler struct{}

func NewImageHandler() protocol.NodeHandler {
	return &ImageHandler{}
}

func (h *ImageHandler) Type() models.NodeType {
	return models.NodeTypeSendImage
}

func (h *ImageHandler) Name() string {
	return "Send Image"
}

func (h *ImageHandler) Description() string {
	return "Sends an image by public URL with an optional caption."
}

func (h *ImageHandler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"imageUrl": map[string]any{"type": "string", "minLength": 1},
			"caption":  map[string]any{"type": "string"},
		},
		"required": []string{"imageUrl"},
	}
}

func (h *ImageHandler) Handle(ctx context.Context, node *models.FlowNode, scope map[string]any, env *protocol.Env) (protocol.Transition, error) {
	var cfg models.SendImageConfig
	if err := node.DecodeConfig(&cfg); err != nil {
		return protocol.Transition{}, err
	}

	imageURL := variables.Interpolate(cfg.ImageURL, scope)
	caption := variables.Interpolate(cfg.Caption, scope)

	return deliver(ctx, node, scope, env, func(gateway protocol.MessagingGateway) (protocol.DeliveryResult, error) {
		return gateway.SendImage(ctx, env.Channel, env.Recipient, imageURL, caption)
	})
}

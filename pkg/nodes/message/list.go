package message

import (
	"context"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/protocol"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/variables"
)

type ListHandler struct{}

func NewListHandler() protocol.NodeHandler {
	return &ListHandler{}
}

func (h *ListHandler) Type() models.NodeType {
	return models.NodeTypeSendList
}

func (h *ListHandler) Name() string {
	return "Send List"
}

func (h *ListHandler) Description() string {
	return "Sends an interactive list with up to 10 rows per section."
}

func (h *ListHandler) Schema() map[string]any {
	row := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":          map[string]any{"type": "string", "minLength": 1},
			"title":       map[string]any{"type": "string", "minLength": 1},
			"description": map[string]any{"type": "string"},
		},
		"required": []string{"id", "title"},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"bodyText":   map[string]any{"type": "string", "minLength": 1},
			"buttonText": map[string]any{"type": "string", "minLength": 1},
			"headerText": map[string]any{"type": "string"},
			"footerText": map[string]any{"type": "string"},
			"sections": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title": map[string]any{"type": "string"},
						"rows":  map[string]any{"type": "array", "minItems": 1, "items": row},
					},
					"required": []string{"rows"},
				},
			},
		},
		"required": []string{"bodyText", "buttonText", "sections"},
	}
}

func (h *ListHandler) Handle(ctx context.Context, node *models.FlowNode, scope map[string]any, env *protocol.Env) (protocol.Transition, error) {
	var cfg models.SendListConfig
	if err := node.DecodeConfig(&cfg); err != nil {
		return protocol.Transition{}, err
	}

	message := models.SendListConfig{
		BodyText:   variables.Interpolate(cfg.BodyText, scope),
		ButtonText: variables.Interpolate(cfg.ButtonText, scope),
		HeaderText: variables.Interpolate(cfg.HeaderText, scope),
		FooterText: variables.Interpolate(cfg.FooterText, scope),
		Sections:   make([]models.ListSection, 0, len(cfg.Sections)),
	}

	for _, section := range cfg.Sections {
		rendered := models.ListSection{
			Title: variables.Interpolate(section.Title, scope),
			Rows:  make([]models.ListRow, 0, len(section.Rows)),
		}

		for _, row := range section.Rows {
			rendered.Rows = append(rendered.Rows, models.ListRow{
				ID:          row.ID,
				Title:       variables.Interpolate(row.Title, scope),
				Description: variables.Interpolate(row.Description, scope),
			})
		}

		message.Sections = append(message.Sections, rendered)
	}

	return deliver(ctx, node, scope, env, func(gateway protocol.MessagingGateway) (protocol.DeliveryResult, error) {
		return gateway.SendList(ctx, env.Channel, env.Recipient, message)
	})
}

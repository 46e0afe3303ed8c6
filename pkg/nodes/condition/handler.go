// Package condition provides multi-way branching over ordered rules.
package condition

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
	return models.NodeTypeCondition
}

func (h *Handler) Name() string {
	return "Condition"
}

func (h *Handler) Description() string {
	return "Evaluates rules in order and follows the handle of the first rule that holds, or the default handle."
}

func (h *Handler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"conditions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"variable": map[string]any{"type": "string", "minLength": 1},
						"operator": map[string]any{
							"type": "string",
							"enum": []string{
								"equals", "not_equals", "contains", "not_contains",
								"starts_with", "ends_with", "greater_than", "less_than",
								"is_empty", "is_not_empty", "matches_regex",
								"gt", "lt", "regex", "exists", "not_exists",
							},
						},
						"value":        map[string]any{},
						"outputHandle": map[string]any{"type": "string", "minLength": 1},
					},
					"required": []string{"variable", "operator", "outputHandle"},
				},
			},
			"defaultHandle": map[string]any{"type": "string"},
		},
		"required": []string{"conditions"},
	}
}

// DefaultHandle returns the handle followed when no rule holds.
func DefaultHandle(cfg models.ConditionConfig) string {
	if cfg.DefaultHandle == "" {
		return models.DefaultBranch
	}

	return cfg.DefaultHandle
}

func (h *Handler) Handle(_ context.Context, node *models.FlowNode, scope map[string]any, _ *protocol.Env) (protocol.Transition, error) {
	var cfg models.ConditionConfig
	if err := node.DecodeConfig(&cfg); err != nil {
		return protocol.Transition{}, err
	}

	return protocol.Advance(variables.SelectBranch(scope, cfg.Conditions, DefaultHandle(cfg))), nil
}

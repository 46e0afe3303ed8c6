// Package setvariable assigns conversation variables.
package setvariable

import (
	"context"
	"fmt"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/protocol"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/variables"
)

type Handler struct{}

func NewHandler() protocol.NodeHandler {
	return &Handler{}
}

func (h *Handler) Type() models.NodeType {
	return models.NodeTypeSetVariable
}

func (h *Handler) Name() string {
	return "Set Variable"
}

func (h *Handler) Description() string {
	return "Applies ordered assignments: static values, interpolated expressions or copies of other variables."
}

func (h *Handler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"assignments": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"variableName": map[string]any{"type": "string", "minLength": 1},
						"valueType": map[string]any{
							"type": "string",
							"enum": []string{"static", "expression", "from_variable"},
						},
						"value": map[string]any{},
					},
					"required": []string{"variableName"},
				},
			},
		},
		"required": []string{"assignments"},
	}
}

func (h *Handler) Handle(_ context.Context, node *models.FlowNode, scope map[string]any, _ *protocol.Env) (protocol.Transition, error) {
	var cfg models.SetVariableConfig
	if err := node.DecodeConfig(&cfg); err != nil {
		return protocol.Transition{}, err
	}

	for _, assignment := range cfg.Assignments {
		if err := variables.Assign(scope, assignment.VariableName, resolve(assignment, scope)); err != nil {
			return protocol.Transition{}, fmt.Errorf("assignment to %q failed: %w", assignment.VariableName, err)
		}
	}

	return protocol.Advance(models.DefaultBranch), nil
}

func resolve(assignment models.VariableAssignment, scope map[string]any) any {
	switch assignment.ValueType {
	case models.ValueTypeExpression:
		if assignment.Value == nil {
			return ""
		}

		return variables.Interpolate(variables.Stringify(assignment.Value), scope)
	case models.ValueTypeFromVariable:
		source, ok := assignment.Value.(string)
		if !ok {
			return nil
		}

		value, found := variables.Lookup(scope, source)
		if !found {
			return nil
		}

		return value
	default:
		return assignment.Value
	}
}

// Package loop provides bounded iteration over count, while and foreach rules.
package loop

import (
	"context"
	"fmt"
	"strings"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/protocol"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/variables"
)

const (
	OutputPortLoop = "loop"
	OutputPortDone = "done"

	DefaultMaxIterations = 100
	DefaultItemVariable  = "item"
	IndexVariable        = "loop_index"
)

type Handler struct{}

func NewHandler() protocol.NodeHandler {
	return &Handler{}
}

func (h *Handler) Type() models.NodeType {
	return models.NodeTypeLoop
}

func (h *Handler) Name() string {
	return "Loop"
}

func (h *Handler) Description() string {
	return "Repeats the 'loop' branch until the rule stops holding or maxIterations is reached, then follows 'done'."
}

func (h *Handler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"loopType":      map[string]any{"type": "string", "enum": []string{"count", "while", "foreach"}},
			"maxIterations": map[string]any{"type": "integer", "minimum": 0},
			"collection":    map[string]any{"type": "string"},
			"itemVariable":  map[string]any{"type": "string"},
			"condition": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"variable": map[string]any{"type": "string"},
					"operator": map[string]any{"type": "string"},
					"value":    map[string]any{},
				},
				"required": []string{"variable", "operator"},
			},
		},
		"required": []string{"loopType"},
	}
}

func (h *Handler) Handle(_ context.Context, node *models.FlowNode, scope map[string]any, env *protocol.Env) (protocol.Transition, error) {
	var cfg models.LoopConfig
	if err := node.DecodeConfig(&cfg); err != nil {
		return protocol.Transition{}, err
	}

	if env == nil || env.Counters == nil {
		return protocol.Transition{}, fmt.Errorf("loop node %s has no counter storage", node.ID)
	}

	limit := cfg.MaxIterations
	if limit <= 0 {
		limit = DefaultMaxIterations
	}

	counter := env.Counters[node.ID]
	proceed := counter < limit

	switch cfg.LoopType {
	case models.LoopTypeCount:
	case models.LoopTypeWhile:
		if cfg.Condition != nil {
			proceed = proceed && variables.EvaluateCondition(scope, *cfg.Condition)
		}
	case models.LoopTypeForeach:
		items := collection(scope, cfg.Collection)
		proceed = proceed && counter < len(items)

		if proceed {
			itemVariable := cfg.ItemVariable
			if itemVariable == "" {
				itemVariable = DefaultItemVariable
			}

			if err := variables.Assign(scope, itemVariable, items[counter]); err != nil {
				return protocol.Transition{}, err
			}
		}
	default:
		return protocol.Transition{}, fmt.Errorf("unknown loop type %q", cfg.LoopType)
	}

	if !proceed {
		delete(env.Counters, node.ID)

		return protocol.Advance(OutputPortDone), nil
	}

	scope[IndexVariable] = counter
	env.Counters[node.ID] = counter + 1

	return protocol.Advance(OutputPortLoop), nil
}

// collection resolves a path, optionally written as a {{placeholder}}, to a list.
func collection(scope map[string]any, path string) []any {
	path = strings.TrimSpace(path)
	path = strings.TrimSuffix(strings.TrimPrefix(path, "{{"), "}}")

	value, ok := variables.Lookup(scope, path)
	if !ok {
		return nil
	}

	items, _ := value.([]any)

	return items
}

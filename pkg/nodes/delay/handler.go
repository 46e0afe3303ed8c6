// Package delay suspends a flow for a fixed number of seconds.
package delay

import (
	"context"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/protocol"
)

type Handler struct{}

func NewHandler() protocol.NodeHandler {
	return &Handler{}
}

func (h *Handler) Type() models.NodeType {
	return models.NodeTypeDelay
}

func (h *Handler) Name() string {
	return "Delay"
}

func (h *Handler) Description() string {
	return "Waits before continuing. The flow is resumed by the scheduler, nothing sleeps in process."
}

func (h *Handler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"delaySeconds": map[string]any{"type": "integer", "minimum": 0},
		},
		"required": []string{"delaySeconds"},
	}
}

func (h *Handler) Handle(_ context.Context, node *models.FlowNode, _ map[string]any, _ *protocol.Env) (protocol.Transition, error) {
	var cfg models.DelayConfig
	if err := node.DecodeConfig(&cfg); err != nil {
		return protocol.Transition{}, err
	}

	if cfg.DelaySeconds <= 0 {
		return protocol.Advance(models.DefaultBranch), nil
	}

	return protocol.Sleep(time.Duration(cfg.DelaySeconds) * time.Second), nil
}

// Package message provides the outbound message nodes: text, image,
// reply buttons and lists.
package message

import (
	"context"
	"errors"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/protocol"
)

var ErrNoGateway = errors.New("no messaging gateway configured")

// deliver runs send and turns gateway failures into runtime node errors.
func deliver(
	ctx context.Context,
	node *models.FlowNode,
	scope map[string]any,
	env *protocol.Env,
	send func(gateway protocol.MessagingGateway) (protocol.DeliveryResult, error),
) (protocol.Transition, error) {
	if env == nil || env.Gateway == nil {
		return protocol.Transition{}, protocol.NewRuntimeNodeError(node, ErrNoGateway)
	}

	result, err := send(env.Gateway)
	if err != nil {
		return protocol.Transition{}, protocol.NewRuntimeNodeError(node, err)
	}

	if result.MessageID != "" {
		scope["last_sent_message_id"] = result.MessageID
	}

	return protocol.Advance(models.DefaultBranch), nil
}

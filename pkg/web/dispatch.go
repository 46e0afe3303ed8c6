package web

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/eventbus"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/events"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/workflow"
)

// InboundDispatcher hands a parsed inbound message to the engine.
type InboundDispatcher interface {
	Dispatch(ctx context.Context, message models.InboundMessage) error
}

// EventBusDispatcher publishes inbound messages for the engine worker,
// keyed by conversation so one conversation stays on one partition.
type EventBusDispatcher struct {
	publisher eventbus.EventPublisher
}

func NewEventBusDispatcher(publisher eventbus.EventPublisher) *EventBusDispatcher {
	return &EventBusDispatcher{publisher: publisher}
}

func (d *EventBusDispatcher) Dispatch(ctx context.Context, message models.InboundMessage) error {
	event := events.InboundMessageReceived{
		BaseEvent: events.NewBaseEvent(events.InboundMessageReceivedEvent, ""),
		Message:   message,
	}

	if err := d.publisher.Publish(ctx, message.Key().String(), event); err != nil {
		return fmt.Errorf("failed to publish inbound message %s: %w", message.MessageID, err)
	}

	return nil
}

// InboundHandler is the engine entry point used by EngineDispatcher.
type InboundHandler interface {
	HandleInboundMessage(ctx context.Context, message models.InboundMessage) workflow.Outcome
}

// EngineDispatcher runs the engine in the request goroutine.
type EngineDispatcher struct {
	engine InboundHandler
	logger *slog.Logger
}

func NewEngineDispatcher(logger *slog.Logger, engine InboundHandler) *EngineDispatcher {
	return &EngineDispatcher{engine: engine, logger: logger.With("module", "engine_dispatcher")}
}

// Dispatch never fails: engine outcomes are logged, not reported to the sender.
func (d *EngineDispatcher) Dispatch(ctx context.Context, message models.InboundMessage) error {
	outcome := d.engine.HandleInboundMessage(context.WithoutCancel(ctx), message)

	d.logger.DebugContext(ctx, "Inbound message handled",
		"message_id", message.MessageID,
		"channel_id", message.ChannelID,
		"outcome", outcome)

	return nil
}

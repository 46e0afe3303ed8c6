package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/events"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

var ErrUnknownEventType = errors.New("unknown event type")

type WatermillEventBus struct {
	logger        *slog.Logger
	publisher     message.Publisher
	subscriber    message.Subscriber
	mu            sync.RWMutex
	subscriptions map[events.EventType]EventHandler
}

func NewWatermillEventBus(logger *slog.Logger, pub message.Publisher, sub message.Subscriber) *WatermillEventBus {
	return &WatermillEventBus{
		logger:        logger.With("module", "eventbus"),
		publisher:     pub,
		subscriber:    sub,
		subscriptions: make(map[events.EventType]EventHandler),
	}
}

func (eb *WatermillEventBus) GenerateID() string {
	return watermill.NewULID()
}

// Publish sends event to the shared topic. The key is kept in metadata and
// used as the partition key by the Kafka marshaler, so one conversation is
// always consumed in order.
func (eb *WatermillEventBus) Publish(ctx context.Context, key string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event.GetType(), err)
	}

	msg := message.NewMessage("msg-"+eb.GenerateID(), payload)
	msg.Metadata.Set(events.EventMetadataKey, key)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	for k, v := range carrier {
		msg.Metadata.Set(k, v)
	}

	eb.logger.DebugContext(ctx, "publishing event", "key", key, "event_type", event.GetType())

	return eb.publisher.Publish(events.Topic, msg)
}

func (eb *WatermillEventBus) Subscribe(ctx context.Context) error {
	messages, err := eb.subscriber.Subscribe(ctx, events.Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			eb.dispatch(ctx, msg)
		}
	}()

	return nil
}

func (eb *WatermillEventBus) dispatch(ctx context.Context, msg *message.Message) {
	eventType := events.EventType(msg.Metadata.Get(events.EventTypeMetadataKey))

	eb.mu.RLock()
	handler, exists := eb.subscriptions[eventType]
	eb.mu.RUnlock()

	if !exists {
		msg.Ack()

		return
	}

	event, err := Decode(eventType, msg.Payload)
	if err != nil {
		// A poison message would be redelivered forever.
		eb.logger.ErrorContext(ctx, "dropping undecodable event", "event_type", eventType, "error", err)
		msg.Ack()

		return
	}

	msgCtx := otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(msg.Metadata))

	if err := handler(msgCtx, event); err != nil {
		eb.logger.ErrorContext(msgCtx, "failed to handle event", "event_type", eventType, "error", err)
		msg.Nack()

		return
	}

	msg.Ack()
}

func (eb *WatermillEventBus) Handle(eventType events.EventType, handler EventHandler) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscriptions[eventType] = handler

	return nil
}

func (eb *WatermillEventBus) Close() error {
	err := eb.publisher.Close()
	if err != nil {
		return err
	}

	return eb.subscriber.Close()
}

// Decode unmarshals payload into the struct registered for eventType.
func Decode(eventType events.EventType, payload []byte) (any, error) {
	var event any

	switch eventType {
	case events.InboundMessageReceivedEvent:
		event = &events.InboundMessageReceived{}
	case events.ExecutionResumeRequestedEvent:
		event = &events.ExecutionResumeRequested{}
	case events.ExecutionStartedEvent:
		event = &events.ExecutionStarted{}
	case events.ExecutionSuspendedEvent:
		event = &events.ExecutionSuspended{}
	case events.ExecutionResumedEvent:
		event = &events.ExecutionResumed{}
	case events.ExecutionCompletedEvent:
		event = &events.ExecutionCompleted{}
	case events.ExecutionFailedEvent:
		event = &events.ExecutionFailed{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, eventType)
	}

	if err := json.Unmarshal(payload, event); err != nil {
		return nil, err
	}

	return event, nil
}

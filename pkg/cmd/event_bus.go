package cmd

import (
	"fmt"
	"log/slog"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/channels/gochannel"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/channels/kafka"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/eventbus"
	"github.com/ThreeDotsLabs/watermill"
)

const DefaultConsumerGroup = "chatflow"

// NewEventBus builds the bus for provider ("kafka" or "gochannel").
func NewEventBus(logger *slog.Logger, provider string, brokers []string, consumerGroup string) (eventbus.EventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "kafka":
		if consumerGroup == "" {
			consumerGroup = DefaultConsumerGroup
		}

		pub, sub, err := kafka.CreateChannel(wmLogger, brokers, consumerGroup)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(logger, pub, sub), nil
	case "gochannel", "":
		pub, sub, err := gochannel.CreateChannel(wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-process pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(logger, pub, sub), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEventBus, provider)
	}
}

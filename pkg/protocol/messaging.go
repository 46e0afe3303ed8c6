package protocol

import (
	"context"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
)

// DeliveryResult identifies a message accepted by the transport.
type DeliveryResult struct {
	MessageID string `json:"message_id"`
}

// MessagingGateway delivers outbound messages on behalf of a channel.
type MessagingGateway interface {
	SendText(ctx context.Context, channel *models.Channel, to, text string) (DeliveryResult, error)
	SendImage(ctx context.Context, channel *models.Channel, to, imageURL, caption string) (DeliveryResult, error)
	SendButtons(ctx context.Context, channel *models.Channel, to string, message models.SendButtonsConfig) (DeliveryResult, error)
	SendList(ctx context.Context, channel *models.Channel, to string, message models.SendListConfig) (DeliveryResult, error)
	MarkAsRead(ctx context.Context, channel *models.Channel, messageID string) error
}

// Scheduler re-delivers a resume request once its due time has passed.
type Scheduler interface {
	Schedule(ctx context.Context, request models.ResumeRequest) error
}

package mocks

import (
	"context"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/protocol"
	"github.com/stretchr/testify/mock"
)

// MockMessagingGateway is a mock implementation of protocol.MessagingGateway interface.
type MockMessagingGateway struct {
	mock.Mock
}

func (m *MockMessagingGateway) SendText(ctx context.Context, channel *models.Channel, to, text string) (protocol.DeliveryResult, error) {
	args := m.Called(ctx, channel, to, text)

	return args.Get(0).(protocol.DeliveryResult), args.Error(1)
}

func (m *MockMessagingGateway) SendImage(ctx context.Context, channel *models.Channel, to, imageURL, caption string) (protocol.DeliveryResult, error) {
	args := m.Called(ctx, channel, to, imageURL, caption)

	return args.Get(0).(protocol.DeliveryResult), args.Error(1)
}

func (m *MockMessagingGateway) SendButtons(ctx context.Context, channel *models.Channel, to string, message models.SendButtonsConfig) (protocol.DeliveryResult, error) {
	args := m.Called(ctx, channel, to, message)

	return args.Get(0).(protocol.DeliveryResult), args.Error(1)
}

func (m *MockMessagingGateway) SendList(ctx context.Context, channel *models.Channel, to string, message models.SendListConfig) (protocol.DeliveryResult, error) {
	args := m.Called(ctx, channel, to, message)

	return args.Get(0).(protocol.DeliveryResult), args.Error(1)
}

func (m *MockMessagingGateway) MarkAsRead(ctx context.Context, channel *models.Channel, messageID string) error {
	args := m.Called(ctx, channel, messageID)

	return args.Error(0)
}

// MockScheduler is a mock implementation of protocol.Scheduler interface.
type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Schedule(ctx context.Context, request models.ResumeRequest) error {
	args := m.Called(ctx, request)

	return args.Error(0)
}

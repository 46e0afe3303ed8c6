package mocks

import (
	"context"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockPersistence is a mock implementation of persistence.Persistence. The
// repository accessors return the embedded mocks.
type MockPersistence struct {
	mock.Mock

	Flows      *MockFlowRepository
	Channels   *MockChannelRepository
	Executions *MockExecutionStateRepository
	Processed  *MockProcessedMessageRepository
}

var _ persistence.Persistence = (*MockPersistence)(nil)

func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		Flows:      &MockFlowRepository{},
		Channels:   &MockChannelRepository{},
		Executions: &MockExecutionStateRepository{},
		Processed:  &MockProcessedMessageRepository{},
	}
}

func (m *MockPersistence) FlowRepository() persistence.FlowRepository {
	return m.Flows
}

func (m *MockPersistence) ChannelRepository() persistence.ChannelRepository {
	return m.Channels
}

func (m *MockPersistence) ExecutionStateRepository() persistence.ExecutionStateRepository {
	return m.Executions
}

func (m *MockPersistence) ProcessedMessageRepository() persistence.ProcessedMessageRepository {
	return m.Processed
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

// AssertExpectations checks the persistence mock and every repository mock.
func (m *MockPersistence) AssertExpectations(t mock.TestingT) bool {
	return m.Mock.AssertExpectations(t) &&
		m.Flows.AssertExpectations(t) &&
		m.Channels.AssertExpectations(t) &&
		m.Executions.AssertExpectations(t) &&
		m.Processed.AssertExpectations(t)
}

// MockFlowRepository is a mock implementation of persistence.FlowRepository interface.
type MockFlowRepository struct {
	mock.Mock
}

func (m *MockFlowRepository) Flows(ctx context.Context) ([]*models.Flow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Flow), args.Error(1)
}

func (m *MockFlowRepository) FlowByID(ctx context.Context, id string) (*models.Flow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Flow), args.Error(1)
}

func (m *MockFlowRepository) ActiveFlows(ctx context.Context, channelID string) ([]*models.Flow, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Flow), args.Error(1)
}

func (m *MockFlowRepository) SaveFlow(ctx context.Context, flow *models.Flow) error {
	args := m.Called(ctx, flow)

	return args.Error(0)
}

func (m *MockFlowRepository) DeleteFlow(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockChannelRepository is a mock implementation of persistence.ChannelRepository interface.
type MockChannelRepository struct {
	mock.Mock
}

func (m *MockChannelRepository) Channels(ctx context.Context) ([]*models.Channel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Channel), args.Error(1)
}

func (m *MockChannelRepository) ChannelByID(ctx context.Context, id string) (*models.Channel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Channel), args.Error(1)
}

func (m *MockChannelRepository) SaveChannel(ctx context.Context, channel *models.Channel) error {
	args := m.Called(ctx, channel)

	return args.Error(0)
}

// MockExecutionStateRepository is a mock implementation of persistence.ExecutionStateRepository interface.
type MockExecutionStateRepository struct {
	mock.Mock
}

func (m *MockExecutionStateRepository) Get(ctx context.Context, key models.ExecutionKey) (*models.ExecutionState, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.ExecutionState), args.Error(1)
}

func (m *MockExecutionStateRepository) Save(ctx context.Context, state *models.ExecutionState) error {
	args := m.Called(ctx, state)

	return args.Error(0)
}

func (m *MockExecutionStateRepository) Delete(ctx context.Context, key models.ExecutionKey) error {
	args := m.Called(ctx, key)

	return args.Error(0)
}

func (m *MockExecutionStateRepository) AcquireLease(ctx context.Context, key models.ExecutionKey, owner string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, owner, ttl)

	return args.Bool(0), args.Error(1)
}

func (m *MockExecutionStateRepository) ReleaseLease(ctx context.Context, key models.ExecutionKey, owner string) error {
	args := m.Called(ctx, key, owner)

	return args.Error(0)
}

// MockProcessedMessageRepository is a mock implementation of persistence.ProcessedMessageRepository interface.
type MockProcessedMessageRepository struct {
	mock.Mock
}

func (m *MockProcessedMessageRepository) Has(ctx context.Context, messageID string) (bool, error) {
	args := m.Called(ctx, messageID)

	return args.Bool(0), args.Error(1)
}

func (m *MockProcessedMessageRepository) Put(ctx context.Context, messageID string) (bool, error) {
	args := m.Called(ctx, messageID)

	return args.Bool(0), args.Error(1)
}

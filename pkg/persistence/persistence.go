// Package persistence provides the storage contracts used by the flow engine.
package persistence

import (
	"context"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
)

type Persistence interface {
	FlowRepository() FlowRepository
	ChannelRepository() ChannelRepository
	ExecutionStateRepository() ExecutionStateRepository
	ProcessedMessageRepository() ProcessedMessageRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// FlowRepository stores flow graphs.
type FlowRepository interface {
	Flows(ctx context.Context) ([]*models.Flow, error)
	FlowByID(ctx context.Context, id string) (*models.Flow, error)
	// ActiveFlows returns the active and published flows of a channel ordered
	// by descending priority, most recently updated first on ties.
	ActiveFlows(ctx context.Context, channelID string) ([]*models.Flow, error)
	SaveFlow(ctx context.Context, flow *models.Flow) error
	DeleteFlow(ctx context.Context, id string) error
}

// ChannelRepository stores messaging channel credentials.
type ChannelRepository interface {
	Channels(ctx context.Context) ([]*models.Channel, error)
	ChannelByID(ctx context.Context, id string) (*models.Channel, error)
	SaveChannel(ctx context.Context, channel *models.Channel) error
}

// ExecutionStateRepository stores one execution cursor per conversation key.
type ExecutionStateRepository interface {
	Get(ctx context.Context, key models.ExecutionKey) (*models.ExecutionState, error)
	// Save writes state if the stored version (zero when absent) equals
	// state.Version and increments state.Version. It returns ErrVersionConflict otherwise.
	Save(ctx context.Context, state *models.ExecutionState) error
	Delete(ctx context.Context, key models.ExecutionKey) error

	// AcquireLease grants owner exclusive use of key for ttl. Re-acquiring an
	// owned lease extends it.
	AcquireLease(ctx context.Context, key models.ExecutionKey, owner string, ttl time.Duration) (bool, error)
	ReleaseLease(ctx context.Context, key models.ExecutionKey, owner string) error
}

// ProcessedMessageRepository remembers which inbound message ids were handled.
type ProcessedMessageRepository interface {
	Has(ctx context.Context, messageID string) (bool, error)
	// Put records messageID and reports whether this call inserted it.
	Put(ctx context.Context, messageID string) (bool, error)
}

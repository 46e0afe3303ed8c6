// Package redis provides a Redis-backed persistence implementation suited to
// multi-process deployments.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence"
	rd "github.com/redis/go-redis/v9"
)

const (
	// DefaultNamespace prefixes every key written by the store.
	DefaultNamespace = "chatflow"
	// DefaultProcessedTTL bounds how long processed message ids are remembered.
	DefaultProcessedTTL = 7 * 24 * time.Hour
)

// Persistence implements persistence.Persistence on top of a Redis client.
type Persistence struct {
	client        rd.UniversalClient
	logger        *slog.Logger
	flowRepo      *FlowRepository
	channelRepo   *ChannelRepository
	executionRepo *ExecutionStateRepository
	processedRepo *ProcessedMessageRepository
}

// NewPersistence connects to the Redis server at redisURL and verifies it answers.
func NewPersistence(ctx context.Context, logger *slog.Logger, redisURL string) (*Persistence, error) {
	options, err := rd.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := rd.NewClient(options)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewPersistenceWithClient(logger, client, DefaultNamespace), nil
}

// NewPersistenceWithClient wraps an existing client, prefixing keys with namespace.
func NewPersistenceWithClient(logger *slog.Logger, client rd.UniversalClient, namespace string) *Persistence {
	keys := keyspace{namespace: namespace}

	return &Persistence{
		client:        client,
		logger:        logger,
		flowRepo:      &FlowRepository{client: client, keys: keys, logger: logger},
		channelRepo:   &ChannelRepository{client: client, keys: keys, logger: logger},
		executionRepo: &ExecutionStateRepository{client: client, keys: keys},
		processedRepo: &ProcessedMessageRepository{client: client, keys: keys, ttl: DefaultProcessedTTL},
	}
}

func (p *Persistence) FlowRepository() persistence.FlowRepository {
	return p.flowRepo
}

func (p *Persistence) ChannelRepository() persistence.ChannelRepository {
	return p.channelRepo
}

func (p *Persistence) ExecutionStateRepository() persistence.ExecutionStateRepository {
	return p.executionRepo
}

func (p *Persistence) ProcessedMessageRepository() persistence.ProcessedMessageRepository {
	return p.processedRepo
}

// Client exposes the underlying connection so other components can share it.
func (p *Persistence) Client() rd.UniversalClient {
	return p.client
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	if err := p.client.Close(); err != nil && !errors.Is(err, rd.ErrClosed) {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}

type keyspace struct {
	namespace string
}

func (k keyspace) flow(id string) string { return k.namespace + ":flow:" + id }

func (k keyspace) flows() string { return k.namespace + ":flows" }

func (k keyspace) channelFlows(channelID string) string {
	return k.namespace + ":channel:" + channelID + ":flows"
}

func (k keyspace) channel(id string) string { return k.namespace + ":channel:" + id }

func (k keyspace) channels() string { return k.namespace + ":channels" }

func (k keyspace) execution(key string) string { return k.namespace + ":execution:" + key }

func (k keyspace) lease(key string) string { return k.namespace + ":lease:" + key }

func (k keyspace) processed(id string) string { return k.namespace + ":processed:" + id }

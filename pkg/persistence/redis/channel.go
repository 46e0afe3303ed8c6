package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence"
	rd "github.com/redis/go-redis/v9"
)

// ChannelRepository stores channels as JSON strings.
type ChannelRepository struct {
	client rd.UniversalClient
	keys   keyspace
	logger *slog.Logger
}

func (r *ChannelRepository) Channels(ctx context.Context) ([]*models.Channel, error) {
	ids, err := r.client.SMembers(ctx, r.keys.channels()).Result()
	if err != nil {
		return nil, persistence.NewError("Channels", "", err)
	}

	channels := make([]*models.Channel, 0, len(ids))

	for _, id := range ids {
		channel, err := r.ChannelByID(ctx, id)
		if persistence.IsChannelNotFound(err) {
			continue
		}

		if err != nil {
			return nil, err
		}

		channels = append(channels, channel)
	}

	return channels, nil
}

func (r *ChannelRepository) ChannelByID(ctx context.Context, id string) (*models.Channel, error) {
	raw, err := r.client.Get(ctx, r.keys.channel(id)).Bytes()
	if errors.Is(err, rd.Nil) {
		return nil, persistence.NewError("ChannelByID", id, persistence.ErrChannelNotFound)
	}

	if err != nil {
		return nil, persistence.NewError("ChannelByID", id, err)
	}

	var channel models.Channel
	if err := json.Unmarshal(raw, &channel); err != nil {
		return nil, persistence.NewError("ChannelByID", id, fmt.Errorf("failed to unmarshal channel: %w", err))
	}

	return &channel, nil
}

func (r *ChannelRepository) SaveChannel(ctx context.Context, channel *models.Channel) error {
	if channel.ID == "" {
		return persistence.NewError("SaveChannel", "", persistence.ErrInvalidID)
	}

	now := time.Now().UTC()
	if channel.CreatedAt.IsZero() {
		channel.CreatedAt = now
	}

	channel.UpdatedAt = now

	data, err := json.Marshal(channel)
	if err != nil {
		return persistence.NewError("SaveChannel", channel.ID, fmt.Errorf("failed to marshal channel: %w", err))
	}

	_, err = r.client.TxPipelined(ctx, func(pipe rd.Pipeliner) error {
		pipe.Set(ctx, r.keys.channel(channel.ID), data, 0)
		pipe.SAdd(ctx, r.keys.channels(), channel.ID)

		return nil
	})
	if err != nil {
		return persistence.NewError("SaveChannel", channel.ID, err)
	}

	return nil
}

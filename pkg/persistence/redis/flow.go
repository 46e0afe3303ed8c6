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
	"github.com/google/uuid"
	rd "github.com/redis/go-redis/v9"
)

// FlowRepository stores each flow as a JSON string and indexes ids per channel.
type FlowRepository struct {
	client rd.UniversalClient
	keys   keyspace
	logger *slog.Logger
}

func (r *FlowRepository) Flows(ctx context.Context) ([]*models.Flow, error) {
	ids, err := r.client.SMembers(ctx, r.keys.flows()).Result()
	if err != nil {
		return nil, persistence.NewError("Flows", "", err)
	}

	return r.load(ctx, "Flows", ids)
}

func (r *FlowRepository) ActiveFlows(ctx context.Context, channelID string) ([]*models.Flow, error) {
	ids, err := r.client.SMembers(ctx, r.keys.channelFlows(channelID)).Result()
	if err != nil {
		return nil, persistence.NewError("ActiveFlows", channelID, err)
	}

	flows, err := r.load(ctx, "ActiveFlows", ids)
	if err != nil {
		return nil, err
	}

	active := make([]*models.Flow, 0, len(flows))

	for _, flow := range flows {
		if flow.ChannelID == channelID && flow.Runnable() {
			active = append(active, flow)
		}
	}

	models.SortByPriority(active)

	return active, nil
}

func (r *FlowRepository) load(ctx context.Context, op string, ids []string) ([]*models.Flow, error) {
	if len(ids) == 0 {
		return []*models.Flow{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.keys.flow(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, persistence.NewError(op, "", err)
	}

	flows := make([]*models.Flow, 0, len(values))

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}

		var flow models.Flow
		if err := json.Unmarshal([]byte(raw), &flow); err != nil {
			r.logger.WarnContext(ctx, "skipping unreadable flow", "flow_id", ids[i], "error", err)

			continue
		}

		flows = append(flows, &flow)
	}

	return flows, nil
}

func (r *FlowRepository) FlowByID(ctx context.Context, id string) (*models.Flow, error) {
	raw, err := r.client.Get(ctx, r.keys.flow(id)).Bytes()
	if errors.Is(err, rd.Nil) {
		return nil, persistence.NewError("FlowByID", id, persistence.ErrFlowNotFound)
	}

	if err != nil {
		return nil, persistence.NewError("FlowByID", id, err)
	}

	var flow models.Flow
	if err := json.Unmarshal(raw, &flow); err != nil {
		return nil, persistence.NewError("FlowByID", id, fmt.Errorf("failed to unmarshal flow: %w", err))
	}

	return &flow, nil
}

// SaveFlow writes the flow and moves its id to the index of its current channel.
func (r *FlowRepository) SaveFlow(ctx context.Context, flow *models.Flow) error {
	now := time.Now().UTC()
	if flow.CreatedAt.IsZero() {
		flow.CreatedAt = now
	}

	flow.UpdatedAt = now

	if flow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate flow ID: %w", err)
		}

		flow.ID = id.String()
	}

	previous, err := r.FlowByID(ctx, flow.ID)
	if err != nil && !persistence.IsFlowNotFound(err) {
		return err
	}

	data, err := json.Marshal(flow)
	if err != nil {
		return persistence.NewError("SaveFlow", flow.ID, fmt.Errorf("failed to marshal flow: %w", err))
	}

	_, err = r.client.TxPipelined(ctx, func(pipe rd.Pipeliner) error {
		if previous != nil && previous.ChannelID != flow.ChannelID {
			pipe.SRem(ctx, r.keys.channelFlows(previous.ChannelID), flow.ID)
		}

		pipe.Set(ctx, r.keys.flow(flow.ID), data, 0)
		pipe.SAdd(ctx, r.keys.flows(), flow.ID)
		pipe.SAdd(ctx, r.keys.channelFlows(flow.ChannelID), flow.ID)

		return nil
	})
	if err != nil {
		return persistence.NewError("SaveFlow", flow.ID, err)
	}

	return nil
}

func (r *FlowRepository) DeleteFlow(ctx context.Context, id string) error {
	flow, err := r.FlowByID(ctx, id)
	if persistence.IsFlowNotFound(err) {
		return nil
	}

	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe rd.Pipeliner) error {
		pipe.Del(ctx, r.keys.flow(id))
		pipe.SRem(ctx, r.keys.flows(), id)
		pipe.SRem(ctx, r.keys.channelFlows(flow.ChannelID), id)

		return nil
	})
	if err != nil {
		return persistence.NewError("DeleteFlow", id, err)
	}

	return nil
}

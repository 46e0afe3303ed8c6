package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence"
	"github.com/google/uuid"
)

const flowColumns = `
	id
  , name
  , channel_id
  , trigger_type
  , trigger_value
  , nodes
  , edges
  , is_active
  , is_published
  , priority
  , created_at
  , updated_at
`

// FlowRepository handles flow-related database operations.
type FlowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewFlowRepository creates a new flow repository.
func NewFlowRepository(db *sql.DB, logger *slog.Logger) *FlowRepository {
	return &FlowRepository{db: db, logger: logger}
}

// Flows returns every stored flow, newest first.
func (r *FlowRepository) Flows(ctx context.Context) ([]*models.Flow, error) {
	query := `SELECT ` + flowColumns + ` FROM flows ORDER BY created_at DESC`

	return r.query(ctx, "Flows", query)
}

// ActiveFlows returns the runnable flows of a channel in trigger priority order.
func (r *FlowRepository) ActiveFlows(ctx context.Context, channelID string) ([]*models.Flow, error) {
	query := `SELECT ` + flowColumns + `
		FROM flows
		WHERE channel_id = $1 AND is_active AND is_published
		ORDER BY priority DESC, updated_at DESC
	`

	return r.query(ctx, "ActiveFlows", query, channelID)
}

func (r *FlowRepository) query(ctx context.Context, op, query string, args ...any) ([]*models.Flow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistence.NewError(op, "", fmt.Errorf("failed to query flows: %w", err))
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	flows := make([]*models.Flow, 0)

	for rows.Next() {
		flow, err := scanFlow(rows)
		if err != nil {
			return nil, persistence.NewError(op, "", err)
		}

		flows = append(flows, flow)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewError(op, "", fmt.Errorf("error iterating flows: %w", err))
	}

	return flows, nil
}

func (r *FlowRepository) FlowByID(ctx context.Context, id string) (*models.Flow, error) {
	query := `SELECT ` + flowColumns + ` FROM flows WHERE id = $1`

	flow, err := scanFlow(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewError("FlowByID", id, persistence.ErrFlowNotFound)
	}

	if err != nil {
		return nil, persistence.NewError("FlowByID", id, err)
	}

	return flow, nil
}

// SaveFlow upserts a flow, generating an id when missing.
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

	nodesJSON, err := json.Marshal(nonNil(flow.Nodes))
	if err != nil {
		return persistence.NewError("SaveFlow", flow.ID, fmt.Errorf("failed to marshal nodes: %w", err))
	}

	edgesJSON, err := json.Marshal(nonNil(flow.Edges))
	if err != nil {
		return persistence.NewError("SaveFlow", flow.ID, fmt.Errorf("failed to marshal edges: %w", err))
	}

	query := `
		INSERT INTO flows (` + flowColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			channel_id = EXCLUDED.channel_id,
			trigger_type = EXCLUDED.trigger_type,
			trigger_value = EXCLUDED.trigger_value,
			nodes = EXCLUDED.nodes,
			edges = EXCLUDED.edges,
			is_active = EXCLUDED.is_active,
			is_published = EXCLUDED.is_published,
			priority = EXCLUDED.priority,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		flow.ID,
		flow.Name,
		flow.ChannelID,
		flow.Trigger.Type,
		flow.Trigger.Value,
		nodesJSON,
		edgesJSON,
		flow.IsActive,
		flow.IsPublished,
		flow.Priority,
		flow.CreatedAt,
		flow.UpdatedAt,
	)
	if err != nil {
		return persistence.NewError("SaveFlow", flow.ID, fmt.Errorf("failed to save flow: %w", err))
	}

	return nil
}

func (r *FlowRepository) DeleteFlow(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM flows WHERE id = $1`, id)
	if err != nil {
		return persistence.NewError("DeleteFlow", id, fmt.Errorf("failed to delete flow: %w", err))
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFlow(row scanner) (*models.Flow, error) {
	var (
		flow      models.Flow
		nodesJSON []byte
		edgesJSON []byte
	)

	err := row.Scan(
		&flow.ID,
		&flow.Name,
		&flow.ChannelID,
		&flow.Trigger.Type,
		&flow.Trigger.Value,
		&nodesJSON,
		&edgesJSON,
		&flow.IsActive,
		&flow.IsPublished,
		&flow.Priority,
		&flow.CreatedAt,
		&flow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(nodesJSON, &flow.Nodes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal nodes: %w", err)
	}

	if err := json.Unmarshal(edgesJSON, &flow.Edges); err != nil {
		return nil, fmt.Errorf("failed to unmarshal edges: %w", err)
	}

	return &flow, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}

	return items
}

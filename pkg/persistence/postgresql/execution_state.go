package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence"
)

// ExecutionStateRepository stores execution cursors with optimistic versioning
// and keeps conversation leases in a table with an expiry column.
type ExecutionStateRepository struct {
	db *sql.DB
}

// NewExecutionStateRepository creates a new execution state repository.
func NewExecutionStateRepository(db *sql.DB) *ExecutionStateRepository {
	return &ExecutionStateRepository{db: db}
}

func (r *ExecutionStateRepository) Get(ctx context.Context, key models.ExecutionKey) (*models.ExecutionState, error) {
	query := `
		SELECT
			id
		  , conversation_id
		  , channel_id
		  , flow_id
		  , status
		  , current_node_id
		  , wait
		  , variables
		  , loop_counters
		  , version
		  , error_message
		  , created_at
		  , updated_at
		FROM execution_states
		WHERE conversation_id = $1 AND channel_id = $2
	`

	var (
		state         models.ExecutionState
		waitJSON      []byte
		variablesJSON []byte
		countersJSON  []byte
	)

	err := r.db.QueryRowContext(ctx, query, key.ConversationID, key.ChannelID).Scan(
		&state.ID,
		&state.ConversationID,
		&state.ChannelID,
		&state.FlowID,
		&state.Status,
		&state.CurrentNodeID,
		&waitJSON,
		&variablesJSON,
		&countersJSON,
		&state.Version,
		&state.ErrorMessage,
		&state.CreatedAt,
		&state.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewError("Get", key.String(), persistence.ErrExecutionStateNotFound)
	}

	if err != nil {
		return nil, persistence.NewError("Get", key.String(), fmt.Errorf("failed to scan execution state: %w", err))
	}

	if len(waitJSON) > 0 {
		if err := json.Unmarshal(waitJSON, &state.Wait); err != nil {
			return nil, persistence.NewError("Get", key.String(), fmt.Errorf("%w: wait: %w", persistence.ErrCorruptState, err))
		}
	}

	if err := json.Unmarshal(variablesJSON, &state.Variables); err != nil {
		return nil, persistence.NewError("Get", key.String(), fmt.Errorf("%w: variables: %w", persistence.ErrCorruptState, err))
	}

	if err := json.Unmarshal(countersJSON, &state.LoopCounters); err != nil {
		return nil, persistence.NewError("Get", key.String(), fmt.Errorf("%w: loop counters: %w", persistence.ErrCorruptState, err))
	}

	return &state, nil
}

// Save inserts the first version of a key or updates the row whose version
// matches state.Version.
func (r *ExecutionStateRepository) Save(ctx context.Context, state *models.ExecutionState) error {
	key := state.Key()

	// nil stores SQL NULL for states that are not suspended
	var waitJSON any

	if state.Wait != nil {
		encoded, err := json.Marshal(state.Wait)
		if err != nil {
			return persistence.NewError("Save", key.String(), fmt.Errorf("failed to marshal wait: %w", err))
		}

		waitJSON = encoded
	}

	variablesJSON, err := json.Marshal(nonNilMap(state.Variables))
	if err != nil {
		return persistence.NewError("Save", key.String(), fmt.Errorf("failed to marshal variables: %w", err))
	}

	countersJSON, err := json.Marshal(nonNilMap(state.LoopCounters))
	if err != nil {
		return persistence.NewError("Save", key.String(), fmt.Errorf("failed to marshal loop counters: %w", err))
	}

	now := time.Now().UTC()
	if state.CreatedAt.IsZero() {
		state.CreatedAt = now
	}

	next := state.Version + 1

	var result sql.Result

	if state.Version == 0 {
		result, err = r.db.ExecContext(ctx, `
			INSERT INTO execution_states (id, conversation_id, channel_id, flow_id, status,
				current_node_id, wait, variables, loop_counters, version, error_message, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (conversation_id, channel_id) DO NOTHING
		`,
			state.ID, state.ConversationID, state.ChannelID, state.FlowID, state.Status,
			state.CurrentNodeID, waitJSON, variablesJSON, countersJSON, next, state.ErrorMessage, state.CreatedAt, now,
		)
	} else {
		result, err = r.db.ExecContext(ctx, `
			UPDATE execution_states SET
				id = $3,
				flow_id = $4,
				status = $5,
				current_node_id = $6,
				wait = $7,
				variables = $8,
				loop_counters = $9,
				version = $10,
				error_message = $11,
				created_at = $12,
				updated_at = $13
			WHERE conversation_id = $1 AND channel_id = $2 AND version = $14
		`,
			state.ConversationID, state.ChannelID, state.ID, state.FlowID, state.Status,
			state.CurrentNodeID, waitJSON, variablesJSON, countersJSON, next, state.ErrorMessage, state.CreatedAt, now,
			state.Version,
		)
	}

	if err != nil {
		return persistence.NewError("Save", key.String(), fmt.Errorf("failed to save execution state: %w", err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewError("Save", key.String(), fmt.Errorf("failed to get rows affected: %w", err))
	}

	if affected == 0 {
		return persistence.NewError("Save", key.String(), persistence.ErrVersionConflict)
	}

	state.Version = next
	state.UpdatedAt = now

	return nil
}

func (r *ExecutionStateRepository) Delete(ctx context.Context, key models.ExecutionKey) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM execution_states WHERE conversation_id = $1 AND channel_id = $2`,
		key.ConversationID, key.ChannelID,
	)
	if err != nil {
		return persistence.NewError("Delete", key.String(), fmt.Errorf("failed to delete execution state: %w", err))
	}

	return nil
}

// AcquireLease takes the lease when it is free, expired or already held by owner.
func (r *ExecutionStateRepository) AcquireLease(ctx context.Context, key models.ExecutionKey, owner string, ttl time.Duration) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO execution_leases (lease_key, owner, expires_at)
		VALUES ($1, $2, NOW() + ($3::bigint * INTERVAL '1 millisecond'))
		ON CONFLICT (lease_key) DO UPDATE SET
			owner = EXCLUDED.owner,
			expires_at = EXCLUDED.expires_at
		WHERE execution_leases.owner = EXCLUDED.owner OR execution_leases.expires_at < NOW()
	`, key.String(), owner, ttl.Milliseconds())
	if err != nil {
		return false, persistence.NewError("AcquireLease", key.String(), fmt.Errorf("failed to acquire lease: %w", err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, persistence.NewError("AcquireLease", key.String(), fmt.Errorf("failed to get rows affected: %w", err))
	}

	return affected == 1, nil
}

func (r *ExecutionStateRepository) ReleaseLease(ctx context.Context, key models.ExecutionKey, owner string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM execution_leases WHERE lease_key = $1 AND owner = $2`,
		key.String(), owner,
	)
	if err != nil {
		return persistence.NewError("ReleaseLease", key.String(), fmt.Errorf("failed to release lease: %w", err))
	}

	return nil
}

func nonNilMap[V any](values map[string]V) map[string]V {
	if values == nil {
		return map[string]V{}
	}

	return values
}

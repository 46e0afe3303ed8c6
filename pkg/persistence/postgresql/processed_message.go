package postgresql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence"
)

// ProcessedMessageRepository records inbound message ids in a table keyed by id.
type ProcessedMessageRepository struct {
	db *sql.DB
}

// NewProcessedMessageRepository creates a new processed message repository.
func NewProcessedMessageRepository(db *sql.DB) *ProcessedMessageRepository {
	return &ProcessedMessageRepository{db: db}
}

func (r *ProcessedMessageRepository) Has(ctx context.Context, messageID string) (bool, error) {
	var exists bool

	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_messages WHERE message_id = $1)`, messageID,
	).Scan(&exists)
	if err != nil {
		return false, persistence.NewError("Has", messageID, fmt.Errorf("failed to query processed message: %w", err))
	}

	return exists, nil
}

func (r *ProcessedMessageRepository) Put(ctx context.Context, messageID string) (bool, error) {
	if messageID == "" {
		return false, persistence.NewError("Put", messageID, persistence.ErrInvalidID)
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO processed_messages (message_id) VALUES ($1) ON CONFLICT (message_id) DO NOTHING`, messageID,
	)
	if err != nil {
		return false, persistence.NewError("Put", messageID, fmt.Errorf("failed to record processed message: %w", err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, persistence.NewError("Put", messageID, fmt.Errorf("failed to get rows affected: %w", err))
	}

	return affected == 1, nil
}

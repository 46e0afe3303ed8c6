package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence"
)

const channelColumns = `
	id
  , name
  , phone_number_id
  , phone_number
  , access_token
  , verify_token
  , is_active
  , created_at
  , updated_at
`

// ChannelRepository handles channel-related database operations.
type ChannelRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewChannelRepository creates a new channel repository.
func NewChannelRepository(db *sql.DB, logger *slog.Logger) *ChannelRepository {
	return &ChannelRepository{db: db, logger: logger}
}

func (r *ChannelRepository) Channels(ctx context.Context) ([]*models.Channel, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+channelColumns+` FROM channels ORDER BY created_at`)
	if err != nil {
		return nil, persistence.NewError("Channels", "", fmt.Errorf("failed to query channels: %w", err))
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	channels := make([]*models.Channel, 0)

	for rows.Next() {
		channel, err := scanChannel(rows)
		if err != nil {
			return nil, persistence.NewError("Channels", "", err)
		}

		channels = append(channels, channel)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewError("Channels", "", fmt.Errorf("error iterating channels: %w", err))
	}

	return channels, nil
}

func (r *ChannelRepository) ChannelByID(ctx context.Context, id string) (*models.Channel, error) {
	channel, err := scanChannel(r.db.QueryRowContext(ctx, `SELECT `+channelColumns+` FROM channels WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewError("ChannelByID", id, persistence.ErrChannelNotFound)
	}

	if err != nil {
		return nil, persistence.NewError("ChannelByID", id, err)
	}

	return channel, nil
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

	query := `
		INSERT INTO channels (` + channelColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			phone_number_id = EXCLUDED.phone_number_id,
			phone_number = EXCLUDED.phone_number,
			access_token = EXCLUDED.access_token,
			verify_token = EXCLUDED.verify_token,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		channel.ID,
		channel.Name,
		channel.PhoneNumberID,
		channel.PhoneNumber,
		channel.AccessToken,
		channel.VerifyToken,
		channel.IsActive,
		channel.CreatedAt,
		channel.UpdatedAt,
	)
	if err != nil {
		return persistence.NewError("SaveChannel", channel.ID, fmt.Errorf("failed to save channel: %w", err))
	}

	return nil
}

func scanChannel(row scanner) (*models.Channel, error) {
	var channel models.Channel

	err := row.Scan(
		&channel.ID,
		&channel.Name,
		&channel.PhoneNumberID,
		&channel.PhoneNumber,
		&channel.AccessToken,
		&channel.VerifyToken,
		&channel.IsActive,
		&channel.CreatedAt,
		&channel.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &channel, nil
}

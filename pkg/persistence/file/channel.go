package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence"
)

// ChannelRepository handles channel file operations.
type ChannelRepository struct {
	root string
}

func (r *ChannelRepository) dir() string {
	return filepath.Join(r.root, channelsDir)
}

func (r *ChannelRepository) Channels(_ context.Context) ([]*models.Channel, error) {
	names, err := listJSON(r.dir())
	if err != nil {
		return nil, err
	}

	channels := make([]*models.Channel, 0, len(names))

	for _, name := range names {
		var channel models.Channel
		if err := readJSON(r.dir(), name, &channel); err != nil {
			continue
		}

		channels = append(channels, &channel)
	}

	return channels, nil
}

func (r *ChannelRepository) ChannelByID(_ context.Context, id string) (*models.Channel, error) {
	if err := validateID(id); err != nil {
		return nil, persistence.NewError("ChannelByID", id, err)
	}

	var channel models.Channel

	err := readJSON(r.dir(), id+".json", &channel)
	if errors.Is(err, os.ErrNotExist) {
		return nil, persistence.NewError("ChannelByID", id, persistence.ErrChannelNotFound)
	}

	if err != nil {
		return nil, persistence.NewError("ChannelByID", id, err)
	}

	return &channel, nil
}

func (r *ChannelRepository) SaveChannel(_ context.Context, channel *models.Channel) error {
	if err := validateID(channel.ID); err != nil {
		return persistence.NewError("SaveChannel", channel.ID, err)
	}

	now := time.Now().UTC()
	if channel.CreatedAt.IsZero() {
		channel.CreatedAt = now
	}

	channel.UpdatedAt = now

	if err := writeJSON(r.dir(), channel.ID+".json", channel); err != nil {
		return persistence.NewError("SaveChannel", channel.ID, err)
	}

	return nil
}

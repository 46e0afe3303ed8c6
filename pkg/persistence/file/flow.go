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

// FlowRepository handles flow file operations.
type FlowRepository struct {
	root string
}

func (r *FlowRepository) dir() string {
	return filepath.Join(r.root, flowsDir)
}

func (r *FlowRepository) Flows(ctx context.Context) ([]*models.Flow, error) {
	names, err := listJSON(r.dir())
	if err != nil {
		return nil, err
	}

	flows := make([]*models.Flow, 0, len(names))

	for _, name := range names {
		var flow models.Flow
		if err := readJSON(r.dir(), name, &flow); err != nil {
			// Skip invalid files
			continue
		}

		flows = append(flows, &flow)
	}

	return flows, nil
}

func (r *FlowRepository) FlowByID(_ context.Context, id string) (*models.Flow, error) {
	if err := validateID(id); err != nil {
		return nil, persistence.NewError("FlowByID", id, err)
	}

	var flow models.Flow

	err := readJSON(r.dir(), id+".json", &flow)
	if errors.Is(err, os.ErrNotExist) {
		return nil, persistence.NewError("FlowByID", id, persistence.ErrFlowNotFound)
	}

	if err != nil {
		return nil, persistence.NewError("FlowByID", id, err)
	}

	return &flow, nil
}

func (r *FlowRepository) ActiveFlows(ctx context.Context, channelID string) ([]*models.Flow, error) {
	flows, err := r.Flows(ctx)
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

func (r *FlowRepository) SaveFlow(_ context.Context, flow *models.Flow) error {
	if err := validateID(flow.ID); err != nil {
		return persistence.NewError("SaveFlow", flow.ID, err)
	}

	now := time.Now().UTC()
	if flow.CreatedAt.IsZero() {
		flow.CreatedAt = now
	}

	if flow.UpdatedAt.IsZero() {
		flow.UpdatedAt = now
	}

	if err := writeJSON(r.dir(), flow.ID+".json", flow); err != nil {
		return persistence.NewError("SaveFlow", flow.ID, err)
	}

	return nil
}

func (r *FlowRepository) DeleteFlow(_ context.Context, id string) error {
	if err := validateID(id); err != nil {
		return persistence.NewError("DeleteFlow", id, err)
	}

	err := os.Remove(filepath.Join(r.dir(), id+".json"))
	if errors.Is(err, os.ErrNotExist) {
		return persistence.NewError("DeleteFlow", id, persistence.ErrFlowNotFound)
	}

	return err
}

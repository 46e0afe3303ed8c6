package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence"
	"github.com/patrickmn/go-cache"
)

// ExecutionStateRepository stores one JSON file per conversation key. Leases
// live in an in-process TTL cache, so they only exclude passes of this process.
type ExecutionStateRepository struct {
	root   string
	mu     sync.Mutex
	leases *cache.Cache
}

func (r *ExecutionStateRepository) dir() string {
	return filepath.Join(r.root, executionsDir)
}

func fileName(key models.ExecutionKey) (string, error) {
	if err := validateID(key.ChannelID); err != nil {
		return "", err
	}

	if err := validateID(key.ConversationID); err != nil {
		return "", err
	}

	return key.ChannelID + "__" + key.ConversationID + ".json", nil
}

func (r *ExecutionStateRepository) Get(_ context.Context, key models.ExecutionKey) (*models.ExecutionState, error) {
	name, err := fileName(key)
	if err != nil {
		return nil, persistence.NewError("Get", key.String(), err)
	}

	return r.read(name, key)
}

func (r *ExecutionStateRepository) read(name string, key models.ExecutionKey) (*models.ExecutionState, error) {
	var state models.ExecutionState

	err := readJSON(r.dir(), name, &state)
	if errors.Is(err, os.ErrNotExist) {
		return nil, persistence.NewError("Get", key.String(), persistence.ErrExecutionStateNotFound)
	}

	if errors.Is(err, errUndecodable) {
		return nil, persistence.NewError("Get", key.String(), fmt.Errorf("%w: %w", persistence.ErrCorruptState, err))
	}

	if err != nil {
		return nil, persistence.NewError("Get", key.String(), err)
	}

	return &state, nil
}

func (r *ExecutionStateRepository) Save(_ context.Context, state *models.ExecutionState) error {
	key := state.Key()

	name, err := fileName(key)
	if err != nil {
		return persistence.NewError("Save", key.String(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var storedVersion int64

	stored, err := r.read(name, key)

	switch {
	case err == nil:
		storedVersion = stored.Version
	case !persistence.IsExecutionStateNotFound(err):
		return err
	}

	if storedVersion != state.Version {
		return persistence.NewError("Save", key.String(), persistence.ErrVersionConflict)
	}

	next := *state
	next.Version++
	next.UpdatedAt = time.Now().UTC()

	if err := writeJSON(r.dir(), name, &next); err != nil {
		return persistence.NewError("Save", key.String(), err)
	}

	state.Version = next.Version
	state.UpdatedAt = next.UpdatedAt

	return nil
}

func (r *ExecutionStateRepository) Delete(_ context.Context, key models.ExecutionKey) error {
	name, err := fileName(key)
	if err != nil {
		return persistence.NewError("Delete", key.String(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err = os.Remove(filepath.Join(r.dir(), name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return persistence.NewError("Delete", key.String(), err)
	}

	return nil
}

func (r *ExecutionStateRepository) AcquireLease(_ context.Context, key models.ExecutionKey, owner string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, found := r.leases.Get(key.String()); found && current.(string) != owner {
		return false, nil
	}

	r.leases.Set(key.String(), owner, ttl)

	return true, nil
}

func (r *ExecutionStateRepository) ReleaseLease(_ context.Context, key models.ExecutionKey, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, found := r.leases.Get(key.String()); found && current.(string) == owner {
		r.leases.Delete(key.String())
	}

	return nil
}

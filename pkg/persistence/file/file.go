// Package file provides a file-based persistence implementation for single
// process deployments and local development.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence"
	"github.com/patrickmn/go-cache"
)

const (
	flowsDir      = "flows"
	channelsDir   = "channels"
	executionsDir = "executions"
	processedDir  = "processed"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root          string
	flowRepo      *FlowRepository
	channelRepo   *ChannelRepository
	executionRepo *ExecutionStateRepository
	processedRepo *ProcessedMessageRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:          cleanRoot,
		flowRepo:      &FlowRepository{root: cleanRoot},
		channelRepo:   &ChannelRepository{root: cleanRoot},
		executionRepo: &ExecutionStateRepository{root: cleanRoot, leases: cache.New(time.Minute, 5*time.Minute)},
		processedRepo: &ProcessedMessageRepository{root: cleanRoot},
	}
}

func (fp *Persistence) FlowRepository() persistence.FlowRepository {
	return fp.flowRepo
}

func (fp *Persistence) ChannelRepository() persistence.ChannelRepository {
	return fp.channelRepo
}

func (fp *Persistence) ExecutionStateRepository() persistence.ExecutionStateRepository {
	return fp.executionRepo
}

func (fp *Persistence) ProcessedMessageRepository() persistence.ProcessedMessageRepository {
	return fp.processedRepo
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// validateID rejects identifiers that could escape the storage directory.
func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", persistence.ErrInvalidID)
	}

	if strings.Contains(id, "..") || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q", persistence.ErrInvalidID, id)
	}

	return nil
}

// writeJSON atomically replaces dir/name with the JSON form of value.
func writeJSON(dir, name string, value any) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("failed to close %s: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}

	return nil
}

var errUndecodable = errors.New("failed to unmarshal")

// readJSON decodes dir/name into target; missing files return os.ErrNotExist.
func readJSON(dir, name string, target any) error {
	data, err := os.ReadFile(filepath.Join(dir, name)) // #nosec G304 -- name is validated by callers
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w %s: %w", errUndecodable, name, err)
	}

	return nil
}

// listJSON returns the names of the .json files in dir.
func listJSON(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			names = append(names, entry.Name())
		}
	}

	return names, nil
}

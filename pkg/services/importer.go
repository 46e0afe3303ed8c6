package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the document format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileFormat, filepath.Ext(path))
	}
}

// Document is the import file layout. Field names follow the JSON tags of
// the models in both formats.
type Document struct {
	Channels []*models.Channel `json:"channels"`
	Flows    []*models.Flow    `json:"flows"`
}

type ImportResult struct {
	Channels []string `json:"channels"`
	Flows    []string `json:"flows"`
}

// Importer loads channels and flows from documents into persistence.
type Importer struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	publishing  *Publishing
	validate    *validator.Validate
}

func NewImporter(logger *slog.Logger, persistence persistence.Persistence, publishing *Publishing) *Importer {
	return &Importer{
		logger:      logger.With("module", "importer"),
		persistence: persistence,
		publishing:  publishing,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Parse decodes a document. YAML is normalized through JSON so both formats
// share the model field names.
func Parse(data []byte, format Format) (*Document, error) {
	raw := data

	switch format {
	case FormatJSON:
	case FormatYAML:
		var tree any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}

		converted, err := json.Marshal(tree)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}

		raw = converted
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFileFormat, format)
	}

	var doc Document

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	return &doc, nil
}

// Import validates and stores every record of the document. Flows marked
// published must pass publish validation. Nothing is written when any
// record is invalid.
func (i *Importer) Import(ctx context.Context, data []byte, format Format) (*ImportResult, error) {
	doc, err := Parse(data, format)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	for _, channel := range doc.Channels {
		if err := i.validate.Struct(channel); err != nil {
			return nil, &ServiceError{Op: "import", Message: "invalid channel " + channel.ID, Err: fmt.Errorf("%w: %w", ErrInvalidRequest, err)}
		}
	}

	for _, flow := range doc.Flows {
		if flow.ID == "" {
			id, err := uuid.NewV7()
			if err != nil {
				return nil, err
			}

			flow.ID = id.String()
		}

		if flow.IsPublished || flow.IsActive {
			if err := i.publishing.Validate(flow); err != nil {
				return nil, err
			}
		} else if err := i.validate.Struct(flow); err != nil {
			return nil, &ServiceError{Op: "import", Message: "invalid flow " + flow.ID, Err: fmt.Errorf("%w: %w", ErrInvalidRequest, err)}
		}
	}

	result := &ImportResult{}

	for _, channel := range doc.Channels {
		if channel.CreatedAt.IsZero() {
			channel.CreatedAt = now
		}

		channel.UpdatedAt = now

		if err := i.persistence.ChannelRepository().SaveChannel(ctx, channel); err != nil {
			return result, fmt.Errorf("failed to save channel %s: %w", channel.ID, err)
		}

		result.Channels = append(result.Channels, channel.ID)
	}

	for _, flow := range doc.Flows {
		if flow.CreatedAt.IsZero() {
			flow.CreatedAt = now
		}

		flow.UpdatedAt = now

		if err := i.persistence.FlowRepository().SaveFlow(ctx, flow); err != nil {
			return result, fmt.Errorf("failed to save flow %s: %w", flow.ID, err)
		}

		result.Flows = append(result.Flows, flow.ID)
	}

	i.logger.InfoContext(ctx, "Imported document", "channels", len(result.Channels), "flows", len(result.Flows))

	return result, nil
}

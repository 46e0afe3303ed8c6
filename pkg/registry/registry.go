// Package registry maps node types to their handlers and validates node
// configuration against the handler schemas.
package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"plugin"
	"slices"
	"strings"
	"sync"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

var ErrUnknownNodeType = errors.New("unknown node type")

// ConfigError lists the schema violations of one node configuration.
type ConfigError struct {
	NodeID   string
	NodeType models.NodeType
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("node %s (%s) has invalid config: %s", e.NodeID, e.NodeType, strings.Join(e.Problems, "; "))
}

type Registry struct {
	logger   *slog.Logger
	mu       sync.RWMutex
	handlers map[models.NodeType]protocol.NodeHandler
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:   log,
		handlers: make(map[models.NodeType]protocol.NodeHandler),
	}
}

// LoadHandlerPlugins opens every shared object under <pluginsPath>/handlers
// and returns the handlers exported as the "Handler" symbol.
func (r *Registry) LoadHandlerPlugins(pluginsPath string) ([]protocol.NodeHandler, error) {
	return loadPlugin[protocol.NodeHandler](r.logger, pluginsPath, "Handler")
}

// RegisterHandler adds or replaces the handler for its node type.
func (r *Registry) RegisterHandler(handler protocol.NodeHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[handler.Type()] = handler
}

func (r *Registry) Handler(nodeType models.NodeType) (protocol.NodeHandler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, ok := r.handlers[nodeType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, nodeType)
	}

	return handler, nil
}

// Types returns the registered node types in lexical order.
func (r *Registry) Types() []models.NodeType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]models.NodeType, 0, len(r.handlers))
	for nodeType := range r.handlers {
		types = append(types, nodeType)
	}

	slices.Sort(types)

	return types
}

// ValidateConfig checks the node config against its handler's JSON schema.
func (r *Registry) ValidateConfig(node *models.FlowNode) error {
	handler, err := r.Handler(node.Type)
	if err != nil {
		return err
	}

	schema := handler.Schema()
	if schema == nil {
		return nil
	}

	config := node.Config
	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(config))
	if err != nil {
		return fmt.Errorf("failed to validate node %s: %w", node.ID, err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}

	return &ConfigError{NodeID: node.ID, NodeType: node.Type, Problems: problems}
}

func loadPlugin[T any](logger *slog.Logger, pluginsPath string, symbolName string) ([]T, error) {
	rootPath := pluginsPath + "/" + strings.ToLower(symbolName) + "s"
	root := os.DirFS(rootPath)

	pluginPathList, err := fs.Glob(root, "**/*.so")
	if err != nil {
		return nil, err
	}

	l := logger.With(slog.String("path", pluginsPath), slog.String("type", symbolName))
	l.Info("Loading plugins")

	pluginList := make([]T, 0, len(pluginPathList))

	for _, p := range pluginPathList {
		plg, err := plugin.Open(rootPath + "/" + p)
		if err != nil {
			return nil, fmt.Errorf("failed to open plugin %s: %w", p, err)
		}

		v, err := plg.Lookup(symbolName)
		if err != nil {
			return nil, fmt.Errorf("plugin %s does not export %s: %w", p, symbolName, err)
		}

		castV, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("plugin %s: symbol %s has unexpected type %T", p, symbolName, v)
		}

		pluginList = append(pluginList, castV)

		l.Info("Loaded plugin", slog.String("plugin", p))
	}

	return pluginList, nil
}

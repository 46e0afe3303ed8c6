// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/registry"
)

// NewRegistry registers the built-in node handlers followed by any handler
// plugins found under pluginsPath, which may replace them.
func NewRegistry(logger *slog.Logger, pluginsPath string) (*registry.Registry, error) {
	reg := registry.NewRegistry(logger)
	reg.RegisterDefaultHandlers()

	if pluginsPath == "" {
		return reg, nil
	}

	plugins, err := reg.LoadHandlerPlugins(pluginsPath)
	if err != nil {
		return nil, err
	}

	for _, handler := range plugins {
		reg.RegisterHandler(handler)
	}

	return reg, nil
}

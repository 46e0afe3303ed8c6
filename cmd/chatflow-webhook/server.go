package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/cmd"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/registry"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/scheduler"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/services"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/web"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

const inlineMode = "inline"

// newServer picks the inbound dispatcher. Inline mode runs the engine and
// its resume dispatcher here; any other mode publishes to the event bus for
// chatflow-worker.
func newServer(
	ctx context.Context,
	logger *slog.Logger,
	command *cli.Command,
	store persistence.Persistence,
	reg *registry.Registry,
) (*web.Server, func(), error) {
	publishing := services.NewPublishing(logger, store, reg)
	provider := command.String("event-bus")

	if provider != inlineMode {
		eventBus, err := cmd.NewEventBus(logger, provider, command.StringSlice("kafka-brokers"), "")
		if err != nil {
			return nil, nil, err
		}

		cleanup := func() {
			if err := eventBus.Close(); err != nil {
				logger.Error("Failed to close event bus", "error", err)
			}
		}

		return web.NewServer(logger, store, publishing, web.NewEventBusDispatcher(eventBus)), cleanup, nil
	}

	settings := cmd.EngineSettingsFrom(command)

	queue, err := cmd.NewDelayQueue(ctx, logger, settings.RedisURL)
	if err != nil {
		return nil, nil, err
	}

	tracing, shutdown, err := cmd.NewTracing(ctx, logger, settings.OTelEnabled, "chatflow-webhook")
	if err != nil {
		_ = queue.Close()

		return nil, nil, err
	}

	var engine *workflow.Engine

	dispatcher := scheduler.NewDispatcher(logger, queue, func(ctx context.Context, request models.ResumeRequest) error {
		if outcome := engine.Resume(ctx, request); outcome == workflow.OutcomeBusy {
			return fmt.Errorf("resume %s: %w", request.ID, workflow.ErrConcurrencyConflict)
		}

		return nil
	})

	engine = cmd.NewEngine(logger, store, reg, settings, append(tracing, workflow.WithScheduler(dispatcher))...)

	if err := dispatcher.Start(ctx); err != nil {
		_ = queue.Close()
		_ = shutdown(ctx)

		return nil, nil, err
	}

	cleanup := func() {
		dispatcher.Stop()

		if err := queue.Close(); err != nil {
			logger.Error("Failed to close delay queue", "error", err)
		}

		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Error("Failed to shut down tracing", "error", err)
		}
	}

	return web.NewServer(logger, store, publishing, web.NewEngineDispatcher(logger, engine)), cleanup, nil
}

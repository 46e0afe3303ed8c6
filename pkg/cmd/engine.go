package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/messaging/whatsapp"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/otelhelper"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/registry"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

// EngineFlags are shared by every binary that runs the execution engine.
func EngineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "graph-api-url",
			Usage:   "Base URL of the WhatsApp Graph API",
			Value:   whatsapp.DefaultBaseURL,
			Sources: cli.EnvVars("GRAPH_API_URL"),
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "Redis URL for the delay queue (in-memory when empty)",
			Sources: cli.EnvVars("REDIS_URL"),
		},
		&cli.DurationFlag{
			Name:    "lease-ttl",
			Usage:   "How long a conversation lease is held before it expires",
			Value:   workflow.DefaultLeaseTTL,
			Sources: cli.EnvVars("LEASE_TTL"),
		},
		&cli.IntFlag{
			Name:    "step-budget",
			Usage:   "Maximum nodes executed per stepping pass",
			Value:   workflow.DefaultStepBudget,
			Sources: cli.EnvVars("STEP_BUDGET"),
		},
		&cli.StringFlag{
			Name:    "plugins-path",
			Usage:   "Path to the directory containing node handler plugins",
			Value:   "./plugins",
			Sources: cli.EnvVars("PLUGINS_PATH"),
		},
		&cli.BoolFlag{
			Name:    "otel-enabled",
			Usage:   "Export traces over OTLP/HTTP",
			Sources: cli.EnvVars("OTEL_ENABLED"),
		},
	}
}

// EngineSettings are the engine related flag values of a command.
type EngineSettings struct {
	GraphAPIURL string
	RedisURL    string
	LeaseTTL    time.Duration
	StepBudget  int
	PluginsPath string
	OTelEnabled bool
}

func EngineSettingsFrom(command *cli.Command) EngineSettings {
	return EngineSettings{
		GraphAPIURL: command.String("graph-api-url"),
		RedisURL:    command.String("redis-url"),
		LeaseTTL:    command.Duration("lease-ttl"),
		StepBudget:  int(command.Int("step-budget")),
		PluginsPath: command.String("plugins-path"),
		OTelEnabled: command.Bool("otel-enabled"),
	}
}

// NewEngine builds an engine that talks to WhatsApp through the Graph API.
func NewEngine(
	logger *slog.Logger,
	store persistence.Persistence,
	reg *registry.Registry,
	settings EngineSettings,
	opts ...workflow.Option,
) *workflow.Engine {
	gateway := whatsapp.NewClient(logger, whatsapp.WithBaseURL(settings.GraphAPIURL))

	return workflow.NewEngine(logger, store, reg, gateway, workflow.EngineConfig{
		StepBudget: settings.StepBudget,
		LeaseTTL:   settings.LeaseTTL,
	}, opts...)
}

// NewTracing returns engine options for tracing and a shutdown function.
// Without OTEL_ENABLED the engine keeps the global no-op tracer.
func NewTracing(ctx context.Context, logger *slog.Logger, enabled bool, serviceName string) ([]workflow.Option, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	if !enabled {
		return nil, noop, nil
	}

	tracer, shutdown, err := otelhelper.NewTracer(ctx, serviceName)
	if err != nil {
		return nil, noop, err
	}

	logger.InfoContext(ctx, "Tracing enabled", "service", serviceName)

	return []workflow.Option{workflow.WithTracer(tracer)}, shutdown, nil
}

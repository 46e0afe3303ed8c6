package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/cmd"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/log"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/scheduler"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/workflow"
	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
)

func main() {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "worker-id",
			Aliases: []string{"id"},
			Usage:   "Custom worker ID (auto-generated if not provided)",
			Value:   "",
			Sources: cli.EnvVars("WORKER_ID"),
		},
		&cli.StringFlag{
			Name:     "database-url",
			Usage:    "Database connection URL for persistence",
			Required: true,
			Sources:  cli.EnvVars("DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Event bus type (kafka, gochannel)",
			Value:   "kafka",
			Sources: cli.EnvVars("EVENT_BUS_TYPE"),
		},
		&cli.StringSliceFlag{
			Name:    "kafka-brokers",
			Usage:   "Kafka bootstrap brokers",
			Value:   []string{"localhost:9092"},
			Sources: cli.EnvVars("KAFKA_BROKERS"),
		},
		&cli.StringFlag{
			Name:    "consumer-group",
			Usage:   "Kafka consumer group shared by all workers",
			Value:   cmd.DefaultConsumerGroup,
			Sources: cli.EnvVars("KAFKA_CONSUMER_GROUP"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
	}

	command := &cli.Command{
		Name:                  "chatflow-worker",
		EnableShellCompletion: true,
		Usage:                 "Run chat flow executions from the event bus",
		Flags:                 append(flags, cmd.EngineFlags()...),
		Action:                run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := command.Run(ctx, os.Args); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	workerID := command.String("worker-id")
	if workerID == "" {
		workerID = "worker-" + uuid.New().String()[:8]
	}

	logger := log.WithModule("chatflow-worker").With("worker_id", workerID)
	settings := cmd.EngineSettingsFrom(command)

	logger.InfoContext(ctx, "Initializing chat flow worker")

	reg, err := cmd.NewRegistry(logger, settings.PluginsPath)
	if err != nil {
		return err
	}

	persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := persistence.Close(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	eventBus, err := cmd.NewEventBus(logger, command.String("event-bus"),
		command.StringSlice("kafka-brokers"), command.String("consumer-group"))
	if err != nil {
		return err
	}

	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	queue, err := cmd.NewDelayQueue(ctx, logger, settings.RedisURL)
	if err != nil {
		return err
	}

	defer func() {
		if err := queue.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close delay queue", "error", err)
		}
	}()

	tracing, shutdown, err := cmd.NewTracing(ctx, logger, settings.OTelEnabled, "chatflow-worker")
	if err != nil {
		return err
	}

	defer func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to shut down tracing", "error", err)
		}
	}()

	var worker *WorkerManager

	dispatcher := scheduler.NewDispatcher(logger, queue, func(ctx context.Context, request models.ResumeRequest) error {
		return worker.publishResume(ctx, request)
	})

	opts := append([]workflow.Option{
		workflow.WithScheduler(dispatcher),
		workflow.WithEventPublisher(eventBus),
	}, tracing...)

	engine := cmd.NewEngine(logger, persistence, reg, settings, opts...)
	worker = NewWorkerManager(workerID, engine, eventBus, dispatcher, logger)

	return worker.Start(ctx)
}

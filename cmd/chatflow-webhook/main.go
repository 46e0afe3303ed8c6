package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/cmd"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/log"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 8080

func flags() []cli.Flag {
	return append([]cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Port to run the webhook server on",
			Value:   defaultPort,
			Sources: cli.EnvVars("PORT"),
		},
		&cli.StringFlag{
			Name:     "database-url",
			Usage:    "Database connection URL for persistence",
			Required: true,
			Sources:  cli.EnvVars("DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Where inbound messages go: kafka, gochannel, or inline to run the engine in this process",
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
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
	}, cmd.EngineFlags()...)
}

func main() {
	command := &cli.Command{
		Name:                  "chatflow-webhook",
		Usage:                 "Receive WhatsApp webhook deliveries",
		EnableShellCompletion: true,
		Flags:                 flags(),
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

	logger := log.WithModule("chatflow-webhook")
	logger.InfoContext(ctx, "Initializing chat flow webhook")

	persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := persistence.Close(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	reg, err := cmd.NewRegistry(logger, command.String("plugins-path"))
	if err != nil {
		return err
	}

	server, cleanup, err := newServer(ctx, logger, command, persistence, reg)
	if err != nil {
		return err
	}
	defer cleanup()

	app := server.App()

	go func() {
		<-ctx.Done()

		if err := app.ShutdownWithContext(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to shut down HTTP server", "error", err)
		}
	}()

	addr := ":" + strconv.Itoa(command.Int("port"))
	logger.InfoContext(ctx, "Listening", "addr", addr)

	return app.Listen(addr)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/cmd"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/log"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/services"
	cli "github.com/urfave/cli/v3"
)

var (
	ErrMissingArgument = errors.New("missing argument")
	ErrInvalidFlows    = errors.New("one or more flows are invalid")
)

// env holds what every subcommand opens from the root flags.
type env struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	publishing  *services.Publishing
	out         io.Writer
}

func withEnv(action func(ctx context.Context, command *cli.Command, e *env) error) cli.ActionFunc {
	return func(ctx context.Context, command *cli.Command) error {
		logger := log.New(os.Stderr, command.String("log-level"))

		store, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
		if err != nil {
			return err
		}

		defer func() {
			if err := store.Close(ctx); err != nil {
				logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
			}
		}()

		reg, err := cmd.NewRegistry(logger, command.String("plugins-path"))
		if err != nil {
			return err
		}

		out := command.Root().Writer
		if out == nil {
			out = os.Stdout
		}

		return action(ctx, command, &env{
			logger:      logger,
			persistence: store,
			publishing:  services.NewPublishing(logger, store, reg),
			out:         out,
		})
	}
}

func firstArg(command *cli.Command, name string) (string, error) {
	value := command.Args().First()
	if value == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingArgument, name)
	}

	return value, nil
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import channels and flows from a YAML or JSON file",
		ArgsUsage: "<file>",
		Action: withEnv(func(ctx context.Context, command *cli.Command, e *env) error {
			path, err := firstArg(command, "file")
			if err != nil {
				return err
			}

			format, err := services.FormatFromPath(path)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			result, err := services.NewImporter(e.logger, e.persistence, e.publishing).Import(ctx, data, format)
			if err != nil {
				return err
			}

			fmt.Fprintf(e.out, "Imported %d channel(s) and %d flow(s)\n", len(result.Channels), len(result.Flows))

			for _, id := range result.Flows {
				fmt.Fprintf(e.out, "  flow %s\n", id)
			}

			return nil
		}),
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate a stored flow, or every flow in a file with --file",
		ArgsUsage: "[flow-id]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Validate the flows of an import file instead of a stored flow",
			},
		},
		Action: withEnv(func(ctx context.Context, command *cli.Command, e *env) error {
			flows, err := flowsToValidate(ctx, command, e)
			if err != nil {
				return err
			}

			invalid := 0

			for _, flow := range flows {
				if err := e.publishing.Validate(flow); err != nil {
					invalid++

					fmt.Fprintf(e.out, "%s (%s): invalid\n", flow.ID, flow.Name)

					var validationErr *services.ValidationError
					if errors.As(err, &validationErr) {
						for _, problem := range validationErr.Problems {
							fmt.Fprintf(e.out, "  - %s\n", problem)
						}
					} else {
						fmt.Fprintf(e.out, "  - %s\n", err)
					}

					continue
				}

				fmt.Fprintf(e.out, "%s (%s): valid\n", flow.ID, flow.Name)
			}

			if invalid > 0 {
				return fmt.Errorf("%w: %d of %d", ErrInvalidFlows, invalid, len(flows))
			}

			return nil
		}),
	}
}

func flowsToValidate(ctx context.Context, command *cli.Command, e *env) ([]*models.Flow, error) {
	if path := command.String("file"); path != "" {
		format, err := services.FormatFromPath(path)
		if err != nil {
			return nil, err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		doc, err := services.Parse(data, format)
		if err != nil {
			return nil, err
		}

		return doc.Flows, nil
	}

	id, err := firstArg(command, "flow-id")
	if err != nil {
		return nil, err
	}

	flow, err := e.persistence.FlowRepository().FlowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return []*models.Flow{flow}, nil
}

func publishCommand() *cli.Command {
	return &cli.Command{
		Name:      "publish",
		Usage:     "Validate a flow and make it start new conversations",
		ArgsUsage: "<flow-id>",
		Action: withEnv(func(ctx context.Context, command *cli.Command, e *env) error {
			id, err := firstArg(command, "flow-id")
			if err != nil {
				return err
			}

			flow, err := e.publishing.Publish(ctx, id)
			if err != nil {
				return err
			}

			fmt.Fprintf(e.out, "Published %s (%s)\n", flow.ID, flow.Name)

			return nil
		}),
	}
}

func unpublishCommand() *cli.Command {
	return &cli.Command{
		Name:      "unpublish",
		Usage:     "Stop a flow from starting new conversations",
		ArgsUsage: "<flow-id>",
		Action: withEnv(func(ctx context.Context, command *cli.Command, e *env) error {
			id, err := firstArg(command, "flow-id")
			if err != nil {
				return err
			}

			flow, err := e.publishing.Unpublish(ctx, id)
			if err != nil {
				return err
			}

			fmt.Fprintf(e.out, "Unpublished %s (%s)\n", flow.ID, flow.Name)

			return nil
		}),
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List stored flows",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "channel",
				Usage: "Only list flows of this channel",
			},
		},
		Action: withEnv(func(ctx context.Context, command *cli.Command, e *env) error {
			flows, err := e.persistence.FlowRepository().Flows(ctx)
			if err != nil {
				return err
			}

			models.SortByPriority(flows)

			w := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCHANNEL\tPRIORITY\tSTATUS")

			channel := command.String("channel")

			for _, flow := range flows {
				if channel != "" && flow.ChannelID != channel {
					continue
				}

				status := "draft"
				if flow.Runnable() {
					status = "published"
				}

				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", flow.ID, flow.Name, flow.ChannelID, flow.Priority, status)
			}

			return w.Flush()
		}),
	}
}

package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/flowgraph/flowgraph/pkg/cmd"
	"github.com/flowgraph/flowgraph/pkg/engine/temporal"
	"github.com/flowgraph/flowgraph/pkg/log"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "flowgraph-api",
		Usage:                 "Create, compile and run workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection URL for persistence",
				Value:   "memory://",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "temporal-host",
				Usage:   "Temporal frontend host:port",
				Value:   "localhost:7233",
				Sources: cli.EnvVars("TEMPORAL_HOST"),
			},
			&cli.StringFlag{
				Name:    "temporal-namespace",
				Usage:   "Temporal namespace",
				Value:   "default",
				Sources: cli.EnvVars("TEMPORAL_NAMESPACE"),
			},
			&cli.StringFlag{
				Name:    "task-queue",
				Usage:   "Task queue for definition runs",
				Value:   "flowgraph",
				Sources: cli.EnvVars("TASK_QUEUE"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Flowgraph API")

			registry := cmd.NewRegistry(logger, nil)

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			engine, err := temporal.New(&temporal.Config{
				HostPort:  command.String("temporal-host"),
				Namespace: command.String("temporal-namespace"),
				TaskQueue: command.String("task-queue"),
			}, logger)
			if err != nil {
				return err
			}
			defer engine.Close()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			api := NewAPI(logger, persistence, registry, engine, eventBus)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "API server stopped", "error", err)

				return err
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}

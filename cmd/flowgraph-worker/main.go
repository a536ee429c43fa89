package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"

	"github.com/flowgraph/flowgraph/pkg/cmd"
	"github.com/flowgraph/flowgraph/pkg/compiler"
	"github.com/flowgraph/flowgraph/pkg/engine/temporal"
	"github.com/flowgraph/flowgraph/pkg/log"
	"github.com/flowgraph/flowgraph/pkg/otelhelper"
	"github.com/flowgraph/flowgraph/pkg/secrets"
	"github.com/flowgraph/flowgraph/pkg/services"
)

func main() {
	logger := log.WithModule("worker")

	command := &cli.Command{
		Name:                  "flowgraph-worker",
		Usage:                 "Execute workflow definitions on the durable engine",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
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
				Usage:   "Task queue to poll for definition runs",
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
				Name:    "secrets-url",
				Usage:   "Secrets backend URL (redis://... or env://)",
				Value:   "env://",
				Sources: cli.EnvVars("SECRETS_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: runWorker(logger),
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}

func runWorker(logger *slog.Logger) cli.ActionFunc {
	return func(ctx context.Context, command *cli.Command) error {
		log.Setup(command.String("log-level"))

		logger.InfoContext(ctx, "Initializing Flowgraph worker")

		persistence, err := cmd.NewPersistence(ctx, log.WithModule("persistence"), command.String("database-url"))
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
		}, log.WithModule("temporal"))
		if err != nil {
			return err
		}
		defer engine.Close()

		eventBus := cmd.NewEventBus(command.String("event-bus"), log.WithModule("eventbus"))
		defer func() {
			if err := eventBus.Close(); err != nil {
				logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
			}
		}()

		secretStore, err := newSecretStore(command.String("secrets-url"))
		if err != nil {
			return err
		}

		recorder := cmd.NewRunRecorder(persistence, eventBus, log.WithModule("trace"))
		defer recorder.Drain()

		starter := &childStarter{}
		registry := cmd.NewRegistry(log.WithModule("registry"), starter)

		starter.orchestrator = services.NewOrchestrator(
			persistence,
			compiler.NewCompiler(registry, log.WithModule("compiler")),
			engine,
			recorder,
			eventBus,
			log.WithModule("orchestrator"),
		)

		activities := temporal.NewActivities(
			registry,
			recorder,
			secrets.NewGetter(secretStore),
			newAgentTraceLogger(),
		)

		if tracer, err := otelhelper.NewTracer(ctx, "flowgraph-worker"); err != nil {
			logger.WarnContext(ctx, "Tracing disabled", "error", err)
		} else {
			activities.WithTracer(tracer)
		}

		worker := temporal.NewWorker(engine, command.String("task-queue"), activities)

		logger.InfoContext(ctx, "Worker polling", "task_queue", command.String("task-queue"))

		return worker.Run()
	}
}

func newSecretStore(url string) (secrets.Store, error) {
	if strings.HasPrefix(url, "redis://") {
		return secrets.NewRedisStore(url)
	}

	return secrets.NewEnvStore(), nil
}

type childStarter struct {
	orchestrator *services.Orchestrator
}

func (s *childStarter) RunToCompletion(ctx context.Context, workflowID string, inputs map[string]any) (map[string]any, error) {
	started, err := s.orchestrator.Run(ctx, workflowID, services.RunOptions{Inputs: inputs})
	if err != nil {
		return nil, err
	}

	return s.orchestrator.GetRunResult(ctx, started.RunID, started.EngineRunID)
}

// Package main provides the Flowgraph API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/flowgraph/flowgraph/pkg/compiler"
	"github.com/flowgraph/flowgraph/pkg/eventbus"
	"github.com/flowgraph/flowgraph/pkg/persistence"
	"github.com/flowgraph/flowgraph/pkg/protocol"
	"github.com/flowgraph/flowgraph/pkg/registry"
	"github.com/flowgraph/flowgraph/pkg/services"
	"github.com/flowgraph/flowgraph/pkg/trace"
	"github.com/flowgraph/flowgraph/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	engine      protocol.Engine
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	p persistence.Persistence,
	reg *registry.Registry,
	engine protocol.Engine,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: p,
		registry:    reg,
		engine:      engine,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	// The API process buffers no traces of its own: trace reads fall
	// through to persistence, which the worker keeps current.
	recorder := trace.NewMemoryRecorder(false)

	orchestrator := services.NewOrchestrator(
		a.persistence,
		compiler.NewCompiler(a.registry, a.logger),
		a.engine,
		recorder,
		a.eventBus,
		a.logger,
	)

	handlers := web.NewAPIHandlers(orchestrator, a.validate, a.registry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Flowgraph API")
	})

	handlers.Register(app)

	return app
}

func (a *API) Start(port int) error {
	return a.App().Listen(":" + strconv.Itoa(port))
}

// Package web provides HTTP handlers and REST API endpoints for workflow management.
package web

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/flowgraph/flowgraph/pkg/registry"
	"github.com/flowgraph/flowgraph/pkg/services"
)

type APIHandlers struct {
	orchestrator *services.Orchestrator
	validator    *validator.Validate
	registry     *registry.Registry
}

func NewAPIHandlers(
	orchestrator *services.Orchestrator,
	validate *validator.Validate,
	reg *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		orchestrator: orchestrator,
		validator:    validate,
		registry:     reg,
	}
}

// Register mounts all routes on the app.
func (h *APIHandlers) Register(app *fiber.App) {
	app.Get("/components", h.GetComponents)

	app.Get("/workflows", h.GetWorkflows)
	app.Post("/workflows", h.CreateWorkflow)
	app.Get("/workflows/:id", h.GetWorkflow)
	app.Put("/workflows/:id/graph", h.UpdateGraph)
	app.Post("/workflows/:id/commit", h.CommitWorkflow)
	app.Post("/workflows/:id/runs", h.StartRun)

	app.Get("/runs/:runId/status", h.GetRunStatus)
	app.Get("/runs/:runId/result", h.GetRunResult)
	app.Get("/runs/:runId/trace", h.GetRunTrace)
	app.Post("/runs/:runId/cancel", h.CancelRun)
}

func (h *APIHandlers) GetComponents(c fiber.Ctx) error {
	components := h.registry.List()
	response := make([]ComponentResponse, 0, len(components))

	for _, component := range components {
		response = append(response, ComponentResponse{
			Type:        component.Type,
			Name:        component.Name,
			Description: component.Description,
			Ports:       component.Ports,
			Parameters:  component.Parameters,
		})
	}

	return c.JSON(fiber.Map{"components": response})
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.orchestrator.ListWorkflows(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"workflows": workflows})
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.orchestrator.Create(c.Context(), services.CreateWorkflowRequest{
		Name:        req.Name,
		Description: req.Description,
		Graph:       req.Graph,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.orchestrator.GetWorkflow(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) UpdateGraph(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req UpdateGraphRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.orchestrator.UpdateGraph(c.Context(), id, req.Graph)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) CommitWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	definition, err := h.orchestrator.Commit(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"definition": definition})
}

func (h *APIHandlers) StartRun(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req StartRunRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&req); err != nil {
			return badRequest(c, "Invalid request body: "+err.Error())
		}
	}

	result, err := h.orchestrator.Run(c.Context(), id, services.RunOptions{
		RunID:  req.RunID,
		Inputs: req.Inputs,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(result)
}

func (h *APIHandlers) GetRunStatus(c fiber.Ctx) error {
	runID := c.Params("runId")
	if runID == "" {
		return badRequest(c, "Run ID is required")
	}

	status, err := h.orchestrator.GetRunStatus(c.Context(), runID, c.Query("engine_run_id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(status)
}

func (h *APIHandlers) GetRunResult(c fiber.Ctx) error {
	runID := c.Params("runId")
	if runID == "" {
		return badRequest(c, "Run ID is required")
	}

	result, err := h.orchestrator.GetRunResult(c.Context(), runID, c.Query("engine_run_id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"run_id": runID, "result": result})
}

func (h *APIHandlers) GetRunTrace(c fiber.Ctx) error {
	runID := c.Params("runId")
	if runID == "" {
		return badRequest(c, "Run ID is required")
	}

	events, err := h.orchestrator.GetTrace(c.Context(), runID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"run_id": runID, "events": events})
}

func (h *APIHandlers) CancelRun(c fiber.Ctx) error {
	runID := c.Params("runId")
	if runID == "" {
		return badRequest(c, "Run ID is required")
	}

	if err := h.orchestrator.CancelRun(c.Context(), runID, c.Query("engine_run_id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusAccepted)
}

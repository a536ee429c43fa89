package temporal

import (
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/flowgraph/flowgraph/pkg/protocol"
)

// Worker hosts the definition interpreter and its action activity on one
// task queue.
type Worker struct {
	worker worker.Worker
}

func NewWorker(c *Client, taskQueue string, activities *Activities) *Worker {
	w := c.NewWorker(taskQueue)
	w.RegisterWorkflowWithOptions(DefinitionWorkflow, workflow.RegisterOptions{
		Name: protocol.WorkflowTypeDefinition,
	})
	w.RegisterActivityWithOptions(activities.ExecuteAction, activity.RegisterOptions{
		Name: ExecuteActionLabel,
	})
	w.RegisterActivityWithOptions(activities.FinalizeRun, activity.RegisterOptions{
		Name: FinalizeRunLabel,
	})

	return &Worker{worker: w}
}

// Run blocks until the process receives an interrupt.
func (w *Worker) Run() error {
	if err := w.worker.Run(worker.InterruptCh()); err != nil {
		return fmt.Errorf("worker stopped: %w", err)
	}

	return nil
}

// Start runs the worker without blocking. Stop shuts it down.
func (w *Worker) Start() error {
	if err := w.worker.Start(); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}

	return nil
}

func (w *Worker) Stop() {
	w.worker.Stop()
}

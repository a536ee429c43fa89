// Package temporal adapts the Temporal SDK to the engine contract used by
// the orchestrator: start, describe, await and cancel durable executions.
package temporal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	sdklog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"github.com/flowgraph/flowgraph/pkg/models"
	"github.com/flowgraph/flowgraph/pkg/protocol"
)

type Config struct {
	HostPort  string
	Namespace string
	TaskQueue string
}

// Client wraps a Temporal SDK client behind the protocol.Engine contract.
type Client struct {
	client.Client
	config *Config
	logger *slog.Logger
}

func New(cfg *Config, logger *slog.Logger) (*Client, error) {
	options := client.Options{
		HostPort:  cfg.HostPort,
		Namespace: cfg.Namespace,
		Logger:    sdklog.NewStructuredLogger(logger),
	}

	temporalClient, err := client.Dial(options)
	if err != nil {
		return nil, fmt.Errorf("failed to create temporal client: %w", err)
	}

	return &Client{
		Client: temporalClient,
		config: cfg,
		logger: logger,
	}, nil
}

func (c *Client) Config() *Config {
	return c.config
}

func (c *Client) DefaultTaskQueue() string {
	return c.config.TaskQueue
}

func (c *Client) NewWorker(taskQueue string) worker.Worker {
	if taskQueue == "" {
		taskQueue = c.config.TaskQueue
	}

	return worker.New(c.Client, taskQueue, worker.Options{})
}

func (c *Client) Close() {
	c.Client.Close()
}

func (c *Client) StartWorkflow(ctx context.Context, opts protocol.StartWorkflowOptions) (*protocol.WorkflowHandle, error) {
	taskQueue := opts.TaskQueue
	if taskQueue == "" {
		taskQueue = c.config.TaskQueue
	}

	run, err := c.Client.ExecuteWorkflow(
		ctx,
		client.StartWorkflowOptions{
			ID:        opts.WorkflowID,
			TaskQueue: taskQueue,
		},
		opts.WorkflowType,
		opts.Args...,
	)
	if err != nil {
		// A retried start with the same workflow id attaches to the running
		// execution instead of failing.
		var started *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &started) {
			return &protocol.WorkflowHandle{
				WorkflowID: opts.WorkflowID,
				RunID:      started.RunId,
				TaskQueue:  taskQueue,
			}, nil
		}

		return nil, fmt.Errorf("failed to start workflow: %w", err)
	}

	return &protocol.WorkflowHandle{
		WorkflowID: run.GetID(),
		RunID:      run.GetRunID(),
		TaskQueue:  taskQueue,
	}, nil
}

func (c *Client) DescribeWorkflow(ctx context.Context, ref protocol.WorkflowRef) (*protocol.WorkflowDescription, error) {
	resp, err := c.Client.DescribeWorkflowExecution(ctx, ref.WorkflowID, ref.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to describe workflow: %w", err)
	}

	info := resp.GetWorkflowExecutionInfo()
	description := &protocol.WorkflowDescription{
		Status:        statusFromEngine(info.GetStatus()),
		HistoryLength: info.GetHistoryLength(),
		TaskQueue:     info.GetTaskQueue(),
	}

	if start := info.GetStartTime(); start != nil {
		description.StartTime = start.AsTime()
	}

	if end := info.GetCloseTime(); end != nil {
		closeTime := end.AsTime()
		description.CloseTime = &closeTime
	}

	// The describe response carries no failure payload; for failed runs the
	// result handle returns immediately with the terminal error.
	if description.Status == models.RunStatusFailed {
		resultErr := c.Client.GetWorkflow(ctx, ref.WorkflowID, ref.RunID).Get(ctx, nil)
		description.Failure = convertFailure(resultErr)
	}

	return description, nil
}

func (c *Client) GetWorkflowResult(ctx context.Context, ref protocol.WorkflowRef) (map[string]any, error) {
	var result map[string]any

	if err := c.Client.GetWorkflow(ctx, ref.WorkflowID, ref.RunID).Get(ctx, &result); err != nil {
		return nil, fmt.Errorf("workflow execution failed: %w", err)
	}

	return result, nil
}

func (c *Client) CancelWorkflow(ctx context.Context, ref protocol.WorkflowRef) error {
	if err := c.Client.CancelWorkflow(ctx, ref.WorkflowID, ref.RunID); err != nil {
		return fmt.Errorf("failed to cancel workflow: %w", err)
	}

	return nil
}

func statusFromEngine(status enumspb.WorkflowExecutionStatus) models.RunStatus {
	switch status {
	case enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING,
		enumspb.WORKFLOW_EXECUTION_STATUS_CONTINUED_AS_NEW:
		return models.RunStatusRunning
	case enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		return models.RunStatusCompleted
	case enumspb.WORKFLOW_EXECUTION_STATUS_FAILED:
		return models.RunStatusFailed
	case enumspb.WORKFLOW_EXECUTION_STATUS_CANCELED:
		return models.RunStatusCancelled
	case enumspb.WORKFLOW_EXECUTION_STATUS_TERMINATED:
		return models.RunStatusTerminated
	case enumspb.WORKFLOW_EXECUTION_STATUS_TIMED_OUT:
		return models.RunStatusTimedOut
	default:
		return models.RunStatusUnspecified
	}
}

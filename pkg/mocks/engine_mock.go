// Package mocks provides testify mocks for the orchestrator's collaborators.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/flowgraph/flowgraph/pkg/protocol"
)

// MockEngine is a mock implementation of the protocol.Engine interface.
type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) StartWorkflow(ctx context.Context, opts protocol.StartWorkflowOptions) (*protocol.WorkflowHandle, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*protocol.WorkflowHandle), args.Error(1)
}

func (m *MockEngine) DescribeWorkflow(ctx context.Context, ref protocol.WorkflowRef) (*protocol.WorkflowDescription, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*protocol.WorkflowDescription), args.Error(1)
}

func (m *MockEngine) GetWorkflowResult(ctx context.Context, ref protocol.WorkflowRef) (map[string]any, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *MockEngine) CancelWorkflow(ctx context.Context, ref protocol.WorkflowRef) error {
	args := m.Called(ctx, ref)

	return args.Error(0)
}

func (m *MockEngine) DefaultTaskQueue() string {
	args := m.Called()

	return args.String(0)
}

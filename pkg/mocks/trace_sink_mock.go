package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/flowgraph/flowgraph/pkg/models"
)

// MockTraceSink is a mock implementation of the protocol.TraceSink interface.
type MockTraceSink struct {
	mock.Mock
}

func (m *MockTraceSink) Persist(ctx context.Context, event *models.TraceEvent) error {
	args := m.Called(ctx, event)

	return args.Error(0)
}

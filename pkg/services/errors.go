// Package services provides the orchestration service layer and its error
// taxonomy.
package services

import (
	"errors"
	"fmt"

	"github.com/flowgraph/flowgraph/pkg/compiler"
	"github.com/flowgraph/flowgraph/pkg/persistence"
)

// Not-found errors (404). Never retried.
var (
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound
	ErrVersionNotFound  = persistence.ErrVersionNotFound
	ErrRunNotFound      = persistence.ErrRunNotFound
)

// Request validation errors (400).
var (
	ErrWorkflowNameRequired = errors.New("workflow name is required")
	ErrGraphRequired        = errors.New("workflow graph is required")
	ErrWorkflowNil          = errors.New("workflow cannot be nil")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsNotFoundError checks for errors that should map to HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound) ||
		errors.Is(err, ErrVersionNotFound) ||
		errors.Is(err, ErrRunNotFound)
}

// IsValidationError checks for errors that should map to HTTP 400. Compile
// time graph validation errors are included: they abort the call chain and
// are never retried.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrWorkflowNameRequired) ||
		errors.Is(err, ErrGraphRequired) ||
		errors.Is(err, ErrWorkflowNil) ||
		compiler.IsValidationError(err)
}

// IsConfigurationError checks for bad or missing component configuration.
func IsConfigurationError(err error) bool {
	return compiler.IsConfigurationError(err)
}

// NewServiceError creates a wrapped service error with context.
func NewServiceError(op, code, message string, err error) *ServiceError {
	return &ServiceError{Op: op, Code: code, Message: message, Err: err}
}

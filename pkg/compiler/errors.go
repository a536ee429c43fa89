package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports a malformed graph: dangling edges, unknown ports,
// invalid parameters or dependency cycles. Never retryable.
type ValidationError struct {
	Code    string
	Message string
	NodeIDs []string // Participating nodes, when known
}

func (e *ValidationError) Error() string {
	if len(e.NodeIDs) > 0 {
		return fmt.Sprintf("%s: %s (nodes: %s)", e.Code, e.Message, strings.Join(e.NodeIDs, ", "))
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ConfigurationError reports bad or missing component configuration, such as
// a node referencing an unregistered component type. Never retryable.
type ConfigurationError struct {
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is (or wraps) a graph validation error.
func IsValidationError(err error) bool {
	var ve *ValidationError

	return errors.As(err, &ve)
}

// IsConfigurationError reports whether err is (or wraps) a configuration error.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError

	return errors.As(err, &ce)
}

func newValidationError(code, message string, nodeIDs ...string) *ValidationError {
	return &ValidationError{Code: code, Message: message, NodeIDs: nodeIDs}
}

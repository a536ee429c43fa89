package temporal

import (
	"errors"

	"go.temporal.io/sdk/temporal"

	"github.com/flowgraph/flowgraph/pkg/protocol"
)

// convertFailure maps a terminal workflow error onto the engine-neutral
// failure shape. The innermost application error wins: the SDK wraps it in
// workflow and activity error layers that only repeat the message.
func convertFailure(err error) *protocol.EngineFailure {
	if err == nil {
		return nil
	}

	failure := &protocol.EngineFailure{Message: err.Error()}

	var panicErr *temporal.PanicError
	if errors.As(err, &panicErr) {
		failure.StackTrace = panicErr.StackTrace()
	}

	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		failure.Message = appErr.Message()
		info := &protocol.ApplicationFailureInfo{Type: appErr.Type()}

		if appErr.HasDetails() {
			var details map[string]any
			if detailsErr := appErr.Details(&details); detailsErr == nil {
				info.Details = details
			}
		}

		failure.ApplicationFailureInfo = info
	}

	var timeoutErr *temporal.TimeoutError
	if errors.As(err, &timeoutErr) {
		failure.Message = timeoutErr.Error()
	}

	var canceledErr *temporal.CanceledError
	if errors.As(err, &canceledErr) {
		failure.Message = canceledErr.Error()
	}

	return failure
}

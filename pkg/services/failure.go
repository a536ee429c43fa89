package services

import (
	"github.com/flowgraph/flowgraph/pkg/models"
	"github.com/flowgraph/flowgraph/pkg/protocol"
)

// SummarizeFailure maps the engine's raw failure payload to the normalized
// summary consumers see. Pure and stable: the same engine failure always
// yields the same summary.
func SummarizeFailure(failure *protocol.EngineFailure) *models.FailureSummary {
	if failure == nil {
		return nil
	}

	summary := &models.FailureSummary{
		Reason: failure.Message,
		Details: models.FailureDetails{
			StackTrace: failure.StackTrace,
		},
	}

	if info := failure.ApplicationFailureInfo; info != nil {
		summary.TemporalCode = info.Type
		summary.Details.ApplicationFailureDetails = info.Details
	}

	return summary
}

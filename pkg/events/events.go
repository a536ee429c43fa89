// Package events defines event types for run lifecycle notifications.
package events

import (
	"time"

	"github.com/flowgraph/flowgraph/pkg/models"
)

type EventType string

// Bus topic.
const Topic = "flowgraph.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	RunStartedEvent    EventType = "run.started"
	RunFinishedEvent   EventType = "run.finished"
	RunFailedEvent     EventType = "run.failed"
	RunCancelledEvent  EventType = "run.cancelled"
	NodeCompletedEvent EventType = "run.node.completed"
)

type Event interface {
	GetType() EventType
}

type BaseEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	WorkflowID string    `json:"workflow_id"`
	RunID      string    `json:"run_id"`
}

type RunStarted struct {
	BaseEvent

	VersionNumber int `json:"version_number"`
	TotalActions  int `json:"total_actions"`
}

func (e RunStarted) GetType() EventType {
	return RunStartedEvent
}

type RunFinished struct {
	BaseEvent

	Result map[string]any `json:"result,omitempty"`
}

func (e RunFinished) GetType() EventType {
	return RunFinishedEvent
}

type RunFailed struct {
	BaseEvent

	Failure *models.FailureSummary `json:"failure,omitempty"`
}

func (e RunFailed) GetType() EventType {
	return RunFailedEvent
}

type RunCancelled struct {
	BaseEvent
}

func (e RunCancelled) GetType() EventType {
	return RunCancelledEvent
}

type NodeCompleted struct {
	BaseEvent

	NodeID        string         `json:"node_id"`
	OutputSummary map[string]any `json:"output_summary,omitempty"`
}

func (e NodeCompleted) GetType() EventType {
	return NodeCompletedEvent
}

package task

import (
	"time"

	"github.com/sekharnc/multi-agent-sk/types"
)

// EventType identifies a task lifecycle event.
type EventType string

const (
	// EventCreated indicates a task was submitted and planned.
	EventCreated EventType = "created"

	// EventStarted indicates execution began.
	EventStarted EventType = "started"

	// EventStepStarted indicates a step began executing.
	EventStepStarted EventType = "step_started"

	// EventStepCompleted indicates a step produced a reply.
	EventStepCompleted EventType = "step_completed"

	// EventStepFailed indicates a step failed after retries.
	EventStepFailed EventType = "step_failed"

	// EventFeedbackRequested indicates a step is waiting for approval.
	EventFeedbackRequested EventType = "feedback_requested"

	// EventCompleted indicates the task finished successfully.
	EventCompleted EventType = "completed"

	// EventFailed indicates the task failed.
	EventFailed EventType = "failed"

	// EventCancelled indicates the task was cancelled.
	EventCancelled EventType = "cancelled"

	// EventRecovered indicates the task was re-queued after a restart.
	EventRecovered EventType = "recovered"
)

// Event describes one change in a task's lifecycle. Events are fanned
// out to WebSocket subscribers and are not persisted.
type Event struct {
	// TaskID is the task this event belongs to.
	TaskID string `json:"task_id"`

	// Type is the event type.
	Type EventType `json:"type"`

	// StepID is set for step-scoped events.
	StepID string `json:"step_id,omitempty"`

	// Agent is the role involved, when applicable.
	Agent types.AgentType `json:"agent,omitempty"`

	// Status is the task status after the event.
	Status Status `json:"status"`

	// Message is an optional human-readable detail.
	Message string `json:"message,omitempty"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`
}

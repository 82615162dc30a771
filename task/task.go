package task

import (
	"time"

	"github.com/sekharnc/multi-agent-sk/types"
)

// Status represents the status of a task.
type Status string

const (
	// StatusPending indicates the task is waiting to be executed.
	StatusPending Status = "pending"

	// StatusInProgress indicates steps are being executed.
	StatusInProgress Status = "in_progress"

	// StatusAwaitingFeedback indicates a step is waiting for human approval.
	StatusAwaitingFeedback Status = "awaiting_feedback"

	// StatusCompleted indicates every step completed successfully.
	StatusCompleted Status = "completed"

	// StatusFailed indicates a step failed after retries.
	StatusFailed Status = "failed"

	// StatusCancelled indicates the task was cancelled by the user.
	StatusCancelled Status = "cancelled"
)

// IsTerminal returns true if the status is a terminal state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsRecoverable returns true if a task in this status should be
// re-queued after a service restart.
func (s Status) IsRecoverable() bool {
	switch s {
	case StatusPending, StatusInProgress:
		return true
	default:
		return false
	}
}

// StepStatus represents the status of a single step within a task.
type StepStatus string

const (
	// StepStatusPlanned indicates the step was produced by the planner
	// and has not started.
	StepStatusPlanned StepStatus = "planned"

	// StepStatusExecuting indicates the step's agent is running.
	StepStatusExecuting StepStatus = "executing"

	// StepStatusCompleted indicates the agent produced a reply.
	StepStatusCompleted StepStatus = "completed"

	// StepStatusFailed indicates the agent failed after retries.
	StepStatusFailed StepStatus = "failed"

	// StepStatusRejected indicates the user rejected the step; it is
	// skipped, not executed.
	StepStatusRejected StepStatus = "rejected"
)

// IsTerminal returns true if the step will not run again.
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StepStatusCompleted, StepStatusFailed, StepStatusRejected:
		return true
	default:
		return false
	}
}

// FeedbackStatus tracks human approval of a step.
type FeedbackStatus string

const (
	// FeedbackNotRequired means the step executes without approval.
	FeedbackNotRequired FeedbackStatus = "not_required"

	// FeedbackRequested means execution is blocked until the user
	// accepts or rejects the step.
	FeedbackRequested FeedbackStatus = "requested"

	// FeedbackAccepted means the user approved the step.
	FeedbackAccepted FeedbackStatus = "accepted"

	// FeedbackRejected means the user rejected the step.
	FeedbackRejected FeedbackStatus = "rejected"
)

// Step is one unit of work within a task, executed by a single agent.
type Step struct {
	// ID is the unique identifier for the step.
	ID string `json:"id" bson:"_id"`

	// TaskID is the task this step belongs to.
	TaskID string `json:"task_id" bson:"task_id"`

	// Order is the zero-based position within the task's plan.
	Order int `json:"order" bson:"order"`

	// Action is the instruction the agent executes.
	Action string `json:"action" bson:"action"`

	// Agent is the role responsible for this step.
	Agent types.AgentType `json:"agent" bson:"agent"`

	// Status is the current step status.
	Status StepStatus `json:"status" bson:"status"`

	// Feedback is the human approval state for this step.
	Feedback FeedbackStatus `json:"feedback" bson:"feedback"`

	// FeedbackComment is the user's comment, if any.
	FeedbackComment string `json:"feedback_comment,omitempty" bson:"feedback_comment,omitempty"`

	// Reply is the agent's response (when completed).
	Reply string `json:"reply,omitempty" bson:"reply,omitempty"`

	// Error is the failure message (when failed).
	Error string `json:"error,omitempty" bson:"error,omitempty"`

	// StartedAt is when the agent began executing the step.
	StartedAt *time.Time `json:"started_at,omitempty" bson:"started_at,omitempty"`

	// CompletedAt is when the step reached a terminal status.
	CompletedAt *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

// Task tracks one user goal through its lifecycle.
type Task struct {
	// ID is the unique identifier for the task.
	ID string `json:"id" bson:"_id"`

	// SessionID groups tasks and messages belonging to one conversation.
	SessionID string `json:"session_id" bson:"session_id"`

	// UserID identifies the submitting user.
	UserID string `json:"user_id" bson:"user_id"`

	// Description is the user's goal text.
	Description string `json:"description" bson:"description"`

	// Summary is a short form of the description used in listings.
	Summary string `json:"summary,omitempty" bson:"summary,omitempty"`

	// RoutingHint is the explicitly requested agent role, if any.
	RoutingHint types.AgentType `json:"routing_hint,omitempty" bson:"routing_hint,omitempty"`

	// Agent is the role the router assigned.
	Agent types.AgentType `json:"agent" bson:"agent"`

	// Status is the current task status.
	Status Status `json:"status" bson:"status"`

	// Steps is the ordered plan for the task.
	Steps []Step `json:"steps" bson:"steps"`

	// Result is the final combined reply (when completed).
	Result string `json:"result,omitempty" bson:"result,omitempty"`

	// Error is the failure message (when failed).
	Error string `json:"error,omitempty" bson:"error,omitempty"`

	// RequireApproval indicates steps wait for human feedback before
	// executing.
	RequireApproval bool `json:"require_approval" bson:"require_approval"`

	// RetryCount is the number of execution attempts so far.
	RetryCount int `json:"retry_count" bson:"retry_count"`

	// CreatedAt is when the task was submitted.
	CreatedAt time.Time `json:"created_at" bson:"created_at"`

	// UpdatedAt is when the task was last modified.
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`

	// StartedAt is when execution began.
	StartedAt *time.Time `json:"started_at,omitempty" bson:"started_at,omitempty"`

	// CompletedAt is when the task reached a terminal status.
	CompletedAt *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`

	// Metadata carries caller-supplied key/value pairs.
	Metadata map[string]string `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// IsTerminal returns true if the task is in a terminal state.
func (t *Task) IsTerminal() bool {
	return t.Status.IsTerminal()
}

// Duration returns the task duration, or time since start if running.
func (t *Task) Duration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	if t.CompletedAt != nil {
		return t.CompletedAt.Sub(*t.StartedAt)
	}
	return time.Since(*t.StartedAt)
}

// NextStep returns the first step that is still planned, or nil when
// every step is terminal.
func (t *Task) NextStep() *Step {
	for i := range t.Steps {
		if !t.Steps[i].Status.IsTerminal() && t.Steps[i].Status != StepStatusExecuting {
			return &t.Steps[i]
		}
	}
	return nil
}

// StepByID returns the step with the given id, or nil.
func (t *Task) StepByID(stepID string) *Step {
	for i := range t.Steps {
		if t.Steps[i].ID == stepID {
			return &t.Steps[i]
		}
	}
	return nil
}

// StepCounts summarizes step progress for a task.
type StepCounts struct {
	Total     int `json:"total"`
	Planned   int `json:"planned"`
	Executing int `json:"executing"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Rejected  int `json:"rejected"`
}

// CountSteps tallies the task's steps by status.
func (t *Task) CountSteps() StepCounts {
	c := StepCounts{Total: len(t.Steps)}
	for i := range t.Steps {
		switch t.Steps[i].Status {
		case StepStatusPlanned:
			c.Planned++
		case StepStatusExecuting:
			c.Executing++
		case StepStatusCompleted:
			c.Completed++
		case StepStatusFailed:
			c.Failed++
		case StepStatusRejected:
			c.Rejected++
		}
	}
	return c
}

// OverallStatus derives the task status from its steps once execution
// has finished: any failed step fails the task, otherwise it completes.
// Rejected steps count as handled.
func (t *Task) OverallStatus() Status {
	c := t.CountSteps()
	if c.Failed > 0 {
		return StatusFailed
	}
	if c.Completed+c.Rejected == c.Total && c.Total > 0 {
		return StatusCompleted
	}
	return StatusInProgress
}

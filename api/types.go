package api

import (
	"github.com/sekharnc/multi-agent-sk/agent/router"
	"github.com/sekharnc/multi-agent-sk/llm"
	"github.com/sekharnc/multi-agent-sk/persistence"
	"github.com/sekharnc/multi-agent-sk/task"
	"github.com/sekharnc/multi-agent-sk/types"
)

// SubmitTaskRequest submits one task for planning and execution.
type SubmitTaskRequest struct {
	// SessionID groups the task into a conversation; generated when empty.
	SessionID string `json:"session_id,omitempty" example:"sess-42"`
	// UserID identifies the submitting user.
	UserID string `json:"user_id" example:"user-1"`
	// Description is the goal text. Required.
	Description string `json:"description" example:"order a laptop for the new hire"`
	// Agent is an optional explicit role hint (hr, procurement, tech, generic).
	Agent string `json:"agent,omitempty" example:"procurement"`
	// RequireApproval makes every step wait for human feedback.
	RequireApproval *bool `json:"require_approval,omitempty"`
	// Metadata carries caller-supplied key/value pairs.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// TaskResponse is one task together with its step progress counts.
type TaskResponse struct {
	// Task is the persisted task, steps included.
	Task *task.Task `json:"task"`
	// Counts tallies the task's steps by status.
	Counts task.StepCounts `json:"counts"`
}

// NewTaskResponse builds a TaskResponse from a task.
func NewTaskResponse(t *task.Task) TaskResponse {
	return TaskResponse{Task: t, Counts: t.CountSteps()}
}

// TaskListResponse pages through tasks matching a filter.
type TaskListResponse struct {
	// Tasks are the matching tasks in reverse creation order.
	Tasks []TaskResponse `json:"tasks"`
	// Count is the number of tasks in this page.
	Count int `json:"count"`
	// Limit is the page size that was applied.
	Limit int `json:"limit"`
	// Offset is the number of tasks skipped.
	Offset int `json:"offset"`
}

// FeedbackRequest approves or rejects one step awaiting feedback.
type FeedbackRequest struct {
	// StepID identifies the step within the task.
	StepID string `json:"step_id" example:"step-3"`
	// Approved accepts the step when true, rejects it when false.
	Approved bool `json:"approved"`
	// Comment is an optional note recorded with the decision.
	Comment string `json:"comment,omitempty"`
}

// MessageListResponse pages through a session's message history.
type MessageListResponse struct {
	// Messages are the records in chronological order.
	Messages []*persistence.MessageRecord `json:"messages"`
	// NextCursor fetches the next page; empty when exhausted.
	NextCursor string `json:"next_cursor,omitempty"`
	// Count is the number of messages in this page.
	Count int `json:"count"`
}

// ChatRequest is one direct chat turn, outside any task.
type ChatRequest struct {
	// SessionID continues an existing conversation; generated when empty.
	SessionID string `json:"session_id,omitempty" example:"sess-42"`
	// UserID identifies the user.
	UserID string `json:"user_id,omitempty" example:"user-1"`
	// Message is the user's text. Required.
	Message string `json:"message" example:"how many vacation days do I have left?"`
	// Agent is an optional explicit role hint.
	Agent string `json:"agent,omitempty" example:"hr"`
	// Metadata carries caller-supplied key/value pairs.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ChatResponse is the routed agent's reply to one chat turn.
type ChatResponse struct {
	// SessionID is the conversation the turn was recorded in.
	SessionID string `json:"session_id"`
	// Agent is the role that answered.
	Agent types.AgentType `json:"agent"`
	// Routing explains how the agent was chosen.
	Routing router.Decision `json:"routing"`
	// Content is the agent's reply text.
	Content string `json:"content"`
	// Usage reports token consumption for the turn.
	Usage llm.ChatUsage `json:"usage,omitempty"`
}

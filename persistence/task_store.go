package persistence

import (
	"context"
	"time"

	"github.com/sekharnc/multi-agent-sk/task"
)

// TaskStore defines the interface for task persistence. It provides
// task state management with recovery support after service restart.
type TaskStore interface {
	Store

	// SaveTask persists a task to the store (create or update)
	SaveTask(ctx context.Context, t *task.Task) error

	// GetTask retrieves a task by ID
	GetTask(ctx context.Context, taskID string) (*task.Task, error)

	// ListTasks retrieves tasks matching the filter criteria
	ListTasks(ctx context.Context, filter TaskFilter) ([]*task.Task, error)

	// DeleteTask removes a task from the store
	DeleteTask(ctx context.Context, taskID string) error

	// GetRecoverableTasks retrieves tasks that need to be re-queued
	// after restart (pending or in-progress)
	GetRecoverableTasks(ctx context.Context) ([]*task.Task, error)

	// Cleanup removes terminal tasks older than the specified duration
	Cleanup(ctx context.Context, olderThan time.Duration) (int, error)

	// Stats returns statistics about the task store
	Stats(ctx context.Context) (*TaskStoreStats, error)
}

// TaskFilter defines criteria for filtering tasks.
type TaskFilter struct {
	// SessionID filters by session
	SessionID string `json:"session_id,omitempty"`

	// UserID filters by submitting user
	UserID string `json:"user_id,omitempty"`

	// Agent filters by assigned agent role
	Agent string `json:"agent,omitempty"`

	// Status filters by status (can be multiple)
	Status []task.Status `json:"status,omitempty"`

	// CreatedAfter filters tasks created after this time
	CreatedAfter *time.Time `json:"created_after,omitempty"`

	// CreatedBefore filters tasks created before this time
	CreatedBefore *time.Time `json:"created_before,omitempty"`

	// Limit is the maximum number of tasks to return
	Limit int `json:"limit,omitempty"`

	// Offset is the number of tasks to skip
	Offset int `json:"offset,omitempty"`
}

// Matches reports whether t satisfies every set filter field. Limit and
// Offset are applied by the caller, not here.
func (f TaskFilter) Matches(t *task.Task) bool {
	if f.SessionID != "" && t.SessionID != f.SessionID {
		return false
	}
	if f.UserID != "" && t.UserID != f.UserID {
		return false
	}
	if f.Agent != "" && string(t.Agent) != f.Agent {
		return false
	}
	if len(f.Status) > 0 {
		found := false
		for _, status := range f.Status {
			if t.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.CreatedAfter != nil && !t.CreatedAt.After(*f.CreatedAfter) {
		return false
	}
	if f.CreatedBefore != nil && !t.CreatedAt.Before(*f.CreatedBefore) {
		return false
	}
	return true
}

// TaskStoreStats contains statistics about the task store.
type TaskStoreStats struct {
	// TotalTasks is the total number of tasks in the store
	TotalTasks int64 `json:"total_tasks"`

	// StatusCounts is the task count per status
	StatusCounts map[task.Status]int64 `json:"status_counts"`

	// AgentCounts is the task count per agent role
	AgentCounts map[string]int64 `json:"agent_counts"`
}

package persistence

import (
	"context"
	"time"

	"github.com/sekharnc/multi-agent-sk/types"
)

// MessageStore defines the interface for conversation message
// persistence. Message history is append-only within a session.
type MessageStore interface {
	Store

	// SaveMessage persists a single message to the store
	SaveMessage(ctx context.Context, msg *MessageRecord) error

	// SaveMessages persists multiple messages
	SaveMessages(ctx context.Context, msgs []*MessageRecord) error

	// GetMessage retrieves a message by ID
	GetMessage(ctx context.Context, msgID string) (*MessageRecord, error)

	// ListBySession retrieves messages for a session in chronological
	// order with cursor pagination. The returned cursor is empty when
	// no more messages remain.
	ListBySession(ctx context.Context, sessionID string, cursor string, limit int) ([]*MessageRecord, string, error)

	// ListRecentBySession retrieves the newest limit messages of a
	// session in chronological order. A non-positive limit returns the
	// whole session.
	ListRecentBySession(ctx context.Context, sessionID string, limit int) ([]*MessageRecord, error)

	// ListByTask retrieves all messages attached to a task in
	// chronological order.
	ListByTask(ctx context.Context, taskID string) ([]*MessageRecord, error)

	// Cleanup removes messages older than the specified duration
	Cleanup(ctx context.Context, olderThan time.Duration) (int, error)

	// Stats returns statistics about the message store
	Stats(ctx context.Context) (*MessageStoreStats, error)
}

// MessageRecord is a persisted conversation message.
type MessageRecord struct {
	// ID is the unique identifier for the message.
	ID string `json:"id" bson:"_id"`

	// SessionID is the conversation this message belongs to.
	SessionID string `json:"session_id" bson:"session_id"`

	// TaskID is the task this message was produced for, if any.
	TaskID string `json:"task_id,omitempty" bson:"task_id,omitempty"`

	// StepID is the step this message was produced for, if any.
	StepID string `json:"step_id,omitempty" bson:"step_id,omitempty"`

	// Sender is the authoring role (human or an agent role).
	Sender types.AgentType `json:"sender" bson:"sender"`

	// Role is the chat role of the message.
	Role types.Role `json:"role" bson:"role"`

	// Content is the message text.
	Content string `json:"content" bson:"content"`

	// Metadata carries additional key/value pairs.
	Metadata map[string]string `json:"metadata,omitempty" bson:"metadata,omitempty"`

	// CreatedAt is when the message was created.
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// MessageStoreStats contains statistics about the message store.
type MessageStoreStats struct {
	// TotalMessages is the total number of messages in the store
	TotalMessages int64 `json:"total_messages"`

	// SessionCounts is the message count per session
	SessionCounts map[string]int64 `json:"session_counts"`

	// SenderCounts is the message count per sender role
	SenderCounts map[string]int64 `json:"sender_counts"`
}

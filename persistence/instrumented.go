package persistence

import (
	"context"
	"time"

	"github.com/sekharnc/multi-agent-sk/task"
)

// StoreMetrics receives store operation timings and retry counts.
// Implemented by the metrics collector.
type StoreMetrics interface {
	RecordStoreOperation(backend, operation string, duration time.Duration)
	RecordStoreRetry(backend, operation string)
}

// InstrumentTaskStore wraps store so every operation is timed under the
// given backend label.
func InstrumentTaskStore(store TaskStore, backend string, m StoreMetrics) TaskStore {
	return &instrumentedTaskStore{inner: store, backend: backend, metrics: m}
}

type instrumentedTaskStore struct {
	inner   TaskStore
	backend string
	metrics StoreMetrics
}

func (s *instrumentedTaskStore) observe(operation string, start time.Time) {
	s.metrics.RecordStoreOperation(s.backend, operation, time.Since(start))
}

func (s *instrumentedTaskStore) SaveTask(ctx context.Context, t *task.Task) error {
	defer s.observe("save_task", time.Now())
	return s.inner.SaveTask(ctx, t)
}

func (s *instrumentedTaskStore) GetTask(ctx context.Context, taskID string) (*task.Task, error) {
	defer s.observe("get_task", time.Now())
	return s.inner.GetTask(ctx, taskID)
}

func (s *instrumentedTaskStore) ListTasks(ctx context.Context, filter TaskFilter) ([]*task.Task, error) {
	defer s.observe("list_tasks", time.Now())
	return s.inner.ListTasks(ctx, filter)
}

func (s *instrumentedTaskStore) DeleteTask(ctx context.Context, taskID string) error {
	defer s.observe("delete_task", time.Now())
	return s.inner.DeleteTask(ctx, taskID)
}

func (s *instrumentedTaskStore) GetRecoverableTasks(ctx context.Context) ([]*task.Task, error) {
	defer s.observe("get_recoverable_tasks", time.Now())
	return s.inner.GetRecoverableTasks(ctx)
}

func (s *instrumentedTaskStore) Cleanup(ctx context.Context, olderThan time.Duration) (int, error) {
	defer s.observe("cleanup", time.Now())
	return s.inner.Cleanup(ctx, olderThan)
}

func (s *instrumentedTaskStore) Stats(ctx context.Context) (*TaskStoreStats, error) {
	defer s.observe("stats", time.Now())
	return s.inner.Stats(ctx)
}

func (s *instrumentedTaskStore) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

func (s *instrumentedTaskStore) Close() error {
	return s.inner.Close()
}

// InstrumentMessageStore wraps store so every operation is timed under
// the given backend label.
func InstrumentMessageStore(store MessageStore, backend string, m StoreMetrics) MessageStore {
	return &instrumentedMessageStore{inner: store, backend: backend, metrics: m}
}

type instrumentedMessageStore struct {
	inner   MessageStore
	backend string
	metrics StoreMetrics
}

func (s *instrumentedMessageStore) observe(operation string, start time.Time) {
	s.metrics.RecordStoreOperation(s.backend, operation, time.Since(start))
}

func (s *instrumentedMessageStore) SaveMessage(ctx context.Context, msg *MessageRecord) error {
	defer s.observe("save_message", time.Now())
	return s.inner.SaveMessage(ctx, msg)
}

func (s *instrumentedMessageStore) SaveMessages(ctx context.Context, msgs []*MessageRecord) error {
	defer s.observe("save_messages", time.Now())
	return s.inner.SaveMessages(ctx, msgs)
}

func (s *instrumentedMessageStore) GetMessage(ctx context.Context, msgID string) (*MessageRecord, error) {
	defer s.observe("get_message", time.Now())
	return s.inner.GetMessage(ctx, msgID)
}

func (s *instrumentedMessageStore) ListBySession(ctx context.Context, sessionID string, cursor string, limit int) ([]*MessageRecord, string, error) {
	defer s.observe("list_by_session", time.Now())
	return s.inner.ListBySession(ctx, sessionID, cursor, limit)
}

func (s *instrumentedMessageStore) ListRecentBySession(ctx context.Context, sessionID string, limit int) ([]*MessageRecord, error) {
	defer s.observe("list_recent_by_session", time.Now())
	return s.inner.ListRecentBySession(ctx, sessionID, limit)
}

func (s *instrumentedMessageStore) ListByTask(ctx context.Context, taskID string) ([]*MessageRecord, error) {
	defer s.observe("list_by_task", time.Now())
	return s.inner.ListByTask(ctx, taskID)
}

func (s *instrumentedMessageStore) Cleanup(ctx context.Context, olderThan time.Duration) (int, error) {
	defer s.observe("cleanup", time.Now())
	return s.inner.Cleanup(ctx, olderThan)
}

func (s *instrumentedMessageStore) Stats(ctx context.Context) (*MessageStoreStats, error) {
	defer s.observe("stats", time.Now())
	return s.inner.Stats(ctx)
}

func (s *instrumentedMessageStore) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

func (s *instrumentedMessageStore) Close() error {
	return s.inner.Close()
}

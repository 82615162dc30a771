package persistence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sekharnc/multi-agent-sk/task"
)

// MemoryTaskStore is an in-memory implementation of TaskStore.
// Suitable for development and testing. Data is lost on restart.
type MemoryTaskStore struct {
	tasks  map[string]*task.Task
	mu     sync.RWMutex
	closed bool
	config StoreConfig
	stopCh chan struct{}
}

// NewMemoryTaskStore creates a new in-memory task store.
func NewMemoryTaskStore(config StoreConfig) *MemoryTaskStore {
	store := &MemoryTaskStore{
		tasks:  make(map[string]*task.Task),
		config: config,
		stopCh: make(chan struct{}),
	}

	if config.Cleanup.Enabled {
		go store.cleanupLoop(config.Cleanup.Interval)
	}

	return store
}

// Close closes the store.
func (s *MemoryTaskStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.stopCh)
	}
	return nil
}

// Ping checks if the store is healthy.
func (s *MemoryTaskStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// SaveTask persists a task to the store.
func (s *MemoryTaskStore) SaveTask(ctx context.Context, t *task.Task) error {
	if t == nil {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if t.ID == "" {
		t.ID = uuid.New().String()
	}

	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	cp := *t
	cp.Steps = append([]task.Step(nil), t.Steps...)
	s.tasks[t.ID] = &cp

	return nil
}

// GetTask retrieves a task by ID.
func (s *MemoryTaskStore) GetTask(ctx context.Context, taskID string) (*task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	t, ok := s.tasks[taskID]
	if !ok {
		return nil, ErrNotFound
	}

	cp := *t
	cp.Steps = append([]task.Step(nil), t.Steps...)
	return &cp, nil
}

// ListTasks retrieves tasks matching the filter criteria, newest first.
func (s *MemoryTaskStore) ListTasks(ctx context.Context, filter TaskFilter) ([]*task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	result := make([]*task.Task, 0)
	for _, t := range s.tasks {
		if filter.Matches(t) {
			cp := *t
			cp.Steps = append([]task.Step(nil), t.Steps...)
			result = append(result, &cp)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*task.Task{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// DeleteTask removes a task from the store.
func (s *MemoryTaskStore) DeleteTask(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, ok := s.tasks[taskID]; !ok {
		return ErrNotFound
	}
	delete(s.tasks, taskID)
	return nil
}

// GetRecoverableTasks retrieves pending and in-progress tasks.
func (s *MemoryTaskStore) GetRecoverableTasks(ctx context.Context) ([]*task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	result := make([]*task.Task, 0)
	for _, t := range s.tasks {
		if t.Status.IsRecoverable() {
			cp := *t
			cp.Steps = append([]task.Step(nil), t.Steps...)
			result = append(result, &cp)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

// Cleanup removes terminal tasks older than the specified duration.
func (s *MemoryTaskStore) Cleanup(ctx context.Context, olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for id, t := range s.tasks {
		if t.IsTerminal() && t.UpdatedAt.Before(cutoff) {
			delete(s.tasks, id)
			removed++
		}
	}
	return removed, nil
}

// Stats returns statistics about the task store.
func (s *MemoryTaskStore) Stats(ctx context.Context) (*TaskStoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	stats := &TaskStoreStats{
		TotalTasks:   int64(len(s.tasks)),
		StatusCounts: make(map[task.Status]int64),
		AgentCounts:  make(map[string]int64),
	}
	for _, t := range s.tasks {
		stats.StatusCounts[t.Status]++
		stats.AgentCounts[string(t.Agent)]++
	}
	return stats, nil
}

// cleanupLoop periodically removes old terminal tasks.
func (s *MemoryTaskStore) cleanupLoop(interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.Cleanup(context.Background(), s.config.Cleanup.TaskRetention)
		}
	}
}

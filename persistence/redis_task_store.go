package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sekharnc/multi-agent-sk/task"
)

// RedisTaskStore is a Redis-based implementation of TaskStore.
// Tasks are stored as JSON strings with sorted-set indexes per status
// and per session, scored by creation time.
type RedisTaskStore struct {
	client    *redis.Client
	keyPrefix string
	config    StoreConfig
}

// NewRedisTaskStore creates a new Redis-backed task store.
func NewRedisTaskStore(config StoreConfig) (*RedisTaskStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
		PoolSize: config.Redis.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	keyPrefix := config.Redis.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "multiagent:"
	}

	return &RedisTaskStore{
		client:    client,
		keyPrefix: keyPrefix + "task:",
		config:    config,
	}, nil
}

// Close closes the store.
func (s *RedisTaskStore) Close() error {
	return s.client.Close()
}

// Ping checks if the store is healthy.
func (s *RedisTaskStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisTaskStore) taskKey(taskID string) string {
	return s.keyPrefix + "data:" + taskID
}

func (s *RedisTaskStore) statusKey(status task.Status) string {
	return s.keyPrefix + "status:" + string(status)
}

func (s *RedisTaskStore) sessionKey(sessionID string) string {
	return s.keyPrefix + "session:" + sessionID
}

func (s *RedisTaskStore) allTasksKey() string {
	return s.keyPrefix + "all"
}

// SaveTask persists a task to the store. Transient failures are
// retried per the store's retry config.
func (s *RedisTaskStore) SaveTask(ctx context.Context, t *task.Task) error {
	if t == nil {
		return ErrInvalidInput
	}

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	// Old status index entry must go when the status changes.
	oldTask, _ := s.GetTask(ctx, t.ID)

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	return s.config.Retry.WithRetry(ctx, func() error {
		pipe := s.client.Pipeline()

		pipe.Set(ctx, s.taskKey(t.ID), data, 0)

		score := float64(t.CreatedAt.UnixNano())
		if oldTask != nil && oldTask.Status != t.Status {
			pipe.ZRem(ctx, s.statusKey(oldTask.Status), t.ID)
		}
		pipe.ZAdd(ctx, s.statusKey(t.Status), redis.Z{Score: score, Member: t.ID})
		if t.SessionID != "" {
			pipe.ZAdd(ctx, s.sessionKey(t.SessionID), redis.Z{Score: score, Member: t.ID})
		}
		pipe.ZAdd(ctx, s.allTasksKey(), redis.Z{Score: score, Member: t.ID})

		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("save task %s: %w", t.ID, err)
		}
		return nil
	})
}

// GetTask retrieves a task by ID.
func (s *RedisTaskStore) GetTask(ctx context.Context, taskID string) (*task.Task, error) {
	data, err := s.client.Get(ctx, s.taskKey(taskID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", taskID, err)
	}

	var t task.Task
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("unmarshal task %s: %w", taskID, err)
	}
	return &t, nil
}

// ListTasks retrieves tasks matching the filter criteria, newest first.
// The session index narrows the candidate set when SessionID is set;
// remaining filter fields are applied in memory.
func (s *RedisTaskStore) ListTasks(ctx context.Context, filter TaskFilter) ([]*task.Task, error) {
	indexKey := s.allTasksKey()
	if filter.SessionID != "" {
		indexKey = s.sessionKey(filter.SessionID)
	} else if len(filter.Status) == 1 {
		indexKey = s.statusKey(filter.Status[0])
	}

	ids, err := s.client.ZRevRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list task ids: %w", err)
	}

	result := make([]*task.Task, 0, len(ids))
	for _, id := range ids {
		t, err := s.GetTask(ctx, id)
		if err == ErrNotFound {
			continue // index entry outlived the task data
		}
		if err != nil {
			return nil, err
		}
		if filter.Matches(t) {
			result = append(result, t)
		}
	}

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

// DeleteTask removes a task and its index entries.
func (s *RedisTaskStore) DeleteTask(ctx context.Context, taskID string) error {
	t, err := s.GetTask(ctx, taskID)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.taskKey(taskID))
	pipe.ZRem(ctx, s.statusKey(t.Status), taskID)
	if t.SessionID != "" {
		pipe.ZRem(ctx, s.sessionKey(t.SessionID), taskID)
	}
	pipe.ZRem(ctx, s.allTasksKey(), taskID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete task %s: %w", taskID, err)
	}
	return nil
}

// GetRecoverableTasks retrieves pending and in-progress tasks, oldest
// first.
func (s *RedisTaskStore) GetRecoverableTasks(ctx context.Context) ([]*task.Task, error) {
	result := make([]*task.Task, 0)
	for _, status := range []task.Status{task.StatusPending, task.StatusInProgress} {
		ids, err := s.client.ZRange(ctx, s.statusKey(status), 0, -1).Result()
		if err != nil {
			return nil, fmt.Errorf("list recoverable ids: %w", err)
		}
		for _, id := range ids {
			t, err := s.GetTask(ctx, id)
			if err == ErrNotFound {
				continue
			}
			if err != nil {
				return nil, err
			}
			result = append(result, t)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// Cleanup removes terminal tasks older than the specified duration.
func (s *RedisTaskStore) Cleanup(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	removed := 0

	for _, status := range []task.Status{task.StatusCompleted, task.StatusFailed, task.StatusCancelled} {
		ids, err := s.client.ZRange(ctx, s.statusKey(status), 0, -1).Result()
		if err != nil {
			return removed, fmt.Errorf("cleanup list ids: %w", err)
		}
		for _, id := range ids {
			t, err := s.GetTask(ctx, id)
			if err == ErrNotFound {
				s.client.ZRem(ctx, s.statusKey(status), id)
				continue
			}
			if err != nil {
				return removed, err
			}
			if t.UpdatedAt.Before(cutoff) {
				if err := s.DeleteTask(ctx, id); err != nil && err != ErrNotFound {
					return removed, err
				}
				removed++
			}
		}
	}
	return removed, nil
}

// Stats returns statistics about the task store.
func (s *RedisTaskStore) Stats(ctx context.Context) (*TaskStoreStats, error) {
	stats := &TaskStoreStats{
		StatusCounts: make(map[task.Status]int64),
		AgentCounts:  make(map[string]int64),
	}

	total, err := s.client.ZCard(ctx, s.allTasksKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	stats.TotalTasks = total

	for _, status := range []task.Status{
		task.StatusPending, task.StatusInProgress, task.StatusAwaitingFeedback,
		task.StatusCompleted, task.StatusFailed, task.StatusCancelled,
	} {
		n, err := s.client.ZCard(ctx, s.statusKey(status)).Result()
		if err != nil {
			return nil, fmt.Errorf("count status %s: %w", status, err)
		}
		if n > 0 {
			stats.StatusCounts[status] = n
		}
	}

	// Agent counts require a scan; acceptable because cleanup bounds
	// the key space.
	ids, err := s.client.ZRange(ctx, s.allTasksKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list task ids: %w", err)
	}
	for _, id := range ids {
		t, err := s.GetTask(ctx, id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		stats.AgentCounts[string(t.Agent)]++
	}

	return stats, nil
}

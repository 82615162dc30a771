package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisMessageStore is a Redis-based implementation of MessageStore.
// Messages are stored as JSON strings with sorted-set indexes per
// session and per task, scored by creation time.
type RedisMessageStore struct {
	client    *redis.Client
	keyPrefix string
	config    StoreConfig
}

// NewRedisMessageStore creates a new Redis-backed message store.
func NewRedisMessageStore(config StoreConfig) (*RedisMessageStore, error) {
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

	return &RedisMessageStore{
		client:    client,
		keyPrefix: keyPrefix + "msg:",
		config:    config,
	}, nil
}

// Close closes the store.
func (s *RedisMessageStore) Close() error {
	return s.client.Close()
}

// Ping checks if the store is healthy.
func (s *RedisMessageStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisMessageStore) msgKey(msgID string) string {
	return s.keyPrefix + "data:" + msgID
}

func (s *RedisMessageStore) sessionKey(sessionID string) string {
	return s.keyPrefix + "session:" + sessionID
}

func (s *RedisMessageStore) taskKey(taskID string) string {
	return s.keyPrefix + "task:" + taskID
}

func (s *RedisMessageStore) allKey() string {
	return s.keyPrefix + "all"
}

// SaveMessage persists a single message. Transient failures are
// retried per the store's retry config.
func (s *RedisMessageStore) SaveMessage(ctx context.Context, msg *MessageRecord) error {
	if msg == nil {
		return ErrInvalidInput
	}

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return s.config.Retry.WithRetry(ctx, func() error {
		pipe := s.client.Pipeline()

		pipe.Set(ctx, s.msgKey(msg.ID), data, 0)

		score := float64(msg.CreatedAt.UnixNano())
		pipe.ZAdd(ctx, s.sessionKey(msg.SessionID), redis.Z{Score: score, Member: msg.ID})
		if msg.TaskID != "" {
			pipe.ZAdd(ctx, s.taskKey(msg.TaskID), redis.Z{Score: score, Member: msg.ID})
		}
		pipe.ZAdd(ctx, s.allKey(), redis.Z{Score: score, Member: msg.ID})

		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("save message %s: %w", msg.ID, err)
		}
		return nil
	})
}

// SaveMessages persists multiple messages.
func (s *RedisMessageStore) SaveMessages(ctx context.Context, msgs []*MessageRecord) error {
	for _, msg := range msgs {
		if err := s.SaveMessage(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// GetMessage retrieves a message by ID.
func (s *RedisMessageStore) GetMessage(ctx context.Context, msgID string) (*MessageRecord, error) {
	data, err := s.client.Get(ctx, s.msgKey(msgID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", msgID, err)
	}

	var msg MessageRecord
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal message %s: %w", msgID, err)
	}
	return &msg, nil
}

// ListBySession retrieves session messages in chronological order with
// cursor pagination. The cursor is the rank offset into the session's
// sorted set.
func (s *RedisMessageStore) ListBySession(ctx context.Context, sessionID string, cursor string, limit int) ([]*MessageRecord, string, error) {
	offset := int64(0)
	if cursor != "" {
		n, err := strconv.ParseInt(cursor, 10, 64)
		if err != nil || n < 0 {
			return nil, "", ErrInvalidInput
		}
		offset = n
	}

	stop := int64(-1)
	if limit > 0 {
		stop = offset + int64(limit) - 1
	}

	ids, err := s.client.ZRange(ctx, s.sessionKey(sessionID), offset, stop).Result()
	if err != nil {
		return nil, "", fmt.Errorf("list session message ids: %w", err)
	}

	result := make([]*MessageRecord, 0, len(ids))
	for _, id := range ids {
		msg, err := s.GetMessage(ctx, id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, "", err
		}
		result = append(result, msg)
	}

	next := ""
	if limit > 0 && len(ids) == limit {
		total, err := s.client.ZCard(ctx, s.sessionKey(sessionID)).Result()
		if err != nil {
			return nil, "", fmt.Errorf("count session messages: %w", err)
		}
		if offset+int64(limit) < total {
			next = strconv.FormatInt(offset+int64(limit), 10)
		}
	}

	return result, next, nil
}

// ListRecentBySession retrieves the newest limit session messages in
// chronological order.
func (s *RedisMessageStore) ListRecentBySession(ctx context.Context, sessionID string, limit int) ([]*MessageRecord, error) {
	var (
		ids []string
		err error
	)
	if limit > 0 {
		ids, err = s.client.ZRevRange(ctx, s.sessionKey(sessionID), 0, int64(limit)-1).Result()
	} else {
		ids, err = s.client.ZRange(ctx, s.sessionKey(sessionID), 0, -1).Result()
	}
	if err != nil {
		return nil, fmt.Errorf("list recent session message ids: %w", err)
	}

	result := make([]*MessageRecord, 0, len(ids))
	for _, id := range ids {
		msg, err := s.GetMessage(ctx, id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	if limit > 0 {
		// ZRevRange yields newest first; flip back to chronological.
		for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
			result[i], result[j] = result[j], result[i]
		}
	}
	return result, nil
}

// ListByTask retrieves all messages attached to a task.
func (s *RedisMessageStore) ListByTask(ctx context.Context, taskID string) ([]*MessageRecord, error) {
	ids, err := s.client.ZRange(ctx, s.taskKey(taskID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list task message ids: %w", err)
	}

	result := make([]*MessageRecord, 0, len(ids))
	for _, id := range ids {
		msg, err := s.GetMessage(ctx, id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, nil
}

// Cleanup removes messages older than the specified duration.
func (s *RedisMessageStore) Cleanup(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := float64(time.Now().Add(-olderThan).UnixNano())

	ids, err := s.client.ZRangeByScore(ctx, s.allKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatFloat(cutoff, 'f', -1, 64),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("cleanup list ids: %w", err)
	}

	removed := 0
	for _, id := range ids {
		msg, err := s.GetMessage(ctx, id)
		if err == ErrNotFound {
			s.client.ZRem(ctx, s.allKey(), id)
			continue
		}
		if err != nil {
			return removed, err
		}

		pipe := s.client.Pipeline()
		pipe.Del(ctx, s.msgKey(id))
		pipe.ZRem(ctx, s.sessionKey(msg.SessionID), id)
		if msg.TaskID != "" {
			pipe.ZRem(ctx, s.taskKey(msg.TaskID), id)
		}
		pipe.ZRem(ctx, s.allKey(), id)
		if _, err := pipe.Exec(ctx); err != nil {
			return removed, fmt.Errorf("cleanup message %s: %w", id, err)
		}
		removed++
	}
	return removed, nil
}

// Stats returns statistics about the message store.
func (s *RedisMessageStore) Stats(ctx context.Context) (*MessageStoreStats, error) {
	stats := &MessageStoreStats{
		SessionCounts: make(map[string]int64),
		SenderCounts:  make(map[string]int64),
	}

	total, err := s.client.ZCard(ctx, s.allKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}
	stats.TotalMessages = total

	ids, err := s.client.ZRange(ctx, s.allKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list message ids: %w", err)
	}
	for _, id := range ids {
		msg, err := s.GetMessage(ctx, id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		stats.SessionCounts[msg.SessionID]++
		stats.SenderCounts[string(msg.Sender)]++
	}

	return stats, nil
}

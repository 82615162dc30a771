package persistence

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryMessageStore is an in-memory implementation of MessageStore.
// Suitable for development and testing. Data is lost on restart.
type MemoryMessageStore struct {
	messages map[string]*MessageRecord
	mu       sync.RWMutex
	closed   bool
	config   StoreConfig
	stopCh   chan struct{}
}

// NewMemoryMessageStore creates a new in-memory message store.
func NewMemoryMessageStore(config StoreConfig) *MemoryMessageStore {
	store := &MemoryMessageStore{
		messages: make(map[string]*MessageRecord),
		config:   config,
		stopCh:   make(chan struct{}),
	}

	if config.Cleanup.Enabled {
		go store.cleanupLoop(config.Cleanup.Interval)
	}

	return store
}

// Close closes the store.
func (s *MemoryMessageStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.stopCh)
	}
	return nil
}

// Ping checks if the store is healthy.
func (s *MemoryMessageStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// SaveMessage persists a single message to the store.
func (s *MemoryMessageStore) SaveMessage(ctx context.Context, msg *MessageRecord) error {
	if msg == nil {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	cp := *msg
	s.messages[msg.ID] = &cp
	return nil
}

// SaveMessages persists multiple messages.
func (s *MemoryMessageStore) SaveMessages(ctx context.Context, msgs []*MessageRecord) error {
	for _, msg := range msgs {
		if err := s.SaveMessage(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// GetMessage retrieves a message by ID.
func (s *MemoryMessageStore) GetMessage(ctx context.Context, msgID string) (*MessageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	msg, ok := s.messages[msgID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *msg
	return &cp, nil
}

// ListBySession retrieves session messages in chronological order with
// cursor pagination. The cursor is the offset into the ordered list.
func (s *MemoryMessageStore) ListBySession(ctx context.Context, sessionID string, cursor string, limit int) ([]*MessageRecord, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, "", ErrStoreClosed
	}

	all := make([]*MessageRecord, 0)
	for _, msg := range s.messages {
		if msg.SessionID == sessionID {
			cp := *msg
			all = append(all, &cp)
		}
	}
	sortMessages(all)

	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 {
			return nil, "", ErrInvalidInput
		}
		offset = n
	}
	if offset >= len(all) {
		return []*MessageRecord{}, "", nil
	}
	all = all[offset:]

	next := ""
	if limit > 0 && limit < len(all) {
		all = all[:limit]
		next = strconv.Itoa(offset + limit)
	}

	return all, next, nil
}

// ListRecentBySession retrieves the newest limit session messages in
// chronological order.
func (s *MemoryMessageStore) ListRecentBySession(ctx context.Context, sessionID string, limit int) ([]*MessageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	all := make([]*MessageRecord, 0)
	for _, msg := range s.messages {
		if msg.SessionID == sessionID {
			cp := *msg
			all = append(all, &cp)
		}
	}
	sortMessages(all)
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

// ListByTask retrieves all messages attached to a task.
func (s *MemoryMessageStore) ListByTask(ctx context.Context, taskID string) ([]*MessageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	result := make([]*MessageRecord, 0)
	for _, msg := range s.messages {
		if msg.TaskID == taskID {
			cp := *msg
			result = append(result, &cp)
		}
	}
	sortMessages(result)
	return result, nil
}

// Cleanup removes messages older than the specified duration.
func (s *MemoryMessageStore) Cleanup(ctx context.Context, olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for id, msg := range s.messages {
		if msg.CreatedAt.Before(cutoff) {
			delete(s.messages, id)
			removed++
		}
	}
	return removed, nil
}

// Stats returns statistics about the message store.
func (s *MemoryMessageStore) Stats(ctx context.Context) (*MessageStoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	stats := &MessageStoreStats{
		TotalMessages: int64(len(s.messages)),
		SessionCounts: make(map[string]int64),
		SenderCounts:  make(map[string]int64),
	}
	for _, msg := range s.messages {
		stats.SessionCounts[msg.SessionID]++
		stats.SenderCounts[string(msg.Sender)]++
	}
	return stats, nil
}

// cleanupLoop periodically removes old messages.
func (s *MemoryMessageStore) cleanupLoop(interval time.Duration) {
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
			s.Cleanup(context.Background(), s.config.Cleanup.MessageRetention)
		}
	}
}

// sortMessages orders by creation time, then by ID for a stable order
// when timestamps collide.
func sortMessages(msgs []*MessageRecord) {
	sort.Slice(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
}

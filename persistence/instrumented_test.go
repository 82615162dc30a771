package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sekharnc/multi-agent-sk/task"
)

// recordingMetrics counts store operations and retries per label pair.
type recordingMetrics struct {
	mu         sync.Mutex
	operations map[string]int
	retries    map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		operations: make(map[string]int),
		retries:    make(map[string]int),
	}
}

func (m *recordingMetrics) RecordStoreOperation(backend, operation string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations[backend+"/"+operation]++
}

func (m *recordingMetrics) RecordStoreRetry(backend, operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retries[backend+"/"+operation]++
}

func TestInstrumentedTaskStore(t *testing.T) {
	sink := newRecordingMetrics()
	store := InstrumentTaskStore(NewMemoryTaskStore(DefaultStoreConfig()), "memory", sink)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	tk := newTask("t-1", "sess-1", task.StatusPending)
	require.NoError(t, store.SaveTask(ctx, tk))

	got, err := store.GetTask(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, "t-1", got.ID)

	_, err = store.ListTasks(ctx, TaskFilter{})
	require.NoError(t, err)

	assert.Equal(t, 1, sink.operations["memory/save_task"])
	assert.Equal(t, 1, sink.operations["memory/get_task"])
	assert.Equal(t, 1, sink.operations["memory/list_tasks"])

	t.Run("failed operations are still timed", func(t *testing.T) {
		_, err := store.GetTask(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, 2, sink.operations["memory/get_task"])
	})
}

func TestInstrumentedMessageStore(t *testing.T) {
	sink := newRecordingMetrics()
	store := InstrumentMessageStore(NewMemoryMessageStore(DefaultStoreConfig()), "memory", sink)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	require.NoError(t, store.SaveMessage(ctx, newMessage("m-1", "sess-1", time.Now())))

	_, _, err := store.ListBySession(ctx, "sess-1", "", 10)
	require.NoError(t, err)

	recent, err := store.ListRecentBySession(ctx, "sess-1", 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	assert.Equal(t, 1, sink.operations["memory/save_message"])
	assert.Equal(t, 1, sink.operations["memory/list_by_session"])
	assert.Equal(t, 1, sink.operations["memory/list_recent_by_session"])
}

func TestRetryConfigOnRetry(t *testing.T) {
	cfg := DefaultRetryConfig()
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 2 * time.Millisecond

	notified := 0
	cfg.OnRetry = func() { notified++ }

	calls := 0
	err := cfg.WithRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, notified)
}

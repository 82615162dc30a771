package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sekharnc/multi-agent-sk/task"
	"github.com/sekharnc/multi-agent-sk/types"
)

func redisTestConfig(t *testing.T) StoreConfig {
	t.Helper()
	mr := miniredis.RunT(t)
	cfg := DefaultStoreConfig()
	cfg.Type = StoreTypeRedis
	cfg.Redis.Addr = mr.Addr()
	cfg.Redis.KeyPrefix = "test:"
	cfg.Cleanup.Enabled = false
	return cfg
}

func TestRedisTaskStore_SaveAndGet(t *testing.T) {
	store, err := NewRedisTaskStore(redisTestConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))

	tk := newTask("t-1", "sess-1", task.StatusPending)
	tk.Steps = []task.Step{{ID: "s-1", TaskID: "t-1", Action: "do it", Agent: types.AgentGeneric, Status: task.StepStatusPlanned}}
	require.NoError(t, store.SaveTask(ctx, tk))

	got, err := store.GetTask(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, tk.Description, got.Description)
	require.Len(t, got.Steps, 1)
	assert.Equal(t, "s-1", got.Steps[0].ID)

	_, err = store.GetTask(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.SaveTask(ctx, nil), ErrInvalidInput)
}

func TestRedisTaskStore_StatusIndex(t *testing.T) {
	store, err := NewRedisTaskStore(redisTestConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	tk := newTask("t-1", "sess-1", task.StatusPending)
	require.NoError(t, store.SaveTask(ctx, tk))

	// Move to a new status; the old status index entry must be dropped.
	tk.Status = task.StatusCompleted
	require.NoError(t, store.SaveTask(ctx, tk))

	pending, err := store.ListTasks(ctx, TaskFilter{Status: []task.Status{task.StatusPending}})
	require.NoError(t, err)
	assert.Empty(t, pending)

	completed, err := store.ListTasks(ctx, TaskFilter{Status: []task.Status{task.StatusCompleted}})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "t-1", completed[0].ID)
}

func TestRedisTaskStore_List(t *testing.T) {
	store, err := NewRedisTaskStore(redisTestConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		tk := newTask(fmt.Sprintf("t-%d", i), "sess-a", task.StatusPending)
		tk.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if i >= 3 {
			tk.SessionID = "sess-b"
		}
		require.NoError(t, store.SaveTask(ctx, tk))
	}

	t.Run("newest first", func(t *testing.T) {
		got, err := store.ListTasks(ctx, TaskFilter{})
		require.NoError(t, err)
		require.Len(t, got, 5)
		assert.Equal(t, "t-4", got[0].ID)
		assert.Equal(t, "t-0", got[4].ID)
	})

	t.Run("by session", func(t *testing.T) {
		got, err := store.ListTasks(ctx, TaskFilter{SessionID: "sess-b"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("limit and offset", func(t *testing.T) {
		got, err := store.ListTasks(ctx, TaskFilter{Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "t-3", got[0].ID)
	})
}

func TestRedisTaskStore_RecoverableAndDelete(t *testing.T) {
	store, err := NewRedisTaskStore(redisTestConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	seed := map[string]task.Status{
		"t-pending":   task.StatusPending,
		"t-running":   task.StatusInProgress,
		"t-completed": task.StatusCompleted,
	}
	i := 0
	for id, status := range seed {
		tk := newTask(id, "sess-1", status)
		tk.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.SaveTask(ctx, tk))
		i++
	}

	recoverable, err := store.GetRecoverableTasks(ctx)
	require.NoError(t, err)
	require.Len(t, recoverable, 2)
	for _, tk := range recoverable {
		assert.NotEqual(t, task.StatusCompleted, tk.Status)
	}

	require.NoError(t, store.DeleteTask(ctx, "t-pending"))
	_, err = store.GetTask(ctx, "t-pending")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.DeleteTask(ctx, "t-pending"), ErrNotFound)
}

func TestRedisMessageStore_RoundTrip(t *testing.T) {
	store, err := NewRedisMessageStore(redisTestConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	base := time.Now().Add(-time.Minute)
	var msgs []*MessageRecord
	for i := 0; i < 5; i++ {
		msg := newMessage(fmt.Sprintf("m-%d", i), "sess-1", base.Add(time.Duration(i)*time.Second))
		if i < 2 {
			msg.TaskID = "task-1"
		}
		msgs = append(msgs, msg)
	}
	require.NoError(t, store.SaveMessages(ctx, msgs))

	t.Run("get", func(t *testing.T) {
		got, err := store.GetMessage(ctx, "m-0")
		require.NoError(t, err)
		assert.Equal(t, "message m-0", got.Content)

		_, err = store.GetMessage(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("cursor pagination", func(t *testing.T) {
		first, next, err := store.ListBySession(ctx, "sess-1", "", 3)
		require.NoError(t, err)
		require.Len(t, first, 3)
		require.NotEmpty(t, next)
		assert.Equal(t, "m-0", first[0].ID)

		rest, next, err := store.ListBySession(ctx, "sess-1", next, 3)
		require.NoError(t, err)
		require.Len(t, rest, 2)
		assert.Equal(t, "m-3", rest[0].ID)
		assert.Empty(t, next)
	})

	t.Run("bad cursor", func(t *testing.T) {
		_, _, err := store.ListBySession(ctx, "sess-1", "abc", 3)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("recent tail", func(t *testing.T) {
		got, err := store.ListRecentBySession(ctx, "sess-1", 3)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "m-2", got[0].ID)
		assert.Equal(t, "m-4", got[2].ID)

		all, err := store.ListRecentBySession(ctx, "sess-1", 0)
		require.NoError(t, err)
		require.Len(t, all, 5)
		assert.Equal(t, "m-0", all[0].ID)
	})

	t.Run("by task", func(t *testing.T) {
		got, err := store.ListByTask(ctx, "task-1")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "m-0", got[0].ID)
	})
}

func TestRedisStore_ConnectFailure(t *testing.T) {
	cfg := DefaultStoreConfig()
	cfg.Type = StoreTypeRedis
	cfg.Redis.Addr = "127.0.0.1:1"

	_, err := NewRedisTaskStore(cfg)
	assert.Error(t, err)
	_, err = NewRedisMessageStore(cfg)
	assert.Error(t, err)
}

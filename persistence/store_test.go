package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateBackoff(t *testing.T) {
	cfg := RetryConfig{
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        1 * time.Second,
		BackoffMultiplier: 2.0,
	}

	assert.Equal(t, 100*time.Millisecond, cfg.CalculateBackoff(0))
	assert.Equal(t, 100*time.Millisecond, cfg.CalculateBackoff(-1))
	assert.Equal(t, 200*time.Millisecond, cfg.CalculateBackoff(1))
	assert.Equal(t, 400*time.Millisecond, cfg.CalculateBackoff(2))
	assert.Equal(t, 800*time.Millisecond, cfg.CalculateBackoff(3))
	// Capped at MaxBackoff from here on.
	assert.Equal(t, 1*time.Second, cfg.CalculateBackoff(4))
	assert.Equal(t, 1*time.Second, cfg.CalculateBackoff(10))
}

func TestWithRetry(t *testing.T) {
	fastRetry := RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}

	t.Run("succeeds first try", func(t *testing.T) {
		calls := 0
		err := fastRetry.WithRetry(context.Background(), func() error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries transient errors", func(t *testing.T) {
		calls := 0
		err := fastRetry.WithRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errors.New("connection reset")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhausts retries", func(t *testing.T) {
		calls := 0
		transient := errors.New("still failing")
		err := fastRetry.WithRetry(context.Background(), func() error {
			calls++
			return transient
		})
		assert.ErrorIs(t, err, transient)
		assert.Equal(t, 4, calls)
	})

	t.Run("permanent errors abort immediately", func(t *testing.T) {
		for _, sentinel := range []error{ErrNotFound, ErrInvalidInput, ErrStoreClosed} {
			calls := 0
			err := fastRetry.WithRetry(context.Background(), func() error {
				calls++
				return sentinel
			})
			assert.ErrorIs(t, err, sentinel)
			assert.Equal(t, 1, calls)
		}
	})

	t.Run("context cancellation stops waiting", func(t *testing.T) {
		slow := RetryConfig{
			MaxRetries:        5,
			InitialBackoff:    time.Hour,
			MaxBackoff:        time.Hour,
			BackoffMultiplier: 2.0,
		}
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		done := make(chan error, 1)
		go func() {
			done <- slow.WithRetry(ctx, func() error {
				calls++
				return errors.New("transient")
			})
		}()
		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
			assert.Equal(t, 1, calls)
		case <-time.After(3 * time.Second):
			t.Fatal("retry did not observe cancellation")
		}
	})
}

func TestDefaultStoreConfig(t *testing.T) {
	cfg := DefaultStoreConfig()

	assert.Equal(t, StoreTypeMemory, cfg.Type)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.Retry.InitialBackoff)
	assert.True(t, cfg.Cleanup.Enabled)
	assert.Equal(t, time.Hour, cfg.Cleanup.Interval)
	assert.Equal(t, "multiagent", cfg.Mongo.Database)
	assert.Equal(t, "multiagent:", cfg.Redis.KeyPrefix)
}

func TestStoreFactory(t *testing.T) {
	cfg := DefaultStoreConfig()

	t.Run("memory task store", func(t *testing.T) {
		store, err := NewTaskStore(cfg)
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		assert.IsType(t, &MemoryTaskStore{}, store)
		assert.NoError(t, store.Ping(context.Background()))
	})

	t.Run("memory message store", func(t *testing.T) {
		store, err := NewMessageStore(cfg)
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		assert.IsType(t, &MemoryMessageStore{}, store)
	})

	t.Run("unknown backend", func(t *testing.T) {
		bad := cfg
		bad.Type = StoreType("cassandra")
		_, err := NewTaskStore(bad)
		assert.Error(t, err)
		_, err = NewMessageStore(bad)
		assert.Error(t, err)
	})
}

package persistence

import (
	"context"
	"errors"
	"time"
)

// Common errors
var (
	ErrNotFound     = errors.New("not found")
	ErrStoreClosed  = errors.New("store is closed")
	ErrInvalidInput = errors.New("invalid input")
)

// StoreType represents the type of storage backend.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeMongo  StoreType = "mongo"
	StoreTypeRedis  StoreType = "redis"
)

// RetryConfig defines retry behavior for store writes.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (default: 3)
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// InitialBackoff is the initial backoff duration (default: 100ms)
	InitialBackoff time.Duration `json:"initial_backoff" yaml:"initial_backoff"`

	// MaxBackoff is the maximum backoff duration (default: 5s)
	MaxBackoff time.Duration `json:"max_backoff" yaml:"max_backoff"`

	// BackoffMultiplier is the multiplier for exponential backoff (default: 2.0)
	BackoffMultiplier float64 `json:"backoff_multiplier" yaml:"backoff_multiplier"`

	// OnRetry, when set, is invoked before each retry attempt. The
	// server uses it to surface retry counts to metrics.
	OnRetry func() `json:"-" yaml:"-"`
}

// DefaultRetryConfig returns the default retry configuration.
// Conservative strategy: max 3 retries with exponential backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// CalculateBackoff calculates the backoff duration for a given retry attempt.
func (c RetryConfig) CalculateBackoff(attempt int) time.Duration {
	if attempt <= 0 {
		return c.InitialBackoff
	}

	backoff := c.InitialBackoff
	for i := 0; i < attempt; i++ {
		backoff = time.Duration(float64(backoff) * c.BackoffMultiplier)
		if backoff > c.MaxBackoff {
			return c.MaxBackoff
		}
	}
	return backoff
}

// WithRetry runs fn, retrying transient failures per the config.
// Context cancellation aborts the wait between attempts.
func (c RetryConfig) WithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			if c.OnRetry != nil {
				c.OnRetry()
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.CalculateBackoff(attempt - 1)):
			}
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		// Not-found and validation failures never succeed on retry.
		if errors.Is(lastErr, ErrNotFound) || errors.Is(lastErr, ErrInvalidInput) || errors.Is(lastErr, ErrStoreClosed) {
			return lastErr
		}
	}
	return lastErr
}

// CleanupConfig defines cleanup behavior for terminal tasks and old messages.
type CleanupConfig struct {
	// Enabled determines if automatic cleanup is enabled
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Interval is how often cleanup runs (default: 1h)
	Interval time.Duration `json:"interval" yaml:"interval"`

	// MessageRetention is how long to keep messages (default: 720h)
	MessageRetention time.Duration `json:"message_retention" yaml:"message_retention"`

	// TaskRetention is how long to keep terminal tasks (default: 168h)
	TaskRetention time.Duration `json:"task_retention" yaml:"task_retention"`
}

// DefaultCleanupConfig returns the default cleanup configuration.
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		Enabled:          true,
		Interval:         1 * time.Hour,
		MessageRetention: 30 * 24 * time.Hour,
		TaskRetention:    7 * 24 * time.Hour,
	}
}

// MongoStoreConfig contains Mongo-specific configuration.
type MongoStoreConfig struct {
	// URI is the connection string.
	URI string `json:"uri" yaml:"uri"`

	// Database is the database name.
	Database string `json:"database" yaml:"database"`

	// TaskCollection is the collection holding task documents.
	TaskCollection string `json:"task_collection" yaml:"task_collection"`

	// MessageCollection is the collection holding message documents.
	MessageCollection string `json:"message_collection" yaml:"message_collection"`
}

// RedisStoreConfig contains Redis-specific configuration.
type RedisStoreConfig struct {
	// Addr is the Redis server address (host:port).
	Addr string `json:"addr" yaml:"addr"`

	// Password is the Redis password (optional).
	Password string `json:"password" yaml:"password"`

	// DB is the Redis database number.
	DB int `json:"db" yaml:"db"`

	// PoolSize is the connection pool size.
	PoolSize int `json:"pool_size" yaml:"pool_size"`

	// KeyPrefix is the prefix for all Redis keys.
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix"`
}

// StoreConfig is the base configuration for all store implementations.
type StoreConfig struct {
	// Type is the storage backend type.
	Type StoreType `json:"type" yaml:"type"`

	// Mongo configuration (only used when Type is "mongo").
	Mongo MongoStoreConfig `json:"mongo" yaml:"mongo"`

	// Redis configuration (only used when Type is "redis").
	Redis RedisStoreConfig `json:"redis" yaml:"redis"`

	// Retry configuration.
	Retry RetryConfig `json:"retry" yaml:"retry"`

	// Cleanup configuration.
	Cleanup CleanupConfig `json:"cleanup" yaml:"cleanup"`
}

// DefaultStoreConfig returns the default store configuration.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Type: StoreTypeMemory,
		Mongo: MongoStoreConfig{
			URI:               "mongodb://localhost:27017",
			Database:          "multiagent",
			TaskCollection:    "tasks",
			MessageCollection: "messages",
		},
		Redis: RedisStoreConfig{
			Addr:      "localhost:6379",
			DB:        0,
			PoolSize:  10,
			KeyPrefix: "multiagent:",
		},
		Retry:   DefaultRetryConfig(),
		Cleanup: DefaultCleanupConfig(),
	}
}

// Store is the base interface for all persistent stores.
type Store interface {
	// Close closes the store and releases resources
	Close() error

	// Ping checks if the store is healthy
	Ping(ctx context.Context) error
}

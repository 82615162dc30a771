package config

import (
	"fmt"
	"time"
)

// DefaultConfig returns the built-in defaults. The memory store and a
// disabled telemetry exporter make the zero configuration runnable.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			MetricsPort:     9091,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateLimitRPS:    100,
			RateLimitBurst:  200,
		},
		Store: StoreConfig{
			Type: "memory",
			Mongo: MongoConfig{
				URI:               "mongodb://localhost:27017",
				Database:          "multiagent",
				TaskCollection:    "tasks",
				MessageCollection: "messages",
			},
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				DB:        0,
				PoolSize:  10,
				KeyPrefix: "multiagent:",
			},
			Retry: RetryConfig{
				MaxRetries:        3,
				InitialBackoff:    100 * time.Millisecond,
				MaxBackoff:        5 * time.Second,
				BackoffMultiplier: 2.0,
			},
			Cleanup: CleanupConfig{
				Enabled:          true,
				Interval:         1 * time.Hour,
				MessageRetention: 30 * 24 * time.Hour,
				TaskRetention:    7 * 24 * time.Hour,
			},
		},
		LLM: LLMConfig{
			Provider:   "openai",
			BaseURL:    "https://api.openai.com",
			Model:      "gpt-4o-mini",
			Timeout:    60 * time.Second,
			MaxRetries: 3,
		},
		Agents: AgentsConfig{
			MaxHistory: 20,
		},
		Orchestrator: OrchestratorConfig{
			Workers:      4,
			QueueSize:    64,
			TaskTimeout:  5 * time.Minute,
			HistoryLimit: 50,
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "json",
			OutputPaths: []string{"stdout"},
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			ServiceName: "multi-agent-sk",
			SampleRate:  1.0,
		},
	}
}

// Validate rejects configurations that cannot produce a working
// service.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort < 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics_port %d", c.Server.MetricsPort)
	}
	if c.Server.MetricsPort == c.Server.HTTPPort {
		return fmt.Errorf("metrics_port and http_port must differ")
	}

	switch c.Store.Type {
	case "memory":
	case "mongo":
		if c.Store.Mongo.URI == "" {
			return fmt.Errorf("store.mongo.uri is required for the mongo store")
		}
		if c.Store.Mongo.Database == "" {
			return fmt.Errorf("store.mongo.database is required for the mongo store")
		}
	case "redis":
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown store type %q", c.Store.Type)
	}

	if c.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url is required")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}

	if c.Telemetry.Enabled && c.Telemetry.OTLPEndpoint == "" {
		return fmt.Errorf("telemetry.otlp_endpoint is required when telemetry is enabled")
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		return fmt.Errorf("telemetry.sample_rate must be within [0, 1]")
	}
	return nil
}

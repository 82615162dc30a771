package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sekharnc/multi-agent-sk/persistence"
)

// Config is the full service configuration.
type Config struct {
	// Server holds the HTTP surface configuration.
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Store holds the task/message store configuration.
	Store StoreConfig `yaml:"store" env:"STORE"`

	// LLM holds the chat model provider configuration.
	LLM LLMConfig `yaml:"llm" env:"LLM"`

	// Agents holds the agent factory configuration.
	Agents AgentsConfig `yaml:"agents" env:"AGENTS"`

	// Orchestrator holds the task engine configuration.
	Orchestrator OrchestratorConfig `yaml:"orchestrator" env:"ORCHESTRATOR"`

	// Log holds the logging configuration.
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry holds the OpenTelemetry configuration.
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig configures the HTTP servers.
type ServerConfig struct {
	// HTTPPort is the API port.
	HTTPPort int `yaml:"http_port" env:"HTTP_PORT"`
	// MetricsPort is the Prometheus /metrics port.
	MetricsPort int `yaml:"metrics_port" env:"METRICS_PORT"`
	// ReadTimeout bounds request reads.
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// WriteTimeout bounds response writes. Streaming endpoints extend
	// it per response.
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// RateLimitRPS is the per-client request rate; zero disables.
	RateLimitRPS float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	// RateLimitBurst is the per-client burst size.
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
}

// StoreConfig configures the task and message stores.
type StoreConfig struct {
	// Type selects the backend: memory, mongo, or redis.
	Type string `yaml:"type" env:"TYPE"`

	Mongo MongoConfig `yaml:"mongo" env:"MONGO"`
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Retry controls transient write retries.
	Retry RetryConfig `yaml:"retry" env:"RETRY"`

	// Cleanup controls expiry of terminal tasks and old messages.
	Cleanup CleanupConfig `yaml:"cleanup" env:"CLEANUP"`
}

// MongoConfig configures the Mongo document store.
type MongoConfig struct {
	URI               string `yaml:"uri" env:"URI"`
	Database          string `yaml:"database" env:"DATABASE"`
	TaskCollection    string `yaml:"task_collection" env:"TASK_COLLECTION"`
	MessageCollection string `yaml:"message_collection" env:"MESSAGE_COLLECTION"`
}

// RedisConfig configures the Redis store.
type RedisConfig struct {
	Addr      string `yaml:"addr" env:"ADDR"`
	Password  string `yaml:"password" env:"PASSWORD"`
	DB        int    `yaml:"db" env:"DB"`
	PoolSize  int    `yaml:"pool_size" env:"POOL_SIZE"`
	KeyPrefix string `yaml:"key_prefix" env:"KEY_PREFIX"`
}

// RetryConfig configures store write retries.
type RetryConfig struct {
	MaxRetries        int           `yaml:"max_retries" env:"MAX_RETRIES"`
	InitialBackoff    time.Duration `yaml:"initial_backoff" env:"INITIAL_BACKOFF"`
	MaxBackoff        time.Duration `yaml:"max_backoff" env:"MAX_BACKOFF"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier" env:"BACKOFF_MULTIPLIER"`
}

// CleanupConfig configures store cleanup.
type CleanupConfig struct {
	Enabled          bool          `yaml:"enabled" env:"ENABLED"`
	Interval         time.Duration `yaml:"interval" env:"INTERVAL"`
	MessageRetention time.Duration `yaml:"message_retention" env:"MESSAGE_RETENTION"`
	TaskRetention    time.Duration `yaml:"task_retention" env:"TASK_RETENTION"`
}

// LLMConfig configures the chat model provider.
type LLMConfig struct {
	// Provider is a display name for logs and metrics.
	Provider string `yaml:"provider" env:"PROVIDER"`
	// APIKey authenticates against the provider.
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// APIKeyHeader overrides the auth header name; empty means a
	// standard bearer token.
	APIKeyHeader string `yaml:"api_key_header" env:"API_KEY_HEADER"`
	// BaseURL is the provider endpoint base.
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// Model is the default model name.
	Model string `yaml:"model" env:"MODEL"`
	// Timeout bounds one completion call.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// MaxRetries bounds completion retries.
	MaxRetries int `yaml:"max_retries" env:"MAX_RETRIES"`
}

// AgentsConfig configures the agent factory and summarizer.
type AgentsConfig struct {
	// MaxHistory bounds replayed session history per invocation.
	MaxHistory int `yaml:"max_history" env:"MAX_HISTORY"`
	// SummarizeThreshold is the reply length above which replies are
	// summarized for the history; zero keeps the default.
	SummarizeThreshold int `yaml:"summarize_threshold" env:"SUMMARIZE_THRESHOLD"`
}

// OrchestratorConfig configures task execution.
type OrchestratorConfig struct {
	Workers         int           `yaml:"workers" env:"WORKERS"`
	QueueSize       int           `yaml:"queue_size" env:"QUEUE_SIZE"`
	TaskTimeout     time.Duration `yaml:"task_timeout" env:"TASK_TIMEOUT"`
	RequireApproval bool          `yaml:"require_approval" env:"REQUIRE_APPROVAL"`
	HistoryLimit    int           `yaml:"history_limit" env:"HISTORY_LIMIT"`
}

// LogConfig configures zap.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format is json or console.
	Format string `yaml:"format" env:"FORMAT"`
	// OutputPaths lists zap output sinks.
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// EnableCaller annotates entries with the call site.
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" env:"ENABLED"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	ServiceName  string  `yaml:"service_name" env:"SERVICE_NAME"`
	SampleRate   float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// StoreConfig converts the store section into the persistence layer's
// configuration type.
func (c *Config) StoreConfig() persistence.StoreConfig {
	return persistence.StoreConfig{
		Type: persistence.StoreType(c.Store.Type),
		Mongo: persistence.MongoStoreConfig{
			URI:               c.Store.Mongo.URI,
			Database:          c.Store.Mongo.Database,
			TaskCollection:    c.Store.Mongo.TaskCollection,
			MessageCollection: c.Store.Mongo.MessageCollection,
		},
		Redis: persistence.RedisStoreConfig{
			Addr:      c.Store.Redis.Addr,
			Password:  c.Store.Redis.Password,
			DB:        c.Store.Redis.DB,
			PoolSize:  c.Store.Redis.PoolSize,
			KeyPrefix: c.Store.Redis.KeyPrefix,
		},
		Retry: persistence.RetryConfig{
			MaxRetries:        c.Store.Retry.MaxRetries,
			InitialBackoff:    c.Store.Retry.InitialBackoff,
			MaxBackoff:        c.Store.Retry.MaxBackoff,
			BackoffMultiplier: c.Store.Retry.BackoffMultiplier,
		},
		Cleanup: persistence.CleanupConfig{
			Enabled:          c.Store.Cleanup.Enabled,
			Interval:         c.Store.Cleanup.Interval,
			MessageRetention: c.Store.Cleanup.MessageRetention,
			TaskRetention:    c.Store.Cleanup.TaskRetention,
		},
	}
}

// Loader resolves configuration from defaults, a YAML file, and
// environment variables, in that order.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a loader with the default env prefix.
func NewLoader() *Loader {
	return &Loader{
		envPrefix: "MAS",
	}
}

// WithConfigPath sets the YAML file path. A missing file is not an
// error; defaults and env still apply.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix overrides the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator adds an extra validation step.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load resolves the configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}
	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (l *Loader) loadFromEnv(cfg *Config) error {
	return setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv walks the config struct and applies PREFIX_TAG
// environment overrides recursively.
func setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		envTag := t.Field(i).Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}
		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}
		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}
	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// Comma-separated string slices only.
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}
	return nil
}

// MustLoad loads the configuration or panics. For main() use only.
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sekharnc/multi-agent-sk/agent"
	"github.com/sekharnc/multi-agent-sk/agent/router"
	"github.com/sekharnc/multi-agent-sk/api/handlers"
	"github.com/sekharnc/multi-agent-sk/config"
	"github.com/sekharnc/multi-agent-sk/internal/metrics"
	"github.com/sekharnc/multi-agent-sk/internal/server"
	"github.com/sekharnc/multi-agent-sk/internal/telemetry"
	"github.com/sekharnc/multi-agent-sk/llm"
	"github.com/sekharnc/multi-agent-sk/orchestrator"
	"github.com/sekharnc/multi-agent-sk/persistence"
)

// Server assembles and runs every component: stores, provider, agents,
// orchestrator, and the HTTP and metrics servers.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	httpManager    *server.Manager
	metricsManager *server.Manager

	taskStore    persistence.TaskStore
	messageStore persistence.MessageStore
	orch         *orchestrator.Orchestrator
	collector    *metrics.Collector
	otel         *telemetry.Providers

	rateLimiterCancel context.CancelFunc
}

// NewServer creates a server from a validated configuration.
func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
	}
}

// Start brings every component up. On error the already-started pieces
// are shut down by the caller exiting.
func (s *Server) Start() error {
	s.collector = metrics.NewCollector("multi_agent", s.logger)

	otelProviders, err := telemetry.Init(s.cfg.Telemetry, s.logger)
	if err != nil {
		// Telemetry is best effort; the service runs without it.
		s.logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	s.otel = otelProviders

	if err := s.initStores(); err != nil {
		return fmt.Errorf("failed to init stores: %w", err)
	}

	provider := s.buildProvider()
	orch, err := s.buildOrchestrator(provider)
	if err != nil {
		return fmt.Errorf("failed to init orchestrator: %w", err)
	}
	s.orch = orch

	if err := s.startHTTPServer(provider); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("all servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.String("store", s.cfg.Store.Type),
		zap.Int("workers", s.cfg.Orchestrator.Workers),
	)
	return nil
}

func (s *Server) initStores() error {
	storeCfg := s.cfg.StoreConfig()
	backend := string(storeCfg.Type)
	storeCfg.Retry.OnRetry = func() {
		s.collector.RecordStoreRetry(backend, "save")
	}

	taskStore, err := persistence.NewTaskStore(storeCfg)
	if err != nil {
		return fmt.Errorf("task store: %w", err)
	}
	s.taskStore = persistence.InstrumentTaskStore(taskStore, backend, s.collector)

	messageStore, err := persistence.NewMessageStore(storeCfg)
	if err != nil {
		return fmt.Errorf("message store: %w", err)
	}
	s.messageStore = persistence.InstrumentMessageStore(messageStore, backend, s.collector)

	s.logger.Info("stores initialized", zap.String("type", s.cfg.Store.Type))
	return nil
}

// buildProvider constructs the LLM provider with retry and token
// accounting wrapped around it.
func (s *Server) buildProvider() llm.Provider {
	base := llm.NewOpenAIProvider(llm.OpenAIConfig{
		ProviderName: s.cfg.LLM.Provider,
		APIKey:       s.cfg.LLM.APIKey,
		APIKeyHeader: s.cfg.LLM.APIKeyHeader,
		BaseURL:      s.cfg.LLM.BaseURL,
		DefaultModel: s.cfg.LLM.Model,
		Timeout:      s.cfg.LLM.Timeout,
	}, s.logger)

	policy := llm.DefaultRetryPolicy()
	if s.cfg.LLM.MaxRetries > 0 {
		policy.MaxRetries = s.cfg.LLM.MaxRetries
	}

	return llm.NewResilientProvider(base, policy, s.logger).
		WithTokenizer(llm.NewTokenizer(s.cfg.LLM.Model)).
		WithMetrics(s.collector)
}

func (s *Server) buildOrchestrator(provider llm.Provider) (*orchestrator.Orchestrator, error) {
	factory := agent.NewFactory(provider, agent.FactoryConfig{
		Model:      s.cfg.LLM.Model,
		MaxHistory: s.cfg.Agents.MaxHistory,
	}, s.logger)

	summarizer := agent.NewSummarizer(provider, agent.SummarizerConfig{
		Model:     s.cfg.LLM.Model,
		Threshold: s.cfg.Agents.SummarizeThreshold,
	}, s.logger)

	orch := orchestrator.New(orchestrator.Config{
		Workers:         s.cfg.Orchestrator.Workers,
		QueueSize:       s.cfg.Orchestrator.QueueSize,
		TaskTimeout:     s.cfg.Orchestrator.TaskTimeout,
		RequireApproval: s.cfg.Orchestrator.RequireApproval,
		HistoryLimit:    s.cfg.Orchestrator.HistoryLimit,
	}, orchestrator.Dependencies{
		Tasks:      s.taskStore,
		Messages:   s.messageStore,
		Factory:    factory,
		Router:     router.New(nil, s.logger),
		Summarizer: summarizer,
		Metrics:    s.collector,
		Logger:     s.logger,
	})

	if err := orch.Start(context.Background()); err != nil {
		return nil, err
	}
	return orch, nil
}

func (s *Server) startHTTPServer(provider llm.Provider) error {
	health := handlers.NewHealthHandler(Version, s.logger)
	health.RegisterCheck(handlers.HealthCheckFunc{CheckName: "task_store", Fn: s.taskStore.Ping})
	health.RegisterCheck(handlers.HealthCheckFunc{CheckName: "message_store", Fn: s.messageStore.Ping})
	health.RegisterCheck(handlers.HealthCheckFunc{CheckName: "llm_provider", Fn: func(ctx context.Context) error {
		status, err := provider.HealthCheck(ctx)
		if err != nil {
			return err
		}
		if !status.Healthy {
			return errors.New("provider reports unhealthy")
		}
		return nil
	}})

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, s.orch, s.messageStore, health, s.logger)

	middlewares := []Middleware{
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		OTelTracing(),
		MetricsMiddleware(s.collector),
	}
	if s.cfg.Server.RateLimitRPS > 0 {
		rlCtx, rlCancel := context.WithCancel(context.Background())
		s.rateLimiterCancel = rlCancel
		middlewares = append(middlewares,
			RateLimiter(rlCtx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger))
	}
	handler := Chain(mux, middlewares...)

	s.httpManager = server.NewManager(handler, server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}, s.logger)

	if err := s.httpManager.Start(); err != nil {
		return err
	}
	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s.metricsManager = server.NewManager(mux, server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}, s.logger)

	if err := s.metricsManager.Start(); err != nil {
		return err
	}
	s.logger.Info("metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// WaitForShutdown blocks until a shutdown signal, then tears down the
// components in dependency order.
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}
	s.Shutdown()
}

// Shutdown stops accepting requests, drains the orchestrator, then
// closes stores and telemetry.
func (s *Server) Shutdown() {
	s.logger.Info("starting graceful shutdown")
	ctx := context.Background()

	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	if s.orch != nil {
		stopCtx, cancel := context.WithTimeout(ctx, s.cfg.Server.ShutdownTimeout)
		if err := s.orch.Stop(stopCtx); err != nil {
			s.logger.Error("orchestrator shutdown error", zap.Error(err))
		}
		cancel()
	}

	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("metrics server shutdown error", zap.Error(err))
		}
	}

	if s.taskStore != nil {
		if err := s.taskStore.Close(); err != nil {
			s.logger.Error("task store close error", zap.Error(err))
		}
	}
	if s.messageStore != nil {
		if err := s.messageStore.Close(); err != nil {
			s.logger.Error("message store close error", zap.Error(err))
		}
	}

	if s.otel != nil {
		if err := s.otel.Shutdown(ctx); err != nil {
			s.logger.Error("telemetry shutdown error", zap.Error(err))
		}
	}

	s.logger.Info("graceful shutdown completed")
}

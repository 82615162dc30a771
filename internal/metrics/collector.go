package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector registers and records all service metrics.
type Collector struct {
	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRequestSize     *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// LLM metrics
	llmRequestsTotal   *prometheus.CounterVec
	llmRequestDuration *prometheus.HistogramVec
	llmTokensUsed      *prometheus.CounterVec

	// Agent metrics
	agentInvocationsTotal   *prometheus.CounterVec
	agentInvocationDuration *prometheus.HistogramVec

	// Task metrics
	tasksSubmittedTotal *prometheus.CounterVec
	tasksFinishedTotal  *prometheus.CounterVec
	taskDuration        *prometheus.HistogramVec
	taskStepsTotal      *prometheus.CounterVec
	activeTasks         prometheus.Gauge
	routingTotal        *prometheus.CounterVec

	// Store metrics
	storeOperationDuration *prometheus.HistogramVec
	storeRetriesTotal      *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector creates a collector and registers every metric under the
// given namespace with the default Prometheus registry.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// HTTP metrics
	c.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.httpRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_size_bytes",
			Help:      "HTTP request size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	c.httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// LLM metrics
	c.llmRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM requests",
		},
		[]string{"provider", "model", "status"},
	)

	c.llmRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "LLM request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	c.llmTokensUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_used_total",
			Help:      "Total number of tokens used",
		},
		[]string{"provider", "model", "type"}, // type: prompt, completion
	)

	// Agent metrics
	c.agentInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_invocations_total",
			Help:      "Total number of agent invocations",
		},
		[]string{"agent_type", "status"},
	)

	c.agentInvocationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_invocation_duration_seconds",
			Help:      "Agent invocation duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"agent_type"},
	)

	// Task metrics
	c.tasksSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_submitted_total",
			Help:      "Total number of tasks submitted",
		},
		[]string{"agent_type"},
	)

	c.tasksFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_finished_total",
			Help:      "Total number of tasks reaching a terminal status",
		},
		[]string{"status"},
	)

	c.taskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Task duration from start to terminal status in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"status"},
	)

	c.taskStepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_steps_total",
			Help:      "Total number of executed task steps",
		},
		[]string{"agent_type", "status"},
	)

	c.activeTasks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_tasks",
			Help:      "Number of tasks currently executing",
		},
	)

	c.routingTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routing_decisions_total",
			Help:      "Total number of routing decisions",
		},
		[]string{"agent_type", "method"},
	)

	// Store metrics
	c.storeOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Store operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	c.storeRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_retries_total",
			Help:      "Total number of retried store operations",
		},
		[]string{"backend", "operation"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// RecordHTTPRequest records one HTTP request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration, requestSize, responseSize int64) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	c.httpRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	c.httpResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// RecordLLMRequest records one chat completion call.
func (c *Collector) RecordLLMRequest(provider, model, status string, duration time.Duration, promptTokens, completionTokens int) {
	c.llmRequestsTotal.WithLabelValues(provider, model, status).Inc()
	c.llmRequestDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
	c.llmTokensUsed.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	c.llmTokensUsed.WithLabelValues(provider, model, "completion").Add(float64(completionTokens))
}

// RecordAgentInvocation records one agent invocation.
func (c *Collector) RecordAgentInvocation(agentType, status string, duration time.Duration) {
	c.agentInvocationsTotal.WithLabelValues(agentType, status).Inc()
	c.agentInvocationDuration.WithLabelValues(agentType).Observe(duration.Seconds())
}

// RecordTaskSubmitted records one submitted task.
func (c *Collector) RecordTaskSubmitted(agentType string) {
	c.tasksSubmittedTotal.WithLabelValues(agentType).Inc()
}

// RecordTaskFinished records a task reaching a terminal status.
func (c *Collector) RecordTaskFinished(status string, duration time.Duration) {
	c.tasksFinishedTotal.WithLabelValues(status).Inc()
	c.taskDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordStep records one executed step.
func (c *Collector) RecordStep(agentType, status string) {
	c.taskStepsTotal.WithLabelValues(agentType, status).Inc()
}

// TaskStarted increments the active task gauge.
func (c *Collector) TaskStarted() { c.activeTasks.Inc() }

// TaskStopped decrements the active task gauge.
func (c *Collector) TaskStopped() { c.activeTasks.Dec() }

// RecordRouting records one routing decision.
func (c *Collector) RecordRouting(agentType, method string) {
	c.routingTotal.WithLabelValues(agentType, method).Inc()
}

// RecordStoreOperation records one store operation.
func (c *Collector) RecordStoreOperation(backend, operation string, duration time.Duration) {
	c.storeOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// RecordStoreRetry records one retried store operation.
func (c *Collector) RecordStoreRetry(backend, operation string) {
	c.storeRetriesTotal.WithLabelValues(backend, operation).Inc()
}

// statusCode buckets an HTTP status code into its class.
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

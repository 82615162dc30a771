package llm

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RequestMetrics receives per-completion outcomes. Implemented by the
// metrics collector.
type RequestMetrics interface {
	RecordLLMRequest(provider, model, status string, duration time.Duration, promptTokens, completionTokens int)
}

// ResilientProvider wraps a Provider with retry on retryable upstream
// failures and token-usage estimation when the upstream omits usage.
// Streams are not retried: once chunks have been delivered the call is
// not safe to repeat.
type ResilientProvider struct {
	inner     Provider
	retryer   *Retryer
	tokenizer *Tokenizer
	metrics   RequestMetrics
	logger    *zap.Logger
}

// NewResilientProvider wraps inner with the given retry policy.
func NewResilientProvider(inner Provider, policy *RetryPolicy, logger *zap.Logger) *ResilientProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResilientProvider{
		inner:   inner,
		retryer: NewRetryer(policy, logger),
		logger:  logger.With(zap.String("component", "resilient_provider")),
	}
}

// WithTokenizer enables usage estimation for responses without usage.
func (p *ResilientProvider) WithTokenizer(t *Tokenizer) *ResilientProvider {
	p.tokenizer = t
	return p
}

// WithMetrics records every completion outcome to m.
func (p *ResilientProvider) WithMetrics(m RequestMetrics) *ResilientProvider {
	p.metrics = m
	return p
}

// Name returns the wrapped provider's identifier.
func (p *ResilientProvider) Name() string { return p.inner.Name() }

// Completion performs a completion with retries.
func (p *ResilientProvider) Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	start := time.Now()
	var resp *ChatResponse
	err := p.retryer.Do(ctx, func() error {
		var callErr error
		resp, callErr = p.inner.Completion(ctx, req)
		return callErr
	})
	if err != nil {
		p.record(req.Model, "error", start, nil)
		return nil, err
	}

	if resp.Usage.TotalTokens == 0 && p.tokenizer != nil {
		p.estimateUsage(req, resp)
	}
	p.record(req.Model, "success", start, resp)
	return resp, nil
}

// record reports one completion outcome, retries included in the
// duration. No-op without a metrics sink.
func (p *ResilientProvider) record(model, status string, start time.Time, resp *ChatResponse) {
	if p.metrics == nil {
		return
	}
	var prompt, completion int
	if resp != nil {
		if resp.Model != "" {
			model = resp.Model
		}
		prompt = resp.Usage.PromptTokens
		completion = resp.Usage.CompletionTokens
	}
	p.metrics.RecordLLMRequest(p.inner.Name(), model, status, time.Since(start), prompt, completion)
}

// Stream delegates to the wrapped provider without retry.
func (p *ResilientProvider) Stream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error) {
	return p.inner.Stream(ctx, req)
}

// HealthCheck delegates to the wrapped provider.
func (p *ResilientProvider) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	return p.inner.HealthCheck(ctx)
}

// estimateUsage fills resp.Usage from the tokenizer. Estimation errors
// are logged and ignored; usage stays zero.
func (p *ResilientProvider) estimateUsage(req *ChatRequest, resp *ChatResponse) {
	prompt, err := p.tokenizer.CountMessages(req.Messages)
	if err != nil {
		p.logger.Debug("usage estimation failed", zap.Error(err))
		return
	}
	completion, err := p.tokenizer.CountTokens(resp.Text())
	if err != nil {
		p.logger.Debug("usage estimation failed", zap.Error(err))
		return
	}
	resp.Usage = ChatUsage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
		Estimated:        true,
	}
}

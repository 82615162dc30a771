package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sekharnc/multi-agent-sk/types"
)

// OpenAIConfig holds the configuration for an OpenAI-compatible chat
// endpoint. Azure OpenAI deployments work by setting BaseURL to the
// deployment URL and APIKeyHeader to "api-key".
type OpenAIConfig struct {
	// ProviderName is the identifier used in responses and logs.
	ProviderName string

	// APIKey is the authentication key for the endpoint.
	APIKey string

	// APIKeyHeader is the header carrying the key. Empty means
	// "Authorization: Bearer <key>".
	APIKeyHeader string

	// BaseURL is the base URL of the API.
	BaseURL string

	// DefaultModel is used when the request does not name a model.
	DefaultModel string

	// EndpointPath is the chat completions path. Defaults to
	// "/v1/chat/completions".
	EndpointPath string

	// Timeout is the HTTP client timeout. Defaults to 60s if zero.
	Timeout time.Duration
}

// OpenAIProvider is an OpenAI-compatible chat completion client.
type OpenAIProvider struct {
	cfg    OpenAIConfig
	client *http.Client
	logger *zap.Logger
}

// NewOpenAIProvider creates a new OpenAI-compatible provider.
func NewOpenAIProvider(cfg OpenAIConfig, logger *zap.Logger) *OpenAIProvider {
	if cfg.ProviderName == "" {
		cfg.ProviderName = "openai"
	}
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/v1/chat/completions"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With(zap.String("component", "llm_provider"), zap.String("provider", cfg.ProviderName)),
	}
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string { return p.cfg.ProviderName }

func (p *OpenAIProvider) endpoint() string {
	return strings.TrimRight(p.cfg.BaseURL, "/") + p.cfg.EndpointPath
}

func (p *OpenAIProvider) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if p.cfg.APIKeyHeader != "" {
		req.Header.Set(p.cfg.APIKeyHeader, p.cfg.APIKey)
		return
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
}

// wireRequest is the OpenAI chat completions request body.
type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature,omitempty"`
	TopP        float32       `json:"top_p,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

// wireResponse is the OpenAI chat completions response body; delta is
// set on stream chunks, message on full responses.
type wireResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Created int64  `json:"created"`
	Choices []struct {
		Index        int          `json:"index"`
		FinishReason string       `json:"finish_reason"`
		Message      *wireMessage `json:"message"`
		Delta        *wireMessage `json:"delta"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *OpenAIProvider) buildBody(req *ChatRequest, stream bool) wireRequest {
	model := req.Model
	if model == "" {
		model = p.cfg.DefaultModel
	}
	messages := make([]wireMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = wireMessage{Role: string(m.Role), Content: m.Content, Name: m.Name}
	}
	return wireRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stop:        req.Stop,
		Stream:      stream,
	}
}

func (p *OpenAIProvider) do(ctx context.Context, body wireRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	p.setHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, types.NewError(types.ErrUpstreamError, err.Error()).
			WithHTTPStatus(http.StatusBadGateway).
			WithRetryable(true).
			WithCause(err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, MapHTTPError(resp.StatusCode, readErrorMessage(resp.Body))
	}
	return resp, nil
}

// Completion performs a non-streaming chat completion.
func (p *OpenAIProvider) Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	resp, err := p.do(ctx, p.buildBody(req, false))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var wire wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, types.NewError(types.ErrUpstreamError, "decode response").
			WithHTTPStatus(http.StatusBadGateway).
			WithRetryable(true).
			WithCause(err)
	}

	result := &ChatResponse{
		ID:       wire.ID,
		Provider: p.Name(),
		Model:    wire.Model,
	}
	if wire.Created != 0 {
		result.CreatedAt = time.Unix(wire.Created, 0)
	}
	for _, c := range wire.Choices {
		choice := ChatChoice{Index: c.Index, FinishReason: c.FinishReason}
		if c.Message != nil {
			choice.Message = types.ChatMessage{
				Role:    types.Role(c.Message.Role),
				Content: c.Message.Content,
				Name:    c.Message.Name,
			}
		}
		result.Choices = append(result.Choices, choice)
	}
	if wire.Usage != nil {
		result.Usage = ChatUsage{
			PromptTokens:     wire.Usage.PromptTokens,
			CompletionTokens: wire.Usage.CompletionTokens,
			TotalTokens:      wire.Usage.TotalTokens,
		}
	}
	return result, nil
}

// Stream performs a streaming chat completion via SSE.
func (p *OpenAIProvider) Stream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error) {
	resp, err := p.do(ctx, p.buildBody(req, true))
	if err != nil {
		return nil, err
	}
	return p.streamSSE(ctx, resp.Body), nil
}

// streamSSE parses an SSE stream and returns a channel of chunks. The
// body is closed when the stream ends.
func (p *OpenAIProvider) streamSSE(ctx context.Context, body io.ReadCloser) <-chan StreamChunk {
	ch := make(chan StreamChunk)
	go func() {
		defer body.Close()
		defer close(ch)
		reader := bufio.NewReader(body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err != io.EOF {
					emit(ctx, ch, StreamChunk{Err: types.NewError(types.ErrUpstreamError, err.Error()).
						WithHTTPStatus(http.StatusBadGateway).
						WithRetryable(true)})
				}
				return
			}
			line = strings.TrimSpace(line)
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				return
			}

			var wire wireResponse
			if err := json.Unmarshal([]byte(data), &wire); err != nil {
				emit(ctx, ch, StreamChunk{Err: types.NewError(types.ErrUpstreamError, err.Error()).
					WithHTTPStatus(http.StatusBadGateway).
					WithRetryable(true)})
				return
			}

			for _, c := range wire.Choices {
				chunk := StreamChunk{
					ID:           wire.ID,
					Provider:     p.Name(),
					Model:        wire.Model,
					Index:        c.Index,
					FinishReason: c.FinishReason,
					Delta:        types.ChatMessage{Role: types.RoleAssistant},
				}
				if c.Delta != nil {
					chunk.Delta.Content = c.Delta.Content
				}
				if wire.Usage != nil {
					chunk.Usage = &ChatUsage{
						PromptTokens:     wire.Usage.PromptTokens,
						CompletionTokens: wire.Usage.CompletionTokens,
						TotalTokens:      wire.Usage.TotalTokens,
					}
				}
				if !emit(ctx, ch, chunk) {
					return
				}
			}
		}
	}()
	return ch
}

// emit sends a chunk unless the context is done. Returns false when the
// consumer is gone.
func emit(ctx context.Context, ch chan<- StreamChunk, chunk StreamChunk) bool {
	select {
	case <-ctx.Done():
		return false
	case ch <- chunk:
		return true
	}
}

// HealthCheck verifies the endpoint is reachable.
func (p *OpenAIProvider) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(p.cfg.BaseURL, "/")+"/v1/models", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	p.setHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return &HealthStatus{Healthy: false, Latency: latency}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &HealthStatus{Healthy: false, Latency: latency},
			fmt.Errorf("%s health check failed: status=%d", p.Name(), resp.StatusCode)
	}
	return &HealthStatus{Healthy: true, Latency: latency}, nil
}

// readErrorMessage extracts an error message from an upstream error
// body, falling back to the raw text.
func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return "upstream error"
	}
	var wire wireResponse
	if err := json.Unmarshal(raw, &wire); err == nil && wire.Error != nil && wire.Error.Message != "" {
		return wire.Error.Message
	}
	return string(raw)
}

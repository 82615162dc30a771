package llm

import (
	"context"
	"net/http"
	"time"

	"github.com/sekharnc/multi-agent-sk/types"
)

// ChatRequest is a chat completion request.
type ChatRequest struct {
	Model       string              `json:"model"`
	Messages    []types.ChatMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float32             `json:"temperature,omitempty"`
	TopP        float32             `json:"top_p,omitempty"`
	Stop        []string            `json:"stop,omitempty"`
	Timeout     time.Duration       `json:"timeout,omitempty"`
	Metadata    map[string]string   `json:"metadata,omitempty"`
}

// ChatUsage reports token consumption for a completion.
type ChatUsage struct {
	PromptTokens     int  `json:"prompt_tokens,omitempty"`
	CompletionTokens int  `json:"completion_tokens,omitempty"`
	TotalTokens      int  `json:"total_tokens,omitempty"`
	Estimated        bool `json:"estimated,omitempty"`
}

// ChatChoice is one candidate completion.
type ChatChoice struct {
	Index        int               `json:"index"`
	FinishReason string            `json:"finish_reason,omitempty"`
	Message      types.ChatMessage `json:"message"`
}

// ChatResponse is a chat completion response.
type ChatResponse struct {
	ID        string       `json:"id,omitempty"`
	Provider  string       `json:"provider,omitempty"`
	Model     string       `json:"model"`
	Choices   []ChatChoice `json:"choices"`
	Usage     ChatUsage    `json:"usage,omitempty"`
	CreatedAt time.Time    `json:"created_at,omitempty"`
}

// Text returns the content of the first choice, or "".
func (r *ChatResponse) Text() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// StreamChunk is one increment of a streaming completion. The final
// chunk may carry usage; a chunk with Err set terminates the stream.
type StreamChunk struct {
	ID           string            `json:"id,omitempty"`
	Provider     string            `json:"provider,omitempty"`
	Model        string            `json:"model,omitempty"`
	Index        int               `json:"index,omitempty"`
	Delta        types.ChatMessage `json:"delta"`
	FinishReason string            `json:"finish_reason,omitempty"`
	Usage        *ChatUsage        `json:"usage,omitempty"`
	Err          *types.Error      `json:"error,omitempty"`
}

// HealthStatus reports the result of a provider health check.
type HealthStatus struct {
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency"`
}

// Provider is a chat model backend.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Completion performs a non-streaming chat completion.
	Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Stream performs a streaming chat completion. The returned channel
	// is closed when the stream ends.
	Stream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error)

	// HealthCheck verifies the provider is reachable.
	HealthCheck(ctx context.Context) (*HealthStatus, error)
}

// MapHTTPError converts an upstream HTTP status to a typed error.
func MapHTTPError(status int, msg string) *types.Error {
	switch {
	case status == http.StatusTooManyRequests:
		return types.NewError(types.ErrModelOverloaded, msg).
			WithHTTPStatus(http.StatusServiceUnavailable).
			WithRetryable(true)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return types.NewError(types.ErrUpstreamTimeout, msg).
			WithHTTPStatus(http.StatusGatewayTimeout).
			WithRetryable(true)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return types.NewError(types.ErrInvalidRequest, msg).
			WithHTTPStatus(http.StatusBadRequest)
	case status == http.StatusForbidden:
		return types.NewError(types.ErrContentFiltered, msg).
			WithHTTPStatus(http.StatusUnprocessableEntity)
	case status >= 500:
		return types.NewError(types.ErrUpstreamError, msg).
			WithHTTPStatus(http.StatusBadGateway).
			WithRetryable(true)
	default:
		return types.NewError(types.ErrUpstreamError, msg).
			WithHTTPStatus(http.StatusBadGateway)
	}
}

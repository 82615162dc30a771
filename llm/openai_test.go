package llm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sekharnc/multi-agent-sk/types"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIProvider(OpenAIConfig{
		ProviderName: "test",
		APIKey:       "sk-test",
		BaseURL:      srv.URL,
		DefaultModel: "gpt-4o-mini",
		Timeout:      5 * time.Second,
	}, zaptest.NewLogger(t))
}

func completionRequest(content string) *ChatRequest {
	return &ChatRequest{Messages: []types.ChatMessage{types.NewUserMessage(content)}}
}

func TestOpenAICompletion(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody wireRequest
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, `{
			"id": "chatcmpl-1",
			"model": "gpt-4o-mini",
			"created": 1700000000,
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "hello there"}}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
		}`)
	})

	resp, err := provider.Completion(t.Context(), completionRequest("hi"))
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "/v1/chat/completions", gotPath)
	assert.Equal(t, "gpt-4o-mini", gotBody.Model)
	assert.False(t, gotBody.Stream)

	assert.Equal(t, "chatcmpl-1", resp.ID)
	assert.Equal(t, "test", resp.Provider)
	assert.Equal(t, "hello there", resp.Text())
	assert.Equal(t, "stop", resp.Choices[0].FinishReason)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
	assert.Equal(t, time.Unix(1700000000, 0), resp.CreatedAt)
}

func TestOpenAICustomKeyHeader(t *testing.T) {
	var gotKey, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("api-key")
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"choices": [{"message": {"role": "assistant", "content": "ok"}}]}`)
	}))
	t.Cleanup(srv.Close)

	provider := NewOpenAIProvider(OpenAIConfig{
		APIKey:       "azure-key",
		APIKeyHeader: "api-key",
		BaseURL:      srv.URL,
		DefaultModel: "gpt-4o",
	}, nil)
	assert.Equal(t, "openai", provider.Name())

	_, err := provider.Completion(t.Context(), completionRequest("hi"))
	require.NoError(t, err)
	assert.Equal(t, "azure-key", gotKey)
	assert.Empty(t, gotAuth)
}

func TestOpenAIErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCode  types.ErrorCode
		retryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error": {"message": "slow down"}}`, types.ErrModelOverloaded, true},
		{"server error", http.StatusInternalServerError, `boom`, types.ErrUpstreamError, true},
		{"bad request", http.StatusBadRequest, `{"error": {"message": "bad model"}}`, types.ErrInvalidRequest, false},
		{"content filtered", http.StatusForbidden, `{"error": {"message": "filtered"}}`, types.ErrContentFiltered, false},
		{"gateway timeout", http.StatusGatewayTimeout, ``, types.ErrUpstreamTimeout, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})
			_, err := provider.Completion(t.Context(), completionRequest("hi"))
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, types.GetErrorCode(err))
			assert.Equal(t, tt.retryable, types.IsRetryable(err))
		})
	}
}

func TestOpenAIErrorMessageExtraction(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error": {"message": "tokens per minute exceeded"}}`)
	})
	_, err := provider.Completion(t.Context(), completionRequest("hi"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tokens per minute exceeded")
}

func TestOpenAIStream(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var body wireRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"id\": \"c1\", \"model\": \"gpt-4o-mini\", \"choices\": [{\"index\": 0, \"delta\": {\"content\": \"hel\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"id\": \"c1\", \"choices\": [{\"index\": 0, \"delta\": {\"content\": \"lo\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"id\": \"c1\", \"choices\": [{\"index\": 0, \"delta\": {}, \"finish_reason\": \"stop\"}], \"usage\": {\"prompt_tokens\": 5, \"completion_tokens\": 2, \"total_tokens\": 7}}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	ch, err := provider.Stream(t.Context(), completionRequest("hi"))
	require.NoError(t, err)

	var content string
	var finish string
	var usage *ChatUsage
	for chunk := range ch {
		require.Nil(t, chunk.Err)
		content += chunk.Delta.Content
		if chunk.FinishReason != "" {
			finish = chunk.FinishReason
		}
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
	}

	assert.Equal(t, "hello", content)
	assert.Equal(t, "stop", finish)
	require.NotNil(t, usage)
	assert.Equal(t, 7, usage.TotalTokens)
}

func TestOpenAIStreamMalformedChunk(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {not json}\n\n")
	})

	ch, err := provider.Stream(t.Context(), completionRequest("hi"))
	require.NoError(t, err)

	var sawErr bool
	for chunk := range ch {
		if chunk.Err != nil {
			sawErr = true
			assert.Equal(t, types.ErrUpstreamError, chunk.Err.Code)
		}
	}
	assert.True(t, sawErr)
}

func TestOpenAIHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/models", r.URL.Path)
			fmt.Fprint(w, `{"data": []}`)
		})
		status, err := provider.HealthCheck(t.Context())
		require.NoError(t, err)
		assert.True(t, status.Healthy)
	})

	t.Run("unhealthy", func(t *testing.T) {
		provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		status, err := provider.HealthCheck(t.Context())
		require.Error(t, err)
		assert.False(t, status.Healthy)
	})
}

func TestMapHTTPError(t *testing.T) {
	err := MapHTTPError(http.StatusTeapot, "odd status")
	assert.Equal(t, types.ErrUpstreamError, err.Code)
	assert.False(t, err.Retryable)
	assert.Equal(t, http.StatusBadGateway, err.HTTPStatus)
}

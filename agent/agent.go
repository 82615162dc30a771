package agent

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sekharnc/multi-agent-sk/llm"
	"github.com/sekharnc/multi-agent-sk/types"
)

// Request carries one invocation of an agent.
type Request struct {
	SessionID string              `json:"session_id"`
	UserID    string              `json:"user_id,omitempty"`
	Input     string              `json:"input"`
	History   []types.ChatMessage `json:"history,omitempty"`
	Metadata  map[string]string   `json:"metadata,omitempty"`
}

// Response is the result of one invocation.
type Response struct {
	Content  string        `json:"content"`
	Model    string        `json:"model,omitempty"`
	Provider string        `json:"provider,omitempty"`
	Usage    llm.ChatUsage `json:"usage,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// Agent executes requests on behalf of one role.
type Agent interface {
	// Type returns the role this agent serves.
	Type() types.AgentType

	// Name returns the agent's display name.
	Name() string

	// Description returns a one-line capability summary, used by the
	// planner when assigning steps.
	Description() string

	// Invoke runs one request to completion.
	Invoke(ctx context.Context, req *Request) (*Response, error)

	// InvokeStream runs one request and streams the reply. The channel
	// is closed when the reply ends.
	InvokeStream(ctx context.Context, req *Request) (<-chan llm.StreamChunk, error)
}

// LLMAgent is an Agent backed by a chat model. It prepends the role's
// system message, replays a bounded window of session history, and
// appends the current input.
type LLMAgent struct {
	def        Definition
	provider   llm.Provider
	model      string
	sessionID  string
	userID     string
	maxHistory int
	logger     *zap.Logger
}

// LLMAgentOptions tunes an LLMAgent beyond its definition.
type LLMAgentOptions struct {
	// Model overrides the provider's default model when non-empty.
	Model string

	// MaxHistory bounds how many trailing history messages are replayed
	// per invocation. Zero means DefaultMaxHistory.
	MaxHistory int

	Logger *zap.Logger
}

// DefaultMaxHistory is the history window replayed when none is set.
const DefaultMaxHistory = 20

// NewLLMAgent builds an agent for one role bound to one session.
func NewLLMAgent(def Definition, provider llm.Provider, sessionID, userID string, opts LLMAgentOptions) (*LLMAgent, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if opts.MaxHistory <= 0 {
		opts.MaxHistory = DefaultMaxHistory
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &LLMAgent{
		def:        def,
		provider:   provider,
		model:      opts.Model,
		sessionID:  sessionID,
		userID:     userID,
		maxHistory: opts.MaxHistory,
		logger: opts.Logger.With(
			zap.String("component", "agent"),
			zap.String("agent_type", string(def.Type)),
			zap.String("session_id", sessionID),
		),
	}, nil
}

func (a *LLMAgent) Type() types.AgentType { return a.def.Type }
func (a *LLMAgent) Name() string          { return a.def.Name }
func (a *LLMAgent) Description() string   { return a.def.Description }

// SessionID returns the session this agent is bound to.
func (a *LLMAgent) SessionID() string { return a.sessionID }

// Invoke runs one completion with the role prompt and session history.
func (a *LLMAgent) Invoke(ctx context.Context, req *Request) (*Response, error) {
	if err := a.checkRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := a.provider.Completion(ctx, a.buildChatRequest(req))
	if err != nil {
		a.logger.Warn("agent invocation failed",
			zap.String("user_id", req.UserID),
			zap.Error(err))
		return nil, err
	}

	content := strings.TrimSpace(resp.Text())
	if content == "" {
		return nil, types.NewError(types.ErrUpstreamError, "model returned an empty reply")
	}

	a.logger.Debug("agent invocation completed",
		zap.Int("history_messages", len(req.History)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("duration", time.Since(start)))

	return &Response{
		Content:  content,
		Model:    resp.Model,
		Provider: resp.Provider,
		Usage:    resp.Usage,
		Duration: time.Since(start),
	}, nil
}

// InvokeStream runs one streaming completion with the role prompt and
// session history.
func (a *LLMAgent) InvokeStream(ctx context.Context, req *Request) (<-chan llm.StreamChunk, error) {
	if err := a.checkRequest(req); err != nil {
		return nil, err
	}
	return a.provider.Stream(ctx, a.buildChatRequest(req))
}

func (a *LLMAgent) checkRequest(req *Request) error {
	if req == nil || strings.TrimSpace(req.Input) == "" {
		return types.NewError(types.ErrInvalidRequest, "agent request input is empty")
	}
	return nil
}

func (a *LLMAgent) buildChatRequest(req *Request) *llm.ChatRequest {
	history := req.History
	if len(history) > a.maxHistory {
		history = history[len(history)-a.maxHistory:]
	}

	messages := make([]types.ChatMessage, 0, len(history)+2)
	messages = append(messages, types.NewSystemMessage(a.def.SystemMessage))
	messages = append(messages, history...)
	messages = append(messages, types.NewUserMessage(req.Input))

	return &llm.ChatRequest{
		Model:       a.model,
		Messages:    messages,
		MaxTokens:   a.def.MaxTokens,
		Temperature: a.def.Temperature,
		Metadata:    req.Metadata,
	}
}

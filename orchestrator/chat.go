package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/sekharnc/multi-agent-sk/agent"
	"github.com/sekharnc/multi-agent-sk/agent/router"
	"github.com/sekharnc/multi-agent-sk/llm"
	"github.com/sekharnc/multi-agent-sk/persistence"
	"github.com/sekharnc/multi-agent-sk/types"
)

// ChatRequest is one direct chat turn, outside any task.
type ChatRequest struct {
	SessionID string            `json:"session_id,omitempty"`
	UserID    string            `json:"user_id,omitempty"`
	Message   string            `json:"message"`
	Hint      string            `json:"agent,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ChatReply is the routed agent's answer to one chat turn.
type ChatReply struct {
	SessionID string          `json:"session_id"`
	Agent     types.AgentType `json:"agent"`
	Routing   router.Decision `json:"routing"`
	Content   string          `json:"content"`
	Usage     llm.ChatUsage   `json:"usage,omitempty"`
}

// Chat routes one message to an agent and returns its reply. Both the
// message and the reply are appended to the session history.
func (o *Orchestrator) Chat(ctx context.Context, req *ChatRequest) (*ChatReply, error) {
	ag, decision, sessionID, err := o.prepareChat(ctx, req)
	if err != nil {
		return nil, err
	}

	ctx, span := o.tracer.Start(ctx, "chat")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("agent.type", string(ag.Type())),
	)

	history := o.sessionHistory(ctx, sessionID)
	o.saveChatUserMessage(ctx, sessionID, req.Message)

	start := time.Now()
	resp, err := ag.Invoke(ctx, &agent.Request{
		SessionID: sessionID,
		UserID:    req.UserID,
		Input:     req.Message,
		History:   history,
		Metadata:  req.Metadata,
	})
	if err != nil {
		if o.metrics != nil {
			o.metrics.RecordAgentInvocation(string(ag.Type()), "error", time.Since(start))
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if o.metrics != nil {
		o.metrics.RecordAgentInvocation(string(ag.Type()), "success", time.Since(start))
	}

	o.saveChatAgentMessage(ctx, sessionID, ag.Type(), resp.Content)

	return &ChatReply{
		SessionID: sessionID,
		Agent:     ag.Type(),
		Routing:   decision,
		Content:   resp.Content,
		Usage:     resp.Usage,
	}, nil
}

// ChatStream routes one message to an agent and streams its reply. The
// full reply is appended to the session history once the stream ends.
func (o *Orchestrator) ChatStream(ctx context.Context, req *ChatRequest) (*ChatReply, <-chan llm.StreamChunk, error) {
	ag, decision, sessionID, err := o.prepareChat(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	history := o.sessionHistory(ctx, sessionID)
	o.saveChatUserMessage(ctx, sessionID, req.Message)

	// The upstream stream runs on a detached context so a client
	// disconnect cannot truncate the reply before it is persisted.
	streamCtx, cancelStream := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.TaskTimeout)
	stream, err := ag.InvokeStream(streamCtx, &agent.Request{
		SessionID: sessionID,
		UserID:    req.UserID,
		Input:     req.Message,
		History:   history,
		Metadata:  req.Metadata,
	})
	if err != nil {
		cancelStream()
		return nil, nil, err
	}

	reply := &ChatReply{
		SessionID: sessionID,
		Agent:     ag.Type(),
		Routing:   decision,
	}

	// Tee the stream so the accumulated reply can be persisted after
	// the last chunk, regardless of whether the client stays connected.
	out := make(chan llm.StreamChunk, subscriberBuffer)
	go func() {
		defer close(out)
		defer cancelStream()
		var sb strings.Builder
		for chunk := range stream {
			if chunk.Err == nil {
				sb.WriteString(chunk.Delta.Content)
			}
			select {
			case out <- chunk:
			case <-ctx.Done():
				// Client gone; keep draining so the reply is stored.
			}
		}
		if sb.Len() > 0 {
			saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			o.saveChatAgentMessage(saveCtx, sessionID, ag.Type(), sb.String())
		}
	}()
	return reply, out, nil
}

// prepareChat validates the request and resolves the target agent.
func (o *Orchestrator) prepareChat(ctx context.Context, req *ChatRequest) (agent.Agent, router.Decision, string, error) {
	if req == nil || strings.TrimSpace(req.Message) == "" {
		return nil, router.Decision{}, "", types.NewError(types.ErrInvalidRequest, "chat message is required")
	}
	if req.Hint != "" {
		if _, ok := types.ParseAgentType(req.Hint); !ok {
			return nil, router.Decision{}, "", types.NewError(types.ErrInvalidRequest, "unknown agent role "+req.Hint)
		}
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	decision := o.router.Route(req.Hint, req.Message)
	if o.metrics != nil {
		o.metrics.RecordRouting(string(decision.Agent), string(decision.Method))
	}

	ag, err := o.factory.Agent(sessionID, req.UserID, decision.Agent)
	if err != nil {
		return nil, router.Decision{}, "", err
	}

	o.logger.Debug("chat routed",
		zap.String("session_id", sessionID),
		zap.String("agent", string(ag.Type())),
		zap.String("method", string(decision.Method)))
	return ag, decision, sessionID, nil
}

func (o *Orchestrator) saveChatUserMessage(ctx context.Context, sessionID, content string) {
	o.saveMessage(ctx, &persistence.MessageRecord{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Sender:    types.AgentHuman,
		Role:      types.RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	})
}

func (o *Orchestrator) saveChatAgentMessage(ctx context.Context, sessionID string, sender types.AgentType, content string) {
	o.saveMessage(ctx, &persistence.MessageRecord{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Sender:    sender,
		Role:      types.RoleAssistant,
		Content:   content,
		CreatedAt: time.Now(),
	})
}

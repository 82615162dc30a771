package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/sekharnc/multi-agent-sk/api"
	"github.com/sekharnc/multi-agent-sk/orchestrator"
)

// ChatHandler serves direct routed chat, plain and streaming.
type ChatHandler struct {
	orch   *orchestrator.Orchestrator
	logger *zap.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(orch *orchestrator.Orchestrator, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		orch:   orch,
		logger: logger.With(zap.String("component", "chat_handler")),
	}
}

// HandleChat handles POST /api/v1/chat.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	reply, err := h.orch.Chat(r.Context(), &orchestrator.ChatRequest{
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Message:   req.Message,
		Hint:      req.Agent,
		Metadata:  req.Metadata,
	})
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	WriteSuccess(w, r, api.ChatResponse{
		SessionID: reply.SessionID,
		Agent:     reply.Agent,
		Routing:   reply.Routing,
		Content:   reply.Content,
		Usage:     reply.Usage,
	})
}

// HandleChatStream handles POST /api/v1/chat/stream as server-sent
// events. The first event is the routing decision, each delta is a
// "chunk" event, and the stream ends with "done".
func (h *ChatHandler) HandleChatStream(w http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	reply, stream, err := h.orch.ChatStream(r.Context(), &orchestrator.ChatRequest{
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Message:   req.Message,
		Hint:      req.Agent,
		Metadata:  req.Metadata,
	})
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeSSE(w, "routing", api.ChatResponse{
		SessionID: reply.SessionID,
		Agent:     reply.Agent,
		Routing:   reply.Routing,
	})
	flusher.Flush()

	for chunk := range stream {
		if chunk.Err != nil {
			writeSSE(w, "error", ErrorInfo{
				Code:      string(chunk.Err.Code),
				Message:   chunk.Err.Message,
				Retryable: chunk.Err.Retryable,
			})
			flusher.Flush()
			return
		}
		writeSSE(w, "chunk", chunk)
		flusher.Flush()
	}

	writeSSE(w, "done", map[string]string{"session_id": reply.SessionID})
	flusher.Flush()
}

// writeSSE writes one server-sent event with a JSON payload.
func writeSSE(w http.ResponseWriter, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}

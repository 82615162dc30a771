package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/sekharnc/multi-agent-sk/api"
	"github.com/sekharnc/multi-agent-sk/persistence"
	"github.com/sekharnc/multi-agent-sk/types"
)

// MessageHandler serves session message history.
type MessageHandler struct {
	store  persistence.MessageStore
	logger *zap.Logger
}

// NewMessageHandler creates a message handler.
func NewMessageHandler(store persistence.MessageStore, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{
		store:  store,
		logger: logger.With(zap.String("component", "message_handler")),
	}
}

// HandleList handles GET /api/v1/sessions/{id}/messages.
func (h *MessageHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		WriteError(w, r, types.NewError(types.ErrInvalidRequest, "session id is required"), h.logger)
		return
	}

	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			WriteError(w, r, types.NewError(types.ErrInvalidRequest, "limit must be a positive integer"), h.logger)
			return
		}
		if n > maxListLimit {
			n = maxListLimit
		}
		limit = n
	}

	cursor := r.URL.Query().Get("cursor")

	msgs, next, err := h.store.ListBySession(r.Context(), sessionID, cursor, limit)
	if errors.Is(err, persistence.ErrInvalidInput) {
		WriteError(w, r, types.NewError(types.ErrInvalidRequest, "invalid cursor"), h.logger)
		return
	}
	if err != nil {
		WriteError(w, r, types.NewError(types.ErrStoreUnavailable, "failed to list messages").WithCause(err), h.logger)
		return
	}

	WriteSuccess(w, r, api.MessageListResponse{
		Messages:   msgs,
		NextCursor: next,
		Count:      len(msgs),
	})
}

package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/sekharnc/multi-agent-sk/orchestrator"
	"github.com/sekharnc/multi-agent-sk/persistence"
)

// RegisterRoutes wires every endpoint onto mux. The health handler is
// passed in so callers can register readiness probes on it first.
func RegisterRoutes(mux *http.ServeMux, orch *orchestrator.Orchestrator, messages persistence.MessageStore, health *HealthHandler, logger *zap.Logger) {
	tasks := NewTaskHandler(orch, logger)
	msgs := NewMessageHandler(messages, logger)
	chat := NewChatHandler(orch, logger)
	events := NewEventsHandler(orch, logger)

	mux.HandleFunc("POST /api/v1/tasks", tasks.HandleSubmit)
	mux.HandleFunc("GET /api/v1/tasks", tasks.HandleList)
	mux.HandleFunc("GET /api/v1/tasks/{id}", tasks.HandleGet)
	mux.HandleFunc("POST /api/v1/tasks/{id}/feedback", tasks.HandleFeedback)
	mux.HandleFunc("POST /api/v1/tasks/{id}/cancel", tasks.HandleCancel)
	mux.HandleFunc("GET /api/v1/tasks/{id}/events", events.HandleEvents)

	mux.HandleFunc("GET /api/v1/sessions/{id}/messages", msgs.HandleList)

	mux.HandleFunc("POST /api/v1/chat", chat.HandleChat)
	mux.HandleFunc("POST /api/v1/chat/stream", chat.HandleChatStream)

	mux.HandleFunc("GET /health", health.HandleHealth)
	mux.HandleFunc("GET /healthz", health.HandleHealthz)
	mux.HandleFunc("GET /readyz", health.HandleReadyz)
}

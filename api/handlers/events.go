package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/sekharnc/multi-agent-sk/orchestrator"
	"github.com/sekharnc/multi-agent-sk/types"
)

// eventWriteTimeout bounds each websocket write so one stuck client
// cannot pin the handler goroutine.
const eventWriteTimeout = 10 * time.Second

// EventsHandler streams task lifecycle events over a websocket.
type EventsHandler struct {
	orch   *orchestrator.Orchestrator
	logger *zap.Logger
}

// NewEventsHandler creates an events handler.
func NewEventsHandler(orch *orchestrator.Orchestrator, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{
		orch:   orch,
		logger: logger.With(zap.String("component", "events_handler")),
	}
}

// HandleEvents handles GET /api/v1/tasks/{id}/events. The connection
// carries one JSON-encoded task.Event per message and closes normally
// when the task reaches a terminal state.
func (h *EventsHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("id")
	if taskID == "" {
		WriteError(w, r, types.NewError(types.ErrInvalidRequest, "task id is required"), h.logger)
		return
	}

	// Reject unknown tasks before upgrading the connection.
	t, err := h.orch.GetTask(r.Context(), taskID)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	// Subscribe before checking terminality so no event can slip
	// through the gap.
	events, cancel := h.orch.Events().Subscribe(taskID)
	defer cancel()

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket accept failed",
			zap.String("task_id", taskID), zap.Error(err))
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	if t.IsTerminal() {
		conn.Close(websocket.StatusNormalClosure, "task already "+string(t.Status))
		return
	}

	// Reads are only needed to observe client-initiated close.
	readClosed := make(chan struct{})
	go func() {
		defer close(readClosed)
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "subscription closed")
				return
			}
			if err := h.writeEvent(ctx, conn, ev); err != nil {
				h.logger.Debug("event write failed, dropping subscriber",
					zap.String("task_id", taskID), zap.Error(err))
				return
			}
			if ev.Status.IsTerminal() {
				conn.Close(websocket.StatusNormalClosure, "task "+string(ev.Status))
				return
			}
		case <-readClosed:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *EventsHandler) writeEvent(ctx context.Context, conn *websocket.Conn, ev interface{}) error {
	writeCtx, cancel := context.WithTimeout(ctx, eventWriteTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, conn, ev)
}

package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/sekharnc/multi-agent-sk/api"
	"github.com/sekharnc/multi-agent-sk/orchestrator"
	"github.com/sekharnc/multi-agent-sk/persistence"
	"github.com/sekharnc/multi-agent-sk/task"
	"github.com/sekharnc/multi-agent-sk/types"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// TaskHandler serves the task lifecycle endpoints: submit, get, list,
// feedback, and cancel.
type TaskHandler struct {
	orch   *orchestrator.Orchestrator
	logger *zap.Logger
}

// NewTaskHandler creates a task handler.
func NewTaskHandler(orch *orchestrator.Orchestrator, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		orch:   orch,
		logger: logger.With(zap.String("component", "task_handler")),
	}
}

// HandleSubmit handles POST /api/v1/tasks.
func (h *TaskHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req api.SubmitTaskRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	t, err := h.orch.Submit(r.Context(), &orchestrator.SubmitRequest{
		SessionID:       req.SessionID,
		UserID:          req.UserID,
		Description:     req.Description,
		Hint:            req.Agent,
		RequireApproval: req.RequireApproval,
		Metadata:        req.Metadata,
	})
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	WriteStatus(w, r, http.StatusCreated, api.NewTaskResponse(t))
}

// HandleGet handles GET /api/v1/tasks/{id}.
func (h *TaskHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("id")
	if taskID == "" {
		WriteError(w, r, types.NewError(types.ErrInvalidRequest, "task id is required"), h.logger)
		return
	}

	t, err := h.orch.GetTask(r.Context(), taskID)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	WriteSuccess(w, r, api.NewTaskResponse(t))
}

// HandleList handles GET /api/v1/tasks.
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilterFromQuery(r)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	tasks, err := h.orch.ListTasks(r.Context(), filter)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	resp := api.TaskListResponse{
		Tasks:  make([]api.TaskResponse, 0, len(tasks)),
		Count:  len(tasks),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	for _, t := range tasks {
		resp.Tasks = append(resp.Tasks, api.NewTaskResponse(t))
	}

	WriteSuccess(w, r, resp)
}

// HandleFeedback handles POST /api/v1/tasks/{id}/feedback.
func (h *TaskHandler) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("id")
	if taskID == "" {
		WriteError(w, r, types.NewError(types.ErrInvalidRequest, "task id is required"), h.logger)
		return
	}

	var req api.FeedbackRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if req.StepID == "" {
		WriteError(w, r, types.NewError(types.ErrInvalidRequest, "step_id is required"), h.logger)
		return
	}

	t, err := h.orch.Feedback(r.Context(), &orchestrator.FeedbackRequest{
		TaskID:   taskID,
		StepID:   req.StepID,
		Approved: req.Approved,
		Comment:  req.Comment,
	})
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	WriteSuccess(w, r, api.NewTaskResponse(t))
}

// HandleCancel handles POST /api/v1/tasks/{id}/cancel.
func (h *TaskHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("id")
	if taskID == "" {
		WriteError(w, r, types.NewError(types.ErrInvalidRequest, "task id is required"), h.logger)
		return
	}

	t, err := h.orch.Cancel(r.Context(), taskID)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	WriteSuccess(w, r, api.NewTaskResponse(t))
}

// listFilterFromQuery builds a TaskFilter from query parameters.
func listFilterFromQuery(r *http.Request) (persistence.TaskFilter, error) {
	q := r.URL.Query()

	filter := persistence.TaskFilter{
		SessionID: q.Get("session_id"),
		UserID:    q.Get("user_id"),
		Agent:     q.Get("agent"),
		Limit:     defaultListLimit,
	}

	for _, s := range q["status"] {
		status := task.Status(s)
		switch status {
		case task.StatusPending, task.StatusInProgress, task.StatusAwaitingFeedback,
			task.StatusCompleted, task.StatusFailed, task.StatusCancelled:
			filter.Status = append(filter.Status, status)
		default:
			return filter, types.NewError(types.ErrInvalidRequest, "unknown status: "+s)
		}
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return filter, types.NewError(types.ErrInvalidRequest, "limit must be a positive integer")
		}
		if limit > maxListLimit {
			limit = maxListLimit
		}
		filter.Limit = limit
	}

	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return filter, types.NewError(types.ErrInvalidRequest, "offset must be a non-negative integer")
		}
		filter.Offset = offset
	}

	return filter, nil
}

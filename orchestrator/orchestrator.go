package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sekharnc/multi-agent-sk/agent"
	"github.com/sekharnc/multi-agent-sk/agent/router"
	"github.com/sekharnc/multi-agent-sk/internal/metrics"
	"github.com/sekharnc/multi-agent-sk/persistence"
	"github.com/sekharnc/multi-agent-sk/task"
	"github.com/sekharnc/multi-agent-sk/types"
)

// Config tunes the orchestrator.
type Config struct {
	// Workers is the number of concurrent task runners.
	Workers int `json:"workers" yaml:"workers"`

	// QueueSize is the task queue capacity. Submissions beyond it are
	// rejected as unavailable rather than blocking the API.
	QueueSize int `json:"queue_size" yaml:"queue_size"`

	// TaskTimeout bounds one task execution run.
	TaskTimeout time.Duration `json:"task_timeout" yaml:"task_timeout"`

	// RequireApproval gates every planned step on human feedback unless
	// the submission overrides it.
	RequireApproval bool `json:"require_approval" yaml:"require_approval"`

	// HistoryLimit bounds how many session messages are replayed to an
	// agent per invocation.
	HistoryLimit int `json:"history_limit" yaml:"history_limit"`
}

// DefaultConfig returns the default orchestrator configuration.
func DefaultConfig() Config {
	return Config{
		Workers:      4,
		QueueSize:    64,
		TaskTimeout:  5 * time.Minute,
		HistoryLimit: 50,
	}
}

func (c *Config) normalize() {
	d := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = d.QueueSize
	}
	if c.TaskTimeout <= 0 {
		c.TaskTimeout = d.TaskTimeout
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = d.HistoryLimit
	}
}

// Dependencies carries the collaborators the orchestrator drives.
// Summarizer and Metrics are optional.
type Dependencies struct {
	Tasks      persistence.TaskStore
	Messages   persistence.MessageStore
	Factory    *agent.Factory
	Router     *router.Router
	Summarizer *agent.Summarizer
	Metrics    *metrics.Collector
	Logger     *zap.Logger
}

// SubmitRequest carries one task submission.
type SubmitRequest struct {
	SessionID       string            `json:"session_id,omitempty"`
	UserID          string            `json:"user_id"`
	Description     string            `json:"description"`
	Hint            string            `json:"agent,omitempty"`
	RequireApproval *bool             `json:"require_approval,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// FeedbackRequest approves or rejects one planned step.
type FeedbackRequest struct {
	TaskID   string `json:"task_id"`
	StepID   string `json:"step_id"`
	Approved bool   `json:"approved"`
	Comment  string `json:"comment,omitempty"`
}

// Orchestrator owns the task queue, the worker pool, and every task
// state transition. Steps within one task always run serially; only
// distinct tasks execute concurrently.
type Orchestrator struct {
	cfg        Config
	tasks      persistence.TaskStore
	messages   persistence.MessageStore
	factory    *agent.Factory
	router     *router.Router
	planner    *Planner
	summarizer *agent.Summarizer
	metrics    *metrics.Collector
	bus        *EventBus
	tracer     trace.Tracer
	logger     *zap.Logger

	queue chan string

	mu      sync.Mutex
	running map[string]context.CancelFunc
	started bool
	stopped bool

	group  *errgroup.Group
	cancel context.CancelFunc
}

// New builds an orchestrator. Call Start before submitting tasks.
func New(cfg Config, deps Dependencies) *Orchestrator {
	cfg.normalize()
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		cfg:        cfg,
		tasks:      deps.Tasks,
		messages:   deps.Messages,
		factory:    deps.Factory,
		router:     deps.Router,
		planner:    NewPlanner(deps.Factory, deps.Router, logger),
		summarizer: deps.Summarizer,
		metrics:    deps.Metrics,
		bus:        NewEventBus(logger),
		tracer:     otel.Tracer("github.com/sekharnc/multi-agent-sk/orchestrator"),
		logger:     logger.With(zap.String("component", "orchestrator")),
		queue:      make(chan string, cfg.QueueSize),
		running:    make(map[string]context.CancelFunc),
	}
}

// Events returns the task event bus for subscriptions.
func (o *Orchestrator) Events() *EventBus { return o.bus }

// Start launches the worker pool and re-queues recoverable tasks.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return errors.New("orchestrator already started")
	}
	o.started = true
	o.mu.Unlock()

	gctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	o.cancel = cancel
	o.group, gctx = errgroup.WithContext(gctx)

	for i := 0; i < o.cfg.Workers; i++ {
		o.group.Go(func() error {
			o.worker(gctx)
			return nil
		})
	}

	if err := o.Recover(ctx); err != nil {
		o.logger.Warn("task recovery failed", zap.Error(err))
	}

	o.logger.Info("orchestrator started",
		zap.Int("workers", o.cfg.Workers),
		zap.Int("queue_size", o.cfg.QueueSize))
	return nil
}

// Stop drains the workers. In-flight tasks are interrupted; they are
// recoverable on the next start.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.mu.Lock()
	if !o.started || o.stopped {
		o.mu.Unlock()
		return nil
	}
	o.stopped = true
	o.mu.Unlock()

	o.cancel()
	close(o.queue)

	done := make(chan struct{})
	go func() {
		_ = o.group.Wait()
		close(done)
	}()
	select {
	case <-done:
		o.logger.Info("orchestrator stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recover re-queues tasks that were pending or in progress when the
// service last stopped.
func (o *Orchestrator) Recover(ctx context.Context) error {
	recoverable, err := o.tasks.GetRecoverableTasks(ctx)
	if err != nil {
		return err
	}
	for _, t := range recoverable {
		if !o.enqueue(t.ID) {
			o.logger.Warn("queue full during recovery", zap.String("task_id", t.ID))
			continue
		}
		o.bus.Publish(newEvent(t, task.EventRecovered, "re-queued after restart"))
		o.logger.Info("task recovered",
			zap.String("task_id", t.ID),
			zap.String("status", string(t.Status)))
	}
	return nil
}

// Submit validates, routes, plans, and queues a new task.
func (o *Orchestrator) Submit(ctx context.Context, req *SubmitRequest) (*task.Task, error) {
	ctx, span := o.tracer.Start(ctx, "task.submit")
	defer span.End()

	if req == nil || strings.TrimSpace(req.Description) == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "task description is required")
	}
	if req.Hint != "" {
		if _, ok := types.ParseAgentType(req.Hint); !ok {
			return nil, types.NewError(types.ErrInvalidRequest, "unknown agent role "+req.Hint)
		}
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	decision := o.router.Route(req.Hint, req.Description)
	if o.metrics != nil {
		o.metrics.RecordRouting(string(decision.Agent), string(decision.Method))
	}

	now := time.Now()
	t := &task.Task{
		ID:              uuid.NewString(),
		SessionID:       sessionID,
		UserID:          req.UserID,
		Description:     req.Description,
		Summary:         summarize(req.Description),
		RoutingHint:     hintType(req.Hint),
		Agent:           decision.Agent,
		Status:          task.StatusPending,
		RequireApproval: o.cfg.RequireApproval,
		Metadata:        req.Metadata,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.RequireApproval != nil {
		t.RequireApproval = *req.RequireApproval
	}
	span.SetAttributes(
		attribute.String("task.id", t.ID),
		attribute.String("task.agent", string(t.Agent)),
		attribute.String("routing.method", string(decision.Method)),
	)

	steps, err := o.planner.Plan(ctx, t)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	t.Steps = steps

	if err := o.tasks.SaveTask(ctx, t); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, types.NewError(types.ErrStoreUnavailable, "failed to persist task").WithCause(err)
	}
	o.saveUserMessage(ctx, t)

	if o.metrics != nil {
		o.metrics.RecordTaskSubmitted(string(t.Agent))
	}
	o.bus.Publish(newEvent(t, task.EventCreated, t.Summary))

	if !o.enqueue(t.ID) {
		return nil, types.NewError(types.ErrServiceUnavailable, "task queue is full").WithRetryable(true)
	}

	o.logger.Info("task submitted",
		zap.String("task_id", t.ID),
		zap.String("session_id", t.SessionID),
		zap.String("agent", string(t.Agent)),
		zap.Int("steps", len(t.Steps)))
	return t, nil
}

// GetTask returns one task by id.
func (o *Orchestrator) GetTask(ctx context.Context, taskID string) (*task.Task, error) {
	t, err := o.tasks.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, types.NewError(types.ErrNotFound, "task not found: "+taskID)
		}
		return nil, types.NewError(types.ErrStoreUnavailable, "failed to load task").WithCause(err)
	}
	return t, nil
}

// ListTasks returns tasks matching the filter.
func (o *Orchestrator) ListTasks(ctx context.Context, filter persistence.TaskFilter) ([]*task.Task, error) {
	tasks, err := o.tasks.ListTasks(ctx, filter)
	if err != nil {
		return nil, types.NewError(types.ErrStoreUnavailable, "failed to list tasks").WithCause(err)
	}
	return tasks, nil
}

// Feedback resolves a step waiting for human approval. Approval
// re-queues the task; rejection skips the step and re-queues so the
// remaining steps can run.
func (o *Orchestrator) Feedback(ctx context.Context, req *FeedbackRequest) (*task.Task, error) {
	t, err := o.GetTask(ctx, req.TaskID)
	if err != nil {
		return nil, err
	}
	if t.IsTerminal() {
		return nil, types.NewError(types.ErrTaskTerminal, "task already "+string(t.Status))
	}
	step := t.StepByID(req.StepID)
	if step == nil {
		return nil, types.NewError(types.ErrNotFound, "step not found: "+req.StepID)
	}
	if step.Feedback != task.FeedbackRequested {
		return nil, types.NewError(types.ErrStepNotApprovable,
			"step is not waiting for feedback")
	}

	now := time.Now()
	step.FeedbackComment = req.Comment
	if req.Approved {
		step.Feedback = task.FeedbackAccepted
	} else {
		step.Feedback = task.FeedbackRejected
		step.Status = task.StepStatusRejected
		step.CompletedAt = &now
	}
	t.Status = task.StatusInProgress
	if err := o.saveTask(ctx, t); err != nil {
		return nil, err
	}
	o.saveFeedbackMessage(ctx, t, step, req)

	if !o.enqueue(t.ID) {
		return nil, types.NewError(types.ErrServiceUnavailable, "task queue is full").WithRetryable(true)
	}

	o.logger.Info("step feedback recorded",
		zap.String("task_id", t.ID),
		zap.String("step_id", step.ID),
		zap.Bool("approved", req.Approved))
	return t, nil
}

// Cancel stops a non-terminal task. A running step is interrupted via
// its context.
func (o *Orchestrator) Cancel(ctx context.Context, taskID string) (*task.Task, error) {
	t, err := o.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.IsTerminal() {
		return nil, types.NewError(types.ErrTaskTerminal, "task already "+string(t.Status))
	}

	o.mu.Lock()
	if cancel, ok := o.running[taskID]; ok {
		cancel()
	}
	o.mu.Unlock()

	now := time.Now()
	t.Status = task.StatusCancelled
	t.CompletedAt = &now
	if err := o.saveTask(ctx, t); err != nil {
		return nil, err
	}
	o.bus.Publish(newEvent(t, task.EventCancelled, "cancelled by user"))
	if o.metrics != nil {
		o.metrics.RecordTaskFinished(string(task.StatusCancelled), t.Duration())
	}
	o.factory.ClearSession(t.SessionID)

	o.logger.Info("task cancelled", zap.String("task_id", taskID))
	return t, nil
}

// enqueue offers a task id to the queue without blocking. It holds the
// mutex so a concurrent Stop cannot close the queue mid-send.
func (o *Orchestrator) enqueue(taskID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return false
	}
	select {
	case o.queue <- taskID:
		return true
	default:
		return false
	}
}

func (o *Orchestrator) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case taskID, ok := <-o.queue:
			if !ok {
				return
			}
			o.runTask(ctx, taskID)
		}
	}
}

// runTask executes a task's remaining steps serially until the task
// blocks on feedback or reaches a terminal state.
func (o *Orchestrator) runTask(ctx context.Context, taskID string) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.TaskTimeout)
	defer cancel()

	o.mu.Lock()
	o.running[taskID] = cancel
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		delete(o.running, taskID)
		o.mu.Unlock()
	}()

	ctx, span := o.tracer.Start(ctx, "task.run",
		trace.WithAttributes(attribute.String("task.id", taskID)))
	defer span.End()

	t, err := o.tasks.GetTask(ctx, taskID)
	if err != nil {
		o.logger.Error("failed to load queued task",
			zap.String("task_id", taskID),
			zap.Error(err))
		return
	}
	if t.IsTerminal() {
		return
	}

	if t.StartedAt == nil {
		now := time.Now()
		t.StartedAt = &now
	}
	// A step left executing by a crash never finished; run it again.
	for i := range t.Steps {
		if t.Steps[i].Status == task.StepStatusExecuting {
			t.Steps[i].Status = task.StepStatusPlanned
			t.Steps[i].StartedAt = nil
		}
	}
	t.Status = task.StatusInProgress
	t.RetryCount++
	if err := o.saveTask(ctx, t); err != nil {
		return
	}
	o.bus.Publish(newEvent(t, task.EventStarted, ""))

	if o.metrics != nil {
		o.metrics.TaskStarted()
		defer o.metrics.TaskStopped()
	}

	for {
		if ctx.Err() != nil {
			o.interrupt(t, ctx.Err())
			return
		}

		step := t.NextStep()
		if step == nil {
			o.finalize(ctx, t)
			return
		}

		if t.RequireApproval && step.Feedback == task.FeedbackNotRequired {
			step.Feedback = task.FeedbackRequested
			t.Status = task.StatusAwaitingFeedback
			if err := o.saveTask(ctx, t); err != nil {
				return
			}
			o.bus.Publish(newStepEvent(t, step, task.EventFeedbackRequested, step.Action))
			o.logger.Info("step waiting for approval",
				zap.String("task_id", t.ID),
				zap.String("step_id", step.ID))
			return
		}

		if err := o.executeStep(ctx, t, step); err != nil {
			if ctx.Err() != nil {
				o.interrupt(t, ctx.Err())
				return
			}
			o.failTask(ctx, t, err)
			return
		}
	}
}

// executeStep runs one step through its agent and records the outcome.
func (o *Orchestrator) executeStep(ctx context.Context, t *task.Task, step *task.Step) error {
	ctx, span := o.tracer.Start(ctx, "step.execute", trace.WithAttributes(
		attribute.String("task.id", t.ID),
		attribute.String("step.id", step.ID),
		attribute.String("agent.type", string(step.Agent)),
	))
	defer span.End()

	now := time.Now()
	step.Status = task.StepStatusExecuting
	step.StartedAt = &now
	if err := o.saveTask(ctx, t); err != nil {
		return err
	}
	o.bus.Publish(newStepEvent(t, step, task.EventStepStarted, step.Action))

	ag, err := o.factory.Agent(t.SessionID, t.UserID, step.Agent)
	if err != nil {
		o.failStep(ctx, t, step, err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	start := time.Now()
	resp, err := ag.Invoke(ctx, &agent.Request{
		SessionID: t.SessionID,
		UserID:    t.UserID,
		Input:     step.Action,
		History:   o.sessionHistory(ctx, t.SessionID),
	})
	if err != nil {
		if o.metrics != nil {
			o.metrics.RecordAgentInvocation(string(step.Agent), "error", time.Since(start))
		}
		o.failStep(ctx, t, step, err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if o.metrics != nil {
		o.metrics.RecordAgentInvocation(string(step.Agent), "success", time.Since(start))
	}

	reply := resp.Content
	if o.summarizer != nil {
		reply = o.summarizer.Condense(ctx, reply)
	}

	done := time.Now()
	step.Status = task.StepStatusCompleted
	step.Reply = reply
	step.CompletedAt = &done
	if err := o.saveTask(ctx, t); err != nil {
		return err
	}
	o.saveAgentMessage(ctx, t, step, reply)

	if o.metrics != nil {
		o.metrics.RecordStep(string(step.Agent), string(task.StepStatusCompleted))
	}
	o.bus.Publish(newStepEvent(t, step, task.EventStepCompleted, ""))

	o.logger.Debug("step completed",
		zap.String("task_id", t.ID),
		zap.String("step_id", step.ID),
		zap.String("agent", string(step.Agent)),
		zap.Duration("duration", done.Sub(now)))
	return nil
}

// failStep marks a step failed without touching the task status.
func (o *Orchestrator) failStep(ctx context.Context, t *task.Task, step *task.Step, cause error) {
	now := time.Now()
	step.Status = task.StepStatusFailed
	step.Error = cause.Error()
	step.CompletedAt = &now
	_ = o.saveTask(ctx, t)

	if o.metrics != nil {
		o.metrics.RecordStep(string(step.Agent), string(task.StepStatusFailed))
	}
	o.bus.Publish(newStepEvent(t, step, task.EventStepFailed, cause.Error()))
}

// failTask marks the whole task failed.
func (o *Orchestrator) failTask(ctx context.Context, t *task.Task, cause error) {
	now := time.Now()
	t.Status = task.StatusFailed
	t.Error = cause.Error()
	t.CompletedAt = &now
	_ = o.saveTask(ctx, t)

	o.bus.Publish(newEvent(t, task.EventFailed, cause.Error()))
	if o.metrics != nil {
		o.metrics.RecordTaskFinished(string(task.StatusFailed), t.Duration())
	}
	o.factory.ClearSession(t.SessionID)

	o.logger.Warn("task failed",
		zap.String("task_id", t.ID),
		zap.Error(cause))
}

// finalize settles a task whose steps are all terminal.
func (o *Orchestrator) finalize(ctx context.Context, t *task.Task) {
	now := time.Now()
	t.Status = t.OverallStatus()
	t.Result = combineReplies(t)
	t.CompletedAt = &now
	if err := o.saveTask(ctx, t); err != nil {
		return
	}

	evType := task.EventCompleted
	if t.Status == task.StatusFailed {
		evType = task.EventFailed
	}
	o.bus.Publish(newEvent(t, evType, ""))
	if o.metrics != nil {
		o.metrics.RecordTaskFinished(string(t.Status), t.Duration())
	}
	o.factory.ClearSession(t.SessionID)

	o.logger.Info("task finished",
		zap.String("task_id", t.ID),
		zap.String("status", string(t.Status)),
		zap.Duration("duration", t.Duration()))
}

// interrupt handles a task whose context ended mid-run. Deadline
// expiry fails the task; cancellation leaves the status to Cancel,
// which already persisted it.
func (o *Orchestrator) interrupt(t *task.Task, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	current, err := o.tasks.GetTask(ctx, t.ID)
	if err == nil && current.IsTerminal() {
		return
	}
	if errors.Is(cause, context.DeadlineExceeded) {
		o.failTask(ctx, t, types.NewError(types.ErrUpstreamTimeout, "task timed out"))
		return
	}
	// Shutdown: leave the task recoverable for the next start.
	o.logger.Info("task interrupted by shutdown", zap.String("task_id", t.ID))
}

func (o *Orchestrator) saveTask(ctx context.Context, t *task.Task) error {
	t.UpdatedAt = time.Now()
	if err := o.tasks.SaveTask(ctx, t); err != nil {
		o.logger.Error("failed to save task",
			zap.String("task_id", t.ID),
			zap.Error(err))
		return types.NewError(types.ErrStoreUnavailable, "failed to persist task").WithCause(err)
	}
	return nil
}

// sessionHistory loads the session's recent messages as chat history.
// Load failures degrade to an empty history.
func (o *Orchestrator) sessionHistory(ctx context.Context, sessionID string) []types.ChatMessage {
	records, err := o.messages.ListRecentBySession(ctx, sessionID, o.cfg.HistoryLimit)
	if err != nil {
		o.logger.Warn("failed to load session history",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return nil
	}
	history := make([]types.ChatMessage, 0, len(records))
	for _, rec := range records {
		history = append(history, types.ChatMessage{
			Role:      rec.Role,
			Content:   rec.Content,
			Timestamp: rec.CreatedAt,
		})
	}
	return history
}

func (o *Orchestrator) saveUserMessage(ctx context.Context, t *task.Task) {
	o.saveMessage(ctx, &persistence.MessageRecord{
		ID:        uuid.NewString(),
		SessionID: t.SessionID,
		TaskID:    t.ID,
		Sender:    types.AgentHuman,
		Role:      types.RoleUser,
		Content:   t.Description,
		CreatedAt: time.Now(),
	})
}

func (o *Orchestrator) saveAgentMessage(ctx context.Context, t *task.Task, step *task.Step, content string) {
	o.saveMessage(ctx, &persistence.MessageRecord{
		ID:        uuid.NewString(),
		SessionID: t.SessionID,
		TaskID:    t.ID,
		StepID:    step.ID,
		Sender:    step.Agent,
		Role:      types.RoleAssistant,
		Content:   content,
		CreatedAt: time.Now(),
	})
}

func (o *Orchestrator) saveFeedbackMessage(ctx context.Context, t *task.Task, step *task.Step, req *FeedbackRequest) {
	verdict := "approved"
	if !req.Approved {
		verdict = "rejected"
	}
	content := "Step " + verdict + ": " + step.Action
	if req.Comment != "" {
		content += "\n" + req.Comment
	}
	o.saveMessage(ctx, &persistence.MessageRecord{
		ID:        uuid.NewString(),
		SessionID: t.SessionID,
		TaskID:    t.ID,
		StepID:    step.ID,
		Sender:    types.AgentHuman,
		Role:      types.RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	})
}

// saveMessage persists a message record. Message loss is logged, not
// fatal: the task's own state remains authoritative.
func (o *Orchestrator) saveMessage(ctx context.Context, rec *persistence.MessageRecord) {
	if err := o.messages.SaveMessage(ctx, rec); err != nil {
		o.logger.Error("failed to save message",
			zap.String("session_id", rec.SessionID),
			zap.Error(err))
	}
}

// combineReplies joins the completed step replies into the task result.
func combineReplies(t *task.Task) string {
	var replies []string
	for i := range t.Steps {
		if t.Steps[i].Status == task.StepStatusCompleted && t.Steps[i].Reply != "" {
			replies = append(replies, t.Steps[i].Reply)
		}
	}
	return strings.Join(replies, "\n\n")
}

// summarize truncates a description for listings. The cut lands on a
// rune boundary so the summary stays valid UTF-8.
func summarize(description string) string {
	const max = 120
	description = strings.TrimSpace(description)
	if len(description) <= max {
		return description
	}
	cut := max - 3
	for cut > 0 && !utf8.RuneStart(description[cut]) {
		cut--
	}
	return description[:cut] + "..."
}

func hintType(hint string) types.AgentType {
	if hint == "" {
		return ""
	}
	t, _ := types.ParseAgentType(hint)
	return t
}

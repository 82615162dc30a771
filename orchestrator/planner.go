package orchestrator

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sekharnc/multi-agent-sk/agent"
	"github.com/sekharnc/multi-agent-sk/agent/router"
	"github.com/sekharnc/multi-agent-sk/task"
	"github.com/sekharnc/multi-agent-sk/types"
)

// maxPlanSteps caps how many steps a plan may contain. Replies beyond
// the cap are truncated rather than rejected.
const maxPlanSteps = 8

// Planner turns a task goal into an ordered list of steps. Goals
// assigned to the manager role are decomposed by the manager agent;
// any other role gets a single step. When the manager's reply cannot
// be parsed, planning falls back to a single routed step so a bad
// model reply never fails task submission.
type Planner struct {
	factory *agent.Factory
	router  *router.Router
	logger  *zap.Logger
}

// NewPlanner builds a planner over the given factory and router.
func NewPlanner(factory *agent.Factory, r *router.Router, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{
		factory: factory,
		router:  r,
		logger:  logger.With(zap.String("component", "planner")),
	}
}

// plannedStep is the wire shape the manager agent is asked to emit.
type plannedStep struct {
	Action string `json:"action"`
	Agent  string `json:"agent"`
}

const planInstruction = "Respond with only a JSON array of steps, no prose. " +
	`Each step is {"action": "<instruction>", "agent": "<hr|procurement|tech|generic>"}. ` +
	"Use the fewest steps that accomplish the goal."

// Plan produces the steps for t. The task must already carry its
// assigned agent role.
func (p *Planner) Plan(ctx context.Context, t *task.Task) ([]task.Step, error) {
	if t.Agent != types.AgentManager {
		return p.singleStep(t, t.Agent), nil
	}

	mgr, err := p.factory.Agent(t.SessionID, t.UserID, types.AgentManager)
	if err != nil {
		return nil, err
	}

	resp, err := mgr.Invoke(ctx, &agent.Request{
		SessionID: t.SessionID,
		UserID:    t.UserID,
		Input:     t.Description + "\n\n" + planInstruction,
	})
	if err != nil {
		p.logger.Warn("manager planning failed, falling back to a single step",
			zap.String("task_id", t.ID),
			zap.Error(err))
		return p.fallback(t), nil
	}

	steps := p.parsePlan(t, resp.Content)
	if len(steps) == 0 {
		p.logger.Warn("manager reply had no usable steps, falling back",
			zap.String("task_id", t.ID))
		return p.fallback(t), nil
	}
	return steps, nil
}

// parsePlan extracts the JSON step array from a manager reply. Models
// tend to wrap JSON in prose or code fences, so the parser grabs the
// outermost bracket pair before unmarshalling.
func (p *Planner) parsePlan(t *task.Task, reply string) []task.Step {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end <= start {
		return nil
	}

	var planned []plannedStep
	if err := json.Unmarshal([]byte(reply[start:end+1]), &planned); err != nil {
		p.logger.Debug("plan reply is not valid JSON",
			zap.String("task_id", t.ID),
			zap.Error(err))
		return nil
	}

	var steps []task.Step
	for _, ps := range planned {
		action := strings.TrimSpace(ps.Action)
		if action == "" {
			continue
		}
		agentType, ok := types.ParseAgentType(ps.Agent)
		if !ok || !agentType.Invokable() || agentType == types.AgentManager {
			agentType = types.AgentGeneric
		}
		steps = append(steps, newStep(t, len(steps), action, agentType))
		if len(steps) == maxPlanSteps {
			break
		}
	}
	return steps
}

// fallback classifies the goal text and plans a single step for the
// winning role.
func (p *Planner) fallback(t *task.Task) []task.Step {
	decision := p.router.Route("", t.Description)
	agentType := decision.Agent
	if agentType == types.AgentUnknown {
		agentType = types.AgentGeneric
	}
	return p.singleStep(t, agentType)
}

func (p *Planner) singleStep(t *task.Task, agentType types.AgentType) []task.Step {
	if agentType == types.AgentUnknown || agentType == "" {
		agentType = types.AgentGeneric
	}
	return []task.Step{newStep(t, 0, t.Description, agentType)}
}

func newStep(t *task.Task, order int, action string, agentType types.AgentType) task.Step {
	return task.Step{
		ID:       uuid.NewString(),
		TaskID:   t.ID,
		Order:    order,
		Action:   action,
		Agent:    agentType,
		Status:   task.StepStatusPlanned,
		Feedback: task.FeedbackNotRequired,
	}
}

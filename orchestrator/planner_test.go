package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sekharnc/multi-agent-sk/agent"
	"github.com/sekharnc/multi-agent-sk/agent/router"
	"github.com/sekharnc/multi-agent-sk/task"
	"github.com/sekharnc/multi-agent-sk/types"
)

func newTestPlanner(provider *scriptedProvider) *Planner {
	factory := agent.NewFactory(provider, agent.FactoryConfig{}, nil)
	return NewPlanner(factory, router.New(nil, nil), nil)
}

func managerTask(description string) *task.Task {
	return &task.Task{
		ID:          "t1",
		SessionID:   "s1",
		UserID:      "u1",
		Description: description,
		Agent:       types.AgentManager,
	}
}

func TestPlannerSingleStep(t *testing.T) {
	p := newTestPlanner(&scriptedProvider{})

	tk := &task.Task{ID: "t1", Description: "reset my password", Agent: types.AgentTech}
	steps, err := p.Plan(context.Background(), tk)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, types.AgentTech, steps[0].Agent)
	assert.Equal(t, "reset my password", steps[0].Action)
	assert.Equal(t, task.StepStatusPlanned, steps[0].Status)
	assert.NotEmpty(t, steps[0].ID)
}

func TestPlannerManagerDecomposition(t *testing.T) {
	t.Run("parses a JSON plan", func(t *testing.T) {
		p := newTestPlanner(&scriptedProvider{replies: []string{
			`[{"action": "create the employee account", "agent": "tech"},
			  {"action": "enroll the employee in benefits", "agent": "hr"}]`,
		}})

		steps, err := p.Plan(context.Background(), managerTask("onboard a new employee"))
		require.NoError(t, err)
		require.Len(t, steps, 2)
		assert.Equal(t, types.AgentTech, steps[0].Agent)
		assert.Equal(t, types.AgentHR, steps[1].Agent)
		assert.Equal(t, 0, steps[0].Order)
		assert.Equal(t, 1, steps[1].Order)
	})

	t.Run("parses a plan wrapped in prose and fences", func(t *testing.T) {
		p := newTestPlanner(&scriptedProvider{replies: []string{
			"Here is the plan:\n```json\n[{\"action\": \"order a laptop\", \"agent\": \"procurement\"}]\n```",
		}})

		steps, err := p.Plan(context.Background(), managerTask("get a laptop for the new hire"))
		require.NoError(t, err)
		require.Len(t, steps, 1)
		assert.Equal(t, types.AgentProcurement, steps[0].Agent)
	})

	t.Run("unknown step roles fall back to generic", func(t *testing.T) {
		p := newTestPlanner(&scriptedProvider{replies: []string{
			`[{"action": "consult the stars", "agent": "astrologer"}]`,
		}})

		steps, err := p.Plan(context.Background(), managerTask("plan something odd"))
		require.NoError(t, err)
		require.Len(t, steps, 1)
		assert.Equal(t, types.AgentGeneric, steps[0].Agent)
	})

	t.Run("manager must not assign steps to itself", func(t *testing.T) {
		p := newTestPlanner(&scriptedProvider{replies: []string{
			`[{"action": "coordinate everything", "agent": "manager"}]`,
		}})

		steps, err := p.Plan(context.Background(), managerTask("coordinate the office move"))
		require.NoError(t, err)
		require.Len(t, steps, 1)
		assert.Equal(t, types.AgentGeneric, steps[0].Agent)
	})

	t.Run("unparseable reply falls back to a routed step", func(t *testing.T) {
		p := newTestPlanner(&scriptedProvider{replies: []string{"I cannot help with that."}})

		steps, err := p.Plan(context.Background(), managerTask("order a laptop from the vendor"))
		require.NoError(t, err)
		require.Len(t, steps, 1)
		assert.Equal(t, types.AgentProcurement, steps[0].Agent)
	})

	t.Run("manager failure falls back instead of failing submission", func(t *testing.T) {
		p := newTestPlanner(&scriptedProvider{err: errors.New("model down")})

		steps, err := p.Plan(context.Background(), managerTask("something entirely unclassifiable"))
		require.NoError(t, err)
		require.Len(t, steps, 1)
		assert.Equal(t, types.AgentGeneric, steps[0].Agent)
	})

	t.Run("plans are capped", func(t *testing.T) {
		reply := "["
		for i := 0; i < 20; i++ {
			if i > 0 {
				reply += ","
			}
			reply += `{"action": "step", "agent": "generic"}`
		}
		reply += "]"
		p := newTestPlanner(&scriptedProvider{replies: []string{reply}})

		steps, err := p.Plan(context.Background(), managerTask("do many things"))
		require.NoError(t, err)
		assert.Len(t, steps, maxPlanSteps)
	})

	t.Run("blank actions are dropped", func(t *testing.T) {
		p := newTestPlanner(&scriptedProvider{replies: []string{
			`[{"action": "  ", "agent": "hr"}, {"action": "real step", "agent": "hr"}]`,
		}})

		steps, err := p.Plan(context.Background(), managerTask("onboard someone"))
		require.NoError(t, err)
		require.Len(t, steps, 1)
		assert.Equal(t, "real step", steps[0].Action)
		assert.Equal(t, 0, steps[0].Order)
	})
}

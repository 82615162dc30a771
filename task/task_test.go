package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sekharnc/multi-agent-sk/types"
)

func TestStatusIsTerminal(t *testing.T) {
	terminal := []Status{StatusCompleted, StatusFailed, StatusCancelled}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), string(s))
	}
	live := []Status{StatusPending, StatusInProgress, StatusAwaitingFeedback}
	for _, s := range live {
		assert.False(t, s.IsTerminal(), string(s))
	}
}

func TestStatusIsRecoverable(t *testing.T) {
	assert.True(t, StatusPending.IsRecoverable())
	assert.True(t, StatusInProgress.IsRecoverable())
	assert.False(t, StatusAwaitingFeedback.IsRecoverable())
	assert.False(t, StatusCompleted.IsRecoverable())
	assert.False(t, StatusCancelled.IsRecoverable())
}

func TestStepStatusIsTerminal(t *testing.T) {
	assert.True(t, StepStatusCompleted.IsTerminal())
	assert.True(t, StepStatusFailed.IsTerminal())
	assert.True(t, StepStatusRejected.IsTerminal())
	assert.False(t, StepStatusPlanned.IsTerminal())
	assert.False(t, StepStatusExecuting.IsTerminal())
}

func TestTaskDuration(t *testing.T) {
	tk := &Task{}
	assert.Zero(t, tk.Duration())

	start := time.Now().Add(-10 * time.Minute)
	tk.StartedAt = &start
	assert.Greater(t, tk.Duration(), 9*time.Minute)

	end := start.Add(3 * time.Minute)
	tk.CompletedAt = &end
	assert.Equal(t, 3*time.Minute, tk.Duration())
}

func TestNextStep(t *testing.T) {
	t.Run("first non-terminal step", func(t *testing.T) {
		tk := &Task{Steps: []Step{
			{ID: "s-0", Status: StepStatusCompleted},
			{ID: "s-1", Status: StepStatusRejected},
			{ID: "s-2", Status: StepStatusPlanned},
			{ID: "s-3", Status: StepStatusPlanned},
		}}
		next := tk.NextStep()
		require.NotNil(t, next)
		assert.Equal(t, "s-2", next.ID)
	})

	t.Run("executing steps are skipped", func(t *testing.T) {
		tk := &Task{Steps: []Step{
			{ID: "s-0", Status: StepStatusExecuting},
			{ID: "s-1", Status: StepStatusPlanned},
		}}
		next := tk.NextStep()
		require.NotNil(t, next)
		assert.Equal(t, "s-1", next.ID)
	})

	t.Run("all terminal", func(t *testing.T) {
		tk := &Task{Steps: []Step{
			{ID: "s-0", Status: StepStatusCompleted},
			{ID: "s-1", Status: StepStatusFailed},
		}}
		assert.Nil(t, tk.NextStep())
	})

	t.Run("no steps", func(t *testing.T) {
		assert.Nil(t, (&Task{}).NextStep())
	})

	t.Run("returned pointer aliases the task", func(t *testing.T) {
		tk := &Task{Steps: []Step{{ID: "s-0", Status: StepStatusPlanned}}}
		tk.NextStep().Status = StepStatusExecuting
		assert.Equal(t, StepStatusExecuting, tk.Steps[0].Status)
	})
}

func TestStepByID(t *testing.T) {
	tk := &Task{Steps: []Step{
		{ID: "s-0", Agent: types.AgentHR},
		{ID: "s-1", Agent: types.AgentTech},
	}}
	step := tk.StepByID("s-1")
	require.NotNil(t, step)
	assert.Equal(t, types.AgentTech, step.Agent)
	assert.Nil(t, tk.StepByID("s-9"))
}

func TestCountSteps(t *testing.T) {
	tk := &Task{Steps: []Step{
		{Status: StepStatusPlanned},
		{Status: StepStatusPlanned},
		{Status: StepStatusExecuting},
		{Status: StepStatusCompleted},
		{Status: StepStatusFailed},
		{Status: StepStatusRejected},
	}}
	c := tk.CountSteps()
	assert.Equal(t, StepCounts{Total: 6, Planned: 2, Executing: 1, Completed: 1, Failed: 1, Rejected: 1}, c)
}

func TestOverallStatus(t *testing.T) {
	tests := []struct {
		name  string
		steps []Step
		want  Status
	}{
		{"all completed", []Step{{Status: StepStatusCompleted}, {Status: StepStatusCompleted}}, StatusCompleted},
		{"rejected counts as handled", []Step{{Status: StepStatusCompleted}, {Status: StepStatusRejected}}, StatusCompleted},
		{"any failure fails the task", []Step{{Status: StepStatusCompleted}, {Status: StepStatusFailed}}, StatusFailed},
		{"work remaining", []Step{{Status: StepStatusCompleted}, {Status: StepStatusPlanned}}, StatusInProgress},
		{"no steps", nil, StatusInProgress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk := &Task{Steps: tt.steps}
			assert.Equal(t, tt.want, tk.OverallStatus())
		})
	}
}

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAgentType(t *testing.T) {
	tests := []struct {
		input string
		want  AgentType
		ok    bool
	}{
		{"manager", AgentManager, true},
		{"hr", AgentHR, true},
		{"hr_agent", AgentHR, true},
		{"procurement", AgentProcurement, true},
		{"purchasing", AgentProcurement, true},
		{"tech", AgentTech, true},
		{"it", AgentTech, true},
		{"tech_support", AgentTech, true},
		{"generic", AgentGeneric, true},
		{"human", AgentHuman, true},
		{"  HR  ", AgentHR, true},
		{"TECH", AgentTech, true},
		{"astronaut", AgentUnknown, false},
		{"", AgentUnknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseAgentType(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestAgentTypeValid(t *testing.T) {
	for _, at := range AllAgentTypes {
		assert.True(t, at.Valid(), string(at))
	}
	assert.True(t, AgentUnknown.Valid())
	assert.True(t, AgentHuman.Valid())
	assert.False(t, AgentType("robot").Valid())
}

func TestAgentTypeInvokable(t *testing.T) {
	for _, at := range AllAgentTypes {
		assert.True(t, at.Invokable(), string(at))
	}
	assert.False(t, AgentUnknown.Invokable())
	assert.False(t, AgentHuman.Invokable())
}

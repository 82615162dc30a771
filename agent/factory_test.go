package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sekharnc/multi-agent-sk/types"
)

func TestFactory(t *testing.T) {
	t.Run("caches agents per session and role", func(t *testing.T) {
		f := NewFactory(new(MockProvider), FactoryConfig{}, nil)

		a1, err := f.Agent("session-1", "user-1", types.AgentHR)
		require.NoError(t, err)
		a2, err := f.Agent("session-1", "user-1", types.AgentHR)
		require.NoError(t, err)
		assert.Same(t, a1, a2)

		b, err := f.Agent("session-2", "user-1", types.AgentHR)
		require.NoError(t, err)
		assert.NotSame(t, a1, b)
		assert.Equal(t, 2, f.Sessions())
	})

	t.Run("unknown falls back to generic", func(t *testing.T) {
		f := NewFactory(new(MockProvider), FactoryConfig{}, nil)
		ag, err := f.Agent("session-1", "user-1", types.AgentUnknown)
		require.NoError(t, err)
		assert.Equal(t, types.AgentGeneric, ag.Type())

		// Empty type behaves the same.
		ag, err = f.Agent("session-1", "user-1", "")
		require.NoError(t, err)
		assert.Equal(t, types.AgentGeneric, ag.Type())
	})

	t.Run("human role has no implementation", func(t *testing.T) {
		f := NewFactory(new(MockProvider), FactoryConfig{}, nil)
		_, err := f.Agent("session-1", "user-1", types.AgentHuman)
		require.Error(t, err)
		assert.Equal(t, types.ErrAgentUnavailable, types.GetErrorCode(err))
	})

	t.Run("clear session drops cached agents", func(t *testing.T) {
		f := NewFactory(new(MockProvider), FactoryConfig{}, nil)
		a1, err := f.Agent("session-1", "user-1", types.AgentTech)
		require.NoError(t, err)

		f.ClearSession("session-1")
		assert.Equal(t, 0, f.Sessions())

		a2, err := f.Agent("session-1", "user-1", types.AgentTech)
		require.NoError(t, err)
		assert.NotSame(t, a1, a2)
	})

	t.Run("builds every invokable role", func(t *testing.T) {
		f := NewFactory(new(MockProvider), FactoryConfig{}, nil)
		for _, agentType := range types.AllAgentTypes {
			ag, err := f.Agent("session-1", "user-1", agentType)
			require.NoError(t, err, "role %s", agentType)
			assert.Equal(t, agentType, ag.Type())
		}
	})

	t.Run("custom definitions replace the built-ins", func(t *testing.T) {
		defs := DefaultDefinitions()
		hr := defs[types.AgentHR]
		hr.SystemMessage = "custom prompt"
		defs[types.AgentHR] = hr

		f := NewFactory(new(MockProvider), FactoryConfig{Definitions: defs}, nil)
		got := f.Definitions()[types.AgentHR]
		assert.Equal(t, "custom prompt", got.SystemMessage)
	})
}

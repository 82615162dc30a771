package agent

import (
	"sync"

	"go.uber.org/zap"

	"github.com/sekharnc/multi-agent-sk/llm"
	"github.com/sekharnc/multi-agent-sk/types"
)

// FactoryConfig tunes the agent factory.
type FactoryConfig struct {
	// Model overrides the provider default model when non-empty.
	Model string `json:"model" yaml:"model"`

	// MaxHistory bounds the per-invocation history window.
	MaxHistory int `json:"max_history" yaml:"max_history"`

	// Definitions replaces the built-in role set when non-nil.
	Definitions map[types.AgentType]Definition `json:"-" yaml:"-"`
}

// Factory builds agents bound to sessions and caches them so repeated
// invocations within one session reuse the same instance.
type Factory struct {
	provider llm.Provider
	cfg      FactoryConfig
	defs     map[types.AgentType]Definition
	logger   *zap.Logger

	mu    sync.Mutex
	cache map[string]map[types.AgentType]Agent
}

// NewFactory builds a factory over the given provider.
func NewFactory(provider llm.Provider, cfg FactoryConfig, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	defs := cfg.Definitions
	if defs == nil {
		defs = DefaultDefinitions()
	}
	return &Factory{
		provider: provider,
		cfg:      cfg,
		defs:     defs,
		logger:   logger.With(zap.String("component", "agent_factory")),
		cache:    make(map[string]map[types.AgentType]Agent),
	}
}

// Agent returns the cached agent for (sessionID, agentType), building it
// on first use. Unknown routes fall back to the generic agent; types
// that cannot be invoked (including human) return an error.
func (f *Factory) Agent(sessionID, userID string, agentType types.AgentType) (Agent, error) {
	if agentType == types.AgentUnknown || agentType == "" {
		agentType = types.AgentGeneric
	}
	if !agentType.Invokable() {
		return nil, types.NewError(types.ErrAgentUnavailable,
			"no agent implementation for type "+string(agentType))
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	session, ok := f.cache[sessionID]
	if !ok {
		session = make(map[types.AgentType]Agent)
		f.cache[sessionID] = session
	}
	if ag, ok := session[agentType]; ok {
		return ag, nil
	}

	def, ok := f.defs[agentType]
	if !ok {
		return nil, types.NewError(types.ErrAgentUnavailable,
			"no definition registered for type "+string(agentType))
	}

	ag, err := NewLLMAgent(def, f.provider, sessionID, userID, LLMAgentOptions{
		Model:      f.cfg.Model,
		MaxHistory: f.cfg.MaxHistory,
		Logger:     f.logger,
	})
	if err != nil {
		return nil, err
	}
	session[agentType] = ag

	f.logger.Debug("agent created",
		zap.String("session_id", sessionID),
		zap.String("agent_type", string(agentType)))
	return ag, nil
}

// Definitions returns the role set the factory builds from. The result
// is a copy; mutating it does not affect the factory.
func (f *Factory) Definitions() map[types.AgentType]Definition {
	out := make(map[types.AgentType]Definition, len(f.defs))
	for k, v := range f.defs {
		out[k] = v
	}
	return out
}

// ClearSession drops all cached agents for a session. Call it when a
// task reaches a terminal state to release the session's agents.
func (f *Factory) ClearSession(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cache[sessionID]; ok {
		delete(f.cache, sessionID)
		f.logger.Debug("session agents cleared", zap.String("session_id", sessionID))
	}
}

// Sessions returns how many sessions currently hold cached agents.
func (f *Factory) Sessions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cache)
}

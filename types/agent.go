package types

import "strings"

// AgentType identifies an agent role. Roles are capability labels, not
// stateful entities: the same role can serve many sessions at once.
type AgentType string

const (
	// AgentManager plans and coordinates multi-step tasks.
	AgentManager AgentType = "manager"

	// AgentHR handles human-resources requests (onboarding, benefits,
	// leave, payroll questions).
	AgentHR AgentType = "hr_agent"

	// AgentProcurement handles purchasing, vendors, and orders.
	AgentProcurement AgentType = "procurement_agent"

	// AgentTech handles IT and technical support requests.
	AgentTech AgentType = "tech_agent"

	// AgentGeneric answers requests that fit no specialized role.
	AgentGeneric AgentType = "generic_agent"

	// AgentUnknown marks a request the router could not classify.
	// Tasks routed here fall back to the generic agent.
	AgentUnknown AgentType = "unknown"

	// AgentHuman marks messages and feedback authored by the end user.
	// It is a sender label only; no agent implementation exists for it.
	AgentHuman AgentType = "human"
)

// AllAgentTypes lists every role the factory can instantiate.
var AllAgentTypes = []AgentType{
	AgentManager,
	AgentHR,
	AgentProcurement,
	AgentTech,
	AgentGeneric,
}

// Valid reports whether t is a known agent type (including unknown/human).
func (t AgentType) Valid() bool {
	switch t {
	case AgentManager, AgentHR, AgentProcurement, AgentTech, AgentGeneric, AgentUnknown, AgentHuman:
		return true
	default:
		return false
	}
}

// Invokable reports whether the factory can build an agent for t.
func (t AgentType) Invokable() bool {
	switch t {
	case AgentManager, AgentHR, AgentProcurement, AgentTech, AgentGeneric:
		return true
	default:
		return false
	}
}

// ParseAgentType resolves a user-supplied role name to an AgentType.
// It accepts both the canonical values ("hr_agent") and short aliases
// ("hr", "tech", "it"). Unrecognized input yields AgentUnknown and
// ok=false.
func ParseAgentType(s string) (AgentType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "manager":
		return AgentManager, true
	case "hr", "hr_agent":
		return AgentHR, true
	case "procurement", "procurement_agent", "purchasing":
		return AgentProcurement, true
	case "tech", "tech_agent", "it", "tech_support":
		return AgentTech, true
	case "generic", "generic_agent":
		return AgentGeneric, true
	case "human":
		return AgentHuman, true
	default:
		return AgentUnknown, false
	}
}

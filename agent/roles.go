package agent

import (
	"fmt"

	"github.com/sekharnc/multi-agent-sk/types"
)

// Definition describes one agent role: identity, default system prompt,
// and sampling parameters. Definitions are templates; the factory turns
// them into live agents bound to a session.
type Definition struct {
	Type          types.AgentType `json:"type" yaml:"type"`
	Name          string          `json:"name" yaml:"name"`
	Description   string          `json:"description" yaml:"description"`
	SystemMessage string          `json:"system_message" yaml:"system_message"`
	Temperature   float32         `json:"temperature" yaml:"temperature"`
	MaxTokens     int             `json:"max_tokens" yaml:"max_tokens"`
}

// Validate checks that the definition can produce a working agent.
func (d *Definition) Validate() error {
	if !d.Type.Invokable() {
		return fmt.Errorf("agent type %q is not invokable", d.Type)
	}
	if d.Name == "" {
		return fmt.Errorf("definition for %q has no name", d.Type)
	}
	if d.SystemMessage == "" {
		return fmt.Errorf("definition for %q has no system message", d.Type)
	}
	return nil
}

// DefaultDefinitions returns the built-in role set. Callers may override
// individual fields (model, prompts) via configuration before handing
// the set to the factory.
func DefaultDefinitions() map[types.AgentType]Definition {
	return map[types.AgentType]Definition{
		types.AgentManager: {
			Type:        types.AgentManager,
			Name:        "ManagerAgent",
			Description: "Plans tasks, decomposes them into steps, and assigns each step to the best-suited specialist agent.",
			SystemMessage: "You are a planning manager for a team of specialist agents: " +
				"an HR agent, a procurement agent, a technical support agent, and a generic agent. " +
				"Break the user's request into a short ordered list of concrete steps and assign " +
				"each step to exactly one agent. Keep plans minimal; prefer a single step when one " +
				"agent can handle the whole request. Do not execute steps yourself.",
			Temperature: 0.0,
			MaxTokens:   1200,
		},
		types.AgentHR: {
			Type:        types.AgentHR,
			Name:        "HrAgent",
			Description: "Handles human-resources requests: onboarding, offboarding, benefits, leave, and payroll questions.",
			SystemMessage: "You are an HR specialist. You handle onboarding, offboarding, benefits, " +
				"leave requests, and payroll questions. Answer only HR matters; if the request is " +
				"outside HR, say so briefly instead of guessing.",
			Temperature: 0.3,
			MaxTokens:   1200,
		},
		types.AgentProcurement: {
			Type:        types.AgentProcurement,
			Name:        "ProcurementAgent",
			Description: "Handles purchasing, vendor management, and order tracking.",
			SystemMessage: "You are a procurement specialist. You handle purchase requests, vendor " +
				"selection, order status, and asset acquisition. Answer only procurement matters; " +
				"if the request is outside procurement, say so briefly instead of guessing.",
			Temperature: 0.3,
			MaxTokens:   1200,
		},
		types.AgentTech: {
			Type:        types.AgentTech,
			Name:        "TechAgent",
			Description: "Handles IT and technical support: accounts, devices, software, and network issues.",
			SystemMessage: "You are a technical support specialist. You handle account setup, device " +
				"provisioning, software installation, and network or access issues. Answer only " +
				"technical matters; if the request is outside IT support, say so briefly instead " +
				"of guessing.",
			Temperature: 0.3,
			MaxTokens:   1200,
		},
		types.AgentGeneric: {
			Type:        types.AgentGeneric,
			Name:        "GenericAgent",
			Description: "Answers requests that fit no specialized role.",
			SystemMessage: "You are a helpful generalist assistant. Answer the user's request " +
				"directly and concisely. If a request clearly belongs to HR, procurement, or " +
				"technical support, still do your best with the information at hand.",
			Temperature: 0.7,
			MaxTokens:   1200,
		},
	}
}

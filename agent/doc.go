// Package agent provides the role-specialized agents that execute task
// steps: role definitions with default system prompts, an LLM-backed
// agent implementation, a per-session factory cache, and a reply
// summarizer for long outputs.
package agent

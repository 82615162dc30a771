// The orchestrator command runs the multi-agent task orchestration
// service: an HTTP API for tasks, chat, and message history, backed by
// a worker pool that routes work to role-specialized LLM agents.
package main

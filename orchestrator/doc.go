// Package orchestrator drives a task through its lifecycle: it routes
// the goal to an agent role, plans steps, gates them on human approval
// when required, executes them serially through the agent factory, and
// persists every state change and message. A bounded worker pool picks
// up queued tasks; lifecycle events fan out to subscribers.
package orchestrator

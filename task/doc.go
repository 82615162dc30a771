// Package task defines the task and step lifecycle model for the
// orchestration backend.
//
// A task tracks one user-submitted goal from submission to completion.
// The manager role decomposes a goal into steps; each step is routed to
// one agent role and executed serially, so a task has at most one
// active agent at any time.
package task

// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
//
// The Collector exposes Prometheus metrics for the HTTP surface, LLM
// calls, agent executions, task lifecycle, and store operations. All
// metrics share one namespace and are served by promhttp on the
// metrics port.
package metrics

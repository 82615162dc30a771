// Package persistence provides durable storage for tasks and
// conversation messages.
//
// Supported backends:
//   - Memory: for development and testing (default)
//   - Mongo: document store for production deployments
//   - Redis: for deployments that already run Redis
//
// All write paths share a retry policy for transient failures.
package persistence

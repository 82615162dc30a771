// Package server manages the lifecycle of an HTTP server: non-blocking
// startup, graceful shutdown, and SIGINT/SIGTERM handling.
//
// Manager wraps net/http.Server with an explicit listener so a bad
// address fails at Start rather than in a background goroutine, and
// exposes asynchronous serve failures through Errors().
package server

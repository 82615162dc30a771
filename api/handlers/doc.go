// Package handlers implements the HTTP endpoints: task lifecycle,
// session message history, direct chat (plain and SSE), websocket task
// events, and health probes.
//
// Every JSON endpoint wraps its payload in the Response envelope and
// reports failures as typed error codes mapped to HTTP statuses.
package handlers

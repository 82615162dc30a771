// Package api defines the request and response shapes of the HTTP
// surface. Handlers in api/handlers decode into and encode from these
// types; nothing here touches the stores or the orchestrator directly.
package api

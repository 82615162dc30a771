// Package llm provides the chat-model client used by agents: a
// Provider interface, an OpenAI-compatible HTTP implementation with
// SSE streaming, a retrying wrapper, and a tiktoken-based tokenizer
// for usage estimation.
package llm

package types

import "time"

// Role represents the role of a chat message participant.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single turn in a model conversation.
type ChatMessage struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content,omitempty"`
	Name      string    `json:"name,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// NewChatMessage creates a message with the given role and content.
func NewChatMessage(role Role, content string) ChatMessage {
	return ChatMessage{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) ChatMessage {
	return NewChatMessage(RoleSystem, content)
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) ChatMessage {
	return NewChatMessage(RoleUser, content)
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) ChatMessage {
	return NewChatMessage(RoleAssistant, content)
}

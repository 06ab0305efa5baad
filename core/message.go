package core

// Role is the conversational role of a prompt message.
type Role string

const (
	// RoleSystem carries the community's system prompt.
	RoleSystem Role = "system"
	// RoleUser carries anything said by a platform user.
	RoleUser Role = "user"
	// RoleAssistant carries the persona's own previous replies.
	RoleAssistant Role = "assistant"
)

// Message is one (role, text) pair of a flat prompt context.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SystemMessage builds a system role message.
func SystemMessage(text string) Message { return Message{Role: RoleSystem, Content: text} }

// UserMessage builds a user role message.
func UserMessage(text string) Message { return Message{Role: RoleUser, Content: text} }

// AssistantMessage builds an assistant role message.
func AssistantMessage(text string) Message { return Message{Role: RoleAssistant, Content: text} }

package domain

// Role tags a conversation turn or model message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Turn is one message in a session's conversation history.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

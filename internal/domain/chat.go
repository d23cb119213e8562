package domain

import "encoding/json"

// Message is one entry of a model conversation.
type Message struct {
	Role Role
	Text string
	// ToolCalls carries tool invocations requested by an assistant message.
	ToolCalls []ToolCall
	// ToolCallID links a tool result message to the call that produced it.
	ToolCallID string
}

// ToolCall is a model-requested tool invocation with JSON-encoded arguments.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolSpec describes a tool offered to the model. Parameters is a JSON
// schema for the tool's arguments object.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// Completion is a model response: final text, or tool calls to execute.
type Completion struct {
	Text      string
	ToolCalls []ToolCall
}

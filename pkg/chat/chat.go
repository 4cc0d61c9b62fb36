package chat

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the author of a conversational turn.
type Role string

const (
	// RoleSystem is an instruction message set by the caller.
	RoleSystem Role = "system"
	// RoleUser is a message sent by the user.
	RoleUser Role = "user"
	// RoleAssistant is a message produced by the model.
	RoleAssistant Role = "assistant"
	// RoleTool is the result of a tool invocation requested by the model.
	RoleTool Role = "tool"
)

// ToolCall is a model-issued request to invoke a named tool.
// The ID is unique within the assistant turn that carries the call.
type ToolCall struct {
	ID string `json:"id"`
	// Name is the name of the tool to invoke.
	Name string `json:"name"`
	// Arguments is the tool input, as a JSON string.
	Arguments string `json:"arguments"`
}

func (tc ToolCall) String() string {
	return fmt.Sprintf("ToolCall: %s (%s), input: %s", tc.ID, tc.Name, tc.Arguments)
}

// ToolResult is the outcome of a single ToolCall.
// Exactly one ToolResult is produced per ToolCall, matched by ID.
type ToolResult struct {
	// ID matches the ID of the originating ToolCall.
	ID string `json:"id"`
	// Name is the name of the tool that was called.
	Name string `json:"name"`
	// Content is the rendered tool output, or the failure text when IsError is set.
	Content string `json:"content"`
	// IsError reports whether the invocation failed.
	IsError bool `json:"is_error,omitempty"`

	// Err holds the underlying failure. It is kept for callers and callbacks
	// and is not part of the wire representation; the model sees Content only.
	Err error `json:"-"`
}

func (tr ToolResult) String() string {
	return fmt.Sprintf("ToolResult: %s (%s), response size: %d", tr.ID, tr.Name, len(tr.Content))
}

// Message is a single turn in a conversation. A conversation is an ordered,
// append-only sequence of Messages owned by the loop for one invocation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`
	// ToolCalls is set only on assistant messages that request tool execution.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolResult is set only on tool messages.
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}

// NewSystemMessage creates a system instruction message.
func NewSystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

// NewUserMessage creates a user message.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// NewAssistantMessage creates a terminal assistant message with text content.
func NewAssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// NewToolCallMessage creates an assistant message carrying one or more tool calls.
func NewToolCallMessage(calls ...ToolCall) Message {
	return Message{Role: RoleAssistant, ToolCalls: calls}
}

// NewToolResultMessage creates a tool message from a ToolResult.
func NewToolResultMessage(res ToolResult) Message {
	return Message{Role: RoleTool, ToolResult: &res}
}

// GetContent returns a textual rendering of the message,
// including tool calls and tool results.
func (m Message) GetContent() string {
	var buf strings.Builder
	if m.Content != "" {
		buf.WriteString(m.Content)
	}
	for _, tc := range m.ToolCalls {
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		js, _ := json.Marshal(tc)
		buf.WriteString("Tool Call: ")
		buf.Write(js)
	}
	if m.ToolResult != nil {
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		js, _ := json.Marshal(m.ToolResult)
		buf.WriteString("Tool Result: ")
		buf.Write(js)
	}
	return buf.String()
}

// CountContentSize returns the total content bytes across messages,
// used to bound what is sent to the model.
func CountContentSize(messages []Message) uint64 {
	var total uint64
	for _, m := range messages {
		total += uint64(len(m.Content))
		for _, tc := range m.ToolCalls {
			total += uint64(len(tc.Name) + len(tc.Arguments))
		}
		if m.ToolResult != nil {
			total += uint64(len(m.ToolResult.Content))
		}
	}
	return total
}

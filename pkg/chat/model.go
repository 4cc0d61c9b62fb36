package chat

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// ToolDefinition describes a callable tool to the model.
// It is immutable once published to a conversation.
type ToolDefinition struct {
	// Name uniquely identifies the tool within a registry.
	Name        string `json:"name"`
	Description string `json:"description"`
	// Parameters is the JSON schema of the tool input.
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// Response is returned by a GenerateContent call.
type Response struct {
	Choices []*Choice
}

// Choice is one of the response choices returned by the model.
type Choice struct {
	// Content is the textual content of the response.
	Content string `json:"content"`
	// StopReason is the reason the model stopped generating output.
	StopReason string `json:"stop_reason,omitempty"`
	// ToolCalls is the list of tool calls the model asks to invoke.
	// Each ID must be unique within this choice.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Model is the completion client contract. Given a conversation and the
// published tool definitions it returns either a textual answer or a set
// of requested tool calls. Implementations own their retry policy.
type Model interface {
	// GetName returns the model name, used for logging and metrics.
	GetName() string
	// GenerateContent asks the model to produce the next assistant turn.
	GenerateContent(ctx context.Context, messages []Message, tools []ToolDefinition) (*Response, error)
}

// NewRunID returns a unique identifier for one loop invocation.
func NewRunID() string {
	return uuid.NewString()
}

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ITool is a tool the model may invoke with structured arguments.
type ITool interface {
	// Name returns the name of the Tool.
	Name() string
	// Description returns the description of the tool, to be used in the prompt.
	// Should not exceed LLM model limit.
	Description() string
	// Parameters returns the parameters definition of the tool input.
	Parameters() any

	// Call executes the tool with the given JSON input and returns the result.
	// If the input does not satisfy the parameter schema, it returns an error
	// matching ErrInvalidArguments; a runtime failure matches ErrExecutionFailed.
	// Call must be safe for concurrent use with distinct arguments.
	Call(context.Context, string) (string, error)
}

// Tool is a typed tool with structured input and output.
type Tool[I any, O any] interface {
	ITool
	Run(context.Context, *I) (*O, error)
}

// Callback receives per-invocation tool events.
type Callback interface {
	OnToolStart(ctx context.Context, tool ITool, input string)
	OnToolEnd(ctx context.Context, tool ITool, input string, output string)
	OnToolError(ctx context.Context, tool ITool, input string, err error)
}

// ReturnValueAsString renders a tool result for inclusion in a tool message.
func ReturnValueAsString(v any) string {
	switch typ := v.(type) {
	case string:
		return typ
	case fmt.Stringer:
		return typ.String()
	}
	bs, _ := json.Marshal(v)
	return string(bs)
}

// GetDescriptions returns a prompt-ready listing of the tools.
func GetDescriptions(list ...ITool) string {
	var ts strings.Builder
	for _, item := range list {
		ts.WriteString(fmt.Sprintf("- `%s`: %s\n", item.Name(), item.Description()))
	}
	return ts.String()
}

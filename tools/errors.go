package tools

import (
	"github.com/cockroachdb/errors"
)

// Tool failures are reported per request and never abort a batch.
// Use errors.Is to classify.
var (
	// ErrUnknownTool is returned when the requested tool name is not registered.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidArguments is returned when the arguments do not satisfy
	// the declared parameter schema.
	ErrInvalidArguments = errors.New("invalid arguments: check the schema and try again")
	// ErrExecutionFailed is returned when the tool fails during execution.
	ErrExecutionFailed = errors.New("tool execution failed")
)

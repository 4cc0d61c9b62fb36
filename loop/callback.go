package loop

import (
	"context"

	"github.com/ostraca-ai/agentloop/executor"
	"github.com/ostraca-ai/agentloop/pkg/chat"
)

// ILoop is the loop surface exposed to callbacks.
type ILoop interface {
	// Name returns the name of the loop.
	Name() string
	// Description returns the description of the loop.
	Description() string
}

// Callback receives observable events at each phase transition of the
// loop. Callbacks are not part of the control path; a callback must not
// mutate the conversation.
type Callback interface {
	executor.Callback

	OnLoopStart(ctx context.Context, loop ILoop, input string)
	OnLoopEnd(ctx context.Context, loop ILoop, input string, result *Result)
	OnLoopError(ctx context.Context, loop ILoop, input string, err error, messages []chat.Message)

	OnModelCallStart(ctx context.Context, loop ILoop, model chat.Model, messages []chat.Message)
	OnModelCallEnd(ctx context.Context, loop ILoop, model chat.Model, resp *chat.Response)

	OnToolBatchStart(ctx context.Context, loop ILoop, calls []chat.ToolCall)
	OnToolBatchEnd(ctx context.Context, loop ILoop, results []chat.ToolResult)
}

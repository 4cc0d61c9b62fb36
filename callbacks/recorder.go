package callbacks

import (
	"context"
	"sync/atomic"

	"github.com/ostraca-ai/agentloop/loop"
	"github.com/ostraca-ai/agentloop/pkg/chat"
	"github.com/ostraca-ai/agentloop/tools"
)

var _ loop.Callback = (*Recorder)(nil)

// RunStats aggregates counters across loop invocations.
type RunStats struct {
	LoopRuns          uint32
	LoopRunsSucceeded uint32
	LoopRunsFailed    uint32
	ModelCalls        uint32
	ToolBatches       uint32
	ToolCalls         uint32
	ToolCallsFailed   uint32
	ToolNotFound      uint32
}

// Recorder is a callback handler that accumulates run statistics.
// Safe for concurrent invocations.
type Recorder struct {
	loopRuns          atomic.Uint32
	loopRunsSucceeded atomic.Uint32
	loopRunsFailed    atomic.Uint32
	modelCalls        atomic.Uint32
	toolBatches       atomic.Uint32
	toolCalls         atomic.Uint32
	toolCallsFailed   atomic.Uint32
	toolNotFound      atomic.Uint32
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Stats returns a snapshot of the accumulated counters.
func (l *Recorder) Stats() RunStats {
	return RunStats{
		LoopRuns:          l.loopRuns.Load(),
		LoopRunsSucceeded: l.loopRunsSucceeded.Load(),
		LoopRunsFailed:    l.loopRunsFailed.Load(),
		ModelCalls:        l.modelCalls.Load(),
		ToolBatches:       l.toolBatches.Load(),
		ToolCalls:         l.toolCalls.Load(),
		ToolCallsFailed:   l.toolCallsFailed.Load(),
		ToolNotFound:      l.toolNotFound.Load(),
	}
}

func (l *Recorder) OnLoopStart(ctx context.Context, lp loop.ILoop, input string) {
	l.loopRuns.Add(1)
}

func (l *Recorder) OnLoopEnd(ctx context.Context, lp loop.ILoop, input string, result *loop.Result) {
	l.loopRunsSucceeded.Add(1)
}

func (l *Recorder) OnLoopError(ctx context.Context, lp loop.ILoop, input string, err error, messages []chat.Message) {
	l.loopRunsFailed.Add(1)
}

func (l *Recorder) OnModelCallStart(ctx context.Context, lp loop.ILoop, model chat.Model, messages []chat.Message) {
	l.modelCalls.Add(1)
}

func (l *Recorder) OnModelCallEnd(ctx context.Context, lp loop.ILoop, model chat.Model, resp *chat.Response) {
}

func (l *Recorder) OnToolBatchStart(ctx context.Context, lp loop.ILoop, calls []chat.ToolCall) {
	l.toolBatches.Add(1)
}

func (l *Recorder) OnToolBatchEnd(ctx context.Context, lp loop.ILoop, results []chat.ToolResult) {
}

func (l *Recorder) OnToolStart(ctx context.Context, tool tools.ITool, input string) {
	l.toolCalls.Add(1)
}

func (l *Recorder) OnToolEnd(ctx context.Context, tool tools.ITool, input string, output string) {
}

func (l *Recorder) OnToolError(ctx context.Context, tool tools.ITool, input string, err error) {
	l.toolCallsFailed.Add(1)
}

func (l *Recorder) OnToolNotFound(ctx context.Context, name string) {
	l.toolNotFound.Add(1)
}

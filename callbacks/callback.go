// Package callbacks provides ready-made implementations of the loop's
// Callback interface: a no-op, a writer-backed printer, a structured
// logger, a fanout combinator and a stats recorder. Callbacks observe
// phase transitions without being part of the control path.
package callbacks

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/effective-security/xlog"
	"github.com/ostraca-ai/agentloop/loop"
	"github.com/ostraca-ai/agentloop/pkg/chat"
	"github.com/ostraca-ai/agentloop/tools"
)

// ensure that the callbacks implement the correct interfaces
var (
	_ loop.Callback = (*Noop)(nil)
	_ loop.Callback = (*Printer)(nil)
	_ loop.Callback = (*PackageLogger)(nil)
	_ loop.Callback = (*Fanout)(nil)
)

// Mode defines the mode for callback printing
type Mode int

const (
	// ModeDefault is the default mode for callback printing
	ModeDefault Mode = iota
	// ModeVerbose is the verbose mode for callback printing
	ModeVerbose
)

// Fanout is a callback handler that forwards the events to multiple callbacks.
type Fanout struct {
	callbacks []loop.Callback
}

func NewFanout(callbacks ...loop.Callback) *Fanout {
	return &Fanout{callbacks: callbacks}
}

func (l *Fanout) Add(callback loop.Callback) {
	l.callbacks = append(l.callbacks, callback)
}

func (l *Fanout) OnLoopStart(ctx context.Context, lp loop.ILoop, input string) {
	for _, callback := range l.callbacks {
		callback.OnLoopStart(ctx, lp, input)
	}
}

func (l *Fanout) OnLoopEnd(ctx context.Context, lp loop.ILoop, input string, result *loop.Result) {
	for _, callback := range l.callbacks {
		callback.OnLoopEnd(ctx, lp, input, result)
	}
}

func (l *Fanout) OnLoopError(ctx context.Context, lp loop.ILoop, input string, err error, messages []chat.Message) {
	for _, callback := range l.callbacks {
		callback.OnLoopError(ctx, lp, input, err, messages)
	}
}

func (l *Fanout) OnModelCallStart(ctx context.Context, lp loop.ILoop, model chat.Model, messages []chat.Message) {
	for _, callback := range l.callbacks {
		callback.OnModelCallStart(ctx, lp, model, messages)
	}
}

func (l *Fanout) OnModelCallEnd(ctx context.Context, lp loop.ILoop, model chat.Model, resp *chat.Response) {
	for _, callback := range l.callbacks {
		callback.OnModelCallEnd(ctx, lp, model, resp)
	}
}

func (l *Fanout) OnToolBatchStart(ctx context.Context, lp loop.ILoop, calls []chat.ToolCall) {
	for _, callback := range l.callbacks {
		callback.OnToolBatchStart(ctx, lp, calls)
	}
}

func (l *Fanout) OnToolBatchEnd(ctx context.Context, lp loop.ILoop, results []chat.ToolResult) {
	for _, callback := range l.callbacks {
		callback.OnToolBatchEnd(ctx, lp, results)
	}
}

func (l *Fanout) OnToolStart(ctx context.Context, tool tools.ITool, input string) {
	for _, callback := range l.callbacks {
		callback.OnToolStart(ctx, tool, input)
	}
}

func (l *Fanout) OnToolEnd(ctx context.Context, tool tools.ITool, input string, output string) {
	for _, callback := range l.callbacks {
		callback.OnToolEnd(ctx, tool, input, output)
	}
}

func (l *Fanout) OnToolError(ctx context.Context, tool tools.ITool, input string, err error) {
	for _, callback := range l.callbacks {
		callback.OnToolError(ctx, tool, input, err)
	}
}

func (l *Fanout) OnToolNotFound(ctx context.Context, name string) {
	for _, callback := range l.callbacks {
		callback.OnToolNotFound(ctx, name)
	}
}

// Noop does nothing.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (l *Noop) OnLoopStart(ctx context.Context, lp loop.ILoop, input string) {}
func (l *Noop) OnLoopEnd(ctx context.Context, lp loop.ILoop, input string, result *loop.Result) {
}
func (l *Noop) OnLoopError(ctx context.Context, lp loop.ILoop, input string, err error, messages []chat.Message) {
}
func (l *Noop) OnModelCallStart(ctx context.Context, lp loop.ILoop, model chat.Model, messages []chat.Message) {
}
func (l *Noop) OnModelCallEnd(ctx context.Context, lp loop.ILoop, model chat.Model, resp *chat.Response) {
}
func (l *Noop) OnToolBatchStart(ctx context.Context, lp loop.ILoop, calls []chat.ToolCall)    {}
func (l *Noop) OnToolBatchEnd(ctx context.Context, lp loop.ILoop, results []chat.ToolResult) {}
func (l *Noop) OnToolStart(ctx context.Context, tool tools.ITool, input string)              {}
func (l *Noop) OnToolEnd(ctx context.Context, tool tools.ITool, input string, output string) {}
func (l *Noop) OnToolError(ctx context.Context, tool tools.ITool, input string, err error)   {}
func (l *Noop) OnToolNotFound(ctx context.Context, name string)                              {}

// Printer is a callback handler that prints to the Writer.
type Printer struct {
	Out  io.Writer
	Mode Mode

	lock sync.Mutex
}

func NewPrinter(out io.Writer, mode Mode) *Printer {
	return &Printer{Out: out, Mode: mode}
}

func (l *Printer) OnLoopStart(ctx context.Context, lp loop.ILoop, input string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Loop Start: %s\n", lp.Name())
	fmt.Fprintf(l.Out, "Input: %s\n", input)
}

func (l *Printer) OnLoopEnd(ctx context.Context, lp loop.ILoop, input string, result *loop.Result) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Loop End: %s: %d rounds\n", lp.Name(), result.Rounds)
	if l.Mode == ModeVerbose && result.Content != "" {
		fmt.Fprintln(l.Out, result.Content)
	}
}

func (l *Printer) OnLoopError(ctx context.Context, lp loop.ILoop, input string, err error, messages []chat.Message) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Loop Error: %s: %s\n", lp.Name(), err.Error())
}

func (l *Printer) OnModelCallStart(ctx context.Context, lp loop.ILoop, model chat.Model, messages []chat.Message) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Model Call: %s: %s model, %d messages\n", lp.Name(), model.GetName(), len(messages))
}

func (l *Printer) OnModelCallEnd(ctx context.Context, lp loop.ILoop, model chat.Model, resp *chat.Response) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Model Call End: %s: %s model, %d choices\n", lp.Name(), model.GetName(), len(resp.Choices))
}

func (l *Printer) OnToolBatchStart(ctx context.Context, lp loop.ILoop, calls []chat.ToolCall) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool Batch Start: %s: %d calls\n", lp.Name(), len(calls))
}

func (l *Printer) OnToolBatchEnd(ctx context.Context, lp loop.ILoop, results []chat.ToolResult) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool Batch End: %s: %d results\n", lp.Name(), len(results))
}

func (l *Printer) OnToolStart(ctx context.Context, tool tools.ITool, input string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool Start: %s\n", tool.Name())
	fmt.Fprintf(l.Out, "Input: %s\n", input)
}

func (l *Printer) OnToolEnd(ctx context.Context, tool tools.ITool, input string, output string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool End: %s\n", tool.Name())
	if l.Mode == ModeVerbose {
		fmt.Fprintf(l.Out, "Output: %s\n", output)
	}
}

func (l *Printer) OnToolError(ctx context.Context, tool tools.ITool, input string, err error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool Error: %s: %s\n", tool.Name(), err.Error())
}

func (l *Printer) OnToolNotFound(ctx context.Context, name string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool Not Found: %s\n", name)
}

// PackageLogger is a callback handler that prints to the logger.
type PackageLogger struct {
	logger *xlog.PackageLogger
}

func NewPackageLogger(logger *xlog.PackageLogger) *PackageLogger {
	return &PackageLogger{logger: logger}
}

func (l *PackageLogger) OnLoopStart(ctx context.Context, lp loop.ILoop, input string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "loop_start",
		"loop", lp.Name(),
		"input", input,
	)
}

func (l *PackageLogger) OnLoopEnd(ctx context.Context, lp loop.ILoop, input string, result *loop.Result) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "loop_end",
		"loop", lp.Name(),
		"run_id", result.RunID,
		"rounds", result.Rounds,
	)
}

func (l *PackageLogger) OnLoopError(ctx context.Context, lp loop.ILoop, input string, err error, messages []chat.Message) {
	l.logger.ContextKV(ctx, xlog.ERROR,
		"event", "loop_error",
		"loop", lp.Name(),
		"err", err.Error(),
	)
}

func (l *PackageLogger) OnModelCallStart(ctx context.Context, lp loop.ILoop, model chat.Model, messages []chat.Message) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "model_call_start",
		"loop", lp.Name(),
		"model", model.GetName(),
		"messages", len(messages),
	)
}

func (l *PackageLogger) OnModelCallEnd(ctx context.Context, lp loop.ILoop, model chat.Model, resp *chat.Response) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "model_call_end",
		"loop", lp.Name(),
		"model", model.GetName(),
		"choices", len(resp.Choices),
	)
}

func (l *PackageLogger) OnToolBatchStart(ctx context.Context, lp loop.ILoop, calls []chat.ToolCall) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_batch_start",
		"loop", lp.Name(),
		"calls", len(calls),
	)
}

func (l *PackageLogger) OnToolBatchEnd(ctx context.Context, lp loop.ILoop, results []chat.ToolResult) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_batch_end",
		"loop", lp.Name(),
		"results", len(results),
	)
}

func (l *PackageLogger) OnToolStart(ctx context.Context, tool tools.ITool, input string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_start",
		"tool", tool.Name(),
		"input", input,
	)
}

func (l *PackageLogger) OnToolEnd(ctx context.Context, tool tools.ITool, input string, output string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_end",
		"tool", tool.Name(),
		"output", output,
	)
}

func (l *PackageLogger) OnToolError(ctx context.Context, tool tools.ITool, input string, err error) {
	l.logger.ContextKV(ctx, xlog.ERROR,
		"event", "tool_error",
		"tool", tool.Name(),
		"err", err.Error(),
	)
}

func (l *PackageLogger) OnToolNotFound(ctx context.Context, name string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_not_found",
		"tool", name,
	)
}

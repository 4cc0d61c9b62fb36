// Package executor runs batches of model-requested tool calls against a
// registry. Calls within one batch execute concurrently; the batch joins
// before returning and always yields exactly one result per request, in
// request order.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
	"github.com/ostraca-ai/agentloop/pkg/chat"
	"github.com/ostraca-ai/agentloop/pkg/metricskey"
	"github.com/ostraca-ai/agentloop/tools"
)

var logger = xlog.NewPackageLogger("github.com/ostraca-ai/agentloop", "executor")

// Callback receives tool events from batch execution.
type Callback interface {
	tools.Callback
	OnToolNotFound(ctx context.Context, name string)
}

// Option is a function that can be used to modify the Executor.
type Option func(*Executor)

// WithCallback sets the callback for tool events.
func WithCallback(cb Callback) Option {
	return func(e *Executor) {
		e.callback = cb
	}
}

// WithMaxConcurrency bounds the number of tool invocations running at
// once within a batch. Zero means unbounded.
func WithMaxConcurrency(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.sem = make(chan struct{}, n)
		}
	}
}

// Executor executes batches of tool calls. It never calls the model.
type Executor struct {
	registry *tools.Registry
	callback Callback
	sem      chan struct{}
}

// New creates an Executor over the given registry.
func New(registry *tools.Registry, opts ...Option) *Executor {
	e := &Executor{
		registry: registry,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs every call in the batch and returns one result per call,
// matched by ID and ordered as the calls were issued, regardless of
// completion order. A failure of one call does not prevent results for
// the others. Cancelling ctx causes every unresolved call to report a
// cancellation error instead of leaving the batch incomplete.
func (e *Executor) Execute(ctx context.Context, calls []chat.ToolCall) []chat.ToolResult {
	results := make([]chat.ToolResult, len(calls))

	var wg sync.WaitGroup
	wg.Add(len(calls))
	for i, call := range calls {
		go func(idx int, tc chat.ToolCall) {
			defer wg.Done()
			results[idx] = e.executeOne(ctx, tc)
		}(i, call)
	}
	wg.Wait()

	return results
}

func (e *Executor) executeOne(ctx context.Context, tc chat.ToolCall) chat.ToolResult {
	if err := e.acquire(ctx); err != nil {
		return failedResult(tc, err)
	}
	defer e.release()

	// A batch cancelled mid-flight must not start the remaining tools.
	if err := ctx.Err(); err != nil {
		return failedResult(tc, err)
	}

	tool, err := e.registry.Get(tc.Name)
	if err != nil {
		metricskey.StatsToolCallsNotFound.IncrCounter(1, tc.Name)
		if e.callback != nil {
			e.callback.OnToolNotFound(ctx, tc.Name)
		}
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "tool_not_found",
			"tool", tc.Name,
		)
		return failedResult(tc, err)
	}

	if e.callback != nil {
		e.callback.OnToolStart(ctx, tool, tc.Arguments)
	}

	started := time.Now()
	res, err := tool.Call(ctx, tc.Arguments)
	metricskey.PerfToolCall.MeasureSince(started, tc.Name)

	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, tools.ErrInvalidArguments) {
			err = errors.WithMessagef(ctx.Err(), "tool %s", tc.Name)
		}
		metricskey.StatsToolCallsFailed.IncrCounter(1, tc.Name)
		if e.callback != nil {
			e.callback.OnToolError(ctx, tool, tc.Arguments, err)
		}
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "tool_call_failed",
			"tool", tc.Name,
			"err", err.Error(),
		)
		return failedResult(tc, err)
	}

	metricskey.StatsToolCallsSucceeded.IncrCounter(1, tc.Name)
	if e.callback != nil {
		e.callback.OnToolEnd(ctx, tool, tc.Arguments, res)
	}
	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "tool_call_succeeded",
		"tool", tc.Name,
		"tool_call_id", tc.ID,
		"output", slices.StringUpto(res, 64),
	)

	return chat.ToolResult{
		ID:      tc.ID,
		Name:    tc.Name,
		Content: res,
	}
}

func (e *Executor) acquire(ctx context.Context) error {
	if e.sem == nil {
		return nil
	}
	select {
	case e.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Executor) release() {
	if e.sem != nil {
		<-e.sem
	}
}

// failedResult recovers a per-call failure into a result the model can act on.
func failedResult(tc chat.ToolCall, err error) chat.ToolResult {
	return chat.ToolResult{
		ID:      tc.ID,
		Name:    tc.Name,
		Content: fmt.Sprintf("Tool call failed: %s", err.Error()),
		IsError: true,
		Err:     err,
	}
}

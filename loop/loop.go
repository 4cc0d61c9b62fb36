package loop

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
	"github.com/ostraca-ai/agentloop/executor"
	"github.com/ostraca-ai/agentloop/pkg/chat"
	"github.com/ostraca-ai/agentloop/pkg/metricskey"
	"github.com/ostraca-ai/agentloop/tools"
)

var logger = xlog.NewPackageLogger("github.com/ostraca-ai/agentloop", "loop")

// Request is the input of one loop invocation.
type Request struct {
	// Input is the user message that starts the invocation.
	Input string
	// SystemMessages is the fixed, invocation-scoped system prefix.
	SystemMessages []chat.Message
	// Messages holds prior conversation turns, appended after the
	// system prefix and before the input.
	Messages []chat.Message
	// Options are per-invocation configuration overrides.
	Options []Option
}

// Result is the outcome of a successful loop invocation.
type Result struct {
	// RunID uniquely identifies the invocation.
	RunID string
	// Final is the terminal assistant message.
	Final chat.Message
	// Content is the text of the final assistant message.
	Content string
	// Messages is the full appended conversation, system prefix included.
	Messages []chat.Message
	// Rounds is the number of tool rounds executed.
	Rounds int
}

// Loop alternates between querying the model and executing requested
// tool calls until the model produces a final answer. The conversation
// is exclusively owned by the loop for the duration of one invocation;
// a Loop may serve concurrent invocations over the shared read-only
// registry.
type Loop struct {
	model    chat.Model
	registry *tools.Registry
	cfg      *Config

	name        string
	description string
}

var _ ILoop = (*Loop)(nil)

// New creates a Loop over the given model and tool registry.
func New(model chat.Model, registry *tools.Registry, opts ...Option) *Loop {
	return &Loop{
		model:       model,
		registry:    registry,
		cfg:         NewConfig(opts...),
		name:        "Generic Agent",
		description: "An AI agent that can invoke tools to answer questions.",
	}
}

// WithName sets the name of the loop, used in logs and metrics.
func (l *Loop) WithName(name string) *Loop {
	l.name = name
	return l
}

// WithDescription sets the description of the loop.
func (l *Loop) WithDescription(description string) *Loop {
	l.description = description
	return l
}

// Name returns the name of the loop.
func (l *Loop) Name() string {
	return l.name
}

// Description returns the description of the loop.
func (l *Loop) Description() string {
	return l.description
}

// Tools returns the tools published to the model.
func (l *Loop) Tools() []tools.ITool {
	return l.registry.Tools()
}

// Run executes one invocation: it appends the system prefix and input to
// a fresh conversation and drives it to a final assistant answer. On
// failure the partial conversation is handed to OnLoopError and
// discarded; the loop never retries internally.
func (l *Loop) Run(ctx context.Context, req *Request) (*Result, error) {
	started := time.Now()
	defer metricskey.PerfLoopRun.MeasureSince(started, l.name)

	cfg := l.cfg.Apply(req.Options...)

	callback := cfg.CallbackHandler
	if callback != nil {
		callback.OnLoopStart(ctx, l, req.Input)
	}

	result, messages, err := l.run(ctx, cfg, req)
	if err != nil {
		metricskey.StatsLoopRunsFailed.IncrCounter(1, l.name)
		if callback != nil {
			callback.OnLoopError(ctx, l, req.Input, err, messages)
		}
		return nil, err
	}
	metricskey.StatsLoopRunsSucceeded.IncrCounter(1, l.name)
	if callback != nil {
		callback.OnLoopEnd(ctx, l, req.Input, result)
	}
	return result, nil
}

// run drives the model/tool cycle. It returns the partial conversation
// alongside any error so callbacks can observe where the run stopped.
func (l *Loop) run(ctx context.Context, cfg *Config, req *Request) (*Result, []chat.Message, error) {
	runID := chat.NewRunID()
	defs := l.registry.Definitions()

	var execOpts []executor.Option
	if cfg.CallbackHandler != nil {
		execOpts = append(execOpts, executor.WithCallback(cfg.CallbackHandler))
	}
	if cfg.MaxConcurrency > 0 {
		execOpts = append(execOpts, executor.WithMaxConcurrency(cfg.MaxConcurrency))
	}
	exec := executor.New(l.registry, execOpts...)

	conversation := make([]chat.Message, 0, len(req.SystemMessages)+len(req.Messages)+2)
	conversation = append(conversation, req.SystemMessages...)
	conversation = append(conversation, req.Messages...)

	// runStart marks the first message appended by this run; everything
	// from here on is persisted to the store on success.
	runStart := len(conversation)
	if req.Input != "" {
		conversation = append(conversation, chat.NewUserMessage(req.Input))
	}

	var rounds int
	var consecutiveNotFound int
	for {
		if err := ctx.Err(); err != nil {
			return nil, conversation, errors.WithMessage(err, "loop cancelled")
		}
		if len(conversation) >= cfg.MaxMessages {
			return nil, conversation, errors.Mark(
				errors.Newf("loop %s: %d messages", l.name, len(conversation)), ErrMessageLimitExceeded)
		}
		bytesSent := chat.CountContentSize(conversation)
		if bytesSent > cfg.MaxContentSize {
			return nil, conversation, errors.Mark(
				errors.Newf("loop %s: %d bytes", l.name, bytesSent), ErrContentSizeExceeded)
		}

		if cfg.CallbackHandler != nil {
			cfg.CallbackHandler.OnModelCallStart(ctx, l, l.model, conversation)
		}
		metricskey.StatsModelMessagesSent.IncrCounter(float64(len(conversation)), l.name, l.model.GetName())
		metricskey.StatsModelBytesSent.IncrCounter(float64(bytesSent), l.name, l.model.GetName())

		started := time.Now()
		resp, err := l.model.GenerateContent(ctx, conversation, defs)
		metricskey.PerfModelCall.MeasureSince(started, l.name, l.model.GetName())
		if err != nil {
			metricskey.StatsModelCallsFailed.IncrCounter(1, l.name, l.model.GetName())
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, conversation, errors.WithMessage(ctxErr, "loop cancelled")
			}
			return nil, conversation, errors.Mark(
				errors.WithMessagef(err, "loop %s", l.name), ErrModelRequest)
		}
		if cfg.CallbackHandler != nil {
			cfg.CallbackHandler.OnModelCallEnd(ctx, l, l.model, resp)
		}

		if resp == nil || len(resp.Choices) == 0 {
			metricskey.StatsModelCallsFailed.IncrCounter(1, l.name, l.model.GetName())
			return nil, conversation, errors.Mark(
				errors.Newf("loop %s: model returned no choices", l.name), ErrModelRequest)
		}

		choice := resp.Choices[0]
		calls := normalizeToolCalls(choice.ToolCalls)
		if len(calls) == 0 {
			final := chat.NewAssistantMessage(choice.Content)
			conversation = append(conversation, final)

			logger.ContextKV(ctx, xlog.DEBUG,
				"loop", l.name,
				"run_id", runID,
				"status", "done",
				"rounds", rounds,
				"answer", slices.StringUpto(choice.Content, 64),
			)

			l.persist(ctx, cfg, runID, conversation[runStart:])
			return &Result{
				RunID:    runID,
				Final:    final,
				Content:  choice.Content,
				Messages: conversation,
				Rounds:   rounds,
			}, conversation, nil
		}

		if cfg.MaxToolRounds > 0 && rounds >= cfg.MaxToolRounds {
			return nil, conversation, errors.Mark(
				errors.Newf("loop %s: %d tool rounds", l.name, rounds), ErrRoundLimitExceeded)
		}
		rounds++

		conversation = append(conversation, chat.NewToolCallMessage(calls...))

		logger.ContextKV(ctx, xlog.DEBUG,
			"loop", l.name,
			"run_id", runID,
			"status", "tool_batch_dispatched",
			"round", rounds,
			"calls", len(calls),
		)

		if cfg.CallbackHandler != nil {
			cfg.CallbackHandler.OnToolBatchStart(ctx, l, calls)
		}
		results := exec.Execute(ctx, calls)
		if cfg.CallbackHandler != nil {
			cfg.CallbackHandler.OnToolBatchEnd(ctx, l, results)
		}

		// One result per request, in request order; errors included, so
		// the model sees every request resolved on resubmission.
		var notFound int
		for _, res := range results {
			if errors.Is(res.Err, tools.ErrUnknownTool) {
				notFound++
			}
			conversation = append(conversation, chat.NewToolResultMessage(res))
		}

		if err := ctx.Err(); err != nil {
			return nil, conversation, errors.WithMessage(err, "loop cancelled")
		}

		if notFound > 0 {
			consecutiveNotFound += notFound
			if consecutiveNotFound > DefaultMaxConsecutiveUnknown {
				return nil, conversation, errors.Mark(
					errors.Newf("loop %s: %d consecutive unknown tool requests", l.name, consecutiveNotFound),
					ErrTooManyUnknownTools)
			}
		} else {
			consecutiveNotFound = 0
		}
	}
}

// persist stores the run's appended messages when a store is configured.
func (l *Loop) persist(ctx context.Context, cfg *Config, runID string, messages []chat.Message) {
	if cfg.Store == nil || cfg.SkipMessageHistory || len(messages) == 0 {
		return
	}
	convID := cfg.ConversationID
	if convID == "" {
		convID = runID
	}
	if err := cfg.Store.Add(ctx, convID, messages...); err != nil {
		logger.ContextKV(ctx, xlog.WARNING,
			"loop", l.name,
			"run_id", runID,
			"status", "failed_to_persist_messages",
			"err", err.Error(),
		)
	}
}

// normalizeToolCalls fills in missing request IDs. IDs are unique within
// the assistant turn.
func normalizeToolCalls(calls []chat.ToolCall) []chat.ToolCall {
	out := make([]chat.ToolCall, 0, len(calls))
	for i, tc := range calls {
		if tc.ID == "" {
			tc.ID = fmt.Sprintf("%s_%d", tc.Name, i)
		}
		out = append(out, tc)
	}
	return out
}

package loop_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ostraca-ai/agentloop/loop"
	"github.com/ostraca-ai/agentloop/pkg/chat"
	"github.com/ostraca-ai/agentloop/store"
	"github.com/ostraca-ai/agentloop/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedModel returns its scripted responses in order. When the script
// is exhausted, the last entry repeats.
type scriptedModel struct {
	mu        sync.Mutex
	responses []*chat.Response
	errs      []error
	calls     [][]chat.Message
	defs      []chat.ToolDefinition
}

func (m *scriptedModel) GetName() string { return "scripted" }

func (m *scriptedModel) GenerateContent(ctx context.Context, messages []chat.Message, defs []chat.ToolDefinition) (*chat.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make([]chat.Message, len(messages))
	copy(snapshot, messages)
	m.calls = append(m.calls, snapshot)
	m.defs = defs

	idx := len(m.calls) - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	if idx < len(m.errs) && m.errs[idx] != nil {
		return nil, m.errs[idx]
	}
	return m.responses[idx], nil
}

func toolCallResponse(calls ...chat.ToolCall) *chat.Response {
	return &chat.Response{Choices: []*chat.Choice{{ToolCalls: calls, StopReason: "tool_use"}}}
}

func textResponse(text string) *chat.Response {
	return &chat.Response{Choices: []*chat.Choice{{Content: text, StopReason: "stop"}}}
}

func newStockRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	priceTool, err := tools.NewFunc("get_stock_price", "Returns the closing price for a ticker on a date.",
		func(ctx context.Context, req *struct {
			Ticker string `json:"ticker"`
			Date   string `json:"date"`
		}) (*string, error) {
			price := "142.06"
			return &price, nil
		})
	require.NoError(t, err)
	return tools.NewRegistry(priceTool)
}

func Test_Loop_EndToEnd(t *testing.T) {
	model := &scriptedModel{
		responses: []*chat.Response{
			toolCallResponse(chat.ToolCall{ID: "1", Name: "get_stock_price", Arguments: `{"ticker": "AAPL", "date": "2021/01/01"}`}),
			textResponse("The price was $142.06"),
		},
	}

	l := loop.New(model, newStockRegistry(t)).WithName("StockAgent")

	res, err := l.Run(context.Background(), &loop.Request{
		Input:          "What did AAPL close at on Jan 1 2021?",
		SystemMessages: []chat.Message{chat.NewSystemMessage("You are a helpful financial assistant.")},
	})
	require.NoError(t, err)

	assert.Equal(t, "The price was $142.06", res.Content)
	assert.Equal(t, 1, res.Rounds)
	assert.NotEmpty(t, res.RunID)

	// system, user, assistant(tool-call), tool-result, assistant(final)
	require.Len(t, res.Messages, 5)
	assert.Equal(t, chat.RoleSystem, res.Messages[0].Role)
	assert.Equal(t, chat.RoleUser, res.Messages[1].Role)
	assert.Equal(t, chat.RoleAssistant, res.Messages[2].Role)
	require.Len(t, res.Messages[2].ToolCalls, 1)
	assert.Equal(t, chat.RoleTool, res.Messages[3].Role)
	require.NotNil(t, res.Messages[3].ToolResult)
	assert.Equal(t, "1", res.Messages[3].ToolResult.ID)
	assert.False(t, res.Messages[3].ToolResult.IsError)
	assert.Equal(t, "142.06", res.Messages[3].ToolResult.Content)
	assert.Equal(t, chat.RoleAssistant, res.Messages[4].Role)
	assert.Equal(t, "The price was $142.06", res.Messages[4].Content)

	// the second model call saw the resolved tool result
	require.Len(t, model.calls, 2)
	require.Len(t, model.calls[1], 4)
	assert.Equal(t, chat.RoleTool, model.calls[1][3].Role)

	// the published schema set reached the model
	require.Len(t, model.defs, 1)
	assert.Equal(t, "get_stock_price", model.defs[0].Name)
}

func Test_Loop_MixedBatch(t *testing.T) {
	model := &scriptedModel{
		responses: []*chat.Response{
			toolCallResponse(
				chat.ToolCall{ID: "1", Name: "get_stock_price", Arguments: `{"ticker": 42}`},
				chat.ToolCall{ID: "2", Name: "get_weather", Arguments: `{}`},
				chat.ToolCall{ID: "3", Name: "get_stock_price", Arguments: `{"ticker": "AAPL", "date": "2021/01/01"}`},
			),
			textResponse("done"),
		},
	}

	l := loop.New(model, newStockRegistry(t))

	res, err := l.Run(context.Background(), &loop.Request{Input: "mixed"})
	require.NoError(t, err)

	// one result per request, two errors and one success, and the loop
	// proceeded to requery the model
	require.Len(t, res.Messages, 6)
	first := res.Messages[2].ToolResult
	require.NotNil(t, first)
	assert.Equal(t, "1", first.ID)
	assert.True(t, first.IsError)
	second := res.Messages[3].ToolResult
	require.NotNil(t, second)
	assert.Equal(t, "2", second.ID)
	assert.True(t, second.IsError)
	third := res.Messages[4].ToolResult
	require.NotNil(t, third)
	assert.Equal(t, "3", third.ID)
	assert.False(t, third.IsError)

	assert.Equal(t, "done", res.Content)
	assert.Len(t, model.calls, 2)
}

func Test_Loop_RoundLimitExceeded(t *testing.T) {
	// a model that always requests another tool call
	model := &scriptedModel{
		responses: []*chat.Response{
			toolCallResponse(chat.ToolCall{ID: "1", Name: "get_stock_price", Arguments: `{"ticker": "AAPL", "date": "2021/01/01"}`}),
		},
	}

	l := loop.New(model, newStockRegistry(t), loop.WithMaxToolRounds(1))

	_, err := l.Run(context.Background(), &loop.Request{Input: "loop forever"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, loop.ErrRoundLimitExceeded))

	// exactly one tool round: the limit fired on the second tool request
	assert.Len(t, model.calls, 2)
}

func Test_Loop_ModelRequestFailed(t *testing.T) {
	model := &scriptedModel{
		responses: []*chat.Response{nil},
		errs:      []error{errors.New("upstream 500")},
	}

	l := loop.New(model, newStockRegistry(t))

	_, err := l.Run(context.Background(), &loop.Request{Input: "hello"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, loop.ErrModelRequest))
	assert.Contains(t, err.Error(), "upstream 500")
}

func Test_Loop_EmptyResponse(t *testing.T) {
	model := &scriptedModel{
		responses: []*chat.Response{{}},
	}

	l := loop.New(model, newStockRegistry(t))

	_, err := l.Run(context.Background(), &loop.Request{Input: "hello"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, loop.ErrModelRequest))
}

func Test_Loop_Cancellation(t *testing.T) {
	started := make(chan struct{})
	blocking, err := tools.NewFunc("block", "Blocks until cancelled.",
		func(ctx context.Context, req *struct{}) (*string, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		})
	require.NoError(t, err)

	model := &scriptedModel{
		responses: []*chat.Response{
			toolCallResponse(chat.ToolCall{ID: "1", Name: "block", Arguments: `{}`}),
		},
	}

	l := loop.New(model, tools.NewRegistry(blocking))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()
	defer cancel()

	_, err = l.Run(ctx, &loop.Request{Input: "block"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	// the model was not requeried with unresolved requests outstanding
	assert.Len(t, model.calls, 1)
}

func Test_Loop_TooManyUnknownTools(t *testing.T) {
	model := &scriptedModel{
		responses: []*chat.Response{
			toolCallResponse(chat.ToolCall{ID: "1", Name: "no_such_tool", Arguments: `{}`}),
		},
	}

	l := loop.New(model, newStockRegistry(t))

	_, err := l.Run(context.Background(), &loop.Request{Input: "hello"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, loop.ErrTooManyUnknownTools))
}

func Test_Loop_ContentSizeExceeded(t *testing.T) {
	model := &scriptedModel{
		responses: []*chat.Response{textResponse("unused")},
	}

	l := loop.New(model, newStockRegistry(t), loop.WithMaxContentSize(8))

	_, err := l.Run(context.Background(), &loop.Request{Input: "this input is longer than eight bytes"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, loop.ErrContentSizeExceeded))
	assert.Empty(t, model.calls)
}

func Test_Loop_MessageLimitExceeded(t *testing.T) {
	model := &scriptedModel{
		responses: []*chat.Response{
			toolCallResponse(chat.ToolCall{ID: "1", Name: "get_stock_price", Arguments: `{"ticker": "AAPL", "date": "2021/01/01"}`}),
		},
	}

	l := loop.New(model, newStockRegistry(t), loop.WithMaxMessages(4))

	_, err := l.Run(context.Background(), &loop.Request{Input: "hello"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, loop.ErrMessageLimitExceeded))
}

func Test_Loop_PersistsTranscript(t *testing.T) {
	model := &scriptedModel{
		responses: []*chat.Response{
			toolCallResponse(chat.ToolCall{ID: "1", Name: "get_stock_price", Arguments: `{"ticker": "AAPL", "date": "2021/01/01"}`}),
			textResponse("The price was $142.06"),
		},
	}

	st := store.NewMemoryStore()
	l := loop.New(model, newStockRegistry(t),
		loop.WithStore(st),
		loop.WithConversationID("conv1"),
	)

	_, err := l.Run(context.Background(), &loop.Request{
		Input:          "price?",
		SystemMessages: []chat.Message{chat.NewSystemMessage("sys")},
	})
	require.NoError(t, err)

	// the system prefix is not persisted, the run's messages are
	stored, err := st.Messages(context.Background(), "conv1")
	require.NoError(t, err)
	require.Len(t, stored, 4)
	assert.Equal(t, chat.RoleUser, stored[0].Role)
	assert.Equal(t, chat.RoleAssistant, stored[1].Role)
	assert.Equal(t, chat.RoleTool, stored[2].Role)
	assert.Equal(t, chat.RoleAssistant, stored[3].Role)
}

func Test_Loop_ResultOrderWithSlowTool(t *testing.T) {
	release := make(chan struct{})
	slow, err := tools.NewFunc("slow", "Waits before answering.",
		func(ctx context.Context, req *struct{}) (*string, error) {
			select {
			case <-release:
			case <-time.After(time.Second):
			}
			out := "slow"
			return &out, nil
		})
	require.NoError(t, err)
	fast, err := tools.NewFunc("fast", "Answers immediately.",
		func(ctx context.Context, req *struct{}) (*string, error) {
			defer close(release)
			out := "fast"
			return &out, nil
		})
	require.NoError(t, err)

	model := &scriptedModel{
		responses: []*chat.Response{
			toolCallResponse(
				chat.ToolCall{ID: "1", Name: "slow", Arguments: `{}`},
				chat.ToolCall{ID: "2", Name: "fast", Arguments: `{}`},
			),
			textResponse("done"),
		},
	}

	l := loop.New(model, tools.NewRegistry(slow, fast))

	res, err := l.Run(context.Background(), &loop.Request{Input: "race"})
	require.NoError(t, err)

	// tool results appear in request order even though the first
	// request finished last
	require.Len(t, res.Messages, 5)
	assert.Equal(t, "1", res.Messages[2].ToolResult.ID)
	assert.Equal(t, "slow", res.Messages[2].ToolResult.Content)
	assert.Equal(t, "2", res.Messages[3].ToolResult.ID)
	assert.Equal(t, "fast", res.Messages[3].ToolResult.Content)
}

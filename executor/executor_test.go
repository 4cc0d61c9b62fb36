package executor_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ostraca-ai/agentloop/executor"
	"github.com/ostraca-ai/agentloop/pkg/chat"
	"github.com/ostraca-ai/agentloop/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// testTool is a hand-rolled ITool for controlling execution behavior.
type testTool struct {
	name string
	fn   func(ctx context.Context, input string) (string, error)
}

func (t *testTool) Name() string        { return t.name }
func (t *testTool) Description() string { return "test tool " + t.name }
func (t *testTool) Parameters() any {
	return map[string]any{"type": "object"}
}
func (t *testTool) Call(ctx context.Context, input string) (string, error) {
	return t.fn(ctx, input)
}

func Test_Execute_ResultOrder(t *testing.T) {
	// the first-issued call finishes last; output order must still
	// match request order
	release := make(chan struct{})
	slow := &testTool{name: "slow", fn: func(ctx context.Context, input string) (string, error) {
		<-release
		return "slow done", nil
	}}
	fast := &testTool{name: "fast", fn: func(ctx context.Context, input string) (string, error) {
		defer close(release)
		return "fast done", nil
	}}

	exec := executor.New(tools.NewRegistry(slow, fast))

	calls := []chat.ToolCall{
		{ID: "1", Name: "slow", Arguments: `{}`},
		{ID: "2", Name: "fast", Arguments: `{}`},
	}
	results := exec.Execute(context.Background(), calls)

	require.Len(t, results, 2)
	assert.Equal(t, "1", results[0].ID)
	assert.Equal(t, "slow done", results[0].Content)
	assert.Equal(t, "2", results[1].ID)
	assert.Equal(t, "fast done", results[1].Content)
}

func Test_Execute_PartialFailureIsolation(t *testing.T) {
	priceTool, err := tools.NewFunc("get_stock_price", "Returns the closing price for a ticker.",
		func(ctx context.Context, req *struct {
			Ticker string `json:"ticker"`
		}) (*string, error) {
			price := req.Ticker + ": $142.06"
			return &price, nil
		})
	require.NoError(t, err)

	exec := executor.New(tools.NewRegistry(priceTool))

	calls := []chat.ToolCall{
		{ID: "1", Name: "get_stock_price", Arguments: `{"ticker": 42}`},
		{ID: "2", Name: "get_weather", Arguments: `{}`},
		{ID: "3", Name: "get_stock_price", Arguments: `{"ticker": "AAPL"}`},
	}
	results := exec.Execute(context.Background(), calls)
	require.Len(t, results, 3)

	assert.Equal(t, "1", results[0].ID)
	assert.True(t, results[0].IsError)
	assert.True(t, errors.Is(results[0].Err, tools.ErrInvalidArguments))
	assert.Contains(t, results[0].Content, "Tool call failed")

	assert.Equal(t, "2", results[1].ID)
	assert.True(t, results[1].IsError)
	assert.True(t, errors.Is(results[1].Err, tools.ErrUnknownTool))

	assert.Equal(t, "3", results[2].ID)
	assert.False(t, results[2].IsError)
	assert.Equal(t, "AAPL: $142.06", results[2].Content)
}

func Test_Execute_Cancellation(t *testing.T) {
	started := make(chan struct{})
	var once sync.Once
	blocking := &testTool{name: "blocking", fn: func(ctx context.Context, input string) (string, error) {
		once.Do(func() { close(started) })
		<-ctx.Done()
		return "", ctx.Err()
	}}
	quick := &testTool{name: "quick", fn: func(ctx context.Context, input string) (string, error) {
		return "ok", nil
	}}

	exec := executor.New(tools.NewRegistry(blocking, quick))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()
	defer cancel()

	calls := []chat.ToolCall{
		{ID: "1", Name: "quick", Arguments: `{}`},
		{ID: "2", Name: "blocking", Arguments: `{}`},
	}
	results := exec.Execute(ctx, calls)
	require.Len(t, results, 2)

	// the cancelled call reports the cancellation; the batch stays complete
	assert.Equal(t, "2", results[1].ID)
	assert.True(t, results[1].IsError)
	assert.True(t, errors.Is(results[1].Err, context.Canceled))
}

func Test_Execute_MaxConcurrency(t *testing.T) {
	var mu sync.Mutex
	var running, peak int
	counted := &testTool{name: "counted", fn: func(ctx context.Context, input string) (string, error) {
		mu.Lock()
		running++
		if running > peak {
			peak = running
		}
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		running--
		mu.Unlock()
		return "ok", nil
	}}

	exec := executor.New(tools.NewRegistry(counted), executor.WithMaxConcurrency(2))

	calls := make([]chat.ToolCall, 6)
	for i := range calls {
		calls[i] = chat.ToolCall{ID: string(rune('a' + i)), Name: "counted", Arguments: `{}`}
	}
	results := exec.Execute(context.Background(), calls)
	require.Len(t, results, 6)
	for _, res := range results {
		assert.False(t, res.IsError)
	}
	assert.LessOrEqual(t, peak, 2)
}

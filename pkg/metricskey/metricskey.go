package metricskey

import "github.com/effective-security/metrics"

// Stats
var (
	StatsModelMessagesSent = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_model_messages_sent",
		Help:         "stats_model_messages_sent provides total messages sent to the model",
		RequiredTags: []string{"loop", "model"},
	}

	StatsModelBytesSent = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_model_bytes_sent",
		Help:         "stats_model_bytes_sent provides total content bytes sent to the model",
		RequiredTags: []string{"loop", "model"},
	}

	StatsModelCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_model_calls_failed",
		Help:         "stats_model_calls_failed provides total failed model calls",
		RequiredTags: []string{"loop", "model"},
	}

	StatsLoopRunsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_loop_runs_succeeded",
		Help:         "stats_loop_runs_succeeded provides total loop invocations that produced a final answer",
		RequiredTags: []string{"loop"},
	}

	StatsLoopRunsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_loop_runs_failed",
		Help:         "stats_loop_runs_failed provides total failed loop invocations",
		RequiredTags: []string{"loop"},
	}

	StatsToolCallsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_succeeded",
		Help:         "stats_tool_calls_succeeded provides total tool calls succeeded",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_failed",
		Help:         "stats_tool_calls_failed provides total tool calls failed",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsNotFound = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_not_found",
		Help:         "stats_tool_calls_not_found provides total tool calls to unregistered tools",
		RequiredTags: []string{"tool"},
	}
)

// Perf
var (
	PerfLoopRun = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_loop_run",
		Help:         "perf_loop_run provides duration of a loop invocation",
		RequiredTags: []string{"loop"},
	}

	PerfModelCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_model_call",
		Help:         "perf_model_call provides duration of a model call",
		RequiredTags: []string{"loop", "model"},
	}

	PerfToolCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_tool_call",
		Help:         "perf_tool_call provides duration of a tool call",
		RequiredTags: []string{"tool"},
	}
)

// Metrics returns slice of metrics from this repo
// keep sorted by name
var Metrics = []*metrics.Describe{
	&PerfLoopRun,
	&PerfModelCall,
	&PerfToolCall,
	&StatsLoopRunsFailed,
	&StatsLoopRunsSucceeded,
	&StatsModelBytesSent,
	&StatsModelCallsFailed,
	&StatsModelMessagesSent,
	&StatsToolCallsFailed,
	&StatsToolCallsNotFound,
	&StatsToolCallsSucceeded,
}

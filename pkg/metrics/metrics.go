package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// DefaultRegistry holds every collector the agent exports.
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		TurnTotal, TurnDuration,
		ToolDispatchTotal, ToolDuration,
		LLMCallTotal, LLMRetryTotal, LLMTokensTotal,
		IgnoredToolCallsTotal, HTTPRequestTotal,
	)
}

// TurnTotal counts finished turns by the path they took.
var TurnTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "portfolio_agent_turn_total",
		Help: "Finished turns by path.",
	},
	[]string{"path"}, // shortcut | direct | clarification | tool | error
)

var TurnDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "portfolio_agent_turn_duration_seconds",
		Help:    "Turn latency in seconds.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"path"},
)

var ToolDispatchTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "portfolio_agent_tool_dispatch_total",
		Help: "Tool dispatches by outcome.",
	},
	[]string{"tool", "outcome"}, // ok | missing_args | error
)

var ToolDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "portfolio_agent_tool_duration_seconds",
		Help:    "Tool run time in seconds.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"tool"},
)

var LLMCallTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "portfolio_agent_llm_call_total",
		Help: "Model calls by mode and status.",
	},
	[]string{"mode", "status"}, // decide | answer ; ok | error
)

var LLMRetryTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "portfolio_agent_llm_retry_total",
		Help: "Model call attempts that were retried.",
	},
)

var LLMTokensTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "portfolio_agent_llm_tokens_total",
		Help: "Tokens reported by the model provider.",
	},
	[]string{"direction"}, // input | output
)

var IgnoredToolCallsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "portfolio_agent_ignored_tool_calls_total",
		Help: "Extra tool calls dropped because only one runs per turn.",
	},
)

var HTTPRequestTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "portfolio_agent_http_request_total",
		Help: "HTTP requests by route and status code.",
	},
	[]string{"route", "code"},
)

// WritePrometheus writes every metric in the text exposition format.
func WritePrometheus(w io.Writer) error {
	families, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

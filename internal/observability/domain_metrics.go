package observability

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Route labels for HTTP metrics. Tool names in the REST path are folded into
// one label so unknown names cannot grow the series count.
const (
	routeMCP   = "/mcp"
	routeTool  = "/v1/tools/{name}"
	routeOther = "other"
)

var knownRoutes = map[string]bool{
	"/v1/health":  true,
	"/v1/ready":   true,
	"/v1/metrics": true,
	"/v1/tools":   true,
}

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eurostat_mcp_http_requests_total",
			Help: "Total number of HTTP requests by route and status.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eurostat_mcp_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds. MCP streams count until the stream closes.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "route"},
	)
	toolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eurostat_mcp_tool_calls_total",
			Help: "Total number of MCP tool calls by tool and outcome.",
		},
		[]string{"tool", "outcome"},
	)
	toolCallDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eurostat_mcp_tool_call_duration_seconds",
			Help:    "MCP tool call latency in seconds.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"tool"},
	)
	llmRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eurostat_mcp_llm_requests_total",
			Help: "Total number of text-generation requests by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)
	llmRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eurostat_mcp_llm_request_duration_seconds",
			Help:    "Text-generation request latency in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"provider"},
	)
	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eurostat_mcp_queries_total",
			Help: "Total number of DuckDB queries by outcome.",
		},
		[]string{"outcome"},
	)
	queryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eurostat_mcp_query_duration_seconds",
			Help:    "DuckDB query latency in seconds, including remote Eurostat reads.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		toolCallsTotal,
		toolCallDurationSeconds,
		llmRequestsTotal,
		llmRequestDurationSeconds,
		queriesTotal,
		queryDurationSeconds,
	)
}

func ObserveHTTPRequest(method, path string, status int, elapsed time.Duration) {
	route := RouteLabel(path)
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RouteLabel maps a request path onto the fixed set of route labels.
func RouteLabel(path string) string {
	switch {
	case knownRoutes[path]:
		return path
	case path == routeMCP || strings.HasPrefix(path, routeMCP+"/"):
		return routeMCP
	case strings.HasPrefix(path, "/v1/tools/") && !strings.Contains(strings.TrimPrefix(path, "/v1/tools/"), "/"):
		return routeTool
	default:
		return routeOther
	}
}

func ObserveToolCall(tool, outcome string, elapsed time.Duration) {
	toolCallsTotal.WithLabelValues(tool, outcome).Inc()
	toolCallDurationSeconds.WithLabelValues(tool).Observe(elapsed.Seconds())
}

func ObserveLLMRequest(provider, outcome string, elapsed time.Duration) {
	llmRequestsTotal.WithLabelValues(provider, outcome).Inc()
	llmRequestDurationSeconds.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func ObserveQuery(outcome string, elapsed time.Duration) {
	queriesTotal.WithLabelValues(outcome).Inc()
	queryDurationSeconds.Observe(elapsed.Seconds())
}

// Outcome maps an error to the outcome label value.
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}

package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/duckmesh/eurostat-mcp/internal/config"
)

func TestTraceMiddlewarePreservesIncomingTraceID(t *testing.T) {
	h := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := TraceIDFromContext(r.Context()); got != "trace-1" {
			t.Fatalf("TraceIDFromContext() = %q", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	req.Header.Set(traceHeader, "trace-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get(traceHeader); got != "trace-1" {
		t.Fatalf("trace header = %q", got)
	}
}

func TestTraceMiddlewareGeneratesTraceID(t *testing.T) {
	h := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if TraceIDFromContext(r.Context()) == "" {
			t.Fatal("expected generated trace id")
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/mcp", nil))

	if rr.Header().Get(traceHeader) == "" {
		t.Fatal("expected X-Trace-ID header")
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := ContextWithTraceID(context.Background(), "abc123")
	ctx = ContextWithCallID(ctx, "call-7")
	if got := TraceIDFromContext(ctx); got != "abc123" {
		t.Fatalf("TraceIDFromContext() = %q", got)
	}
	if got := CallIDFromContext(ctx); got != "call-7" {
		t.Fatalf("CallIDFromContext() = %q", got)
	}
	if got := CallIDFromContext(context.Background()); got != "" {
		t.Fatalf("CallIDFromContext(empty) = %q", got)
	}
}

func TestLoggingMiddlewareDoesNotPanic(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	h := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
}

func TestRecorderForwardsFlush(t *testing.T) {
	rr := httptest.NewRecorder()
	h := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("wrapped writer does not implement http.Flusher")
		}
		_, _ = w.Write([]byte("data: {}\n\n"))
		flusher.Flush()
	}))
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/mcp", nil))
	if !rr.Flushed {
		t.Fatal("expected underlying recorder to be flushed")
	}
}

func TestOutcome(t *testing.T) {
	if got := Outcome(nil); got != OutcomeOK {
		t.Fatalf("Outcome(nil) = %q", got)
	}
	if got := Outcome(io.EOF); got != OutcomeError {
		t.Fatalf("Outcome(err) = %q", got)
	}
}

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/v1/health", "/v1/health"},
		{"/v1/tools", "/v1/tools"},
		{"/v1/tools/query_eurostat", "/v1/tools/{name}"},
		{"/v1/tools/made-up-tool-42", "/v1/tools/{name}"},
		{"/v1/tools/a/b", "other"},
		{"/mcp", "/mcp"},
		{"/wp-admin.php", "other"},
	}
	for _, tt := range tests {
		if got := RouteLabel(tt.path); got != tt.want {
			t.Fatalf("RouteLabel(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestMetricsMiddlewareFoldsToolNamesIntoOneRoute(t *testing.T) {
	h := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	for _, name := range []string{"nope-1", "nope-2", "nope-3"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/tools/"+name, nil))
	}

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, family := range families {
		if family.GetName() != "eurostat_mcp_http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := make(map[string]string)
			for _, label := range metric.GetLabel() {
				labels[label.GetName()] = label.GetValue()
			}
			if strings.HasPrefix(labels["route"], "/v1/tools/nope") {
				t.Fatalf("route label = %q, want tool names folded", labels["route"])
			}
			if labels["route"] == "/v1/tools/{name}" && labels["status"] == "404" {
				if got := metric.GetCounter().GetValue(); got < 3 {
					t.Fatalf("requests for /v1/tools/{name} = %v, want >= 3", got)
				}
				return
			}
		}
	}
	t.Fatal("no eurostat_mcp_http_requests_total series for /v1/tools/{name}")
}

func TestLoggerFromContextAddsTraceAndCallIDs(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := ContextWithCallID(ContextWithTraceID(context.Background(), "trace-9"), "call-3")
	LoggerFromContext(ctx, base).Info("query executed")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode log record: %v", err)
	}
	if record["trace_id"] != "trace-9" || record["call_id"] != "call-3" {
		t.Fatalf("log record = %v, want trace_id and call_id", record)
	}

	buf.Reset()
	LoggerFromContext(context.Background(), base).Info("plain")
	if strings.Contains(buf.String(), "call_id") {
		t.Fatalf("log record = %s, want no call_id", buf.String())
	}
}

func TestNewLoggerCarriesServiceIdentity(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Config{Profile: config.ProfileDev}
	cfg.Service.Name = "eurostat-mcp"
	cfg.Service.Version = "1.2.3"
	cfg.Transport.Mode = config.TransportHTTP
	cfg.Observability.LogJSON = true

	NewLogger(cfg, &buf).Info("started")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode log record: %v", err)
	}
	for key, want := range map[string]string{"service": "eurostat-mcp", "version": "1.2.3", "transport": "http"} {
		if record[key] != want {
			t.Fatalf("record[%q] = %v, want %q", key, record[key], want)
		}
	}
}

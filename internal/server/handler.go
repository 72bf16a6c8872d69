package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/duckmesh/eurostat-mcp/internal/config"
	"github.com/duckmesh/eurostat-mcp/internal/observability"
)

type ReadinessCheck func(ctx context.Context) error

type Dependencies struct {
	Logger    *slog.Logger
	Readiness ReadinessCheck
	// MCP is mounted on /mcp when set.
	MCP   http.Handler
	Tools ToolDispatcher
}

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"service": cfg.Service.Name,
			"version": cfg.Service.Version,
		})
	})

	mux.HandleFunc("GET /v1/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Readiness == nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
			return
		}
		timeout := cfg.Transport.ReadyTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := deps.Readiness(ctx); err != nil {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NOT_READY", err.Error(), true, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	mux.Handle("GET /v1/metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/tools", func(w http.ResponseWriter, r *http.Request) {
		if deps.Tools == nil {
			writeError(r.Context(), w, http.StatusNotImplemented, "TOOLS_NOT_CONFIGURED", "tool dispatcher is not configured", false, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tools": deps.Tools.Definitions()})
	})

	mux.HandleFunc("POST /v1/tools/{name}", func(w http.ResponseWriter, r *http.Request) {
		handleCallTool(deps, w, r)
	})

	if deps.MCP != nil {
		mux.Handle("/mcp", deps.MCP)
	}

	middlewares := []func(http.Handler) http.Handler{
		observability.TraceMiddleware,
		observability.MetricsMiddleware,
	}
	if deps.Logger != nil {
		middlewares = append(middlewares, observability.LoggingMiddleware(deps.Logger))
	}
	return chain(mux, middlewares...)
}

type callToolRequest struct {
	Arguments map[string]any `json:"arguments"`
}

func handleCallTool(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Tools == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "TOOLS_NOT_CONFIGURED", "tool dispatcher is not configured", false, nil)
		return
	}

	var request callToolRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil && !errors.Is(err, io.EOF) {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid tool call body", false, map[string]any{"details": err.Error()})
		return
	}

	response := deps.Tools.Dispatch(r.Context(), r.PathValue("name"), request.Arguments)
	writeJSON(w, http.StatusOK, map[string]any{
		"content":  []map[string]string{{"type": "text", "text": response.Text}},
		"isError":  response.IsError,
		"trace_id": observability.TraceIDFromContext(r.Context()),
	})
}

func chain(base http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string, retryable bool, extra map[string]any) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"retryable":  retryable,
		"context":    extra,
		"trace_id":   observability.TraceIDFromContext(ctx),
	})
}

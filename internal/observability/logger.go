package observability

import (
	"context"
	"io"
	"log"
	"log/slog"

	"github.com/duckmesh/eurostat-mcp/internal/config"
)

type ctxKey int

const (
	traceIDKey ctxKey = iota
	callIDKey
)

// NewLogger builds the process logger. Records carry the service identity
// and the transport mode so stdio and HTTP deployments can be told apart.
func NewLogger(cfg config.Config, writer io.Writer) *slog.Logger {
	if writer == nil {
		writer = io.Discard
	}
	opts := &slog.HandlerOptions{Level: cfg.Observability.LogLevel}

	var handler slog.Handler = slog.NewTextHandler(writer, opts)
	if cfg.Observability.LogJSON {
		handler = slog.NewJSONHandler(writer, opts)
	}

	attrs := []slog.Attr{
		slog.String("service", cfg.Service.Name),
		slog.String("profile", string(cfg.Profile)),
		slog.String("transport", string(cfg.Transport.Mode)),
	}
	if cfg.Service.Version != "" {
		attrs = append(attrs, slog.String("version", cfg.Service.Version))
	}
	return slog.New(handler.WithAttrs(attrs))
}

// LoggerFromContext returns logger annotated with the trace and tool call
// identifiers carried by ctx.
func LoggerFromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		logger = logger.With("trace_id", traceID)
	}
	if callID := CallIDFromContext(ctx); callID != "" {
		logger = logger.With("call_id", callID)
	}
	return logger
}

// StdLogger adapts logger for libraries that only accept a *log.Logger.
func StdLogger(logger *slog.Logger, level slog.Level) *log.Logger {
	if logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return slog.NewLogLogger(logger.Handler(), level)
}

func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

func TraceIDFromContext(ctx context.Context) string {
	traceID, _ := ctx.Value(traceIDKey).(string)
	return traceID
}

// ContextWithCallID tags ctx with the identifier of one tool invocation.
func ContextWithCallID(ctx context.Context, callID string) context.Context {
	return context.WithValue(ctx, callIDKey, callID)
}

func CallIDFromContext(ctx context.Context) string {
	callID, _ := ctx.Value(callIDKey).(string)
	return callID
}

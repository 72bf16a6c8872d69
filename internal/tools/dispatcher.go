// Package tools implements the fixed catalog of Eurostat tools and routes
// calls by name. Dispatch never returns a Go error: failures come back as a
// Response flagged IsError.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/duckmesh/eurostat-mcp/internal/nl2sql"
	"github.com/duckmesh/eurostat-mcp/internal/observability"
)

// Runner is the slice of eurostat.Runner the tools need.
type Runner interface {
	ExecuteQuery(ctx context.Context, sqlText string, limit int) (string, error)
	ListProviders(ctx context.Context) (string, error)
	ListDataflows(ctx context.Context, provider, search string, limit int) (string, error)
	DescribeDataflow(ctx context.Context, providerID, dataflowID string) (string, error)
}

type Definition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

type Response struct {
	Text    string `json:"text"`
	IsError bool   `json:"isError"`
}

type tool struct {
	definition Definition
	required   []string
	handle     func(ctx context.Context, args map[string]any) (string, error)
}

func newTool[Args any](name, description string, defaults Args, run func(context.Context, Args) (string, error)) (*tool, error) {
	schema, required, err := generateSchema[Args]()
	if err != nil {
		return nil, fmt.Errorf("generate schema for %s: %w", name, err)
	}
	return &tool{
		definition: Definition{Name: name, Description: description, InputSchema: schema},
		required:   required,
		handle: func(ctx context.Context, raw map[string]any) (string, error) {
			for _, field := range required {
				if value, ok := raw[field]; !ok || value == nil {
					return "", fmt.Errorf("missing required argument %q", field)
				}
			}
			args := defaults
			if err := decodeArguments(raw, &args); err != nil {
				return "", err
			}
			return run(ctx, args)
		},
	}, nil
}

type Dispatcher struct {
	translator nl2sql.Translator
	runner     Runner
	logger     *slog.Logger
	tools      []*tool
	byName     map[string]*tool
}

func NewDispatcher(translator nl2sql.Translator, runner Runner, logger *slog.Logger) (*Dispatcher, error) {
	if translator == nil {
		return nil, fmt.Errorf("translator is required")
	}
	if runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{translator: translator, runner: runner, logger: logger}
	tools, err := d.catalog()
	if err != nil {
		return nil, err
	}
	d.tools = tools
	d.byName = make(map[string]*tool, len(tools))
	for _, t := range tools {
		d.byName[t.definition.Name] = t
	}
	return d, nil
}

// Definitions returns the advertised tools in catalog order.
func (d *Dispatcher) Definitions() []Definition {
	out := make([]Definition, 0, len(d.tools))
	for _, t := range d.tools {
		out = append(out, t.definition)
	}
	return out
}

func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]any) (response Response) {
	callID := uuid.NewString()
	ctx = observability.ContextWithCallID(ctx, callID)
	logger := observability.LoggerFromContext(ctx, d.logger).With("tool", name)

	t, ok := d.byName[name]
	if !ok {
		logger.Warn("unknown tool requested")
		observability.ObserveToolCall("unknown", observability.OutcomeError, 0)
		return Response{Text: "Unknown tool: " + name, IsError: true}
	}

	start := time.Now()
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("tool panicked", "panic", recovered)
			response = Response{Text: fmt.Sprintf("Error: %v", recovered), IsError: true}
		}
		outcome := observability.OutcomeOK
		if response.IsError {
			outcome = observability.OutcomeError
		}
		observability.ObserveToolCall(name, outcome, time.Since(start))
	}()

	if args == nil {
		args = map[string]any{}
	}
	text, err := t.handle(ctx, args)
	if err != nil {
		logger.Error("tool call failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return Response{Text: "Error: " + err.Error(), IsError: true}
	}
	logger.Info("tool call completed", "duration_ms", time.Since(start).Milliseconds())
	return Response{Text: text}
}

// Package eurostat runs SQL against the DuckDB Eurostat extension and renders
// the results as text.
//
// The statement builders interpolate provider ids, dataflow ids and search
// terms directly into SQL. The extension's table functions are called without
// bind parameters, so callers must treat these inputs as trusted.
package eurostat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/duckmesh/eurostat-mcp/internal/observability"
	"github.com/duckmesh/eurostat-mcp/internal/query"
)

// NoResults is returned in place of a table when a query yields no rows.
const NoResults = "No results found."

// QueryError wraps an engine failure. The engine's message is kept verbatim.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query execution failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

type Runner struct {
	engine query.Engine
	logger *slog.Logger
}

func NewRunner(engine query.Engine, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{engine: engine, logger: logger}
}

// ExecuteQuery runs sqlText with an optional row limit and renders the result.
func (r *Runner) ExecuteQuery(ctx context.Context, sqlText string, limit int) (string, error) {
	result, err := r.run(ctx, sqlText, limit)
	if err != nil {
		return "", err
	}
	if result.Empty() {
		return NoResults, nil
	}
	return query.FormatTable(result), nil
}

func (r *Runner) ListProviders(ctx context.Context) (string, error) {
	return r.ExecuteQuery(ctx, listProvidersSQL, 0)
}

func (r *Runner) ListDataflows(ctx context.Context, provider, search string, limit int) (string, error) {
	return r.ExecuteQuery(ctx, listDataflowsSQL(provider, search, limit), 0)
}

func (r *Runner) DescribeDataflow(ctx context.Context, providerID, dataflowID string) (string, error) {
	return r.ExecuteQuery(ctx, describeDataflowSQL(providerID, dataflowID), 0)
}

type Dataflow struct {
	ProviderID string `json:"provider_id"`
	DataflowID string `json:"dataflow_id"`
	Label      string `json:"label"`
}

// SearchDataflows returns dataflows whose English label contains term.
func (r *Runner) SearchDataflows(ctx context.Context, term string, limit int) ([]Dataflow, error) {
	result, err := r.run(ctx, searchDataflowsSQL(term, limit), 0)
	if err != nil {
		return nil, err
	}
	dataflows := make([]Dataflow, 0, len(result.Rows))
	for _, row := range result.Rows {
		dataflows = append(dataflows, Dataflow{
			ProviderID: stringAt(row, 0),
			DataflowID: stringAt(row, 1),
			Label:      stringAt(row, 2),
		})
	}
	return dataflows, nil
}

// Structure lists a dataflow's dimensions and their concepts in position order.
type Structure struct {
	Dimensions []string `json:"dimensions"`
	Concepts   []string `json:"concepts"`
}

func (r *Runner) DataStructure(ctx context.Context, providerID, dataflowID string) (Structure, error) {
	result, err := r.run(ctx, dataStructureSQL(providerID, dataflowID), 0)
	if err != nil {
		return Structure{}, err
	}
	structure := Structure{
		Dimensions: make([]string, 0, len(result.Rows)),
		Concepts:   make([]string, 0, len(result.Rows)),
	}
	for _, row := range result.Rows {
		structure.Dimensions = append(structure.Dimensions, stringAt(row, 0))
		structure.Concepts = append(structure.Concepts, stringAt(row, 1))
	}
	return structure, nil
}

func (r *Runner) Close() error {
	return r.engine.Close()
}

func (r *Runner) run(ctx context.Context, sqlText string, limit int) (query.Result, error) {
	start := time.Now()
	result, err := r.engine.Execute(ctx, query.Request{SQL: sqlText, RowLimit: limit})
	elapsed := time.Since(start)
	observability.ObserveQuery(observability.Outcome(err), elapsed)
	logger := observability.LoggerFromContext(ctx, r.logger)
	if err != nil {
		logger.Error("query execution failed", "sql", sqlText, "error", err)
		return query.Result{}, &QueryError{Err: err}
	}
	logger.Debug("query executed", "rows", len(result.Rows), "duration_ms", elapsed.Milliseconds())
	return result, nil
}

func stringAt(row []any, index int) string {
	if index >= len(row) || row[index] == nil {
		return ""
	}
	if text, ok := row[index].(string); ok {
		return text
	}
	return fmt.Sprint(row[index])
}

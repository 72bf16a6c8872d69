package eurostat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/duckmesh/eurostat-mcp/internal/observability"
	"github.com/duckmesh/eurostat-mcp/internal/query"
	"github.com/duckmesh/eurostat-mcp/internal/query/duckdb"
)

type fakeEngine struct {
	result   query.Result
	err      error
	requests []query.Request
	closed   int
}

func (f *fakeEngine) Execute(_ context.Context, request query.Request) (query.Result, error) {
	f.requests = append(f.requests, request)
	return f.result, f.err
}

func (f *fakeEngine) Close() error {
	f.closed++
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExecuteQueryReturnsSentinelForEmptyResult(t *testing.T) {
	engine := &fakeEngine{result: query.Result{Columns: []string{"a"}}}
	runner := NewRunner(engine, discardLogger())

	got, err := runner.ExecuteQuery(context.Background(), "SELECT 1 WHERE false", 100)
	if err != nil {
		t.Fatalf("ExecuteQuery() error = %v", err)
	}
	if got != NoResults {
		t.Fatalf("ExecuteQuery() = %q, want %q", got, NoResults)
	}
	if engine.requests[0].RowLimit != 100 {
		t.Fatalf("RowLimit = %d", engine.requests[0].RowLimit)
	}
}

func TestExecuteQueryFormatsTableWithHeader(t *testing.T) {
	engine := &fakeEngine{result: query.Result{
		Columns: []string{"geo", "obs_value"},
		Rows:    [][]any{{"DE", 83.1}},
	}}
	runner := NewRunner(engine, discardLogger())

	got, err := runner.ExecuteQuery(context.Background(), "SELECT geo, obs_value FROM t", 10)
	if err != nil {
		t.Fatalf("ExecuteQuery() error = %v", err)
	}
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d in %q", len(lines), got)
	}
	if !strings.Contains(lines[0], "geo") || !strings.Contains(lines[0], "obs_value") {
		t.Fatalf("header = %q", lines[0])
	}
	if !strings.Contains(lines[2], "83.1") {
		t.Fatalf("row = %q", lines[2])
	}
}

func TestExecuteQueryWrapsEngineError(t *testing.T) {
	engineErr := errors.New(`Catalog Error: Table with name nope does not exist!`)
	runner := NewRunner(&fakeEngine{err: engineErr}, discardLogger())

	_, err := runner.ExecuteQuery(context.Background(), "SELECT * FROM nope", 0)
	var queryErr *QueryError
	if !errors.As(err, &queryErr) {
		t.Fatalf("ExecuteQuery() error = %v, want QueryError", err)
	}
	if !errors.Is(err, engineErr) {
		t.Fatal("QueryError does not unwrap to engine error")
	}
	if err.Error() != "query execution failed: Catalog Error: Table with name nope does not exist!" {
		t.Fatalf("ExecuteQuery() error = %q", err.Error())
	}
}

func TestQueryFailureLogCarriesCallID(t *testing.T) {
	var logs strings.Builder
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	runner := NewRunner(&fakeEngine{err: errors.New("Binder Error")}, logger)

	ctx := observability.ContextWithCallID(context.Background(), "call-42")
	if _, err := runner.ExecuteQuery(ctx, "SELECT nope", 0); err == nil {
		t.Fatal("ExecuteQuery() error = nil, want engine error")
	}
	if !strings.Contains(logs.String(), "call_id=call-42") {
		t.Fatalf("log output = %q, want call_id=call-42", logs.String())
	}
}

func TestStatementBuilders(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{
			name: "list dataflows default",
			got:  listDataflowsSQL("", "", 50),
			want: "SELECT provider_id, dataflow_id, label, version FROM EUROSTAT_Dataflows(language := 'en') LIMIT 50",
		},
		{
			name: "list dataflows filtered",
			got:  listDataflowsSQL("ESTAT", "unemployment", 5),
			want: "SELECT provider_id, dataflow_id, label, version FROM EUROSTAT_Dataflows(providers := ['ESTAT'], language := 'en') WHERE label ILIKE '%unemployment%' LIMIT 5",
		},
		{
			name: "describe dataflow",
			got:  describeDataflowSQL("ESTAT", "DEMO_R_D2JAN"),
			want: "SELECT position, dimension, concept FROM EUROSTAT_DataStructure('ESTAT', 'DEMO_R_D2JAN', language := 'en') ORDER BY position",
		},
		{
			name: "search dataflows",
			got:  searchDataflowsSQL("gdp", 10),
			want: "SELECT provider_id, dataflow_id, label FROM EUROSTAT_Dataflows(language := 'en') WHERE label ILIKE '%gdp%' LIMIT 10",
		},
		{
			name: "data structure",
			got:  dataStructureSQL("ESTAT", "UNE_RT_A"),
			want: "SELECT dimension, concept FROM EUROSTAT_DataStructure('ESTAT', 'UNE_RT_A', language := 'en') WHERE position > 0 ORDER BY position",
		},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Fatalf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestListDataflowsDoesNotAddSecondLimit(t *testing.T) {
	engine := &fakeEngine{result: query.Result{Columns: []string{"provider_id"}, Rows: [][]any{{"ESTAT"}}}}
	runner := NewRunner(engine, discardLogger())

	if _, err := runner.ListDataflows(context.Background(), "", "", 50); err != nil {
		t.Fatalf("ListDataflows() error = %v", err)
	}
	if strings.Count(engine.requests[0].SQL, "LIMIT") != 1 || engine.requests[0].RowLimit != 0 {
		t.Fatalf("request = %#v", engine.requests[0])
	}
}

func TestSearchDataflowsMapsRecords(t *testing.T) {
	engine := &fakeEngine{result: query.Result{
		Columns: []string{"provider_id", "dataflow_id", "label"},
		Rows: [][]any{
			{"ESTAT", "UNE_RT_A", "Unemployment by sex and age - annual data"},
			{"ESTAT", "UNE_RT_M", nil},
		},
	}}
	runner := NewRunner(engine, discardLogger())

	got, err := runner.SearchDataflows(context.Background(), "unemployment", 10)
	if err != nil {
		t.Fatalf("SearchDataflows() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("SearchDataflows() len = %d", len(got))
	}
	if got[0].DataflowID != "UNE_RT_A" || got[1].Label != "" {
		t.Fatalf("SearchDataflows() = %#v", got)
	}
}

func TestDataStructureReturnsParallelSlices(t *testing.T) {
	engine := &fakeEngine{result: query.Result{
		Columns: []string{"dimension", "concept"},
		Rows: [][]any{
			{"freq", "Time frequency"},
			{"geo", "Geopolitical entity"},
		},
	}}
	runner := NewRunner(engine, discardLogger())

	got, err := runner.DataStructure(context.Background(), "ESTAT", "DEMO_R_D2JAN")
	if err != nil {
		t.Fatalf("DataStructure() error = %v", err)
	}
	if len(got.Dimensions) != 2 || got.Dimensions[1] != "geo" || got.Concepts[0] != "Time frequency" {
		t.Fatalf("DataStructure() = %#v", got)
	}
}

func TestCloseClosesEngine(t *testing.T) {
	engine := &fakeEngine{}
	runner := NewRunner(engine, discardLogger())
	if err := runner.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if engine.closed != 1 {
		t.Fatalf("closed = %d", engine.closed)
	}
}

func TestListProvidersThroughDuckDBEngine(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	mock.ExpectQuery(regexp.QuoteMeta(listProvidersSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"provider_id", "organization", "description"}).
			AddRow("ESTAT", "Eurostat", "Statistical office of the European Union").
			AddRow("ECFIN", "DG ECFIN", "Economic and Financial Affairs"))

	runner := NewRunner(duckdb.NewEngine(db), discardLogger())
	got, err := runner.ListProviders(context.Background())
	if err != nil {
		t.Fatalf("ListProviders() error = %v", err)
	}
	if !strings.Contains(got, "ESTAT") || !strings.Contains(got, "provider_id") {
		t.Fatalf("ListProviders() = %q", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}

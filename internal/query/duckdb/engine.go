package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb/v2"

	"github.com/duckmesh/eurostat-mcp/internal/config"
	"github.com/duckmesh/eurostat-mcp/internal/query"
)

const memoryPath = ":memory:"

type Config struct {
	// Path is the database file. Empty or ":memory:" opens an in-memory
	// database.
	Path                string
	Extension           string
	ExtensionRepository string
}

func ConfigFrom(cfg config.EngineConfig) Config {
	return Config{
		Path:                cfg.DBPath,
		Extension:           cfg.Extension,
		ExtensionRepository: cfg.ExtensionRepository,
	}
}

// InitError reports a failure to open the database or load the extension.
type InitError struct {
	Extension string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initialize duckdb extension %q: %v", e.Extension, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// Engine owns the process-wide DuckDB handle. The pool is capped at one
// connection so every statement runs on the same session, serialized by
// database/sql.
type Engine struct {
	db        *sql.DB
	closeOnce sync.Once
	closeErr  error
}

// Open opens the database and installs and loads the configured extension.
func Open(ctx context.Context, cfg Config) (*Engine, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == memoryPath {
		path = ""
	}
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, &InitError{Extension: cfg.Extension, Err: fmt.Errorf("open duckdb: %w", err)}
	}
	if err := initialize(ctx, db, cfg); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewEngine(db), nil
}

func initialize(ctx context.Context, db *sql.DB, cfg Config) error {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	extension := strings.TrimSpace(cfg.Extension)
	if extension == "" {
		return nil
	}
	install := "INSTALL " + extension
	if repository := strings.TrimSpace(cfg.ExtensionRepository); repository != "" {
		install += " FROM " + repository
	}
	for _, statement := range []string{install, "LOAD " + extension} {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return &InitError{Extension: extension, Err: fmt.Errorf("%s: %w", statement, err)}
		}
	}
	return nil
}

// NewEngine wraps an already open handle.
func NewEngine(db *sql.DB) *Engine {
	db.SetMaxOpenConns(1)
	return &Engine{db: db}
}

func (e *Engine) Execute(ctx context.Context, request query.Request) (query.Result, error) {
	if strings.TrimSpace(request.SQL) == "" {
		return query.Result{}, fmt.Errorf("sql is required")
	}

	start := time.Now()
	sqlText := query.ApplyRowLimit(request.SQL, request.RowLimit)

	rows, err := e.db.QueryContext(ctx, sqlText)
	if err != nil {
		return query.Result{}, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return query.Result{}, fmt.Errorf("query columns: %w", err)
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return query.Result{}, fmt.Errorf("query column types: %w", err)
	}
	typeNames := make([]string, len(columnTypes))
	for i, columnType := range columnTypes {
		typeNames[i] = strings.ToUpper(columnType.DatabaseTypeName())
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return query.Result{}, fmt.Errorf("scan row: %w", err)
		}
		resultRows = append(resultRows, normalizeValues(values, typeNames))
	}
	if err := rows.Err(); err != nil {
		return query.Result{}, fmt.Errorf("iterate rows: %w", err)
	}

	return query.Result{
		Columns:  columns,
		Rows:     resultRows,
		Duration: time.Since(start),
	}, nil
}

func (e *Engine) Ping(ctx context.Context) error {
	return e.db.PingContext(ctx)
}

// Close releases the handle. Calling it more than once is safe.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.closeErr = e.db.Close()
	})
	return e.closeErr
}

// normalizeValues turns driver values into plain Go values the renderer can
// print: UUIDs become their canonical text and intervals become DuckDB's
// "1 year 2 months 3 days 04:05:06" form.
func normalizeValues(values []any, typeNames []string) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		typeName := ""
		if i < len(typeNames) {
			typeName = typeNames[i]
		}
		normalized[i] = normalizeValue(value, typeName)
	}
	return normalized
}

func normalizeValue(value any, typeName string) any {
	switch typed := value.(type) {
	case []byte:
		if typeName == "UUID" && len(typed) == 16 {
			if id, err := uuid.FromBytes(typed); err == nil {
				return id.String()
			}
		}
		return string(typed)
	case goduckdb.Interval:
		return formatInterval(typed)
	case []any:
		elementType := strings.TrimSuffix(typeName, "[]")
		out := make([]any, len(typed))
		for i, element := range typed {
			out[i] = normalizeValue(element, elementType)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, field := range typed {
			out[key] = normalizeValue(field, "")
		}
		return out
	case goduckdb.Map:
		out := make(map[any]any, len(typed))
		for key, entry := range typed {
			out[normalizeValue(key, "")] = normalizeValue(entry, "")
		}
		return out
	default:
		return typed
	}
}

func formatInterval(interval goduckdb.Interval) string {
	parts := make([]string, 0, 4)
	parts = appendUnit(parts, int64(interval.Months/12), "year")
	parts = appendUnit(parts, int64(interval.Months%12), "month")
	parts = appendUnit(parts, int64(interval.Days), "day")
	if interval.Micros != 0 || len(parts) == 0 {
		parts = append(parts, formatClock(interval.Micros))
	}
	return strings.Join(parts, " ")
}

func appendUnit(parts []string, n int64, unit string) []string {
	switch n {
	case 0:
		return parts
	case 1, -1:
		return append(parts, fmt.Sprintf("%d %s", n, unit))
	default:
		return append(parts, fmt.Sprintf("%d %ss", n, unit))
	}
}

func formatClock(micros int64) string {
	sign := ""
	if micros < 0 {
		sign = "-"
		micros = -micros
	}
	const (
		second = int64(time.Second / time.Microsecond)
		minute = 60 * second
		hour   = 60 * minute
	)
	text := fmt.Sprintf("%s%02d:%02d:%02d", sign, micros/hour, micros%hour/minute, micros%minute/second)
	if fraction := micros % second; fraction != 0 {
		text += strings.TrimRight(fmt.Sprintf(".%06d", fraction), "0")
	}
	return text
}

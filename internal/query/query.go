package query

import (
	"context"
	"time"
)

type Request struct {
	SQL string
	// RowLimit is appended as a LIMIT clause when positive and the statement
	// has none.
	RowLimit int
}

type Result struct {
	Columns  []string
	Rows     [][]any
	Duration time.Duration
}

// Empty reports whether the result has no rows.
func (r Result) Empty() bool {
	return len(r.Rows) == 0
}

type Engine interface {
	Execute(ctx context.Context, request Request) (Result, error)
	Close() error
}

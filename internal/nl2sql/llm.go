package nl2sql

import (
	"context"
	"log/slog"
	"strings"

	"github.com/duckmesh/eurostat-mcp/internal/llm"
	"github.com/duckmesh/eurostat-mcp/internal/observability"
)

// LLMTranslator turns natural language into DuckDB SQL with a single call to
// an llm.Provider. The generated SQL is not validated.
type LLMTranslator struct {
	provider llm.Provider
	logger   *slog.Logger
}

func NewLLMTranslator(provider llm.Provider, logger *slog.Logger) *LLMTranslator {
	if logger == nil {
		logger = slog.Default()
	}
	if !provider.IsConfigured() {
		logger.Warn("llm provider not configured, natural language queries will fail",
			"provider", provider.Name(),
			"model", provider.Model(),
		)
	}
	return &LLMTranslator{provider: provider, logger: logger}
}

func (t *LLMTranslator) Translate(ctx context.Context, req Request) (Result, error) {
	if !t.provider.IsConfigured() {
		return Result{}, &llm.ConfigError{
			Provider: t.provider.Name(),
			Reason:   "cannot translate natural language queries until the provider credentials are set",
		}
	}

	logger := observability.LoggerFromContext(ctx, t.logger)
	response, err := t.provider.Generate(ctx, SystemPrompt, userMessage(req.NaturalLanguage))
	if err != nil {
		logger.Error("translation failed", "provider", t.provider.Name(), "error", err)
		return Result{}, &TranslationError{Err: err}
	}

	sql := stripMarkdownSQL(response)
	logger.Info("translated query", "provider", t.provider.Name(), "sql", sql)
	return Result{
		SQL:      sql,
		Provider: t.provider.Name(),
		Model:    t.provider.Model(),
	}, nil
}

// stripMarkdownSQL removes a surrounding code fence. The opening fence line is
// dropped whatever its info string (sql, SQL, duckdb, ...).
func stripMarkdownSQL(value string) string {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := strings.TrimPrefix(trimmed, "```")
	if newline := strings.IndexByte(body, '\n'); newline >= 0 {
		if isFenceInfo(body[:newline]) {
			body = body[newline+1:]
		}
	} else if tag, rest, ok := strings.Cut(body, " "); ok && sqlFenceTags[strings.ToLower(tag)] {
		body = rest
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}

// sqlFenceTags are the language tags recognised on a single-line fence such
// as "```sql SELECT 1```".
var sqlFenceTags = map[string]bool{"sql": true, "duckdb": true}

// isFenceInfo reports whether the rest of an opening fence line is a language
// tag rather than SQL written on the fence line itself.
func isFenceInfo(line string) bool {
	return !strings.ContainsAny(strings.TrimSpace(line), " \t")
}

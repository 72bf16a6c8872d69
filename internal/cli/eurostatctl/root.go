// Package eurostatctl implements the operator command line. Remote commands
// talk to a running server's HTTP surface; local commands open their own
// DuckDB engine and provider from the loaded configuration.
package eurostatctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/duckmesh/eurostat-mcp/internal/config"
	"github.com/duckmesh/eurostat-mcp/internal/llm"
	"github.com/duckmesh/eurostat-mcp/internal/query"
	"github.com/duckmesh/eurostat-mcp/internal/query/duckdb"
)

type EngineFactory func(ctx context.Context, cfg duckdb.Config) (query.Engine, error)

type ProviderFactory func(key string, cfg llm.Config) (llm.Provider, error)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
	Config     config.Config
	// OpenEngine and NewProvider default to duckdb.Open and llm.New.
	OpenEngine  EngineFactory
	NewProvider ProviderFactory
}

// commandError marks failures raised while running a command, as opposed to
// argument parsing errors.
type commandError struct {
	err error
}

func (e *commandError) Error() string { return e.err.Error() }
func (e *commandError) Unwrap() error { return e.err }

func failed(format string, args ...any) error {
	return &commandError{err: fmt.Errorf(format, args...)}
}

// Run executes the command line and returns the process exit code: 0 on
// success, 1 when a command fails and 2 for usage errors.
func Run(ctx context.Context, args []string, opts Options) int {
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	if opts.OpenEngine == nil {
		opts.OpenEngine = func(ctx context.Context, cfg duckdb.Config) (query.Engine, error) {
			engine, err := duckdb.Open(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return engine, nil
		}
	}
	if opts.NewProvider == nil {
		opts.NewProvider = llm.New
	}

	root := newRootCommand(&opts)
	root.SetArgs(args)
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	pterm.Error.WithWriter(opts.Stderr).Println(err.Error())
	var cmdErr *commandError
	if errors.As(err, &cmdErr) {
		return 1
	}
	_, _ = fmt.Fprintln(opts.Stderr, "run 'eurostatctl --help' for usage")
	return 2
}

func newRootCommand(opts *Options) *cobra.Command {
	root := &cobra.Command{
		Use:           "eurostatctl",
		Short:         "Operate and query the Eurostat MCP server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&opts.BaseURL, "base-url", firstNonEmpty(opts.BaseURL, "http://localhost:8080"), "server base URL for remote commands")
	root.PersistentFlags().DurationVar(&opts.Timeout, "timeout", durationOr(opts.Timeout, 10*time.Second), "HTTP timeout for remote commands")

	root.AddCommand(
		newHealthCommand(opts),
		newReadyCommand(opts),
		newToolsCommand(opts),
		newCallCommand(opts),
		newSQLCommand(opts),
		newSearchCommand(opts),
		newStructureCommand(opts),
		newTranslateCommand(opts),
	)
	return root
}

// logger keeps local commands quiet unless the config asks for warnings or worse.
func (o *Options) logger() *slog.Logger {
	level := max(o.Config.Observability.LogLevel, slog.LevelWarn)
	return slog.New(slog.NewTextHandler(o.Stderr, &slog.HandlerOptions{Level: level}))
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

func durationOr(value, fallback time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return fallback
}

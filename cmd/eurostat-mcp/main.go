package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/duckmesh/eurostat-mcp/internal/config"
	"github.com/duckmesh/eurostat-mcp/internal/eurostat"
	"github.com/duckmesh/eurostat-mcp/internal/llm"
	"github.com/duckmesh/eurostat-mcp/internal/nl2sql"
	"github.com/duckmesh/eurostat-mcp/internal/observability"
	duckdbengine "github.com/duckmesh/eurostat-mcp/internal/query/duckdb"
	"github.com/duckmesh/eurostat-mcp/internal/server"
	"github.com/duckmesh/eurostat-mcp/internal/tools"
)

type engineOpener func(ctx context.Context, cfg duckdbengine.Config) (*duckdbengine.Engine, error)

func main() {
	cfg, err := config.LoadFromEnv("eurostat-mcp", ".env.local", ".env")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	// stdout carries the stdio protocol, so logs always go to stderr.
	logger := observability.NewLogger(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, logger, duckdbengine.Open, os.Stdin, os.Stdout)
	stop()
	if err != nil {
		logger.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// run wires the server and blocks until the transport stops. The DuckDB
// engine is closed on every return path once it has been opened.
func run(ctx context.Context, cfg config.Config, logger *slog.Logger, open engineOpener, stdin io.Reader, stdout io.Writer) (err error) {
	engine, err := open(ctx, duckdbengine.ConfigFrom(cfg.Engine))
	if err != nil {
		return fmt.Errorf("open duckdb: %w", err)
	}
	runner := eurostat.NewRunner(engine, logger)
	defer func() {
		if closeErr := runner.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close duckdb: %w", closeErr)
		}
	}()

	provider, err := llm.New(cfg.LLM.Provider, llm.ConfigFrom(cfg.LLM))
	if err != nil {
		return fmt.Errorf("initialize llm provider: %w", err)
	}
	logger.Info("llm provider selected",
		slog.String("provider", provider.Name()),
		slog.String("model", provider.Model()),
		slog.Bool("configured", provider.IsConfigured()),
	)

	translator := nl2sql.NewLLMTranslator(provider, logger)
	dispatcher, err := tools.NewDispatcher(translator, runner, logger)
	if err != nil {
		return fmt.Errorf("build tool dispatcher: %w", err)
	}
	mcp := server.NewMCPServer(dispatcher, cfg.Service.Name, cfg.Service.Version)

	group, groupCtx := errgroup.WithContext(ctx)
	switch cfg.Transport.Mode {
	case config.TransportHTTP:
		handler := server.NewHandler(cfg, server.Dependencies{
			Logger:    logger,
			Readiness: engine.Ping,
			MCP:       mcpserver.NewStreamableHTTPServer(mcp),
			Tools:     dispatcher,
		})
		httpServer := server.NewHTTPServer(cfg, cfg.Transport.HTTPAddress, handler)
		group.Go(func() error {
			return server.ListenAndServe(groupCtx, httpServer, logger)
		})
	default:
		stdioCtx, stopStdio := context.WithCancel(groupCtx)
		defer stopStdio()
		group.Go(func() error {
			defer stopStdio()
			return server.ServeStdio(stdioCtx, mcp, stdin, stdout, logger)
		})
		if cfg.Transport.MetricsAddr != "" {
			metricsServer := server.NewHTTPServer(cfg, cfg.Transport.MetricsAddr, server.NewHandler(cfg, server.Dependencies{
				Logger:    logger,
				Readiness: engine.Ping,
			}))
			group.Go(func() error {
				return server.ListenAndServe(stdioCtx, metricsServer, logger)
			})
		}
	}
	return group.Wait()
}

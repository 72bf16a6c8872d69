package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/duckmesh/eurostat-mcp/internal/config"
	"github.com/duckmesh/eurostat-mcp/internal/observability"
)

const shutdownTimeout = 10 * time.Second

// ServeStdio speaks MCP over the given streams until ctx is cancelled or the
// client closes stdin.
func ServeStdio(ctx context.Context, s *mcpserver.MCPServer, stdin io.Reader, stdout io.Writer, logger *slog.Logger) error {
	stdio := mcpserver.NewStdioServer(s)
	stdio.SetErrorLogger(observability.StdLogger(logger, slog.LevelError))

	logger.Info("serving mcp over stdio")
	err := stdio.Listen(ctx, stdin, stdout)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// NewHTTPServer builds the listener for the HTTP surface.
func NewHTTPServer(cfg config.Config, addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: cfg.Transport.ReadTimeout,
		IdleTimeout: cfg.Transport.IdleTimeout,
	}
}

// ListenAndServe runs srv until ctx is done and then shuts it down gracefully.
func ListenAndServe(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("shutting down http server", slog.String("addr", srv.Addr))
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		return err
	}
	return <-errCh
}

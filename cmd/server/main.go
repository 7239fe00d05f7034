// Package main provides the entry point for the PubMed MCP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/helixir/pubmed-mcp/internal/app"
	"github.com/helixir/pubmed-mcp/internal/config"
	"github.com/helixir/pubmed-mcp/internal/observability"
	httpserver "github.com/helixir/pubmed-mcp/internal/server/http"
	mcpserver "github.com/helixir/pubmed-mcp/internal/server/mcp"
	"github.com/helixir/pubmed-mcp/internal/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := app.NewLogger(cfg)
	logger.Info().
		Str("version", version.Version).
		Str("commit", version.Commit).
		Msg("pubmed-mcp server starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(app.MetricsNamespace)
	}

	source, err := app.NewSource(cfg, metrics, logger)
	if err != nil {
		return fmt.Errorf("create pubmed source: %w", err)
	}
	logger.Info().
		Str("base_url", cfg.NCBI.BaseURL).
		Str("tool", cfg.NCBI.Tool).
		Str("throttle", cfg.NCBI.Throttle).
		Bool("api_key", cfg.NCBI.APIKey != "").
		Msg("E-utilities client configured")

	tools := mcpserver.New(mcpserver.Config{
		Name:          cfg.MCP.Name,
		Version:       app.ServerVersion(cfg),
		Instructions:  cfg.MCP.Instructions,
		EndpointPath:  cfg.MCP.EndpointPath,
		DefaultRetMax: cfg.NCBI.DefaultRetMax,
	}, source, metrics, logger)

	httpCfg := httpserver.Config{
		Address:         cfg.Server.Address(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MCPPath:         tools.EndpointPath(),
		MetricsEnabled:  cfg.Metrics.Enabled,
		MetricsPath:     cfg.Metrics.Path,
	}
	httpSrv := httpserver.NewServer(httpCfg, tools.Handler(), logger)

	// Channel to collect server errors.
	errCh := make(chan error, 1)

	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	readyLog := logger.Info().
		Str("http_address", httpCfg.Address).
		Str("mcp_path", httpCfg.MCPPath)
	if cfg.Metrics.Enabled {
		readyLog = readyLog.Str("metrics_path", cfg.Metrics.Path)
	}
	readyLog.Msg("pubmed-mcp is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	// Graceful shutdown.
	logger.Info().Msg("shutting down pubmed-mcp")

	if err := httpSrv.Shutdown(context.Background()); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logger.Info().Msg("pubmed-mcp shutdown complete")
	return nil
}

// Package app assembles the PubMed source and its logger from configuration.
// It is shared by the server and the command-line client.
package app

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/helixir/pubmed-mcp/internal/config"
	"github.com/helixir/pubmed-mcp/internal/observability"
	"github.com/helixir/pubmed-mcp/internal/papersources"
	"github.com/helixir/pubmed-mcp/internal/papersources/pubmed"
	"github.com/helixir/pubmed-mcp/internal/version"
)

// MetricsNamespace prefixes every exported metric.
const MetricsNamespace = "pubmed_mcp"

// NewLogger builds the root logger from the logging section.
func NewLogger(cfg *config.Config) zerolog.Logger {
	return observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
}

// NewSource builds the throttled E-utilities client and the PubMed source on
// top of it. metrics may be nil.
func NewSource(cfg *config.Config, metrics *observability.Metrics, logger zerolog.Logger) (*pubmed.Client, error) {
	waiter, err := papersources.NewWaiter(cfg.NCBI.Throttle, cfg.NCBI.Delay, cfg.NCBI.RateLimit, cfg.NCBI.Burst)
	if err != nil {
		return nil, fmt.Errorf("create throttle: %w", err)
	}

	eutils := papersources.NewClient(papersources.Config{
		BaseURL:   cfg.NCBI.BaseURL,
		Tool:      cfg.NCBI.Tool,
		Email:     cfg.NCBI.Email,
		APIKey:    cfg.NCBI.APIKey,
		Timeout:   cfg.NCBI.Timeout,
		UserAgent: "Helixir-PubMedMCP/" + version.Version,
	}, waiter, metrics, logger)

	return pubmed.New(eutils, pubmed.Config{MaxResults: cfg.NCBI.DefaultRetMax}, metrics, logger), nil
}

// ServerVersion is the version reported to MCP clients.
func ServerVersion(cfg *config.Config) string {
	if cfg.MCP.Version != "" {
		return cfg.MCP.Version
	}
	return version.Version
}

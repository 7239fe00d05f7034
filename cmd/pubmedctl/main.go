// Package main is the entry point for the pubmedctl CLI, which runs the
// search and fetch tools from a terminal against live E-utilities.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/helixir/pubmed-mcp/internal/app"
	"github.com/helixir/pubmed-mcp/internal/config"
	"github.com/helixir/pubmed-mcp/internal/papersources"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pubmedctl",
		Short: "Query PubMed through NCBI E-utilities",
		Long: `pubmedctl runs the same search and fetch operations the MCP server exposes
and prints their JSON output. Configuration is read the same way as the
server: config.yaml, PUBMEDMCP_* variables, NCBI_TOOL, NCBI_EMAIL and
NCBI_API_KEY.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolP("verbose", "v", false, "log upstream requests to stderr")

	root.AddCommand(newSearchCmd(), newFetchCmd(), newVersionCmd())
	return root
}

// loadSource builds a PubMed source from configuration.
func loadSource(cmd *cobra.Command) (papersources.LiteratureSource, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := zerolog.Nop()
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = "console"
		cfg.Logging.Output = "stderr"
		logger = app.NewLogger(cfg)
	}

	source, err := app.NewSource(cfg, nil, logger)
	if err != nil {
		return nil, err
	}
	return source, nil
}

// writeJSON prints v indented and without HTML escaping.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

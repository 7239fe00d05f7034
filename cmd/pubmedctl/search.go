package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/helixir/pubmed-mcp/internal/papersources"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Search PubMed by keyword",
		Long: `Search resolves the query with esearch and prints one record per PMID with
title, journal and publication date. Multiple arguments are joined with spaces.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			retmax := papersources.RetMaxDefault
			if cmd.Flags().Changed("retmax") {
				retmax, _ = cmd.Flags().GetInt("retmax")
				if retmax < 0 {
					return errors.New("--retmax must be >= 0")
				}
			}

			source, err := loadSource(cmd)
			if err != nil {
				return err
			}

			resp, err := source.Search(cmd.Context(), strings.Join(args, " "), retmax)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().Int("retmax", 0, "maximum number of results (omit to use ncbi.default_retmax)")
	return cmd
}

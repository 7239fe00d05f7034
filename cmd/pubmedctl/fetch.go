package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helixir/pubmed-mcp/internal/domain"
)

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <pmid>",
		Short: "Fetch one article by PMID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := loadSource(cmd)
			if err != nil {
				return err
			}

			resp, err := source.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if record, _ := cmd.Flags().GetBool("record"); record {
				if len(resp.Content) == 0 {
					return fmt.Errorf("no content for %s", args[0])
				}
				var r domain.FetchRecord
				if err := json.Unmarshal([]byte(resp.Content[0].Text), &r); err != nil {
					return fmt.Errorf("decode record: %w", err)
				}
				return writeJSON(cmd.OutOrStdout(), r)
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().Bool("record", false, "print the decoded record instead of the content envelope")
	return cmd
}

package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/helixir/pubmed-mcp/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "pubmedctl %s\n", version.Version)
			fmt.Fprintf(w, "  commit:     %s\n", version.Commit)
			fmt.Fprintf(w, "  built:      %s\n", version.Date)
			fmt.Fprintf(w, "  go version: %s\n", runtime.Version())
		},
	}
}

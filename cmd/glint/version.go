package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// newVersionCmd mirrors the teacher's version command
// (cmd/streamy/version.go): linker-overridable build metadata printed
// plainly, without pulling in the dashboard's lipgloss-rendered card — a
// version check should never depend on a terminal.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "glint %s (commit %s, built %s)\n", version, commit, date)
			return nil
		},
	}
}

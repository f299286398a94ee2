package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/glint-shell/glint/internal/domain/engine"
	"github.com/glint-shell/glint/internal/parser"
)

// newCheckCmd implements spec §6.1's diagnostic entry point: parse a
// script (or `--commands` string) without evaluating it and report
// accumulated parse errors, mirroring the teacher's `verify` subcommand's
// read-only, no-side-effects contract (cmd/streamy/verify.go) generalized
// from "does system state match config" to "does this script parse
// cleanly".
func newCheckCmd(root *rootFlags) *cobra.Command {
	var commands string

	cmd := &cobra.Command{
		Use:   "check [script]",
		Short: "parse a script and report errors without evaluating it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildAppContext(cmd, root)
			if err != nil {
				return err
			}
			defer app.Close()

			var src, name string
			switch {
			case commands != "":
				src, name = commands, "<commands>"
			case len(args) == 1:
				data, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				src, name = string(data), args[0]
			default:
				return cmd.Help()
			}

			fileID := app.Sources.AddFile(name, src)
			ws := engine.NewWorkingSet(app.State)
			result := parser.Parse(fileID, src, ws)
			if len(result.Errors) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no parse errors")
				return nil
			}
			for _, perr := range result.Errors {
				fmt.Fprint(cmd.OutOrStdout(), perr.Render(app.Sources))
			}
			exitWithCode(exitParseError)
			return nil
		},
	}

	cmd.Flags().StringVarP(&commands, "commands", "c", "", "inline script to check instead of a file")
	return cmd
}

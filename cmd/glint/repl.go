package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// runRepl is a deliberately minimal read-eval-print loop: one line of
// input per iteration via bufio.Scanner, no history-cycling or readline
// editing. spec.md explicitly places "the line editor / REPL" itself out
// of scope as an external collaborator (§1 "Out of scope"); this loop
// exists only so `--interactive` is not a dead flag, reusing the same
// runScript path every other entry point does rather than inventing a
// second evaluation strategy.
func runRepl(cmd *cobra.Command, app *AppContext) error {
	out := cmd.OutOrStdout()
	st := rootStack(app)
	scanner := bufio.NewScanner(cmd.InOrStdin())

	for {
		fmt.Fprint(out, "glint> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanErr(scanner)
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		pd, _, err := runScript(cmd.Context(), app, "<repl>", line, st)
		if err == nil {
			_ = printResult(out, pd)
		}
	}
}

func scanErr(scanner *bufio.Scanner) error {
	if err := scanner.Err(); err != nil && err != io.EOF {
		return err
	}
	return nil
}

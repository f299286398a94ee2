package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// runTestbin implements `--testbin <name>`: a handful of tiny,
// deterministic programs the external-process adapter (internal/process)
// can exec in place of a real system binary, so tests exercising §4.10
// never depend on `cat`/`env` existing on the host or behaving
// identically across platforms. This is the same purpose nushell's own
// `--testbin` flag serves for its test suite; only the small subset of
// behaviors SPEC_FULL's process tests actually need is implemented.
func runTestbin(cmd *cobra.Command, name string) error {
	switch name {
	case "cat":
		_, err := io.Copy(cmd.OutOrStdout(), cmd.InOrStdin())
		return err
	case "echo_env":
		args := cmd.Flags().Args()
		for _, a := range args {
			fmt.Fprintln(cmd.OutOrStdout(), os.Getenv(a))
		}
		return nil
	case "nonzero_exit":
		exitWithCode(exitRuntime)
		return nil
	case "line_by_line":
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			fmt.Fprintln(cmd.OutOrStdout(), scanner.Text())
		}
		return scanner.Err()
	default:
		return fmt.Errorf("unknown testbin %q", name)
	}
}

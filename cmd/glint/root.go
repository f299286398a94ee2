package main

import (
	"os"

	"github.com/spf13/cobra"
)

// exitFunc is a test seam over os.Exit, mirroring the teacher's
// cmd/streamy/verify.go convention of making process-exit side effects
// overridable in tests rather than killing the test binary.
var exitFunc = os.Exit

// rootFlags mirrors the teacher's rootFlags (cmd/streamy/root.go), widened
// to the interpreter's own top-level flag set (spec §6.1): a script path
// or `--commands` inline script, config/env-config/plugin-config
// locations, log routing, and the REPL/stdin entry points.
type rootFlags struct {
	commands       string
	configPath     string
	envConfigPath  string
	pluginConfig   string
	logLevel       string
	logTarget      string
	noConfigFile   bool
	interactive    bool
	stdin          bool
	testbin        string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "glint [script]",
		Short:         "glint evaluates structured-data pipelines over a tagged Value model",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRootEntry(cmd, flags, args)
		},
	}

	cmd.Flags().StringVarP(&flags.commands, "commands", "c", "", "inline script to evaluate instead of a file")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "path to a $env.config YAML snapshot")
	cmd.Flags().StringVar(&flags.envConfigPath, "env-config", "", "path to an env-config script (accepted; the file is not read or evaluated)")
	cmd.Flags().StringVar(&flags.pluginConfig, "plugin-config", "", "path to the on-disk plugin registry file")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "info", "error|warn|info|debug|trace")
	cmd.Flags().StringVar(&flags.logTarget, "log-target", "stderr", "stderr|stdout|file")
	cmd.Flags().BoolVar(&flags.noConfigFile, "no-config-file", false, "skip loading the default $env.config snapshot")
	cmd.Flags().BoolVarP(&flags.interactive, "interactive", "i", false, "start an interactive read-eval-print loop")
	cmd.Flags().BoolVar(&flags.stdin, "stdin", false, "read the script to evaluate from stdin")
	cmd.Flags().StringVar(&flags.testbin, "testbin", "", "run an internal test-harness binary by name and exit")

	cmd.AddCommand(newCheckCmd(flags))
	cmd.AddCommand(newPluginCmd(flags))
	cmd.AddCommand(newDashboardCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// runRootEntry dispatches the bare invocation the way spec §6.1 describes:
// a script path positional, `--commands`, `--stdin`, `--testbin`, or (with
// none of those) `--interactive`, falling back to cmd.Help() when nothing
// names work to do — mirroring the teacher's root RunE "no subcommand ->
// launch the dashboard" default, generalized to this CLI's several
// script-source flags.
func runRootEntry(cmd *cobra.Command, flags *rootFlags, args []string) error {
	if flags.testbin != "" {
		return runTestbin(cmd, flags.testbin)
	}

	app, err := buildAppContext(cmd, flags)
	if err != nil {
		return err
	}
	defer app.Close()

	switch {
	case flags.stdin:
		return runFromStdin(cmd, app)
	case flags.commands != "":
		return runInline(cmd, app, flags.commands)
	case len(args) == 1:
		return runFile(cmd, app, args[0])
	case flags.interactive:
		return runRepl(cmd, app)
	default:
		return cmd.Help()
	}
}

// exitWithCode applies spec §6.1's exit-code contract (0 success, 1
// uncaught error, 2 parse error) via exitFunc rather than returning an
// error cobra would render as a generic failure message.
func exitWithCode(code int) {
	if code != exitSuccess {
		exitFunc(code)
	}
}

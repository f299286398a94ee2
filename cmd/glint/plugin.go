package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newPluginCmd wires `plugin add`/`plugin rm`/`plugin list` (spec §6.4
// "on-disk plugin registry" + SPEC_FULL's supplemented plugin-registry
// commands), mirroring the teacher's subcommand-per-verb layout
// (cmd/streamy/apply.go, verify.go side by side under root.go).
//
// `plugin add` both registers the binary in the on-disk registry and
// connects a live pluginhost.Client so the plugin's declarations are
// usable for the rest of this process — the registry persists across
// restarts, the live connection does not.
func newPluginCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugin",
		Short: "manage the on-disk plugin registry",
	}
	cmd.AddCommand(newPluginAddCmd(root))
	cmd.AddCommand(newPluginRmCmd(root))
	cmd.AddCommand(newPluginListCmd(root))
	return cmd
}

func newPluginAddCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>",
		Short: "register and connect a plugin binary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildAppContext(cmd, root)
			if err != nil {
				return err
			}
			defer app.Close()

			entry, err := app.Registry.Add(args[0])
			if err != nil {
				return err
			}

			pluginID := app.State.RegisterPlugin(entry.Identity, entry.Path)
			if err := app.Plugins.Connect(cmd.Context(), pluginID, entry.Path, nil); err != nil {
				app.Logger.Error(err, "plugin connected registry entry but failed to spawn")
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "registered %s (%s)\n", entry.Identity, entry.Path)
			return nil
		},
	}
}

func newPluginRmCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <identity>",
		Short: "deregister a plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildAppContext(cmd, root)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Registry.Remove(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
}

func newPluginListCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list registered plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildAppContext(cmd, root)
			if err != nil {
				return err
			}
			defer app.Close()

			entries, err := app.Registry.List()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no plugins registered")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", e.Identity, e.Version, e.Path)
			}
			return nil
		},
	}
}

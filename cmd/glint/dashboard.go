package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/glint-shell/glint/internal/tui/dashboard"
)

// newDashboardCmd launches the read-only Engine State/plugin-health/error
// dashboard (SPEC_FULL domain-stack expansion), mirroring the teacher's
// `dashboard` subcommand (cmd/streamy/dashboard.go) almost verbatim in
// shape: resolve paths, build services, hand a Model to a bubbletea
// Program with the alt screen.
func newDashboardCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "launch the read-only Engine State dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return fmt.Errorf("dashboard requires an interactive terminal on stdin")
			}

			app, err := buildAppContext(cmd, root)
			if err != nil {
				return err
			}
			defer app.Close()

			app.Logger.Info("launching dashboard")

			src := dashboard.NewEngineSource(app.State, app.Plugins, app.Events.RecentErrors)
			m := dashboard.NewModel(src)

			p := tea.NewProgram(m, tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("dashboard execution failed: %w", err)
			}
			return nil
		},
	}
}

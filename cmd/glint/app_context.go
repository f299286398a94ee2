package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/glint-shell/glint/internal/command"
	"github.com/glint-shell/glint/internal/config"
	"github.com/glint-shell/glint/internal/domain/engine"
	"github.com/glint-shell/glint/internal/domain/source"
	"github.com/glint-shell/glint/internal/eval"
	"github.com/glint-shell/glint/internal/history"
	"github.com/glint-shell/glint/internal/logger"
	"github.com/glint-shell/glint/internal/pluginhost"
	"github.com/glint-shell/glint/internal/registry"
)

// AppContext bundles the long-lived services buildAppContext constructs
// at the start of each subcommand's RunE, mirroring the teacher's AppContext
// (cmd/streamy/app_context.go) one-struct-of-services convention.
type AppContext struct {
	Logger   *logger.Logger
	Events   *logger.EventBuffer
	Config   config.ShellConfig
	Sources  *source.Store
	State    *engine.State
	Dispatch *command.Dispatcher
	Eval     *eval.Evaluator
	Registry *registry.Registry
	Plugins  *pluginhost.Host
	History  history.Writer
}

// CommandContext returns the command's context (falling back to
// Background) together with a component-scoped logger, matching the
// teacher's AppContext.CommandContext.
func (a *AppContext) CommandContext(cmd *cobra.Command, component string) (context.Context, *logger.Logger) {
	ctx := context.Background()
	if cmd != nil && cmd.Context() != nil {
		ctx = cmd.Context()
	}
	return ctx, a.LoggerFor(component)
}

// LoggerFor derives a child logger scoped to component.
func (a *AppContext) LoggerFor(component string) *logger.Logger {
	if a == nil || a.Logger == nil {
		return nil
	}
	return a.Logger.WithFields(map[string]any{"component": component})
}

// Close releases resources the AppContext owns (history writer, live
// plugin connections) — deferred by each subcommand's RunE right after
// buildAppContext.
func (a *AppContext) Close() {
	if a == nil {
		return
	}
	if a.History != nil {
		_ = a.History.Close()
	}
	if a.Plugins != nil {
		a.Plugins.Shutdown()
	}
}

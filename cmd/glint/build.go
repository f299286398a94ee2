package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/glint-shell/glint/internal/command"
	"github.com/glint-shell/glint/internal/config"
	"github.com/glint-shell/glint/internal/domain/engine"
	"github.com/glint-shell/glint/internal/domain/source"
	"github.com/glint-shell/glint/internal/history"
	"github.com/glint-shell/glint/internal/logger"
	"github.com/glint-shell/glint/internal/pluginhost"
	"github.com/glint-shell/glint/internal/process"
	"github.com/glint-shell/glint/internal/registry"
)

// buildAppContext constructs every long-lived service from rootFlags,
// mirroring the teacher's main.go wiring order (logger -> config loader ->
// executor -> use cases) but collapsed into one function per-command
// rather than once in main.go, since each cobra RunE needs its own
// context.Context from cmd, not main.go's.
func buildAppContext(cmd *cobra.Command, flags *rootFlags) (*AppContext, error) {
	logWriter := logOutputWriter(flags)
	lg, err := logger.New(logger.Options{
		Writer:        logWriter,
		Level:         flags.logLevel,
		HumanReadable: flags.logTarget != "file" && isInteractiveOutput(logWriter),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	events := logger.NewEventBuffer(200)
	lg = lg.WithSink(logger.NewBufferedLogger(events))

	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	state := engine.NewState()
	dispatch := command.NewDispatcher()
	dispatch.SetExternalRunner(process.New())

	registryPath := flags.pluginConfig
	if registryPath == "" {
		registryPath, err = defaultRegistryPath()
		if err != nil {
			return nil, fmt.Errorf("failed to determine registry path: %w", err)
		}
	}
	reg, err := registry.NewRegistry(registryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load plugin registry: %w", err)
	}
	dispatch.SetRegistryStore(reg)

	entries, err := reg.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list plugin registry: %w", err)
	}
	for _, e := range entries {
		state.RegisterPlugin(e.Identity, e.Path)
	}

	var hist history.Writer
	if histPath, pathErr := defaultHistoryPath(cfg.History.FileFormat); pathErr != nil {
		lg.Error(pathErr, "failed to determine history path; continuing without history")
	} else if hist, err = history.Open(cfg.History, histPath); err != nil {
		lg.Error(err, "failed to open history store; continuing without history")
		hist = nil
	}

	app := &AppContext{
		Logger:   lg,
		Events:   events,
		Config:   cfg,
		Sources:  source.NewStore(),
		State:    state,
		Dispatch: dispatch,
		Registry: reg,
		History:  hist,
	}

	handler := newEngineCallHandler(rootStack(app), cfg)
	app.Plugins = pluginhost.NewHost(handler, lg.Base())
	dispatch.SetPluginRunner(app.Plugins)

	return app, nil
}

func logOutputWriter(flags *rootFlags) *os.File {
	switch flags.logTarget {
	case "stdout":
		return os.Stdout
	default:
		return os.Stderr
	}
}

// isInteractiveOutput decides whether w is an actual terminal rather than
// a redirected file or pipe, so `--log-target stderr|stdout` only renders
// the human-readable formatter when a human is actually watching it; a
// script's stderr piped to a log collector gets the JSON formatter even
// though the target is nominally "stderr".
func isInteractiveOutput(w *os.File) bool {
	return term.IsTerminal(int(w.Fd()))
}

func loadConfig(flags *rootFlags) (config.ShellConfig, error) {
	if flags.noConfigFile {
		return config.Default(), nil
	}

	path := flags.configPath
	if path == "" {
		var err error
		path, err = defaultEnvConfigPath()
		if err != nil {
			return config.Default(), err
		}
		if _, statErr := os.Stat(path); statErr != nil {
			return config.Default(), nil
		}
	}

	return config.LoadSnapshot(path)
}


package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	pkgerrors "github.com/glint-shell/glint/pkg/errors"

	"github.com/glint-shell/glint/internal/domain/source"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// LoadSnapshot reads a YAML config snapshot from disk — the on-disk
// counterpart to the `$env.config` record a config script produces at
// runtime, used by `cmd/glint`'s `--config` flag to seed ShellConfig
// before the config script (if any) runs and to persist `config save`
// style snapshots between sessions. Unlike the config script path, a
// malformed snapshot file is a hard parse error: there is no evaluator
// running yet to recover from it.
func LoadSnapshot(path string) (ShellConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, pkgerrors.NewExternalFailure("config_read", source.Unknown, fmt.Sprintf("reading config file %s", path), err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		line := extractLine(err)
		return cfg, pkgerrors.NewParseError("invalid_config", fmt.Sprintf("invalid config file %s (line %d): %v", path, line, err), source.Unknown, "check the YAML syntax against the recognized $env.config fields")
	}

	return cfg, nil
}

// SaveSnapshot writes cfg to path as YAML, used by a `config save`
// extension point so an interactive session's settings survive restart.
func SaveSnapshot(path string, cfg ShellConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}
	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}
	var line int
	if _, scanErr := fmt.Sscanf(matches[1], "%d", &line); scanErr != nil {
		return 0
	}
	return line
}

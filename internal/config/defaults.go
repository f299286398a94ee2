package config

import "gopkg.in/yaml.v3"

// defaultConfigYAML mirrors the compiled-in defaults a config script
// overrides (spec §6.2's recognized fields), kept as YAML so the shape
// stays next to ShellConfig's own `yaml` tags rather than drifting as a
// second Go literal.
const defaultConfigYAML = `
filesize:
  metric: false
  format: auto
ls:
  use_ls_colors: true
  clickable_links: true
rm:
  always_trash: false
display_errors:
  exit_code: false
  termination_signal: false
table:
  mode: rounded
  index: true
  padding: 1
history:
  file_format: plaintext
  max_size: 100000
  isolation: false
use_ansi_coloring: auto
`

// Default returns the interpreter's built-in `$env.config` snapshot,
// used before any config script has run.
func Default() ShellConfig {
	var cfg ShellConfig
	if err := yaml.Unmarshal([]byte(defaultConfigYAML), &cfg); err != nil {
		// defaultConfigYAML is a compile-time constant; a decode failure
		// here means the constant itself is malformed.
		panic("config: default config YAML is invalid: " + err.Error())
	}
	return cfg
}

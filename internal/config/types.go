// Package config implements the `$env.config` record of spec §6.2: a
// structured settings snapshot the interpreter consults at the top of
// each command invocation (table rendering, color behavior, history
// backend, filesystem display options, and user-defined extension
// points), plus the YAML-backed defaults it starts from before a config
// script overrides them.
package config

import "gopkg.in/yaml.v3"

// ShellConfig is the Go-native shape of the record assigned to
// `$env.config` (spec §6.2). Every recognized field is optional; an
// absent field falls back to Default()'s value. Keys with no dedicated
// field are kept in Extra when decoding YAML, and FromValue reports
// unrecognized keys as Warnings for the caller to log rather than
// rejecting the record.
type ShellConfig struct {
	Filesize        FilesizeConfig      `yaml:"filesize"`
	Ls              LsConfig            `yaml:"ls"`
	Rm              RmConfig            `yaml:"rm"`
	DisplayErrors   DisplayErrorsConfig `yaml:"display_errors"`
	Table           TableConfig         `yaml:"table"`
	ColorConfig     map[string]string   `yaml:"color_config,omitempty"`
	UseAnsiColoring string              `yaml:"use_ansi_coloring" validate:"omitempty,oneof=true false auto"`
	History         HistoryConfig       `yaml:"history"`

	// Extra holds extension-point fields: keys this struct has no
	// dedicated field for, kept as raw YAML so a config script can stash
	// arbitrary settings a plugin or user alias reads back out of
	// `$env.config` without this package needing to know their shape.
	Extra map[string]yaml.Node `yaml:",inline"`
}

// FilesizeConfig controls how filesize values are displayed.
type FilesizeConfig struct {
	Metric bool   `yaml:"metric"`
	Format string `yaml:"format" validate:"omitempty,oneof=auto B KB MB GB TB KiB MiB GiB TiB"`
}

// LsConfig controls `ls` output formatting.
type LsConfig struct {
	UseLsColors    bool `yaml:"use_ls_colors"`
	ClickableLinks bool `yaml:"clickable_links"`
}

// RmConfig controls `rm` behavior.
type RmConfig struct {
	AlwaysTrash bool `yaml:"always_trash"`
}

// DisplayErrorsConfig controls what an external command failure prints.
type DisplayErrorsConfig struct {
	ExitCode          bool `yaml:"exit_code"`
	TerminationSignal bool `yaml:"termination_signal"`
}

// TableConfig controls how the table renderer formats structured output.
type TableConfig struct {
	Mode        string `yaml:"mode" validate:"omitempty,oneof=basic thin light compact compact_double heavy none rounded reinforced markdown dots restructured ascii_rounded psql_rounded"`
	Index       bool   `yaml:"index"`
	Padding     int    `yaml:"padding" validate:"omitempty,min=0,max=10"`
	TrimLength  int    `yaml:"trim_length,omitempty" validate:"omitempty,min=0"`
	AbbreviatedRows int `yaml:"abbreviated_row_count,omitempty" validate:"omitempty,min=0"`
}

// HistoryConfig controls how the interpreter's command history (spec
// §6.5) is persisted.
type HistoryConfig struct {
	FileFormat string `yaml:"file_format" validate:"omitempty,oneof=sqlite plaintext"`
	MaxSize    int    `yaml:"max_size" validate:"omitempty,min=0"`
	Isolation  bool   `yaml:"isolation"`
}

// Warning describes a recognized-but-questionable or unrecognized config
// field, surfaced rather than rejected per spec §6.2.
type Warning struct {
	Field   string
	Message string
}

func (w Warning) String() string {
	return w.Field + ": " + w.Message
}

package config

import (
	"github.com/glint-shell/glint/internal/domain/source"
	"github.com/glint-shell/glint/internal/domain/value"
)

// ToValue renders cfg as the record Value assigned to `$env.config`
// (spec §6.2), anchored at sp (typically the span of the config
// script's assignment, or source.Unknown for the compiled-in default).
func ToValue(cfg ShellConfig, sp source.Span) value.Value {
	filesize := value.NewRecord()
	filesize.Set("metric", value.Bool(cfg.Filesize.Metric, sp))
	filesize.Set("format", value.String(cfg.Filesize.Format, sp))

	ls := value.NewRecord()
	ls.Set("use_ls_colors", value.Bool(cfg.Ls.UseLsColors, sp))
	ls.Set("clickable_links", value.Bool(cfg.Ls.ClickableLinks, sp))

	rm := value.NewRecord()
	rm.Set("always_trash", value.Bool(cfg.Rm.AlwaysTrash, sp))

	displayErrors := value.NewRecord()
	displayErrors.Set("exit_code", value.Bool(cfg.DisplayErrors.ExitCode, sp))
	displayErrors.Set("termination_signal", value.Bool(cfg.DisplayErrors.TerminationSignal, sp))

	table := value.NewRecord()
	table.Set("mode", value.String(cfg.Table.Mode, sp))
	table.Set("index", value.Bool(cfg.Table.Index, sp))
	table.Set("padding", value.Int(int64(cfg.Table.Padding), sp))
	if cfg.Table.TrimLength > 0 {
		table.Set("trim_length", value.Int(int64(cfg.Table.TrimLength), sp))
	}
	if cfg.Table.AbbreviatedRows > 0 {
		table.Set("abbreviated_row_count", value.Int(int64(cfg.Table.AbbreviatedRows), sp))
	}

	colorConfig := value.NewRecord()
	for k, v := range cfg.ColorConfig {
		colorConfig.Set(k, value.String(v, sp))
	}

	history := value.NewRecord()
	history.Set("file_format", value.String(cfg.History.FileFormat, sp))
	history.Set("max_size", value.Int(int64(cfg.History.MaxSize), sp))
	history.Set("isolation", value.Bool(cfg.History.Isolation, sp))

	root := value.NewRecord()
	root.Set("filesize", value.RecordVal(filesize, sp))
	root.Set("ls", value.RecordVal(ls, sp))
	root.Set("rm", value.RecordVal(rm, sp))
	root.Set("display_errors", value.RecordVal(displayErrors, sp))
	root.Set("table", value.RecordVal(table, sp))
	root.Set("color_config", value.RecordVal(colorConfig, sp))
	root.Set("use_ansi_coloring", value.String(cfg.UseAnsiColoring, sp))
	root.Set("history", value.RecordVal(history, sp))

	return value.RecordVal(root, sp)
}

// FromValue reads back a `$env.config` record Value into a ShellConfig,
// starting from base (typically Default()) so fields the record omits
// keep their previous value — spec §6.2's config is read incrementally
// as a config script assigns to it, not replaced wholesale. Keys under
// the top level this function does not recognize are reported as
// Warnings, never errors.
func FromValue(v value.Value, base ShellConfig) (ShellConfig, []Warning) {
	cfg := base
	var warnings []Warning

	if v.Kind != value.KindRecord {
		return cfg, []Warning{{Field: "config", Message: "$env.config must be a record"}}
	}
	rec := v.AsRecord()

	known := map[string]bool{
		"filesize": true, "ls": true, "rm": true, "display_errors": true,
		"table": true, "color_config": true, "use_ansi_coloring": true,
		"history": true,
	}

	for _, key := range rec.Keys() {
		field, _ := rec.Get(key)
		switch key {
		case "filesize":
			sub := asRecordOrWarn(field, key, &warnings)
			if sub != nil {
				if b, ok := boolField(sub, "metric"); ok {
					cfg.Filesize.Metric = b
				}
				if s, ok := stringField(sub, "format"); ok {
					cfg.Filesize.Format = s
				}
			}
		case "ls":
			sub := asRecordOrWarn(field, key, &warnings)
			if sub != nil {
				if b, ok := boolField(sub, "use_ls_colors"); ok {
					cfg.Ls.UseLsColors = b
				}
				if b, ok := boolField(sub, "clickable_links"); ok {
					cfg.Ls.ClickableLinks = b
				}
			}
		case "rm":
			sub := asRecordOrWarn(field, key, &warnings)
			if sub != nil {
				if b, ok := boolField(sub, "always_trash"); ok {
					cfg.Rm.AlwaysTrash = b
				}
			}
		case "display_errors":
			sub := asRecordOrWarn(field, key, &warnings)
			if sub != nil {
				if b, ok := boolField(sub, "exit_code"); ok {
					cfg.DisplayErrors.ExitCode = b
				}
				if b, ok := boolField(sub, "termination_signal"); ok {
					cfg.DisplayErrors.TerminationSignal = b
				}
			}
		case "table":
			sub := asRecordOrWarn(field, key, &warnings)
			if sub != nil {
				if s, ok := stringField(sub, "mode"); ok {
					cfg.Table.Mode = s
				}
				if b, ok := boolField(sub, "index"); ok {
					cfg.Table.Index = b
				}
				if i, ok := intField(sub, "padding"); ok {
					cfg.Table.Padding = i
				}
				if i, ok := intField(sub, "trim_length"); ok {
					cfg.Table.TrimLength = i
				}
				if i, ok := intField(sub, "abbreviated_row_count"); ok {
					cfg.Table.AbbreviatedRows = i
				}
			}
		case "color_config":
			sub := asRecordOrWarn(field, key, &warnings)
			if sub != nil {
				colors := make(map[string]string, sub.Len())
				for _, ck := range sub.Keys() {
					if cv, ok := sub.Get(ck); ok && cv.Kind == value.KindString {
						colors[ck] = cv.AsString()
					}
				}
				cfg.ColorConfig = colors
			}
		case "use_ansi_coloring":
			if field.Kind == value.KindString {
				cfg.UseAnsiColoring = field.AsString()
			} else if field.Kind == value.KindBool {
				if field.AsBool() {
					cfg.UseAnsiColoring = "true"
				} else {
					cfg.UseAnsiColoring = "false"
				}
			} else {
				warnings = append(warnings, Warning{Field: key, Message: "expected bool or string"})
			}
		case "history":
			sub := asRecordOrWarn(field, key, &warnings)
			if sub != nil {
				if s, ok := stringField(sub, "file_format"); ok {
					cfg.History.FileFormat = s
				}
				if i, ok := intField(sub, "max_size"); ok {
					cfg.History.MaxSize = i
				}
				if b, ok := boolField(sub, "isolation"); ok {
					cfg.History.Isolation = b
				}
			}
		}

		if !known[key] {
			warnings = append(warnings, Warning{Field: key, Message: "unrecognized $env.config key"})
		}
	}

	return cfg, append(warnings, Validate(cfg)...)
}

func asRecordOrWarn(v value.Value, field string, warnings *[]Warning) *value.Record {
	if v.Kind != value.KindRecord {
		*warnings = append(*warnings, Warning{Field: field, Message: "expected a record"})
		return nil
	}
	return v.AsRecord()
}

func boolField(r *value.Record, key string) (bool, bool) {
	v, ok := r.Get(key)
	if !ok || v.Kind != value.KindBool {
		return false, false
	}
	return v.AsBool(), true
}

func stringField(r *value.Record, key string) (string, bool) {
	v, ok := r.Get(key)
	if !ok || v.Kind != value.KindString {
		return "", false
	}
	return v.AsString(), true
}

func intField(r *value.Record, key string) (int, bool) {
	v, ok := r.Get(key)
	if !ok || v.Kind != value.KindInt {
		return 0, false
	}
	return int(v.AsInt()), true
}

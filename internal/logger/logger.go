// Package logger wraps github.com/charmbracelet/log into the structured,
// per-component logger used throughout the interpreter (parser
// diagnostics promoted to warnings, plugin host connection lifecycle,
// external process exit status, dashboard event feed).
package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	cblog "github.com/charmbracelet/log"
)

// Options configures a Logger.
type Options struct {
	Writer     io.Writer
	Level      string
	TimeFormat string
	// HumanReadable selects the text formatter; false selects JSON
	// (teacher-style: non-interactive output defaults to JSON).
	HumanReadable bool
	ReportCaller  bool
	Layer         string
	Component     string
	Fields        map[string]any
}

// Logger is a structured, per-component logger built on charmbracelet/log.
type Logger struct {
	base   *cblog.Logger
	fields []interface{}
	layer  string
	sink   Sink
}

// WithSink returns a derived logger that tees every entry into sink in
// addition to its normal output — used to feed the dashboard's
// EventBuffer from the same Logger instance the rest of the interpreter
// logs through.
func (l *Logger) WithSink(sink Sink) *Logger {
	if l == nil {
		return l
	}
	return &Logger{base: l.base, fields: l.fields, layer: l.layer, sink: sink}
}

// New creates a configured Logger.
func New(opts Options) (*Logger, error) {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stdout
	}

	level := cblog.InfoLevel
	if opts.Level != "" {
		parsed, err := cblog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}

	formatter := cblog.JSONFormatter
	if opts.HumanReadable {
		formatter = cblog.TextFormatter
	}

	base := cblog.NewWithOptions(writer, cblog.Options{
		Level:           level,
		TimeFormat:      opts.TimeFormat,
		ReportTimestamp: true,
		ReportCaller:    opts.ReportCaller,
		Formatter:       formatter,
		Fields:          mapToFields(opts.Fields),
	})

	fields := make([]interface{}, 0, 2)
	if opts.Component != "" {
		fields = append(fields, "component", opts.Component)
	}
	layer := opts.Layer
	if layer == "" {
		layer = "interpreter"
	}

	return &Logger{base: base, fields: fields, layer: layer}, nil
}

// WithFields returns a derived logger that always writes the supplied
// fields, sorted by key for deterministic output.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	if l == nil || len(fields) == 0 {
		return l
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	next := make([]interface{}, len(l.fields), len(l.fields)+len(fields)*2)
	copy(next, l.fields)
	for _, key := range keys {
		next = append(next, key, fields[key])
	}

	return &Logger{base: l.base, fields: next, layer: l.layer, sink: l.sink}
}

// Debug writes a debug-level log entry.
func (l *Logger) Debug(msg string, fields ...interface{}) { l.log(cblog.DebugLevel, msg, fields...) }

// Info writes an informational log entry.
func (l *Logger) Info(msg string, fields ...interface{}) { l.log(cblog.InfoLevel, msg, fields...) }

// Warn writes a warning-level log entry.
func (l *Logger) Warn(msg string, fields ...interface{}) { l.log(cblog.WarnLevel, msg, fields...) }

// Error writes an error-level log entry including the supplied error.
func (l *Logger) Error(err error, msg string) {
	if err != nil {
		l.log(cblog.ErrorLevel, msg, "error", err)
		return
	}
	l.log(cblog.ErrorLevel, msg)
}

func (l *Logger) tee(level cblog.Level, msg string, fields ...interface{}) {
	if l.sink == nil {
		return
	}
	switch level {
	case cblog.DebugLevel:
		l.sink.Debug(msg, fields...)
	case cblog.WarnLevel:
		l.sink.Warn(msg, fields...)
	case cblog.ErrorLevel:
		l.sink.Error(msg, fields...)
	default:
		l.sink.Info(msg, fields...)
	}
}

// Base exposes the underlying charmbracelet/log.Logger for packages
// (internal/pluginhost, internal/process) that want to pass a *log.Logger
// directly rather than depend on this package's own API.
func (l *Logger) Base() *cblog.Logger {
	if l == nil {
		return nil
	}
	entry := l.base
	if len(l.fields) > 0 {
		entry = entry.With(l.fields...)
	}
	return entry.With("layer", l.layer)
}

func (l *Logger) log(level cblog.Level, msg string, fields ...interface{}) {
	if l == nil || l.base == nil {
		return
	}
	entry := l.base
	if len(l.fields) > 0 {
		entry = entry.With(l.fields...)
	}
	entry = entry.With("layer", l.layer)

	msg = strings.TrimSpace(msg)
	switch level {
	case cblog.DebugLevel:
		entry.Debug(msg, fields...)
	case cblog.WarnLevel:
		entry.Warn(msg, fields...)
	case cblog.ErrorLevel:
		entry.Error(msg, fields...)
	default:
		entry.Info(msg, fields...)
	}
	l.tee(level, msg, fields...)
}

func mapToFields(fields map[string]interface{}) []interface{} {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]interface{}, 0, len(fields)*2)
	for _, k := range keys {
		out = append(out, k, fields[k])
	}
	return out
}

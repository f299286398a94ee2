// Package errors defines the shell's error taxonomy (spec §7). Every
// user-visible failure is represented by one of a small set of typed error
// structs, each carrying enough structure to render a one-line headline, a
// labeled source span, and a stable diagnostic code (e.g.
// "glint::shell::column_not_found"). This mirrors the teacher's
// pkg/errors.go shape (one struct per kind, Error()/Unwrap() pair,
// New*Error constructor) generalized from config/execution failures to the
// shell's own error kinds.
package errors

import (
	"fmt"
	"strings"

	"github.com/glint-shell/glint/internal/domain/source"
)

// Kind classifies a ShellError without relying on its Go type, so callers
// can switch on Kind when they only have an `error` interface value.
type Kind string

const (
	KindParse             Kind = "parse"
	KindTypeMismatch      Kind = "type_mismatch"
	KindNameResolution    Kind = "name_resolution"
	KindOutOfBounds       Kind = "out_of_bounds"
	KindExternalFailure   Kind = "external_command_failure"
	KindPluginFailure     Kind = "plugin_failure"
	KindCancellation      Kind = "cancellation"
	KindUserRaised        Kind = "user_raised"
	KindControlFlow       Kind = "control_flow"
	KindMissingPositional Kind = "missing_positional"
	KindUnknownFlag       Kind = "unknown_flag"
)

// ShellError is the uniform representation for all user-visible errors
// (spec §7). Code is a stable diagnostic code of the form
// "glint::<component>::<reason>".
type ShellError struct {
	Kind     Kind
	Code     string
	Headline string
	Labels   []source.Label
	Help     string
	Err      error
}

func (e *ShellError) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(e.Headline)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes the underlying error, if any.
func (e *ShellError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Render produces the multi-line diagnostic the CLI prints: headline,
// diagnostic code, each label resolved against store, and an optional help
// line (spec §7 "User-visible behavior").
func (e *ShellError) Render(store *source.Store) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error: %s\n", e.Headline)
	if e.Code != "" {
		fmt.Fprintf(&b, "  (%s)\n", e.Code)
	}
	for _, label := range e.Labels {
		if store != nil && !label.Span.IsUnknown() {
			fmt.Fprintf(&b, "  --> %s\n", store.Describe(label.Span))
			if ctx := store.Context(label.Span); ctx != "" {
				for _, line := range strings.Split(ctx, "\n") {
					fmt.Fprintf(&b, "   | %s\n", line)
				}
			}
		}
		if label.Message != "" {
			fmt.Fprintf(&b, "   = %s\n", label.Message)
		}
	}
	if e.Help != "" {
		fmt.Fprintf(&b, "help: %s\n", e.Help)
	}
	return b.String()
}

func label(sp source.Span, msg string) []source.Label {
	if sp.IsUnknown() && msg == "" {
		return nil
	}
	return []source.Label{{Span: sp, Message: msg}}
}

// NewParseError wraps a lex/parse-time failure (spec §7 "Parse").
func NewParseError(code, headline string, sp source.Span, labelMsg string) *ShellError {
	return &ShellError{Kind: KindParse, Code: "glint::parser::" + code, Headline: headline, Labels: label(sp, labelMsg)}
}

// NewTypeMismatch reports a value that did not conform to a declared or
// operator-required shape.
func NewTypeMismatch(sp source.Span, expected, got string) *ShellError {
	return &ShellError{
		Kind:     KindTypeMismatch,
		Code:     "glint::shell::type_mismatch",
		Headline: fmt.Sprintf("type mismatch: expected %s, found %s", expected, got),
		Labels:   label(sp, fmt.Sprintf("expected %s", expected)),
	}
}

// NewNameResolution reports an unknown command, variable, column, or flag.
func NewNameResolution(code string, sp source.Span, name string) *ShellError {
	return &ShellError{
		Kind:     KindNameResolution,
		Code:     "glint::shell::" + code,
		Headline: fmt.Sprintf("%s not found: %s", strings.ReplaceAll(code, "_not_found", ""), name),
		Labels:   label(sp, "not found here"),
	}
}

// NewColumnNotFound implements the required cell-path miss (spec §4.1, §8.2
// scenario 4): distinct from the optional miss, which yields Nothing rather
// than an error.
func NewColumnNotFound(sp source.Span, column string) *ShellError {
	return &ShellError{
		Kind:     KindOutOfBounds,
		Code:     "glint::shell::column_not_found",
		Headline: fmt.Sprintf("column not found: %s", column),
		Labels:   label(sp, "value originates here"),
	}
}

// NewOutOfBounds reports a structural access to a non-existent list index.
func NewOutOfBounds(sp source.Span, index, length int) *ShellError {
	return &ShellError{
		Kind:     KindOutOfBounds,
		Code:     "glint::shell::index_out_of_bounds",
		Headline: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Labels:   label(sp, "index used here"),
	}
}

// NewExternalFailure wraps a non-zero exit or signal termination (spec §4.10,
// §7).
func NewExternalFailure(code string, sp source.Span, headline string, err error) *ShellError {
	return &ShellError{Kind: KindExternalFailure, Code: "glint::shell::" + code, Headline: headline, Labels: label(sp, ""), Err: err}
}

// NewPluginFailure wraps a protocol error, crash, or version mismatch
// (spec §4.11 "Failure modes").
func NewPluginFailure(code, headline string, err error) *ShellError {
	return &ShellError{Kind: KindPluginFailure, Code: "glint::plugin::" + code, Headline: headline, Err: err}
}

// NewCancellation reports an interrupt signal tripping (spec §5).
func NewCancellation(sp source.Span) *ShellError {
	return &ShellError{Kind: KindCancellation, Code: "glint::shell::cancelled", Headline: "operation was cancelled", Labels: label(sp, "")}
}

// NewUserRaised wraps the `error make` command's user-supplied error (spec
// §7 "User-raised").
func NewUserRaised(headline string, sp source.Span, labels []source.Label, help string) *ShellError {
	return &ShellError{Kind: KindUserRaised, Code: "glint::shell::error_make", Headline: headline, Labels: append(label(sp, ""), labels...), Help: help}
}

// NewMissingPositional reports a call missing a required positional
// argument.
func NewMissingPositional(sp source.Span, name string) *ShellError {
	return &ShellError{
		Kind:     KindMissingPositional,
		Code:     "glint::parser::missing_positional",
		Headline: fmt.Sprintf("missing required positional argument: %s", name),
		Labels:   label(sp, "called here"),
		Help:     fmt.Sprintf("add the %s argument", name),
	}
}

// NewUnknownFlag reports a flag not present in a declaration's signature.
func NewUnknownFlag(sp source.Span, name string) *ShellError {
	return &ShellError{
		Kind:     KindUnknownFlag,
		Code:     "glint::parser::unknown_flag",
		Headline: fmt.Sprintf("unknown flag: %s", name),
		Labels:   label(sp, "used here"),
	}
}

// Is allows errors.Is/As to match by Kind across distinct ShellError
// instances, e.g. errors.Is(err, &ShellError{Kind: KindCancellation}).
func (e *ShellError) Is(target error) bool {
	other, ok := target.(*ShellError)
	if !ok {
		return false
	}
	return other.Kind == e.Kind && other.Code == "" || (other.Code != "" && other.Code == e.Code)
}

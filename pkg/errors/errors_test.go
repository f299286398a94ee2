package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glint-shell/glint/internal/domain/source"
)

func TestNewParseErrorCarriesCodeAndLabel(t *testing.T) {
	t.Parallel()

	sp := source.Span{FileID: 1, Start: 3, End: 7}
	err := NewParseError("unexpected_token", "unexpected token", sp, "expected an expression")

	require.Equal(t, KindParse, err.Kind)
	require.Equal(t, "glint::parser::unexpected_token", err.Code)
	require.Len(t, err.Labels, 1)
	require.Equal(t, sp, err.Labels[0].Span)
	require.Contains(t, err.Error(), "unexpected token")
}

func TestNewTypeMismatchFormatsHeadline(t *testing.T) {
	t.Parallel()

	err := NewTypeMismatch(source.Unknown, "int", "string")

	require.Equal(t, KindTypeMismatch, err.Kind)
	require.Contains(t, err.Error(), "expected int")
	require.Contains(t, err.Error(), "found string")
}

func TestNewNameResolutionDoesNotDoublePrefixCode(t *testing.T) {
	t.Parallel()

	err := NewNameResolution("command_not_found", source.Unknown, "frobnicate")

	require.Equal(t, "glint::shell::command_not_found", err.Code)
	require.Contains(t, err.Error(), "frobnicate")
}

func TestNewExternalFailureWrapsUnderlying(t *testing.T) {
	t.Parallel()

	underlying := fmt.Errorf("exit status 1")
	err := NewExternalFailure("nonzero_exit", source.Unknown, "ls exited with status 1", underlying)

	require.Equal(t, KindExternalFailure, err.Kind)
	require.True(t, stdErrors.Is(err, underlying))
	require.Contains(t, err.Error(), "ls exited with status 1")
}

func TestNewPluginFailurePrefixesCode(t *testing.T) {
	t.Parallel()

	err := NewPluginFailure("version_mismatch", "plugin protocol version mismatch", nil)

	require.Equal(t, "glint::plugin::version_mismatch", err.Code)
	require.Equal(t, KindPluginFailure, err.Kind)
}

func TestIsMatchesByKindAndCode(t *testing.T) {
	t.Parallel()

	a := NewCancellation(source.Unknown)
	b := NewCancellation(source.Unknown)

	require.True(t, stdErrors.Is(a, b))
	require.False(t, stdErrors.Is(a, NewMissingPositional(source.Unknown, "path")))
}

func TestRenderIncludesCodeAndHelp(t *testing.T) {
	t.Parallel()

	store := source.NewStore()
	fileID := store.AddFile("test.nu", "echo hi")
	sp := source.Span{FileID: fileID, Start: 0, End: 4}

	err := NewMissingPositional(sp, "path")
	rendered := err.Render(store)

	require.Contains(t, rendered, "missing required positional argument: path")
	require.Contains(t, rendered, "glint::parser::missing_positional")
	require.Contains(t, rendered, "add the path argument")
}

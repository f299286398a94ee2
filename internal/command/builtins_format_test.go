package command

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glint-shell/glint/internal/domain/pipedata"
	"github.com/glint-shell/glint/internal/domain/source"
	"github.com/glint-shell/glint/internal/domain/stack"
	"github.com/glint-shell/glint/internal/domain/value"
)

func callFormatBuiltin(t *testing.T, fn BuiltinFunc, input pipedata.PipelineData) value.Value {
	t.Helper()
	call := CallArgs{Span: source.Span{}}
	out, err := fn(nil, stack.New(), call, input)
	require.NoError(t, err)
	v, err := out.IntoValue(call.Span)
	require.NoError(t, err)
	return v
}

func sampleRecord() value.Value {
	rec := value.NewRecord()
	rec.Set("name", value.String("glint", source.Span{}))
	rec.Set("count", value.Int(3, source.Span{}))
	return value.RecordVal(rec, source.Span{})
}

func TestDispatcherRegistersFormatBuiltins(t *testing.T) {
	d := NewDispatcher()
	for _, name := range []string{"to nuon", "from nuon", "to json", "from json", "to yaml", "from yaml"} {
		_, ok := d.builtins[name]
		require.True(t, ok, "expected %q to be registered", name)
	}
}

func TestToNuonThenFromNuonRoundTripsRecord(t *testing.T) {
	v := sampleRecord()
	encoded := callFormatBuiltin(t, builtinToNuon, pipedata.FromValue(v))
	require.Equal(t, value.KindString, encoded.Kind)

	decoded := callFormatBuiltin(t, builtinFromNuon, pipedata.FromValue(encoded))
	require.True(t, value.Equal(v, decoded))
}

func TestToJSONThenFromJSONRoundTripsRecord(t *testing.T) {
	v := sampleRecord()
	encoded := callFormatBuiltin(t, builtinToJSON, pipedata.FromValue(v))
	require.Equal(t, value.KindString, encoded.Kind)
	require.Contains(t, encoded.AsString(), "glint")

	decoded := callFormatBuiltin(t, builtinFromJSON, pipedata.FromValue(encoded))
	require.True(t, value.Equal(v, decoded))
}

func TestToYAMLThenFromYAMLRoundTripsRecord(t *testing.T) {
	v := sampleRecord()
	encoded := callFormatBuiltin(t, builtinToYAML, pipedata.FromValue(v))
	require.Equal(t, value.KindString, encoded.Kind)

	decoded := callFormatBuiltin(t, builtinFromYAML, pipedata.FromValue(encoded))
	require.True(t, value.Equal(v, decoded))
}

func TestFromJSONRejectsNonStringInput(t *testing.T) {
	call := CallArgs{Span: source.Span{}}
	_, err := builtinFromJSON(nil, stack.New(), call, pipedata.FromValue(value.Int(1, source.Span{})))
	require.Error(t, err)
}

func TestFromNuonRejectsMalformedInput(t *testing.T) {
	call := CallArgs{Span: source.Span{}}
	_, err := builtinFromNuon(nil, stack.New(), call, pipedata.FromValue(value.String("{a: ", source.Span{})))
	require.Error(t, err)
}

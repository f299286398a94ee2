package command

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/glint-shell/glint/internal/domain/pipedata"
	"github.com/glint-shell/glint/internal/domain/source"
	"github.com/glint-shell/glint/internal/domain/stack"
	"github.com/glint-shell/glint/internal/domain/value"
	"github.com/glint-shell/glint/internal/nuon"
	pkgerrors "github.com/glint-shell/glint/pkg/errors"
)

// registerFormatBuiltins wires the `to`/`from` serialization pairs spec
// §8.1's round-tripping property exercises: nuon (this shell's own
// literal notation, internal/nuon), plus json and yaml since SPEC_FULL's
// Non-goals carve-out names all three together. json rides stdlib
// encoding/json (the teacher itself never needed a richer JSON library
// for anything beyond config, and none of the example repos pull one in
// either); yaml reuses gopkg.in/yaml.v3, already a direct dependency via
// internal/config.
func registerFormatBuiltins(d *Dispatcher) {
	d.Register("to nuon", builtinToNuon)
	d.Register("from nuon", builtinFromNuon)
	d.Register("to json", builtinToJSON)
	d.Register("from json", builtinFromJSON)
	d.Register("to yaml", builtinToYAML)
	d.Register("from yaml", builtinFromYAML)
}

func builtinToNuon(ev Evaluator, st *stack.Stack, call CallArgs, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	v, err := input.IntoValue(call.Span)
	if err != nil {
		return pipedata.Empty(), err
	}
	text, err := nuon.Encode(v)
	if err != nil {
		return pipedata.Empty(), err
	}
	return pipedata.FromValue(value.String(text, call.Span)), nil
}

func builtinFromNuon(ev Evaluator, st *stack.Stack, call CallArgs, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	v, err := input.IntoValue(call.Span)
	if err != nil {
		return pipedata.Empty(), err
	}
	if v.Kind != value.KindString {
		return pipedata.Empty(), pkgerrors.NewTypeMismatch(call.Span, "string", v.Kind.String())
	}
	decoded, err := nuon.Decode(v.AsString(), call.Span)
	if err != nil {
		return pipedata.Empty(), err
	}
	return pipedata.FromValue(decoded), nil
}

func builtinToJSON(ev Evaluator, st *stack.Stack, call CallArgs, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	v, err := input.IntoValue(call.Span)
	if err != nil {
		return pipedata.Empty(), err
	}
	raw, err := json.Marshal(toPlain(v))
	if err != nil {
		return pipedata.Empty(), pkgerrors.NewTypeMismatch(call.Span, "json-serializable value", v.Kind.String())
	}
	return pipedata.FromValue(value.String(string(raw), call.Span)), nil
}

func builtinFromJSON(ev Evaluator, st *stack.Stack, call CallArgs, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	v, err := input.IntoValue(call.Span)
	if err != nil {
		return pipedata.Empty(), err
	}
	if v.Kind != value.KindString {
		return pipedata.Empty(), pkgerrors.NewTypeMismatch(call.Span, "string", v.Kind.String())
	}
	var decoded any
	if err := json.Unmarshal([]byte(v.AsString()), &decoded); err != nil {
		return pipedata.Empty(), pkgerrors.NewParseError("glint::format::from_json", "invalid json: "+err.Error(), call.Span, v.AsString())
	}
	return pipedata.FromValue(fromPlain(decoded, call.Span)), nil
}

func builtinToYAML(ev Evaluator, st *stack.Stack, call CallArgs, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	v, err := input.IntoValue(call.Span)
	if err != nil {
		return pipedata.Empty(), err
	}
	raw, err := yaml.Marshal(toPlain(v))
	if err != nil {
		return pipedata.Empty(), pkgerrors.NewTypeMismatch(call.Span, "yaml-serializable value", v.Kind.String())
	}
	return pipedata.FromValue(value.String(string(raw), call.Span)), nil
}

func builtinFromYAML(ev Evaluator, st *stack.Stack, call CallArgs, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	v, err := input.IntoValue(call.Span)
	if err != nil {
		return pipedata.Empty(), err
	}
	if v.Kind != value.KindString {
		return pipedata.Empty(), pkgerrors.NewTypeMismatch(call.Span, "string", v.Kind.String())
	}
	var decoded any
	if err := yaml.Unmarshal([]byte(v.AsString()), &decoded); err != nil {
		return pipedata.Empty(), pkgerrors.NewParseError("glint::format::from_yaml", "invalid yaml: "+err.Error(), call.Span, v.AsString())
	}
	return pipedata.FromValue(fromPlain(normalizeYAMLMaps(decoded), call.Span)), nil
}

// toPlain lowers a Value to the plain Go shape encoding/json and
// yaml.v3 already know how to marshal, rather than teaching both
// libraries about value.Value directly.
func toPlain(v value.Value) any {
	switch v.Kind {
	case value.KindNothing:
		return nil
	case value.KindBool:
		return v.AsBool()
	case value.KindInt:
		return v.AsInt()
	case value.KindFloat:
		return v.AsFloat()
	case value.KindString:
		return v.AsString()
	case value.KindFilesize:
		return v.AsFilesize()
	case value.KindDuration:
		return v.AsDuration().String()
	case value.KindDate:
		return v.AsDate()
	case value.KindBinary:
		return v.AsBinary()
	case value.KindList:
		items := v.AsList()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = toPlain(item)
		}
		return out
	case value.KindRecord:
		rec := v.AsRecord()
		out := make(map[string]any, rec.Len())
		for _, k := range rec.Keys() {
			val, _ := rec.Get(k)
			out[k] = toPlain(val)
		}
		return out
	default:
		return v.Display()
	}
}

// fromPlain lifts the generic any tree json.Unmarshal/yaml.Unmarshal
// produce back into Values (spec §3.1): numbers arrive as float64 from
// encoding/json, so an integral float decodes back to KindInt to match
// what a shell user would expect from `"3" | from json | describe`.
func fromPlain(v any, sp source.Span) value.Value {
	switch t := v.(type) {
	case nil:
		return value.Nothing(sp)
	case bool:
		return value.Bool(t, sp)
	case string:
		return value.String(t, sp)
	case int:
		return value.Int(int64(t), sp)
	case int64:
		return value.Int(t, sp)
	case float64:
		if t == float64(int64(t)) {
			return value.Int(int64(t), sp)
		}
		return value.Float(t, sp)
	case time.Time:
		return value.Date(t, sp)
	case []any:
		items := make([]value.Value, len(t))
		for i, item := range t {
			items[i] = fromPlain(item, sp)
		}
		return value.List(items, sp)
	case map[string]any:
		rec := value.NewRecord()
		for _, k := range sortedKeys(t) {
			rec.Set(k, fromPlain(t[k], sp))
		}
		return value.RecordVal(rec, sp)
	default:
		return value.String(fmt.Sprintf("%v", t), sp)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// normalizeYAMLMaps recursively converts the map[string]interface{} /
// []interface{} shapes yaml.v3 actually produces (it never emits
// map[interface{}]interface{} the way gopkg.in/yaml.v2 did) so fromPlain
// only needs to handle one map representation.
func normalizeYAMLMaps(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeYAMLMaps(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalizeYAMLMaps(item)
		}
		return out
	default:
		return v
	}
}

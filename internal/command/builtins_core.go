package command

import (
	"fmt"

	"github.com/glint-shell/glint/internal/domain/pipedata"
	"github.com/glint-shell/glint/internal/domain/source"
	"github.com/glint-shell/glint/internal/domain/stack"
	"github.com/glint-shell/glint/internal/domain/value"
	pkgerrors "github.com/glint-shell/glint/pkg/errors"
)

// registerCoreBuiltins wires the illustrative data-pipeline builtins named
// in the spec's Non-goals reiteration: where, get, each, length, into,
// str length, echo, error make, math sum. Each is grounded on the same
// Value/PipelineData primitives the evaluator itself uses, matching the
// teacher's style of small, single-purpose command handlers.
func registerCoreBuiltins(d *Dispatcher) {
	d.Register("echo", builtinEcho)
	d.Register("length", builtinLength)
	d.Register("str length", builtinStrLength)
	d.Register("get", builtinGet)
	d.Register("where", builtinWhere)
	d.Register("each", builtinEach)
	d.Register("into", builtinInto)
	d.Register("math sum", builtinMathSum)
	d.Register("error make", builtinErrorMake)
}

func builtinEcho(ev Evaluator, st *stack.Stack, call CallArgs, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	if len(call.Positional) == 1 {
		return pipedata.FromValue(call.Positional[0]), nil
	}
	items := append([]value.Value(nil), call.Positional...)
	return pipedata.FromValue(value.List(items, call.Span)), nil
}

func builtinLength(ev Evaluator, st *stack.Stack, call CallArgs, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	v, err := input.IntoValue(call.Span)
	if err != nil {
		return pipedata.Empty(), err
	}
	switch v.Kind {
	case value.KindList:
		return pipedata.FromValue(value.Int(int64(len(v.AsList())), call.Span)), nil
	case value.KindString:
		return pipedata.FromValue(value.Int(int64(len([]rune(v.AsString()))), call.Span)), nil
	case value.KindRecord:
		return pipedata.FromValue(value.Int(int64(v.AsRecord().Len()), call.Span)), nil
	default:
		return pipedata.FromValue(value.Int(1, call.Span)), nil
	}
}

func builtinStrLength(ev Evaluator, st *stack.Stack, call CallArgs, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	v, err := input.IntoValue(call.Span)
	if err != nil {
		return pipedata.Empty(), err
	}
	if v.Kind != value.KindString {
		return pipedata.Empty(), pkgerrors.NewTypeMismatch(call.Span, "string", v.Kind.String())
	}
	return pipedata.FromValue(value.Int(int64(len([]rune(v.AsString()))), call.Span)), nil
}

func builtinGet(ev Evaluator, st *stack.Stack, call CallArgs, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	path, ok := call.Pos(0)
	if !ok {
		return pipedata.Empty(), pkgerrors.NewMissingPositional(call.Span, "cell_path")
	}
	v, err := input.IntoValue(call.Span)
	if err != nil {
		return pipedata.Empty(), err
	}
	member := value.PathMember{IsString: path.Kind == value.KindString, String: path.AsString()}
	if path.Kind == value.KindInt {
		member = value.PathMember{IsString: false, Int: int(path.AsInt())}
	}
	result, err := value.Follow(v, []value.PathMember{member})
	if err != nil {
		return pipedata.Empty(), pkgerrors.NewColumnNotFound(call.Span, path.Display())
	}
	return pipedata.FromValue(result), nil
}

// builtinWhere filters a List/ListStream by evaluating a closure argument
// per element and keeping elements where it returns a truthy Bool (spec
// §4.8 illustrative builtin set).
func builtinWhere(ev Evaluator, st *stack.Stack, call CallArgs, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	pred, ok := call.Pos(0)
	if !ok || pred.Kind != value.KindClosure {
		return pipedata.Empty(), pkgerrors.NewTypeMismatch(call.Span, "closure", "missing predicate")
	}
	items, err := materialize(input, call.Span)
	if err != nil {
		return pipedata.Empty(), err
	}
	var out []value.Value
	for _, item := range items {
		result, err := ev.CallClosure(st, pred.AsClosure(), []value.Value{item}, pipedata.FromValue(item))
		if err != nil {
			return pipedata.Empty(), err
		}
		keep, err := result.IntoValue(call.Span)
		if err != nil {
			return pipedata.Empty(), err
		}
		if keep.Kind == value.KindBool && keep.AsBool() {
			out = append(out, item)
		}
	}
	return pipedata.FromValue(value.List(out, call.Span)), nil
}

// builtinEach maps a closure over every element of a List/ListStream
// (spec §4.8; §5's "par-each" is the bounded-parallelism sibling of this).
func builtinEach(ev Evaluator, st *stack.Stack, call CallArgs, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	closureVal, ok := call.Pos(0)
	if !ok || closureVal.Kind != value.KindClosure {
		return pipedata.Empty(), pkgerrors.NewTypeMismatch(call.Span, "closure", "missing block")
	}
	items, err := materialize(input, call.Span)
	if err != nil {
		return pipedata.Empty(), err
	}
	out := make([]value.Value, 0, len(items))
	for _, item := range items {
		result, err := ev.CallClosure(st, closureVal.AsClosure(), []value.Value{item}, pipedata.FromValue(item))
		if err != nil {
			return pipedata.Empty(), err
		}
		v, err := result.IntoValue(call.Span)
		if err != nil {
			return pipedata.Empty(), err
		}
		out = append(out, v)
	}
	return pipedata.FromValue(value.List(out, call.Span)), nil
}

// builtinInto converts the input Value to a declared shape, e.g.
// `into int`, `into string` (spec §4.8 illustrative set "into").
func builtinInto(ev Evaluator, st *stack.Stack, call CallArgs, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	target, ok := call.Pos(0)
	if !ok || target.Kind != value.KindString {
		return pipedata.Empty(), pkgerrors.NewMissingPositional(call.Span, "type")
	}
	v, err := input.IntoValue(call.Span)
	if err != nil {
		return pipedata.Empty(), err
	}
	converted, err := convertInto(target.AsString(), v, call.Span)
	if err != nil {
		return pipedata.Empty(), err
	}
	return pipedata.FromValue(converted), nil
}

func builtinMathSum(ev Evaluator, st *stack.Stack, call CallArgs, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	items, err := materialize(input, call.Span)
	if err != nil {
		return pipedata.Empty(), err
	}
	var sum value.Value = value.Int(0, call.Span)
	for _, item := range items {
		sum, err = value.BinaryOp("+", sum, item)
		if err != nil {
			return pipedata.Empty(), pkgerrors.NewTypeMismatch(call.Span, "numeric", item.Kind.String())
		}
	}
	return pipedata.FromValue(sum), nil
}

// builtinErrorMake constructs a first-class Error value from a record
// argument `{msg: ..., help: ...}` (spec §7 "User-raised").
func builtinErrorMake(ev Evaluator, st *stack.Stack, call CallArgs, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	rec, ok := call.Pos(0)
	if !ok || rec.Kind != value.KindRecord {
		return pipedata.Empty(), pkgerrors.NewMissingPositional(call.Span, "error_record")
	}
	headline := "error"
	if msg, ok := rec.AsRecord().Get("msg"); ok {
		headline = msg.Display()
	}
	help := ""
	if h, ok := rec.AsRecord().Get("help"); ok {
		help = h.Display()
	}
	errVal := value.Error(&value.ShellErrorValue{Code: "glint::shell::error_make", Headline: headline, Help: help}, call.Span)
	return pipedata.FromValue(errVal), nil
}

func materialize(pd pipedata.PipelineData, sp source.Span) ([]value.Value, error) {
	if ls, ok := pd.AsListStream(); ok {
		return ls.Collect()
	}
	v, err := pd.IntoValue(sp)
	if err != nil {
		return nil, err
	}
	if v.Kind == value.KindList {
		return v.AsList(), nil
	}
	return []value.Value{v}, nil
}

func convertInto(shape string, v value.Value, sp source.Span) (value.Value, error) {
	switch shape {
	case "int":
		switch v.Kind {
		case value.KindInt:
			return v, nil
		case value.KindFloat:
			return value.Int(int64(v.AsFloat()), sp), nil
		case value.KindString:
			var n int64
			if _, err := fmt.Sscanf(v.AsString(), "%d", &n); err != nil {
				return value.Value{}, pkgerrors.NewTypeMismatch(sp, "int-like string", v.AsString())
			}
			return value.Int(n, sp), nil
		case value.KindBool:
			if v.AsBool() {
				return value.Int(1, sp), nil
			}
			return value.Int(0, sp), nil
		}
	case "float":
		switch v.Kind {
		case value.KindFloat:
			return v, nil
		case value.KindInt:
			return value.Float(float64(v.AsInt()), sp), nil
		case value.KindString:
			var f float64
			if _, err := fmt.Sscanf(v.AsString(), "%g", &f); err != nil {
				return value.Value{}, pkgerrors.NewTypeMismatch(sp, "float-like string", v.AsString())
			}
			return value.Float(f, sp), nil
		}
	case "string":
		return value.String(v.Display(), sp), nil
	case "bool":
		switch v.Kind {
		case value.KindBool:
			return v, nil
		case value.KindString:
			return value.Bool(v.AsString() == "true", sp), nil
		case value.KindInt:
			return value.Bool(v.AsInt() != 0, sp), nil
		}
	}
	return value.Value{}, pkgerrors.NewTypeMismatch(sp, shape, v.Kind.String())
}

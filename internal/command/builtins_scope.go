package command

import (
	"github.com/glint-shell/glint/internal/domain/engine"
	"github.com/glint-shell/glint/internal/domain/pipedata"
	"github.com/glint-shell/glint/internal/domain/stack"
	"github.com/glint-shell/glint/internal/domain/value"
)

// registerScopeBuiltins wires the `scope commands` / `scope variables` /
// `scope modules` introspection commands (SPEC_FULL's Supplemented
// Features: nushell-style reflective scope listing used by the dashboard
// and by interactive completion).
func registerScopeBuiltins(d *Dispatcher) {
	d.Register("scope commands", builtinScopeCommands)
	d.Register("scope modules", builtinScopeModules)
	d.Register("scope variables", builtinScopeVariables)
}

func builtinScopeCommands(ev Evaluator, st *stack.Stack, call CallArgs, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	decls := ev.State().AllDecls()
	rows := make([]value.Value, 0, len(decls))
	for _, decl := range decls {
		rec := value.NewRecord()
		rec.Set("name", value.String(decl.Name, call.Span))
		rec.Set("category", value.String(decl.Category, call.Span))
		rec.Set("description", value.String(decl.Description, call.Span))
		rec.Set("type", value.String(dispatchKindName(decl.Dispatch), call.Span))
		rec.Set("params_required", value.Int(int64(len(decl.Signature.RequiredPositional)), call.Span))
		rows = append(rows, value.RecordVal(rec, call.Span))
	}
	return pipedata.FromValue(value.List(rows, call.Span)), nil
}

func builtinScopeModules(ev Evaluator, st *stack.Stack, call CallArgs, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	mods := ev.State().AllModules()
	rows := make([]value.Value, 0, len(mods))
	for _, m := range mods {
		rec := value.NewRecord()
		rec.Set("name", value.String(m.Name, call.Span))
		rec.Set("decl_count", value.Int(int64(len(m.DeclIDs)), call.Span))
		rows = append(rows, value.RecordVal(rec, call.Span))
	}
	return pipedata.FromValue(value.List(rows, call.Span)), nil
}

// builtinScopeVariables reports the variables visible in the caller's
// stack frame. Stack only tracks values by id, not the name<->id map
// (that lives in the WorkingSet's scopes, spec §4.3), so this reports
// declared Variable metadata from Engine State filtered to ids the
// current Stack actually holds a value for.
func builtinScopeVariables(ev Evaluator, st *stack.Stack, call CallArgs, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	var rows []value.Value
	state := ev.State()
	for id := 0; ; id++ {
		v, err := state.GetVar(engine.VarID(id))
		if err != nil {
			break
		}
		if _, ok := st.GetVar(id); !ok {
			continue
		}
		rec := value.NewRecord()
		rec.Set("name", value.String(v.Name, call.Span))
		rec.Set("mutable", value.Bool(v.Mutable, call.Span))
		rec.Set("type", value.String(v.Declared.String(), call.Span))
		rows = append(rows, value.RecordVal(rec, call.Span))
	}
	return pipedata.FromValue(value.List(rows, call.Span)), nil
}

func dispatchKindName(k engine.DispatchKind) string {
	switch k {
	case engine.DispatchBuiltin:
		return "builtin"
	case engine.DispatchUserDefined:
		return "custom"
	case engine.DispatchAlias:
		return "alias"
	case engine.DispatchPlugin:
		return "plugin"
	case engine.DispatchKeyword:
		return "keyword"
	case engine.DispatchExternal:
		return "external"
	default:
		return "unknown"
	}
}

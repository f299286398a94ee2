// Package command implements the uniform Command Dispatch surface of spec
// §3.4/§4.8: every Declaration, regardless of whether it is a native Go
// function, a user-defined block, an alias, an out-of-process plugin, or
// an external executable, is invoked through one Call entry point that
// binds arguments and hands off to the right execution path.
//
// Grounded in the teacher's PluginRegistry (internal/plugin/registry_new.go),
// which looks a named plugin up in one table and dispatches through a
// single Plugin interface regardless of concrete implementation; Dispatcher
// generalizes that "one table, one call surface" shape from plugins to
// every Declaration kind.
//
// Dispatcher must not import internal/eval: eval.Evaluator is passed in
// structurally through the Evaluator interface below, so eval can import
// command (to invoke Call) without creating an import cycle.
package command

import (
	"context"
	"fmt"

	"github.com/glint-shell/glint/internal/domain/engine"
	"github.com/glint-shell/glint/internal/domain/pipedata"
	"github.com/glint-shell/glint/internal/domain/stack"
	"github.com/glint-shell/glint/internal/domain/value"
	pkgerrors "github.com/glint-shell/glint/pkg/errors"
)

// Evaluator is the subset of *eval.Evaluator the dispatcher needs to run
// UserDefined bodies, closures passed as arguments (each/where/par-each),
// and to read Engine State for declaration lookup. *eval.Evaluator
// satisfies this structurally; command never imports internal/eval.
type Evaluator interface {
	EvalBlock(st *stack.Stack, blockID engine.BlockID, input pipedata.PipelineData) (pipedata.PipelineData, error)
	EvalExpr(st *stack.Stack, expr engine.Expr, input pipedata.PipelineData) (pipedata.PipelineData, error)
	CallClosure(st *stack.Stack, clos *value.Closure, args []value.Value, input pipedata.PipelineData) (pipedata.PipelineData, error)
	State() *engine.State
	Context() context.Context
}

// ExternalRunner executes a host binary not known to Engine State (spec
// §4.10). cmd/glint wires a concrete internal/process implementation in;
// left nil, external calls fail with a name-resolution
// (command_not_found) diagnostic rather than panicking.
type ExternalRunner interface {
	Run(ctx context.Context, name string, argv []string, input pipedata.PipelineData) (pipedata.PipelineData, error)
}

// PluginRunner invokes a registered out-of-process plugin declaration
// (spec §4.11). cmd/glint wires a concrete internal/pluginhost
// implementation in.
type PluginRunner interface {
	Call(ctx context.Context, pluginID engine.PluginID, declName string, args map[string]value.Value, input pipedata.PipelineData) (pipedata.PipelineData, error)
}

// BuiltinFunc is a native Go command implementation (spec §4.8
// "Builtin: native Go function"). ev lets builtins like each/where invoke
// closure arguments; args is already bound by Signature.
type BuiltinFunc func(ev Evaluator, st *stack.Stack, call CallArgs, input pipedata.PipelineData) (pipedata.PipelineData, error)

// Dispatcher holds the builtin table and the optional external/plugin
// execution hooks.
type Dispatcher struct {
	builtins map[string]BuiltinFunc
	external ExternalRunner
	plugins  PluginRunner
	registry RegistryStore
}

// NewDispatcher creates a Dispatcher pre-populated with the builtin
// command set (SPEC_FULL's illustrative builtins plus the supplemented
// scope/plugin-registry commands).
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{builtins: make(map[string]BuiltinFunc)}
	registerCoreBuiltins(d)
	registerScopeBuiltins(d)
	registerPluginBuiltins(d)
	registerFormatBuiltins(d)
	return d
}

// SetExternalRunner wires the host-process execution path (cmd/glint does
// this once internal/process is constructed).
func (d *Dispatcher) SetExternalRunner(r ExternalRunner) { d.external = r }

// SetPluginRunner wires the plugin-call execution path (cmd/glint does
// this once internal/pluginhost is constructed).
func (d *Dispatcher) SetPluginRunner(r PluginRunner) { d.plugins = r }

// Register adds or replaces a builtin implementation, keyed by the
// Declaration.BuiltinRunID used to look it up at call time.
func (d *Dispatcher) Register(runID string, fn BuiltinFunc) { d.builtins[runID] = fn }

// Call dispatches one ExprCall node by Declaration.Dispatch kind (spec
// §4.8). A call whose head word never resolved to a Declaration at parse
// time (CallDecl left at its zero value, CallName carrying the text, per
// DESIGN.md's open-question decision) falls through to the external
// process path.
func (d *Dispatcher) Call(ev Evaluator, st *stack.Stack, expr engine.Expr, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	state := ev.State()
	declID, ok := state.FindDecl(expr.CallName)
	if !ok {
		return d.callExternal(ev, st, expr, input)
	}
	decl, err := state.GetDecl(declID)
	if err != nil {
		return d.callExternal(ev, st, expr, input)
	}

	call, err := bindArgs(ev, st, *decl, expr, input)
	if err != nil {
		return pipedata.Empty(), err
	}

	switch decl.Dispatch {
	case engine.DispatchBuiltin, engine.DispatchKeyword:
		fn, ok := d.builtins[decl.BuiltinRunID]
		if !ok {
			fn, ok = d.builtins[decl.Name]
		}
		if !ok {
			return pipedata.Empty(), pkgerrors.NewNameResolution("builtin_not_found", expr.Span, decl.Name)
		}
		return fn(ev, st, call, input)

	case engine.DispatchUserDefined:
		return d.callUserDefined(ev, st, *decl, call, input)

	case engine.DispatchAlias:
		if decl.AliasExpr == nil {
			return pipedata.Empty(), pkgerrors.NewNameResolution("alias_body_missing", expr.Span, decl.Name)
		}
		aliased := *decl.AliasExpr
		aliased.Args = append(append([]engine.Arg(nil), aliased.Args...), expr.Args...)
		return d.Call(ev, st, aliased, input)

	case engine.DispatchPlugin:
		return d.callPlugin(ev, *decl, call, input)

	case engine.DispatchExternal:
		return d.callExternal(ev, st, expr, input)

	default:
		return pipedata.Empty(), fmt.Errorf("command: unknown dispatch kind %v for %q", decl.Dispatch, decl.Name)
	}
}

// callUserDefined opens a fresh child stack, binds positional/rest/flag
// parameters (spec §4.8 "UserDefined: open a fresh child stack... then
// eval_block"), and runs the body.
func (d *Dispatcher) callUserDefined(ev Evaluator, st *stack.Stack, decl engine.Declaration, call CallArgs, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	block, err := ev.State().GetBlock(decl.UserDefinedBody)
	if err != nil {
		return pipedata.Empty(), err
	}
	child := st.Child()
	bindParams(child, decl.Signature, block.Params, call)
	out, err := ev.EvalBlock(child, decl.UserDefinedBody, input)
	if err != nil {
		return pipedata.Empty(), err
	}
	return out, nil
}

func (d *Dispatcher) callExternal(ev Evaluator, st *stack.Stack, expr engine.Expr, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	if d.external == nil {
		return pipedata.Empty(), pkgerrors.NewNameResolution("command_not_found", expr.Span, expr.CallName)
	}
	argv := make([]string, 0, len(expr.Args))
	for _, a := range expr.Args {
		out, err := ev.EvalExpr(st, a.Value, pipedata.Empty())
		if err != nil {
			return pipedata.Empty(), err
		}
		v, err := out.IntoValue(expr.Span)
		if err != nil {
			return pipedata.Empty(), err
		}
		argv = append(argv, v.Display())
	}
	return d.external.Run(ev.Context(), expr.CallName, argv, input)
}

func (d *Dispatcher) callPlugin(ev Evaluator, decl engine.Declaration, call CallArgs, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	if d.plugins == nil {
		return pipedata.Empty(), pkgerrors.NewPluginFailure("not_connected", decl.Name+": no plugin runner configured", nil)
	}
	args := make(map[string]value.Value, len(call.Positional)+len(call.Flags))
	for i, v := range call.Positional {
		args[fmt.Sprintf("$%d", i)] = v
	}
	for k, v := range call.Flags {
		args[k] = v
	}
	return d.plugins.Call(ev.Context(), decl.PluginIdentity, decl.Name, args, input)
}

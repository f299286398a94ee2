// Package eval implements the tree-walking evaluator of spec §4.7: the
// entry point eval_block(engine_state, stack, block_id, input) and
// expression evaluation for every Expr kind, including control flow
// (break/continue/return) and typed-error propagation.
//
// Grounded in the teacher's executor.go (internal/engine/executor.go),
// whose Execute walks a plan level by level threading a *model.StepResult
// through dependents; eval_block generalizes that single "step run" loop
// into a recursive expression walk, and Signal below generalizes
// executor.go's cooperative cancel() (a context.CancelFunc checked
// between levels) into the interrupt handle spec §5 requires at every
// stream-read suspension point.
package eval

import (
	"context"
	"fmt"
	"strings"

	"github.com/glint-shell/glint/internal/command"
	"github.com/glint-shell/glint/internal/domain/engine"
	"github.com/glint-shell/glint/internal/domain/pipedata"
	"github.com/glint-shell/glint/internal/domain/source"
	"github.com/glint-shell/glint/internal/domain/stack"
	"github.com/glint-shell/glint/internal/domain/value"
	pkgerrors "github.com/glint-shell/glint/pkg/errors"
)

// Signal is the single cancellation handle cloned into every stream,
// spawned process, and plugin client (spec §5 "a single Signals handle").
type Signal struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSignal creates a root Signal derived from ctx.
func NewSignal(ctx context.Context) Signal {
	c, cancel := context.WithCancel(ctx)
	return Signal{ctx: c, cancel: cancel}
}

// Context exposes the underlying context for stream/process plumbing.
func (s Signal) Context() context.Context { return s.ctx }

// Cancel triggers cooperative cancellation; the next check in any
// producer aborts with a cancellation error.
func (s Signal) Cancel() { s.cancel() }

// Cancelled reports whether Cancel has fired.
func (s Signal) Cancelled() bool {
	select {
	case <-s.ctx.Done():
		return true
	default:
		return false
	}
}

// controlFlow is the internal signal type used to unwind the tree-walk
// for break/continue/return (spec §4.7 "distinct from recoverable Value
// errors"). EvalBlock and the try handler pass it through unchanged; the
// for/while/loop handlers intercept break/continue, and CallClosure and
// call-expression evaluation intercept return.
type controlFlowKind int

const (
	cfNone controlFlowKind = iota
	cfBreak
	cfContinue
	cfReturn
)

type controlFlow struct {
	kind  controlFlowKind
	value value.Value // populated for cfReturn
}

func (controlFlow) Error() string { return "control flow signal (not a user-visible error)" }

// Evaluator walks Block/Expr IR against an Engine State snapshot.
type Evaluator struct {
	state    *engine.State
	dispatch *command.Dispatcher
	signal   Signal
}

// New creates an Evaluator bound to state and the command dispatcher used
// to invoke declarations (spec §4.8).
func New(state *engine.State, dispatch *command.Dispatcher, signal Signal) *Evaluator {
	return &Evaluator{state: state, dispatch: dispatch, signal: signal}
}

// EvalBlock is the entry point of spec §4.7: runs every pipeline in
// sequence, feeding `current` forward and discarding intermediate
// pipeline results (unless they are an Error, which always propagates),
// returning the last pipeline's PipelineData.
func (e *Evaluator) EvalBlock(st *stack.Stack, blockID engine.BlockID, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	block, err := e.state.GetBlock(blockID)
	if err != nil {
		return pipedata.Empty(), err
	}
	var result pipedata.PipelineData = input
	for i, pipeline := range block.Pipelines {
		result, err = e.evalPipeline(st, pipeline, input)
		if err != nil {
			return pipedata.Empty(), err
		}
		if v, ok := result.AsValue(); ok && v.Kind == value.KindError {
			return result, nil // errors always propagate, even mid-block
		}
		if i < len(block.Pipelines)-1 {
			input = pipedata.Empty()
		}
	}
	return result, nil
}

func (e *Evaluator) evalPipeline(st *stack.Stack, pipeline engine.Pipeline, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	current := input
	for _, elem := range pipeline.Elements {
		if e.signal.Cancelled() {
			return pipedata.Empty(), pkgerrors.NewCancellation(elem.Expr.Span)
		}
		out, err := e.evalExpr(st, elem.Expr, current)
		if err != nil {
			return pipedata.Empty(), err
		}
		current = out
		if elem.Redirect != nil {
			current, err = e.applyRedirect(st, *elem.Redirect, current)
			if err != nil {
				return pipedata.Empty(), err
			}
		}
	}
	return current, nil
}

// applyRedirect evaluates the redirection target expression and returns
// `current` unchanged (an error from the target is returned instead). No
// file is opened, created or written, and the stream is neither teed nor
// swapped, for any redirection kind.
func (e *Evaluator) applyRedirect(st *stack.Stack, r engine.Redirection, current pipedata.PipelineData) (pipedata.PipelineData, error) {
	_, err := e.evalExpr(st, r.Target, pipedata.Empty())
	if err != nil {
		return pipedata.Empty(), err
	}
	return current, nil
}

// evalExpr is the expression-evaluation switch of spec §4.7.
func (e *Evaluator) evalExpr(st *stack.Stack, expr engine.Expr, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	switch expr.Kind {
	case engine.ExprLiteral:
		return pipedata.FromValue(expr.Literal), nil

	case engine.ExprVarRef:
		if expr.VarID < 0 {
			return e.evalSigilVar(st, expr)
		}
		v, ok := st.GetVar(int(expr.VarID))
		if !ok {
			return pipedata.Empty(), pkgerrors.NewNameResolution("glint::shell::variable_not_found", expr.Span, fmt.Sprintf("$%d", expr.VarID))
		}
		return pipedata.FromValue(v), nil

	case engine.ExprCall:
		out, err := e.dispatch.Call(e, st, expr, input)
		if cf, ok := err.(controlFlow); ok && cf.kind == cfReturn {
			return pipedata.FromValue(cf.value), nil // `return` ends a def body
		}
		return out, err

	case engine.ExprBinaryOp:
		return e.evalBinaryOp(st, expr, input)

	case engine.ExprClosureLit:
		return pipedata.FromValue(e.evalClosureLit(st, expr)), nil

	case engine.ExprFullRange:
		return e.evalRange(st, expr)

	case engine.ExprCellPathAccess:
		return e.evalCellPath(st, expr, input)

	case engine.ExprSubExpression:
		child := st.Child()
		return e.EvalBlock(child, expr.SubBlock, input)

	case engine.ExprIf:
		return e.evalIf(st, expr, input)

	case engine.ExprFor:
		return e.evalFor(st, expr, input)

	case engine.ExprWhile:
		return e.evalWhile(st, expr, input)

	case engine.ExprLoop:
		return e.evalLoop(st, expr, input)

	case engine.ExprMatch:
		return e.evalMatch(st, expr, input)

	case engine.ExprTry:
		return e.evalTry(st, expr, input)

	case engine.ExprList:
		return e.evalList(st, expr, input)

	case engine.ExprRecord:
		return e.evalRecordLit(st, expr, input)

	case engine.ExprStringInterp:
		return e.evalStringInterp(st, expr, input)

	case engine.ExprBreak:
		return pipedata.Empty(), controlFlow{kind: cfBreak}

	case engine.ExprContinue:
		return pipedata.Empty(), controlFlow{kind: cfContinue}

	case engine.ExprReturn:
		var v value.Value = value.Nothing(expr.Span)
		if expr.ReturnVal != nil {
			out, err := e.evalExpr(st, *expr.ReturnVal, input)
			if err != nil {
				return pipedata.Empty(), err
			}
			v, _ = out.IntoValue(expr.Span)
		}
		return pipedata.Empty(), controlFlow{kind: cfReturn, value: v}

	case engine.ExprLet, engine.ExprMut:
		out, err := e.evalExpr(st, *expr.Init, pipedata.Empty())
		if err != nil {
			return pipedata.Empty(), err
		}
		v, err := out.IntoValue(expr.Span)
		if err != nil {
			return pipedata.Empty(), err
		}
		st.SetVar(int(expr.VarID), v)
		return pipedata.Empty(), nil

	default:
		return pipedata.Empty(), fmt.Errorf("eval: unhandled expression kind %v", expr.Kind)
	}
}

// evalSigilVar resolves the dynamic sigils that the parser could not bind
// to a VarID at parse time: $env and $nothing. Any other name (including
// $nu and $in) is a variable_not_found error.
func (e *Evaluator) evalSigilVar(st *stack.Stack, expr engine.Expr) (pipedata.PipelineData, error) {
	switch expr.CallName {
	case "env":
		rec := value.NewRecord()
		for k, v := range st.AllEnv() {
			rec.Set(k, v)
		}
		return pipedata.FromValue(value.RecordVal(rec, expr.Span)), nil
	case "nothing":
		return pipedata.FromValue(value.Nothing(expr.Span)), nil
	default:
		return pipedata.Empty(), pkgerrors.NewNameResolution("glint::shell::variable_not_found", expr.Span, "$"+expr.CallName)
	}
}

func (e *Evaluator) evalList(st *stack.Stack, expr engine.Expr, _ pipedata.PipelineData) (pipedata.PipelineData, error) {
	items := make([]value.Value, 0, len(expr.Elements))
	for _, el := range expr.Elements {
		out, err := e.evalExpr(st, el, pipedata.Empty())
		if err != nil {
			return pipedata.Empty(), err
		}
		v, err := out.IntoValue(el.Span)
		if err != nil {
			return pipedata.Empty(), err
		}
		items = append(items, v)
	}
	return pipedata.FromValue(value.List(items, expr.Span)), nil
}

func (e *Evaluator) evalRecordLit(st *stack.Stack, expr engine.Expr, _ pipedata.PipelineData) (pipedata.PipelineData, error) {
	rec := value.NewRecord()
	for i := range expr.RecordKeys {
		keyOut, err := e.evalExpr(st, expr.RecordKeys[i], pipedata.Empty())
		if err != nil {
			return pipedata.Empty(), err
		}
		keyVal, _ := keyOut.IntoValue(expr.Span)
		valOut, err := e.evalExpr(st, expr.RecordVals[i], pipedata.Empty())
		if err != nil {
			return pipedata.Empty(), err
		}
		v, err := valOut.IntoValue(expr.Span)
		if err != nil {
			return pipedata.Empty(), err
		}
		rec.Set(keyVal.Display(), v)
	}
	return pipedata.FromValue(value.RecordVal(rec, expr.Span)), nil
}

func (e *Evaluator) evalStringInterp(st *stack.Stack, expr engine.Expr, _ pipedata.PipelineData) (pipedata.PipelineData, error) {
	var b strings.Builder
	for _, part := range expr.Parts {
		out, err := e.evalExpr(st, part, pipedata.Empty())
		if err != nil {
			return pipedata.Empty(), err
		}
		v, err := out.IntoValue(part.Span)
		if err != nil {
			return pipedata.Empty(), err
		}
		b.WriteString(v.Display())
	}
	return pipedata.FromValue(value.String(b.String(), expr.Span)), nil
}

func (e *Evaluator) evalRange(st *stack.Stack, expr engine.Expr) (pipedata.PipelineData, error) {
	startOut, err := e.evalExpr(st, *expr.RangeStart, pipedata.Empty())
	if err != nil {
		return pipedata.Empty(), err
	}
	startVal, _ := startOut.IntoValue(expr.Span)
	r := value.Range{Start: startVal.AsInt(), Inclusive: expr.RangeIncl, HasEnd: expr.RangeEnd != nil}
	if expr.RangeEnd != nil {
		endOut, err := e.evalExpr(st, *expr.RangeEnd, pipedata.Empty())
		if err != nil {
			return pipedata.Empty(), err
		}
		endVal, _ := endOut.IntoValue(expr.Span)
		r.End = endVal.AsInt()
	}
	r.Step = 1
	return pipedata.FromValue(value.RangeVal(r, expr.Span)), nil
}

func (e *Evaluator) evalCellPath(st *stack.Stack, expr engine.Expr, _ pipedata.PipelineData) (pipedata.PipelineData, error) {
	baseOut, err := e.evalExpr(st, *expr.Base, pipedata.Empty())
	if err != nil {
		return pipedata.Empty(), err
	}
	baseVal, err := baseOut.IntoValue(expr.Span)
	if err != nil {
		return pipedata.Empty(), err
	}
	result, err := value.Follow(baseVal, expr.Members)
	if err != nil {
		return pipedata.Empty(), translateCellPathError(expr.Span, err)
	}
	return pipedata.FromValue(result), nil
}

func translateCellPathError(sp source.Span, err error) error {
	switch e := err.(type) {
	case *value.ErrColumnNotFound:
		return pkgerrors.NewColumnNotFound(sp, e.Column)
	case *value.ErrIndexOutOfBounds:
		return pkgerrors.NewOutOfBounds(sp, e.Index, e.Length)
	default:
		return pkgerrors.NewTypeMismatch(sp, "record or list", "incompatible value")
	}
}

// EvalExpr evaluates a single already-parsed expression, exported for
// internal/command to use when it needs a bound value from an Arg's Expr
// without the ceremony of wrapping it in a Block (e.g. building argv for
// an external process, spec §4.10).
func (e *Evaluator) EvalExpr(st *stack.Stack, expr engine.Expr, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	return e.evalExpr(st, expr, input)
}

// State exposes the bound Engine State so internal/command can resolve
// Declaration metadata (signatures, UserDefinedBody, PluginIdentity) when
// dispatching a call (spec §4.8).
func (e *Evaluator) State() *engine.State { return e.state }

// Context exposes the evaluator's cancellation context so internal/command
// can thread it into external processes and plugin calls (spec §5)
// without needing to import the Signal type itself.
func (e *Evaluator) Context() context.Context { return e.signal.Context() }

// CallClosure binds args positionally to a closure's declared parameters
// (falling back to captures for anything unbound) and evaluates its body
// in a fresh child stack, used by builtins that accept a closure argument
// such as each/where/par-each (spec §4.8 "Builtin: native Go function").
func (e *Evaluator) CallClosure(st *stack.Stack, clos *value.Closure, args []value.Value, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	block, err := e.state.GetBlock(engine.BlockID(clos.BlockID))
	if err != nil {
		return pipedata.Empty(), err
	}
	child := st.Child()
	for id, v := range clos.Captures {
		child.SetVar(id, v)
	}
	for i, param := range block.Params {
		if i < len(args) {
			child.SetVar(int(param), args[i])
		}
	}
	out, err := e.EvalBlock(child, block.ID, input)
	if err != nil {
		if cf, ok := err.(controlFlow); ok && cf.kind == cfReturn {
			return pipedata.FromValue(cf.value), nil
		}
		return pipedata.Empty(), err
	}
	return out, nil
}

func (e *Evaluator) evalClosureLit(st *stack.Stack, expr engine.Expr) value.Value {
	block, err := e.state.GetBlock(expr.ClosureBlock)
	captures := make(map[int]value.Value)
	if err == nil {
		for _, id := range block.Captures {
			if v, ok := st.GetVar(int(id)); ok {
				captures[int(id)] = v // capture by value, per spec §4.7
			}
		}
	}
	return value.ClosureVal(&value.Closure{BlockID: int(expr.ClosureBlock), Captures: captures}, expr.Span)
}

func (e *Evaluator) evalIf(st *stack.Stack, expr engine.Expr, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	condOut, err := e.evalExpr(st, *expr.Cond, pipedata.Empty())
	if err != nil {
		return pipedata.Empty(), err
	}
	condVal, err := condOut.IntoValue(expr.Span)
	if err != nil {
		return pipedata.Empty(), err
	}
	if condVal.Kind != value.KindBool {
		return pipedata.Empty(), pkgerrors.NewTypeMismatch(expr.Span, "bool", condVal.Kind.String())
	}
	if condVal.AsBool() {
		return e.EvalBlock(st.Child(), expr.ThenBody, input)
	}
	if expr.ElseBody != nil {
		return e.EvalBlock(st.Child(), *expr.ElseBody, input)
	}
	return pipedata.FromValue(value.Nothing(expr.Span)), nil
}

func (e *Evaluator) evalFor(st *stack.Stack, expr engine.Expr, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	iterOut, err := e.evalExpr(st, *expr.Iterable, pipedata.Empty())
	if err != nil {
		return pipedata.Empty(), err
	}
	items, err := e.materializeIterable(iterOut, expr.Span)
	if err != nil {
		return pipedata.Empty(), err
	}
	for _, item := range items {
		if e.signal.Cancelled() {
			return pipedata.Empty(), pkgerrors.NewCancellation(expr.Span)
		}
		child := st.Child()
		child.SetVar(int(expr.LoopVar), item)
		_, err := e.EvalBlock(child, expr.Body, input)
		if err != nil {
			if cf, ok := err.(controlFlow); ok {
				if cf.kind == cfBreak {
					break
				}
				if cf.kind == cfContinue {
					continue
				}
				return pipedata.Empty(), err // cfReturn propagates
			}
			return pipedata.Empty(), err
		}
	}
	return pipedata.Empty(), nil
}

func (e *Evaluator) evalWhile(st *stack.Stack, expr engine.Expr, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	for {
		if e.signal.Cancelled() {
			return pipedata.Empty(), pkgerrors.NewCancellation(expr.Span)
		}
		condOut, err := e.evalExpr(st, *expr.Cond, pipedata.Empty())
		if err != nil {
			return pipedata.Empty(), err
		}
		condVal, err := condOut.IntoValue(expr.Span)
		if err != nil {
			return pipedata.Empty(), err
		}
		if condVal.Kind != value.KindBool {
			return pipedata.Empty(), pkgerrors.NewTypeMismatch(expr.Span, "bool", condVal.Kind.String())
		}
		if !condVal.AsBool() {
			return pipedata.Empty(), nil
		}
		_, err = e.EvalBlock(st.Child(), expr.Body, input)
		if err != nil {
			if cf, ok := err.(controlFlow); ok {
				if cf.kind == cfBreak {
					return pipedata.Empty(), nil
				}
				if cf.kind == cfContinue {
					continue
				}
				return pipedata.Empty(), err
			}
			return pipedata.Empty(), err
		}
	}
}

func (e *Evaluator) evalLoop(st *stack.Stack, expr engine.Expr, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	for {
		if e.signal.Cancelled() {
			return pipedata.Empty(), pkgerrors.NewCancellation(expr.Span)
		}
		_, err := e.EvalBlock(st.Child(), expr.Body, input)
		if err != nil {
			if cf, ok := err.(controlFlow); ok {
				if cf.kind == cfBreak {
					return pipedata.Empty(), nil
				}
				if cf.kind == cfContinue {
					continue
				}
				return pipedata.Empty(), err
			}
			return pipedata.Empty(), err
		}
	}
}

func (e *Evaluator) materializeIterable(pd pipedata.PipelineData, sp source.Span) ([]value.Value, error) {
	if ls, ok := pd.AsListStream(); ok {
		return ls.Collect()
	}
	v, err := pd.IntoValue(sp)
	if err != nil {
		return nil, err
	}
	switch v.Kind {
	case value.KindList:
		return v.AsList(), nil
	case value.KindRange:
		return materializeRange(v.AsRange(), sp), nil
	default:
		return []value.Value{v}, nil
	}
}

func materializeRange(r *value.Range, sp source.Span) []value.Value {
	var out []value.Value
	step := r.Step
	if step == 0 {
		step = 1
	}
	if !r.HasEnd {
		return out // an unbounded range is only safe to iterate with an external limiter; spec leaves infinite `for` on an open range as caller responsibility
	}
	for i := r.Start; (step > 0 && i <= r.End) || (step < 0 && i >= r.End); i += step {
		if !r.Inclusive && i == r.End {
			break
		}
		out = append(out, value.Int(i, sp))
	}
	return out
}

func (e *Evaluator) evalMatch(st *stack.Stack, expr engine.Expr, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	subjOut, err := e.evalExpr(st, *expr.Subject, pipedata.Empty())
	if err != nil {
		return pipedata.Empty(), err
	}
	subjVal, err := subjOut.IntoValue(expr.Span)
	if err != nil {
		return pipedata.Empty(), err
	}
	for _, arm := range expr.Arms {
		child := st.Child()
		if matchPattern(child, arm.Pattern, subjVal) {
			return e.evalExpr(child, arm.Body, input)
		}
	}
	return pipedata.Empty(), pkgerrors.NewUserRaised("no match arm matched", expr.Span, nil, "")
}

func matchPattern(st *stack.Stack, pat engine.Pattern, v value.Value) bool {
	switch pat.Kind {
	case engine.PatternWildcard:
		return true
	case engine.PatternVariable:
		st.SetVar(int(pat.VarID), v)
		return true
	case engine.PatternLiteral:
		return pat.Literal != nil && value.Equal(*pat.Literal, v)
	case engine.PatternList:
		if v.Kind != value.KindList {
			return false
		}
		items := v.AsList()
		if len(pat.Elements) != len(items) {
			return false
		}
		for i, sub := range pat.Elements {
			if !matchPattern(st, sub, items[i]) {
				return false
			}
		}
		return true
	case engine.PatternRecord:
		if v.Kind != value.KindRecord {
			return false
		}
		rec := v.AsRecord()
		for _, key := range pat.FieldOrder {
			field, ok := rec.Get(key)
			if !ok {
				return false
			}
			if !matchPattern(st, pat.Fields[key], field) {
				return false
			}
		}
		return true
	case engine.PatternRest:
		st.SetVar(int(pat.VarID), v)
		return true
	default:
		return false
	}
}

func (e *Evaluator) evalTry(st *stack.Stack, expr engine.Expr, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	result, err := e.EvalBlock(st.Child(), expr.TryBody, input)
	isErrVal := false
	if v, ok := result.AsValue(); ok && v.Kind == value.KindError {
		isErrVal = true
	}
	if err == nil && !isErrVal {
		return result, nil
	}
	if _, ok := err.(controlFlow); ok {
		return pipedata.Empty(), err // break/continue/return pass through try
	}
	if expr.CatchBody == nil {
		return pipedata.Empty(), nil
	}
	child := st.Child()
	if expr.CatchVar != nil {
		var errVal value.Value
		if isErrVal {
			errVal, _ = result.AsValue()
		} else if se, ok := err.(*pkgerrors.ShellError); ok {
			errVal = value.Error(&value.ShellErrorValue{Code: se.Code, Headline: se.Headline, Help: se.Help}, expr.Span)
		} else {
			errVal = value.Error(&value.ShellErrorValue{Headline: fmt.Sprint(err)}, expr.Span)
		}
		child.SetVar(int(*expr.CatchVar), errVal)
	}
	return e.EvalBlock(child, *expr.CatchBody, input)
}

func (e *Evaluator) evalBinaryOp(st *stack.Stack, expr engine.Expr, _ pipedata.PipelineData) (pipedata.PipelineData, error) {
	if expr.Left == nil { // unary `not`
		rightOut, err := e.evalExpr(st, *expr.Right, pipedata.Empty())
		if err != nil {
			return pipedata.Empty(), err
		}
		rv, err := rightOut.IntoValue(expr.Span)
		if err != nil {
			return pipedata.Empty(), err
		}
		if rv.Kind != value.KindBool {
			return pipedata.Empty(), pkgerrors.NewTypeMismatch(expr.Span, "bool", rv.Kind.String())
		}
		return pipedata.FromValue(value.Bool(!rv.AsBool(), expr.Span)), nil
	}

	leftOut, err := e.evalExpr(st, *expr.Left, pipedata.Empty())
	if err != nil {
		return pipedata.Empty(), err
	}
	lv, err := leftOut.IntoValue(expr.Span)
	if err != nil {
		return pipedata.Empty(), err
	}

	if expr.Op == "and" && !mustBool(lv) {
		return pipedata.FromValue(value.Bool(false, expr.Span)), nil
	}
	if expr.Op == "or" && mustBool(lv) {
		return pipedata.FromValue(value.Bool(true, expr.Span)), nil
	}

	rightOut, err := e.evalExpr(st, *expr.Right, pipedata.Empty())
	if err != nil {
		return pipedata.Empty(), err
	}
	rv, err := rightOut.IntoValue(expr.Span)
	if err != nil {
		return pipedata.Empty(), err
	}

	result, err := value.BinaryOp(expr.Op, lv, rv)
	if err != nil {
		return pipedata.Empty(), pkgerrors.NewTypeMismatch(expr.Span, "compatible operands", fmt.Sprintf("%s %s %s", lv.Kind, expr.Op, rv.Kind))
	}
	return pipedata.FromValue(result), nil
}

func mustBool(v value.Value) bool {
	return v.Kind == value.KindBool && v.AsBool()
}

// IsReturnSignal reports whether err is a `return` control-flow signal,
// and if so the returned value. internal/command does not use it (it
// cannot import this package); a `return` escaping a UserDefined
// declaration's body is turned into the call's result where evalExpr
// evaluates the call expression.
func IsReturnSignal(err error) (value.Value, bool) {
	cf, ok := err.(controlFlow)
	if !ok || cf.kind != cfReturn {
		return value.Value{}, false
	}
	return cf.value, true
}

// IsControlFlow reports whether err is any control-flow signal (so
// callers at a block boundary that does not itself handle break/continue
// can tell it apart from a real evaluation error).
func IsControlFlow(err error) bool {
	_, ok := err.(controlFlow)
	return ok
}

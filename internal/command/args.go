package command

import (
	"github.com/glint-shell/glint/internal/domain/engine"
	"github.com/glint-shell/glint/internal/domain/pipedata"
	"github.com/glint-shell/glint/internal/domain/source"
	"github.com/glint-shell/glint/internal/domain/stack"
	"github.com/glint-shell/glint/internal/domain/value"
	pkgerrors "github.com/glint-shell/glint/pkg/errors"
)

// CallArgs is the evaluated, signature-bound argument set a builtin or
// user-defined body sees: positionals in declared order, the rest slice
// (if the signature declares one), and flags by long name — including
// switches, which are present with a Bool(true) value (spec §4.8
// "Evaluate each positional/rest/flag argument... bind to the Signature").
type CallArgs struct {
	Positional []value.Value
	Rest       []value.Value
	Flags      map[string]value.Value
	CallName   string
	Span       source.Span
}

func (c CallArgs) Flag(name string) (value.Value, bool) {
	v, ok := c.Flags[name]
	return v, ok
}

func (c CallArgs) Switch(name string) bool {
	v, ok := c.Flags[name]
	return ok && v.Kind == value.KindBool && v.AsBool()
}

func (c CallArgs) Pos(i int) (value.Value, bool) {
	if i < 0 || i >= len(c.Positional) {
		return value.Value{}, false
	}
	return c.Positional[i], true
}

// bindArgs evaluates every call-site Arg and matches it against decl's
// Signature (spec §4.8). Bundled short flags (e.g. "-abc", exposed by the
// parser as one Arg with a multi-letter Name, see internal/parser's
// parseArg doc comment) are expanded here into one switch per letter.
func bindArgs(ev Evaluator, st *stack.Stack, decl engine.Declaration, expr engine.Expr, input pipedata.PipelineData) (CallArgs, error) {
	call := CallArgs{Flags: make(map[string]value.Value), CallName: expr.CallName, Span: expr.Span}

	var expanded []engine.Arg
	for _, a := range expr.Args {
		if a.Kind == engine.ArgNamedFlag && len(a.Name) > 1 {
			if _, ok := decl.Signature.FindFlag(a.Name); !ok {
				// Multi-letter name not itself a declared long flag:
				// treat as a bundle of short switches.
				isBundle := true
				for _, r := range a.Name {
					if _, ok := decl.Signature.FindShortFlag(r); !ok {
						isBundle = false
						break
					}
				}
				if isBundle {
					for i, r := range a.Name {
						val := a.Value
						if i < len(a.Name)-1 {
							val = engine.Expr{Kind: engine.ExprLiteral, Literal: value.Bool(true, expr.Span)}
						}
						if flag, ok := decl.Signature.FindShortFlag(r); ok {
							expanded = append(expanded, engine.Arg{Kind: engine.ArgNamedFlag, Name: flag.Long, Value: val})
							continue
						}
					}
					continue
				}
			}
		}
		expanded = append(expanded, a)
	}

	var positionals []value.Value
	for _, a := range expanded {
		switch a.Kind {
		case engine.ArgPositional:
			v, err := evalArgValue(ev, st, a.Value)
			if err != nil {
				return CallArgs{}, err
			}
			positionals = append(positionals, v)
		case engine.ArgNamedFlag:
			name := a.Name
			if len(name) == 1 && !hasLongFlag(decl, name) {
				if flag, ok := decl.Signature.FindShortFlag(runeOf(name)); ok {
					name = flag.Long
				}
			}
			v, err := evalArgValue(ev, st, a.Value)
			if err != nil {
				return CallArgs{}, err
			}
			call.Flags[name] = v
		case engine.ArgRest:
			v, err := evalArgValue(ev, st, a.Value)
			if err != nil {
				return CallArgs{}, err
			}
			call.Rest = append(call.Rest, v)
		}
	}

	required := len(decl.Signature.RequiredPositional)
	if len(positionals) < required {
		missing := decl.Signature.RequiredPositional[len(positionals)]
		return CallArgs{}, pkgerrors.NewMissingPositional(expr.Span, missing.Name)
	}
	optionalTotal := required + len(decl.Signature.OptionalPositional)
	if len(positionals) > optionalTotal && decl.Signature.RestPositional == nil {
		// extra positionals with no rest slot: nothing to bind them to,
		// but since this is a gradually typed surface we pass them through
		// as rest rather than erroring, matching spec §4.8's leniency for
		// `def --wrapped` forwarding.
		call.Positional = positionals[:optionalTotal]
		call.Rest = append(positionals[optionalTotal:], call.Rest...)
	} else {
		call.Positional = positionals
	}
	return call, nil
}

func hasLongFlag(decl engine.Declaration, name string) bool {
	_, ok := decl.Signature.FindFlag(name)
	return ok
}

func runeOf(s string) rune {
	if s == "" {
		return 0
	}
	return []rune(s)[0]
}

func evalArgValue(ev Evaluator, st *stack.Stack, e engine.Expr) (value.Value, error) {
	out, err := ev.EvalExpr(st, e, pipedata.Empty())
	if err != nil {
		return value.Value{}, err
	}
	return out.IntoValue(e.Span)
}

// bindParams binds a CallArgs onto the variable ids a UserDefined body
// declared for its positionals/rest/flags, in the fixed order
// internal/parser's parseDef registers them (required, optional, rest,
// flags — see that file's doc comment on Block.Params).
func bindParams(st *stack.Stack, sig engine.Signature, params []engine.VarID, call CallArgs) {
	i := 0
	for range sig.RequiredPositional {
		if i < len(params) {
			if v, ok := call.Pos(i); ok {
				st.SetVar(int(params[i]), v)
			}
			i++
		}
	}
	for j := range sig.OptionalPositional {
		if i < len(params) {
			if v, ok := call.Pos(len(sig.RequiredPositional) + j); ok {
				st.SetVar(int(params[i]), v)
			} else if sig.OptionalPositional[j].Default != nil {
				st.SetVar(int(params[i]), *sig.OptionalPositional[j].Default)
			}
			i++
		}
	}
	if sig.RestPositional != nil && i < len(params) {
		st.SetVar(int(params[i]), value.List(call.Rest, call.Span))
		i++
	}
	for _, flag := range sig.NamedFlags {
		if i >= len(params) {
			break
		}
		if v, ok := call.Flag(flag.Long); ok {
			st.SetVar(int(params[i]), v)
		} else if flag.Default != nil {
			st.SetVar(int(params[i]), *flag.Default)
		} else if flag.IsSwitch {
			st.SetVar(int(params[i]), value.Bool(false, call.Span))
		}
		i++
	}
}

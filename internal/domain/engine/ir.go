// Package engine implements Engine State and the IR it stores (spec §3.4,
// §3.5, §3.6, §4.3): an append-only arena of declarations, blocks, modules
// and plugins, mutated only through a Working Set overlay. Grounded in the
// teacher's engine package (internal/engine/dag.go, executor.go), which
// models an append-only node store keyed by id and a separate execution
// pass over it; here the "nodes" are parser-time declarations/blocks
// instead of DAG steps, and the "execution pass" is the tree-walking
// evaluator in internal/eval.
package engine

import (
	"github.com/glint-shell/glint/internal/domain/source"
	"github.com/glint-shell/glint/internal/domain/value"
)

// DeclID, BlockID, ModuleID, VarID, PluginID are opaque handles into Engine
// State, assigned monotonically as entries are appended.
type (
	DeclID   int
	BlockID  int
	ModuleID int
	VarID    int
	PluginID int
)

// DispatchKind selects how a Declaration is invoked (spec §3.4, §9
// "Declaration = Builtin | UserDefined(block_id) | Alias(expr) |
// Plugin(…) | Keyword").
type DispatchKind int

const (
	DispatchBuiltin DispatchKind = iota
	DispatchUserDefined
	DispatchAlias
	DispatchPlugin
	DispatchKeyword
	DispatchExternal
)

// Flag describes one named argument of a Signature: either a switch (no
// value) or a typed value flag, with an optional short character.
type Flag struct {
	Long        string
	Short       rune
	HasShort    bool
	IsSwitch    bool
	Shape       TypeShape
	Required    bool
	Default     *value.Value
	Description string
}

// Positional describes one positional slot of a Signature.
type Positional struct {
	Name        string
	Shape       TypeShape
	Optional    bool
	Description string
	Default     *value.Value
}

// TypeShape is the gradual-typing annotation attached to positionals,
// flags, and input/output pairs (spec §1 Non-goals: "gradually typed").
type TypeShape int

const (
	ShapeAny TypeShape = iota
	ShapeInt
	ShapeFloat
	ShapeString
	ShapeBool
	ShapeRecord
	ShapeList
	ShapeBlock
	ShapeClosure
	ShapeRange
	ShapeCellPath
	ShapeNothing
	ShapeBinary
	ShapeDate
	ShapeDuration
	ShapeFilesize
)

func (t TypeShape) String() string {
	names := [...]string{"any", "int", "float", "string", "bool", "record", "list", "block", "closure", "range", "cell-path", "nothing", "binary", "date", "duration", "filesize"}
	if int(t) < len(names) {
		return names[t]
	}
	return "any"
}

// IOPair is one declared (input, output) type pair of a Signature (spec
// §3.4: "declared input/output type pairs").
type IOPair struct {
	Input  TypeShape
	Output TypeShape
}

// Signature is the ordered shape of a Declaration's call surface (spec
// §3.4).
type Signature struct {
	RequiredPositional []Positional
	OptionalPositional []Positional
	RestPositional      *Positional
	NamedFlags          []Flag
	IOPairs             []IOPair
	IsWrapped           bool // `def --wrapped`: unknown flags forward as strings
	IsEnv               bool // `def --env`: may mutate caller's environment
}

func (s Signature) FindFlag(name string) (Flag, bool) {
	for _, f := range s.NamedFlags {
		if f.Long == name {
			return f, true
		}
	}
	return Flag{}, false
}

func (s Signature) FindShortFlag(short rune) (Flag, bool) {
	for _, f := range s.NamedFlags {
		if f.HasShort && f.Short == short {
			return f, true
		}
	}
	return Flag{}, false
}

// Declaration is a named, callable entity (spec §3.4).
type Declaration struct {
	ID              DeclID
	Name            string // may be multi-word, e.g. "str length"
	Signature       Signature
	Category        string
	Description     string
	ExtendedDesc    string
	SearchTerms     []string
	Examples        []string
	Dispatch        DispatchKind
	UserDefinedBody BlockID   // valid when Dispatch == DispatchUserDefined
	AliasExpr       *Expr     // valid when Dispatch == DispatchAlias
	PluginIdentity  PluginID  // valid when Dispatch == DispatchPlugin
	BuiltinRunID    string    // name used to look up a Go function in the builtin table
}

// Module groups declarations under a namespace, created by `module` /
// `export module` (spec §4.5).
type Module struct {
	ID      ModuleID
	Name    string
	DeclIDs []DeclID
}

// Variable is a named binding slot; its id is what Stack.vars is keyed by
// (spec §3.6, §4.6).
type Variable struct {
	ID       VarID
	Name     string
	Mutable  bool
	Declared TypeShape
}

// Block is the IR of parsed source (spec §3.5): an ordered list of
// Pipelines.
type Block struct {
	ID         BlockID
	Pipelines  []Pipeline
	Span       source.Span
	// Params holds the VarIDs of a closure/def body's declared parameters
	// in declaration order; Captures holds the var ids a closure body
	// captures from its defining scope.
	Params     []VarID
	Captures   []VarID
}

// Pipeline is an ordered list of PipelineElements (spec §3.5).
type Pipeline struct {
	Elements []PipelineElement
	Span     source.Span
}

// RedirectKind enumerates the redirection operators of spec §4.4/§4.5.
type RedirectKind int

const (
	RedirectNone RedirectKind = iota
	RedirectStdout
	RedirectStderr
	RedirectStdoutAndStderr
	RedirectAppend
)

// Redirection attaches an optional output target to a PipelineElement.
type Redirection struct {
	Kind   RedirectKind
	Target Expr // typically a string literal/expr producing a file path
}

// PipelineElement is an expression plus an optional redirection (spec
// §3.5).
type PipelineElement struct {
	Expr       Expr
	Redirect   *Redirection
}

// ExprKind enumerates the expression-tree node kinds of spec §3.5.
type ExprKind int

const (
	ExprLiteral ExprKind = iota
	ExprVarRef
	ExprCall
	ExprBinaryOp
	ExprClosureLit
	ExprFullRange
	ExprCellPathAccess
	ExprSubExpression
	ExprIf
	ExprFor
	ExprMatch
	ExprTry
	ExprList
	ExprRecord
	ExprStringInterp
	ExprBreak
	ExprContinue
	ExprReturn
	ExprLet
	ExprMut
	ExprWhile
	ExprLoop
)

// MatchArm is one `pattern => expr` arm of a match expression (spec §4.7).
type MatchArm struct {
	Pattern Pattern
	Body    Expr
}

// PatternKind enumerates match patterns (spec §4.7).
type PatternKind int

const (
	PatternLiteral PatternKind = iota
	PatternVariable
	PatternRecord
	PatternList
	PatternRest
	PatternWildcard
)

// Pattern is one match arm's pattern tree.
type Pattern struct {
	Kind       PatternKind
	Literal    *value.Value
	VarID      VarID
	Fields     map[string]Pattern // PatternRecord
	FieldOrder []string
	Elements   []Pattern // PatternList
}

// Expr is one node of the expression tree (spec §3.5). Only the fields
// relevant to Kind are populated; this mirrors the teacher's tagged-struct
// convention (config.Step) rather than a Go interface hierarchy, chosen so
// the evaluator can switch exhaustively over ExprKind in one function.
type Expr struct {
	Kind ExprKind
	Span source.Span

	Literal value.Value // ExprLiteral

	VarID VarID // ExprVarRef, ExprLet, ExprMut target

	// ExprCall
	CallDecl DeclID
	CallName string // used when resolution is deferred to dispatch time (aliases, externals)
	Args     []Arg

	// ExprBinaryOp
	Op    string
	Left  *Expr
	Right *Expr

	// ExprClosureLit
	ClosureBlock BlockID

	// ExprFullRange
	RangeStart *Expr
	RangeEnd   *Expr
	RangeStep  *Expr
	RangeIncl  bool

	// ExprCellPathAccess
	Base    *Expr
	Members []value.PathMember

	// ExprSubExpression
	SubBlock BlockID

	// ExprIf
	Cond     *Expr
	ThenBody BlockID
	ElseBody *BlockID

	// ExprFor / ExprWhile / ExprLoop
	LoopVar  VarID
	Iterable *Expr
	Body     BlockID

	// ExprMatch
	Subject *Expr
	Arms    []MatchArm

	// ExprTry
	TryBody   BlockID
	CatchVar  *VarID
	CatchBody *BlockID

	// ExprList / ExprRecord
	Elements    []Expr
	RecordKeys  []Expr
	RecordVals  []Expr

	// ExprStringInterp
	Parts []Expr

	// ExprReturn
	ReturnVal *Expr

	// ExprLet / ExprMut
	Init *Expr
}

// ArgKind distinguishes positional, flag, and rest arguments at a call
// site.
type ArgKind int

const (
	ArgPositional ArgKind = iota
	ArgNamedFlag
	ArgRest
)

// Arg is one evaluated-at-dispatch-time argument expression bound to a
// call (spec §4.8 "Evaluate each positional/rest/flag argument").
type Arg struct {
	Kind  ArgKind
	Name  string // for ArgNamedFlag
	Value Expr
}

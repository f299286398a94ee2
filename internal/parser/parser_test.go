package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glint-shell/glint/internal/domain/engine"
	"github.com/glint-shell/glint/internal/domain/value"
)

func parseFresh(t *testing.T, src string) (Result, *engine.WorkingSet) {
	t.Helper()
	ws := engine.NewWorkingSet(engine.NewState())
	return Parse(0, src, ws), ws
}

func TestParseUnknownBareCallLeavesCallDeclZeroButSucceeds(t *testing.T) {
	res, _ := parseFresh(t, "echo hello")
	require.Empty(t, res.Errors)
	require.Len(t, res.Block.Pipelines, 1)

	call := res.Block.Pipelines[0].Elements[0].Expr
	require.Equal(t, engine.ExprCall, call.Kind)
	require.Equal(t, "echo", call.CallName)
	require.Equal(t, engine.DeclID(0), call.CallDecl)
	require.Len(t, call.Args, 1)
	require.Equal(t, "hello", call.Args[0].Value.Literal.AsString())
}

func TestParseBareWordAloneParsesAsZeroArgCall(t *testing.T) {
	res, _ := parseFresh(t, "hello")
	require.Empty(t, res.Errors)
	call := res.Block.Pipelines[0].Elements[0].Expr
	require.Equal(t, engine.ExprCall, call.Kind)
	require.Equal(t, "hello", call.CallName)
	require.Empty(t, call.Args)
}

func TestParsePipelineProducesOneElementPerStage(t *testing.T) {
	res, _ := parseFresh(t, "ls | where size > 10 | first")
	require.Empty(t, res.Errors)
	require.Len(t, res.Block.Pipelines[0].Elements, 3)
}

func TestParseLetBindsVariableResolvableByLaterVarRef(t *testing.T) {
	res, _ := parseFresh(t, "let x = 5\necho $x")
	require.Empty(t, res.Errors)
	require.Len(t, res.Block.Pipelines, 2)

	letExpr := res.Block.Pipelines[0].Elements[0].Expr
	require.Equal(t, engine.ExprLet, letExpr.Kind)

	call := res.Block.Pipelines[1].Elements[0].Expr
	varRef := call.Args[0].Value
	require.Equal(t, engine.ExprVarRef, varRef.Kind)
	require.Equal(t, letExpr.VarID, varRef.VarID)
}

func TestParseLetMissingAssignAccumulatesErrorButStillReturnsBlock(t *testing.T) {
	res, _ := parseFresh(t, "let x 5")
	require.NotEmpty(t, res.Errors)
	require.NotNil(t, res.Block)
}

func TestParseIfElseNestsElseBodyAsBlock(t *testing.T) {
	res, _ := parseFresh(t, "if true { echo 1 } else { echo 2 }")
	require.Empty(t, res.Errors)

	ifExpr := res.Block.Pipelines[0].Elements[0].Expr
	require.Equal(t, engine.ExprIf, ifExpr.Kind)
	require.NotNil(t, ifExpr.ElseBody)
}

func TestParseDefRegistersForwardReferencableDeclaration(t *testing.T) {
	res, _ := parseFresh(t, "def greet [name: string] {\n  echo $name\n}\ngreet world")
	require.Empty(t, res.Errors)
	require.Len(t, res.Block.Pipelines, 2)

	call := res.Block.Pipelines[1].Elements[0].Expr
	require.Equal(t, engine.ExprCall, call.Kind)
	require.True(t, call.CallDecl < 0, "call should resolve to the forward-declared decl's still-unmerged placeholder id")
}

func TestParseRecordLiteralVsClosureDisambiguation(t *testing.T) {
	res, _ := parseFresh(t, "{a: 1, b: 2}")
	require.Empty(t, res.Errors)
	recExpr := res.Block.Pipelines[0].Elements[0].Expr
	require.Equal(t, engine.ExprRecord, recExpr.Kind)
	require.Len(t, recExpr.RecordKeys, 2)

	res2, _ := parseFresh(t, "{|x| echo $x}")
	require.Empty(t, res2.Errors)
	closureExpr := res2.Block.Pipelines[0].Elements[0].Expr
	require.Equal(t, engine.ExprClosureLit, closureExpr.Kind)
}

func TestParseNumberLiteralsWithUnitSuffixes(t *testing.T) {
	res, _ := parseFresh(t, "10kb")
	require.Empty(t, res.Errors)
	lit := res.Block.Pipelines[0].Elements[0].Expr.Literal
	require.Equal(t, value.KindFilesize, lit.Kind)
	require.Equal(t, int64(10000), lit.AsFilesize())

	res2, _ := parseFresh(t, "5sec")
	require.Empty(t, res2.Errors)
	lit2 := res2.Block.Pipelines[0].Elements[0].Expr.Literal
	require.Equal(t, value.KindDuration, lit2.Kind)
	require.InDelta(t, float64(5), lit2.AsDuration().Seconds(), 0.0001)
}

func TestParseStringInterpolationSplitsLiteralAndExprParts(t *testing.T) {
	res, _ := parseFresh(t, `$"value: (1 + 1)"`)
	require.Empty(t, res.Errors)
	interp := res.Block.Pipelines[0].Elements[0].Expr
	require.Equal(t, engine.ExprStringInterp, interp.Kind)
	require.Len(t, interp.Parts, 2)
	require.Equal(t, "value: ", interp.Parts[0].Literal.AsString())
	require.Equal(t, engine.ExprBinaryOp, interp.Parts[1].Kind)
}

func TestParseQuotedCommandNameIsMultiWordJoinedBySpace(t *testing.T) {
	ws := engine.NewWorkingSet(engine.NewState())
	ws.AddDecl(&engine.Declaration{Name: "str length", Dispatch: engine.DispatchBuiltin})
	res := Parse(0, "str length", ws)
	require.Empty(t, res.Errors)
	call := res.Block.Pipelines[0].Elements[0].Expr
	require.Equal(t, "str length", call.CallName)
}

func TestParseUnexpectedTokenAccumulatesErrorAndKeepsParsing(t *testing.T) {
	res, _ := parseFresh(t, ")\necho 1")
	require.NotEmpty(t, res.Errors)
	require.Len(t, res.Block.Pipelines, 2)
}

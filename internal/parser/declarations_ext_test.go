package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glint-shell/glint/internal/domain/engine"
)

func TestParseExportDefDispatchesToDef(t *testing.T) {
	res, _ := parseFresh(t, "export def greet [name: string] {\n  echo $name\n}\ngreet world")
	require.Empty(t, res.Errors)
	require.Len(t, res.Block.Pipelines, 2)

	call := res.Block.Pipelines[1].Elements[0].Expr
	require.Equal(t, engine.ExprCall, call.Kind)
	require.True(t, call.CallDecl < 0, "greet should resolve to its forward-declared placeholder id")
}

func TestParseExportAliasDoesNotMisparseAsDef(t *testing.T) {
	res, ws := parseFresh(t, "export alias ll = ls -l")
	require.Empty(t, res.Errors)

	entry, ok := ws.Resolve("ll")
	require.True(t, ok)
	require.NotNil(t, entry.DeclID)

	merged := ws.Merge()
	require.Len(t, merged.Decls, 1)
	require.Equal(t, "ll", merged.Decls[0].Name)
	require.Equal(t, engine.DispatchAlias, merged.Decls[0].Dispatch, "export alias should stage an alias declaration, not a def")
	require.NotNil(t, merged.Decls[0].AliasExpr)
}

func TestParseExportModuleDispatchesToModule(t *testing.T) {
	res, ws := parseFresh(t, "export module tools { export def one [] { echo 1 } }")
	require.Empty(t, res.Errors)

	merged := ws.Merge()
	require.Len(t, merged.Modules, 1)
	require.Equal(t, "tools", merged.Modules[0].Name)
	require.Len(t, merged.Modules[0].DeclIDs, 1, "only the export-prefixed member should land in DeclIDs")
}

func TestParseModuleCapturesOnlyExportedMembers(t *testing.T) {
	base := engine.NewState()
	ws := engine.NewWorkingSet(base)
	res := Parse(0, `module math {
  export def add [] { echo 1 }
  def helper [] { echo 2 }
  export def sub [] { echo 3 }
}`, ws)
	require.Empty(t, res.Errors)

	merged := ws.Merge()
	require.Len(t, merged.Modules, 1)
	mod := merged.Modules[0]
	require.Equal(t, "math", mod.Name)
	require.Len(t, mod.DeclIDs, 2, "helper is not exported and must not appear in DeclIDs")

	for _, id := range mod.DeclIDs {
		require.True(t, id >= 0, "DeclIDs should be remapped to final ids after Merge")
	}

	addDecl, err := base.GetDecl(mod.DeclIDs[0])
	require.NoError(t, err)
	require.Equal(t, "add", addDecl.Name)
	subDecl, err := base.GetDecl(mod.DeclIDs[1])
	require.NoError(t, err)
	require.Equal(t, "sub", subDecl.Name)
}

func TestParseModuleSurvivesMergeAndIsVisibleViaAllModules(t *testing.T) {
	base := engine.NewState()
	ws := engine.NewWorkingSet(base)
	res := Parse(0, "module empty { }", ws)
	require.Empty(t, res.Errors)

	ws.Merge()
	mods := base.AllModules()
	require.Len(t, mods, 1)
	require.Equal(t, "empty", mods[0].Name)
	require.True(t, mods[0].ID >= 0)
}

func TestParseUseResolvesLocalFilePath(t *testing.T) {
	dir := t.TempDir()
	modPath := filepath.Join(dir, "helpers.nu")
	require.NoError(t, os.WriteFile(modPath, []byte("export def double [] { echo 2 }\ndef private [] { echo 0 }"), 0o644))

	base := engine.NewState()
	ws := engine.NewWorkingSet(base)
	res := Parse(0, `use "`+modPath+`"`, ws)
	require.Empty(t, res.Errors)

	merged := ws.Merge()
	require.Len(t, merged.Modules, 1)
	require.Equal(t, "helpers", merged.Modules[0].Name, "module name should be derived from the file's base name, stripped of .nu")
	require.Len(t, merged.Modules[0].DeclIDs, 1, "only the export-prefixed def should be captured")

	decl, err := base.GetDecl(merged.Modules[0].DeclIDs[0])
	require.NoError(t, err)
	require.Equal(t, "double", decl.Name)
}

func TestParseUseMissingFileAccumulatesError(t *testing.T) {
	res, _ := parseFresh(t, `use "/does/not/exist/mod.nu"`)
	require.NotEmpty(t, res.Errors)
}

func TestParseConstBindsImmutableVariable(t *testing.T) {
	res, _ := parseFresh(t, "const PI = 3\necho $PI")
	require.Empty(t, res.Errors)
	require.Len(t, res.Block.Pipelines, 2)

	letExpr := res.Block.Pipelines[0].Elements[0].Expr
	require.Equal(t, engine.ExprLet, letExpr.Kind)

	call := res.Block.Pipelines[1].Elements[0].Expr
	varRef := call.Args[0].Value
	require.Equal(t, engine.ExprVarRef, varRef.Kind)
	require.Equal(t, letExpr.VarID, varRef.VarID)
}

func TestParseExternRegistersExternalDispatchDeclaration(t *testing.T) {
	res, ws := parseFresh(t, "extern \"git\" [args: string]")
	require.Empty(t, res.Errors)

	merged := ws.Merge()
	require.Len(t, merged.Decls, 1)
	decl := merged.Decls[0]
	require.Equal(t, "git", decl.Name)
	require.Equal(t, engine.DispatchExternal, decl.Dispatch)
	require.True(t, decl.Signature.IsWrapped)
}

func TestParseOverlayNewOpensNamedEmptyModuleScope(t *testing.T) {
	res, ws := parseFresh(t, "overlay new scratch\nlet x = 1")
	require.Empty(t, res.Errors)

	merged := ws.Merge()
	require.Len(t, merged.Modules, 1)
	require.Equal(t, "scratch", merged.Modules[0].Name)
	require.Empty(t, merged.Modules[0].DeclIDs)
}

func TestParseSourceSplicesDeclarationsIntoCallerScope(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "env.nu")
	require.NoError(t, os.WriteFile(srcPath, []byte("let spliced = 1"), 0o644))

	res, _ := parseFresh(t, `source "`+srcPath+`"`)
	require.Empty(t, res.Errors)
	require.Len(t, res.Block.Pipelines, 1)

	expr := res.Block.Pipelines[0].Elements[0].Expr
	require.Equal(t, engine.ExprSubExpression, expr.Kind, "source splices the sourced file's parsed body in place")
}

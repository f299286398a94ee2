package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeDeltaAssignsMonotonicIDs(t *testing.T) {
	s := NewState()
	d := Delta{
		Decls: []*Declaration{{Name: "foo"}, {Name: "bar"}},
	}
	merged := s.MergeDelta(d)

	require.Equal(t, DeclID(0), merged.Decls[0].ID)
	require.Equal(t, DeclID(1), merged.Decls[1].ID)

	id, ok := s.FindDecl("bar")
	require.True(t, ok)
	require.Equal(t, DeclID(1), id)
}

func TestGetDeclOutOfRangeErrors(t *testing.T) {
	s := NewState()
	_, err := s.GetDecl(0)
	require.Error(t, err)
}

func TestRegisterPluginAssignsSequentialIDs(t *testing.T) {
	s := NewState()
	a := s.RegisterPlugin("plugin.a", "/bin/a")
	b := s.RegisterPlugin("plugin.b", "/bin/b")

	require.Equal(t, PluginID(0), a)
	require.Equal(t, PluginID(1), b)

	reg, err := s.GetPlugin(b)
	require.NoError(t, err)
	require.Equal(t, "plugin.b", reg.Identity)
}

func TestWorkingSetResolveWalksScopesInnerToOuter(t *testing.T) {
	base := NewState()
	ws := NewWorkingSet(base)

	outer := ws.AddVariable("x", false, ShapeInt)
	ws.PushScope()
	inner := ws.AddVariable("x", false, ShapeString)

	entry, ok := ws.Resolve("x")
	require.True(t, ok)
	require.Equal(t, inner, *entry.VarID)

	ws.PopScope()
	entry, ok = ws.Resolve("x")
	require.True(t, ok)
	require.Equal(t, outer, *entry.VarID)
}

func TestWorkingSetHideMasksBinding(t *testing.T) {
	base := NewState()
	ws := NewWorkingSet(base)
	ws.AddVariable("secret", false, ShapeAny)
	ws.Hide("secret")

	_, ok := ws.Resolve("secret")
	require.False(t, ok)
}

func TestWorkingSetResolveFallsThroughToMergedState(t *testing.T) {
	base := NewState()
	base.MergeDelta(Delta{Decls: []*Declaration{{Name: "ls"}}})

	ws := NewWorkingSet(base)
	entry, ok := ws.Resolve("ls")
	require.True(t, ok)
	require.Equal(t, DeclID(0), *entry.DeclID)
}

func TestWorkingSetMergeRemapsPlaceholderIDs(t *testing.T) {
	base := NewState()
	ws := NewWorkingSet(base)

	block := &Block{
		Pipelines: []Pipeline{{
			Elements: []PipelineElement{{
				Expr: Expr{Kind: ExprCall, CallName: "echo"},
			}},
		}},
	}
	blockID := ws.AddBlock(block)
	require.True(t, blockID < 0, "placeholder block id should be negative before merge")

	ws.Merge()

	require.True(t, block.ID >= 0, "block id should be finalized after merge")
	resolved, err := base.GetBlock(block.ID)
	require.NoError(t, err)
	require.Equal(t, "echo", resolved.Pipelines[0].Elements[0].Expr.CallName)
}

func TestWorkingSetMergeRemapsNestedClosureBlockReference(t *testing.T) {
	base := NewState()
	ws := NewWorkingSet(base)

	closureBody := ws.AddBlock(&Block{})
	outer := &Block{
		Pipelines: []Pipeline{{
			Elements: []PipelineElement{{
				Expr: Expr{Kind: ExprClosureLit, ClosureBlock: closureBody},
			}},
		}},
	}
	ws.AddBlock(outer)
	ws.Merge()

	require.True(t, outer.Pipelines[0].Elements[0].Expr.ClosureBlock >= 0)
}

func TestFindDeclOrCreatePluginStagesPlaceholderOnMiss(t *testing.T) {
	base := NewState()
	ws := NewWorkingSet(base)

	id, found := ws.FindDeclOrCreatePlugin("my plugin command", Signature{}, PluginID(3))
	require.False(t, found)
	require.True(t, id < 0)

	id2, found2 := ws.FindDeclOrCreatePlugin("my plugin command", Signature{}, PluginID(3))
	require.True(t, found2)
	require.Equal(t, id, id2)
}

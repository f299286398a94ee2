package stack

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glint-shell/glint/internal/domain/source"
	"github.com/glint-shell/glint/internal/domain/value"
)

func TestSetVarAndGetVar(t *testing.T) {
	s := New()
	s.SetVar(1, value.Int(42, source.Unknown))

	v, ok := s.GetVar(1)
	require.True(t, ok)
	require.Equal(t, int64(42), v.AsInt())

	_, ok = s.GetVar(2)
	require.False(t, ok)
}

func TestChildFallsThroughToParentForVars(t *testing.T) {
	parent := New()
	parent.SetVar(1, value.String("outer", source.Unknown))

	child := parent.Child()
	v, ok := child.GetVar(1)
	require.True(t, ok)
	require.Equal(t, "outer", v.AsString())

	child.SetVar(1, value.String("inner", source.Unknown))
	childVal, _ := child.GetVar(1)
	parentVal, _ := parent.GetVar(1)
	require.Equal(t, "inner", childVal.AsString())
	require.Equal(t, "outer", parentVal.AsString())
}

func TestEnvOverlayPushPop(t *testing.T) {
	s := New()
	s.SetEnv("FOO", value.String("base", source.Unknown))

	s.PushOverlay("extra")
	s.SetEnv("FOO", value.String("overlay", source.Unknown))
	v, ok := s.GetEnv("FOO")
	require.True(t, ok)
	require.Equal(t, "overlay", v.AsString())

	s.PopOverlay()
	v, ok = s.GetEnv("FOO")
	require.True(t, ok)
	require.Equal(t, "base", v.AsString())
}

func TestPopOverlayNeverDropsBaseOverlay(t *testing.T) {
	s := New()
	s.PopOverlay()
	s.PopOverlay()
	s.SetEnv("X", value.Int(1, source.Unknown))
	_, ok := s.GetEnv("X")
	require.True(t, ok)
}

func TestHideEnvMasksValue(t *testing.T) {
	s := New()
	s.SetEnv("SECRET", value.String("shh", source.Unknown))
	s.HideEnv("SECRET")

	_, ok := s.GetEnv("SECRET")
	require.False(t, ok)
}

func TestAllEnvFlattensOverlaysInnermostWins(t *testing.T) {
	s := New()
	s.SetEnv("A", value.Int(1, source.Unknown))
	s.PushOverlay("top")
	s.SetEnv("A", value.Int(2, source.Unknown))
	s.SetEnv("B", value.Int(3, source.Unknown))

	all := s.AllEnv()
	require.Equal(t, int64(2), all["A"].AsInt())
	require.Equal(t, int64(3), all["B"].AsInt())
}

func TestAllEnvHonorsHidesAcrossLayers(t *testing.T) {
	s := New()
	s.SetEnv("A", value.Int(1, source.Unknown))
	s.PushOverlay("top")
	s.HideEnv("A")

	all := s.AllEnv()
	_, present := all["A"]
	require.False(t, present)
}

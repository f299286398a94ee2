package value

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glint-shell/glint/internal/domain/source"
)

func TestRecordPreservesInsertionOrderOnOverwrite(t *testing.T) {
	r := NewRecord()
	r.Set("b", Int(2, source.Unknown))
	r.Set("a", Int(1, source.Unknown))
	r.Set("b", Int(20, source.Unknown))

	require.Equal(t, []string{"b", "a"}, r.Keys())
	v, ok := r.Get("b")
	require.True(t, ok)
	require.Equal(t, int64(20), v.AsInt())
}

func TestRecordCloneIsIndependent(t *testing.T) {
	r := NewRecord()
	r.Set("x", Int(1, source.Unknown))

	clone := r.Clone()
	clone.Set("y", Int(2, source.Unknown))

	require.Equal(t, 1, r.Len())
	require.Equal(t, 2, clone.Len())
}

func TestDisplayRendersEachKind(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want string
	}{
		{"nothing", Nothing(source.Unknown), ""},
		{"bool true", Bool(true, source.Unknown), "true"},
		{"bool false", Bool(false, source.Unknown), "false"},
		{"int", Int(42, source.Unknown), "42"},
		{"string", String("hi", source.Unknown), "hi"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.v.Display())
		})
	}
}

func TestDisplayRendersListsAndRecords(t *testing.T) {
	list := List([]Value{Int(1, source.Unknown), Int(2, source.Unknown)}, source.Unknown)
	require.Equal(t, "[1, 2]", list.Display())

	rec := NewRecord()
	rec.Set("name", String("glint", source.Unknown))
	require.Equal(t, "{name: glint}", RecordVal(rec, source.Unknown).Display())
}

func TestFilesizeDisplayUsesBinaryUnits(t *testing.T) {
	require.Equal(t, "512 B", Filesize(512, source.Unknown).Display())
	require.Equal(t, "1.0 KiB", Filesize(1024, source.Unknown).Display())
}

func TestEqualComparesStructurally(t *testing.T) {
	a := List([]Value{Int(1, source.Unknown), String("x", source.Unknown)}, source.Unknown)
	b := List([]Value{Int(1, source.Unknown), String("x", source.Unknown)}, source.Unknown)
	c := List([]Value{Int(1, source.Unknown), String("y", source.Unknown)}, source.Unknown)

	require.True(t, Equal(a, b))
	require.False(t, Equal(a, c))
	require.False(t, Equal(Int(1, source.Unknown), String("1", source.Unknown)))
}

func TestCompareNumericCrossKind(t *testing.T) {
	c, err := Compare(Int(1, source.Unknown), Float(2.0, source.Unknown))
	require.NoError(t, err)
	require.Equal(t, -1, c)
}

func TestCompareMismatchedKindsErrors(t *testing.T) {
	_, err := Compare(String("a", source.Unknown), Int(1, source.Unknown))
	require.Error(t, err)
	require.Contains(t, err.Error(), "type mismatch")
}

func TestSortRecordsByFieldAscendingAndDescending(t *testing.T) {
	rec := func(n int64) Value {
		r := NewRecord()
		r.Set("n", Int(n, source.Unknown))
		return RecordVal(r, source.Unknown)
	}
	items := []Value{rec(3), rec(1), rec(2)}

	SortRecordsByField(items, "n", true)
	require.Equal(t, []int64{1, 2, 3}, extractN(items))

	SortRecordsByField(items, "n", false)
	require.Equal(t, []int64{3, 2, 1}, extractN(items))
}

func extractN(items []Value) []int64 {
	out := make([]int64, len(items))
	for i, item := range items {
		v, _ := item.AsRecord().Get("n")
		out[i] = v.AsInt()
	}
	return out
}

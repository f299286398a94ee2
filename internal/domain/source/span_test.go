package source

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddFileReturnsMonotonicIDs(t *testing.T) {
	s := NewStore()
	a := s.AddFile("a.nu", "echo 1")
	b := s.AddFile("b.nu", "echo 2")

	require.Equal(t, 0, a)
	require.Equal(t, 1, b)
	require.Equal(t, "a.nu", s.FileName(a))
	require.Equal(t, "echo 2", s.Content(b))
}

func TestUnknownSpan(t *testing.T) {
	require.True(t, Unknown.IsUnknown())
	require.False(t, (Span{FileID: 0}).IsUnknown())
}

func TestSliceClampsToFileBounds(t *testing.T) {
	s := NewStore()
	id := s.AddFile("f.nu", "0123456789")

	require.Equal(t, "234", s.Slice(Span{FileID: id, Start: 2, End: 5}))
	require.Equal(t, "6789", s.Slice(Span{FileID: id, Start: 6, End: 100}))
	require.Equal(t, "", s.Slice(Span{FileID: id, Start: 5, End: 2}))
	require.Equal(t, "", s.Slice(Unknown))
}

func TestLineColResolvesMultilineOffsets(t *testing.T) {
	s := NewStore()
	id := s.AddFile("f.nu", "abc\ndef\nghi")

	line, col := s.LineCol(id, 0)
	require.Equal(t, 1, line)
	require.Equal(t, 1, col)

	line, col = s.LineCol(id, 4)
	require.Equal(t, 2, line)
	require.Equal(t, 1, col)

	line, col = s.LineCol(id, 9)
	require.Equal(t, 3, line)
	require.Equal(t, 2, col)
}

func TestDescribeAndContext(t *testing.T) {
	s := NewStore()
	id := s.AddFile("f.nu", "let x = 1\necho $x")

	sp := Span{FileID: id, Start: 4, End: 5}
	require.Equal(t, "f.nu:1:5", s.Describe(sp))

	ctx := s.Context(sp)
	require.Contains(t, ctx, "let x = 1")
	require.Contains(t, ctx, "^")

	require.Equal(t, "<unknown>", s.Describe(Unknown))
	require.Equal(t, "", s.Context(Unknown))
}

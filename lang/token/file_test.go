package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileSetPosition(t *testing.T) {
	fset := NewFileSet()
	f := fset.AddFile("test.gib", 20)
	f.AddLine(5)
	f.AddLine(12)

	cases := []struct {
		offset   int
		wantLine int
		wantCol  int
	}{
		{0, 1, 1},
		{4, 1, 5},
		{5, 2, 1},
		{11, 2, 7},
		{12, 3, 1},
	}
	for _, c := range cases {
		pos := f.Pos(c.offset)
		got := f.Position(pos)
		require.Equal(t, c.wantLine, got.Line, "offset %d", c.offset)
		require.Equal(t, c.wantCol, got.Col, "offset %d", c.offset)
		require.Equal(t, c.offset, f.Offset(pos))
	}
}

func TestFileSetMultipleFiles(t *testing.T) {
	fset := NewFileSet()
	f0 := fset.AddFile("a.gib", 10)
	f1 := fset.AddFile("b.gib", 10)

	require.Same(t, f0, fset.File(f0.Pos(0)))
	require.Same(t, f1, fset.File(f1.Pos(0)))
	require.Same(t, f0, fset.FileByID(f0.ID()))
	require.Same(t, f1, fset.FileByID(f1.ID()))
}

func TestPosInside(t *testing.T) {
	require.True(t, Inside(Span{1, 4}, Span{3, 4}))
	require.False(t, Inside(Span{1, 2}, Span{3, 4}))
}

func TestLookup(t *testing.T) {
	require.Equal(t, STRUCT, Lookup("struct"))
	require.Equal(t, IDENT, Lookup("foo"))
}

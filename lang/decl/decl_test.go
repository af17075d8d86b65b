package decl_test

import (
	"testing"

	"github.com/mna/gib/lang/decl"
	"github.com/stretchr/testify/require"
)

func TestPathChildAndParent(t *testing.T) {
	root := decl.Root
	collections := root.Child("collections")
	list := collections.Child("list")

	require.Equal(t, "collections::list", list.String())
	require.Equal(t, []string{"collections", "list"}, list.Segments())
	require.Equal(t, collections, list.Parent())
	require.Equal(t, "list", list.Last())
}

func TestFromSlashed(t *testing.T) {
	require.Equal(t, decl.Root, decl.FromSlashed("."))
	require.Equal(t, decl.NewPath("a", "b"), decl.FromSlashed("a/b"))
}

func TestStoreInsertAndLookup(t *testing.T) {
	s := decl.NewStore(8)
	p := decl.NewPath("Pair")
	d := &decl.Decl{Path: p, Name: "Pair", Kind: decl.KindStruct}
	s.Insert(d)

	got, ok := s.Lookup(p)
	require.True(t, ok)
	require.Same(t, d, got)

	_, ok = s.Lookup(decl.NewPath("Missing"))
	require.False(t, ok)
}

func TestStoreChildrenSorted(t *testing.T) {
	s := decl.NewStore(8)
	parent := decl.Root
	s.Insert(&decl.Decl{Path: decl.NewPath("Zeta"), Name: "Zeta", Parent: parent, Kind: decl.KindStruct})
	s.Insert(&decl.Decl{Path: decl.NewPath("Alpha"), Name: "Alpha", Parent: parent, Kind: decl.KindStruct})

	children := s.Children(parent)
	require.Len(t, children, 2)
	require.Equal(t, "Alpha", children[0].Name)
	require.Equal(t, "Zeta", children[1].Name)
}

func TestImplIndex(t *testing.T) {
	ix := decl.NewImplIndex()
	p := decl.NewPath("K")
	i1 := &decl.Impl{}
	i2 := &decl.Impl{}
	ix.Add(p, i1)
	ix.Add(p, i2)

	got := ix.For(p)
	require.Len(t, got, 2)
	require.Equal(t, 0, got[0].ID)
	require.Equal(t, 1, got[1].ID)
}

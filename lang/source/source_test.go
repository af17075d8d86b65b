package source_test

import (
	"testing"
	"testing/fstest"

	"github.com/mna/gib/lang/source"
	"github.com/stretchr/testify/require"
)

func TestWalkOrdersDepthFirstSorted(t *testing.T) {
	fsys := fstest.MapFS{
		"b.gib":             {Data: []byte("struct B;")},
		"a.gib":             {Data: []byte("struct A;")},
		"collections/z.gib": {Data: []byte("struct Z;")},
		"collections/a.gib": {Data: []byte("struct CA;")},
		"readme.txt":        {Data: []byte("not source")},
	}
	root := source.Root(fsys, ".")

	var visited []string
	err := source.Walk(root, func(n *source.Node) bool {
		visited = append(visited, n.Path())
		return true
	})
	require.NoError(t, err)
	require.Equal(t, []string{".", "a.gib", "b.gib", "collections", "collections/a.gib", "collections/z.gib", "readme.txt"}, visited)
}

func TestSourceFileDetection(t *testing.T) {
	fsys := fstest.MapFS{
		"a.gib":      {Data: []byte("struct A;")},
		"readme.txt": {Data: []byte("x")},
	}
	root := source.Root(fsys, ".")
	children, err := root.Children()
	require.NoError(t, err)
	require.Len(t, children, 2)

	var gotSource, gotOther *source.Node
	for _, c := range children {
		if c.IsSourceFile() {
			gotSource = c
		} else {
			gotOther = c
		}
	}
	require.NotNil(t, gotSource)
	require.NotNil(t, gotOther)
	require.Equal(t, "a.gib", gotSource.Name())

	data, err := gotSource.Source()
	require.NoError(t, err)
	require.Equal(t, "struct A;", string(data))
}

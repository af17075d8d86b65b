package ir_test

import (
	"testing"
	"testing/fstest"

	"github.com/mna/gib/lang/check"
	"github.com/mna/gib/lang/diag"
	"github.com/mna/gib/lang/ir"
	"github.com/mna/gib/lang/resolver"
	"github.com/mna/gib/lang/source"
	"github.com/stretchr/testify/require"
)

func checkFS(t *testing.T, files fstest.MapFS) (*resolver.Project, []*check.CheckResult) {
	t.Helper()
	root := source.Root(files, ".")
	var errs diag.List
	proj := resolver.Resolve(root, &errs)
	require.Equal(t, 0, errs.Len())
	_, checkErrs, results := check.CheckProject(proj)
	require.Equal(t, 0, checkErrs.Len())
	return proj, results
}

func TestBuildAttachesExprTypes(t *testing.T) {
	proj, results := checkFS(t, fstest.MapFS{
		"math.gib": {Data: []byte(`
fn double(x: Int): Int {
	let y = x + x;
	return y;
}
`)},
	})
	require.Len(t, results, 1)

	pf := proj.Files[0]
	file := ir.Build(proj.Store, pf, results[0].Funcs)
	require.NotNil(t, file.Root)

	var toks []ir.SemanticToken
	file.Root.Tokens(&toks)
	require.NotEmpty(t, toks)

	var found bool
	for _, tok := range toks {
		n := file.AtOffset(tok.Span.Start)
		require.NotNil(t, n)
		if s, ok := n.Hover(); ok && s == "Int" {
			found = true
		}
	}
	require.True(t, found, "expected at least one Int-typed node")
}

func TestHoverReportsStructTypedNode(t *testing.T) {
	proj, results := checkFS(t, fstest.MapFS{
		"shapes.gib": {Data: []byte(`
struct Circle { r: Float }
fn radius(c: Circle): Float {
	return c.r;
}
`)},
	})

	var funcResult *check.FuncResult
	for _, res := range results {
		for _, fr := range res.Funcs {
			if fr.Decl.Name == "radius" {
				funcResult = fr
			}
		}
	}
	require.NotNil(t, funcResult)

	pf := proj.Files[0]
	file := ir.Build(proj.Store, pf, []*check.FuncResult{funcResult})

	var receiverIdent *ir.Node
	var walk func(n *ir.Node)
	walk = func(n *ir.Node) {
		if n == nil {
			return
		}
		if id, ok := n.Hover(); ok && id == "Circle" {
			receiverIdent = n
		}
		for _, k := range n.Kids {
			walk(k)
		}
	}
	walk(file.Root)
	require.NotNil(t, receiverIdent)
}

package resolver_test

import (
	"testing"
	"testing/fstest"

	"github.com/mna/gib/lang/decl"
	"github.com/mna/gib/lang/diag"
	"github.com/mna/gib/lang/resolver"
	"github.com/mna/gib/lang/source"
	"github.com/stretchr/testify/require"
)

func resolveFS(t *testing.T, files fstest.MapFS) (*resolver.Project, *diag.List) {
	t.Helper()
	root := source.Root(files, ".")
	var errs diag.List
	return resolver.Resolve(root, &errs), &errs
}

func TestResolveStructAndModulePath(t *testing.T) {
	proj, errs := resolveFS(t, fstest.MapFS{
		"collections/pair.gib": {Data: []byte(`struct Pair[T] { a: T, b: T }`)},
	})
	require.Equal(t, 0, errs.Len())

	d, ok := proj.Store.Lookup(decl.NewPath("collections", "Pair"))
	require.True(t, ok)
	require.Equal(t, decl.KindStruct, d.Kind)
	body := d.Body.(*decl.StructBody)
	require.Len(t, body.Fields, 2)

	mod, ok := proj.Store.Lookup(decl.NewPath("collections"))
	require.True(t, ok)
	require.Equal(t, decl.KindModule, mod.Kind)
}

func TestResolveEnumVariants(t *testing.T) {
	proj, errs := resolveFS(t, fstest.MapFS{
		"opt.gib": {Data: []byte(`enum Opt[T] { Some(T), None }`)},
	})
	require.Equal(t, 0, errs.Len())

	e, ok := proj.Store.Lookup(decl.NewPath("Opt"))
	require.True(t, ok)
	body := e.Body.(*decl.EnumBody)
	require.Len(t, body.Variants, 2)

	some, ok := proj.Store.Lookup(body.Variants[0])
	require.True(t, ok)
	require.Equal(t, decl.KindMember, some.Kind)
}

func TestResolveImplIndexedByFromType(t *testing.T) {
	proj, errs := resolveFS(t, fstest.MapFS{
		"shapes.gib": {Data: []byte(`
trait Shape { fn area(self): Float; }
struct Circle;
impl Shape for Circle { fn area(self): Float { return 1; } }
`)},
	})
	require.Equal(t, 0, errs.Len())

	impls := proj.Impls.For(decl.NewPath("Circle"))
	require.Len(t, impls, 1)
	require.Len(t, impls[0].Funcs, 1)
	require.Equal(t, "area", impls[0].Funcs[0].Name)
}

func TestResolveDuplicateDeclReportsError(t *testing.T) {
	_, errs := resolveFS(t, fstest.MapFS{
		"dup.gib": {Data: []byte(`
struct K;
struct K;
`)},
	})
	require.Greater(t, errs.Len(), 0)
}

func TestResolveImplWithNonNamedFromTypeErrors(t *testing.T) {
	_, errs := resolveFS(t, fstest.MapFS{
		"bad.gib": {Data: []byte(`impl Shape for (Int, Int) { fn f(self) { } }`)},
	})
	require.Greater(t, errs.Len(), 0)
}

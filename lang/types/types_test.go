package types_test

import (
	"testing"

	"github.com/mna/gib/lang/decl"
	"github.com/mna/gib/lang/types"
	"github.com/stretchr/testify/require"
)

func TestEqualAndString(t *testing.T) {
	a := &types.Tuple{Elems: []types.Type{types.Int(), types.Bool()}}
	b := &types.Tuple{Elems: []types.Type{types.Int(), types.Bool()}}
	require.True(t, types.Equal(a, b))
	require.Equal(t, "(Int, Bool)", a.String())
}

func TestIsSubtypeAnyAndNothing(t *testing.T) {
	require.True(t, types.IsSubtype(types.Int(), types.Any{}, nil, nil))
	require.True(t, types.IsSubtype(types.Nothing{}, types.Int(), nil, nil))
	require.False(t, types.IsSubtype(types.Int(), types.String(), nil, nil))
}

func TestIsSubtypeTuplesElementwise(t *testing.T) {
	a := &types.Tuple{Elems: []types.Type{types.Int(), types.Int()}}
	b := &types.Tuple{Elems: []types.Type{types.Any{}, types.Int()}}
	require.True(t, types.IsSubtype(a, b, nil, nil))

	c := &types.Tuple{Elems: []types.Type{types.Int()}}
	require.False(t, types.IsSubtype(a, c, nil, nil))
}

func TestIsSubtypeFunctionVariance(t *testing.T) {
	// fn(Any): Int <: fn(Int): Any  (contravariant args, covariant ret)
	narrow := &types.Function{Args: []types.Type{types.Any{}}, Ret: types.Int()}
	wide := &types.Function{Args: []types.Type{types.Int()}, Ret: types.Any{}}
	require.True(t, types.IsSubtype(narrow, wide, nil, nil))
	require.False(t, types.IsSubtype(wide, narrow, nil, nil))
}

type fakeImpls struct {
	edges map[decl.Path][]types.ImplEdge
}

func (f *fakeImpls) For(p decl.Path) []types.ImplEdge { return f.edges[p] }

func TestIsSubtypeThroughImplChain(t *testing.T) {
	circle := decl.NewPath("Circle")
	shape := decl.NewPath("Shape")
	drawable := decl.NewPath("Drawable")

	impls := &fakeImpls{edges: map[decl.Path][]types.ImplEdge{
		circle: {{From: &types.Named{Path: circle}, To: &types.Named{Path: shape}}},
		shape:  {{From: &types.Named{Path: shape}, To: &types.Named{Path: drawable}}},
	}}

	require.True(t, types.IsSubtype(&types.Named{Path: circle}, &types.Named{Path: drawable}, impls, nil))
}

func TestIsSubtypeThroughGenericImpl(t *testing.T) {
	box := decl.NewPath("Box")
	container := decl.NewPath("Container")

	// impl[T] Container[T] for Box[T]
	impls := &fakeImpls{edges: map[decl.Path][]types.ImplEdge{
		box: {{
			Generics: []*types.Generic{{Name: "T"}},
			From:     &types.Named{Path: box, Args: []types.Type{&types.Generic{Name: "T"}}},
			To:       &types.Named{Path: container, Args: []types.Type{&types.Generic{Name: "T"}}},
		}},
	}}

	boxOfInt := &types.Named{Path: box, Args: []types.Type{types.Int()}}
	containerOfInt := &types.Named{Path: container, Args: []types.Type{types.Int()}}
	containerOfString := &types.Named{Path: container, Args: []types.Type{types.String()}}

	require.True(t, types.IsSubtype(boxOfInt, containerOfInt, impls, nil))
	require.False(t, types.IsSubtype(boxOfInt, containerOfString, impls, nil))
}

type fakeVarSink struct {
	resolved map[int]types.Type
}

func (f *fakeVarSink) LookupVar(id int) (types.Type, bool) { t, ok := f.resolved[id]; return t, ok }
func (f *fakeVarSink) ResolveVar(id int, t types.Type)     { f.resolved[id] = t }

func TestIsSubtypeBindsTypeVar(t *testing.T) {
	vars := &fakeVarSink{resolved: map[int]types.Type{}}
	require.True(t, types.IsSubtype(types.TypeVar{ID: 1}, types.Int(), nil, vars))
	got, ok := vars.LookupVar(1)
	require.True(t, ok)
	require.True(t, types.Equal(got, types.Int()))
}

type fakeAlloc struct{ next int }

func (a *fakeAlloc) NewVar(*types.Generic) int { a.next++; return a.next }

func TestInstantiateReplacesGenericsWithFreshVars(t *testing.T) {
	pair := decl.NewPath("Pair")
	generics := []*types.Generic{{Name: "T"}, {Name: "U"}}
	declTy := &types.Named{Path: pair, Args: []types.Type{&types.Generic{Name: "T"}, &types.Generic{Name: "U"}}}

	alloc := &fakeAlloc{}
	inst, ids := types.Instantiate(declTy, generics, alloc)

	named := inst.(*types.Named)
	require.Equal(t, types.TypeVar{ID: ids["T"]}, named.Args[0])
	require.Equal(t, types.TypeVar{ID: ids["U"]}, named.Args[1])
	require.NotEqual(t, ids["T"], ids["U"])
}

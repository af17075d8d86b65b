package tyvar_test

import (
	"testing"

	"github.com/mna/gib/lang/token"
	"github.com/mna/gib/lang/types"
	"github.com/mna/gib/lang/tyvar"
	"github.com/stretchr/testify/require"
)

func TestResolveIdempotence(t *testing.T) {
	s := tyvar.New()
	id := s.New()
	s.Resolve(id, types.Int())

	got, ok := s.LookupVar(id)
	require.True(t, ok)
	require.True(t, types.Equal(got, types.Int()))

	s.Merge(id, id) // no-op
	got2, ok := s.LookupVar(id)
	require.True(t, ok)
	require.True(t, types.Equal(got2, types.Int()))
}

func TestMergeConcatenatesBoundsAndUnifiesRepresentative(t *testing.T) {
	s := tyvar.New()
	a := s.NewWithBound(&types.Generic{Name: "T"}, token.Span{}, "f.gib")
	b := s.NewWithBound(&types.Generic{Name: "U"}, token.Span{}, "f.gib")

	s.Merge(a, b)
	require.Equal(t, s.Find(a), s.Find(b))

	data := s.Get(a)
	require.Len(t, data.Bounds, 2)
}

func TestMergeConflictingExplicitIsDiagnosedAndDeterministic(t *testing.T) {
	s := tyvar.New()
	a := s.New()
	b := s.New()
	s.Resolve(a, types.Int())
	s.Resolve(b, types.String())

	s.Merge(a, b)
	require.Len(t, s.Conflicts(), 1)

	// lower id (a) wins: representative resolves to Int, not String.
	root := s.Find(a)
	got, ok := s.LookupVar(root)
	require.True(t, ok)
	require.True(t, types.Equal(got, types.Int()))
}

func TestResolveVarThenLookupVarViaVarSinkInterface(t *testing.T) {
	s := tyvar.New()
	id := s.New()
	var sink types.VarSink = s
	sink.ResolveVar(id, types.Bool())

	got, ok := sink.LookupVar(id)
	require.True(t, ok)
	require.True(t, types.Equal(got, types.Bool()))
}

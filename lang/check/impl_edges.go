package check

import (
	"sort"

	"github.com/mna/gib/lang/decl"
	"github.com/mna/gib/lang/diag"
	"github.com/mna/gib/lang/resolver"
	"github.com/mna/gib/lang/types"
)

// implLookup is the types.ImplLookup built once per project by
// BuildImplEdges: a plain map lookup, no per-call resolution.
type implLookup struct {
	byPath map[decl.Path][]types.ImplEdge
}

func (l *implLookup) For(p decl.Path) []types.ImplEdge { return l.byPath[p] }

// BuildImplEdges walks proj.Impls once, resolving every impl's syntactic
// FromTy/ToTy (ast.TypeExpr) into semantic Types scoped to that impl's own
// declared generics, and returns a types.ImplLookup over the result
// (spec.md §4.B "sub-type enumeration via impls"). Diagnostics for
// unresolvable type names are appended to errs.
func BuildImplEdges(proj *resolver.Project, errs *diag.List) types.ImplLookup {
	l := &implLookup{byPath: map[decl.Path][]types.ImplEdge{}}
	for _, d := range proj.Store.All() {
		if d.Kind != decl.KindStruct && d.Kind != decl.KindEnum {
			continue
		}
		for _, imp := range proj.Impls.For(d.Path) {
			scope := newGenericScope(imp.Generics)
			fromTy := resolveTypeExpr(imp.FromTy, proj.Store, scope, errs, imp.File)
			fromNamed, ok := fromTy.(*types.Named)
			if !ok {
				continue
			}
			var generics []*types.Generic
			for _, g := range scope {
				generics = append(generics, g)
			}
			sort.Slice(generics, func(i, j int) bool { return generics[i].Name < generics[j].Name })
			if imp.ToTy == nil {
				// Concrete impl: it contributes methods but witnesses no
				// sub-type relation, so it needs no ImplEdge.
				continue
			}
			toTy := resolveTypeExpr(imp.ToTy, proj.Store, scope, errs, imp.File)
			l.byPath[d.Path] = append(l.byPath[d.Path], types.ImplEdge{
				Generics: generics,
				From:     fromNamed,
				To:       toTy,
			})
		}
	}
	return l
}

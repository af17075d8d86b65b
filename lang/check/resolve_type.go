package check

import (
	"fmt"

	"github.com/mna/gib/lang/ast"
	"github.com/mna/gib/lang/decl"
	"github.com/mna/gib/lang/diag"
	"github.com/mna/gib/lang/token"
	"github.com/mna/gib/lang/types"
)

// genericScope maps a generic's bare name to its resolved placeholder
// within the declaration currently being resolved (a struct/trait/impl/
// function's own `[T, U]` list).
type genericScope map[string]*types.Generic

func newGenericScope(gs []*ast.Generic) genericScope {
	if len(gs) == 0 {
		return nil
	}
	sc := make(genericScope, len(gs))
	for _, g := range gs {
		sc[g.Name] = &types.Generic{Name: g.Name, Variance: variance(g.Variance)}
	}
	return sc
}

func variance(v ast.Variance) types.Variance {
	switch v {
	case ast.Covariant:
		return types.Covariant
	case ast.Contravariant:
		return types.Contravariant
	default:
		return types.Invariant
	}
}

// resolveTypeExpr turns a syntactic type annotation into a semantic Type,
// looking up named paths in store and generic names in scope. It is used
// both for function signatures (State.resolveType) and, with a scope
// derived from an impl's own generics, for impl FromTy/ToTy (impl_edges.go).
func resolveTypeExpr(te ast.TypeExpr, store *decl.Store, scope genericScope, errs *diag.List, file string) types.Type {
	switch te := te.(type) {
	case nil:
		return types.Unit()
	case *ast.NamedTypeExpr:
		return resolveNamedTypeExpr(te, store, scope, errs, file)
	case *ast.TupleTypeExpr:
		elems := make([]types.Type, len(te.Elems))
		for i, e := range te.Elems {
			elems[i] = resolveTypeExpr(e, store, scope, errs, file)
		}
		return &types.Tuple{Elems: elems}
	case *ast.FuncTypeExpr:
		var recv types.Type
		if te.Receiver != nil {
			recv = resolveTypeExpr(te.Receiver, store, scope, errs, file)
		}
		args := make([]types.Type, len(te.Args))
		for i, a := range te.Args {
			args[i] = resolveTypeExpr(a, store, scope, errs, file)
		}
		ret := resolveTypeExpr(te.Ret, store, scope, errs, file)
		return &types.Function{Receiver: recv, Args: args, Ret: ret}
	case *ast.WildcardTypeExpr:
		start, end := te.Span()
		errs.Add(&diag.Diagnostic{
			Kind: diag.UnexpectedWildcard, File: file, Span: token.Span{Start: start, End: end},
			Message: "`_` is not allowed in a type annotation",
		})
		return types.Unknown{}
	default:
		return types.Unknown{}
	}
}

func resolveNamedTypeExpr(te *ast.NamedTypeExpr, store *decl.Store, scope genericScope, errs *diag.List, file string) types.Type {
	if len(te.Path) == 1 {
		if scope != nil {
			if g, ok := scope[te.Path[0]]; ok {
				return g
			}
		}
		switch te.Path[0] {
		case "Any":
			return types.Any{}
		case "Nothing":
			return types.Nothing{}
		}
	}
	p := decl.NewPath(te.Path...)
	args := make([]types.Type, len(te.Args))
	for i, a := range te.Args {
		args[i] = resolveTypeExpr(a, store, scope, errs, file)
	}
	if _, ok := store.Lookup(p); !ok {
		// the std prelude's type names are in scope bare everywhere
		if len(te.Path) == 1 {
			if sp := (decl.NewPath("std", te.Path[0])); pathIn(store, sp) {
				return &types.Named{Path: sp, Args: args}
			}
		}
		errs.Add(&diag.Diagnostic{
			Kind: diag.Unresolved, File: file, Span: token.Span{Start: te.Start, End: te.End},
			Message: fmt.Sprintf("undeclared type %q", p),
		})
		return types.Unknown{}
	}
	return &types.Named{Path: p, Args: args}
}

func pathIn(store *decl.Store, p decl.Path) bool {
	_, ok := store.Lookup(p)
	return ok
}

// resolveType is the State-bound convenience wrapper, resolving within the
// checker's current scope (so lexically visible generics are honored).
func (s *State) resolveType(te ast.TypeExpr) types.Type {
	return resolveTypeExpr(te, s.Project.Store, s.scopeGenerics(), s.Errs, s.File.Name())
}

// scopeGenerics flattens the currently visible generics into a genericScope
// for resolveTypeExpr.
func (s *State) scopeGenerics() genericScope {
	sc := genericScope{}
	for sv := s.Scope; sv != nil; sv = sv.Parent {
		for k, g := range sv.Generics {
			if _, ok := sc[k]; !ok {
				sc[k] = g
			}
		}
	}
	if len(sc) == 0 {
		return nil
	}
	return sc
}

package check

import (
	"github.com/mna/gib/lang/ast"
	"github.com/mna/gib/lang/decl"
	"github.com/mna/gib/lang/diag"
	"github.com/mna/gib/lang/types"
)

// finalizeTypes runs once a function body has been fully checked: every
// type variable recorded in the function's expression types is chased to
// its resolved value (spec.md §3: "every id present in the typed IR must
// be resolvable via the type-variable store at the end of checking").
// Vars left with no resolution fall back to a bound's super, or to Any
// when they have bounds but none names a super; only vars with no bound at
// all are diagnosed as UnboundTypeVar and substituted with Unknown, so the
// IR and the compiler never see a TypeVar. Merge conflicts recorded by the
// store are surfaced here as well, attributed to the function.
func (s *State) finalizeTypes(d *decl.Decl) {
	seen := map[int]bool{}
	for e, ty := range s.ExprTypes {
		s.ExprTypes[e] = s.finalType(e, ty, seen, 0)
	}
	for _, c := range s.Vars.Conflicts() {
		s.Errs.Add(&diag.Diagnostic{
			Kind: diag.Simple, File: d.File, Span: d.Span, Pos: s.pos(d.Span.Start),
			Message: c.Error(),
		})
	}
}

func (s *State) finalType(at ast.Expr, t types.Type, seen map[int]bool, depth int) types.Type {
	if depth > 64 {
		return types.Unknown{}
	}
	switch t := t.(type) {
	case types.TypeVar:
		if r, ok := s.Vars.LookupVar(t.ID); ok {
			return s.finalType(at, r, seen, depth+1)
		}
		// a bound is a usable constraint: fall back to its declared super
		// (the implicit Any bound when it names none)
		bounds := s.Vars.Get(t.ID).Bounds
		for _, b := range bounds {
			if b.Super != nil {
				return s.finalType(at, b.Super, seen, depth+1)
			}
		}
		if len(bounds) > 0 {
			return types.Any{}
		}
		if !seen[s.Vars.Find(t.ID)] {
			seen[s.Vars.Find(t.ID)] = true
			start, end := at.Span()
			s.Errs.Add(&diag.Diagnostic{
				Kind: diag.UnboundTypeVar, File: s.File.Name(), Span: s.span(start, end), Pos: s.pos(start),
				Message: "cannot infer a type here; add an annotation",
			})
		}
		return types.Unknown{}
	case *types.Named:
		args := make([]types.Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = s.finalType(at, a, seen, depth+1)
		}
		return &types.Named{Path: t.Path, Args: args}
	case *types.Tuple:
		elems := make([]types.Type, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = s.finalType(at, e, seen, depth+1)
		}
		return &types.Tuple{Elems: elems}
	case *types.Sum:
		elems := make([]types.Type, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = s.finalType(at, e, seen, depth+1)
		}
		return &types.Sum{Elems: elems}
	case *types.Function:
		var recv types.Type
		if t.Receiver != nil {
			recv = s.finalType(at, t.Receiver, seen, depth+1)
		}
		args := make([]types.Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = s.finalType(at, a, seen, depth+1)
		}
		return &types.Function{Receiver: recv, Args: args, Ret: s.finalType(at, t.Ret, seen, depth+1)}
	case *types.Meta:
		return &types.Meta{Of: s.finalType(at, t.Of, seen, depth+1)}
	default:
		return t
	}
}

package check

import (
	"fmt"

	"github.com/mna/gib/lang/ast"
	"github.com/mna/gib/lang/decl"
	"github.com/mna/gib/lang/diag"
	"github.com/mna/gib/lang/types"
)

// checkStmt checks one statement of a block (spec.md §4.B Block rule).
func (s *State) checkStmt(st ast.Stmt) {
	switch st := st.(type) {
	case *ast.LetStmt:
		s.checkLet(st)
	case *ast.AssignStmt:
		s.checkAssign(st)
	case *ast.ExprStmt:
		s.Check(st.X)
	case *ast.WhileStmt:
		s.checkWhile(st)
	case *ast.ForStmt:
		s.checkFor(st)
	case *ast.BreakStmt, *ast.ContinueStmt:
		// no type to produce; loop-nesting validity is a builder-time concern
		// (lang/cflow resolves break/continue targets structurally).
	case *ast.ReturnStmt:
		if st.Result != nil {
			s.Check(st.Result)
		}
	}
}

// checkLet implements spec.md §4.B's Let rule: an annotated let expects
// both the initializer and the pattern against the declared type;
// otherwise the pattern is expected against the initializer's inferred
// type.
func (s *State) checkLet(st *ast.LetStmt) {
	if st.Type != nil {
		want := s.resolveType(st.Type)
		s.Expect(st.Init, want)
		s.expectPattern(st.Pattern, want)
		return
	}
	got := s.Check(st.Init)
	s.expectPattern(st.Pattern, got)
}

// checkAssign implements spec.md §4.B's Assign rule: the LHS must be an
// identifier or a field access, and the RHS is expected against the LHS's
// type.
func (s *State) checkAssign(st *ast.AssignStmt) {
	switch lhs := st.Lhs.(type) {
	case *ast.Ident, *ast.FieldExpr:
		want := s.Check(lhs)
		s.Expect(st.Rhs, want)
	default:
		start, end := st.Lhs.Span()
		s.errorf(diag.Simple, start, end, "assignment target must be a variable or field")
		s.Check(st.Rhs)
	}
}

func (s *State) checkWhile(st *ast.WhileStmt) {
	sub := NewScope(s.Scope)
	saved := s.Scope
	s.Scope = sub
	s.checkCondition(st.Cond)
	s.Check(st.Body)
	s.Scope = saved
}

// checkFor checks a three-part for loop; spec.md §4.E lowers it as sugar
// over a While node at the control-flow stage, but checking treats init/
// cond/post/body as an ordinary nested scope.
func (s *State) checkFor(st *ast.ForStmt) {
	sub := NewScope(s.Scope)
	saved := s.Scope
	s.Scope = sub
	if st.Init != nil {
		s.checkStmt(st.Init)
	}
	if st.Cond != nil {
		s.Expect(st.Cond, types.Bool())
	}
	s.Check(st.Body)
	if st.Post != nil {
		s.checkStmt(st.Post)
	}
	s.Scope = saved
}

// expectPattern binds pat's variables against scrutinee's type, requiring
// structural compatibility (spec.md §3 "match patterns (including
// destructuring and literal exactness)").
func (s *State) expectPattern(pat ast.Pattern, scrutinee types.Type) {
	switch pat := pat.(type) {
	case *ast.WildcardPattern:
		// matches anything, binds nothing

	case *ast.BindPattern:
		ty := scrutinee
		if pat.Type != nil {
			ty = s.resolveType(pat.Type)
			s.checkIsInstance(pat, ty, scrutinee)
		}
		s.Scope.Define(&Var{Name: pat.Name, Ty: ty, Kind: KindVar})

	case *ast.LiteralPattern:
		litTy := s.Check(pat.Lit)
		s.checkIsInstance(pat, litTy, scrutinee)

	case *ast.TuplePattern:
		tup, ok := scrutinee.(*types.Tuple)
		if !ok || len(tup.Elems) != len(pat.Elems) {
			start, end := pat.Span()
			s.errorf(diag.Simple, start, end, "pattern of %d element(s) does not match %s", len(pat.Elems), scrutinee)
			for _, e := range pat.Elems {
				s.expectPattern(e, types.Unknown{})
			}
			return
		}
		for i, e := range pat.Elems {
			s.expectPattern(e, tup.Elems[i])
		}

	case *ast.StructPattern:
		s.expectStructPattern(pat, scrutinee)

	default:
		panic(fmt.Sprintf("check: unhandled pattern %T", pat))
	}
}

// expectStructPattern destructures a struct or enum-variant value,
// binding each field/position name against the matching declared field
// type, substituted for the scrutinee's own generic arguments when it is
// a Named instance.
func (s *State) expectStructPattern(pat *ast.StructPattern, scrutinee types.Type) {
	d, ok := s.resolveValuePath(pat.Path)
	if !ok {
		start, end := pat.Span()
		s.errorf(diag.Unresolved, start, end, "unresolved pattern path %q", decl.NewPath(pat.Path...))
		return
	}
	body, _ := d.Body.(*decl.StructBody)

	// bind the owner's generics to the scrutinee's own arguments so the
	// pattern's bindings come out concrete (Some(x) against Opt[Int]
	// binds x: Int).
	sub := map[string]types.Type{}
	if named, ok := s.resolvedType(scrutinee).(*types.Named); ok {
		sub = instanceArgSub(s.constructOwner(d), named)
	}
	scope := genericScopeFor(s.Project.Store, d)

	if body == nil {
		return
	}
	for i, elemPat := range pat.Tuple {
		var fieldTy types.Type = types.Unknown{}
		if i < len(body.Tuple) {
			fieldTy = types.SubstituteGenerics(resolveTypeExpr(body.Tuple[i], s.Project.Store, scope, s.Errs, d.File), sub)
		}
		s.expectPattern(elemPat, fieldTy)
	}
	for _, fp := range pat.Fields {
		var fieldTy types.Type = types.Unknown{}
		for _, sf := range body.Fields {
			if sf.Name == fp.Name {
				fieldTy = types.SubstituteGenerics(resolveTypeExpr(sf.Type, s.Project.Store, scope, s.Errs, d.File), sub)
			}
		}
		s.expectPattern(fp.Pattern, fieldTy)
	}
}

// bindPattern is the Condition-rule helper (spec.md §4.B Condition: "Let:
// pattern binds against scrutinee"): it binds without requiring an exact
// subtype match beyond what expectPattern already enforces.
func (s *State) bindPattern(pat ast.Pattern, scrutinee types.Type) {
	s.expectPattern(pat, scrutinee)
}

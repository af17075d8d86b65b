package check

import (
	"fmt"
	"sort"

	"github.com/mna/gib/lang/ast"
	"github.com/mna/gib/lang/decl"
	"github.com/mna/gib/lang/diag"
	"github.com/mna/gib/lang/token"
	"github.com/mna/gib/lang/types"
)

func (s *State) errorf(kind diag.Kind, start, end token.Pos, format string, args ...interface{}) {
	s.Errs.Add(&diag.Diagnostic{
		Kind: kind, File: s.File.Name(), Span: s.span(start, end), Pos: s.pos(start),
		Message: fmt.Sprintf(format, args...),
	})
}

func (s *State) isNotInstance(start, end token.Pos, want, got types.Type) {
	s.Errs.Add(&diag.Diagnostic{
		Kind: diag.IsNotInstance, File: s.File.Name(), Span: s.span(start, end), Pos: s.pos(start),
		Expected: want.String(), Found: got.String(),
	})
}

// Check infers x's type (spec.md §4.B "check(node) → ty"). The result is
// recorded against x so lang/ir can build the typed tree afterward without
// re-running the checker.
func (s *State) Check(x ast.Expr) types.Type {
	ty := s.checkDispatch(x)
	s.ExprTypes[x] = ty
	return ty
}

func (s *State) checkDispatch(x ast.Expr) types.Type {
	switch x := x.(type) {
	case *ast.IntLit:
		return types.Int()
	case *ast.FloatLit:
		return types.Float()
	case *ast.StringLit:
		return types.String()
	case *ast.CharLit:
		return types.Char()
	case *ast.BoolLit:
		return types.Bool()
	case *ast.Ident:
		return s.checkIdent(x)
	case *ast.TupleExpr:
		elems := make([]types.Type, len(x.Elems))
		for i, e := range x.Elems {
			elems[i] = s.Check(e)
		}
		return &types.Tuple{Elems: elems}
	case *ast.CallExpr:
		return s.checkCall(x)
	case *ast.MemberExpr:
		return s.checkMember(x)
	case *ast.FieldExpr:
		return s.checkField(x)
	case *ast.BinaryExpr:
		return s.checkBinary(x)
	case *ast.UnaryExpr:
		return s.checkUnary(x)
	case *ast.LambdaExpr:
		return s.checkLambda(x, nil)
	case *ast.BlockExpr:
		return s.checkBlock(x)
	case *ast.IfExpr:
		return s.checkIf(x, nil)
	case *ast.MatchExpr:
		return s.checkMatch(x, nil)
	case *ast.ConstructExpr:
		return s.checkConstruct(x)
	default:
		return types.Unknown{}
	}
}

// Expect verifies x against want, specializing into sub-terms where
// possible (spec.md §4.B "expect(node, expected) → ty"). Like Check, the
// result is recorded against x for lang/ir.
func (s *State) Expect(x ast.Expr, want types.Type) types.Type {
	ty := s.expectDispatch(x, want)
	s.ExprTypes[x] = ty
	return ty
}

func (s *State) expectDispatch(x ast.Expr, want types.Type) types.Type {
	switch x := x.(type) {
	case *ast.TupleExpr:
		wantTup, ok := want.(*types.Tuple)
		if !ok || len(wantTup.Elems) != len(x.Elems) {
			got := s.Check(x)
			s.checkIsInstance(x, got, want)
			return got
		}
		elems := make([]types.Type, len(x.Elems))
		for i, e := range x.Elems {
			elems[i] = s.Expect(e, wantTup.Elems[i])
		}
		return &types.Tuple{Elems: elems}
	case *ast.LambdaExpr:
		if fn, ok := want.(*types.Function); ok {
			return s.checkLambda(x, fn)
		}
		return s.Check(x)
	case *ast.IfExpr:
		return s.checkIf(x, want)
	case *ast.MatchExpr:
		return s.checkMatch(x, want)
	case *ast.BlockExpr:
		return s.checkBlockExpect(x, want)
	default:
		got := s.Check(x)
		s.checkIsInstance(x, got, want)
		return got
	}
}

func (s *State) checkIsInstance(x ast.Node, got, want types.Type) bool {
	if types.IsSubtype(got, want, s.Impls, s.Vars) {
		return true
	}
	start, end := x.Span()
	s.isNotInstance(start, end, want, got)
	return false
}

func (s *State) checkIdent(id *ast.Ident) types.Type {
	start, end := id.Span()
	if len(id.Path) == 1 {
		name := id.Path[0]
		if v, ok := s.Scope.LookupVar(name); ok {
			return v.Ty
		}
		if g, ok := s.Scope.LookupGeneric(name); ok {
			return &types.Meta{Of: g}
		}
	}
	if d, ok := s.resolveValuePath(id.Path); ok {
		return s.declRefType(d.Path, start, end)
	}
	s.errorf(diag.Unresolved, start, end, "unresolved name %q", decl.NewPath(id.Path...))
	return types.Unknown{}
}

// resolveValuePath resolves a constructor/pattern/value path per the name
// resolution order of spec.md §4.B: the current scope's imports, then the
// declaration tree by absolute path, then the std prelude, then a unique
// enum member by bare name (so a variant can be named without qualifying
// it by its enum once it is unambiguous project-wide).
func (s *State) resolveValuePath(path []string) (*decl.Decl, bool) {
	if len(path) == 1 {
		if p, ok := s.Scope.LookupImport(path[0]); ok {
			if d, ok := s.Project.Store.Lookup(p); ok {
				return d, true
			}
		}
	}
	if d, ok := s.Project.Store.Lookup(decl.NewPath(path...)); ok {
		return d, true
	}
	if len(path) == 1 {
		if d, ok := s.Project.Store.Lookup(decl.NewPath("std", path[0])); ok {
			return d, true
		}
		var found *decl.Decl
		for _, d := range s.Project.Store.All() {
			if d.Kind == decl.KindMember && d.Name == path[0] {
				if found != nil {
					return nil, false
				}
				found = d
			}
		}
		if found != nil {
			return found, true
		}
	}
	return nil, false
}

// declRefType types a bare reference to a declaration path: a type
// declaration yields Meta(Named), except a unit struct/variant which is
// already a value when named bare (spec.md §8 scenario 4: `let k: Show =
// K`); a function yields its instantiated Function type.
func (s *State) declRefType(p decl.Path, start, end token.Pos) types.Type {
	d, ok := s.Project.Store.Lookup(p)
	if !ok {
		s.errorf(diag.Unresolved, start, end, "unresolved name %q", p)
		return types.Unknown{}
	}
	switch d.Kind {
	case decl.KindStruct, decl.KindMember:
		if body, ok := d.Body.(*decl.StructBody); ok && body.IsUnit() {
			return s.construct(d, nil, start, end)
		}
		return &types.Meta{Of: &types.Named{Path: p}}
	case decl.KindEnum:
		return &types.Meta{Of: &types.Named{Path: p}}
	case decl.KindFunction:
		return s.funcType(d)
	default:
		return types.Unknown{}
	}
}

func (s *State) funcType(d *decl.Decl) types.Type {
	fb := d.Body.(*decl.FuncBody)
	scope := methodGenericScope(s.Project.Store, d)
	var recv types.Type
	if fb.Receiver != nil {
		recv = resolveTypeExpr(fb.Receiver, s.Project.Store, scope, s.Errs, d.File)
	}
	args := make([]types.Type, len(fb.Args))
	for i, a := range fb.Args {
		args[i] = resolveTypeExpr(a.Type, s.Project.Store, scope, s.Errs, d.File)
	}
	ret := resolveTypeExpr(fb.Ret, s.Project.Store, scope, s.Errs, d.File)
	fn := &types.Function{Receiver: recv, Args: args, Ret: ret}

	// instantiate the method's and owner's generics with fresh type vars;
	// Self stays symbolic (it names the receiver, not an inferred arg).
	var names []string
	for name := range scope {
		if name != "Self" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return fn
	}
	sort.Strings(names)
	generics := make([]*types.Generic, len(names))
	for i, name := range names {
		generics[i] = scope[name]
	}
	inst, _ := types.Instantiate(fn, generics, s)
	return inst
}

// freshArgsFor mints one fresh type var per generic of owner, returning
// both the name substitution and the positional argument list, the
// "generic instantiation" step of spec.md §4.B applied to constructors.
func (s *State) freshArgsFor(owner *decl.Decl, start, end token.Pos) (map[string]types.Type, []types.Type) {
	sub := make(map[string]types.Type, len(owner.Generics))
	targs := make([]types.Type, len(owner.Generics))
	for i, g := range owner.Generics {
		id := s.Vars.NewWithBound(&types.Generic{Name: g.Name, Variance: variance(g.Variance)}, s.span(start, end), s.File.Name())
		tv := types.TypeVar{ID: id}
		sub[g.Name] = tv
		targs[i] = tv
	}
	return sub, targs
}

// constructOwner is the declaration whose Named type a construct of d
// produces: the owning enum for a variant, d itself otherwise.
func (s *State) constructOwner(d *decl.Decl) *decl.Decl {
	if d.Kind == decl.KindMember {
		if od, ok := s.Project.Store.Lookup(d.Parent); ok {
			return od
		}
	}
	return d
}

// construct types a positional constructor application of struct or
// enum-variant d (spec.md §8 scenario 3: `Pair(1, "x")` infers
// Pair[Int, String]). args may be nil for a bare unit value.
func (s *State) construct(d *decl.Decl, args []ast.Expr, start, end token.Pos) types.Type {
	owner := s.constructOwner(d)
	sub, targs := s.freshArgsFor(owner, start, end)
	fieldTys := s.positionalFieldTypes(d, sub)
	if len(args) != len(fieldTys) {
		s.Errs.Add(&diag.Diagnostic{
			Kind: diag.UnexpectedArgs, File: s.File.Name(), Span: s.span(start, end), Pos: s.pos(start),
			WantArgs: len(fieldTys), GotArgs: len(args), Callee: d.Name,
		})
	}
	for i, a := range args {
		if i < len(fieldTys) {
			s.Expect(a, fieldTys[i])
		} else {
			s.Check(a)
		}
	}
	return &types.Named{Path: owner.Path, Args: targs}
}

// positionalFieldTypes lists d's field types in construction order (tuple
// positions, then named fields in declaration order), with sub applied.
func (s *State) positionalFieldTypes(d *decl.Decl, sub map[string]types.Type) []types.Type {
	body, ok := d.Body.(*decl.StructBody)
	if !ok {
		return nil
	}
	scope := genericScopeFor(s.Project.Store, d)
	var out []types.Type
	for _, te := range body.Tuple {
		out = append(out, types.SubstituteGenerics(resolveTypeExpr(te, s.Project.Store, scope, s.Errs, d.File), sub))
	}
	for _, f := range body.Fields {
		out = append(out, types.SubstituteGenerics(resolveTypeExpr(f.Type, s.Project.Store, scope, s.Errs, d.File), sub))
	}
	return out
}

// genericScopeFor is the scope a declaration's field types resolve in: the
// decl's own generics, or the owning enum's for a variant.
func genericScopeFor(store *decl.Store, d *decl.Decl) genericScope {
	if d.Kind == decl.KindMember {
		if od, ok := store.Lookup(d.Parent); ok {
			return newGenericScope(od.Generics)
		}
	}
	return newGenericScope(d.Generics)
}

func (s *State) checkCall(c *ast.CallExpr) types.Type {
	// a struct/variant name in callee position is always a constructor,
	// whether or not its body has fields (Vec() constructs as much as
	// Pair(1, "x") does); local bindings shadow it.
	if id, ok := c.Callee.(*ast.Ident); ok && !s.isLocalName(id) {
		if d, ok := s.resolveValuePath(id.Path); ok && (d.Kind == decl.KindStruct || d.Kind == decl.KindMember) {
			s.ExprTypes[c.Callee] = &types.Meta{Of: &types.Named{Path: d.Path}}
			start, end := c.Span()
			return s.construct(d, c.Args, start, end)
		}
	}
	calleeTy := s.Check(c.Callee)
	if meta, ok := calleeTy.(*types.Meta); ok {
		if named, ok := meta.Of.(*types.Named); ok {
			if d, ok := s.Project.Store.Lookup(named.Path); ok {
				start, end := c.Span()
				return s.construct(d, c.Args, start, end)
			}
		}
	}
	fn, ok := unwrapFunction(calleeTy)
	if !ok {
		start, end := c.Callee.Span()
		s.errorf(diag.Simple, start, end, "cannot call a value of type %s", calleeTy)
		for _, a := range c.Args {
			s.Check(a)
		}
		return types.Unknown{}
	}
	if fn.Receiver != nil {
		self, ok := s.Scope.LookupVar("self")
		if !ok || !types.IsSubtype(self.Ty, fn.Receiver, s.Impls, s.Vars) {
			start, end := c.Span()
			s.errorf(diag.MissingReceiver, start, end, "call requires a receiver instance of %s", fn.Receiver)
		}
	}
	if len(c.Args) != len(fn.Args) {
		start, end := c.Span()
		s.Errs.Add(&diag.Diagnostic{
			Kind: diag.UnexpectedArgs, File: s.File.Name(), Span: s.span(start, end), Pos: s.pos(start),
			WantArgs: len(fn.Args), GotArgs: len(c.Args), Callee: calleeName(c.Callee),
		})
	}
	n := len(c.Args)
	if len(fn.Args) < n {
		n = len(fn.Args)
	}
	for i := 0; i < n; i++ {
		s.Expect(c.Args[i], fn.Args[i])
	}
	for i := n; i < len(c.Args); i++ {
		s.Check(c.Args[i])
	}
	return fn.Ret
}

func (s *State) isLocalName(id *ast.Ident) bool {
	if len(id.Path) != 1 {
		return false
	}
	if _, ok := s.Scope.LookupVar(id.Path[0]); ok {
		return true
	}
	_, ok := s.Scope.LookupGeneric(id.Path[0])
	return ok
}

func unwrapFunction(t types.Type) (*types.Function, bool) {
	fn, ok := t.(*types.Function)
	return fn, ok
}

func calleeName(x ast.Expr) string {
	switch x := x.(type) {
	case *ast.Ident:
		if len(x.Path) > 0 {
			return x.Path[len(x.Path)-1]
		}
	}
	return "<callee>"
}

// checkMember implements the receiver search order of spec.md §4.B
// "Member call": resolved-generic's super, then the receiver type itself,
// then its sub-types reachable via impls.
func (s *State) checkMember(m *ast.MemberExpr) types.Type {
	recvTy := s.Check(m.Recv)
	fn, err := s.lookupMethod(recvTy, m.Method)
	if err != nil {
		start, end := m.Span()
		s.errorf(diag.Simple, start, end, "%s", err)
		for _, a := range m.Args {
			s.Check(a)
		}
		return types.Unknown{}
	}
	if len(m.Args) != len(fn.Args) {
		start, end := m.Span()
		s.Errs.Add(&diag.Diagnostic{
			Kind: diag.UnexpectedArgs, File: s.File.Name(), Span: s.span(start, end), Pos: s.pos(start),
			WantArgs: len(fn.Args), GotArgs: len(m.Args), Callee: m.Method,
		})
	}
	n := len(m.Args)
	if len(fn.Args) < n {
		n = len(fn.Args)
	}
	for i := 0; i < n; i++ {
		s.Expect(m.Args[i], fn.Args[i])
	}
	for i := n; i < len(m.Args); i++ {
		s.Check(m.Args[i])
	}
	return fn.Ret
}

// lookupMethod walks the receiver search order of spec.md §4.B: a
// resolved generic's super, then the type's own declarations (and the
// methods its concrete impls add), then the traits its sub-type impls
// witness. Finding the same trait-provided method through two different
// impls is an ambiguity error.
func (s *State) lookupMethod(recvTy types.Type, name string) (*types.Function, error) {
	recvTy = s.resolvedType(recvTy)
	named, ok := recvTy.(*types.Named)
	if !ok {
		if g, ok := recvTy.(*types.Generic); ok && g.Super != nil {
			return s.lookupMethod(g.Super, name)
		}
		return nil, fmt.Errorf("no method %q on %s", name, recvTy)
	}
	for _, child := range s.Project.Store.Children(named.Path) {
		if child.Kind == decl.KindFunction && child.Name == name {
			return s.funcType(child).(*types.Function), nil
		}
	}
	for _, imp := range s.Project.Impls.For(named.Path) {
		for _, fd := range imp.Funcs {
			if fd.Name == name {
				return s.funcType(fd).(*types.Function), nil
			}
		}
	}
	var viaTrait []*decl.Decl
	for _, imp := range s.Project.Impls.For(named.Path) {
		toNamed, ok := imp.ToTy.(*ast.NamedTypeExpr)
		if !ok {
			continue
		}
		for _, child := range s.Project.Store.Children(decl.NewPath(toNamed.Path...)) {
			if child.Kind == decl.KindFunction && child.Name == name {
				viaTrait = append(viaTrait, child)
			}
		}
	}
	switch len(viaTrait) {
	case 0:
		return nil, fmt.Errorf("no method %q on %s", name, recvTy)
	case 1:
		return s.funcType(viaTrait[0]).(*types.Function), nil
	default:
		return nil, fmt.Errorf("ambiguous method %q on %s (%d trait impls provide it)", name, recvTy, len(viaTrait))
	}
}

// resolvedType chases a TypeVar to its current resolution, if any, so the
// receiver of a member call checked after inference ran is concrete.
func (s *State) resolvedType(t types.Type) types.Type {
	for {
		tv, ok := t.(types.TypeVar)
		if !ok {
			return t
		}
		r, ok := s.Vars.LookupVar(tv.ID)
		if !ok {
			return t
		}
		t = r
	}
}

func (s *State) checkField(f *ast.FieldExpr) types.Type {
	recvTy := s.resolvedType(s.Check(f.Recv))
	if g, ok := recvTy.(*types.Generic); ok && g.Super != nil {
		// `self` is bound as the Self generic; its fields live on its super
		recvTy = s.resolvedType(g.Super)
	}
	named, ok := recvTy.(*types.Named)
	if !ok {
		start, end := f.Span()
		s.errorf(diag.Simple, start, end, "field access on non-struct type %s", recvTy)
		return types.Unknown{}
	}
	d, ok := s.Project.Store.Lookup(named.Path)
	if !ok {
		start, end := f.Span()
		s.errorf(diag.Unresolved, start, end, "unresolved type %q", named.Path)
		return types.Unknown{}
	}
	body, ok := d.Body.(*decl.StructBody)
	if !ok {
		start, end := f.Span()
		s.errorf(diag.Simple, start, end, "%s is not a struct", named.Path)
		return types.Unknown{}
	}
	sub := instanceArgSub(d, named)
	scope := genericScopeFor(s.Project.Store, d)
	for i, t := range body.Tuple {
		if f.Name == fmt.Sprintf("_%d", i) {
			return types.SubstituteGenerics(resolveTypeExpr(t, s.Project.Store, scope, s.Errs, d.File), sub)
		}
	}
	for _, fld := range body.Fields {
		if fld.Name == f.Name {
			return types.SubstituteGenerics(resolveTypeExpr(fld.Type, s.Project.Store, scope, s.Errs, d.File), sub)
		}
	}
	start, end := f.Span()
	s.errorf(diag.Simple, start, end, "%s has no field %q", named.Path, f.Name)
	return types.Unknown{}
}

// instanceArgSub binds a declaration's own generics to the concrete type
// arguments carried by a resolved instance, so field types substitute
// correctly (e.g. `Box[Int]`'s `.value` resolves as Int, not T).
func instanceArgSub(d *decl.Decl, named *types.Named) map[string]types.Type {
	sub := make(map[string]types.Type, len(d.Generics))
	for i, g := range d.Generics {
		if i < len(named.Args) {
			sub[g.Name] = named.Args[i]
		}
	}
	return sub
}

func (s *State) checkBinary(b *ast.BinaryExpr) types.Type {
	lhs := s.Check(b.Lhs)
	switch b.Op {
	case token.ANDAND, token.OROR:
		s.checkIsInstance(b.Lhs, lhs, types.Bool())
		s.Expect(b.Rhs, types.Bool())
		return types.Bool()
	case token.EQEQ, token.NEQ, token.LT, token.GT, token.LE, token.GE:
		s.Expect(b.Rhs, lhs)
		return types.Bool()
	default: // arithmetic
		s.Expect(b.Rhs, lhs)
		return lhs
	}
}

func (s *State) checkUnary(u *ast.UnaryExpr) types.Type {
	operand := s.Check(u.Operand)
	if u.Op == token.BANG {
		s.checkIsInstance(u.Operand, operand, types.Bool())
		return types.Bool()
	}
	return operand
}

func (s *State) checkLambda(l *ast.LambdaExpr, want *types.Function) types.Type {
	sub := NewScope(s.Scope)
	args := make([]types.Type, len(l.Args))
	for i, a := range l.Args {
		var ty types.Type
		switch {
		case a.Type != nil:
			ty = s.resolveType(a.Type)
		case want != nil && i < len(want.Args):
			ty = want.Args[i]
		default:
			ty = types.Unknown{}
		}
		args[i] = ty
		sub.Define(&Var{Name: a.Name, Ty: ty, Kind: KindParam})
	}
	var ret types.Type
	saved := s.Scope
	s.Scope = sub
	switch {
	case l.Ret != nil:
		ret = s.resolveType(l.Ret)
		s.Expect(l.Body, ret)
	case want != nil:
		ret = s.Expect(l.Body, want.Ret)
	default:
		ret = s.Check(l.Body)
	}
	s.Scope = saved
	return &types.Function{Args: args, Ret: ret}
}

func (s *State) checkBlock(b *ast.BlockExpr) types.Type {
	sub := NewScope(s.Scope)
	saved := s.Scope
	s.Scope = sub
	defer func() { s.Scope = saved }()

	var result types.Type = types.Unit()
	for i, stmt := range b.Stmts {
		if es, ok := stmt.(*ast.ExprStmt); ok && i == len(b.Stmts)-1 && !es.Semi {
			result = s.Check(es.X)
			continue
		}
		s.checkStmt(stmt)
	}
	s.BlockScopes[b] = sub.Snapshot()
	return result
}

func (s *State) checkBlockExpect(b *ast.BlockExpr, want types.Type) types.Type {
	sub := NewScope(s.Scope)
	saved := s.Scope
	s.Scope = sub
	defer func() { s.Scope = saved }()

	var result types.Type = types.Unit()
	for i, stmt := range b.Stmts {
		if es, ok := stmt.(*ast.ExprStmt); ok && i == len(b.Stmts)-1 && !es.Semi {
			result = s.Expect(es.X, want)
			continue
		}
		s.checkStmt(stmt)
	}
	s.BlockScopes[b] = sub.Snapshot()
	return result
}

func (s *State) checkCondition(c ast.Condition) {
	if c.Pattern != nil {
		scrutinee := s.Check(c.Init)
		s.bindPattern(c.Pattern, scrutinee)
		return
	}
	s.Expect(c.Expr, types.Bool())
}

func (s *State) checkIf(e *ast.IfExpr, want types.Type) types.Type {
	var branchTypes []types.Type
	for _, b := range e.Branches {
		sub := NewScope(s.Scope)
		saved := s.Scope
		s.Scope = sub
		s.checkCondition(b.Cond)
		var ty types.Type
		if want != nil {
			ty = s.Expect(b.Body, want)
		} else {
			ty = s.Check(b.Body)
		}
		s.Scope = saved
		branchTypes = append(branchTypes, ty)
	}
	if e.Else != nil {
		var ty types.Type
		if want != nil {
			ty = s.Expect(e.Else, want)
		} else {
			ty = s.Check(e.Else)
		}
		branchTypes = append(branchTypes, ty)
	} else {
		branchTypes = append(branchTypes, types.Unit())
	}
	if want != nil {
		return want
	}
	return superType(branchTypes)
}

func (s *State) checkMatch(m *ast.MatchExpr, want types.Type) types.Type {
	scrutinee := s.Check(m.Scrutinee)
	var bodyTypes []types.Type
	for _, arm := range m.Arms {
		sub := NewScope(s.Scope)
		saved := s.Scope
		s.Scope = sub
		s.expectPattern(arm.Pattern, scrutinee)
		if arm.Guard != nil {
			s.Expect(arm.Guard, types.Bool())
		}
		var ty types.Type
		if want != nil {
			ty = s.Expect(arm.Body, want)
		} else {
			ty = s.Check(arm.Body)
		}
		s.Scope = saved
		bodyTypes = append(bodyTypes, ty)
	}
	if want != nil {
		return want
	}
	return superType(bodyTypes)
}

// superType picks the shared super-type of a set of branch types: Any's
// Nothing-excluding narrowest common type by pairwise subtype testing.
// With no impl/var context, this is a best-effort structural join used
// only when no expected type pins the result down.
func superType(ts []types.Type) types.Type {
	if len(ts) == 0 {
		return types.Unit()
	}
	result := ts[0]
	for _, t := range ts[1:] {
		if types.Equal(result, t) {
			continue
		}
		if types.IsSubtype(t, result, nil, nil) {
			continue
		}
		if types.IsSubtype(result, t, nil, nil) {
			result = t
			continue
		}
		return types.Any{}
	}
	return result
}

func (s *State) checkConstruct(c *ast.ConstructExpr) types.Type {
	start, end := c.Span()
	d, ok := s.resolveValuePath(c.Path)
	if !ok {
		s.errorf(diag.Unresolved, start, end, "unresolved type %q", decl.NewPath(c.Path...))
		for _, f := range c.Fields {
			s.Check(f.Value)
		}
		return types.Unknown{}
	}
	owner := s.constructOwner(d)
	sub, targs := s.freshArgsFor(owner, start, end)
	body, _ := d.Body.(*decl.StructBody)
	scope := genericScopeFor(s.Project.Store, d)
	for _, f := range c.Fields {
		var fieldTy types.Type = types.Unknown{}
		if body != nil {
			for _, sf := range body.Fields {
				if sf.Name == f.Name {
					fieldTy = types.SubstituteGenerics(resolveTypeExpr(sf.Type, s.Project.Store, scope, s.Errs, d.File), sub)
				}
			}
		}
		s.Expect(f.Value, fieldTy)
	}
	return &types.Named{Path: owner.Path, Args: targs}
}

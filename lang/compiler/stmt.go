package compiler

import (
	"github.com/mna/gib/lang/ast"
	"github.com/mna/gib/lang/bytecode"
	"github.com/mna/gib/lang/cflow"
	"github.com/mna/gib/lang/decl"
)

// blockNode lowers a block. In value mode the block leaves its trailing
// expression's value (or a unit when it has none); in statement mode it
// leaves nothing.
func (c *funcCompiler) blockNode(b *ast.BlockExpr, value bool) cflow.Node {
	c.fb.EnterScope()
	defer c.fb.ExitScope()

	var kids []cflow.Node
	for i, st := range b.Stmts {
		if es, ok := st.(*ast.ExprStmt); ok && value && i == len(b.Stmts)-1 && !es.Semi {
			kids = append(kids, c.mark(st, c.exprNode(es.X)))
			return cflow.Block{Kids: kids}
		}
		kids = append(kids, c.mark(st, c.stmtNode(st)))
	}
	if value {
		kids = append(kids, code(pushUnit()))
	}
	return cflow.Block{Kids: kids}
}

// stmtNode lowers a statement; the returned node leaves nothing on the
// stack.
func (c *funcCompiler) stmtNode(st ast.Stmt) cflow.Node {
	switch st := st.(type) {
	case *ast.LetStmt:
		return c.letNode(st)
	case *ast.AssignStmt:
		return c.assignNode(st)
	case *ast.ExprStmt:
		return cflow.Block{Kids: []cflow.Node{c.exprNode(st.X), code(instrOp(bytecode.POP))}}
	case *ast.WhileStmt:
		return c.whileNode(st)
	case *ast.ForStmt:
		return c.forNode(st)
	case *ast.BreakStmt:
		return cflow.Break{}
	case *ast.ContinueStmt:
		return cflow.Continue{}
	case *ast.ReturnStmt:
		var val cflow.Node = code(pushUnit())
		if st.Result != nil {
			val = c.coerceAnnotated(c.exprNode(st.Result), st.Result, c.retType)
		}
		return cflow.Block{Kids: []cflow.Node{val, code(instrOp(bytecode.RETURN))}}
	default:
		c.errorf(st, "cannot lower %T to bytecode", st)
		return code()
	}
}

func (c *funcCompiler) letNode(st *ast.LetStmt) cflow.Node {
	// track function-valued bindings so later calls through this name can
	// be dispatched statically; the lambda is lifted exactly once and its
	// id doubles as the bound value
	var initFuncID uint32
	var isFunc bool
	if l, ok := st.Init.(*ast.LambdaExpr); ok {
		initFuncID, isFunc = c.lift(l), true
	} else if id, ok := c.staticFuncRef(st.Init); ok {
		initFuncID, isFunc = id, true
	}

	var init cflow.Node
	if isFunc {
		init = code(pushInt(int64(initFuncID)))
	} else {
		init = c.exprNode(st.Init)
	}
	if st.Type != nil {
		init = c.coerceAnnotated(init, st.Init, st.Type)
	}
	if bp, ok := st.Pattern.(*ast.BindPattern); ok {
		if isFunc {
			c.funcVals[bp.Name] = initFuncID
		}
		slot := c.fb.AddVar(bp.Name)
		return cflow.Block{Kids: []cflow.Node{init, code(instrN(bytecode.NEWLOCAL, slot))}}
	}
	// destructuring let: stash the value, then bind each sub-pattern
	tmp := c.fb.AddVar(c.tempName())
	binds := c.patternBinds(st.Pattern, access(tmp))
	kids := []cflow.Node{init, code(instrN(bytecode.NEWLOCAL, tmp))}
	if len(binds) > 0 {
		kids = append(kids, code(binds...))
	}
	return cflow.Block{Kids: kids}
}

// staticFuncRef reports the function id an initializer names statically,
// when it is a bare reference to a declared function.
func (c *funcCompiler) staticFuncRef(e ast.Expr) (uint32, bool) {
	id, ok := e.(*ast.Ident)
	if !ok {
		return 0, false
	}
	if len(id.Path) == 1 {
		if _, isLocal := c.fb.GetVar(id.Path[0]); isLocal {
			fid, ok := c.funcVals[id.Path[0]]
			return fid, ok
		}
	}
	d, ok := c.p.lookupDecl(c.imports, id.Path)
	if !ok || d.Kind != decl.KindFunction {
		return 0, false
	}
	return c.funcIDFor(d), true
}

func (c *funcCompiler) assignNode(st *ast.AssignStmt) cflow.Node {
	switch lhs := st.Lhs.(type) {
	case *ast.Ident:
		if len(lhs.Path) == 1 {
			if slot, ok := c.fb.GetVar(lhs.Path[0]); ok {
				return cflow.Block{Kids: []cflow.Node{c.exprNode(st.Rhs), code(instrN(bytecode.SETLOCAL, slot))}}
			}
		}
		c.errorf(st, "cannot assign to %q", decl.NewPath(lhs.Path...))
		return code()
	case *ast.FieldExpr:
		idx := c.fieldIndex(c.ty(lhs.Recv), lhs.Name, lhs)
		return cflow.Block{Kids: []cflow.Node{c.exprNode(lhs.Recv), c.exprNode(st.Rhs), code(instrN(bytecode.SETINDEX, idx))}}
	default:
		c.errorf(st, "assignment target must be a variable or field")
		return code()
	}
}

func (c *funcCompiler) whileNode(st *ast.WhileStmt) cflow.Node {
	c.fb.EnterScope()
	defer c.fb.ExitScope()

	if st.Cond.Pattern == nil {
		return cflow.While{Cond: c.exprNode(st.Cond.Expr), Body: c.blockNode(st.Body, false)}
	}

	// while-let: re-evaluate the scrutinee each iteration; a failing
	// pattern test jumps straight out of the loop (MaybeBreak), a passing
	// one binds and leaves true for the loop's own conditional jump.
	tmp := c.fb.AddVar(c.tempName())
	condKids := []cflow.Node{c.exprNode(st.Cond.Init), code(instrN(bytecode.NEWLOCAL, tmp))}
	condKids = append(condKids, c.patternTests(st.Cond.Pattern, access(tmp), cflow.MaybeBreak{})...)
	if binds := c.patternBinds(st.Cond.Pattern, access(tmp)); len(binds) > 0 {
		condKids = append(condKids, code(binds...))
	}
	condKids = append(condKids, code(pushTrue()))
	return cflow.While{Cond: cflow.Block{Kids: condKids}, Body: c.blockNode(st.Body, false)}
}

func (c *funcCompiler) forNode(st *ast.ForStmt) cflow.Node {
	c.fb.EnterScope()
	defer c.fb.ExitScope()

	var init, cond, post cflow.Node
	if st.Init != nil {
		init = c.stmtNode(st.Init)
	}
	if st.Cond != nil {
		cond = c.exprNode(st.Cond)
	}
	if st.Post != nil {
		post = c.stmtNode(st.Post)
	}
	return cflow.NewFor(init, cond, post, c.blockNode(st.Body, false))
}

func (c *funcCompiler) ifNode(e *ast.IfExpr) cflow.Node {
	var branches []cflow.IfBranch
	for _, b := range e.Branches {
		c.fb.EnterScope()
		var cond cflow.Node
		var bodyPrefix []bytecode.Instr
		if b.Cond.Pattern == nil {
			cond = c.exprNode(b.Cond.Expr)
		} else {
			tmp := c.fb.AddVar(c.tempName())
			cond = cflow.Block{Kids: []cflow.Node{
				c.exprNode(b.Cond.Init),
				code(instrN(bytecode.NEWLOCAL, tmp)),
				code(c.patternBoolTest(b.Cond.Pattern, access(tmp))...),
			}}
			bodyPrefix = c.patternBinds(b.Cond.Pattern, access(tmp))
		}
		body := c.blockNode(b.Body, true)
		if len(bodyPrefix) > 0 {
			body = cflow.Block{Kids: []cflow.Node{code(bodyPrefix...), body}}
		}
		branches = append(branches, cflow.IfBranch{Cond: cond, Body: body})
		c.fb.ExitScope()
	}
	var elseNode cflow.Node = code(pushUnit())
	if e.Else != nil {
		elseNode = c.blockNode(e.Else, true)
	}
	return cflow.If{Branches: branches, Else: elseNode}
}

func (c *funcCompiler) matchNode(m *ast.MatchExpr) cflow.Node {
	tmp := c.fb.AddVar(c.tempName())
	scrut := cflow.Block{Kids: []cflow.Node{c.exprNode(m.Scrutinee), code(instrN(bytecode.NEWLOCAL, tmp))}}

	var arms []cflow.Node
	for _, arm := range m.Arms {
		c.fb.EnterScope()
		kids := c.patternTests(arm.Pattern, access(tmp), cflow.Next{})
		if binds := c.patternBinds(arm.Pattern, access(tmp)); len(binds) > 0 {
			kids = append(kids, code(binds...))
		}
		if arm.Guard != nil {
			kids = append(kids, c.exprNode(arm.Guard), cflow.Next{})
		}
		kids = append(kids, c.exprNode(arm.Body), cflow.Break{})
		c.fb.ExitScope()
		arms = append(arms, cflow.Block{Kids: kids})
	}
	// a non-exhaustive match that falls off the end yields unit
	return cflow.Block{Kids: []cflow.Node{scrut, &armSeq{arms: arms, fallback: code(pushUnit())}}}
}

// patternTests emits one [test, fail] pair per refutable check in pat,
// reading the scrutinee (or the sub-term) through acc. fail is Next for
// match arms and MaybeBreak for while-let conditions (spec.md §4.E).
func (c *funcCompiler) patternTests(pat ast.Pattern, acc []bytecode.Instr, fail cflow.Node) []cflow.Node {
	switch pat := pat.(type) {
	case *ast.WildcardPattern, *ast.BindPattern:
		return nil
	case *ast.LiteralPattern:
		instrs := append(append([]bytecode.Instr{}, acc...), c.litInstr(pat.Lit), instrOp(bytecode.EQ))
		return []cflow.Node{code(instrs...), fail}
	case *ast.TuplePattern:
		var out []cflow.Node
		for i, e := range pat.Elems {
			out = append(out, c.patternTests(e, appendIndex(acc, i), fail)...)
		}
		return out
	case *ast.StructPattern:
		d, ok := c.p.lookupDecl(c.imports, pat.Path)
		if !ok {
			c.errorf(pat, "unresolved pattern path %q", decl.NewPath(pat.Path...))
			return nil
		}
		instrs := append(append([]bytecode.Instr{}, acc...), instrN(bytecode.MATCH, int(c.typeIDFor(d))))
		out := []cflow.Node{code(instrs...), fail}
		for i, e := range pat.Tuple {
			out = append(out, c.patternTests(e, appendIndex(acc, i), fail)...)
		}
		for _, fp := range pat.Fields {
			idx := c.structFieldIndex(d, fp.Name, pat)
			out = append(out, c.patternTests(fp.Pattern, appendIndex(acc, idx), fail)...)
		}
		return out
	default:
		return nil
	}
}

// patternBoolTest folds pat's refutable checks into a single boolean left
// on the stack (true when everything matches), the jump-free form an
// if-let condition needs.
func (c *funcCompiler) patternBoolTest(pat ast.Pattern, acc []bytecode.Instr) []bytecode.Instr {
	var tests [][]bytecode.Instr
	c.collectBoolTests(pat, acc, &tests)
	if len(tests) == 0 {
		return []bytecode.Instr{pushTrue()}
	}
	out := append([]bytecode.Instr{}, tests[0]...)
	for _, t := range tests[1:] {
		out = append(out, t...)
		out = append(out, instrOp(bytecode.AND))
	}
	return out
}

func (c *funcCompiler) collectBoolTests(pat ast.Pattern, acc []bytecode.Instr, out *[][]bytecode.Instr) {
	switch pat := pat.(type) {
	case *ast.LiteralPattern:
		*out = append(*out, append(append([]bytecode.Instr{}, acc...), c.litInstr(pat.Lit), instrOp(bytecode.EQ)))
	case *ast.TuplePattern:
		for i, e := range pat.Elems {
			c.collectBoolTests(e, appendIndex(acc, i), out)
		}
	case *ast.StructPattern:
		d, ok := c.p.lookupDecl(c.imports, pat.Path)
		if !ok {
			return
		}
		*out = append(*out, append(append([]bytecode.Instr{}, acc...), instrN(bytecode.MATCH, int(c.typeIDFor(d)))))
		for i, e := range pat.Tuple {
			c.collectBoolTests(e, appendIndex(acc, i), out)
		}
		for _, fp := range pat.Fields {
			c.collectBoolTests(fp.Pattern, appendIndex(acc, c.structFieldIndex(d, fp.Name, pat)), out)
		}
	}
}

// patternBinds emits the NEWLOCAL writes for every name pat binds, reading
// through acc. Binds run only after the pattern's tests all passed.
func (c *funcCompiler) patternBinds(pat ast.Pattern, acc []bytecode.Instr) []bytecode.Instr {
	switch pat := pat.(type) {
	case *ast.BindPattern:
		slot := c.fb.AddVar(pat.Name)
		return append(append([]bytecode.Instr{}, acc...), instrN(bytecode.NEWLOCAL, slot))
	case *ast.TuplePattern:
		var out []bytecode.Instr
		for i, e := range pat.Elems {
			out = append(out, c.patternBinds(e, appendIndex(acc, i))...)
		}
		return out
	case *ast.StructPattern:
		d, ok := c.p.lookupDecl(c.imports, pat.Path)
		if !ok {
			return nil
		}
		var out []bytecode.Instr
		for i, e := range pat.Tuple {
			out = append(out, c.patternBinds(e, appendIndex(acc, i))...)
		}
		for _, fp := range pat.Fields {
			out = append(out, c.patternBinds(fp.Pattern, appendIndex(acc, c.structFieldIndex(d, fp.Name, pat)))...)
		}
		return out
	default:
		return nil
	}
}

func (c *funcCompiler) structFieldIndex(d *decl.Decl, name string, at ast.Node) int {
	body, ok := d.Body.(*decl.StructBody)
	if !ok {
		return 0
	}
	for i, f := range body.Fields {
		if f.Name == name {
			return i
		}
	}
	c.errorf(at, "%s has no field %q", d.Path, name)
	return 0
}

func appendIndex(acc []bytecode.Instr, i int) []bytecode.Instr {
	return append(append([]bytecode.Instr{}, acc...), instrN(bytecode.INDEX, i))
}

func (c *funcCompiler) litInstr(e ast.Expr) bytecode.Instr {
	switch e := e.(type) {
	case *ast.IntLit:
		return pushInt(e.Value)
	case *ast.FloatLit:
		return bytecode.Instr{Op: bytecode.PUSH, Lit: bytecode.Lit{Kind: bytecode.LitFloat, F: e.Value}}
	case *ast.StringLit:
		return bytecode.Instr{Op: bytecode.PUSH, Lit: bytecode.Lit{Kind: bytecode.LitString, S: e.Value}}
	case *ast.CharLit:
		return bytecode.Instr{Op: bytecode.PUSH, Lit: bytecode.Lit{Kind: bytecode.LitChar, C: e.Value}}
	case *ast.BoolLit:
		return bytecode.Instr{Op: bytecode.PUSH, Lit: bytecode.Lit{Kind: bytecode.LitBool, B: e.Value}}
	default:
		return pushUnit()
	}
}

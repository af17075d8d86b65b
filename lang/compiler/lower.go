package compiler

import (
	"fmt"

	"github.com/mna/gib/lang/ast"
	"github.com/mna/gib/lang/bytecode"
	"github.com/mna/gib/lang/cflow"
	"github.com/mna/gib/lang/check"
	"github.com/mna/gib/lang/decl"
	"github.com/mna/gib/lang/token"
	"github.com/mna/gib/lang/types"
)

var vecPath = decl.NewPath("std", "Vec")

// tupleTag as a non-constant so it converts to Instr.N2 without a
// constant-overflow error.
var tupleTag = bytecode.TupleTag

// vecOps maps std::Vec method names to the opcode each lowers to, and
// whether that opcode leaves a value on the stack (the others synthesize a
// unit so every expression still leaves exactly one value).
var vecOps = map[string]struct {
	op       bytecode.Opcode
	hasValue bool
}{
	"push":   {bytecode.VECPUSH, false},
	"pop":    {bytecode.VECPOP, true},
	"peek":   {bytecode.VECPEEK, true},
	"get":    {bytecode.VECGET, true},
	"set":    {bytecode.VECSET, false},
	"insert": {bytecode.VECINSERT, false},
	"remove": {bytecode.VECREMOVE, true},
	"len":    {bytecode.VECLEN, true},
}

// funcCompiler lowers one checked function body to a cflow tree and
// flattens it. The invariant every expression-lowering method maintains is
// that its node leaves exactly one value on the operand stack; statement
// lowerings leave zero.
type funcCompiler struct {
	p        *progCompiler
	fr       *check.FuncResult
	file     *token.File
	imports  map[string]decl.Path
	fb       *FuncBuilder
	funcVals map[string]uint32 // let-bound lambda/function-reference slots
	retType  ast.TypeExpr
	marks    []bytecode.Mark
	tmpn     int
}

func (pc *progCompiler) compileFunc(fr *check.FuncResult, imports map[string]decl.Path) *bytecode.Function {
	d := fr.Decl
	fbody := d.Body.(*decl.FuncBody)
	if fbody.AST == nil || fbody.AST.Body == nil {
		return nil
	}
	file := pc.proj.Fset.File(d.Span.Start)
	if file == nil {
		return nil
	}
	c := &funcCompiler{
		p: pc, fr: fr, file: file, imports: imports,
		fb: NewFuncBuilder(), funcVals: map[string]uint32{}, retType: fbody.Ret,
	}

	// parameters are copied into locals up front so the body refers to
	// every binding uniformly through GETLOCAL/SETLOCAL.
	var entry []bytecode.Instr
	argc := 0
	if fbody.Receiver != nil {
		slot := c.fb.AddVar("self")
		entry = append(entry, instrN(bytecode.PARAM, argc), instrN(bytecode.NEWLOCAL, slot))
		argc++
	}
	for _, a := range fbody.Args {
		slot := c.fb.AddVar(a.Name)
		entry = append(entry, instrN(bytecode.PARAM, argc), instrN(bytecode.NEWLOCAL, slot))
		argc++
	}

	body := c.coerceAnnotated(c.exprNode(fbody.AST.Body), fbody.AST.Body, c.retType)
	root := cflow.Block{Kids: []cflow.Node{
		code(entry...),
		body,
		code(instrOp(bytecode.RETURN)),
	}}
	instrs := root.Build(0, 0, 0, 0)

	pos := file.Position(d.Span.Start)
	return &bytecode.Function{
		ID:       pc.funcIDs[d.Path.String()],
		ArgCount: uint32(argc),
		Name:     d.Path.String(),
		Line:     uint16(pos.Line),
		Col:      uint16(pos.Col),
		FileID:   uint32(file.ID()),
		Marks:    c.marks,
		Code:     instrs,
	}
}

func instrOp(op bytecode.Opcode) bytecode.Instr { return bytecode.Instr{Op: op} }

func instrN(op bytecode.Opcode, n int) bytecode.Instr {
	return bytecode.Instr{Op: op, N: int32(n)}
}

func code(instrs ...bytecode.Instr) cflow.Code { return cflow.Code{Instrs: instrs} }

// pushUnit is the stand-in a valueless construct pushes so blocks and
// calls keep the one-value-per-expression stack discipline.
func pushUnit() bytecode.Instr {
	return bytecode.Instr{Op: bytecode.PUSH, Lit: bytecode.Lit{Kind: bytecode.LitBool}}
}

func pushTrue() bytecode.Instr {
	return bytecode.Instr{Op: bytecode.PUSH, Lit: bytecode.Lit{Kind: bytecode.LitBool, B: true}}
}

func pushInt(v int64) bytecode.Instr {
	return bytecode.Instr{Op: bytecode.PUSH, Lit: bytecode.Lit{Kind: bytecode.LitInt, I: v}}
}

func access(slot int) []bytecode.Instr { return []bytecode.Instr{instrN(bytecode.GETLOCAL, slot)} }

func (c *funcCompiler) tempName() string {
	c.tmpn++
	return fmt.Sprintf("$tmp%d", c.tmpn)
}

func (c *funcCompiler) ty(e ast.Expr) types.Type {
	if t, ok := c.fr.ExprTypes[e]; ok {
		return t
	}
	return types.Unknown{}
}

func (c *funcCompiler) errorf(n ast.Node, format string, args ...interface{}) {
	start, end := n.Span()
	c.p.errorf(c.file.Name(), token.Span{Start: start, End: end}, c.file.Position(start), format, args...)
}

func (c *funcCompiler) typeIDFor(d *decl.Decl) uint32 { return c.p.typeIDs[d.Path.String()] }

func (c *funcCompiler) funcIDFor(d *decl.Decl) uint32 { return c.p.funcIDs[d.Path.String()] }

// mark wraps a statement's node so that, at Build time, the statement's
// first instruction address is recorded as a source mark for the debugger.
func (c *funcCompiler) mark(at ast.Node, inner cflow.Node) cflow.Node {
	start, _ := at.Span()
	return &marked{inner: inner, pos: c.file.Position(start), sink: &c.marks}
}

// exprNode lowers an expression; the returned node leaves one value.
func (c *funcCompiler) exprNode(e ast.Expr) cflow.Node {
	switch e := e.(type) {
	case *ast.IntLit:
		return code(pushInt(e.Value))
	case *ast.FloatLit:
		return code(bytecode.Instr{Op: bytecode.PUSH, Lit: bytecode.Lit{Kind: bytecode.LitFloat, F: e.Value}})
	case *ast.StringLit:
		return code(bytecode.Instr{Op: bytecode.PUSH, Lit: bytecode.Lit{Kind: bytecode.LitString, S: e.Value}})
	case *ast.CharLit:
		return code(bytecode.Instr{Op: bytecode.PUSH, Lit: bytecode.Lit{Kind: bytecode.LitChar, C: e.Value}})
	case *ast.BoolLit:
		return code(bytecode.Instr{Op: bytecode.PUSH, Lit: bytecode.Lit{Kind: bytecode.LitBool, B: e.Value}})
	case *ast.Ident:
		return c.identNode(e)
	case *ast.TupleExpr:
		kids := make([]cflow.Node, 0, len(e.Elems)+1)
		for _, el := range e.Elems {
			kids = append(kids, c.exprNode(el))
		}
		kids = append(kids, code(bytecode.Instr{Op: bytecode.CONSTRUCT, N2: int32(tupleTag), N: int32(len(e.Elems))}))
		return cflow.Block{Kids: kids}
	case *ast.CallExpr:
		return c.callNode(e)
	case *ast.MemberExpr:
		return c.memberNode(e)
	case *ast.FieldExpr:
		idx := c.fieldIndex(c.ty(e.Recv), e.Name, e)
		return cflow.Block{Kids: []cflow.Node{c.exprNode(e.Recv), code(instrN(bytecode.INDEX, idx))}}
	case *ast.BinaryExpr:
		return cflow.Block{Kids: []cflow.Node{c.exprNode(e.Lhs), c.exprNode(e.Rhs), code(instrOp(binaryOp(e.Op)))}}
	case *ast.UnaryExpr:
		return c.unaryNode(e)
	case *ast.LambdaExpr:
		id := c.lift(e)
		return code(pushInt(int64(id)))
	case *ast.BlockExpr:
		return c.blockNode(e, true)
	case *ast.IfExpr:
		return c.ifNode(e)
	case *ast.MatchExpr:
		return c.matchNode(e)
	case *ast.ConstructExpr:
		return c.constructNode(e)
	default:
		c.errorf(e, "cannot lower %T to bytecode", e)
		return code(pushUnit())
	}
}

func (c *funcCompiler) identNode(e *ast.Ident) cflow.Node {
	if len(e.Path) == 1 {
		if slot, ok := c.fb.GetVar(e.Path[0]); ok {
			return code(instrN(bytecode.GETLOCAL, slot))
		}
	}
	d, ok := c.p.lookupDecl(c.imports, e.Path)
	if !ok {
		c.errorf(e, "unresolved name %q", decl.NewPath(e.Path...))
		return code(pushUnit())
	}
	switch d.Kind {
	case decl.KindStruct, decl.KindMember:
		// a bare unit struct/variant name is a zero-field construct
		return code(bytecode.Instr{Op: bytecode.CONSTRUCT, N2: int32(c.typeIDFor(d))})
	case decl.KindFunction:
		// a first-class function value is its id; only calls through a
		// tracked binding can be dispatched (see callNode).
		return code(pushInt(int64(c.funcIDFor(d))))
	default:
		c.errorf(e, "%s %q is not a value", d.Kind, d.Path)
		return code(pushUnit())
	}
}

func binaryOp(tok token.Token) bytecode.Opcode {
	switch tok {
	case token.PLUS:
		return bytecode.ADD
	case token.MINUS:
		return bytecode.SUB
	case token.STAR:
		return bytecode.MUL
	case token.SLASH:
		return bytecode.DIV
	case token.PERCENT:
		return bytecode.MOD
	case token.EQEQ:
		return bytecode.EQ
	case token.NEQ:
		return bytecode.NEQ
	case token.LT:
		return bytecode.LT
	case token.GT:
		return bytecode.GT
	case token.LE:
		return bytecode.LTE
	case token.GE:
		return bytecode.GTE
	case token.ANDAND:
		return bytecode.AND
	case token.OROR:
		return bytecode.OR
	default:
		return bytecode.NOP
	}
}

func (c *funcCompiler) unaryNode(e *ast.UnaryExpr) cflow.Node {
	if e.Op == token.BANG {
		return cflow.Block{Kids: []cflow.Node{c.exprNode(e.Operand), code(instrOp(bytecode.NOT))}}
	}
	// unary minus: 0 - x, with the zero matching the operand's kind
	zero := pushInt(0)
	if named, ok := c.ty(e.Operand).(*types.Named); ok && named.Path == types.PathFloat {
		zero = bytecode.Instr{Op: bytecode.PUSH, Lit: bytecode.Lit{Kind: bytecode.LitFloat}}
	}
	return cflow.Block{Kids: []cflow.Node{code(zero), c.exprNode(e.Operand), code(instrOp(bytecode.SUB))}}
}

func (c *funcCompiler) callNode(e *ast.CallExpr) cflow.Node {
	switch callee := e.Callee.(type) {
	case *ast.Ident:
		if len(callee.Path) == 1 {
			if id, ok := c.funcVals[callee.Path[0]]; ok {
				return c.staticCall(e, id, nil)
			}
			if _, isLocal := c.fb.GetVar(callee.Path[0]); isLocal {
				c.errorf(e, "cannot compile an indirect call through %q; bind the function with let to call it", callee.Path[0])
				return code(pushUnit())
			}
		}
		d, ok := c.p.lookupDecl(c.imports, callee.Path)
		if !ok {
			c.errorf(e, "unresolved callee %q", decl.NewPath(callee.Path...))
			return code(pushUnit())
		}
		switch d.Kind {
		case decl.KindStruct, decl.KindMember:
			kids := make([]cflow.Node, 0, len(e.Args)+1)
			for _, a := range e.Args {
				kids = append(kids, c.exprNode(a))
			}
			kids = append(kids, code(bytecode.Instr{Op: bytecode.CONSTRUCT, N2: int32(c.typeIDFor(d)), N: int32(len(e.Args))}))
			return cflow.Block{Kids: kids}
		case decl.KindFunction:
			if d.Path == decl.NewPath("std", "print") && len(e.Args) == 1 {
				return cflow.Block{Kids: []cflow.Node{c.exprNode(e.Args[0]), code(instrOp(bytecode.PRINT), pushUnit())}}
			}
			if d.Path == decl.NewPath("std", "panic") && len(e.Args) == 1 {
				return cflow.Block{Kids: []cflow.Node{c.exprNode(e.Args[0]), code(instrOp(bytecode.PANIC), pushUnit())}}
			}
			return c.staticCall(e, c.funcIDFor(d), d.Body.(*decl.FuncBody).Args)
		default:
			c.errorf(e, "cannot call %s %q", d.Kind, d.Path)
			return code(pushUnit())
		}
	case *ast.LambdaExpr:
		return c.staticCall(e, c.lift(callee), nil)
	default:
		c.errorf(e, "cannot compile an indirect call; only named functions and bound lambdas are callable")
		return code(pushUnit())
	}
}

// staticCall pushes e's arguments (dyn-wrapping each whose declared
// parameter type names a trait) and emits CALL(id).
func (c *funcCompiler) staticCall(e *ast.CallExpr, id uint32, params []*ast.Arg) cflow.Node {
	var kids []cflow.Node
	for i, a := range e.Args {
		node := c.exprNode(a)
		if i < len(params) {
			node = c.coerceAnnotated(node, a, params[i].Type)
		}
		kids = append(kids, node)
	}
	kids = append(kids, code(instrN(bytecode.CALL, int(id))))
	return cflow.Block{Kids: kids}
}

func (c *funcCompiler) memberNode(e *ast.MemberExpr) cflow.Node {
	recvTy := c.ty(e.Recv)
	if g, ok := recvTy.(*types.Generic); ok && g.Super != nil {
		recvTy = g.Super
	}
	named, ok := recvTy.(*types.Named)
	if !ok {
		c.errorf(e, "cannot lower method call on %s", recvTy)
		return code(pushUnit())
	}

	if named.Path == vecPath {
		if vop, ok := vecOps[e.Method]; ok {
			kids := []cflow.Node{c.exprNode(e.Recv)}
			for _, a := range e.Args {
				kids = append(kids, c.exprNode(a))
			}
			kids = append(kids, code(instrOp(vop.op)))
			if !vop.hasValue {
				kids = append(kids, code(pushUnit()))
			}
			return cflow.Block{Kids: kids}
		}
	}

	d, declared := c.p.proj.Store.Lookup(named.Path)
	if declared && d.Kind == decl.KindTrait {
		// virtual dispatch: args first, then the trait object, so DYNCALL
		// can read the v-table fingerprint off the top of the stack.
		traitFn := named.Path.Child(e.Method)
		id, ok := c.p.funcIDs[traitFn.String()]
		if !ok {
			c.errorf(e, "trait %s has no method %q", named.Path, e.Method)
			return code(pushUnit())
		}
		var kids []cflow.Node
		for _, a := range e.Args {
			kids = append(kids, c.exprNode(a))
		}
		kids = append(kids, c.exprNode(e.Recv), code(instrN(bytecode.DYNCALL, int(id))))
		return cflow.Block{Kids: kids}
	}

	id, params, ok := c.resolveMethod(named.Path, e.Method)
	if !ok {
		c.errorf(e, "no method %q on %s", e.Method, named.Path)
		return code(pushUnit())
	}
	kids := []cflow.Node{c.exprNode(e.Recv)}
	for i, a := range e.Args {
		node := c.exprNode(a)
		if i < len(params) {
			node = c.coerceAnnotated(node, a, params[i].Type)
		}
		kids = append(kids, node)
	}
	kids = append(kids, code(instrN(bytecode.CALL, int(id))))
	return cflow.Block{Kids: kids}
}

// resolveMethod finds the concrete function a statically dispatched method
// call lands on: the type's own declarations, then its impls' methods,
// then a trait default reachable through a sub-type impl (preferring an
// override the impl itself provides).
func (c *funcCompiler) resolveMethod(p decl.Path, name string) (uint32, []*ast.Arg, bool) {
	store := c.p.proj.Store
	for _, child := range store.Children(p) {
		if child.Kind == decl.KindFunction && child.Name == name {
			return c.funcIDFor(child), child.Body.(*decl.FuncBody).Args, true
		}
	}
	for _, imp := range c.p.proj.Impls.For(p) {
		for _, fd := range imp.Funcs {
			if fd.Name == name {
				return c.funcIDFor(fd), fd.Body.(*decl.FuncBody).Args, true
			}
		}
	}
	for _, imp := range c.p.proj.Impls.For(p) {
		toPath, ok := namedTypeExprPath(imp.ToTy)
		if !ok {
			continue
		}
		for _, child := range store.Children(toPath) {
			if child.Kind == decl.KindFunction && child.Name == name {
				return c.funcIDFor(child), child.Body.(*decl.FuncBody).Args, true
			}
		}
	}
	return 0, nil, false
}

func (c *funcCompiler) constructNode(e *ast.ConstructExpr) cflow.Node {
	d, ok := c.p.lookupDecl(c.imports, e.Path)
	if !ok {
		c.errorf(e, "unresolved type %q", decl.NewPath(e.Path...))
		return code(pushUnit())
	}
	body, _ := d.Body.(*decl.StructBody)
	var kids []cflow.Node
	n := 0
	if body != nil {
		// field values are laid out in declaration order regardless of the
		// literal's own ordering, matching Index's field numbering
		for _, sf := range body.Fields {
			var val ast.Expr
			for _, f := range e.Fields {
				if f.Name == sf.Name {
					val = f.Value
				}
			}
			if val == nil {
				c.errorf(e, "missing field %q in construction of %s", sf.Name, d.Path)
				kids = append(kids, code(pushUnit()))
			} else {
				kids = append(kids, c.coerceAnnotated(c.exprNode(val), val, sf.Type))
			}
			n++
		}
	}
	kids = append(kids, code(bytecode.Instr{Op: bytecode.CONSTRUCT, N2: int32(c.typeIDFor(d)), N: int32(n)}))
	return cflow.Block{Kids: kids}
}

// fieldIndex maps a field name to its position in the constructed object:
// `_N` tuple fields map to N, named fields to their declaration order.
func (c *funcCompiler) fieldIndex(recvTy types.Type, name string, at ast.Node) int {
	if g, ok := recvTy.(*types.Generic); ok && g.Super != nil {
		recvTy = g.Super
	}
	named, ok := recvTy.(*types.Named)
	if !ok {
		c.errorf(at, "field access on non-struct type %s", recvTy)
		return 0
	}
	d, ok := c.p.proj.Store.Lookup(named.Path)
	if !ok {
		return 0
	}
	body, ok := d.Body.(*decl.StructBody)
	if !ok {
		return 0
	}
	for i := range body.Tuple {
		if name == fmt.Sprintf("_%d", i) {
			return i
		}
	}
	for i, f := range body.Fields {
		if f.Name == name {
			return i
		}
	}
	c.errorf(at, "%s has no field %q", named.Path, name)
	return 0
}

// coerceAnnotated wraps node's value in a Dyn when the annotated type
// names a trait and the expression's checked type is a concrete named
// type — the point where a v-table fingerprint gets burned into the code.
func (c *funcCompiler) coerceAnnotated(node cflow.Node, e ast.Expr, te ast.TypeExpr) cflow.Node {
	traitPath, ok := c.p.traitPathOf(c.imports, te)
	if !ok {
		return node
	}
	named, ok := c.ty(e).(*types.Named)
	if !ok || named.Path == traitPath {
		return node
	}
	if d, ok := c.p.proj.Store.Lookup(named.Path); !ok || d.Kind == decl.KindTrait {
		return node
	}
	fp := c.p.vtableFor(named.Path, traitPath)
	return cflow.Block{Kids: []cflow.Node{node, code(bytecode.Instr{Op: bytecode.DYN, FP: fp})}}
}

// lift compiles a lambda as its own top-level function and returns its
// id. Lambdas do not capture enclosing locals: the instruction set has no
// closure representation, so references that are neither parameters nor
// declarations diagnose.
func (c *funcCompiler) lift(l *ast.LambdaExpr) uint32 {
	id := c.p.nextLiftID
	c.p.nextLiftID++

	sub := &funcCompiler{
		p: c.p, fr: c.fr, file: c.file, imports: c.imports,
		fb: NewFuncBuilder(), funcVals: map[string]uint32{}, retType: l.Ret,
	}
	var entry []bytecode.Instr
	for i, a := range l.Args {
		slot := sub.fb.AddVar(a.Name)
		entry = append(entry, instrN(bytecode.PARAM, i), instrN(bytecode.NEWLOCAL, slot))
	}
	body := sub.coerceAnnotated(sub.exprNode(l.Body), l.Body, l.Ret)
	root := cflow.Block{Kids: []cflow.Node{code(entry...), body, code(instrOp(bytecode.RETURN))}}
	instrs := root.Build(0, 0, 0, 0)

	pos := c.file.Position(l.Start)
	c.p.lifted = append(c.p.lifted, &bytecode.Function{
		ID:       id,
		ArgCount: uint32(len(l.Args)),
		Name:     fmt.Sprintf("lambda$%d", id),
		Line:     uint16(pos.Line),
		Col:      uint16(pos.Col),
		FileID:   uint32(c.file.ID()),
		Marks:    sub.marks,
		Code:     instrs,
	})
	return id
}

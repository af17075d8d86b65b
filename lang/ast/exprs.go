package ast

import "github.com/mna/gib/lang/token"

func (*Ident) exprNode()         {}
func (*IntLit) exprNode()        {}
func (*FloatLit) exprNode()      {}
func (*StringLit) exprNode()     {}
func (*CharLit) exprNode()       {}
func (*BoolLit) exprNode()       {}
func (*TupleExpr) exprNode()     {}
func (*CallExpr) exprNode()      {}
func (*MemberExpr) exprNode()    {}
func (*FieldExpr) exprNode()     {}
func (*BinaryExpr) exprNode()    {}
func (*UnaryExpr) exprNode()     {}
func (*LambdaExpr) exprNode()    {}
func (*BlockExpr) exprNode()     {}
func (*IfExpr) exprNode()        {}
func (*MatchExpr) exprNode()     {}
func (*ConstructExpr) exprNode() {}

// Ident is a (possibly qualified) identifier reference: a local, a
// generic, an import, or an absolute declaration path segmented by `::`.
type Ident struct {
	Start token.Pos
	Path  []string
	End   token.Pos
}

func (e *Ident) Span() (token.Pos, token.Pos) { return e.Start, e.End }
func (e *Ident) Walk(Visitor)                 {}

type IntLit struct {
	Start, End token.Pos
	Value      int64
}

func (e *IntLit) Span() (token.Pos, token.Pos) { return e.Start, e.End }
func (e *IntLit) Walk(Visitor)                 {}

type FloatLit struct {
	Start, End token.Pos
	Value      float64
}

func (e *FloatLit) Span() (token.Pos, token.Pos) { return e.Start, e.End }
func (e *FloatLit) Walk(Visitor)                 {}

type StringLit struct {
	Start, End token.Pos
	Value      string
}

func (e *StringLit) Span() (token.Pos, token.Pos) { return e.Start, e.End }
func (e *StringLit) Walk(Visitor)                 {}

type CharLit struct {
	Start, End token.Pos
	Value      rune
}

func (e *CharLit) Span() (token.Pos, token.Pos) { return e.Start, e.End }
func (e *CharLit) Walk(Visitor)                 {}

type BoolLit struct {
	Start, End token.Pos
	Value      bool
}

func (e *BoolLit) Span() (token.Pos, token.Pos) { return e.Start, e.End }
func (e *BoolLit) Walk(Visitor)                 {}

// TupleExpr is `(a, b, c)`.
type TupleExpr struct {
	Start token.Pos
	Elems []Expr
	End   token.Pos
}

func (e *TupleExpr) Span() (token.Pos, token.Pos) { return e.Start, e.End }
func (e *TupleExpr) Walk(v Visitor) {
	for _, el := range e.Elems {
		walk(v, el)
	}
}

// CallExpr is `callee(args)`, where callee may resolve to a free function,
// a method value, or a struct/enum-variant constructor (Meta type).
type CallExpr struct {
	Start  token.Pos
	Callee Expr
	Args   []Expr
	End    token.Pos
}

func (e *CallExpr) Span() (token.Pos, token.Pos) { return e.Start, e.End }
func (e *CallExpr) Walk(v Visitor) {
	walk(v, e.Callee)
	for _, a := range e.Args {
		walk(v, a)
	}
}

// MemberExpr is `recv.method(args)`, checked via the receiver search order
// of spec.md §4.B.
type MemberExpr struct {
	Start  token.Pos
	Recv   Expr
	Method string
	Args   []Expr
	End    token.Pos
}

func (e *MemberExpr) Span() (token.Pos, token.Pos) { return e.Start, e.End }
func (e *MemberExpr) Walk(v Visitor) {
	walk(v, e.Recv)
	for _, a := range e.Args {
		walk(v, a)
	}
}

// FieldExpr is `recv.name` (field access, not a call); Name may be
// `_0`, `_1`, ... for tuple-struct fields.
type FieldExpr struct {
	Start token.Pos
	Recv  Expr
	Name  string
	End   token.Pos
}

func (e *FieldExpr) Span() (token.Pos, token.Pos) { return e.Start, e.End }
func (e *FieldExpr) Walk(v Visitor)               { walk(v, e.Recv) }

// BinaryExpr is `lhs op rhs`.
type BinaryExpr struct {
	Start token.Pos
	Op    token.Token
	Lhs   Expr
	Rhs   Expr
	End   token.Pos
}

func (e *BinaryExpr) Span() (token.Pos, token.Pos) { return e.Start, e.End }
func (e *BinaryExpr) Walk(v Visitor) {
	walk(v, e.Lhs)
	walk(v, e.Rhs)
}

// UnaryExpr is `op operand`, e.g. `-x`, `!x`.
type UnaryExpr struct {
	Start   token.Pos
	Op      token.Token
	Operand Expr
	End     token.Pos
}

func (e *UnaryExpr) Span() (token.Pos, token.Pos) { return e.Start, e.End }
func (e *UnaryExpr) Walk(v Visitor)               { walk(v, e.Operand) }

// LambdaExpr is `|args| expr` or `|args| { block }`.
type LambdaExpr struct {
	Start token.Pos
	Args  []*Arg
	Ret   TypeExpr // nil if not annotated
	Body  *BlockExpr
	End   token.Pos
}

func (e *LambdaExpr) Span() (token.Pos, token.Pos) { return e.Start, e.End }
func (e *LambdaExpr) Walk(v Visitor) {
	for _, a := range e.Args {
		walk(v, a)
	}
	if e.Ret != nil {
		walk(v, e.Ret)
	}
	walk(v, e.Body)
}

// BlockExpr is `{ stmts... }`; its value is the last expression statement,
// or unit.
type BlockExpr struct {
	Start token.Pos
	Stmts []Stmt
	End   token.Pos
}

func (e *BlockExpr) Span() (token.Pos, token.Pos) { return e.Start, e.End }
func (e *BlockExpr) Walk(v Visitor) {
	for _, s := range e.Stmts {
		walk(v, s)
	}
}

// Condition is the head of an `if`/`while`: either a boolean expression,
// or a `let pattern = expr` pattern-bind condition whose bindings are
// visible only in the "then"/body branch (spec.md §4.B Condition rule).
type Condition struct {
	Expr    Expr    // set when Pattern is nil
	Pattern Pattern // set for `if let pat = expr`
	Init    Expr    // the scrutinee, set together with Pattern
}

// IfExpr is an if/else-if/.../else chain, evaluating to a value when every
// branch is an expression (spec.md §1).
type IfExpr struct {
	Start    token.Pos
	Branches []IfBranch
	Else     *BlockExpr // nil if there is no else clause
	End      token.Pos
}

// IfBranch is one `if`/`else if` arm.
type IfBranch struct {
	Cond Condition
	Body *BlockExpr
}

func (e *IfExpr) Span() (token.Pos, token.Pos) { return e.Start, e.End }
func (e *IfExpr) Walk(v Visitor) {
	for _, b := range e.Branches {
		if b.Cond.Expr != nil {
			walk(v, b.Cond.Expr)
		}
		if b.Cond.Pattern != nil {
			walk(v, b.Cond.Pattern)
			walk(v, b.Cond.Init)
		}
		walk(v, b.Body)
	}
	if e.Else != nil {
		walk(v, e.Else)
	}
}

// MatchArm is one `pattern (if guard)? => body` arm of a match expression.
type MatchArm struct {
	Start   token.Pos
	Pattern Pattern
	Guard   Expr // nil if no guard
	Body    Expr
	End     token.Pos
}

func (a *MatchArm) Span() (token.Pos, token.Pos) { return a.Start, a.End }
func (a *MatchArm) Walk(v Visitor) {
	walk(v, a.Pattern)
	if a.Guard != nil {
		walk(v, a.Guard)
	}
	walk(v, a.Body)
}

// MatchExpr is `match scrutinee { arm, arm, ... }`.
type MatchExpr struct {
	Start     token.Pos
	Scrutinee Expr
	Arms      []*MatchArm
	End       token.Pos
}

func (e *MatchExpr) Span() (token.Pos, token.Pos) { return e.Start, e.End }
func (e *MatchExpr) Walk(v Visitor) {
	walk(v, e.Scrutinee)
	for _, a := range e.Arms {
		walk(v, a)
	}
}

// ConstructExpr is a struct literal `Path { a: 1, b: 2 }`, distinct from a
// CallExpr on a tuple-struct/enum-variant constructor.
type ConstructExpr struct {
	Start  token.Pos
	Path   []string
	Fields []*ConstructField
	End    token.Pos
}

// ConstructField is one `name: expr` entry of a ConstructExpr.
type ConstructField struct {
	Name  string
	Value Expr
}

func (e *ConstructExpr) Span() (token.Pos, token.Pos) { return e.Start, e.End }
func (e *ConstructExpr) Walk(v Visitor) {
	for _, f := range e.Fields {
		walk(v, f.Value)
	}
}

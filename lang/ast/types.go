package ast

import "github.com/mna/gib/lang/token"

func (*NamedTypeExpr) typeExprNode()    {}
func (*TupleTypeExpr) typeExprNode()    {}
func (*FuncTypeExpr) typeExprNode()     {}
func (*WildcardTypeExpr) typeExprNode() {}

// NamedTypeExpr is a (possibly qualified, possibly generic) type name, e.g.
// `std::Opt[Int]`.
type NamedTypeExpr struct {
	Start token.Pos
	Path  []string
	Args  []TypeExpr
	End   token.Pos
}

func (n *NamedTypeExpr) Span() (token.Pos, token.Pos) { return n.Start, n.End }
func (n *NamedTypeExpr) Walk(v Visitor) {
	for _, a := range n.Args {
		walk(v, a)
	}
}

// TupleTypeExpr is `(T, U, ...)`.
type TupleTypeExpr struct {
	Start token.Pos
	Elems []TypeExpr
	End   token.Pos
}

func (n *TupleTypeExpr) Span() (token.Pos, token.Pos) { return n.Start, n.End }
func (n *TupleTypeExpr) Walk(v Visitor) {
	for _, e := range n.Elems {
		walk(v, e)
	}
}

// FuncTypeExpr is `fn(T, U) -> R`, with an optional receiver type.
type FuncTypeExpr struct {
	Start    token.Pos
	Receiver TypeExpr // nil if none
	Args     []TypeExpr
	Ret      TypeExpr // nil means unit
	End      token.Pos
}

func (n *FuncTypeExpr) Span() (token.Pos, token.Pos) { return n.Start, n.End }
func (n *FuncTypeExpr) Walk(v Visitor) {
	if n.Receiver != nil {
		walk(v, n.Receiver)
	}
	for _, a := range n.Args {
		walk(v, a)
	}
	if n.Ret != nil {
		walk(v, n.Ret)
	}
}

// WildcardTypeExpr is `_`, legal only where the checker fills in an
// inferred type (e.g. a let binding); illegal in declaration position
// (spec.md §7 UnexpectedWildcard).
type WildcardTypeExpr struct {
	Start, End token.Pos
}

func (n *WildcardTypeExpr) Span() (token.Pos, token.Pos) { return n.Start, n.End }
func (n *WildcardTypeExpr) Walk(Visitor)                 {}

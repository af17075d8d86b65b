package ast

import "github.com/mna/gib/lang/token"

// Pattern is any match/let/for-binding pattern.
type Pattern interface {
	Node
	patternNode()
}

func (*WildcardPattern) patternNode() {}
func (*BindPattern) patternNode()     {}
func (*LiteralPattern) patternNode()  {}
func (*TuplePattern) patternNode()    {}
func (*StructPattern) patternNode()   {}

// WildcardPattern is `_`: matches anything, binds nothing.
type WildcardPattern struct {
	Start, End token.Pos
}

func (p *WildcardPattern) Span() (token.Pos, token.Pos) { return p.Start, p.End }
func (p *WildcardPattern) Walk(Visitor)                 {}

// BindPattern binds the scrutinee (or sub-term) to a new variable name,
// optionally requiring it to be an instance of Type.
type BindPattern struct {
	Start token.Pos
	Name  string
	Type  TypeExpr // nil if untyped
	End   token.Pos
}

func (p *BindPattern) Span() (token.Pos, token.Pos) { return p.Start, p.End }
func (p *BindPattern) Walk(v Visitor) {
	if p.Type != nil {
		walk(v, p.Type)
	}
}

// LiteralPattern requires the scrutinee to equal a literal value exactly
// (spec.md §1 "literal exactness").
type LiteralPattern struct {
	Start token.Pos
	Lit   Expr // *IntLit, *FloatLit, *StringLit, *CharLit or *BoolLit
	End   token.Pos
}

func (p *LiteralPattern) Span() (token.Pos, token.Pos) { return p.Start, p.End }
func (p *LiteralPattern) Walk(v Visitor)               { walk(v, p.Lit) }

// TuplePattern destructures a tuple value element-wise.
type TuplePattern struct {
	Start token.Pos
	Elems []Pattern
	End   token.Pos
}

func (p *TuplePattern) Span() (token.Pos, token.Pos) { return p.Start, p.End }
func (p *TuplePattern) Walk(v Visitor) {
	for _, e := range p.Elems {
		walk(v, e)
	}
}

// StructFieldPattern binds one field of a StructPattern.
type StructFieldPattern struct {
	Name    string
	Pattern Pattern
}

// StructPattern destructures a struct or enum-variant value: `Path { a, b: pat }`
// or, for a tuple struct/variant, `Path(pat, pat)`.
type StructPattern struct {
	Start  token.Pos
	Path   []string
	Tuple  []Pattern             // non-nil for tuple-shaped destructuring
	Fields []*StructFieldPattern // non-nil for field-shaped destructuring
	End    token.Pos
}

func (p *StructPattern) Span() (token.Pos, token.Pos) { return p.Start, p.End }
func (p *StructPattern) Walk(v Visitor) {
	for _, e := range p.Tuple {
		walk(v, e)
	}
	for _, f := range p.Fields {
		walk(v, f.Pattern)
	}
}

// Package ast defines the concrete syntax tree produced by the parser and
// consumed by the resolver and checker. It is a thin, quasi-lossless tree:
// enough to recover spans for diagnostics and IR cursor queries, not a
// goal in itself (the lexer/parser/formatter are mechanical collaborators,
// see spec.md §1).
package ast

import "github.com/mna/gib/lang/token"

// Node is implemented by every AST node.
type Node interface {
	// Span reports the start and end position of the node.
	Span() (start, end token.Pos)
	// Walk visits the node's direct children, in source order, calling
	// v.Visit(child) for each; if v.Visit returns a non-nil Visitor w, the
	// child is walked with w.
	Walk(v Visitor)
}

// Expr is any expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is any statement node.
type Stmt interface {
	Node
	stmtNode()
}

// TypeExpr is the syntactic representation of a type annotation, before
// the checker resolves it to a lang/types.Type.
type TypeExpr interface {
	Node
	typeExprNode()
}

// TopDecl is any top-level declaration: struct, enum, trait, impl,
// function or nested module.
type TopDecl interface {
	Node
	topDeclNode()
}

// File is the parsed form of one source file: a sequence of top-level
// declarations and use-imports.
type File struct {
	Name  string
	Uses  []*UseDecl
	Decls []TopDecl
	EOF   token.Pos
}

func (f *File) Span() (token.Pos, token.Pos) {
	start := f.EOF
	if len(f.Uses) > 0 {
		start, _ = f.Uses[0].Span()
	} else if len(f.Decls) > 0 {
		start, _ = f.Decls[0].Span()
	}
	return start, f.EOF
}

func (f *File) Walk(v Visitor) {
	for _, u := range f.Uses {
		walk(v, u)
	}
	for _, d := range f.Decls {
		walk(v, d)
	}
}

// UseDecl imports a declaration path into the current file's scope. It
// never introduces a new declaration (spec.md §4.A).
type UseDecl struct {
	Start token.Pos
	Path  []string
	Alias string // empty if not aliased
	End   token.Pos
}

func (u *UseDecl) Span() (token.Pos, token.Pos) { return u.Start, u.End }
func (u *UseDecl) Walk(Visitor)                 {}

// Generic is a declared generic parameter: name, variance, and bound.
type Generic struct {
	Start    token.Pos
	Name     string
	Variance Variance
	Super    TypeExpr // nil means the implicit Any bound
	End      token.Pos
}

func (g *Generic) Span() (token.Pos, token.Pos) { return g.Start, g.End }
func (g *Generic) Walk(v Visitor) {
	if g.Super != nil {
		walk(v, g.Super)
	}
}

// Variance is the declared variance of a generic parameter.
type Variance int

const (
	Invariant Variance = iota
	Covariant
	Contravariant
)

func (v Variance) String() string {
	switch v {
	case Covariant:
		return "out"
	case Contravariant:
		return "in"
	default:
		return ""
	}
}

// walk dispatches to Visit and recurses into the child when requested.
func walk(v Visitor, n Node) {
	if n == nil {
		return
	}
	if w := v.Visit(n); w != nil {
		n.Walk(w)
	}
}

// Walk traverses an AST in depth-first order starting at n.
func Walk(v Visitor, n Node) { walk(v, n) }

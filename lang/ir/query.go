package ir

import (
	"github.com/mna/gib/lang/ast"
	"github.com/mna/gib/lang/decl"
	"github.com/mna/gib/lang/token"
)

// AtOffset returns the innermost node whose span contains p, or nil if p
// falls outside the file entirely. LSP hover/definition/completion all
// start from this.
func (f *File) AtOffset(p token.Pos) *Node { return f.Root.AtOffset(p) }

// AtOffset returns the innermost descendant (including n itself) whose
// span contains p.
func (n *Node) AtOffset(p token.Pos) *Node {
	if n == nil {
		return nil
	}
	start, end := n.Span()
	if p < start || p > end {
		return nil
	}
	for _, k := range n.Kids {
		if found := k.AtOffset(p); found != nil {
			return found
		}
	}
	return n
}

// TokenKind classifies a semantic token for LSP semantic-highlighting.
type TokenKind int

const (
	TokenIdent TokenKind = iota
	TokenType
	TokenFunc
	TokenKeyword
	TokenNumber
	TokenString
)

// SemanticToken is one classified span of source, the unit LSP's
// textDocument/semanticTokens response is built from.
type SemanticToken struct {
	Span token.Span
	Kind TokenKind
}

// Tokens appends one SemanticToken per classifiable node in the subtree
// rooted at n, in source order (Kids are visited left to right, matching
// how lang/ast.Walk visits them).
func (n *Node) Tokens(out *[]SemanticToken) {
	if n == nil {
		return
	}
	if kind, ok := semanticKind(n.AST); ok {
		start, end := n.Span()
		*out = append(*out, SemanticToken{Span: token.Span{Start: start, End: end}, Kind: kind})
	}
	for _, k := range n.Kids {
		k.Tokens(out)
	}
}

func semanticKind(n ast.Node) (TokenKind, bool) {
	switch n.(type) {
	case *ast.Ident:
		return TokenIdent, true
	case *ast.IntLit, *ast.FloatLit:
		return TokenNumber, true
	case *ast.StringLit, *ast.CharLit:
		return TokenString, true
	case *ast.StructDecl, *ast.EnumDecl, *ast.TraitDecl, *ast.NamedTypeExpr:
		return TokenType, true
	case *ast.FuncDecl:
		return TokenFunc, true
	default:
		return 0, false
	}
}

// Hoverable is implemented by nodes that can answer a hover query.
// *Node implements it whenever its AST is a typed expression.
type Hoverable interface {
	Hover() (string, bool)
}

// Hover reports the node's inferred type as hover text, when it has one.
func (n *Node) Hover() (string, bool) {
	if n == nil || n.Ty == nil {
		return "", false
	}
	return n.Ty.String(), true
}

// Definable is implemented by nodes that can resolve to a declaration
// site elsewhere in the project.
type Definable interface {
	Goto(store *decl.Store) (file string, span token.Span, ok bool)
}

// Goto resolves an *ast.Ident to the declaration it names, for
// textDocument/definition. Only identifiers naming a project-level
// declaration (struct, enum, trait, function, module) resolve; locals and
// fields are not present in the decl.Store and report ok=false.
func (n *Node) Goto(store *decl.Store) (file string, span token.Span, ok bool) {
	if n == nil {
		return "", token.Span{}, false
	}
	id, isIdent := n.AST.(*ast.Ident)
	if !isIdent {
		return "", token.Span{}, false
	}
	p := decl.NewPath(id.Path...)
	d, found := store.Lookup(p)
	if !found {
		return "", token.Span{}, false
	}
	return d.File, d.Span, true
}

// Goto resolves the declaration referenced at p within f.
func (f *File) Goto(p token.Pos) (file string, span token.Span, ok bool) {
	n := f.AtOffset(p)
	if n == nil {
		return "", token.Span{}, false
	}
	return n.Goto(f.store)
}

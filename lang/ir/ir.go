// Package ir builds the typed tree IDEs query: a shape-for-shape mirror of
// lang/ast, with lang/check's inferred type attached to every expression
// node and a scope snapshot attached to every block, per spec.md §9 ("the
// IR exists so hover/goto/completion never re-run the checker"). It walks
// lang/ast's existing Visitor rather than declaring a parallel type switch
// per node kind (lang/ast/printer.go is the grounding for that walk shape),
// so adding an ast node never requires a matching edit here.
package ir

import (
	"github.com/mna/gib/lang/ast"
	"github.com/mna/gib/lang/check"
	"github.com/mna/gib/lang/decl"
	"github.com/mna/gib/lang/resolver"
	"github.com/mna/gib/lang/token"
	"github.com/mna/gib/lang/types"
)

// Node wraps one ast.Node with the data the checker produced for it: Ty is
// set when AST is an ast.Expr the checker typed; Scope is set when AST is
// an *ast.BlockExpr whose bindings were snapshotted at checkBlock time.
type Node struct {
	AST   ast.Node
	Ty    types.Type
	Scope *check.Snapshot
	Kids  []*Node
}

// Span reports the node's source extent.
func (n *Node) Span() (token.Pos, token.Pos) { return n.AST.Span() }

// File is one source file's IR: the typed tree plus enough of the owning
// project to resolve Goto targets.
type File struct {
	Name  string
	Root  *Node
	store *decl.Store
}

// Build constructs the IR for a single resolved, checked file. funcs is the
// set of FuncResults the checker produced for functions declared in pf;
// their ExprTypes/BlockScopes maps are merged before the tree is built,
// since a file's top-level scope and its functions are checked
// independently (spec.md §5: "checking is parameterized by file, not by
// declaration", but ExprTypes/BlockScopes are recorded per function).
func Build(store *decl.Store, pf *resolver.ParsedFile, funcs []*check.FuncResult) *File {
	exprTypes := map[ast.Expr]types.Type{}
	blockScopes := map[*ast.BlockExpr]check.Snapshot{}
	for _, fr := range funcs {
		for e, ty := range fr.ExprTypes {
			exprTypes[e] = ty
		}
		for b, snap := range fr.BlockScopes {
			blockScopes[b] = snap
		}
	}
	return &File{
		Name:  pf.Name,
		Root:  buildNode(pf.AST, exprTypes, blockScopes),
		store: store,
	}
}

// buildNode mirrors lang/ast/printer.go's print: Walk descends exactly one
// level automatically (the child==n guard lets it reach n's direct
// children), and each child recurses into buildNode itself, so the
// resulting Kids slice holds true direct children, not the whole subtree
// flattened.
func buildNode(n ast.Node, exprTypes map[ast.Expr]types.Type, blockScopes map[*ast.BlockExpr]check.Snapshot) *Node {
	if n == nil {
		return nil
	}
	node := &Node{AST: n}
	if e, ok := n.(ast.Expr); ok {
		if ty, ok := exprTypes[e]; ok {
			node.Ty = ty
		}
	}
	if b, ok := n.(*ast.BlockExpr); ok {
		if snap, ok := blockScopes[b]; ok {
			cp := snap
			node.Scope = &cp
		}
	}
	ast.Walk(ast.VisitorFunc(func(child ast.Node) bool {
		if child == n {
			return true
		}
		node.Kids = append(node.Kids, buildNode(child, exprTypes, blockScopes))
		return false
	}), n)
	return node
}

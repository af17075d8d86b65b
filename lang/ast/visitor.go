package ast

// Visitor is implemented by anything that wants to walk an AST, following
// the same double-dispatch shape as the teacher's lang/ast/visitor.go:
// Visit is called with every node before its children; if it returns a
// non-nil Visitor, that Visitor is used to walk the children, allowing a
// caller to change behavior at a given depth (e.g. entering a new scope).
type Visitor interface {
	Visit(n Node) (w Visitor)
}

// VisitorFunc adapts a plain function to the Visitor interface: when the
// function returns true the walk continues into the node's children with
// the same function, when it returns false those children are skipped.
type VisitorFunc func(n Node) bool

func (f VisitorFunc) Visit(n Node) Visitor {
	if f(n) {
		return f
	}
	return nil
}

package decl

import (
	"github.com/mna/gib/lang/ast"
)

// Impl is one `impl` block. A concrete impl (ToTy == nil) provides methods
// on FromTy; a sub-type impl (ToTy != nil) additionally witnesses that
// FromTy is a sub-type of ToTy and supplies the ToTy trait's methods.
type Impl struct {
	ID       int
	File     string
	Generics []*ast.Generic
	FromTy   ast.TypeExpr
	ToTy     ast.TypeExpr // nil for a concrete (non-trait) impl
	Funcs    []*Decl      // KindFunction decls, parented under this impl
}

// ImplIndex maps the module path of an impl's FromTy to every impl
// targeting it, in the order the resolver encountered them (spec.md §4.A:
// "indexed by the module path of the named from_ty").
type ImplIndex struct {
	byPath map[string][]*Impl
	nextID int
}

// NewImplIndex returns an empty ImplIndex.
func NewImplIndex() *ImplIndex {
	return &ImplIndex{byPath: make(map[string][]*Impl)}
}

// Add registers imp under fromPath and assigns it a fresh ID, unique
// within this index (IDs count up from 0 in insertion order).
func (ix *ImplIndex) Add(fromPath Path, imp *Impl) {
	imp.ID = ix.nextID
	ix.nextID++
	ix.byPath[fromPath.key] = append(ix.byPath[fromPath.key], imp)
}

// For returns every impl indexed under fromPath, in insertion order.
func (ix *ImplIndex) For(fromPath Path) []*Impl { return ix.byPath[fromPath.key] }

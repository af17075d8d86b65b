// Package check's top-level driver: CheckProject walks every function
// declaration of a resolved project and runs the bidirectional checker
// over its body, per spec.md §4.B and §5 (checking is parameterized by
// file, with no state shared across files). Database wraps this behind a
// per-file-identity memoization cache, the "salsa-style memoization"
// incremental strategy spec.md §1 allows.
package check

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/mna/gib/lang/ast"
	"github.com/mna/gib/lang/decl"
	"github.com/mna/gib/lang/diag"
	"github.com/mna/gib/lang/resolver"
	"github.com/mna/gib/lang/types"
)

// FuncResult is the typed-checking output for one function/method body:
// the per-expression inferred types and per-block scope snapshots that
// lang/ir consumes to build the typed tree.
type FuncResult struct {
	Decl        *decl.Decl
	ExprTypes   map[ast.Expr]types.Type
	BlockScopes map[*ast.BlockExpr]Snapshot
}

// CheckResult is one file's checking output.
type CheckResult struct {
	File  string
	Funcs []*FuncResult
}

// CheckProject checks every function body in proj, returning the impl
// lookup built along the way (spec.md §4.B trait-dispatch/subtype
// discovery needs it), the accumulated diagnostics, and one FuncResult per
// checked function.
func CheckProject(proj *resolver.Project) (types.ImplLookup, *diag.List, []*CheckResult) {
	errs := &diag.List{}
	impls := BuildImplEdges(proj, errs)

	byFile := map[string][]*decl.Decl{}
	for _, d := range proj.Store.All() {
		if d.Kind == decl.KindFunction {
			byFile[d.File] = append(byFile[d.File], d)
		}
	}

	var results []*CheckResult
	for _, pf := range proj.Files {
		fileScope := newFileScope(pf.AST)
		res := &CheckResult{File: pf.Name}
		for _, d := range byFile[pf.Name] {
			fr := checkFunc(proj, impls, fileScope, d, errs)
			if fr != nil {
				res.Funcs = append(res.Funcs, fr)
			}
		}
		results = append(results, res)
	}
	errs.Sort()
	return impls, errs, results
}

// newFileScope builds the import table a file's `use` statements populate
// (spec.md §4.A: "use statements update the current scope's imports; they
// do not create declarations").
func newFileScope(f *ast.File) *Scope {
	sc := NewScope(nil)
	for _, u := range f.Uses {
		name := u.Alias
		if name == "" && len(u.Path) > 0 {
			name = u.Path[len(u.Path)-1]
		}
		if name != "" {
			sc.Imports[name] = decl.NewPath(u.Path...)
		}
	}
	return sc
}

// checkFunc checks one function/method body, returning nil for a
// required trait signature with no body to check.
func checkFunc(proj *resolver.Project, impls types.ImplLookup, fileScope *Scope, d *decl.Decl, errs *diag.List) *FuncResult {
	fb := d.Body.(*decl.FuncBody)
	if fb.AST == nil || fb.AST.Body == nil {
		// builtin or required trait signature: nothing to check
		return nil
	}

	tf := proj.Fset.File(d.Span.Start)
	s := NewState(proj, impls, tf, d.Path, errs)
	s.Scope = NewScope(fileScope)

	scope := methodGenericScope(proj.Store, d)
	for name, g := range scope {
		s.Scope.Generics[name] = g
	}

	if fb.Receiver != nil {
		recvTy := resolveTypeExpr(fb.Receiver, proj.Store, scope, errs, d.File)
		s.Scope.Define(&Var{Name: "self", Ty: recvTy, Kind: KindSelf})
	}
	for _, a := range fb.Args {
		argTy := resolveTypeExpr(a.Type, proj.Store, scope, errs, d.File)
		s.Scope.Define(&Var{Name: a.Name, Ty: argTy, Kind: KindParam})
	}
	ret := resolveTypeExpr(fb.Ret, proj.Store, scope, errs, d.File)

	s.Expect(fb.AST.Body, ret)
	s.finalizeTypes(d)

	return &FuncResult{Decl: d, ExprTypes: s.ExprTypes, BlockScopes: s.BlockScopes}
}

// methodGenericScope combines a method's own generics with its owner
// (struct/enum/trait)'s generics and a synthetic "Self" generic bound to
// the owner's instantiated type, so `Self`-typed receivers and bodies
// resolve via the ordinary genericScope lookup path (resolve_type.go).
func methodGenericScope(store *decl.Store, d *decl.Decl) genericScope {
	scope := genericScope{}
	owner, hasOwner := store.Lookup(d.Parent)
	if hasOwner {
		for _, g := range owner.Generics {
			scope[g.Name] = &types.Generic{Name: g.Name, Variance: variance(g.Variance)}
		}
	}
	for _, g := range d.Generics {
		scope[g.Name] = &types.Generic{Name: g.Name, Variance: variance(g.Variance)}
	}
	scope["Self"] = &types.Generic{Name: "Self", Super: selfTypeFor(owner, hasOwner, d.Parent, scope)}
	return scope
}

// selfTypeFor computes the type `Self` stands for inside d's body: the
// owner struct/enum instantiated with its own generics (as Generic
// placeholders) when the method is declared on a concrete type, or a
// reference to the trait itself when declared inside a trait body.
func selfTypeFor(owner *decl.Decl, hasOwner bool, parent decl.Path, scope genericScope) types.Type {
	if !hasOwner {
		return types.Any{}
	}
	switch owner.Kind {
	case decl.KindStruct, decl.KindEnum:
		args := make([]types.Type, len(owner.Generics))
		for i, g := range owner.Generics {
			args[i] = scope[g.Name]
		}
		return &types.Named{Path: parent, Args: args}
	case decl.KindTrait:
		return &types.Named{Path: parent}
	default:
		return types.Any{}
	}
}

// Database wraps CheckProject-style per-file results behind an LRU keyed
// by file identity (spec.md §1 "incremental recompilation ... cache by
// file identity"), so repeated `build`/`run`/`lsp` invocations over an
// unchanged file skip re-checking it.
type Database struct {
	cache *lru.Cache
}

// NewDatabase returns a Database holding up to size entries.
func NewDatabase(size int) (*Database, error) {
	if size < 1 {
		size = 1
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Database{cache: c}, nil
}

// Get returns the cached result for fileID, if present.
func (db *Database) Get(fileID int) (*CheckResult, bool) {
	v, ok := db.cache.Get(fileID)
	if !ok {
		return nil, false
	}
	return v.(*CheckResult), true
}

// Put stores res under fileID, evicting the least-recently-used entry
// when the cache is full.
func (db *Database) Put(fileID int, res *CheckResult) {
	db.cache.Add(fileID, res)
}

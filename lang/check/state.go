// Package check implements the bidirectional type checker: the Checker
// component of spec.md §4.B. check(node) infers a type; expect(node, want)
// verifies against an expected type, specializing into sub-terms where the
// grammar allows (tuples, lambdas, match arms).
package check

import (
	"github.com/mna/gib/lang/ast"
	"github.com/mna/gib/lang/decl"
	"github.com/mna/gib/lang/diag"
	"github.com/mna/gib/lang/resolver"
	"github.com/mna/gib/lang/token"
	"github.com/mna/gib/lang/types"
	"github.com/mna/gib/lang/tyvar"
)

// VarKind classifies a binding in scope.
type VarKind int

const (
	KindVar VarKind = iota
	KindParam
	KindGeneric
	KindSelf
)

// Var is one binding visible in a Scope.
type Var struct {
	Name string
	Ty   types.Type
	Kind VarKind
	Span token.Span
}

// Scope holds the variables, generics and imports visible at one lexical
// block or top-level item; lookup walks outward through Parent (spec.md
// §3 "Scope").
type Scope struct {
	Parent   *Scope
	Vars     map[string]*Var
	Generics map[string]*types.Generic
	Imports  map[string]decl.Path
}

// NewScope opens a child scope of parent (nil for the outermost scope of a
// file or top-level item).
func NewScope(parent *Scope) *Scope {
	return &Scope{Parent: parent, Vars: map[string]*Var{}, Generics: map[string]*types.Generic{}, Imports: map[string]decl.Path{}}
}

// Define adds v to the scope, innermost-wins on shadowing.
func (s *Scope) Define(v *Var) { s.Vars[v.Name] = v }

// LookupVar walks the scope chain outward for a variable named name.
func (s *Scope) LookupVar(name string) (*Var, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if v, ok := sc.Vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// LookupGeneric walks the scope chain outward for a declared generic.
func (s *Scope) LookupGeneric(name string) (*types.Generic, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if g, ok := sc.Generics[name]; ok {
			return g, true
		}
	}
	return nil, false
}

// LookupImport walks the scope chain outward for a name brought into scope
// by a `use` statement.
func (s *Scope) LookupImport(name string) (decl.Path, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if p, ok := sc.Imports[name]; ok {
			return p, true
		}
	}
	return decl.Path{}, false
}

// Snapshot captures the scope's bindings at a point in time so the IR
// (lang/ir) can replay it for hover/goto queries without re-checking
// (spec.md §9 "Scope capture for the IR").
type Snapshot struct {
	Vars     map[string]*Var
	Generics map[string]*types.Generic
}

// Snapshot copies the currently-visible bindings (including inherited
// ones) into an immutable Snapshot.
func (s *Scope) Snapshot() Snapshot {
	vars := map[string]*Var{}
	generics := map[string]*types.Generic{}
	for sc := s; sc != nil; sc = sc.Parent {
		for k, v := range sc.Vars {
			if _, ok := vars[k]; !ok {
				vars[k] = v
			}
		}
		for k, g := range sc.Generics {
			if _, ok := generics[k]; !ok {
				generics[k] = g
			}
		}
	}
	return Snapshot{Vars: vars, Generics: generics}
}

// State is CheckState: the mutable context threaded through one file's
// check (spec.md §4.B). Per spec.md §5, a State is never shared across
// files — each parallel per-file check owns its own State over the
// read-only Store/Impls/Project.
type State struct {
	Project *resolver.Project
	Impls   types.ImplLookup
	Vars    *tyvar.Store
	Errs    *diag.List

	File    *token.File
	curPath decl.Path // the declaration currently being checked, for `self`
	Scope   *Scope

	// ExprTypes and BlockScopes are populated as Check/Expect/checkBlock run,
	// so lang/ir can build the typed tree without re-running the checker
	// (spec.md §4.D: each IR node carries its inferred type; each block
	// carries a scope snapshot).
	ExprTypes   map[ast.Expr]types.Type
	BlockScopes map[*ast.BlockExpr]Snapshot
}

// NewState opens a State for checking declarations belonging to file,
// rooted at declPath (the struct/trait/impl/function's own path, used to
// resolve `Self`).
func NewState(proj *resolver.Project, impls types.ImplLookup, file *token.File, declPath decl.Path, errs *diag.List) *State {
	return &State{
		Project:     proj,
		Impls:       impls,
		Vars:        tyvar.New(),
		Errs:        errs,
		File:        file,
		curPath:     declPath,
		Scope:       NewScope(nil),
		ExprTypes:   map[ast.Expr]types.Type{},
		BlockScopes: map[*ast.BlockExpr]Snapshot{},
	}
}

// NewVar implements types.VarAllocator.
func (s *State) NewVar(bound *types.Generic) int { return s.Vars.NewVar(bound) }

func (s *State) pos(p token.Pos) token.Position { return s.File.Position(p) }

func (s *State) span(start, end token.Pos) token.Span { return token.Span{Start: start, End: end} }

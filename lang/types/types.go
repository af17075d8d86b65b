// Package types implements the Type Representation component: the sum of
// types the checker manipulates, plus the structural operations spec.md
// §3/§4.B assign to it (substitution, subtype test, instantiation, subtype
// enumeration via impls). It follows the same closed-interface-sum shape
// the teacher uses for runtime values: one marker method plus ordinary
// Go structs, so a type switch is the only way to destructure a Type.
package types

import (
	"fmt"
	"strings"

	"github.com/mna/gib/lang/decl"
)

// Type is implemented by every type variant.
type Type interface {
	fmt.Stringer
	typeNode()
}

func (Any) typeNode()       {}
func (Nothing) typeNode()   {}
func (Unknown) typeNode()   {}
func (*Named) typeNode()    {}
func (*Generic) typeNode()  {}
func (*Tuple) typeNode()    {}
func (*Sum) typeNode()      {}
func (*Function) typeNode() {}
func (*Meta) typeNode()     {}
func (TypeVar) typeNode()   {}

// Any is the top type: every type is an instance of Any.
type Any struct{}

func (Any) String() string { return "Any" }

// Nothing is the bottom type: an instance of Nothing is an instance of
// everything.
type Nothing struct{}

func (Nothing) String() string { return "Nothing" }

// Unknown stands in for a type that could not be determined because of a
// prior error; it checks trivially against any expected type so a single
// mistake does not cascade into unrelated diagnostics.
type Unknown struct{}

func (Unknown) String() string { return "Unknown" }

// Named is a reference to a declared struct/enum/enum-variant by path,
// with generic arguments supplied positionally.
type Named struct {
	Path decl.Path
	Args []Type
}

func (n *Named) String() string {
	// std prelude names render unqualified, the way source spells them
	name := strings.TrimPrefix(n.Path.String(), "std::")
	if len(n.Args) == 0 {
		return name
	}
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.String()
	}
	return name + "[" + strings.Join(parts, ", ") + "]"
}

// Variance mirrors ast.Variance without creating a dependency on the
// syntax package.
type Variance int

const (
	Invariant Variance = iota
	Covariant
	Contravariant
)

// Generic is an unapplied declared generic parameter (as opposed to a
// TypeVar, its instantiated stand-in during checking).
type Generic struct {
	Name     string
	Variance Variance
	Super    Type // nil means the implicit Any bound
}

func (g *Generic) String() string { return g.Name }

// Tuple is a fixed-length, heterogeneous product type.
type Tuple struct {
	Elems []Type
}

func (t *Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Sum is a union of types, e.g. the checked type of branches whose shared
// super-type is not a single declared type.
type Sum struct {
	Elems []Type
}

func (s *Sum) String() string {
	parts := make([]string, len(s.Elems))
	for i, e := range s.Elems {
		parts[i] = e.String()
	}
	return strings.Join(parts, " | ")
}

// Function is the type of a function or lambda value: an optional
// receiver, positional argument types, and a return type.
type Function struct {
	Receiver Type // nil if the function has no receiver
	Args     []Type
	Ret      Type
}

func (f *Function) String() string {
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = a.String()
	}
	recv := ""
	if f.Receiver != nil {
		recv = "self, "
	}
	return fmt.Sprintf("fn(%s%s): %s", recv, strings.Join(parts, ", "), f.Ret)
}

// Meta is the type of a type value used as an expression, e.g. a struct
// name used as its own constructor.
type Meta struct {
	Of Type
}

func (m *Meta) String() string { return "Meta(" + m.Of.String() + ")" }

// TypeVar is a reference to an entry in the type-variable store (lang/tyvar);
// legal only during checking. The store, not this package, owns its bounds
// and resolution so lang/types has no import-cycle back to lang/tyvar.
type TypeVar struct {
	ID int
}

func (v TypeVar) String() string { return fmt.Sprintf("?%d", v.ID) }

// Builtin named-type paths for the language's built-in scalar types
// (spec.md §8 scenario 1: "concrete built-in named type (std::Int, …)").
var (
	PathInt    = decl.NewPath("std", "Int")
	PathFloat  = decl.NewPath("std", "Float")
	PathString = decl.NewPath("std", "String")
	PathBool   = decl.NewPath("std", "Bool")
	PathChar   = decl.NewPath("std", "Char")
	PathUnit   = decl.NewPath("std", "Unit")
)

func Int() *Named    { return &Named{Path: PathInt} }
func Float() *Named  { return &Named{Path: PathFloat} }
func String() *Named { return &Named{Path: PathString} }
func Bool() *Named   { return &Named{Path: PathBool} }
func Char() *Named   { return &Named{Path: PathChar} }
func Unit() *Named   { return &Named{Path: PathUnit} }

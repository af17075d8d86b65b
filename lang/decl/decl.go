package decl

import (
	"github.com/mna/gib/lang/ast"
	"github.com/mna/gib/lang/token"
)

// Kind discriminates a Decl's body.
type Kind int

const (
	KindModule Kind = iota
	KindStruct
	KindEnum
	KindMember // an enum variant; its Body is a StructBody
	KindTrait
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindMember:
		return "enum variant"
	case KindTrait:
		return "trait"
	case KindFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Decl is one entry of the declaration tree, identified by its absolute
// Path. The Body field holds kind-specific data; it is one of *StructBody,
// *EnumBody, *TraitBody, *FuncBody, or nil for KindModule.
type Decl struct {
	Path     Path
	Name     string
	Kind     Kind
	Span     token.Span
	File     string
	Generics []*ast.Generic
	Parent   Path // the owning module/struct/enum/trait path
	Body     any
}

// StructBody is the body of a KindStruct or KindMember declaration: either
// a tuple of positional field types, or a list of named fields, or neither
// (a unit struct/variant).
type StructBody struct {
	Tuple  []ast.TypeExpr
	Fields []StructField
}

// StructField is one named field of a struct/variant body.
type StructField struct {
	Name string
	Type ast.TypeExpr
}

// IsUnit reports whether the body declares neither tuple nor named fields.
func (b *StructBody) IsUnit() bool { return b != nil && len(b.Tuple) == 0 && len(b.Fields) == 0 }

// EnumBody is the body of a KindEnum declaration: the paths of its variant
// declarations, each itself a KindMember Decl in the same Store.
type EnumBody struct {
	Variants []Path
}

// TraitBody is the body of a KindTrait declaration: the paths of its
// method declarations.
type TraitBody struct {
	Funcs []Path
}

// FuncBody is the body of a KindFunction declaration.
type FuncBody struct {
	Receiver ast.TypeExpr // nil if the function has no receiver
	Args     []*ast.Arg
	Ret      ast.TypeExpr // nil means unit
	Required bool         // true for an unimplemented trait method signature
	Virtual  bool         // true for any function declared inside a trait
	AST      *ast.FuncDecl
}

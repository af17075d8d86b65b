package ast

import "github.com/mna/gib/lang/token"

func (*StructDecl) topDeclNode() {}
func (*EnumDecl) topDeclNode()   {}
func (*TraitDecl) topDeclNode()  {}
func (*ImplDecl) topDeclNode()   {}
func (*FuncDecl) topDeclNode()   {}
func (*ModDecl) topDeclNode()    {}

// Field is a named, typed struct field.
type Field struct {
	Start token.Pos
	Name  string
	Type  TypeExpr
	End   token.Pos
}

func (f *Field) Span() (token.Pos, token.Pos) { return f.Start, f.End }
func (f *Field) Walk(v Visitor)               { walk(v, f.Type) }

// StructBody is the payload of a StructDecl or EnumVariant: none (a unit
// struct), a tuple of positional types, or named fields (spec.md §3).
type StructBody struct {
	Tuple  []TypeExpr // non-nil for a tuple struct
	Fields []*Field   // non-nil for a field struct
}

// StructDecl is `struct Name[generics] { ... }` or `struct Name(T, U)` or
// `struct Name`.
type StructDecl struct {
	Start    token.Pos
	Name     string
	Generics []*Generic
	Body     StructBody
	End      token.Pos
}

func (d *StructDecl) Span() (token.Pos, token.Pos) { return d.Start, d.End }
func (d *StructDecl) Walk(v Visitor) {
	for _, g := range d.Generics {
		walk(v, g)
	}
	for _, t := range d.Body.Tuple {
		walk(v, t)
	}
	for _, f := range d.Body.Fields {
		walk(v, f)
	}
}

// EnumVariant is one member of an enum, itself a Struct-bodied
// declaration nested under the enum's path.
type EnumVariant struct {
	Start token.Pos
	Name  string
	Body  StructBody
	End   token.Pos
}

func (e *EnumVariant) Span() (token.Pos, token.Pos) { return e.Start, e.End }
func (e *EnumVariant) Walk(v Visitor) {
	for _, t := range e.Body.Tuple {
		walk(v, t)
	}
	for _, f := range e.Body.Fields {
		walk(v, f)
	}
}

// EnumDecl is `enum Name[generics] { Variant1, Variant2(T), ... }`.
type EnumDecl struct {
	Start    token.Pos
	Name     string
	Generics []*Generic
	Variants []*EnumVariant
	End      token.Pos
}

func (d *EnumDecl) Span() (token.Pos, token.Pos) { return d.Start, d.End }
func (d *EnumDecl) Walk(v Visitor) {
	for _, g := range d.Generics {
		walk(v, g)
	}
	for _, variant := range d.Variants {
		walk(v, variant)
	}
}

// TraitDecl is `trait Name[generics] { fn required(self): T; fn default(self): T { ... } }`.
type TraitDecl struct {
	Start    token.Pos
	Name     string
	Generics []*Generic
	Funcs    []*FuncDecl
	End      token.Pos
}

func (d *TraitDecl) Span() (token.Pos, token.Pos) { return d.Start, d.End }
func (d *TraitDecl) Walk(v Visitor) {
	for _, g := range d.Generics {
		walk(v, g)
	}
	for _, f := range d.Funcs {
		walk(v, f)
	}
}

// ImplDecl is `impl[generics] ToTy for FromTy { fn ... }`, or
// `impl[generics] FromTy { fn ... }` for a concrete impl. A nil ToTy
// means a concrete (non-subtype) impl (spec.md §3).
type ImplDecl struct {
	Start    token.Pos
	Generics []*Generic
	FromTy   TypeExpr
	ToTy     TypeExpr // nil for a concrete impl
	Funcs    []*FuncDecl
	End      token.Pos
}

func (d *ImplDecl) Span() (token.Pos, token.Pos) { return d.Start, d.End }
func (d *ImplDecl) Walk(v Visitor) {
	for _, g := range d.Generics {
		walk(v, g)
	}
	walk(v, d.FromTy)
	if d.ToTy != nil {
		walk(v, d.ToTy)
	}
	for _, f := range d.Funcs {
		walk(v, f)
	}
}

// Arg is a function's formal parameter.
type Arg struct {
	Start token.Pos
	Name  string
	Type  TypeExpr
	End   token.Pos
}

func (a *Arg) Span() (token.Pos, token.Pos) { return a.Start, a.End }
func (a *Arg) Walk(v Visitor)               { walk(v, a.Type) }

// FuncDecl is `fn name[generics](self?, args): ret { body }` or, inside a
// trait, a signature with no body (Required == true).
type FuncDecl struct {
	Start    token.Pos
	Name     string
	Generics []*Generic
	Receiver TypeExpr // nil if the function has no receiver
	Args     []*Arg
	Ret      TypeExpr // nil means unit
	Body     *BlockExpr
	Required bool // true for a trait method with no default body
	Virtual  bool // true when dispatched through a v-table (trait methods)
	End      token.Pos
}

func (d *FuncDecl) Span() (token.Pos, token.Pos) { return d.Start, d.End }
func (d *FuncDecl) Walk(v Visitor) {
	for _, g := range d.Generics {
		walk(v, g)
	}
	if d.Receiver != nil {
		walk(v, d.Receiver)
	}
	for _, a := range d.Args {
		walk(v, a)
	}
	if d.Ret != nil {
		walk(v, d.Ret)
	}
	if d.Body != nil {
		walk(v, d.Body)
	}
}

// ModDecl introduces a nested module namespace: `mod name { ... }`.
type ModDecl struct {
	Start token.Pos
	Name  string
	Decls []TopDecl
	End   token.Pos
}

func (d *ModDecl) Span() (token.Pos, token.Pos) { return d.Start, d.End }
func (d *ModDecl) Walk(v Visitor) {
	for _, c := range d.Decls {
		walk(v, c)
	}
}

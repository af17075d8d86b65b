// Package resolver walks a parsed virtual file tree and builds the
// declaration tree and impl index that the checker (lang/check) consumes.
// Like the teacher's lexical resolver it is tolerant: it never aborts on a
// single bad declaration, it accumulates diagnostics and keeps going so a
// single typo in one file never hides errors elsewhere.
package resolver

import (
	"fmt"

	"github.com/mna/gib/lang/ast"
	"github.com/mna/gib/lang/decl"
	"github.com/mna/gib/lang/diag"
	"github.com/mna/gib/lang/parser"
	"github.com/mna/gib/lang/source"
	"github.com/mna/gib/lang/token"
)

// Project is the output of resolving an entire VFS: the declaration tree
// and the impl index, plus every parsed file kept around for the checker
// to walk (spec.md §3 "Declaration").
type Project struct {
	Fset  *token.FileSet
	Store *decl.Store
	Impls *decl.ImplIndex
	Files []*ParsedFile
}

// ParsedFile pairs a parsed syntax tree with the module path its directory
// maps to.
type ParsedFile struct {
	Name string
	Mod  decl.Path
	AST  *ast.File
}

// Resolve walks root, parsing every ".gib" file and inserting its
// top-level (and nested) declarations into a fresh Project. Parse and
// resolve errors are both appended to errs; neither stops the walk.
func Resolve(root *source.Node, errs *diag.List) *Project {
	p := &Project{
		Fset:  token.NewFileSet(),
		Store: decl.NewStore(64),
		Impls: decl.NewImplIndex(),
	}
	p.Store.Insert(&decl.Decl{Path: decl.Root, Kind: decl.KindModule})
	seedStd(p.Store)

	_ = source.Walk(root, func(n *source.Node) bool {
		if !n.IsSourceFile() {
			return true
		}
		p.resolveFile(n, errs)
		return true
	})
	return p
}

func (p *Project) resolveFile(n *source.Node, errs *diag.List) {
	src, err := n.Source()
	if err != nil {
		errs.Add(&diag.Diagnostic{Kind: diag.Simple, File: n.Path(), Message: fmt.Sprintf("reading source: %s", err)})
		return
	}
	file := p.Fset.AddFile(n.Path(), len(src))
	astFile := parser.ParseFile(file, src, errs)
	astFile.Name = n.Path()

	mod := decl.FromSlashed(parentDir(n.Path()))
	p.ensureModulePath(mod)
	p.Files = append(p.Files, &ParsedFile{Name: n.Path(), Mod: mod, AST: astFile})

	r := &fileResolver{proj: p, file: file, errs: errs, modPath: mod}
	for _, d := range astFile.Decls {
		r.topDecl(mod, d)
	}
}

// ensureModulePath inserts KindModule decls for every prefix of mod that
// isn't already present, so `info module-tree` can list namespace nodes
// with no declarations of their own.
func (p *Project) ensureModulePath(mod decl.Path) {
	segs := mod.Segments()
	cur := decl.Root
	for _, seg := range segs {
		child := cur.Child(seg)
		if _, ok := p.Store.Lookup(child); !ok {
			p.Store.Insert(&decl.Decl{Path: child, Name: seg, Parent: cur, Kind: decl.KindModule})
		}
		cur = child
	}
}

func parentDir(filePath string) string {
	i := lastSlash(filePath)
	if i < 0 {
		return "."
	}
	return filePath[:i]
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}

// fileResolver threads per-file state (the file handle, the current module
// path) through the recursive declaration walk, mirroring the teacher's
// single mutable driver struct shape.
type fileResolver struct {
	proj    *Project
	file    *token.File
	errs    *diag.List
	modPath decl.Path
}

func (r *fileResolver) pos(p token.Pos) token.Position { return r.file.Position(p) }

func (r *fileResolver) span(start, end token.Pos) token.Span {
	return token.Span{Start: start, End: end}
}

func (r *fileResolver) errorf(at token.Pos, format string, args ...interface{}) {
	r.errs.Add(&diag.Diagnostic{
		Kind:    diag.Simple,
		File:    r.file.Name(),
		Span:    token.Span{Start: at, End: at},
		Pos:     r.pos(at),
		Message: fmt.Sprintf(format, args...),
	})
}

func (r *fileResolver) topDecl(parent decl.Path, d ast.TopDecl) {
	switch d := d.(type) {
	case *ast.StructDecl:
		r.structDecl(parent, d)
	case *ast.EnumDecl:
		r.enumDecl(parent, d)
	case *ast.TraitDecl:
		r.traitDecl(parent, d)
	case *ast.ImplDecl:
		r.implDecl(parent, d)
	case *ast.FuncDecl:
		r.funcDecl(parent, d, false)
	case *ast.ModDecl:
		r.modDecl(parent, d)
	}
}

func (r *fileResolver) structDecl(parent decl.Path, d *ast.StructDecl) {
	p := parent.Child(d.Name)
	start, end := d.Span()
	body := &decl.StructBody{Tuple: d.Body.Tuple}
	for _, f := range d.Body.Fields {
		body.Fields = append(body.Fields, decl.StructField{Name: f.Name, Type: f.Type})
	}
	r.insert(&decl.Decl{
		Path: p, Name: d.Name, Kind: decl.KindStruct, Parent: parent,
		Span: r.span(start, end), File: r.file.Name(), Generics: d.Generics, Body: body,
	})
}

func (r *fileResolver) enumDecl(parent decl.Path, d *ast.EnumDecl) {
	p := parent.Child(d.Name)
	start, end := d.Span()
	var variants []decl.Path
	for _, v := range d.Variants {
		vp := p.Child(v.Name)
		variants = append(variants, vp)
		vbody := &decl.StructBody{Tuple: v.Body.Tuple}
		for _, f := range v.Body.Fields {
			vbody.Fields = append(vbody.Fields, decl.StructField{Name: f.Name, Type: f.Type})
		}
		vs, ve := v.Span()
		r.insert(&decl.Decl{
			Path: vp, Name: v.Name, Kind: decl.KindMember, Parent: p,
			Span: r.span(vs, ve), File: r.file.Name(), Body: vbody,
		})
	}
	r.insert(&decl.Decl{
		Path: p, Name: d.Name, Kind: decl.KindEnum, Parent: parent,
		Span: r.span(start, end), File: r.file.Name(), Generics: d.Generics,
		Body: &decl.EnumBody{Variants: variants},
	})
}

func (r *fileResolver) traitDecl(parent decl.Path, d *ast.TraitDecl) {
	p := parent.Child(d.Name)
	start, end := d.Span()
	var funcs []decl.Path
	for _, fd := range d.Funcs {
		funcs = append(funcs, r.funcDecl(p, fd, true))
	}
	r.insert(&decl.Decl{
		Path: p, Name: d.Name, Kind: decl.KindTrait, Parent: parent,
		Span: r.span(start, end), File: r.file.Name(), Generics: d.Generics,
		Body: &decl.TraitBody{Funcs: funcs},
	})
}

// implDecl validates that FromTy is a Named type (spec.md §4.A "Impl
// indexing") and, if so, registers every method it defines as a
// KindFunction declaration parented under the impl's from-type path.
func (r *fileResolver) implDecl(parent decl.Path, d *ast.ImplDecl) {
	fromNamed, ok := d.FromTy.(*ast.NamedTypeExpr)
	if !ok {
		start, end := d.FromTy.Span()
		r.errs.Add(&diag.Diagnostic{
			Kind: diag.ImplTypeMismatch, File: r.file.Name(),
			Span: r.span(start, end), Pos: r.pos(start),
			Message: "impl's from-type must be a named type",
		})
		return
	}
	fromPath := decl.NewPath(fromNamed.Path...)

	imp := &decl.Impl{File: r.file.Name(), Generics: d.Generics, FromTy: d.FromTy, ToTy: d.ToTy}
	for _, fd := range d.Funcs {
		fp := r.funcDecl(fromPath, fd, false)
		fdecl, _ := r.proj.Store.Lookup(fp)
		imp.Funcs = append(imp.Funcs, fdecl)
	}
	r.proj.Impls.Add(fromPath, imp)
}

func (r *fileResolver) modDecl(parent decl.Path, d *ast.ModDecl) {
	p := parent.Child(d.Name)
	start, end := d.Span()
	r.insert(&decl.Decl{Path: p, Name: d.Name, Kind: decl.KindModule, Parent: parent, Span: r.span(start, end), File: r.file.Name()})
	for _, sub := range d.Decls {
		r.topDecl(p, sub)
	}
}

func (r *fileResolver) funcDecl(parent decl.Path, d *ast.FuncDecl, virtual bool) decl.Path {
	p := parent.Child(d.Name)
	start, end := d.Span()
	r.insert(&decl.Decl{
		Path: p, Name: d.Name, Kind: decl.KindFunction, Parent: parent,
		Span: r.span(start, end), File: r.file.Name(), Generics: d.Generics,
		Body: &decl.FuncBody{
			Receiver: d.Receiver, Args: d.Args, Ret: d.Ret,
			Required: d.Required, Virtual: virtual || d.Virtual, AST: d,
		},
	})
	return p
}

func (r *fileResolver) insert(d *decl.Decl) {
	if existing, ok := r.proj.Store.Lookup(d.Path); ok && existing.Kind != decl.KindModule {
		r.errorf(d.Span.Start, "%s %q redeclared (previously declared in %s)", d.Kind, d.Path, existing.File)
		return
	}
	r.proj.Store.Insert(d)
}

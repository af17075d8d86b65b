package resolver

import (
	"github.com/mna/gib/lang/ast"
	"github.com/mna/gib/lang/decl"
)

// seedStd installs the built-in `std` declarations every project compiles
// against: the scalar types the checker assigns to literals (std::Int,
// std::Bool, ... — spec.md §4.B Literal rule), the print/panic functions,
// and the Vec type whose methods the compiler lowers straight to the VEC*
// opcodes. These are ordinary declarations in the store — name resolution,
// method lookup and id assignment treat them exactly like user code — but
// their function bodies are nil, which the checker and compiler both skip.
func seedStd(store *decl.Store) {
	std := decl.NewPath("std")
	store.Insert(&decl.Decl{Path: std, Name: "std", Kind: decl.KindModule, Parent: decl.Root})

	for _, name := range []string{"Int", "Float", "String", "Bool", "Char", "Unit"} {
		p := std.Child(name)
		store.Insert(&decl.Decl{
			Path: p, Name: name, Kind: decl.KindStruct, Parent: std,
			File: "<builtin>", Body: &decl.StructBody{},
		})
	}

	insertFunc(store, std, "print", nil, []*ast.Arg{argOf("value", ntype("Any"))}, nil)
	insertFunc(store, std, "panic", nil, []*ast.Arg{argOf("msg", ntype("Any"))}, nil)

	vec := std.Child("Vec")
	vecT := &ast.NamedTypeExpr{Path: []string{"std", "Vec"}, Args: []ast.TypeExpr{ntype("T")}}
	store.Insert(&decl.Decl{
		Path: vec, Name: "Vec", Kind: decl.KindStruct, Parent: std,
		File: "<builtin>", Generics: []*ast.Generic{{Name: "T"}}, Body: &decl.StructBody{},
	})
	insertFunc(store, vec, "push", vecT, []*ast.Arg{argOf("value", ntype("T"))}, nil)
	insertFunc(store, vec, "pop", vecT, nil, ntype("T"))
	insertFunc(store, vec, "peek", vecT, nil, ntype("T"))
	insertFunc(store, vec, "get", vecT, []*ast.Arg{argOf("index", ntype("std", "Int"))}, ntype("T"))
	insertFunc(store, vec, "set", vecT, []*ast.Arg{argOf("index", ntype("std", "Int")), argOf("value", ntype("T"))}, nil)
	insertFunc(store, vec, "insert", vecT, []*ast.Arg{argOf("index", ntype("std", "Int")), argOf("value", ntype("T"))}, nil)
	insertFunc(store, vec, "remove", vecT, []*ast.Arg{argOf("index", ntype("std", "Int"))}, ntype("T"))
	insertFunc(store, vec, "len", vecT, nil, ntype("std", "Int"))
}

func insertFunc(store *decl.Store, parent decl.Path, name string, recv ast.TypeExpr, args []*ast.Arg, ret ast.TypeExpr) {
	store.Insert(&decl.Decl{
		Path: parent.Child(name), Name: name, Kind: decl.KindFunction, Parent: parent,
		File: "<builtin>",
		Body: &decl.FuncBody{Receiver: recv, Args: args, Ret: ret},
	})
}

func ntype(path ...string) *ast.NamedTypeExpr { return &ast.NamedTypeExpr{Path: path} }

func argOf(name string, ty ast.TypeExpr) *ast.Arg { return &ast.Arg{Name: name, Type: ty} }

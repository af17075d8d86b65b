package parser_test

import (
	"testing"

	"github.com/mna/gib/lang/ast"
	"github.com/mna/gib/lang/diag"
	"github.com/mna/gib/lang/parser"
	"github.com/mna/gib/lang/token"
	"github.com/stretchr/testify/require"
)

func parseSrc(t *testing.T, src string) (*ast.File, *diag.List) {
	t.Helper()
	fset := token.NewFileSet()
	f := fset.AddFile("test.gib", len(src))
	var errs diag.List
	file := parser.ParseFile(f, []byte(src), &errs)
	return file, &errs
}

func TestParseStructDecl(t *testing.T) {
	f, errs := parseSrc(t, `struct Pair[out T] { first: T, second: T }`)
	require.Equal(t, 0, errs.Len())
	require.Len(t, f.Decls, 1)
	sd, ok := f.Decls[0].(*ast.StructDecl)
	require.True(t, ok)
	require.Equal(t, "Pair", sd.Name)
	require.Len(t, sd.Generics, 1)
	require.Equal(t, ast.Covariant, sd.Generics[0].Variance)
	require.Len(t, sd.Body.Fields, 2)
	require.Equal(t, "first", sd.Body.Fields[0].Name)
}

func TestParseTupleStructDecl(t *testing.T) {
	f, errs := parseSrc(t, `struct Pos(Int, Int);`)
	require.Equal(t, 0, errs.Len())
	sd := f.Decls[0].(*ast.StructDecl)
	require.Len(t, sd.Body.Tuple, 2)
}

func TestParseEnumDecl(t *testing.T) {
	f, errs := parseSrc(t, `
enum Shape {
	Circle(Float),
	Rect { w: Float, h: Float },
	Point,
}`)
	require.Equal(t, 0, errs.Len())
	ed := f.Decls[0].(*ast.EnumDecl)
	require.Equal(t, "Shape", ed.Name)
	require.Len(t, ed.Variants, 3)
	require.Len(t, ed.Variants[0].Body.Tuple, 1)
	require.Len(t, ed.Variants[1].Body.Fields, 2)
}

func TestParseTraitAndImpl(t *testing.T) {
	f, errs := parseSrc(t, `
trait Shape {
	fn area(self): Float;
}

impl Shape for Circle {
	fn area(self): Float {
		return 1;
	}
}`)
	require.Equal(t, 0, errs.Len())
	require.Len(t, f.Decls, 2)

	td := f.Decls[0].(*ast.TraitDecl)
	require.Equal(t, "Shape", td.Name)
	require.True(t, td.Funcs[0].Required)

	id := f.Decls[1].(*ast.ImplDecl)
	nty, ok := id.ToTy.(*ast.NamedTypeExpr)
	require.True(t, ok)
	require.Equal(t, []string{"Shape"}, nty.Path)
	fty, ok := id.FromTy.(*ast.NamedTypeExpr)
	require.True(t, ok)
	require.Equal(t, []string{"Circle"}, fty.Path)
	require.False(t, id.Funcs[0].Required)
}

func TestParseFuncWithArgsAndReturn(t *testing.T) {
	f, errs := parseSrc(t, `
fn add(a: Int, b: Int): Int {
	return a + b;
}`)
	require.Equal(t, 0, errs.Len())
	fd := f.Decls[0].(*ast.FuncDecl)
	require.Equal(t, "add", fd.Name)
	require.Len(t, fd.Args, 2)
	require.NotNil(t, fd.Ret)
	require.Len(t, fd.Body.Stmts, 1)
}

func TestParseLetAndIfLet(t *testing.T) {
	f, errs := parseSrc(t, `
fn f(x: Option[Int]): Int {
	let mut y = 0;
	if let Some(v) = x {
		y = v;
	} else {
		y = -1;
	}
	return y;
}`)
	require.Equal(t, 0, errs.Len())
	fd := f.Decls[0].(*ast.FuncDecl)
	require.Len(t, fd.Body.Stmts, 3)

	let := fd.Body.Stmts[0].(*ast.LetStmt)
	bp, ok := let.Pattern.(*ast.BindPattern)
	require.True(t, ok)
	require.Equal(t, "y", bp.Name)

	ifexpr := fd.Body.Stmts[1].(*ast.ExprStmt).X.(*ast.IfExpr)
	require.NotNil(t, ifexpr.Branches[0].Cond.Pattern)
	require.NotNil(t, ifexpr.Else)
}

func TestParseMatchExpr(t *testing.T) {
	f, errs := parseSrc(t, `
fn f(x: Int): Int {
	return match x {
		0 => 1,
		n if n > 0 => n,
		_ => -1,
	};
}`)
	require.Equal(t, 0, errs.Len())
	fd := f.Decls[0].(*ast.FuncDecl)
	ret := fd.Body.Stmts[0].(*ast.ReturnStmt)
	me := ret.Result.(*ast.MatchExpr)
	require.Len(t, me.Arms, 3)
	require.NotNil(t, me.Arms[1].Guard)
}

func TestParseWhileAndForLoop(t *testing.T) {
	f, errs := parseSrc(t, `
fn f() {
	let mut i = 0;
	while i < 10 {
		i = i + 1;
	}
	for (let mut j = 0; j < 10; j = j + 1) {
		i = i + j;
	}
}`)
	require.Equal(t, 0, errs.Len())
	fd := f.Decls[0].(*ast.FuncDecl)
	require.Len(t, fd.Body.Stmts, 3)
	_, ok := fd.Body.Stmts[1].(*ast.WhileStmt)
	require.True(t, ok)
	fs, ok := fd.Body.Stmts[2].(*ast.ForStmt)
	require.True(t, ok)
	require.NotNil(t, fs.Init)
	require.NotNil(t, fs.Cond)
	require.NotNil(t, fs.Post)
}

func TestParseBinaryPrecedence(t *testing.T) {
	f, errs := parseSrc(t, `fn f(): Int { return 1 + 2 * 3; }`)
	require.Equal(t, 0, errs.Len())
	fd := f.Decls[0].(*ast.FuncDecl)
	ret := fd.Body.Stmts[0].(*ast.ReturnStmt)
	be := ret.Result.(*ast.BinaryExpr)
	require.Equal(t, token.PLUS, be.Op)
	rhs := be.Rhs.(*ast.BinaryExpr)
	require.Equal(t, token.STAR, rhs.Op)
}

func TestParseConstructExpr(t *testing.T) {
	f, errs := parseSrc(t, `fn f(): Pair { return Pair { first: 1, second: 2 }; }`)
	require.Equal(t, 0, errs.Len())
	fd := f.Decls[0].(*ast.FuncDecl)
	ret := fd.Body.Stmts[0].(*ast.ReturnStmt)
	ce := ret.Result.(*ast.ConstructExpr)
	require.Equal(t, []string{"Pair"}, ce.Path)
	require.Len(t, ce.Fields, 2)
}

func TestParseErrorRecoversAtNextTopDecl(t *testing.T) {
	f, errs := parseSrc(t, `
struct Bad( ;

struct Good(Int);`)
	require.Greater(t, errs.Len(), 0)
	require.Len(t, f.Decls, 1)
	sd := f.Decls[0].(*ast.StructDecl)
	require.Equal(t, "Good", sd.Name)
}

func TestParseLambdaExpr(t *testing.T) {
	f, errs := parseSrc(t, `fn f(): Int { let add = |a: Int, b: Int| -> Int { return a + b; }; return add(1, 2); }`)
	require.Equal(t, 0, errs.Len())
	fd := f.Decls[0].(*ast.FuncDecl)
	let := fd.Body.Stmts[0].(*ast.LetStmt)
	lam := let.Init.(*ast.LambdaExpr)
	require.Len(t, lam.Args, 2)
	require.NotNil(t, lam.Ret)
}

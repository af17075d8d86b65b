package check_test

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"github.com/mna/gib/lang/check"
	"github.com/mna/gib/lang/diag"
	"github.com/mna/gib/lang/resolver"
	"github.com/mna/gib/lang/source"
)

func checkSrc(t *testing.T, src string) *diag.List {
	t.Helper()
	root := source.Single("main.gib", []byte(src))
	errs := &diag.List{}
	proj := resolver.Resolve(root, errs)
	require.Equal(t, 0, errs.Len(), "resolve: %s", errs.Error())
	_, checkErrs, _ := check.CheckProject(proj)
	return checkErrs
}

func requireNoErrors(t *testing.T, errs *diag.List) {
	t.Helper()
	require.Equal(t, 0, errs.Len(), "unexpected diagnostics:\n%s", spew.Sdump(errs.Items()))
}

func requireKind(t *testing.T, errs *diag.List, kind diag.Kind) *diag.Diagnostic {
	t.Helper()
	for _, d := range errs.Items() {
		if d.Kind == kind {
			return d
		}
	}
	t.Fatalf("no %s diagnostic in:\n%s", kind, spew.Sdump(errs.Items()))
	return nil
}

func TestCheckAnnotatedLetMismatch(t *testing.T) {
	errs := checkSrc(t, `
fn main() {
	let x: Int = "s"
}
`)
	d := requireKind(t, errs, diag.IsNotInstance)
	require.Equal(t, "Int", d.Expected)
	require.Equal(t, "String", d.Found)
	require.Equal(t, "main.gib", d.File)
	require.Greater(t, d.Pos.Line, 0)
}

func TestCheckUnresolvedName(t *testing.T) {
	errs := checkSrc(t, `
fn main() {
	frobnicate(1)
}
`)
	requireKind(t, errs, diag.Unresolved)
}

func TestCheckCallArity(t *testing.T) {
	errs := checkSrc(t, `
fn two(a: Int, b: Int) { }

fn main() {
	two(1)
}
`)
	d := requireKind(t, errs, diag.UnexpectedArgs)
	require.Equal(t, 2, d.WantArgs)
	require.Equal(t, 1, d.GotArgs)
	require.Equal(t, "two", d.Callee)
}

func TestCheckWildcardInDeclaration(t *testing.T) {
	errs := checkSrc(t, `
fn f(a: _) { }

fn main() { }
`)
	requireKind(t, errs, diag.UnexpectedWildcard)
}

func TestCheckGenericInference(t *testing.T) {
	errs := checkSrc(t, `
struct Pair[T, U] { a: T, b: U }

fn takes_string(s: String) { }

fn main() {
	let p = Pair(1, "x")
	takes_string(p.b)
}
`)
	requireNoErrors(t, errs)
}

func TestCheckGenericInferenceMismatch(t *testing.T) {
	errs := checkSrc(t, `
struct Pair[T, U] { a: T, b: U }

fn takes_string(s: String) { }

fn main() {
	let p = Pair(1, 2)
	takes_string(p.b)
}
`)
	requireKind(t, errs, diag.IsNotInstance)
}

func TestCheckTraitSubtypeThroughImpl(t *testing.T) {
	errs := checkSrc(t, `
trait Show {
	fn show(self): String;
}

struct K;

impl Show for K {
	fn show(self): String {
		return "k"
	}
}

fn main() {
	let k: Show = K
	print(k.show())
}
`)
	requireNoErrors(t, errs)
}

func TestCheckNonSubtypeAnnotationRejected(t *testing.T) {
	errs := checkSrc(t, `
trait Show {
	fn show(self): String;
}

struct K;

fn main() {
	let k: Show = K
}
`)
	requireKind(t, errs, diag.IsNotInstance)
}

func TestCheckMatchArmBindings(t *testing.T) {
	errs := checkSrc(t, `
enum Opt[T] { Some(T), None }

fn takes_int(n: Int) { }

fn main() {
	match Some(1) {
		Some(x) => takes_int(x),
		None => takes_int(0),
	}
}
`)
	requireNoErrors(t, errs)
}

func TestCheckConditionMustBeBool(t *testing.T) {
	errs := checkSrc(t, `
fn main() {
	while 1 {
	}
}
`)
	requireKind(t, errs, diag.IsNotInstance)
}

func TestCheckAssignTargetValidation(t *testing.T) {
	errs := checkSrc(t, `
fn main() {
	1 = 2
}
`)
	requireKind(t, errs, diag.Simple)
}

func TestCheckFieldOnNonStruct(t *testing.T) {
	errs := checkSrc(t, `
fn main() {
	let x = 1
	let y = x.field
}
`)
	requireKind(t, errs, diag.Simple)
}

func TestCheckTupleStructIndexField(t *testing.T) {
	errs := checkSrc(t, `
struct Pos(Int, Int)

fn takes_int(n: Int) { }

fn main() {
	let p = Pos(1, 2)
	takes_int(p._0)
	takes_int(p._1)
}
`)
	requireNoErrors(t, errs)
}

func TestCheckDiagnosticsSortedBySourceOrder(t *testing.T) {
	errs := checkSrc(t, `
fn main() {
	let a: Int = "one"
	let b: Int = "two"
}
`)
	items := errs.Items()
	require.GreaterOrEqual(t, len(items), 2)
	for i := 1; i < len(items); i++ {
		require.LessOrEqual(t, items[i-1].Pos.Line, items[i].Pos.Line)
	}
}

func TestCheckDeterministicDiagnostics(t *testing.T) {
	src := `
fn main() {
	frob(1)
	let x: Int = "s"
	nope()
}
`
	first := checkSrc(t, src)
	second := checkSrc(t, src)
	require.Equal(t, first.Len(), second.Len())
	for i := range first.Items() {
		require.Equal(t, first.Items()[i].Error(), second.Items()[i].Error())
	}
}

func TestIsScopedPredicate(t *testing.T) {
	sc := check.NewScope(nil)
	sc.Define(&check.Var{Name: "x"})
	require.True(t, check.IsScoped(sc, "x"))
	require.False(t, check.IsScoped(sc, "y"))

	child := check.NewScope(sc)
	require.True(t, check.IsScoped(child, "x"))
}

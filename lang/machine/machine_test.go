package machine_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"github.com/mna/gib/lang/check"
	"github.com/mna/gib/lang/compiler"
	"github.com/mna/gib/lang/diag"
	"github.com/mna/gib/lang/machine"
	"github.com/mna/gib/lang/resolver"
	"github.com/mna/gib/lang/source"
)

// runSrc drives the whole pipeline on one source file and executes the
// result, returning what the program printed.
func runSrc(t *testing.T, src string) (string, error) {
	t.Helper()
	root := source.Single("main.gib", []byte(src))
	errs := &diag.List{}
	proj := resolver.Resolve(root, errs)
	_, checkErrs, results := check.CheckProject(proj)
	for _, d := range checkErrs.Items() {
		errs.Add(d)
	}
	require.Equal(t, 0, errs.Len(), "unexpected diagnostics:\n%s", spew.Sdump(errs.Items()))

	prog := compiler.Compile(proj, results, errs)
	require.Equal(t, 0, errs.Len(), "unexpected compile diagnostics:\n%s", spew.Sdump(errs.Items()))

	entry, ok := compiler.EntryFunc(proj.Store)
	require.True(t, ok, "no main function")

	var out bytes.Buffer
	m := machine.New(prog, machine.WithStdout(&out))
	_, err := m.Run(context.Background(), entry)
	return out.String(), err
}

func TestRunPrintString(t *testing.T) {
	out, err := runSrc(t, `
use std::print

fn main() {
	print("hi")
}
`)
	require.NoError(t, err)
	require.Equal(t, "hi\n", out)
}

func TestRunGenericStructFieldAccess(t *testing.T) {
	out, err := runSrc(t, `
struct Pair[T, U] { a: T, b: U }

fn main() {
	let p = Pair(1, "x")
	print(p.b)
}
`)
	require.NoError(t, err)
	require.Equal(t, "x\n", out)
}

func TestRunTraitDynDispatch(t *testing.T) {
	out, err := runSrc(t, `
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
	require.NoError(t, err)
	require.Equal(t, "k\n", out)
}

func TestRunTraitDefaultMethod(t *testing.T) {
	out, err := runSrc(t, `
trait Greet {
	fn name(self): String;
	fn greet(self): String {
		return "hello " + self.name()
	}
}

struct W;

impl Greet for W {
	fn name(self): String {
		return "world"
	}
}

fn main() {
	let g: Greet = W
	print(g.greet())
}
`)
	require.NoError(t, err)
	require.Equal(t, "hello world\n", out)
}

func TestRunWhileLoop(t *testing.T) {
	out, err := runSrc(t, `
fn main() {
	let mut i = 0
	while i < 3 {
		i = i + 1
	}
	print(i)
}
`)
	require.NoError(t, err)
	require.Equal(t, "3\n", out)
}

func TestRunMatchEnumVariant(t *testing.T) {
	out, err := runSrc(t, `
enum Opt[T] { Some(T), None }

fn main() {
	match Some(1) {
		Some(x) => print(x),
		None => print(0),
	}
}
`)
	require.NoError(t, err)
	require.Equal(t, "1\n", out)
}

func TestRunMatchFallthroughArm(t *testing.T) {
	out, err := runSrc(t, `
enum Opt[T] { Some(T), None }

fn main() {
	match None {
		Some(x) => print(x),
		None => print(0),
	}
}
`)
	require.NoError(t, err)
	require.Equal(t, "0\n", out)
}

func TestRunMatchLiteralAndGuard(t *testing.T) {
	out, err := runSrc(t, `
fn classify(x: Int): String {
	return match x {
		0 => "zero",
		n if n > 0 => "pos",
		_ => "neg",
	}
}

fn main() {
	print(classify(0))
	print(classify(7))
	print(classify(-2))
}
`)
	require.NoError(t, err)
	require.Equal(t, "zero\npos\nneg\n", out)
}

func TestRunForLoopAndBreak(t *testing.T) {
	out, err := runSrc(t, `
fn main() {
	let mut total = 0
	for (let mut i = 0; i < 10; i = i + 1) {
		if i == 4 {
			break
		}
		total = total + i
	}
	print(total)
}
`)
	require.NoError(t, err)
	require.Equal(t, "6\n", out)
}

func TestRunIfElseValue(t *testing.T) {
	out, err := runSrc(t, `
fn pick(b: Bool): Int {
	return if b { 1 } else { 2 }
}

fn main() {
	print(pick(true))
	print(pick(false))
}
`)
	require.NoError(t, err)
	require.Equal(t, "1\n2\n", out)
}

func TestRunRecursion(t *testing.T) {
	out, err := runSrc(t, `
fn fib(n: Int): Int {
	if n < 2 {
		return n
	}
	return fib(n - 1) + fib(n - 2)
}

fn main() {
	print(fib(10))
}
`)
	require.NoError(t, err)
	require.Equal(t, "55\n", out)
}

func TestRunVecOps(t *testing.T) {
	out, err := runSrc(t, `
fn main() {
	let v = Vec()
	v.push(10)
	v.push(20)
	v.push(30)
	print(v.len())
	print(v.get(1))
	print(v.pop())
	print(v.len())
}
`)
	require.NoError(t, err)
	require.Equal(t, "3\n20\n30\n2\n", out)
}

func TestRunMethodOnStruct(t *testing.T) {
	out, err := runSrc(t, `
struct Counter { n: Int }

impl Counter {
	fn value(self): Int {
		return self.n
	}
}

fn main() {
	let c = Counter { n: 41 }
	print(c.value() + 1)
}
`)
	require.NoError(t, err)
	require.Equal(t, "42\n", out)
}

func TestRunPanicStopsExecution(t *testing.T) {
	out, err := runSrc(t, `
fn main() {
	print("before")
	panic("boom")
	print("after")
}
`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
	require.Equal(t, "before\n", out)
}

func TestRunTupleDestructuringLet(t *testing.T) {
	out, err := runSrc(t, `
fn main() {
	let (a, b) = (1, 2)
	print(a + b)
}
`)
	require.NoError(t, err)
	require.Equal(t, "3\n", out)
}

func TestRunWhileLet(t *testing.T) {
	out, err := runSrc(t, `
enum Opt { Some(Int), None }

fn next(n: Int): Opt {
	if n < 3 {
		return Some(n)
	}
	return None
}

fn main() {
	let mut i = 0
	while let Some(x) = next(i) {
		print(x)
		i = i + 1
	}
	print(99)
}
`)
	require.NoError(t, err)
	require.Equal(t, "0\n1\n2\n99\n", out)
}

func TestRunIfLet(t *testing.T) {
	out, err := runSrc(t, `
enum Opt { Some(Int), None }

fn main() {
	let o = Some(5)
	if let Some(x) = o {
		print(x)
	}
	if let Some(y) = None {
		print(y)
	}
	print(7)
}
`)
	require.NoError(t, err)
	require.Equal(t, "5\n7\n", out)
}

func TestRunLambdaCallThroughBinding(t *testing.T) {
	out, err := runSrc(t, `
fn main() {
	let add = |a: Int, b: Int| -> Int { return a + b }
	print(add(1, 2))
}
`)
	require.NoError(t, err)
	require.Equal(t, "3\n", out)
}

func TestStepLimitStopsRunawayLoop(t *testing.T) {
	root := source.Single("main.gib", []byte(`
fn main() {
	let mut i = 0
	while true {
		i = i + 1
	}
}
`))
	errs := &diag.List{}
	proj := resolver.Resolve(root, errs)
	_, checkErrs, results := check.CheckProject(proj)
	require.Equal(t, 0, checkErrs.Len())
	prog := compiler.Compile(proj, results, errs)
	require.Equal(t, 0, errs.Len())
	entry, ok := compiler.EntryFunc(proj.Store)
	require.True(t, ok)

	limits := machine.DefaultLimits()
	limits.MaxSteps = 10_000
	m := machine.New(prog, machine.WithLimits(limits))
	_, err := m.Run(context.Background(), entry)
	require.Error(t, err)
	require.Contains(t, err.Error(), "step limit")
}

func TestHeapCollectReclaimsGarbage(t *testing.T) {
	h := machine.NewHeap()
	live := h.Alloc(&machine.Object{Tag: 1})
	inner := h.Alloc(&machine.Str{Text: "kept"})
	obj, _ := h.Get(live)
	obj.(*machine.Object).Values = append(obj.(*machine.Object).Values, inner)
	h.Alloc(&machine.Str{Text: "garbage"})
	h.Alloc(&machine.Object{Tag: 2})
	require.Equal(t, 4, h.Len())

	h.Collect([]machine.Value{live})
	require.Equal(t, 2, h.Len())
	_, ok := h.Get(inner)
	require.True(t, ok, "reachable value must survive collection")
}

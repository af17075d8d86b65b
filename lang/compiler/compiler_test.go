package compiler_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/gib/lang/bytecode"
	"github.com/mna/gib/lang/check"
	"github.com/mna/gib/lang/compiler"
	"github.com/mna/gib/lang/diag"
	"github.com/mna/gib/lang/resolver"
	"github.com/mna/gib/lang/source"
)

func compileSrc(t *testing.T, src string) *bytecode.Program {
	t.Helper()
	root := source.Single("main.gib", []byte(src))
	errs := &diag.List{}
	proj := resolver.Resolve(root, errs)
	_, checkErrs, results := check.CheckProject(proj)
	require.Equal(t, 0, checkErrs.Len(), "check: %s", checkErrs.Error())
	prog := compiler.Compile(proj, results, errs)
	require.Equal(t, 0, errs.Len(), "compile: %s", errs.Error())
	return prog
}

const traitProgram = `
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
`

// Two compiles of the same project must agree byte for byte, v-table
// fingerprints included (spec.md §8 property 6).
func TestCompileDeterministic(t *testing.T) {
	var bufs [2]bytes.Buffer
	for i := range bufs {
		prog := compileSrc(t, traitProgram)
		require.NoError(t, bytecode.Encode(&bufs[i], prog))
	}
	require.Equal(t, bufs[0].Bytes(), bufs[1].Bytes())
}

func TestCompileRegistersVTable(t *testing.T) {
	prog := compileSrc(t, traitProgram)
	require.Len(t, prog.VTables, 1)
	require.Len(t, prog.VTables[0].Entries, 1)

	// the dyn wrap in main must carry the registered fingerprint
	var seen bool
	for _, fn := range prog.Functions {
		for _, ins := range fn.Code {
			if ins.Op == bytecode.DYN {
				require.Equal(t, prog.VTables[0].Fingerprint, ins.FP)
				seen = true
			}
		}
	}
	require.True(t, seen, "expected a DYN instruction in the compiled program")
}

func TestCompileEmitsMarksInOrder(t *testing.T) {
	prog := compileSrc(t, `
fn main() {
	let a = 1
	let b = 2
	print(a + b)
}
`)
	var main *bytecode.Function
	for _, fn := range prog.Functions {
		if fn.Name == "main" {
			main = fn
		}
	}
	require.NotNil(t, main)
	require.NotEmpty(t, main.Marks)
	for i := 1; i < len(main.Marks); i++ {
		require.LessOrEqual(t, main.Marks[i-1].InstrIndex, main.Marks[i].InstrIndex)
		require.LessOrEqual(t, main.Marks[i-1].Line, main.Marks[i].Line)
	}
	for _, m := range main.Marks {
		require.Less(t, int(m.InstrIndex), len(main.Code))
	}
}

func TestCompileJumpsStayInBounds(t *testing.T) {
	prog := compileSrc(t, `
fn main() {
	let mut i = 0
	while i < 10 {
		if i == 5 {
			break
		}
		i = i + 1
	}
	print(i)
}
`)
	for _, fn := range prog.Functions {
		for idx, ins := range fn.Code {
			switch ins.Op {
			case bytecode.JMP, bytecode.JE, bytecode.JNE:
				target := idx + 1 + int(ins.Rel)
				require.GreaterOrEqual(t, target, 0, "%s at %d in %s", ins.Op, idx, fn.Name)
				require.LessOrEqual(t, target, len(fn.Code), "%s at %d in %s", ins.Op, idx, fn.Name)
			}
		}
	}
}

func TestAssignIDsDeterministic(t *testing.T) {
	src := `
struct B;
struct A;
fn zeta() { }
fn alpha() { }
fn main() { }
`
	var first map[string]uint32
	for i := 0; i < 2; i++ {
		root := source.Single("main.gib", []byte(src))
		errs := &diag.List{}
		proj := resolver.Resolve(root, errs)
		ids := compiler.AssignFuncIDs(proj.Store)
		if first == nil {
			first = ids
			continue
		}
		require.Equal(t, first, ids)
	}
	require.Less(t, first["alpha"], first["zeta"], "ids are path-ordered")
}

func TestEntryFuncFindsMain(t *testing.T) {
	root := source.Single("main.gib", []byte(`fn main() { }`))
	errs := &diag.List{}
	proj := resolver.Resolve(root, errs)
	id, ok := compiler.EntryFunc(proj.Store)
	require.True(t, ok)
	ids := compiler.AssignFuncIDs(proj.Store)
	require.Equal(t, ids["main"], id)
}

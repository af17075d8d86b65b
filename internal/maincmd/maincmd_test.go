package maincmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/require"

	"github.com/mna/gib/lang/bytecode"
)

func runCmd(t *testing.T, args ...string) (mainer.ExitCode, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	c := Cmd{}
	code := c.Main(append([]string{binName}, args...), mainer.Stdio{
		Stdin: strings.NewReader(""), Stdout: &out, Stderr: &errOut,
	})
	return code, out.String(), errOut.String()
}

func writeFile(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestRunCommandExecutesProgram(t *testing.T) {
	path := writeFile(t, t.TempDir(), "main.gib", `
fn main() {
	print("hi")
}
`)
	code, out, errOut := runCmd(t, "run", path)
	require.Equal(t, mainer.Success, code, errOut)
	require.Equal(t, "hi\n", out)
}

func TestRunCommandFailsOnDiagnostic(t *testing.T) {
	path := writeFile(t, t.TempDir(), "main.gib", `
fn main() {
	let x: Int = "s"
}
`)
	code, _, errOut := runCmd(t, "run", path)
	require.Equal(t, mainer.Failure, code)
	require.Contains(t, errOut, "type mismatch")
}

func TestBuildCommandWritesDecodableBytecode(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.gib", `
fn main() {
	print(1 + 2)
}
`)
	out := filepath.Join(dir, "prog.gibc")
	code, _, errOut := runCmd(t, "-o", out, "build", path)
	require.Equal(t, mainer.Success, code, errOut)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	prog, err := bytecode.Decode(f)
	require.NoError(t, err)
	require.NotEmpty(t, prog.Functions)
}

func TestInfoModuleTree(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shapes.gib", `
struct Circle { r: Float }
fn area(c: Circle): Float {
	return c.r
}
`)
	code, out, errOut := runCmd(t, "info", "module-tree", dir)
	require.Equal(t, mainer.Success, code, errOut)
	require.Contains(t, out, "struct Circle")
	require.Contains(t, out, "function area")
}

func TestFmtNormalizesTrailingWhitespace(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.gib", "fn main() {  \n\tprint(1)\t\n}")
	code, _, errOut := runCmd(t, "fmt", path)
	require.Equal(t, mainer.Success, code, errOut)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "fn main() {\n\tprint(1)\n}\n", string(data))
}

func TestUnknownCommandIsInvalid(t *testing.T) {
	code, _, _ := runCmd(t, "frobnicate")
	require.Equal(t, mainer.InvalidArgs, code)
}

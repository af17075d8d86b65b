package bytecode_test

import (
	"bytes"
	"testing"

	"github.com/kylelemons/godebug/diff"
	"github.com/mna/gib/lang/bytecode"
	"github.com/stretchr/testify/require"
)

func sampleProgram() *bytecode.Program {
	return &bytecode.Program{
		Files: []*bytecode.FileEntry{
			{ID: 0, Name: "main.gib"},
		},
		VTables: []*bytecode.VTableEntry{
			{Fingerprint: 0xdeadbeef, Entries: map[uint32]uint32{1: 2, 3: 4}},
		},
		Functions: []*bytecode.Function{
			{
				ID: 0, ArgCount: 1, Name: "double", Line: 2, Col: 1, FileID: 0,
				Marks: []bytecode.Mark{{InstrIndex: 0, Line: 2, Col: 1}},
				Code: []bytecode.Instr{
					{Op: bytecode.PARAM, N: 0},
					{Op: bytecode.GETLOCAL, N: 0},
					{Op: bytecode.GETLOCAL, N: 0},
					{Op: bytecode.ADD},
					{Op: bytecode.RETURN},
				},
			},
			{
				ID: 1, ArgCount: 0, Name: "main", Line: 1, Col: 1, FileID: 0,
				Code: []bytecode.Instr{
					{Op: bytecode.PUSH, Lit: bytecode.Lit{Kind: bytecode.LitString, S: "hi"}},
					{Op: bytecode.PRINT},
					{Op: bytecode.JMP, Rel: -1},
					{Op: bytecode.RETURN},
				},
			},
		},
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	p := sampleProgram()

	var buf bytes.Buffer
	require.NoError(t, bytecode.Encode(&buf, p))

	decoded, err := bytecode.Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, p, decoded)

	var buf2 bytes.Buffer
	require.NoError(t, bytecode.Encode(&buf2, decoded))
	require.True(t, bytes.Equal(buf.Bytes(), buf2.Bytes()))
}

func TestTextRoundTrip(t *testing.T) {
	p := sampleProgram()

	var buf bytes.Buffer
	require.NoError(t, bytecode.Format(&buf, p))

	decoded, err := bytecode.Parse(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, p, decoded)

	var buf2 bytes.Buffer
	require.NoError(t, bytecode.Format(&buf2, decoded))
	if d := diff.Diff(buf.String(), buf2.String()); d != "" {
		t.Fatalf("text format not idempotent:\n%s", d)
	}
}

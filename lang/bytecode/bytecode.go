// Package bytecode defines the instruction set the compiler emits and the
// virtual machine executes (spec.md §4.G), plus the binary and text codecs
// a compiled Program round-trips through (spec.md §6, §8 property 1).
package bytecode

import "fmt"

// Opcode is one VM instruction. Values are explicit (rather than plain
// iota) so they stay stable across the binary codec regardless of
// declaration order, and so none collides with a record tag (Function
// 0x00, TypeTable 0x01, FileName 0x31 — see binary.go).
type Opcode uint8

const (
	NOP Opcode = iota + 2

	PUSH
	POP
	COPY
	CLONE
	PRINT
	PANIC

	CONSTRUCT
	DYN

	INDEX
	SETINDEX

	NEWLOCAL
	GETLOCAL
	SETLOCAL
	PARAM

	CALL
	DYNCALL
	RETURN

	ADD
	SUB
	MUL
	DIV
	MOD
	EQ
	NEQ
	LT
	GT
	LTE
	GTE
	AND
	OR
	NOT

	JMP
	JE
	JNE

	MATCH

	VECGET
	VECSET
	VECPUSH
	VECPOP
	VECPEEK
	VECINSERT
	VECREMOVE
	VECLEN
)

var opcodeNames = map[Opcode]string{
	NOP:       "nop",
	PUSH:      "push",
	POP:       "pop",
	COPY:      "copy",
	CLONE:     "clone",
	PRINT:     "print",
	PANIC:     "panic",
	CONSTRUCT: "construct",
	DYN:       "dyn",
	INDEX:     "index",
	SETINDEX:  "setindex",
	NEWLOCAL:  "newlocal",
	GETLOCAL:  "getlocal",
	SETLOCAL:  "setlocal",
	PARAM:     "param",
	CALL:      "call",
	DYNCALL:   "dyncall",
	RETURN:    "return",
	ADD:       "add",
	SUB:       "sub",
	MUL:       "mul",
	DIV:       "div",
	MOD:       "mod",
	EQ:        "eq",
	NEQ:       "neq",
	LT:        "lt",
	GT:        "gt",
	LTE:       "lte",
	GTE:       "gte",
	AND:       "and",
	OR:        "or",
	NOT:       "not",
	JMP:       "jmp",
	JE:        "je",
	JNE:       "jne",
	MATCH:     "match",
	VECGET:    "vecget",
	VECSET:    "vecset",
	VECPUSH:   "vecpush",
	VECPOP:    "vecpop",
	VECPEEK:   "vecpeek",
	VECINSERT: "vecinsert",
	VECREMOVE: "vecremove",
	VECLEN:    "veclen",
}

var nameToOpcode = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeNames))
	for op, name := range opcodeNames {
		m[name] = op
	}
	return m
}()

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("opcode(%d)", uint8(op))
}

// isJump reports whether op carries a relative branch offset.
func isJump(op Opcode) bool { return op == JMP || op == JE || op == JNE }

// LitKind tags the payload carried by a PUSH instruction.
type LitKind uint8

const (
	LitInt LitKind = iota
	LitFloat
	LitString
	LitChar
	LitBool
)

// Lit is a PUSH instruction's literal operand; exactly one field is
// meaningful, selected by Kind.
type Lit struct {
	Kind LitKind
	I    int64
	F    float64
	S    string
	C    rune
	B    bool
}

// Instr is one instruction. Which of N, N2, Rel, FP, Lit is meaningful
// depends on Op:
//
//	PUSH                Lit
//	CONSTRUCT           N2=id, N=len
//	DYN                 FP=fingerprint
//	INDEX, SETINDEX     N=field index
//	NEWLOCAL, GETLOCAL,
//	  SETLOCAL          N=slot
//	PARAM               N=index
//	CALL                N=function id
//	DYNCALL             N=trait-func id
//	JMP, JE, JNE        Rel=signed relative offset, in instructions
//	MATCH               N=tag
//
// every other opcode (arithmetic, comparison, logical, stack, RETURN,
// PRINT, PANIC, POP, COPY, CLONE, and the VEC* vector ops, which take
// their vector, index and value from the operand stack) carries no operand.
type Instr struct {
	Op  Opcode
	N   int32
	N2  int32
	Rel int32
	FP  uint64
	Lit Lit
}

// TupleTag is the reserved Construct id for tuple values, outside the id
// space AssignTypeIDs hands to declared structs and enum variants.
const TupleTag = ^uint32(0)

// Mark attaches a source position to instruction index InstrIndex within a
// function's code, for diagnostics and the debug adapter's line mapping.
type Mark struct {
	InstrIndex uint32
	Line, Col  uint16
}

// Function is one compiled function body.
type Function struct {
	ID       uint32
	ArgCount uint32
	Name     string
	Line     uint16
	Col      uint16
	FileID   uint32
	Marks    []Mark
	Code     []Instr
}

// VTableEntry is one Dyn fingerprint's trait-func→impl-func mapping
// (spec.md §4.F "get_vtable" / §6 Type table record).
type VTableEntry struct {
	Fingerprint uint64
	Entries     map[uint32]uint32 // trait_fn_id -> impl_fn_id
}

// FileEntry names one source file referenced by Function.FileID.
type FileEntry struct {
	ID   uint32
	Name string
}

// Program is a fully linked compiled unit: every function, v-table and
// file name the binary/text codecs serialize.
type Program struct {
	Functions []*Function
	VTables   []*VTableEntry
	Files     []*FileEntry
}

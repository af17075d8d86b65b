package bytecode

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Record tags (spec.md §6 "Binary bytecode format"). These values are
// disjoint from every Opcode (2..45, see bytecode.go) so a function's
// instruction stream can be decoded by reading opcodes until the next byte
// is one of these three tags, exactly as the spec's "instruction bytes
// until next record tag" phrasing describes — no length prefix needed.
const (
	tagFunction  byte = 0x00
	tagTypeTable byte = 0x01
	tagFileName  byte = 0x31
)

// Encode writes p in the binary bytecode format: file name records, then
// type-table records, then function records, each length-implicit per the
// record shapes below.
func Encode(w io.Writer, p *Program) error {
	bw := &byteWriter{w: w}
	for _, f := range p.Files {
		bw.writeByte(tagFileName)
		bw.writeU32(f.ID)
		bw.writeString(f.Name)
	}
	for _, vt := range p.VTables {
		bw.writeByte(tagTypeTable)
		bw.writeU64(vt.Fingerprint)
		bw.writeU32(uint32(len(vt.Entries)))
		ordered := sortedKeys(vt.Entries)
		for _, traitFn := range ordered {
			bw.writeU32(traitFn)
			bw.writeU32(vt.Entries[traitFn])
		}
	}
	for _, fn := range p.Functions {
		bw.writeByte(tagFunction)
		bw.writeU32(fn.ID)
		bw.writeU32(fn.ArgCount)
		bw.writeString(fn.Name)
		bw.writeU16(fn.Line)
		bw.writeU16(fn.Col)
		bw.writeU32(fn.FileID)
		bw.writeU32(uint32(len(fn.Marks)))
		for _, m := range fn.Marks {
			bw.writeU32(m.InstrIndex)
			bw.writeU16(m.Line)
			bw.writeU16(m.Col)
		}
		for _, ins := range fn.Code {
			encodeInstr(bw, ins)
		}
	}
	return bw.err
}

// sortedKeys returns m's keys in ascending order, so a v-table's entries
// encode deterministically (spec.md §8 property 6) despite Go's
// randomized map iteration.
func sortedKeys(m map[uint32]uint32) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

// Decode reads a Program back out of the binary format Encode produced.
func Decode(r io.Reader) (*Program, error) {
	br := bufio.NewReader(r)
	p := &Program{}
	for {
		tag, err := br.ReadByte()
		if err == io.EOF {
			return p, nil
		}
		if err != nil {
			return nil, err
		}
		switch tag {
		case tagFileName:
			f, err := decodeFileName(br)
			if err != nil {
				return nil, err
			}
			p.Files = append(p.Files, f)
		case tagTypeTable:
			vt, err := decodeTypeTable(br)
			if err != nil {
				return nil, err
			}
			p.VTables = append(p.VTables, vt)
		case tagFunction:
			fn, err := decodeFunction(br)
			if err != nil {
				return nil, err
			}
			p.Functions = append(p.Functions, fn)
		default:
			return nil, fmt.Errorf("bytecode: unknown record tag 0x%02x", tag)
		}
	}
}

func decodeFileName(br *bufio.Reader) (*FileEntry, error) {
	id, err := readU32(br)
	if err != nil {
		return nil, err
	}
	name, err := readString(br)
	if err != nil {
		return nil, err
	}
	return &FileEntry{ID: id, Name: name}, nil
}

func decodeTypeTable(br *bufio.Reader) (*VTableEntry, error) {
	fp, err := readU64(br)
	if err != nil {
		return nil, err
	}
	n, err := readU32(br)
	if err != nil {
		return nil, err
	}
	entries := make(map[uint32]uint32, n)
	for i := uint32(0); i < n; i++ {
		traitFn, err := readU32(br)
		if err != nil {
			return nil, err
		}
		implFn, err := readU32(br)
		if err != nil {
			return nil, err
		}
		entries[traitFn] = implFn
	}
	return &VTableEntry{Fingerprint: fp, Entries: entries}, nil
}

func decodeFunction(br *bufio.Reader) (*Function, error) {
	fn := &Function{}
	var err error
	if fn.ID, err = readU32(br); err != nil {
		return nil, err
	}
	if fn.ArgCount, err = readU32(br); err != nil {
		return nil, err
	}
	if fn.Name, err = readString(br); err != nil {
		return nil, err
	}
	if fn.Line, err = readU16(br); err != nil {
		return nil, err
	}
	if fn.Col, err = readU16(br); err != nil {
		return nil, err
	}
	if fn.FileID, err = readU32(br); err != nil {
		return nil, err
	}
	markCount, err := readU32(br)
	if err != nil {
		return nil, err
	}
	if markCount > 0 {
		fn.Marks = make([]Mark, markCount)
	}
	for i := range fn.Marks {
		if fn.Marks[i].InstrIndex, err = readU32(br); err != nil {
			return nil, err
		}
		if fn.Marks[i].Line, err = readU16(br); err != nil {
			return nil, err
		}
		if fn.Marks[i].Col, err = readU16(br); err != nil {
			return nil, err
		}
	}
	for {
		peek, err := br.Peek(1)
		if err != nil { // io.EOF or short read: function's code runs to EOF
			return fn, nil
		}
		switch peek[0] {
		case tagFunction, tagTypeTable, tagFileName:
			return fn, nil
		}
		ins, err := decodeInstr(br)
		if err != nil {
			return nil, err
		}
		fn.Code = append(fn.Code, ins)
	}
}

// encodeInstr writes one instruction: a 1-byte opcode tag followed by
// whatever payload that opcode carries (spec.md §6).
func encodeInstr(bw *byteWriter, ins Instr) {
	bw.writeByte(byte(ins.Op))
	switch ins.Op {
	case PUSH:
		encodeLit(bw, ins.Lit)
	case CONSTRUCT:
		bw.writeU32(uint32(ins.N2))
		bw.writeU32(uint32(ins.N))
	case DYN:
		bw.writeU64(ins.FP)
	case INDEX, SETINDEX, NEWLOCAL, GETLOCAL, SETLOCAL, PARAM, CALL, DYNCALL, MATCH:
		bw.writeU32(uint32(ins.N))
	case JMP, JE, JNE:
		bw.writeI32(ins.Rel)
	}
}

func decodeInstr(br *bufio.Reader) (Instr, error) {
	tag, err := br.ReadByte()
	if err != nil {
		return Instr{}, err
	}
	ins := Instr{Op: Opcode(tag)}
	switch ins.Op {
	case PUSH:
		lit, err := decodeLit(br)
		if err != nil {
			return Instr{}, err
		}
		ins.Lit = lit
	case CONSTRUCT:
		id, err := readU32(br)
		if err != nil {
			return Instr{}, err
		}
		n, err := readU32(br)
		if err != nil {
			return Instr{}, err
		}
		ins.N2, ins.N = int32(id), int32(n)
	case DYN:
		fp, err := readU64(br)
		if err != nil {
			return Instr{}, err
		}
		ins.FP = fp
	case INDEX, SETINDEX, NEWLOCAL, GETLOCAL, SETLOCAL, PARAM, CALL, DYNCALL, MATCH:
		n, err := readU32(br)
		if err != nil {
			return Instr{}, err
		}
		ins.N = int32(n)
	case JMP, JE, JNE:
		rel, err := readI32(br)
		if err != nil {
			return Instr{}, err
		}
		ins.Rel = rel
	}
	return ins, nil
}

func encodeLit(bw *byteWriter, lit Lit) {
	bw.writeByte(byte(lit.Kind))
	switch lit.Kind {
	case LitInt:
		bw.writeU64(uint64(lit.I))
	case LitFloat:
		bw.writeU64(math.Float64bits(lit.F))
	case LitString:
		bw.writeString(lit.S)
	case LitChar:
		bw.writeU32(uint32(lit.C))
	case LitBool:
		b := byte(0)
		if lit.B {
			b = 1
		}
		bw.writeByte(b)
	}
}

func decodeLit(br *bufio.Reader) (Lit, error) {
	kindByte, err := br.ReadByte()
	if err != nil {
		return Lit{}, err
	}
	lit := Lit{Kind: LitKind(kindByte)}
	switch lit.Kind {
	case LitInt:
		v, err := readU64(br)
		if err != nil {
			return Lit{}, err
		}
		lit.I = int64(v)
	case LitFloat:
		v, err := readU64(br)
		if err != nil {
			return Lit{}, err
		}
		lit.F = math.Float64frombits(v)
	case LitString:
		s, err := readString(br)
		if err != nil {
			return Lit{}, err
		}
		lit.S = s
	case LitChar:
		v, err := readU32(br)
		if err != nil {
			return Lit{}, err
		}
		lit.C = rune(v)
	case LitBool:
		b, err := br.ReadByte()
		if err != nil {
			return Lit{}, err
		}
		lit.B = b != 0
	}
	return lit, nil
}

// byteWriter accumulates the first write error so call sites can chain
// writes without checking each one, mirroring the teacher's asm.go writer.
type byteWriter struct {
	w   io.Writer
	err error
}

func (bw *byteWriter) writeByte(b byte) {
	if bw.err != nil {
		return
	}
	_, bw.err = bw.w.Write([]byte{b})
}

func (bw *byteWriter) writeU16(v uint16) {
	if bw.err != nil {
		return
	}
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, bw.err = bw.w.Write(buf[:])
}

func (bw *byteWriter) writeU32(v uint32) {
	if bw.err != nil {
		return
	}
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, bw.err = bw.w.Write(buf[:])
}

func (bw *byteWriter) writeI32(v int32) { bw.writeU32(uint32(v)) }

func (bw *byteWriter) writeU64(v uint64) {
	if bw.err != nil {
		return
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, bw.err = bw.w.Write(buf[:])
}

func (bw *byteWriter) writeString(s string) {
	bw.writeU32(uint32(len(s)))
	if bw.err != nil {
		return
	}
	_, bw.err = bw.w.Write([]byte(s))
}

func readU16(br *bufio.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(br, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func readU32(br *bufio.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(br, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func readI32(br *bufio.Reader) (int32, error) {
	v, err := readU32(br)
	return int32(v), err
}

func readU64(br *bufio.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(br, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

func readString(br *bufio.Reader) (string, error) {
	n, err := readU32(br)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(br, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

package bytecode

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Format writes p in the human-readable text format (spec.md §6 "Text
// bytecode format"), isomorphic to the binary format: file/type/func
// records in the same order Encode would write them.
func Format(w io.Writer, p *Program) error {
	var err error
	print := func(format string, args ...any) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(w, format, args...)
	}
	for _, f := range p.Files {
		print("file %d %s\n", f.ID, quote(f.Name))
	}
	for _, vt := range p.VTables {
		print("type %d\n", vt.Fingerprint)
		for _, traitFn := range sortedKeys(vt.Entries) {
			print("  %d %d\n", traitFn, vt.Entries[traitFn])
		}
	}
	for _, fn := range p.Functions {
		print("func %d %d %s %d %d %d\n", fn.ID, fn.ArgCount, quote(fn.Name), fn.Line, fn.Col, fn.FileID)
		marksByIndex := map[uint32]Mark{}
		for _, m := range fn.Marks {
			marksByIndex[m.InstrIndex] = m
		}
		for i, ins := range fn.Code {
			if m, ok := marksByIndex[uint32(i)]; ok {
				print("  mark %d %d %d\n", m.InstrIndex, m.Line, m.Col)
			}
			print("  %s\n", formatInstr(ins))
		}
	}
	return err
}

func formatInstr(ins Instr) string {
	switch ins.Op {
	case PUSH:
		return "push " + formatLit(ins.Lit)
	case CONSTRUCT:
		return fmt.Sprintf("construct %d %d", ins.N2, ins.N)
	case DYN:
		return fmt.Sprintf("dyn %d", ins.FP)
	case INDEX, SETINDEX, NEWLOCAL, GETLOCAL, SETLOCAL, PARAM, CALL, DYNCALL, MATCH:
		return fmt.Sprintf("%s %d", ins.Op, ins.N)
	case JMP, JE, JNE:
		return fmt.Sprintf("%s %d", ins.Op, ins.Rel)
	default:
		return ins.Op.String()
	}
}

func formatLit(lit Lit) string {
	switch lit.Kind {
	case LitInt:
		return fmt.Sprintf("int %d", lit.I)
	case LitFloat:
		return fmt.Sprintf("float %v", lit.F)
	case LitString:
		return "string " + quote(lit.S)
	case LitChar:
		return fmt.Sprintf("char %d", lit.C)
	case LitBool:
		return fmt.Sprintf("bool %v", lit.B)
	default:
		return "int 0"
	}
}

func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

// Parse reads a Program back out of the text format Format produced.
func Parse(r io.Reader) (*Program, error) {
	sc := bufio.NewScanner(r)
	p := &Program{}
	var curFn *Function
	var curVT *VTableEntry
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields, err := splitFields(line)
		if err != nil {
			return nil, err
		}
		switch fields[0] {
		case "file":
			curFn, curVT = nil, nil
			id, err := strconv.ParseUint(fields[1], 10, 32)
			if err != nil {
				return nil, err
			}
			p.Files = append(p.Files, &FileEntry{ID: uint32(id), Name: fields[2]})
		case "type":
			curFn = nil
			fp, err := strconv.ParseUint(fields[1], 10, 64)
			if err != nil {
				return nil, err
			}
			curVT = &VTableEntry{Fingerprint: fp, Entries: map[uint32]uint32{}}
			p.VTables = append(p.VTables, curVT)
		case "func":
			curVT = nil
			id, _ := strconv.ParseUint(fields[1], 10, 32)
			argc, _ := strconv.ParseUint(fields[2], 10, 32)
			line16, _ := strconv.ParseUint(fields[4], 10, 16)
			col16, _ := strconv.ParseUint(fields[5], 10, 16)
			fileID, _ := strconv.ParseUint(fields[6], 10, 32)
			curFn = &Function{
				ID: uint32(id), ArgCount: uint32(argc), Name: fields[3],
				Line: uint16(line16), Col: uint16(col16), FileID: uint32(fileID),
			}
			p.Functions = append(p.Functions, curFn)
		case "mark":
			if curFn == nil {
				return nil, fmt.Errorf("bytecode: mark outside function body")
			}
			idx, _ := strconv.ParseUint(fields[1], 10, 32)
			l, _ := strconv.ParseUint(fields[2], 10, 16)
			c, _ := strconv.ParseUint(fields[3], 10, 16)
			curFn.Marks = append(curFn.Marks, Mark{InstrIndex: uint32(idx), Line: uint16(l), Col: uint16(c)})
		default:
			switch {
			case curVT != nil:
				traitFn, err := strconv.ParseUint(fields[0], 10, 32)
				if err != nil {
					return nil, err
				}
				implFn, err := strconv.ParseUint(fields[1], 10, 32)
				if err != nil {
					return nil, err
				}
				curVT.Entries[uint32(traitFn)] = uint32(implFn)
			case curFn != nil:
				ins, err := parseInstr(fields)
				if err != nil {
					return nil, err
				}
				curFn.Code = append(curFn.Code, ins)
			default:
				return nil, fmt.Errorf("bytecode: unexpected line %q", line)
			}
		}
	}
	return p, sc.Err()
}

func parseInstr(fields []string) (Instr, error) {
	op, ok := nameToOpcode[fields[0]]
	if !ok {
		return Instr{}, fmt.Errorf("bytecode: unknown opcode %q", fields[0])
	}
	ins := Instr{Op: op}
	switch op {
	case PUSH:
		lit, err := parseLit(fields[1:])
		if err != nil {
			return Instr{}, err
		}
		ins.Lit = lit
	case CONSTRUCT:
		id, _ := strconv.ParseInt(fields[1], 10, 32)
		n, _ := strconv.ParseInt(fields[2], 10, 32)
		ins.N2, ins.N = int32(id), int32(n)
	case DYN:
		fp, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return Instr{}, err
		}
		ins.FP = fp
	case INDEX, SETINDEX, NEWLOCAL, GETLOCAL, SETLOCAL, PARAM, CALL, DYNCALL, MATCH:
		n, err := strconv.ParseInt(fields[1], 10, 32)
		if err != nil {
			return Instr{}, err
		}
		ins.N = int32(n)
	case JMP, JE, JNE:
		rel, err := strconv.ParseInt(fields[1], 10, 32)
		if err != nil {
			return Instr{}, err
		}
		ins.Rel = int32(rel)
	}
	return ins, nil
}

func parseLit(fields []string) (Lit, error) {
	switch fields[0] {
	case "int":
		v, err := strconv.ParseInt(fields[1], 10, 64)
		return Lit{Kind: LitInt, I: v}, err
	case "float":
		v, err := strconv.ParseFloat(fields[1], 64)
		return Lit{Kind: LitFloat, F: v}, err
	case "string":
		return Lit{Kind: LitString, S: fields[1]}, nil
	case "char":
		v, err := strconv.ParseInt(fields[1], 10, 32)
		return Lit{Kind: LitChar, C: rune(v)}, err
	case "bool":
		v, err := strconv.ParseBool(fields[1])
		return Lit{Kind: LitBool, B: v}, err
	default:
		return Lit{}, fmt.Errorf("bytecode: unknown literal kind %q", fields[0])
	}
}

// splitFields tokenizes a line on whitespace, treating a double-quoted
// run (with \" and \\ escapes) as a single token with quotes stripped —
// needed for function/string names that may contain spaces.
func splitFields(line string) ([]string, error) {
	var out []string
	i := 0
	for i < len(line) {
		for i < len(line) && line[i] == ' ' {
			i++
		}
		if i >= len(line) {
			break
		}
		if line[i] == '"' {
			var b strings.Builder
			i++
			for i < len(line) && line[i] != '"' {
				if line[i] == '\\' && i+1 < len(line) {
					i++
				}
				b.WriteByte(line[i])
				i++
			}
			if i >= len(line) {
				return nil, fmt.Errorf("bytecode: unterminated quoted token in %q", line)
			}
			i++ // closing quote
			out = append(out, b.String())
			continue
		}
		start := i
		for i < len(line) && line[i] != ' ' {
			i++
		}
		out = append(out, line[start:i])
	}
	return out, nil
}

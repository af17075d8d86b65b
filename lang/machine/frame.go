package machine

import "github.com/mna/gib/lang/bytecode"

// Frame is one call record: the callee's argument values, its frame-local
// variables keyed by slot id, its own operand stack, and the program
// counter into the function's code (spec.md §3 "VM call frame").
type Frame struct {
	FuncID uint32
	Args   []Value
	Locals map[int]Value
	Stack  []Value
	PC     int

	fn *bytecode.Function
}

func newFrame(fn *bytecode.Function, args []Value) *Frame {
	return &Frame{FuncID: fn.ID, Args: args, Locals: map[int]Value{}, fn: fn}
}

func (fr *Frame) push(v Value) { fr.Stack = append(fr.Stack, v) }

func (fr *Frame) pop() (Value, bool) {
	if len(fr.Stack) == 0 {
		return nil, false
	}
	v := fr.Stack[len(fr.Stack)-1]
	fr.Stack = fr.Stack[:len(fr.Stack)-1]
	return v, true
}

// Position reports the source line/col of the frame's current point of
// execution, from the nearest preceding mark.
func (fr *Frame) Position() (line, col uint16, ok bool) {
	at := fr.PC - 1
	if at < 0 {
		at = 0
	}
	for _, m := range fr.fn.Marks {
		if int(m.InstrIndex) <= at && m.Line > 0 {
			line, col, ok = m.Line, m.Col, true
		}
	}
	return line, col, ok
}

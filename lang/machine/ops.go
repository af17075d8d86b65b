package machine

import "github.com/mna/gib/lang/bytecode"

// binary evaluates an arithmetic/comparison/logical opcode over two
// operands. Mismatched operand tags panic the machine (spec.md §4.H
// "arithmetic on mismatched tags is defined to panic").
func (m *Machine) binary(op bytecode.Opcode, x, y Value) (Value, error) {
	switch op {
	case bytecode.EQ:
		return Bool(m.equal(x, y)), nil
	case bytecode.NEQ:
		return Bool(!m.equal(x, y)), nil
	case bytecode.AND, bytecode.OR:
		xb, okX := x.(Bool)
		yb, okY := y.(Bool)
		if !okX || !okY {
			return nil, m.runtimeErr("%s on non-bool operands %s, %s", op, x, y)
		}
		if op == bytecode.AND {
			return Bool(bool(xb) && bool(yb)), nil
		}
		return Bool(bool(xb) || bool(yb)), nil
	}

	switch x := x.(type) {
	case Int:
		yi, ok := y.(Int)
		if !ok {
			return nil, m.runtimeErr("%s on mismatched operands %s, %s", op, x, y)
		}
		return m.intOp(op, x, yi)
	case Float:
		yf, ok := y.(Float)
		if !ok {
			return nil, m.runtimeErr("%s on mismatched operands %s, %s", op, x, y)
		}
		return m.floatOp(op, x, yf)
	case Char:
		yc, ok := y.(Char)
		if !ok {
			return nil, m.runtimeErr("%s on mismatched operands %s, %s", op, x, y)
		}
		return m.intOp(op, Int(x), Int(yc))
	case Ref:
		xs, okX := m.strOf(x)
		ys, okY := m.strOf(y)
		if !okX || !okY {
			return nil, m.runtimeErr("%s on non-scalar operands", op)
		}
		return m.strOp(op, xs, ys)
	default:
		return nil, m.runtimeErr("%s on unsupported operand %s", op, x)
	}
}

func (m *Machine) intOp(op bytecode.Opcode, x, y Int) (Value, error) {
	switch op {
	case bytecode.ADD:
		return x + y, nil
	case bytecode.SUB:
		return x - y, nil
	case bytecode.MUL:
		return x * y, nil
	case bytecode.DIV:
		if y == 0 {
			return nil, m.runtimeErr("integer division by zero")
		}
		return x / y, nil
	case bytecode.MOD:
		if y == 0 {
			return nil, m.runtimeErr("integer modulo by zero")
		}
		return x % y, nil
	case bytecode.LT:
		return Bool(x < y), nil
	case bytecode.GT:
		return Bool(x > y), nil
	case bytecode.LTE:
		return Bool(x <= y), nil
	case bytecode.GTE:
		return Bool(x >= y), nil
	default:
		return nil, m.runtimeErr("%s on int operands", op)
	}
}

func (m *Machine) floatOp(op bytecode.Opcode, x, y Float) (Value, error) {
	switch op {
	case bytecode.ADD:
		return x + y, nil
	case bytecode.SUB:
		return x - y, nil
	case bytecode.MUL:
		return x * y, nil
	case bytecode.DIV:
		return x / y, nil
	case bytecode.LT:
		return Bool(x < y), nil
	case bytecode.GT:
		return Bool(x > y), nil
	case bytecode.LTE:
		return Bool(x <= y), nil
	case bytecode.GTE:
		return Bool(x >= y), nil
	default:
		return nil, m.runtimeErr("%s on float operands", op)
	}
}

func (m *Machine) strOp(op bytecode.Opcode, x, y string) (Value, error) {
	switch op {
	case bytecode.ADD:
		return m.alloc(&Str{Text: x + y}), nil
	case bytecode.LT:
		return Bool(x < y), nil
	case bytecode.GT:
		return Bool(x > y), nil
	case bytecode.LTE:
		return Bool(x <= y), nil
	case bytecode.GTE:
		return Bool(x >= y), nil
	default:
		return nil, m.runtimeErr("%s on string operands", op)
	}
}

// strOf dereferences a handle to string text, unwrapping a Dyn.
func (m *Machine) strOf(v Value) (string, bool) {
	r, ok := v.(Ref)
	if !ok {
		return "", false
	}
	hv, ok := m.heap.Get(r)
	if !ok {
		return "", false
	}
	switch hv := hv.(type) {
	case *Str:
		return hv.Text, true
	case *Dyn:
		return m.strOf(hv.Inner)
	default:
		return "", false
	}
}

// equal compares scalars by value, strings by content, and other heap
// values by handle identity.
func (m *Machine) equal(x, y Value) bool {
	if xs, ok := m.strOf(x); ok {
		ys, ok := m.strOf(y)
		return ok && xs == ys
	}
	return x == y
}

// execVec dispatches the vector opcodes: each operates on an Object's
// Values slice through the handle beneath its operands.
func (m *Machine) execVec(fr *Frame, ins bytecode.Instr) error {
	switch ins.Op {
	case bytecode.VECPUSH:
		v, ok := fr.pop()
		if !ok {
			return m.runtimeErr("vecpush on empty stack")
		}
		obj, err := m.popObject(fr)
		if err != nil {
			return err
		}
		obj.Values = append(obj.Values, v)

	case bytecode.VECPOP:
		obj, err := m.popObject(fr)
		if err != nil {
			return err
		}
		if len(obj.Values) == 0 {
			return m.runtimeErr("vecpop on empty vector")
		}
		fr.push(obj.Values[len(obj.Values)-1])
		obj.Values = obj.Values[:len(obj.Values)-1]

	case bytecode.VECPEEK:
		obj, err := m.popObject(fr)
		if err != nil {
			return err
		}
		if len(obj.Values) == 0 {
			return m.runtimeErr("vecpeek on empty vector")
		}
		fr.push(obj.Values[len(obj.Values)-1])

	case bytecode.VECGET:
		idx, obj, err := m.popIndexAndObject(fr)
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(obj.Values) {
			return m.runtimeErr("vector index %d out of range (len %d)", idx, len(obj.Values))
		}
		fr.push(obj.Values[idx])

	case bytecode.VECSET:
		v, ok := fr.pop()
		if !ok {
			return m.runtimeErr("vecset on empty stack")
		}
		idx, obj, err := m.popIndexAndObject(fr)
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(obj.Values) {
			return m.runtimeErr("vector index %d out of range (len %d)", idx, len(obj.Values))
		}
		obj.Values[idx] = v

	case bytecode.VECINSERT:
		v, ok := fr.pop()
		if !ok {
			return m.runtimeErr("vecinsert on empty stack")
		}
		idx, obj, err := m.popIndexAndObject(fr)
		if err != nil {
			return err
		}
		if idx < 0 || idx > len(obj.Values) {
			return m.runtimeErr("vector index %d out of range (len %d)", idx, len(obj.Values))
		}
		obj.Values = append(obj.Values, nil)
		copy(obj.Values[idx+1:], obj.Values[idx:])
		obj.Values[idx] = v

	case bytecode.VECREMOVE:
		idx, obj, err := m.popIndexAndObject(fr)
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(obj.Values) {
			return m.runtimeErr("vector index %d out of range (len %d)", idx, len(obj.Values))
		}
		removed := obj.Values[idx]
		obj.Values = append(obj.Values[:idx], obj.Values[idx+1:]...)
		fr.push(removed)

	case bytecode.VECLEN:
		obj, err := m.popObject(fr)
		if err != nil {
			return err
		}
		fr.push(Int(len(obj.Values)))

	default:
		return m.runtimeErr("unknown opcode %s", ins.Op)
	}
	return nil
}

// popIndexAndObject pops the Int index then the vector handle beneath it.
func (m *Machine) popIndexAndObject(fr *Frame) (int, *Object, error) {
	v, ok := fr.pop()
	if !ok {
		return 0, nil, m.runtimeErr("vector index on empty stack")
	}
	i, ok := v.(Int)
	if !ok {
		return 0, nil, m.runtimeErr("vector index must be an int, got %s", v)
	}
	obj, err := m.popObject(fr)
	if err != nil {
		return 0, nil, err
	}
	return int(i), obj, nil
}

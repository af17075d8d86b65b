// Package machine implements the virtual machine that executes compiled
// bytecode: a stack of call frames, a traced heap of composite values, and
// a fetch-decode-execute dispatcher (spec.md §4.H). Scalars live unboxed
// on the operand stacks; objects, strings and dyn-wrapped trait objects
// live on the heap and are referenced through handles.
package machine

import (
	"fmt"
	"strings"
)

// Value is one operand-stack or local value: an unboxed scalar or a heap
// handle.
type Value interface {
	value()
	String() string
}

type Int int64

func (Int) value()           {}
func (v Int) String() string { return fmt.Sprintf("%d", int64(v)) }

type Float float64

func (Float) value()           {}
func (v Float) String() string { return fmt.Sprintf("%v", float64(v)) }

type Bool bool

func (Bool) value() {}
func (v Bool) String() string {
	if v {
		return "true"
	}
	return "false"
}

type Char rune

func (Char) value()           {}
func (v Char) String() string { return string(rune(v)) }

// Ref is a handle into the Heap. Handle equality is object identity and
// is preserved across collections (spec.md §9 "VM heap").
type Ref uint64

func (Ref) value()           {}
func (v Ref) String() string { return fmt.Sprintf("ref(%d)", uint64(v)) }

// unit is what valueless constructs leave on the stack.
var unit Value = Bool(false)

// HeapValue is a heap-allocated composite: a tagged object, a string, or
// a dyn-wrapped trait object (spec.md §3 "Heap object").
type HeapValue interface {
	heapValue()
}

// Object is a tagged composite produced by Construct and inspected by
// Match and Index. Vectors are Objects too: the VEC* opcodes operate on
// the Values slice directly.
type Object struct {
	Tag    uint32
	Values []Value
}

func (*Object) heapValue() {}

// Str is a heap-allocated string.
type Str struct {
	Text string
}

func (*Str) heapValue() {}

// Dyn wraps a value together with the v-table fingerprint DynCall
// dispatches through.
type Dyn struct {
	FP    uint64
	Inner Value
}

func (*Dyn) heapValue() {}

// render formats a value for Print, chasing heap handles: strings print
// their text, objects their tag and fields, dyns their wrapped value.
func (m *Machine) render(v Value) string {
	switch v := v.(type) {
	case Ref:
		hv, ok := m.heap.Get(v)
		if !ok {
			return "<dangling>"
		}
		switch hv := hv.(type) {
		case *Str:
			return hv.Text
		case *Dyn:
			return m.render(hv.Inner)
		case *Object:
			parts := make([]string, len(hv.Values))
			for i, f := range hv.Values {
				parts[i] = m.render(f)
			}
			return fmt.Sprintf("#%d(%s)", hv.Tag, strings.Join(parts, ", "))
		}
		return "<heap>"
	default:
		return v.String()
	}
}

package machine

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mna/gib/lang/bytecode"
)

// Machine executes one compiled Program. It is single-threaded: a run
// owns its frames and heap exclusively, and the only cross-goroutine
// interaction is the pause flag a debugger frontend may poll-toggle
// between instructions (spec.md §5).
type Machine struct {
	funcs  map[uint32]*bytecode.Function
	tables map[uint64]map[uint32]uint32
	files  map[uint32]string

	heap   *Heap
	frames []*Frame
	limits Limits
	stdout io.Writer
	log    *zap.Logger
	steps  int

	paused atomic.Bool

	// StepHook, when set, is called before every instruction with the
	// current function id and instruction index; the debug adapter uses it
	// for breakpoints and single-stepping.
	StepHook func(funcID uint32, index int)
}

// Option configures a Machine.
type Option func(*Machine)

// WithStdout redirects Print output (default os.Stdout).
func WithStdout(w io.Writer) Option { return func(m *Machine) { m.stdout = w } }

// WithLimits overrides the machine's resource limits.
func WithLimits(l Limits) Option { return func(m *Machine) { m.limits = l } }

// WithLogger enables structured trace logging of calls and collections.
func WithLogger(l *zap.Logger) Option { return func(m *Machine) { m.log = l } }

// New builds a Machine for prog.
func New(prog *bytecode.Program, opts ...Option) *Machine {
	m := &Machine{
		funcs:  make(map[uint32]*bytecode.Function, len(prog.Functions)),
		tables: make(map[uint64]map[uint32]uint32, len(prog.VTables)),
		files:  make(map[uint32]string, len(prog.Files)),
		heap:   NewHeap(),
		limits: DefaultLimits(),
		stdout: os.Stdout,
		log:    zap.NewNop(),
	}
	for _, fn := range prog.Functions {
		m.funcs[fn.ID] = fn
	}
	for _, vt := range prog.VTables {
		m.tables[vt.Fingerprint] = vt.Entries
	}
	for _, f := range prog.Files {
		m.files[f.ID] = f.Name
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Pause asks the dispatch loop to spin (politely) before the next
// instruction; Resume lets it continue from the current index.
func (m *Machine) Pause()  { m.paused.Store(true) }
func (m *Machine) Resume() { m.paused.Store(false) }

// Frames exposes the live call stack, bottom first, for the debug
// adapter's stackTrace request. Only meaningful while paused.
func (m *Machine) Frames() []*Frame { return m.frames }

// FileName resolves a bytecode file id to its source path.
func (m *Machine) FileName(id uint32) string { return m.files[id] }

// FuncByID returns the loaded function with the given id.
func (m *Machine) FuncByID(id uint32) (*bytecode.Function, bool) {
	fn, ok := m.funcs[id]
	return fn, ok
}

// Run executes the function with id entry (typically `main`) until the
// frame stack empties or a panic/limit fires, returning the entry's
// result value.
func (m *Machine) Run(ctx context.Context, entry uint32) (Value, error) {
	fn, ok := m.funcs[entry]
	if !ok {
		return nil, fmt.Errorf("machine: no function with id %d", entry)
	}
	m.frames = append(m.frames, newFrame(fn, nil))

	var result Value = unit
	for len(m.frames) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for m.paused.Load() {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Millisecond):
			}
		}

		m.steps++
		if m.steps > m.limits.MaxSteps {
			return nil, m.runtimeErr("step limit (%d) exceeded", m.limits.MaxSteps)
		}

		fr := m.frames[len(m.frames)-1]
		if fr.PC >= len(fr.fn.Code) {
			// fell off the end without an explicit Return
			if ret, err := m.doReturn(fr); err != nil {
				return nil, err
			} else if len(m.frames) == 0 {
				result = ret
			}
			continue
		}
		if m.StepHook != nil {
			m.StepHook(fr.FuncID, fr.PC)
		}
		ins := fr.fn.Code[fr.PC]
		fr.PC++

		ret, done, err := m.exec(fr, ins)
		if err != nil {
			return nil, err
		}
		if done && len(m.frames) == 0 {
			result = ret
		}
	}
	return result, nil
}

// exec dispatches one instruction. done reports that a Return popped the
// last frame, with ret its value.
func (m *Machine) exec(fr *Frame, ins bytecode.Instr) (ret Value, done bool, err error) {
	switch ins.Op {
	case bytecode.NOP:

	case bytecode.PUSH:
		fr.push(m.litValue(ins.Lit))

	case bytecode.POP:
		if _, ok := fr.pop(); !ok {
			return nil, false, m.runtimeErr("pop on empty stack")
		}

	case bytecode.COPY:
		v, ok := fr.pop()
		if !ok {
			return nil, false, m.runtimeErr("copy on empty stack")
		}
		fr.push(v)
		fr.push(v)

	case bytecode.CLONE:
		v, ok := fr.pop()
		if !ok {
			return nil, false, m.runtimeErr("clone on empty stack")
		}
		fr.push(m.deepClone(v))

	case bytecode.PRINT:
		v, ok := fr.pop()
		if !ok {
			return nil, false, m.runtimeErr("print on empty stack")
		}
		fmt.Fprintln(m.stdout, m.render(v))

	case bytecode.PANIC:
		msg := "panic"
		if v, ok := fr.pop(); ok {
			msg = "panic: " + m.render(v)
		}
		return nil, false, m.runtimeErr("%s", msg)

	case bytecode.CONSTRUCT:
		n := int(ins.N)
		if len(fr.Stack) < n {
			return nil, false, m.runtimeErr("construct of %d value(s) on short stack", n)
		}
		values := make([]Value, n)
		for i := n - 1; i >= 0; i-- {
			values[i], _ = fr.pop()
		}
		fr.push(m.alloc(&Object{Tag: uint32(ins.N2), Values: values}))

	case bytecode.DYN:
		v, ok := fr.pop()
		if !ok {
			return nil, false, m.runtimeErr("dyn on empty stack")
		}
		fr.push(m.alloc(&Dyn{FP: ins.FP, Inner: v}))

	case bytecode.INDEX:
		obj, err := m.popObject(fr)
		if err != nil {
			return nil, false, err
		}
		i := int(ins.N)
		if i < 0 || i >= len(obj.Values) {
			return nil, false, m.runtimeErr("field index %d out of range (object has %d)", i, len(obj.Values))
		}
		fr.push(obj.Values[i])

	case bytecode.SETINDEX:
		v, ok := fr.pop()
		if !ok {
			return nil, false, m.runtimeErr("setindex on empty stack")
		}
		obj, err := m.popObject(fr)
		if err != nil {
			return nil, false, err
		}
		i := int(ins.N)
		if i < 0 || i >= len(obj.Values) {
			return nil, false, m.runtimeErr("field index %d out of range (object has %d)", i, len(obj.Values))
		}
		obj.Values[i] = v

	case bytecode.NEWLOCAL, bytecode.SETLOCAL:
		v, ok := fr.pop()
		if !ok {
			return nil, false, m.runtimeErr("%s on empty stack", ins.Op)
		}
		fr.Locals[int(ins.N)] = v

	case bytecode.GETLOCAL:
		v, ok := fr.Locals[int(ins.N)]
		if !ok {
			return nil, false, m.runtimeErr("read of unset local %d", ins.N)
		}
		fr.push(v)

	case bytecode.PARAM:
		i := int(ins.N)
		if i < 0 || i >= len(fr.Args) {
			return nil, false, m.runtimeErr("param %d out of range (%d args)", i, len(fr.Args))
		}
		fr.push(fr.Args[i])

	case bytecode.CALL:
		return nil, false, m.doCall(fr, uint32(ins.N))

	case bytecode.DYNCALL:
		return nil, false, m.doDynCall(fr, uint32(ins.N))

	case bytecode.RETURN:
		ret, err := m.doReturn(fr)
		return ret, len(m.frames) == 0, err

	case bytecode.ADD, bytecode.SUB, bytecode.MUL, bytecode.DIV, bytecode.MOD,
		bytecode.EQ, bytecode.NEQ, bytecode.LT, bytecode.GT, bytecode.LTE, bytecode.GTE,
		bytecode.AND, bytecode.OR:
		y, okY := fr.pop()
		x, okX := fr.pop()
		if !okX || !okY {
			return nil, false, m.runtimeErr("%s on short stack", ins.Op)
		}
		v, err := m.binary(ins.Op, x, y)
		if err != nil {
			return nil, false, err
		}
		fr.push(v)

	case bytecode.NOT:
		v, ok := fr.pop()
		if !ok {
			return nil, false, m.runtimeErr("not on empty stack")
		}
		b, ok := v.(Bool)
		if !ok {
			return nil, false, m.runtimeErr("not on non-bool %s", v)
		}
		fr.push(Bool(!b))

	case bytecode.JMP:
		fr.PC += int(ins.Rel)

	case bytecode.JE:
		v, ok := fr.pop()
		if !ok {
			return nil, false, m.runtimeErr("je on empty stack")
		}
		if b, _ := v.(Bool); bool(b) {
			fr.PC += int(ins.Rel)
		}

	case bytecode.JNE:
		v, ok := fr.pop()
		if !ok {
			return nil, false, m.runtimeErr("jne on empty stack")
		}
		if b, _ := v.(Bool); !bool(b) {
			fr.PC += int(ins.Rel)
		}

	case bytecode.MATCH:
		obj, err := m.popObject(fr)
		if err != nil {
			return nil, false, err
		}
		fr.push(Bool(obj.Tag == uint32(ins.N)))

	default:
		if err := m.execVec(fr, ins); err != nil {
			return nil, false, err
		}
	}
	return nil, false, nil
}

func (m *Machine) litValue(lit bytecode.Lit) Value {
	switch lit.Kind {
	case bytecode.LitInt:
		return Int(lit.I)
	case bytecode.LitFloat:
		return Float(lit.F)
	case bytecode.LitString:
		return m.alloc(&Str{Text: lit.S})
	case bytecode.LitChar:
		return Char(lit.C)
	default:
		return Bool(lit.B)
	}
}

// alloc places v on the heap, collecting first when the live count is at
// the limit. A heap still at the limit after the collection only logs a
// warning: the allocation goes ahead and the run does not stop.
func (m *Machine) alloc(v HeapValue) Value {
	if m.heap.Len() >= m.limits.MaxHeapObjects {
		before := m.heap.Len()
		m.heap.Collect(m.roots())
		m.log.Debug("collected heap", zap.Int("before", before), zap.Int("after", m.heap.Len()))
	}
	if m.heap.Len() >= m.limits.MaxHeapObjects {
		m.log.Warn("heap still at limit after collection", zap.Int("live", m.heap.Len()))
	}
	return m.heap.Alloc(v)
}

// roots gathers every value reachable from the live frame stack: args,
// locals and operand stacks.
func (m *Machine) roots() []Value {
	var out []Value
	for _, fr := range m.frames {
		out = append(out, fr.Args...)
		out = append(out, fr.Stack...)
		for _, v := range fr.Locals {
			out = append(out, v)
		}
	}
	return out
}

// popObject pops a handle and dereferences it to an Object, unwrapping a
// Dyn transparently so trait-object receivers index like their inner
// value.
func (m *Machine) popObject(fr *Frame) (*Object, error) {
	v, ok := fr.pop()
	if !ok {
		return nil, m.runtimeErr("object operation on empty stack")
	}
	return m.derefObject(v)
}

func (m *Machine) derefObject(v Value) (*Object, error) {
	r, ok := v.(Ref)
	if !ok {
		return nil, m.runtimeErr("object operation on non-object %s", v)
	}
	hv, ok := m.heap.Get(r)
	if !ok {
		return nil, m.runtimeErr("dangling handle %s", v)
	}
	switch hv := hv.(type) {
	case *Object:
		return hv, nil
	case *Dyn:
		return m.derefObject(hv.Inner)
	default:
		return nil, m.runtimeErr("object operation on string")
	}
}

func (m *Machine) doCall(fr *Frame, id uint32) error {
	fn, ok := m.funcs[id]
	if !ok {
		return m.runtimeErr("call to unknown function %d", id)
	}
	if len(m.frames) >= m.limits.MaxRecursion {
		return m.runtimeErr("recursion limit (%d) exceeded", m.limits.MaxRecursion)
	}
	argc := int(fn.ArgCount)
	if len(fr.Stack) < argc {
		return m.runtimeErr("call to %s with short stack (%d < %d)", fn.Name, len(fr.Stack), argc)
	}
	args := make([]Value, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i], _ = fr.pop()
	}
	m.log.Debug("call", zap.String("func", fn.Name), zap.Int("depth", len(m.frames)))
	m.frames = append(m.frames, newFrame(fn, args))
	return nil
}

// doDynCall resolves a virtual call: the trait object on top of the stack
// carries the v-table fingerprint; the table maps the trait function to
// the impl function, which is then called with the trait object itself as
// the receiver argument (spec.md §4.H "Dyn dispatch").
func (m *Machine) doDynCall(fr *Frame, traitFnID uint32) error {
	recv, ok := fr.pop()
	if !ok {
		return m.runtimeErr("dyncall on empty stack")
	}
	r, ok := recv.(Ref)
	if !ok {
		return m.runtimeErr("dyncall on non-object %s", recv)
	}
	hv, ok := m.heap.Get(r)
	if !ok {
		return m.runtimeErr("dyncall through dangling handle")
	}
	dyn, ok := hv.(*Dyn)
	if !ok {
		return m.runtimeErr("dyncall on a value with no v-table")
	}
	table, ok := m.tables[dyn.FP]
	if !ok {
		return m.runtimeErr("no v-table registered for fingerprint %d", dyn.FP)
	}
	implID, ok := table[traitFnID]
	if !ok {
		return m.runtimeErr("v-table %d has no entry for trait function %d", dyn.FP, traitFnID)
	}
	fn, ok := m.funcs[implID]
	if !ok {
		return m.runtimeErr("v-table resolves to unknown function %d", implID)
	}
	if len(m.frames) >= m.limits.MaxRecursion {
		return m.runtimeErr("recursion limit (%d) exceeded", m.limits.MaxRecursion)
	}
	argc := int(fn.ArgCount)
	args := make([]Value, argc)
	args[0] = recv
	for i := argc - 1; i >= 1; i-- {
		v, ok := fr.pop()
		if !ok {
			return m.runtimeErr("dyncall to %s with short stack", fn.Name)
		}
		args[i] = v
	}
	m.log.Debug("dyncall", zap.String("func", fn.Name), zap.Uint64("fp", dyn.FP))
	m.frames = append(m.frames, newFrame(fn, args))
	return nil
}

// doReturn pops the current frame, handing its top-of-stack to the caller
// (or returning it when the stack empties).
func (m *Machine) doReturn(fr *Frame) (Value, error) {
	ret, ok := fr.pop()
	if !ok {
		ret = unit
	}
	m.frames = m.frames[:len(m.frames)-1]
	if len(m.frames) > 0 {
		m.frames[len(m.frames)-1].push(ret)
	}
	return ret, nil
}

// runtimeErr builds the fatal runtime error, annotated with the current
// source position when a mark covers it.
func (m *Machine) runtimeErr(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if len(m.frames) > 0 {
		fr := m.frames[len(m.frames)-1]
		if line, col, ok := fr.Position(); ok {
			return fmt.Errorf("%s:%d:%d: %s", m.files[fr.fn.FileID], line, col, msg)
		}
		return fmt.Errorf("%s: %s", fr.fn.Name, msg)
	}
	return fmt.Errorf("machine: %s", msg)
}

func (m *Machine) deepClone(v Value) Value {
	r, ok := v.(Ref)
	if !ok {
		return v
	}
	hv, ok := m.heap.Get(r)
	if !ok {
		return v
	}
	switch hv := hv.(type) {
	case *Str:
		return m.alloc(&Str{Text: hv.Text})
	case *Dyn:
		return m.alloc(&Dyn{FP: hv.FP, Inner: m.deepClone(hv.Inner)})
	case *Object:
		values := make([]Value, len(hv.Values))
		for i, f := range hv.Values {
			values[i] = m.deepClone(f)
		}
		return m.alloc(&Object{Tag: hv.Tag, Values: values})
	}
	return v
}

package compiler

import (
	"github.com/mna/gib/lang/bytecode"
	"github.com/mna/gib/lang/cflow"
	"github.com/mna/gib/lang/token"
)

// marked decorates a node so its first instruction address is recorded as
// a source mark when the tree is flattened. Build receives the node's
// resolved start address (cflow's `top` inherited target), which is
// exactly the instruction index the Mark table needs — no second
// address-resolution pass required.
type marked struct {
	inner cflow.Node
	pos   token.Position
	sink  *[]bytecode.Mark
}

func (m *marked) Len() int { return m.inner.Len() }

func (m *marked) Build(top, brk, cont, next int) []bytecode.Instr {
	*m.sink = append(*m.sink, bytecode.Mark{
		InstrIndex: uint32(top), Line: uint16(m.pos.Line), Col: uint16(m.pos.Col),
	})
	return m.inner.Build(top, brk, cont, next)
}

// armSeq chains a match expression's arms: each arm inherits the start of
// the following arm as its pattern-next target, break as the end of the
// whole chain (so a matched arm's trailing Break skips the rest), and the
// fallback runs when no arm matched. It composes the spec'd cflow node
// kinds rather than extending them: every arm is an ordinary Block of
// Code/Next/Break leaves.
type armSeq struct {
	arms     []cflow.Node
	fallback cflow.Node
}

func (a *armSeq) Len() int {
	total := a.fallback.Len()
	for _, n := range a.arms {
		total += n.Len()
	}
	return total
}

func (a *armSeq) Build(top, brk, cont, next int) []bytecode.Instr {
	end := top + a.Len()
	var out []bytecode.Instr
	cur := top
	for _, arm := range a.arms {
		armLen := arm.Len()
		out = append(out, arm.Build(cur, end, cont, cur+armLen)...)
		cur += armLen
	}
	out = append(out, a.fallback.Build(cur, brk, cont, next)...)
	return out
}

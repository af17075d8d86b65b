// Package cflow implements the control-flow tree: the structured
// intermediate between the typed IR and the flat instruction list
// (spec.md §4.E). Every Node computes its own serialized length without
// emitting anything (Len), then emits itself given four inherited numeric
// targets: the node's own start address, and the break/continue/pattern-
// next addresses a break, continue, or failed-match instruction jumps to
// (Build). spec.md §8 property 2 requires Len() and len(Build(...)) to
// always agree; every Build below is written so the two can be read off
// the same arithmetic.
//
// Addresses are instruction indices into the function's eventual code
// array, not byte offsets — lang/bytecode's JMP/JE/JNE carry a relative
// offset in instructions, resolved by relJump as target - (source + 1), so
// the VM's "advance past the jump, then add Rel" fetch-decode convention
// lands exactly on target.
package cflow

import "github.com/mna/gib/lang/bytecode"

// Node is one control-flow tree node.
type Node interface {
	Len() int
	Build(top, brk, cont, next int) []bytecode.Instr
}

func relJump(from, to int) int32 { return int32(to - (from + 1)) }

// Code is a leaf: a run of already-resolved instructions (arithmetic,
// calls, locals, constructs — anything with no internal jump target).
type Code struct{ Instrs []bytecode.Instr }

func (c Code) Len() int { return len(c.Instrs) }

func (c Code) Build(top, brk, cont, next int) []bytecode.Instr {
	out := make([]bytecode.Instr, len(c.Instrs))
	copy(out, c.Instrs)
	return out
}

// Block is a sequence of nodes executed one after another.
type Block struct{ Kids []Node }

func (b Block) Len() int {
	total := 0
	for _, k := range b.Kids {
		total += k.Len()
	}
	return total
}

func (b Block) Build(top, brk, cont, next int) []bytecode.Instr {
	var out []bytecode.Instr
	cur := top
	for _, k := range b.Kids {
		instrs := k.Build(cur, brk, cont, next)
		out = append(out, instrs...)
		cur += len(instrs)
	}
	return out
}

// Break jumps to the nearest enclosing loop's end.
type Break struct{}

func (Break) Len() int { return 1 }
func (Break) Build(top, brk, cont, next int) []bytecode.Instr {
	return []bytecode.Instr{{Op: bytecode.JMP, Rel: relJump(top, brk)}}
}

// Continue jumps to the nearest enclosing loop's top (its condition).
type Continue struct{}

func (Continue) Len() int { return 1 }
func (Continue) Build(top, brk, cont, next int) []bytecode.Instr {
	return []bytecode.Instr{{Op: bytecode.JMP, Rel: relJump(top, cont)}}
}

// MaybeBreak pops the match-result flag a pattern test pushed and, when
// false, jumps to the enclosing loop's end — the compiled form of a
// while-let whose pattern stopped matching.
type MaybeBreak struct{}

func (MaybeBreak) Len() int { return 1 }
func (MaybeBreak) Build(top, brk, cont, next int) []bytecode.Instr {
	return []bytecode.Instr{{Op: bytecode.JNE, Rel: relJump(top, brk)}}
}

// Next pops the match-result flag a pattern test pushed and, when false,
// jumps to the next match arm (or the next while-let retry point).
type Next struct{}

func (Next) Len() int { return 1 }
func (Next) Build(top, brk, cont, next int) []bytecode.Instr {
	return []bytecode.Instr{{Op: bytecode.JNE, Rel: relJump(top, next)}}
}

// IfBranch is one `cond { body }` / `elif cond { body }` arm.
type IfBranch struct{ Cond, Body Node }

// If is an if/elif/.../else chain. Every non-final branch reserves one
// Jmp(end) after its body to skip the remaining branches; the final
// branch reserves one too only when there is an Else to skip over
// (spec.md §4.E: "the final branch omits it when there is no else
// clause").
type If struct {
	Branches []IfBranch
	Else     Node // nil when there is no else clause
}

func (f If) Len() int {
	total := 0
	for _, br := range f.Branches {
		total += br.Cond.Len() + 1 + br.Body.Len() // +1: the JNE past this branch
	}
	jmpEnds := len(f.Branches)
	if f.Else == nil {
		jmpEnds--
	}
	total += jmpEnds
	if f.Else != nil {
		total += f.Else.Len()
	}
	return total
}

func (f If) Build(top, brk, cont, next int) []bytecode.Instr {
	end := top + f.Len()
	var out []bytecode.Instr
	cur := top
	for i, br := range f.Branches {
		condInstrs := br.Cond.Build(cur, brk, cont, next)
		out = append(out, condInstrs...)
		cjmpAddr := cur + len(condInstrs)
		hasJmpEnd := i < len(f.Branches)-1 || f.Else != nil

		bodyStart := cjmpAddr + 1
		bodyInstrs := br.Body.Build(bodyStart, brk, cont, next)
		afterBody := bodyStart + len(bodyInstrs)
		if hasJmpEnd {
			afterBody++
		}
		out = append(out, bytecode.Instr{Op: bytecode.JNE, Rel: relJump(cjmpAddr, afterBody)})
		out = append(out, bodyInstrs...)
		if hasJmpEnd {
			jmpAddr := bodyStart + len(bodyInstrs)
			out = append(out, bytecode.Instr{Op: bytecode.JMP, Rel: relJump(jmpAddr, end)})
		}
		cur = afterBody
	}
	if f.Else != nil {
		out = append(out, f.Else.Build(cur, brk, cont, next)...)
	}
	return out
}

// While binds break to its own end address and continue to its own top
// (the condition), per spec.md §4.E.
type While struct{ Cond, Body Node }

func (w While) Len() int { return w.Cond.Len() + 1 + w.Body.Len() + 1 }

func (w While) Build(top, brk, cont, next int) []bytecode.Instr {
	end := top + w.Len()
	// the condition inherits this loop's own targets too: a while-let's
	// MaybeBreak lives in the condition and must exit this loop, not an
	// enclosing one.
	condInstrs := w.Cond.Build(top, end, top, next)
	cjmpAddr := top + len(condInstrs)
	bodyStart := cjmpAddr + 1
	bodyInstrs := w.Body.Build(bodyStart, end, top, next)
	jmpBackAddr := bodyStart + len(bodyInstrs)

	var out []bytecode.Instr
	out = append(out, condInstrs...)
	out = append(out, bytecode.Instr{Op: bytecode.JNE, Rel: relJump(cjmpAddr, end)})
	out = append(out, bodyInstrs...)
	out = append(out, bytecode.Instr{Op: bytecode.JMP, Rel: relJump(jmpBackAddr, top)})
	return out
}

// NewFor lowers a three-part for loop to a Block wrapping a While: run
// init once, then loop while cond holds, running body then post each
// iteration (spec.md §1 lists `for` as supported control flow; §4.E's
// variant list is While-only, so this ambient addition is expressed
// purely as sugar over the existing nodes rather than a new node kind).
// A nil init/post is simply omitted; a nil cond loops unconditionally.
func NewFor(init, cond, post, body Node) Node {
	loopBody := Block{Kids: []Node{body}}
	if post != nil {
		loopBody.Kids = append(loopBody.Kids, post)
	}
	if cond == nil {
		cond = Code{Instrs: []bytecode.Instr{{Op: bytecode.PUSH, Lit: bytecode.Lit{Kind: bytecode.LitBool, B: true}}}}
	}
	loop := While{Cond: cond, Body: loopBody}
	if init == nil {
		return loop
	}
	return Block{Kids: []Node{init, loop}}
}

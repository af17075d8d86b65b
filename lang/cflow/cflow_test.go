package cflow_test

import (
	"testing"

	"github.com/mna/gib/lang/bytecode"
	"github.com/mna/gib/lang/cflow"
	"github.com/stretchr/testify/require"
)

func code(n int) cflow.Node {
	instrs := make([]bytecode.Instr, n)
	for i := range instrs {
		instrs[i] = bytecode.Instr{Op: bytecode.NOP}
	}
	return cflow.Code{Instrs: instrs}
}

// assertLenMatches is spec.md §8 property 2: for every node and every
// choice of targets, build(top, ...).len() == node.len().
func assertLenMatches(t *testing.T, n cflow.Node, top, brk, cont, next int) {
	t.Helper()
	built := n.Build(top, brk, cont, next)
	require.Equal(t, n.Len(), len(built))
}

func TestBlockLenMatchesBuild(t *testing.T) {
	b := cflow.Block{Kids: []cflow.Node{code(2), cflow.Break{}, code(1)}}
	assertLenMatches(t, b, 10, 100, 200, 300)
}

func TestIfWithoutElseOmitsFinalJump(t *testing.T) {
	f := cflow.If{
		Branches: []cflow.IfBranch{
			{Cond: code(1), Body: code(2)},
			{Cond: code(1), Body: code(3)},
		},
	}
	// 2 conds(1)+cjmp(1)+bodies(2,3) + jmpEnds(1, only the non-final branch)
	require.Equal(t, (1+1+2)+(1+1+3)+1, f.Len())
	assertLenMatches(t, f, 0, -1, -1, -1)
}

func TestIfWithElseReservesFinalJump(t *testing.T) {
	f := cflow.If{
		Branches: []cflow.IfBranch{{Cond: code(1), Body: code(2)}},
		Else:     code(4),
	}
	require.Equal(t, (1+1+2)+1+4, f.Len())
	assertLenMatches(t, f, 0, -1, -1, -1)
}

func TestWhileBindsBreakToEndAndContinueToTop(t *testing.T) {
	w := cflow.While{Cond: code(1), Body: cflow.Block{Kids: []cflow.Node{cflow.Break{}, cflow.Continue{}}}}
	built := w.Build(5, -1, -1, -1)
	require.Equal(t, w.Len(), len(built))

	// Break is built[2] (cond(1) + cjmp(1) + break), should jump to the
	// instruction right after the final back-jump (the loop's end).
	end := 5 + w.Len()
	brk := built[2]
	require.Equal(t, bytecode.JMP, brk.Op)
	require.Equal(t, int32(end-(5+2+1)), brk.Rel)

	cont := built[3]
	require.Equal(t, bytecode.JMP, cont.Op)
	require.Equal(t, int32(5-(5+3+1)), cont.Rel)
}

func TestForLowersToBlockOverWhile(t *testing.T) {
	init := code(1)
	cond := code(1)
	post := code(1)
	body := code(1)
	forNode := cflow.NewFor(init, cond, post, body)
	// init(1) + while( cond(1) + cjmp(1) + body(1) + post(1) + backjmp(1) )
	require.Equal(t, 1+(1+1+1+1+1), forNode.Len())
	assertLenMatches(t, forNode, 0, -1, -1, -1)
}

func TestNestedIfInsideWhileLenConsistent(t *testing.T) {
	inner := cflow.If{
		Branches: []cflow.IfBranch{{Cond: code(1), Body: cflow.Break{}}},
		Else:     cflow.Continue{},
	}
	w := cflow.While{Cond: code(2), Body: inner}
	assertLenMatches(t, w, 3, -1, -1, -1)
}

// Package compiler implements the bytecode builder (spec.md §4.F): it
// lowers a checked function body straight from its ast/decl/types shape
// (rather than re-deriving anything already recorded by lang/check) into
// a lang/cflow tree, then flattens that tree into a lang/bytecode.Function.
package compiler

import (
	"sort"

	"github.com/mna/gib/lang/decl"
)

// AssignFuncIDs gives every KindFunction declaration in store a stable,
// deterministic id (spec.md §8 property 6 determinism), ordered by path so
// two compiles of the same project agree without coordination.
func AssignFuncIDs(store *decl.Store) map[string]uint32 {
	all := store.All()
	var funcs []*decl.Decl
	for _, d := range all {
		if d.Kind == decl.KindFunction {
			funcs = append(funcs, d)
		}
	}
	sort.Slice(funcs, func(i, j int) bool { return funcs[i].Path.String() < funcs[j].Path.String() })
	ids := make(map[string]uint32, len(funcs))
	for i, d := range funcs {
		ids[d.Path.String()] = uint32(i)
	}
	return ids
}

// AssignTypeIDs gives every struct/enum-variant declaration a stable id,
// used by CONSTRUCT and MATCH instructions.
func AssignTypeIDs(store *decl.Store) map[string]uint32 {
	all := store.All()
	var types []*decl.Decl
	for _, d := range all {
		if d.Kind == decl.KindStruct || d.Kind == decl.KindMember {
			types = append(types, d)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Path.String() < types[j].Path.String() })
	ids := make(map[string]uint32, len(types))
	for i, d := range types {
		ids[d.Path.String()] = uint32(i)
	}
	return ids
}

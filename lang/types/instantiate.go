package types

// VarAllocator mints fresh type-variable ids (backed by lang/tyvar.Store),
// each recording the generic it stands in for as a bound.
type VarAllocator interface {
	NewVar(bound *Generic) int
}

// Instantiate replaces every generic named in generics with a fresh
// TypeVar substituted structurally through t (spec.md §4.B "Generic
// instantiation"). It returns the instantiated type and the generic-name
// to fresh-id mapping, which callers need to instantiate sibling types
// (e.g. a function's other parameters) consistently.
func Instantiate(t Type, generics []*Generic, alloc VarAllocator) (Type, map[string]int) {
	sub := make(map[string]Type, len(generics))
	ids := make(map[string]int, len(generics))
	for _, g := range generics {
		id := alloc.NewVar(g)
		sub[g.Name] = TypeVar{ID: id}
		ids[g.Name] = id
	}
	return substGenericNames(t, sub), ids
}

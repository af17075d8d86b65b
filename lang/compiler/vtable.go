package compiler

import (
	"sort"

	"github.com/dolthub/swiss"
	"github.com/twmb/murmur3"

	"github.com/mna/gib/lang/bytecode"
	"github.com/mna/gib/lang/decl"
)

// Registry is the builder's v-table map and registry (spec.md §4.F
// "get_vtable(ty) hashes the type, memoizes into type -> fingerprint, and
// registers the {trait-func -> impl-func} map under that fingerprint").
// Fingerprints are seeded so two compiles of the same project produce
// identical fingerprints (spec.md §8 property 6).
type Registry struct {
	seed         uint64
	fingerprints *swiss.Map[string, uint64]
	tables       *swiss.Map[uint64, *bytecode.VTableEntry]
}

// NewRegistry returns an empty Registry hashing with seed.
func NewRegistry(seed uint64) *Registry {
	return &Registry{
		seed:         seed,
		fingerprints: swiss.NewMap[string, uint64](16),
		tables:       swiss.NewMap[uint64, *bytecode.VTableEntry](16),
	}
}

// GetVTable returns the fingerprint for typeKey (a "fromPath->traitPath"
// string, unique per concrete-type/trait pairing), computing and
// registering entries the first time typeKey is seen.
func (r *Registry) GetVTable(typeKey string, entries map[uint32]uint32) uint64 {
	if fp, ok := r.fingerprints.Get(typeKey); ok {
		return fp
	}
	fp := murmur3.SeedSum64(r.seed, []byte(typeKey))
	r.fingerprints.Put(typeKey, fp)
	r.tables.Put(fp, &bytecode.VTableEntry{Fingerprint: fp, Entries: entries})
	return fp
}

// Tables returns every registered v-table, sorted by fingerprint for
// deterministic encoding.
func (r *Registry) Tables() []*bytecode.VTableEntry {
	var out []*bytecode.VTableEntry
	r.tables.Iter(func(_ uint64, vt *bytecode.VTableEntry) bool {
		out = append(out, vt)
		return false
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Fingerprint < out[j].Fingerprint })
	return out
}

// BuildVTableEntries computes the trait-func-id -> impl-func-id map for
// fromPath's witness that it implements traitPath: for each of the
// trait's methods, prefer an override among fromPath's impls targeting
// traitPath, falling back to the trait's own default body.
func BuildVTableEntries(store *decl.Store, impls *decl.ImplIndex, funcIDs map[string]uint32, fromPath, traitPath decl.Path) map[uint32]uint32 {
	entries := map[uint32]uint32{}
	traitDecl, ok := store.Lookup(traitPath)
	if !ok {
		return entries
	}
	tb, ok := traitDecl.Body.(*decl.TraitBody)
	if !ok {
		return entries
	}

	var overrides []*decl.Decl
	for _, imp := range impls.For(fromPath) {
		toPath, ok := namedTypeExprPath(imp.ToTy)
		if !ok || toPath != traitPath {
			continue
		}
		overrides = append(overrides, imp.Funcs...)
	}

	for _, tfPath := range tb.Funcs {
		tf, ok := store.Lookup(tfPath)
		if !ok {
			continue
		}
		traitFnID, ok := funcIDs[tfPath.String()]
		if !ok {
			continue
		}
		chosen := tf
		for _, o := range overrides {
			if o.Name == tf.Name {
				chosen = o
				break
			}
		}
		implFnID, ok := funcIDs[chosen.Path.String()]
		if !ok {
			continue
		}
		entries[traitFnID] = implFnID
	}
	return entries
}

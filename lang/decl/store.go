package decl

import (
	"strings"

	"github.com/dolthub/swiss"
	"golang.org/x/exp/slices"
)

// Store maps declaration paths to declarations. It is built once by
// lang/resolver and is read-only afterward, so it may be shared freely
// across the parallel per-file checks described in spec.md §5.
type Store struct {
	m *swiss.Map[string, *Decl]
}

// NewStore returns an empty Store with initial capacity for at least size
// declarations.
func NewStore(size int) *Store {
	if size < 1 {
		size = 1
	}
	return &Store{m: swiss.NewMap[string, *Decl](uint32(size))}
}

// Insert registers d under its Path, overwriting any previous entry at the
// same path (the resolver is responsible for diagnosing duplicates before
// calling Insert).
func (s *Store) Insert(d *Decl) { s.m.Put(d.Path.key, d) }

// Lookup returns the declaration at path, if any.
func (s *Store) Lookup(p Path) (*Decl, bool) { return s.m.Get(p.key) }

// Len returns the number of declarations in the store.
func (s *Store) Len() int { return s.m.Count() }

// Children returns the direct children of parent, sorted by name for
// deterministic listing (used by `info module-tree`).
func (s *Store) Children(parent Path) []*Decl {
	var out []*Decl
	s.m.Iter(func(_ string, d *Decl) bool {
		// the root module's parent is itself; it is nobody's child
		if d.Parent == parent && d.Path != parent {
			out = append(out, d)
		}
		return false
	})
	slices.SortFunc(out, func(a, b *Decl) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// All returns every declaration in the store, sorted by path, for
// deterministic iteration (spec.md §8 determinism property).
func (s *Store) All() []*Decl {
	out := make([]*Decl, 0, s.m.Count())
	s.m.Iter(func(_ string, d *Decl) bool {
		out = append(out, d)
		return false
	})
	slices.SortFunc(out, func(a, b *Decl) int { return strings.Compare(a.Path.key, b.Path.key) })
	return out
}

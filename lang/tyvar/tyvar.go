// Package tyvar implements the Type Variable Store: a union-find arena
// over type-variable ids, each representative holding the generic bounds
// merged into it, an optional explicit (user-written) assignment, and an
// optional resolved type. See spec.md §4.C and the "Union-find bookkeeping"
// design note in §9: slots are never freed, so ids remain stable
// identifiers for diagnostics across the whole check.
package tyvar

import (
	"fmt"

	"github.com/mna/gib/lang/token"
	"github.com/mna/gib/lang/types"
)

// ErrConflictingResolution is recorded (not returned — see Store.Conflicts)
// when a Merge finds both sides already carrying an explicit assignment.
// This is the Open Question the spec leaves unresolved (§9): this store
// diagnoses it and deterministically keeps the lower-id side's explicit
// assignment.
type ErrConflictingResolution struct {
	KeptID, DroppedID int
	Kept, Dropped     types.Type
}

func (e *ErrConflictingResolution) Error() string {
	return fmt.Sprintf("type variable ?%d already resolved to %s, conflicting resolution %s on ?%d discarded",
		e.KeptID, e.Kept, e.Dropped, e.DroppedID)
}

// slot is either data (fwd == -1) or a forwarding pointer to another slot
// (fwd >= 0), the classic union-find representation.
type slot struct {
	fwd int // -1 if this slot holds data directly

	bounds     []*types.Generic
	explicit   types.Type // the user-written assignment, if any
	resolved   types.Type // the type this var was unified/checked against
	originSpan token.Span
	originFile string
}

// Store is the type-variable arena. The zero value is not usable; use New.
type Store struct {
	slots     []slot
	conflicts []*ErrConflictingResolution
}

// New returns an empty Store.
func New() *Store { return &Store{} }

// New allocates a fresh id with no bounds.
func (s *Store) New() int {
	s.slots = append(s.slots, slot{fwd: -1})
	return len(s.slots) - 1
}

// NewWithBound allocates a fresh id carrying generic bound g, and records
// the span/file it was introduced at for UnboundTypeVar diagnostics.
func (s *Store) NewWithBound(g *types.Generic, originSpan token.Span, originFile string) int {
	id := s.New()
	s.slots[id].bounds = []*types.Generic{g}
	s.slots[id].originSpan = originSpan
	s.slots[id].originFile = originFile
	return id
}

// NewVar implements types.VarAllocator so types.Instantiate can mint ids
// without importing this package.
func (s *Store) NewVar(bound *types.Generic) int {
	if bound == nil {
		return s.New()
	}
	return s.NewWithBound(bound, token.Span{}, "")
}

// Find returns id's representative, following forwarding pointers with
// path compression.
func (s *Store) Find(id int) int {
	root := id
	for s.slots[root].fwd != -1 {
		root = s.slots[root].fwd
	}
	for id != root {
		next := s.slots[id].fwd
		s.slots[id].fwd = root
		id = next
	}
	return root
}

// Data is the information held by a representative id.
type Data struct {
	Bounds   []*types.Generic
	Explicit types.Type
	Resolved types.Type
}

// Get returns the representative data for id's class.
func (s *Store) Get(id int) Data {
	r := s.Find(id)
	sl := s.slots[r]
	return Data{Bounds: sl.bounds, Explicit: sl.explicit, Resolved: sl.resolved}
}

// LookupVar implements types.VarSink: it reports the representative's
// resolved type, if there is one (falling back to the explicit assignment).
func (s *Store) LookupVar(id int) (types.Type, bool) {
	d := s.Get(id)
	if d.Resolved != nil {
		return d.Resolved, true
	}
	if d.Explicit != nil {
		return d.Explicit, true
	}
	return nil, false
}

// ResolveVar implements types.VarSink: it is equivalent to Resolve(id, t)
// with t treated as a non-explicit (inferred) resolution.
func (s *Store) ResolveVar(id int, t types.Type) { s.resolve(id, t, false) }

// Resolve merges id with a synthetic leaf holding explicit = Some(t); this
// is how a user-written type annotation registers against a var (spec.md
// §4.C: "resolve(id, ty) — equivalent to merging with a leaf holding
// explicit = Some(ty)").
func (s *Store) Resolve(id int, t types.Type) { s.resolve(id, t, true) }

func (s *Store) resolve(id int, t types.Type, explicit bool) {
	r := s.Find(id)
	sl := &s.slots[r]
	if explicit {
		if sl.explicit != nil && !types.Equal(sl.explicit, t) {
			s.conflicts = append(s.conflicts, &ErrConflictingResolution{
				KeptID: r, Kept: sl.explicit, DroppedID: r, Dropped: t,
			})
			sl.resolved = sl.explicit
			return
		}
		sl.explicit = t
	}
	sl.resolved = t
}

// Merge unions the representatives of a and b, concatenating bounds. If
// both sides already carry an explicit assignment, it diagnoses
// ErrConflictingResolution (recorded, retrievable via Conflicts) and keeps
// the lower-id side's explicit assignment — the deterministic,
// first-writer-wins policy this implementation chooses for the spec's
// open question (§9).
func (s *Store) Merge(a, b int) {
	ra, rb := s.Find(a), s.Find(b)
	if ra == rb {
		return
	}
	// Deterministic orientation: fold the higher id into the lower id so
	// repeated merges of the same pair are idempotent regardless of call
	// order.
	keep, drop := ra, rb
	if keep > drop {
		keep, drop = drop, keep
	}
	ks, ds := &s.slots[keep], &s.slots[drop]

	ks.bounds = append(ks.bounds, ds.bounds...)

	switch {
	case ks.explicit != nil && ds.explicit != nil && !types.Equal(ks.explicit, ds.explicit):
		s.conflicts = append(s.conflicts, &ErrConflictingResolution{
			KeptID: keep, Kept: ks.explicit, DroppedID: drop, Dropped: ds.explicit,
		})
	case ks.explicit == nil && ds.explicit != nil:
		ks.explicit = ds.explicit
	}

	if ks.resolved == nil {
		ks.resolved = ds.resolved
	}

	ds.fwd = keep
	ds.bounds = nil
	ds.explicit = nil
	ds.resolved = nil
}

// Conflicts returns every ErrConflictingResolution recorded so far, for the
// checker to surface as diagnostics.
func (s *Store) Conflicts() []*ErrConflictingResolution { return s.conflicts }

// Len returns the number of ids ever allocated.
func (s *Store) Len() int { return len(s.slots) }

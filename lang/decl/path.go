// Package decl implements the interned module path and declaration store
// that the resolver (lang/resolver) populates and the checker (lang/check)
// queries: the Path & Declaration Store component of the compiler.
package decl

import "strings"

// Path is an ordered sequence of identifier segments identifying a
// declaration by its absolute module path. The root path is the empty
// sequence. Equality is by content, so two Paths built from the same
// segments compare equal with ==.
type Path struct {
	key string // "::"-joined segments, used for equality/hash/sort
}

// Root is the empty module path.
var Root = Path{}

// NewPath interns a path from its segments.
func NewPath(segments ...string) Path {
	return Path{key: strings.Join(segments, "::")}
}

// Child returns the path obtained by appending name to p.
func (p Path) Child(name string) Path {
	if p.key == "" {
		return Path{key: name}
	}
	return Path{key: p.key + "::" + name}
}

// Segments splits the path back into its identifier components.
func (p Path) Segments() []string {
	if p.key == "" {
		return nil
	}
	return strings.Split(p.key, "::")
}

// IsRoot reports whether p is the empty root path.
func (p Path) IsRoot() bool { return p.key == "" }

// String renders the path using "::" as the teacher/spec notation does.
func (p Path) String() string {
	if p.key == "" {
		return "::"
	}
	return p.key
}

// Last returns the final segment of the path, or "" for the root.
func (p Path) Last() string {
	segs := p.Segments()
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

// Parent returns the path with its last segment removed.
func (p Path) Parent() Path {
	segs := p.Segments()
	if len(segs) <= 1 {
		return Root
	}
	return NewPath(segs[:len(segs)-1]...)
}

// FromSlashed builds a module Path from a VFS directory path such as
// "collections/list", splitting on "/" (spec.md §4.A: "the module path
// derived from the file's relative directory").
func FromSlashed(dir string) Path {
	if dir == "" || dir == "." {
		return Root
	}
	segs := strings.Split(strings.Trim(dir, "/"), "/")
	return NewPath(segs...)
}

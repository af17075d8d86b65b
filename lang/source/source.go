// Package source implements the virtual file tree that lang/resolver walks:
// a lazy directory/file rose tree over an fs.FS, read once per node and
// cached, so the resolver can be driven from an OS directory, an in-memory
// fstest.MapFS (tests), or an embedded FS alike.
package source

import (
	"io/fs"
	"path"
	"sort"
	"sync"
)

// Kind distinguishes a directory node from a source file leaf.
type Kind int

const (
	DirKind Kind = iota
	FileKind
)

// Node is one entry of the virtual file tree. Directory nodes only know
// their children's names until Children is called, which lazily reads the
// underlying fs.FS and caches the result.
type Node struct {
	name string // base name, e.g. "list.gib" or "collections"
	kind Kind
	fsys fs.FS
	dir  string // slash-separated path within fsys; the root keeps the dir given to Root

	once     sync.Once
	children []*Node
	src      []byte
	err      error
}

// Root builds the root Node of the virtual tree rooted at dir within fsys.
// Nothing is read until Children or Source is called.
func Root(fsys fs.FS, dir string) *Node {
	return &Node{name: path.Base(dir), kind: DirKind, fsys: fsys, dir: dir}
}

// Name is the node's base name.
func (n *Node) Name() string { return n.name }

// Kind reports whether n is a directory or a file leaf.
func (n *Node) Kind() Kind { return n.kind }

// IsSourceFile reports whether n is a leaf ending in the language's source
// extension.
func (n *Node) IsSourceFile() bool {
	return n.kind == FileKind && path.Ext(n.name) == ".gib"
}

// Path is the node's slash-separated path relative to the tree root.
func (n *Node) Path() string { return n.dir }

// Children lazily lists and sorts n's entries. Non-source files are
// included as FileKind nodes but the resolver skips them; only
// subdirectories and ".gib" files produce declarations or further descent.
func (n *Node) Children() ([]*Node, error) {
	if n.kind != DirKind {
		return nil, nil
	}
	n.once.Do(func() {
		dents, err := fs.ReadDir(n.fsys, n.dir)
		if err != nil {
			n.err = err
			return
		}
		sort.Slice(dents, func(i, j int) bool { return dents[i].Name() < dents[j].Name() })
		for _, d := range dents {
			childPath := path.Join(n.dir, d.Name())
			kind := FileKind
			if d.IsDir() {
				kind = DirKind
			}
			n.children = append(n.children, &Node{name: d.Name(), kind: kind, fsys: n.fsys, dir: childPath})
		}
	})
	return n.children, n.err
}

// Source lazily reads a file leaf's contents. Calling it on a directory
// node returns an error.
func (n *Node) Source() ([]byte, error) {
	if n.kind != FileKind {
		return nil, &fs.PathError{Op: "read", Path: n.dir, Err: fs.ErrInvalid}
	}
	n.once.Do(func() {
		n.src, n.err = fs.ReadFile(n.fsys, n.dir)
	})
	return n.src, n.err
}

// Walk visits n and, for directories, recursively every descendant in
// sorted order, depth-first — matching the deterministic VFS traversal
// order spec.md §7 requires for cross-file diagnostic ordering. visit
// returning false stops descent into that node's children (it still
// returns to the parent's loop).
func Walk(n *Node, visit func(*Node) bool) error {
	if !visit(n) {
		return nil
	}
	if n.kind != DirKind {
		return nil
	}
	children, err := n.Children()
	if err != nil {
		return err
	}
	for _, c := range children {
		if err := Walk(c, visit); err != nil {
			return err
		}
	}
	return nil
}

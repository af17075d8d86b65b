package source

import (
	"io/fs"
	"time"
)

// Single returns a one-file virtual tree holding src under name, for
// callers that operate on a single in-memory document (the CLI's
// file-at-a-time commands, the language server's open buffers).
func Single(name string, src []byte) *Node {
	return Root(memFS{name: name, data: src}, ".")
}

// memFS is a minimal fs.FS exposing exactly one file at the root. Only
// the ReadDir/ReadFile paths the source walker uses are implemented.
type memFS struct {
	name string
	data []byte
}

func (m memFS) Open(name string) (fs.File, error) {
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

func (m memFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if name != "." {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	return []fs.DirEntry{memEntry{m}}, nil
}

func (m memFS) ReadFile(name string) ([]byte, error) {
	if name != m.name {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}
	return m.data, nil
}

type memEntry struct{ m memFS }

func (e memEntry) Name() string               { return e.m.name }
func (e memEntry) IsDir() bool                { return false }
func (e memEntry) Type() fs.FileMode          { return 0 }
func (e memEntry) Info() (fs.FileInfo, error) { return memInfo{e.m}, nil }

type memInfo struct{ m memFS }

func (i memInfo) Name() string       { return i.m.name }
func (i memInfo) Size() int64        { return int64(len(i.m.data)) }
func (i memInfo) Mode() fs.FileMode  { return 0o444 }
func (i memInfo) ModTime() time.Time { return time.Time{} }
func (i memInfo) IsDir() bool        { return false }
func (i memInfo) Sys() interface{}   { return nil }

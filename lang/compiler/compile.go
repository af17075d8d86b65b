package compiler

import (
	"sort"

	"github.com/mna/gib/lang/ast"
	"github.com/mna/gib/lang/bytecode"
	"github.com/mna/gib/lang/check"
	"github.com/mna/gib/lang/decl"
	"github.com/mna/gib/lang/diag"
	"github.com/mna/gib/lang/resolver"
	"github.com/mna/gib/lang/token"
)

// DefaultSeed seeds the v-table fingerprint hasher. It is a fixed value so
// two compiles of the same project agree on every fingerprint (spec.md §8
// property 6); it is persisted only indirectly, through the fingerprints
// a compiled program carries (spec.md §9 "Determinism").
const DefaultSeed uint64 = 0x6769626c616e6721

// Compile lowers every checked function of proj into a linked
// bytecode.Program. Lowering problems (an indirect call the instruction
// set cannot express, a lambda capturing enclosing locals) are appended to
// errs; the affected function still emits so later diagnostics are not
// masked, mirroring the checker's accumulate-and-continue policy.
func Compile(proj *resolver.Project, results []*check.CheckResult, errs *diag.List) *bytecode.Program {
	pc := &progCompiler{
		proj:    proj,
		funcIDs: AssignFuncIDs(proj.Store),
		typeIDs: AssignTypeIDs(proj.Store),
		reg:     NewRegistry(DefaultSeed),
		errs:    errs,
	}
	pc.nextLiftID = uint32(len(pc.funcIDs))

	prog := &bytecode.Program{}
	seenFiles := map[uint32]bool{}
	for _, res := range results {
		pf := pc.parsedFile(res.File)
		if pf == nil {
			continue
		}
		imports := importTable(pf.AST)
		for _, fr := range res.Funcs {
			fn := pc.compileFunc(fr, imports)
			if fn == nil {
				continue
			}
			prog.Functions = append(prog.Functions, fn)
			if !seenFiles[fn.FileID] {
				seenFiles[fn.FileID] = true
				prog.Files = append(prog.Files, &bytecode.FileEntry{ID: fn.FileID, Name: res.File})
			}
		}
	}
	prog.Functions = append(prog.Functions, pc.lifted...)
	sort.Slice(prog.Functions, func(i, j int) bool { return prog.Functions[i].ID < prog.Functions[j].ID })
	sort.Slice(prog.Files, func(i, j int) bool { return prog.Files[i].ID < prog.Files[j].ID })
	prog.VTables = pc.reg.Tables()
	return prog
}

// EntryFunc returns the id of the program's `main` function, searching the
// assigned id space for a path whose last segment is "main".
func EntryFunc(store *decl.Store) (uint32, bool) {
	funcIDs := AssignFuncIDs(store)
	var paths []string
	for p := range funcIDs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if decl.NewPath(p).Last() == "main" || p == "main" {
			return funcIDs[p], true
		}
	}
	return 0, false
}

// progCompiler is the per-program compiler state: id assignments, the
// v-table registry and the lifted-lambda accumulator shared by every
// function compile.
type progCompiler struct {
	proj    *resolver.Project
	funcIDs map[string]uint32
	typeIDs map[string]uint32
	reg     *Registry
	errs    *diag.List

	nextLiftID uint32
	lifted     []*bytecode.Function
}

func (pc *progCompiler) parsedFile(name string) *resolver.ParsedFile {
	for _, pf := range pc.proj.Files {
		if pf.Name == name {
			return pf
		}
	}
	return nil
}

// importTable mirrors check.newFileScope: the name each `use` brings into
// the file's scope, mapped to its absolute path.
func importTable(f *ast.File) map[string]decl.Path {
	m := map[string]decl.Path{}
	for _, u := range f.Uses {
		name := u.Alias
		if name == "" && len(u.Path) > 0 {
			name = u.Path[len(u.Path)-1]
		}
		if name != "" {
			m[name] = decl.NewPath(u.Path...)
		}
	}
	return m
}

// lookupDecl resolves a value/constructor path the same way the checker
// does (imports, absolute, std prelude, unique enum member), so the ids
// the compiler emits always refer to the declaration the checker typed.
func (pc *progCompiler) lookupDecl(imports map[string]decl.Path, path []string) (*decl.Decl, bool) {
	if len(path) == 1 {
		if p, ok := imports[path[0]]; ok {
			if d, ok := pc.proj.Store.Lookup(p); ok {
				return d, true
			}
		}
	}
	if d, ok := pc.proj.Store.Lookup(decl.NewPath(path...)); ok {
		return d, true
	}
	if len(path) == 1 {
		if d, ok := pc.proj.Store.Lookup(decl.NewPath("std", path[0])); ok {
			return d, true
		}
		var found *decl.Decl
		for _, d := range pc.proj.Store.All() {
			if d.Kind == decl.KindMember && d.Name == path[0] {
				if found != nil {
					return nil, false
				}
				found = d
			}
		}
		if found != nil {
			return found, true
		}
	}
	return nil, false
}

// vtableFor registers (memoized) the v-table for fromPath's witness of
// traitPath and returns its fingerprint.
func (pc *progCompiler) vtableFor(fromPath, traitPath decl.Path) uint64 {
	key := fromPath.String() + "->" + traitPath.String()
	entries := BuildVTableEntries(pc.proj.Store, pc.proj.Impls, pc.funcIDs, fromPath, traitPath)
	return pc.reg.GetVTable(key, entries)
}

func namedTypeExprPath(te ast.TypeExpr) (decl.Path, bool) {
	n, ok := te.(*ast.NamedTypeExpr)
	if !ok {
		return decl.Path{}, false
	}
	return decl.NewPath(n.Path...), true
}

// traitPathOf reports the trait a syntactic type annotation names, if it
// names one — the trigger for wrapping a concrete value in a Dyn.
func (pc *progCompiler) traitPathOf(imports map[string]decl.Path, te ast.TypeExpr) (decl.Path, bool) {
	n, ok := te.(*ast.NamedTypeExpr)
	if !ok {
		return decl.Path{}, false
	}
	d, ok := pc.lookupDecl(imports, n.Path)
	if !ok || d.Kind != decl.KindTrait {
		return decl.Path{}, false
	}
	return d.Path, true
}

func (pc *progCompiler) errorf(file string, span token.Span, pos token.Position, format string, args ...interface{}) {
	pc.errs.Errorf(file, span, pos, format, args...)
}

package maincmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mna/gib/lang/bytecode"
	"github.com/mna/gib/lang/check"
	"github.com/mna/gib/lang/compiler"
	"github.com/mna/gib/lang/diag"
	"github.com/mna/gib/lang/resolver"
	"github.com/mna/gib/lang/source"
)

// Manifest is the optional gib.yaml project file: the module name (used
// for the default output file name) and the source roots. Only the first
// root is compiled; any further entries are ignored.
type Manifest struct {
	Module string   `yaml:"module"`
	Roots  []string `yaml:"roots"`
}

// loadManifest reads dir/gib.yaml when present.
func loadManifest(dir string) (*Manifest, bool) {
	data, err := os.ReadFile(filepath.Join(dir, "gib.yaml"))
	if err != nil {
		return nil, false
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, false
	}
	return &m, true
}

// buildResult is the shared pipeline output: every command past `parse`
// consumes some prefix of it.
type buildResult struct {
	manifest *Manifest
	proj     *resolver.Project
	results  []*check.CheckResult
	prog     *bytecode.Program // nil when errs holds error diagnostics
	errs     *diag.List
}

// sourceRoot builds the VFS for path: a directory is walked whole
// (honoring a gib.yaml manifest root), a single file compiles alone.
func sourceRoot(path string) (*source.Node, *Manifest, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, nil, err
	}
	if !fi.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		return source.Single(filepath.Base(path), data), nil, nil
	}
	dir := path
	m, ok := loadManifest(dir)
	if ok && len(m.Roots) > 0 {
		dir = filepath.Join(dir, m.Roots[0])
	}
	return source.Root(os.DirFS(dir), "."), m, nil
}

// compilePath runs the whole front half of the pipeline on path: resolve,
// check, and — only when no error was diagnosed — lower to bytecode.
func (c *Cmd) compilePath(path string) (*buildResult, error) {
	start := time.Now()
	root, manifest, err := sourceRoot(path)
	if err != nil {
		return nil, err
	}

	errs := &diag.List{}
	proj := resolver.Resolve(root, errs)
	_, checkErrs, results := check.CheckProject(proj)
	for _, d := range checkErrs.Items() {
		errs.Add(d)
	}
	errs.Sort()

	res := &buildResult{manifest: manifest, proj: proj, results: results, errs: errs}
	if errs.Len() == 0 {
		res.prog = compiler.Compile(proj, results, errs)
		errs.Sort()
		if errs.Len() > 0 {
			res.prog = nil
		}
	}

	c.log.Info("compiled",
		zap.String("path", path),
		zap.Int("files", len(proj.Files)),
		zap.Int("diagnostics", errs.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// reportDiags prints diagnostics to w and returns an error when any were
// produced, so commands exit non-zero per spec.md §6.
func reportDiags(w interface{ Write([]byte) (int, error) }, errs *diag.List) error {
	for _, d := range errs.Items() {
		fmt.Fprintf(w, "%s\n", d.Error())
	}
	return errs.Err()
}

package maincmd

import (
	"context"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/gib/lang/diag"
	"github.com/mna/gib/lang/lsp"
	"github.com/mna/gib/lang/parser"
	"github.com/mna/gib/lang/token"
)

// Fmt normalizes a source file in place: it must parse first (a file with
// syntax errors is left untouched), then trailing whitespace and the
// final newline are canonicalized. The same normalization backs the
// language server's textDocument/formatting.
func (c *Cmd) Fmt(ctx context.Context, stdio mainer.Stdio, args []string) error {
	for _, path := range args {
		src, err := os.ReadFile(path)
		if err != nil {
			return printError(stdio, err)
		}
		fset := token.NewFileSet()
		file := fset.AddFile(path, len(src))
		errs := &diag.List{}
		parser.ParseFile(file, src, errs)
		if err := reportDiags(stdio.Stderr, errs); err != nil {
			return err
		}
		formatted := lsp.Format(string(src))
		if formatted == string(src) {
			continue
		}
		if err := os.WriteFile(path, []byte(formatted), 0o644); err != nil {
			return printError(stdio, err)
		}
	}
	return nil
}

package maincmd

import (
	"context"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/gib/lang/ast"
	"github.com/mna/gib/lang/diag"
	"github.com/mna/gib/lang/parser"
	"github.com/mna/gib/lang/token"
)

func (c *Cmd) Parse(ctx context.Context, stdio mainer.Stdio, args []string) error {
	for _, path := range args {
		src, err := os.ReadFile(path)
		if err != nil {
			return printError(stdio, err)
		}
		fset := token.NewFileSet()
		file := fset.AddFile(path, len(src))
		errs := &diag.List{}
		astFile := parser.ParseFile(file, src, errs)
		ast.Fprint(stdio.Stdout, astFile)
		if err := reportDiags(stdio.Stderr, errs); err != nil {
			return err
		}
	}
	return nil
}

package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/gib/lang/diag"
	"github.com/mna/gib/lang/scanner"
	"github.com/mna/gib/lang/token"
)

func (c *Cmd) Lex(ctx context.Context, stdio mainer.Stdio, args []string) error {
	for _, path := range args {
		src, err := os.ReadFile(path)
		if err != nil {
			return printError(stdio, err)
		}
		fset := token.NewFileSet()
		file := fset.AddFile(path, len(src))
		errs := &diag.List{}
		for _, tv := range scanner.ScanAll(file, src, errs) {
			fmt.Fprintf(stdio.Stdout, "%s: %s", file.Position(tv.Pos), tv.Tok)
			switch tv.Tok {
			case token.IDENT, token.INT, token.FLOAT, token.STRING, token.CHAR:
				fmt.Fprintf(stdio.Stdout, " %s", tv.Raw)
			}
			fmt.Fprintln(stdio.Stdout)
		}
		if err := reportDiags(stdio.Stderr, errs); err != nil {
			return err
		}
	}
	return nil
}

package maincmd

import (
	"context"
	"errors"

	"github.com/mna/mainer"

	"github.com/mna/gib/lang/compiler"
	"github.com/mna/gib/lang/dap"
)

func (c *Cmd) Dap(ctx context.Context, stdio mainer.Stdio, args []string) error {
	res, err := c.compilePath(args[0])
	if err != nil {
		return printError(stdio, err)
	}
	if err := reportDiags(stdio.Stderr, res.errs); err != nil {
		return err
	}
	entry, ok := compiler.EntryFunc(res.proj.Store)
	if !ok {
		return printError(stdio, errors.New("no main function"))
	}
	a := dap.New(res.prog, entry, stdio.Stdin, stdio.Stdout, c.log)
	if err := a.Serve(ctx); err != nil {
		return printError(stdio, err)
	}
	return nil
}

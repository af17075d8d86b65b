package maincmd

import (
	"context"
	"errors"

	"github.com/mna/mainer"

	"github.com/mna/gib/lang/compiler"
	"github.com/mna/gib/lang/machine"
)

func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	res, err := c.compilePath(path)
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
	limits, err := machine.LimitsFromEnv()
	if err != nil {
		return printError(stdio, err)
	}
	m := machine.New(res.prog,
		machine.WithStdout(stdio.Stdout),
		machine.WithLimits(limits),
		machine.WithLogger(c.log),
	)
	if _, err := m.Run(ctx, entry); err != nil {
		return printError(stdio, err)
	}
	return nil
}

package maincmd

import (
	"context"

	"github.com/mna/mainer"

	"github.com/mna/gib/lang/lsp"
)

func (c *Cmd) Lsp(ctx context.Context, stdio mainer.Stdio, args []string) error {
	srv := lsp.NewServer(stdio.Stdin, stdio.Stdout, c.log)
	if err := srv.Serve(); err != nil {
		return printError(stdio, err)
	}
	return nil
}

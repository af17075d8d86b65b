package maincmd

import (
	"context"
	"os"
	"strings"

	"github.com/mna/mainer"

	"github.com/mna/gib/lang/bytecode"
)

func (c *Cmd) Build(ctx context.Context, stdio mainer.Stdio, args []string) error {
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

	out := c.Output
	if out == "" {
		name := "out"
		if res.manifest != nil && res.manifest.Module != "" {
			name = res.manifest.Module
		}
		out = name + ".gibc"
	}
	f, err := os.Create(out)
	if err != nil {
		return printError(stdio, err)
	}
	defer f.Close()
	if err := bytecode.Encode(f, res.prog); err != nil {
		return printError(stdio, err)
	}

	if c.Text {
		tf, err := os.Create(strings.TrimSuffix(out, ".gibc") + ".gibt")
		if err != nil {
			return printError(stdio, err)
		}
		defer tf.Close()
		if err := bytecode.Format(tf, res.prog); err != nil {
			return printError(stdio, err)
		}
	}
	return nil
}

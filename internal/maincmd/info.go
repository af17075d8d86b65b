package maincmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/mna/mainer"

	"github.com/mna/gib/lang/decl"
	"github.com/mna/gib/lang/source"
)

func (c *Cmd) Info(ctx context.Context, stdio mainer.Stdio, args []string) error {
	kind := args[0]
	path := "."
	if len(args) > 1 {
		path = args[1]
	}
	switch kind {
	case "module-tree":
		res, err := c.compilePath(path)
		if err != nil {
			return printError(stdio, err)
		}
		printModuleTree(stdio, res, decl.Root, 0)
		return nil
	case "file-tree":
		root, _, err := sourceRoot(path)
		if err != nil {
			return printError(stdio, err)
		}
		return source.Walk(root, func(n *source.Node) bool {
			depth := strings.Count(n.Path(), "/")
			fmt.Fprintf(stdio.Stdout, "%s%s\n", strings.Repeat("  ", depth), n.Name())
			return true
		})
	default:
		return printError(stdio, fmt.Errorf("info: unknown kind %q (want module-tree or file-tree)", kind))
	}
}

// printModuleTree lists the declaration tree below p, one name per line,
// nested by indentation. The std prelude is omitted: it is the same in
// every project.
func printModuleTree(stdio mainer.Stdio, res *buildResult, p decl.Path, depth int) {
	for _, d := range res.proj.Store.Children(p) {
		if d.Path == decl.NewPath("std") {
			continue
		}
		fmt.Fprintf(stdio.Stdout, "%s%s %s\n", strings.Repeat("  ", depth), d.Kind, d.Name)
		printModuleTree(stdio, res, d.Path, depth+1)
	}
}

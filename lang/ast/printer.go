package ast

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes a one-line-per-node indented dump of the tree rooted at n,
// the format the `parse` CLI command prints (spec.md §6). It is
// intentionally minimal: full pretty-printing/formatting is out of scope
// (spec.md §1).
func Fprint(w io.Writer, n Node) {
	p := &printer{w: w}
	p.print(n, 0)
}

type printer struct {
	w io.Writer
}

func (p *printer) print(n Node, depth int) {
	if n == nil {
		return
	}
	fmt.Fprintf(p.w, "%s%s\n", strings.Repeat("  ", depth), describe(n))
	Walk(VisitorFunc(func(child Node) bool {
		if child == n {
			return true
		}
		p.print(child, depth+1)
		return false
	}), n)
}

func describe(n Node) string {
	switch v := n.(type) {
	case *Ident:
		return "Ident " + strings.Join(v.Path, "::")
	case *IntLit:
		return fmt.Sprintf("IntLit %d", v.Value)
	case *FloatLit:
		return fmt.Sprintf("FloatLit %v", v.Value)
	case *StringLit:
		return fmt.Sprintf("StringLit %q", v.Value)
	case *BoolLit:
		return fmt.Sprintf("BoolLit %v", v.Value)
	case *StructDecl:
		return "StructDecl " + v.Name
	case *EnumDecl:
		return "EnumDecl " + v.Name
	case *TraitDecl:
		return "TraitDecl " + v.Name
	case *ImplDecl:
		return "ImplDecl"
	case *FuncDecl:
		return "FuncDecl " + v.Name
	default:
		return fmt.Sprintf("%T", n)
	}
}

package parser

import (
	"github.com/mna/gib/lang/ast"
	"github.com/mna/gib/lang/token"
)

func (p *parser) parseTypeExpr() ast.TypeExpr {
	switch {
	case p.at(token.UNDERSCORE):
		start := p.cur.Pos
		p.next()
		return &ast.WildcardTypeExpr{Start: start, End: p.cur.Pos}
	case p.at(token.LPAREN):
		start := p.cur.Pos
		p.next()
		var elems []ast.TypeExpr
		for !p.at(token.RPAREN) {
			elems = append(elems, p.parseTypeExpr())
			if !p.accept(token.COMMA) {
				break
			}
		}
		end := p.expect(token.RPAREN)
		return &ast.TupleTypeExpr{Start: start, Elems: elems, End: end}
	case p.at(token.FN):
		return p.parseFuncTypeExpr()
	default:
		return p.parseNamedTypeExpr()
	}
}

func (p *parser) parseFuncTypeExpr() *ast.FuncTypeExpr {
	start := p.expect(token.FN)
	p.expect(token.LPAREN)
	var recv ast.TypeExpr
	var args []ast.TypeExpr
	first := true
	for !p.at(token.RPAREN) {
		if first && p.at(token.SELF) {
			rstart := p.cur.Pos
			p.next()
			recv = &ast.NamedTypeExpr{Start: rstart, Path: []string{"Self"}, End: p.cur.Pos}
		} else {
			args = append(args, p.parseTypeExpr())
		}
		first = false
		if !p.accept(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)
	var ret ast.TypeExpr
	if p.accept(token.ARROW) {
		ret = p.parseTypeExpr()
	}
	return &ast.FuncTypeExpr{Start: start, Receiver: recv, Args: args, Ret: ret, End: p.cur.Pos}
}

func (p *parser) parseNamedTypeExpr() *ast.NamedTypeExpr {
	start := p.cur.Pos
	path := []string{p.parseIdentName()}
	for p.accept(token.COLONCOLON) {
		path = append(path, p.parseIdentName())
	}
	var args []ast.TypeExpr
	if p.accept(token.LBRACK) {
		for !p.at(token.RBRACK) {
			args = append(args, p.parseTypeExpr())
			if !p.accept(token.COMMA) {
				break
			}
		}
		p.expect(token.RBRACK)
	}
	return &ast.NamedTypeExpr{Start: start, Path: path, Args: args, End: p.cur.Pos}
}

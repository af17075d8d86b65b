package parser

import (
	"github.com/mna/gib/lang/ast"
	"github.com/mna/gib/lang/token"
)

func (p *parser) parsePattern() ast.Pattern {
	switch {
	case p.at(token.UNDERSCORE):
		start := p.cur.Pos
		p.next()
		return &ast.WildcardPattern{Start: start, End: p.cur.Pos}

	case p.at(token.LPAREN):
		start := p.cur.Pos
		p.next()
		var elems []ast.Pattern
		for !p.at(token.RPAREN) {
			elems = append(elems, p.parsePattern())
			if !p.accept(token.COMMA) {
				break
			}
		}
		end := p.expect(token.RPAREN)
		return &ast.TuplePattern{Start: start, Elems: elems, End: end}

	case p.at(token.INT), p.at(token.FLOAT), p.at(token.STRING), p.at(token.CHAR), p.at(token.TRUE), p.at(token.FALSE), p.at(token.MINUS):
		return p.parseLiteralPattern()

	default:
		return p.parseIdentOrStructPattern()
	}
}

func (p *parser) parseLiteralPattern() *ast.LiteralPattern {
	start := p.cur.Pos
	lit := p.parseLiteralExpr()
	return &ast.LiteralPattern{Start: start, Lit: lit, End: p.cur.Pos}
}

func (p *parser) parseIdentOrStructPattern() ast.Pattern {
	start := p.cur.Pos
	path := []string{p.parseIdentName()}
	for p.accept(token.COLONCOLON) {
		path = append(path, p.parseIdentName())
	}

	if p.at(token.LPAREN) {
		p.next()
		var elems []ast.Pattern
		for !p.at(token.RPAREN) {
			elems = append(elems, p.parsePattern())
			if !p.accept(token.COMMA) {
				break
			}
		}
		end := p.expect(token.RPAREN)
		return &ast.StructPattern{Start: start, Path: path, Tuple: elems, End: end}
	}

	if p.at(token.LBRACE) {
		p.next()
		var fields []*ast.StructFieldPattern
		for !p.at(token.RBRACE) {
			name := p.parseIdentName()
			var pat ast.Pattern
			if p.accept(token.COLON) {
				pat = p.parsePattern()
			} else {
				pat = &ast.BindPattern{Start: p.cur.Pos, Name: name, End: p.cur.Pos}
			}
			fields = append(fields, &ast.StructFieldPattern{Name: name, Pattern: pat})
			if !p.accept(token.COMMA) {
				break
			}
		}
		end := p.expect(token.RBRACE)
		return &ast.StructPattern{Start: start, Path: path, Fields: fields, End: end}
	}

	if len(path) == 1 && !startsUpper(path[0]) {
		// A bare lowercase identifier with no path/call/brace suffix is a
		// binding; an uppercase one names a unit struct/variant to match.
		var ty ast.TypeExpr
		if p.accept(token.COLON) {
			ty = p.parseTypeExpr()
		}
		return &ast.BindPattern{Start: start, Name: path[0], Type: ty, End: p.cur.Pos}
	}
	return &ast.StructPattern{Start: start, Path: path, End: p.cur.Pos}
}

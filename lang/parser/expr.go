package parser

import (
	"github.com/mna/gib/lang/ast"
	"github.com/mna/gib/lang/token"
)

func (p *parser) parseExpr() ast.Expr { return p.parseBinaryExpr(1) }

func (p *parser) parseBinaryExpr(minPrec int) ast.Expr {
	lhs := p.parseUnaryExpr()
	for {
		prec := p.cur.Tok.Precedence()
		if prec == 0 || prec < minPrec {
			return lhs
		}
		op := p.cur.Tok
		p.next()
		rhs := p.parseBinaryExpr(prec + 1)
		start, _ := lhs.Span()
		_, end := rhs.Span()
		lhs = &ast.BinaryExpr{Start: start, Op: op, Lhs: lhs, Rhs: rhs, End: end}
	}
}

func (p *parser) parseUnaryExpr() ast.Expr {
	switch p.cur.Tok {
	case token.MINUS, token.BANG:
		start := p.cur.Pos
		op := p.cur.Tok
		p.next()
		operand := p.parseUnaryExpr()
		_, end := operand.Span()
		return &ast.UnaryExpr{Start: start, Op: op, Operand: operand, End: end}
	default:
		return p.parsePostfixExpr()
	}
}

func (p *parser) parsePostfixExpr() ast.Expr {
	e := p.parsePrimaryExpr()
	for {
		switch {
		case p.at(token.DOT):
			p.next()
			name := p.parseIdentName()
			if p.at(token.LPAREN) {
				args := p.parseCallArgs()
				e = &ast.MemberExpr{Start: mustStart(e), Recv: e, Method: name, Args: args, End: p.cur.Pos}
			} else {
				e = &ast.FieldExpr{Start: mustStart(e), Recv: e, Name: name, End: p.cur.Pos}
			}
		case p.at(token.LPAREN):
			args := p.parseCallArgs()
			e = &ast.CallExpr{Start: mustStart(e), Callee: e, Args: args, End: p.cur.Pos}
		default:
			return e
		}
	}
}

func mustStart(n ast.Node) token.Pos {
	s, _ := n.Span()
	return s
}

func (p *parser) parseCallArgs() []ast.Expr {
	p.expect(token.LPAREN)
	var args []ast.Expr
	for !p.at(token.RPAREN) {
		args = append(args, p.parseExpr())
		if !p.accept(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)
	return args
}

func (p *parser) parseLiteralExpr() ast.Expr {
	start := p.cur.Pos
	switch p.cur.Tok {
	case token.INT:
		v := p.cur.Int
		p.next()
		return &ast.IntLit{Start: start, Value: v, End: p.cur.Pos}
	case token.FLOAT:
		v := p.cur.Float
		p.next()
		return &ast.FloatLit{Start: start, Value: v, End: p.cur.Pos}
	case token.STRING:
		v := p.cur.Raw
		p.next()
		return &ast.StringLit{Start: start, Value: v, End: p.cur.Pos}
	case token.CHAR:
		v := rune(p.cur.Int)
		p.next()
		return &ast.CharLit{Start: start, Value: v, End: p.cur.Pos}
	case token.TRUE, token.FALSE:
		v := p.cur.Tok == token.TRUE
		p.next()
		return &ast.BoolLit{Start: start, Value: v, End: p.cur.Pos}
	case token.MINUS:
		p.next()
		inner := p.parseLiteralExpr()
		switch v := inner.(type) {
		case *ast.IntLit:
			v.Value = -v.Value
			v.Start = start
		case *ast.FloatLit:
			v.Value = -v.Value
			v.Start = start
		}
		return inner
	default:
		p.errorf("expected a literal, found %s", p.cur.Tok.GoString())
		panic(parseAbort{})
	}
}

func (p *parser) parsePrimaryExpr() ast.Expr {
	switch p.cur.Tok {
	case token.INT, token.FLOAT, token.STRING, token.CHAR, token.TRUE, token.FALSE:
		return p.parseLiteralExpr()
	case token.LPAREN:
		return p.parseTupleOrParenExpr()
	case token.PIPE:
		return p.parseLambdaExpr()
	case token.IF:
		return p.parseIfExpr()
	case token.MATCH:
		return p.parseMatchExpr()
	case token.LBRACE:
		return p.parseBlockExpr()
	case token.IDENT, token.SELF:
		return p.parseIdentOrConstructExpr()
	default:
		p.errorf("unexpected token %s in expression", p.cur.Tok.GoString())
		panic(parseAbort{})
	}
}

func (p *parser) parseTupleOrParenExpr() ast.Expr {
	start := p.cur.Pos
	p.next()
	if p.accept(token.RPAREN) {
		return &ast.TupleExpr{Start: start, End: p.cur.Pos}
	}
	first := p.parseExpr()
	if p.accept(token.RPAREN) {
		return first
	}
	elems := []ast.Expr{first}
	for p.accept(token.COMMA) {
		if p.at(token.RPAREN) {
			break
		}
		elems = append(elems, p.parseExpr())
	}
	end := p.expect(token.RPAREN)
	return &ast.TupleExpr{Start: start, Elems: elems, End: end}
}

func (p *parser) parseLambdaExpr() *ast.LambdaExpr {
	start := p.expect(token.PIPE)
	var args []*ast.Arg
	for !p.at(token.PIPE) {
		astart := p.cur.Pos
		name := p.parseIdentName()
		var ty ast.TypeExpr
		if p.accept(token.COLON) {
			ty = p.parseTypeExpr()
		}
		args = append(args, &ast.Arg{Start: astart, Name: name, Type: ty, End: p.cur.Pos})
		if !p.accept(token.COMMA) {
			break
		}
	}
	p.expect(token.PIPE)
	var ret ast.TypeExpr
	if p.accept(token.ARROW) {
		ret = p.parseTypeExpr()
	}
	var body *ast.BlockExpr
	if p.at(token.LBRACE) {
		body = p.parseBlockExpr()
	} else {
		e := p.parseExpr()
		s, end := e.Span()
		body = &ast.BlockExpr{Start: s, Stmts: []ast.Stmt{&ast.ExprStmt{X: e}}, End: end}
	}
	return &ast.LambdaExpr{Start: start, Args: args, Ret: ret, Body: body, End: p.cur.Pos}
}

func (p *parser) parseCondition() ast.Condition {
	if p.accept(token.LET) {
		pat := p.parsePattern()
		p.expect(token.EQ)
		init := p.parseExpr()
		return ast.Condition{Pattern: pat, Init: init}
	}
	return ast.Condition{Expr: p.parseExpr()}
}

func (p *parser) parseIfExpr() *ast.IfExpr {
	start := p.expect(token.IF)
	ie := &ast.IfExpr{Start: start}
	cond := p.parseCondition()
	body := p.parseBlockExpr()
	ie.Branches = append(ie.Branches, ast.IfBranch{Cond: cond, Body: body})
	for p.at(token.ELSE) {
		p.next()
		if p.accept(token.IF) {
			cond := p.parseCondition()
			body := p.parseBlockExpr()
			ie.Branches = append(ie.Branches, ast.IfBranch{Cond: cond, Body: body})
			continue
		}
		ie.Else = p.parseBlockExpr()
		break
	}
	ie.End = p.cur.Pos
	return ie
}

func (p *parser) parseMatchExpr() *ast.MatchExpr {
	start := p.expect(token.MATCH)
	scrutinee := p.parseExpr()
	p.expect(token.LBRACE)
	var arms []*ast.MatchArm
	for !p.at(token.RBRACE) {
		astart := p.cur.Pos
		pat := p.parsePattern()
		var guard ast.Expr
		if p.accept(token.IF) {
			guard = p.parseExpr()
		}
		p.expect(token.FATARROW)
		body := p.parseExpr()
		arms = append(arms, &ast.MatchArm{Start: astart, Pattern: pat, Guard: guard, Body: body, End: p.cur.Pos})
		if !p.accept(token.COMMA) {
			break
		}
	}
	end := p.expect(token.RBRACE)
	return &ast.MatchExpr{Start: start, Scrutinee: scrutinee, Arms: arms, End: end}
}

func (p *parser) parseBlockExpr() *ast.BlockExpr {
	start := p.expect(token.LBRACE)
	var stmts []ast.Stmt
	for !p.at(token.RBRACE) {
		stmts = append(stmts, p.parseStmt())
	}
	end := p.expect(token.RBRACE)
	return &ast.BlockExpr{Start: start, Stmts: stmts, End: end}
}

// parseIdentOrConstructExpr parses an identifier/path, then disambiguates
// a following `{ ... }` as a struct-literal ConstructExpr (e.g.
// `Pair { a: 1, b: 2 }`) versus a plain path reference.
func (p *parser) parseIdentOrConstructExpr() ast.Expr {
	start := p.cur.Pos
	var path []string
	if p.at(token.SELF) {
		path = append(path, "self")
		p.next()
	} else {
		path = append(path, p.parseIdentName())
	}
	for p.at(token.COLONCOLON) {
		p.next()
		path = append(path, p.parseIdentName())
	}
	// the brace opens a struct literal only when it is empty or its first
	// entry is `name:`; otherwise (e.g. `match None { ... }`) it starts the
	// block that follows a plain path
	lit := p.pos < len(p.toks) && (p.toks[p.pos].Tok == token.RBRACE ||
		(p.toks[p.pos].Tok == token.IDENT && p.pos+1 < len(p.toks) && p.toks[p.pos+1].Tok == token.COLON))
	if p.at(token.LBRACE) && lit && len(path) > 0 && startsUpper(path[len(path)-1]) {
		p.next()
		var fields []*ast.ConstructField
		for !p.at(token.RBRACE) {
			name := p.parseIdentName()
			p.expect(token.COLON)
			val := p.parseExpr()
			fields = append(fields, &ast.ConstructField{Name: name, Value: val})
			if !p.accept(token.COMMA) {
				break
			}
		}
		end := p.expect(token.RBRACE)
		return &ast.ConstructExpr{Start: start, Path: path, Fields: fields, End: end}
	}
	return &ast.Ident{Start: start, Path: path, End: p.cur.Pos}
}

func startsUpper(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return c >= 'A' && c <= 'Z'
}

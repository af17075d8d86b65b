package parser

import (
	"github.com/mna/gib/lang/ast"
	"github.com/mna/gib/lang/token"
)

func (p *parser) parseStmt() ast.Stmt {
	switch p.cur.Tok {
	case token.LET:
		return p.parseLetStmt()
	case token.WHILE:
		return p.parseWhileStmt()
	case token.FOR:
		return p.parseForStmt()
	case token.BREAK:
		start := p.cur.Pos
		p.next()
		end := p.cur.Pos
		p.accept(token.SEMI)
		return &ast.BreakStmt{Start: start, End: end}
	case token.CONTINUE:
		start := p.cur.Pos
		p.next()
		end := p.cur.Pos
		p.accept(token.SEMI)
		return &ast.ContinueStmt{Start: start, End: end}
	case token.RETURN:
		start := p.cur.Pos
		p.next()
		var result ast.Expr
		if !p.at(token.SEMI) && !p.at(token.RBRACE) {
			result = p.parseExpr()
		}
		end := p.cur.Pos
		p.accept(token.SEMI)
		return &ast.ReturnStmt{Start: start, Result: result, End: end}
	default:
		return p.parseExprOrAssignStmt()
	}
}

func (p *parser) parseLetStmt() *ast.LetStmt {
	start := p.expect(token.LET)
	p.accept(token.MUT)
	pat := p.parsePattern()
	var ty ast.TypeExpr
	if p.accept(token.COLON) {
		ty = p.parseTypeExpr()
	}
	if bp, ok := pat.(*ast.BindPattern); ok && ty == nil && bp.Type != nil {
		// a lowercase binding already consumed `: Type`; the annotation
		// belongs to the let statement itself
		ty, bp.Type = bp.Type, nil
	}
	p.expect(token.EQ)
	init := p.parseExpr()
	end := p.cur.Pos
	p.accept(token.SEMI)
	return &ast.LetStmt{Start: start, Pattern: pat, Type: ty, Init: init, End: end}
}

func (p *parser) parseWhileStmt() *ast.WhileStmt {
	start := p.expect(token.WHILE)
	cond := p.parseCondition()
	body := p.parseBlockExpr()
	return &ast.WhileStmt{Start: start, Cond: cond, Body: body, End: p.cur.Pos}
}

// parseForStmt parses a three-part C-style for loop. Per SPEC_FULL.md
// §H it lowers as sugar over a While node during control-flow building,
// not here; the parser just records its three clauses.
func (p *parser) parseForStmt() *ast.ForStmt {
	start := p.expect(token.FOR)
	p.expect(token.LPAREN)
	var init ast.Stmt
	if !p.at(token.SEMI) {
		init = p.parseSimpleStmt()
	}
	p.expect(token.SEMI)
	var cond ast.Expr
	if !p.at(token.SEMI) {
		cond = p.parseExpr()
	}
	p.expect(token.SEMI)
	var post ast.Stmt
	if !p.at(token.RPAREN) {
		post = p.parseSimpleStmt()
	}
	p.expect(token.RPAREN)
	body := p.parseBlockExpr()
	return &ast.ForStmt{Start: start, Init: init, Cond: cond, Post: post, Body: body, End: p.cur.Pos}
}

// parseSimpleStmt parses the init/post clauses of a for loop: either a
// let-binding or an assignment/expression, without a trailing semicolon
// (the caller consumes the clause separator).
func (p *parser) parseSimpleStmt() ast.Stmt {
	if p.at(token.LET) {
		start := p.expect(token.LET)
		p.accept(token.MUT)
		pat := p.parsePattern()
		var ty ast.TypeExpr
		if p.accept(token.COLON) {
			ty = p.parseTypeExpr()
		}
		if bp, ok := pat.(*ast.BindPattern); ok && ty == nil && bp.Type != nil {
			ty, bp.Type = bp.Type, nil
		}
		p.expect(token.EQ)
		init := p.parseExpr()
		return &ast.LetStmt{Start: start, Pattern: pat, Type: ty, Init: init, End: p.cur.Pos}
	}
	return p.parseExprOrAssign()
}

func (p *parser) parseExprOrAssignStmt() ast.Stmt {
	s := p.parseExprOrAssign()
	if es, ok := s.(*ast.ExprStmt); ok {
		es.Semi = p.accept(token.SEMI)
		return es
	}
	p.accept(token.SEMI)
	return s
}

func (p *parser) parseExprOrAssign() ast.Stmt {
	e := p.parseExpr()
	if p.at(token.EQ) {
		start := mustStart(e)
		p.next()
		rhs := p.parseExpr()
		_, end := rhs.Span()
		return &ast.AssignStmt{Start: start, Lhs: e, Rhs: rhs, End: end}
	}
	return &ast.ExprStmt{X: e}
}

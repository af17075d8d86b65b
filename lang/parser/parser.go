// Package parser implements a recursive-descent parser producing a
// lang/ast tree from a token stream. Like lang/scanner, this is a
// mechanical collaborator of the core per spec.md §1.
package parser

import (
	"fmt"

	"github.com/mna/gib/lang/ast"
	"github.com/mna/gib/lang/diag"
	"github.com/mna/gib/lang/scanner"
	"github.com/mna/gib/lang/token"
)

// ParseFile scans and parses one source file into an *ast.File. Parse
// errors are accumulated in errs and do not stop parsing outright: the
// parser resynchronizes at the next top-level declaration, following the
// teacher's panic/recover-per-statement idiom.
func ParseFile(file *token.File, src []byte, errs *diag.List) *ast.File {
	p := &parser{file: file, errs: errs}
	p.toks = scanner.ScanAll(file, src, errs)
	p.next()
	return p.parseFile()
}

type parseAbort struct{}

type parser struct {
	file *token.File
	errs *diag.List
	toks []scanner.TokenValue
	pos  int // index in toks of the token after cur
	cur  scanner.TokenValue
}

func (p *parser) next() {
	if p.pos < len(p.toks) {
		p.cur = p.toks[p.pos]
		p.pos++
	}
}

func (p *parser) at(tok token.Token) bool { return p.cur.Tok == tok }

func (p *parser) accept(tok token.Token) bool {
	if p.at(tok) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(tok token.Token) token.Pos {
	pos := p.cur.Pos
	if !p.accept(tok) {
		p.errorf("expected %s, found %s", tok.GoString(), p.cur.Tok.GoString())
		panic(parseAbort{})
	}
	return pos
}

func (p *parser) errorf(format string, args ...interface{}) {
	p.errs.Add(&diag.Diagnostic{
		Kind:    diag.Syntax,
		File:    p.file.Name(),
		Span:    token.Span{Start: p.cur.Pos, End: p.cur.Pos},
		Pos:     p.file.Position(p.cur.Pos),
		Message: fmt.Sprintf(format, args...),
	})
}

// resync skips tokens until a likely top-level declaration start, after a
// parseAbort panic was recovered.
func (p *parser) resyncTop() {
	for !p.at(token.EOF) {
		switch p.cur.Tok {
		case token.STRUCT, token.ENUM, token.TRAIT, token.IMPL, token.FN, token.USE, token.MOD:
			return
		}
		p.next()
	}
}

func (p *parser) parseFile() *ast.File {
	f := &ast.File{}
	for !p.at(token.EOF) {
		if p.at(token.USE) {
			f.Uses = append(f.Uses, p.parseUseSafe())
			continue
		}
		d := p.parseTopDeclSafe()
		if d != nil {
			f.Decls = append(f.Decls, d)
		}
	}
	f.EOF = p.cur.Pos
	return f
}

func (p *parser) parseUseSafe() (u *ast.UseDecl) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(parseAbort); !ok {
				panic(r)
			}
			p.resyncTop()
		}
	}()
	return p.parseUse()
}

func (p *parser) parseUse() *ast.UseDecl {
	start := p.expect(token.USE)
	u := &ast.UseDecl{Start: start}
	u.Path = append(u.Path, p.parseIdentName())
	for p.accept(token.COLONCOLON) {
		u.Path = append(u.Path, p.parseIdentName())
	}
	u.End = p.cur.Pos
	p.accept(token.SEMI)
	return u
}

func (p *parser) parseIdentName() string {
	if p.at(token.IDENT) {
		name := p.cur.Raw
		p.next()
		return name
	}
	p.errorf("expected identifier, found %s", p.cur.Tok.GoString())
	panic(parseAbort{})
}

func (p *parser) parseTopDeclSafe() (d ast.TopDecl) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(parseAbort); !ok {
				panic(r)
			}
			p.resyncTop()
			d = nil
		}
	}()
	return p.parseTopDecl()
}

func (p *parser) parseTopDecl() ast.TopDecl {
	switch p.cur.Tok {
	case token.STRUCT:
		return p.parseStructDecl()
	case token.ENUM:
		return p.parseEnumDecl()
	case token.TRAIT:
		return p.parseTraitDecl()
	case token.IMPL:
		return p.parseImplDecl()
	case token.FN:
		return p.parseFuncDecl(false)
	case token.MOD:
		return p.parseModDecl()
	default:
		p.errorf("expected a top-level declaration, found %s", p.cur.Tok.GoString())
		panic(parseAbort{})
	}
}

func (p *parser) parseGenerics() []*ast.Generic {
	if !p.accept(token.LBRACK) {
		return nil
	}
	var gens []*ast.Generic
	for !p.at(token.RBRACK) {
		start := p.cur.Pos
		variance := ast.Invariant
		if p.cur.Tok == token.IDENT && p.cur.Raw == "out" {
			variance = ast.Covariant
			p.next()
		} else if p.cur.Tok == token.IN {
			variance = ast.Contravariant
			p.next()
		}
		name := p.parseIdentName()
		var super ast.TypeExpr
		if p.accept(token.COLON) {
			super = p.parseTypeExpr()
		}
		gens = append(gens, &ast.Generic{Start: start, Name: name, Variance: variance, Super: super, End: p.cur.Pos})
		if !p.accept(token.COMMA) {
			break
		}
	}
	p.expect(token.RBRACK)
	return gens
}

func (p *parser) parseStructBody() ast.StructBody {
	switch {
	case p.at(token.LPAREN):
		p.next()
		var body ast.StructBody
		for !p.at(token.RPAREN) {
			body.Tuple = append(body.Tuple, p.parseTypeExpr())
			if !p.accept(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN)
		return body
	case p.at(token.LBRACE):
		p.next()
		var body ast.StructBody
		for !p.at(token.RBRACE) {
			start := p.cur.Pos
			name := p.parseIdentName()
			p.expect(token.COLON)
			ty := p.parseTypeExpr()
			body.Fields = append(body.Fields, &ast.Field{Start: start, Name: name, Type: ty, End: p.cur.Pos})
			if !p.accept(token.COMMA) {
				break
			}
		}
		p.expect(token.RBRACE)
		return body
	default:
		return ast.StructBody{}
	}
}

func (p *parser) parseStructDecl() *ast.StructDecl {
	start := p.expect(token.STRUCT)
	name := p.parseIdentName()
	gens := p.parseGenerics()
	body := p.parseStructBody()
	end := p.cur.Pos
	p.accept(token.SEMI)
	return &ast.StructDecl{Start: start, Name: name, Generics: gens, Body: body, End: end}
}

func (p *parser) parseEnumDecl() *ast.EnumDecl {
	start := p.expect(token.ENUM)
	name := p.parseIdentName()
	gens := p.parseGenerics()
	p.expect(token.LBRACE)
	var variants []*ast.EnumVariant
	for !p.at(token.RBRACE) {
		vstart := p.cur.Pos
		vname := p.parseIdentName()
		body := p.parseStructBody()
		variants = append(variants, &ast.EnumVariant{Start: vstart, Name: vname, Body: body, End: p.cur.Pos})
		if !p.accept(token.COMMA) {
			break
		}
	}
	end := p.expect(token.RBRACE)
	return &ast.EnumDecl{Start: start, Name: name, Generics: gens, Variants: variants, End: end}
}

func (p *parser) parseTraitDecl() *ast.TraitDecl {
	start := p.expect(token.TRAIT)
	name := p.parseIdentName()
	gens := p.parseGenerics()
	p.expect(token.LBRACE)
	var funcs []*ast.FuncDecl
	for !p.at(token.RBRACE) {
		funcs = append(funcs, p.parseFuncDecl(true))
	}
	end := p.expect(token.RBRACE)
	return &ast.TraitDecl{Start: start, Name: name, Generics: gens, Funcs: funcs, End: end}
}

func (p *parser) parseImplDecl() *ast.ImplDecl {
	start := p.expect(token.IMPL)
	gens := p.parseGenerics()
	fromTy := p.parseTypeExpr()
	var toTy ast.TypeExpr
	if p.accept(token.FOR) {
		toTy = fromTy
		fromTy = p.parseTypeExpr()
	}
	p.expect(token.LBRACE)
	var funcs []*ast.FuncDecl
	for !p.at(token.RBRACE) {
		funcs = append(funcs, p.parseFuncDecl(false))
	}
	end := p.expect(token.RBRACE)
	return &ast.ImplDecl{Start: start, Generics: gens, FromTy: fromTy, ToTy: toTy, Funcs: funcs, End: end}
}

func (p *parser) parseModDecl() *ast.ModDecl {
	start := p.expect(token.MOD)
	name := p.parseIdentName()
	p.expect(token.LBRACE)
	var decls []ast.TopDecl
	for !p.at(token.RBRACE) {
		d := p.parseTopDeclSafe()
		if d != nil {
			decls = append(decls, d)
		}
	}
	end := p.expect(token.RBRACE)
	return &ast.ModDecl{Start: start, Name: name, Decls: decls, End: end}
}

func (p *parser) parseFuncDecl(inTrait bool) *ast.FuncDecl {
	start := p.expect(token.FN)
	name := p.parseIdentName()
	gens := p.parseGenerics()
	p.expect(token.LPAREN)
	var recv ast.TypeExpr
	var args []*ast.Arg
	first := true
	for !p.at(token.RPAREN) {
		if first && p.at(token.SELF) {
			rstart := p.cur.Pos
			p.next()
			recv = &ast.NamedTypeExpr{Start: rstart, Path: []string{"Self"}, End: p.cur.Pos}
			first = false
			if !p.accept(token.COMMA) {
				break
			}
			continue
		}
		first = false
		astart := p.cur.Pos
		aname := p.parseIdentName()
		p.expect(token.COLON)
		aty := p.parseTypeExpr()
		args = append(args, &ast.Arg{Start: astart, Name: aname, Type: aty, End: p.cur.Pos})
		if !p.accept(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)
	var ret ast.TypeExpr
	if p.accept(token.COLON) {
		ret = p.parseTypeExpr()
	}
	fd := &ast.FuncDecl{Start: start, Name: name, Generics: gens, Receiver: recv, Args: args, Ret: ret, Virtual: inTrait}
	if inTrait && p.accept(token.SEMI) {
		fd.Required = true
		fd.End = p.cur.Pos
		return fd
	}
	fd.Body = p.parseBlockExpr()
	fd.End = p.cur.Pos
	return fd
}

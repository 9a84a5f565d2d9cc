package parser

import (
	"fmt"

	"quill-lang/internal/ast"
	"quill-lang/internal/token"
)

// parseClassDecl parses: class Name [extends Base] members end
func (p *Parser) parseClassDecl() ast.Stmt {
	start := p.advance() // 'class'
	decl := &ast.ClassDecl{}

	nameTok, ok := p.expect(token.IDENT)
	if !ok {
		p.synchronize()
		return nil
	}
	decl.Name = nameTok.Lexeme

	if p.check(token.KW_EXTENDS) {
		p.advance()
		if superTok, ok := p.expect(token.IDENT); ok {
			decl.SuperClass = superTok.Lexeme
		}
	}

	p.skipSep()
	for !p.check(token.KW_END) && !p.isAtEnd() {
		before := p.pos
		p.parseClassMember(decl)
		if p.pos == before {
			p.advance()
		}
		p.skipSep()
	}
	p.expect(token.KW_END)

	decl.Span = p.makeSpan(start.Span.Start)
	return decl
}

// parseModifiers reads static/private/protected/public/const in any order.
func (p *Parser) parseModifiers() ast.Modifiers {
	var mods ast.Modifiers
	for p.peekKind().IsModifier() {
		switch p.advance().Kind {
		case token.KW_STATIC:
			mods.Static = true
		case token.KW_CONST:
			mods.Const = true
		case token.KW_PRIVATE:
			mods.Visibility = ast.Private
		case token.KW_PROTECTED:
			mods.Visibility = ast.Protected
		case token.KW_PUBLIC:
			mods.Visibility = ast.Public
		}
	}
	return mods
}

func (p *Parser) parseClassMember(decl *ast.ClassDecl) {
	start := p.peek()
	mods := p.parseModifiers()

	switch p.peekKind() {
	case token.KW_CONSTRUCTOR:
		if decl.Constructor != nil {
			p.error("E2003", p.peek().Span, fmt.Sprintf("class %s already has a constructor", decl.Name))
		}
		p.advance()
		ctor := &ast.MethodDecl{Modifiers: mods, Name: "constructor"}
		ctor.Params = p.parseParams()
		ctor.Body = p.parseEndBlock()
		ctor.Span = p.makeSpan(start.Span.Start)
		decl.Constructor = ctor
		return

	case token.KW_PROPERTY:
		if accessor := p.parseAccessor(mods); accessor != nil {
			accessor.Span = p.makeSpan(start.Span.Start)
			decl.Accessors = append(decl.Accessors, accessor)
		}
		return

	case token.KW_FUNCTION:
		p.advance()
		nameTok, ok := p.expectName()
		if !ok {
			p.synchronize()
			return
		}
		decl.Methods = append(decl.Methods, p.finishMethod(start, mods, nameTok.Lexeme))
		return
	}

	if !isName(p.peek()) {
		tok := p.peek()
		p.error("E2003", tok.Span, fmt.Sprintf("unexpected '%s' in class body", describe(tok)))
		p.synchronize()
		return
	}

	nameTok := p.advance()
	switch p.peekKind() {
	case token.LPAREN:
		decl.Methods = append(decl.Methods, p.finishMethod(start, mods, nameTok.Lexeme))

	case token.COLON, token.CONST_ASSIGN, token.ASSIGN:
		prop := &ast.PropertyDecl{Modifiers: mods, Name: nameTok.Lexeme}
		if p.check(token.COLON) {
			p.advance()
			if typeTok, ok := p.expect(token.IDENT); ok {
				prop.TypeName = typeTok.Lexeme
			}
		}
		// only the const modifier freezes a property; ':=' and '=' both initialize
		if p.match(token.CONST_ASSIGN, token.ASSIGN) {
			p.advance()
			prop.Value = p.parseExpr(bpNone)
		}
		prop.Span = p.makeSpan(start.Span.Start)
		decl.Properties = append(decl.Properties, prop)

	default:
		tok := p.peek()
		p.error("E2003", tok.Span,
			fmt.Sprintf("expected '(', ':', ':=' or '=' after class member '%s', got '%s'", nameTok.Lexeme, describe(tok)))
		p.synchronize()
	}
}

// finishMethod parses (params)[: Type] body end after the method name.
func (p *Parser) finishMethod(start token.Token, mods ast.Modifiers, name string) *ast.MethodDecl {
	method := &ast.MethodDecl{Modifiers: mods, Name: name}
	method.Params = p.parseParams()
	method.ReturnType = p.parseReturnType()
	method.Body = p.parseEndBlock()
	method.Span = p.makeSpan(start.Span.Start)
	return method
}

// parseAccessor parses:
//
//	property NAME
//	    get() => expr          | get() ... end
//	    set(value) => expr     | set(value) ... end
//	end
func (p *Parser) parseAccessor(mods ast.Modifiers) *ast.AccessorDecl {
	p.advance() // 'property'
	nameTok, ok := p.expectName()
	if !ok {
		p.synchronize()
		return nil
	}
	accessor := &ast.AccessorDecl{Modifiers: mods, Name: nameTok.Lexeme}

	p.skipSep()
	for p.match(token.KW_GET, token.KW_SET) {
		kindTok := p.advance()
		body := p.parseAccessorBody(kindTok)
		if kindTok.Kind == token.KW_GET {
			if accessor.Get != nil {
				p.error("E2003", kindTok.Span, fmt.Sprintf("property %s has more than one getter", accessor.Name))
			}
			if len(body.Params) != 0 {
				p.error("E2003", kindTok.Span, "getter takes no parameters")
			}
			accessor.Get = body
		} else {
			if accessor.Set != nil {
				p.error("E2003", kindTok.Span, fmt.Sprintf("property %s has more than one setter", accessor.Name))
			}
			if len(body.Params) != 1 {
				p.error("E2003", kindTok.Span, "setter takes exactly one parameter")
			}
			accessor.Set = body
		}
		p.skipSep()
	}
	p.expect(token.KW_END)

	if accessor.Get == nil && accessor.Set == nil {
		p.error("E2003", nameTok.Span, fmt.Sprintf("property %s needs a getter or a setter", accessor.Name))
	}
	return accessor
}

func (p *Parser) parseAccessorBody(kindTok token.Token) *ast.AccessorBody {
	body := &ast.AccessorBody{}
	body.Params = p.parseParams()
	if p.check(token.ARROW) {
		p.advance()
		p.skipNewlines()
		body.Expr = p.parseExpr(bpNone)
	} else {
		body.Block = p.parseEndBlock()
	}
	body.Span = p.makeSpan(kindTok.Span.Start)
	return body
}

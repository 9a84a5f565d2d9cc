package parser

import (
	"fmt"
	"strconv"

	"quill-lang/internal/ast"
	"quill-lang/internal/span"
	"quill-lang/internal/token"
)

// ============================================================
// Binding powers (Pratt parser)
// ============================================================

const (
	bpNone       = 0
	bpLogical    = 20 // && || (one tier, left-associative)
	bpEquality   = 30 // == !=
	bpComparison = 40 // < <= > >=
	bpAdditive   = 50 // + -
	bpMultiply   = 60 // * / %
	bpPrefix     = 70 // ! - (unary)
	bpPostfix    = 80 // () . []
)

// infixBP returns the left binding power for an infix/postfix token.
func infixBP(kind token.Kind) int {
	switch kind {
	case token.AND, token.OR:
		return bpLogical
	case token.EQ, token.NEQ:
		return bpEquality
	case token.LT, token.LTE, token.GT, token.GTE:
		return bpComparison
	case token.PLUS, token.MINUS:
		return bpAdditive
	case token.STAR, token.SLASH, token.PERCENT:
		return bpMultiply
	case token.LPAREN, token.DOT, token.LBRACKET:
		return bpPostfix
	default:
		return bpNone
	}
}

// parseExpr is the core Pratt parsing loop.
func (p *Parser) parseExpr(minBP int) ast.Expr {
	left := p.nud()

	for {
		bp := infixBP(p.peekKind())
		if bp <= minBP {
			break
		}
		left = p.led(left, bp)
	}
	return left
}

// nud parses a prefix expression or atom.
func (p *Parser) nud() ast.Expr {
	tok := p.peek()

	switch tok.Kind {
	case token.NUMBER:
		p.advance()
		v, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			p.error("E2007", tok.Span, fmt.Sprintf("invalid number literal %q", tok.Lexeme))
		}
		return &ast.NumberLit{ExprBase: makeExprBase(tok.Span.Start, tok.Span.End), Value: v}

	case token.STRING:
		p.advance()
		return &ast.StringLit{ExprBase: makeExprBase(tok.Span.Start, tok.Span.End), Value: tok.Lexeme}

	case token.KW_TRUE, token.KW_FALSE:
		p.advance()
		return &ast.BoolLit{ExprBase: makeExprBase(tok.Span.Start, tok.Span.End), Value: tok.Kind == token.KW_TRUE}

	case token.KW_NULL:
		p.advance()
		return &ast.NullLit{ExprBase: makeExprBase(tok.Span.Start, tok.Span.End)}

	case token.KW_SUPER:
		p.advance()
		if !p.match(token.LPAREN, token.DOT) {
			p.error("E2008", tok.Span, "super must be called or followed by a member name")
		}
		return &ast.Super{ExprBase: makeExprBase(tok.Span.Start, tok.Span.End)}

	case token.AT:
		p.advance()
		nameTok, ok := p.expectName()
		if !ok {
			return &ast.NullLit{ExprBase: makeExprBase(tok.Span.Start, tok.Span.End)}
		}
		return &ast.SelfProp{ExprBase: makeExprBase(tok.Span.Start, nameTok.Span.End), Name: nameTok.Lexeme}

	case token.BANG, token.MINUS:
		p.advance()
		operand := p.parseExpr(bpPrefix)
		return &ast.Unary{
			ExprBase: makeExprBase(tok.Span.Start, operand.GetSpan().End),
			Op:       tok.Kind,
			Operand:  operand,
		}

	case token.LPAREN:
		return p.parseParenOrLambda()

	case token.LBRACKET:
		return p.parseArrayLit()

	case token.LBRACE:
		return p.parseRecordLit()

	case token.KW_FUNCTION:
		return p.parseFuncLit()
	}

	if isName(tok) {
		p.advance()
		if p.check(token.ARROW) {
			return p.finishLambda(tok.Span.Start, []*ast.Param{{Name: tok.Lexeme}})
		}
		return &ast.Ident{ExprBase: makeExprBase(tok.Span.Start, tok.Span.End), Name: tok.Lexeme}
	}

	// Leave block terminators for the enclosing statement parser.
	if !p.match(token.NEWLINE, token.EOF, token.KW_END, token.KW_ELSE) {
		p.advance()
	}
	p.error("E2002", tok.Span, fmt.Sprintf("expected expression, got '%s'", describe(tok)))
	return &ast.NullLit{ExprBase: makeExprBase(tok.Span.Start, tok.Span.End)}
}

// led parses an infix or postfix expression given the left operand.
func (p *Parser) led(left ast.Expr, bp int) ast.Expr {
	tok := p.advance()

	switch tok.Kind {
	case token.LPAREN:
		args := p.parseArgs()
		return &ast.Call{
			ExprBase: makeExprBase(left.GetSpan().Start, p.prevEnd()),
			Callee:   left,
			Args:     args,
		}

	case token.DOT:
		nameTok, ok := p.expectName()
		if !ok {
			return left
		}
		return &ast.Member{
			ExprBase: makeExprBase(left.GetSpan().Start, nameTok.Span.End),
			Object:   left,
			Property: nameTok.Lexeme,
		}

	case token.LBRACKET:
		p.skipNewlines()
		index := p.parseExpr(bpNone)
		p.skipNewlines()
		p.expect(token.RBRACKET)
		return &ast.Index{
			ExprBase: makeExprBase(left.GetSpan().Start, p.prevEnd()),
			Object:   left,
			Index:    index,
		}

	default:
		// binary operators are left-associative; a newline may follow the operator
		p.skipNewlines()
		right := p.parseExpr(bp)
		return &ast.Binary{
			ExprBase: makeExprBase(left.GetSpan().Start, right.GetSpan().End),
			Op:       tok.Kind,
			Left:     left,
			Right:    right,
		}
	}
}

// parseArgs parses call arguments after '(' through ')'.
func (p *Parser) parseArgs() []ast.Expr {
	var args []ast.Expr
	p.skipNewlines()
	for !p.check(token.RPAREN) && !p.isAtEnd() {
		args = append(args, p.parseExpr(bpNone))
		p.skipNewlines()
		if !p.check(token.COMMA) {
			break
		}
		p.advance()
		p.skipNewlines()
	}
	p.expect(token.RPAREN)
	return args
}

func (p *Parser) parseArrayLit() ast.Expr {
	start := p.advance() // '['
	arr := &ast.ArrayLit{}
	p.skipNewlines()
	for !p.check(token.RBRACKET) && !p.isAtEnd() {
		arr.Elements = append(arr.Elements, p.parseExpr(bpNone))
		p.skipNewlines()
		if !p.check(token.COMMA) {
			break
		}
		p.advance()
		p.skipNewlines()
	}
	p.expect(token.RBRACKET)
	arr.ExprBase = makeExprBase(start.Span.Start, p.prevEnd())
	return arr
}

// parseRecordLit parses { key: value, ... }; keys are names or strings.
func (p *Parser) parseRecordLit() ast.Expr {
	start := p.advance() // '{'
	rec := &ast.RecordLit{}
	p.skipNewlines()
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		keyTok := p.peek()
		if !isName(keyTok) && keyTok.Kind != token.STRING {
			p.error("E2001", keyTok.Span, fmt.Sprintf("expected record key, got '%s'", describe(keyTok)))
			break
		}
		p.advance()
		p.expect(token.COLON)
		p.skipNewlines()
		value := p.parseExpr(bpNone)
		rec.Entries = append(rec.Entries, ast.RecordEntry{Key: keyTok.Lexeme, Value: value})
		p.skipNewlines()
		if !p.check(token.COMMA) {
			break
		}
		p.advance()
		p.skipNewlines()
	}
	p.expect(token.RBRACE)
	rec.ExprBase = makeExprBase(start.Span.Start, p.prevEnd())
	return rec
}

// parseFuncLit parses an anonymous function(params)[: Type] ... end.
func (p *Parser) parseFuncLit() ast.Expr {
	start := p.advance() // 'function'
	fn := &ast.FuncLit{}
	fn.Params = p.parseParams()
	fn.ReturnType = p.parseReturnType()
	fn.Body = p.parseEndBlock()
	fn.ExprBase = makeExprBase(start.Span.Start, p.prevEnd())
	return fn
}

// parseParenOrLambda resolves the ambiguity between a parenthesized
// expression and a lambda parameter list. It speculatively reads a parameter
// list; if that is not followed by ')' '=>', the cursor and diagnostics are
// restored and the input is reparsed as a grouped expression.
func (p *Parser) parseParenOrLambda() ast.Expr {
	start := p.peek()
	savedPos, savedDiags := p.pos, len(p.diags)

	params, constTok, ok := p.paramList(true)
	if ok && p.check(token.ARROW) {
		if constTok != nil {
			p.error("E2004", constTok.Span, "parameters cannot be constants")
		}
		return p.finishLambda(start.Span.Start, params)
	}

	p.logger.Debug("not a lambda, reparsing as grouped expression",
		"line", start.Span.Start.Line, "column", start.Span.Start.Column)
	p.pos = savedPos
	p.diags = p.diags[:savedDiags]

	p.advance() // '('
	p.skipNewlines()
	expr := p.parseExpr(bpNone)
	p.skipNewlines()
	p.expect(token.RPAREN)
	return expr
}

// finishLambda parses '=>' and the body expression.
func (p *Parser) finishLambda(start span.Position, params []*ast.Param) ast.Expr {
	p.advance() // '=>'
	p.skipNewlines()
	body := p.parseExpr(bpNone)
	return &ast.Lambda{
		ExprBase: makeExprBase(start, body.GetSpan().End),
		Params:   params,
		Body:     body,
	}
}

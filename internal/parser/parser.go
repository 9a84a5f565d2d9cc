// Package parser implements syntax analysis for quill.
// Expressions use Pratt parsing; statements and declarations use recursive
// descent. Blocks are statement sequences closed by the end keyword.
package parser

import (
	"fmt"
	"log/slog"
	"strconv"

	"quill-lang/internal/ast"
	"quill-lang/internal/diag"
	"quill-lang/internal/span"
	"quill-lang/internal/token"
)

// Parser performs syntax analysis on a stream of tokens.
type Parser struct {
	tokens []token.Token
	pos    int
	diags  []diag.Diagnostic
	logger *slog.Logger
}

// New creates a new parser from a token slice.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens, logger: slog.New(slog.DiscardHandler)}
}

// WithLogger sets the logger used for debug tracing of parse decisions.
func (p *Parser) WithLogger(logger *slog.Logger) *Parser {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// Parse parses tokens into a Program, returning a *diag.SyntaxError when any
// token sequence is malformed.
func Parse(tokens []token.Token) (*ast.Program, error) {
	prog, diags := New(tokens).ParseProgram()
	if err := diag.NewSyntaxError(diags); err != nil {
		return prog, err
	}
	return prog, nil
}

// ParseProgram parses the entire token stream and returns the AST root and
// all diagnostics.
func (p *Parser) ParseProgram() (*ast.Program, []diag.Diagnostic) {
	prog := &ast.Program{}
	startPos := p.peek().Span.Start

	prog.Body = p.parseStmts()
	if !p.isAtEnd() {
		tok := p.peek()
		p.error("E2002", tok.Span, fmt.Sprintf("unexpected '%s' at top level", tok.Kind))
	}

	prog.Span = span.Span{Start: startPos, End: p.peek().Span.End}
	return prog, p.diags
}

// ---- navigation helpers ----

func (p *Parser) peek() token.Token {
	return p.peekAt(0)
}

func (p *Parser) peekAt(offset int) token.Token {
	i := p.pos + offset
	if i >= len(p.tokens) {
		if len(p.tokens) > 0 {
			last := p.tokens[len(p.tokens)-1]
			return token.Token{Kind: token.EOF, Span: span.Span{Start: last.Span.End, End: last.Span.End}}
		}
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[i]
}

func (p *Parser) peekKind() token.Kind {
	return p.peek().Kind
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind token.Kind) bool {
	return p.peekKind() == kind
}

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			return true
		}
	}
	return false
}

func (p *Parser) expect(kind token.Kind) (token.Token, bool) {
	if p.check(kind) {
		return p.advance(), true
	}
	tok := p.peek()
	p.error("E2001", tok.Span, fmt.Sprintf("expected '%s', got '%s'", kind, describe(tok)))
	return tok, false
}

// expectName accepts an identifier or a contextual keyword used as a name.
func (p *Parser) expectName() (token.Token, bool) {
	if isName(p.peek()) {
		return p.advance(), true
	}
	tok := p.peek()
	p.error("E2001", tok.Span, fmt.Sprintf("expected identifier, got '%s'", describe(tok)))
	return tok, false
}

func (p *Parser) isAtEnd() bool {
	return p.peekKind() == token.EOF
}

// skipSep skips NEWLINE and SEMICOLON tokens.
func (p *Parser) skipSep() {
	for p.match(token.NEWLINE, token.SEMICOLON) {
		p.advance()
	}
}

// skipNewlines skips NEWLINE tokens only.
func (p *Parser) skipNewlines() {
	for p.check(token.NEWLINE) {
		p.advance()
	}
}

func (p *Parser) error(code string, s span.Span, msg string) {
	p.diags = append(p.diags, diag.Errorf(code, s, "%s", msg))
}

func isName(tok token.Token) bool {
	return tok.Kind == token.IDENT || tok.Kind.IsContextual()
}

func describe(tok token.Token) string {
	switch tok.Kind {
	case token.IDENT, token.NUMBER:
		return tok.Lexeme
	case token.STRING:
		return strconv.Quote(tok.Lexeme)
	case token.NEWLINE:
		return "newline"
	case token.EOF:
		return "end of input"
	default:
		return tok.Kind.String()
	}
}

// ============================================================
// Error recovery
// ============================================================

// synchronize skips tokens until a likely statement boundary.
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		if p.match(token.NEWLINE, token.SEMICOLON) {
			p.advance()
			return
		}
		if p.match(token.KW_END, token.KW_ELSE, token.KW_IF, token.KW_WHILE, token.KW_FOR,
			token.KW_FUNCTION, token.KW_CLASS, token.KW_RETURN, token.KW_IMPORT, token.KW_EXPORT) {
			return
		}
		p.advance()
	}
}

// ============================================================
// Statement sequences
// ============================================================

// parseStmts parses statements until EOF or one of the terminators, which is
// left unconsumed.
func (p *Parser) parseStmts(terminators ...token.Kind) []ast.Stmt {
	var stmts []ast.Stmt
	p.skipSep()
	for !p.isAtEnd() && !p.match(terminators...) {
		before := p.pos
		if stmt := p.parseStmt(); stmt != nil {
			stmts = append(stmts, stmt)
		}
		if p.pos == before {
			// no progress; drop the offending token
			tok := p.advance()
			p.error("E2002", tok.Span, fmt.Sprintf("unexpected '%s'", describe(tok)))
		}
		p.skipSep()
	}
	return stmts
}

// parseBlock parses a body up to (not including) a terminator.
func (p *Parser) parseBlock(terminators ...token.Kind) *ast.Block {
	start := p.peek().Span.Start
	block := &ast.Block{}
	block.Stmts = p.parseStmts(terminators...)
	block.Span = p.makeSpan(start)
	return block
}

// parseEndBlock parses a body and consumes its closing end.
func (p *Parser) parseEndBlock() *ast.Block {
	block := p.parseBlock(token.KW_END)
	p.expect(token.KW_END)
	return block
}

// ============================================================
// Statements
// ============================================================

func (p *Parser) parseStmt() ast.Stmt {
	switch p.peekKind() {
	case token.KW_FUNCTION:
		if isName(p.peekAt(1)) {
			return p.parseFuncDecl()
		}
		return p.parseSimpleStmt()
	case token.KW_CLASS:
		return p.parseClassDecl()
	case token.KW_IF:
		return p.parseIf()
	case token.KW_WHILE:
		return p.parseWhile()
	case token.KW_FOR:
		return p.parseForIn()
	case token.KW_RETURN:
		return p.parseReturn()
	case token.KW_BREAK:
		tok := p.advance()
		return &ast.Break{StmtBase: makeStmtBase(tok.Span.Start, tok.Span.End)}
	case token.KW_CONTINUE:
		tok := p.advance()
		return &ast.Continue{StmtBase: makeStmtBase(tok.Span.Start, tok.Span.End)}
	case token.KW_IMPORT:
		return p.parseImport()
	case token.KW_EXPORT:
		return p.parseExport()
	case token.KW_END, token.KW_ELSE:
		tok := p.advance()
		p.error("E2002", tok.Span, fmt.Sprintf("unexpected '%s' without matching block", tok.Kind))
		return nil
	default:
		return p.parseSimpleStmt()
	}
}

// parseIf parses: if test body { else if test body } [ else body ] end
func (p *Parser) parseIf() *ast.If {
	start := p.advance() // 'if'
	stmt := &ast.If{}
	stmt.Test = p.parseExpr(bpNone)
	stmt.Body = p.parseBlock(token.KW_END, token.KW_ELSE)

	for p.check(token.KW_ELSE) {
		p.advance()
		if p.check(token.KW_IF) {
			clauseStart := p.advance()
			clause := ast.ElseIf{Test: p.parseExpr(bpNone)}
			clause.Body = p.parseBlock(token.KW_END, token.KW_ELSE)
			clause.Span = p.makeSpan(clauseStart.Span.Start)
			stmt.ElseIfs = append(stmt.ElseIfs, clause)
			continue
		}
		stmt.Else = p.parseBlock(token.KW_END)
		break
	}
	p.expect(token.KW_END)

	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseWhile parses: while condition body end
func (p *Parser) parseWhile() *ast.While {
	start := p.advance() // 'while'
	stmt := &ast.While{}
	stmt.Condition = p.parseExpr(bpNone)
	stmt.Body = p.parseEndBlock()
	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseForIn parses: for name in iterable body end
func (p *Parser) parseForIn() *ast.ForIn {
	start := p.advance() // 'for'
	stmt := &ast.ForIn{}
	nameTok, ok := p.expectName()
	if !ok {
		p.synchronize()
		stmt.Span = p.makeSpan(start.Span.Start)
		return stmt
	}
	stmt.Name = nameTok.Lexeme
	p.expect(token.KW_IN)
	stmt.Iterable = p.parseExpr(bpNone)
	stmt.Body = p.parseEndBlock()
	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseReturn parses: return [expr]
func (p *Parser) parseReturn() *ast.Return {
	start := p.advance() // 'return'
	stmt := &ast.Return{}
	if !p.match(token.NEWLINE, token.SEMICOLON, token.KW_END, token.KW_ELSE, token.EOF) {
		stmt.Value = p.parseExpr(bpNone)
	}
	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseImport parses: import { a, b } from "path"  (braces optional)
func (p *Parser) parseImport() ast.Stmt {
	start := p.advance() // 'import'
	stmt := &ast.Import{}

	braced := p.check(token.LBRACE)
	if braced {
		p.advance()
		p.skipNewlines()
	}
	for {
		nameTok, ok := p.expectName()
		if !ok {
			p.synchronize()
			stmt.Span = p.makeSpan(start.Span.Start)
			return stmt
		}
		stmt.Names = append(stmt.Names, nameTok.Lexeme)
		if !p.check(token.COMMA) {
			break
		}
		p.advance()
		p.skipNewlines()
	}
	if braced {
		p.skipNewlines()
		p.expect(token.RBRACE)
	}
	p.expect(token.KW_FROM)
	if pathTok, ok := p.expect(token.STRING); ok {
		stmt.Path = pathTok.Lexeme
	}
	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseExport parses: export <function | class | assignment | declaration>
func (p *Parser) parseExport() ast.Stmt {
	start := p.advance() // 'export'
	inner := p.parseStmt()
	if ast.DeclaredName(inner) == "" {
		p.error("E2005", p.makeSpan(start.Span.Start), "export must wrap a function, class, assignment or declaration")
	}
	return &ast.Export{
		StmtBase: makeStmtBase(start.Span.Start, p.prevEnd()),
		Decl:     inner,
	}
}

// parseSimpleStmt parses assignments, declarations and expression statements.
// Plain and member assignment targets are recognized by fixed lookahead; any
// other target is recognized after parsing a full expression.
func (p *Parser) parseSimpleStmt() ast.Stmt {
	tok := p.peek()

	if isName(tok) {
		switch p.peekAt(1).Kind {
		case token.CONST_ASSIGN, token.ASSIGN:
			p.advance()
			isConst := p.advance().Kind == token.CONST_ASSIGN
			value := p.parseExpr(bpNone)
			return &ast.Assign{
				StmtBase: makeStmtBase(tok.Span.Start, p.prevEnd()),
				Name:     tok.Lexeme,
				IsConst:  isConst,
				Value:    value,
			}
		case token.COLON:
			if p.peekAt(2).Kind == token.IDENT {
				return p.parseDecl()
			}
		case token.DOT:
			if isName(p.peekAt(2)) && p.peekAt(3).Kind == token.ASSIGN {
				obj := &ast.Ident{ExprBase: makeExprBase(tok.Span.Start, tok.Span.End), Name: tok.Lexeme}
				p.advance() // object
				p.advance() // '.'
				propTok := p.advance()
				target := &ast.Member{
					ExprBase: makeExprBase(tok.Span.Start, propTok.Span.End),
					Object:   obj,
					Property: propTok.Lexeme,
				}
				return p.finishMemberAssign(target)
			}
		}
	}

	if tok.Kind == token.AT && isName(p.peekAt(1)) && p.peekAt(2).Kind == token.ASSIGN {
		p.advance() // '@'
		nameTok := p.advance()
		target := &ast.SelfProp{
			ExprBase: makeExprBase(tok.Span.Start, nameTok.Span.End),
			Name:     nameTok.Lexeme,
		}
		return p.finishMemberAssign(target)
	}

	expr := p.parseExpr(bpNone)

	switch p.peekKind() {
	case token.ASSIGN:
		p.advance()
		value := p.parseExpr(bpNone)
		return p.makeAssign(expr, value)
	case token.CONST_ASSIGN:
		opTok := p.advance()
		p.parseExpr(bpNone)
		p.error("E2006", opTok.Span, "only plain names can be bound as constants")
		return &ast.ExprStmt{StmtBase: makeStmtBase(expr.GetSpan().Start, p.prevEnd()), Expr: expr}
	case token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.STAR_ASSIGN, token.SLASH_ASSIGN:
		opTok := p.advance()
		rhs := p.parseExpr(bpNone)
		value := &ast.Binary{
			ExprBase: makeExprBase(expr.GetSpan().Start, rhs.GetSpan().End),
			Op:       compoundToOp(opTok.Kind),
			Left:     expr,
			Right:    rhs,
		}
		return p.makeAssign(expr, value)
	}

	return &ast.ExprStmt{
		StmtBase: makeStmtBase(expr.GetSpan().Start, expr.GetSpan().End),
		Expr:     expr,
	}
}

// parseDecl parses: name: Type [ := expr | = expr ]
func (p *Parser) parseDecl() *ast.Decl {
	nameTok := p.advance()
	p.advance() // ':'
	typeTok := p.advance()
	decl := &ast.Decl{Name: nameTok.Lexeme, TypeName: typeTok.Lexeme}
	if p.match(token.CONST_ASSIGN, token.ASSIGN) {
		decl.IsConst = p.advance().Kind == token.CONST_ASSIGN
		decl.Value = p.parseExpr(bpNone)
	}
	decl.StmtBase = makeStmtBase(nameTok.Span.Start, p.prevEnd())
	return decl
}

func (p *Parser) finishMemberAssign(target ast.Expr) ast.Stmt {
	p.advance() // '='
	value := p.parseExpr(bpNone)
	return &ast.MemberAssign{
		StmtBase: makeStmtBase(target.GetSpan().Start, p.prevEnd()),
		Target:   target,
		Value:    value,
	}
}

func (p *Parser) makeAssign(target, value ast.Expr) ast.Stmt {
	base := makeStmtBase(target.GetSpan().Start, p.prevEnd())
	switch t := target.(type) {
	case *ast.Ident:
		return &ast.Assign{StmtBase: base, Name: t.Name, Value: value}
	case *ast.Member, *ast.SelfProp, *ast.Index:
		return &ast.MemberAssign{StmtBase: base, Target: target, Value: value}
	default:
		p.error("E2006", target.GetSpan(), "invalid assignment target")
		return &ast.ExprStmt{StmtBase: base, Expr: target}
	}
}

// ============================================================
// Functions
// ============================================================

// parseFuncDecl parses: function name(params)[: Type] body end
func (p *Parser) parseFuncDecl() *ast.FuncDecl {
	start := p.advance() // 'function'
	nameTok := p.advance()
	decl := &ast.FuncDecl{Name: nameTok.Lexeme}
	decl.Params = p.parseParams()
	decl.ReturnType = p.parseReturnType()
	decl.Body = p.parseEndBlock()
	decl.Span = p.makeSpan(start.Span.Start)
	return decl
}

func (p *Parser) parseReturnType() string {
	if !p.check(token.COLON) {
		return ""
	}
	p.advance()
	typeTok, ok := p.expect(token.IDENT)
	if !ok {
		return ""
	}
	return typeTok.Lexeme
}

// parseParams parses a non-speculative parameter list, reporting every
// malformed parameter.
func (p *Parser) parseParams() []*ast.Param {
	if !p.check(token.LPAREN) {
		p.expect(token.LPAREN)
		return nil
	}
	params, constTok, ok := p.paramList(false)
	if constTok != nil {
		p.error("E2004", constTok.Span, "parameters cannot be constants")
	}
	if !ok {
		p.synchronize()
	}
	return params
}

// paramList parses ( [@]name[: Type][= default], ... ). In speculative mode a
// structural mismatch returns ok=false without recording a diagnostic. The
// returned token, if non-nil, is a ':=' used as a default operator.
func (p *Parser) paramList(speculative bool) ([]*ast.Param, *token.Token, bool) {
	var params []*ast.Param
	var constTok *token.Token

	fail := func(msg string) ([]*ast.Param, *token.Token, bool) {
		if !speculative {
			tok := p.peek()
			p.error("E2003", tok.Span, fmt.Sprintf("%s, got '%s'", msg, describe(tok)))
		}
		return params, constTok, false
	}

	p.advance() // '('
	p.skipNewlines()
	for !p.check(token.RPAREN) {
		param := &ast.Param{}
		if p.check(token.AT) {
			p.advance()
			param.Shorthand = true
		}
		if !isName(p.peek()) {
			return fail("expected parameter name")
		}
		param.Name = p.advance().Lexeme

		if p.check(token.COLON) {
			p.advance()
			if !p.check(token.IDENT) {
				return fail("expected type name")
			}
			param.TypeName = p.advance().Lexeme
		}

		switch p.peekKind() {
		case token.CONST_ASSIGN:
			tok := p.advance()
			constTok = &tok
			param.Default = p.parseExpr(bpNone)
		case token.ASSIGN:
			p.advance()
			param.Default = p.parseExpr(bpNone)
		}
		params = append(params, param)

		p.skipNewlines()
		if !p.check(token.COMMA) {
			break
		}
		p.advance()
		p.skipNewlines()
	}
	if !p.check(token.RPAREN) {
		return fail("expected ',' or ')' in parameter list")
	}
	p.advance()
	return params, constTok, true
}

// compoundToOp maps a compound assignment token to its binary operator.
func compoundToOp(kind token.Kind) token.Kind {
	switch kind {
	case token.PLUS_ASSIGN:
		return token.PLUS
	case token.MINUS_ASSIGN:
		return token.MINUS
	case token.STAR_ASSIGN:
		return token.STAR
	case token.SLASH_ASSIGN:
		return token.SLASH
	default:
		return token.PLUS
	}
}

// ============================================================
// Span helpers
// ============================================================

func (p *Parser) prevEnd() span.Position {
	if p.pos > 0 && p.pos-1 < len(p.tokens) {
		return p.tokens[p.pos-1].Span.End
	}
	return p.peek().Span.Start
}

func (p *Parser) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: p.prevEnd()}
}

func makeExprBase(start, end span.Position) ast.ExprBase {
	return ast.ExprBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}

func makeStmtBase(start, end span.Position) ast.StmtBase {
	return ast.StmtBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}

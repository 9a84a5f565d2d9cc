// Package lexer turns quill source text into a token stream.
package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"quill-lang/internal/diag"
	"quill-lang/internal/span"
	"quill-lang/internal/token"
)

// Lexer tokenizes source code into a sequence of tokens.
type Lexer struct {
	source   string
	filename string

	pos  int // current read position in source
	line int // current line (1-based)
	col  int // current column (1-based)

	diags []diag.Diagnostic
}

// New creates a new Lexer for the given source text.
func New(source, filename string) *Lexer {
	return &Lexer{
		source:   source,
		filename: filename,
		line:     1,
		col:      1,
	}
}

// Tokenize scans the entire source and returns all tokens and diagnostics.
// The last token is always EOF.
func (l *Lexer) Tokenize() ([]token.Token, []diag.Diagnostic) {
	var tokens []token.Token
	for {
		tok := l.nextToken()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return tokens, l.diags
}

// ---- internal helpers ----

func (l *Lexer) peek() byte {
	if l.pos >= len(l.source) {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekNext() byte {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

func (l *Lexer) advance() byte {
	ch := l.source[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

// advanceRune consumes one UTF-8 encoded rune as a single column.
func (l *Lexer) advanceRune() rune {
	r, size := utf8.DecodeRuneInString(l.source[l.pos:])
	l.pos += size
	l.col++
	return r
}

func (l *Lexer) curPos() span.Position {
	return span.Position{Offset: l.pos, Line: l.line, Column: l.col}
}

func (l *Lexer) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: l.curPos()}
}

func (l *Lexer) make(kind token.Kind, lexeme string, start span.Position) token.Token {
	return token.Token{Kind: kind, Lexeme: lexeme, Span: l.makeSpan(start)}
}

// skipWhitespace skips spaces and tabs (not newlines).
func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if ch == ' ' || ch == '\t' || ch == '\r' {
			l.advance()
		} else {
			break
		}
	}
}

func (l *Lexer) skipLineComment() {
	for l.pos < len(l.source) && l.source[l.pos] != '\n' {
		l.advance()
	}
}

func (l *Lexer) addError(code string, s span.Span, msg string) {
	l.diags = append(l.diags, diag.Errorf(code, s, "%s", msg))
}

// ---- token reading ----

func (l *Lexer) nextToken() token.Token {
	for {
		l.skipWhitespace()
		if l.pos >= len(l.source) {
			return l.make(token.EOF, "", l.curPos())
		}
		ch := l.peek()
		if ch == '#' || (ch == '/' && l.peekNext() == '/') {
			l.skipLineComment()
			continue
		}
		break
	}

	start := l.curPos()
	ch := l.peek()

	switch {
	case ch == '\n':
		l.advance()
		return l.make(token.NEWLINE, "\\n", start)
	case ch == '"':
		return l.readString(start)
	case isDigit(ch):
		return l.readNumber(start)
	case l.atIdentStart():
		return l.readIdentifier(start)
	default:
		return l.readOperator(start)
	}
}

// readString reads a double-quoted string literal; Lexeme is the unescaped value.
func (l *Lexer) readString(start span.Position) token.Token {
	l.advance() // opening "
	var value []byte

	for l.pos < len(l.source) {
		ch := l.peek()
		if ch == '"' {
			l.advance()
			return l.make(token.STRING, string(value), start)
		}
		if ch == '\n' {
			break
		}
		if ch == '\\' {
			l.advance()
			esc := l.peek()
			switch esc {
			case 'n':
				value = append(value, '\n')
			case 't':
				value = append(value, '\t')
			case '\\':
				value = append(value, '\\')
			case '"':
				value = append(value, '"')
			case '0':
				value = append(value, 0)
			default:
				l.addError("E1002", l.makeSpan(start), fmt.Sprintf("unknown escape sequence: \\%c", esc))
				value = append(value, esc)
			}
			if l.pos < len(l.source) {
				l.advance()
			}
			continue
		}
		value = append(value, ch)
		l.advance()
	}

	l.addError("E1001", l.makeSpan(start), "unterminated string literal")
	return l.make(token.STRING, string(value), start)
}

// readNumber reads an integer or decimal literal. Both are NUMBER tokens.
func (l *Lexer) readNumber(start span.Position) token.Token {
	numStart := l.pos
	for l.pos < len(l.source) && isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peekNext()) {
		l.advance()
		for l.pos < len(l.source) && isDigit(l.peek()) {
			l.advance()
		}
	}
	return l.make(token.NUMBER, l.source[numStart:l.pos], start)
}

func (l *Lexer) readIdentifier(start span.Position) token.Token {
	identStart := l.pos
	for l.pos < len(l.source) && l.atIdentPart() {
		if l.peek() >= utf8.RuneSelf {
			l.advanceRune()
		} else {
			l.advance()
		}
	}
	lexeme := l.source[identStart:l.pos]
	return l.make(token.LookupIdent(lexeme), lexeme, start)
}

func (l *Lexer) readOperator(start span.Position) token.Token {
	if l.peek() >= utf8.RuneSelf {
		r := l.advanceRune()
		l.addError("E1003", l.makeSpan(start), fmt.Sprintf("unexpected character: '%c'", r))
		return l.make(token.ILLEGAL, string(r), start)
	}
	ch := l.advance()

	// two-character operators first
	two := func(next byte, kind token.Kind, lexeme string) (token.Token, bool) {
		if l.peek() == next {
			l.advance()
			return l.make(kind, lexeme, start), true
		}
		return token.Token{}, false
	}

	switch ch {
	case '(':
		return l.make(token.LPAREN, "(", start)
	case ')':
		return l.make(token.RPAREN, ")", start)
	case '{':
		return l.make(token.LBRACE, "{", start)
	case '}':
		return l.make(token.RBRACE, "}", start)
	case '[':
		return l.make(token.LBRACKET, "[", start)
	case ']':
		return l.make(token.RBRACKET, "]", start)
	case ',':
		return l.make(token.COMMA, ",", start)
	case '.':
		return l.make(token.DOT, ".", start)
	case ';':
		return l.make(token.SEMICOLON, ";", start)
	case '@':
		return l.make(token.AT, "@", start)
	case ':':
		if tok, ok := two('=', token.CONST_ASSIGN, ":="); ok {
			return tok
		}
		return l.make(token.COLON, ":", start)
	case '+':
		if tok, ok := two('=', token.PLUS_ASSIGN, "+="); ok {
			return tok
		}
		return l.make(token.PLUS, "+", start)
	case '-':
		if tok, ok := two('=', token.MINUS_ASSIGN, "-="); ok {
			return tok
		}
		return l.make(token.MINUS, "-", start)
	case '*':
		if tok, ok := two('=', token.STAR_ASSIGN, "*="); ok {
			return tok
		}
		return l.make(token.STAR, "*", start)
	case '/':
		if tok, ok := two('=', token.SLASH_ASSIGN, "/="); ok {
			return tok
		}
		return l.make(token.SLASH, "/", start)
	case '%':
		return l.make(token.PERCENT, "%", start)
	case '!':
		if tok, ok := two('=', token.NEQ, "!="); ok {
			return tok
		}
		return l.make(token.BANG, "!", start)
	case '=':
		if tok, ok := two('=', token.EQ, "=="); ok {
			return tok
		}
		if tok, ok := two('>', token.ARROW, "=>"); ok {
			return tok
		}
		return l.make(token.ASSIGN, "=", start)
	case '<':
		if tok, ok := two('=', token.LTE, "<="); ok {
			return tok
		}
		return l.make(token.LT, "<", start)
	case '>':
		if tok, ok := two('=', token.GTE, ">="); ok {
			return tok
		}
		return l.make(token.GT, ">", start)
	case '&':
		if tok, ok := two('&', token.AND, "&&"); ok {
			return tok
		}
		l.addError("E1003", l.makeSpan(start), "unexpected character: '&', did you mean '&&'?")
		return l.make(token.ILLEGAL, "&", start)
	case '|':
		if tok, ok := two('|', token.OR, "||"); ok {
			return tok
		}
		l.addError("E1003", l.makeSpan(start), "unexpected character: '|', did you mean '||'?")
		return l.make(token.ILLEGAL, "|", start)
	default:
		l.addError("E1003", l.makeSpan(start), fmt.Sprintf("unexpected character: '%c'", ch))
		return l.make(token.ILLEGAL, string(ch), start)
	}
}

// ---- character classification ----

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func (l *Lexer) atIdentStart() bool {
	ch := l.peek()
	if ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') {
		return true
	}
	if ch >= utf8.RuneSelf {
		r, _ := utf8.DecodeRuneInString(l.source[l.pos:])
		return unicode.IsLetter(r)
	}
	return false
}

func (l *Lexer) atIdentPart() bool {
	return l.atIdentStart() || isDigit(l.peek())
}

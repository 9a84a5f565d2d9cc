package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quill-lang/internal/token"
)

func kinds(tokens []token.Token) []token.Kind {
	out := make([]token.Kind, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Kind
	}
	return out
}

func TestTokenizeAssignments(t *testing.T) {
	tokens, diags := New(`x := 1; y = 2.5`, "test.ql").Tokenize()
	require.Empty(t, diags)

	assert.Equal(t, []token.Kind{
		token.IDENT, token.CONST_ASSIGN, token.NUMBER, token.SEMICOLON,
		token.IDENT, token.ASSIGN, token.NUMBER, token.EOF,
	}, kinds(tokens))
	assert.Equal(t, "2.5", tokens[6].Lexeme)
}

func TestTokenizeKeywords(t *testing.T) {
	source := `function return if else while for in break continue end class extends static private protected public const constructor property get set super import export from true false null`
	tokens, diags := New(source, "test.ql").Tokenize()
	require.Empty(t, diags)

	expected := []token.Kind{
		token.KW_FUNCTION, token.KW_RETURN, token.KW_IF, token.KW_ELSE, token.KW_WHILE,
		token.KW_FOR, token.KW_IN, token.KW_BREAK, token.KW_CONTINUE, token.KW_END,
		token.KW_CLASS, token.KW_EXTENDS, token.KW_STATIC, token.KW_PRIVATE,
		token.KW_PROTECTED, token.KW_PUBLIC, token.KW_CONST, token.KW_CONSTRUCTOR,
		token.KW_PROPERTY, token.KW_GET, token.KW_SET, token.KW_SUPER,
		token.KW_IMPORT, token.KW_EXPORT, token.KW_FROM,
		token.KW_TRUE, token.KW_FALSE, token.KW_NULL, token.EOF,
	}
	assert.Equal(t, expected, kinds(tokens))
}

func TestTokenizeOperators(t *testing.T) {
	tokens, diags := New(`+ - * / % ! == != < <= > >= && || => @ : += -= *= /=`, "test.ql").Tokenize()
	require.Empty(t, diags)

	assert.Equal(t, []token.Kind{
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT, token.BANG,
		token.EQ, token.NEQ, token.LT, token.LTE, token.GT, token.GTE,
		token.AND, token.OR, token.ARROW, token.AT, token.COLON,
		token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.STAR_ASSIGN, token.SLASH_ASSIGN,
		token.EOF,
	}, kinds(tokens))
}

func TestTokenizeStringEscapes(t *testing.T) {
	tokens, diags := New(`"a\tb\n\"c\""`, "test.ql").Tokenize()
	require.Empty(t, diags)
	require.Len(t, tokens, 2)
	assert.Equal(t, "a\tb\n\"c\"", tokens[0].Lexeme)
}

func TestTokenizeUnterminatedString(t *testing.T) {
	_, diags := New("\"abc\nx", "test.ql").Tokenize()
	require.Len(t, diags, 1)
	assert.Equal(t, "E1001", diags[0].Code)
}

func TestTokenizeSkipsComments(t *testing.T) {
	tokens, diags := New("x # note\n// whole line\ny", "test.ql").Tokenize()
	require.Empty(t, diags)
	assert.Equal(t, []token.Kind{
		token.IDENT, token.NEWLINE, token.NEWLINE, token.IDENT, token.EOF,
	}, kinds(tokens))
}

func TestTokenizePositions(t *testing.T) {
	tokens, _ := New("a\n  bc", "test.ql").Tokenize()
	require.Len(t, tokens, 4)
	assert.Equal(t, 2, tokens[2].Span.Start.Line)
	assert.Equal(t, 3, tokens[2].Span.Start.Column)
}

func TestTokenizeIllegal(t *testing.T) {
	tokens, diags := New(`a & b`, "test.ql").Tokenize()
	require.Len(t, diags, 1)
	assert.Equal(t, token.ILLEGAL, tokens[1].Kind)
	assert.Contains(t, diags[0].Message, "did you mean '&&'")
}

func TestTokenizeUnicodeIdent(t *testing.T) {
	tokens, diags := New(`größe := 1`, "test.ql").Tokenize()
	require.Empty(t, diags)
	assert.Equal(t, token.IDENT, tokens[0].Kind)
	assert.Equal(t, "größe", tokens[0].Lexeme)
	assert.Equal(t, token.CONST_ASSIGN, tokens[1].Kind)
}

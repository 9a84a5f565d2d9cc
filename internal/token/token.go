// Package token defines the token kinds produced by the quill lexer.
package token

import (
	"fmt"

	"quill-lang/internal/span"
)

// Kind is the type of a token.
type Kind int

const (
	// Special tokens
	ILLEGAL Kind = iota
	EOF
	NEWLINE

	// Literals
	IDENT
	NUMBER
	STRING

	// Operators
	ASSIGN       // =
	CONST_ASSIGN // :=
	PLUS         // +
	MINUS        // -
	STAR         // *
	SLASH        // /
	PERCENT      // %
	BANG         // !

	EQ  // ==
	NEQ // !=
	LT  // <
	LTE // <=
	GT  // >
	GTE // >=

	AND // &&
	OR  // ||

	PLUS_ASSIGN  // +=
	MINUS_ASSIGN // -=
	STAR_ASSIGN  // *=
	SLASH_ASSIGN // /=

	ARROW // =>
	AT    // @

	// Delimiters
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LBRACKET  // [
	RBRACKET  // ]
	COMMA     // ,
	DOT       // .
	SEMICOLON // ;
	COLON     // :

	// Keywords
	KW_FUNCTION
	KW_RETURN
	KW_IF
	KW_ELSE
	KW_WHILE
	KW_FOR
	KW_IN
	KW_BREAK
	KW_CONTINUE
	KW_END
	KW_CLASS
	KW_EXTENDS
	KW_STATIC
	KW_PRIVATE
	KW_PROTECTED
	KW_PUBLIC
	KW_CONST
	KW_CONSTRUCTOR
	KW_PROPERTY
	KW_GET
	KW_SET
	KW_SUPER
	KW_IMPORT
	KW_EXPORT
	KW_FROM
	KW_TRUE
	KW_FALSE
	KW_NULL
)

var kindNames = map[Kind]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",
	NEWLINE: "NEWLINE",

	IDENT:  "IDENT",
	NUMBER: "NUMBER",
	STRING: "STRING",

	ASSIGN:       "=",
	CONST_ASSIGN: ":=",
	PLUS:         "+",
	MINUS:        "-",
	STAR:         "*",
	SLASH:        "/",
	PERCENT:      "%",
	BANG:         "!",
	EQ:           "==",
	NEQ:          "!=",
	LT:           "<",
	LTE:          "<=",
	GT:           ">",
	GTE:          ">=",
	AND:          "&&",
	OR:           "||",
	PLUS_ASSIGN:  "+=",
	MINUS_ASSIGN: "-=",
	STAR_ASSIGN:  "*=",
	SLASH_ASSIGN: "/=",
	ARROW:        "=>",
	AT:           "@",

	LPAREN:    "(",
	RPAREN:    ")",
	LBRACE:    "{",
	RBRACE:    "}",
	LBRACKET:  "[",
	RBRACKET:  "]",
	COMMA:     ",",
	DOT:       ".",
	SEMICOLON: ";",
	COLON:     ":",
}

var keywords = map[string]Kind{
	"function":    KW_FUNCTION,
	"return":      KW_RETURN,
	"if":          KW_IF,
	"else":        KW_ELSE,
	"while":       KW_WHILE,
	"for":         KW_FOR,
	"in":          KW_IN,
	"break":       KW_BREAK,
	"continue":    KW_CONTINUE,
	"end":         KW_END,
	"class":       KW_CLASS,
	"extends":     KW_EXTENDS,
	"static":      KW_STATIC,
	"private":     KW_PRIVATE,
	"protected":   KW_PROTECTED,
	"public":      KW_PUBLIC,
	"const":       KW_CONST,
	"constructor": KW_CONSTRUCTOR,
	"property":    KW_PROPERTY,
	"get":         KW_GET,
	"set":         KW_SET,
	"super":       KW_SUPER,
	"import":      KW_IMPORT,
	"export":      KW_EXPORT,
	"from":        KW_FROM,
	"true":        KW_TRUE,
	"false":       KW_FALSE,
	"null":        KW_NULL,
}

func init() {
	for word, kind := range keywords {
		kindNames[kind] = word
	}
}

// String returns the human-readable name for a token kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsKeyword reports whether k is a reserved word.
func (k Kind) IsKeyword() bool {
	return k >= KW_FUNCTION && k <= KW_NULL
}

// IsModifier reports whether k may prefix a class member.
func (k Kind) IsModifier() bool {
	switch k {
	case KW_STATIC, KW_PRIVATE, KW_PROTECTED, KW_PUBLIC, KW_CONST:
		return true
	}
	return false
}

// IsContextual reports whether a keyword may also be used as a member or
// property name (after '.', or as an accessor/record key).
func (k Kind) IsContextual() bool {
	switch k {
	case KW_GET, KW_SET, KW_PROPERTY, KW_FROM, KW_IN:
		return true
	}
	return false
}

// LookupIdent returns the keyword kind for ident, or IDENT.
func LookupIdent(ident string) Kind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	return IDENT
}

// Token is a lexical token with its kind, text and source location.
// For STRING tokens Lexeme holds the unescaped value.
type Token struct {
	Kind   Kind      `json:"kind"`
	Lexeme string    `json:"lexeme"`
	Span   span.Span `json:"span"`
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q %s", t.Kind, t.Lexeme, t.Span.Start)
}

package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	// Literals
	IDENTIFIER // binding or function name
	INTEGER    // decimal integer literal

	// Keywords
	CONST    // "const"
	LET      // "let"
	MUT      // "mut"
	FN       // "fn"
	LOOP     // "loop"
	BREAK    // "break"
	CONTINUE // "continue"

	// Paired delimiters
	LPAREN // (
	RPAREN // )
	LBRACE // {
	RBRACE // }

	// Punctuation
	SEMICOLON // ;

	// Arithmetic operators
	PLUS  // +
	MINUS // -
	STAR  // *
	SLASH // /

	ASSIGN // =
)

var tokenNames = [...]string{
	EOF:        "EOF",
	IDENTIFIER: "IDENTIFIER",
	INTEGER:    "INTEGER",
	CONST:      "CONST",
	LET:        "LET",
	MUT:        "MUT",
	FN:         "FN",
	LOOP:       "LOOP",
	BREAK:      "BREAK",
	CONTINUE:   "CONTINUE",
	LPAREN:     "LPAREN",
	RPAREN:     "RPAREN",
	LBRACE:     "LBRACE",
	RBRACE:     "RBRACE",
	SEMICOLON:  "SEMICOLON",
	PLUS:       "PLUS",
	MINUS:      "MINUS",
	STAR:       "STAR",
	SLASH:      "SLASH",
	ASSIGN:     "ASSIGN",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// punctuation maps single-character source text to its TokenType.
var punctuation = map[byte]TokenType{
	'(': LPAREN,
	')': RPAREN,
	'{': LBRACE,
	'}': RBRACE,
	';': SEMICOLON,
	'+': PLUS,
	'-': MINUS,
	'*': STAR,
	'/': SLASH,
	'=': ASSIGN,
}

// Pos is a 1-based line/column location in the source text.
// Columns count bytes.
type Pos struct {
	Line   int
	Column int
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Column) }

// IsValid reports whether p was set by the lexer.
func (p Pos) IsValid() bool { return p.Line > 0 }

// Token is a single lexical unit produced by the TokenStream.
type Token struct {
	Type   TokenType
	Lexeme string // the exact source text that was matched
	Value  uint64 // decoded value for INTEGER tokens
	Pos    Pos
}

func (t Token) String() string {
	return fmt.Sprintf("%-10s %-14q  %s", t.Type, t.Lexeme, t.Pos)
}

// Is reports whether t has the same type and payload as other, ignoring position.
func (t Token) Is(other Token) bool {
	if t.Type != other.Type {
		return false
	}
	switch t.Type {
	case IDENTIFIER:
		return t.Lexeme == other.Lexeme
	case INTEGER:
		return t.Value == other.Value
	}
	return true
}

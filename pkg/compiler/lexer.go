package compiler

import (
	"strconv"
	"unicode/utf8"
)

// keywords maps source text to its keyword TokenType.
var keywords = map[string]TokenType{
	"const":    CONST,
	"let":      LET,
	"mut":      MUT,
	"fn":       FN,
	"loop":     LOOP,
	"break":    BREAK,
	"continue": CONTINUE,
}

// TokenStream scans src lazily. Tokens are materialized on first Peek and
// buffered only as far as the parser looks ahead.
type TokenStream struct {
	src  string
	pos  int // byte offset of the next unread character
	line int // current 1-based source line
	col  int // current 1-based column

	ahead []Token // scanned but not yet consumed
	done  bool    // scanner reached end of input or failed
	err   error   // first lexical error, if any
}

// NewTokenStream returns a stream positioned at the start of src.
func NewTokenStream(src string) *TokenStream {
	return &TokenStream{src: src, line: 1, col: 1}
}

// Peek returns the head token without consuming it.
func (ts *TokenStream) Peek() (Token, bool) {
	return ts.PeekAhead(0)
}

// PeekAhead returns the token k positions past the head without consuming
// anything. PeekAhead(0) is Peek.
func (ts *TokenStream) PeekAhead(k int) (Token, bool) {
	for len(ts.ahead) <= k {
		tok, ok := ts.scan()
		if !ok {
			return Token{Type: EOF, Pos: ts.here()}, false
		}
		ts.ahead = append(ts.ahead, tok)
	}
	return ts.ahead[k], true
}

// Next consumes and returns the head token. ok is false at end of input or
// after a lexical error; Err distinguishes the two.
func (ts *TokenStream) Next() (Token, bool) {
	tok, ok := ts.Peek()
	if !ok {
		return tok, false
	}
	ts.ahead = ts.ahead[1:]
	return tok, true
}

// Err returns the first lexical error encountered, or nil.
func (ts *TokenStream) Err() error {
	return ts.err
}

// Expect consumes the next token and checks that it has type tt.
func (ts *TokenStream) Expect(tt TokenType) (Token, error) {
	tok, ok := ts.Next()
	if !ok {
		return tok, ts.endError()
	}
	if tok.Type != tt {
		if ts.err != nil {
			return tok, ts.err
		}
		return tok, &ParseError{Kind: UnexpectedToken, Token: tok, Expected: tt, Pos: tok.Pos}
	}
	return tok, nil
}

// ExpectIdentifier consumes the next token and returns its name if it is
// an identifier.
func (ts *TokenStream) ExpectIdentifier() (string, error) {
	tok, err := ts.Expect(IDENTIFIER)
	if err != nil {
		return "", err
	}
	return tok.Lexeme, nil
}

// endError reports why the stream produced no token.
func (ts *TokenStream) endError() error {
	if ts.err != nil {
		return ts.err
	}
	return &ParseError{Kind: UnexpectedEndOfInput, Pos: ts.here()}
}

func (ts *TokenStream) here() Pos {
	return Pos{Line: ts.line, Column: ts.col}
}

// peekByte returns the byte at the given offset from the cursor, or 0.
func (ts *TokenStream) peekByte(offset int) byte {
	if ts.pos+offset >= len(ts.src) {
		return 0
	}
	return ts.src[ts.pos+offset]
}

// advance consumes one byte and keeps line/column in step.
func (ts *TokenStream) advance() byte {
	if ts.pos >= len(ts.src) {
		return 0
	}
	c := ts.src[ts.pos]
	ts.pos++
	if c == '\n' {
		ts.line++
		ts.col = 1
	} else {
		ts.col++
	}
	return c
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentByte(c byte) bool {
	return c == '_' || isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// skipTrivia discards whitespace and comments until the next token or end
// of input. Block comments do not nest; an unterminated one runs to the end.
func (ts *TokenStream) skipTrivia() {
	for ts.pos < len(ts.src) {
		c := ts.peekByte(0)
		switch {
		case isSpace(c):
			ts.advance()
		case c == '/' && ts.peekByte(1) == '/':
			for ts.pos < len(ts.src) && ts.peekByte(0) != '\n' {
				ts.advance()
			}
		case c == '/' && ts.peekByte(1) == '*':
			ts.advance() // /
			ts.advance() // *
			for ts.pos < len(ts.src) && !(ts.peekByte(0) == '*' && ts.peekByte(1) == '/') {
				ts.advance()
			}
			ts.advance() // *
			ts.advance() // /
		default:
			return
		}
	}
}

// scan produces the next token from the raw input.
func (ts *TokenStream) scan() (Token, bool) {
	if ts.done {
		return Token{}, false
	}
	ts.skipTrivia()
	if ts.pos >= len(ts.src) {
		ts.done = true
		return Token{}, false
	}

	start := ts.here()
	c := ts.peekByte(0)

	if tt, ok := punctuation[c]; ok {
		ts.advance()
		return Token{Type: tt, Lexeme: string(c), Pos: start}, true
	}

	switch {
	case isDigit(c):
		return ts.scanInt(start)
	case isIdentByte(c):
		return ts.scanIdent(start), true
	}

	ts.done = true
	r, _ := utf8.DecodeRuneInString(ts.src[ts.pos:])
	ts.err = &ParseError{Kind: UnexpectedCharacter, Char: r, Pos: start}
	return Token{}, false
}

// scanInt collects a maximal run of ASCII digits as an unsigned 64-bit value.
func (ts *TokenStream) scanInt(start Pos) (Token, bool) {
	from := ts.pos
	for ts.pos < len(ts.src) && isDigit(ts.peekByte(0)) {
		ts.advance()
	}
	lexeme := ts.src[from:ts.pos]
	v, err := strconv.ParseUint(lexeme, 10, 64)
	if err != nil {
		ts.done = true
		ts.err = &ParseError{Kind: InvalidInteger, Token: Token{Type: INTEGER, Lexeme: lexeme, Pos: start}, Pos: start}
		return Token{}, false
	}
	return Token{Type: INTEGER, Lexeme: lexeme, Value: v, Pos: start}, true
}

// scanIdent collects a full identifier or keyword token.
func (ts *TokenStream) scanIdent(start Pos) Token {
	from := ts.pos
	for ts.pos < len(ts.src) && isIdentByte(ts.peekByte(0)) {
		ts.advance()
	}
	lexeme := ts.src[from:ts.pos]
	tt := IDENTIFIER
	if kw, ok := keywords[lexeme]; ok {
		tt = kw
	}
	return Token{Type: tt, Lexeme: lexeme, Pos: start}
}

// Lex drains a fresh stream over src. The returned slice always ends with
// an EOF token.
func Lex(src string) ([]Token, error) {
	ts := NewTokenStream(src)
	var tokens []Token
	for {
		tok, ok := ts.Next()
		if !ok {
			if err := ts.Err(); err != nil {
				return nil, err
			}
			return append(tokens, tok), nil
		}
		tokens = append(tokens, tok)
	}
}

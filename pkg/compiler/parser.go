package compiler

// Parser builds a Module from a TokenStream by recursive descent. It never
// backtracks and stops at the first error.
//
// Grammar:
//
//	module     = (function | constant)* EOF
//	function   = "fn" IDENTIFIER "(" ")" expression
//	constant   = "const" IDENTIFIER "=" expression ";"
//	expression = IDENTIFIER "=" expression      (when not followed by "==")
//	           | additive
//	additive   = term (("+" | "-") term)*
//	term       = factor (("*" | "/") factor)*
//	factor     = "(" expression ")" | "{" block "}" | "loop" factor
//	           | "break" | "continue" | IDENTIFIER | INTEGER
//	block      = (statement ";")* statement?
//	statement  = "let" "mut"? IDENTIFIER "=" expression | expression
type Parser struct {
	tokens *TokenStream
}

func NewParser(tokens *TokenStream) *Parser {
	return &Parser{tokens: tokens}
}

// ParseModule parses every definition in tokens into a Module called name.
func ParseModule(tokens *TokenStream, name string) (*Module, error) {
	return NewParser(tokens).parseModule(name)
}

// peek returns the current token; ok is false at end of input.
func (p *Parser) peek() (Token, bool) {
	return p.tokens.Peek()
}

// peekIs reports whether the current token has type tt.
func (p *Parser) peekIs(tt TokenType) bool {
	tok, ok := p.tokens.Peek()
	return ok && tok.Type == tt
}

// advance consumes the current token, failing at end of input.
func (p *Parser) advance() (Token, error) {
	tok, ok := p.tokens.Next()
	if !ok {
		return tok, p.tokens.endError()
	}
	return tok, nil
}

func (p *Parser) expect(tt TokenType) (Token, error) {
	return p.tokens.Expect(tt)
}

func (p *Parser) parseModule(name string) (*Module, error) {
	mod := &Module{Name: name}
	for {
		tok, ok := p.peek()
		if !ok {
			break
		}
		var def Definition
		var err error
		switch tok.Type {
		case FN:
			def, err = p.parseFunction()
		case CONST:
			def, err = p.parseConstant()
		default:
			return nil, p.fail(&ParseError{Kind: UnexpectedToken, Token: tok, Pos: tok.Pos})
		}
		if err != nil {
			return nil, err
		}
		mod.Definitions = append(mod.Definitions, def)
	}
	if err := p.tokens.Err(); err != nil {
		return nil, err
	}
	return mod, nil
}

// parseFunction handles fn name() body
func (p *Parser) parseFunction() (*Function, error) {
	fnTok, err := p.expect(FN)
	if err != nil {
		return nil, err
	}
	name, err := p.tokens.ExpectIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &Function{Name: name, Body: body, Pos: fnTok.Pos}, nil
}

// parseConstant handles const NAME = expr;
func (p *Parser) parseConstant() (*Constant, error) {
	constTok, err := p.expect(CONST)
	if err != nil {
		return nil, err
	}
	name, err := p.tokens.ExpectIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ASSIGN); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &Constant{Spec: VariableSpec{Name: name}, Value: value, Pos: constTok.Pos}, nil
}

// parseExpression is the entry point for expression parsing. It decides
// between an assignment and the additive chain with two tokens of lookahead.
func (p *Parser) parseExpression() (Expr, error) {
	head, ok := p.peek()
	if !ok {
		return nil, p.tokens.endError()
	}
	if head.Type == IDENTIFIER && p.isAssignment() {
		return p.parseAssignment()
	}
	return p.parseAdditive()
}

// isAssignment checks for IDENTIFIER "=" followed by anything but another
// "=", which stays reserved for equality. When nothing can be read after
// the "=" the value is missing, so parseAssignment reports the end of input
// or the lexical error found there.
func (p *Parser) isAssignment() bool {
	eq, ok := p.tokens.PeekAhead(1)
	if !ok || eq.Type != ASSIGN {
		return false
	}
	after, ok := p.tokens.PeekAhead(2)
	return !ok || after.Type != ASSIGN
}

// fail returns err unless the scanner already stopped on a lexical error,
// which is then the real cause.
func (p *Parser) fail(err *ParseError) error {
	if lexErr := p.tokens.Err(); lexErr != nil {
		return lexErr
	}
	return err
}

func (p *Parser) parseAssignment() (Expr, error) {
	nameTok, err := p.expect(IDENTIFIER)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ASSIGN); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &Assignment{Name: nameTok.Lexeme, Value: value, Pos: nameTok.Pos}, nil
}

// parseAdditive handles + and -, left-associative.
func (p *Parser) parseAdditive() (Expr, error) {
	expr, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.peekIs(PLUS) || p.peekIs(MINUS) {
		opTok, _ := p.advance()
		op := Add
		if opTok.Type == MINUS {
			op = Sub
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		expr = &BinaryOp{Op: op, Left: expr, Right: right, Pos: opTok.Pos}
	}
	return expr, nil
}

// parseTerm handles * and /, left-associative.
func (p *Parser) parseTerm() (Expr, error) {
	expr, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.peekIs(STAR) || p.peekIs(SLASH) {
		opTok, _ := p.advance()
		op := Mul
		if opTok.Type == SLASH {
			op = Div
		}
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		expr = &BinaryOp{Op: op, Left: expr, Right: right, Pos: opTok.Pos}
	}
	return expr, nil
}

func (p *Parser) parseFactor() (Expr, error) {
	tok, err := p.advance()
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case LPAREN:
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	case LBRACE:
		return p.parseBlock(tok)
	case LOOP:
		// The body binds as tightly as any other factor.
		body, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &Loop{Body: body, Pos: tok.Pos}, nil
	case BREAK:
		return &Break{Pos: tok.Pos}, nil
	case CONTINUE:
		return &Continue{Pos: tok.Pos}, nil
	case IDENTIFIER:
		return &VariableRef{Name: tok.Lexeme, Pos: tok.Pos}, nil
	case INTEGER:
		return &IntegerLiteral{Value: tok.Value, Pos: tok.Pos}, nil
	}
	return nil, p.fail(&ParseError{Kind: UnexpectedToken, Token: tok, Pos: tok.Pos})
}

// parseBlock parses statements after an opening brace. A statement
// followed by ";" joins the body; one followed directly by "}" becomes the
// block's value and must be an expression.
func (p *Parser) parseBlock(open Token) (Expr, error) {
	block := &Block{Pos: open.Pos}
	for !p.peekIs(RBRACE) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		tok, ok := p.peek()
		if !ok {
			return nil, p.tokens.endError()
		}
		switch tok.Type {
		case SEMICOLON:
			p.advance()
			block.Body = append(block.Body, stmt)
			continue
		case RBRACE:
			last, isExpr := stmt.(*ExprStmt)
			if !isExpr {
				return nil, p.fail(&ParseError{Kind: ExpectedExpression, Token: tok, Pos: tok.Pos})
			}
			block.Last = last.Expr
		default:
			return nil, p.fail(&ParseError{Kind: ExpectedToken, Token: tok, Expected: SEMICOLON, Pos: tok.Pos})
		}
		break
	}
	if _, err := p.expect(RBRACE); err != nil {
		return nil, err
	}
	return block, nil
}

// parseStatement handles a let-binding or a bare expression.
func (p *Parser) parseStatement() (Stmt, error) {
	if p.peekIs(LET) {
		return p.parseVariableDefinition()
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ExprStmt{Expr: expr}, nil
}

// parseVariableDefinition handles let [mut] name = expr
func (p *Parser) parseVariableDefinition() (Stmt, error) {
	letTok, err := p.expect(LET)
	if err != nil {
		return nil, err
	}
	mutable := false
	if p.peekIs(MUT) {
		p.advance()
		mutable = true
	}
	name, err := p.tokens.ExpectIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ASSIGN); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &VariableDefinition{
		Spec:  VariableSpec{Name: name, IsMutable: mutable},
		Value: value,
		Pos:   letTok.Pos,
	}, nil
}

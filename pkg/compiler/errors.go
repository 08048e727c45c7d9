package compiler

import (
	"fmt"

	"github.com/pkg/errors"
)

// ParseErrorKind classifies lexical and syntactic failures.
type ParseErrorKind int

const (
	UnexpectedToken ParseErrorKind = iota
	ExpectedToken
	UnexpectedEndOfInput
	ExpectedExpression
	UnexpectedCharacter
	InvalidInteger
)

var parseErrorNames = [...]string{
	UnexpectedToken:      "UnexpectedToken",
	ExpectedToken:        "ExpectedToken",
	UnexpectedEndOfInput: "UnexpectedEndOfInput",
	ExpectedExpression:   "ExpectedExpression",
	UnexpectedCharacter:  "UnexpectedCharacter",
	InvalidInteger:       "InvalidInteger",
}

func (k ParseErrorKind) String() string {
	if int(k) >= 0 && int(k) < len(parseErrorNames) {
		return parseErrorNames[k]
	}
	return fmt.Sprintf("ParseErrorKind(%d)", int(k))
}

// ParseError is the single terminal error of a failed lex or parse.
type ParseError struct {
	Kind     ParseErrorKind
	Token    Token     // offending token (UnexpectedToken, InvalidInteger)
	Expected TokenType // wanted token type (ExpectedToken, and UnexpectedToken from Expect)
	Char     rune      // offending character (UnexpectedCharacter)
	Pos      Pos
}

func (e *ParseError) Error() string {
	var msg string
	switch e.Kind {
	case UnexpectedToken:
		msg = fmt.Sprintf("unexpected %s %q", e.Token.Type, e.Token.Lexeme)
	case ExpectedToken:
		msg = fmt.Sprintf("expected %s, got %s %q", e.Expected, e.Token.Type, e.Token.Lexeme)
	case UnexpectedEndOfInput:
		msg = "unexpected end of input"
	case ExpectedExpression:
		msg = "expected an expression at the end of the block"
	case UnexpectedCharacter:
		msg = fmt.Sprintf("unexpected character %q", e.Char)
	case InvalidInteger:
		msg = fmt.Sprintf("integer literal %s does not fit in 64 bits", e.Token.Lexeme)
	default:
		msg = e.Kind.String()
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", e.Pos, msg)
	}
	return msg
}

// CodegenErrorKind classifies semantic failures found while lowering.
type CodegenErrorKind int

const (
	NameNotFound CodegenErrorKind = iota
	ReassignedImmutable
	OperandHasNoValue
	LoopControlOutsideLoop
	VerificationFailed
	UnsupportedParameters
	DuplicateDefinition
	NonConstantInitializer
	DivisionByZero
	IntegerOutOfRange
)

var codegenErrorNames = [...]string{
	NameNotFound:           "NameNotFound",
	ReassignedImmutable:    "ReassignedImmutable",
	OperandHasNoValue:      "OperandHasNoValue",
	LoopControlOutsideLoop: "LoopControlOutsideLoop",
	VerificationFailed:     "VerificationFailed",
	UnsupportedParameters:  "UnsupportedParameters",
	DuplicateDefinition:    "DuplicateDefinition",
	NonConstantInitializer: "NonConstantInitializer",
	DivisionByZero:         "DivisionByZero",
	IntegerOutOfRange:      "IntegerOutOfRange",
}

func (k CodegenErrorKind) String() string {
	if int(k) >= 0 && int(k) < len(codegenErrorNames) {
		return codegenErrorNames[k]
	}
	return fmt.Sprintf("CodegenErrorKind(%d)", int(k))
}

// CodegenError is the first semantic failure of a Generate call.
type CodegenError struct {
	Kind   CodegenErrorKind
	Name   string // binding, function or keyword involved, if any
	Detail string // free-form context, e.g. the verifier's complaint
	Pos    Pos
}

func (e *CodegenError) Error() string {
	var msg string
	switch e.Kind {
	case NameNotFound:
		msg = fmt.Sprintf("name %q not found", e.Name)
	case ReassignedImmutable:
		msg = fmt.Sprintf("cannot assign to immutable binding %q", e.Name)
	case OperandHasNoValue:
		msg = "operand has no value"
	case LoopControlOutsideLoop:
		msg = fmt.Sprintf("%s used outside of a loop", e.Name)
	case VerificationFailed:
		msg = fmt.Sprintf("function %q failed verification: %s", e.Name, e.Detail)
	case UnsupportedParameters:
		msg = fmt.Sprintf("function %q declares parameters, which are not supported", e.Name)
	case DuplicateDefinition:
		msg = fmt.Sprintf("%q is already defined", e.Name)
	case NonConstantInitializer:
		msg = fmt.Sprintf("initializer of constant %q is not a constant expression", e.Name)
	case DivisionByZero:
		msg = fmt.Sprintf("division by zero in constant %q", e.Name)
	case IntegerOutOfRange:
		msg = fmt.Sprintf("integer literal %s does not fit in 32 bits", e.Detail)
	default:
		msg = e.Kind.String()
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", e.Pos, msg)
	}
	return msg
}

// IsParseError reports whether err, or anything it wraps, is a ParseError
// of the given kind.
func IsParseError(err error, kind ParseErrorKind) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Kind == kind
}

// IsCodegenError reports whether err, or anything it wraps, is a
// CodegenError of the given kind.
func IsCodegenError(err error, kind CodegenErrorKind) bool {
	var ce *CodegenError
	return errors.As(err, &ce) && ce.Kind == kind
}

// ErrorPos extracts the source position carried by err, if any.
func ErrorPos(err error) (Pos, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Pos, pe.Pos.IsValid()
	}
	var ce *CodegenError
	if errors.As(err, &ce) {
		return ce.Pos, ce.Pos.IsValid()
	}
	return Pos{}, false
}

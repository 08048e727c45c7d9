package compiler

import (
	"github.com/llir/llvm/ir"
	"github.com/pkg/errors"
)

// Parse lexes and parses src into a Module called name.
func Parse(src, name string) (*Module, error) {
	return ParseModule(NewTokenStream(src), name)
}

// Compile runs the whole pipeline over src. Errors are wrapped with the
// stage that produced them; IsParseError and IsCodegenError see through
// the wrapping.
func Compile(src, name string) (*ir.Module, error) {
	mod, err := Parse(src, name)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	m, err := Generate(mod, NewSymbolTable())
	if err != nil {
		return nil, errors.Wrap(err, "codegen")
	}
	return m, nil
}

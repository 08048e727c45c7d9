package main

import (
	"fmt"
	"strings"

	"embryon/pkg/compiler"
	"embryon/pkg/interp"
)

// replFunc wraps a bare expression typed at the prompt.
const replFunc = "__repl"

// session holds the definitions accepted so far. Every input is compiled
// together with all of them, so later lines can use earlier constants.
type session struct {
	defs     []string
	maxSteps int
}

func newSession(maxSteps int) *session {
	return &session{maxSteps: maxSteps}
}

func isDefinition(input string) bool {
	tok, ok := compiler.NewTokenStream(input).Peek()
	return ok && (tok.Type == compiler.FN || tok.Type == compiler.CONST)
}

func wrap(input string) string {
	if isDefinition(input) {
		return input
	}
	return "fn " + replFunc + "() " + input
}

// incomplete reports whether input stops before its construct is finished,
// so the prompt should ask for another line.
func incomplete(input string) bool {
	_, err := compiler.Parse(wrap(input), "repl")
	return compiler.IsParseError(err, compiler.UnexpectedEndOfInput)
}

func (s *session) source(extra string) string {
	parts := append(s.defs[:len(s.defs):len(s.defs)], extra)
	return strings.Join(parts, "\n")
}

// eval compiles one complete input. Definitions are remembered and
// described; expressions are run and their value returned.
func (s *session) eval(input string) (string, error) {
	if isDefinition(input) {
		mod, err := compiler.Parse(input, "repl")
		if err != nil {
			return "", err
		}
		if _, err := compiler.Compile(s.source(input), "repl"); err != nil {
			return "", err
		}
		s.defs = append(s.defs, input)

		names := make([]string, len(mod.Definitions))
		for i, d := range mod.Definitions {
			switch d.(type) {
			case *compiler.Constant:
				names[i] = "const " + d.DefName()
			default:
				names[i] = "fn " + d.DefName()
			}
		}
		return "defined " + strings.Join(names, ", "), nil
	}

	m, err := compiler.Compile(s.source(wrap(input)), "repl")
	if err != nil {
		return "", err
	}
	v, err := interp.Run(m, replFunc, interp.WithMaxSteps(s.maxSteps))
	if err != nil {
		return "", err
	}
	return fmt.Sprint(v), nil
}

// ir renders the module built from the current definitions.
func (s *session) ir() (string, error) {
	m, err := compiler.Compile(s.source(""), "repl")
	if err != nil {
		return "", err
	}
	return m.String(), nil
}

func (s *session) reset() {
	s.defs = nil
}

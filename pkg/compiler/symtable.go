package compiler

import (
	"fmt"
	"strings"

	"github.com/llir/llvm/ir"
	"golang.org/x/exp/slices"
)

// SymbolKind separates module constants from let-bindings.
type SymbolKind int

const (
	SymConstant SymbolKind = iota
	SymVariable
)

// Symbol is one entry of the named-value table.
type Symbol struct {
	Kind   SymbolKind
	Spec   VariableSpec
	Global *ir.Global     // set for SymConstant
	Slot   *ir.InstAlloca // set for SymVariable
}

// SymbolTable maps names to constants and let-bindings.
// Constants live in the global scope; each function body and each block
// pushes a local scope, and a let shadows any outer binding of its name.
type SymbolTable struct {
	globals map[string]Symbol

	// Stack of local scopes, innermost last.
	locals []map[string]Symbol
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{globals: make(map[string]Symbol)}
}

// DefineConstant binds name to an immutable module global.
func (s *SymbolTable) DefineConstant(name string, g *ir.Global) {
	s.globals[name] = Symbol{Kind: SymConstant, Spec: VariableSpec{Name: name}, Global: g}
}

func (s *SymbolTable) EnterFunction() {
	s.locals = []map[string]Symbol{make(map[string]Symbol)}
}

func (s *SymbolTable) ExitFunction() {
	s.locals = nil
}

func (s *SymbolTable) EnterScope() {
	if len(s.locals) == 0 {
		panic("EnterScope called outside function")
	}
	s.locals = append(s.locals, make(map[string]Symbol))
}

func (s *SymbolTable) ExitScope() {
	if len(s.locals) > 0 {
		s.locals = s.locals[:len(s.locals)-1]
	}
}

// DefineVariable binds a let in the innermost scope.
func (s *SymbolTable) DefineVariable(spec VariableSpec, slot *ir.InstAlloca) {
	if len(s.locals) == 0 {
		panic("DefineVariable called outside function scope")
	}
	s.locals[len(s.locals)-1][spec.Name] = Symbol{Kind: SymVariable, Spec: spec, Slot: slot}
}

// Lookup resolves name from the innermost scope outwards.
func (s *SymbolTable) Lookup(name string) (Symbol, bool) {
	for i := len(s.locals) - 1; i >= 0; i-- {
		if sym, ok := s.locals[i][name]; ok {
			return sym, true
		}
	}
	sym, ok := s.globals[name]
	return sym, ok
}

// Depth is the number of open local scopes.
func (s *SymbolTable) Depth() int {
	return len(s.locals)
}

// Constants lists the names of all module constants in sorted order.
func (s *SymbolTable) Constants() []string {
	names := make([]string, 0, len(s.globals))
	for name := range s.globals {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (s *SymbolTable) String() string {
	var b strings.Builder
	b.WriteString("Symbol Table\n")
	for _, name := range s.Constants() {
		fmt.Fprintf(&b, "  const %-12s @%s\n", name, s.globals[name].Global.Name())
	}
	for depth, scope := range s.locals {
		names := make([]string, 0, len(scope))
		for name := range scope {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			fmt.Fprintf(&b, "  [%d] let %-10s %s\n", depth, scope[name].Spec, scope[name].Slot.Ident())
		}
	}
	return b.String()
}

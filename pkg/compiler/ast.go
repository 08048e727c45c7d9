package compiler

import (
	"fmt"
	"strings"
)

// Module is the root of one compilation unit.
type Module struct {
	Name        string
	Definitions []Definition
}

func (m *Module) String() string {
	parts := make([]string, len(m.Definitions))
	for i, d := range m.Definitions {
		parts[i] = d.String()
	}
	return fmt.Sprintf("(module %s %s)", m.Name, strings.Join(parts, " "))
}

// Definition is implemented by every top-level item.
type Definition interface {
	definitionNode()
	DefName() string
	String() string
}

// VariableSpec declares a binding's name and mutability. It is shared by
// function parameters, let-bindings and constants.
type VariableSpec struct {
	Name      string
	IsMutable bool
}

func (s VariableSpec) String() string {
	if s.IsMutable {
		return "mut " + s.Name
	}
	return s.Name
}

// Function represents fn name() body
type Function struct {
	Name   string
	Params []VariableSpec // always empty from the parser
	Body   Expr
	Pos    Pos
}

func (*Function) definitionNode()   {}
func (f *Function) DefName() string { return f.Name }
func (f *Function) String() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.String()
	}
	return fmt.Sprintf("(fn %s (%s) %s)", f.Name, strings.Join(params, " "), f.Body)
}

// Constant represents const NAME = value;
//
//	const x = 1 + 2;
//	      ^   ^^^^^  Constant{Spec: {Name: "x"}, Value: BinaryOp{...}}
type Constant struct {
	Spec  VariableSpec // never mutable
	Value Expr
	Pos   Pos
}

func (*Constant) definitionNode()   {}
func (c *Constant) DefName() string { return c.Spec.Name }
func (c *Constant) String() string {
	return fmt.Sprintf("(const %s %s)", c.Spec.Name, c.Value)
}

//  Expression nodes

// Expr is implemented by every expression node. Lowering an Expr yields
// either an i32 value or no value at all.
type Expr interface {
	exprNode()
	Position() Pos
	String() string
}

// IntegerLiteral is an unsigned decimal literal as written in the source.
type IntegerLiteral struct {
	Value uint64
	Pos   Pos
}

func (*IntegerLiteral) exprNode()        {}
func (l *IntegerLiteral) Position() Pos  { return l.Pos }
func (l *IntegerLiteral) String() string { return fmt.Sprintf("%d", l.Value) }

// VariableRef is a read of a named constant or let-binding.
type VariableRef struct {
	Name string
	Pos  Pos
}

func (*VariableRef) exprNode()        {}
func (v *VariableRef) Position() Pos  { return v.Pos }
func (v *VariableRef) String() string { return v.Name }

// BinOpKind is one of the four integer operators.
type BinOpKind int

const (
	Add BinOpKind = iota
	Sub
	Mul
	Div
)

func (k BinOpKind) String() string {
	switch k {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	}
	return fmt.Sprintf("BinOpKind(%d)", int(k))
}

// BinaryOp represents Left Op Right.
//
//	x + 1
//	^ ^ ^
//	| | |
//	| | Right
//	| Op
//	Left
type BinaryOp struct {
	Op    BinOpKind
	Left  Expr
	Right Expr
	Pos   Pos // position of the operator
}

func (*BinaryOp) exprNode()       {}
func (b *BinaryOp) Position() Pos { return b.Pos }
func (b *BinaryOp) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Op, b.Left, b.Right)
}

// Block represents { stmt; stmt; last }. A block without Last has no value.
type Block struct {
	Body []Stmt
	Last Expr // may be nil
	Pos  Pos
}

func (*Block) exprNode()       {}
func (b *Block) Position() Pos { return b.Pos }
func (b *Block) String() string {
	parts := make([]string, 0, len(b.Body)+1)
	for _, s := range b.Body {
		parts = append(parts, s.String()+";")
	}
	if b.Last != nil {
		parts = append(parts, b.Last.String())
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// Assignment represents Name = Value. Its own value is the stored value.
type Assignment struct {
	Name  string
	Value Expr
	Pos   Pos
}

func (*Assignment) exprNode()       {}
func (a *Assignment) Position() Pos { return a.Pos }
func (a *Assignment) String() string {
	return fmt.Sprintf("(= %s %s)", a.Name, a.Value)
}

// Loop repeats Body until a break leaves it.
type Loop struct {
	Body Expr
	Pos  Pos
}

func (*Loop) exprNode()        {}
func (l *Loop) Position() Pos  { return l.Pos }
func (l *Loop) String() string { return fmt.Sprintf("(loop %s)", l.Body) }

// Break jumps past the innermost enclosing loop.
type Break struct {
	Pos Pos
}

func (*Break) exprNode()        {}
func (b *Break) Position() Pos  { return b.Pos }
func (b *Break) String() string { return "break" }

// Continue jumps back to the header of the innermost enclosing loop.
type Continue struct {
	Pos Pos
}

func (*Continue) exprNode()        {}
func (c *Continue) Position() Pos  { return c.Pos }
func (c *Continue) String() string { return "continue" }

//  Statement nodes

// Stmt is implemented by every node that may appear in a block body.
type Stmt interface {
	stmtNode()
	String() string
}

// ExprStmt is an expression evaluated for its side effects.
type ExprStmt struct {
	Expr Expr
}

func (*ExprStmt) stmtNode()        {}
func (e *ExprStmt) String() string { return e.Expr.String() }

// VariableDefinition represents let [mut] name = value
type VariableDefinition struct {
	Spec  VariableSpec
	Value Expr // may be nil when built outside the parser
	Pos   Pos
}

func (*VariableDefinition) stmtNode() {}
func (d *VariableDefinition) String() string {
	if d.Value == nil {
		return fmt.Sprintf("(let %s)", d.Spec)
	}
	return fmt.Sprintf("(let %s %s)", d.Spec, d.Value)
}

package compiler

import (
	"fmt"
	"math"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// CodeGen walks a Module once and emits LLVM IR into an ir.Module.
type CodeGen struct {
	syms   *SymbolTable
	module *ir.Module

	fn    *ir.Func
	entry *ir.Block      // entry block of fn; every alloca goes here
	block *ir.Block      // current insertion point
	names map[string]int // local names already used in fn
}

// loopTarget is where break and continue jump for one enclosing loop.
type loopTarget struct {
	header *ir.Block
	exit   *ir.Block
}

func newCodeGen(syms *SymbolTable, name string) *CodeGen {
	m := ir.NewModule()
	m.SourceFilename = name
	return &CodeGen{syms: syms, module: m}
}

// uniqueName returns base, or base with a numeric suffix if base is
// already taken in the current function. Labels and values share one
// namespace in LLVM.
func (cg *CodeGen) uniqueName(base string) string {
	n := cg.names[base]
	cg.names[base] = n + 1
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s.%d", base, n)
}

func (cg *CodeGen) newBlock(base string) *ir.Block {
	return cg.fn.NewBlock(cg.uniqueName(base))
}

// genFunction emits fn name() i32. A body without a value returns 0.
func (cg *CodeGen) genFunction(f *Function) error {
	if len(f.Params) > 0 {
		return &CodegenError{Kind: UnsupportedParameters, Name: f.Name, Pos: f.Pos}
	}

	cg.fn = cg.module.NewFunc(f.Name, types.I32)
	cg.names = make(map[string]int)
	cg.entry = cg.newBlock("entry")
	cg.block = cg.entry

	cg.syms.EnterFunction()
	defer cg.syms.ExitFunction()

	result, err := cg.genExpr(f.Body, nil)
	if err != nil {
		return err
	}
	if result == nil {
		// No unit type yet: value-less bodies return a placeholder zero.
		result = constant.NewInt(types.I32, 0)
	}
	if cg.block.Term == nil {
		cg.block.NewRet(result)
	}

	if err := verifyFunc(cg.fn); err != nil {
		return &CodegenError{Kind: VerificationFailed, Name: f.Name, Detail: err.Error(), Pos: f.Pos}
	}
	return nil
}

// genExpr lowers e at the current insertion point. A nil value means the
// expression produced no value. loops lists the enclosing loops, innermost
// last.
func (cg *CodeGen) genExpr(e Expr, loops []loopTarget) (value.Value, error) {
	switch n := e.(type) {
	case *IntegerLiteral:
		return integerConstant(n)

	case *VariableRef:
		sym, ok := cg.syms.Lookup(n.Name)
		if !ok {
			return nil, &CodegenError{Kind: NameNotFound, Name: n.Name, Pos: n.Pos}
		}
		if sym.Kind == SymConstant {
			return cg.block.NewLoad(types.I32, sym.Global), nil
		}
		return cg.block.NewLoad(types.I32, sym.Slot), nil

	case *Assignment:
		sym, ok := cg.syms.Lookup(n.Name)
		if !ok {
			return nil, &CodegenError{Kind: NameNotFound, Name: n.Name, Pos: n.Pos}
		}
		if sym.Kind == SymConstant || !sym.Spec.IsMutable {
			return nil, &CodegenError{Kind: ReassignedImmutable, Name: n.Name, Pos: n.Pos}
		}
		v, err := cg.genExpr(n.Value, loops)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, &CodegenError{Kind: OperandHasNoValue, Name: n.Name, Pos: n.Value.Position()}
		}
		cg.block.NewStore(v, sym.Slot)
		return v, nil

	case *BinaryOp:
		return cg.genBinaryOp(n, loops)

	case *Block:
		return cg.genBlock(n, loops)

	case *Loop:
		return nil, cg.genLoop(n, loops)

	case *Break:
		if len(loops) == 0 {
			return nil, &CodegenError{Kind: LoopControlOutsideLoop, Name: "break", Pos: n.Pos}
		}
		cg.jump(loops[len(loops)-1].exit, "after_break")
		return nil, nil

	case *Continue:
		if len(loops) == 0 {
			return nil, &CodegenError{Kind: LoopControlOutsideLoop, Name: "continue", Pos: n.Pos}
		}
		cg.jump(loops[len(loops)-1].header, "after_continue")
		return nil, nil
	}
	return nil, fmt.Errorf("unhandled expression %T", e)
}

// integerConstant narrows a source literal to the 32-bit machine integer.
// Values past MaxInt32 keep their bit pattern.
func integerConstant(n *IntegerLiteral) (*constant.Int, error) {
	if n.Value > math.MaxUint32 {
		return nil, &CodegenError{Kind: IntegerOutOfRange, Detail: fmt.Sprint(n.Value), Pos: n.Pos}
	}
	return constant.NewInt(types.I32, int64(int32(uint32(n.Value)))), nil
}

func (cg *CodeGen) genBinaryOp(n *BinaryOp, loops []loopTarget) (value.Value, error) {
	lhs, err := cg.genExpr(n.Left, loops)
	if err != nil {
		return nil, err
	}
	if lhs == nil {
		return nil, &CodegenError{Kind: OperandHasNoValue, Pos: n.Left.Position()}
	}
	rhs, err := cg.genExpr(n.Right, loops)
	if err != nil {
		return nil, err
	}
	if rhs == nil {
		return nil, &CodegenError{Kind: OperandHasNoValue, Pos: n.Right.Position()}
	}

	switch n.Op {
	case Add:
		return cg.block.NewAdd(lhs, rhs), nil
	case Sub:
		return cg.block.NewSub(lhs, rhs), nil
	case Mul:
		return cg.block.NewMul(lhs, rhs), nil
	case Div:
		return cg.block.NewSDiv(lhs, rhs), nil
	}
	return nil, fmt.Errorf("unhandled operator %s", n.Op)
}

// genBlock lowers each statement in a fresh scope, then the trailing
// expression if there is one.
func (cg *CodeGen) genBlock(b *Block, loops []loopTarget) (value.Value, error) {
	cg.syms.EnterScope()
	defer cg.syms.ExitScope()

	for _, s := range b.Body {
		if err := cg.genStmt(s, loops); err != nil {
			return nil, err
		}
	}
	if b.Last == nil {
		return nil, nil
	}
	return cg.genExpr(b.Last, loops)
}

func (cg *CodeGen) genStmt(s Stmt, loops []loopTarget) error {
	switch n := s.(type) {
	case *ExprStmt:
		_, err := cg.genExpr(n.Expr, loops)
		return err

	case *VariableDefinition:
		slot := cg.entry.NewAlloca(types.I32)
		slot.SetName(cg.uniqueName(n.Spec.Name))
		if n.Value != nil {
			v, err := cg.genExpr(n.Value, loops)
			if err != nil {
				return err
			}
			if v == nil {
				return &CodegenError{Kind: OperandHasNoValue, Name: n.Spec.Name, Pos: n.Value.Position()}
			}
			cg.block.NewStore(v, slot)
		}
		// Registered after the initializer so `let x = x + 1` reads the outer x.
		cg.syms.DefineVariable(n.Spec, slot)
		return nil
	}
	return fmt.Errorf("unhandled statement %T", s)
}

// genLoop emits
//
//	br header
//	header:  body...; br header   (back-edge only if the body fell through)
//	exit:    <emission resumes here>
func (cg *CodeGen) genLoop(n *Loop, loops []loopTarget) error {
	header := cg.newBlock("loop_header")
	exit := cg.newBlock("loop_exit")

	cg.block.NewBr(header)
	cg.block = header

	inner := append(loops[:len(loops):len(loops)], loopTarget{header: header, exit: exit})
	if _, err := cg.genExpr(n.Body, inner); err != nil {
		return err
	}

	// The body may have left us in a different block than header; it is the
	// one control falls off, and it must be terminated exactly once.
	if cg.block.Term == nil {
		cg.block.NewBr(header)
	}

	cg.block = exit
	return nil
}

// jump terminates the current block with a branch to target and moves
// emission to a fresh unreachable block, so nothing is ever appended after
// a terminator.
func (cg *CodeGen) jump(target *ir.Block, next string) {
	cg.block.NewBr(target)
	cg.block = cg.newBlock(next)
}

// Generate lowers mod into a new LLVM IR module. Constants are emitted
// first in source order, then functions, so any function may read any
// constant. On error no module is returned.
func Generate(mod *Module, syms *SymbolTable) (*ir.Module, error) {
	if syms == nil {
		syms = NewSymbolTable()
	}
	cg := newCodeGen(syms, mod.Name)

	seen := make(map[string]bool)
	for _, d := range mod.Definitions {
		if seen[d.DefName()] {
			return nil, &CodegenError{Kind: DuplicateDefinition, Name: d.DefName(), Pos: definitionPos(d)}
		}
		seen[d.DefName()] = true
	}

	for _, d := range mod.Definitions {
		if c, ok := d.(*Constant); ok {
			if err := cg.genConstant(c); err != nil {
				return nil, err
			}
		}
	}

	for _, d := range mod.Definitions {
		if f, ok := d.(*Function); ok {
			if err := cg.genFunction(f); err != nil {
				return nil, err
			}
		}
	}

	return cg.module, nil
}

func definitionPos(d Definition) Pos {
	switch n := d.(type) {
	case *Function:
		return n.Pos
	case *Constant:
		return n.Pos
	}
	return Pos{}
}

package compiler

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// genConstant folds the initializer of c and emits it as an immutable
// i32 global.
func (cg *CodeGen) genConstant(c *Constant) error {
	v, err := cg.foldConst(c.Spec.Name, c.Value)
	if err != nil {
		return err
	}
	g := cg.module.NewGlobalDef(c.Spec.Name, constant.NewInt(types.I32, int64(v)))
	g.Immutable = true
	cg.syms.DefineConstant(c.Spec.Name, g)
	return nil
}

// foldConst evaluates e at compile time. Only literals, earlier constants,
// arithmetic on those, and blocks holding nothing but a value expression
// are constant. Arithmetic wraps like the generated code does.
func (cg *CodeGen) foldConst(owner string, e Expr) (int32, error) {
	switch n := e.(type) {
	case *IntegerLiteral:
		c, err := integerConstant(n)
		if err != nil {
			return 0, err
		}
		return int32(c.X.Int64()), nil

	case *VariableRef:
		sym, ok := cg.syms.Lookup(n.Name)
		if !ok {
			return 0, &CodegenError{Kind: NameNotFound, Name: n.Name, Pos: n.Pos}
		}
		if sym.Kind != SymConstant {
			return 0, &CodegenError{Kind: NonConstantInitializer, Name: owner, Pos: n.Pos}
		}
		return globalValue(sym)

	case *BinaryOp:
		lhs, err := cg.foldConst(owner, n.Left)
		if err != nil {
			return 0, err
		}
		rhs, err := cg.foldConst(owner, n.Right)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case Add:
			return lhs + rhs, nil
		case Sub:
			return lhs - rhs, nil
		case Mul:
			return lhs * rhs, nil
		case Div:
			if rhs == 0 {
				return 0, &CodegenError{Kind: DivisionByZero, Name: owner, Pos: n.Pos}
			}
			// MinInt32 / -1 wraps back to MinInt32 in Go, as in sdiv.
			return lhs / rhs, nil
		}

	case *Block:
		if len(n.Body) == 0 && n.Last != nil {
			return cg.foldConst(owner, n.Last)
		}
	}
	return 0, &CodegenError{Kind: NonConstantInitializer, Name: owner, Pos: e.Position()}
}

func globalValue(sym Symbol) (int32, error) {
	init, ok := sym.Global.Init.(*constant.Int)
	if !ok {
		return 0, &CodegenError{Kind: NonConstantInitializer, Name: sym.Spec.Name}
	}
	return int32(init.X.Int64()), nil
}

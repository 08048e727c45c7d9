package compiler

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"golang.org/x/exp/slices"
)

// verifyFunc checks the structural invariants every emitted function must
// hold before it leaves the generator.
func verifyFunc(f *ir.Func) error {
	if len(f.Blocks) == 0 {
		return fmt.Errorf("no basic blocks")
	}
	for _, b := range f.Blocks {
		if b.Term == nil {
			return fmt.Errorf("block %s has no terminator", b.Ident())
		}
		for _, succ := range b.Term.Succs() {
			if !slices.Contains(f.Blocks, succ) {
				return fmt.Errorf("block %s branches to %s outside the function", b.Ident(), succ.Ident())
			}
		}
		if ret, ok := b.Term.(*ir.TermRet); ok {
			if ret.X == nil || !ret.X.Type().Equal(types.I32) {
				return fmt.Errorf("block %s does not return i32", b.Ident())
			}
		}
	}
	return nil
}

// Package interp executes LLVM IR modules produced by the compiler package
// one instruction at a time. It understands exactly the i32 subset the
// generator emits: alloca, load, store, add, sub, mul, sdiv, br and ret.
package interp

import (
	"fmt"
	"io"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/value"
	"github.com/pkg/errors"
)

// DefaultMaxSteps bounds Run when no WithMaxSteps option is given.
const DefaultMaxSteps = 1_000_000

var (
	ErrStepLimit    = errors.New("step limit exceeded")
	ErrDivideByZero = errors.New("integer division by zero")
	ErrNoEntry      = errors.New("entry function not found")
)

// Option configures a Machine.
type Option func(*Machine)

// WithMaxSteps caps the number of executed instructions. Zero or less
// means DefaultMaxSteps.
func WithMaxSteps(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.maxSteps = n
		}
	}
}

// WithTrace writes every executed instruction to w.
func WithTrace(w io.Writer) Option {
	return func(m *Machine) { m.trace = w }
}

// Machine is the execution state of one function call.
type Machine struct {
	Halted bool
	Result int32 // valid once Halted
	Steps  int

	fn    *ir.Func
	block *ir.Block
	pc    int // index into block.Insts; len(block.Insts) means the terminator

	memory map[value.Value]int32 // alloca slots and globals
	values map[value.Value]int32 // SSA results

	maxSteps int
	trace    io.Writer
}

// New prepares a Machine that will run the function entry of m.
func New(m *ir.Module, entry string, opts ...Option) (*Machine, error) {
	var fn *ir.Func
	for _, f := range m.Funcs {
		if f.Name() == entry {
			fn = f
			break
		}
	}
	if fn == nil {
		return nil, errors.Wrapf(ErrNoEntry, "@%s", entry)
	}
	if len(fn.Params) > 0 {
		return nil, errors.Errorf("@%s takes parameters", entry)
	}
	if len(fn.Blocks) == 0 {
		return nil, errors.Errorf("@%s has no body", entry)
	}

	mach := &Machine{
		fn:       fn,
		block:    fn.Blocks[0],
		memory:   make(map[value.Value]int32),
		values:   make(map[value.Value]int32),
		maxSteps: DefaultMaxSteps,
	}
	for _, g := range m.Globals {
		init, ok := g.Init.(*constant.Int)
		if !ok {
			return nil, errors.Errorf("global @%s has no integer initializer", g.Name())
		}
		mach.memory[g] = int32(init.X.Int64())
	}
	for _, opt := range opts {
		opt(mach)
	}
	return mach, nil
}

// Run executes m's entry function and returns its i32 result.
func Run(m *ir.Module, entry string, opts ...Option) (int32, error) {
	mach, err := New(m, entry, opts...)
	if err != nil {
		return 0, err
	}
	return mach.Run()
}

// Run steps until the function returns or the step budget is spent.
func (m *Machine) Run() (int32, error) {
	for !m.Halted {
		if m.Steps >= m.maxSteps {
			return 0, errors.Wrapf(ErrStepLimit, "after %d steps in @%s", m.Steps, m.fn.Name())
		}
		if err := m.Step(); err != nil {
			return 0, err
		}
	}
	return m.Result, nil
}

// Step executes a single instruction or terminator.
func (m *Machine) Step() error {
	if m.Halted {
		return nil
	}
	m.Steps++

	if m.pc < len(m.block.Insts) {
		inst := m.block.Insts[m.pc]
		m.pc++
		m.traceInst(inst)
		return m.exec(inst)
	}

	term := m.block.Term
	if term == nil {
		return errors.Errorf("block %s has no terminator", m.block.Ident())
	}
	m.traceInst(term)

	switch t := term.(type) {
	case *ir.TermRet:
		if t.X == nil {
			return errors.New("ret without a value")
		}
		v, err := m.eval(t.X)
		if err != nil {
			return err
		}
		m.Result = v
		m.Halted = true
	case *ir.TermBr:
		succs := t.Succs()
		if len(succs) != 1 {
			return errors.Errorf("malformed br in %s", m.block.Ident())
		}
		m.block = succs[0]
		m.pc = 0
	default:
		return errors.Errorf("unsupported terminator %T", term)
	}
	return nil
}

func (m *Machine) exec(inst ir.Instruction) error {
	switch i := inst.(type) {
	case *ir.InstAlloca:
		m.memory[i] = 0
	case *ir.InstLoad:
		v, ok := m.memory[i.Src]
		if !ok {
			return errors.Errorf("load from unknown address %s", i.Src.Ident())
		}
		m.values[i] = v
	case *ir.InstStore:
		if _, ok := m.memory[i.Dst]; !ok {
			return errors.Errorf("store to unknown address %s", i.Dst.Ident())
		}
		v, err := m.eval(i.Src)
		if err != nil {
			return err
		}
		m.memory[i.Dst] = v
	case *ir.InstAdd:
		return m.binary(i, i.X, i.Y, func(x, y int32) (int32, error) { return x + y, nil })
	case *ir.InstSub:
		return m.binary(i, i.X, i.Y, func(x, y int32) (int32, error) { return x - y, nil })
	case *ir.InstMul:
		return m.binary(i, i.X, i.Y, func(x, y int32) (int32, error) { return x * y, nil })
	case *ir.InstSDiv:
		return m.binary(i, i.X, i.Y, func(x, y int32) (int32, error) {
			if y == 0 {
				return 0, ErrDivideByZero
			}
			return x / y, nil
		})
	default:
		return errors.Errorf("unsupported instruction %T", inst)
	}
	return nil
}

func (m *Machine) binary(dst value.Value, x, y value.Value, op func(x, y int32) (int32, error)) error {
	a, err := m.eval(x)
	if err != nil {
		return err
	}
	b, err := m.eval(y)
	if err != nil {
		return err
	}
	r, err := op(a, b)
	if err != nil {
		return errors.Wrapf(err, "in @%s", m.fn.Name())
	}
	m.values[dst] = r
	return nil
}

func (m *Machine) eval(v value.Value) (int32, error) {
	if c, ok := v.(*constant.Int); ok {
		return int32(c.X.Int64()), nil
	}
	r, ok := m.values[v]
	if !ok {
		return 0, errors.Errorf("use of undefined value %s", v.Ident())
	}
	return r, nil
}

func (m *Machine) traceInst(inst interface{}) {
	if m.trace == nil {
		return
	}
	if s, ok := inst.(interface{ LLString() string }); ok {
		fmt.Fprintf(m.trace, "%-12s %s\n", m.block.Ident(), s.LLString())
		return
	}
	fmt.Fprintf(m.trace, "%-12s %v\n", m.block.Ident(), inst)
}

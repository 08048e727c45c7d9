package compiler

import (
	"strings"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// assertContains checks if the generated code contains the expected substring.
func assertContains(t *testing.T, code, expected string) {
	t.Helper()
	if !strings.Contains(code, expected) {
		t.Errorf("Expected code to contain %q, but it didn't.\nCode:\n%s", expected, code)
	}
}

func mustCompile(t *testing.T, src string) *ir.Module {
	t.Helper()
	m, err := Compile(src, "test")
	if err != nil {
		t.Fatalf("Compile(%q) failed: %v", src, err)
	}
	return m
}

func findFunc(m *ir.Module, name string) *ir.Func {
	for _, f := range m.Funcs {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

func TestGenerate_ReturnsLiteral(t *testing.T) {
	code := mustCompile(t, "fn main() 42").String()
	assertContains(t, code, "define i32 @main()")
	assertContains(t, code, "entry:")
	assertContains(t, code, "ret i32 42")
}

func TestGenerate_Constants(t *testing.T) {
	m := mustCompile(t, "const a = 6; const b = a * 7; fn main() b")
	code := m.String()
	assertContains(t, code, "@a = constant i32 6")
	assertContains(t, code, "@b = constant i32 42")
	assertContains(t, code, "load i32, i32* @b")

	if len(m.Globals) != 2 {
		t.Fatalf("expected 2 globals, got %d", len(m.Globals))
	}
	for _, g := range m.Globals {
		if !g.Immutable {
			t.Errorf("global @%s should be immutable", g.Name())
		}
	}
}

func TestGenerate_ConstantsBeforeFunctions(t *testing.T) {
	// A function may read a constant defined later in the source.
	code := mustCompile(t, "fn main() k\nconst k = 3;").String()
	assertContains(t, code, "@k = constant i32 3")
	assertContains(t, code, "load i32, i32* @k")
}

func TestGenerate_LetBindings(t *testing.T) {
	code := mustCompile(t, "fn main() { let mut x = 1; x = x + 41; x }").String()
	assertContains(t, code, "%x = alloca i32")
	assertContains(t, code, "store i32 1, i32* %x")
	assertContains(t, code, "add i32")
}

func TestGenerate_ShadowedNamesAreUnique(t *testing.T) {
	code := mustCompile(t, "fn main() { let x = 1; let x = x + 1; x }").String()
	assertContains(t, code, "%x = alloca i32")
	assertContains(t, code, "%x.1 = alloca i32")
}

func TestGenerate_ValuelessBodyReturnsZero(t *testing.T) {
	for _, src := range []string{
		"fn main() {}",
		"fn main() { let x = 1; }",
		"fn main() loop { break }",
	} {
		assertContains(t, mustCompile(t, src).String(), "ret i32 0")
	}
}

func TestGenerate_LoopShape(t *testing.T) {
	m := mustCompile(t, "fn main() loop { break }")
	f := findFunc(m, "main")
	if f == nil {
		t.Fatal("main not generated")
	}

	var names []string
	for _, b := range f.Blocks {
		names = append(names, b.Name())
		if b.Term == nil {
			t.Errorf("block %s has no terminator", b.Name())
		}
	}
	want := []string{"entry", "loop_header", "loop_exit", "after_break"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("expected blocks %v, got %v", want, names)
	}

	header, exit := f.Blocks[1], f.Blocks[2]
	if succ := f.Blocks[0].Term.Succs(); len(succ) != 1 || succ[0] != header {
		t.Errorf("entry should branch to loop_header")
	}
	// break: the header jumps straight to the exit with no back-edge added.
	if succ := header.Term.Succs(); len(succ) != 1 || succ[0] != exit {
		t.Errorf("loop_header should branch to loop_exit")
	}
	if _, ok := exit.Term.(*ir.TermRet); !ok {
		t.Errorf("loop_exit should return, got %T", exit.Term)
	}
	// The unreachable block after break falls through to the back-edge.
	if succ := f.Blocks[3].Term.Succs(); len(succ) != 1 || succ[0] != header {
		t.Errorf("after_break should branch back to loop_header")
	}
}

func TestGenerate_NestedLoopsGetDistinctBlocks(t *testing.T) {
	code := mustCompile(t, "fn main() loop { loop { break }; break }").String()
	assertContains(t, code, "loop_header:")
	assertContains(t, code, "loop_header.1:")
	assertContains(t, code, "loop_exit.1:")
	assertContains(t, code, "after_break.1:")
}

func TestGenerate_ContinueBranchesToHeader(t *testing.T) {
	m := mustCompile(t, "fn main() loop { continue }")
	f := findFunc(m, "main")
	header := f.Blocks[1]
	if succ := header.Term.Succs(); len(succ) != 1 || succ[0] != header {
		t.Errorf("continue should branch back to loop_header")
	}
}

func TestGenerate_FunctionPerDefinition(t *testing.T) {
	m := mustCompile(t, "fn one() 1\nfn two() 2")
	if len(m.Funcs) != 2 || findFunc(m, "one") == nil || findFunc(m, "two") == nil {
		t.Fatalf("expected functions one and two, got %d funcs", len(m.Funcs))
	}
	if m.SourceFilename != "test" {
		t.Errorf("expected source filename %q, got %q", "test", m.SourceFilename)
	}
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  CodegenErrorKind
	}{
		{"Unbound Read", "fn main() x", NameNotFound},
		{"Unbound Assignment", "fn main() y = 1", NameNotFound},
		{"Function Is Not A Value", "fn f() 1\nfn main() f", NameNotFound},
		{"Let Out Of Scope", "fn main() { { let x = 1; }; x }", NameNotFound},
		{"Let Visible Only In Its Function", "fn a() { let x = 1; x }\nfn b() x", NameNotFound},
		{"Immutable Let", "fn main() { let x = 1; x = 2 }", ReassignedImmutable},
		{"Constant Assignment", "const c = 1; fn main() c = 2", ReassignedImmutable},
		{"Loop Operand", "fn main() 1 + loop { break }", OperandHasNoValue},
		{"Block Operand", "fn main() {} * 2", OperandHasNoValue},
		{"Valueless Initializer", "fn main() { let x = {}; x }", OperandHasNoValue},
		{"Valueless Assignment", "fn main() { let mut x = 1; x = {} }", OperandHasNoValue},
		{"Break Outside Loop", "fn main() break", LoopControlOutsideLoop},
		{"Continue Outside Loop", "fn main() { continue }", LoopControlOutsideLoop},
		{"Duplicate Function", "fn main() 1\nfn main() 2", DuplicateDefinition},
		{"Constant Clashes With Function", "const a = 1; fn a() 2", DuplicateDefinition},
		{"Let In Constant", "const a = { let x = 1; x };", NonConstantInitializer},
		{"Loop In Constant", "const a = loop { break };", NonConstantInitializer},
		{"Empty Block Constant", "const a = {};", NonConstantInitializer},
		{"Constant Division By Zero", "const a = 1 / (2 - 2);", DivisionByZero},
		{"Forward Constant Reference", "const a = b; const b = 1;", NameNotFound},
		{"Literal Too Large", "fn main() 4294967296", IntegerOutOfRange},
		{"Constant Literal Too Large", "const a = 4294967296;", IntegerOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Compile(tt.input, "test")
			if err == nil {
				t.Fatalf("Compile(%q) expected error, got module:\n%s", tt.input, m)
			}
			if m != nil {
				t.Errorf("Compile(%q) returned a partial module alongside the error", tt.input)
			}
			if !IsCodegenError(err, tt.kind) {
				t.Errorf("Compile(%q): expected %s, got %v", tt.input, tt.kind, err)
			}
		})
	}
}

func TestGenerate_ErrorMessage(t *testing.T) {
	_, err := Compile("fn main() break", "test")
	want := "codegen: 1:11: break used outside of a loop"
	if err == nil || err.Error() != want {
		t.Errorf("expected %q, got %v", want, err)
	}
}

func TestGenerate_UnsupportedParameters(t *testing.T) {
	mod := &Module{Name: "test", Definitions: []Definition{
		&Function{
			Name:   "f",
			Params: []VariableSpec{{Name: "x"}},
			Body:   &VariableRef{Name: "x"},
		},
	}}
	_, err := Generate(mod, nil)
	if !IsCodegenError(err, UnsupportedParameters) {
		t.Errorf("expected UnsupportedParameters, got %v", err)
	}
}

func TestGenerate_UninitializedLet(t *testing.T) {
	// Trees built outside the parser may omit the initializer.
	mod := &Module{Name: "test", Definitions: []Definition{
		&Function{Name: "main", Body: &Block{
			Body: []Stmt{&VariableDefinition{Spec: VariableSpec{Name: "x", IsMutable: true}}},
			Last: &VariableRef{Name: "x"},
		}},
	}}
	m, err := Generate(mod, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	code := m.String()
	assertContains(t, code, "%x = alloca i32")
	if strings.Contains(code, "store") {
		t.Errorf("expected no store for an uninitialized let:\n%s", code)
	}
}

func TestVerifyFunc(t *testing.T) {
	m := ir.NewModule()

	empty := m.NewFunc("empty", types.I32)
	if err := verifyFunc(empty); err == nil {
		t.Errorf("function without blocks should fail verification")
	}

	open := m.NewFunc("open", types.I32)
	open.NewBlock("entry")
	if err := verifyFunc(open); err == nil {
		t.Errorf("unterminated block should fail verification")
	}

	stray := m.NewFunc("stray", types.I32)
	other := m.NewFunc("other", types.I32)
	foreign := other.NewBlock("foreign")
	foreign.NewRet(constant.NewInt(types.I32, 0))
	stray.NewBlock("entry").NewBr(foreign)
	if err := verifyFunc(stray); err == nil {
		t.Errorf("branch into another function should fail verification")
	}

	wide := m.NewFunc("wide", types.I32)
	wide.NewBlock("entry").NewRet(constant.NewInt(types.I64, 0))
	if err := verifyFunc(wide); err == nil {
		t.Errorf("returning i64 should fail verification")
	}

	good := m.NewFunc("good", types.I32)
	good.NewBlock("entry").NewRet(constant.NewInt(types.I32, 1))
	if err := verifyFunc(good); err != nil {
		t.Errorf("well-formed function failed verification: %v", err)
	}
}

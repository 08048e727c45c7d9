package compiler

import (
	"math"
	"testing"

	"embryon/pkg/interp"

	"github.com/pkg/errors"
)

// runCode compiles source and executes @main with a step budget, the way a
// program would run once handed to a real backend.
func runCode(t *testing.T, source string) int32 {
	t.Helper()
	m, err := Compile(source, "e2e")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	result, err := interp.Run(m, "main", interp.WithMaxSteps(10000))
	if err != nil {
		t.Fatalf("Run failed: %v\nIR:\n%s", err, m)
	}
	return result
}

func TestE2E(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   int32
	}{
		{"Literal", "fn main() 42", 42},
		{"Precedence", "fn main() 1 + 2 * 3", 7},
		{"Parentheses", "fn main() (1 + 2) * 3", 9},
		{"Left Associative", "fn main() 10 - 4 - 3", 3},
		{"Integer Division", "fn main() 7 / 2", 3},
		{"Division Truncates Toward Zero", "fn main() (0 - 7) / 2", -3},
		{"Mutable Let", "fn main() { let mut x = 1; x = x + 41; x }", 42},
		{"Folded Constants", "const a = 6; const b = a * 7; fn main() b", 42},
		{"Constant Block Initializer", "const a = { 40 + 2 }; fn main() a", 42},
		{"Empty Body", "fn main() {}", 0},
		{"Valueless Block", "fn main() { let x = 5; }", 0},
		{"Break Immediately", "fn main() loop { break }", 0},
		{"Break After Work", "fn main() { let mut n = 0; loop { n = n + 1; break }; n }", 1},
		{"Code After Break Is Dead", "fn main() { let mut n = 0; loop { n = n + 1; break; n = 100 }; n }", 1},
		{"Continue After Break Is Dead", "fn main() { let mut x = 0; loop { x = 5; break; continue }; x }", 5},
		{"Break Leaves Inner Loop Only", "fn main() { let mut n = 0; loop { loop { n = n + 1; break }; n = n + 10; break }; n }", 11},
		{"Sibling Loops", "fn main() { let mut n = 1; loop { n = n * 2; break }; loop { n = n * 3; break }; n }", 6},
		{"Assignment Yields Value", "fn main() { let mut x = 0; let y = x = 7; x + y }", 14},
		{"Shadowing", "fn main() { let x = 1; let x = x + 1; x }", 2},
		{"Block Scope", "fn main() { let x = 1; { let x = 5; x }; x }", 1},
		{"Inner Block Writes Outer", "fn main() { let mut x = 1; { x = 9; }; x }", 9},
		{"Constant In Loop", "const step = 3; fn main() { let mut n = 0; loop { n = n + step; break }; n }", 3},
		{"Wrapping Add", "fn main() 2147483647 + 1", math.MinInt32},
		{"Literal Reinterpreted", "fn main() 4294967295", -1},
		{"Folded Constant Wraps", "const m = 2147483647 + 1; fn main() m", math.MinInt32},
		{"Other Functions Ignored", "fn helper() 1\nfn main() 2", 2},
		{"Comments", "// answer\nfn main() /* inline */ 42", 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runCode(t, tt.source); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestE2E_InfiniteLoopHitsStepLimit(t *testing.T) {
	m, err := Compile("fn main() { let mut n = 0; loop { n = n + 1; continue } }", "e2e")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	_, err = interp.Run(m, "main", interp.WithMaxSteps(1000))
	if !errors.Is(err, interp.ErrStepLimit) {
		t.Errorf("expected step limit, got %v", err)
	}
}

func TestE2E_RuntimeDivisionByZero(t *testing.T) {
	m, err := Compile("fn main() 1 / 0", "e2e")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	_, err = interp.Run(m, "main")
	if !errors.Is(err, interp.ErrDivideByZero) {
		t.Errorf("expected division by zero, got %v", err)
	}
}

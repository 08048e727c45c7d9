package main

import (
	"strings"
	"testing"

	"embryon/pkg/compiler"
)

func TestSessionEval(t *testing.T) {
	s := newSession(10000)

	steps := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "7"},
		{"const a = 6;", "defined const a"},
		{"fn double() a * 2\nconst b = 7;", "defined fn double, const b"},
		{"a * b", "42"},
		{"{ let mut x = a; x = x + 1; x }", "7"},
		{"loop { break }", "0"},
	}
	for _, st := range steps {
		got, err := s.eval(st.input)
		if err != nil {
			t.Fatalf("eval(%q) failed: %v", st.input, err)
		}
		if got != st.want {
			t.Errorf("eval(%q): expected %q, got %q", st.input, st.want, got)
		}
	}
	if len(s.defs) != 2 {
		t.Errorf("expected 2 remembered inputs, got %d", len(s.defs))
	}
}

func TestSessionRejectsBadDefinitions(t *testing.T) {
	s := newSession(10000)
	if _, err := s.eval("const a = 1;"); err != nil {
		t.Fatalf("eval failed: %v", err)
	}

	_, err := s.eval("const a = 2;")
	if !compiler.IsCodegenError(err, compiler.DuplicateDefinition) {
		t.Errorf("expected DuplicateDefinition, got %v", err)
	}
	_, err = s.eval("fn broken() missing")
	if !compiler.IsCodegenError(err, compiler.NameNotFound) {
		t.Errorf("expected NameNotFound, got %v", err)
	}
	if len(s.defs) != 1 {
		t.Errorf("failed definitions must not be remembered, have %d", len(s.defs))
	}

	// The session is still usable.
	if got, err := s.eval("a + 1"); err != nil || got != "2" {
		t.Errorf("expected 2, got %q (%v)", got, err)
	}
}

func TestSessionStepLimit(t *testing.T) {
	s := newSession(100)
	if _, err := s.eval("loop { continue }"); err == nil {
		t.Errorf("expected an infinite loop to hit the step limit")
	}
}

func TestSessionIRAndReset(t *testing.T) {
	s := newSession(10000)
	if _, err := s.eval("const k = 3;"); err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	text, err := s.ir()
	if err != nil {
		t.Fatalf("ir failed: %v", err)
	}
	if !strings.Contains(text, "@k = constant i32 3") {
		t.Errorf("expected constant in IR:\n%s", text)
	}

	s.reset()
	if _, err := s.eval("k"); !compiler.IsCodegenError(err, compiler.NameNotFound) {
		t.Errorf("expected k to be forgotten after reset, got %v", err)
	}
}

func TestIncomplete(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"1 + 2", false},
		{"{ let x = 1;", true},
		{"1 +", true},
		{"fn main()", true},
		{"const a = 1", true},
		{"const a = 1;", false},
		{"1 2", false},
		{"/* still open", true},
		{"x =", true},
	}
	for _, tt := range tests {
		if got := incomplete(tt.input); got != tt.want {
			t.Errorf("incomplete(%q): expected %v, got %v", tt.input, tt.want, got)
		}
	}
}

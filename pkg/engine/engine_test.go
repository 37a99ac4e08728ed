package engine

import (
	"strings"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/meshkit/pkg/mesh"
)

func scriptQuad() *mesh.Mesh {
	m := mesh.New()
	m.Name = "quad"
	m.Positions = []v3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 1, Y: 1, Z: 0},
		{X: 0, Y: 1, Z: 0},
	}
	m.Indices = []uint32{0, 1, 2, 0, 2, 3}
	return m
}

func TestApplyEmptyScript(t *testing.T) {
	eng := New()

	out, evalErrs, err := eng.Apply(scriptQuad(), "")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if out == nil || out.VertexCount() != 4 {
		t.Fatal("empty script should return an unchanged copy")
	}
}

func TestApplyWhitespaceOnly(t *testing.T) {
	eng := New()

	out, evalErrs, err := eng.Apply(scriptQuad(), "   \n\t  \n  ")
	if err != nil || len(evalErrs) > 0 {
		t.Fatalf("unexpected errors: %v %v", evalErrs, err)
	}
	if out.TriangleCount() != 2 {
		t.Errorf("triangle count = %d, want 2", out.TriangleCount())
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	eng := New()
	in := scriptQuad()

	out, evalErrs, err := eng.Apply(in, "(select-all)\n(translate 5 0 0)")
	if err != nil || len(evalErrs) > 0 {
		t.Fatalf("unexpected errors: %v %v", evalErrs, err)
	}
	if in.Positions[0].X != 0 {
		t.Error("Apply mutated the input mesh")
	}
	if out.Positions[0].X != 5 {
		t.Errorf("output vertex 0 = %v, want x=5", out.Positions[0])
	}
}

func TestApplyNilMesh(t *testing.T) {
	eng := New()
	out, evalErrs, err := eng.Apply(nil, "")
	if err != nil || len(evalErrs) > 0 {
		t.Fatalf("unexpected errors: %v %v", evalErrs, err)
	}
	if out == nil || !out.IsEmpty() {
		t.Error("nil mesh should apply as an empty mesh")
	}
}

func TestApplySyntaxError(t *testing.T) {
	eng := New()

	out, evalErrs, err := eng.Apply(scriptQuad(), "(select-all")
	if err != nil {
		t.Fatalf("syntax errors should not be fatal: %v", err)
	}
	if out != nil {
		t.Error("failed evaluation should return a nil mesh")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval errors for unbalanced parens")
	}
}

func TestApplyRuntimeError(t *testing.T) {
	eng := New()

	out, evalErrs, err := eng.Apply(scriptQuad(), "(select 99)")
	if err != nil {
		t.Fatalf("runtime errors should not be fatal: %v", err)
	}
	if out != nil {
		t.Error("failed evaluation should return a nil mesh")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval errors for out-of-range select")
	}
	found := false
	for _, e := range evalErrs {
		if strings.Contains(e.Message, "out of range") {
			found = true
		}
	}
	if !found {
		t.Errorf("errors should mention the bad index: %v", evalErrs)
	}
}

func TestApplyFreshEnvironmentPerCall(t *testing.T) {
	eng := New()

	// A definition from one call must not leak into the next.
	_, evalErrs, err := eng.Apply(scriptQuad(), `(def leaked 42)`)
	if err != nil || len(evalErrs) > 0 {
		t.Fatalf("unexpected errors: %v %v", evalErrs, err)
	}
	out, evalErrs, err := eng.Apply(scriptQuad(), `(select-all)(translate leaked 0 0)`)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if out != nil || len(evalErrs) == 0 {
		t.Error("reference to a symbol from a previous call should fail")
	}
}

func TestEvalErrorString(t *testing.T) {
	e := EvalError{Line: 3, Message: "boom"}
	if got := e.Error(); got != "line 3: boom" {
		t.Errorf("Error() = %q", got)
	}
	e = EvalError{Message: "boom"}
	if got := e.Error(); got != "boom" {
		t.Errorf("Error() without line = %q", got)
	}
}

func TestParseZygomysErrorLineExtraction(t *testing.T) {
	cases := []struct {
		name string
		msg  string
		line int
	}{
		{"long form", "Error on line 7: unexpected token", 7},
		{"short form", "line 12: undefined symbol", 12},
		{"no line info", "something went wrong", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := parseZygomysError(errString(tc.msg))
			if len(errs) != 1 {
				t.Fatalf("got %d errors, want 1", len(errs))
			}
			if errs[0].Line != tc.line {
				t.Errorf("line = %d, want %d", errs[0].Line, tc.line)
			}
			if errs[0].Message == "" {
				t.Error("message should not be empty")
			}
		})
	}
}

type errString string

func (e errString) Error() string { return string(e) }

package engine

import (
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/meshkit/pkg/mesh"
)

// ---------------------------------------------------------------------------
// Preprocessing
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"simple keyword", "(select 1 :mode :add)", `(select 1 "__kw_mode" "__kw_add")`},
		{"keyword in string untouched", `(f ":mode")`, `(f ":mode")`},
		{"assignment preserved", "(x := 5)", "(x := 5)"},
		{"kebab call", "(snap-to-grid 0.5)", "(snap_to_grid 0.5)"},
		{"minus untouched", "(- 5 3)", "(- 5 3)"},
		{"negative number untouched", "(translate -1 0 0)", "(translate -1 0 0)"},
		{"semicolon comment", "(f) ; note", "(f) // note"},
		{"double semicolon", "(f) ;; note", "(f) // note"},
		{"keyword with hyphen", "(normals :weighted-x)", `(normals "__kw_weighted-x")`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := preprocessSource(tc.in); got != tc.want {
				t.Errorf("preprocessSource(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestPreprocessStringBoundaries(t *testing.T) {
	in := `(f "a-b ; not a comment :kw")`
	if got := preprocessSource(in); got != in {
		t.Errorf("string contents rewritten: %q", got)
	}
}

// ---------------------------------------------------------------------------
// Builtins, driven through Apply
// ---------------------------------------------------------------------------

func applyOK(t *testing.T, m *mesh.Mesh, script string) *mesh.Mesh {
	t.Helper()
	eng := New()
	out, evalErrs, err := eng.Apply(m, script)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	return out
}

func applyFails(t *testing.T, m *mesh.Mesh, script string) []EvalError {
	t.Helper()
	eng := New()
	out, evalErrs, err := eng.Apply(m, script)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if out != nil || len(evalErrs) == 0 {
		t.Fatalf("expected eval errors, got mesh=%v errors=%v", out, evalErrs)
	}
	return evalErrs
}

func TestBuiltinTranslate(t *testing.T) {
	out := applyOK(t, scriptQuad(), "(select-all)\n(translate 1 2 3)")
	got := out.Positions[0]
	if got.X != 1 || got.Y != 2 || got.Z != 3 {
		t.Errorf("vertex 0 = %v, want (1, 2, 3)", got)
	}
}

func TestBuiltinSelectModes(t *testing.T) {
	// Move only vertices 0 and 2.
	out := applyOK(t, scriptQuad(), `
		(select 0)
		(select 2 :mode :add)
		(translate 0 0 1)
	`)
	if out.Positions[0].Z != 1 || out.Positions[2].Z != 1 {
		t.Error("selected vertices should move")
	}
	if out.Positions[1].Z != 0 || out.Positions[3].Z != 0 {
		t.Error("unselected vertices should not move")
	}
}

func TestBuiltinSelectMultiple(t *testing.T) {
	out := applyOK(t, scriptQuad(), "(select 1 3)\n(translate 0 0 5)")
	if out.Positions[1].Z != 5 || out.Positions[3].Z != 5 {
		t.Error("both listed vertices should move")
	}
	if out.Positions[0].Z != 0 {
		t.Error("vertex 0 should not move")
	}
}

func TestBuiltinScaleAboutCentroid(t *testing.T) {
	out := applyOK(t, scriptQuad(), "(select-all)\n(scale 2 2 2)")
	if out.Positions[0].X != -0.5 || out.Positions[0].Y != -0.5 {
		t.Errorf("corner 0 = %v, want (-0.5, -0.5, 0)", out.Positions[0])
	}
}

func TestBuiltinSnapToGrid(t *testing.T) {
	m := scriptQuad()
	m.Positions[0].X = 0.26
	out := applyOK(t, m, "(select-all)\n(snap-to-grid 0.5)")
	if out.Positions[0].X != 0.5 {
		t.Errorf("snapped x = %g, want 0.5", out.Positions[0].X)
	}

	applyFails(t, scriptQuad(), "(select-all)\n(snap-to-grid 0)")
}

func TestBuiltinDeleteSelected(t *testing.T) {
	out := applyOK(t, scriptQuad(), "(select 1)\n(delete-selected)")
	if out.VertexCount() != 3 || out.TriangleCount() != 1 {
		t.Errorf("got %d vertices, %d triangles, want 3 and 1",
			out.VertexCount(), out.TriangleCount())
	}
}

func TestBuiltinMerge(t *testing.T) {
	m := scriptQuad()
	m.Positions[3] = m.Positions[0] // coincident pair
	out := applyOK(t, m, "(select-all)\n(merge 0.001)")
	if out.VertexCount() != 3 {
		t.Errorf("vertex count = %d, want 3", out.VertexCount())
	}
}

func TestBuiltinFlipWinding(t *testing.T) {
	out := applyOK(t, scriptQuad(), "(flip-winding)")
	tri, _ := out.Triangle(0)
	if tri != (mesh.Triangle{0, 2, 1}) {
		t.Errorf("triangle 0 = %v, want {0 2 1}", tri)
	}
}

func TestBuiltinFlipWindingKeepsSelection(t *testing.T) {
	// Selection must survive the editor swap inside flip-winding.
	out := applyOK(t, scriptQuad(), "(select 0)\n(flip-winding)\n(translate 0 0 9)")
	if out.Positions[0].Z != 9 {
		t.Error("selection should persist across flip-winding")
	}
	if out.Positions[1].Z != 0 {
		t.Error("selection should not grow across flip-winding")
	}
}

func TestBuiltinRemoveDegenerate(t *testing.T) {
	m := scriptQuad()
	m.Indices = append(m.Indices, 0, 0, 1)
	out := applyOK(t, m, "(remove-degenerate)")
	if out.TriangleCount() != 2 {
		t.Errorf("triangle count = %d, want 2", out.TriangleCount())
	}
}

func TestBuiltinNormals(t *testing.T) {
	cases := []struct {
		name   string
		script string
	}{
		{"flat", "(normals :flat)"},
		{"smooth", "(normals :smooth)"},
		{"weighted", "(normals :weighted)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := applyOK(t, scriptQuad(), tc.script)
			if len(out.Normals) != out.VertexCount() {
				t.Fatalf("normal count = %d, want %d", len(out.Normals), out.VertexCount())
			}
			// The quad is planar facing +Z.
			for i, n := range out.Normals {
				if math.Abs(n.Z-1) > 1e-9 {
					t.Errorf("normal %d = %v, want +Z", i, n)
				}
			}
		})
	}

	applyFails(t, scriptQuad(), "(normals :sideways)")
}

func TestBuiltinFlipNormals(t *testing.T) {
	out := applyOK(t, scriptQuad(), "(normals :flat)\n(flip-normals)")
	for i, n := range out.Normals {
		if math.Abs(n.Z+1) > 1e-9 {
			t.Errorf("flipped normal %d = %v, want -Z", i, n)
		}
	}
}

func TestBuiltinNormalizeAll(t *testing.T) {
	m := scriptQuad()
	m.Normals = []v3.Vec{
		{X: 0, Y: 0, Z: 4},
		{X: 0, Y: 3, Z: 0},
		{X: 2, Y: 0, Z: 0},
		{X: 0, Y: 0, Z: 1},
	}
	out := applyOK(t, m, "(normalize-all)")
	for i, n := range out.Normals {
		if math.Abs(n.Length()-1) > 1e-9 {
			t.Errorf("normal %d not unit length: %v", i, n)
		}
	}
}

func TestBuiltinSelectionHelpers(t *testing.T) {
	// invert-selection flips 0,2 to 1,3; clear-selection then makes
	// the final translate a no-op.
	out := applyOK(t, scriptQuad(), `
		(select 0 2)
		(invert-selection)
		(translate 0 0 5)
		(clear-selection)
		(translate 9 9 9)
	`)
	if out.Positions[1].Z != 5 || out.Positions[3].Z != 5 {
		t.Error("inverted selection should cover vertices 1 and 3")
	}
	if out.Positions[0].Z != 0 || out.Positions[0].X != 0 {
		t.Error("cleared selection should make translate a no-op")
	}
}

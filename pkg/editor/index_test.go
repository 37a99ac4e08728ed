package editor

import (
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/meshkit/pkg/mesh"
)

// stripMesh is a strip of four triangles sharing edges in a row:
// 0-1-2, 1-3-2, 2-3-4, 3-5-4.
func stripMesh() *mesh.Mesh {
	m := mesh.New()
	m.Positions = []v3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0.5, Y: 1, Z: 0},
		{X: 1.5, Y: 1, Z: 0},
		{X: 1, Y: 2, Z: 0},
		{X: 2, Y: 2, Z: 0},
	}
	m.Indices = []uint32{
		0, 1, 2,
		1, 3, 2,
		2, 3, 4,
		3, 5, 4,
	}
	return m
}

func TestTriangleAccessors(t *testing.T) {
	e := NewIndex(stripMesh())
	tri, ok := e.Triangle(1)
	if !ok || tri != (mesh.Triangle{1, 3, 2}) {
		t.Fatalf("Triangle(1) = %v, %v", tri, ok)
	}
	if _, ok := e.Triangle(4); ok {
		t.Error("Triangle(4) should be out of range")
	}

	if !e.SetTriangle(0, mesh.Triangle{2, 1, 0}) {
		t.Fatal("SetTriangle failed")
	}
	tri, _ = e.Triangle(0)
	if tri != (mesh.Triangle{2, 1, 0}) {
		t.Errorf("after SetTriangle, got %v", tri)
	}
	if e.SetTriangle(9, mesh.Triangle{}) {
		t.Error("out-of-range SetTriangle should fail")
	}
}

func TestAddTriangle(t *testing.T) {
	e := NewIndex(stripMesh())
	idx := e.AddTriangle(mesh.Triangle{0, 2, 4})
	if idx != 4 {
		t.Fatalf("AddTriangle index = %d, want 4", idx)
	}
	if e.Mesh().TriangleCount() != 5 {
		t.Errorf("triangle count = %d, want 5", e.Mesh().TriangleCount())
	}
}

func TestTriangleSelection(t *testing.T) {
	e := NewIndex(stripMesh())
	if !e.Select(2) {
		t.Fatal("Select(2) failed")
	}
	if e.Select(4) {
		t.Error("out-of-range select should fail")
	}
	e.Select(0)
	e.Deselect(2)
	if got := e.SelectedTriangles(); len(got) != 1 || got[0] != 0 {
		t.Errorf("selection = %v, want [0]", got)
	}
	e.SelectAll()
	if e.SelectionCount() != 4 {
		t.Errorf("SelectAll count = %d, want 4", e.SelectionCount())
	}
	e.ClearSelection()
	if e.SelectionCount() != 0 {
		t.Error("ClearSelection left members")
	}
}

func TestTrianglesUsingVertex(t *testing.T) {
	e := NewIndex(stripMesh())
	got := e.TrianglesUsingVertex(2)
	want := []int{0, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("TrianglesUsingVertex(2) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("TrianglesUsingVertex(2) = %v, want %v", got, want)
		}
	}
	if e.TrianglesUsingVertex(99) != nil {
		t.Error("unknown vertex should yield nil")
	}
}

func TestAdjacentTriangles(t *testing.T) {
	e := NewIndex(stripMesh())
	cases := []struct {
		name string
		tri  int
		want []int
	}{
		{"end", 0, []int{1}},
		{"middle", 1, []int{0, 2}},
		{"other end", 3, []int{2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.AdjacentTriangles(tc.tri)
			if len(got) != len(tc.want) {
				t.Fatalf("adjacent(%d) = %v, want %v", tc.tri, got, tc.want)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("adjacent(%d) = %v, want %v", tc.tri, got, tc.want)
				}
			}
		})
	}
	if e.AdjacentTriangles(9) != nil {
		t.Error("out-of-range triangle should yield nil")
	}
}

func TestGrowSelection(t *testing.T) {
	e := NewIndex(stripMesh())
	e.Select(0)

	e.GrowSelection(1)
	if got := e.SelectedTriangles(); len(got) != 2 || got[1] != 1 {
		t.Fatalf("after grow 1, selection = %v, want [0 1]", got)
	}

	e.GrowSelection(2)
	if e.SelectionCount() != 4 {
		t.Errorf("after grow 2 more, count = %d, want 4", e.SelectionCount())
	}
}

func TestDeleteSelectedTriangles(t *testing.T) {
	e := NewIndex(stripMesh())
	e.Select(1)
	e.Select(3)
	removed := e.DeleteSelected()
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	m := e.Mesh()
	if m.TriangleCount() != 2 {
		t.Fatalf("triangle count = %d, want 2", m.TriangleCount())
	}
	// Vertices stay put.
	if m.VertexCount() != 6 {
		t.Errorf("vertex count = %d, want 6", m.VertexCount())
	}
	t0, _ := m.Triangle(0)
	t1, _ := m.Triangle(1)
	if t0 != (mesh.Triangle{0, 1, 2}) || t1 != (mesh.Triangle{2, 3, 4}) {
		t.Errorf("survivors = %v %v", t0, t1)
	}
}

func TestFlipWinding(t *testing.T) {
	e := NewIndex(stripMesh())
	e.Select(0)
	e.FlipWinding()
	tri, _ := e.Triangle(0)
	if tri != (mesh.Triangle{0, 2, 1}) {
		t.Errorf("flipped = %v, want {0 2 1}", tri)
	}
	other, _ := e.Triangle(1)
	if other != (mesh.Triangle{1, 3, 2}) {
		t.Errorf("unselected triangle changed: %v", other)
	}

	e.FlipAll()
	tri, _ = e.Triangle(0)
	if tri != (mesh.Triangle{0, 1, 2}) {
		t.Errorf("double flip should restore, got %v", tri)
	}
}

func TestRemoveDegenerate(t *testing.T) {
	m := stripMesh()
	// A repeated-index triangle and a zero-area sliver.
	m.Positions = append(m.Positions, v3.Vec{X: 3, Y: 3, Z: 0})
	m.Indices = append(m.Indices,
		0, 0, 1, // repeated index
		0, 1, 1, // repeated index
	)
	e := NewIndex(m)

	removed := e.RemoveDegenerate()
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	if e.Mesh().TriangleCount() != 4 {
		t.Errorf("triangle count = %d, want 4", e.Mesh().TriangleCount())
	}
	if e.RemoveDegenerate() != 0 {
		t.Error("second pass should remove nothing")
	}
	if e.CanRedo() {
		t.Error("no-op RemoveDegenerate must not disturb history")
	}
}

func TestRemoveDegenerateZeroArea(t *testing.T) {
	m := mesh.New()
	m.Positions = []v3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 2, Y: 0, Z: 0}, // collinear
		{X: 0, Y: 1, Z: 0},
	}
	m.Indices = []uint32{0, 1, 2, 0, 1, 3}
	e := NewIndex(m)
	if removed := e.RemoveDegenerate(); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	tri, _ := e.Triangle(0)
	if tri != (mesh.Triangle{0, 1, 3}) {
		t.Errorf("survivor = %v, want {0 1 3}", tri)
	}
}

func TestValidateIndices(t *testing.T) {
	m := stripMesh()
	m.Indices[4] = 77
	e := NewIndex(m)
	bad := e.ValidateIndices()
	if len(bad) != 1 || bad[0] != 4 {
		t.Errorf("ValidateIndices = %v, want [4]", bad)
	}
}

func TestIndexUndoRedo(t *testing.T) {
	e := NewIndex(stripMesh())
	e.Select(0)
	e.DeleteSelected()
	if e.Mesh().TriangleCount() != 3 {
		t.Fatal("delete did not apply")
	}
	if !e.Undo() {
		t.Fatal("Undo failed")
	}
	if e.Mesh().TriangleCount() != 4 {
		t.Error("undo did not restore the index array")
	}
	if !e.Redo() {
		t.Fatal("Redo failed")
	}
	if e.Mesh().TriangleCount() != 3 {
		t.Error("redo did not reapply the delete")
	}
}

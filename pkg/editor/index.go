package editor

import (
	"sort"

	"github.com/chazu/meshkit/pkg/mesh"
)

// IndexEditor is an editing session over a mesh's triangle
// connectivity. Its selection holds triangle indices, not vertex
// indices. History records snapshot the index array only; triangle
// edits never touch vertex data.
type IndexEditor struct {
	mesh *mesh.Mesh
	sel  selection
	hist *history[[]uint32]
}

// NewIndex begins an index editing session. The editor owns the mesh
// until Finish is called; a nil mesh starts an empty one.
func NewIndex(m *mesh.Mesh) *IndexEditor {
	if m == nil {
		m = mesh.New()
	}
	return &IndexEditor{
		mesh: m,
		sel:  newSelection(),
		hist: newHistory[[]uint32](),
	}
}

// Finish ends the session and returns the mesh.
func (e *IndexEditor) Finish() *mesh.Mesh {
	m := e.mesh
	e.mesh = nil
	return m
}

// Mesh returns the mesh under edit.
func (e *IndexEditor) Mesh() *mesh.Mesh { return e.mesh }

func (e *IndexEditor) capture() []uint32 {
	return append([]uint32(nil), e.mesh.Indices...)
}

func (e *IndexEditor) restore(indices []uint32) {
	e.mesh.Indices = indices
	e.sel.dropAtOrAbove(len(indices) / 3)
}

// ---------------------------------------------------------------------------
// Triangle access
// ---------------------------------------------------------------------------

// Triangle returns the i-th triangle, or false if i is out of range.
func (e *IndexEditor) Triangle(i int) (mesh.Triangle, bool) {
	return e.mesh.Triangle(i)
}

// SetTriangle replaces the i-th triangle. Returns false without
// mutating when i is out of range.
func (e *IndexEditor) SetTriangle(i int, t mesh.Triangle) bool {
	if i < 0 || i >= e.mesh.TriangleCount() {
		return false
	}
	before := e.capture()
	base := i * 3
	e.mesh.Indices[base] = t[0]
	e.mesh.Indices[base+1] = t[1]
	e.mesh.Indices[base+2] = t[2]
	e.hist.push(before, e.capture())
	return true
}

// AddTriangle appends a triangle and returns its index. The indices
// are not range-checked here; that is the validator's job.
func (e *IndexEditor) AddTriangle(t mesh.Triangle) int {
	before := e.capture()
	e.mesh.Indices = append(e.mesh.Indices, t[0], t[1], t[2])
	e.hist.push(before, e.capture())
	return e.mesh.TriangleCount() - 1
}

// ---------------------------------------------------------------------------
// Selection
// ---------------------------------------------------------------------------

// Select adds triangle i to the selection. Out-of-range indices return
// false.
func (e *IndexEditor) Select(i int) bool {
	if i < 0 || i >= e.mesh.TriangleCount() {
		return false
	}
	e.sel.add(i)
	return true
}

// Deselect removes triangle i from the selection.
func (e *IndexEditor) Deselect(i int) { e.sel.remove(i) }

// SelectAll selects every triangle.
func (e *IndexEditor) SelectAll() {
	for i := 0; i < e.mesh.TriangleCount(); i++ {
		e.sel.add(i)
	}
}

// ClearSelection empties the selection.
func (e *IndexEditor) ClearSelection() { e.sel.clear() }

// IsSelected reports whether triangle i is selected.
func (e *IndexEditor) IsSelected(i int) bool { return e.sel.has(i) }

// SelectedTriangles returns the selected triangle indices in ascending
// order.
func (e *IndexEditor) SelectedTriangles() []int { return e.sel.indices() }

// SelectionCount returns the number of selected triangles.
func (e *IndexEditor) SelectionCount() int { return e.sel.size() }

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// TrianglesUsingVertex returns the indices of every triangle that
// references vertex v, in ascending order.
func (e *IndexEditor) TrianglesUsingVertex(v uint32) []int {
	var out []int
	for i := 0; i < e.mesh.TriangleCount(); i++ {
		t, _ := e.mesh.Triangle(i)
		if t[0] == v || t[1] == v || t[2] == v {
			out = append(out, i)
		}
	}
	return out
}

// AdjacentTriangles returns the triangles sharing an edge with
// triangle i, in ascending order.
func (e *IndexEditor) AdjacentTriangles(i int) []int {
	t, ok := e.mesh.Triangle(i)
	if !ok {
		return nil
	}
	edges := e.mesh.EdgeTriangles()
	seen := make(map[int]struct{})
	for _, key := range t.Edges() {
		for _, other := range edges[key] {
			if other != i {
				seen[other] = struct{}{}
			}
		}
	}
	out := make([]int, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// GrowSelection expands the selection depth times across shared edges.
func (e *IndexEditor) GrowSelection(depth int) {
	edges := e.mesh.EdgeTriangles()
	for step := 0; step < depth; step++ {
		frontier := e.sel.indices()
		grew := false
		for _, i := range frontier {
			t, ok := e.mesh.Triangle(i)
			if !ok {
				continue
			}
			for _, key := range t.Edges() {
				for _, other := range edges[key] {
					if !e.sel.has(other) {
						e.sel.add(other)
						grew = true
					}
				}
			}
		}
		if !grew {
			return
		}
	}
}

// ValidateIndices returns the flat positions of every index that is
// out of vertex range. A cheap scan; full checks live in the mesh
// validator.
func (e *IndexEditor) ValidateIndices() []int {
	n := uint32(e.mesh.VertexCount())
	var bad []int
	for i, idx := range e.mesh.Indices {
		if idx >= n {
			bad = append(bad, i)
		}
	}
	return bad
}

// ---------------------------------------------------------------------------
// Mutations
// ---------------------------------------------------------------------------

// DeleteSelected removes the selected triangles and clears the
// selection. Vertices are never removed. Returns the removal count.
func (e *IndexEditor) DeleteSelected() int {
	if e.sel.size() == 0 {
		return 0
	}
	before := e.capture()
	kept := make([]uint32, 0, len(e.mesh.Indices))
	removed := 0
	for i := 0; i < e.mesh.TriangleCount(); i++ {
		t, _ := e.mesh.Triangle(i)
		if e.sel.has(i) {
			removed++
			continue
		}
		kept = append(kept, t[0], t[1], t[2])
	}
	e.mesh.Indices = kept
	e.sel.clear()
	e.hist.push(before, e.capture())
	return removed
}

// FlipWinding reverses the winding of every selected triangle.
func (e *IndexEditor) FlipWinding() {
	if e.sel.size() == 0 {
		return
	}
	before := e.capture()
	for i := range e.sel.members {
		e.flipAt(i)
	}
	e.hist.push(before, e.capture())
}

// FlipAll reverses the winding of every triangle.
func (e *IndexEditor) FlipAll() {
	if e.mesh.TriangleCount() == 0 {
		return
	}
	before := e.capture()
	for i := 0; i < e.mesh.TriangleCount(); i++ {
		e.flipAt(i)
	}
	e.hist.push(before, e.capture())
}

func (e *IndexEditor) flipAt(i int) {
	base := i * 3
	if base+2 >= len(e.mesh.Indices) {
		return
	}
	e.mesh.Indices[base+1], e.mesh.Indices[base+2] =
		e.mesh.Indices[base+2], e.mesh.Indices[base+1]
}

// RemoveDegenerate drops every triangle that repeats a vertex index or
// has near-zero area. Returns the number removed.
func (e *IndexEditor) RemoveDegenerate() int {
	before := e.capture()
	kept := make([]uint32, 0, len(e.mesh.Indices))
	removed := 0
	for i := 0; i < e.mesh.TriangleCount(); i++ {
		t, _ := e.mesh.Triangle(i)
		if t.Degenerate() || e.mesh.FaceArea(i) < mesh.DegenerateAreaEps {
			removed++
			continue
		}
		kept = append(kept, t[0], t[1], t[2])
	}
	if removed == 0 {
		return 0
	}
	e.mesh.Indices = kept
	e.sel.clear()
	e.hist.push(before, e.capture())
	return removed
}

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

// Undo reverts the most recent mutation.
func (e *IndexEditor) Undo() bool {
	s, ok := e.hist.undo()
	if !ok {
		return false
	}
	e.restore(s)
	return true
}

// Redo reapplies the most recently undone mutation.
func (e *IndexEditor) Redo() bool {
	s, ok := e.hist.redoPop()
	if !ok {
		return false
	}
	e.restore(s)
	return true
}

// CanUndo reports whether an undo record exists.
func (e *IndexEditor) CanUndo() bool { return e.hist.canUndo() }

// CanRedo reports whether a redo record exists.
func (e *IndexEditor) CanRedo() bool { return e.hist.canRedo() }

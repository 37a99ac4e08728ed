// Package editor provides the three mesh editing sessions: vertex,
// index (triangle), and normal. An editor takes ownership of a mesh
// for the duration of the session; Finish returns it. At most one
// editor should hold a mesh at a time. Every mesh mutation pushes a
// reversible record onto a bounded undo stack; selection changes do
// not.
package editor

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/meshkit/pkg/mesh"
)

// vertexState snapshots every array a vertex operation can touch, so
// undo restores the exact pre-operation mesh even for structural edits
// such as deletion and merge.
type vertexState struct {
	positions []v3.Vec
	indices   []uint32
	normals   []v3.Vec
	uvs       []v2.Vec
}

// VertexEditor is an editing session over a mesh's vertices.
type VertexEditor struct {
	mesh *mesh.Mesh
	sel  selection
	hist *history[vertexState]
}

// NewVertex begins a vertex editing session. The editor owns the mesh
// until Finish is called; a nil mesh starts an empty one.
func NewVertex(m *mesh.Mesh) *VertexEditor {
	if m == nil {
		m = mesh.New()
	}
	return &VertexEditor{
		mesh: m,
		sel:  newSelection(),
		hist: newHistory[vertexState](),
	}
}

// Finish ends the session and returns the mesh.
func (e *VertexEditor) Finish() *mesh.Mesh {
	m := e.mesh
	e.mesh = nil
	return m
}

// Mesh returns the mesh under edit. The caller must not mutate it
// directly while the session is open.
func (e *VertexEditor) Mesh() *mesh.Mesh { return e.mesh }

func (e *VertexEditor) capture() vertexState {
	return vertexState{
		positions: append([]v3.Vec(nil), e.mesh.Positions...),
		indices:   append([]uint32(nil), e.mesh.Indices...),
		normals:   copyVecs(e.mesh.Normals),
		uvs:       copyUVs(e.mesh.UVs),
	}
}

func (e *VertexEditor) restore(s vertexState) {
	e.mesh.Positions = s.positions
	e.mesh.Indices = s.indices
	e.mesh.Normals = s.normals
	e.mesh.UVs = s.uvs
	e.sel.dropAtOrAbove(len(s.positions))
}

// ---------------------------------------------------------------------------
// Selection
// ---------------------------------------------------------------------------

// Select applies mode to vertex i. Out-of-range indices leave the
// selection untouched and return false.
func (e *VertexEditor) Select(i int, mode SelectionMode) bool {
	if i < 0 || i >= e.mesh.VertexCount() {
		return false
	}
	e.sel.apply(i, mode)
	return true
}

// SelectAll selects every vertex.
func (e *VertexEditor) SelectAll() {
	for i := 0; i < e.mesh.VertexCount(); i++ {
		e.sel.add(i)
	}
}

// ClearSelection empties the selection.
func (e *VertexEditor) ClearSelection() { e.sel.clear() }

// InvertSelection selects every unselected vertex and vice versa.
func (e *VertexEditor) InvertSelection() {
	for i := 0; i < e.mesh.VertexCount(); i++ {
		e.sel.apply(i, SelectionToggle)
	}
}

// IsSelected reports whether vertex i is selected.
func (e *VertexEditor) IsSelected(i int) bool { return e.sel.has(i) }

// SelectedIndices returns the selected vertex indices in ascending order.
func (e *VertexEditor) SelectedIndices() []int { return e.sel.indices() }

// SelectionCount returns the number of selected vertices.
func (e *VertexEditor) SelectionCount() int { return e.sel.size() }

// SelectionCentroid returns the mean position of the selected vertices.
// It returns false when nothing is selected.
func (e *VertexEditor) SelectionCentroid() (v3.Vec, bool) {
	if e.sel.size() == 0 {
		return v3.Vec{}, false
	}
	var sum v3.Vec
	for i := range e.sel.members {
		sum = sum.Add(e.mesh.Positions[i])
	}
	return sum.DivScalar(float64(e.sel.size())), true
}

// ---------------------------------------------------------------------------
// Transforms
// ---------------------------------------------------------------------------

// Translate moves every selected vertex by offset. A no-op (and no
// history record) when nothing is selected.
func (e *VertexEditor) Translate(offset v3.Vec) {
	if e.sel.size() == 0 {
		return
	}
	before := e.capture()
	for i := range e.sel.members {
		e.mesh.Positions[i] = e.mesh.Positions[i].Add(offset)
	}
	e.hist.push(before, e.capture())
}

// Scale scales the selected vertices about their centroid by the given
// per-axis factors.
func (e *VertexEditor) Scale(factors v3.Vec) {
	centroid, ok := e.SelectionCentroid()
	if !ok {
		return
	}
	before := e.capture()
	for i := range e.sel.members {
		d := e.mesh.Positions[i].Sub(centroid)
		e.mesh.Positions[i] = centroid.Add(v3.Vec{
			X: d.X * factors.X,
			Y: d.Y * factors.Y,
			Z: d.Z * factors.Z,
		})
	}
	e.hist.push(before, e.capture())
}

// SetPosition moves vertex i to p. Returns false without mutating when
// i is out of range.
func (e *VertexEditor) SetPosition(i int, p v3.Vec) bool {
	if i < 0 || i >= e.mesh.VertexCount() {
		return false
	}
	before := e.capture()
	e.mesh.Positions[i] = p
	e.hist.push(before, e.capture())
	return true
}

// SnapToGrid rounds every selected vertex to the nearest multiple of
// cell on each axis. Non-positive cells are rejected.
func (e *VertexEditor) SnapToGrid(cell float64) bool {
	if cell <= 0 {
		return false
	}
	if e.sel.size() == 0 {
		return true
	}
	before := e.capture()
	for i := range e.sel.members {
		p := e.mesh.Positions[i]
		e.mesh.Positions[i] = v3.Vec{
			X: math.Round(p.X/cell) * cell,
			Y: math.Round(p.Y/cell) * cell,
			Z: math.Round(p.Z/cell) * cell,
		}
	}
	e.hist.push(before, e.capture())
	return true
}

// ---------------------------------------------------------------------------
// Structural edits
// ---------------------------------------------------------------------------

// AddVertex appends a vertex and returns its index. Normal and UV
// arrays, when present, are padded to keep their per-vertex invariant.
func (e *VertexEditor) AddVertex(p v3.Vec) int {
	before := e.capture()
	e.mesh.Positions = append(e.mesh.Positions, p)
	if e.mesh.Normals != nil {
		e.mesh.Normals = append(e.mesh.Normals, mesh.DefaultNormal)
	}
	if e.mesh.UVs != nil {
		e.mesh.UVs = append(e.mesh.UVs, v2.Vec{})
	}
	e.hist.push(before, e.capture())
	return len(e.mesh.Positions) - 1
}

// DeleteSelected removes the selected vertices, drops every triangle
// that references one, compacts the attribute arrays, and remaps the
// surviving indices. Returns the number of vertices removed and clears
// the selection.
func (e *VertexEditor) DeleteSelected() int {
	if e.sel.size() == 0 {
		return 0
	}
	before := e.capture()
	_, removed := e.compactDelete(e.sel.members)
	e.sel.clear()
	e.hist.push(before, e.capture())
	return removed
}

// DuplicateSelected appends a copy of each selected vertex and moves
// the selection onto the copies. Returns the number duplicated.
func (e *VertexEditor) DuplicateSelected() int {
	if e.sel.size() == 0 {
		return 0
	}
	before := e.capture()
	src := e.sel.indices()
	first := len(e.mesh.Positions)
	for _, i := range src {
		e.mesh.Positions = append(e.mesh.Positions, e.mesh.Positions[i])
		if e.mesh.Normals != nil {
			e.mesh.Normals = append(e.mesh.Normals, e.mesh.Normals[i])
		}
		if e.mesh.UVs != nil {
			e.mesh.UVs = append(e.mesh.UVs, e.mesh.UVs[i])
		}
	}
	e.sel.clear()
	for i := 0; i < len(src); i++ {
		e.sel.add(first + i)
	}
	e.hist.push(before, e.capture())
	return len(src)
}

// MergeSelected collapses selected vertices that lie within threshold
// of each other onto the lowest-index member of each cluster, remaps
// the triangle indices, and removes the collapsed vertices. Triangles
// that become degenerate are kept; removing them is the index editor's
// job. Returns the number of vertices removed.
func (e *VertexEditor) MergeSelected(threshold float64) int {
	if e.sel.size() < 2 || threshold < 0 {
		return 0
	}
	before := e.capture()

	// Map each selected vertex to the lowest earlier selected vertex
	// within threshold.
	sel := e.sel.indices()
	target := make(map[uint32]uint32)
	for a := 0; a < len(sel); a++ {
		ia := sel[a]
		if _, merged := target[uint32(ia)]; merged {
			continue
		}
		for b := a + 1; b < len(sel); b++ {
			ib := sel[b]
			if _, merged := target[uint32(ib)]; merged {
				continue
			}
			d := e.mesh.Positions[ia].Sub(e.mesh.Positions[ib])
			if d.Length() <= threshold {
				target[uint32(ib)] = uint32(ia)
			}
		}
	}
	if len(target) == 0 {
		return 0
	}

	for i, idx := range e.mesh.Indices {
		if t, ok := target[idx]; ok {
			e.mesh.Indices[i] = t
		}
	}

	doomed := make(map[int]struct{}, len(target))
	for i := range target {
		doomed[int(i)] = struct{}{}
	}
	remap, removed := e.compactDelete(doomed)

	// Surviving selected vertices keep their selection under the new
	// numbering.
	survivors := e.sel.indices()
	e.sel.clear()
	for _, i := range survivors {
		if _, gone := doomed[i]; gone {
			continue
		}
		e.sel.add(int(remap[i]))
	}
	e.hist.push(before, e.capture())
	return removed
}

// compactDelete removes the given vertices, drops triangles that still
// reference them, and remaps the rest. Returns the old-to-new index
// table (valid for surviving vertices only) and the removal count.
func (e *VertexEditor) compactDelete(doomed map[int]struct{}) ([]uint32, int) {
	old := e.mesh
	remap := make([]uint32, len(old.Positions))
	newPositions := make([]v3.Vec, 0, len(old.Positions)-len(doomed))
	var newNormals []v3.Vec
	var newUVs []v2.Vec
	if old.Normals != nil {
		newNormals = make([]v3.Vec, 0, cap(newPositions))
	}
	if old.UVs != nil {
		newUVs = make([]v2.Vec, 0, cap(newPositions))
	}
	for i := range old.Positions {
		if _, gone := doomed[i]; gone {
			continue
		}
		remap[i] = uint32(len(newPositions))
		newPositions = append(newPositions, old.Positions[i])
		if newNormals != nil && i < len(old.Normals) {
			newNormals = append(newNormals, old.Normals[i])
		}
		if newUVs != nil && i < len(old.UVs) {
			newUVs = append(newUVs, old.UVs[i])
		}
	}

	newIndices := make([]uint32, 0, len(old.Indices))
	for i := 0; i+2 < len(old.Indices); i += 3 {
		a, b, c := old.Indices[i], old.Indices[i+1], old.Indices[i+2]
		if referencesDoomed(doomed, a, b, c) {
			continue
		}
		newIndices = append(newIndices, remap[a], remap[b], remap[c])
	}

	removed := len(old.Positions) - len(newPositions)
	old.Positions = newPositions
	old.Indices = newIndices
	old.Normals = newNormals
	old.UVs = newUVs
	return remap, removed
}

func referencesDoomed(doomed map[int]struct{}, idx ...uint32) bool {
	for _, i := range idx {
		if _, gone := doomed[int(i)]; gone {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

// Undo reverts the most recent mutation. Returns false if there is
// nothing to undo.
func (e *VertexEditor) Undo() bool {
	s, ok := e.hist.undo()
	if !ok {
		return false
	}
	e.restore(s)
	return true
}

// Redo reapplies the most recently undone mutation.
func (e *VertexEditor) Redo() bool {
	s, ok := e.hist.redoPop()
	if !ok {
		return false
	}
	e.restore(s)
	return true
}

// CanUndo reports whether an undo record exists.
func (e *VertexEditor) CanUndo() bool { return e.hist.canUndo() }

// CanRedo reports whether a redo record exists.
func (e *VertexEditor) CanRedo() bool { return e.hist.canRedo() }

// UndoDepth returns the number of undoable records.
func (e *VertexEditor) UndoDepth() int { return e.hist.undoDepth() }

func copyVecs(s []v3.Vec) []v3.Vec {
	if s == nil {
		return nil
	}
	return append([]v3.Vec(nil), s...)
}

func copyUVs(s []v2.Vec) []v2.Vec {
	if s == nil {
		return nil
	}
	return append([]v2.Vec(nil), s...)
}

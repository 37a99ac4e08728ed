package editor

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/meshkit/pkg/mesh"
)

// NormalMode selects a normal calculation strategy.
type NormalMode int

const (
	// NormalFlat writes each face normal to the face's vertices;
	// vertices shared by several faces keep the last writer.
	NormalFlat NormalMode = iota
	// NormalSmooth averages the unit normals of adjacent faces.
	NormalSmooth
	// NormalWeightedSmooth averages adjacent face normals weighted by
	// face area, so large faces dominate.
	NormalWeightedSmooth
)

func (m NormalMode) String() string {
	switch m {
	case NormalFlat:
		return "flat"
	case NormalSmooth:
		return "smooth"
	case NormalWeightedSmooth:
		return "weighted"
	default:
		return fmt.Sprintf("NormalMode(%d)", int(m))
	}
}

// NormalEditor is an editing session over a mesh's per-vertex normals.
// History records snapshot the normals array only.
type NormalEditor struct {
	mesh          *mesh.Mesh
	hist          *history[[]v3.Vec]
	autoNormalize bool
}

// NewNormal begins a normal editing session. The editor owns the mesh
// until Finish is called; a nil mesh starts an empty one. Written
// normals are auto-normalized unless disabled with SetAutoNormalize.
func NewNormal(m *mesh.Mesh) *NormalEditor {
	if m == nil {
		m = mesh.New()
	}
	return &NormalEditor{
		mesh:          m,
		hist:          newHistory[[]v3.Vec](),
		autoNormalize: true,
	}
}

// Finish ends the session and returns the mesh.
func (e *NormalEditor) Finish() *mesh.Mesh {
	m := e.mesh
	e.mesh = nil
	return m
}

// Mesh returns the mesh under edit.
func (e *NormalEditor) Mesh() *mesh.Mesh { return e.mesh }

// SetAutoNormalize controls whether SetNormal normalizes its input.
func (e *NormalEditor) SetAutoNormalize(on bool) { e.autoNormalize = on }

func (e *NormalEditor) capture() []v3.Vec {
	return copyVecs(e.mesh.Normals)
}

func (e *NormalEditor) restore(normals []v3.Vec) {
	e.mesh.Normals = normals
}

// ---------------------------------------------------------------------------
// Calculation
// ---------------------------------------------------------------------------

// Calculate recomputes the full normals array with the given mode.
func (e *NormalEditor) Calculate(mode NormalMode) error {
	switch mode {
	case NormalFlat:
		e.CalculateFlat()
	case NormalSmooth:
		e.CalculateSmooth()
	case NormalWeightedSmooth:
		e.CalculateWeighted()
	default:
		return fmt.Errorf("unknown normal mode %d", int(mode))
	}
	return nil
}

// CalculateFlat assigns each vertex the normal of a face using it;
// when several faces share a vertex the last face written wins. All
// vertices start at the default normal, so unused vertices keep it.
func (e *NormalEditor) CalculateFlat() {
	before := e.capture()
	normals := make([]v3.Vec, e.mesh.VertexCount())
	for i := range normals {
		normals[i] = mesh.DefaultNormal
	}
	e.eachFace(func(t mesh.Triangle, n v3.Vec, area float64) {
		normals[t[0]] = n
		normals[t[1]] = n
		normals[t[2]] = n
	})
	e.mesh.Normals = normals
	e.hist.push(before, e.capture())
}

// CalculateSmooth averages the unit normals of the faces around each
// vertex.
func (e *NormalEditor) CalculateSmooth() {
	before := e.capture()
	e.mesh.Normals = e.accumulate(func(n v3.Vec, area float64) v3.Vec {
		return n
	})
	e.hist.push(before, e.capture())
}

// CalculateWeighted averages face normals weighted by face area.
func (e *NormalEditor) CalculateWeighted() {
	before := e.capture()
	e.mesh.Normals = e.accumulate(func(n v3.Vec, area float64) v3.Vec {
		return n.MulScalar(area)
	})
	e.hist.push(before, e.capture())
}

// eachFace visits every in-range triangle with its unit normal and area.
func (e *NormalEditor) eachFace(fn func(t mesh.Triangle, n v3.Vec, area float64)) {
	limit := uint32(e.mesh.VertexCount())
	for i := 0; i < e.mesh.TriangleCount(); i++ {
		t, _ := e.mesh.Triangle(i)
		if t[0] >= limit || t[1] >= limit || t[2] >= limit {
			continue
		}
		n, area := mesh.FaceNormalArea(
			e.mesh.Positions[t[0]], e.mesh.Positions[t[1]], e.mesh.Positions[t[2]])
		fn(t, n, area)
	}
}

func (e *NormalEditor) accumulate(weight func(n v3.Vec, area float64) v3.Vec) []v3.Vec {
	sums := make([]v3.Vec, e.mesh.VertexCount())
	touched := make([]bool, e.mesh.VertexCount())
	e.eachFace(func(t mesh.Triangle, n v3.Vec, area float64) {
		w := weight(n, area)
		for _, v := range t {
			sums[v] = sums[v].Add(w)
			touched[v] = true
		}
	})
	normals := make([]v3.Vec, len(sums))
	for i := range sums {
		if !touched[i] {
			normals[i] = mesh.DefaultNormal
			continue
		}
		normals[i] = mesh.SafeNormalize(sums[i])
	}
	return normals
}

// ---------------------------------------------------------------------------
// Direct edits
// ---------------------------------------------------------------------------

// Normal returns the normal of vertex i, or false if i is out of range
// or the mesh has no normals.
func (e *NormalEditor) Normal(i int) (v3.Vec, bool) {
	if i < 0 || i >= len(e.mesh.Normals) {
		return v3.Vec{}, false
	}
	return e.mesh.Normals[i], true
}

// SetNormal writes the normal of vertex i, normalizing first when
// auto-normalize is on. Returns false without mutating when i is out
// of range or the mesh has no normals array.
func (e *NormalEditor) SetNormal(i int, n v3.Vec) bool {
	if i < 0 || i >= len(e.mesh.Normals) {
		return false
	}
	if e.autoNormalize {
		n = mesh.SafeNormalize(n)
	}
	before := e.capture()
	e.mesh.Normals[i] = n
	e.hist.push(before, e.capture())
	return true
}

// FlipAll negates every normal.
func (e *NormalEditor) FlipAll() {
	if len(e.mesh.Normals) == 0 {
		return
	}
	before := e.capture()
	for i := range e.mesh.Normals {
		e.mesh.Normals[i] = e.mesh.Normals[i].Neg()
	}
	e.hist.push(before, e.capture())
}

// FlipSelected negates the normals at the given vertex indices,
// skipping out-of-range entries. Returns the number flipped.
func (e *NormalEditor) FlipSelected(indices []int) int {
	if len(e.mesh.Normals) == 0 {
		return 0
	}
	before := e.capture()
	flipped := 0
	for _, i := range indices {
		if i < 0 || i >= len(e.mesh.Normals) {
			continue
		}
		e.mesh.Normals[i] = e.mesh.Normals[i].Neg()
		flipped++
	}
	if flipped == 0 {
		return 0
	}
	e.hist.push(before, e.capture())
	return flipped
}

// RemoveNormals drops the normals array entirely.
func (e *NormalEditor) RemoveNormals() {
	if e.mesh.Normals == nil {
		return
	}
	before := e.capture()
	e.mesh.Normals = nil
	e.hist.push(before, e.capture())
}

// NormalizeAll rescales every normal to unit length; near-zero normals
// become the default normal.
func (e *NormalEditor) NormalizeAll() {
	if len(e.mesh.Normals) == 0 {
		return
	}
	before := e.capture()
	for i := range e.mesh.Normals {
		e.mesh.Normals[i] = mesh.SafeNormalize(e.mesh.Normals[i])
	}
	e.hist.push(before, e.capture())
}

// SmoothRegion relaxes the normals at the given vertices toward the
// average of their neighbors' normals, repeated iterations times. The
// adjacency graph is rebuilt from the current connectivity on each
// call.
func (e *NormalEditor) SmoothRegion(indices []int, iterations int) {
	if len(e.mesh.Normals) == 0 || len(indices) == 0 || iterations <= 0 {
		return
	}
	before := e.capture()
	adj := e.mesh.VertexAdjacency()
	changed := false
	for iter := 0; iter < iterations; iter++ {
		snapshot := append([]v3.Vec(nil), e.mesh.Normals...)
		for _, i := range indices {
			if i < 0 || i >= len(e.mesh.Normals) {
				continue
			}
			neighbors := adj[i]
			if len(neighbors) == 0 {
				continue
			}
			sum := snapshot[i]
			for _, n := range neighbors {
				if n < len(snapshot) {
					sum = sum.Add(snapshot[n])
				}
			}
			e.mesh.Normals[i] = mesh.SafeNormalize(sum)
			changed = true
		}
	}
	if !changed {
		return
	}
	e.hist.push(before, e.capture())
}

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

// Undo reverts the most recent mutation.
func (e *NormalEditor) Undo() bool {
	s, ok := e.hist.undo()
	if !ok {
		return false
	}
	e.restore(s)
	return true
}

// Redo reapplies the most recently undone mutation.
func (e *NormalEditor) Redo() bool {
	s, ok := e.hist.redoPop()
	if !ok {
		return false
	}
	e.restore(s)
	return true
}

// CanUndo reports whether an undo record exists.
func (e *NormalEditor) CanUndo() bool { return e.hist.canUndo() }

// CanRedo reports whether a redo record exists.
func (e *NormalEditor) CanRedo() bool { return e.hist.canRedo() }

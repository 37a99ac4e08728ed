// Package mesh defines the triangle mesh data model shared by the
// editors, the validator, and the OBJ interchange layer. A Mesh is a
// passive record; its invariants (index ranges, attribute lengths)
// are checked by Validate, not enforced on construction, so editors
// may violate them transiently mid-operation.
package mesh

import (
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// RGBA is a whole-mesh color. Components are in [0, 1].
type RGBA [4]float32

// White is the default mesh color.
var White = RGBA{1, 1, 1, 1}

// Mesh is a triangle mesh used as a visual asset.
//
// Positions defines the vertex count N. Indices holds one triangle per
// contiguous triple; every value must be < N. Normals and UVs are
// optional (nil), but when present their length must equal N, one
// entry per vertex rather than per triangle corner.
type Mesh struct {
	Name      string
	Positions []v3.Vec
	Indices   []uint32
	Normals   []v3.Vec
	UVs       []v2.Vec
	Color     RGBA
}

// New returns an empty white mesh.
func New() *Mesh {
	return &Mesh{Color: White}
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// TriangleCount returns the number of complete triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Positions) == 0
}

// HasNormals returns true if a normal array is present.
func (m *Mesh) HasNormals() bool {
	return m.Normals != nil
}

// HasUVs returns true if a texture coordinate array is present.
func (m *Mesh) HasUVs() bool {
	return m.UVs != nil
}

// Triangle returns the i-th triangle and true, or a zero triangle and
// false if i is out of range.
func (m *Mesh) Triangle(i int) (Triangle, bool) {
	if i < 0 || i >= m.TriangleCount() {
		return Triangle{}, false
	}
	base := i * 3
	return Triangle{m.Indices[base], m.Indices[base+1], m.Indices[base+2]}, true
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Name:      m.Name,
		Positions: append([]v3.Vec(nil), m.Positions...),
		Indices:   append([]uint32(nil), m.Indices...),
		Color:     m.Color,
	}
	if m.Normals != nil {
		c.Normals = append([]v3.Vec(nil), m.Normals...)
	}
	if m.UVs != nil {
		c.UVs = append([]v2.Vec(nil), m.UVs...)
	}
	return c
}

// Triangle is an ordered triple of vertex indices. The order defines
// the winding, and therefore the front-facing orientation.
type Triangle [3]uint32

// Flip reverses the winding order in place.
func (t *Triangle) Flip() {
	t[1], t[2] = t[2], t[1]
}

// Flipped returns a copy with reversed winding order.
func (t Triangle) Flipped() Triangle {
	return Triangle{t[0], t[2], t[1]}
}

// Degenerate returns true if the three indices are not pairwise distinct.
func (t Triangle) Degenerate() bool {
	return t[0] == t[1] || t[1] == t[2] || t[2] == t[0]
}

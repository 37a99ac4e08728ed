package mesh

import (
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DegenerateAreaEps is the area below which a triangle counts as
// degenerate (collinear or coincident vertices).
const DegenerateAreaEps = 1e-10

// normalLenEps guards against normalizing a near-zero vector.
const normalLenEps = 1e-9

// DefaultNormal is the stand-in normal for vertices with no usable
// face contribution (unused vertices, degenerate faces).
var DefaultNormal = v3.Vec{X: 0, Y: 1, Z: 0}

// FaceNormal returns the unit normal of the triangle (a, b, c),
// or DefaultNormal if the triangle is degenerate.
func FaceNormal(a, b, c v3.Vec) v3.Vec {
	n, _ := FaceNormalArea(a, b, c)
	return n
}

// FaceNormalArea returns the unit normal and the area of the triangle
// (a, b, c). Degenerate triangles yield DefaultNormal and their
// (near-zero) area.
func FaceNormalArea(a, b, c v3.Vec) (v3.Vec, float64) {
	cross := b.Sub(a).Cross(c.Sub(a))
	length := cross.Length()
	area := 0.5 * length
	if length <= normalLenEps {
		return DefaultNormal, area
	}
	return cross.DivScalar(length), area
}

// TriangleArea returns the area of the triangle (a, b, c).
func TriangleArea(a, b, c v3.Vec) float64 {
	return 0.5 * b.Sub(a).Cross(c.Sub(a)).Length()
}

// SafeNormalize returns v scaled to unit length, or DefaultNormal if v
// is too short to normalize.
func SafeNormalize(v v3.Vec) v3.Vec {
	length := v.Length()
	if length <= normalLenEps {
		return DefaultNormal
	}
	return v.DivScalar(length)
}

// EdgeKey identifies an undirected edge by its sorted endpoint indices.
type EdgeKey struct {
	A, B uint32
}

// NewEdgeKey returns the canonical key for the edge (a, b).
func NewEdgeKey(a, b uint32) EdgeKey {
	if a > b {
		a, b = b, a
	}
	return EdgeKey{A: a, B: b}
}

// Edges returns the three undirected edge keys of a triangle.
func (t Triangle) Edges() [3]EdgeKey {
	return [3]EdgeKey{
		NewEdgeKey(t[0], t[1]),
		NewEdgeKey(t[1], t[2]),
		NewEdgeKey(t[2], t[0]),
	}
}

// FaceArea returns the area of the i-th triangle, or 0 if i is out of
// range or the triangle references a missing vertex.
func (m *Mesh) FaceArea(i int) float64 {
	t, ok := m.Triangle(i)
	if !ok {
		return 0
	}
	n := uint32(len(m.Positions))
	if t[0] >= n || t[1] >= n || t[2] >= n {
		return 0
	}
	return TriangleArea(m.Positions[t[0]], m.Positions[t[1]], m.Positions[t[2]])
}

// VertexAdjacency builds the vertex adjacency map implied by the
// triangle connectivity: for each vertex, the sorted set of vertices it
// shares an edge with. Recomputed on demand; connectivity may change
// between calls.
func (m *Mesh) VertexAdjacency() map[int][]int {
	seen := make(map[int]map[int]struct{})
	link := func(a, b int) {
		if seen[a] == nil {
			seen[a] = make(map[int]struct{})
		}
		seen[a][b] = struct{}{}
	}
	for i := 0; i < m.TriangleCount(); i++ {
		t, _ := m.Triangle(i)
		a, b, c := int(t[0]), int(t[1]), int(t[2])
		link(a, b)
		link(a, c)
		link(b, a)
		link(b, c)
		link(c, a)
		link(c, b)
	}
	adj := make(map[int][]int, len(seen))
	for v, set := range seen {
		neighbors := make([]int, 0, len(set))
		for n := range set {
			neighbors = append(neighbors, n)
		}
		sort.Ints(neighbors)
		adj[v] = neighbors
	}
	return adj
}

// EdgeTriangles maps every undirected edge to the triangles using it.
func (m *Mesh) EdgeTriangles() map[EdgeKey][]int {
	edges := make(map[EdgeKey][]int)
	for i := 0; i < m.TriangleCount(); i++ {
		t, _ := m.Triangle(i)
		for _, key := range t.Edges() {
			edges[key] = append(edges[key], i)
		}
	}
	return edges
}

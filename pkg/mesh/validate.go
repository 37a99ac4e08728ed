package mesh

import (
	"math"
	"sort"
)

// Validation thresholds.
const (
	// normalLengthTolerance is how far a normal's length may drift from 1
	// before it is flagged as unnormalized.
	normalLengthTolerance = 0.01
	// duplicateGridCell quantizes positions for duplicate detection.
	duplicateGridCell = 1e-3
	// extremeDistance flags vertices suspiciously far from the origin,
	// usually an import with the wrong unit scale.
	extremeDistance = 100.0
	// largeAreaFactor / smallAreaFactor flag triangles whose area is far
	// from the mesh mean.
	largeAreaFactor = 100.0
	smallAreaFactor = 0.001
)

// Validate inspects a mesh and returns a report of findings plus derived
// statistics. It never mutates the mesh; the same mesh always yields the
// same report.
func Validate(m *Mesh) *Report {
	r := &Report{}

	checkVertexPresence(m, r)
	checkIndexStructure(m, r)
	checkIndexRange(m, r)
	checkDegenerateTriangles(m, r)
	checkManifoldEdges(m, r)
	checkAttributeLengths(m, r)
	checkNormalLengths(m, r)
	checkDuplicateVertices(m, r)
	checkUnusedVertices(m, r)
	checkTriangleAreas(m, r)
	checkExtremeVertices(m, r)

	collectStats(m, r)
	return r
}

func checkVertexPresence(m *Mesh, r *Report) {
	if len(m.Positions) == 0 {
		r.add(SeverityError, CodeNoVertices, "mesh has no vertices")
	}
}

func checkIndexStructure(m *Mesh, r *Report) {
	if len(m.Indices) == 0 {
		r.add(SeverityError, CodeNoIndices, "mesh has no indices")
		return
	}
	if len(m.Indices)%3 != 0 {
		r.add(SeverityError, CodeIndicesNotTriples,
			"index count %d is not a multiple of 3", len(m.Indices))
	}
}

func checkIndexRange(m *Mesh, r *Report) {
	n := uint32(len(m.Positions))
	for i, idx := range m.Indices {
		if idx >= n {
			r.add(SeverityError, CodeIndexOutOfRange,
				"index %d at position %d exceeds vertex count %d", idx, i, n)
		}
	}
}

func checkDegenerateTriangles(m *Mesh, r *Report) {
	n := uint32(len(m.Positions))
	for i := 0; i < m.TriangleCount(); i++ {
		t, _ := m.Triangle(i)
		if t.Degenerate() {
			r.add(SeverityError, CodeDegenerateTriangle,
				"triangle %d repeats a vertex index (%d, %d, %d)", i, t[0], t[1], t[2])
			continue
		}
		if t[0] >= n || t[1] >= n || t[2] >= n {
			continue // already reported as out of range
		}
		area := TriangleArea(m.Positions[t[0]], m.Positions[t[1]], m.Positions[t[2]])
		if area < DegenerateAreaEps {
			r.add(SeverityError, CodeDegenerateTriangle,
				"triangle %d has near-zero area %g", i, area)
		}
	}
}

func checkManifoldEdges(m *Mesh, r *Report) {
	edges := m.EdgeTriangles()
	bad := make([]EdgeKey, 0)
	for key, tris := range edges {
		if len(tris) > 2 {
			bad = append(bad, key)
		}
	}
	sort.Slice(bad, func(i, j int) bool {
		if bad[i].A != bad[j].A {
			return bad[i].A < bad[j].A
		}
		return bad[i].B < bad[j].B
	})
	for _, key := range bad {
		r.add(SeverityError, CodeNonManifoldEdge,
			"edge (%d, %d) is shared by %d triangles", key.A, key.B, len(edges[key]))
	}
}

func checkAttributeLengths(m *Mesh, r *Report) {
	if m.Normals != nil && len(m.Normals) != len(m.Positions) {
		r.add(SeverityError, CodeNormalCount,
			"normal count %d does not match vertex count %d",
			len(m.Normals), len(m.Positions))
	}
	if m.UVs != nil && len(m.UVs) != len(m.Positions) {
		r.add(SeverityError, CodeUVCount,
			"uv count %d does not match vertex count %d",
			len(m.UVs), len(m.Positions))
	}
}

func checkNormalLengths(m *Mesh, r *Report) {
	for i, n := range m.Normals {
		if math.Abs(n.Length()-1) > normalLengthTolerance {
			r.add(SeverityWarning, CodeUnnormalizedNormal,
				"normal %d has length %.4f", i, n.Length())
		}
	}
}

type gridCell struct {
	x, y, z int64
}

func checkDuplicateVertices(m *Mesh, r *Report) {
	seen := make(map[gridCell]int, len(m.Positions))
	for i, p := range m.Positions {
		cell := gridCell{
			x: int64(math.Round(p.X / duplicateGridCell)),
			y: int64(math.Round(p.Y / duplicateGridCell)),
			z: int64(math.Round(p.Z / duplicateGridCell)),
		}
		if first, ok := seen[cell]; ok {
			r.add(SeverityWarning, CodeDuplicateVertex,
				"vertex %d duplicates vertex %d (within %g)", i, first, duplicateGridCell)
			continue
		}
		seen[cell] = i
	}
}

func checkUnusedVertices(m *Mesh, r *Report) {
	if len(m.Positions) == 0 || len(m.Indices) == 0 {
		return
	}
	used := make([]bool, len(m.Positions))
	for _, idx := range m.Indices {
		if int(idx) < len(used) {
			used[idx] = true
		}
	}
	for i, u := range used {
		if !u {
			r.add(SeverityWarning, CodeUnusedVertex,
				"vertex %d is not referenced by any triangle", i)
		}
	}
}

func checkTriangleAreas(m *Mesh, r *Report) {
	count := m.TriangleCount()
	if count == 0 {
		return
	}
	areas := make([]float64, count)
	var total float64
	for i := range areas {
		areas[i] = m.FaceArea(i)
		total += areas[i]
	}
	mean := total / float64(count)
	if mean <= 0 {
		return
	}
	for i, area := range areas {
		switch {
		case area > mean*largeAreaFactor:
			r.add(SeverityWarning, CodeLargeTriangle,
				"triangle %d area %g is more than %gx the mean %g",
				i, area, largeAreaFactor, mean)
		case area > 0 && area < mean*smallAreaFactor:
			r.add(SeverityWarning, CodeSmallTriangle,
				"triangle %d area %g is less than %gx the mean %g",
				i, area, smallAreaFactor, mean)
		}
	}
}

func checkExtremeVertices(m *Mesh, r *Report) {
	limitSq := extremeDistance * extremeDistance
	for i, p := range m.Positions {
		distSq := p.Dot(p)
		if distSq > limitSq {
			r.add(SeverityWarning, CodeExtremeVertex,
				"vertex %d is %.2f units from the origin", i, math.Sqrt(distSq))
		}
	}
}

func collectStats(m *Mesh, r *Report) {
	s := Stats{
		VertexCount:   m.VertexCount(),
		TriangleCount: m.TriangleCount(),
		HasNormals:    m.HasNormals(),
		HasUVs:        m.HasUVs(),
	}
	if len(m.Positions) > 0 {
		s.BoundsMin = m.Positions[0]
		s.BoundsMax = m.Positions[0]
		for _, p := range m.Positions[1:] {
			s.BoundsMin.X = math.Min(s.BoundsMin.X, p.X)
			s.BoundsMin.Y = math.Min(s.BoundsMin.Y, p.Y)
			s.BoundsMin.Z = math.Min(s.BoundsMin.Z, p.Z)
			s.BoundsMax.X = math.Max(s.BoundsMax.X, p.X)
			s.BoundsMax.Y = math.Max(s.BoundsMax.Y, p.Y)
			s.BoundsMax.Z = math.Max(s.BoundsMax.Z, p.Z)
		}
	}
	for i := 0; i < s.TriangleCount; i++ {
		s.SurfaceArea += m.FaceArea(i)
	}
	if s.TriangleCount > 0 {
		s.MeanArea = s.SurfaceArea / float64(s.TriangleCount)
	}
	r.Stats = s

	r.add(SeverityInfo, CodeStats, "%d vertices, %d triangles",
		s.VertexCount, s.TriangleCount)
	if s.VertexCount > 0 {
		r.add(SeverityInfo, CodeStats,
			"bounds min (%.3f, %.3f, %.3f) max (%.3f, %.3f, %.3f)",
			s.BoundsMin.X, s.BoundsMin.Y, s.BoundsMin.Z,
			s.BoundsMax.X, s.BoundsMax.Y, s.BoundsMax.Z)
	}
	if s.TriangleCount > 0 {
		r.add(SeverityInfo, CodeStats, "surface area %.4f, mean triangle area %.6f",
			s.SurfaceArea, s.MeanArea)
	}
}

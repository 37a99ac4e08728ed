package sdfgen

import (
	"math"
	"testing"
)

func TestBoxToMesh(t *testing.T) {
	solid, err := Box(2, 2, 2)
	if err != nil {
		t.Fatalf("Box: %v", err)
	}
	m := ToMesh(solid, 32)

	if m.IsEmpty() {
		t.Fatal("box mesh should not be empty")
	}
	if len(m.Indices)%3 != 0 {
		t.Errorf("index count %d not a multiple of 3", len(m.Indices))
	}
	if len(m.Normals) != m.VertexCount() {
		t.Errorf("normal count %d != vertex count %d", len(m.Normals), m.VertexCount())
	}

	// Every vertex of a centered 2x2x2 box lies within its bounds,
	// give or take tessellation tolerance.
	for i, p := range m.Positions {
		if math.Abs(p.X) > 1.1 || math.Abs(p.Y) > 1.1 || math.Abs(p.Z) > 1.1 {
			t.Fatalf("vertex %d escapes the box: %v", i, p)
		}
	}
}

func TestSphereToMesh(t *testing.T) {
	solid, err := Sphere(1)
	if err != nil {
		t.Fatalf("Sphere: %v", err)
	}
	m := ToMesh(solid, 32)

	if m.TriangleCount() == 0 {
		t.Fatal("sphere mesh should have triangles")
	}
	// Sampled surface points sit near radius 1.
	for i, p := range m.Positions {
		r := p.Length()
		if r < 0.8 || r > 1.2 {
			t.Fatalf("vertex %d at radius %g, want ~1", i, r)
		}
	}
	// Soup normals are unit length.
	for i, n := range m.Normals {
		if math.Abs(n.Length()-1) > 1e-6 {
			t.Fatalf("normal %d not unit length: %v", i, n)
		}
	}
}

func TestCylinderToMesh(t *testing.T) {
	solid, err := Cylinder(2, 0.5)
	if err != nil {
		t.Fatalf("Cylinder: %v", err)
	}
	m := ToMesh(solid, 32)
	if m.TriangleCount() == 0 {
		t.Fatal("cylinder mesh should have triangles")
	}
}

func TestInvalidDimensions(t *testing.T) {
	if _, err := Box(-1, 1, 1); err == nil {
		t.Error("negative box dimension should error")
	}
	if _, err := Cylinder(1, -1); err == nil {
		t.Error("negative cylinder radius should error")
	}
	if _, err := Sphere(0); err == nil {
		t.Error("zero sphere radius should error")
	}
}

func TestToMeshDefaultCells(t *testing.T) {
	solid, err := Box(1, 1, 1)
	if err != nil {
		t.Fatalf("Box: %v", err)
	}
	m := ToMesh(solid, 0)
	if m.IsEmpty() {
		t.Fatal("default resolution should still produce a mesh")
	}
}

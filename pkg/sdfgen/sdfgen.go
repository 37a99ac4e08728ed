// Package sdfgen produces triangle meshes from signed distance fields.
// It is the toolkit's reference mesh producer: solids are described
// with the sdfx CAD library and tessellated by marching cubes into the
// mesh type the editors and validator consume.
package sdfgen

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/meshkit/pkg/mesh"
)

// DefaultCells is the marching cubes resolution used when ToMesh is
// given a non-positive cell count.
const DefaultCells = 100

// Box returns a box solid with the given dimensions, centered at the
// origin.
func Box(x, y, z float64) (sdf.SDF3, error) {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfgen: box: %w", err)
	}
	return s, nil
}

// Cylinder returns a cylinder solid with the given height and radius,
// centered at the origin with its axis along Z.
func Cylinder(height, radius float64) (sdf.SDF3, error) {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfgen: cylinder: %w", err)
	}
	return s, nil
}

// Sphere returns a sphere solid with the given radius, centered at the
// origin.
func Sphere(radius float64) (sdf.SDF3, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("sdfgen: sphere: %w", err)
	}
	return s, nil
}

// ToMesh tessellates a solid with uniform marching cubes at the given
// resolution and returns it as a triangle mesh. The output is a
// triangle soup: three vertices per face, each carrying the face
// normal, so every face renders flat. Weld with the vertex editor's
// merge if shared vertices are wanted.
func ToMesh(s sdf.SDF3, cells int) *mesh.Mesh {
	if cells <= 0 {
		cells = DefaultCells
	}

	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(s, renderer)

	m := mesh.New()
	m.Positions = make([]v3.Vec, 0, len(triangles)*3)
	m.Normals = make([]v3.Vec, 0, len(triangles)*3)
	m.Indices = make([]uint32, 0, len(triangles)*3)

	for _, tri := range triangles {
		n := tri.Normal()
		for j := 0; j < 3; j++ {
			m.Indices = append(m.Indices, uint32(len(m.Positions)))
			m.Positions = append(m.Positions, tri[j])
			m.Normals = append(m.Normals, n)
		}
	}
	return m
}

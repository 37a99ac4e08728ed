// Package objio reads and writes triangle meshes in Wavefront OBJ
// format. Both directions are stateless: text in, mesh out, and back.
//
// The dialect is the editing toolkit's own: positions, per-vertex
// normals and texture coordinates, triangle and polygon faces.
// Material directives are skipped on import and never written.
package objio

import (
	"fmt"
	"strings"

	"github.com/chazu/meshkit/pkg/mesh"
)

// ExportOptions controls what Export writes. The zero value does not
// mean "everything off": Export substitutes DefaultExportOptions for
// it. To write positions only, set a nonzero FloatPrecision and leave
// the include flags false.
type ExportOptions struct {
	// IncludeNormals writes vn lines and normal refs in faces.
	IncludeNormals bool
	// IncludeUVs writes vt lines and texture refs in faces.
	IncludeUVs bool
	// IncludeObjectName writes an o line.
	IncludeObjectName bool
	// IncludeComments writes header and section comments.
	IncludeComments bool
	// FloatPrecision is the number of decimal places for floats.
	FloatPrecision int
	// FlipYZ converts to a Y-up-to-Z-up convention on the way out,
	// the inverse of the import flip.
	FlipYZ bool
	// FlipUVV writes 1-v for every texture V coordinate.
	FlipUVV bool
}

// DefaultExportOptions returns the options Export uses when given the
// zero value: everything included, six decimal places.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		IncludeNormals:    true,
		IncludeUVs:        true,
		IncludeObjectName: true,
		IncludeComments:   true,
		FloatPrecision:    6,
	}
}

// Export renders a mesh as OBJ text. A zero ExportOptions is replaced
// by DefaultExportOptions.
func Export(m *mesh.Mesh, opts ExportOptions) (string, error) {
	if m == nil {
		return "", fmt.Errorf("objio: export of nil mesh")
	}
	if opts == (ExportOptions{}) {
		opts = DefaultExportOptions()
	}
	if opts.FloatPrecision < 0 {
		return "", fmt.Errorf("objio: negative float precision %d", opts.FloatPrecision)
	}

	var b strings.Builder
	prec := opts.FloatPrecision

	if opts.IncludeComments {
		b.WriteString("# Wavefront OBJ file\n")
		b.WriteString("# Exported by meshkit\n")
		b.WriteString("#\n")
	}

	if opts.IncludeObjectName {
		name := m.Name
		if name == "" {
			name = "mesh"
		}
		fmt.Fprintf(&b, "o %s\n", name)
	}

	if opts.IncludeComments {
		fmt.Fprintf(&b, "# %d vertices\n", m.VertexCount())
	}
	for _, p := range m.Positions {
		x, y, z := p.X, p.Y, p.Z
		if opts.FlipYZ {
			y, z = -z, y
		}
		fmt.Fprintf(&b, "v %.*f %.*f %.*f\n", prec, x, prec, y, prec, z)
	}

	writeUVs := opts.IncludeUVs && m.HasUVs()
	if writeUVs {
		if opts.IncludeComments {
			fmt.Fprintf(&b, "# %d texture coordinates\n", len(m.UVs))
		}
		for _, uv := range m.UVs {
			v := uv.Y
			if opts.FlipUVV {
				v = 1 - v
			}
			fmt.Fprintf(&b, "vt %.*f %.*f\n", prec, uv.X, prec, v)
		}
	}

	writeNormals := opts.IncludeNormals && m.HasNormals()
	if writeNormals {
		if opts.IncludeComments {
			fmt.Fprintf(&b, "# %d normals\n", len(m.Normals))
		}
		for _, n := range m.Normals {
			x, y, z := n.X, n.Y, n.Z
			if opts.FlipYZ {
				y, z = -z, y
			}
			fmt.Fprintf(&b, "vn %.*f %.*f %.*f\n", prec, x, prec, y, prec, z)
		}
	}

	if opts.IncludeComments {
		fmt.Fprintf(&b, "# %d faces\n", m.TriangleCount())
	}
	for i := 0; i < m.TriangleCount(); i++ {
		t, _ := m.Triangle(i)
		b.WriteString("f")
		for _, idx := range t {
			ref := idx + 1 // OBJ refs are 1-based
			switch {
			case writeUVs && writeNormals:
				fmt.Fprintf(&b, " %d/%d/%d", ref, ref, ref)
			case writeUVs:
				fmt.Fprintf(&b, " %d/%d", ref, ref)
			case writeNormals:
				fmt.Fprintf(&b, " %d//%d", ref, ref)
			default:
				fmt.Fprintf(&b, " %d", ref)
			}
		}
		b.WriteString("\n")
	}

	return b.String(), nil
}

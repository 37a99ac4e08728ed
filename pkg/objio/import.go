package objio

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/meshkit/pkg/mesh"
)

var (
	// ErrNoVertices means the input defined no v lines.
	ErrNoVertices = errors.New("objio: no vertices found")
	// ErrNoFaces means the input defined no f lines.
	ErrNoFaces = errors.New("objio: no faces found")
)

// ParseError reports a malformed line. Line is 1-based; Content is the
// trimmed offending line.
type ParseError struct {
	Line    int
	Content string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("objio: line %d: %v: %q", e.Line, e.Err, e.Content)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ImportOptions controls Import behavior.
type ImportOptions struct {
	// Name overrides any o/g name found in the input.
	Name string
	// DefaultColor is assigned to the imported mesh; the zero value
	// means white.
	DefaultColor mesh.RGBA
	// FlipYZ maps incoming (x, y, z) to (x, z, -y), for files written
	// with a Z-up convention.
	FlipYZ bool
	// FlipUVV replaces every texture V coordinate with 1-v.
	FlipUVV bool
}

// Import parses OBJ text into a mesh. Import is atomic: on any error
// it returns nil and the mesh is untouched by partial state. Normal
// and texture refs in faces are accepted but the attribute arrays are
// taken positionally, one entry per vertex in file order.
func Import(text string, opts ImportOptions) (*mesh.Mesh, error) {
	var (
		positions []v3.Vec
		normals   []v3.Vec
		uvs       []v2.Vec
		indices   []uint32
		name      string
	)

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		fail := func(err error) error {
			return &ParseError{Line: lineNo, Content: line, Err: err}
		}

		switch fields[0] {
		case "o", "g":
			if len(fields) > 1 && name == "" {
				name = strings.Join(fields[1:], " ")
			}

		case "v":
			p, err := parseVec3(fields)
			if err != nil {
				return nil, fail(err)
			}
			if opts.FlipYZ {
				p = v3.Vec{X: p.X, Y: p.Z, Z: -p.Y}
			}
			positions = append(positions, p)

		case "vn":
			n, err := parseVec3(fields)
			if err != nil {
				return nil, fail(err)
			}
			if opts.FlipYZ {
				n = v3.Vec{X: n.X, Y: n.Z, Z: -n.Y}
			}
			normals = append(normals, n)

		case "vt":
			if len(fields) < 3 {
				return nil, fail(fmt.Errorf("texture coordinate needs 2 components"))
			}
			u, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, fail(fmt.Errorf("bad texture U: %w", err))
			}
			v, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return nil, fail(fmt.Errorf("bad texture V: %w", err))
			}
			if opts.FlipUVV {
				v = 1 - v
			}
			uvs = append(uvs, v2.Vec{X: u, Y: v})

		case "f":
			if len(fields) < 4 {
				return nil, fail(fmt.Errorf("face needs at least 3 corners"))
			}
			corners := make([]uint32, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				pos, err := parseFaceRef(ref)
				if err != nil {
					return nil, fail(err)
				}
				if pos < 1 || pos > len(positions) {
					return nil, fail(fmt.Errorf(
						"vertex ref %d out of range 1..%d", pos, len(positions)))
				}
				corners = append(corners, uint32(pos-1))
			}
			// Polygons become a fan anchored on the first corner.
			for i := 1; i+1 < len(corners); i++ {
				indices = append(indices, corners[0], corners[i], corners[i+1])
			}

		case "mtllib", "usemtl", "s":
			// Materials and smoothing groups are not carried.

		default:
			// Unknown directives are skipped.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("objio: read: %w", err)
	}

	if len(positions) == 0 {
		return nil, ErrNoVertices
	}
	if len(indices) == 0 {
		return nil, ErrNoFaces
	}

	if opts.Name != "" {
		name = opts.Name
	}
	color := opts.DefaultColor
	if color == (mesh.RGBA{}) {
		color = mesh.White
	}

	m := mesh.New()
	m.Name = name
	m.Positions = positions
	m.Indices = indices
	m.Color = color
	if len(normals) > 0 {
		m.Normals = normals
	}
	if len(uvs) > 0 {
		m.UVs = uvs
	}
	return m, nil
}

func parseVec3(fields []string) (v3.Vec, error) {
	if len(fields) < 4 {
		return v3.Vec{}, fmt.Errorf("%s needs 3 components", fields[0])
	}
	var out [3]float64
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return v3.Vec{}, fmt.Errorf("bad %s component %d: %w", fields[0], i+1, err)
		}
		out[i] = f
	}
	return v3.Vec{X: out[0], Y: out[1], Z: out[2]}, nil
}

// parseFaceRef parses one face corner: "p", "p/t", "p//n" or "p/t/n".
// Only the position ref is used; texture and normal refs are validated
// syntactically and discarded.
func parseFaceRef(s string) (int, error) {
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return 0, fmt.Errorf("malformed face ref %q", s)
	}
	pos, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("bad vertex ref in %q: %w", s, err)
	}
	for _, part := range parts[1:] {
		if part == "" {
			continue
		}
		if _, err := strconv.Atoi(part); err != nil {
			return 0, fmt.Errorf("bad attribute ref in %q: %w", s, err)
		}
	}
	return pos, nil
}

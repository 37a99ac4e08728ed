package objio

import (
	"fmt"
	"os"

	"github.com/chazu/meshkit/pkg/mesh"
)

// ImportFile reads and parses an OBJ file.
func ImportFile(path string, opts ImportOptions) (*mesh.Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("objio: read %s: %w", path, err)
	}
	return Import(string(data), opts)
}

// ExportFile writes a mesh to an OBJ file.
func ExportFile(m *mesh.Mesh, path string, opts ExportOptions) error {
	text, err := Export(m, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("objio: write %s: %w", path, err)
	}
	return nil
}

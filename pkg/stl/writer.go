package stl

import (
	"fmt"
	"io"

	hstl "github.com/hschendel/stl"
)

// Solid converts the model into the encoder's representation
func (m *Model) Solid(ascii bool) *hstl.Solid {
	solid := &hstl.Solid{
		Name:      m.Name,
		IsAscii:   ascii,
		Triangles: make([]hstl.Triangle, len(m.Triangles)),
	}
	for i, t := range m.Triangles {
		solid.Triangles[i] = hstl.Triangle{
			Normal: hstl.Vec3(toFloat32(t.Normal)),
			Vertices: [3]hstl.Vec3{
				hstl.Vec3(toFloat32(t.V1)),
				hstl.Vec3(toFloat32(t.V2)),
				hstl.Vec3(toFloat32(t.V3)),
			},
		}
	}
	return solid
}

// Write encodes the model as ASCII or binary STL
func (m *Model) Write(w io.Writer, ascii bool) error {
	if err := m.Solid(ascii).WriteAll(w); err != nil {
		return fmt.Errorf("failed to write STL: %w", err)
	}
	return nil
}

// WriteFile encodes the model into a new file at path
func (m *Model) WriteFile(path string, ascii bool) error {
	if err := m.Solid(ascii).WriteFile(path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

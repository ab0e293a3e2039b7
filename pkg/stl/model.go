package stl

import (
	"gonum.org/v1/gonum/floats"

	"github.com/philipparndt/stlslice/pkg/geometry"
)

// Model is a decoded STL mesh in patient coordinates (mm).
//
// Source is the file the mesh was read from and stays empty for meshes built
// in memory. Name is the solid name stored inside the file.
type Model struct {
	Name      string
	Source    string
	Triangles []geometry.Triangle
}

// NewModel creates an in-memory model without triangles
func NewModel(name string) *Model {
	return &Model{Name: name}
}

// AddTriangle appends a facet
func (m *Model) AddTriangle(triangle geometry.Triangle) {
	m.Triangles = append(m.Triangles, triangle)
}

func (m *Model) TriangleCount() int {
	return len(m.Triangles)
}

// Label names the mesh for display: the source path when known, else the
// solid name
func (m *Model) Label() string {
	switch {
	case m.Source != "":
		return m.Source
	case m.Name != "":
		return m.Name
	default:
		return "mesh"
	}
}

// BoundingBox spans all vertices; it is empty for a model without triangles
func (m *Model) BoundingBox() geometry.BoundingBox {
	return geometry.BoundsOf(m.Triangles)
}

// SurfaceArea sums the facet areas in mm²
func (m *Model) SurfaceArea() float64 {
	areas := make([]float64, len(m.Triangles))
	for i, triangle := range m.Triangles {
		areas[i] = triangle.Area()
	}
	return floats.Sum(areas)
}

// WithTriangles returns a model with the same identity and a different mesh,
// used for cropped exports
func (m *Model) WithTriangles(triangles []geometry.Triangle) *Model {
	return &Model{Name: m.Name, Source: m.Source, Triangles: triangles}
}

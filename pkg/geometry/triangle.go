package geometry

// Triangle represents a triangular facet in 3D space
type Triangle struct {
	Normal     Vector3
	V1, V2, V3 Vector3
}

// NewTriangle creates a new triangle
func NewTriangle(normal, v1, v2, v3 Vector3) Triangle {
	return Triangle{
		Normal: normal,
		V1:     v1,
		V2:     v2,
		V3:     v3,
	}
}

// TriangleFromVertices creates a triangle and derives its normal from the winding
func TriangleFromVertices(v1, v2, v3 Vector3) Triangle {
	t := Triangle{V1: v1, V2: v2, V3: v3}
	t.Normal = t.CalculateNormal()
	return t
}

// Vertices returns the three corners in winding order
func (t Triangle) Vertices() [3]Vector3 {
	return [3]Vector3{t.V1, t.V2, t.V3}
}

// Zs returns the z coordinate of each corner
func (t Triangle) Zs() [3]float64 {
	return [3]float64{t.V1.Z, t.V2.Z, t.V3.Z}
}

// Map applies fn to every vertex and recomputes the normal
func (t Triangle) Map(fn func(Vector3) Vector3) Triangle {
	return TriangleFromVertices(fn(t.V1), fn(t.V2), fn(t.V3))
}

// IsFinite reports whether all vertices have finite coordinates
func (t Triangle) IsFinite() bool {
	return t.V1.IsFinite() && t.V2.IsFinite() && t.V3.IsFinite()
}

// CalculateNormal computes the normal vector for the triangle
func (t Triangle) CalculateNormal() Vector3 {
	edge1 := t.V2.Sub(t.V1)
	edge2 := t.V3.Sub(t.V1)
	return edge1.Cross(edge2).Normalize()
}

// Area returns the surface area of the triangle
func (t Triangle) Area() float64 {
	edge1 := t.V2.Sub(t.V1)
	edge2 := t.V3.Sub(t.V1)
	return edge1.Cross(edge2).Length() / 2.0
}

// EdgeLengths returns the lengths of all three edges
func (t Triangle) EdgeLengths() [3]float64 {
	return [3]float64{
		t.V1.Distance(t.V2),
		t.V2.Distance(t.V3),
		t.V3.Distance(t.V1),
	}
}

// Perimeter returns the total length of all edges
func (t Triangle) Perimeter() float64 {
	lengths := t.EdgeLengths()
	return lengths[0] + lengths[1] + lengths[2]
}

// Center returns the centroid of the triangle
func (t Triangle) Center() Vector3 {
	return Vector3{
		X: (t.V1.X + t.V2.X + t.V3.X) / 3.0,
		Y: (t.V1.Y + t.V2.Y + t.V3.Y) / 3.0,
		Z: (t.V1.Z + t.V2.Z + t.V3.Z) / 3.0,
	}
}

package geometry

import "math"

// BoundingBox represents an axis-aligned bounding box
type BoundingBox struct {
	Min Vector3
	Max Vector3
}

// NewBoundingBox creates an empty bounding box that any point will extend
func NewBoundingBox() BoundingBox {
	return BoundingBox{
		Min: Vector3{X: math.MaxFloat64, Y: math.MaxFloat64, Z: math.MaxFloat64},
		Max: Vector3{X: -math.MaxFloat64, Y: -math.MaxFloat64, Z: -math.MaxFloat64},
	}
}

// BoundsOf returns the bounding box of a set of triangles
func BoundsOf(triangles []Triangle) BoundingBox {
	bbox := NewBoundingBox()
	for _, t := range triangles {
		bbox.Extend(t.V1)
		bbox.Extend(t.V2)
		bbox.Extend(t.V3)
	}
	return bbox
}

// Extend expands the bounding box to include a point
func (b *BoundingBox) Extend(point Vector3) {
	b.Min = b.Min.Min(point)
	b.Max = b.Max.Max(point)
}

// IsEmpty reports whether no point has been added yet
func (b BoundingBox) IsEmpty() bool {
	return b.Min.X > b.Max.X
}

// Size returns the dimensions of the bounding box
func (b BoundingBox) Size() Vector3 {
	if b.IsEmpty() {
		return Vector3{}
	}
	return b.Max.Sub(b.Min)
}

// Center returns the center point of the bounding box
func (b BoundingBox) Center() Vector3 {
	if b.IsEmpty() {
		return Vector3{}
	}
	return Vector3{
		X: (b.Min.X + b.Max.X) / 2.0,
		Y: (b.Min.Y + b.Max.Y) / 2.0,
		Z: (b.Min.Z + b.Max.Z) / 2.0,
	}
}

// Diagonal returns the length of the bounding box diagonal
func (b BoundingBox) Diagonal() float64 {
	return b.Size().Length()
}

// Volume returns the volume of the bounding box
func (b BoundingBox) Volume() float64 {
	size := b.Size()
	return size.X * size.Y * size.Z
}

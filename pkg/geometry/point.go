package geometry

import "math"

// Point is a position on a 2D slice raster, in pixels with y growing downward
type Point struct {
	X, Y float64
}

// Distance returns the euclidean distance between two points
func (p Point) Distance(other Point) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

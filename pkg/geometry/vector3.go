package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vector3 represents a 3D point or vector in mesh or slice space
type Vector3 struct {
	X, Y, Z float64
}

// NewVector3 creates a new 3D vector
func NewVector3(x, y, z float64) Vector3 {
	return Vector3{X: x, Y: y, Z: z}
}

// FromVec converts a gonum vector
func FromVec(v r3.Vec) Vector3 {
	return Vector3{X: v.X, Y: v.Y, Z: v.Z}
}

// Vec converts the vector to a gonum vector for use with r3 helpers
func (v Vector3) Vec() r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

// Add returns the sum of two vectors
func (v Vector3) Add(other Vector3) Vector3 {
	return FromVec(r3.Add(v.Vec(), other.Vec()))
}

// Sub returns the difference between two vectors
func (v Vector3) Sub(other Vector3) Vector3 {
	return FromVec(r3.Sub(v.Vec(), other.Vec()))
}

// Mul multiplies the vector by a scalar
func (v Vector3) Mul(scalar float64) Vector3 {
	return FromVec(r3.Scale(scalar, v.Vec()))
}

// Lerp returns the point at parameter t on the segment from v to other
func (v Vector3) Lerp(other Vector3, t float64) Vector3 {
	return Vector3{
		X: v.X + (other.X-v.X)*t,
		Y: v.Y + (other.Y-v.Y)*t,
		Z: v.Z + (other.Z-v.Z)*t,
	}
}

// Dot returns the dot product of two vectors
func (v Vector3) Dot(other Vector3) float64 {
	return r3.Dot(v.Vec(), other.Vec())
}

// Cross returns the cross product of two vectors
func (v Vector3) Cross(other Vector3) Vector3 {
	return FromVec(r3.Cross(v.Vec(), other.Vec()))
}

// Length returns the magnitude of the vector
func (v Vector3) Length() float64 {
	return r3.Norm(v.Vec())
}

// Distance returns the distance between two points
func (v Vector3) Distance(other Vector3) float64 {
	return v.Sub(other).Length()
}

// Normalize returns a unit vector in the same direction
func (v Vector3) Normalize() Vector3 {
	length := v.Length()
	if length == 0 {
		return Vector3{}
	}
	return v.Mul(1.0 / length)
}

// Min returns a vector with the minimum components of two vectors
func (v Vector3) Min(other Vector3) Vector3 {
	return Vector3{
		X: math.Min(v.X, other.X),
		Y: math.Min(v.Y, other.Y),
		Z: math.Min(v.Z, other.Z),
	}
}

// Max returns a vector with the maximum components of two vectors
func (v Vector3) Max(other Vector3) Vector3 {
	return Vector3{
		X: math.Max(v.X, other.X),
		Y: math.Max(v.Y, other.Y),
		Z: math.Max(v.Z, other.Z),
	}
}

// IsFinite reports whether no component is NaN or infinite
func (v Vector3) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

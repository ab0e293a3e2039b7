package viewer

import (
	"math"

	"github.com/philipparndt/stlslice/pkg/geometry"
)

const (
	nearPlane = 0.01
	maxPitch  = math.Pi/2 - 0.1
)

// Camera orbits a target point at a fixed distance
type Camera struct {
	Position geometry.Vector3
	Target   geometry.Vector3
	Up       geometry.Vector3
	FOV      float64 // Field of view in radians
	Distance float64
	Pitch    float64 // Rotation around the horizontal axis
	Yaw      float64 // Rotation around the vertical axis
}

// NewCamera creates a camera looking at the centre of a bounding box from a
// distance that keeps the whole box in view
func NewCamera(bbox geometry.BoundingBox) *Camera {
	center := bbox.Center()
	distance := bbox.Diagonal() * 1.5
	if distance <= 0 {
		distance = 1
	}

	c := &Camera{
		Target:   center,
		Up:       geometry.NewVector3(0, 1, 0),
		FOV:      math.Pi / 4, // 45 degrees
		Distance: distance,
	}
	c.UpdatePosition()
	return c
}

// UpdatePosition places the camera on its orbit sphere
func (c *Camera) UpdatePosition() {
	x := c.Distance * math.Cos(c.Pitch) * math.Sin(c.Yaw)
	y := c.Distance * math.Sin(c.Pitch)
	z := c.Distance * math.Cos(c.Pitch) * math.Cos(c.Yaw)

	c.Position = c.Target.Add(geometry.NewVector3(x, y, z))
}

// Orbit sets absolute yaw and pitch angles in radians
func (c *Camera) Orbit(yaw, pitch float64) {
	c.Yaw = yaw
	c.Pitch = math.Max(-maxPitch, math.Min(maxPitch, pitch))
	c.UpdatePosition()
}

// Rotate changes the orbit angles by the given deltas
func (c *Camera) Rotate(deltaPitch, deltaYaw float64) {
	c.Orbit(c.Yaw+deltaYaw, c.Pitch+deltaPitch)
}

// Zoom changes the camera distance
func (c *Camera) Zoom(delta float64) {
	c.Distance *= (1.0 + delta)
	if c.Distance < 0.1 {
		c.Distance = 0.1
	}
	c.UpdatePosition()
}

// basis returns the camera's right, up and forward unit vectors
func (c *Camera) basis() (right, up, forward geometry.Vector3) {
	forward = c.Target.Sub(c.Position).Normalize()
	right = forward.Cross(c.Up).Normalize()
	up = right.Cross(forward).Normalize()
	return right, up, forward
}

// Forward is the unit viewing direction
func (c *Camera) Forward() geometry.Vector3 {
	_, _, forward := c.basis()
	return forward
}

// Project maps a world point to screen coordinates and its view depth.
// ok is false for points behind the near plane.
func (c *Camera) Project(point geometry.Vector3, width, height float64) (x, y, depth float64, ok bool) {
	right, up, forward := c.basis()

	// Transform to camera space
	relative := point.Sub(c.Position)
	cx := relative.Dot(right)
	cy := relative.Dot(up)
	cz := relative.Dot(forward)

	if cz <= nearPlane {
		return 0, 0, cz, false
	}

	aspect := width / height
	fovScale := math.Tan(c.FOV / 2)

	x = (cx/(cz*fovScale*aspect))*(width/2) + (width / 2)
	y = (-cy/(cz*fovScale))*(height/2) + (height / 2)
	return x, y, cz, true
}

package slicestack

import (
	"github.com/philipparndt/stlslice/pkg/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

// Placement maps a slice raster into world space.
//
// In the local frame the raster covers [-0.5, 0.5] on x and y, with y pointing
// up (against the raster rows), and z is the signed world distance from the
// slice plane along Normal.
type Placement struct {
	Origin r3.Vec // centre of the raster in world space
	Row    r3.Vec // unit direction of increasing column index
	Up     r3.Vec // unit direction of decreasing row index
	Normal r3.Vec // unit plane normal
	Width  float64
	Height float64
}

var (
	defaultRow = r3.Vec{X: 1}
	defaultCol = r3.Vec{Y: 1}
)

// NewPlacement builds a placement from the world position of the first raster
// pixel, the row and column direction cosines and the physical raster size.
// Zero directions fall back to the x and y axes, non-positive sizes to 1.
func NewPlacement(position, rowDir, colDir r3.Vec, width, height float64) Placement {
	row := unitOr(rowDir, defaultRow)
	col := unitOr(colDir, defaultCol)
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}

	origin := r3.Add(position, r3.Add(r3.Scale(width/2, row), r3.Scale(height/2, col)))
	return Placement{
		Origin: origin,
		Row:    row,
		Up:     r3.Scale(-1, col),
		Normal: unitOr(r3.Cross(row, col), r3.Vec{Z: 1}),
		Width:  width,
		Height: height,
	}
}

// AxisAligned places a raster of the given size parallel to the xy plane with
// its first pixel at (0, 0, depth)
func AxisAligned(width, height, depth float64) Placement {
	return NewPlacement(r3.Vec{Z: depth}, defaultRow, defaultCol, width, height)
}

func unitOr(v, fallback r3.Vec) r3.Vec {
	if r3.Norm(v) == 0 {
		return fallback
	}
	return r3.Unit(v)
}

// ToLocal converts a world point into the slice frame
func (p Placement) ToLocal(v geometry.Vector3) geometry.Vector3 {
	d := r3.Sub(v.Vec(), p.Origin)
	return geometry.Vector3{
		X: r3.Dot(d, p.Row) / p.Width,
		Y: r3.Dot(d, p.Up) / p.Height,
		Z: r3.Dot(d, p.Normal),
	}
}

// ToWorld converts a point in the slice frame back to world space
func (p Placement) ToWorld(v geometry.Vector3) geometry.Vector3 {
	w := p.Origin
	w = r3.Add(w, r3.Scale(v.X*p.Width, p.Row))
	w = r3.Add(w, r3.Scale(v.Y*p.Height, p.Up))
	w = r3.Add(w, r3.Scale(v.Z, p.Normal))
	return geometry.FromVec(w)
}

// ToLocalTriangles expresses a mesh in the slice frame, where the slice plane is z = 0
func (p Placement) ToLocalTriangles(mesh []geometry.Triangle) []geometry.Triangle {
	local := make([]geometry.Triangle, len(mesh))
	for i, tri := range mesh {
		local[i] = tri.Map(p.ToLocal)
	}
	return local
}

// ToWorldTriangles is the inverse of ToLocalTriangles
func (p Placement) ToWorldTriangles(mesh []geometry.Triangle) []geometry.Triangle {
	world := make([]geometry.Triangle, len(mesh))
	for i, tri := range mesh {
		world[i] = tri.Map(p.ToWorld)
	}
	return world
}

// PixelToWorld lifts a raster position of an image with the given pixel size
// onto the slice plane
func (p Placement) PixelToWorld(pt geometry.Point, imageWidth, imageHeight int) geometry.Vector3 {
	local := geometry.Vector3{
		X: pt.X/float64(imageWidth) - 0.5,
		Y: 0.5 - pt.Y/float64(imageHeight),
	}
	return p.ToWorld(local)
}

// Corners returns the raster corners in world space: top-left, top-right,
// bottom-right, bottom-left
func (p Placement) Corners() [4]geometry.Vector3 {
	return [4]geometry.Vector3{
		p.ToWorld(geometry.NewVector3(-0.5, 0.5, 0)),
		p.ToWorld(geometry.NewVector3(0.5, 0.5, 0)),
		p.ToWorld(geometry.NewVector3(0.5, -0.5, 0)),
		p.ToWorld(geometry.NewVector3(-0.5, -0.5, 0)),
	}
}

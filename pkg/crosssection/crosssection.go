// Package crosssection intersects a triangle mesh with the plane z = 0 and
// produces the outline as 2D segments in slice raster coordinates.
//
// The mesh must already be expressed in the slice frame (see
// slicestack.Placement.ToLocalTriangles): x and y in [-0.5, 0.5] cover the
// raster, z is the signed distance from the plane.
//
// Work is triangle-local. Each crossing triangle contributes at most one
// segment and segments are not joined; see Contours for chaining them.
//
// Vertices lying exactly on the plane count as neither above nor below it.
// A triangle that only touches the plane with one vertex, or lies in it, is
// therefore not crossing, and a crossing triangle with a vertex on the plane
// produces three sign changes and is skipped. Meshes aligned to the slice grid
// can lose outline pieces this way.
package crosssection

import (
	"fmt"
	"iter"

	"github.com/philipparndt/stlslice/pkg/geometry"
)

// Segment is one piece of the outline, tagged with the index of the triangle
// it came from
type Segment struct {
	A, B     geometry.Point
	Triangle int
}

// CrossSection is the outline of a mesh on a slice raster of Width x Height pixels
type CrossSection struct {
	Width    int
	Height   int
	Segments []Segment

	// Skipped counts crossing triangles that produced no segment
	Skipped int
}

// Edges holds the indices of the two triangle edges that cross the plane.
// Edge i runs from vertex i to vertex (i+1)%3.
type Edges [2]int

// edgeVertices maps an edge index to its endpoint vertex indices
var edgeVertices = [3][2]int{
	{0, 1},
	{1, 2},
	{2, 0},
}

// SelectCrossingTriangles yields the triangles that have at least one vertex
// strictly above and one strictly below the plane, with their mesh index.
// The sequence is lazy, keeps mesh order and can be iterated repeatedly.
func SelectCrossingTriangles(mesh []geometry.Triangle) iter.Seq2[int, geometry.Triangle] {
	return func(yield func(int, geometry.Triangle) bool) {
		for i, tri := range mesh {
			if !crosses(tri.Zs()) {
				continue
			}
			if !yield(i, tri) {
				return
			}
		}
	}
}

func crosses(z [3]float64) bool {
	above := z[0] > 0 || z[1] > 0 || z[2] > 0
	below := z[0] < 0 || z[1] < 0 || z[2] < 0
	return above && below
}

// sign returns 1, -1 or 0. NaN has sign 0.
func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// FindCrossingEdges returns the two edges whose endpoints have different signs.
// It reports false unless exactly two edges change sign, which happens when a
// vertex lies on the plane or the triangle does not cross it.
func FindCrossingEdges(z [3]float64) (Edges, bool) {
	var edges Edges
	count := 0
	for i, ends := range edgeVertices {
		if sign(z[ends[0]]) == sign(z[ends[1]]) {
			continue
		}
		if count < 2 {
			edges[count] = i
		}
		count++
	}
	if count != 2 {
		return Edges{}, false
	}
	return edges, true
}

// FindCrossingPoint interpolates where edge crosses z = 0 and maps the local
// position to raster pixels: the unit square [-0.5, 0.5]^2 spans the image and
// y is flipped because raster rows grow downward.
//
// The edge endpoints must have different z; edges chosen by FindCrossingEdges
// always do. It panics otherwise.
func FindCrossingPoint(edge int, tri geometry.Triangle, imageWidth, imageHeight float64) geometry.Point {
	vertices := tri.Vertices()
	p0 := vertices[edgeVertices[edge][0]]
	p1 := vertices[edgeVertices[edge][1]]

	dz := p1.Z - p0.Z
	if dz == 0 {
		panic(fmt.Sprintf("crosssection: edge %d of triangle %v does not cross the plane", edge, vertices))
	}
	t := (0 - p0.Z) / dz

	local := p0.Lerp(p1, t)
	return geometry.Point{
		X: (0.5 + local.X) * imageWidth,
		Y: (1 - (0.5 + local.Y)) * imageHeight,
	}
}

// Extract computes one segment per crossing triangle. Triangles without a
// clean pair of crossing edges, or with non-finite coordinates, are skipped.
func Extract(mesh []geometry.Triangle, imageWidth, imageHeight int) CrossSection {
	cs := CrossSection{
		Width:    imageWidth,
		Height:   imageHeight,
		Segments: make([]Segment, 0),
	}
	w := float64(imageWidth)
	h := float64(imageHeight)

	for i, tri := range SelectCrossingTriangles(mesh) {
		if !tri.IsFinite() {
			cs.Skipped++
			logger().Debug("skipping non-finite triangle", "triangle", i)
			continue
		}

		edges, ok := FindCrossingEdges(tri.Zs())
		if !ok {
			cs.Skipped++
			logger().Debug("skipping degenerate triangle", "triangle", i, "z", tri.Zs())
			continue
		}

		cs.Segments = append(cs.Segments, Segment{
			A:        FindCrossingPoint(edges[0], tri, w, h),
			B:        FindCrossingPoint(edges[1], tri, w, h),
			Triangle: i,
		})
	}

	return cs
}

package crosssection

import (
	"math"

	"github.com/philipparndt/stlslice/pkg/geometry"
)

// CropToSlab keeps the part of a slice-frame mesh with -halfThickness <= z <= halfThickness.
// Triangles straddling a slab face are cut along it and replaced by one or two
// smaller triangles. A non-positive or NaN thickness returns the mesh unchanged.
func CropToSlab(mesh []geometry.Triangle, halfThickness float64) []geometry.Triangle {
	if !(halfThickness > 0) {
		return mesh
	}

	result := make([]geometry.Triangle, 0, len(mesh))
	for _, tri := range mesh {
		lower := clipAgainstPlane(tri, -halfThickness, true)
		for _, t := range lower {
			result = append(result, clipAgainstPlane(t, halfThickness, false)...)
		}
	}
	return result
}

// clipAgainstPlane clips a triangle against the plane z = planeZ.
// keepGreater selects the side z >= planeZ, otherwise z <= planeZ is kept.
func clipAgainstPlane(tri geometry.Triangle, planeZ float64, keepGreater bool) []geometry.Triangle {
	vertices := tri.Vertices()

	// Classify vertices as inside or outside
	inside := [3]bool{}
	insideCount := 0
	for i, v := range vertices {
		if keepGreater {
			inside[i] = v.Z >= planeZ
		} else {
			inside[i] = v.Z <= planeZ
		}
		if inside[i] {
			insideCount++
		}
	}

	switch insideCount {
	case 3:
		return []geometry.Triangle{tri}
	case 0:
		return nil
	}

	cut := func(a, b geometry.Vector3) geometry.Vector3 {
		t := (planeZ - a.Z) / (b.Z - a.Z)
		p := a.Lerp(b, t)
		p.Z = planeZ
		return p
	}

	// One vertex inside: keep the tip, replace the other two with cut points
	if insideCount == 1 {
		idx := 0
		for i := range inside {
			if inside[i] {
				idx = i
				break
			}
		}
		v0 := vertices[idx]
		v1 := vertices[(idx+1)%3]
		v2 := vertices[(idx+2)%3]

		return []geometry.Triangle{
			withNormal(tri, v0, cut(v0, v1), cut(v0, v2)),
		}
	}

	// Two vertices inside: the kept part is a quad, split into two triangles
	idx := 0
	for i := range inside {
		if !inside[i] {
			idx = i
			break
		}
	}
	v0 := vertices[idx]
	v1 := vertices[(idx+1)%3]
	v2 := vertices[(idx+2)%3]
	c1 := cut(v0, v1)
	c2 := cut(v0, v2)

	return []geometry.Triangle{
		withNormal(tri, v1, v2, c1),
		withNormal(tri, v2, c2, c1),
	}
}

// withNormal builds a piece of tri, reusing its normal so that cut pieces keep
// the shading of the source facet
func withNormal(tri geometry.Triangle, v1, v2, v3 geometry.Vector3) geometry.Triangle {
	normal := tri.Normal
	if normal.Length() == 0 || math.IsNaN(normal.X) {
		normal = tri.CalculateNormal()
	}
	return geometry.NewTriangle(normal, v1, v2, v3)
}

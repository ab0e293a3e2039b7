package analysis

import (
	"fmt"
	"slices"

	"github.com/philipparndt/stlslice/pkg/geometry"
	"github.com/philipparndt/stlslice/pkg/stl"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// EdgeInfo contains information about an edge in the model
type EdgeInfo struct {
	Start      geometry.Vector3
	End        geometry.Vector3
	Length     float64
	TriangleID int
}

// MeshStats summarises an STL model
type MeshStats struct {
	BoundingBox   geometry.BoundingBox
	Dimensions    geometry.Vector3
	Volume        float64 // of the bounding box
	SurfaceArea   float64
	TriangleCount int
	EdgeCount     int
	MinEdgeLength float64
	MaxEdgeLength float64
	AvgEdgeLength float64

	// DegenerateCount counts triangles with zero area or non-finite vertices
	DegenerateCount int
	AllEdges        []EdgeInfo
}

// AnalyzeModel collects size, area and edge statistics of a model
func AnalyzeModel(model *stl.Model) *MeshStats {
	result := &MeshStats{
		BoundingBox:   model.BoundingBox(),
		SurfaceArea:   model.SurfaceArea(),
		TriangleCount: model.TriangleCount(),
		AllEdges:      make([]EdgeInfo, 0, 3*model.TriangleCount()),
	}

	result.Dimensions = result.BoundingBox.Size()
	result.Volume = result.BoundingBox.Volume()

	lengths := make([]float64, 0, 3*model.TriangleCount())
	for i, triangle := range model.Triangles {
		if !triangle.IsFinite() || triangle.Area() == 0 {
			result.DegenerateCount++
		}

		vertices := triangle.Vertices()
		for j := range vertices {
			start, end := vertices[j], vertices[(j+1)%3]
			length := start.Distance(end)

			result.AllEdges = append(result.AllEdges, EdgeInfo{
				Start:      start,
				End:        end,
				Length:     length,
				TriangleID: i,
			})
			lengths = append(lengths, length)
		}
	}

	result.EdgeCount = len(result.AllEdges)
	if result.EdgeCount > 0 {
		result.MinEdgeLength = floats.Min(lengths)
		result.MaxEdgeLength = floats.Max(lengths)
		result.AvgEdgeLength = stat.Mean(lengths, nil)
	}

	return result
}

// FindLongestEdges returns the N longest edges in the model
func FindLongestEdges(result *MeshStats, count int) []EdgeInfo {
	edges := slices.Clone(result.AllEdges)
	slices.SortStableFunc(edges, func(a, b EdgeInfo) int {
		return compareFloat(b.Length, a.Length)
	})
	return edges[:min(count, len(edges))]
}

// FindShortestEdges returns the N shortest edges in the model
func FindShortestEdges(result *MeshStats, count int) []EdgeInfo {
	edges := slices.Clone(result.AllEdges)
	slices.SortStableFunc(edges, func(a, b EdgeInfo) int {
		return compareFloat(a.Length, b.Length)
	})
	return edges[:min(count, len(edges))]
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// FormatVector formats a 3D vector
func FormatVector(v geometry.Vector3) string {
	return fmt.Sprintf("(%.6f, %.6f, %.6f)", v.X, v.Y, v.Z)
}

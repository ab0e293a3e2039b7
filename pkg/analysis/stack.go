package analysis

import (
	"math"
	"slices"

	"github.com/philipparndt/stlslice/pkg/crosssection"
	"gonum.org/v1/gonum/stat"
)

// StackStats describes how slices are distributed along the depth axis
type StackStats struct {
	Count    int
	MinDepth float64
	MaxDepth float64

	// Spacing statistics over the gaps between neighbouring slices
	MeanSpacing   float64
	StdDevSpacing float64
	MinSpacing    float64
	MaxSpacing    float64

	// Duplicates counts slices sharing the depth of their predecessor
	Duplicates int
}

// AnalyzeStack computes spacing statistics for a list of depths.
// The input does not need to be sorted and is not modified.
func AnalyzeStack(depths []float64) StackStats {
	stats := StackStats{Count: len(depths)}
	if len(depths) == 0 {
		return stats
	}

	sorted := slices.Clone(depths)
	slices.Sort(sorted)
	stats.MinDepth = sorted[0]
	stats.MaxDepth = sorted[len(sorted)-1]

	if len(sorted) < 2 {
		return stats
	}

	gaps := make([]float64, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps[i-1] = sorted[i] - sorted[i-1]
		if gaps[i-1] == 0 {
			stats.Duplicates++
		}
	}

	stats.MeanSpacing, stats.StdDevSpacing = stat.MeanStdDev(gaps, nil)
	if math.IsNaN(stats.StdDevSpacing) {
		stats.StdDevSpacing = 0
	}
	stats.MinSpacing = slices.Min(gaps)
	stats.MaxSpacing = slices.Max(gaps)
	return stats
}

// IsUniform reports whether all gaps are within tolerance of the mean
func (s StackStats) IsUniform(tolerance float64) bool {
	if s.Count < 3 {
		return true
	}
	return s.MaxSpacing-s.MeanSpacing <= tolerance && s.MeanSpacing-s.MinSpacing <= tolerance
}

// SectionStats summarises an extracted outline
type SectionStats struct {
	Segments int
	Skipped  int
	Contours int
	Closed   int

	// Length is the total outline length in raster pixels
	Length float64
}

// AnalyzeSection counts segments and contours of a cross-section
func AnalyzeSection(cs crosssection.CrossSection, tolerance float64) SectionStats {
	stats := SectionStats{
		Segments: len(cs.Segments),
		Skipped:  cs.Skipped,
	}
	for _, seg := range cs.Segments {
		stats.Length += seg.A.Distance(seg.B)
	}
	for _, c := range crosssection.Contours(cs, tolerance) {
		stats.Contours++
		if c.Closed {
			stats.Closed++
		}
	}
	return stats
}

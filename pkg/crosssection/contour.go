package crosssection

import "github.com/philipparndt/stlslice/pkg/geometry"

// Contour is a chain of outline points. A closed contour does not repeat its
// first point at the end.
type Contour struct {
	Points []geometry.Point
	Closed bool
}

// Contours chains segments whose endpoints lie within tolerance of each other
// into polylines. The segments of cs are not modified.
func Contours(cs CrossSection, tolerance float64) []Contour {
	if len(cs.Segments) == 0 {
		return nil
	}

	unused := make([]Segment, len(cs.Segments))
	copy(unused, cs.Segments)
	var contours []Contour

	// Keep forming contours until all segments are used
	for len(unused) > 0 {
		first := unused[0]
		unused = unused[1:]
		points := []geometry.Point{first.A, first.B}
		closed := false

		for {
			next, ok := takeAdjacent(points[len(points)-1], &unused, tolerance)
			if !ok {
				break
			}
			if len(points) > 2 && next.Distance(points[0]) <= tolerance {
				closed = true
				break
			}
			points = append(points, next)
		}

		// An open chain may also continue before its first segment
		if !closed {
			for {
				next, ok := takeAdjacent(points[0], &unused, tolerance)
				if !ok {
					break
				}
				points = append([]geometry.Point{next}, points...)
			}
		}

		contours = append(contours, Contour{Points: points, Closed: closed})
	}

	return contours
}

// takeAdjacent removes the first segment touching p and returns its other end
func takeAdjacent(p geometry.Point, unused *[]Segment, tolerance float64) (geometry.Point, bool) {
	for j, seg := range *unused {
		var other geometry.Point
		switch {
		case seg.A.Distance(p) <= tolerance:
			other = seg.B
		case seg.B.Distance(p) <= tolerance:
			other = seg.A
		default:
			continue
		}
		*unused = append((*unused)[:j], (*unused)[j+1:]...)
		return other, true
	}
	return geometry.Point{}, false
}

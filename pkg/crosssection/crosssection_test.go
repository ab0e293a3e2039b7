package crosssection

import (
	"math"
	"testing"

	"github.com/philipparndt/stlslice/pkg/geometry"
)

const eps = 1e-9

func tri(a, b, c geometry.Vector3) geometry.Triangle {
	return geometry.TriangleFromVertices(a, b, c)
}

func v(x, y, z float64) geometry.Vector3 {
	return geometry.NewVector3(x, y, z)
}

func nearPoint(a, b geometry.Point) bool {
	return a.Distance(b) < 1e-6
}

func TestFindCrossingEdges(t *testing.T) {
	tests := []struct {
		name string
		z    [3]float64
		want Edges
		ok   bool
	}{
		{"one below", [3]float64{1, -1, 0.5}, Edges{0, 1}, true},
		{"one above", [3]float64{-1, -2, 3}, Edges{1, 2}, true},
		{"first alone", [3]float64{-1, 2, 3}, Edges{0, 2}, true},
		{"vertex on plane", [3]float64{0, 1, -1}, Edges{}, false},
		{"all above", [3]float64{1, 2, 3}, Edges{}, false},
		{"all on plane", [3]float64{0, 0, 0}, Edges{}, false},
		{"nan", [3]float64{math.NaN(), math.NaN(), math.NaN()}, Edges{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindCrossingEdges(tt.z)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if got != tt.want {
				t.Errorf("expected edges %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFindCrossingPoint(t *testing.T) {
	triangle := tri(v(0, 0, -2), v(0.1, 0.1, 2), v(0.3, -0.2, 1))

	got := FindCrossingPoint(0, triangle, 100, 100)
	// the edge crosses half way at local (0.05, 0.05)
	want := geometry.Point{X: 55, Y: 45}
	if !nearPoint(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestFindCrossingPointImageCorners(t *testing.T) {
	tests := []struct {
		name string
		a, b geometry.Vector3
		want geometry.Point
	}{
		{"top left", v(-0.5, 0.5, -1), v(-0.5, 0.5, 1), geometry.Point{X: 0, Y: 0}},
		{"bottom right", v(0.5, -0.5, -1), v(0.5, -0.5, 1), geometry.Point{X: 640, Y: 480}},
		{"centre", v(0, 0, 3), v(0, 0, -3), geometry.Point{X: 320, Y: 240}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindCrossingPoint(0, tri(tt.a, tt.b, v(0, 0, 5)), 640, 480)
			if !nearPoint(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFindCrossingPointPanicsOnFlatEdge(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for an edge parallel to the plane")
		}
	}()

	FindCrossingPoint(0, tri(v(0, 0, 1), v(1, 0, 1), v(0, 1, -1)), 10, 10)
}

func TestExtractSingleCrossing(t *testing.T) {
	mesh := []geometry.Triangle{
		tri(v(0, 0, 1), v(0.1, 0, 2), v(0, 0.1, 3)),
		tri(v(0, 0, 1), v(0.2, 0, -1), v(0, 0.2, 0.5)),
	}

	cs := Extract(mesh, 100, 100)

	if len(cs.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(cs.Segments))
	}
	seg := cs.Segments[0]
	if seg.Triangle != 1 {
		t.Errorf("expected segment from triangle 1, got %d", seg.Triangle)
	}
	if !nearPoint(seg.A, geometry.Point{X: 60, Y: 50}) {
		t.Errorf("unexpected first point %v", seg.A)
	}
	if !nearPoint(seg.B, geometry.Point{X: 50 + 20.0/3, Y: 110.0 / 3}) {
		t.Errorf("unexpected second point %v", seg.B)
	}
	if cs.Width != 100 || cs.Height != 100 || cs.Skipped != 0 {
		t.Errorf("unexpected header %dx%d skipped=%d", cs.Width, cs.Height, cs.Skipped)
	}
}

func TestExtractSkipsDegenerate(t *testing.T) {
	mesh := []geometry.Triangle{
		tri(v(0, 0, 0), v(0.1, 0, 1), v(0, 0.1, -1)),
		{V1: v(math.Inf(1), 0, 1), V2: v(0, 0, -1), V3: v(0, 1, 1)},
		tri(v(0, 0, 0), v(1, 0, 0), v(0, 1, 0)),
	}

	cs := Extract(mesh, 10, 10)

	if len(cs.Segments) != 0 {
		t.Errorf("expected no segments, got %d", len(cs.Segments))
	}
	if cs.Skipped != 2 {
		t.Errorf("expected 2 skipped triangles, got %d", cs.Skipped)
	}
}

func TestExtractEmpty(t *testing.T) {
	cs := Extract(nil, 10, 10)

	if cs.Segments == nil || len(cs.Segments) != 0 {
		t.Errorf("expected empty non-nil segment list, got %v", cs.Segments)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	mesh := bipyramid()

	first := Extract(mesh, 256, 256)
	second := Extract(mesh, 256, 256)

	if len(first.Segments) != len(second.Segments) {
		t.Fatalf("segment count changed: %d vs %d", len(first.Segments), len(second.Segments))
	}
	for i := range first.Segments {
		if first.Segments[i] != second.Segments[i] {
			t.Errorf("segment %d changed: %v vs %v", i, first.Segments[i], second.Segments[i])
		}
	}
}

func TestSelectCrossingTriangles(t *testing.T) {
	mesh := bipyramid()

	var indices []int
	for i, triangle := range SelectCrossingTriangles(mesh) {
		z := triangle.Zs()
		if !crosses(z) {
			t.Errorf("triangle %d does not cross: %v", i, z)
		}
		indices = append(indices, i)
	}

	want := []int{4, 5, 6, 7}
	if len(indices) != len(want) {
		t.Fatalf("expected %v, got %v", want, indices)
	}
	for i := range want {
		if indices[i] != want[i] {
			t.Errorf("expected %v, got %v", want, indices)
		}
	}
}

func TestSelectCrossingTrianglesIsRestartable(t *testing.T) {
	seq := SelectCrossingTriangles(bipyramid())

	for i := range seq {
		if i != 4 {
			t.Errorf("expected first crossing triangle 4, got %d", i)
		}
		break
	}

	count := 0
	for range seq {
		count++
	}
	if count != 4 {
		t.Errorf("expected 4 triangles on second pass, got %d", count)
	}
}

func TestExtractClosedOutline(t *testing.T) {
	cs := Extract(bipyramid(), 300, 300)

	if len(cs.Segments) != 4 {
		t.Fatalf("expected 4 segments, got %d", len(cs.Segments))
	}

	contours := Contours(cs, 1e-6)
	if len(contours) != 1 {
		t.Fatalf("expected 1 contour, got %d", len(contours))
	}
	if !contours[0].Closed || len(contours[0].Points) != 4 {
		t.Errorf("expected closed contour with 4 points, got %+v", contours[0])
	}

	// the ring radius shrinks to 5/6 at the plane: 0.2 * 5/6 * 300 = 50 px
	for _, p := range contours[0].Points {
		r := math.Hypot(p.X-150, p.Y-150)
		if math.Abs(r-50) > 1e-6 {
			t.Errorf("point %v is %v px from centre, expected 50", p, r)
		}
	}
}

// bipyramid has a square ring at z = 0.1 between apexes at z = 0.5 and
// z = -0.5. Only the four lower faces cross the plane.
func bipyramid() []geometry.Triangle {
	ring := []geometry.Vector3{
		v(0.2, 0, 0.1),
		v(0, 0.2, 0.1),
		v(-0.2, 0, 0.1),
		v(0, -0.2, 0.1),
	}
	top := v(0, 0, 0.5)
	bottom := v(0, 0, -0.5)

	mesh := make([]geometry.Triangle, 0, 8)
	for i := range ring {
		mesh = append(mesh, tri(top, ring[i], ring[(i+1)%4]))
	}
	for i := range ring {
		mesh = append(mesh, tri(bottom, ring[(i+1)%4], ring[i]))
	}
	return mesh
}

func TestContoursOpenChain(t *testing.T) {
	cs := CrossSection{Segments: []Segment{
		{A: geometry.Point{X: 1}, B: geometry.Point{X: 2}},
		{A: geometry.Point{X: 0}, B: geometry.Point{X: 1}},
	}}

	contours := Contours(cs, eps)

	if len(contours) != 1 {
		t.Fatalf("expected 1 contour, got %d", len(contours))
	}
	c := contours[0]
	if c.Closed {
		t.Error("expected open contour")
	}
	want := []geometry.Point{{X: 0}, {X: 1}, {X: 2}}
	if len(c.Points) != len(want) {
		t.Fatalf("expected %v, got %v", want, c.Points)
	}
	for i := range want {
		if c.Points[i] != want[i] {
			t.Errorf("point %d: expected %v, got %v", i, want[i], c.Points[i])
		}
	}
	if cs.Segments[0].A.X != 1 {
		t.Error("input segments were modified")
	}
}

func TestContoursSeparateLoops(t *testing.T) {
	cs := CrossSection{Segments: []Segment{
		{A: geometry.Point{X: 0, Y: 0}, B: geometry.Point{X: 1, Y: 0}},
		{A: geometry.Point{X: 10, Y: 10}, B: geometry.Point{X: 11, Y: 10}},
		{A: geometry.Point{X: 1, Y: 1}, B: geometry.Point{X: 1, Y: 0}},
		{A: geometry.Point{X: 0, Y: 0}, B: geometry.Point{X: 1, Y: 1}},
	}}

	contours := Contours(cs, eps)

	if len(contours) != 2 {
		t.Fatalf("expected 2 contours, got %d", len(contours))
	}
	if !contours[0].Closed || len(contours[0].Points) != 3 {
		t.Errorf("expected closed triangle, got %+v", contours[0])
	}
	if contours[1].Closed || len(contours[1].Points) != 2 {
		t.Errorf("expected open single segment, got %+v", contours[1])
	}
}

func TestContoursEmpty(t *testing.T) {
	if got := Contours(CrossSection{}, eps); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

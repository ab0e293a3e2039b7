package geometry

import (
	"math"
	"testing"
)

func rightTriangle() Triangle {
	return NewTriangle(
		NewVector3(0, 0, 1),
		NewVector3(0, 0, 0),
		NewVector3(3, 0, 0),
		NewVector3(0, 4, 0),
	)
}

func TestTriangleArea(t *testing.T) {
	area := rightTriangle().Area()
	expected := 6.0 // (3 * 4) / 2 = 6

	if math.Abs(area-expected) > 1e-10 {
		t.Errorf("Area failed: expected %v, got %v", expected, area)
	}
}

func TestTriangleEdgeLengths(t *testing.T) {
	lengths := rightTriangle().EdgeLengths()

	// Expected lengths: 3, 5, 4 (Pythagorean triple)
	want := [3]float64{3, 5, 4}
	for i := range want {
		if math.Abs(lengths[i]-want[i]) > 1e-10 {
			t.Errorf("Edge %d length failed: expected %v, got %v", i, want[i], lengths[i])
		}
	}

	if p := rightTriangle().Perimeter(); math.Abs(p-12) > 1e-10 {
		t.Errorf("Perimeter failed: expected 12, got %v", p)
	}
}

func TestTriangleCenter(t *testing.T) {
	tri := NewTriangle(
		NewVector3(0, 0, 1),
		NewVector3(0, 0, 0),
		NewVector3(3, 0, 0),
		NewVector3(0, 3, 0),
	)

	center := tri.Center()
	expected := NewVector3(1, 1, 0)

	if center != expected {
		t.Errorf("Center failed: expected %v, got %v", expected, center)
	}
}

func TestTriangleFromVerticesNormal(t *testing.T) {
	tri := TriangleFromVertices(NewVector3(0, 0, 0), NewVector3(1, 0, 0), NewVector3(0, 1, 0))

	if tri.Normal != NewVector3(0, 0, 1) {
		t.Errorf("Normal failed: expected %v, got %v", NewVector3(0, 0, 1), tri.Normal)
	}
}

func TestTriangleZsAndMap(t *testing.T) {
	tri := TriangleFromVertices(NewVector3(0, 0, 1), NewVector3(1, 0, -2), NewVector3(0, 1, 3))

	if zs := tri.Zs(); zs != [3]float64{1, -2, 3} {
		t.Errorf("Zs failed: expected [1 -2 3], got %v", zs)
	}

	shifted := tri.Map(func(v Vector3) Vector3 { return v.Add(NewVector3(0, 0, 10)) })
	if zs := shifted.Zs(); zs != [3]float64{11, 8, 13} {
		t.Errorf("Map failed: expected [11 8 13], got %v", zs)
	}
}

func TestTriangleIsFinite(t *testing.T) {
	if !rightTriangle().IsFinite() {
		t.Error("expected finite triangle")
	}

	bad := rightTriangle()
	bad.V2.Z = math.NaN()
	if bad.IsFinite() {
		t.Error("expected NaN vertex to be reported as non-finite")
	}

	bad = rightTriangle()
	bad.V3.X = math.Inf(1)
	if bad.IsFinite() {
		t.Error("expected infinite vertex to be reported as non-finite")
	}
}

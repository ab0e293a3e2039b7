package geometry

import (
	"math"
	"testing"
)

func TestBoundingBoxExtend(t *testing.T) {
	bbox := NewBoundingBox()

	bbox.Extend(NewVector3(1, 2, 3))
	bbox.Extend(NewVector3(4, 5, 6))
	bbox.Extend(NewVector3(-1, 0, 2))

	expectedMin := NewVector3(-1, 0, 2)
	expectedMax := NewVector3(4, 5, 6)

	if bbox.Min != expectedMin {
		t.Errorf("Min failed: expected %v, got %v", expectedMin, bbox.Min)
	}
	if bbox.Max != expectedMax {
		t.Errorf("Max failed: expected %v, got %v", expectedMax, bbox.Max)
	}
}

func TestBoundsOfTriangles(t *testing.T) {
	tris := []Triangle{
		TriangleFromVertices(NewVector3(0, 0, -1), NewVector3(1, 0, 0), NewVector3(0, 1, 0)),
		TriangleFromVertices(NewVector3(-2, 0, 0), NewVector3(0, 3, 0), NewVector3(0, 0, 4)),
	}

	bbox := BoundsOf(tris)

	if bbox.Min != NewVector3(-2, 0, -1) {
		t.Errorf("Min failed: expected %v, got %v", NewVector3(-2, 0, -1), bbox.Min)
	}
	if bbox.Max != NewVector3(1, 3, 4) {
		t.Errorf("Max failed: expected %v, got %v", NewVector3(1, 3, 4), bbox.Max)
	}
}

func TestEmptyBoundingBox(t *testing.T) {
	bbox := BoundsOf(nil)

	if !bbox.IsEmpty() {
		t.Fatal("expected empty bounding box")
	}
	if bbox.Size() != (Vector3{}) {
		t.Errorf("Size failed: expected zero, got %v", bbox.Size())
	}
	if bbox.Center() != (Vector3{}) {
		t.Errorf("Center failed: expected zero, got %v", bbox.Center())
	}
}

func TestBoundingBoxCenterAndVolume(t *testing.T) {
	bbox := NewBoundingBox()
	bbox.Extend(NewVector3(0, 0, 0))
	bbox.Extend(NewVector3(2, 4, 6))

	if center := bbox.Center(); center != NewVector3(1, 2, 3) {
		t.Errorf("Center failed: expected %v, got %v", NewVector3(1, 2, 3), center)
	}
	if volume := bbox.Volume(); math.Abs(volume-48) > 1e-10 {
		t.Errorf("Volume failed: expected 48, got %v", volume)
	}
}

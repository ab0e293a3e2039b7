package stl

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/philipparndt/stlslice/pkg/geometry"
)

func sampleModel() *Model {
	m := NewModel("sample")
	m.AddTriangle(geometry.TriangleFromVertices(
		geometry.NewVector3(0, 0, 0),
		geometry.NewVector3(4, 0, 0),
		geometry.NewVector3(0, 2, 1.5),
	))
	m.AddTriangle(geometry.TriangleFromVertices(
		geometry.NewVector3(-1, -1, -1),
		geometry.NewVector3(0.5, 0, 0),
		geometry.NewVector3(0, 0.25, 0),
	))
	return m
}

func TestWriteRoundTrip(t *testing.T) {
	for _, ascii := range []bool{true, false} {
		var buf bytes.Buffer
		if err := sampleModel().Write(&buf, ascii); err != nil {
			t.Fatalf("Write(ascii=%v) failed: %v", ascii, err)
		}

		got, err := ParseReader(&buf)
		if err != nil {
			t.Fatalf("ParseReader(ascii=%v) failed: %v", ascii, err)
		}
		want := sampleModel()
		if got.TriangleCount() != want.TriangleCount() {
			t.Fatalf("ascii=%v: expected %d triangles, got %d", ascii, want.TriangleCount(), got.TriangleCount())
		}
		for i := range want.Triangles {
			for j, v := range got.Triangles[i].Vertices() {
				if v.Distance(want.Triangles[i].Vertices()[j]) > 1e-6 {
					t.Errorf("ascii=%v triangle %d vertex %d: expected %v, got %v",
						ascii, i, j, want.Triangles[i].Vertices()[j], v)
				}
			}
		}
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.stl")

	if err := sampleModel().WriteFile(path, false); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	model, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if model.TriangleCount() != 2 {
		t.Errorf("expected 2 triangles, got %d", model.TriangleCount())
	}
}

func TestWithTriangles(t *testing.T) {
	m := sampleModel()
	cropped := m.WithTriangles(m.Triangles[:1])

	if cropped.Name != "sample" || cropped.TriangleCount() != 1 {
		t.Errorf("unexpected model %q with %d triangles", cropped.Name, cropped.TriangleCount())
	}
	if m.TriangleCount() != 2 {
		t.Error("source model was modified")
	}
}

func TestModelLabelAndArea(t *testing.T) {
	m := NewModel("")
	if m.Label() != "mesh" || m.SurfaceArea() != 0 {
		t.Errorf("unexpected empty model label %q area %v", m.Label(), m.SurfaceArea())
	}

	m.Name = "liver"
	m.AddTriangle(geometry.TriangleFromVertices(
		geometry.NewVector3(0, 0, 0),
		geometry.NewVector3(4, 0, 0),
		geometry.NewVector3(0, 3, 0),
	))
	m.AddTriangle(geometry.TriangleFromVertices(
		geometry.NewVector3(0, 0, 1),
		geometry.NewVector3(2, 0, 1),
		geometry.NewVector3(0, 2, 1),
	))
	if m.Label() != "liver" {
		t.Errorf("Label failed: expected liver, got %q", m.Label())
	}
	if a := m.SurfaceArea(); math.Abs(a-8) > 1e-10 {
		t.Errorf("SurfaceArea failed: expected 8, got %v", a)
	}

	m.Source = "/data/liver.stl"
	if c := m.WithTriangles(nil); c.Source != m.Source || c.Label() != "/data/liver.stl" {
		t.Errorf("WithTriangles lost the source: %+v", c)
	}
}

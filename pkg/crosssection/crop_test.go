package crosssection

import (
	"math"
	"testing"

	"github.com/philipparndt/stlslice/pkg/geometry"
)

func totalArea(mesh []geometry.Triangle) float64 {
	sum := 0.0
	for _, t := range mesh {
		sum += t.Area()
	}
	return sum
}

func TestCropToSlab(t *testing.T) {
	tests := []struct {
		name      string
		triangle  geometry.Triangle
		wantCount int
		wantArea  float64
	}{
		{"inside", tri(v(0, 0, -0.5), v(1, 0, 0), v(0, 1, 0.5)), 1, 0.75},
		{"above", tri(v(0, 0, 2), v(1, 0, 3), v(0, 1, 4)), 0, 0},
		{"below", tri(v(0, 0, -2), v(1, 0, -3), v(0, 1, -4)), 0, 0},
		// right triangle with legs 1 along x and 4 along z, cut at z = 1
		{"one vertex above", tri(v(0, 0, 0), v(1, 0, 0), v(0, 0, 4)), 2, 0.875},
		{"two vertices above", tri(v(0, 0, 0), v(0, 0, 4), v(1, 0, 4)), 1, 0.125},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CropToSlab([]geometry.Triangle{tt.triangle}, 1)

			if len(got) != tt.wantCount {
				t.Fatalf("expected %d triangles, got %d", tt.wantCount, len(got))
			}
			if area := totalArea(got); math.Abs(area-tt.wantArea) > 1e-9 {
				t.Errorf("expected area %v, got %v", tt.wantArea, area)
			}
			for _, c := range got {
				for _, z := range c.Zs() {
					if z < -1-eps || z > 1+eps {
						t.Errorf("vertex z %v outside slab", z)
					}
				}
			}
		})
	}
}

func TestCropToSlabSpanningBothFaces(t *testing.T) {
	mesh := []geometry.Triangle{tri(v(0, 0, -4), v(1, 0, 4), v(0, 0, 4))}

	got := CropToSlab(mesh, 1)

	if len(got) == 0 {
		t.Fatal("expected a cropped band")
	}
	// the band between z = -1 and z = 1 of a triangle with base 1 at z = 4
	// and apex at z = -4: widths 3/8 and 5/8, height 2
	want := 2 * (3.0/8 + 5.0/8) / 2
	if area := totalArea(got); math.Abs(area-want) > 1e-9 {
		t.Errorf("expected area %v, got %v", want, area)
	}
}

func TestCropToSlabKeepsNormal(t *testing.T) {
	source := tri(v(0, 0, 0), v(1, 0, 0), v(0, 0, 4))

	for _, c := range CropToSlab([]geometry.Triangle{source}, 1) {
		if c.Normal != source.Normal {
			t.Errorf("expected normal %v, got %v", source.Normal, c.Normal)
		}
	}
}

func TestCropToSlabDisabled(t *testing.T) {
	mesh := []geometry.Triangle{tri(v(0, 0, 10), v(1, 0, 10), v(0, 1, 10))}

	for _, h := range []float64{0, -1, math.NaN()} {
		if got := CropToSlab(mesh, h); len(got) != 1 {
			t.Errorf("thickness %v: expected mesh unchanged, got %d triangles", h, len(got))
		}
	}
}

// Package slicestack keeps 2D image slices ordered by their physical depth and
// tracks which slice is currently selected for display.
package slicestack

import "image"

// Slice is one 2D image positioned in 3D space.
//
// Everything except the visibility flag is fixed once the slice is created.
type Slice struct {
	// Name identifies the source of the slice (usually the file name)
	Name string

	// Depth orders the slice along the stacking axis
	Depth float64

	// Image is the raster payload; it is not interpreted by the stack
	Image image.Image

	// Placement maps the raster into world space
	Placement Placement

	visible bool
}

// NewSlice creates a hidden slice
func NewSlice(name string, depth float64, img image.Image, placement Placement) *Slice {
	return &Slice{
		Name:      name,
		Depth:     depth,
		Image:     img,
		Placement: placement,
	}
}

// Visible reports whether the slice is the displayed one
func (s *Slice) Visible() bool {
	return s.visible
}

// Bounds returns the raster size in pixels, or zero when there is no raster
func (s *Slice) Bounds() (width, height int) {
	if s.Image == nil {
		return 0, 0
	}
	b := s.Image.Bounds()
	return b.Dx(), b.Dy()
}

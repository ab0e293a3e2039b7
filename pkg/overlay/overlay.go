// Package overlay draws mesh cross-sections on top of slice rasters.
package overlay

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/gogpu/gg"
	"github.com/philipparndt/stlslice/pkg/crosssection"
)

// Style controls how outline segments are stroked
type Style struct {
	Color     string // hex colour, e.g. "#ff0000"
	LineWidth float64

	// EndpointRadius marks the loose ends of open contours when positive
	EndpointRadius float64
	EndpointColor  string
}

// DefaultStyle draws red lines two pixels wide
func DefaultStyle() Style {
	return Style{
		Color:         "#ff0000",
		LineWidth:     2,
		EndpointColor: "#ffff00",
	}
}

// Draw renders cs over a copy of raster. The raster is scaled to the
// cross-section size when they differ, so segment coordinates always land on
// the pixels they were computed for. Each call starts from the unmodified raster.
func Draw(raster image.Image, cs crosssection.CrossSection, style Style) (image.Image, error) {
	dc, err := render(raster, cs, style)
	if err != nil {
		return nil, err
	}
	defer dc.Close()
	return dc.Image(), nil
}

// EncodePNG draws the overlay and writes it as PNG
func EncodePNG(w io.Writer, raster image.Image, cs crosssection.CrossSection, style Style) error {
	dc, err := render(raster, cs, style)
	if err != nil {
		return err
	}
	defer dc.Close()
	return dc.EncodePNG(w)
}

func render(raster image.Image, cs crosssection.CrossSection, style Style) (*gg.Context, error) {
	if raster == nil {
		return nil, errors.New("overlay: no raster")
	}

	dc := gg.NewContextForImage(raster)

	// segment coordinates are in cross-section pixels
	if cs.Width > 0 && cs.Height > 0 {
		sx := float64(dc.Width()) / float64(cs.Width)
		sy := float64(dc.Height()) / float64(cs.Height)
		if sx != 1 || sy != 1 {
			dc.Scale(sx, sy)
		}
	}

	dc.SetHexColor(style.Color)
	dc.SetLineWidth(style.LineWidth)
	for _, seg := range cs.Segments {
		dc.DrawLine(seg.A.X, seg.A.Y, seg.B.X, seg.B.Y)
		if err := dc.Stroke(); err != nil {
			dc.Close()
			return nil, fmt.Errorf("failed to stroke segment of triangle %d: %w", seg.Triangle, err)
		}
	}

	if style.EndpointRadius > 0 {
		dc.SetHexColor(style.EndpointColor)
		for _, c := range crosssection.Contours(cs, 1e-6) {
			if c.Closed {
				continue
			}
			first, last := c.Points[0], c.Points[len(c.Points)-1]
			dc.DrawCircle(first.X, first.Y, style.EndpointRadius)
			dc.DrawCircle(last.X, last.Y, style.EndpointRadius)
			if err := dc.Fill(); err != nil {
				dc.Close()
				return nil, fmt.Errorf("failed to mark contour ends: %w", err)
			}
		}
	}

	return dc, nil
}

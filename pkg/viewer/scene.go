// Package viewer renders a software preview of the mesh, the current slice and
// its cross-section outline.
package viewer

import (
	"image"
	"image/color"
	"math"

	"github.com/philipparndt/stlslice/pkg/crosssection"
	"github.com/philipparndt/stlslice/pkg/geometry"
	"github.com/philipparndt/stlslice/pkg/slicestack"
	"golang.org/x/image/draw"
)

// Scene is what a preview shows
type Scene struct {
	Mesh  []geometry.Triangle
	Slice *slicestack.Slice

	// Section is drawn on the slice plane when set
	Section *crosssection.CrossSection
}

// RenderOptions controls the preview image
type RenderOptions struct {
	Width, Height int
	Yaw, Pitch    float64 // radians

	// Thumbnail is the edge length of the slice raster inset, 0 to disable
	Thumbnail int

	Background   color.RGBA
	MeshColor    color.RGBA
	CardColor    color.RGBA
	OutlineColor color.RGBA
}

// DefaultRenderOptions returns a 640x480 preview looking slightly down
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		Width:        640,
		Height:       480,
		Yaw:          math.Pi / 6,
		Pitch:        math.Pi / 8,
		Thumbnail:    128,
		Background:   color.RGBA{30, 30, 35, 255},
		MeshColor:    color.RGBA{180, 180, 190, 255},
		CardColor:    color.RGBA{90, 160, 255, 255},
		OutlineColor: color.RGBA{255, 0, 0, 255},
	}
}

// Render draws the scene with flat shading and a depth buffer
func Render(scene Scene, opts RenderOptions) *image.RGBA {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 640, 480
	}
	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)

	camera := NewCamera(sceneBounds(scene))
	camera.Orbit(opts.Yaw, opts.Pitch)

	w, h := float64(opts.Width), float64(opts.Height)
	depth := newDepthBuffer(opts.Width, opts.Height)
	forward := camera.Forward()

	for _, tri := range scene.Mesh {
		var sv [3]screenVertex
		visible := true
		for i, v := range tri.Vertices() {
			x, y, z, ok := camera.Project(v, w, h)
			if !ok {
				visible = false
				break
			}
			sv[i] = screenVertex{X: x, Y: y, Z: z}
		}
		if !visible {
			continue
		}

		normal := tri.CalculateNormal()
		fillTriangle(img, depth, sv[0], sv[1], sv[2], shade(opts.MeshColor, math.Abs(normal.Dot(forward))))
	}

	if scene.Slice != nil {
		corners := scene.Slice.Placement.Corners()
		for i := range corners {
			line3D(img, camera, corners[i], corners[(i+1)%4], opts.CardColor)
		}

		if cs := scene.Section; cs != nil && cs.Width > 0 && cs.Height > 0 {
			p := scene.Slice.Placement
			for _, seg := range cs.Segments {
				a := p.PixelToWorld(seg.A, cs.Width, cs.Height)
				b := p.PixelToWorld(seg.B, cs.Width, cs.Height)
				line3D(img, camera, a, b, opts.OutlineColor)
			}
		}

		if opts.Thumbnail > 0 && scene.Slice.Image != nil {
			drawThumbnail(img, scene.Slice.Image, opts.Thumbnail)
		}
	}

	return img
}

// sceneBounds covers the mesh and the slice card
func sceneBounds(scene Scene) geometry.BoundingBox {
	bbox := geometry.BoundsOf(scene.Mesh)
	if scene.Slice != nil {
		for _, c := range scene.Slice.Placement.Corners() {
			bbox.Extend(c)
		}
	}
	if bbox.IsEmpty() {
		bbox.Extend(geometry.NewVector3(-0.5, -0.5, -0.5))
		bbox.Extend(geometry.NewVector3(0.5, 0.5, 0.5))
	}
	return bbox
}

// shade scales a colour by a lighting factor with some ambient light
func shade(base color.RGBA, intensity float64) color.RGBA {
	f := 0.25 + 0.75*math.Max(0, math.Min(1, intensity))
	return color.RGBA{
		R: uint8(float64(base.R) * f),
		G: uint8(float64(base.G) * f),
		B: uint8(float64(base.B) * f),
		A: 255,
	}
}

// line3D projects and draws a world-space line on top of the shaded mesh
func line3D(img *image.RGBA, camera *Camera, a, b geometry.Vector3, col color.RGBA) {
	bounds := img.Bounds()
	w, h := float64(bounds.Dx()), float64(bounds.Dy())

	x1, y1, _, ok1 := camera.Project(a, w, h)
	x2, y2, _, ok2 := camera.Project(b, w, h)
	if !ok1 || !ok2 {
		return
	}

	// lines far outside the image would only burn Bresenham steps
	limit := 4 * math.Max(w, h)
	for _, v := range []float64{x1, y1, x2, y2} {
		if math.Abs(v) > limit || math.IsNaN(v) {
			return
		}
	}

	drawLine(img, int(math.Round(x1)), int(math.Round(y1)), int(math.Round(x2)), int(math.Round(y2)), col)
}

// drawThumbnail scales the slice raster into the top-right corner
func drawThumbnail(dst *image.RGBA, src image.Image, size int) {
	sb := src.Bounds()
	if sb.Empty() {
		return
	}

	// keep the aspect ratio inside a size x size box
	tw, th := size, size
	if sb.Dx() > sb.Dy() {
		th = max(1, size*sb.Dy()/sb.Dx())
	} else {
		tw = max(1, size*sb.Dx()/sb.Dy())
	}

	margin := 8
	db := dst.Bounds()
	rect := image.Rect(db.Max.X-margin-tw, db.Min.Y+margin, db.Max.X-margin, db.Min.Y+margin+th)
	draw.ApproxBiLinear.Scale(dst, rect, src, sb, draw.Src, nil)
}

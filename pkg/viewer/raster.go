package viewer

import (
	"image"
	"image/color"
	"math"
)

// screenVertex is a projected vertex: pixel position and view depth
type screenVertex struct {
	X, Y, Z float64
}

// depthBuffer holds the nearest depth drawn at each pixel
type depthBuffer struct {
	width  int
	values []float64
}

func newDepthBuffer(width, height int) *depthBuffer {
	values := make([]float64, width*height)
	for i := range values {
		values[i] = math.Inf(1)
	}
	return &depthBuffer{width: width, values: values}
}

// test records z at (x, y) and reports whether it is the nearest so far
func (d *depthBuffer) test(x, y int, z float64) bool {
	idx := y*d.width + x
	if idx < 0 || idx >= len(d.values) || z >= d.values[idx] {
		return false
	}
	d.values[idx] = z
	return true
}

// fillTriangle fills a projected triangle with depth testing
func fillTriangle(img *image.RGBA, depth *depthBuffer, a, b, c screenVertex, col color.RGBA) {
	// Sort vertices by Y coordinate (top to bottom)
	if a.Y > b.Y {
		a, b = b, a
	}
	if b.Y > c.Y {
		b, c = c, b
	}
	if a.Y > b.Y {
		a, b = b, a
	}

	bounds := img.Bounds()
	edges := [3][2]screenVertex{{a, b}, {b, c}, {a, c}}

	// Scanline algorithm with depth interpolation
	for y := int(math.Max(0, math.Ceil(a.Y))); y <= int(math.Min(float64(bounds.Max.Y-1), c.Y)); y++ {
		fy := float64(y)

		var span [2]screenVertex
		found := 0

		// Find intersections with triangle edges
		for _, e := range edges {
			p, q := e[0], e[1]
			if p.Y == q.Y || fy < p.Y || fy > q.Y || found == 2 {
				continue
			}
			t := (fy - p.Y) / (q.Y - p.Y)
			span[found] = screenVertex{X: p.X + t*(q.X-p.X), Z: p.Z + t*(q.Z-p.Z)}
			found++
		}
		if found < 2 {
			continue
		}

		start, end := span[0], span[1]
		if start.X > end.X {
			start, end = end, start
		}

		// Clamp to image bounds
		xStart := int(math.Max(0, math.Ceil(start.X)))
		xEnd := int(math.Min(float64(bounds.Max.X-1), end.X))

		for x := xStart; x <= xEnd; x++ {
			t := 0.0
			if end.X != start.X {
				t = (float64(x) - start.X) / (end.X - start.X)
			}
			if depth.test(x, y, start.Z+t*(end.Z-start.Z)) {
				img.SetRGBA(x, y, col)
			}
		}
	}
}

// drawLine draws a line on an image using Bresenham's algorithm
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, col color.RGBA) {
	bounds := img.Bounds()

	dx := abs(x2 - x1)
	dy := abs(y2 - y1)

	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy

	for {
		if image.Pt(x1, y1).In(bounds) {
			img.SetRGBA(x1, y1, col)
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

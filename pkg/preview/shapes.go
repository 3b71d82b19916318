package preview

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/df07/go-scatter-placer/pkg/core"
)

// point is a position on the supersampled canvas
type point struct {
	x, y float64
}

func (c *Canvas) project(p core.Vec3) point {
	x, y := c.camera.Project(p)
	s := float64(c.supersample)
	return point{x * s, y * s}
}

func (c *Canvas) worldToPixels(d float64) float64 {
	return d / c.camera.WorldPerPixel() * float64(c.supersample)
}

func (c *Canvas) circle(center point, radius float64) []point {
	n := int(math.Max(12, math.Min(64, radius*2)))
	pts := make([]point, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = point{center.x + radius*math.Cos(a), center.y + radius*math.Sin(a)}
	}
	return pts
}

// line draws a segment of the given width as a filled quad
func (c *Canvas) line(a, b point, width float64, col color.NRGBA) {
	dx, dy := b.x-a.x, b.y-a.y
	length := math.Hypot(dx, dy)
	if length < 1e-6 {
		return
	}
	nx, ny := -dy/length*width/2, dx/length*width/2
	c.fill(col, []point{
		{a.x + nx, a.y + ny},
		{b.x + nx, b.y + ny},
		{b.x - nx, b.y - ny},
		{a.x - nx, a.y - ny},
	})
}

// fill draws closed polygons with alpha blending. Overlapping polygons of
// opposite winding cancel, which cuts holes.
func (c *Canvas) fill(col color.NRGBA, polygons ...[]point) {
	b := c.img.Bounds()
	c.raster.Reset(b.Dx(), b.Dy())
	c.raster.DrawOp = draw.Over

	drawn := false
	for _, poly := range polygons {
		if len(poly) < 3 || !finite(poly) {
			continue
		}
		x, y := clampToCanvas(poly[0], b)
		c.raster.MoveTo(x, y)
		for _, p := range poly[1:] {
			c.raster.LineTo(clampToCanvas(p, b))
		}
		c.raster.ClosePath()
		drawn = true
	}
	if drawn {
		c.raster.Draw(c.img, b, image.NewUniform(col), image.Point{})
	}
}

func finite(poly []point) bool {
	for _, p := range poly {
		if math.IsNaN(p.x) || math.IsNaN(p.y) || math.IsInf(p.x, 0) || math.IsInf(p.y, 0) {
			return false
		}
	}
	return true
}

// clampToCanvas keeps path coordinates on the canvas
func clampToCanvas(p point, b image.Rectangle) (float32, float32) {
	x := math.Max(0, math.Min(float64(b.Dx()), p.x))
	y := math.Max(0, math.Min(float64(b.Dy()), p.y))
	return float32(x), float32(y)
}

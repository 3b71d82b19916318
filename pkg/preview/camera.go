package preview

import (
	"github.com/df07/go-scatter-placer/pkg/core"
	"github.com/df07/go-scatter-placer/pkg/scene"
)

// Camera is an orthographic camera. Pixel coordinates grow right and down;
// every pixel's ray points along the view direction.
type Camera struct {
	eye     core.Vec3
	right   core.Vec3
	up      core.Vec3
	forward core.Vec3

	extent      float64 // World width of the image
	width       int
	height      int
	pixelAspect float64 // Pixel height over pixel width
	halfWidth   float64
	halfHeight  float64
}

// NewCamera creates a camera for a width×height image showing extent world
// units across
func NewCamera(view scene.View, extent float64, width, height int) *Camera {
	forward := view.Target.Subtract(view.Eye).Normalize()
	if forward.LengthSquared() == 0 {
		forward = core.WorldUp.Negate()
	}

	right := forward.Cross(view.Up).Normalize()
	if right.LengthSquared() == 0 {
		// Up parallel to the view direction, pick any perpendicular
		right = forward.Cross(core.WorldZ.Negate()).Normalize()
		if right.LengthSquared() == 0 {
			right = core.WorldX
		}
	}

	c := &Camera{
		eye:         view.Eye,
		right:       right,
		up:          right.Cross(forward),
		forward:     forward,
		extent:      extent,
		width:       max(1, width),
		height:      max(1, height),
		pixelAspect: 1,
	}
	c.updateViewport()
	return c
}

// SetPixelAspect sets the ratio of pixel height to width, 2 for terminal cells
func (c *Camera) SetPixelAspect(aspect float64) {
	if aspect <= 0 {
		aspect = 1
	}
	c.pixelAspect = aspect
	c.updateViewport()
}

func (c *Camera) updateViewport() {
	c.halfWidth = c.extent / 2
	c.halfHeight = c.halfWidth * float64(c.height) * c.pixelAspect / float64(c.width)
}

// Size returns the image size in pixels
func (c *Camera) Size() (width, height int) { return c.width, c.height }

// Up returns the world direction of the top of the image
func (c *Camera) Up() core.Vec3 { return c.up }

// Forward returns the view direction
func (c *Camera) Forward() core.Vec3 { return c.forward }

// WorldPerPixel returns the world width covered by one pixel
func (c *Camera) WorldPerPixel() float64 { return c.extent / float64(c.width) }

// GetRay returns the ray through the image point (x, y), in pixels
func (c *Camera) GetRay(x, y float64) core.Ray {
	s := (x/float64(c.width)*2 - 1) * c.halfWidth
	t := (1 - y/float64(c.height)*2) * c.halfHeight
	origin := c.eye.Add(c.right.Multiply(s)).Add(c.up.Multiply(t))
	return core.NewRay(origin, c.forward)
}

// Project maps a world point to image coordinates, in pixels
func (c *Camera) Project(p core.Vec3) (x, y float64) {
	d := p.Subtract(c.eye)
	s := d.Dot(c.right)
	t := d.Dot(c.up)
	x = (s/c.halfWidth + 1) / 2 * float64(c.width)
	y = (1 - t/c.halfHeight) / 2 * float64(c.height)
	return x, y
}

// Pan moves the camera across the view plane by a world offset
func (c *Camera) Pan(dx, dy float64) {
	c.eye = c.eye.Add(c.right.Multiply(dx)).Add(c.up.Multiply(dy))
}

package preview

import (
	"image"
	"image/color"
	"math"

	"github.com/google/uuid"

	"github.com/df07/go-scatter-placer/pkg/core"
	"github.com/df07/go-scatter-placer/pkg/placer"
	"github.com/df07/go-scatter-placer/pkg/scene"
)

// Tracer is the scene as seen by the rasterizer
type Tracer interface {
	Trace(origin, direction core.Vec3, maxDistance float64) (scene.TraceHit, bool)
	Bounds() core.AABB
}

// Styles resolves the display style of an item
type Styles interface {
	Item(ref placer.ItemRef) (*scene.ItemDescriptor, error)
}

// FlatSpan is the height range below which a scene is drawn as flat.
// Shapes are padded by a millimetre, so flat ground has a tiny range.
const FlatSpan = 0.01

var (
	backgroundColor = color.RGBA{R: 24, G: 26, B: 32, A: 255}
	lowGroundColor  = core.NewVec3(0.33, 0.42, 0.18)
	highGroundColor = core.NewVec3(0.84, 0.80, 0.63)
	lightDirection  = core.NewVec3(-1, 2, -1).Normalize()
)

// TileRasterizer shades the scene layer: one ray per pixel against the
// scene, coloured by height and lit from the upper left
type TileRasterizer struct {
	tracer      Tracer
	styles      Styles
	camera      *Camera
	supersample int
	target      *image.RGBA

	heightLow  float64
	heightHigh float64
}

// NewTileRasterizer creates a rasterizer writing into target, which holds
// supersample×supersample pixels per camera pixel
func NewTileRasterizer(tracer Tracer, styles Styles, camera *Camera, supersample int, target *image.RGBA) *TileRasterizer {
	tr := &TileRasterizer{
		tracer:      tracer,
		styles:      styles,
		camera:      camera,
		supersample: max(1, supersample),
		target:      target,
	}

	// Colour ramp spans the scene's extent along the camera up direction,
	// or world Y for a top-down view
	bounds := tracer.Bounds()
	tr.heightLow = math.Max(bounds.Min.Y, -1e3)
	tr.heightHigh = math.Min(bounds.Max.Y, 1e3)
	return tr
}

// RasterizeBounds shades the pixels within bounds
func (tr *TileRasterizer) RasterizeBounds(bounds image.Rectangle) RasterStats {
	stats := newRasterStats()
	scale := float64(tr.supersample)

	for j := bounds.Min.Y; j < bounds.Max.Y; j++ {
		for i := bounds.Min.X; i < bounds.Max.X; i++ {
			ray := tr.camera.GetRay((float64(i)+0.5)/scale, (float64(j)+0.5)/scale)
			hit, ok := tr.tracer.Trace(ray.Origin, ray.Direction, math.Inf(1))
			if !ok {
				tr.target.SetRGBA(i, j, backgroundColor)
				stats.addMiss()
				continue
			}

			isInstance := hit.Instance != uuid.Nil
			tr.target.SetRGBA(i, j, tr.shade(hit, isInstance))
			stats.addHit(hit.Point.Y, isInstance)
		}
	}
	return stats
}

func (tr *TileRasterizer) shade(hit scene.TraceHit, isInstance bool) color.RGBA {
	base := tr.groundColor(hit.Point.Y)
	if isInstance && tr.styles != nil {
		if desc, err := tr.styles.Item(hit.Item); err == nil {
			c := desc.RGBA()
			base = core.NewVec3(float64(c.R), float64(c.G), float64(c.B)).Multiply(1.0 / 255)
		}
	}

	lambert := math.Max(0, hit.Normal.Dot(lightDirection))
	return toRGBA(base.Multiply(0.45 + 0.55*lambert))
}

func (tr *TileRasterizer) groundColor(height float64) core.Vec3 {
	t := 0.0
	if span := tr.heightHigh - tr.heightLow; span > FlatSpan {
		t = math.Max(0, math.Min(1, (height-tr.heightLow)/span))
	}
	return lowGroundColor.Multiply(1 - t).Add(highGroundColor.Multiply(t))
}

func toRGBA(c core.Vec3) color.RGBA {
	return color.RGBA{R: channel(c.X), G: channel(c.Y), B: channel(c.Z), A: 255}
}

func channel(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, v*255+0.5)))
}

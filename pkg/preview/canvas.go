// Package preview draws a top-down image of a scene with the placer's brush
// and candidates, for hosts that have no viewport of their own.
package preview

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/df07/go-scatter-placer/pkg/core"
	"github.com/df07/go-scatter-placer/pkg/placer"
)

// Format is an image encoding
type Format string

const (
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

// ErrUnsupportedFormat is returned for output paths with an unknown extension
var ErrUnsupportedFormat = errors.New("unsupported image format")

// FormatFromPath picks the encoding from a file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG, nil
	case ".webp":
		return FormatWebP, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Options configures a canvas
type Options struct {
	Supersample int // Samples per pixel along each axis, default 2
	TileSize    int // Tile edge in output pixels, default 32
	Workers     int // Rasterizer workers, default one per CPU
	Styles      Styles
	Logger      core.Logger
}

// Counts reports how much preview was drawn since the last Render
type Counts struct {
	Brushes  int
	Previews int
	Rejected int
}

var (
	brushColor    = color.NRGBA{R: 0, G: 200, B: 255, A: 230}
	outlineColor  = color.NRGBA{R: 20, G: 20, B: 20, A: 200}
	tiltColor     = color.NRGBA{R: 255, G: 255, B: 255, A: 170}
	rejectedColor = color.NRGBA{R: 230, G: 40, B: 40, A: 230}
	fallbackStyle = color.NRGBA{R: 160, G: 160, B: 160, A: 220}
)

const defaultFootprint = 0.5

// Canvas is a supersampled top-down image. Render draws the scene layer;
// the placer then draws its preview on top through the placer.Drawer
// methods.
type Canvas struct {
	camera      *Camera
	supersample int
	tileSize    int
	workers     int
	styles      Styles
	logger      core.Logger

	img    *image.RGBA
	raster *vector.Rasterizer
	counts Counts
}

// NewCanvas creates a canvas the size of the camera's image
func NewCanvas(camera *Camera, opts Options) *Canvas {
	ss := opts.Supersample
	if ss <= 0 {
		ss = 2
	}
	tile := opts.TileSize
	if tile <= 0 {
		tile = 32
	}
	w, h := camera.Size()

	return &Canvas{
		camera:      camera,
		supersample: ss,
		tileSize:    tile,
		workers:     opts.Workers,
		styles:      opts.Styles,
		logger:      opts.Logger,
		img:         image.NewRGBA(image.Rect(0, 0, w*ss, h*ss)),
		raster:      vector.NewRasterizer(w*ss, h*ss),
	}
}

// Camera returns the camera the canvas draws with
func (c *Canvas) Camera() *Camera { return c.camera }

// Counts returns the preview drawn since the last Render
func (c *Canvas) Counts() Counts { return c.counts }

// Render rasterizes the scene layer in parallel tiles and clears the preview
// counts
func (c *Canvas) Render(ctx context.Context, tracer Tracer) (RasterStats, error) {
	start := time.Now()
	c.counts = Counts{}

	tiles := tileBounds(c.img.Bounds(), c.tileSize*c.supersample)
	pool := NewWorkerPool(NewTileRasterizer(tracer, c.styles, c.camera, c.supersample, c.img), len(tiles), c.workers)
	pool.Start()
	for i, bounds := range tiles {
		pool.SubmitTask(TileTask{Ctx: ctx, Bounds: bounds, TaskID: i})
	}

	stats := newRasterStats()
	var err error
	for range tiles {
		result, _ := pool.GetResult()
		if result.Error != nil {
			err = result.Error
			continue
		}
		stats.Merge(result.Stats)
	}
	pool.Stop()

	if err != nil {
		return stats, fmt.Errorf("preview: render: %w", err)
	}
	if c.logger != nil {
		c.logger.Debugf("Rendered %d tiles with %d workers in %v: coverage=%.1f%% instances=%d px",
			len(tiles), pool.GetNumWorkers(), time.Since(start), stats.Coverage()*100, stats.InstancePixels)
	}
	return stats, nil
}

// DrawBrush outlines the brush disc in the surface's tangent plane
func (c *Canvas) DrawBrush(center, normal core.Vec3, radius float64) {
	c.counts.Brushes++

	frame := placer.NewTangentFrame(normal, c.camera.Up())
	width := 2 * c.camera.WorldPerPixel()
	inner := math.Max(0, radius-width)

	const segments = 72
	outerPts := make([]point, segments)
	innerPts := make([]point, segments)
	for i := 0; i < segments; i++ {
		a := 2 * math.Pi * float64(i) / segments
		dir := core.NewVec2(math.Cos(a), math.Sin(a))
		offset := frame.ToWorld(dir)
		outerPts[i] = c.project(center.Add(offset.Multiply(radius)))
		// Reversed so the inner ring cuts a hole
		innerPts[segments-1-i] = c.project(center.Add(offset.Multiply(inner)))
	}
	c.fill(brushColor, outerPts, innerPts)
	c.fill(brushColor, c.circle(c.project(center), 1.5*float64(c.supersample)))
}

// DrawPreview marks a valid candidate with its footprint in the item colour
// and a tick along its up axis
func (c *Canvas) DrawPreview(item placer.ItemRef, position core.Vec3, rotation mgl64.Quat) {
	c.counts.Previews++

	fill, footprint := c.style(item)
	center := c.project(position)
	radius := math.Max(1.5*float64(c.supersample), c.worldToPixels(footprint/2))

	c.fill(outlineColor, c.circle(center, radius+float64(c.supersample)))
	c.fill(fill, c.circle(center, radius))

	tip := c.project(position.Add(core.UpAxis(rotation).Multiply(footprint)))
	c.line(center, tip, float64(c.supersample), tiltColor)
}

// DrawRejected crosses out a blocked candidate and shows how far along the
// normal the item would have reached
func (c *Canvas) DrawRejected(item placer.ItemRef, position, normal core.Vec3, height float64) {
	c.counts.Rejected++

	_, footprint := c.style(item)
	center := c.project(position)
	arm := math.Max(2*float64(c.supersample), c.worldToPixels(footprint/2))
	width := float64(c.supersample)

	c.line(point{center.x - arm, center.y - arm}, point{center.x + arm, center.y + arm}, width, rejectedColor)
	c.line(point{center.x - arm, center.y + arm}, point{center.x + arm, center.y - arm}, width, rejectedColor)
	c.line(center, c.project(position.Add(normal.Multiply(height))), width, rejectedColor)
}

func (c *Canvas) style(item placer.ItemRef) (color.NRGBA, float64) {
	if c.styles == nil {
		return fallbackStyle, defaultFootprint
	}
	desc, err := c.styles.Item(item)
	if err != nil {
		return fallbackStyle, defaultFootprint
	}
	footprint := desc.Footprint
	if footprint <= 0 {
		footprint = defaultFootprint
	}
	rgba := desc.RGBA()
	return color.NRGBA{R: rgba.R, G: rgba.G, B: rgba.B, A: 220}, footprint
}

// Image returns the canvas downscaled to the camera's image size
func (c *Canvas) Image() *image.RGBA {
	if c.supersample == 1 {
		return c.img
	}
	w, h := c.camera.Size()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), c.img, c.img.Bounds(), draw.Src, nil)
	return dst
}

// Encode writes the image in the given format
func (c *Canvas) Encode(w io.Writer, format Format) error {
	img := c.Image()
	switch format {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatWebP:
		if err := nativewebp.Encode(w, img, nil); err != nil {
			return fmt.Errorf("WebP encode: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Save writes the image to path, choosing the format from the extension
func (c *Canvas) Save(path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("preview: save %s: %w", path, err)
	}
	if err := c.Encode(f, format); err != nil {
		f.Close()
		return fmt.Errorf("preview: save %s: %w", path, err)
	}
	return f.Close()
}

var _ placer.Drawer = (*Canvas)(nil)

package loaders

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/df07/go-scatter-placer/pkg/core"
)

// heightmapDecoders picks the decoder by extension. TGA files carry no magic
// number, so sniffing with image.Decode is not reliable once it is registered.
var heightmapDecoders = map[string]func(io.Reader) (image.Image, error){
	".png":  png.Decode,
	".jpg":  jpeg.Decode,
	".jpeg": jpeg.Decode,
	".tga":  tga.Decode,
	".bmp":  bmp.Decode,
	".tif":  tiff.Decode,
	".tiff": tiff.Decode,
}

// Heightmap holds per-pixel elevations in [0,1], row-major from the top edge
type Heightmap struct {
	Width  int
	Height int
	Values []float64
}

// LoadHeightmap loads a PNG, JPEG, TGA, BMP or TIFF image and converts its
// luminance to elevations
func LoadHeightmap(filename string) (*Heightmap, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open heightmap: %w", err)
	}
	defer file.Close()

	decode, ok := heightmapDecoders[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		return nil, fmt.Errorf("unsupported heightmap format: %s", filepath.Ext(filename))
	}
	img, err := decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode heightmap: %w", err)
	}
	return HeightmapFromImage(img), nil
}

// HeightmapFromImage converts an image's luminance to elevations
func HeightmapFromImage(img image.Image) *Heightmap {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	values := make([]float64, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// RGBA returns uint32 in [0, 65535]; Rec. 709 luma
			values[y*width+x] = (0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(b)) / 65535.0
		}
	}

	return &Heightmap{Width: width, Height: height, Values: values}
}

// At returns the elevation of a pixel
func (h *Heightmap) At(x, y int) float64 {
	return h.Values[y*h.Width+x]
}

// Mesh turns the heightmap into a triangle grid centred on the origin in the
// XZ plane. extent is the world width along X, the Z extent follows the
// image aspect, and elevations are scaled by maxHeight. Triangles face +Y.
func (h *Heightmap) Mesh(extent, maxHeight float64) ([]core.Vec3, []int, error) {
	if h.Width < 2 || h.Height < 2 {
		return nil, nil, fmt.Errorf("heightmap must be at least 2x2, got %dx%d", h.Width, h.Height)
	}

	step := extent / float64(h.Width-1)
	depth := step * float64(h.Height-1)

	vertices := make([]core.Vec3, 0, h.Width*h.Height)
	for y := 0; y < h.Height; y++ {
		for x := 0; x < h.Width; x++ {
			vertices = append(vertices, core.NewVec3(
				float64(x)*step-extent/2,
				h.At(x, y)*maxHeight,
				float64(y)*step-depth/2,
			))
		}
	}

	faces := make([]int, 0, (h.Width-1)*(h.Height-1)*6)
	for y := 0; y < h.Height-1; y++ {
		for x := 0; x < h.Width-1; x++ {
			a := y*h.Width + x
			b := a + 1
			c := a + h.Width
			d := c + 1
			faces = append(faces, a, c, b, b, c, d)
		}
	}
	return vertices, faces, nil
}

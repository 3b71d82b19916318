package scene

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/df07/go-scatter-placer/pkg/core"
)

func TestParse_Shapes(t *testing.T) {
	raw := []byte(`
name: Courtyard
view:
  eye: [0, 20, 0]
  target: [0, 0, 0]
shapes:
  - type: plane
    center: [0, 0, 0]
  - type: box
    center: [5, 1, 0]
    size: [2, 2, 2]
  - type: sphere
    center: [-5, 1, 0]
    radius: 1
  - type: disc
    center: [0, 0.01, 5]
    radius: 1.5
  - type: quad
    center: [0, 3, 0]
    u: [2, 0, 0]
    v: [0, 0, 2]
    single_sided: true
`)
	s, err := Parse(raw, "", nil, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Equal(t, "Courtyard", s.Name)
	assert.Len(t, s.StaticShapes(), 5)
	assert.Equal(t, core.NewVec3(0, 20, 0), s.View.Eye)
	assert.Equal(t, core.NewVec3(0, 0, -1), s.View.Up, "up defaults to -Z")

	tests := []struct {
		name   string
		origin core.Vec3
		height float64
	}{
		{"box top", core.NewVec3(5, 10, 0), 2},
		{"sphere top", core.NewVec3(-5, 10, 0), 2},
		{"disc", core.NewVec3(0, 10, 5), 0.01},
		{"single-sided quad passes downward rays", core.NewVec3(0, 10, 0), 0},
		{"plane", core.NewVec3(20, 10, 20), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := s.Raycast(tt.origin, down, 100)
			require.True(t, ok)
			assert.InDelta(t, tt.height, hit.Point.Y, 1e-6)
		})
	}

	// The same quad blocks rays going up
	hit, ok := s.Raycast(core.NewVec3(0, 0.5, 0), core.NewVec3(0, 1, 0), 100)
	require.True(t, ok)
	assert.InDelta(t, 3, hit.Point.Y, 1e-6)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"invalid yaml", "shapes: [", "failed to parse scene"},
		{"unknown type", "shapes: [{type: torus}]", `unknown shape type "torus"`},
		{"short vector", "shapes: [{type: sphere, center: [1, 2], radius: 1}]", "center needs 3 components"},
		{"missing size", "shapes: [{type: box}]", "size is required"},
		{"zero radius", "shapes: [{type: sphere}]", "radius must be positive"},
		{"degenerate quad", "shapes: [{type: quad, u: [1, 0, 0], v: [2, 0, 0]}]", "must span a plane"},
		{"bad view", "view: {target: [0, 0, 0]}", "eye is required"},
		{"missing mesh", "shapes: [{type: mesh, path: nope.ply}]", "shape 0 (mesh)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), t.TempDir(), nil, zap.NewNop().Sugar())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFile_Heightmap(t *testing.T) {
	dir := t.TempDir()

	// 3x3 map with a white centre
	img := image.NewGray(image.Rect(0, 0, 3, 3))
	img.SetGray(1, 1, color.Gray{Y: 255})
	f, err := os.Create(filepath.Join(dir, "hill.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	sceneFile := filepath.Join(dir, "small-hill.yaml")
	require.NoError(t, os.WriteFile(sceneFile, []byte(`
shapes:
  - type: heightmap
    path: hill.png
    extent: 10
    height: 2
`), 0644))

	s, err := LoadFile(sceneFile, nil, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Equal(t, "Small Hill", s.Name)

	// Inside the triangle touching the peak, 1/5 of a cell from it
	hit, ok := s.Raycast(core.NewVec3(0.5, 10, 0.5), down, 100)
	require.True(t, ok)
	assert.InDelta(t, 1.6, hit.Point.Y, 1e-6)
	assert.Greater(t, hit.Normal.Y, 0.0, "terrain faces up")

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"), nil, zap.NewNop().Sugar())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

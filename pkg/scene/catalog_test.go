package scene

import (
	"bytes"
	"encoding/binary"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/df07/go-scatter-placer/pkg/core"
	"github.com/df07/go-scatter-placer/pkg/placer"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestItemDescriptor_BoundingHeight(t *testing.T) {
	tests := []struct {
		name     string
		parts    []Part
		expected float64
	}{
		{"no parts", nil, 0},
		{"single part", []Part{{BoundsMaxY: 1.5, ScaleY: 1}}, 1.5},
		{"zero scale means one", []Part{{BoundsMaxY: 2}}, 2},
		{"highest part wins", []Part{{BoundsMaxY: 1, ScaleY: 1}, {OffsetY: 0.8, BoundsMaxY: 1.2, ScaleY: 1.5}}, 2.6},
		{"below origin floors at zero", []Part{{OffsetY: -3, BoundsMaxY: 1, ScaleY: 1}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ItemDescriptor{Parts: tt.parts}
			assert.InDelta(t, tt.expected, d.BoundingHeight(), 1e-12)
		})
	}
}

func TestItemDescriptor_RGBA(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 0x2e, G: 0x7d, B: 0x32, A: 255}, (&ItemDescriptor{Color: "#2e7d32"}).RGBA())
	assert.Equal(t, color.RGBA{R: 160, G: 160, B: 160, A: 255}, (&ItemDescriptor{Color: "green"}).RGBA())
	assert.Equal(t, color.RGBA{R: 160, G: 160, B: 160, A: 255}, (&ItemDescriptor{}).RGBA())
}

func TestCatalog_EnumerateItems(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pine-tree.yaml"), `
description: Tall conifer
pivot_offset: 0
footprint: 0.5
glyph: "^"
color: "#2e7d32"
parts:
  - name: trunk
    bounds_max_y: 1
    scale_y: 1
  - name: crown
    offset_y: 0.8
    bounds_max_y: 1.2
    scale_y: 1.5
`)
	writeFile(t, filepath.Join(dir, "lamp.yml"), "name: Street Lamp\npivot_offset: 0.25\nparts: [{bounds_max_y: 3}]\n")
	writeFile(t, filepath.Join(dir, "broken.yaml"), "parts: [unclosed\n")
	writeFile(t, filepath.Join(dir, "negative.yaml"), "footprint: -1\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "not an item")

	c := NewCatalog(zap.NewNop().Sugar())
	refs, err := c.EnumerateItems(dir)
	require.NoError(t, err)
	assert.Equal(t, []placer.ItemRef{"lamp", "pine-tree"}, refs)

	pine, err := c.Item("pine-tree")
	require.NoError(t, err)
	assert.Equal(t, "Pine Tree", pine.Name)
	assert.InDelta(t, 2.6, c.BoundingHeight("pine-tree"), 1e-12)
	assert.Equal(t, "^", pine.Glyph)

	lamp, err := c.Item("lamp")
	require.NoError(t, err)
	assert.Equal(t, "Street Lamp", lamp.Name)
	assert.Equal(t, 0.25, c.PivotOffset("lamp"))

	assert.Zero(t, c.BoundingHeight("missing"))
	assert.Zero(t, c.PivotOffset("missing"))
	_, err = c.Item("missing")
	assert.ErrorIs(t, err, ErrUnknownItem)
}

func TestCatalog_EnumerateMissingDirectory(t *testing.T) {
	c := NewCatalog(zap.NewNop().Sugar())
	_, err := c.EnumerateItems(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCatalog_EnumerateRegisteredOnly(t *testing.T) {
	c := newTestCatalog()
	refs, err := c.EnumerateItems("")
	require.NoError(t, err)
	assert.Equal(t, []placer.ItemRef{"bush", "decal", "lantern", "pine", "rock"}, refs)

	assert.Error(t, c.Register(ItemDescriptor{Name: "nameless"}))
}

func TestCatalog_OrientedBoxProxy(t *testing.T) {
	c := newTestCatalog()

	// Lying on a wall facing +X, the rock extends along +X
	rotation := mgl64.QuatRotate(-mgl64.DegToRad(90), mgl64.Vec3{0, 0, 1})
	proxy, err := c.Proxy("rock", core.NewVec3(0, 1, 0), rotation)
	require.NoError(t, err)
	require.NotNil(t, proxy)

	bbox := proxy.BoundingBox()
	assert.InDelta(t, 0, bbox.Min.X, 1e-6)
	assert.InDelta(t, 0.4, bbox.Max.X, 1e-6)

	none, err := c.Proxy("decal", core.Vec3{}, mgl64.QuatIdent())
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestCatalog_MeshProxy(t *testing.T) {
	dir := t.TempDir()

	// A unit pyramid, apex at y=1
	var buf bytes.Buffer
	buf.WriteString("ply\nformat binary_little_endian 1.0\nelement vertex 4\nproperty float x\nproperty float y\nproperty float z\n")
	buf.WriteString("element face 2\nproperty list uchar int vertex_indices\nend_header\n")
	for _, v := range [][3]float32{{-0.5, 0, -0.5}, {0.5, 0, -0.5}, {0, 0, 0.5}, {0, 1, 0}} {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
	}
	for _, f := range [][3]int32{{0, 1, 3}, {1, 2, 3}} {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint8(3)))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, f))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spike.ply"), buf.Bytes(), 0644))
	writeFile(t, filepath.Join(dir, "spike.yaml"), "mesh: spike.ply\nmesh_scale: 2\nparts: [{bounds_max_y: 1, scale_y: 2}]\n")

	c := NewCatalog(zap.NewNop().Sugar())
	_, err := c.EnumerateItems(dir)
	require.NoError(t, err)

	proxy, err := c.Proxy("spike", core.NewVec3(3, 0, 0), mgl64.QuatIdent())
	require.NoError(t, err)
	bbox := proxy.BoundingBox()
	assert.InDelta(t, 2, bbox.Max.Y, 1e-3)
	assert.InDelta(t, 3, bbox.Center().X, 1e-3)
}

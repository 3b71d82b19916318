package scene

import (
	"fmt"
	"math"

	"github.com/df07/go-scatter-placer/pkg/core"
	"github.com/df07/go-scatter-placer/pkg/geometry"
	"github.com/df07/go-scatter-placer/pkg/placer"
)

// NewGroundQuad creates a large horizontal quad centered at the given point
// with its normal pointing up
func NewGroundQuad(center core.Vec3, size float64) *geometry.Quad {
	// u × v = (0,0,size) × (size,0,0) = (0,size²,0)
	return geometry.NewCenteredQuad(center, core.NewVec3(0, 0, size/2), core.NewVec3(size/2, 0, 0))
}

// NewFlatScene creates a single large ground quad
func NewFlatScene(proxies ProxyFactory, logger core.Logger) *Scene {
	s := New(proxies, logger)
	s.Name = "Flat Ground"
	s.AddShapes(NewGroundQuad(core.Vec3{}, 100))
	return s
}

// NewTerraceScene creates stepped ground with a slope, for testing the probe
// lift and surface alignment
func NewTerraceScene(proxies ProxyFactory, logger core.Logger) *Scene {
	s := New(proxies, logger)
	s.Name = "Terraces"
	s.AddShapes(
		NewGroundQuad(core.Vec3{}, 100),
		geometry.NewAxisAlignedBox(core.NewVec3(6, 0.5, 0), core.NewVec3(2, 0.5, 6)),
		geometry.NewAxisAlignedBox(core.NewVec3(9, 1, 0), core.NewVec3(1, 1, 6)),
		// 20° ramp rising towards -X
		geometry.NewCenteredQuad(core.NewVec3(-6, 1.1, 0),
			core.NewVec3(0, 0, 6),
			core.NewVec3(3*math.Cos(20*math.Pi/180), -3*math.Sin(20*math.Pi/180), 0)),
	)
	return s
}

// NewArchScene creates ground under overhanging slabs, for testing overhead
// rejection. The slabs are single-sided and face down so the placer's
// downward probes find the ground beneath them.
func NewArchScene(proxies ProxyFactory, logger core.Logger) *Scene {
	s := New(proxies, logger)
	s.Name = "Arches"
	s.AddShapes(NewGroundQuad(core.Vec3{}, 100))

	for i, height := range []float64{0.6, 1.2, 2.5} {
		x := float64(i)*5 - 5
		slab := geometry.NewCenteredQuad(core.NewVec3(x, height, 0), core.NewVec3(1.5, 0, 0), core.NewVec3(0, 0, 1.5))
		slab.SingleSided = true
		s.AddShapes(slab,
			geometry.NewAxisAlignedBox(core.NewVec3(x-1.6, height/2, 0), core.NewVec3(0.1, height/2, 1.5)),
			geometry.NewAxisAlignedBox(core.NewVec3(x+1.6, height/2, 0), core.NewVec3(0.1, height/2, 1.5)),
		)
	}
	return s
}

var builtinScenes = map[string]func(ProxyFactory, core.Logger) *Scene{
	"flat":    NewFlatScene,
	"terrace": NewTerraceScene,
	"arches":  NewArchScene,
}

// NewBuiltin creates a built-in scene by id
func NewBuiltin(id string, proxies ProxyFactory, logger core.Logger) (*Scene, error) {
	create, ok := builtinScenes[id]
	if !ok {
		return nil, fmt.Errorf("unknown built-in scene %q", id)
	}
	return create(proxies, logger), nil
}

// RegisterDefaultItems adds a small set of items so the tool works without
// an item directory
func RegisterDefaultItems(c *Catalog) {
	defaults := []ItemDescriptor{
		{ID: "rock", Glyph: "o", Color: "#8d8d8d", Footprint: 0.6,
			Parts: []Part{{Name: "body", BoundsMaxY: 0.4, ScaleY: 1}}},
		{ID: "pine", Glyph: "^", Color: "#2e7d32", Footprint: 0.5,
			Parts: []Part{{Name: "trunk", BoundsMaxY: 1, ScaleY: 1}, {Name: "crown", OffsetY: 0.8, BoundsMaxY: 1.2, ScaleY: 1.5}}},
		{ID: "bush", Glyph: "*", Color: "#7cb342", Footprint: 0.8,
			Parts: []Part{{Name: "leaves", BoundsMaxY: 0.7, ScaleY: 1}}},
		{ID: "lantern", Glyph: "!", Color: "#ffb300", Footprint: 0.3, PivotOffset: 0.5,
			Parts: []Part{{Name: "post", OffsetY: -0.5, BoundsMaxY: 1.5, ScaleY: 1}}},
		{ID: "decal", Glyph: ".", Color: "#6d4c41"},
	}
	for _, d := range defaults {
		// IDs are set, Register cannot fail
		_ = c.Register(d)
	}
}

var _ placer.ItemCatalog = (*Catalog)(nil)
var _ placer.SceneQuery = (*Scene)(nil)
var _ placer.Instantiator = (*Scene)(nil)

package placer

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/df07/go-scatter-placer/pkg/core"
	"github.com/df07/go-scatter-placer/pkg/geometry"
)

// shapeScene answers ray queries against a fixed set of shapes
type shapeScene struct {
	bvh *geometry.BVH
}

func newShapeScene(shapes ...geometry.Shape) *shapeScene {
	return &shapeScene{bvh: geometry.NewBVH(shapes)}
}

func (s *shapeScene) Raycast(origin, direction core.Vec3, maxDistance float64) (Hit, bool) {
	rec, ok := s.bvh.Hit(core.NewRay(origin, direction.Normalize()), 1e-4, maxDistance)
	if !ok {
		return Hit{}, false
	}
	return Hit{Point: rec.Point, Normal: rec.Normal}, true
}

func flatGround() *geometry.Plane {
	return geometry.NewPlane(core.Vec3{}, core.NewVec3(0, 1, 0))
}

// ceiling is a small single-sided square at height y facing down, so
// downward probes pass through it and upward rays stop on it
func ceiling(x, y, z, half float64) *geometry.Quad {
	q := geometry.NewCenteredQuad(core.NewVec3(x, y, z), core.NewVec3(half, 0, 0), core.NewVec3(0, 0, half))
	q.SingleSided = true
	return q
}

type heightTable map[ItemRef]float64

func (h heightTable) BoundingHeight(item ItemRef) float64 { return h[item] }

type fakeCatalog struct {
	items   []ItemRef
	heights heightTable
	pivots  map[ItemRef]float64
	err     error
	dirs    []string
}

func (c *fakeCatalog) BoundingHeight(item ItemRef) float64 { return c.heights[item] }
func (c *fakeCatalog) PivotOffset(item ItemRef) float64    { return c.pivots[item] }

func (c *fakeCatalog) EnumerateItems(dir string) ([]ItemRef, error) {
	c.dirs = append(c.dirs, dir)
	if c.err != nil {
		return nil, c.err
	}
	return c.items, nil
}

type instantiation struct {
	item     ItemRef
	position core.Vec3
	rotation mgl64.Quat
}

type recordingInstantiator struct {
	calls  []instantiation
	failOn ItemRef
}

var errInstantiate = errors.New("instantiate refused")

func (r *recordingInstantiator) Instantiate(item ItemRef, position core.Vec3, rotation mgl64.Quat) (uuid.UUID, error) {
	r.calls = append(r.calls, instantiation{item: item, position: position, rotation: rotation})
	if item == r.failOn {
		return uuid.Nil, errInstantiate
	}
	return uuid.New(), nil
}

type memSettings struct {
	floats  map[string]float64
	ints    map[string]int
	saves   int
	saveErr error
}

func newMemSettings() *memSettings {
	return &memSettings{floats: map[string]float64{}, ints: map[string]int{}}
}

func (m *memSettings) Float(key string, def float64) float64 {
	if v, ok := m.floats[key]; ok {
		return v
	}
	return def
}

func (m *memSettings) SetFloat(key string, value float64) { m.floats[key] = value }

func (m *memSettings) Int(key string, def int) int {
	if v, ok := m.ints[key]; ok {
		return v
	}
	return def
}

func (m *memSettings) SetInt(key string, value int) { m.ints[key] = value }

func (m *memSettings) Save() error {
	m.saves++
	return m.saveErr
}

type recordingDrawer struct {
	brushes  int
	previews int
	rejected int
}

func (d *recordingDrawer) DrawBrush(center, normal core.Vec3, radius float64) { d.brushes++ }
func (d *recordingDrawer) DrawPreview(item ItemRef, position core.Vec3, rotation mgl64.Quat) {
	d.previews++
}
func (d *recordingDrawer) DrawRejected(item ItemRef, position, normal core.Vec3, height float64) {
	d.rejected++
}

// countingSampler counts the 2D draws, one per disc point drawn
type countingSampler struct {
	core.Sampler
	draws2D int
}

func (c *countingSampler) Get2D() core.Vec2 {
	c.draws2D++
	return c.Sampler.Get2D()
}

// fixedSampler always returns the centre of the sample square
type fixedSampler struct{}

func (fixedSampler) Get1D() float64   { return 0.5 }
func (fixedSampler) Get2D() core.Vec2 { return core.NewVec2(0.5, 0.5) }

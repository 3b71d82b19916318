// Package placer scatters item instances over scene surfaces with a circular brush.
//
// A DiscSampler lays out points in the unit disc with an approximate minimum
// spacing. A Pipeline projects those points onto the surface under the cursor,
// rejects placements blocked by overhanging geometry and orients the rest to
// the surface. A Session ties both to the host's input events.
package placer

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/df07/go-scatter-placer/pkg/core"
)

// ItemRef identifies a placeable item template
type ItemRef string

// NoItem is the absent item reference
const NoItem ItemRef = ""

// Hit is a surface point returned by a scene ray query
type Hit struct {
	Point  core.Vec3
	Normal core.Vec3 // Unit normal facing the incoming ray
}

// Sample is one point of a disc layout
type Sample struct {
	PointInDisc core.Vec2 // Inside the unit disc
	RotationDeg float64   // Yaw about the surface normal in [0,360)
	Item        ItemRef   // NoItem when the selection was empty
}

// PairIndex names two samples of a batch, I < J
type PairIndex struct {
	I, J int
}

// Batch is the output of one sampler generation
type Batch struct {
	Samples    []Sample
	MinSpacing float64     // Target spacing used for this batch
	Redraws    int         // Point redraws spent on spacing
	Exhausted  []PairIndex // Pairs left under-spaced after their retry budget ran out
}

// Candidate is a sample after projection onto the scene and the overhead test
type Candidate struct {
	Sample   int        // Index into the batch
	Position core.Vec3  // Resolved surface point
	Normal   core.Vec3  // Surface normal at Position
	Rotation mgl64.Quat // Identity for invalid candidates
	Item     ItemRef
	Height   float64 // Bounding height used for the overhead test
	Valid    bool
}

// SceneQuery casts rays against scene geometry
type SceneQuery interface {
	Raycast(origin, direction core.Vec3, maxDistance float64) (Hit, bool)
}

// Instantiator creates item instances in the scene
type Instantiator interface {
	Instantiate(item ItemRef, position core.Vec3, rotation mgl64.Quat) (uuid.UUID, error)
}

// HeightSource reports the vertical extent of an item's geometry.
// Unknown items and NoItem report 0.
type HeightSource interface {
	BoundingHeight(item ItemRef) float64
}

// ItemCatalog describes the items available for placement
type ItemCatalog interface {
	HeightSource
	// PivotOffset is the height of the item's origin above its base
	PivotOffset(item ItemRef) float64
	EnumerateItems(dir string) ([]ItemRef, error)
}

// Settings persists the brush parameters between sessions
type Settings interface {
	Float(key string, def float64) float64
	SetFloat(key string, value float64)
	Int(key string, def int) int
	SetInt(key string, value int)
	Save() error
}

// Drawer receives the preview of one frame
type Drawer interface {
	DrawBrush(center, normal core.Vec3, radius float64)
	DrawPreview(item ItemRef, position core.Vec3, rotation mgl64.Quat)
	// DrawRejected marks a blocked placement and the obstruction extent along normal
	DrawRejected(item ItemRef, position, normal core.Vec3, height float64)
}

// NopDrawer discards all preview output
type NopDrawer struct{}

func (NopDrawer) DrawBrush(center, normal core.Vec3, radius float64)                    {}
func (NopDrawer) DrawPreview(item ItemRef, position core.Vec3, rotation mgl64.Quat)     {}
func (NopDrawer) DrawRejected(item ItemRef, position, normal core.Vec3, height float64) {}

// Package scene is the reference host for the placer: static geometry, item
// instances with collision proxies, ray queries and an undo history.
package scene

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/df07/go-scatter-placer/pkg/core"
	"github.com/df07/go-scatter-placer/pkg/geometry"
	"github.com/df07/go-scatter-placer/pkg/placer"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// rayEpsilon keeps rays starting on a surface from hitting it again
const rayEpsilon = 1e-3

// ProxyFactory builds the collision shape of a placed item
type ProxyFactory interface {
	Proxy(item placer.ItemRef, position core.Vec3, rotation mgl64.Quat) (geometry.Shape, error)
}

// Instance is a placed item
type Instance struct {
	ID       uuid.UUID
	Item     placer.ItemRef
	Position core.Vec3
	Rotation mgl64.Quat
	proxy    geometry.Shape // nil for items without volume
}

// View is the camera a scene file suggests for looking at it
type View struct {
	Eye    core.Vec3
	Target core.Vec3
	Up     core.Vec3
}

type undoStep struct {
	label     string
	instances []*Instance
}

// Scene contains static geometry and placed instances
type Scene struct {
	Name string
	View View

	mu        sync.RWMutex
	static    []geometry.Shape
	instances []*Instance
	byID      map[uuid.UUID]*Instance
	bvh       *geometry.BVH
	proxies   ProxyFactory
	logger    core.Logger

	undo  []undoStep
	redo  []undoStep
	group *undoStep
}

// New creates an empty scene whose instances get proxies from the factory
func New(proxies ProxyFactory, logger core.Logger) *Scene {
	s := &Scene{
		proxies: proxies,
		logger:  logger,
		View: View{
			Eye:    core.NewVec3(0, 10, 0),
			Target: core.Vec3{},
			Up:     core.NewVec3(0, 0, -1),
		},
	}
	s.rebuild()
	return s
}

// AddShapes adds static geometry
func (s *Scene) AddShapes(shapes ...geometry.Shape) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.static = append(s.static, shapes...)
	s.rebuild()
}

// rebuild refreshes the BVH; callers hold the write lock
func (s *Scene) rebuild() {
	shapes := make([]geometry.Shape, 0, len(s.static)+len(s.instances))
	shapes = append(shapes, s.static...)
	s.byID = make(map[uuid.UUID]*Instance, len(s.instances))
	for _, inst := range s.instances {
		s.byID[inst.ID] = inst
		if inst.proxy != nil {
			shapes = append(shapes, geometry.NewTagged(inst.proxy, inst.ID.String()))
		}
	}
	s.bvh = geometry.NewBVH(shapes)
}

// Bounds returns the bounding box of everything in the scene
func (s *Scene) Bounds() core.AABB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bvh.BoundingBox()
}

// Raycast returns the closest surface along the ray within maxDistance
func (s *Scene) Raycast(origin, direction core.Vec3, maxDistance float64) (placer.Hit, bool) {
	hit, ok := s.hit(origin, direction, maxDistance)
	if !ok {
		return placer.Hit{}, false
	}
	return placer.Hit{Point: hit.Point, Normal: hit.Normal}, true
}

// TraceHit is a ray hit together with the instance it belongs to
type TraceHit struct {
	placer.Hit
	Instance uuid.UUID // uuid.Nil for static geometry
	Item     placer.ItemRef
}

// Trace is Raycast for display: it also reports which instance was hit
func (s *Scene) Trace(origin, direction core.Vec3, maxDistance float64) (TraceHit, bool) {
	hit, ok := s.hit(origin, direction, maxDistance)
	if !ok {
		return TraceHit{}, false
	}
	result := TraceHit{Hit: placer.Hit{Point: hit.Point, Normal: hit.Normal}}
	if hit.Tag == "" {
		return result, true
	}

	id, err := uuid.Parse(hit.Tag)
	if err != nil {
		return result, true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if inst, ok := s.byID[id]; ok {
		result.Instance = inst.ID
		result.Item = inst.Item
	}
	return result, true
}

// InstanceAt returns the instance whose proxy the ray hits first, if any
func (s *Scene) InstanceAt(origin, direction core.Vec3) (*Instance, bool) {
	trace, ok := s.Trace(origin, direction, maxRange)
	if !ok || trace.Instance == uuid.Nil {
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.byID[trace.Instance]
	if !ok {
		return nil, false
	}
	found := *inst
	return &found, true
}

const maxRange = 1e9

func (s *Scene) hit(origin, direction core.Vec3, maxDistance float64) (*geometry.HitRecord, bool) {
	dir := direction.Normalize()
	if dir.LengthSquared() == 0 {
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bvh.Hit(core.NewRay(origin, dir), rayEpsilon, maxDistance)
}

// Instantiate places an item and records it for undo
func (s *Scene) Instantiate(item placer.ItemRef, position core.Vec3, rotation mgl64.Quat) (uuid.UUID, error) {
	var proxy geometry.Shape
	if s.proxies != nil {
		var err error
		if proxy, err = s.proxies.Proxy(item, position, rotation); err != nil {
			return uuid.Nil, fmt.Errorf("scene: instantiate %q: %w", item, err)
		}
	}

	inst := &Instance{
		ID:       uuid.New(),
		Item:     item,
		Position: position,
		Rotation: rotation,
		proxy:    proxy,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.instances = append(s.instances, inst)
	s.rebuild()

	if s.group != nil {
		s.group.instances = append(s.group.instances, inst)
	} else {
		s.pushUndo(undoStep{label: "Place " + string(item), instances: []*Instance{inst}})
	}
	return inst.ID, nil
}

// BeginGroup collects the following instantiations into one undo step
func (s *Scene) BeginGroup(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.group = &undoStep{label: label}
}

// EndGroup closes the current group. Empty groups are discarded.
func (s *Scene) EndGroup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.group == nil {
		return
	}
	if len(s.group.instances) > 0 {
		s.pushUndo(*s.group)
	}
	s.group = nil
}

func (s *Scene) pushUndo(step undoStep) {
	s.undo = append(s.undo, step)
	s.redo = nil
}

// Undo removes the instances of the most recent step and returns its label
func (s *Scene) Undo() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.undo) == 0 {
		return "", ErrNothingToUndo
	}

	step := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]

	removed := make(map[uuid.UUID]bool, len(step.instances))
	for _, inst := range step.instances {
		removed[inst.ID] = true
	}
	kept := s.instances[:0]
	for _, inst := range s.instances {
		if !removed[inst.ID] {
			kept = append(kept, inst)
		}
	}
	s.instances = kept
	s.rebuild()

	s.redo = append(s.redo, step)
	s.logger.Debugf("Undo %q: removed %d instances", step.label, len(step.instances))
	return step.label, nil
}

// Redo restores the most recently undone step and returns its label
func (s *Scene) Redo() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.redo) == 0 {
		return "", ErrNothingToRedo
	}

	step := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.instances = append(s.instances, step.instances...)
	s.rebuild()

	s.undo = append(s.undo, step)
	s.logger.Debugf("Redo %q: restored %d instances", step.label, len(step.instances))
	return step.label, nil
}

// Instances returns copies of the placed instances in placement order
func (s *Scene) Instances() []Instance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Instance, len(s.instances))
	for i, inst := range s.instances {
		out[i] = *inst
	}
	return out
}

// StaticShapes returns the static geometry
func (s *Scene) StaticShapes() []geometry.Shape {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]geometry.Shape(nil), s.static...)
}

package geometry

import (
	"github.com/df07/go-scatter-placer/pkg/core"
)

// AABB is the bounding box type shared with core
type AABB = core.AABB

// HitRecord contains information about a ray-object intersection
type HitRecord struct {
	Point     core.Vec3 // Point of intersection
	Normal    core.Vec3 // Surface normal at intersection, facing the incoming ray
	T         float64   // Parameter t along the ray
	FrontFace bool      // Whether ray hit the front face
	Tag       string    // Owner tag of the hit shape (empty for untagged geometry)
}

// SetFaceNormal sets the normal vector and determines front/back face
func (h *HitRecord) SetFaceNormal(ray core.Ray, outwardNormal core.Vec3) {
	h.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if h.FrontFace {
		h.Normal = outwardNormal
	} else {
		h.Normal = outwardNormal.Negate()
	}
}

// Shape interface for objects that can be hit by rays
type Shape interface {
	Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool)
	BoundingBox() AABB
}

// culledBackFace reports whether a single-sided surface should ignore the ray.
// Rays travelling along the outward normal see the back of the surface.
func culledBackFace(ray core.Ray, outwardNormal core.Vec3, singleSided bool) bool {
	return singleSided && ray.Direction.Dot(outwardNormal) >= 0
}

// Tagged wraps a shape so that every hit reports the given tag
type Tagged struct {
	Shape
	Tag string
}

// NewTagged attaches an owner tag to a shape
func NewTagged(shape Shape, tag string) *Tagged {
	return &Tagged{Shape: shape, Tag: tag}
}

// Hit forwards to the wrapped shape and stamps the tag on the record
func (t *Tagged) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	hit, ok := t.Shape.Hit(ray, tMin, tMax)
	if ok {
		hit.Tag = t.Tag
	}
	return hit, ok
}
